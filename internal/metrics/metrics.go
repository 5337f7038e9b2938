// Package metrics collects Prometheus metrics for the bot and serves them for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the Prometheus implementation of the recorders used by the bot, the Spotify adapter and the
// registration endpoint.
type Collector struct {
	commands        *prometheus.CounterVec
	spotifyRequests *prometheus.CounterVec
	spotifyLatency  *prometheus.HistogramVec
	messagesSent    *prometheus.CounterVec
	registrations   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spotybot_commands_total",
			Help: "Handled chat commands and callbacks by outcome.",
		}, []string{"command", "outcome"}),
		spotifyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spotybot_spotify_requests_total",
			Help: "Spotify API operations by outcome.",
		}, []string{"operation", "outcome"}),
		spotifyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spotybot_spotify_latency_seconds",
			Help:    "Latency of Spotify API operations including token refresh.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spotybot_messages_sent_total",
			Help: "Outbound chat messages by kind.",
		}, []string{"kind"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spotybot_registrations_total",
			Help: "Completed registration attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.commands,
		c.spotifyRequests,
		c.spotifyLatency,
		c.messagesSent,
		c.registrations,
	)

	return c
}

// ObserveCommand records one handled command.
func (c *Collector) ObserveCommand(command, outcome string) {
	c.commands.WithLabelValues(command, outcome).Inc()
}

// ObserveSpotify records one Spotify operation and its latency.
func (c *Collector) ObserveSpotify(operation, outcome string, elapsed time.Duration) {
	c.spotifyRequests.WithLabelValues(operation, outcome).Inc()
	c.spotifyLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveMessage records one outbound message of the given kind (text, photo, audio, choices).
func (c *Collector) ObserveMessage(kind string) {
	c.messagesSent.WithLabelValues(kind).Inc()
}

// ObserveRegistration records the result of a registration completion.
func (c *Collector) ObserveRegistration(result string) {
	c.registrations.WithLabelValues(result).Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
