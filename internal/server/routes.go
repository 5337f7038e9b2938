package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotybot/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Opts configures the router built by [NewRouter].
type Opts struct {
	Completer Completer
	Gatherer  prometheus.Gatherer // nil disables /metrics
	Logger    *log.Logger
}

// NewRouter builds the bot's HTTP surface: /authorize, /health and /metrics.
func NewRouter(opts Opts) *BasicRouter {
	router := NewBasicRouter()
	if opts.Logger != nil {
		router.Use(Recover(opts.Logger), Logging(opts.Logger))
	}

	router.Handler(NewAuthorizeHandler(opts.Completer, opts.Logger))
	router.Handler(HealthHandler{})
	if opts.Gatherer != nil {
		router.Handle(http.MethodGet, "/metrics", metrics.Handler(opts.Gatherer))
	}
	return router
}
