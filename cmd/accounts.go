package main

import (
	"context"
	"strconv"
	"time"

	"github.com/desertthunder/spotybot/internal/ui"
	"github.com/urfave/cli/v3"
)

const timeLayout = "2006-01-02 15:04:05"

type accountRow struct {
	Identity  string    `json:"identity"`
	ChatID    int64     `json:"chat_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type pendingRow struct {
	Identity  string    `json:"identity"`
	ChatID    int64     `json:"chat_id"`
	CreatedAt time.Time `json:"created_at"`
	Expired   bool      `json:"expired"`
}

// AccountsList prints every registered identity. Refresh tokens are never printed.
func (r *Runner) AccountsList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	db, store, err := r.openStore(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		return err
	}

	out := make([]accountRow, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountRow{a.Identity, a.ChatID, a.CreatedAt, a.UpdatedAt})
	}

	if cmd.Bool("json") {
		return r.writeJSON(out)
	}
	if len(out) == 0 {
		return r.writeLine(ui.Styles.Warn("No registered accounts"))
	}

	rows := make([][]string, 0, len(out))
	for _, a := range out {
		rows = append(rows, []string{
			a.Identity, strconv.FormatInt(a.ChatID, 10), a.CreatedAt.Format(timeLayout), a.UpdatedAt.Format(timeLayout),
		})
	}
	r.writeLine(ui.Styles.Title("Registered accounts (%d)", len(out)))
	return r.writeLine(ui.Table([]string{"Identity", "Chat", "Registered", "Updated"}, rows))
}

// AccountsPending prints registrations still waiting for the Spotify redirect.
func (r *Runner) AccountsPending(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	db, store, err := r.openStore(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	claims, err := store.ListPending(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	out := make([]pendingRow, 0, len(claims))
	for _, c := range claims {
		out = append(out, pendingRow{c.Identity, c.ChatID, c.CreatedAt, c.Expired(now, config.Registration.PendingTTL)})
	}

	if cmd.Bool("json") {
		return r.writeJSON(out)
	}
	if len(out) == 0 {
		return r.writeLine(ui.Styles.Warn("No pending registrations"))
	}

	rows := make([][]string, 0, len(out))
	for _, c := range out {
		status := "waiting"
		if c.Expired {
			status = "expired"
		}
		rows = append(rows, []string{c.Identity, strconv.FormatInt(c.ChatID, 10), c.CreatedAt.Format(timeLayout), status})
	}
	r.writeLine(ui.Styles.Title("Pending registrations (%d)", len(out)))
	return r.writeLine(ui.Table([]string{"Identity", "Chat", "Started", "Status"}, rows))
}

// AccountsRemove deletes an account and any pending claim so the identity can register again.
func (r *Runner) AccountsRemove(ctx context.Context, cmd *cli.Command) error {
	identity, err := requireArg(cmd, "identity")
	if err != nil {
		return err
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	db, store, err := r.openStore(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.RemoveAccount(ctx, identity); err != nil {
		return err
	}

	r.logger.Info("account removed", "identity", identity)
	return r.writeLine(ui.Styles.OK("removed %s", identity))
}

// AccountsPurge deletes pending claims older than the configured TTL.
func (r *Runner) AccountsPurge(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	db, store, err := r.openStore(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := store.PurgeExpiredPending(ctx)
	if err != nil {
		return err
	}
	return r.writeLine(ui.Styles.OK("purged %d expired registrations", n))
}
