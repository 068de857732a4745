package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"enstore_storefront/internal/models"
	"enstore_storefront/internal/status"
	"enstore_storefront/web/templates/pages"
)

// TransactionHandler serves the public transaction status pages
type TransactionHandler struct {
	transactions TransactionAPI
	watch        Watcher
	interval     time.Duration
	clock        status.Clock
}

// NewTransactionHandler creates a new TransactionHandler. watch may be nil.
func NewTransactionHandler(transactions TransactionAPI, watch Watcher, interval time.Duration) *TransactionHandler {
	if interval <= 0 {
		interval = status.DefaultInterval
	}
	return &TransactionHandler{
		transactions: transactions,
		watch:        watch,
		interval:     interval,
		clock:        status.SystemClock{},
	}
}

// StatusResponse is the JSON view of a transaction's status
type StatusResponse struct {
	State       status.State        `json:"state"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Expired     bool                `json:"expired"`
	Cancellable bool                `json:"cancellable"`
	Remaining   string              `json:"remaining,omitempty"`
}

// ShowStatus renders the success, failure or waiting view of a transaction
func (h *TransactionHandler) ShowStatus(c echo.Context) error {
	ctx := c.Request().Context()
	code := c.Param("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid transaction code")
	}

	tx, err := h.transactions.Status(ctx, code)
	if err != nil {
		return notFound(err, "Transaction not found")
	}
	observe(ctx, h.watch, *tx, models.StatusSourcePoll)

	view := h.describe(*tx)
	props := pages.TransactionStatusProps{
		Layout:      layout(c, "Transaction "+code, "", "Transaction", ""),
		Transaction: *tx,
		State:       view.State,
		Countdown:   view.Remaining,
		ExpiresAt:   tx.Payment.ExpiredAt,
		Expired:     view.Expired,
		Cancellable: view.Cancellable,
		PollSeconds: int(h.interval / time.Second),
	}
	return pages.TransactionStatus(props).Render(ctx, c.Response())
}

// CheckStatus fetches the status on demand. Errors are reported to the caller
// instead of being swallowed like background polls.
func (h *TransactionHandler) CheckStatus(c echo.Context) error {
	ctx := c.Request().Context()
	tx, err := h.transactions.Status(ctx, c.Param("code"))
	if err != nil {
		return notFound(err, "Transaction not found")
	}
	observe(ctx, h.watch, *tx, models.StatusSourceManual)
	return c.JSON(http.StatusOK, h.describe(*tx))
}

// Cancel cancels a transaction that is still waiting for payment, then
// re-fetches its status once
func (h *TransactionHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	code := c.Param("code")

	tx, err := h.transactions.Status(ctx, code)
	if err != nil {
		return notFound(err, "Transaction not found")
	}
	if !h.describe(*tx).Cancellable {
		return echo.NewHTTPError(http.StatusConflict, "This transaction can no longer be cancelled.")
	}

	if err := h.transactions.Cancel(ctx, code); err != nil {
		return err
	}

	tx, err = h.transactions.Status(ctx, code)
	if err != nil {
		return err
	}
	observe(ctx, h.watch, *tx, models.StatusSourceCancel)
	return c.JSON(http.StatusOK, h.describe(*tx))
}

// Events streams status and countdown updates until the transaction settles
// or the client goes away
func (h *TransactionHandler) Events(c echo.Context) error {
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	code := c.Param("code")

	tx, err := h.transactions.Status(ctx, code)
	if err != nil {
		return notFound(err, "Transaction not found")
	}
	observe(ctx, h.watch, *tx, models.StatusSourcePoll)

	stream := newEventStream(c.Response())
	defer stream.close()

	seeded := make(chan struct{})
	var seedOnce sync.Once

	poller := status.NewPoller(code, h.transactions,
		status.WithInterval(h.interval),
		status.WithClock(h.clock),
		status.WithTransaction(tx),
		status.WithUpdateHandler(func(u status.Update) {
			if source, ok := observedSource(u.Trigger); ok && u.Transaction != nil {
				observe(ctx, h.watch, *u.Transaction, source)
			}
			stream.send("status", updateResponse(u))
			seedOnce.Do(func() { close(seeded) })
		}),
	)

	errc := make(chan error, 1)
	go func() { errc <- poller.Run(ctx) }()

	var wg sync.WaitGroup
	select {
	case <-seeded:
		if deadline, ok := tx.ExpiresAt(); ok && !tx.IsTerminal() {
			countdown := status.NewCountdown(deadline, poller.Expire,
				status.WithCountdownClock(h.clock),
				status.WithTickHandler(func(remaining string) {
					stream.send("countdown", remaining)
				}),
			)
			wg.Add(1)
			go func() {
				defer wg.Done()
				countdown.Run(ctx)
			}()
		}
	case <-ctx.Done():
	}

	select {
	case <-poller.Done():
	case <-ctx.Done():
	}
	cancel()
	<-errc
	wg.Wait()

	final := poller.Snapshot()
	stream.send("status", updateResponse(final))
	stream.send("done", final.State)
	return nil
}

func (h *TransactionHandler) describe(tx models.Transaction) StatusResponse {
	resp := StatusResponse{Transaction: &tx}
	if deadline, ok := tx.ExpiresAt(); ok {
		remaining := deadline.Sub(h.clock.Now())
		resp.Expired = remaining <= 0
		resp.Remaining = status.FormatRemaining(remaining)
	}
	resp.State = status.Classify(tx, resp.Expired)
	resp.Cancellable = !resp.State.Terminal() && status.Cancellable(tx, resp.Expired)
	return resp
}

func updateResponse(u status.Update) StatusResponse {
	resp := StatusResponse{
		State:       u.State,
		Transaction: u.Transaction,
		Expired:     u.Expired,
	}
	if u.Transaction != nil && !u.State.Terminal() {
		resp.Cancellable = status.Cancellable(*u.Transaction, u.Expired)
	}
	return resp
}

// observedSource maps the poller event that produced an update to the
// history source. The initial seed and local expiry carry no new API data.
func observedSource(ev status.Event) (models.StatusSource, bool) {
	switch ev {
	case status.EventTick:
		return models.StatusSourcePoll, true
	case status.EventManualCheck:
		return models.StatusSourceManual, true
	case status.EventCancelResolved:
		return models.StatusSourceCancel, true
	}
	return "", false
}
