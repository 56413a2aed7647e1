package app

import (
	"context"
	"strings"
	"time"
)

// State is the controller's position in the query lifecycle.
type State string

const (
	// StateIdle accepts new submissions.
	StateIdle State = "idle"
	// StateAwaiting means a query is in flight; further submissions are
	// ignored until its outcome is reconciled or the session is reset.
	StateAwaiting State = "awaiting"
)

// Outcome is what a dispatch hands back for reconciliation: the assistant
// turn to append and the epoch the query was submitted under.
type Outcome struct {
	Epoch uint64
	Turn  Turn
}

// Dispatch runs one armed query against the answering service. It is
// returned by Submit, must be run exactly once off the event loop, and never
// touches controller state itself; its Outcome goes back through Reconcile.
type Dispatch func() Outcome

// Controller owns the conversation session: the transcript, the draft query,
// and the submit/await/reconcile lifecycle. All methods must be called from
// a single goroutine (the UI event loop); only the Dispatch closures it
// hands out run elsewhere.
//
// Every submission and reset advances an epoch counter, and each dispatch
// carries the epoch it was submitted under. Reconcile drops outcomes whose
// epoch is stale, which is what makes a reset during an in-flight query safe:
// the late answer can never resurface in the cleared transcript.
type Controller struct {
	store      *TranscriptStore
	dispatcher *Dispatcher
	logger     *Logger

	state        State
	pending      string
	epoch        uint64
	timeout      time.Duration
	historyLimit int
	cancel       context.CancelFunc
}

// NewController builds an idle controller with an empty transcript. A zero
// timeout falls back to the default; historyLimit caps how many prior turns
// accompany each query, with 0 meaning all of them.
func NewController(dispatcher *Dispatcher, logger *Logger, timeout time.Duration, historyLimit int) *Controller {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if historyLimit < 0 {
		historyLimit = 0
	}
	return &Controller{
		store:        NewTranscriptStore(),
		dispatcher:   dispatcher,
		logger:       logger,
		state:        StateIdle,
		timeout:      timeout,
		historyLimit: historyLimit,
	}
}

// Submit validates queryText and, when accepted, appends the user turn and
// arms a dispatch for it. It reports false without side effects while a
// previous query is still awaiting its answer, or when the trimmed text is
// empty. The history captured for the dispatch is everything appended before
// this submission; the new user turn itself is not part of it.
func (c *Controller) Submit(queryText string) (Dispatch, bool) {
	if c.state != StateIdle {
		return nil, false
	}
	query := strings.TrimSpace(queryText)
	if query == "" {
		return nil, false
	}

	history := trimHistory(c.store.Snapshot(), c.historyLimit)

	c.epoch++
	epoch := c.epoch
	c.store.Append(NewUserTurn(query))
	c.pending = ""
	c.state = StateAwaiting

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel
	c.logger.Debug("query submitted", "epoch", epoch, "history", len(history))

	dispatcher := c.dispatcher
	return func() Outcome {
		defer cancel()
		return Outcome{Epoch: epoch, Turn: dispatcher.Dispatch(ctx, query, history)}
	}, true
}

// Reconcile folds a dispatch outcome back into the session. An outcome whose
// epoch does not match the current one belongs to a conversation that was
// reset or superseded; it is discarded without touching any state, and
// Reconcile reports false.
func (c *Controller) Reconcile(outcome Outcome) bool {
	if outcome.Epoch != c.epoch {
		c.logger.Debug("stale outcome discarded", "epoch", outcome.Epoch, "current", c.epoch)
		return false
	}
	c.store.Append(outcome.Turn)
	c.state = StateIdle
	c.cancel = nil
	return true
}

// Reset clears the transcript and returns the controller to idle. The epoch
// moves past the one any in-flight dispatch captured, so its outcome will be
// discarded at Reconcile; the request context is also cancelled so the
// transport gives up early instead of running to completion for nothing.
// The draft query text is left alone.
func (c *Controller) Reset() {
	c.epoch++
	c.store.Reset()
	c.state = StateIdle
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.logger.Debug("session reset", "epoch", c.epoch)
}

// SetPending records the draft query text so snapshots reflect what the user
// is composing. Submit clears it on acceptance.
func (c *Controller) SetPending(text string) {
	c.pending = text
}

// Awaiting reports whether a query is in flight.
func (c *Controller) Awaiting() bool {
	return c.state == StateAwaiting
}

// Snapshot returns a read-only view of the session for rendering.
func (c *Controller) Snapshot() Session {
	return Session{
		Turns:        c.store.Snapshot(),
		PendingQuery: c.pending,
		Awaiting:     c.state == StateAwaiting,
		Epoch:        c.epoch,
	}
}

// trimHistory keeps the most recent limit turns; 0 keeps everything.
func trimHistory(turns []Turn, limit int) []Turn {
	if limit <= 0 || len(turns) <= limit {
		return turns
	}
	return turns[len(turns)-limit:]
}
