// internal/flow/controller.go
//
// shortly – Submission controller.
//
// Context
//   One Controller per form per visitor.  It exclusively owns the form's
//   field State and the submission status; presentation code reads a
//   Snapshot and calls Edit / Submit / Dismiss.
//
// State machine
//   Idle ──Submit(valid, dirty)──▶ InFlight ──ok──▶ Succeeded
//                                     │
//                                     └──*apiclient.Error──▶ Failed
//   Succeeded | Failed ──Edit──▶ Idle   (result and error stay readable,
//                                        overlay closes)
//   any ──Dismiss──▶ Idle               (result and error discarded)
//
//   The InFlight status is the only guard against double submission.  The
//   mutex protects the fields; it is never held across the API call.
//
// Notes
//   •  On success only fields still holding the submitted value are reset.
//      Edits made while the request was in flight survive.
//   •  Errors that are not *apiclient.Error are programming errors.  The
//      controller drops back to Idle, raises an error notification, and
//      returns the error to the caller unchanged.
//
//------------------------------------------------------------------------------

package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/shortly/internal/apiclient"
	"github.com/yanizio/shortly/internal/form"
	"github.com/yanizio/shortly/internal/logger"
	"github.com/yanizio/shortly/internal/metrics"
	"github.com/yanizio/shortly/internal/notify"
)

// Status is the submission state of one flow.
type Status int

const (
	Idle Status = iota
	InFlight
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Config wires a Controller to its form and its remote call.
type Config[Req, Res any] struct {
	Name           string // "shorten" or "qr"; used in logs and metrics
	Schema         form.Schema
	Build          func(v form.Values, now time.Time) (Req, error)
	Call           func(ctx context.Context, req Req) (Res, error)
	Notices        *notify.Center
	SuccessMessage string
	Now            func() time.Time
	OnSuccess      []func(ctx context.Context, req Req, res Res)
}

// Controller is safe for concurrent use.
type Controller[Req, Res any] struct {
	cfg Config[Req, Res]

	mu        sync.Mutex
	state     *form.State
	status    Status
	result    Res
	hasResult bool
	request   Req
	lastErr   string
	overlay   bool
}

// Snapshot is a read-only copy of a Controller.
type Snapshot[Req, Res any] struct {
	Status    Status
	Values    form.Values
	Touched   map[string]bool
	Errors    form.Result
	Dirty     bool
	CanSubmit bool

	Result    Res
	HasResult bool
	Request   Req // request that produced Result
	Error     string
	Overlay   bool
}

// NewController returns an Idle controller with the schema's initial values.
func NewController[Req, Res any](cfg Config[Req, Res]) *Controller[Req, Res] {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Controller[Req, Res]{cfg: cfg, state: form.NewState(cfg.Schema.Initial)}
}

// Edit records a field change.  A terminal status returns to Idle and the
// overlay closes; the last result and error are kept until the next
// submission starts.
func (c *Controller[Req, Res]) Edit(name string, v form.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Set(name, v)
	if c.status == Succeeded || c.status == Failed {
		c.status = Idle
		c.overlay = false
	}
}

// Submit runs one submission.  accepted is false when the guard rejected
// the call (invalid, untouched, or already in flight); that is not an error.
// API failures land in the Failed state and are not returned.  Any other
// error is returned unchanged.
func (c *Controller[Req, Res]) Submit(ctx context.Context) (accepted bool, err error) {
	log := logger.FromContext(ctx).With("flow", c.cfg.Name)

	c.mu.Lock()
	if c.status == InFlight {
		c.mu.Unlock()
		metrics.Submissions.WithLabelValues(c.cfg.Name, "busy").Inc()
		return false, nil
	}
	now := c.cfg.Now()
	values := c.state.Values()
	if !c.cfg.Schema.Validate(values, now).Valid() || !c.state.Dirty() {
		c.mu.Unlock()
		metrics.Submissions.WithLabelValues(c.cfg.Name, "rejected").Inc()
		return false, nil
	}
	req, err := c.cfg.Build(values, now)
	if err != nil {
		c.mu.Unlock()
		return true, c.fail(log, err)
	}
	c.status = InFlight
	c.clearOutcomeLocked()
	c.mu.Unlock()

	res, err := c.cfg.Call(ctx, req)

	var apiErr *apiclient.Error
	switch {
	case err == nil:
		c.mu.Lock()
		c.status = Succeeded
		c.result, c.hasResult, c.request = res, true, req
		c.overlay = true
		c.state.ResetSubmitted(values)
		c.mu.Unlock()

		metrics.Submissions.WithLabelValues(c.cfg.Name, "succeeded").Inc()
		log.Infow("submission succeeded")
		c.notify(c.cfg.SuccessMessage, notify.Success)
		for _, hook := range c.cfg.OnSuccess {
			hook(ctx, req, res)
		}
		return true, nil

	case errors.As(err, &apiErr):
		c.mu.Lock()
		c.status = Failed
		c.lastErr = apiErr.Message
		c.mu.Unlock()

		metrics.Submissions.WithLabelValues(c.cfg.Name, "failed").Inc()
		log.Warnw("submission failed", "op", apiErr.Op, "status", apiErr.Status, "msg", apiErr.Message)
		c.notify(apiErr.Message, notify.Error)
		return true, nil

	default:
		return true, c.fail(log, err)
	}
}

// fail handles a programming error: status back to Idle, error notification,
// error returned as-is.
func (c *Controller[Req, Res]) fail(log *zap.SugaredLogger, err error) error {
	c.mu.Lock()
	c.status = Idle
	c.mu.Unlock()

	metrics.Submissions.WithLabelValues(c.cfg.Name, "error").Inc()
	log.Errorw("submission error", "err", err)
	c.notify(err.Error(), notify.Error)
	return err
}

// Dismiss discards the result and error and closes the overlay.  An
// in-flight submission is left alone.
func (c *Controller[Req, Res]) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearOutcomeLocked()
	if c.status != InFlight {
		c.status = Idle
	}
}

// CloseOverlay hides the result surface but keeps the inline result.
func (c *Controller[Req, Res]) CloseOverlay() {
	c.mu.Lock()
	c.overlay = false
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state.  Validation is recomputed.
func (c *Controller[Req, Res]) Snapshot() Snapshot[Req, Res] {
	c.mu.Lock()
	defer c.mu.Unlock()

	values := c.state.Values()
	errs := c.cfg.Schema.Validate(values, c.cfg.Now())
	touched := make(map[string]bool, len(values))
	for name := range values {
		touched[name] = c.state.Touched(name)
	}
	dirty := c.state.Dirty()

	return Snapshot[Req, Res]{
		Status:    c.status,
		Values:    values,
		Touched:   touched,
		Errors:    errs,
		Dirty:     dirty,
		CanSubmit: errs.Valid() && dirty && c.status != InFlight,
		Result:    c.result,
		HasResult: c.hasResult,
		Request:   c.request,
		Error:     c.lastErr,
		Overlay:   c.overlay,
	}
}

func (c *Controller[Req, Res]) clearOutcomeLocked() {
	var zeroRes Res
	var zeroReq Req
	c.result, c.hasResult, c.request = zeroRes, false, zeroReq
	c.lastErr = ""
	c.overlay = false
}

func (c *Controller[Req, Res]) notify(msg string, kind notify.Kind) {
	if c.cfg.Notices != nil && msg != "" {
		c.cfg.Notices.Show(msg, kind)
	}
}
