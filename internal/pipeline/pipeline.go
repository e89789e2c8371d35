// Package pipeline runs a design review end to end: it assembles the prompt,
// calls the completion provider with bounded retries, and extracts a
// validated critique from the response.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/designcritic/internal/critique"
	"github.com/dshills/designcritic/internal/extract"
	"github.com/dshills/designcritic/internal/llm"
	"github.com/dshills/designcritic/internal/profile"
	"github.com/dshills/designcritic/internal/prompt"
	"github.com/dshills/designcritic/internal/redact"
	"github.com/dshills/designcritic/internal/schema"
)

const (
	DefaultMaxRetries  = 2
	DefaultBackoffBase = 500 * time.Millisecond
	DefaultBackoffMax  = 8 * time.Second
	DefaultTimeout     = 60 * time.Second
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 1200
)

// Options configures a Reviewer. Start from DefaultOptions.
type Options struct {
	Settings llm.Settings
	// Profile adds critic focus areas to the prompt. Nil means none.
	Profile *profile.Profile

	// MaxRetries bounds transport retries per completion phase.
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// Timeout bounds the whole review. Zero means no overall deadline.
	Timeout time.Duration
	// AttemptTimeout bounds each provider call. Zero means none.
	AttemptTimeout time.Duration

	// RepairAttempts is how many corrective re-prompts may follow a
	// schema violation.
	RepairAttempts int
	// Redact masks secrets in the brief before it leaves the process.
	Redact bool

	Logger *zap.Logger
}

// DefaultOptions returns the standard review configuration.
func DefaultOptions() Options {
	return Options{
		Settings: llm.Settings{
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
		MaxRetries:  DefaultMaxRetries,
		BackoffBase: DefaultBackoffBase,
		BackoffMax:  DefaultBackoffMax,
		Timeout:     DefaultTimeout,
		Redact:      true,
	}
}

// Outcome is a successful review.
type Outcome struct {
	RequestID string            `json:"request_id"`
	Provider  string            `json:"provider"`
	Critique  critique.Critique `json:"critique"`
	// Retries counts transport retries across all completion phases.
	Retries  int  `json:"retries"`
	Repaired bool `json:"repaired"`
	// Redactions counts secrets masked in the brief.
	Redactions int     `json:"redactions,omitempty"`
	Trace      []State `json:"trace"`
}

func (o *Outcome) enter(s State) { o.Trace = append(o.Trace, s) }

// Reviewer holds the read-only state shared by every review. It is safe for
// concurrent use as long as its provider is.
type Reviewer struct {
	provider     llm.Provider
	opts         Options
	schema       *schema.Schema
	instructions string
	log          *zap.Logger
}

// New builds a Reviewer. The output instructions are compiled once here.
func New(provider llm.Provider, opts Options) *Reviewer {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RepairAttempts < 0 {
		opts.RepairAttempts = 0
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := schema.Critique()
	return &Reviewer{
		provider:     provider,
		opts:         opts,
		schema:       s,
		instructions: prompt.CompileInstructions(s),
		log:          log,
	}
}

// Instructions returns the compiled output-format block sent with every prompt.
func (r *Reviewer) Instructions() string { return r.instructions }

// Review runs one request through the state machine. On failure the error
// is always a *Error.
func (r *Reviewer) Review(ctx context.Context, req critique.Request) (*Outcome, error) {
	out := &Outcome{RequestID: uuid.NewString(), Provider: r.provider.Name()}
	log := r.log.With(zap.String("request_id", out.RequestID))
	start := time.Now()

	fail := func(e *Error) (*Outcome, error) {
		out.enter(StateFailed)
		log.Warn("review failed",
			zap.String("kind", string(e.Kind)),
			zap.String("transport", string(e.Transport)),
			zap.Int("retries", out.Retries),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(e))
		return nil, e
	}

	out.enter(StateAssembling)
	log.Debug("state", zap.String("state", string(StateAssembling)))
	if !req.HasBrief() {
		return fail(invalidRequest("brief is required"))
	}
	if err := ctx.Err(); err != nil {
		return fail(cancelled(err))
	}

	req = req.WithDefaults()
	if r.opts.Redact {
		var n int
		req.Brief, n = redact.RedactCount(req.Brief)
		out.Redactions = n
		if n > 0 {
			log.Debug("redacted brief", zap.Int("secrets", n))
		}
	}
	opts := prompt.BuildOpts{
		Brief:        req.Brief,
		ArtifactName: req.ArtifactName,
		ArtifactKind: req.ArtifactKind,
		Profile:      r.opts.Profile,
		Instructions: r.instructions,
	}
	text := prompt.Build(opts)

	run := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		run, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	repairs := 0
	for {
		raw, perr := r.complete(ctx, run, text, out, log)
		if perr != nil {
			return fail(perr)
		}

		out.enter(StateExtracting)
		log.Debug("state", zap.String("state", string(StateExtracting)), zap.Int("bytes", len(raw)))
		c, err := extract.Extract(raw, r.schema)
		if err == nil {
			out.Critique = c
			out.enter(StateDone)
			log.Info("review complete",
				zap.String("provider", out.Provider),
				zap.Int("retries", out.Retries),
				zap.Bool("repaired", out.Repaired),
				zap.Duration("elapsed", time.Since(start)))
			return out, nil
		}

		var xe *extract.Error
		if !errors.As(err, &xe) {
			return fail(&Error{Kind: KindMalformedPayload, Message: err.Error(), Err: err})
		}
		if xe.Kind != extract.KindSchemaViolation || repairs >= r.opts.RepairAttempts {
			return fail(extractionFailure(xe))
		}
		repairs++
		out.Repaired = true
		log.Info("re-prompting after schema violation",
			zap.Int("repair", repairs),
			zap.Strings("paths", xe.Violations.Paths()))
		text = prompt.BuildRepair(opts, raw, xe.Violations)
	}
}

// complete runs one completion phase: an attempt plus up to MaxRetries
// retries of retryable transport failures. caller is the context passed to
// Review; run additionally carries the overall deadline.
func (r *Reviewer) complete(caller, run context.Context, text string, out *Outcome, log *zap.Logger) (string, *Error) {
	for retry := 0; ; retry++ {
		out.enter(StateCompleting)
		log.Debug("state", zap.String("state", string(StateCompleting)), zap.Int("retry", retry))

		raw, err := r.attempt(run, text)
		if err == nil {
			return raw, nil
		}
		if perr := interrupted(caller, run, r.provider.Name()); perr != nil {
			return "", perr
		}

		te, ok := llm.AsTransportError(err)
		if !ok {
			te = &llm.TransportError{Kind: llm.KindRejected, Provider: r.provider.Name(), Err: err}
		}
		if !te.Retryable() || retry >= r.opts.MaxRetries {
			return "", transportFailure(te)
		}

		delay := r.backoff(retry, te.RetryAfter)
		out.Retries++
		log.Warn("retrying completion",
			zap.String("kind", string(te.Kind)),
			zap.Int("retry", retry+1),
			zap.Duration("delay", delay),
			zap.Error(te))

		if err := sleep(run, delay); err != nil {
			return "", interrupted(caller, run, r.provider.Name())
		}
	}
}

type result struct {
	raw string
	err error
}

// attempt makes one provider call. The call runs in its own goroutine so a
// provider that ignores its context cannot hold up cancellation.
func (r *Reviewer) attempt(run context.Context, text string) (string, error) {
	actx := run
	if r.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(run, r.opts.AttemptTimeout)
		defer cancel()
	}

	ch := make(chan result, 1)
	go func() {
		raw, err := r.provider.Generate(actx, text, r.opts.Settings)
		ch <- result{raw: raw, err: err}
	}()

	var res result
	select {
	case res = <-ch:
	case <-actx.Done():
		res.err = actx.Err()
	}
	if res.err != nil && actx.Err() != nil && run.Err() == nil {
		// Only the attempt deadline fired.
		return "", &llm.TransportError{
			Kind:     llm.KindTimeout,
			Provider: r.provider.Name(),
			Err:      fmt.Errorf("attempt exceeded %s: %w", r.opts.AttemptTimeout, actx.Err()),
		}
	}
	return res.raw, res.err
}

// interrupted reports why the review can no longer continue, or nil if it can.
func interrupted(caller, run context.Context, provider string) *Error {
	if err := caller.Err(); err != nil {
		return cancelled(err)
	}
	if err := run.Err(); err != nil {
		return transportFailure(&llm.TransportError{
			Kind:     llm.KindTimeout,
			Provider: provider,
			Err:      fmt.Errorf("review deadline exceeded: %w", err),
		})
	}
	return nil
}

// backoff returns the delay before retry n+1: BackoffBase doubled n times,
// raised to the provider's Retry-After, and capped at BackoffMax.
func (r *Reviewer) backoff(n int, retryAfter time.Duration) time.Duration {
	d := r.opts.BackoffBase
	for i := 0; i < n && d > 0; i++ {
		d *= 2
		if r.opts.BackoffMax > 0 && d >= r.opts.BackoffMax {
			break
		}
	}
	if retryAfter > d {
		d = retryAfter
	}
	if r.opts.BackoffMax > 0 && d > r.opts.BackoffMax {
		d = r.opts.BackoffMax
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
