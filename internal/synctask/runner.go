package synctask

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/client/rpc"
	"github.com/dmitrijs2005/reportkeeper/internal/common"
	"github.com/dmitrijs2005/reportkeeper/internal/logging"
	"github.com/dmitrijs2005/reportkeeper/internal/metrics"
	"github.com/dmitrijs2005/reportkeeper/internal/netx"
	"github.com/dmitrijs2005/reportkeeper/internal/outcome"
	"github.com/dmitrijs2005/reportkeeper/internal/pending"
	"golang.org/x/time/rate"
)

var ErrClosed = errors.New("runner closed")

// Session is the part of the session timer the runner consults.
type Session interface {
	IsLocked() bool
	LockEpoch() uint64
	SuppressExpiry() (release func(), ok bool)
}

// Identity signs token requests.
type Identity interface {
	PublicKeyString() (string, error)
	Sign(data []byte) ([]byte, error)
}

// Outbox is the pending submission store.
type Outbox interface {
	List() ([]pending.Submission, error)
	Read(s pending.Submission) ([]byte, error)
	Acknowledge(s pending.Submission) error
	MarkFailed(s pending.Submission) (pending.Submission, error)
}

// OutcomeSink receives every terminal outcome exactly once.
type OutcomeSink interface {
	Deliver(o outcome.Outcome)
}

// SinkFunc adapts a function to OutcomeSink.
type SinkFunc func(o outcome.Outcome)

func (f SinkFunc) Deliver(o outcome.Outcome) { f(o) }

type Runner struct {
	dial     rpc.Dialer
	session  Session
	sink     OutcomeSink
	endpoint string
	outbox   Outbox
	online   netx.Checker
	log      logging.Logger
	metrics  *metrics.Sync
	limiter  *rate.Limiter
	retries  uint64
	backoff  time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type Option func(*Runner)

// WithEndpoint sets the endpoint used for token requests.
func WithEndpoint(endpoint string) Option {
	return func(r *Runner) { r.endpoint = endpoint }
}

func WithOutbox(o Outbox) Option {
	return func(r *Runner) { r.outbox = o }
}

// WithConnectivity sets the local online check consulted before resend.
func WithConnectivity(c netx.Checker) Option {
	return func(r *Runner) { r.online = c }
}

func WithLogger(l logging.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func WithMetrics(m *metrics.Sync) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithRetry sets how often an upload is retried on a transient failure and
// the base of the exponential backoff between attempts.
func WithRetry(maxRetries uint64, base time.Duration) Option {
	return func(r *Runner) {
		r.retries = maxRetries
		r.backoff = base
	}
}

// WithUploadRate caps uploads per second during resend. Non-positive means
// no cap.
func WithUploadRate(perSecond float64) Option {
	return func(r *Runner) {
		if perSecond <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func New(dial rpc.Dialer, session Session, sink OutcomeSink, opts ...Option) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		dial:    dial,
		session: session,
		sink:    sink,
		online:  netx.Always,
		log:     logging.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1),
		retries: 3,
		backoff: 500 * time.Millisecond,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, o := range opts {
		o(r)
	}
	if r.sink == nil {
		r.sink = SinkFunc(func(outcome.Outcome) {})
	}
	return r
}

// Close cancels running operations and waits for their outcomes to be
// delivered. Operations started afterwards are Cancelled.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

// Wait blocks until every started operation has delivered its outcome.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// ProbeConnectivity checks that endpoint answers. Any transport failure is
// ConnectivityDown.
func (r *Runner) ProbeConnectivity(ctx context.Context, endpoint string) *Task {
	return r.start(ctx, outcome.OpProbe, false, func(ctx context.Context) outcome.Outcome {
		c, err := r.dial(endpoint)
		if err != nil {
			return outcome.Outcome{Kind: outcome.ConnectivityDown, Err: err}
		}
		defer c.Close()

		if _, err := c.Execute(ctx, rpc.CmdPing, nil); err != nil {
			if ctx.Err() != nil {
				return outcome.Outcome{Kind: outcome.Cancelled, Err: ctx.Err()}
			}
			return outcome.Outcome{Kind: outcome.ConnectivityDown, Err: err}
		}
		return outcome.Outcome{Kind: outcome.ConnectivityOk}
	})
}

// FetchAccessToken asks the server for an access token for id. The request
// carries the account public key and a signature over it.
func (r *Runner) FetchAccessToken(ctx context.Context, id Identity) *Task {
	return r.start(ctx, outcome.OpToken, false, func(ctx context.Context) outcome.Outcome {
		if id == nil {
			return outcome.Outcome{Kind: outcome.InternalError, Err: fmt.Errorf("%w: no identity", common.ErrInternal)}
		}
		pub, err := id.PublicKeyString()
		if err != nil {
			return outcome.Outcome{Kind: outcome.InternalError, Err: err}
		}
		sig, err := id.Sign([]byte(pub))
		if err != nil {
			return outcome.Outcome{Kind: outcome.InternalError, Err: err}
		}

		c, err := r.dial(r.endpoint)
		if err != nil {
			return outcome.Outcome{Kind: outcome.ServerUnavailable, Err: err}
		}
		defer c.Close()

		resp, err := c.Execute(ctx, rpc.CmdGetAccessToken, []any{pub, base64.StdEncoding.EncodeToString(sig)})
		if err != nil {
			if ctx.Err() != nil {
				return outcome.Outcome{Kind: outcome.Cancelled, Err: ctx.Err()}
			}
			return outcome.Outcome{Kind: outcome.ServerUnavailable, Err: err}
		}
		return outcome.ClassifyToken(resp)
	})
}

// ResendPending uploads every pending and failed submission to endpoint.
// pendingCount is the caller's fresh count; below one, or when the device
// is offline, the call completes at once without any network activity.
// While the resend runs the session cannot expire.
func (r *Runner) ResendPending(ctx context.Context, pendingCount int, endpoint string) *Task {
	if r.session.IsLocked() {
		return r.completed(outcome.OpResend, outcome.Outcome{Kind: outcome.Cancelled})
	}
	if pendingCount < 1 {
		return r.completed(outcome.OpResend, outcome.Outcome{Kind: outcome.NoOpNoPending})
	}
	if !r.online.Available() {
		return r.completed(outcome.OpResend, outcome.Outcome{Kind: outcome.NoOpOffline})
	}
	return r.start(ctx, outcome.OpResend, true, func(ctx context.Context) outcome.Outcome {
		return r.resend(ctx, endpoint)
	})
}

func (r *Runner) resend(ctx context.Context, endpoint string) outcome.Outcome {
	if r.outbox == nil {
		return outcome.Outcome{Kind: outcome.InternalError, Err: fmt.Errorf("%w: no outbox", common.ErrInternal)}
	}
	items, err := r.outbox.List()
	if err != nil {
		return outcome.Outcome{Kind: outcome.InternalError, Err: err}
	}
	if len(items) == 0 {
		return outcome.Outcome{Kind: outcome.NoOpNoPending}
	}

	c, err := r.dial(endpoint)
	if err != nil {
		return outcome.Outcome{Kind: outcome.ServerUnavailable, Err: err}
	}
	defer c.Close()

	res := outcome.Outcome{Kind: outcome.ResendCompleted}
	for _, s := range items {
		if err := r.limiter.Wait(ctx); err != nil {
			res.Kind, res.Err = outcome.Cancelled, err
			break
		}

		sent, err := r.uploadOne(ctx, c, s)
		if errors.Is(err, pending.ErrNotPending) {
			continue
		}
		// An acknowledged upload left the outbox and counts even if the
		// context ended right after it.
		if sent {
			r.metrics.Upload(true)
			res.Sent++
		}
		if ctx.Err() != nil {
			res.Kind, res.Err = outcome.Cancelled, ctx.Err()
			break
		}
		if !sent {
			r.metrics.Upload(false)
			res.Failed++
		}
	}
	return res
}

// uploadOne sends one submission, retrying transient failures. An
// acknowledged submission is removed; anything else is moved to failed.
func (r *Runner) uploadOne(ctx context.Context, c rpc.Client, s pending.Submission) (bool, error) {
	log := r.log.With("submission", s.Name)

	data, err := r.outbox.Read(s)
	if errors.Is(err, pending.ErrNotPending) {
		return false, err
	}

	if err == nil {
		var resp *outcome.Response
		resp, err = r.upload(ctx, c, s.Name, data)
		if err == nil {
			if o := outcome.ClassifyAck(outcome.OpResend, resp); o.Kind != outcome.Succeeded {
				err = fmt.Errorf("upload rejected: %s", o.Kind)
			}
		}
	}

	if err == nil {
		if err := r.outbox.Acknowledge(s); err != nil && !errors.Is(err, pending.ErrNotPending) {
			log.Error(ctx, "acknowledge failed", "error", err)
		}
		return true, nil
	}

	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	log.Warn(ctx, "upload failed", "error", err)
	if _, mErr := r.outbox.MarkFailed(s); mErr != nil && !errors.Is(mErr, pending.ErrNotPending) {
		log.Error(ctx, "move to failed", "error", mErr)
	}
	return false, nil
}

// start runs fn on its own goroutine unless the runner refuses it up front.
// With hold set the session expiry is suppressed from before the goroutine
// starts until fn returns; a session that locks before the override is
// taken cancels the task without any network activity.
func (r *Runner) start(ctx context.Context, op outcome.Operation, hold bool, fn func(context.Context) outcome.Outcome) *Task {
	r.mu.Lock()
	closed := r.closed
	if !closed {
		r.wg.Add(1)
	}
	r.mu.Unlock()

	if closed {
		return r.completed(op, outcome.Outcome{Kind: outcome.Cancelled, Err: ErrClosed})
	}

	if r.session.IsLocked() {
		r.wg.Done()
		return r.completed(op, outcome.Outcome{Kind: outcome.Cancelled})
	}

	// Taken before the epoch is read: once held, no lock can land.
	var release func()
	if hold {
		var ok bool
		if release, ok = r.session.SuppressExpiry(); !ok {
			r.wg.Done()
			return r.completed(op, outcome.Outcome{Kind: outcome.Cancelled})
		}
	}
	epoch := r.session.LockEpoch()

	task := newTask(op)
	started := r.now()

	go func() {
		defer r.wg.Done()
		if release != nil {
			defer release()
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(r.ctx, cancel)
		defer stop()

		o := r.run(ctx, task, fn)
		if r.session.IsLocked() || r.session.LockEpoch() != epoch {
			o.Stale = true
		}
		r.finish(task, o, started)
	}()

	return task
}

func (r *Runner) run(ctx context.Context, task *Task, fn func(context.Context) outcome.Outcome) (o outcome.Outcome) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error(ctx, "operation panicked", "operation", string(task.Operation), "task", task.ID.String(), "panic", fmt.Sprint(p))
			o = outcome.Outcome{Kind: outcome.InternalError, Err: fmt.Errorf("%w: panic: %v", common.ErrInternal, p)}
		}
	}()
	return fn(ctx)
}

func (r *Runner) completed(op outcome.Operation, o outcome.Outcome) *Task {
	task := newTask(op)
	r.finish(task, o, r.now())
	return task
}

func (r *Runner) finish(task *Task, o outcome.Outcome, started time.Time) {
	o.Operation = task.Operation
	o.TaskID = task.ID

	task.complete(o, func(o outcome.Outcome) {
		r.metrics.Observe(o, r.now().Sub(started))

		args := []any{"operation", string(o.Operation), "outcome", o.Kind.String(), "task", o.TaskID.String()}
		if o.Stale {
			args = append(args, "stale", true)
		}
		if o.Err != nil {
			args = append(args, "error", o.Err.Error())
		}
		if o.OK() {
			r.log.Info(context.Background(), "sync operation finished", args...)
		} else {
			r.log.Warn(context.Background(), "sync operation finished", args...)
		}

		r.deliver(o)
	})
}

func (r *Runner) deliver(o outcome.Outcome) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error(context.Background(), "outcome sink panicked", "operation", string(o.Operation), "panic", fmt.Sprint(p))
		}
	}()
	r.sink.Deliver(o)
}
