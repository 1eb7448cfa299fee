// Package session enforces the authenticated session's inactivity lock.
//
// Timer is the single authority for time since the last user interaction.
// It keeps at most one scheduled lock callback; re-arming or an interaction
// replaces it. While expiry is suppressed (a send is in flight) the Active to
// Locked edge is unreachable; releasing the suppression restarts the
// countdown from zero. The lock callback re-checks suppression and its own
// generation when it runs, so a callback that was already dispatched when
// a send started, or when the countdown was reset, does nothing.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/logging"
)

// DefaultTimeoutMinutes is used when no timeout is configured.
const DefaultTimeoutMinutes = 7

var (
	ErrInvalidTimeout = errors.New("session timeout must be positive")

	// ErrSendInProgress is returned by Lock while expiry is suppressed.
	ErrSendInProgress = errors.New("cannot lock while a send is in progress")

	// ErrLocked is returned by callers that refuse work on a locked session.
	ErrLocked = errors.New("session locked")
)

// State of the session.
type State int

const (
	Active State = iota
	Locked
)

func (s State) String() string {
	if s == Locked {
		return "locked"
	}
	return "active"
}

// Observer is notified once per Active to Locked transition.
type Observer interface {
	OnSessionLocked()
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func()

func (f ObserverFunc) OnSessionLocked() { f() }

// Stopper cancels a scheduled callback.
type Stopper interface {
	Stop() bool
}

// Scheduler runs f after d on its own goroutine. time.AfterFunc satisfies it
// through the default adapter; tests inject a manual one.
type Scheduler func(d time.Duration, f func()) Stopper

func realScheduler(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// TimeoutFromMinutes converts the persisted minutes setting.
func TimeoutFromMinutes(m int) time.Duration {
	return time.Duration(m) * time.Minute
}

// Timer tracks inactivity and locks the session when it expires.
type Timer struct {
	mu sync.Mutex

	state   State
	timeout time.Duration

	pending Stopper
	gen     uint64

	suppressors     int
	epoch           uint64
	lastInteraction time.Time

	observer Observer
	schedule Scheduler
	now      func() time.Time
	log      logging.Logger
}

// Option configures a Timer.
type Option func(*Timer)

// WithScheduler replaces time.AfterFunc.
func WithScheduler(s Scheduler) Option {
	return func(t *Timer) { t.schedule = s }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(t *Timer) { t.log = l }
}

// WithClock replaces time.Now for interaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Timer) { t.now = now }
}

// New returns an Active, unarmed timer that reports locks to observer.
func New(observer Observer, opts ...Option) *Timer {
	t := &Timer{
		observer: observer,
		schedule: realScheduler,
		now:      time.Now,
		log:      logging.NewNop(),
	}
	for _, o := range opts {
		o(t)
	}
	if t.observer == nil {
		t.observer = ObserverFunc(func() {})
	}
	t.lastInteraction = t.now()
	return t
}

// Arm (re)starts the countdown with timeout, cancelling any scheduled callback.
func (t *Timer) Arm(timeout time.Duration) error {
	if timeout <= 0 {
		return ErrInvalidTimeout
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.timeout = timeout
	t.lastInteraction = t.now()
	t.rescheduleLocked()
	return nil
}

// Disarm cancels the scheduled callback without changing state.
func (t *Timer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

// OnInteraction resets the countdown. It is a no-op once Locked.
func (t *Timer) OnInteraction() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Locked {
		return
	}
	t.lastInteraction = t.now()
	t.rescheduleLocked()
}

// Lock locks the session on request (logout, quit). It refuses while expiry
// is suppressed so an in-flight send is not cut off.
func (t *Timer) Lock() error {
	t.mu.Lock()
	if t.suppressors > 0 {
		t.mu.Unlock()
		return ErrSendInProgress
	}
	locked := t.lockLocked()
	t.mu.Unlock()

	if locked {
		t.log.Info(context.Background(), "session locked on request")
		t.observer.OnSessionLocked()
	}
	return nil
}

// Unlock is the explicit re-authentication transition back to Active.
func (t *Timer) Unlock() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Active {
		return
	}
	t.state = Active
	t.lastInteraction = t.now()
	t.rescheduleLocked()
	t.log.Info(context.Background(), "session unlocked")
}

// SuppressExpiry holds off the automatic lock until the returned release is
// called. It refuses with ok false once the session is Locked, so a caller
// that got ok knows no lock can land until it releases. Suppressions nest;
// release is idempotent and must be deferred by the holder.
func (t *Timer) SuppressExpiry() (release func(), ok bool) {
	t.mu.Lock()
	if t.state == Locked {
		t.mu.Unlock()
		return func() {}, false
	}
	t.suppressors++
	t.cancelLocked()
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()

			t.suppressors--
			if t.suppressors == 0 && t.state == Active {
				t.lastInteraction = t.now()
				t.rescheduleLocked()
			}
		})
	}, true
}

// State returns the current state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsLocked is State() == Locked.
func (t *Timer) IsLocked() bool {
	return t.State() == Locked
}

// LockEpoch counts lock transitions. Work started in one epoch and finished
// in another straddled a lock.
func (t *Timer) LockEpoch() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.epoch
}

// ExpirySuppressed reports whether a send currently holds the override.
func (t *Timer) ExpirySuppressed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suppressors > 0
}

// LastInteraction returns when the countdown was last reset.
func (t *Timer) LastInteraction() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastInteraction
}

// fire is the scheduled lock callback for generation gen.
func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.pending == nil {
		t.mu.Unlock()
		return
	}
	t.pending = nil
	if t.suppressors > 0 {
		t.mu.Unlock()
		t.log.Debug(context.Background(), "lock callback fired during send, ignored")
		return
	}
	locked := t.lockLocked()
	timeout := t.timeout
	t.mu.Unlock()

	if locked {
		t.log.Info(context.Background(), "session locked after inactivity", "timeout", timeout)
		t.observer.OnSessionLocked()
	}
}

func (t *Timer) lockLocked() bool {
	t.cancelLocked()
	if t.state == Locked {
		return false
	}
	t.state = Locked
	t.epoch++
	return true
}

func (t *Timer) rescheduleLocked() {
	t.cancelLocked()
	if t.timeout <= 0 || t.suppressors > 0 || t.state == Locked {
		return
	}
	gen := t.gen
	t.pending = t.schedule(t.timeout, func() { t.fire(gen) })
}

// cancelLocked stops the pending callback and bumps the generation so a
// callback that already started treats itself as stale.
func (t *Timer) cancelLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
}
