package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/dragonlab/mimokit/pkg/statemachine"
)

// Toast view states.
const (
	ToastHidden       = statemachine.State("hidden")
	ToastAppearing    = statemachine.State("appearing")
	ToastVisible      = statemachine.State("visible")
	ToastDisappearing = statemachine.State("disappearing")
)

// Toast transition events.
const (
	toastShow   = statemachine.Event("show")
	toastShown  = statemachine.Event("shown")
	toastHide   = statemachine.Event("hide")
	toastHidden = statemachine.Event("hidden")
)

const (
	defaultDisplayDuration   = 5 * time.Second
	defaultAnimationDuration = 300 * time.Millisecond
)

// ToastConfig controls toast timing.
type ToastConfig struct {
	// DisplayDuration is how long the toast stays visible before
	// auto-dismissing. Defaults to 5s.
	DisplayDuration time.Duration
	// AnimationDuration is the length of the enter and exit animations.
	// Defaults to 300ms.
	AnimationDuration time.Duration
}

func (c ToastConfig) withDefaults() ToastConfig {
	if c.DisplayDuration <= 0 {
		c.DisplayDuration = defaultDisplayDuration
	}
	if c.AnimationDuration <= 0 {
		c.AnimationDuration = defaultAnimationDuration
	}
	return c
}

// ToastOption configures a Toast.
type ToastOption func(*Toast)

// WithToastConfig overrides the default timing.
func WithToastConfig(cfg ToastConfig) ToastOption {
	return func(t *Toast) {
		t.cfg = cfg.withDefaults()
	}
}

// WithToastTransitionHook registers a callback invoked on every state
// change. The notification pointer is nil once the toast returns to hidden.
// Rendering layers hang off this hook; the toast itself draws nothing.
func WithToastTransitionHook(fn func(state statemachine.State, n *Notification)) ToastOption {
	return func(t *Toast) {
		t.onChange = fn
	}
}

// Toast presents one notification at a time as a transient banner:
// hidden -> appearing -> visible -> disappearing -> hidden. While visible an
// auto-hide timer runs alongside a depletion indicator exposed via Progress.
// Dismiss short-circuits straight to disappearing.
type Toast struct {
	cfg      ToastConfig
	machine  *statemachine.Machine
	onChange func(statemachine.State, *Notification)

	mu          sync.Mutex
	current     *Notification
	shownAt     time.Time
	dismissCh   chan struct{}
	dismissOnce *sync.Once
}

// NewToast creates a toast presenter.
func NewToast(opts ...ToastOption) *Toast {
	t := &Toast{
		cfg: ToastConfig{}.withDefaults(),
	}
	t.machine = statemachine.MustNew(ToastHidden,
		statemachine.WithTransitions([]statemachine.Transition{
			{From: ToastHidden, To: ToastAppearing, Event: toastShow},
			{From: ToastAppearing, To: ToastVisible, Event: toastShown},
			// Manual dismiss during the enter animation skips visible.
			{From: ToastAppearing, To: ToastDisappearing, Event: toastHide},
			{From: ToastVisible, To: ToastDisappearing, Event: toastHide},
			{From: ToastDisappearing, To: ToastHidden, Event: toastHidden},
		}),
	)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Show displays n and blocks until the toast is hidden again, via timeout,
// Dismiss, or context cancellation. It implements Presenter. Calling Show
// while another notification is showing returns ErrToastBusy.
func (t *Toast) Show(ctx context.Context, n Notification) error {
	if err := t.machine.Fire(ctx, toastShow); err != nil {
		return ErrToastBusy
	}

	t.mu.Lock()
	t.current = &n
	t.dismissCh = make(chan struct{})
	t.dismissOnce = &sync.Once{}
	dismiss := t.dismissCh
	t.mu.Unlock()

	t.notify()

	// Enter animation.
	dismissed, err := t.wait(ctx, t.cfg.AnimationDuration, dismiss)
	if err != nil {
		return t.abort(err)
	}

	if !dismissed {
		_ = t.machine.Fire(ctx, toastShown)
		t.mu.Lock()
		t.shownAt = time.Now()
		t.mu.Unlock()
		t.notify()

		// Visible until the display duration elapses or Dismiss fires.
		if _, err := t.wait(ctx, t.cfg.DisplayDuration, dismiss); err != nil {
			return t.abort(err)
		}
	}

	_ = t.machine.Fire(ctx, toastHide)
	t.notify()

	// Exit animation is not interruptible by Dismiss.
	if _, err := t.wait(ctx, t.cfg.AnimationDuration, nil); err != nil {
		return t.abort(err)
	}

	_ = t.machine.Fire(ctx, toastHidden)
	t.reset()
	t.notify()
	return nil
}

// Dismiss hides the current toast without waiting for the display duration.
// It is a no-op when nothing is showing.
func (t *Toast) Dismiss() {
	t.mu.Lock()
	once, ch := t.dismissOnce, t.dismissCh
	t.mu.Unlock()

	if once != nil {
		once.Do(func() { close(ch) })
	}
}

// State returns the current view state.
func (t *Toast) State() statemachine.State {
	return t.machine.Current()
}

// Current returns the notification being displayed, or nil.
func (t *Toast) Current() *Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Progress returns the fraction of display time remaining: 1 before the
// toast is fully visible, depleting to 0 while visible, and 0 afterwards.
// Rendering layers poll it to draw the depletion indicator.
func (t *Toast) Progress() float64 {
	t.mu.Lock()
	shownAt := t.shownAt
	t.mu.Unlock()

	switch t.machine.Current() {
	case ToastAppearing:
		return 1
	case ToastVisible:
		elapsed := time.Since(shownAt)
		remaining := 1 - float64(elapsed)/float64(t.cfg.DisplayDuration)
		return min(max(remaining, 0), 1)
	default:
		return 0
	}
}

// wait blocks for d, returning early on dismiss (true) or context
// cancellation (error). The timer is stopped on every exit path.
func (t *Toast) wait(ctx context.Context, d time.Duration, dismiss <-chan struct{}) (bool, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return false, nil
	case <-dismiss:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (t *Toast) abort(err error) error {
	t.machine.Reset()
	t.reset()
	t.notify()
	return err
}

func (t *Toast) reset() {
	t.mu.Lock()
	t.current = nil
	t.dismissCh = nil
	t.dismissOnce = nil
	t.shownAt = time.Time{}
	t.mu.Unlock()
}

func (t *Toast) notify() {
	if t.onChange == nil {
		return
	}
	t.onChange(t.machine.Current(), t.Current())
}
