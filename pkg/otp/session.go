package otp

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dragonlab/mimokit/pkg/i18n"
	"github.com/dragonlab/mimokit/pkg/logger"
	"github.com/dragonlab/mimokit/pkg/statemachine"
)

// Length is the number of code digits.
const Length = 6

// Session states.
const (
	StateClosed        = statemachine.State("closed")
	StateOpening       = statemachine.State("opening")
	StateAwaitingInput = statemachine.State("awaiting_input")
	StateSubmitting    = statemachine.State("submitting")
	StateVerified      = statemachine.State("verified")
	StateClosing       = statemachine.State("closing")
)

// Session transition events.
const (
	eventOpen       = statemachine.Event("open")
	eventOpened     = statemachine.Event("opened")
	eventSubmit     = statemachine.Event("submit")
	eventSubmitOK   = statemachine.Event("submit_ok")
	eventSubmitFail = statemachine.Event("submit_fail")
	eventClose      = statemachine.Event("close")
	eventClosed     = statemachine.Event("closed")
)

// Config controls session timing. The zero value gets production defaults;
// tests shrink the intervals.
type Config struct {
	ResendDisabledSeconds int           `env:"OTP_RESEND_DISABLED_SECONDS" envDefault:"60"`
	SettleDelay           time.Duration `env:"OTP_SETTLE_DELAY" envDefault:"300ms"`
	DebounceInterval      time.Duration `env:"OTP_DEBOUNCE_INTERVAL" envDefault:"400ms"`
	TickInterval          time.Duration `env:"OTP_TICK_INTERVAL" envDefault:"1s"`
	Language              string        `env:"OTP_LANGUAGE" envDefault:"en"`
}

func (c Config) withDefaults() Config {
	if c.ResendDisabledSeconds <= 0 {
		c.ResendDisabledSeconds = 60
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 300 * time.Millisecond
	}
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = 400 * time.Millisecond
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.Language == "" {
		c.Language = i18n.DefaultLanguage
	}
	return c
}

// VerifiedResult is handed to the completion callback on success.
type VerifiedResult struct {
	OTP      string
	Token    string
	Response *Response
}

// Alerter surfaces blocking, single-acknowledge messages to the user.
type Alerter interface {
	Alert(title, message string)
}

// AlerterFunc adapts a function to the Alerter interface.
type AlerterFunc func(title, message string)

func (f AlerterFunc) Alert(title, message string) { f(title, message) }

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithConfig overrides the default timing configuration.
func WithConfig(cfg Config) SessionOption {
	return func(s *Session) { s.cfg = cfg.withDefaults() }
}

// WithAlerter sets the user-facing alert sink. Without one, alerts are logged.
func WithAlerter(a Alerter) SessionOption {
	return func(s *Session) { s.alerter = a }
}

// WithSessionLogger sets the logger.
func WithSessionLogger(log *slog.Logger) SessionOption {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithTranslator overrides the embedded message catalogs.
func WithTranslator(tr *i18n.Translator) SessionOption {
	return func(s *Session) {
		if tr != nil {
			s.tr = tr
		}
	}
}

// OnVerified registers the completion callback invoked after a successful
// verification, before the sheet closes.
func OnVerified(fn func(VerifiedResult)) SessionOption {
	return func(s *Session) { s.onVerified = fn }
}

// OnClosed registers the callback invoked when the sheet finishes closing.
func OnClosed(fn func()) SessionOption {
	return func(s *Session) { s.onClosed = fn }
}

// Session is the OTP verification sheet state machine: six digit slots, a
// resend countdown, paste-aware entry, debounced auto-submit, and
// at-most-one-in-flight verification against the backend.
//
// All exported methods are safe for concurrent use. Timer callbacks and
// network completions are serialized through the session mutex; a generation
// counter keeps callbacks from an earlier open from acting on a later one.
type Session struct {
	cfg        Config
	client     *Client
	op         Operation
	identifier string
	kind       IdentifierKind
	tr         *i18n.Translator
	log        *slog.Logger
	alerter    Alerter
	onVerified func(VerifiedResult)
	onClosed   func()

	machine *statemachine.Machine

	mu         sync.Mutex
	ctx        context.Context
	gen        int // bumped on every open/close; stale callbacks check it
	digits     [Length]byte
	cursor     int
	mirror     string
	remaining  int
	canResend  bool
	verified   bool
	loading    bool
	countdownC chan struct{} // closed to stop the active countdown
	debounce   *time.Timer
	settle     *time.Timer
}

// NewSession creates a session for one call site. The identifier is the
// email address or phone number the code was sent to; op selects endpoints
// and body shapes.
func NewSession(client *Client, op Operation, identifier string, kind IdentifierKind, opts ...SessionOption) (*Session, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}

	s := &Session{
		cfg:        Config{}.withDefaults(),
		client:     client,
		op:         op,
		identifier: identifier,
		kind:       kind,
		log:        slog.Default(),
	}

	notLoading := func(context.Context, statemachine.State, statemachine.Event) bool {
		return !s.isLoading()
	}

	s.machine = statemachine.MustNew(StateClosed,
		statemachine.WithTransitions([]statemachine.Transition{
			{From: StateClosed, To: StateOpening, Event: eventOpen},
			{From: StateOpening, To: StateAwaitingInput, Event: eventOpened},
			{From: StateAwaitingInput, To: StateSubmitting, Event: eventSubmit},
			{From: StateSubmitting, To: StateVerified, Event: eventSubmitOK},
			{From: StateSubmitting, To: StateAwaitingInput, Event: eventSubmitFail},
			// Close is refused while submitting (no transition) and while a
			// send/resend call is in flight (guard).
			{From: StateOpening, To: StateClosing, Event: eventClose, Guards: []statemachine.Guard{notLoading}},
			{From: StateAwaitingInput, To: StateClosing, Event: eventClose, Guards: []statemachine.Guard{notLoading}},
			{From: StateVerified, To: StateClosing, Event: eventClose},
			{From: StateClosing, To: StateClosed, Event: eventClosed},
		}),
	)

	for _, opt := range opts {
		opt(s)
	}

	if s.tr == nil {
		tr, err := i18n.NewDefaultTranslator()
		if err != nil {
			return nil, err
		}
		s.tr = tr
	}

	return s, nil
}

// Open resets the session and makes the sheet active: digits cleared,
// countdown restarted, and a best-effort send-code call scheduled after a
// short settle delay. Opening an already-open session is a no-op.
func (s *Session) Open(ctx context.Context) error {
	if err := s.machine.Fire(ctx, eventOpen); err != nil {
		return ErrAlreadyOpen
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.ctx = ctx
	s.digits = [Length]byte{}
	s.cursor = 0
	s.mirror = ""
	s.remaining = s.cfg.ResendDisabledSeconds
	s.canResend = false
	s.verified = false
	s.loading = false
	s.countdownC = make(chan struct{})
	stop := s.countdownC
	s.mu.Unlock()

	_ = s.machine.Fire(ctx, eventOpened)

	go s.runCountdown(gen, stop)

	// The original sheet waits for the slide-in animation to settle before
	// firing the initial send.
	s.mu.Lock()
	s.settle = time.AfterFunc(s.cfg.SettleDelay, func() {
		s.sendCode(gen, true)
	})
	s.mu.Unlock()

	return nil
}

// Close dismisses the sheet. It is refused with ErrVerificationInFlight
// while a verification or send call is outstanding; the call is never
// cancelled, the sheet just stays up until it resolves.
func (s *Session) Close() error {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.machine.Fire(ctx, eventClose); err != nil {
		if statemachine.IsTransitionRejectedError(err) || s.machine.Current() == StateSubmitting {
			return ErrVerificationInFlight
		}
		return ErrNotOpen
	}

	s.teardown()
	_ = s.machine.Fire(ctx, eventClosed)

	if s.onClosed != nil {
		s.onClosed()
	}
	return nil
}

// Press appends a digit at the cursor. Ignored while loading, when the
// sheet is not awaiting input, or when the buffer is full.
func (s *Session) Press(digit byte) {
	if digit < '0' || digit > '9' {
		return
	}
	if s.machine.Current() != StateAwaitingInput {
		return
	}

	s.mu.Lock()
	if s.loading || s.cursor >= Length {
		s.mu.Unlock()
		return
	}
	s.verified = false
	s.digits[s.cursor] = digit
	s.cursor++
	s.mirror = s.joinedLocked()
	s.mu.Unlock()

	s.armAutoSubmit()
}

// Delete removes the digit before the cursor. With the cursor at the end
// and content present this clears the last slot. Ignored while loading.
func (s *Session) Delete() {
	if s.machine.Current() != StateAwaitingInput {
		return
	}

	s.mu.Lock()
	if s.loading || s.cursor == 0 {
		s.mu.Unlock()
		return
	}
	s.verified = false
	s.digits[s.cursor-1] = 0
	s.cursor--
	s.mirror = s.joinedLocked()
	s.mu.Unlock()

	s.armAutoSubmit()
}

// SetMirror feeds the shadow text field that captures platform paste. When
// the new text holds more digits than the currently filled slots, the
// surplus is distributed into the buffer starting at the cursor and the
// cursor lands on the last filled index (capped at the final slot).
func (s *Session) SetMirror(text string) {
	if s.machine.Current() != StateAwaitingInput {
		return
	}

	digits := stripNonDigits(text)

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return
	}

	filled := s.filledLocked()
	if len(digits) <= filled {
		s.mirror = digits
		s.mu.Unlock()
		return
	}

	s.verified = false
	surplus := digits[filled:]
	start := s.cursor
	for i := 0; i < len(surplus) && start+i < Length; i++ {
		s.digits[start+i] = surplus[i]
	}
	s.cursor = min(start+len(surplus)-1, Length-1)
	s.mirror = s.joinedLocked()
	s.mu.Unlock()

	s.armAutoSubmit()
}

// Confirm verifies immediately, bypassing the debounce. It is a no-op
// unless all six slots are filled.
func (s *Session) Confirm() {
	s.cancelDebounce()
	go s.verify(s.generation())
}

// Resend requests a fresh code. It is a no-op until the countdown has
// reached zero and while another call is in flight.
func (s *Session) Resend() {
	s.mu.Lock()
	can := s.canResend && !s.loading
	gen := s.gen
	s.mu.Unlock()

	if !can {
		return
	}
	go s.sendCode(gen, false)
}

// State returns the current sheet state.
func (s *Session) State() statemachine.State {
	return s.machine.Current()
}

// Code returns the currently entered digits.
func (s *Session) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joinedLocked()
}

// Cursor returns the active slot index.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// SecondsRemaining returns the resend countdown value.
func (s *Session) SecondsRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// CanResend reports whether the resend action is available.
func (s *Session) CanResend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canResend
}

// Loading reports whether a network call is in flight.
func (s *Session) Loading() bool {
	return s.isLoading()
}

func (s *Session) runCountdown(gen int, stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.tick(gen) {
				return
			}
		}
	}
}

// tick decrements the countdown, returning false once the countdown is done
// or the session generation moved on.
func (s *Session) tick(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.canResend {
		return false
	}

	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		s.canResend = true
		return false
	}
	return true
}

// armAutoSubmit schedules a debounced verification when the buffer is full.
// Every digit change re-arms the debounce; a partial buffer cancels it.
func (s *Session) armAutoSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}

	if s.filledLocked() != Length || s.loading || s.verified {
		return
	}

	gen := s.gen
	s.debounce = time.AfterFunc(s.cfg.DebounceInterval, func() {
		s.verify(gen)
	})
}

func (s *Session) cancelDebounce() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}

// verify performs the remote verification. The verified/loading pair
// guarantees at most one call in flight; stale generations bail out.
func (s *Session) verify(gen int) {
	s.mu.Lock()
	if gen != s.gen || s.loading || s.verified || s.filledLocked() != Length {
		s.mu.Unlock()
		return
	}
	code := s.joinedLocked()
	s.verified = true
	s.loading = true
	ctx := s.ctx
	s.mu.Unlock()

	if err := s.machine.Fire(ctx, eventSubmit); err != nil {
		// The sheet left awaiting-input between the check and the fire.
		s.mu.Lock()
		s.verified = false
		s.loading = false
		s.mu.Unlock()
		return
	}

	resp, err := s.client.Post(ctx, s.op.verifyPath, s.op.verifyBody(s.identifier, s.kind, code))

	switch {
	case err != nil:
		s.log.LogAttrs(ctx, slog.LevelWarn, "otp verification request failed",
			logger.Operation(s.op.Kind()),
			logger.Error(err),
		)
		s.failVerify(ctx, gen, s.tr.T(s.cfg.Language, "otp.verification_error"))

	case !resp.Status:
		message := resp.Message
		if message == "" {
			message = s.tr.T(s.cfg.Language, "otp.verification_failed")
		}
		s.failVerify(ctx, gen, message)

	default:
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()

		_ = s.machine.Fire(ctx, eventSubmitOK)

		if s.onVerified != nil {
			result := VerifiedResult{OTP: code, Response: resp}
			if resp.Data != nil {
				result.Token = resp.Data.Token
			}
			s.onVerified(result)
		}

		// Success closes the sheet; loading is already false so the close
		// cannot be refused.
		s.teardown()
		_ = s.machine.Fire(ctx, eventClose)
		_ = s.machine.Fire(ctx, eventClosed)
		if s.onClosed != nil {
			s.onClosed()
		}
	}
}

// failVerify surfaces the failure, resets digit entry, and leaves the
// countdown untouched: a failed attempt does not grant an extra resend.
func (s *Session) failVerify(ctx context.Context, gen int, message string) {
	_ = s.machine.Fire(ctx, eventSubmitFail)

	s.alert(message)

	s.mu.Lock()
	if gen == s.gen {
		s.digits = [Length]byte{}
		s.cursor = 0
		s.mirror = ""
		s.verified = false
		s.loading = false
	}
	s.mu.Unlock()
}

// sendCode fires the send/resend call. The initial send on open is best
// effort; an explicit resend also resets the countdown and digits on
// success.
func (s *Session) sendCode(gen int, initial bool) {
	s.mu.Lock()
	if gen != s.gen || s.loading || (!initial && !s.canResend) {
		s.mu.Unlock()
		return
	}
	s.loading = true
	ctx := s.ctx
	s.mu.Unlock()

	resp, err := s.client.Post(ctx, s.op.resendPath, s.op.resendBody(s.identifier, s.kind))

	switch {
	case err != nil:
		s.log.LogAttrs(ctx, slog.LevelWarn, "otp send request failed",
			logger.Operation(s.op.Kind()),
			logger.Error(err),
		)
		s.alert(s.tr.T(s.cfg.Language, "otp.failed_to_send"))
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()

	case !resp.Status:
		message := resp.Message
		if message == "" {
			message = s.tr.T(s.cfg.Language, "otp.failed_to_send")
		}
		s.alert(message)
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()

	default:
		if initial {
			// The countdown started at open; nothing to reset.
			s.mu.Lock()
			s.loading = false
			s.mu.Unlock()
			return
		}

		s.alert(s.tr.T(s.cfg.Language, "otp.otp_resent"))

		s.mu.Lock()
		if gen == s.gen {
			s.remaining = s.cfg.ResendDisabledSeconds
			s.canResend = false
			s.digits = [Length]byte{}
			s.cursor = 0
			s.mirror = ""
			s.verified = false

			// Restart the countdown for the fresh code.
			if s.countdownC != nil {
				close(s.countdownC)
			}
			s.countdownC = make(chan struct{})
			go s.runCountdown(gen, s.countdownC)
		}
		s.loading = false
		s.mu.Unlock()
	}
}

// teardown cancels every timer owned by the session and bumps the
// generation so late callbacks become no-ops.
func (s *Session) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.countdownC != nil {
		close(s.countdownC)
		s.countdownC = nil
	}
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	if s.settle != nil {
		s.settle.Stop()
		s.settle = nil
	}
}

func (s *Session) alert(message string) {
	if s.alerter != nil {
		s.alerter.Alert("OTP", message)
		return
	}
	s.log.Warn("otp alert", "message", message)
}

func (s *Session) isLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Session) joinedLocked() string {
	var b strings.Builder
	for _, d := range s.digits {
		if d != 0 {
			b.WriteByte(d)
		}
	}
	return b.String()
}

func (s *Session) filledLocked() int {
	n := 0
	for _, d := range s.digits {
		if d != 0 {
			n++
		}
	}
	return n
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
