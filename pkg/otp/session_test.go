package otp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragonlab/mimokit/pkg/otp"
)

// fastConfig keeps the timing-sensitive tests quick while preserving the
// ordering between settle, debounce, and tick.
func fastConfig() otp.Config {
	return otp.Config{
		ResendDisabledSeconds: 3,
		SettleDelay:           10 * time.Millisecond,
		DebounceInterval:      40 * time.Millisecond,
		TickInterval:          15 * time.Millisecond,
	}
}

type call struct {
	Path string
	Body map[string]any
}

// fakeBackend records verify and resend calls and answers with a canned
// envelope per path.
type fakeBackend struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]otp.Response
	delay     time.Duration

	server *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	fb := &fakeBackend{responses: make(map[string]otp.Response)}
	fb.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		fb.mu.Lock()
		fb.calls = append(fb.calls, call{Path: r.URL.Path, Body: body})
		resp, ok := fb.responses[r.URL.Path]
		delay := fb.delay
		fb.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if !ok {
			resp = otp.Response{Status: true, Message: "ok"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) respond(path string, resp otp.Response) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.responses[path] = resp
}

func (fb *fakeBackend) setDelay(d time.Duration) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.delay = d
}

func (fb *fakeBackend) callsTo(path string) []call {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	var out []call
	for _, c := range fb.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newTestSession(t *testing.T, fb *fakeBackend, opts ...otp.SessionOption) *otp.Session {
	t.Helper()

	client, err := otp.NewClient(fb.server.URL)
	require.NoError(t, err)

	opts = append([]otp.SessionOption{otp.WithConfig(fastConfig())}, opts...)
	sess, err := otp.NewSession(client, otp.BankAccountOperation(), "user@test.com", otp.IdentifierEmail, opts...)
	require.NoError(t, err)
	return sess
}

// waitForInitialSend blocks until the send fired on open has resolved, so
// digit entry is no longer locked behind the in-flight call.
func waitForInitialSend(t *testing.T, fb *fakeBackend, sess *otp.Session) {
	t.Helper()
	waitFor(t, func() bool {
		return len(fb.callsTo("/client/send-otp-bank-wallet")) == 1 && !sess.Loading()
	})
}

func pressAll(sess *otp.Session, code string) {
	for i := 0; i < len(code); i++ {
		sess.Press(code[i])
	}
}

func TestNewSession_Validation(t *testing.T) {
	t.Parallel()

	client, err := otp.NewClient("http://localhost")
	require.NoError(t, err)

	_, err = otp.NewSession(nil, otp.BankAccountOperation(), "user@test.com", otp.IdentifierEmail)
	assert.ErrorIs(t, err, otp.ErrNilClient)

	_, err = otp.NewSession(client, otp.BankAccountOperation(), "", otp.IdentifierEmail)
	assert.ErrorIs(t, err, otp.ErrEmptyIdentifier)
}

func TestSession_OpenSendsCodeOnce(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	sess := newTestSession(t, fb)

	require.NoError(t, sess.Open(context.Background()))
	t.Cleanup(func() { _ = sess.Close() })

	assert.Equal(t, otp.StateAwaitingInput, sess.State())
	assert.ErrorIs(t, sess.Open(context.Background()), otp.ErrAlreadyOpen)

	waitFor(t, func() bool { return len(fb.callsTo("/client/send-otp-bank-wallet")) == 1 })

	sent := fb.callsTo("/client/send-otp-bank-wallet")[0]
	assert.Equal(t, "user@test.com", sent.Body["email"])
	assert.Equal(t, "bank", sent.Body["type"])
	assert.NotContains(t, sent.Body, "otp")

	// No extra sends show up after the settle window.
	time.Sleep(60 * time.Millisecond)
	assert.Len(t, fb.callsTo("/client/send-otp-bank-wallet"), 1)
}

func TestSession_CountdownUnlocksResend(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	sess := newTestSession(t, fb)

	require.NoError(t, sess.Open(context.Background()))
	t.Cleanup(func() { _ = sess.Close() })

	assert.Equal(t, 3, sess.SecondsRemaining())
	assert.False(t, sess.CanResend())

	waitFor(t, func() bool { return sess.CanResend() })
	assert.Equal(t, 0, sess.SecondsRemaining())
}

func TestSession_FullCodeAutoSubmitsOnce(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	fb.respond("/client/verify-otp-bank-wallet", otp.Response{
		Status: true,
		Data:   &otp.ResponseData{Token: "tok-123"},
	})

	var (
		mu     sync.Mutex
		result otp.VerifiedResult
		closed bool
	)
	sess := newTestSession(t, fb,
		otp.OnVerified(func(r otp.VerifiedResult) {
			mu.Lock()
			result = r
			mu.Unlock()
		}),
		otp.OnClosed(func() {
			mu.Lock()
			closed = true
			mu.Unlock()
		}),
	)

	require.NoError(t, sess.Open(context.Background()))
	waitForInitialSend(t, fb, sess)

	pressAll(sess, "123456")
	assert.Equal(t, "123456", sess.Code())

	waitFor(t, func() bool { return len(fb.callsTo("/client/verify-otp-bank-wallet")) == 1 })
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return closed
	})

	verify := fb.callsTo("/client/verify-otp-bank-wallet")[0]
	assert.Equal(t, "user@test.com", verify.Body["email"])
	assert.Equal(t, "bank", verify.Body["type"])
	assert.Equal(t, "123456", verify.Body["otp"])

	mu.Lock()
	assert.Equal(t, "123456", result.OTP)
	assert.Equal(t, "tok-123", result.Token)
	mu.Unlock()

	assert.Equal(t, otp.StateClosed, sess.State())

	// A second submission never happens.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, fb.callsTo("/client/verify-otp-bank-wallet"), 1)
}

func TestSession_DebounceReArmsOnEdit(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	sess := newTestSession(t, fb)

	require.NoError(t, sess.Open(context.Background()))
	t.Cleanup(func() { _ = sess.Close() })
	waitForInitialSend(t, fb, sess)

	pressAll(sess, "123456")

	// Edit inside the debounce window: delete and retype the last digit.
	time.Sleep(15 * time.Millisecond)
	sess.Delete()
	assert.Equal(t, "12345", sess.Code())
	sess.Press('7')

	waitFor(t, func() bool { return len(fb.callsTo("/client/verify-otp-bank-wallet")) >= 1 })
	time.Sleep(60 * time.Millisecond)

	calls := fb.callsTo("/client/verify-otp-bank-wallet")
	require.Len(t, calls, 1)
	assert.Equal(t, "123457", calls[0].Body["otp"])
}

func TestSession_ConfirmSkipsDebounce(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	sess := newTestSession(t, fb)

	require.NoError(t, sess.Open(context.Background()))
	waitForInitialSend(t, fb, sess)

	pressAll(sess, "654321")
	sess.Confirm()

	waitFor(t, func() bool { return len(fb.callsTo("/client/verify-otp-bank-wallet")) == 1 })
	assert.Equal(t, "654321", fb.callsTo("/client/verify-otp-bank-wallet")[0].Body["otp"])

	// The sixth keypress armed the debounce; once Confirm's verify is in
	// flight that timer must find nothing to do.
	time.Sleep(60 * time.Millisecond)
	require.Len(t, fb.callsTo("/client/verify-otp-bank-wallet"), 1)
}

func TestSession_PasteDistributesSurplus(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	sess := newTestSession(t, fb)

	require.NoError(t, sess.Open(context.Background()))
	t.Cleanup(func() { _ = sess.Close() })
	waitForInitialSend(t, fb, sess)

	t.Run("full code into empty buffer", func(t *testing.T) {
		sess.SetMirror("123456")
		assert.Equal(t, "123456", sess.Code())
		assert.Equal(t, 5, sess.Cursor())
	})
}

func TestSession_PastePartialSurplus(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	sess := newTestSession(t, fb)

	require.NoError(t, sess.Open(context.Background()))
	t.Cleanup(func() { _ = sess.Close() })
	waitForInitialSend(t, fb, sess)

	pressAll(sess, "123")
	require.Equal(t, 3, sess.Cursor())

	// Mirror already holds the three typed digits; two more arrive.
	sess.SetMirror("12399")
	assert.Equal(t, "12399", sess.Code())
	assert.Equal(t, 4, sess.Cursor())
}

func TestSession_PasteIgnoresNonDigits(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	sess := newTestSession(t, fb)

	require.NoError(t, sess.Open(context.Background()))
	t.Cleanup(func() { _ = sess.Close() })
	waitForInitialSend(t, fb, sess)

	sess.SetMirror("code: 12-34-56")
	assert.Equal(t, "123456", sess.Code())
}

func TestSession_FailedVerifyResetsDigitsNotCountdown(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	fb.respond("/client/verify-otp-bank-wallet", otp.Response{
		Status:  false,
		Message: "wrong code",
	})

	var (
		mu      sync.Mutex
		alerted string
	)
	// A long countdown keeps the resend lock closed for the whole test.
	cfg := fastConfig()
	cfg.ResendDisabledSeconds = 60
	sess := newTestSession(t, fb,
		otp.WithConfig(cfg),
		otp.WithAlerter(otp.AlerterFunc(func(title, message string) {
			mu.Lock()
			alerted = message
			mu.Unlock()
		})),
	)

	require.NoError(t, sess.Open(context.Background()))
	t.Cleanup(func() { _ = sess.Close() })
	waitForInitialSend(t, fb, sess)

	before := sess.SecondsRemaining()

	pressAll(sess, "000111")
	sess.Confirm()

	waitFor(t, func() bool { return sess.Code() == "" && !sess.Loading() })

	assert.Equal(t, otp.StateAwaitingInput, sess.State())
	assert.Equal(t, 0, sess.Cursor())
	assert.LessOrEqual(t, sess.SecondsRemaining(), before)
	assert.False(t, sess.CanResend())

	mu.Lock()
	assert.Equal(t, "wrong code", alerted)
	mu.Unlock()

	// The sheet accepts a fresh attempt.
	pressAll(sess, "123456")
	assert.Equal(t, "123456", sess.Code())
}

func TestSession_ResendOnlyAfterCountdown(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	sess := newTestSession(t, fb)

	require.NoError(t, sess.Open(context.Background()))
	t.Cleanup(func() { _ = sess.Close() })

	waitFor(t, func() bool { return len(fb.callsTo("/client/send-otp-bank-wallet")) == 1 })

	// Countdown still running: resend is ignored.
	sess.Resend()
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, fb.callsTo("/client/send-otp-bank-wallet"), 1)

	waitFor(t, func() bool { return sess.CanResend() })
	sess.Resend()

	waitFor(t, func() bool { return len(fb.callsTo("/client/send-otp-bank-wallet")) == 2 })

	// A successful resend restarts the countdown and clears entry.
	waitFor(t, func() bool { return !sess.CanResend() })
	assert.GreaterOrEqual(t, sess.SecondsRemaining(), 2)
	assert.Empty(t, sess.Code())
}

func TestSession_CloseRefusedWhileSubmitting(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	sess := newTestSession(t, fb)

	require.NoError(t, sess.Open(context.Background()))
	waitForInitialSend(t, fb, sess)

	fb.setDelay(150 * time.Millisecond)
	pressAll(sess, "123456")
	sess.Confirm()

	waitFor(t, func() bool { return sess.State() == otp.StateSubmitting })
	assert.ErrorIs(t, sess.Close(), otp.ErrVerificationInFlight)

	// Once the call resolves the sheet closes on its own (success path).
	waitFor(t, func() bool { return sess.State() == otp.StateClosed })
	assert.ErrorIs(t, sess.Close(), otp.ErrNotOpen)
}

func TestSession_InputIgnoredWhileClosed(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	sess := newTestSession(t, fb)

	sess.Press('1')
	sess.Delete()
	sess.SetMirror("123456")
	sess.Confirm()
	sess.Resend()

	assert.Empty(t, sess.Code())
	assert.Equal(t, otp.StateClosed, sess.State())
	assert.Empty(t, fb.callsTo("/client/verify-otp-bank-wallet"))
}

func TestSession_ReopenStartsFresh(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend(t)
	sess := newTestSession(t, fb)

	require.NoError(t, sess.Open(context.Background()))
	pressAll(sess, "12")
	require.NoError(t, sess.Close())

	require.NoError(t, sess.Open(context.Background()))
	t.Cleanup(func() { _ = sess.Close() })

	assert.Empty(t, sess.Code())
	assert.Equal(t, 0, sess.Cursor())
	assert.Equal(t, 3, sess.SecondsRemaining())
}
