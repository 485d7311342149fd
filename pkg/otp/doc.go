// Package otp implements the one-time-password verification flow used when
// confirming sensitive account changes: a six-slot code entry sheet with a
// resend countdown, paste handling, debounced auto-submit, and an HTTP
// client for the verify and resend endpoints.
//
// A Session models one presentation of the sheet as a state machine. The
// closed Operation type selects which backend endpoints and request shapes
// a session talks to:
//
//	client, _ := otp.NewClient("https://api.example.com")
//	op := otp.BankAccountOperation()
//
//	sess, _ := otp.NewSession(client, op, "user@example.com", otp.IdentifierEmail,
//		otp.OnVerified(func(r otp.VerifiedResult) {
//			// r.OTP and r.Token are available here
//		}),
//	)
//
//	_ = sess.Open(ctx)
//	sess.Press('1')
//	// ... digits arrive; a full buffer auto-submits after a short debounce
//
// Digit entry goes through Press, Delete, and SetMirror. SetMirror mirrors
// a hidden platform text field so pasted codes are distributed into the
// slots. Once all six slots are filled the session waits out a short
// debounce and submits; Confirm skips the debounce. At most one
// verification is ever in flight, and Close is refused while a request is
// outstanding.
package otp
