// Package tokenstore manages the bearer token shared by the realtime
// connection (channel-authorization handshakes) and the OTP client.
//
// Two implementations are provided: MemoryStore for tests and hosts with
// their own persistence, and FileStore which seals the token at rest with
// AES-GCM under an argon2id-derived key. The realtime coordinator only
// depends on the Store interface; an absent token (ErrNoToken) means "not
// authenticated yet" and is not treated as a failure.
package tokenstore
