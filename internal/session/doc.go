// Package session tracks in-flight handshakes and enforces at-most-once
// consumption per session.
//
// Open and Consume serialise on one mutex, which makes every phase
// transition linearizable: of two concurrent message3 deliveries for the
// same session, exactly one can ever consume it. Finished sessions are
// kept as tombstones for a retention window so that late retransmissions
// fail with the right error instead of "not found".
package session
