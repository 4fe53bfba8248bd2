// Package handshake implements the RMAP three-message state machine.
//
// Engine is the server side: it validates message1, opens a pending
// session, answers with message2, and on a valid message3 atomically
// consumes the session and releases the secret through the issuance gate.
// Initiator is the client side and drives the same exchange from the
// other end, checking that the server's reply echoes its own nonce.
package handshake
