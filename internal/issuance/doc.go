// Package issuance is the single release point for derived secrets.
//
// The Gate requires the one-shot ticket minted by the session store as
// proof of a fresh consume transition and releases each session's secret
// to at most one caller, handing it to the external personalization
// collaborator in exchange for an opaque retrieval handle.
package issuance
