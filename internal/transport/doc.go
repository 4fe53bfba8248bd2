// Package transport carries RMAP envelopes over HTTP.
//
// The server exposes the same endpoints and JSON shapes the reference
// deployment uses: POST /api/rmap-initiate, POST /api/rmap-get-link and
// GET /api/get-version/:handle. Protocol errors map onto HTTP status
// codes; the engine itself stays transport-agnostic.
package transport
