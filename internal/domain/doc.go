// Package domain defines the shared types, error taxonomy and collaborator
// interfaces of the RMAP protocol engine.
//
// Concrete implementations live in their own packages (internal/session,
// internal/issuance, ...) and assert compliance with the interfaces here.
package domain
