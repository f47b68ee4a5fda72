// Package checkpoint defines the snapshot gateway the rollback strategy
// consumes. The engine never implements it; the embedding application wires a
// git-backed (or other) implementation in.
package checkpoint

import "context"

// Handle identifies one snapshot in the external store.
type Handle struct {
	ID          string         `json:"id"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Gateway is the external create/rollback capability.
type Gateway interface {
	// CreateSnapshot records a restore point for the session.
	CreateSnapshot(ctx context.Context, sessionID, description string, metadata map[string]any) (Handle, error)

	// RollbackTo restores the working tree to the given snapshot.
	RollbackTo(ctx context.Context, sessionID string, handle Handle) (bool, error)
}
