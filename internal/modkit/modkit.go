// Package modkit composes API modules from shared deps and options
package modkit

import (
	"context"

	"armvalidator/internal/modkit/module"
)

// Module is re-exported so module constructors only import modkit
type Module = module.Module

// Lifecycle is implemented by modules whose work outlives a single request
// Start runs before the server listens; Drain runs after it stopped accepting
type Lifecycle interface {
	Start(ctx context.Context) error
	Drain(ctx context.Context) error
}
