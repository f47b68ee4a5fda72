package strategy

import (
	"context"

	"github.com/vietddude/remedy/internal/core/domain"
)

// FixGenerator produces a textual fix suggestion for an error.
type FixGenerator interface {
	GenerateFix(ctx context.Context, e *domain.Error) (string, error)
}

// RetryHandler re-runs the failed step and reports whether it succeeded.
type RetryHandler interface {
	Retry(ctx context.Context, e *domain.Error) (bool, error)
}

// AlternativeSelector picks a different implementation approach for the
// failed step and returns its description.
type AlternativeSelector interface {
	SelectAlternative(ctx context.Context, e *domain.Error) (string, error)
}

// RollbackHandler restores the working tree to the last known-good state.
type RollbackHandler interface {
	Rollback(ctx context.Context) (bool, error)
}

// Func adapters so callers can wire plain closures.

type FixGeneratorFunc func(ctx context.Context, e *domain.Error) (string, error)

func (f FixGeneratorFunc) GenerateFix(ctx context.Context, e *domain.Error) (string, error) {
	return f(ctx, e)
}

type RetryHandlerFunc func(ctx context.Context, e *domain.Error) (bool, error)

func (f RetryHandlerFunc) Retry(ctx context.Context, e *domain.Error) (bool, error) {
	return f(ctx, e)
}

type AlternativeSelectorFunc func(ctx context.Context, e *domain.Error) (string, error)

func (f AlternativeSelectorFunc) SelectAlternative(ctx context.Context, e *domain.Error) (string, error) {
	return f(ctx, e)
}

type RollbackHandlerFunc func(ctx context.Context) (bool, error)

func (f RollbackHandlerFunc) Rollback(ctx context.Context) (bool, error) {
	return f(ctx)
}

// Capabilities flags which collaborators are wired. The catalog only returns
// strategies whose capability is present.
type Capabilities struct {
	Fix         bool
	Retry       bool
	Alternative bool
	Rollback    bool

	// RollbackEnabled gates the final-fallback rollback append; the rollback
	// capability alone is not enough.
	RollbackEnabled bool
}
