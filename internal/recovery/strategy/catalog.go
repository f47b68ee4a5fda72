// Package strategy maps error categories to ordered recovery strategy lists.
package strategy

import (
	"github.com/vietddude/remedy/internal/core/domain"
)

// Context keys the catalog inspects in the caller-supplied recovery context.
const (
	ContextKeyCheckpoint = "checkpoint_id"
	ContextKeyAllowSkip  = "allow_skip"
)

// Catalog selects candidate strategies for an error. Selection is
// deterministic: the same category, context and capabilities always produce
// the same ordered list. Escalation is never listed; it is the implicit
// terminal state when the list is exhausted.
type Catalog struct {
	caps Capabilities
}

func NewCatalog(caps Capabilities) *Catalog {
	return &Catalog{caps: caps}
}

// Select returns the ordered candidate strategies for a category.
func (c *Catalog) Select(category domain.ErrorCategory, rctx map[string]any) []domain.Strategy {
	var out []domain.Strategy

	switch category {
	case domain.CategoryTransient:
		if c.caps.Retry {
			out = append(out, domain.StrategyRetry)
		}
		if c.caps.Fix {
			out = append(out, domain.StrategyFix)
		}

	case domain.CategoryPermanent:
		if hasCheckpoint(rctx) && c.caps.Rollback {
			// A recorded checkpoint is the caller's declaration that restore
			// is the intended remediation.
			return []domain.Strategy{domain.StrategyRollback}
		}
		if c.caps.Alternative {
			out = append(out, domain.StrategyAlternative)
		}

	case domain.CategoryAmbiguous:
		if allowSkip(rctx) {
			out = append(out, domain.StrategySkipAndContinue)
		} else {
			out = append(out, domain.StrategyRequestHumanInput)
		}

	default:
		if c.caps.Fix {
			out = append(out, domain.StrategyFix)
		}
		if c.caps.Retry {
			out = append(out, domain.StrategyRetry)
		}
		if c.caps.Alternative {
			out = append(out, domain.StrategyAlternative)
		}
	}

	return c.appendRollbackFallback(out)
}

// SelectForError is the richer cascade policy: permanent errors are biased by
// their sub-type toward fix-first or alternative-first ordering. All other
// errors fall back to the category table.
func (c *Catalog) SelectForError(e *domain.Error, rctx map[string]any) []domain.Strategy {
	if e.Category != domain.CategoryPermanent {
		return c.Select(e.Category, rctx)
	}

	var out []domain.Strategy
	switch e.Type {
	case domain.ErrCodeQuality, domain.ErrTestFailure:
		// Defects in code we just wrote: a fix is cheaper than a rewrite.
		if c.caps.Fix {
			out = append(out, domain.StrategyFix)
		}
		if c.caps.Alternative {
			out = append(out, domain.StrategyAlternative)
		}

	case domain.ErrDependency:
		// Broken dependencies rarely respond to spot fixes.
		if c.caps.Alternative {
			out = append(out, domain.StrategyAlternative)
		}
		if c.caps.Fix {
			out = append(out, domain.StrategyFix)
		}

	default:
		return c.Select(e.Category, rctx)
	}

	return c.appendRollbackFallback(out)
}

// appendRollbackFallback appends rollback as the last resort before
// escalation. It requires the capability plus the enablement flag, and never
// puts rollback ahead of every non-destructive strategy: an otherwise empty
// list stays empty.
func (c *Catalog) appendRollbackFallback(list []domain.Strategy) []domain.Strategy {
	if !c.caps.Rollback || !c.caps.RollbackEnabled {
		return list
	}
	if len(list) == 0 {
		return list
	}
	for _, s := range list {
		if s == domain.StrategyRollback {
			return list
		}
	}
	return append(list, domain.StrategyRollback)
}

func hasCheckpoint(rctx map[string]any) bool {
	if rctx == nil {
		return false
	}
	v, ok := rctx[ContextKeyCheckpoint]
	if !ok {
		return false
	}
	s, isString := v.(string)
	return !isString || s != ""
}

func allowSkip(rctx map[string]any) bool {
	if rctx == nil {
		return false
	}
	allowed, _ := rctx[ContextKeyAllowSkip].(bool)
	return allowed
}
