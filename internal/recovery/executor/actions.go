package executor

import (
	"context"
	"fmt"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/recovery/checkpoint"
	"github.com/vietddude/remedy/internal/recovery/metrics"
	"github.com/vietddude/remedy/internal/recovery/strategy"
)

type attemptOutcome struct {
	success           bool
	message           string
	changes           []string
	files             []string
	rollbackPerformed bool
}

// runStrategy invokes one strategy action behind a failure boundary and a
// bounded-time guard. A panicking or hanging collaborator becomes a failed
// attempt, never a crash.
func (ex *Executor) runStrategy(
	ctx context.Context,
	strat domain.Strategy,
	e *domain.Error,
	rctx map[string]any,
	sessionID string,
) attemptOutcome {
	runCtx := ctx
	if ex.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, ex.cfg.AttemptTimeout)
		defer cancel()
	}

	done := make(chan attemptOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attemptOutcome{message: fmt.Sprintf("collaborator panicked: %v", r)}
			}
		}()
		done <- ex.invoke(runCtx, strat, e, rctx, sessionID)
	}()

	select {
	case out := <-done:
		return out
	case <-runCtx.Done():
		return attemptOutcome{message: fmt.Sprintf("attempt aborted: %v", runCtx.Err())}
	}
}

func (ex *Executor) invoke(
	ctx context.Context,
	strat domain.Strategy,
	e *domain.Error,
	rctx map[string]any,
	sessionID string,
) attemptOutcome {
	switch strat {
	case domain.StrategyFix:
		return ex.invokeFix(ctx, e)
	case domain.StrategyRetry:
		return ex.invokeRetry(ctx, e)
	case domain.StrategyAlternative:
		return ex.invokeAlternative(ctx, e)
	case domain.StrategyRollback:
		return ex.invokeRollback(ctx, rctx, sessionID)
	case domain.StrategySkipAndContinue:
		return attemptOutcome{
			success: true,
			message: "failing step skipped per explicit policy",
			changes: []string{"skipped failing step"},
		}
	case domain.StrategyRequestHumanInput:
		return attemptOutcome{message: "human input required; no autonomous action taken"}
	default:
		return attemptOutcome{message: fmt.Sprintf("no action for strategy %q", strat)}
	}
}

func (ex *Executor) invokeFix(ctx context.Context, e *domain.Error) attemptOutcome {
	if ex.collab.Fix == nil {
		return attemptOutcome{message: "no fix generator configured"}
	}
	text, err := ex.collab.Fix.GenerateFix(ctx, e)
	if err != nil {
		return attemptOutcome{message: fmt.Sprintf("fix generation failed: %v", err)}
	}
	if text == "" {
		return attemptOutcome{message: "fix generator returned no suggestion"}
	}
	return attemptOutcome{
		success: true,
		message: "fix generated",
		changes: parseChanges(text),
	}
}

func (ex *Executor) invokeRetry(ctx context.Context, e *domain.Error) attemptOutcome {
	if ex.collab.Retry == nil {
		if e.Category == domain.CategoryTransient && ex.cfg.SimulateRetrySuccess {
			return attemptOutcome{
				success: true,
				message: "transient failure assumed resolved (simulated retry)",
			}
		}
		return attemptOutcome{message: "no retry handler configured"}
	}
	ok, err := ex.collab.Retry.Retry(ctx, e)
	if err != nil {
		return attemptOutcome{message: fmt.Sprintf("retry failed: %v", err)}
	}
	if !ok {
		return attemptOutcome{message: "retry did not resolve the failure"}
	}
	return attemptOutcome{success: true, message: "step succeeded on retry"}
}

func (ex *Executor) invokeAlternative(ctx context.Context, e *domain.Error) attemptOutcome {
	if ex.collab.Alternative == nil {
		return attemptOutcome{message: "no alternative selector configured"}
	}
	choice, err := ex.collab.Alternative.SelectAlternative(ctx, e)
	if err != nil {
		return attemptOutcome{message: fmt.Sprintf("alternative selection failed: %v", err)}
	}
	if choice == "" {
		return attemptOutcome{message: "no alternative approach available"}
	}
	return attemptOutcome{
		success: true,
		message: "alternative approach selected",
		changes: []string{"selected alternative approach: " + choice},
	}
}

func (ex *Executor) invokeRollback(ctx context.Context, rctx map[string]any, sessionID string) attemptOutcome {
	if ex.collab.Rollback != nil {
		ok, err := ex.collab.Rollback.Rollback(ctx)
		if err != nil {
			return attemptOutcome{message: fmt.Sprintf("rollback failed: %v", err)}
		}
		if !ok {
			return attemptOutcome{message: "rollback handler reported no restore"}
		}
		metrics.RollbacksTotal.Inc()
		return attemptOutcome{
			success:           true,
			message:           "rolled back to last checkpoint",
			rollbackPerformed: true,
			files:             checkpointFiles(rctx),
		}
	}

	if ex.collab.Gateway == nil {
		return attemptOutcome{message: "no rollback capability configured"}
	}
	handleID, _ := rctx[strategy.ContextKeyCheckpoint].(string)
	if handleID == "" {
		return attemptOutcome{message: "no checkpoint recorded for rollback"}
	}
	ok, err := ex.collab.Gateway.RollbackTo(ctx, sessionID, checkpoint.Handle{ID: handleID})
	if err != nil {
		return attemptOutcome{message: fmt.Sprintf("checkpoint rollback failed: %v", err)}
	}
	if !ok {
		return attemptOutcome{message: "checkpoint gateway declined the rollback"}
	}
	metrics.RollbacksTotal.Inc()
	return attemptOutcome{
		success:           true,
		message:           "rolled back to checkpoint " + handleID,
		rollbackPerformed: true,
		files:             []string{"checkpoint:" + handleID},
	}
}

func checkpointFiles(rctx map[string]any) []string {
	if id, _ := rctx[strategy.ContextKeyCheckpoint].(string); id != "" {
		return []string{"checkpoint:" + id}
	}
	return nil
}
