package domain

// Strategy identifies one recovery action in a cascade.
type Strategy string

const (
	StrategyFix               Strategy = "fix"
	StrategyRetry             Strategy = "retry"
	StrategyAlternative       Strategy = "alternative"
	StrategyRollback          Strategy = "rollback"
	StrategyEscalate          Strategy = "escalate"
	StrategyRequestHumanInput Strategy = "request_human_input"
	StrategySkipAndContinue   Strategy = "skip_and_continue"
)

// Destructive reports whether the strategy discards work when it runs.
// Rollback is the only destructive strategy; the catalog never schedules it
// ahead of every non-destructive candidate.
func (s Strategy) Destructive() bool {
	return s == StrategyRollback
}
