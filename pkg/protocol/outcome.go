package protocol

// Outcome is the terminal state of one worker invocation, used as a metrics
// label and in logs.
type Outcome string

const (
	OutcomeParsed      Outcome = "parsed"
	OutcomeParseFailed Outcome = "parse_failed"
	OutcomeTimedOut    Outcome = "timed_out"
	OutcomeNonZeroExit Outcome = "nonzero_exit"
	OutcomeSpawnFailed Outcome = "spawn_failed"
)
