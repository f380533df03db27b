package core

// Challenge is a provider-issued security ceremony (for example PIN
// setup) that must complete before a wallet can be created. A
// challenge is consumed exactly once by the challenge executor.
type Challenge struct {
	ID     string
	Status string
}

// OutcomeKind classifies the result of executing a challenge.
type OutcomeKind int

const (
	// OutcomeSuccess means the ceremony completed cleanly.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeAdvisory means the executor reported an error that is a
	// known non-fatal validation nudge. The ceremony on the provider
	// side has still progressed, so the workflow continues.
	OutcomeAdvisory

	// OutcomeFatal means the ceremony failed and the workflow must
	// abort.
	OutcomeFatal
)

// ChallengeOutcome is the classified result of a challenge ceremony.
type ChallengeOutcome struct {
	Kind    OutcomeKind
	Code    int
	Message string
	Result  map[string]any
}
