package core

// SessionState enumerates the provisioning workflow states.
type SessionState string

const (
	StateInit               SessionState = "INIT"
	StateUserReady          SessionState = "USER_READY"
	StateTokenReady         SessionState = "TOKEN_READY"
	StateWalletRequested    SessionState = "WALLET_REQUESTED"
	StateDirectSuccess      SessionState = "DIRECT_SUCCESS"
	StateChallengeRequired  SessionState = "CHALLENGE_REQUIRED"
	StateChallengeExecuting SessionState = "CHALLENGE_EXECUTING"
	StateChallengeResolved  SessionState = "CHALLENGE_RESOLVED"
	StateConfirmed          SessionState = "CONFIRMED"
	StateDone               SessionState = "DONE"
	StateRecoverable        SessionState = "RECOVERABLE"
	StateFatal              SessionState = "FATAL"
)

// ProvisioningSession is the ephemeral state of one provisioning
// workflow. The orchestrator owns it exclusively for the duration of
// the call; it is created when a request starts and discarded on
// terminal success or fatal failure. At most one session is active per
// identity, enforced by the session guard.
type ProvisioningSession struct {
	ID          string
	Identity    Identity
	State       SessionState
	Token       *AccessToken
	ChallengeID string
	Attempt     int
	Wallet      *Wallet
}
