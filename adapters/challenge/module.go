package challenge

// ExecutionError is the raw error shape the secure module reports
// through its callback.
type ExecutionError struct {
	Code    int
	Message string
}

// SecureModule is the callback-style primitive exposed by the
// client-side secure element bridge. Execute reports exactly once
// through the callback, with either a result or an error.
type SecureModule interface {
	Execute(userToken, encryptionKey, challengeID string, done func(result map[string]any, execErr *ExecutionError))
}

// AutoApproveModule is a SecureModule for local runs and tests that
// completes every ceremony immediately. Production deployments bridge
// to the real client-side secure module instead.
type AutoApproveModule struct{}

func (AutoApproveModule) Execute(userToken, encryptionKey, challengeID string, done func(result map[string]any, execErr *ExecutionError)) {
	done(map[string]any{"challengeId": challengeID, "status": "COMPLETE"}, nil)
}
