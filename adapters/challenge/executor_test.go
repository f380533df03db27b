package challenge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/custos/core"
)

// scriptedModule replays a fixed callback invocation.
type scriptedModule struct {
	result map[string]any
	err    *ExecutionError
	silent bool
	double bool
}

func (m *scriptedModule) Execute(userToken, encryptionKey, challengeID string, done func(result map[string]any, execErr *ExecutionError)) {
	if m.silent {
		return
	}
	done(m.result, m.err)
	if m.double {
		done(nil, &ExecutionError{Code: 1, Message: "late duplicate"})
	}
}

func token() core.AccessToken {
	return core.AccessToken{Token: "tok", EncryptionKey: "enc", IssuedAt: time.Now()}
}

func TestExecutor_Success(t *testing.T) {
	module := &scriptedModule{result: map[string]any{"status": "COMPLETE"}}
	executor := NewExecutor(module, time.Second)

	outcome, err := executor.Execute(context.Background(), token(), "c1")
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "COMPLETE", outcome.Result["status"])
}

func TestExecutor_AdvisoryErrorIsSoftOutcome(t *testing.T) {
	module := &scriptedModule{err: &ExecutionError{Code: 155705, Message: "hint can't be the same as answer"}}
	executor := NewExecutor(module, time.Second)

	outcome, err := executor.Execute(context.Background(), token(), "c1")
	require.NoError(t, err, "a reported module error must classify, not fail")
	assert.Equal(t, core.OutcomeAdvisory, outcome.Kind)
	assert.Equal(t, 155705, outcome.Code)
}

func TestExecutor_UnknownErrorIsFatalOutcome(t *testing.T) {
	module := &scriptedModule{err: &ExecutionError{Code: 500100, Message: "enclave unavailable"}}
	executor := NewExecutor(module, time.Second)

	outcome, err := executor.Execute(context.Background(), token(), "c1")
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeFatal, outcome.Kind)
	assert.Equal(t, "enclave unavailable", outcome.Message)
}

func TestExecutor_TimesOutWhenModuleNeverCallsBack(t *testing.T) {
	executor := NewExecutor(&scriptedModule{silent: true}, 20*time.Millisecond)

	_, err := executor.Execute(context.Background(), token(), "c1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecutor_DuplicateCallbackIsIgnored(t *testing.T) {
	module := &scriptedModule{result: map[string]any{"status": "COMPLETE"}, double: true}
	executor := NewExecutor(module, time.Second)

	outcome, err := executor.Execute(context.Background(), token(), "c1")
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeSuccess, outcome.Kind)
}

func TestExecutor_HonorsCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := NewExecutor(&scriptedModule{silent: true}, time.Second)

	_, err := executor.Execute(ctx, token(), "c1")
	assert.ErrorIs(t, err, context.Canceled)
}
