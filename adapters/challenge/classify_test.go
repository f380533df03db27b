package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/layer-3/custos/core"
)

func TestClassify_AllowListedCodesAreAdvisory(t *testing.T) {
	assert.Equal(t, core.OutcomeAdvisory, Classify(155705, ""))
	assert.Equal(t, core.OutcomeAdvisory, Classify(155704, "anything"))
	assert.Equal(t, core.OutcomeAdvisory, Classify(155706, "unrelated text"))
}

func TestClassify_KnownPhrasesAreAdvisory(t *testing.T) {
	assert.Equal(t, core.OutcomeAdvisory, Classify(0, "Hint can't be the same as answer"))
	assert.Equal(t, core.OutcomeAdvisory, Classify(42, "request validation failed: question too short"))
}

func TestClassify_EverythingElseIsFatal(t *testing.T) {
	assert.Equal(t, core.OutcomeFatal, Classify(999999, "internal ceremony error"))
	assert.Equal(t, core.OutcomeFatal, Classify(0, ""))
	assert.Equal(t, core.OutcomeFatal, Classify(155799, "user rejected the ceremony"))
}
