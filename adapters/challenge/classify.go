package challenge

import (
	"strings"

	"github.com/layer-3/custos/core"
)

// The secure module reports UX-level validation nudges through the
// same error channel as true ceremony failures. Anything matching the
// tables below has still progressed the ceremony on the provider side
// and must not abort the workflow. The boundary is provider-defined
// and only partially documented; extend the tables as new advisory
// shapes are observed, don't special-case call sites.
var advisoryCodes = map[int]struct{}{
	155704: {},
	155705: {}, // hint must differ from the security answer
	155706: {},
}

var advisoryPhrases = []string{
	"hint can't be the same as answer",
	"validation failed",
}

// Classify maps a secure-module error to an outcome kind. An error is
// advisory if and only if its code is allow-listed or its message
// matches a known non-fatal phrase; everything else is fatal.
func Classify(code int, message string) core.OutcomeKind {
	if _, ok := advisoryCodes[code]; ok {
		return core.OutcomeAdvisory
	}
	msg := strings.ToLower(message)
	for _, phrase := range advisoryPhrases {
		if strings.Contains(msg, phrase) {
			return core.OutcomeAdvisory
		}
	}
	return core.OutcomeFatal
}
