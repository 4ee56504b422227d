package pipeline

import (
	"strings"

	"github.com/ppiankov/satyamitra/internal/model"
)

const verdictMarker = "**Verdict:**"

// ParseVerdict reads the verdict token from the summary section of a report.
// The second result is false when the token was missing or unrecognised and
// the UNVERIFIED default was used.
func ParseVerdict(report string) (model.Verdict, bool) {
	summary, _, _ := strings.Cut(report, ReportDelimiter)

	_, after, found := strings.Cut(summary, verdictMarker)
	if !found {
		return model.VerdictUnverified, false
	}

	fields := strings.Fields(after)
	if len(fields) == 0 {
		return model.VerdictUnverified, false
	}

	word := model.Verdict(strings.ToUpper(strings.ReplaceAll(fields[0], "**", "")))
	if !word.Valid() {
		return model.VerdictUnverified, false
	}
	return word, true
}
