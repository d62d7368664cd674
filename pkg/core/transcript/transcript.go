// Package transcript turns an ordered conversation into a single markdown
// document, rendering structured feedback through the section formatter.
package transcript

import (
	"strings"

	"github.com/hovorka-app/hovorka/pkg/core/types"
)

// StudentLabel prefixes every user turn in the rendered transcript.
const StudentLabel = "Študent"

// Build renders the conversation as markdown. User turns become student lines,
// assistant turns become persona lines, and the most recent feedback-marked
// assistant turn is segmented and appended as a single feedback block. The
// result is a pure function of its inputs.
func Build(turns []types.Turn, personaName string) string {
	var b strings.Builder
	var feedback string

	for _, t := range turns {
		switch t.Role {
		case types.RoleUser:
			b.WriteString(StudentLabel + ":  \n" + t.Content + "\n\n")
		case types.RoleAssistant:
			if HasMarker(t.Content) {
				// Later feedback replaces earlier feedback, never merged.
				feedback = t.Content
				continue
			}
			b.WriteString(personaName + ":  \n" + t.Content + "\n\n")
		}
	}

	if feedback != "" {
		b.WriteString(FormatFeedback(feedback))
	}
	return strings.TrimSpace(b.String())
}
