package transcript

import (
	"regexp"
	"strings"
)

// Marker flags an assistant turn as structured feedback rather than dialogue.
// Matching is always case-insensitive.
const Marker = "spätná väzba:"

// HasMarker reports whether text carries the feedback marker.
func HasMarker(text string) bool {
	return strings.Contains(strings.ToLower(text), Marker)
}

type section struct {
	label  string
	anchor *regexp.Regexp
}

// Canonical section order. The summary section is anchored on the feedback
// marker itself; every other section is anchored on its own label.
var sections = []section{
	{"Zhrnutie rozhovoru", regexp.MustCompile(`(?i)Spätná väzba:\s*`)},
	{"Silné stránky", regexp.MustCompile(`(?i)Silné stránky:\s*`)},
	{"Priestory na zlepšenie", regexp.MustCompile(`(?i)Priestory na zlepšenie:\s*`)},
	{"Štruktúra rozhovoru", regexp.MustCompile(`(?i)Štruktúra rozhovoru:\s*`)},
	{"Užitočné formulácie", regexp.MustCompile(`(?i)Užitočné formulácie:\s*`)},
}

// FormatFeedback renders raw feedback text into the fixed markdown block.
// Sections whose anchor never occurs are skipped. Each body runs from the end
// of its anchor to the first occurrence of the next label's anchor anywhere in
// the text, or to the end of the text when the next anchor is absent. Anchors
// are searched independently per label, so input that deviates from canonical
// order can yield overlapping or empty bodies; canonical-order input is the
// only supported shape.
func FormatFeedback(raw string) string {
	parts := make([]string, 0, len(sections))
	for i, cur := range sections {
		loc := cur.anchor.FindStringIndex(raw)
		if loc == nil {
			continue
		}
		end := len(raw)
		if i+1 < len(sections) {
			if next := sections[i+1].anchor.FindStringIndex(raw); next != nil {
				end = next[0]
			}
		}
		if end < loc[1] {
			// Out-of-order input; the slice collapses to an empty body.
			end = loc[1]
		}
		body := strings.TrimSpace(raw[loc[1]:end])
		parts = append(parts, "**"+cur.label+":** \n\n"+body)
	}

	var b strings.Builder
	b.WriteString("––––––––––––––––––––\n\n*Spätná väzba*\n\n")
	b.WriteString(strings.Join(parts, "\n\n"))
	return strings.TrimSpace(b.String())
}
