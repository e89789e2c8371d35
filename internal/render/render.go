// Package render produces Markdown output from a critique.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/designcritic/internal/critique"
)

// Markdown renders a critique of the artifact described by req as a
// Markdown report.
func Markdown(req critique.Request, c *critique.Critique) string {
	var b strings.Builder
	req = req.WithDefaults()

	b.WriteString("# Design Review\n\n")
	fmt.Fprintf(&b, "**Artifact:** `%s` (%s)\n", req.ArtifactName, req.ArtifactKind)
	fmt.Fprintf(&b, "**Overall:** %s / 10\n", formatScore(c.Scores.Overall()))
	fmt.Fprintf(&b, "**Emotional tone:** %s\n\n", c.Scores.EmotionalTone)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "%s\n\n", c.Summary)

	b.WriteString("## Scores\n\n")
	b.WriteString("| Dimension | Score |\n")
	b.WriteString("|---|---|\n")
	for _, d := range c.Scores.Dimensions() {
		fmt.Fprintf(&b, "| %s | %s |\n", d.Label, formatScore(d.Value))
	}
	b.WriteString("\n")

	b.WriteString("## Product Value\n\n")
	fmt.Fprintf(&b, "%s\n\n", c.ProductValue)

	b.WriteString("## Priority Fixes\n\n")
	for i, fix := range c.PriorityFixes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, fix)
	}
	b.WriteString("\n")

	b.WriteString("## Suggestions\n\n")
	for _, s := range c.Suggestions {
		fmt.Fprintf(&b, "- %s\n", s)
	}

	return b.String()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
