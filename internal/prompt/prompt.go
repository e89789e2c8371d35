// Package prompt compiles the output-format instructions and assembles the
// LLM prompt for a design review.
package prompt

import (
	"fmt"
	"strings"

	"github.com/dshills/designcritic/internal/profile"
	"github.com/dshills/designcritic/internal/schema"
)

const defaultRole = "a senior Product/UX design critic"

// maxEchoedOutput caps how much of a rejected response is echoed back in a
// repair prompt.
const maxEchoedOutput = 4000

// BuildOpts configures prompt construction.
type BuildOpts struct {
	Brief        string
	ArtifactName string
	ArtifactKind string
	Profile      *profile.Profile
	// Instructions is the compiled output contract. When empty the
	// critique schema is compiled on the fly.
	Instructions string
}

// Build assembles the full LLM prompt. The instruction block is always last.
func Build(opts BuildOpts) string {
	var b strings.Builder
	writeContext(&b, opts)
	b.WriteString(instructions(opts))
	return b.String()
}

// BuildRepair constructs a corrective prompt after a response failed schema
// validation. It repeats the original request, lists the violations and the
// rejected output, and still ends with the instruction block.
func BuildRepair(opts BuildOpts, previous string, violations []schema.Violation) string {
	var b strings.Builder
	writeContext(&b, opts)

	b.WriteString("## Correction Required\n\n")
	b.WriteString("Your previous response did not satisfy the output format. Fix ONLY these errors and return the complete corrected JSON object:\n\n")
	for _, v := range violations {
		fmt.Fprintf(&b, "- %s: %s\n", v.Path, v.Message)
	}
	if previous != "" {
		if len(previous) > maxEchoedOutput {
			previous = previous[:maxEchoedOutput] + "\n...(truncated)"
		}
		b.WriteString("\nPrevious response:\n\n<previous_response>\n")
		b.WriteString(previous)
		b.WriteString("\n</previous_response>\n")
	}
	b.WriteString("\n")

	b.WriteString(instructions(opts))
	return b.String()
}

func writeContext(b *strings.Builder, opts BuildOpts) {
	role := defaultRole
	if opts.Profile != nil && opts.Profile.Role != "" {
		role = opts.Profile.Role
	}

	// 1. Preamble
	fmt.Fprintf(b, "You are %s.\n", role)
	b.WriteString("Task: Review a UI/graphic design and return ONLY structured JSON.\n\n")

	// 2. Profile
	if opts.Profile != nil {
		b.WriteString(profile.FormatForPrompt(opts.Profile))
	}

	// 3. Design context
	b.WriteString("## Design Context\n\n")
	fmt.Fprintf(b, "- File: %q (%s)\n", opts.ArtifactName, opts.ArtifactKind)
	b.WriteString("- User brief:\n\n<brief>\n")
	b.WriteString(strings.TrimSpace(opts.Brief))
	b.WriteString("\n</brief>\n\n")

	// 4. Rules
	b.WriteString("## Rules\n\n")
	rules := []string{"Be concise but actionable."}
	if opts.Profile != nil && len(opts.Profile.Rules) > 0 {
		rules = opts.Profile.Rules
	}
	for _, r := range rules {
		fmt.Fprintf(b, "- %s\n", r)
	}
	b.WriteString("- Consider visual hierarchy, typography, color, accessibility, and usability.\n")
	b.WriteString("- Include the emotional/brand feel and how well the design supports product value.\n")
	b.WriteString("- Respond in the exact JSON format described below. No extra text.\n\n")
}

func instructions(opts BuildOpts) string {
	if opts.Instructions != "" {
		return opts.Instructions
	}
	return CompileInstructions(schema.Critique())
}
