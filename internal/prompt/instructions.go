package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/designcritic/internal/schema"
)

// CompileInstructions renders the output-format contract for s. The result
// depends only on s, so it is compiled once and reused for every request.
func CompileInstructions(s *schema.Schema) string {
	var b strings.Builder

	b.WriteString("## Output Format\n\n")
	b.WriteString("Respond with a single JSON object that conforms to the JSON Schema below.\n")
	b.WriteString("Output ONLY the JSON object. Do not wrap it in markdown and do not add prose before or after it.\n")
	b.WriteString("Every property is required. Numbers must be JSON numbers, not strings.\n\n")

	b.WriteString("```json\n")
	writeObjectSchema(&b, s.Fields, "", true, s.Name)
	b.WriteString("\n```\n\n")

	b.WriteString("Constraints:\n")
	writeConstraints(&b, s.Fields, "")

	return b.String()
}

func writeObjectSchema(b *strings.Builder, fields []schema.Field, indent string, root bool, title string) {
	inner := indent + "  "
	b.WriteString("{\n")
	if root {
		fmt.Fprintf(b, "%s\"$schema\": \"http://json-schema.org/draft-07/schema#\",\n", inner)
		fmt.Fprintf(b, "%s\"title\": %s,\n", inner, quote(title))
	}
	fmt.Fprintf(b, "%s\"type\": \"object\",\n", inner)

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = quote(f.Name)
	}
	fmt.Fprintf(b, "%s\"required\": [%s],\n", inner, strings.Join(names, ", "))
	fmt.Fprintf(b, "%s\"additionalProperties\": false,\n", inner)
	fmt.Fprintf(b, "%s\"properties\": {\n", inner)
	for i, f := range fields {
		fmt.Fprintf(b, "%s  %s: ", inner, quote(f.Name))
		writeFieldSchema(b, f, inner+"  ")
		if i < len(fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "%s}\n", inner)
	fmt.Fprintf(b, "%s}", indent)
}

func writeFieldSchema(b *strings.Builder, f schema.Field, indent string) {
	if f.Kind == schema.KindObject {
		writeObjectSchema(b, f.Fields, indent, false, "")
		return
	}

	var parts []string
	switch f.Kind {
	case schema.KindString:
		parts = append(parts, `"type": "string"`)
		parts = append(parts, lengthBounds("minLength", "maxLength", f.MinLen, f.MaxLen)...)
	case schema.KindNumber:
		parts = append(parts, `"type": "number"`)
		parts = append(parts, fmt.Sprintf(`"minimum": %g`, f.Min), fmt.Sprintf(`"maximum": %g`, f.Max))
	case schema.KindStringList:
		item := []string{`"type": "string"`}
		item = append(item, lengthBounds("minLength", "maxLength", f.MinLen, f.MaxLen)...)
		parts = append(parts, `"type": "array"`, fmt.Sprintf(`"items": {%s}`, strings.Join(item, ", ")))
		parts = append(parts, lengthBounds("minItems", "maxItems", f.MinItems, f.MaxItems)...)
	}
	if f.Description != "" {
		parts = append(parts, `"description": `+quote(f.Description))
	}
	fmt.Fprintf(b, "{%s}", strings.Join(parts, ", "))
}

func lengthBounds(minKey, maxKey string, lo, hi int) []string {
	var out []string
	if lo > 0 {
		out = append(out, fmt.Sprintf(`%q: %d`, minKey, lo))
	}
	if hi > 0 {
		out = append(out, fmt.Sprintf(`%q: %d`, maxKey, hi))
	}
	return out
}

func writeConstraints(b *strings.Builder, fields []schema.Field, prefix string) {
	for _, f := range fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		switch f.Kind {
		case schema.KindObject:
			fmt.Fprintf(b, "- %s: object with exactly the properties listed below\n", path)
			writeConstraints(b, f.Fields, path)
			continue
		case schema.KindString:
			if f.MaxLen > 0 {
				fmt.Fprintf(b, "- %s: non-empty string of at most %d characters", path, f.MaxLen)
			} else {
				fmt.Fprintf(b, "- %s: non-empty string", path)
			}
		case schema.KindNumber:
			fmt.Fprintf(b, "- %s: number from %g to %g inclusive", path, f.Min, f.Max)
		case schema.KindStringList:
			fmt.Fprintf(b, "- %s: array of %d to %d non-empty strings", path, f.MinItems, f.MaxItems)
		}
		if f.Description != "" {
			fmt.Fprintf(b, " (%s)", f.Description)
		}
		b.WriteString("\n")
	}
}

func quote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
