// Package schema declares the critique output contract and validates model output against it.
package schema

// Kind is the JSON type a field must hold.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindObject
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindObject:
		return "object"
	case KindStringList:
		return "array"
	}
	return "unknown"
}

// Field describes one property of an object and the constraints on its value.
type Field struct {
	Name        string
	Kind        Kind
	Description string

	// Numeric bounds, inclusive. Only used when Kind is KindNumber.
	Min, Max float64

	// Text length bounds in characters. MaxLen 0 means unbounded.
	// Applies to KindString and to the items of KindStringList.
	MinLen, MaxLen int

	// List length bounds, inclusive. Only used when Kind is KindStringList.
	MinItems, MaxItems int

	// Fields of a nested object, in declaration order.
	Fields []Field
}

// Schema is an ordered set of top-level fields.
type Schema struct {
	Name   string
	Fields []Field
}

const (
	scoreMin = 0
	scoreMax = 10

	PriorityFixesMin = 3
	PriorityFixesMax = 7
	SuggestionsMin   = 3
	SuggestionsMax   = 10

	emotionalToneMaxLen = 60
)

func score(name, desc string) Field {
	return Field{Name: name, Kind: KindNumber, Description: desc, Min: scoreMin, Max: scoreMax}
}

var critiqueSchema = &Schema{
	Name: "design_review",
	Fields: []Field{
		{Name: "summary", Kind: KindString, MinLen: 1, Description: "One paragraph high-level critique"},
		{Name: "scores", Kind: KindObject, Description: "Ratings from 0 (poor) to 10 (excellent)", Fields: []Field{
			score("visual_hierarchy", "How clearly the layout guides attention"),
			score("typography", "Type choice, scale, and readability"),
			score("color", "Palette, contrast, and consistency"),
			score("accessibility", "Contrast, target sizes, and inclusive patterns"),
			score("usability", "Ease of completing the primary task"),
			{Name: "emotional_tone", Kind: KindString, MinLen: 1, MaxLen: emotionalToneMaxLen, Description: "Single word or short phrase"},
		}},
		{Name: "product_value", Kind: KindString, MinLen: 1, Description: "How design supports business/product value"},
		{Name: "priority_fixes", Kind: KindStringList, MinLen: 1, MinItems: PriorityFixesMin, MaxItems: PriorityFixesMax, Description: "Most important fixes, highest priority first"},
		{Name: "suggestions", Kind: KindStringList, MinLen: 1, MinItems: SuggestionsMin, MaxItems: SuggestionsMax, Description: "Further actionable improvements"},
	},
}

// Critique returns the canonical design review schema. The returned value is
// shared and must not be modified.
func Critique() *Schema {
	return critiqueSchema
}
