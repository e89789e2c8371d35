package critique

import "math"

// Dimension names a numeric score.
type Dimension struct {
	Key   string
	Label string
	Value float64
}

// Dimensions returns the numeric scores in their canonical order.
func (s Scores) Dimensions() []Dimension {
	return []Dimension{
		{"visual_hierarchy", "Visual hierarchy", s.VisualHierarchy},
		{"typography", "Typography", s.Typography},
		{"color", "Color", s.Color},
		{"accessibility", "Accessibility", s.Accessibility},
		{"usability", "Usability", s.Usability},
	}
}

// Overall is the mean of the numeric scores, rounded to one decimal place.
func (s Scores) Overall() float64 {
	dims := s.Dimensions()
	var total float64
	for _, d := range dims {
		total += d.Value
	}
	return math.Round(total/float64(len(dims))*10) / 10
}
