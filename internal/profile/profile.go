// Package profile loads the built-in critic profiles that shape the review prompt.
package profile

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Default is the profile used when none is requested.
const Default = "ux"

// Profile defines the critic persona and focus areas for a review.
type Profile struct {
	Name        string   `yaml:"name"`
	Version     int      `yaml:"version"`
	Description string   `yaml:"description"`
	Role        string   `yaml:"role"`
	Focus       []string `yaml:"focus"`
	Rules       []string `yaml:"rules"`
}

// LoadBuiltin loads a built-in profile by name.
func LoadBuiltin(name string) (*Profile, error) {
	if name == "" {
		name = Default
	}
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("profile.LoadBuiltin: unknown profile %q: %w", name, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile.LoadBuiltin: parse %q: %w", name, err)
	}
	if p.Role == "" {
		return nil, fmt.Errorf("profile.LoadBuiltin: %q has no role", name)
	}
	return &p, nil
}

// List returns the names of all available built-in profiles, sorted.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// FormatForPrompt renders the profile's focus areas for inclusion in the prompt.
func FormatForPrompt(p *Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Profile: %s\n\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(p.Description))
	}

	if len(p.Focus) > 0 {
		b.WriteString("### Focus Areas\n\n")
		for _, f := range p.Focus {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	return b.String()
}
