package frontmatter

import "fmt"

// Field names recognized in guideline document front matter.
const (
	FieldSidebar = "sidebar"
	FieldTitle   = "title"
)

// Flags are the per-document rendering flags the generator consumes.
//
// Sidebar defaults to true; a document opts out with `sidebar: false`.
// Unknown front matter keys are preserved in the raw map and never
// interpreted here.
type Flags struct {
	Sidebar bool
	Title   string
}

// DefaultFlags returns the flags applied to a document without front matter.
func DefaultFlags() Flags {
	return Flags{Sidebar: true}
}

// DecodeFlags extracts typed rendering flags from parsed front matter fields.
//
// A present-but-mistyped flag is an authoring error and is reported rather
// than silently coerced.
func DecodeFlags(fields map[string]any) (Flags, error) {
	flags := DefaultFlags()

	if raw, ok := fields[FieldSidebar]; ok {
		b, ok := raw.(bool)
		if !ok {
			return flags, fmt.Errorf("front matter field %q must be a boolean, got %T", FieldSidebar, raw)
		}
		flags.Sidebar = b
	}

	if raw, ok := fields[FieldTitle]; ok {
		s, ok := raw.(string)
		if !ok {
			return flags, fmt.Errorf("front matter field %q must be a string, got %T", FieldTitle, raw)
		}
		flags.Title = s
	}

	return flags, nil
}
