package notification

import "maps"

// FieldOptions are the per-field flags sent to the collector.
type FieldOptions struct {
	// UseInChecksum makes the field take part in combining equivalent fails.
	UseInChecksum bool
	// HumanizeFieldName lets the collector prettify the field name.
	HumanizeFieldName bool
	// Extra carries collector options this client has no dedicated setter for.
	Extra map[string]any
}

// DefaultFieldOptions returns the options a field gets when none are given.
func DefaultFieldOptions() FieldOptions {
	return FieldOptions{HumanizeFieldName: true}
}

func (o FieldOptions) clone() FieldOptions {
	o.Extra = maps.Clone(o.Extra)
	return o
}

// Field is a named value inside a section.
type Field struct {
	Name    string
	Value   any
	Options FieldOptions
}

func (f Field) clone() Field {
	f.Options = f.Options.clone()
	return f
}

// Placement positions a field inside its section, or a section inside the
// notification. At most one of Below and Above may be set.
type Placement struct {
	Below string
	Above string
}

func (p Placement) isZero() bool {
	return p.Below == "" && p.Above == ""
}

func (p Placement) ambiguous() bool {
	return p.Below != "" && p.Above != ""
}

type fieldSpec struct {
	options   FieldOptions
	placement Placement
}

// FieldOption configures a single AddField call
type FieldOption func(*fieldSpec)

// InChecksum marks the field as used when combining fails
func InChecksum() FieldOption {
	return UseInChecksum(true)
}

// UseInChecksum sets whether the field is used when combining fails
func UseInChecksum(use bool) FieldOption {
	return func(s *fieldSpec) {
		s.options.UseInChecksum = use
	}
}

// HumanizeFieldName sets whether the collector should humanize the field name
func HumanizeFieldName(humanize bool) FieldOption {
	return func(s *fieldSpec) {
		s.options.HumanizeFieldName = humanize
	}
}

// WithFieldOption sets an arbitrary collector option on the field
func WithFieldOption(key string, value any) FieldOption {
	return func(s *fieldSpec) {
		if s.options.Extra == nil {
			s.options.Extra = make(map[string]any)
		}
		s.options.Extra[key] = value
	}
}

// WithOptions replaces all field options at once
func WithOptions(opts FieldOptions) FieldOption {
	return func(s *fieldSpec) {
		s.options = opts.clone()
	}
}

// Below places the field directly below the named field
func Below(field string) FieldOption {
	return func(s *fieldSpec) {
		s.placement.Below = field
	}
}

// Above places the field directly above the named field
func Above(field string) FieldOption {
	return func(s *fieldSpec) {
		s.placement.Above = field
	}
}

// AtPlacement applies a whole Placement value
func AtPlacement(p Placement) FieldOption {
	return func(s *fieldSpec) {
		s.placement = p
	}
}
