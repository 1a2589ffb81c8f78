// Package notification holds the fail notification data model: an ordered set of
// named sections, each an ordered set of named fields, plus the title and
// location used by the collector when combining equivalent fails.
//
// A Notification is not safe for concurrent mutation. Build it on one goroutine
// and hand it to the notifier once it is complete.
package notification

import (
	failerrors "github.com/kart-io/failurous/errors"
)

// Well-known section names.
const (
	SectionSummary = "summary"
	SectionDetails = "details"
	SectionObject  = "object"
)

type section struct {
	fields orderedList[Field]
}

// Notification is a fail report.
type Notification struct {
	title    string
	titleSet bool

	location    string
	locationSet bool

	useTitleInChecksum    bool
	useLocationInChecksum bool

	sections orderedList[*section]
}

// New creates a notification whose default location is the caller of New.
// A non-empty title is used when combining fails.
func New(title string) *Notification {
	return NewAt(Caller(1), title)
}

// NewAt creates a notification with an explicit default location. The
// location still counts as not set until SetLocation is called.
func NewAt(location, title string) *Notification {
	n := &Notification{location: location}
	if title != "" {
		n.title = title
		n.titleSet = true
		n.useTitleInChecksum = true
	}
	return n
}

// Title returns the title, or "" when none was given.
func (n *Notification) Title() string {
	return n.title
}

// HasTitle reports whether a title has been given.
func (n *Notification) HasTitle() bool {
	return n.titleSet
}

// SetTitle overrides any previous title.
func (n *Notification) SetTitle(title string) *Notification {
	n.title = title
	n.titleSet = true
	return n
}

// Location returns the explicit location, or the construction caller when
// none was set.
func (n *Notification) Location() string {
	return n.location
}

// SetLocation overrides the location and marks it as explicitly set.
func (n *Notification) SetLocation(location string) *Notification {
	n.location = location
	n.locationSet = true
	return n
}

// LocationSet reports whether SetLocation has been called.
func (n *Notification) LocationSet() bool {
	return n.locationSet
}

func (n *Notification) UseTitleInChecksum() bool {
	return n.useTitleInChecksum
}

func (n *Notification) SetUseTitleInChecksum(use bool) *Notification {
	n.useTitleInChecksum = use
	return n
}

func (n *Notification) UseLocationInChecksum() bool {
	return n.useLocationInChecksum
}

func (n *Notification) SetUseLocationInChecksum(use bool) *Notification {
	n.useLocationInChecksum = use
	return n
}

// AddField adds a field to the named section, creating the section at the end
// of the notification if needed. A field with the same name is replaced: in
// place without a placement, moved to the new position with one.
//
// Giving both Below and Above fails with errors.ErrInvalidPlacement and leaves
// the notification untouched.
func (n *Notification) AddField(sectionName, fieldName string, value any, opts ...FieldOption) (*Notification, error) {
	spec := fieldSpec{options: DefaultFieldOptions()}
	for _, opt := range opts {
		opt(&spec)
	}

	if spec.placement.ambiguous() {
		return n, failerrors.New(failerrors.ErrInvalidPlacement, "ambiguous placement options").
			WithDetails("only one of below or above can be specified").
			WithContext("section", sectionName).
			WithContext("field", fieldName)
	}

	n.addField(sectionName, Field{Name: fieldName, Value: value, Options: spec.options}, spec.placement)
	return n, nil
}

// MustAddField is AddField for call sites whose placement is known to be valid.
// It panics on an ambiguous placement.
func (n *Notification) MustAddField(sectionName, fieldName string, value any, opts ...FieldOption) *Notification {
	if _, err := n.AddField(sectionName, fieldName, value, opts...); err != nil {
		panic(err)
	}
	return n
}

func (n *Notification) addField(sectionName string, f Field, p Placement) {
	s, ok := n.sections.get(sectionName)
	if !ok {
		s = &section{}
		n.sections.set(sectionName, s)
	}
	s.fields.place(f.Name, f, p)
}

// MoveSection moves an existing section directly below or above another one.
// A missing target, or no placement at all, moves the section to the end.
// Moving a section relative to itself does nothing.
func (n *Notification) MoveSection(sectionName string, p Placement) error {
	if p.ambiguous() {
		return failerrors.New(failerrors.ErrInvalidPlacement, "ambiguous placement options").
			WithDetails("only one of below or above can be specified").
			WithContext("section", sectionName)
	}

	s, ok := n.sections.get(sectionName)
	if !ok {
		return failerrors.Newf(failerrors.ErrUnknownSection, "section %q does not exist", sectionName)
	}
	if p.Below == sectionName || p.Above == sectionName {
		return nil
	}
	if p.isZero() {
		n.sections.remove(sectionName)
	}

	n.sections.place(sectionName, s, p)
	return nil
}

// Sections returns the section names in order.
func (n *Notification) Sections() []string {
	return n.sections.names()
}

// SectionCount returns the number of sections.
func (n *Notification) SectionCount() int {
	return n.sections.len()
}

// HasSection reports whether the section exists.
func (n *Notification) HasSection(name string) bool {
	_, ok := n.sections.get(name)
	return ok
}

// Fields returns a copy of the fields of a section in order, or nil.
func (n *Notification) Fields(sectionName string) []Field {
	s, ok := n.sections.get(sectionName)
	if !ok {
		return nil
	}
	fields := s.fields.values()
	for i := range fields {
		fields[i] = fields[i].clone()
	}
	return fields
}

// FieldCount returns the number of fields in a section.
func (n *Notification) FieldCount(sectionName string) int {
	s, ok := n.sections.get(sectionName)
	if !ok {
		return 0
	}
	return s.fields.len()
}

// Field looks up a single field.
func (n *Notification) Field(sectionName, fieldName string) (Field, bool) {
	s, ok := n.sections.get(sectionName)
	if !ok {
		return Field{}, false
	}
	f, ok := s.fields.get(fieldName)
	return f.clone(), ok
}
