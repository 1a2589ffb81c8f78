package notification

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Spec carries everything a Factory needs to build a notification.
type Spec struct {
	// Title is optional; a non-empty title is used when combining fails.
	Title string
	// Err, when set, is passed to FillFromException.
	Err error
	// Object is the value that triggered the notification, if any.
	Object any
	// Caller is the default location, normally the public entry point's call site.
	Caller string
}

// Factory creates notifications. Custom variants are installed through the
// client configuration.
type Factory interface {
	Create(spec Spec) (*Notification, error)
}

// Ignorer is an optional Factory capability that vetoes sending for an
// error/object pair.
type Ignorer interface {
	Ignore(err error, object any) bool
}

// ObjectFiller adds diagnostic fields taken from a context object.
type ObjectFiller interface {
	FillFromObject(n *Notification, object any) error
}

// FailFielder is implemented by context objects that know which fields to report.
type FailFielder interface {
	FailFields() map[string]any
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(spec Spec) (*Notification, error)

func (f FactoryFunc) Create(spec Spec) (*Notification, error) {
	return f(spec)
}

// DefaultFactory builds notifications from a title and an error. Context
// objects are accepted but contribute nothing.
type DefaultFactory struct{}

// Create sets the base attributes, then fills from the error.
func (DefaultFactory) Create(spec Spec) (*Notification, error) {
	return build(spec, nil)
}

// Ignore never vetoes a notification.
func (DefaultFactory) Ignore(error, any) bool {
	return false
}

// ObjectFactory behaves like DefaultFactory and additionally reports the
// context object in an "object" section.
type ObjectFactory struct {
	// IgnoreFunc, when set, decides which notifications are dropped.
	IgnoreFunc func(err error, object any) bool
}

// Create sets the base attributes, fills from the error, then from the object.
func (f ObjectFactory) Create(spec Spec) (*Notification, error) {
	return build(spec, objectSectionFiller{})
}

// Ignore consults IgnoreFunc.
func (f ObjectFactory) Ignore(err error, object any) bool {
	return f.IgnoreFunc != nil && f.IgnoreFunc(err, object)
}

func build(spec Spec, filler ObjectFiller) (*Notification, error) {
	n := NewAt(spec.Caller, spec.Title)
	if spec.Err != nil {
		n.FillFromException(spec.Err)
	}
	if spec.Object != nil && filler != nil {
		if err := filler.FillFromObject(n, spec.Object); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// objectSectionFiller writes the object's fields into the object section.
type objectSectionFiller struct{}

func (objectSectionFiller) FillFromObject(n *Notification, object any) error {
	fields, err := objectFields(object)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		n.addField(SectionObject, Field{Name: k, Value: fields[k], Options: DefaultFieldOptions()}, Placement{})
	}
	return nil
}

func objectFields(object any) (map[string]any, error) {
	if ff, ok := object.(FailFielder); ok {
		return ff.FailFields(), nil
	}

	v := reflect.ValueOf(object)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, nil
	case reflect.Struct:
		out := make(map[string]any)
		if err := mapstructure.Decode(v.Interface(), &out); err != nil {
			return nil, fmt.Errorf("decode object fields: %w", err)
		}
		return out, nil
	}

	return map[string]any{
		"type":  fmt.Sprintf("%T", object),
		"value": fmt.Sprintf("%+v", object),
	}, nil
}
