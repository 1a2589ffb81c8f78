package notification

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID     int    `mapstructure:"id"`
	Status string `mapstructure:"status"`
}

type account struct{ name string }

func (a account) FailFields() map[string]any {
	return map[string]any{"name": a.name}
}

func TestDefaultFactory(t *testing.T) {
	var f Factory = DefaultFactory{}

	t.Run("title only", func(t *testing.T) {
		n, err := f.Create(Spec{Title: "hello", Caller: "app.go:1"})
		require.NoError(t, err)
		assert.Equal(t, "hello", n.Title())
		assert.True(t, n.UseTitleInChecksum())
		assert.Equal(t, "app.go:1", n.Location())
		assert.Equal(t, 0, n.SectionCount())
	})

	t.Run("title and error", func(t *testing.T) {
		n, err := f.Create(Spec{Title: "custom", Err: errors.New("boom"), Object: order{ID: 1}, Caller: "app.go:1"})
		require.NoError(t, err)
		assert.Equal(t, "custom", n.Title())
		assert.Equal(t, []string{SectionSummary, SectionDetails}, n.Sections())
	})

	assert.False(t, DefaultFactory{}.Ignore(errors.New("x"), nil))
}

func TestObjectFactory(t *testing.T) {
	tests := []struct {
		name   string
		object any
		want   []string
		values map[string]any
	}{
		{"map keys sorted", map[string]int{"b": 2, "a": 1}, []string{"a", "b"}, map[string]any{"a": 1}},
		{"struct", order{ID: 7, Status: "open"}, []string{"id", "status"}, map[string]any{"id": 7, "status": "open"}},
		{"struct pointer", &order{ID: 8}, []string{"id", "status"}, map[string]any{"id": 8}},
		{"fail fielder", account{name: "acme"}, []string{"name"}, map[string]any{"name": "acme"}},
		{"scalar", 42, []string{"type", "value"}, map[string]any{"type": "int", "value": "42"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ObjectFactory{}.Create(Spec{Err: errors.New("boom"), Object: tt.object, Caller: "app.go:1"})
			require.NoError(t, err)

			assert.Equal(t, []string{SectionSummary, SectionDetails, SectionObject}, n.Sections())
			assert.Equal(t, tt.want, fieldNames(n, SectionObject))
			for k, v := range tt.values {
				f, ok := n.Field(SectionObject, k)
				require.True(t, ok, k)
				assert.Equal(t, v, f.Value, k)
			}
		})
	}
}

func TestObjectFactory_NoObject(t *testing.T) {
	n, err := ObjectFactory{}.Create(Spec{Title: "x", Caller: "app.go:1"})
	require.NoError(t, err)
	assert.False(t, n.HasSection(SectionObject))
}

func TestObjectFactory_Ignore(t *testing.T) {
	errSkip := errors.New("skip")
	f := ObjectFactory{IgnoreFunc: func(err error, _ any) bool { return errors.Is(err, errSkip) }}

	assert.True(t, f.Ignore(errSkip, nil))
	assert.False(t, f.Ignore(errors.New("other"), nil))
	assert.False(t, ObjectFactory{}.Ignore(errSkip, nil))
}

func TestFactoryFunc(t *testing.T) {
	var f Factory = FactoryFunc(func(spec Spec) (*Notification, error) {
		return NewAt(spec.Caller, "from func"), nil
	})
	n, err := f.Create(Spec{Caller: "x"})
	require.NoError(t, err)
	assert.Equal(t, "from func", n.Title())
}
