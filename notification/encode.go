package notification

import (
	"encoding/json"

	failerrors "github.com/kart-io/failurous/errors"
)

// Option keys understood by the collector.
const (
	OptionUseInChecksum     = "use_in_checksum"
	OptionHumanizeFieldName = "humanize_field_name"
)

type document struct {
	Title                 *string `json:"title"`
	Location              string  `json:"location"`
	UseTitleInChecksum    bool    `json:"use_title_in_checksum"`
	UseLocationInChecksum bool    `json:"use_location_in_checksum"`
	Data                  []any   `json:"data"`
}

// OptionMap returns the options as sent on the wire. The dedicated flags win
// over keys of the same name in Extra.
func (o FieldOptions) OptionMap() map[string]any {
	m := make(map[string]any, len(o.Extra)+2)
	for k, v := range o.Extra {
		m[k] = v
	}
	m[OptionUseInChecksum] = o.UseInChecksum
	m[OptionHumanizeFieldName] = o.HumanizeFieldName
	return m
}

func (n *Notification) document() document {
	doc := document{
		Location:              n.location,
		UseTitleInChecksum:    n.useTitleInChecksum,
		UseLocationInChecksum: n.useLocationInChecksum,
		Data:                  make([]any, 0, n.sections.len()),
	}
	if n.titleSet {
		title := n.title
		doc.Title = &title
	}

	for _, name := range n.sections.names() {
		s, _ := n.sections.get(name)
		fields := make([]any, 0, s.fields.len())
		for _, f := range s.fields.values() {
			fields = append(fields, []any{f.Name, wireValue(f.Value), f.Options.OptionMap()})
		}
		doc.Data = append(doc.Data, []any{name, fields})
	}
	return doc
}

func wireValue(v any) any {
	if err, ok := v.(error); ok && err != nil {
		if _, isMarshaler := v.(json.Marshaler); !isMarshaler {
			return err.Error()
		}
	}
	return v
}

// MarshalJSON encodes the wire document. Map keys are sorted, so the same
// notification always encodes to the same bytes.
func (n *Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.document())
}

// Encode returns the request body for the collector.
func (n *Notification) Encode() ([]byte, error) {
	body, err := json.Marshal(n.document())
	if err != nil {
		return nil, failerrors.Wrap(err, failerrors.ErrEncodingFailed, "failed to encode fail notification")
	}
	return body, nil
}
