package notification

import (
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	failerrors "github.com/kart-io/failurous/errors"
)

// DocumentSchema describes the body accepted by the collector.
const DocumentSchema = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "type": "object",
  "required": ["title", "location", "use_title_in_checksum", "use_location_in_checksum", "data"],
  "properties": {
    "title": {"type": ["string", "null"]},
    "location": {"type": "string"},
    "use_title_in_checksum": {"type": "boolean"},
    "use_location_in_checksum": {"type": "boolean"},
    "data": {
      "type": "array",
      "items": {
        "type": "array",
        "minItems": 2,
        "maxItems": 2,
        "items": [
          {"type": "string", "minLength": 1},
          {
            "type": "array",
            "items": {
              "type": "array",
              "minItems": 3,
              "maxItems": 3,
              "items": [
                {"type": "string", "minLength": 1},
                {},
                {
                  "type": "object",
                  "properties": {
                    "use_in_checksum": {"type": "boolean"},
                    "humanize_field_name": {"type": "boolean"}
                  }
                }
              ]
            }
          }
        ]
      }
    }
  }
}`

var documentSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(DocumentSchema))
})

// ValidateDocument checks an encoded notification against DocumentSchema.
func ValidateDocument(body []byte) error {
	schema, err := documentSchema()
	if err != nil {
		return failerrors.Wrap(err, failerrors.ErrInvalidPayload, "failed to compile document schema")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return failerrors.Wrap(err, failerrors.ErrInvalidPayload, "failed to validate fail notification")
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return failerrors.New(failerrors.ErrInvalidPayload, "fail notification does not match document schema").
			WithDetails(strings.Join(errs, "; "))
	}
	return nil
}

// Validate encodes the notification and checks it against DocumentSchema.
func (n *Notification) Validate() error {
	body, err := n.Encode()
	if err != nil {
		return err
	}
	return ValidateDocument(body)
}
