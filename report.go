package oasschema

import (
	"io"

	"github.com/pkg/errors"

	"github.com/oarkflow/oasschema/encoder"
	"github.com/oarkflow/oasschema/jsonschema"
)

// Report is the JSON form of a Validate result.
type Report struct {
	Valid      bool     `json:"valid"`
	Kind       string   `json:"kind,omitempty"`
	Message    string   `json:"message,omitempty"`
	Path       string   `json:"path,omitempty"`
	SchemaPath []any    `json:"schemaPath,omitempty"`
	Keyword    string   `json:"keyword,omitempty"`
	Causes     []string `json:"causes,omitempty"`
}

const (
	KindInstance = "instance"
	KindSchema   = "schema"
	KindError    = "error"
)

// NewReport describes err, the result of Validate.
func NewReport(err error) Report {
	if err == nil {
		return Report{Valid: true}
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return Report{
			Kind:       KindSchema,
			Message:    se.Message,
			Path:       se.Detail.JSONPath(),
			SchemaPath: se.SchemaPath,
			Keyword:    se.Detail.Keyword,
		}
	}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		r := Report{
			Kind:       KindInstance,
			Message:    ve.Message,
			Path:       ve.JSONPath(),
			SchemaPath: ve.AbsoluteSchemaPath(),
			Keyword:    ve.Keyword,
		}
		for _, child := range ve.Context {
			r.Causes = append(r.Causes, child.Error())
		}
		return r
	}
	return Report{Kind: KindError, Message: err.Error()}
}

// WriteReport encodes the report for err to w.
func WriteReport(w io.Writer, err error) error {
	enc := encoder.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(NewReport(err)), "writing report")
}
