package jsonschema

import (
	"github.com/oarkflow/oasschema/jsonschema/specs"
)

var (
	// Draft4 evaluates JSON Schema draft-04. $ref hides its siblings.
	Draft4 = Validates("draft4", NewVariant("Draft4Validator", VariantConfig{
		MetaSchemaURI:     specs.Draft4,
		Keywords:          Draft4Keywords(),
		Types:             Draft4TypeChecker,
		Formats:           Draft4FormatChecker,
		Legacy:            true,
		IgnoreRefSiblings: true,
	}))

	Draft202012 = Validates("draft2020-12", NewVariant("Draft202012Validator", VariantConfig{
		MetaSchemaURI: specs.Draft202012,
		Keywords:      Draft202012Keywords(),
		Types:         Draft202012TypeChecker,
		Formats:       Draft202012FormatChecker,
	}))
)
