// Package oas holds the OpenAPI Schema Object validators: the OAS 3.0 family
// built on the draft-04 engine, and OAS 3.1 and 3.2 built on draft 2020-12.
package oas

import (
	"github.com/oarkflow/oasschema/dialect"
	"github.com/oarkflow/oasschema/jsonschema"
	"github.com/oarkflow/oasschema/jsonschema/specs"
)

const (
	OAS31DialectID = specs.OAS31Dialect
	OAS32DialectID = specs.OAS32Dialect

	OAS31Label = "oas31"
	OAS32Label = "oas32"
)

func oas30Keywords() jsonschema.Keywords {
	return jsonschema.Keywords{
		"multipleOf":    jsonschema.MultipleOf,
		"maximum":       jsonschema.MaximumDraft4,
		"minimum":       jsonschema.MinimumDraft4,
		"maxLength":     jsonschema.MaxLength,
		"minLength":     jsonschema.MinLength,
		"pattern":       jsonschema.Pattern,
		"maxItems":      jsonschema.MaxItems,
		"minItems":      jsonschema.MinItems,
		"uniqueItems":   jsonschema.UniqueItems,
		"maxProperties": jsonschema.MaxProperties,
		"minProperties": jsonschema.MinProperties,
		"enum":          jsonschema.Enum,
		"not":           jsonschema.Not,
		"properties":    jsonschema.Properties,
		"$ref":          jsonschema.Ref,

		"type":                 Type,
		"allOf":                AllOf,
		"oneOf":                OneOf,
		"anyOf":                AnyOf,
		"items":                Items,
		"required":             Required,
		"additionalProperties": AdditionalProperties,
		"format":               Format,

		"discriminator": NotImplemented,
		"readOnly":      NotImplemented,
		"writeOnly":     NotImplemented,
		"xml":           NotImplemented,
		"externalDocs":  NotImplemented,
		"example":       NotImplemented,
		"deprecated":    NotImplemented,
	}
}

var (
	// OAS30 validates OpenAPI 3.0 Schema Objects. readOnly and writeOnly are
	// annotations: the validator's read and write flags only decide whether
	// required excuses such properties, a value is never rejected. Use
	// OAS30Read or OAS30Write to reject them.
	OAS30 = jsonschema.NewVariant("OAS30Validator", jsonschema.VariantConfig{
		MetaSchemaURI: specs.Draft4,
		Keywords:      oas30Keywords(),
		Types:         OAS30TypeChecker,
		Formats:       OAS30FormatChecker,
		Legacy:        true,
	})

	// OAS30Strict does not let "string" match raw bytes and only accepts
	// base64 for binary.
	OAS30Strict = OAS30.Extend("OAS30StrictValidator", jsonschema.Overrides{
		Types:   OAS30StrictTypeChecker,
		Formats: OAS30StrictFormatChecker,
	})

	// OAS30Read validates response bodies: writeOnly properties may not
	// appear and need not be present.
	OAS30Read = OAS30.Extend("OAS30ReadValidator", jsonschema.Overrides{
		Keywords: jsonschema.Keywords{
			"required":  ReadRequired,
			"writeOnly": ReadWriteOnly,
		},
	})

	// OAS30Write validates request bodies: readOnly properties may not
	// appear and need not be present.
	OAS30Write = OAS30.Extend("OAS30WriteValidator", jsonschema.Overrides{
		Keywords: jsonschema.Keywords{
			"required": WriteRequired,
			"readOnly": WriteReadOnly,
		},
	})

	// oas30Context reads the direction from the validator's flags.
	oas30Context = OAS30.Extend("OAS30Validator", jsonschema.Overrides{
		Keywords: jsonschema.Keywords{
			"readOnly":  ReadOnly,
			"writeOnly": WriteOnly,
		},
	})

	OAS31 = dialect.Default().Register(jsonschema.Draft202012.Extend("OAS31Validator", jsonschema.Overrides{
		MetaSchemaURI: specs.OAS31Dialect,
		Keywords: jsonschema.Keywords{
			"allOf":         AllOf,
			"oneOf":         OneOf,
			"anyOf":         AnyOf,
			"description":   NotImplemented,
			"discriminator": NotImplemented,
			"xml":           NotImplemented,
			"externalDocs":  NotImplemented,
			"example":       NotImplemented,
		},
		Types:   OAS31TypeChecker,
		Formats: OAS31FormatChecker,
	}), OAS31DialectID, OAS31Label, specs.MustLookup(specs.OAS31Dialect))

	OAS32 = dialect.Default().Register(OAS31.Extend("OAS32Validator", jsonschema.Overrides{
		MetaSchemaURI: specs.OAS32Dialect,
		Formats:       OAS32FormatChecker,
	}), OAS32DialectID, OAS32Label, specs.MustLookup(specs.OAS32Dialect))
)
