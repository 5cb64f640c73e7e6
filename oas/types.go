package oas

import (
	"github.com/oarkflow/oasschema/jsonschema"
)

// isText accepts text and raw binary payloads.
func isText(instance any) bool {
	return jsonschema.IsString(instance) || jsonschema.IsBytes(instance)
}

var (
	// OAS30TypeChecker lets "string" match []byte as well as string. OAS 3.0
	// has no "null" type; nullability is the nullable keyword.
	OAS30TypeChecker = jsonschema.NewTypeChecker(map[string]jsonschema.TypeFunc{
		"array":   jsonschema.IsArray,
		"boolean": jsonschema.IsBool,
		"integer": jsonschema.IsInteger,
		"number":  jsonschema.IsNumber,
		"object":  jsonschema.IsObject,
		"string":  isText,
	})

	// OAS30StrictTypeChecker only lets "string" match text.
	OAS30StrictTypeChecker = OAS30TypeChecker.Redefine("string", jsonschema.IsString)

	OAS31TypeChecker = jsonschema.Draft202012TypeChecker
)
