package oas

import (
	"encoding/base64"
	"math"

	"github.com/pkg/errors"

	"github.com/oarkflow/oasschema/jsonschema"
)

var errOutOfRange = errors.New("integer out of range")

// integerIn builds an int32/int64 check. Non-integers and booleans are
// exempt: type decides those.
func integerIn(bits uint) jsonschema.FormatFunc {
	lo, hi := -math.Ldexp(1, int(bits)-1), math.Ldexp(1, int(bits)-1)
	return func(instance any) error {
		if jsonschema.IsBool(instance) || !jsonschema.IsIntegral(instance) {
			return nil
		}
		switch n := instance.(type) {
		case int64, int:
			if bits == 64 {
				return nil
			}
		case uint64:
			if n > math.MaxInt64 {
				return errors.Wrapf(errOutOfRange, "%d", n)
			}
			if bits == 64 {
				return nil
			}
		case uint:
			if uint64(n) > math.MaxInt64 {
				return errors.Wrapf(errOutOfRange, "%d", n)
			}
			if bits == 64 {
				return nil
			}
		}
		f, _ := jsonschema.AsFloat(instance)
		if f < lo || f >= hi {
			return errors.Wrapf(errOutOfRange, "%v not in int%d", f, bits)
		}
		return nil
	}
}

// anyNumber backs float and double. Both map to float64, so every value
// conforms.
func anyNumber(any) error {
	return nil
}

func password(any) error {
	return nil
}

// textOf returns the bytes of a text payload.
func textOf(instance any) ([]byte, bool) {
	switch v := instance.(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	}
	return nil, false
}

// checkByte requires the payload to survive a base64 decode and re-encode
// unchanged.
func checkByte(instance any) error {
	data, ok := textOf(instance)
	if !ok {
		return nil
	}
	decoded, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return errors.Wrap(err, "decoding base64")
	}
	if base64.StdEncoding.EncodeToString(decoded) != string(data) {
		return errors.New("not canonical base64")
	}
	return nil
}

// binary accepts any text or raw bytes.
func binary(any) error {
	return nil
}

// strictBinary accepts only payloads that decode as standard base64.
func strictBinary(instance any) error {
	data, ok := textOf(instance)
	if !ok {
		return nil
	}
	if _, err := base64.StdEncoding.DecodeString(string(data)); err != nil {
		return errors.Wrap(err, "decoding base64")
	}
	return nil
}

// textFormat runs fn on strings and decoded []byte; other values pass.
func textFormat(fn func(string) error) jsonschema.FormatFunc {
	return func(instance any) error {
		data, ok := textOf(instance)
		if !ok {
			return nil
		}
		return fn(string(data))
	}
}

func numericFormats() map[string]jsonschema.FormatFunc {
	return map[string]jsonschema.FormatFunc{
		"int32":    integerIn(32),
		"int64":    integerIn(64),
		"float":    anyNumber,
		"double":   anyNumber,
		"password": password,
	}
}

func oas30Formats(binaryCheck jsonschema.FormatFunc) map[string]jsonschema.FormatFunc {
	formats := numericFormats()
	formats["byte"] = checkByte
	formats["binary"] = binaryCheck
	formats["date"] = textFormat(jsonschema.CheckDate)
	formats["date-time"] = textFormat(jsonschema.CheckDateTime)
	formats["uuid"] = textFormat(jsonschema.CheckUUID)
	return formats
}

var (
	// OAS30FormatChecker is the pragmatic OAS 3.0 table. Unknown formats fail.
	OAS30FormatChecker = jsonschema.NewFormatChecker(oas30Formats(binary), jsonschema.StrictUnknown())

	// OAS30StrictFormatChecker only accepts base64 payloads for binary.
	OAS30StrictFormatChecker = jsonschema.NewFormatChecker(oas30Formats(strictBinary), jsonschema.StrictUnknown())

	// OAS31FormatChecker adds the OAS numeric formats to the 2020-12 table.
	OAS31FormatChecker = jsonschema.NewFormatChecker(nil, jsonschema.StrictUnknown()).
		Merge(jsonschema.Draft202012FormatChecker).
		Merge(jsonschema.NewFormatChecker(numericFormats()))

	OAS32FormatChecker = jsonschema.NewFormatChecker(nil, jsonschema.StrictUnknown()).
		Merge(jsonschema.Draft202012FormatChecker).
		Merge(jsonschema.NewFormatChecker(numericFormats()))
)
