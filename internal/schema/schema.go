// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

// Package schema reflects Go types into the JSON schema subset accepted by
// function tools and structured outputs.
//
// Objects never allow additional properties, and every field without `omitempty` is required.
// Field docs come from the `jsonschema:"description=..."` tag.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

type Schema = jsonschema.Schema

// For generates a JSON schema for T using reflection.
func For[T any]() (*Schema, error) {
	return Of(reflect.TypeOf((*T)(nil)).Elem())
}

// Of generates a JSON schema for the given type.
func Of(typ reflect.Type) (_ *Schema, err error) { //nolint:nonamedreturns
	// The reflector panics on types it cannot express.
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			if err, ok = r.(error); !ok {
				err = fmt.Errorf("%v", r)
			}
		}
	}()

	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	switch typ.Kind() { //nolint:exhaustive
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return nil, fmt.Errorf("unsupported type: %v", typ)
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
		Anonymous:                 true,
	}
	schema := reflector.ReflectFromType(typ)
	schema.Version = ""

	return schema, nil
}

// JSON returns the schema for T as raw JSON.
func JSON[T any]() (json.RawMessage, error) {
	schema, err := For[T]()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return raw, nil
}
