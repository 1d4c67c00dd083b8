// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ParseResult holds a decoded value and the unified CUE value it came from.
type ParseResult[T any] struct {
	Value   *T
	Unified cue.Value
}

// ParseAndDecode compiles data as CUE source, unifies it with the schema
// definition at schemaPath, validates the result and decodes it into T.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := applyOptions(opts)
	filename := options.displayName()

	if err := CheckFileSize(data, options.maxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	root, err := schemaRoot(ctx, schema, schemaPath)
	if err != nil {
		return nil, err
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}
	return unifyAndDecode[T](root, userValue, options)
}

// DecodeValue encodes a Go value (typically a map decoded from TOML or JSON)
// into CUE and then validates and decodes it like ParseAndDecode.
func DecodeValue[T any](schema []byte, value any, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := applyOptions(opts)
	filename := options.displayName()

	ctx := cuecontext.New()
	root, err := schemaRoot(ctx, schema, schemaPath)
	if err != nil {
		return nil, err
	}

	userValue := ctx.Encode(value)
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}
	return unifyAndDecode[T](root, userValue, options)
}

// ParseAndDecodeString is ParseAndDecode with the schema given as a string.
func ParseAndDecodeString[T any](schema string, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	return ParseAndDecode[T]([]byte(schema), data, schemaPath, opts...)
}

func applyOptions(opts []Option) parseOptions {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func schemaRoot(ctx *cue.Context, schema []byte, schemaPath string) (cue.Value, error) {
	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	root := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if root.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, root.Err())
	}
	return root, nil
}

func unifyAndDecode[T any](root, userValue cue.Value, options parseOptions) (*ParseResult[T], error) {
	filename := options.displayName()
	unified := root.Unify(userValue)

	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}
	return &ParseResult[T]{Value: &result, Unified: unified}, nil
}
