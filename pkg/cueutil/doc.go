// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates configuration data against embedded CUE schemas.
//
// Two entry points share one flow (compile the schema, unify the data with a
// root definition, validate, decode):
//
//   - ParseAndDecode takes CUE source bytes, such as a reqsplit.cue file.
//   - DecodeValue takes an already decoded Go value, such as the table read
//     from pyproject.toml, and encodes it into CUE first.
//
// Validation failures are reported as "<file>: <json-path>: <message>".
//
//	//go:embed config_schema.cue
//	var configSchema []byte
//
//	result, err := cueutil.DecodeValue[map[string]any](
//	    configSchema, table, "#Config",
//	    cueutil.WithFilename("pyproject.toml"),
//	)
package cueutil
