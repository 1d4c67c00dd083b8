// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize is the largest CUE source ParseAndDecode accepts (5 MiB).
const DefaultMaxFileSize int64 = 5 << 20

type (
	parseOptions struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures ParseAndDecode and DecodeValue.
	Option func(*parseOptions)
)

func defaultOptions() parseOptions {
	return parseOptions{
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
	}
}

func (o parseOptions) displayName() string {
	if o.filename == "" {
		return "<input>"
	}
	return o.filename
}

// WithMaxFileSize overrides DefaultMaxFileSize. It only applies to
// ParseAndDecode, which receives raw bytes.
func WithMaxFileSize(size int64) Option {
	return func(o *parseOptions) { o.maxFileSize = size }
}

// WithConcrete sets whether every value must be concrete after unification.
// The default is true.
func WithConcrete(concrete bool) Option {
	return func(o *parseOptions) { o.concrete = concrete }
}

// WithFilename names the source in error messages.
func WithFilename(name string) Option {
	return func(o *parseOptions) { o.filename = name }
}
