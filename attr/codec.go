package attr

import (
	"math"
	"strconv"
)

// NonFinitePolicy decides what happens to NaN and ±Inf numbers, which have no
// representation in the N encoding.
type NonFinitePolicy int

const (
	// RejectNonFinite skips the value and reports ErrNonFiniteNumber.
	RejectNonFinite NonFinitePolicy = iota
	// StringifyNonFinite writes the value as S "NaN", "Infinity" or "-Infinity".
	StringifyNonFinite
)

// Codec converts between records and DynamoDB items.
type Codec struct {
	nonFinite NonFinitePolicy
}

// Option configures a Codec.
type Option func(c *Codec)

// WithNonFinitePolicy sets how NaN and ±Inf are encoded. The default is RejectNonFinite.
func WithNonFinitePolicy(p NonFinitePolicy) Option {
	return func(c *Codec) {
		c.nonFinite = p
	}
}

// NewCodec returns a Codec with opts applied.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = NewCodec()

// Encode converts rec using the default codec.
func Encode(rec Record) Result[Item] {
	return defaultCodec.Encode(rec)
}

// Decode converts item using the default codec.
func Decode(item Item) Result[Record] {
	return defaultCodec.Decode(item)
}

// walker collects skip diagnostics during a single conversion.
type walker struct {
	codec   *Codec
	skipped []Skip
}

func (w *walker) skip(path string, err error) {
	w.skipped = append(w.skipped, Skip{Path: path, Err: err})
}

func nonFiniteString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case f > 0:
		return "Infinity"
	default:
		return "-Infinity"
	}
}

// formatNumber renders f as the shortest decimal that parses back to the same
// value, switching to exponent notation below 1e-6 and from 1e21 upwards.
func formatNumber(f float64, bitSize int) string {
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs < 1e-6 || abs >= 1e21 {
		return strconv.FormatFloat(f, 'e', -1, bitSize)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}
