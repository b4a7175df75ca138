// Package attr converts between generic records and the DynamoDB attribute
// value encoding (the S, N, BOOL, L and M members of types.AttributeValue).
//
// Conversions never fail as a whole. Keys or list elements that cannot be
// converted are left out of the output and reported as Skip diagnostics on
// the Result, so callers decide whether a partial conversion is acceptable.
//
// Both directions recurse once per nesting level of the input. There is no
// depth guard: pathologically deep input exhausts the goroutine stack.
package attr

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Tag names of the supported attribute value members.
const (
	TagS    = "S"
	TagN    = "N"
	TagBOOL = "BOOL"
	TagL    = "L"
	TagM    = "M"
)

// precedence is the order tags are looked for in the JSON wire form.
var precedence = []string{TagS, TagN, TagBOOL, TagL, TagM}

// Record is the domain side of the conversion: string keys mapping to
// strings, numbers, booleans, []any or nested map[string]any values.
type Record = map[string]any

// Item is the store side of the conversion.
type Item = map[string]types.AttributeValue

// TagOf returns the tag name of av, or the member name for attribute values
// outside the five supported tags.
func TagOf(av types.AttributeValue) string {
	switch av.(type) {
	case *types.AttributeValueMemberS:
		return TagS
	case *types.AttributeValueMemberN:
		return TagN
	case *types.AttributeValueMemberBOOL:
		return TagBOOL
	case *types.AttributeValueMemberL:
		return TagL
	case *types.AttributeValueMemberM:
		return TagM
	case *types.AttributeValueMemberNULL:
		return "NULL"
	case *types.AttributeValueMemberSS:
		return "SS"
	case *types.AttributeValueMemberNS:
		return "NS"
	case *types.AttributeValueMemberB:
		return "B"
	case *types.AttributeValueMemberBS:
		return "BS"
	case nil:
		return ""
	}
	return fmt.Sprintf("%T", av)
}

// Skip records a key or list element left out of a conversion.
type Skip struct {
	Path string
	Err  error
}

func (s Skip) String() string {
	return s.Path + ": " + s.Err.Error()
}

// Result carries a converted value together with everything that was skipped
// while producing it.
type Result[T any] struct {
	Value   T
	Skipped []Skip
}

// Complete reports whether nothing was skipped.
func (r Result[T]) Complete() bool {
	return len(r.Skipped) == 0
}

// Err returns nil for a complete result, otherwise a *SkipError.
func (r Result[T]) Err() error {
	if r.Complete() {
		return nil
	}
	return &SkipError{Skipped: r.Skipped}
}

// Paths returns the paths of the skipped keys and elements.
func (r Result[T]) Paths() []string {
	paths := make([]string, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		paths = append(paths, s.Path)
	}
	return paths
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

func describeSkips(skipped []Skip) string {
	parts := make([]string, 0, len(skipped))
	for _, s := range skipped {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, "; ")
}
