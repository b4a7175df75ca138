package attr

import (
	"math"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Decode converts item back into a Record. N values become float64, L values
// []any and M values nested records. Members other than S, N, BOOL, L and M,
// and N strings that do not parse, are skipped with a *DecodeError.
func (c *Codec) Decode(item Item) Result[Record] {
	w := &walker{codec: c}
	rec := w.decodeMap("", item)
	return Result[Record]{Value: rec, Skipped: w.skipped}
}

// DecodeValue unwraps a single attribute value.
func (c *Codec) DecodeValue(av types.AttributeValue) Result[any] {
	w := &walker{codec: c}
	v, _ := w.decodeValue("", av)
	return Result[any]{Value: v, Skipped: w.skipped}
}

func (w *walker) decodeValue(path string, av types.AttributeValue) (any, bool) {
	switch t := av.(type) {
	case *types.AttributeValueMemberS:
		return t.Value, true
	case *types.AttributeValueMemberN:
		return w.decodeNumber(path, t.Value)
	case *types.AttributeValueMemberBOOL:
		return t.Value, true
	case *types.AttributeValueMemberL:
		return w.decodeList(path, t.Value), true
	case *types.AttributeValueMemberM:
		return w.decodeMap(path, t.Value), true
	}

	w.skip(path, &DecodeError{Tag: TagOf(av)})
	return nil, false
}

func (w *walker) decodeNumber(path string, s string) (any, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		w.skip(path, &DecodeError{Tag: TagN, Err: err})
		return nil, false
	}
	if !isFinite(f) && w.codec.nonFinite == RejectNonFinite {
		w.skip(path, ErrNonFiniteNumber)
		return nil, false
	}
	return f, true
}

func (w *walker) decodeList(path string, list []types.AttributeValue) []any {
	out := make([]any, 0, len(list))
	for i, av := range list {
		if v, ok := w.decodeValue(indexPath(path, i), av); ok {
			out = append(out, v)
		}
	}
	return out
}

func (w *walker) decodeMap(path string, m map[string]types.AttributeValue) Record {
	out := make(Record, len(m))
	for k, av := range m {
		if v, ok := w.decodeValue(joinPath(path, k), av); ok {
			out[k] = v
		}
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
