package attr

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Encode converts rec into a DynamoDB item. Every value is classified by its
// kind: strings become S, numbers N, booleans BOOL, slices and arrays L and
// string-keyed maps M, recursively. Anything else, including nil, is skipped
// with ErrUnsupportedType.
func (c *Codec) Encode(rec Record) Result[Item] {
	w := &walker{codec: c}
	item := make(Item, len(rec))
	for k, v := range rec {
		if av, ok := w.encodeValue(k, v); ok {
			item[k] = av
		}
	}
	return Result[Item]{Value: item, Skipped: w.skipped}
}

// EncodeValue converts a single value. The returned Result holds nil when the
// value itself was skipped.
func (c *Codec) EncodeValue(v any) Result[types.AttributeValue] {
	w := &walker{codec: c}
	av, _ := w.encodeValue("", v)
	return Result[types.AttributeValue]{Value: av, Skipped: w.skipped}
}

func (w *walker) encodeValue(path string, v any) (types.AttributeValue, bool) {
	// json.Number is a string kind, so it has to be matched before reflection
	if num, ok := v.(json.Number); ok {
		return w.encodeJSONNumber(path, num)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return &types.AttributeValueMemberS{Value: rv.String()}, true
	case reflect.Bool:
		return &types.AttributeValueMemberBOOL{Value: rv.Bool()}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(rv.Int(), 10)}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &types.AttributeValueMemberN{Value: strconv.FormatUint(rv.Uint(), 10)}, true
	case reflect.Float32:
		return w.encodeFloat(path, rv.Float(), 32)
	case reflect.Float64:
		return w.encodeFloat(path, rv.Float(), 64)
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		return w.encodeList(path, rv), true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		return w.encodeMap(path, rv), true
	}

	w.skip(path, ErrUnsupportedType)
	return nil, false
}

func (w *walker) encodeFloat(path string, f float64, bitSize int) (types.AttributeValue, bool) {
	if !isFinite(f) {
		if w.codec.nonFinite == StringifyNonFinite {
			return &types.AttributeValueMemberS{Value: nonFiniteString(f)}, true
		}
		w.skip(path, ErrNonFiniteNumber)
		return nil, false
	}
	return &types.AttributeValueMemberN{Value: formatNumber(f, bitSize)}, true
}

// encodeJSONNumber keeps the text of a plain decimal number so that no
// precision is lost. Other text ParseFloat accepts, such as hex floats, is
// rendered like a float64 and non-finite values follow the codec's policy.
func (w *walker) encodeJSONNumber(path string, num json.Number) (types.AttributeValue, bool) {
	f, err := strconv.ParseFloat(num.String(), 64)
	if err != nil && !(errors.Is(err, strconv.ErrRange) && math.IsInf(f, 0)) {
		w.skip(path, fmt.Errorf("%w: json.Number %q: %w", ErrUnsupportedType, num.String(), err))
		return nil, false
	}
	if !isFinite(f) || !isDecimal(num.String()) {
		return w.encodeFloat(path, f, 64)
	}
	return &types.AttributeValueMemberN{Value: num.String()}, true
}

// isDecimal reports whether s is a number in JSON syntax.
func isDecimal(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	return json.Valid([]byte(s))
}

func (w *walker) encodeList(path string, rv reflect.Value) *types.AttributeValueMemberL {
	list := make([]types.AttributeValue, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		if av, ok := w.encodeValue(indexPath(path, i), rv.Index(i).Interface()); ok {
			list = append(list, av)
		}
	}
	return &types.AttributeValueMemberL{Value: list}
}

func (w *walker) encodeMap(path string, rv reflect.Value) *types.AttributeValueMemberM {
	m := make(map[string]types.AttributeValue, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key().String()
		if av, ok := w.encodeValue(joinPath(path, key), iter.Value().Interface()); ok {
			m[key] = av
		}
	}
	return &types.AttributeValueMemberM{Value: m}
}
