package attr

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MarshalJSON renders item in the DynamoDB JSON wire form, e.g.
// {"name":{"S":"x"},"price":{"N":"5"}}. Only the five supported tags can be
// rendered.
func MarshalJSON(item Item) ([]byte, error) {
	raw, err := wireMap("", item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

func wireMap(path string, m map[string]types.AttributeValue) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, av := range m {
		v, err := wireValue(joinPath(path, k), av)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func wireValue(path string, av types.AttributeValue) (map[string]any, error) {
	switch t := av.(type) {
	case *types.AttributeValueMemberS:
		return map[string]any{TagS: t.Value}, nil
	case *types.AttributeValueMemberN:
		return map[string]any{TagN: t.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return map[string]any{TagBOOL: t.Value}, nil
	case *types.AttributeValueMemberL:
		list := make([]any, 0, len(t.Value))
		for i, el := range t.Value {
			v, err := wireValue(indexPath(path, i), el)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return map[string]any{TagL: list}, nil
	case *types.AttributeValueMemberM:
		m, err := wireMap(path, t.Value)
		if err != nil {
			return nil, err
		}
		return map[string]any{TagM: m}, nil
	}
	return nil, fmt.Errorf("%s: %w", path, &DecodeError{Tag: TagOf(av)})
}

// UnmarshalJSON parses the DynamoDB JSON wire form. Each value object is
// inspected for S, N, BOOL, L and M in that order and the first tag present
// wins. Value objects carrying none of them are skipped. The error is only
// set when data is not a JSON object.
func UnmarshalJSON(data []byte) (Result[Item], error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Result[Item]{}, fmt.Errorf("failed to parse item: %w", err)
	}
	w := &walker{}
	return Result[Item]{Value: w.unwireMap("", raw), Skipped: w.skipped}, nil
}

func (w *walker) unwireMap(path string, raw map[string]json.RawMessage) Item {
	item := make(Item, len(raw))
	for k, msg := range raw {
		if av, ok := w.unwireValue(joinPath(path, k), msg); ok {
			item[k] = av
		}
	}
	return item
}

func (w *walker) unwireValue(path string, msg json.RawMessage) (types.AttributeValue, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(msg, &obj); err != nil {
		w.skip(path, &DecodeError{Err: err})
		return nil, false
	}

	for _, tag := range precedence {
		payload, found := obj[tag]
		if !found {
			continue
		}
		av, err := w.unwireTagged(path, tag, payload)
		if err != nil {
			w.skip(path, &DecodeError{Tag: tag, Err: err})
			return nil, false
		}
		return av, true
	}

	w.skip(path, &DecodeError{})
	return nil, false
}

func (w *walker) unwireTagged(path string, tag string, payload json.RawMessage) (types.AttributeValue, error) {
	switch tag {
	case TagS:
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberS{Value: s}, nil
	case TagN:
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberN{Value: s}, nil
	case TagBOOL:
		var b bool
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberBOOL{Value: b}, nil
	case TagL:
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, err
		}
		list := make([]types.AttributeValue, 0, len(items))
		for i, el := range items {
			if av, ok := w.unwireValue(indexPath(path, i), el); ok {
				list = append(list, av)
			}
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	default:
		var m map[string]json.RawMessage
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: w.unwireMap(path, m)}, nil
	}
}
