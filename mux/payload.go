package mux

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Payload is the request descriptor sent to the server to parameterize a channel
// subscription, e.g. {"coin": "BTC", "interval": "1m"}.
type Payload map[string]any

// Equal reports whether p and other describe the same subscription.
//
// Comparison is structural: key order is irrelevant and numbers compare by
// exact value, so Payload{"n": 1} equals Payload{"n": 1.0} while two integers
// beyond float64 precision stay distinct. A nil payload equals an empty one.
// A payload that cannot be encoded as JSON equals nothing.
func (p Payload) Equal(other Payload) bool {
	a, err := p.canonical()
	if err != nil {
		return false
	}
	b, err := other.canonical()
	if err != nil {
		return false
	}
	return proto.Equal(a, b)
}

// canonical converts the payload into a protobuf Struct. Values are first passed
// through JSON so that typed slices, structs and integer kinds collapse into the
// JSON value set. Numbers are kept as json.Number and stored as the exact
// rational they denote; strings and numbers are tagged so "1" never equals 1.
func (p Payload) canonical() (*structpb.Struct, error) {
	if len(p) == 0 {
		return &structpb.Struct{}, nil
	}

	raw, err := json.Marshal(map[string]any(p))
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic map[string]any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	fields := make(map[string]*structpb.Value, len(generic))
	for k, v := range generic {
		cv, err := canonicalValue(v)
		if err != nil {
			return nil, fmt.Errorf("payload key %q: %w", k, err)
		}
		fields[k] = cv
	}
	return &structpb.Struct{Fields: fields}, nil
}

func canonicalValue(v any) (*structpb.Value, error) {
	switch x := v.(type) {
	case nil:
		return structpb.NewNullValue(), nil
	case bool:
		return structpb.NewBoolValue(x), nil
	case string:
		return structpb.NewStringValue("s:" + x), nil
	case json.Number:
		r, ok := new(big.Rat).SetString(x.String())
		if !ok {
			return nil, fmt.Errorf("invalid number %q", x)
		}
		return structpb.NewStringValue("n:" + r.RatString()), nil
	case []any:
		values := make([]*structpb.Value, len(x))
		for i, e := range x {
			cv, err := canonicalValue(e)
			if err != nil {
				return nil, err
			}
			values[i] = cv
		}
		return structpb.NewListValue(&structpb.ListValue{Values: values}), nil
	case map[string]any:
		fields := make(map[string]*structpb.Value, len(x))
		for k, e := range x {
			cv, err := canonicalValue(e)
			if err != nil {
				return nil, err
			}
			fields[k] = cv
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}

// subscription returns the object placed under "subscription" on the wire: the
// payload keys plus "type" set to the channel name.
func (p Payload) subscription(channel string) map[string]any {
	out := make(map[string]any, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out["type"] = channel
	return out
}
