package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/roach88/schemaforge/internal/value"
)

// Codec encodes and decodes change events on the wire.
type Codec interface {
	Name() string
	Encode(*ChangeEvent) ([]byte, error)
	Decode([]byte) (*ChangeEvent, error)
}

var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

// CodecFor returns the codec registered under name ("json" or "msgpack").
func CodecFor(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return Msgpack, nil
	default:
		return nil, fmt.Errorf("unknown event codec %q", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Encode(e *ChangeEvent) ([]byte, error) {
	return json.Marshal(e)
}

func (jsonCodec) Decode(data []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode json event: %w", err)
	}
	return &e, nil
}

// wireEvent is the MessagePack layout. Snapshots travel as plain maps.
type wireEvent struct {
	ID        string         `msgpack:"id,omitempty"`
	Entity    string         `msgpack:"entity"`
	Op        string         `msgpack:"op"`
	Before    map[string]any `msgpack:"before,omitempty"`
	After     map[string]any `msgpack:"after,omitempty"`
	Timestamp time.Time      `msgpack:"ts"`
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Encode(e *ChangeEvent) ([]byte, error) {
	w := wireEvent{
		ID:        e.ID,
		Entity:    e.Entity,
		Op:        string(e.Op),
		Before:    toWire(e.Before),
		After:     toWire(e.After),
		Timestamp: e.Timestamp,
	}
	data, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("encode msgpack event: %w", err)
	}
	return data, nil
}

func (msgpackCodec) Decode(data []byte) (*ChangeEvent, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var w wireEvent
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("decode msgpack event: %w", err)
	}
	before, err := fromWire(w.Before)
	if err != nil {
		return nil, fmt.Errorf("decode msgpack event before: %w", err)
	}
	after, err := fromWire(w.After)
	if err != nil {
		return nil, fmt.Errorf("decode msgpack event after: %w", err)
	}
	return &ChangeEvent{
		ID:        w.ID,
		Entity:    w.Entity,
		Op:        Op(w.Op),
		Before:    before,
		After:     after,
		Timestamp: w.Timestamp,
	}, nil
}

func toWire(o value.Object) map[string]any {
	if o == nil {
		return nil
	}
	out := make(map[string]any, len(o))
	for k, v := range o {
		out[k] = wireValue(v)
	}
	return out
}

// wireValue maps a Value onto native MessagePack types. Integers outside
// the int64 range travel as decimal strings.
func wireValue(v value.Value) any {
	switch val := v.(type) {
	case value.Number:
		text := string(val)
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i
		}
		if _, ok := new(big.Int).SetString(text, 10); ok {
			return text
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
		return text
	case value.List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = wireValue(elem)
		}
		return out
	case value.Object:
		return toWire(val)
	default:
		return value.ToGo(v)
	}
}

func fromWire(m map[string]any) (value.Object, error) {
	if m == nil {
		return nil, nil
	}
	return value.ObjectFromGo(m)
}
