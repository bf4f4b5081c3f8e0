package port

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// gobCodec is a grpc/encoding.Codec backed by encoding/gob instead of
// protobuf. registrationd has no generated protobuf stubs (no protoc
// available in this environment — see the Open Question in SPEC_FULL.md);
// registering a codec under the name "proto" overrides grpc-go's built-in
// default codec, so every message on the wire (the plain structs in
// pkg/protocol) is gob-encoded without any client-side opt-in.
type gobCodec struct{}

func init() {
	encoding.RegisterCodec(gobCodec{})
}

func (gobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}
	return nil
}

func (gobCodec) Name() string { return "proto" }
