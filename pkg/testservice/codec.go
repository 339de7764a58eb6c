package testservice

import (
	"github.com/goccy/go-json"
	"google.golang.org/grpc/encoding"
)

// CodecName selects the JSON codec, so harness messages are plain structs
// rather than generated protobufs.
const CodecName = "grpcmw-json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
