package cache

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/fishinsevens/Jassistant/errors"
)

// Codec turns in-memory values into byte blobs and back. It is used only
// by the disk tier; memory tiers store values directly.
type Codec interface {
	// Encode serializes v into a byte blob.
	Encode(v any) ([]byte, error)

	// Decode deserializes data into v, which must be a pointer.
	Decode(data []byte, v any) error
}

// JSONCodec serializes values as JSON. It is the default codec for
// structured values such as query results and configuration snapshots.
type JSONCodec struct{}

// Encode implements Codec.
func (JSONCodec) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapInvalid(err, "cache", "Encode", "marshal value")
	}
	return data, nil
}

// Decode implements Codec.
func (JSONCodec) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.WrapFatal(errors.ErrDataCorrupted, "cache", "Decode",
			fmt.Sprintf("unmarshal value: %v", err))
	}
	return nil
}

// RawCodec passes []byte values through unmodified. It is used for
// pre-encoded payloads such as image artifacts, where re-encoding would
// only add overhead.
type RawCodec struct{}

// Encode implements Codec. v must be []byte or *[]byte.
func (RawCodec) Encode(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case *[]byte:
		return *b, nil
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "cache", "Encode",
			fmt.Sprintf("raw codec requires []byte, got %T", v))
	}
}

// Decode implements Codec. v must be *[]byte; the data is copied so the
// caller's slice does not alias internal buffers.
func (RawCodec) Decode(data []byte, v any) error {
	out, ok := v.(*[]byte)
	if !ok {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "Decode",
			fmt.Sprintf("raw codec requires *[]byte, got %T", v))
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	*out = buf
	return nil
}

// ZstdCodec wraps another codec with zstd compression. Large derived
// artifacts compress well and the disk tier is the slow path anyway, so
// every blob is compressed unconditionally; the frame format makes
// truncation and corruption detectable at decode time.
type ZstdCodec struct {
	inner   Codec
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCodec creates a compressing codec around inner.
func NewZstdCodec(inner Codec) (*ZstdCodec, error) {
	if inner == nil {
		inner = JSONCodec{}
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, errors.WrapFatal(err, "cache", "NewZstdCodec", "create zstd encoder")
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.WrapFatal(err, "cache", "NewZstdCodec", "create zstd decoder")
	}

	return &ZstdCodec{inner: inner, encoder: encoder, decoder: decoder}, nil
}

// Encode implements Codec.
func (c *ZstdCodec) Encode(v any) ([]byte, error) {
	data, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return c.encoder.EncodeAll(data, nil), nil
}

// Decode implements Codec.
func (c *ZstdCodec) Decode(data []byte, v any) error {
	decompressed, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return errors.WrapFatal(errors.ErrDataCorrupted, "cache", "Decode",
			fmt.Sprintf("decompress blob: %v", err))
	}
	return c.inner.Decode(decompressed, v)
}
