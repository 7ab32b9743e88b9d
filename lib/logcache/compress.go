// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logcache

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a cache entry body is stored. The value
// is the first byte of every entry on disk, so existing values must not
// change.
type Compression uint8

const (
	// CompressionNone stores the log verbatim. Also used for any log
	// the selected codec could not shrink.
	CompressionNone Compression = 0

	// CompressionLZ4 stores an LZ4 block. Fastest to read back.
	CompressionLZ4 Compression = 1

	// CompressionZstd stores a zstd frame at the default level. Build
	// logs are repetitive text and compress well with it.
	CompressionZstd Compression = 2
)

// String returns the configuration name of a compression.
func (compression Compression) String() string {
	switch compression {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", compression)
	}
}

// ParseCompression parses a configuration name. The empty string
// selects zstd.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "none":
		return CompressionNone, nil
	default:
		return 0, fmt.Errorf("unknown log cache compression %q (want zstd, lz4, or none)", name)
	}
}

// errIncompressible signals that compressing did not make the data
// smaller.
var errIncompressible = errors.New("data is incompressible")

// zstd.Encoder and zstd.Decoder are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("logcache: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxLogSize))
	if err != nil {
		panic("logcache: zstd decoder initialization failed: " + err.Error())
	}
}

// headerSize is the tag byte plus the uncompressed length.
const headerSize = 1 + 4

// MaxLogSize is the largest log the cache stores. Larger logs are
// returned to the caller but not written.
const MaxLogSize = 256 << 20

// lz4MaxRatio bounds how much an LZ4 block can expand: each input
// byte yields at most 255 output bytes.
const lz4MaxRatio = 255

// encodeEntry frames data as tag, little-endian uint32 length, body.
// Data the codec cannot shrink is stored uncompressed.
func encodeEntry(data []byte, compression Compression) ([]byte, error) {
	if len(data) > MaxLogSize {
		return nil, fmt.Errorf("log of %d bytes is too large to cache (limit %d)", len(data), MaxLogSize)
	}

	body, err := compress(data, compression)
	if errors.Is(err, errIncompressible) {
		compression, body, err = CompressionNone, data, nil
	}
	if err != nil {
		return nil, err
	}

	entry := make([]byte, headerSize, headerSize+len(body))
	entry[0] = byte(compression)
	binary.LittleEndian.PutUint32(entry[1:headerSize], uint32(len(data)))
	return append(entry, body...), nil
}

// decodeEntry reverses encodeEntry and verifies the stored length.
// The header's length is checked against MaxLogSize and the body before
// any buffer is sized from it.
func decodeEntry(entry []byte) ([]byte, error) {
	if len(entry) < headerSize {
		return nil, fmt.Errorf("entry of %d bytes is shorter than its header", len(entry))
	}
	compression := Compression(entry[0])
	size := int(binary.LittleEndian.Uint32(entry[1:headerSize]))
	body := entry[headerSize:]
	if size > MaxLogSize {
		return nil, fmt.Errorf("entry claims %d bytes, over the %d byte limit", size, MaxLogSize)
	}

	switch compression {
	case CompressionNone:
		if len(body) != size {
			return nil, fmt.Errorf("uncompressed entry: size %d does not match expected %d", len(body), size)
		}
		return body, nil

	case CompressionLZ4:
		if size > lz4MaxRatio*len(body) {
			return nil, fmt.Errorf("lz4 entry claims %d bytes from a %d byte body", size, len(body))
		}
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(body, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return destination, nil

	case CompressionZstd:
		// zstd can exceed the LZ4 ratio, so the header only bounds the
		// initial capacity and DecodeAll grows past it if needed.
		result, err := zstdDecoder.DecodeAll(body, make([]byte, 0, min(size, lz4MaxRatio*len(body))))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", compression)
	}
}

func compress(data []byte, compression Compression) ([]byte, error) {
	switch compression {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock returns 0 for incompressible input.
		if written == 0 || written >= len(data) {
			return nil, errIncompressible
		}
		return destination[:written], nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return nil, errIncompressible
		}
		return compressed, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", compression)
	}
}
