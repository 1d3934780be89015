package php2json

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Encoding is the text encoding wrapped around serialized data.
type Encoding int

const (
	// EncodingPlain means the input is serialized text as is.
	EncodingPlain Encoding = iota
	// EncodingBase64 means the input is base64 text that decodes to serialized data.
	EncodingBase64
)

// String returns the name of the encoding.
func (e Encoding) String() string {
	switch e {
	case EncodingPlain:
		return "plain"
	case EncodingBase64:
		return "base64"
	default:
		return fmt.Sprintf("unknown(%d)", int(e))
	}
}

// ParseEncoding parses an encoding name.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "plain", "none":
		return EncodingPlain, nil
	case "base64", "b64":
		return EncodingBase64, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", name)
	}
}

// Compression is the compression applied to serialized data.
type Compression int

const (
	// CompressionNone means the data is not compressed.
	CompressionNone Compression = iota
	// CompressionAuto detects gzip, zstd and lz4 frames by magic bytes.
	CompressionAuto
	// CompressionGzip means gzip (as written by gzencode).
	CompressionGzip
	// CompressionZstd means a zstd frame.
	CompressionZstd
	// CompressionLZ4 means an lz4 frame.
	CompressionLZ4
)

// magic numbers for CompressionAuto.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// String returns the name of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionAuto:
		return "auto"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// ParseCompression parses a compression name.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CompressionNone, nil
	case "auto":
		return CompressionAuto, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// prepareInput applies the text decoding and decompression selected in opt.
func prepareInput(data []byte, opt DecodeOptions) ([]byte, error) {
	out := data
	if opt.Encoding == EncodingBase64 {
		decoded, err := decodeBase64(out)
		if err != nil {
			return nil, err
		}
		out = decoded
	}

	comp := opt.Compression
	if comp == CompressionAuto {
		comp = detectCompression(out)
	}

	return decompress(out, comp)
}

// decodeBase64 decodes standard or URL-safe base64, padded or not, ignoring whitespace.
func decodeBase64(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}

	var firstErr error
	for _, enc := range encodings {
		out := make([]byte, enc.DecodedLen(len(cleaned)))
		n, err := enc.Decode(out, cleaned)
		if err == nil {
			return out[:n], nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	return nil, fmt.Errorf("%w: decode base64: %w", ErrInput, firstErr)
}

// detectCompression guesses the compression of data from its magic bytes.
func detectCompression(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(data, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(data, lz4Magic):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// decompress inflates data compressed with c.
func decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil

	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", ErrInput, err)
		}
		defer zr.Close()
		return readAll(zr, "gzip")

	case CompressionZstd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrInput, err)
		}
		defer zr.Close()
		return readAll(zr, "zstd")

	case CompressionLZ4:
		return readAll(lz4.NewReader(bytes.NewReader(data)), "lz4")

	default:
		return nil, fmt.Errorf("%w: unsupported compression %s", ErrInput, c)
	}
}

// readAll drains a decompressing reader.
func readAll(r io.Reader, name string) ([]byte, error) {
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInput, name, err)
	}

	return out, nil
}
