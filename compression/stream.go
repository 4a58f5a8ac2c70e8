// Package compression handles the whole-file compression that FF archives
// are commonly stored under.
//
// Station archives ship FF files as gzip (".bin.gz", ".fits.gz") or zstd
// (".zst") members. Unwrap recognises both by their magic numbers so callers
// can hand any byte stream to the decoder without knowing how it was stored.
// The raw CAMS header starts with a row count or the -1 version tag, neither
// of which collides with these magic numbers for real sensor sizes.
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Stream compression errors
var (
	ErrCorrupted = errors.New("compression: corrupted stream")
	ErrTooLarge  = errors.New("compression: decompressed size exceeds limit")
	ErrCodec     = errors.New("compression: unknown codec")
)

// Codec identifies a whole-stream compression scheme.
type Codec int

const (
	CodecNone Codec = iota
	CodecGzip
	CodecZstd
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecGzip:
		return "gzip"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Codec(%d)", int(c))
	}
}

// MaxDecompressedSize bounds the output of Unwrap. A 1920x1080 FF file is
// about 8 MB, so the default leaves ample room while stopping archive bombs.
var MaxDecompressedSize int64 = 512 << 20

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect reports the codec a stream was compressed with, or CodecNone.
func Detect(data []byte) Codec {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return CodecGzip
	case bytes.HasPrefix(data, zstdMagic):
		return CodecZstd
	default:
		return CodecNone
	}
}

var gzipReaderPool sync.Pool

var (
	zstdDecoderOnce sync.Once
	zstdDecoder     *zstd.Decoder
	zstdDecoderErr  error
)

func sharedZstdDecoder() (*zstd.Decoder, error) {
	zstdDecoderOnce.Do(func() {
		zstdDecoder, zstdDecoderErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(uint64(MaxDecompressedSize)))
	})
	return zstdDecoder, zstdDecoderErr
}

// Unwrap decompresses data if it carries a known magic number. Uncompressed
// input is returned as is together with CodecNone.
func Unwrap(data []byte) ([]byte, Codec, error) {
	codec := Detect(data)
	switch codec {
	case CodecGzip:
		out, err := gunzip(data)
		return out, codec, err
	case CodecZstd:
		dec, err := sharedZstdDecoder()
		if err != nil {
			return nil, codec, err
		}
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
				return nil, codec, ErrTooLarge
			}
			return nil, codec, fmt.Errorf("%w: %v", ErrCorrupted, err)
		}
		return out, codec, nil
	default:
		return data, CodecNone, nil
	}
}

func gunzip(data []byte) ([]byte, error) {
	var zr *gzip.Reader
	if v := gzipReaderPool.Get(); v != nil {
		zr = v.(*gzip.Reader)
		if err := zr.Reset(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
		}
	} else {
		var err error
		zr, err = gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
		}
	}
	defer gzipReaderPool.Put(zr)

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(zr, MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if n > MaxDecompressedSize {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}

// Wrap compresses data with the given codec. CodecNone returns data
// unchanged.
func Wrap(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecGzip:
		var buf bytes.Buffer
		zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CodecZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
	default:
		return nil, ErrCodec
	}
}

// CodecForExt maps a file extension (".gz", ".zst") to a codec, ignoring
// case.
func CodecForExt(ext string) Codec {
	switch strings.ToLower(ext) {
	case ".gz", ".gzip":
		return CodecGzip
	case ".zst", ".zstd":
		return CodecZstd
	default:
		return CodecNone
	}
}
