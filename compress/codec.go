// Package compress provides secondary, general-purpose byte compression
// for the metadata graph's string and scalar payloads (§4.10 of
// SPEC_FULL.md). It is deliberately not used on chunk bodies: those
// always go through PFor/fpxenc (the format's hard core, see the pfor and
// floatcodec packages); this package exists for the handful of places a
// Variable carries an arbitrary-length string value worth shrinking
// before it hits the backing store.
package compress

import "fmt"

// Tag identifies which codec produced a compressed metadata payload. It is
// written as a single byte ahead of the compressed bytes so a reader never
// needs out-of-band knowledge of which codec a writer chose.
type Tag uint8

const (
	TagNone Tag = iota
	TagS2
	TagLZ4
	TagZstd
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "None"
	case TagS2:
		return "S2"
	case TagLZ4:
		return "LZ4"
	case TagZstd:
		return "Zstd"
	default:
		return "Unknown"
	}
}

// Codec compresses and decompresses metadata payloads.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// ForTag returns the Codec registered for tag.
func ForTag(tag Tag) (Codec, error) {
	switch tag {
	case TagNone:
		return NoOpCodec{}, nil
	case TagS2:
		return S2Codec{}, nil
	case TagLZ4:
		return LZ4Codec{}, nil
	case TagZstd:
		return ZstdCodec{}, nil
	default:
		return nil, fmt.Errorf("compress: unknown tag %d", tag)
	}
}

// EncodeTagged compresses data with the Codec for tag and prefixes the
// result with tag's byte, so DecodeTagged can recover the codec used.
func EncodeTagged(tag Tag, data []byte) ([]byte, error) {
	codec, err := ForTag(tag)
	if err != nil {
		return nil, err
	}

	compressed, err := codec.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("compress: %s: %w", tag, err)
	}

	out := make([]byte, 1+len(compressed))
	out[0] = byte(tag)
	copy(out[1:], compressed)

	return out, nil
}

// DecodeTagged reverses EncodeTagged: it reads the leading tag byte and
// dispatches to the matching Codec.
func DecodeTagged(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	tag := Tag(data[0])
	codec, err := ForTag(tag)
	if err != nil {
		return nil, err
	}

	out, err := codec.Decompress(data[1:])
	if err != nil {
		return nil, fmt.Errorf("compress: %s: %w", tag, err)
	}

	return out, nil
}
