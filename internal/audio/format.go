package audio

import (
	"fmt"
	"strings"
)

// SampleFormat tags the in-memory representation a device delivers.
type SampleFormat uint8

const (
	FormatUnknown SampleFormat = iota
	FormatI8
	FormatI16
	FormatI32
	FormatF32
	// Recognised, but not decodable.
	FormatU8
	FormatU16
	FormatF64
)

var formatNames = map[SampleFormat]string{
	FormatUnknown: "unknown",
	FormatI8:      "i8",
	FormatI16:     "i16",
	FormatI32:     "i32",
	FormatF32:     "f32",
	FormatU8:      "u8",
	FormatU16:     "u16",
	FormatF64:     "f64",
}

func (f SampleFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("SampleFormat(%d)", uint8(f))
}

// Supported reports whether Decode handles the format.
func (f SampleFormat) Supported() bool {
	switch f {
	case FormatI8, FormatI16, FormatI32, FormatF32:
		return true
	}
	return false
}

// ParseSampleFormat maps a config string ("i16", "f32", ...) to a format.
// Unsupported but well-known formats parse successfully so that the failure
// surfaces from Session.Start as ErrUnsupportedFormat.
func ParseSampleFormat(s string) (SampleFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatF32, nil
	}
	for f, name := range formatNames {
		if f != FormatUnknown && name == s {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Block is one interleaved buffer handed over by the backend callback.
// Only the slice matching Format is populated.
type Block struct {
	Format   SampleFormat
	Channels int
	I8       []int8
	I16      []int16
	I32      []int32
	F32      []float32
}

// Len returns the number of interleaved samples in the block.
func (b Block) Len() int {
	switch b.Format {
	case FormatI8:
		return len(b.I8)
	case FormatI16:
		return len(b.I16)
	case FormatI32:
		return len(b.I32)
	case FormatF32:
		return len(b.F32)
	}
	return 0
}

// Frames returns the number of frames in the block.
func (b Block) Frames() int {
	if b.Channels < 1 {
		return b.Len()
	}
	return b.Len() / b.Channels
}

// Decode converts the block to float32 in [-1, 1], reusing dst's capacity.
// Integer formats are scaled by their full-scale magnitude, so the most
// negative value maps to exactly -1.0.
func Decode(dst []float32, b Block) []float32 {
	n := b.Len()
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]

	switch b.Format {
	case FormatI8:
		for i, v := range b.I8 {
			dst[i] = float32(v) / (1 << 7)
		}
	case FormatI16:
		for i, v := range b.I16 {
			dst[i] = float32(v) / (1 << 15)
		}
	case FormatI32:
		for i, v := range b.I32 {
			dst[i] = float32(float64(v) / (1 << 31))
		}
	case FormatF32:
		copy(dst, b.F32)
	}
	return dst
}
