// Package audio decodes, post-processes and re-encodes the 16-bit mono WAV
// that espeak-ng renders for the say command.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cwbudde/wav"
)

// Supported PCM layout. The sample rate is taken from the input.
const (
	ExpectedChannels = 1
	ExpectedBitDepth = 16
)

// ErrFormatMismatch is returned when a decoded WAV is not mono 16-bit PCM.
var ErrFormatMismatch = errors.New("WAV format mismatch")

// Clip is decoded mono audio.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// DecodeWAV decodes WAV bytes into float32 samples. Headers written to a
// pipe, whose RIFF and data sizes are placeholders, are repaired first.
func DecodeWAV(data []byte) (Clip, error) {
	if len(data) == 0 {
		return Clip{}, errors.New("empty WAV input")
	}

	dec := wav.NewDecoder(bytes.NewReader(repairSizes(data)))
	if !dec.IsValidFile() {
		return Clip{}, errors.New("invalid WAV file")
	}

	if dec.NumChans != ExpectedChannels {
		return Clip{}, fmt.Errorf("%w: channels %d, want %d", ErrFormatMismatch, dec.NumChans, ExpectedChannels)
	}
	if dec.BitDepth != ExpectedBitDepth {
		return Clip{}, fmt.Errorf("%w: bit depth %d, want %d", ErrFormatMismatch, dec.BitDepth, ExpectedBitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("reading PCM data: %w", err)
	}

	return Clip{Samples: buf.Data, SampleRate: int(dec.SampleRate)}, nil
}

// repairSizes clamps the RIFF and data chunk sizes to what is actually
// present. The input is copied only when a size needs fixing.
func repairSizes(data []byte) []byte {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return data
	}

	out := data
	patch := func(at int, size uint32) {
		if binary.LittleEndian.Uint32(out[at:at+4]) == size {
			return
		}
		if &out[0] == &data[0] {
			out = append([]byte(nil), data...)
		}
		binary.LittleEndian.PutUint32(out[at:at+4], size)
	}

	patch(4, uint32(len(data)-8))

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		remaining := uint32(len(data) - offset - 8)

		if id == "data" {
			if size > remaining {
				patch(offset+4, remaining)
			}
			break
		}

		if size > remaining {
			break
		}
		offset += 8 + int(size)
		if size%2 != 0 {
			offset++
		}
	}

	return out
}
