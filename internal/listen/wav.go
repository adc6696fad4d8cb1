package listen

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadFile decodes a whole PCM wave file into memory. File input is
// single-shot; large files are not streamed. 24- and 32-bit samples are
// scaled down to the 16-bit range; other depths are rejected.
func ReadFile(path string) (Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return Audio{}, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Audio{}, fmt.Errorf("not a valid wave file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Audio{}, fmt.Errorf("decode wave file: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return Audio{}, fmt.Errorf("wave file has no PCM data: %s", path)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	var shift uint
	switch depth {
	case 16:
	case 24, 32:
		shift = uint(depth - 16)
	default:
		return Audio{}, fmt.Errorf("unsupported bit depth %d in wave file: %s", depth, path)
	}

	pcm := make([]byte, len(buf.Data)*2)
	for i, sample := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(sample>>shift)))
	}
	return Audio{
		PCM:        pcm,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}

// WriteWAV encodes 16-bit little-endian PCM into a wave container.
func WriteWAV(file *os.File, a Audio) error {
	if len(a.PCM)%2 != 0 {
		return fmt.Errorf("pcm payload not aligned")
	}
	buffer := &audio.IntBuffer{Format: &audio.Format{NumChannels: a.Channels, SampleRate: a.SampleRate}}
	samples := make([]int, len(a.PCM)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int(int16(binary.LittleEndian.Uint16(a.PCM[i*2:])))
	}
	buffer.Data = samples

	enc := wav.NewEncoder(file, a.SampleRate, 16, a.Channels, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}
