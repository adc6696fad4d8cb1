package listen

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeDeepWAV(t *testing.T, bitDepth int, samples []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deep.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 16000},
		SourceBitDepth: bitDepth,
		Data:           samples,
	}
	enc := wav.NewEncoder(f, 16000, bitDepth, 1, 1)
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestWriteAndReadWAV(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768}
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	in := Audio{PCM: pcm, SampleRate: 16000, Channels: 1}

	path := filepath.Join(t.TempDir(), "probe.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := WriteWAV(f, in); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if out.SampleRate != in.SampleRate || out.Channels != in.Channels {
		t.Fatalf("format mismatch: %+v", out)
	}
	if !bytes.Equal(out.PCM, in.PCM) {
		t.Fatalf("pcm mismatch: got %v want %v", out.PCM, in.PCM)
	}
}

func TestReadFileScalesDown24BitSamples(t *testing.T) {
	path := writeDeepWAV(t, 24, []int{1 << 20, -(1 << 20)})

	out, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if len(out.PCM) != 4 {
		t.Fatalf("expected 2 samples, got %d bytes", len(out.PCM))
	}
	want := []int16{1 << 12, -(1 << 12)}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(out.PCM[i*2:]))
		if got != w {
			t.Fatalf("sample %d: got %d, want %d", i, got, w)
		}
	}
}

func TestReadFileRejectsUnsupportedBitDepth(t *testing.T) {
	path := writeDeepWAV(t, 8, []int{1, 2, 3})

	if _, err := ReadFile(path); err == nil {
		t.Fatal("expected error for 8-bit wave file")
	}
}

func TestReadFileRejectsNonWave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Fatal("expected error for non-wave file")
	}
}

func TestWriteWAVRejectsUnalignedPCM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := WriteWAV(f, Audio{PCM: []byte{1}, SampleRate: 16000, Channels: 1}); err == nil {
		t.Fatal("expected alignment error")
	}
}
