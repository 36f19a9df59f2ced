package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func pcmBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestWAVCreateAndFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")

	w, err := OpenWAV(path, 16000, 1)
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}
	data := pcmBytes([]int16{0, 100, -100, 32767, -32768})
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != wavHeaderSize+len(data) {
		t.Fatalf("file size = %d, want %d", len(raw), wavHeaderSize+len(data))
	}
	if string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(raw[24:28]); got != 16000 {
		t.Errorf("sample rate = %d, want 16000", got)
	}
	if got := binary.LittleEndian.Uint32(raw[40:44]); got != uint32(len(data)) {
		t.Errorf("data size = %d, want %d", got, len(data))
	}
}

func TestWAVReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")

	first := pcmBytes(make([]int16, 1600))
	w, err := OpenWAV(path, 16000, 1)
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}
	if _, err := w.Write(first); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	second := pcmBytes(make([]int16, 800))
	w, err = OpenWAV(path, 16000, 1)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := w.Write(second); err != nil {
		t.Fatal(err)
	}
	if got, want := w.Duration(), 2400.0/16000.0; got != want {
		t.Errorf("Duration = %v, want %v", got, want)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	wantData := len(first) + len(second)
	if len(raw) != wavHeaderSize+wantData {
		t.Fatalf("file size = %d, want %d", len(raw), wavHeaderSize+wantData)
	}
	if got := binary.LittleEndian.Uint32(raw[40:44]); got != uint32(wantData) {
		t.Errorf("data size = %d after append, want %d", got, wantData)
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); got != uint32(36+wantData) {
		t.Errorf("chunk size = %d after append, want %d", got, 36+wantData)
	}
}

func TestWAVRejectsMismatchedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")

	w, err := OpenWAV(path, 16000, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(pcmBytes([]int16{1, 2, 3})); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenWAV(path, 44100, 1); err == nil {
		t.Error("expected sample rate mismatch error")
	}
}

func TestWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, make([]byte, 64), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenWAV(path, 16000, 1); err == nil {
		t.Error("expected error for non-WAV file")
	}
}
