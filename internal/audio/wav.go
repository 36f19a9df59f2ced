package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const wavHeaderSize = 44

// wavHeader is the canonical 44-byte PCM WAV header.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// WAVWriter appends s16le PCM to a WAV file, patching the header sizes on
// every Flush so a crash loses at most the data since the last flush.
type WAVWriter struct {
	f          *os.File
	sampleRate int
	channels   int
	dataBytes  int64
}

// OpenWAV opens path for appending PCM data, creating the file with a fresh
// header when it does not exist. An existing file must be a PCM WAV with a
// matching sample rate and channel count; new data is appended after the
// existing samples.
func OpenWAV(path string, sampleRate, channels int) (*WAVWriter, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open wav %s: %w", path, err)
	}

	w := &WAVWriter{f: f, sampleRate: sampleRate, channels: channels}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat wav %s: %w", path, err)
	}

	if info.Size() == 0 {
		if err := w.writeHeader(); err != nil {
			f.Close()
			return nil, err
		}
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			f.Close()
			return nil, fmt.Errorf("seek wav %s: %w", path, err)
		}
		return w, nil
	}

	var hdr wavHeader
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		f.Close()
		return nil, fmt.Errorf("read wav header %s: %w", path, err)
	}
	if err := validateHeader(hdr, sampleRate, channels); err != nil {
		f.Close()
		return nil, fmt.Errorf("wav %s: %w", path, err)
	}

	w.dataBytes = info.Size() - wavHeaderSize
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek wav %s: %w", path, err)
	}
	return w, nil
}

func validateHeader(hdr wavHeader, sampleRate, channels int) error {
	if string(hdr.ChunkID[:]) != "RIFF" || string(hdr.Format[:]) != "WAVE" {
		return fmt.Errorf("not a WAV file")
	}
	if hdr.AudioFormat != 1 {
		return fmt.Errorf("unsupported audio format %d (only PCM)", hdr.AudioFormat)
	}
	if hdr.BitsPerSample != 16 {
		return fmt.Errorf("unsupported bit depth %d (only 16-bit)", hdr.BitsPerSample)
	}
	if int(hdr.SampleRate) != sampleRate {
		return fmt.Errorf("sample rate mismatch: file %d, session %d", hdr.SampleRate, sampleRate)
	}
	if int(hdr.NumChannels) != channels {
		return fmt.Errorf("channel count mismatch: file %d, session %d", hdr.NumChannels, channels)
	}
	return nil
}

func (w *WAVWriter) writeHeader() error {
	hdr := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + w.dataBytes),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(w.channels),
		SampleRate:    uint32(w.sampleRate),
		ByteRate:      uint32(w.sampleRate * w.channels * 2),
		BlockAlign:    uint16(w.channels * 2),
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(w.dataBytes),
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize))
	if err := binary.Write(buf, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("encode wav header: %w", err)
	}
	if _, err := w.f.WriteAt(buf.Bytes(), 0); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	return nil
}

// Write appends PCM bytes after any previously written samples.
func (w *WAVWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	w.dataBytes += int64(n)
	if err != nil {
		return n, fmt.Errorf("write wav data: %w", err)
	}
	return n, nil
}

// Flush patches the header sizes and syncs the file to disk.
func (w *WAVWriter) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("sync wav: %w", err)
	}
	return nil
}

// Duration returns the audio length recorded so far, in seconds.
func (w *WAVWriter) Duration() float64 {
	bytesPerSecond := float64(w.sampleRate * w.channels * 2)
	return float64(w.dataBytes) / bytesPerSecond
}

// Close flushes and closes the file.
func (w *WAVWriter) Close() error {
	if err := w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
