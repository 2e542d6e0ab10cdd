package audio

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
)

// SourceKind tells the pipeline where a clip came from. Microphone captures
// are calibrated before recognition, file uploads are capped in length.
type SourceKind string

const (
	SourceMic  SourceKind = "mic"
	SourceFile SourceKind = "file"
)

// ErrUnsupportedFormat is returned when the input bytes cannot be decoded.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// MaxUploadMs caps file uploads; longer clips are silently truncated.
const MaxUploadMs = 60000

// Normalize converts raw WAV or MP3 bytes into the canonical waveform:
// mono, 16 kHz, 16-bit PCM. The container is inferred from the filename
// extension, falling back to content sniffing. File-sourced clips longer
// than MaxUploadMs are truncated; mic captures are never truncated.
func Normalize(raw []byte, filename string, kind SourceKind) (*Buffer, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty audio input")
	}

	var (
		samples  []int16
		rate     int
		channels int
		err      error
	)

	switch sniffContainer(raw, filename) {
	case "mp3":
		samples, rate, channels, err = decodeMP3(raw)
	default:
		samples, rate, channels, err = decodeWAV(raw)
	}
	if err != nil {
		return nil, err
	}

	samples = downmix(samples, channels)
	samples = resample(samples, rate, CanonicalRate)

	if kind == SourceFile {
		if max := MaxUploadMs * CanonicalRate / 1000; len(samples) > max {
			samples = samples[:max]
		}
	}

	return &Buffer{Samples: samples, SampleRate: CanonicalRate}, nil
}

func sniffContainer(raw []byte, filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "mp3"
	case ".wav":
		return "wav"
	}
	if bytes.HasPrefix(raw, []byte("RIFF")) {
		return "wav"
	}
	if bytes.HasPrefix(raw, []byte("ID3")) {
		return "mp3"
	}
	return "wav"
}

// downmix averages interleaved frames into a single channel.
func downmix(in []int16, channels int) []int16 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += int(in[i*channels+c])
		}
		out[i] = int16(sum / channels)
	}
	return out
}

// resample converts between sample rates with linear interpolation, which
// is plenty for speech headed to a recognition service.
func resample(in []int16, from, to int) []int16 {
	if from == to || len(in) == 0 {
		return in
	}
	n := int(int64(len(in)) * int64(to) / int64(from))
	out := make([]int16, n)
	for i := range out {
		pos := float64(i) * float64(from) / float64(to)
		j := int(pos)
		frac := pos - float64(j)
		s0 := in[j]
		s1 := s0
		if j+1 < len(in) {
			s1 = in[j+1]
		}
		out[i] = int16(float64(s0)*(1-frac) + float64(s1)*frac)
	}
	return out
}
