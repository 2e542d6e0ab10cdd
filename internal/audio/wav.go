package audio

import (
	"encoding/binary"
	"fmt"
)

type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32
	AudioFormat   uint16 // 1 = PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// decodeWAV parses a WAV byte stream into interleaved PCM-16 samples.
// Recorders insert extra chunks (LIST, fact) between fmt and data, so the
// chunks are walked rather than assuming a fixed 44-byte layout.
func decodeWAV(data []byte) (samples []int16, sampleRate, channels int, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrUnsupportedFormat)
	}

	var (
		fmtFound      bool
		audioFormat   uint16
		numChannels   uint16
		rate          uint32
		bitsPerSample uint16
		pcm           []byte
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, 0, fmt.Errorf("%w: short fmt chunk", ErrUnsupportedFormat)
			}
			audioFormat = binary.LittleEndian.Uint16(data[body : body+2])
			numChannels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			rate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			fmtFound = true
		case "data":
			pcm = data[body : body+size]
		}

		// chunks are word-aligned
		pos = body + size + size%2
	}

	if !fmtFound || pcm == nil {
		return nil, 0, 0, fmt.Errorf("%w: missing fmt or data chunk", ErrUnsupportedFormat)
	}
	if audioFormat != 1 {
		return nil, 0, 0, fmt.Errorf("%w: audio format %d (only PCM supported)", ErrUnsupportedFormat, audioFormat)
	}
	if numChannels == 0 || rate == 0 {
		return nil, 0, 0, fmt.Errorf("%w: invalid fmt chunk", ErrUnsupportedFormat)
	}

	switch bitsPerSample {
	case 16:
		samples = make([]int16, len(pcm)/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		}
	case 8:
		// 8-bit WAV is unsigned
		samples = make([]int16, len(pcm))
		for i, b := range pcm {
			samples[i] = (int16(b) - 128) << 8
		}
	default:
		return nil, 0, 0, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, bitsPerSample)
	}

	return samples, int(rate), int(numChannels), nil
}
