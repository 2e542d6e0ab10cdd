package audio

import (
	"bytes"
	"encoding/binary"
)

// CanonicalRate is the sample rate the transcription service expects.
const CanonicalRate = 16000

// Buffer holds mono PCM-16 samples at a known sample rate.
type Buffer struct {
	Samples    []int16
	SampleRate int
}

func (b *Buffer) Empty() bool {
	return b == nil || len(b.Samples) == 0
}

// DurationMs returns the buffer length in milliseconds.
func (b *Buffer) DurationMs() int {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return int(int64(len(b.Samples)) * 1000 / int64(b.SampleRate))
}

// PCM renders the samples as little-endian 16-bit PCM without a container.
func (b *Buffer) PCM() []byte {
	out := make([]byte, len(b.Samples)*2)
	for i, s := range b.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// WAV renders the buffer as a mono PCM WAV file.
func (b *Buffer) WAV() []byte {
	data := b.PCM()
	buf := bytes.NewBuffer(make([]byte, 0, 44+len(data)))

	hdr := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(data)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(b.SampleRate),
		ByteRate:      uint32(b.SampleRate) * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(data)),
	}

	_ = binary.Write(buf, binary.LittleEndian, hdr)
	buf.Write(data)
	return buf.Bytes()
}
