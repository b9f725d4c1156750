package session

import (
	"encoding/base64"
	"fmt"
)

// audioBuffer accumulates base64 answer audio for one question index. Chunks
// for a newer index discard whatever was buffered for the older one.
type audioBuffer struct {
	index    int
	data     []byte
	maxBytes int
}

func newAudioBuffer(maxBytes int) *audioBuffer {
	return &audioBuffer{index: -1, maxBytes: maxBytes}
}

func (b *audioBuffer) append(index int, dataB64 string) error {
	if index != b.index {
		b.reset()
		b.index = index
	}
	chunk, err := base64.StdEncoding.DecodeString(dataB64)
	if err != nil {
		return fmt.Errorf("decode audio chunk: %w", err)
	}
	if b.maxBytes > 0 && len(b.data)+len(chunk) > b.maxBytes {
		b.reset()
		return fmt.Errorf("audio exceeds %d byte budget", b.maxBytes)
	}
	b.data = append(b.data, chunk...)
	return nil
}

// take returns the accumulated audio for index and clears the buffer. Audio
// buffered for a different index is discarded.
func (b *audioBuffer) take(index int) []byte {
	defer b.reset()
	if b.index != index {
		return nil
	}
	return b.data
}

func (b *audioBuffer) reset() {
	b.index = -1
	b.data = nil
}

func (b *audioBuffer) len() int { return len(b.data) }
