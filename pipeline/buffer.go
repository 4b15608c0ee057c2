package pipeline

import "sync"

// FrameBuffer holds the most recent encoded frame for HTTP readers.
type FrameBuffer struct {
	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
}

func (b *FrameBuffer) Store(jpeg []byte) {
	b.mu.Lock()
	b.jpeg = jpeg
	b.seq++
	b.mu.Unlock()
}

// Latest returns the last stored frame and its sequence number. The slice
// must not be modified. ok is false until the first Store.
func (b *FrameBuffer) Latest() (jpeg []byte, seq uint64, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.jpeg, b.seq, b.seq > 0
}
