package positions

import "github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"

// ring is a fixed-capacity buffer of prior samples for one rider, oldest
// evicted first. Callers hold the store lock; the ring itself is not
// synchronized.
type ring struct {
	data []model.RiderSample
	head int // index of the oldest element
	size int
}

func newRing(capacity int) *ring {
	return &ring{data: make([]model.RiderSample, capacity)}
}

// push appends a sample, evicting the oldest when full. Returns true when an
// eviction happened.
func (r *ring) push(s model.RiderSample) bool {
	tail := (r.head + r.size) % len(r.data)
	r.data[tail] = s
	if r.size < len(r.data) {
		r.size++
		return false
	}
	r.head = (r.head + 1) % len(r.data)
	return true
}

// items returns the buffered samples oldest-first.
func (r *ring) items() []model.RiderSample {
	out := make([]model.RiderSample, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.data[(r.head+i)%len(r.data)]
	}
	return out
}

func (r *ring) len() int {
	return r.size
}
