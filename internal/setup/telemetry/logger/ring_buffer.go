package logger

// RingBuffer keeps the most recent log lines up to a fixed capacity.
type RingBuffer struct {
	lines    []string
	head     int // Next write position
	size     int
	sinceCut int // Lines added since the file was last truncated
}

// NewRingBuffer creates a new ring buffer with the specified capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{lines: make([]string, max(capacity, 1))}
}

// Add appends a line, overwriting the oldest one when the buffer is full.
func (rb *RingBuffer) Add(line string) {
	rb.lines[rb.head] = line
	rb.head = (rb.head + 1) % len(rb.lines)

	if rb.size < len(rb.lines) {
		rb.size++
	}

	rb.sinceCut++
}

// Lines returns the buffered lines oldest first.
func (rb *RingBuffer) Lines() []string {
	result := make([]string, 0, rb.size)
	start := (rb.head - rb.size + len(rb.lines)) % len(rb.lines)

	for i := 0; i < rb.size; i++ {
		result = append(result, rb.lines[(start+i)%len(rb.lines)])
	}

	return result
}

// Capacity returns the maximum number of lines kept.
func (rb *RingBuffer) Capacity() int {
	return len(rb.lines)
}
