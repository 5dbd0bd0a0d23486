package notify

import "sync"

// Severity mirrors the client's toast variants.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "destructive"
)

// Note is a fire-and-forget user-visible message.
type Note struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Severity   Severity `json:"severity"`
	DurationMS int      `json:"duration_ms"`
}

// Sink queues notes per user for the client to drain. No acknowledgement
// is required; undrained notes are dropped oldest-first past the cap.
type Sink interface {
	Push(userID int64, note Note)
	Drain(userID int64) []Note
}

const maxQueued = 32

type memorySink struct {
	mu     sync.Mutex
	queues map[int64][]Note
}

// NewMemorySink creates an in-process sink.
func NewMemorySink() Sink {
	return &memorySink{queues: make(map[int64][]Note)}
}

func (s *memorySink) Push(userID int64, note Note) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := append(s.queues[userID], note)
	if len(queue) > maxQueued {
		queue = queue[len(queue)-maxQueued:]
	}
	s.queues[userID] = queue
}

func (s *memorySink) Drain(userID int64) []Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := s.queues[userID]
	delete(s.queues, userID)
	if notes == nil {
		notes = []Note{}
	}
	return notes
}
