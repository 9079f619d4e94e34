package domain

// ContentUnit is one deliverable (day, step) piece of the course. MessageID
// references a message in the source channel; the transport produces a
// protected copy of it for the learner.
type ContentUnit struct {
	Day       int
	Step      int
	MessageID string
}
