package model

import (
	"errors"
	"fmt"
	"strconv"
)

// TaskID identifies a task. Format: TASK-<ULID>
type TaskID string

// String returns the string representation
func (id TaskID) String() string { return string(id) }

// PatternID identifies a recurring pattern. Format: PAT-<ULID>
type PatternID string

// String returns the string representation
func (id PatternID) String() string { return string(id) }

// CategoryID identifies a task category
type CategoryID string

// String returns the string representation
func (id CategoryID) String() string { return string(id) }

// UserID identifies the owning user. Every repository operation is scoped
// by user; the engine performs no authentication itself.
type UserID string

// String returns the string representation
func (id UserID) String() string { return string(id) }

// Status represents the lifecycle state of a task.
//
// StatusDelete is a terminal display sentinel distinct from soft delete:
// a task carrying it is filtered from every visible list but still exists
// until a cleanup pass removes it.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDelete     Status = "delete"
)

// String returns the string representation
func (s Status) String() string { return string(s) }

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusDelete:
		return true
	default:
		return false
	}
}

// Next returns the status reached by one cycle step:
// pending → in_progress → completed → pending. The delete sentinel
// does not cycle.
func (s Status) Next() Status {
	switch s {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	case StatusCompleted:
		return StatusPending
	default:
		return s
	}
}

// PriorityLetter is the coarse rank of a priority key, A (highest) to D.
type PriorityLetter string

const (
	PriorityA PriorityLetter = "A"
	PriorityB PriorityLetter = "B"
	PriorityC PriorityLetter = "C"
	PriorityD PriorityLetter = "D"
)

// String returns the string representation
func (l PriorityLetter) String() string { return string(l) }

// IsValid validates the letter
func (l PriorityLetter) IsValid() bool {
	switch l {
	case PriorityA, PriorityB, PriorityC, PriorityD:
		return true
	default:
		return false
	}
}

// rank returns the ordering index of the letter, A first.
func (l PriorityLetter) rank() int {
	switch l {
	case PriorityA:
		return 0
	case PriorityB:
		return 1
	case PriorityC:
		return 2
	case PriorityD:
		return 3
	default:
		return 4
	}
}

// ErrInvalidPriority is returned for an out-of-range priority key.
var ErrInvalidPriority = errors.New("invalid priority")

// Priority is the composite (letter, number) manual ranking key.
// Within one scheduled date and one letter, numbers are dense 1..n once a
// reorder has been applied, but may carry gaps transiently.
type Priority struct {
	Letter PriorityLetter `json:"letter" yaml:"letter"`
	Number int            `json:"number" yaml:"number"`
}

// NewPriority creates a validated priority key.
func NewPriority(letter PriorityLetter, number int) (Priority, error) {
	if !letter.IsValid() {
		return Priority{}, fmt.Errorf("%w: letter %q", ErrInvalidPriority, letter)
	}
	if number < 1 {
		return Priority{}, fmt.Errorf("%w: number %d", ErrInvalidPriority, number)
	}
	return Priority{Letter: letter, Number: number}, nil
}

// ParsePriority parses the compact "A1" form.
func ParsePriority(s string) (Priority, error) {
	if len(s) < 2 {
		return Priority{}, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	letter := PriorityLetter(s[:1])
	number, err := strconv.Atoi(s[1:])
	if err != nil {
		return Priority{}, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return NewPriority(letter, number)
}

// String returns the compact "A1" form.
func (p Priority) String() string {
	return string(p.Letter) + strconv.Itoa(p.Number)
}

// Less reports whether p sorts before other in the composite order.
func (p Priority) Less(other Priority) bool {
	if p.Letter != other.Letter {
		return p.Letter.rank() < other.Letter.rank()
	}
	return p.Number < other.Number
}
