package dice

import (
	"errors"
	"fmt"
	"sync"
)

// ErrScriptExhausted is returned by Scripted once every scripted value has been consumed.
var ErrScriptExhausted = errors.New("dice: scripted rolls exhausted")

// Scripted is a Randomizer that replays a fixed sequence of die faces.
// It makes combat and character creation deterministic under test.
type Scripted struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewScripted returns a Scripted Randomizer that yields values in order.
func NewScripted(values ...int) *Scripted {
	return &Scripted{values: values}
}

// Roll returns the next scripted value.
//
// Postcondition: returns ErrInvalidDie when faces < 1 or the scripted value
// does not fit in [1, faces]; ErrScriptExhausted when no values remain.
func (s *Scripted) Roll(faces int) (int, error) {
	if err := checkFaces(faces); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.values) {
		return 0, ErrScriptExhausted
	}
	v := s.values[s.next]
	s.next++
	if v < 1 || v > faces {
		return 0, fmt.Errorf("%w: scripted value %d does not fit d%d", ErrInvalidDie, v, faces)
	}
	return v, nil
}

// Remaining reports how many scripted values have not been consumed.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values) - s.next
}
