package dice

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

// MaxFaces bounds the die size a client may ask for.
const MaxFaces = 1000

var ErrInvalidDieSize = errors.New("invalid die size")

// Roller produces one outcome per call. Implementations must be safe for
// concurrent use.
type Roller interface {
	Roll(diceType int) (int, error)
}

// RollerFunc adapts a plain function to Roller.
type RollerFunc func(diceType int) (int, error)

func (f RollerFunc) Roll(diceType int) (int, error) { return f(diceType) }

// Default rolls from the runtime's global source.
var Default Roller = RollerFunc(Roll)

// Roll returns a uniformly distributed value in [1, diceType].
func Roll(diceType int) (int, error) {
	if err := Validate(diceType); err != nil {
		return 0, err
	}
	return rand.IntN(diceType) + 1, nil
}

// Validate reports whether diceType names a die that can be rolled.
func Validate(diceType int) error {
	if diceType < 1 || diceType > MaxFaces {
		return fmt.Errorf("%w: d%d", ErrInvalidDieSize, diceType)
	}
	return nil
}

// Seeded is a deterministic roller backed by a PCG source.
type Seeded struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeeded returns a roller whose sequence is fixed by seed.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Seeded) Roll(diceType int) (int, error) {
	if err := Validate(diceType); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(diceType) + 1, nil
}

const (
	CriticalSuccess = "success"
	CriticalFailure = "failure"
)

// Critical classifies natural 20s and natural 1s on a d20.
func Critical(diceType, result int) string {
	if diceType != 20 {
		return ""
	}
	switch result {
	case 20:
		return CriticalSuccess
	case 1:
		return CriticalFailure
	}
	return ""
}
