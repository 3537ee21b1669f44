package solver

import (
	"errors"
	"sync"

	"gonum.org/v1/gonum/optimize"
)

var errTrapped = errors.New("objective panicked")

// trap keeps the first panic raised by an objective or gradient call. As an
// optimize.Recorder it stops the run at the next recorded operation.
type trap struct {
	mu  sync.Mutex
	val any
	set bool
}

func (t *trap) record(r any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.set {
		t.val, t.set = r, true
	}
}

func (t *trap) caught() (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.val, t.set
}

func (t *trap) Init() error { return nil }

func (t *trap) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	if _, ok := t.caught(); ok {
		return errTrapped
	}
	return nil
}
