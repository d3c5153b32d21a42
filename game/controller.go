package game

import (
	"errors"
	"fmt"
	"math"
)

// ObservationSize is the length of the input vector every controller receives:
// bird Y, reference gap top, reference gap bottom.
const ObservationSize = 3

// ErrControllerFault wraps every failed controller call. Faults never end a
// generation; the agent simply does not jump that tick.
var ErrControllerFault = errors.New("controller fault")

// Controller maps an observation to an action vector. Only outputs[0] is read.
// With sim.parallel_decisions enabled, Decide is called from worker goroutines,
// so one Controller value must not back two entrants.
type Controller interface {
	Decide(inputs []float64) ([]float64, error)
}

// ControllerFunc adapts a plain function to the Controller interface.
type ControllerFunc func(inputs []float64) ([]float64, error)

// Decide calls f.
func (f ControllerFunc) Decide(inputs []float64) ([]float64, error) {
	return f(inputs)
}

// Entrant is one participant of a generation.
type Entrant struct {
	ID         int
	Controller Controller
}

// kinded is implemented by controllers that report their implementation name.
type kinded interface {
	Kind() string
}

// controllerKind returns the reported kind, or "unknown".
func controllerKind(c Controller) string {
	if k, ok := c.(kinded); ok {
		return k.Kind()
	}
	return "unknown"
}

// decide runs one controller call and reduces it to the first output.
// Errors, panics, empty output and non-finite values all become ErrControllerFault.
func decide(c Controller, inputs []float64) (out float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = 0, fmt.Errorf("%w: panic: %v", ErrControllerFault, r)
		}
	}()

	outputs, err := c.Decide(inputs)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrControllerFault, err)
	}
	if len(outputs) == 0 {
		return 0, fmt.Errorf("%w: empty output", ErrControllerFault)
	}

	v := outputs[0]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: non-finite output %v", ErrControllerFault, v)
	}
	return v, nil
}
