package workout

import (
	"math"
	"time"
)

// SetVariant is the work performed in a single set. The variant matches the
// exercise's type, so a timed exercise never smuggles its duration through a
// reps field.
type SetVariant interface {
	isSetVariant()
}

// Bilateral is a regular weight-and-reps set.
type Bilateral struct {
	WeightKg float64
	Reps     int
}

// Side tells which side of the body a unilateral set was performed on.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
	// SideBoth covers alternating movements logged as one set.
	SideBoth Side = "both"
)

// Unilateral is a weight-and-reps set performed one side at a time.
type Unilateral struct {
	WeightKg float64
	Reps     int
	Side     Side
}

// Timed is a set held for a duration, e.g. a plank.
type Timed struct {
	Seconds int
}

// Bodyweight is a set loaded with bodyweight only.
type Bodyweight struct {
	Reps int
}

func (Bilateral) isSetVariant()  {}
func (Unilateral) isSetVariant() {}
func (Timed) isSetVariant()      {}
func (Bodyweight) isSetVariant() {}

// SetEntry is one completed unit of work within an exercise. Immutable once
// logged; the only mutation path is appending new sets or abandoning the
// whole session.
type SetEntry struct {
	Number   int
	Variant  SetVariant
	RPE      float64
	LoggedAt time.Time
}

// WeightKg returns the external load of the set. Timed and bodyweight sets
// carry no load.
func (e SetEntry) WeightKg() float64 {
	switch v := e.Variant.(type) {
	case Bilateral:
		return v.WeightKg
	case Unilateral:
		return v.WeightKg
	default:
		return 0
	}
}

// Reps returns the repetition count of the set. For timed sets this is the
// held duration in seconds, which keeps rep-range comparisons meaningful for
// duration-prescribed exercises.
func (e SetEntry) Reps() int {
	switch v := e.Variant.(type) {
	case Bilateral:
		return v.Reps
	case Unilateral:
		return v.Reps
	case Timed:
		return v.Seconds
	case Bodyweight:
		return v.Reps
	default:
		return 0
	}
}

// VolumeKg returns weight times reps for the set.
func (e SetEntry) VolumeKg() float64 {
	return e.WeightKg() * float64(e.Reps())
}

// ValidationError is a user-input error with a human-readable reason. The
// session stays untouched when one is returned.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

const (
	maxPlausibleReps     = 100
	maxPlausibleWeightKg = 500
	minRPE               = 6
	maxRPE               = 10
)

// validateSet checks a set before it is appended, short-circuiting on the
// first failure. The variant is checked before the RPE.
func validateSet(variant SetVariant, rpe float64) *ValidationError {
	if verr := validateVariant(variant); verr != nil {
		return verr
	}
	return validateRPE(rpe)
}

func validateVariant(variant SetVariant) *ValidationError {
	switch v := variant.(type) {
	case Bilateral:
		return validateLoadedSet(v.WeightKg, v.Reps)
	case Unilateral:
		return validateLoadedSet(v.WeightKg, v.Reps)
	case Timed:
		if v.Seconds <= 0 {
			return &ValidationError{msg: "Enter duration (seconds)"}
		}
		if v.Seconds > maxPlausibleReps {
			return &ValidationError{msg: "Reps seem too high — double check"}
		}
		return nil
	case Bodyweight:
		if v.Reps <= 0 {
			return &ValidationError{msg: "Enter reps"}
		}
		if v.Reps > maxPlausibleReps {
			return &ValidationError{msg: "Reps seem too high — double check"}
		}
		return nil
	default:
		return &ValidationError{msg: "Unknown set type"}
	}
}

// validateRPE enforces the 6.0 to 10.0 effort scale in half-point steps.
func validateRPE(rpe float64) *ValidationError {
	if rpe < minRPE || rpe > maxRPE {
		return &ValidationError{msg: "RPE must be between 6 and 10"}
	}
	if math.Mod(rpe*2, 1) != 0 { //nolint:mnd // half-point steps.
		return &ValidationError{msg: "RPE moves in half steps"}
	}
	return nil
}

func validateLoadedSet(weightKg float64, reps int) *ValidationError {
	if weightKg <= 0 {
		return &ValidationError{msg: "Enter weight (kg)"}
	}
	if reps <= 0 {
		return &ValidationError{msg: "Enter reps"}
	}
	if reps > maxPlausibleReps {
		return &ValidationError{msg: "Reps seem too high — double check"}
	}
	if weightKg > maxPlausibleWeightKg {
		return &ValidationError{msg: "Weight seems too high — double check"}
	}
	return nil
}
