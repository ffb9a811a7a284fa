package domain

import "errors"

var (
	// ErrUnsupportedConstituent is returned for names the catalog or a nodal scheme cannot resolve.
	ErrUnsupportedConstituent = errors.New("unsupported constituent")
	// ErrConstituentCombination is returned when a compound name cannot be decomposed
	// into primaries whose species add up.
	ErrConstituentCombination = errors.New("cannot interpret constituent combination")
	// ErrEpochNotSet is returned when corrections are requested before SetInitialTime.
	ErrEpochNotSet = errors.New("initial time not set")
	// ErrDimensionMismatch is returned when per-constituent inputs disagree in length.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
