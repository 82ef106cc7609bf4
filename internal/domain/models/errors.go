package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrModelNotFound     = errors.New("model not found")
	ErrTrainingFailure   = errors.New("training failed")
	ErrPredictionFailure = errors.New("prediction failed")
)

// ModelNotFoundError reports every artifact location searched for a key.
type ModelNotFoundError struct {
	Key       string
	Attempted []string
}

func (e *ModelNotFoundError) Error() string {
	if len(e.Attempted) == 0 {
		return fmt.Sprintf("model not found for %q", e.Key)
	}
	return fmt.Sprintf("model not found for %q at %s", e.Key, strings.Join(e.Attempted, ", "))
}

func (e *ModelNotFoundError) Is(target error) bool { return target == ErrModelNotFound }
