package core

// validation.go holds the field rules applied when a row is edited.
//
// Only one column is constrained: "Plate ID", a 10 character identifier made
// of 7 digits followed by 3 letters. Every other column is free text.

import (
	"fmt"
	"regexp"
)

// PlateIDColumn is the only column with a format rule.
const PlateIDColumn = "Plate ID"

// PlateIDLength is the exact length of a valid Plate ID.
const PlateIDLength = 10

// InvalidPlateIDMessage is shown when a Plate ID is rejected.
const InvalidPlateIDMessage = "Invalid Plate ID format. " + PlateIDHint

// PlateIDHint describes the expected Plate ID format to users.
const PlateIDHint = "Must be 10 characters: 7 numbers followed by 3 letters."

var plateIDPattern = regexp.MustCompile(`^[0-9]{7}[A-Za-z]{3}$`)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidatePlateID reports whether value is a well-formed Plate ID.
//
// Empty input, any length other than 10, or a value that is not 7 ASCII
// digits followed by 3 ASCII letters (either case) is rejected.
func ValidatePlateID(value string) bool {
	if value == "" || len(value) != PlateIDLength {
		return false
	}
	return plateIDPattern.MatchString(value)
}

// ValidatePlateField returns a *ValidationError when value is not a valid
// Plate ID, nil otherwise.
func ValidatePlateField(value string) error {
	if ValidatePlateID(value) {
		return nil
	}
	return &ValidationError{
		Field:   PlateIDColumn,
		Value:   value,
		Message: InvalidPlateIDMessage,
	}
}

// ValidateRow applies the field rules to every constrained column present
// in row.
func ValidateRow(row Row) error {
	if v, ok := row.Get(PlateIDColumn); ok {
		return ValidatePlateField(v)
	}
	return nil
}
