package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	viewingserrors "roombook/internal/viewings/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/go-playground/validator/v10"
)

// MinLeadTime is how far ahead of now a viewing must start.
const MinLeadTime = 15 * time.Minute

const (
	CodeMissingField  = "missing_field"
	CodeInvalidLength = "invalid_length"
	CodePastStartTime = "past_start_time"
	CodeConflict      = "conflict"

	// FieldBase tags failures that belong to the record as a whole.
	FieldBase = "base"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Kind    error  `json:"-"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

func (v ValidationError) Unwrap() error {
	return v.Kind
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, err := range v {
		errs = append(errs, err)
	}
	return errs
}

// Has reports whether any failure is of the given kind.
func (v ValidationErrors) Has(kind error) bool {
	for _, err := range v {
		if errors.Is(err.Kind, kind) {
			return true
		}
	}
	return false
}

// Merge returns input followed by the failures in v on fields input does not
// already report. input describes values that could not be read at all, which
// makes v's opinion of the same field meaningless.
func (v ValidationErrors) Merge(input ValidationErrors) ValidationErrors {
	if len(input) == 0 {
		return v
	}

	seen := make(map[string]bool, len(input))
	merged := make(ValidationErrors, 0, len(input)+len(v))
	for _, err := range input {
		seen[err.Field] = true
		merged = append(merged, err)
	}
	for _, err := range v {
		if !seen[err.Field] {
			merged = append(merged, err)
		}
	}
	return merged
}

// OnlyConflicts is true when the record is well formed but its slot is taken.
func (v ValidationErrors) OnlyConflicts() bool {
	if len(v) == 0 {
		return false
	}
	for _, err := range v {
		if !errors.Is(err.Kind, viewingserrors.ErrConflict) {
			return false
		}
	}
	return true
}

type ViewingValidator struct {
	validate *validator.Validate
}

func NewViewingValidator(log *logger.Logger) *ViewingValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	log.Info("Viewing validator initialized successfully", "min_lead_time", MinLeadTime)

	return &ViewingValidator{validate: v}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// Validate checks candidate against the room's existing viewings as of now.
// On success it returns a copy with EndTime derived; otherwise every failure
// found, never just the first. The input is not modified.
func (v *ViewingValidator) Validate(candidate model.Viewing, existing []*model.Viewing, now time.Time) (*model.Viewing, ValidationErrors) {
	derived := candidate
	derived.EndTime = time.Time{}
	if end, ok := CalculateEndTime(candidate.StartTime, candidate.Length); ok {
		derived.EndTime = end
	}

	errs := v.checkFields(&derived)

	if !derived.StartTime.IsZero() && derived.StartTime.Before(now.Add(MinLeadTime)) {
		errs = append(errs, ValidationError{
			Field:   "start_time",
			Code:    CodePastStartTime,
			Message: fmt.Sprintf("must be at least %d minutes from present time", int(MinLeadTime.Minutes())),
			Kind:    viewingserrors.ErrPastStartTime,
		})
	}

	if !derived.EndTime.IsZero() && len(Conflicting(derived, existing)) > 0 {
		errs = append(errs, ValidationError{
			Field:   FieldBase,
			Code:    CodeConflict,
			Message: "Slot has already been booked for viewing",
			Kind:    viewingserrors.ErrConflict,
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &derived, nil
}

// Conflicting returns the viewings in existing whose span overlaps candidate.
// An entry sharing the candidate's ID is its own stored state and is skipped.
func Conflicting(candidate model.Viewing, existing []*model.Viewing) []*model.Viewing {
	span := Interval{Start: candidate.StartTime, End: candidate.EndTime}

	var conflicts []*model.Viewing
	for _, e := range existing {
		if e == nil {
			continue
		}
		if candidate.ID != "" && e.ID == candidate.ID {
			continue
		}
		if span.Conflicts(Interval{Start: e.StartTime, End: e.EndTime}) {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}

func (v *ViewingValidator) checkFields(viewing *model.Viewing) ValidationErrors {
	err := v.validate.Struct(viewing)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{
			Field:   FieldBase,
			Code:    CodeMissingField,
			Message: err.Error(),
			Kind:    viewingserrors.ErrMissingField,
		}}
	}
	return translateValidationErrors(fieldErrs)
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		if err.StructField() == "Length" {
			message := "must be greater than 0"
			if err.Tag() == "required" {
				message = "can't be blank"
			}
			validationErrors = append(validationErrors, ValidationError{
				Field:   err.Field(),
				Code:    CodeInvalidLength,
				Message: message,
				Kind:    viewingserrors.ErrInvalidLength,
			})
			continue
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Code:    CodeMissingField,
			Message: "can't be blank",
			Kind:    viewingserrors.ErrMissingField,
		})
	}

	return validationErrors
}
