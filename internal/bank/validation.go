package bank

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation failed")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their form name so messages line up with the inputs.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	if err := v.RegisterValidation("finite", isFinite); err != nil {
		panic(err)
	}
	return v
}

// isFinite rejects NaN and the infinities, which gte alone lets through.
func isFinite(fl validator.FieldLevel) bool {
	value := fl.Field().Float()
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

type TopicInput struct {
	Name        string `form:"name" validate:"required"`
	Description string `form:"description"`
}

type QuestionInput struct {
	Text       string  `form:"text" validate:"required"`
	TopicID    int64   `form:"topic_id" validate:"required,gt=0"`
	Difficulty int     `form:"difficulty" validate:"gte=1"`
	Points     float64 `form:"points" validate:"finite,gte=0"`
	Solution   string  `form:"solution"`
	IsActive   bool    `form:"is_active"`
}

type TestInput struct {
	Name  string `form:"name" validate:"required"`
	Date  string `form:"date"`
	Notes string `form:"notes"`
}

// TestQuestionsInput is the ordered selection for one test. The order of
// QuestionIDs becomes the print order.
type TestQuestionsInput struct {
	QuestionIDs []int64           `form:"question_ids" validate:"unique,dive,gt=0"`
	Overrides   map[int64]float64 `form:"points_override" validate:"dive,finite,gte=0"`
}

// ValidationError maps form field names to human-readable messages.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records the first message for a field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; ok {
		return
	}
	e.Fields[field] = message
}

func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Merge folds other into e and returns nil when nothing was recorded.
func (e *ValidationError) Merge(other *ValidationError) *ValidationError {
	if other.Empty() {
		if e.Empty() {
			return nil
		}
		return e
	}
	if e == nil {
		e = NewValidationError()
	}
	for field, message := range other.Fields {
		e.Add(field, message)
	}
	return e
}

func (e *ValidationError) Error() string {
	if e.Empty() {
		return ErrValidation.Error()
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validate checks an input struct and returns nil or a *ValidationError.
func Validate(input any) *ValidationError {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr := NewValidationError()
		verr.Add("form", err.Error())
		return verr
	}

	verr := NewValidationError()
	for _, fe := range fieldErrs {
		verr.Add(fieldName(fe), formatFieldError(fe))
	}
	return verr
}

// fieldName strips dive indexes so "question_ids[2]" reports as "question_ids".
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if idx := strings.IndexByte(name, '['); idx >= 0 {
		return name[:idx]
	}
	return name
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "finite":
		return "must be a number"
	case "unique":
		return "must not contain the same question twice"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
