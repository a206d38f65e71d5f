package validator

import (
	"errors"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"value,omitempty"`
}

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})
	// finite rejects NaN and ±Inf, which gte/gt let through for +Inf
	validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		if f, ok := fl.Field().Interface().(float64); ok {
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		}
		return true
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var failures []*ErrorResponse
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []*ErrorResponse{{FailedField: "request", Tag: "invalid"}}
	}
	for _, err := range verrs {
		var element ErrorResponse
		element.FailedField = err.StructNamespace()
		element.Tag = err.Tag()
		element.Value = err.Param()
		failures = append(failures, &element)
	}
	return failures
}
