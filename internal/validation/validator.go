// Package validation checks request payloads before they reach persistence.
// Failures are reported as *domain.ValidationError listing the bad fields by
// their JSON names.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/quranchallenge/server/domain"
	"github.com/quranchallenge/server/domain/entities"
)

// Validator validates tagged request structs. It satisfies echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the project's custom tags registered:
// "category" for reading categories, "role" for user roles and "maxbytes"
// for a byte-length cap on strings (bcrypt reads at most 72 bytes).
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return entities.Category(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return entities.Role(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})

	return &Validator{validate: v}
}

// Validate implements echo.Validator
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, domain.FieldError{
			Field:  fe.Field(),
			Reason: reason(fe),
		})
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("must be at most %s bytes", fe.Param())
	case "email":
		return "must be a valid email address"
	case "category":
		return "must be one of Dua, Hadith, Quran, Hifdh"
	case "role":
		return "must be one of parent, imam, admin"
	}
	return "is invalid"
}

// TrimCategories trims whitespace from every category value
func TrimCategories(categories []entities.Category) []entities.Category {
	if categories == nil {
		return nil
	}
	out := make([]entities.Category, len(categories))
	for i, c := range categories {
		out[i] = entities.Category(strings.TrimSpace(string(c)))
	}
	return out
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD calendar date and
// returns it in UTC.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.NewValidationError(field, "must be a date (YYYY-MM-DD or RFC 3339)")
}
