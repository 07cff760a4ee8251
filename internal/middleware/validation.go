package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "milexcli/internal/errors"
	"milexcli/pkg/contracts/domain"
)

// Validator checks bound request structs against their `validate` tags.
// Field names in reported errors come from the `query` tag, falling back to
// `json`, so that clients see the parameter names they sent.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator with the custom rules registered
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("region", isRegion)
	_ = v.RegisterValidation("country", isCountryName)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{
		validate: v,
		logger:   logger.With(slog.String("component", "validator")),
	}
}

// ValidateStruct validates v and returns an *errors.APIError listing every
// rejected field, or nil.
func (m *Validator) ValidateStruct(v interface{}) error {
	err := m.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	m.logger.Debug("request validation failed", slog.Int("fields", len(out)))
	return apperrors.NewValidationErrors(out)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "region":
		return fmt.Sprintf("%s must be a known region key", field)
	case "country":
		return fmt.Sprintf("%s must be a country name", field)
	case "dive":
		return fmt.Sprintf("%s contains an invalid entry", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isRegion accepts the five spreadsheet base names
func isRegion(fl validator.FieldLevel) bool {
	_, err := domain.ParseRegion(fl.Field().String())
	return err == nil
}

// isCountryName rejects blank names and control characters
func isCountryName(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	if name == "" || len(name) > 128 {
		return false
	}
	for _, ch := range name {
		if ch < 0x20 || ch == 0x7f {
			return false
		}
	}
	return true
}
