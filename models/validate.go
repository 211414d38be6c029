package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	errs "github.com/phillip/chama-tracker-go/errs"
)

var validate = newValidator()

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names, not Go names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidMonth reports whether month is a YYYY-MM key for a real calendar month.
func ValidMonth(month string) bool {
	if !monthPattern.MatchString(month) {
		return false
	}
	_, err := time.Parse("2006-01", month)
	return err == nil
}

func CheckMonth(month string) error {
	if !ValidMonth(month) {
		return &errs.ValidationError{
			ErrorMessage: errs.ErrorMessage{Message: "Valid month (YYYY-MM) is required"},
			Field:        "month",
		}
	}
	return nil
}

// Validate checks that every required field is present, numeric and non-negative.
func (r *MonthlyReport) Validate() error {
	if r == nil {
		return errs.NewValidationError("Valid data object is required")
	}
	return fieldError(validate.Struct(r), nil)
}

var contributionMessages = map[string]string{
	"amount": "Valid positive amount is required",
}

// Validate checks the payload for the given month. The month's own entry in
// Contributions must be present and positive.
func (in *ContributionInput) Validate(month string) error {
	if in == nil {
		return errs.NewValidationError("Valid data object is required")
	}
	if strings.TrimSpace(in.MemberName) == "" {
		return errs.NewFieldError("member_name")
	}
	if err := fieldError(validate.Struct(in), contributionMessages); err != nil {
		var ve *errs.ValidationError
		if errors.As(err, &ve) && ve.Field == "contributions" {
			return missingMonth(month)
		}
		return err
	}
	if v, ok := in.Contributions[month]; !ok || v <= 0 {
		return missingMonth(month)
	}
	return nil
}

func missingMonth(month string) error {
	return &errs.ValidationError{
		ErrorMessage: errs.ErrorMessage{Message: fmt.Sprintf("Contribution for %s is required", month)},
		Field:        "contributions",
	}
}

// fieldError turns the first validator failure into a field-specific ValidationError.
func fieldError(err error, messages map[string]string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errs.NewValidationError(err.Error())
	}
	field := verrs[0].Field()
	if msg, ok := messages[field]; ok {
		return &errs.ValidationError{ErrorMessage: errs.ErrorMessage{Message: msg}, Field: field}
	}
	return errs.NewFieldError(field)
}
