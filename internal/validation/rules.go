// Package validation provides shared request validation rules.
package validation

import (
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/opentab/gatekeeper/internal/errors"
)

// WrapValidationError converts a validation failure into the domain's
// invalid-input error so handlers map it to a 422.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank rejects strings that are empty after trimming whitespace.
// validation.Required alone accepts "   ".
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace rejects strings with leading or trailing whitespace. Login
// identifiers are stored trimmed, so a padded value would never match.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)
