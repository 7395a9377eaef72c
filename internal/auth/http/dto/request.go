// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/opentab/gatekeeper/internal/validation"
	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
)

// LoginRequest contains a credential presentation.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Platform string `json:"platform"`
	Source   string `json:"source"`
}

// Validate checks if the login request is valid.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Login,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(1, 1024),
		),
		validation.Field(&r.Platform,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Source,
			validation.Required,
			validation.In(
				string(sessionDomain.SourcePassword),
				string(sessionDomain.SourcePIN),
				string(sessionDomain.SourceBadge),
				string(sessionDomain.SourceAPIKey),
			),
		),
	)
}
