// models/validation.go

package models

// ValidationStatus is the state of one email input field
type ValidationStatus string

const (
	StatusIdle       ValidationStatus = "idle"
	StatusTyping     ValidationStatus = "typing"
	StatusValidating ValidationStatus = "validating"
	StatusValid      ValidationStatus = "valid"
	StatusInvalid    ValidationStatus = "invalid"
)

// ValidationRequest is the body of the validate-email endpoint
type ValidationRequest struct {
	Email string `json:"email" validate:"required"`
}

// ValidationResult is the normalized deliverability verdict for one address
type ValidationResult struct {
	IsValid bool                   `json:"isValid"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// AbstractAPIResponse mirrors the fields we read from the AbstractAPI
// email validation payload. The full payload is passed through in
// ValidationResult.Details.
type AbstractAPIResponse struct {
	Email          string        `json:"email"`
	Deliverability string        `json:"deliverability"`
	IsValidFormat  AbstractFlag  `json:"is_valid_format"`
	IsSMTPValid    AbstractFlag  `json:"is_smtp_valid"`
	IsDisposable   *AbstractFlag `json:"is_disposable_email,omitempty"`
}

// AbstractFlag is AbstractAPI's {"value": bool, "text": "TRUE"} wrapper
type AbstractFlag struct {
	Value bool   `json:"value"`
	Text  string `json:"text,omitempty"`
}
