package gate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/layer-3/mailgate/core"
)

// emailPattern is deliberately conservative: local@domain.tld with a dotted
// domain and no whitespace. Exotic but RFC-valid addresses are rejected.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// suspiciousWords is the strict-mode placeholder/spam wordlist. Substring
// matching is case-insensitive and known to false-positive on legitimate
// input, which is why it only runs in ModeStrict.
var suspiciousWords = []string{
	"test test",
	"asdf",
	"qwerty",
	"lorem ipsum",
	"example.com",
	"viagra",
	"casino",
	"xxx",
}

// fieldLimits mirrors the validate tags on core.ContactPayload; kept here so
// error messages can state the limit that was exceeded.
var fieldLimits = map[string]int{
	"name":         100,
	"email":        254,
	"company":      200,
	"phone":        40,
	"subject":      200,
	"message":      5000,
	"service_type": 100,
}

// Validate checks payload against the required-field, length and syntax
// rules. All violations are reported together; an empty result means the
// payload is valid. Validation is pure: no I/O, no mutation.
func (g *Gate) Validate(payload core.ContactPayload) []core.FieldError {
	var errs []core.FieldError

	if err := g.validate.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, ve := range verrs {
				errs = append(errs, fieldErrorFrom(ve))
			}
		} else {
			errs = append(errs, core.FieldError{Field: "payload", Reason: err.Error()})
		}
	}

	if payload.Email != "" && !emailPattern.MatchString(payload.Email) {
		errs = append(errs, core.FieldError{Field: "email", Reason: "is not a valid email address"})
	}

	if g.cfg.Mode == ModeStrict {
		errs = append(errs, g.suspiciousFields(payload)...)
	}

	return errs
}

func (g *Gate) suspiciousFields(payload core.ContactPayload) []core.FieldError {
	var errs []core.FieldError
	fields := map[string]string{
		"name":    payload.Name,
		"subject": payload.Subject,
		"message": payload.Message,
	}
	for field, value := range fields {
		lower := strings.ToLower(value)
		for _, word := range suspiciousWords {
			if strings.Contains(lower, word) {
				errs = append(errs, core.FieldError{Field: field, Reason: "contains suspicious content"})
				break
			}
		}
	}
	return errs
}

func fieldErrorFrom(ve validator.FieldError) core.FieldError {
	field := jsonFieldName(ve.Field())
	switch ve.Tag() {
	case "required":
		return core.FieldError{Field: field, Reason: "is required"}
	case "max":
		if limit, ok := fieldLimits[field]; ok {
			return core.FieldError{Field: field, Reason: fmt.Sprintf("exceeds maximum length of %d characters", limit)}
		}
		return core.FieldError{Field: field, Reason: "exceeds maximum length"}
	}
	return core.FieldError{Field: field, Reason: "is invalid"}
}

// jsonFieldName maps the Go struct field name to its json tag form.
func jsonFieldName(structField string) string {
	switch structField {
	case "ServiceType":
		return "service_type"
	default:
		return strings.ToLower(structField)
	}
}
