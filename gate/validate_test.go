package gate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/layer-3/mailgate/core"
)

func newTestGate(mode Mode) *Gate {
	return NewGate(Config{
		Mode:                 mode,
		AllowedSenderDomains: []string{"example.org"},
	}, zap.NewNop())
}

func validPayload() core.ContactPayload {
	return core.ContactPayload{
		Name:        "Ada Lovelace",
		Email:       "ada@numbers.io",
		Company:     "Analytical Engines Ltd",
		Phone:       "+44 20 7946 0000",
		Subject:     "Partnership inquiry",
		Message:     "We would like to discuss an integration.",
		ServiceType: "consulting",
	}
}

func fieldsOf(errs []core.FieldError) []string {
	fields := make([]string, len(errs))
	for i, fe := range errs {
		fields[i] = fe.Field
	}
	return fields
}

func TestValidateAcceptsValidPayload(t *testing.T) {
	g := newTestGate(ModeLenient)
	assert.Empty(t, g.Validate(validPayload()))
}

func TestValidateRequiredFields(t *testing.T) {
	g := newTestGate(ModeLenient)

	errs := g.Validate(core.ContactPayload{})
	fields := fieldsOf(errs)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "message")
	assert.Contains(t, fields, "service_type")
	assert.NotContains(t, fields, "company")
	assert.NotContains(t, fields, "phone")
}

func TestValidateLengthErrorNamesOnlyTheLongField(t *testing.T) {
	g := newTestGate(ModeLenient)

	p := validPayload()
	p.Message = strings.Repeat("a", 5001)

	errs := g.Validate(p)
	assert.Equal(t, []string{"message"}, fieldsOf(errs))
	assert.Contains(t, errs[0].Reason, "5000")
}

func TestValidateEmailSyntax(t *testing.T) {
	g := newTestGate(ModeLenient)

	for _, email := range []string{"plainaddress", "a@b", "a b@c.d", "a@b c.d"} {
		p := validPayload()
		p.Email = email
		errs := g.Validate(p)
		assert.Contains(t, fieldsOf(errs), "email", "email %q", email)
	}
}

func TestValidateSuspiciousContentOnlyInStrictMode(t *testing.T) {
	p := validPayload()
	p.Message = "please visit example.com for lorem ipsum"

	assert.Empty(t, newTestGate(ModeLenient).Validate(p))

	errs := newTestGate(ModeStrict).Validate(p)
	assert.Equal(t, []string{"message"}, fieldsOf(errs))
	assert.Equal(t, "contains suspicious content", errs[0].Reason)
}

func TestValidateAccumulatesAllViolations(t *testing.T) {
	g := newTestGate(ModeLenient)

	p := core.ContactPayload{
		Email:       "not-an-email",
		Message:     strings.Repeat("m", 5001),
		ServiceType: "consulting",
	}
	fields := fieldsOf(g.Validate(p))
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "message")
}
