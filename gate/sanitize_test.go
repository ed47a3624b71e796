package gate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsInjectionPatterns(t *testing.T) {
	g := newTestGate(ModeLenient)

	p := validPayload()
	p.Name = "  <b>Ada</b>  "
	p.Message = `click javascript:alert(1) or <img onerror=hack()>`

	clean := g.Sanitize(p)
	assert.Equal(t, "bAda/b", clean.Name)
	assert.NotContains(t, clean.Message, "<")
	assert.NotContains(t, clean.Message, ">")
	assert.NotContains(t, strings.ToLower(clean.Message), "javascript:")
	assert.NotContains(t, strings.ToLower(clean.Message), "onerror=")
}

func TestSanitizeIsIdempotent(t *testing.T) {
	g := newTestGate(ModeLenient)

	p := validPayload()
	p.Name = "<script>alert('x')</script>"
	p.Subject = "oonload=nload=stillbad"
	p.Message = "JAVAjavascript:SCRIPT:deep"

	once := g.Sanitize(p)
	twice := g.Sanitize(once)
	assert.Equal(t, once, twice)
}

func TestSanitizeHandlesSplicedMatches(t *testing.T) {
	g := newTestGate(ModeLenient)

	p := validPayload()
	p.Message = "oonload=nload=x"

	clean := g.Sanitize(p)
	assert.NotContains(t, strings.ToLower(clean.Message), "onload=")
}

func TestSanitizeTruncatesLongFields(t *testing.T) {
	g := newTestGate(ModeLenient)

	p := validPayload()
	p.Message = strings.Repeat("a", 6000)

	clean := g.Sanitize(p)
	assert.Len(t, clean.Message, 5000)
}

func TestSanitizeLeavesCleanPayloadAlone(t *testing.T) {
	g := newTestGate(ModeLenient)

	p := validPayload()
	assert.Equal(t, p, g.Sanitize(p))
}
