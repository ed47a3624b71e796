package gate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/layer-3/mailgate/core"
)

// maxMessageBytes bounds the combined size of subject, HTML and text bodies.
const maxMessageBytes = 100 * 1024

// maxLinkCount flags messages carrying more anchors than a legitimate
// contact email plausibly would.
const maxLinkCount = 20

// threatPatterns are matched against the rendered bodies. The scan runs on
// rendered content rather than the raw payload because template
// interpolation can reintroduce risk after per-field sanitization.
var threatPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"script tag injection", regexp.MustCompile(`(?is)<script\b`)},
	{"javascript uri", regexp.MustCompile(`(?i)javascript:`)},
	{"vbscript uri", regexp.MustCompile(`(?i)vbscript:`)},
	{"inline event handler", regexp.MustCompile(`(?i)\bon\w+\s*=`)},
	{"iframe tag", regexp.MustCompile(`(?is)<iframe\b`)},
	{"object tag", regexp.MustCompile(`(?is)<object\b`)},
	{"embed tag", regexp.MustCompile(`(?is)<embed\b`)},
	{"form tag", regexp.MustCompile(`(?is)<form\b`)},
	{"input tag", regexp.MustCompile(`(?is)<input\b`)},
	{"meta tag", regexp.MustCompile(`(?is)<meta\b`)},
	{"link tag", regexp.MustCompile(`(?is)<link\b`)},
}

var anchorPattern = regexp.MustCompile(`(?is)<a\s`)

var urlPattern = regexp.MustCompile(`(?i)https?://[^\s"'<>]+`)

// badURLSubstrings flags URLs pointing at known-bad hosts or shorteners
// commonly used to mask them.
var badURLSubstrings = []string{
	"phish",
	"malware",
	"bit.ly/",
	"tinyurl.com/",
}

// ScanContent scans one rendered message for injection patterns and link
// abuse. Every triggered check is accumulated into the threat list; the scan
// never stops at the first hit, so the result is informative rather than
// just boolean.
func (g *Gate) ScanContent(subject, html, text string) core.SecurityCheckResult {
	var threats []string

	if total := len(subject) + len(html) + len(text); total > maxMessageBytes {
		threats = append(threats, fmt.Sprintf("message size %d exceeds maximum %d bytes", total, maxMessageBytes))
	}

	combined := subject + "\n" + html + "\n" + text
	for _, tp := range threatPatterns {
		if tp.pattern.MatchString(combined) {
			threats = append(threats, tp.name)
		}
	}

	if n := len(anchorPattern.FindAllStringIndex(html, -1)); n > maxLinkCount {
		threats = append(threats, fmt.Sprintf("excessive links: %d anchors (limit %d)", n, maxLinkCount))
	}

	for _, url := range urlPattern.FindAllString(combined, -1) {
		lower := strings.ToLower(url)
		for _, bad := range badURLSubstrings {
			if strings.Contains(lower, bad) {
				threats = append(threats, "blocklisted url: "+bad)
			}
		}
	}

	result := core.SecurityCheckResult{
		Passed:  len(threats) == 0,
		Threats: threats,
		SPF:     core.SPFResult{Valid: true},
	}
	if !result.Passed {
		result.Reason = fmt.Sprintf("%d content threats detected", len(threats))
	}
	return result
}
