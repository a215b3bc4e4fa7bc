package validation

import (
	"regexp"
	"strings"
)

// Signature lists for the generic-input screen. Anything matching is
// rejected outright rather than sanitized: free-text fields on this
// surface never legitimately carry SQL or markup.

var sqlSignatures = []string{
	"union select",
	"insert into",
	"delete from",
	"drop table",
	"drop database",
	"truncate table",
	"exec(",
	"execute(",
	"xp_cmdshell",
	"information_schema",
	"; --",
	"' or '1'='1",
	"\" or \"1\"=\"1",
	"or 1=1",
}

var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[\s>]`),
	regexp.MustCompile(`(?i)</script>`),
	regexp.MustCompile(`(?i)<iframe[\s>]`),
	regexp.MustCompile(`(?i)<object[\s>]`),
	regexp.MustCompile(`(?i)<embed[\s>]`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)vbscript\s*:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
	regexp.MustCompile(`(?i)data\s*:\s*text/html`),
	regexp.MustCompile(`(?i)expression\s*\(`),
}

// Clusters of punctuation that only show up in injection payloads.
var suspiciousClusters = regexp.MustCompile(`['"][\s]*;|--[\s]*$|/\*.*\*/`)

// screenInjection reports whether the value matches a SQL-injection or
// XSS signature, and which family matched.
func screenInjection(value string) (bool, string) {
	lower := strings.ToLower(value)

	for _, sig := range sqlSignatures {
		if strings.Contains(lower, sig) {
			return true, "sql"
		}
	}
	if suspiciousClusters.MatchString(value) {
		return true, "sql"
	}

	for _, pattern := range xssPatterns {
		if pattern.MatchString(value) {
			return true, "script"
		}
	}

	return false, ""
}

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	jsProtocol    = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandler  = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// stripDangerous removes markup-significant fragments from free text
// that passed screening.
func stripDangerous(value string) string {
	out := angleBrackets.ReplaceAllString(value, "")
	out = jsProtocol.ReplaceAllString(out, "")
	out = eventHandler.ReplaceAllString(out, "")
	return out
}
