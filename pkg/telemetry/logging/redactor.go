package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"rapidresq/resq/pkg/config"
)

// Redactor masks caller details in log fields.
type Redactor struct {
	patterns []*redactPattern
	location bool
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternPhone       = "phone"
	PatternEmail       = "email"
	PatternBearerToken = "bearer_token"
	PatternGPS         = "gps"
)

var (
	phoneRegex = regexp.MustCompile(`(?:\+92[- ]?|\b0)3\d{2}[- ]?\d{7}\b`)
	gpsRegex   = regexp.MustCompile(`(?i)(gps:)?-?\d{1,2}\.\d+,\s*-?\d{1,3}\.\d+`)
)

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = []string{"contact", "phone", "caller", "authorization", "token"}

// locationKeys are masked only in location-protected mode.
var locationKeys = []string{"location", "coordinates", "gps"}

// NewRedactor creates a redactor with the built-in patterns followed by
// customPatterns. Invalid custom patterns are skipped. When redactLocation
// is set, GPS coordinates and location fields are masked too.
func NewRedactor(customPatterns []config.RedactPattern, redactLocation bool) *Redactor {
	r := &Redactor{location: redactLocation}

	r.patterns = append(r.patterns,
		&redactPattern{
			name:        PatternEmail,
			regex:       regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
			replacement: "***@***",
		},
		&redactPattern{
			name:        PatternBearerToken,
			regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
			replacement: "Bearer ***",
		},
		&redactPattern{name: PatternPhone, regex: phoneRegex, replacement: "***-***-****"},
	)
	if redactLocation {
		r.patterns = append(r.patterns, &redactPattern{name: PatternGPS, regex: gpsRegex, replacement: "GPS:***"})
	}

	for _, p := range customPatterns {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		})
	}
	return r
}

// RedactString applies every pattern to value.
func (r *Redactor) RedactString(value string) string {
	if r == nil || value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr masks a single attribute, descending into groups.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	if r == nil {
		return a
	}
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, g := range group {
			out[i] = r.RedactAttr(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		s := a.Value.String()
		switch {
		case r.isSensitiveKey(a.Key):
			return slog.String(a.Key, RedactPhone(s))
		case r.location && matchesKey(a.Key, locationKeys):
			return slog.String(a.Key, "***")
		}
		return slog.String(a.Key, r.RedactString(s))
	case slog.KindAny:
		if r.isSensitiveKey(a.Key) || (r.location && matchesKey(a.Key, locationKeys)) {
			return slog.String(a.Key, "***")
		}
	}
	return a
}

func (r *Redactor) isSensitiveKey(key string) bool {
	return matchesKey(key, sensitiveKeys)
}

func matchesKey(key string, keys []string) bool {
	lower := strings.ToLower(key)
	for _, k := range keys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// RedactPhone masks a phone number, keeping the last three digits. Short
// service numbers such as 15 or 1122 are left as they are.
func RedactPhone(phone string) string {
	digits := 0
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	if digits <= 4 {
		return phone
	}
	if len(phone) <= 3 {
		return "***"
	}
	return "***" + phone[len(phone)-3:]
}
