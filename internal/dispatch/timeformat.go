package dispatch

import (
	"strings"
	"time"
)

// TimestampFormat renders notification timestamps for the webhook payload.
// Pattern uses culture-style tokens (dd, MM, yyyy, HH, mm, ss, ...) as they
// appear in the deployment configs this service is pointed at. Locale is
// carried through from configuration; named months and weekdays render in
// English regardless, so it only documents intent for numeric patterns.
type TimestampFormat struct {
	Locale       string
	Pattern      string
	UseLocalTime bool
}

// Format renders t according to the configured pattern and timezone choice.
func (f TimestampFormat) Format(t time.Time) string {
	if f.UseLocalTime {
		t = t.Local()
	} else {
		t = t.UTC()
	}
	return t.Format(patternToLayout(f.Pattern))
}

// patternTokens maps culture-style tokens to Go reference-time layout
// fragments. Longest tokens must come first within each starting letter.
var patternTokens = []struct {
	token  string
	layout string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"dd", "02"},
	{"d", "2"},
	{"HH", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"tt", "PM"},
	{"fff", "000"},
	{"zzz", "-07:00"},
	{"zz", "-07"},
}

func patternToLayout(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		matched := false
		for _, pt := range patternTokens {
			if strings.HasPrefix(pattern[i:], pt.token) {
				b.WriteString(pt.layout)
				i += len(pt.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(pattern[i])
			i++
		}
	}
	return b.String()
}
