// Package extract turns recognized workout-screenshot text into a partially
// populated activity record.
//
// Each field has one labeled pattern. A field whose pattern does not match,
// or whose matched value does not parse, is left nil; nothing is reported
// as an error because every field is reviewed by the athlete before it is
// submitted. The date is the exception: when no date is found it is taken
// from the clock and DateInferred is set.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/okian/sportid/internal/domain/model"
)

// KilometersPerMile converts miles to kilometers.
const KilometersPerMile = 1.60934

// isoLayout matches JavaScript's Date.toISOString output.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	distancePattern = regexp.MustCompile(`(?i)(?:distance|covered|ran|run)(?:[^\d]*)([\d.]+)(?:\s*)(km|mi|miles|kilometers)`)
	durationPattern = regexp.MustCompile(`(?i)(?:duration|time|elapsed)(?:[^\d]*)([\d.:]+)(?:\s*)(hours|hour|hr|hrs|minutes|minute|min|mins|seconds|second|sec|secs)`)
	caloriesPattern = regexp.MustCompile(`(?i)(?:calories|energy|kcal|cal|cals)(?:[^\d]*)([\d.,]+)`)
	pacePattern     = regexp.MustCompile(`(?i)(?:pace|avg pace|average pace)(?:[^\d]*)([\d.:]+)(?:\s*)(min/km|min/mi|/km|/mile)`)
	datePattern     = regexp.MustCompile(`(?i)(?:date|on)(?:[^\d]*)(\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4}[-/]\d{1,2}[-/]\d{1,2})`)
)

// Date layouts tried in order after '-' separators are folded to '/'.
// Month-first comes before day-first so 05/01/2023 is May 1st.
var dateLayouts = []string{
	"1/2/2006",
	"1/2/06",
	"2006/1/2",
	"2/1/2006",
	"2/1/06",
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock replaces time.Now for the date fallback.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// Extractor applies the field patterns. It holds no mutable state and is
// safe for concurrent use.
type Extractor struct {
	now func() time.Time
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = New()

// Extract runs the default Extractor.
func Extract(text string, defaultType model.SportType, confidence float64) model.ExtractedActivityData {
	return defaultExtractor.Extract(text, defaultType, confidence)
}

// Extract parses text into an activity record. defaultType seeds Type and
// confidence is copied through unchanged.
func (e *Extractor) Extract(text string, defaultType model.SportType, confidence float64) model.ExtractedActivityData {
	// NFKC folds full-width digits and compatibility characters that OCR
	// engines emit into plain ASCII.
	text = norm.NFKC.String(text)

	out := model.ExtractedActivityData{
		Distance:   Distance(text),
		Duration:   Duration(text),
		Calories:   Calories(text),
		Pace:       Pace(text),
		Confidence: confidence,
	}
	if defaultType != "" {
		t := defaultType
		out.Type = &t
	}

	if d, ok := Date(text); ok {
		out.Date = &d
	} else {
		now := e.now().UTC().Format(isoLayout)
		out.Date = &now
		out.DateInferred = true
	}
	return out
}

// Distance returns the distance in kilometers.
func Distance(text string) *float64 {
	m := distancePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	if strings.Contains(strings.ToLower(m[2]), "mi") {
		v *= KilometersPerMile
	}
	return &v
}

// Duration returns the duration in whole minutes.
func Duration(text string) *float64 {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	parts, ok := splitClock(m[1])
	if !ok {
		return nil
	}
	unit := strings.ToLower(m[2])

	var minutes float64
	switch len(parts) {
	case 3:
		minutes = parts[0]*60 + parts[1] + parts[2]/60
	case 2:
		minutes = parts[0] + parts[1]/60
	case 1:
		switch {
		case strings.HasPrefix(unit, "h"):
			minutes = parts[0] * 60
		case strings.HasPrefix(unit, "min"):
			minutes = parts[0]
		case strings.HasPrefix(unit, "sec"):
			minutes = parts[0] / 60
		}
	default:
		return nil
	}
	minutes = roundHalfUp(minutes)
	return &minutes
}

// Calories returns the calorie count with thousands separators removed.
func Calories(text string) *int {
	m := caloriesPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	digits := strings.NewReplacer(",", "", ".", "").Replace(m[1])
	v, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &v
}

// Pace returns minutes per kilometer.
func Pace(text string) *float64 {
	m := pacePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	parts, ok := splitClock(m[1])
	if !ok {
		return nil
	}

	var minutes float64
	switch len(parts) {
	case 2:
		minutes = parts[0] + parts[1]/60
	case 1:
		minutes = parts[0]
	default:
		return nil
	}
	if strings.Contains(strings.ToLower(m[2]), "/mi") {
		minutes /= KilometersPerMile
	}
	return &minutes
}

// Date returns the labeled date as an ISO-8601 UTC timestamp.
func Date(text string) (string, bool) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	raw := strings.ReplaceAll(m[1], "-", "/")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(isoLayout), true
		}
	}
	return "", false
}

// splitClock splits "h:mm:ss", "mm:ss" or "n" into numbers. Empty or
// non-numeric parts make the whole token unparseable.
func splitClock(s string) ([]float64, bool) {
	fields := strings.Split(s, ":")
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
