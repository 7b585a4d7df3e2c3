package model

import "time"

// VerificationSource records how an activity was verified.
type VerificationSource string

// Verification sources.
const (
	VerificationManual     VerificationSource = "manual"
	VerificationScreenshot VerificationSource = "screenshot"
	VerificationAPI        VerificationSource = "api"
)

// Extracted field names, as reported in metrics and logs.
const (
	FieldType     = "type"
	FieldDuration = "duration"
	FieldDistance = "distance"
	FieldCalories = "calories"
	FieldPace     = "pace"
	FieldDate     = "date"
)

// ExtractedActivityData is the partially populated record produced from
// recognized screenshot text. Nil fields were not found.
type ExtractedActivityData struct {
	Type     *SportType `json:"type,omitempty"`
	Duration *float64   `json:"duration,omitempty"` // minutes
	Distance *float64   `json:"distance,omitempty"` // kilometers
	Calories *int       `json:"calories,omitempty"`
	Pace     *float64   `json:"pace,omitempty"` // minutes per kilometer
	Date     *string    `json:"date,omitempty"` // RFC 3339
	// Confidence is the recognizer's 0-100 score, passed through unmodified.
	Confidence float64 `json:"confidence"`
	// DateInferred is true when Date came from the clock rather than the text.
	DateInferred bool `json:"date_inferred"`
}

// Fields returns the names of populated optional fields.
func (d ExtractedActivityData) Fields() []string {
	var out []string
	if d.Type != nil {
		out = append(out, FieldType)
	}
	if d.Duration != nil {
		out = append(out, FieldDuration)
	}
	if d.Distance != nil {
		out = append(out, FieldDistance)
	}
	if d.Calories != nil {
		out = append(out, FieldCalories)
	}
	if d.Pace != nil {
		out = append(out, FieldPace)
	}
	if d.Date != nil {
		out = append(out, FieldDate)
	}
	return out
}

// ActivityRecord is a logged, possibly verified, activity on a profile.
type ActivityRecord struct {
	ID                 string             `json:"id"`
	Type               SportType          `json:"type"`
	Date               time.Time          `json:"date"`
	Duration           int                `json:"duration"` // minutes
	Distance           *float64           `json:"distance,omitempty"`
	Verified           bool               `json:"verified"`
	VerificationSource VerificationSource `json:"verification_source,omitempty"`
	Calories           *int               `json:"calories,omitempty"`
	Pace               *float64           `json:"pace,omitempty"`
}

// Submission is a human-confirmed extraction queued for verification and rewards.
type Submission struct {
	SubmissionID string
	AthleteID    string
	Content      string
	Images       []string
	Data         ExtractedActivityData
	ReceivedAt   time.Time
}

// Sport returns the submission's sport, or running when none was confirmed.
func (s Submission) Sport() SportType {
	if s.Data.Type != nil && s.Data.Type.Valid() {
		return *s.Data.Type
	}
	return SportRunning
}

// DurationMinutes returns the confirmed duration rounded to whole minutes, or 0.
func (s Submission) DurationMinutes() int {
	if s.Data.Duration == nil || *s.Data.Duration < 0 {
		return 0
	}
	return int(*s.Data.Duration + 0.5)
}

// PerformedAt parses the confirmed date, falling back to the receive time.
func (s Submission) PerformedAt() time.Time {
	if s.Data.Date != nil {
		if t, err := time.Parse(time.RFC3339, *s.Data.Date); err == nil {
			return t
		}
	}
	return s.ReceivedAt
}
