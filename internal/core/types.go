package core

import (
	"time"
)

// Preference is a topic subscription preference applied uniformly to every
// converted contact. The values are the literal strings the SES contact list
// import expects.
type Preference string

const (
	OptIn  Preference = "OPT_IN"
	OptOut Preference = "OPT_OUT"
)

// valid reports whether p is one of the two recognized values.
func (p Preference) valid() bool {
	return p == OptIn || p == OptOut
}

// TopicPreference pairs a topic name with the preference written to that
// topic's column for every row. Order matters: topics become output columns
// in the order they are configured.
type TopicPreference struct {
	Topic      string     `json:"name"`
	Preference Preference `json:"preference"`
}

// Options configures a single conversion run.
type Options struct {
	// Format selects a registered source format. Empty selects the default
	// Mailchimp audience export.
	Format string

	// Topics adds one topicPreferences.<name> column per entry, in order.
	// The preference value is configuration, not per-row data: every row
	// gets the same literal.
	Topics []TopicPreference
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// Result describes a completed conversion.
type Result struct {
	OutputPath string        `json:"output_path"`
	Rows       int64         `json:"rows"`  // data rows written, excluding the header
	Bytes      int64         `json:"bytes"` // input bytes consumed
	Duration   time.Duration `json:"duration_ns"`
}

// ConvertPhase indicates the current stage of a conversion job.
type ConvertPhase string

const (
	PhaseStarting   ConvertPhase = "starting"
	PhaseConverting ConvertPhase = "converting"
	PhaseFinalizing ConvertPhase = "finalizing"
	PhaseComplete   ConvertPhase = "complete"
	PhaseFailed     ConvertPhase = "failed"
	PhaseCancelled  ConvertPhase = "cancelled"
)

// ConvertProgress is the observable state of a conversion job.
type ConvertProgress struct {
	JobID     string       `json:"job_id"`
	FormatKey string       `json:"format"`
	FileName  string       `json:"file_name"`
	Phase     ConvertPhase `json:"phase"`
	Rows      int64        `json:"rows"`
	Error     string       `json:"error,omitempty"` // non-empty when Phase is PhaseFailed
	// Byte-based progress. Row counts are unknown up front when streaming,
	// so progress is always calculated from bytes.
	BytesRead  int64 `json:"bytes_read"`
	BytesTotal int64 `json:"bytes_total"`
}

// Percent returns the progress as a percentage (0-100).
// Returns 0 while the total input size is unknown.
func (p ConvertProgress) Percent() int {
	if p.BytesTotal <= 0 {
		return 0
	}
	pct := int((p.BytesRead * 100) / p.BytesTotal)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// JobStatus is the externally visible state of a conversion job.
type JobStatus struct {
	JobID     string          `json:"job_id"`
	FormatKey string          `json:"format"`
	FileName  string          `json:"file_name"`
	Phase     ConvertPhase    `json:"phase"`
	Progress  ConvertProgress `json:"progress"`
	Result    *Result         `json:"result,omitempty"` // non-nil once the job completed successfully
	Error     string          `json:"error,omitempty"`  // non-empty once the job failed
}
