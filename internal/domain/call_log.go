package domain

import "time"

// CallLogEventKind names one step of the carrier-level call lifecycle that a
// CallLogEvent records (spec §3, §6).
type CallLogEventKind string

const (
	CallLogInitiated CallLogEventKind = "INITIATED"
	CallLogDialing   CallLogEventKind = "DIALING"
	CallLogRinging   CallLogEventKind = "RINGING"
	CallLogAnswered  CallLogEventKind = "ANSWERED"
	CallLogCompleted CallLogEventKind = "COMPLETED"
	CallLogFailed    CallLogEventKind = "FAILED"
	CallLogMissed    CallLogEventKind = "MISSED"
	CallLogNoAnswer  CallLogEventKind = "NO_ANSWER"
)

// CallLogEvent is one append-only entry in a call's carrier-lifecycle log.
// Details is a short human-readable note; Payload carries the raw
// provider-specific event body, stored opaque (see
// internal/adapters/postgres for the JSON encoding used at rest).
type CallLogEvent struct {
	CallID     string
	CampaignID string // nullable
	Kind       CallLogEventKind
	Timestamp  time.Time
	Details    string
	Payload    map[string]any
}
