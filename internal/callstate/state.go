// Package callstate implements the Call State Machine's pure transition
// core (spec §4.9): Machine.Handle maps the current state and one Event to
// the next state and the Actions to carry out. One Machine per call; the
// select loop that owns the call's timers and feeds carrier and model
// events in lives in internal/supervisor.
package callstate

import "time"

// State is one of the five conversational states a call cycles through,
// plus the terminal CALL_ENDING/ENDED pair reachable from any of them.
type State string

const (
	StateIdle      State = "IDLE"
	StateListening State = "LISTENING"
	StateThinking  State = "THINKING"
	StateSpeaking  State = "SPEAKING"
	StateRecovery  State = "RECOVERY"
	StateEnding    State = "CALL_ENDING"
	StateEnded     State = "ENDED"
)

// Timer durations fixed by spec §4.9.
const (
	HedgeTimeout      = 400 * time.Millisecond
	ThinkingTimeout   = 3 * time.Second
	InterruptHoldTime = 300 * time.Millisecond
)

// EndReason records why a call transitioned to CALL_ENDING, for the Call
// Log and final metrics emission.
type EndReason string

const (
	EndReasonSilence       EndReason = "SILENCE"
	EndReasonManualHangup  EndReason = "MANUAL_HANGUP"
	EndReasonCarrierClosed EndReason = "CARRIER_CLOSED"
	EndReasonFatalError    EndReason = "FATAL_ERROR"
	EndReasonMaxDuration   EndReason = "MAX_DURATION"
)
