package domain

import "time"

// Direction is whether the call was placed to or received from the lead.
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

// CallStatus is the persisted lifecycle status of a Call, distinct from the
// in-process Call State Machine's State (internal/callstate): CallStatus
// tracks the carrier-level dial lifecycle, State tracks the conversational
// turn-taking lifecycle once media is flowing.
type CallStatus string

const (
	CallStatusInitiated CallStatus = "INITIATED"
	CallStatusDialing   CallStatus = "DIALING"
	CallStatusRinging   CallStatus = "RINGING"
	CallStatusAnswered  CallStatus = "ANSWERED"
	CallStatusCompleted CallStatus = "COMPLETED"
	CallStatusFailed    CallStatus = "FAILED"
	CallStatusNoAnswer  CallStatus = "NO_ANSWER"
	CallStatusMissed    CallStatus = "MISSED"
)

// CallOutcome is the post-call disposition, set once the call ends.
type CallOutcome string

const (
	CallOutcomeMeetingBooked      CallOutcome = "meeting_booked"
	CallOutcomeCallbackRequested  CallOutcome = "callback_requested"
	CallOutcomeNotInterested      CallOutcome = "not_interested"
	CallOutcomeVoicemail          CallOutcome = "voicemail"
)

// CarrierKind identifies which wire-format adapter served a call.
type CarrierKind string

const (
	CarrierTelephony CarrierKind = "TELEPHONY"
	CarrierBrowser   CarrierKind = "BROWSER"
	CarrierWebRTC    CarrierKind = "WEBRTC"
)

// validCallTransitions enumerates the CallStatus state graph. A transition
// not listed here is rejected with ErrInvalidCallStatusTransition.
var validCallTransitions = map[CallStatus][]CallStatus{
	CallStatusInitiated: {CallStatusDialing, CallStatusFailed},
	CallStatusDialing:   {CallStatusRinging, CallStatusFailed, CallStatusNoAnswer},
	CallStatusRinging:   {CallStatusAnswered, CallStatusNoAnswer, CallStatusMissed, CallStatusFailed},
	CallStatusAnswered:  {CallStatusCompleted, CallStatusFailed},
}

// CanTransition reports whether moving from to is a legal CallStatus edge.
func (s CallStatus) CanTransition(to CallStatus) bool {
	for _, next := range validCallTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Call is the lifetime record of one phone or browser session.
type Call struct {
	ID         string
	AgentID    string
	LeadID     string
	CampaignID string // optional

	Direction Direction
	Status    CallStatus
	Carrier   CarrierKind

	StartedAt  time.Time
	AnsweredAt *time.Time
	EndedAt    *time.Time

	RecordingURL string // set by carrier callback

	Outcome         CallOutcome // empty until call ends
	FinalSentiment  float64
}

// Duration returns the elapsed time between start and end, or since start if
// the call has not ended.
func (c *Call) Duration() time.Duration {
	end := time.Now()
	if c.EndedAt != nil {
		end = *c.EndedAt
	}
	return end.Sub(c.StartedAt)
}

// TransitionTo validates and applies a CallStatus transition.
func (c *Call) TransitionTo(status CallStatus) error {
	if !c.Status.CanTransition(status) {
		return NewDomainError(ErrInvalidCallStatusTransition, KindProtocol,
			string(c.Status)+" -> "+string(status))
	}
	c.Status = status
	return nil
}
