package callstate

// Event is one of the typed inputs the Machine reacts to. Guards
// (silenceThresholdMet, shouldInterrupt, maxDurationExceeded — spec §4.9)
// are evaluated by the caller against live audio energy and elapsed time;
// by the time an Event reaches the Machine the guard has already passed,
// keeping the Machine itself a pure function of (state, event).
type Event interface {
	callEvent()
}

// CallAnswered is forwarded from the carrier's own CallAnswered.
type CallAnswered struct{}

func (CallAnswered) callEvent() {}

// SilenceThresholdMet fires in LISTENING once speech has started and no
// voiced frame has arrived for supervisor.ListeningPauseTimeout (spec §4.9
// guard silenceThresholdMet).
type SilenceThresholdMet struct{}

func (SilenceThresholdMet) callEvent() {}

// AudioOutReceived is forwarded from modelsession.AudioOut.
type AudioOutReceived struct{}

func (AudioOutReceived) callEvent() {}

// TurnCompleteReceived is forwarded from modelsession.TurnComplete.
type TurnCompleteReceived struct{}

func (TurnCompleteReceived) callEvent() {}

// HedgeTimerFired fires when the 400ms hedge timer elapses with no
// AudioOut yet received in THINKING.
type HedgeTimerFired struct{}

func (HedgeTimerFired) callEvent() {}

// ThinkingTimeoutFired fires when the 3s hard LLM timeout elapses.
type ThinkingTimeoutFired struct{}

func (ThinkingTimeoutFired) callEvent() {}

// FillerEnded fires when the selected hedge filler finishes streaming out.
type FillerEnded struct{}

func (FillerEnded) callEvent() {}

// InterruptDetected fires when shouldInterrupt holds: inbound RMS over
// threshold for >=300ms while SPEAKING or RECOVERY, or the model's own
// Interrupted event arrived.
type InterruptDetected struct{}

func (InterruptDetected) callEvent() {}

// EndOnSilenceExceeded fires when sinceLastSpeech exceeds the agent's
// configured end-on-silence duration.
type EndOnSilenceExceeded struct{}

func (EndOnSilenceExceeded) callEvent() {}

// ManualHangup fires on an operator- or lead-initiated hangup signal.
type ManualHangup struct{}

func (ManualHangup) callEvent() {}

// CarrierClosedEvent fires when the carrier transport closed.
type CarrierClosedEvent struct{}

func (CarrierClosedEvent) callEvent() {}

// FatalErrorEvent fires on an unrecoverable model or protocol error.
type FatalErrorEvent struct{ Detail string }

func (FatalErrorEvent) callEvent() {}

// MaxDurationExceeded fires when now-callStart exceeds the call policy max,
// from any active state.
type MaxDurationExceeded struct{}

func (MaxDurationExceeded) callEvent() {}

// TeardownComplete fires once CALL_ENDING's entry actions have all run,
// moving the call to its terminal ENDED state.
type TeardownComplete struct{}

func (TeardownComplete) callEvent() {}
