package callstate

// Action is one effect the Machine asks its caller to perform. The Machine
// never performs I/O itself — Handle returns the actions a transition
// implies and the supervisor's select loop carries them out, arming or
// canceling real timers and touching the carrier/model sockets it owns.
type Action interface {
	callAction()
}

// ResetInboundBuffer, EnableVAD, and TimestampLastAudio are LISTENING's
// entry actions.
type ResetInboundBuffer struct{}

func (ResetInboundBuffer) callAction() {}

type EnableVAD struct{}

func (EnableVAD) callAction() {}

type TimestampLastAudio struct{}

func (TimestampLastAudio) callAction() {}

// SnapshotTranscript, RunAnalyzer, PickPrinciple, StartHedgeTimer,
// StartThinkingTimeout, and SendAudioTail are THINKING's entry actions.
type SnapshotTranscript struct{}

func (SnapshotTranscript) callAction() {}

type RunAnalyzer struct{}

func (RunAnalyzer) callAction() {}

type PickPrinciple struct{}

func (PickPrinciple) callAction() {}

type StartHedgeTimer struct{}

func (StartHedgeTimer) callAction() {}

type StartThinkingTimeout struct{}

func (StartThinkingTimeout) callAction() {}

type SendAudioTail struct{}

func (SendAudioTail) callAction() {}

// CancelThinkingTimers stops the hedge and LLM-timeout timers, issued on
// leaving THINKING by any path.
type CancelThinkingTimers struct{}

func (CancelThinkingTimers) callAction() {}

// SelectFiller and StreamFiller are RECOVERY's entry actions.
type SelectFiller struct{}

func (SelectFiller) callAction() {}

type StreamFiller struct{}

func (StreamFiller) callAction() {}

// EmitAudioOutFrames streams SPEAKING's model audio to the outbound
// carrier.
type EmitAudioOutFrames struct{}

func (EmitAudioOutFrames) callAction() {}

// StopOutboundFrames, DrainOutboundBuffer, SendCarrierInterrupt, and
// EmitCancelSignal are the interruption path's actions (spec §5, <50ms
// budget).
type StopOutboundFrames struct{}

func (StopOutboundFrames) callAction() {}

type DrainOutboundBuffer struct{}

func (DrainOutboundBuffer) callAction() {}

type SendCarrierInterrupt struct{}

func (SendCarrierInterrupt) callAction() {}

type EmitCancelSignal struct{}

func (EmitCancelSignal) callAction() {}

// PromptToRepeat is emitted when a filler finishes with no AudioOut ever
// having arrived, so the agent asks the lead to repeat themselves.
type PromptToRepeat struct{}

func (PromptToRepeat) callAction() {}

// CloseModelSession, FinalizeTurnLog, PersistCallRecord, and EmitMetrics are
// CALL_ENDING's entry actions.
type CloseModelSession struct{}

func (CloseModelSession) callAction() {}

type FinalizeTurnLog struct{}

func (FinalizeTurnLog) callAction() {}

type PersistCallRecord struct{ Reason EndReason }

func (PersistCallRecord) callAction() {}

type EmitMetrics struct{}

func (EmitMetrics) callAction() {}

// AppendCallLogEvent and EmitStateChange are observable actions attached to
// every transition (spec §4.9: "append Call Log event, update metrics
// counters... emit state_change for observers").
type AppendCallLogEvent struct {
	From, To State
}

func (AppendCallLogEvent) callAction() {}

type EmitStateChange struct {
	From, To State
}

func (EmitStateChange) callAction() {}
