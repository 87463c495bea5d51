package callstate

// Machine is the per-call state machine core. It holds no sockets, timers,
// or goroutines of its own — Handle is a pure function of the current
// state, the Machine's small amount of turn-local bookkeeping, and the
// incoming Event, returning the Actions its caller (internal/supervisor)
// must carry out. This split keeps the five-state/guard/timer logic of
// spec §4.9 unit-testable without a real clock or real sockets.
type Machine struct {
	state State

	// audioArrivedInRecovery tracks whether AudioOut showed up while a
	// hedge filler was still streaming, so FillerEnded knows whether to
	// continue into SPEAKING or fall back to a prompt-to-repeat in
	// LISTENING (spec §4.9 RECOVERY rows).
	audioArrivedInRecovery bool

	// endReason records why CALL_ENDING was entered, for PersistCallRecord.
	endReason EndReason
}

// NewMachine returns a Machine starting in IDLE.
func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// State returns the Machine's current state.
func (m *Machine) State() State {
	return m.state
}

// Handle applies evt against the current state and returns the Actions the
// caller must perform. A nil/empty return means evt had no effect in the
// current state (e.g. a stray AudioOutReceived while IDLE).
func (m *Machine) Handle(evt Event) []Action {
	from := m.state

	if m.state != StateEnding && m.state != StateEnded {
		if next, ok := m.anyStateTransition(evt); ok {
			return m.moveTo(from, next)
		}
	}

	switch m.state {
	case StateIdle:
		return m.handleIdle(evt)
	case StateListening:
		return m.handleListening(evt)
	case StateThinking:
		return m.handleThinking(evt)
	case StateSpeaking:
		return m.handleSpeaking(evt)
	case StateRecovery:
		return m.handleRecovery(evt)
	case StateEnding:
		return m.handleEnding(evt)
	default:
		return nil
	}
}

// anyStateTransition handles the triggers that end a call from any active
// state (spec §4.9: "ANY | End-on-silence duration exceeded; manual
// hangup; carrier close; FatalError").
func (m *Machine) anyStateTransition(evt Event) (State, bool) {
	switch e := evt.(type) {
	case EndOnSilenceExceeded:
		m.endReason = EndReasonSilence
		return StateEnding, true
	case ManualHangup:
		m.endReason = EndReasonManualHangup
		return StateEnding, true
	case CarrierClosedEvent:
		m.endReason = EndReasonCarrierClosed
		return StateEnding, true
	case FatalErrorEvent:
		_ = e
		m.endReason = EndReasonFatalError
		return StateEnding, true
	case MaxDurationExceeded:
		m.endReason = EndReasonMaxDuration
		return StateEnding, true
	}
	return "", false
}

func (m *Machine) handleIdle(evt Event) []Action {
	if _, ok := evt.(CallAnswered); ok {
		return m.moveTo(StateIdle, StateListening)
	}
	return nil
}

func (m *Machine) handleListening(evt Event) []Action {
	if _, ok := evt.(SilenceThresholdMet); ok {
		return m.moveTo(StateListening, StateThinking)
	}
	return nil
}

func (m *Machine) handleThinking(evt Event) []Action {
	switch evt.(type) {
	case AudioOutReceived:
		return append([]Action{CancelThinkingTimers{}}, m.moveTo(StateThinking, StateSpeaking)...)
	case HedgeTimerFired, ThinkingTimeoutFired:
		m.audioArrivedInRecovery = false
		return m.moveTo(StateThinking, StateRecovery)
	}
	return nil
}

func (m *Machine) handleSpeaking(evt Event) []Action {
	switch evt.(type) {
	case TurnCompleteReceived:
		return m.moveTo(StateSpeaking, StateListening)
	case InterruptDetected:
		actions := []Action{StopOutboundFrames{}, DrainOutboundBuffer{}, SendCarrierInterrupt{}, EmitCancelSignal{}}
		return append(actions, m.moveTo(StateSpeaking, StateListening)...)
	}
	return nil
}

func (m *Machine) handleRecovery(evt Event) []Action {
	switch evt.(type) {
	case AudioOutReceived:
		m.audioArrivedInRecovery = true
		return nil
	case InterruptDetected:
		actions := []Action{StopOutboundFrames{}, DrainOutboundBuffer{}, SendCarrierInterrupt{}, EmitCancelSignal{}}
		return append(actions, m.moveTo(StateRecovery, StateListening)...)
	case FillerEnded:
		if m.audioArrivedInRecovery {
			return m.moveTo(StateRecovery, StateSpeaking)
		}
		actions := m.moveTo(StateRecovery, StateListening)
		return append(actions, PromptToRepeat{})
	}
	return nil
}

func (m *Machine) handleEnding(evt Event) []Action {
	if _, ok := evt.(TeardownComplete); ok {
		return m.moveTo(StateEnding, StateEnded)
	}
	return nil
}

// moveTo transitions from->to, recording the observable actions every
// transition gets plus the target state's entry actions, and updates
// m.state.
func (m *Machine) moveTo(from, to State) []Action {
	actions := []Action{
		AppendCallLogEvent{From: from, To: to},
		EmitStateChange{From: from, To: to},
	}
	actions = append(actions, m.entryActions(to)...)
	m.state = to
	return actions
}

func (m *Machine) entryActions(state State) []Action {
	switch state {
	case StateListening:
		return []Action{ResetInboundBuffer{}, EnableVAD{}, TimestampLastAudio{}}
	case StateThinking:
		return []Action{SnapshotTranscript{}, RunAnalyzer{}, PickPrinciple{}, StartHedgeTimer{}, StartThinkingTimeout{}, SendAudioTail{}}
	case StateSpeaking:
		return []Action{EmitAudioOutFrames{}}
	case StateRecovery:
		return []Action{SelectFiller{}, StreamFiller{}}
	case StateEnding:
		return []Action{CloseModelSession{}, FinalizeTurnLog{}, PersistCallRecord{Reason: m.endReason}, EmitMetrics{}}
	default:
		return nil
	}
}
