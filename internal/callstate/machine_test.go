package callstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func containsAction[T Action](actions []Action) bool {
	for _, a := range actions {
		if _, ok := a.(T); ok {
			return true
		}
	}
	return false
}

func TestMachine_CallAnsweredMovesIdleToListening(t *testing.T) {
	m := NewMachine()
	actions := m.Handle(CallAnswered{})

	assert.Equal(t, StateListening, m.State())
	assert.True(t, containsAction[ResetInboundBuffer](actions))
	assert.True(t, containsAction[EnableVAD](actions))
}

func TestMachine_SilenceMovesListeningToThinkingAndArmsTimers(t *testing.T) {
	m := NewMachine()
	m.Handle(CallAnswered{})

	actions := m.Handle(SilenceThresholdMet{})

	assert.Equal(t, StateThinking, m.State())
	assert.True(t, containsAction[StartHedgeTimer](actions))
	assert.True(t, containsAction[StartThinkingTimeout](actions))
	assert.True(t, containsAction[RunAnalyzer](actions))
}

func TestMachine_AudioOutMovesThinkingToSpeaking(t *testing.T) {
	m := NewMachine()
	m.Handle(CallAnswered{})
	m.Handle(SilenceThresholdMet{})

	actions := m.Handle(AudioOutReceived{})

	assert.Equal(t, StateSpeaking, m.State())
	assert.True(t, containsAction[CancelThinkingTimers](actions))
	assert.True(t, containsAction[EmitAudioOutFrames](actions))
}

func TestMachine_HedgeTimeoutMovesThinkingToRecoveryAndSelectsFiller(t *testing.T) {
	m := NewMachine()
	m.Handle(CallAnswered{})
	m.Handle(SilenceThresholdMet{})

	actions := m.Handle(HedgeTimerFired{})

	assert.Equal(t, StateRecovery, m.State())
	assert.True(t, containsAction[SelectFiller](actions))
	assert.True(t, containsAction[StreamFiller](actions))
}

func TestMachine_RecoveryWithLateAudioMovesToSpeakingOnFillerEnd(t *testing.T) {
	m := NewMachine()
	m.Handle(CallAnswered{})
	m.Handle(SilenceThresholdMet{})
	m.Handle(HedgeTimerFired{})

	m.Handle(AudioOutReceived{}) // audio arrives mid-filler; stays in RECOVERY
	require.Equal(t, StateRecovery, m.State())

	actions := m.Handle(FillerEnded{})
	assert.Equal(t, StateSpeaking, m.State())
	assert.False(t, containsAction[PromptToRepeat](actions))
}

func TestMachine_RecoveryWithNoAudioPromptsToRepeatAndReturnsToListening(t *testing.T) {
	m := NewMachine()
	m.Handle(CallAnswered{})
	m.Handle(SilenceThresholdMet{})
	m.Handle(HedgeTimerFired{})

	actions := m.Handle(FillerEnded{})
	assert.Equal(t, StateListening, m.State())
	assert.True(t, containsAction[PromptToRepeat](actions))
}

func TestMachine_InterruptDuringSpeakingReturnsToListeningAndCancels(t *testing.T) {
	m := NewMachine()
	m.Handle(CallAnswered{})
	m.Handle(SilenceThresholdMet{})
	m.Handle(AudioOutReceived{})
	require.Equal(t, StateSpeaking, m.State())

	actions := m.Handle(InterruptDetected{})
	assert.Equal(t, StateListening, m.State())
	assert.True(t, containsAction[SendCarrierInterrupt](actions))
	assert.True(t, containsAction[DrainOutboundBuffer](actions))
}

func TestMachine_InterruptDuringRecoveryReturnsToListening(t *testing.T) {
	m := NewMachine()
	m.Handle(CallAnswered{})
	m.Handle(SilenceThresholdMet{})
	m.Handle(HedgeTimerFired{})
	require.Equal(t, StateRecovery, m.State())

	actions := m.Handle(InterruptDetected{})
	assert.Equal(t, StateListening, m.State())
	assert.True(t, containsAction[SendCarrierInterrupt](actions))
}

func TestMachine_TurnCompleteReturnsSpeakingToListening(t *testing.T) {
	m := NewMachine()
	m.Handle(CallAnswered{})
	m.Handle(SilenceThresholdMet{})
	m.Handle(AudioOutReceived{})

	m.Handle(TurnCompleteReceived{})
	assert.Equal(t, StateListening, m.State())
}

func TestMachine_MaxDurationEndsCallFromAnyState(t *testing.T) {
	m := NewMachine()
	m.Handle(CallAnswered{})

	actions := m.Handle(MaxDurationExceeded{})
	assert.Equal(t, StateEnding, m.State())
	assert.True(t, containsAction[CloseModelSession](actions))

	var found *PersistCallRecord
	for _, a := range actions {
		if p, ok := a.(PersistCallRecord); ok {
			found = &p
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, EndReasonMaxDuration, found.Reason)
}

func TestMachine_CarrierClosedEndsCallEvenMidTurn(t *testing.T) {
	m := NewMachine()
	m.Handle(CallAnswered{})
	m.Handle(SilenceThresholdMet{})
	m.Handle(AudioOutReceived{}) // SPEAKING

	m.Handle(CarrierClosedEvent{})
	assert.Equal(t, StateEnding, m.State())
}

func TestMachine_TeardownCompleteMovesEndingToEnded(t *testing.T) {
	m := NewMachine()
	m.Handle(CallAnswered{})
	m.Handle(ManualHangup{})
	require.Equal(t, StateEnding, m.State())

	m.Handle(TeardownComplete{})
	assert.Equal(t, StateEnded, m.State())
}

func TestMachine_UnhandledEventInCurrentStateIsANoOp(t *testing.T) {
	m := NewMachine()
	actions := m.Handle(AudioOutReceived{}) // IDLE never reacts to this
	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, actions)
}

func TestMachine_EventsAfterEndedAreIgnored(t *testing.T) {
	m := NewMachine()
	m.Handle(CallAnswered{})
	m.Handle(ManualHangup{})
	m.Handle(TeardownComplete{})
	require.Equal(t, StateEnded, m.State())

	actions := m.Handle(CallAnswered{})
	assert.Equal(t, StateEnded, m.State())
	assert.Nil(t, actions)
}
