package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priority-technologies/shreenika-voice-core/internal/callstate"
	"github.com/priority-technologies/shreenika-voice-core/internal/carrier"
	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
	"github.com/priority-technologies/shreenika-voice-core/internal/hedge"
	"github.com/priority-technologies/shreenika-voice-core/internal/modelsession"
)

type fakeCarrier struct {
	inbound       chan carrier.InboundEvent
	sentAudio     [][]byte
	sentInterrupt int
	closed        bool
}

func newFakeCarrier() *fakeCarrier {
	return &fakeCarrier{inbound: make(chan carrier.InboundEvent, 8)}
}

func (f *fakeCarrier) Kind() domain.CarrierKind         { return domain.CarrierBrowser }
func (f *fakeCarrier) Inbound() <-chan carrier.InboundEvent { return f.inbound }
func (f *fakeCarrier) SendAudio(pcm []byte) error {
	f.sentAudio = append(f.sentAudio, pcm)
	return nil
}
func (f *fakeCarrier) SendInterrupt() error { f.sentInterrupt++; return nil }
func (f *fakeCarrier) Close() error         { f.closed = true; return nil }

type fakeCallRepo struct {
	finalizedOutcome  domain.CallOutcome
	finalizedSentiment float64
}

func (f *fakeCallRepo) Create(ctx context.Context, call *domain.Call) error { return nil }
func (f *fakeCallRepo) UpdateStatus(ctx context.Context, callID string, status domain.CallStatus) error {
	return nil
}
func (f *fakeCallRepo) Finalize(ctx context.Context, callID string, outcome domain.CallOutcome, sentiment float64, endedAt time.Time) error {
	f.finalizedOutcome = outcome
	f.finalizedSentiment = sentiment
	return nil
}

type fakeTurnRepo struct {
	turns []domain.Turn
}

func (f *fakeTurnRepo) AppendTurn(ctx context.Context, callID string, turn domain.Turn) error {
	f.turns = append(f.turns, turn)
	return nil
}

type fakeLogRepo struct {
	events []domain.CallLogEvent
}

func (f *fakeLogRepo) Append(ctx context.Context, event domain.CallLogEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeMetrics struct {
	chunksIn, chunksOut, fillersPlayed, interruptions int
	stateChanges                                      []string
}

func (f *fakeMetrics) RecordChunkIn(agentID string)      { f.chunksIn++ }
func (f *fakeMetrics) RecordChunkOut(agentID string)     { f.chunksOut++ }
func (f *fakeMetrics) RecordFillerPlayed(agentID string) { f.fillersPlayed++ }
func (f *fakeMetrics) RecordInterruption(agentID string) { f.interruptions++ }
func (f *fakeMetrics) RecordModelLatency(agentID string, d time.Duration) {}
func (f *fakeMetrics) RecordStateChange(agentID string, from, to string) {
	f.stateChanges = append(f.stateChanges, from+"->"+to)
}

func testAgent() *domain.Agent {
	return &domain.Agent{
		ID:          "agent-1",
		DisplayName: "Priya",
		Language:    domain.LanguageEnglish,
		Voice:       domain.VoiceCharacteristics{VoiceName: "aura", Speed: 1.0, EmotionLevel: 0.5},
		CallPolicy: domain.CallPolicy{
			MaxDurationSeconds:     600,
			EndOnSilenceSeconds:    20,
			SilenceEnergyThreshold: 20,
		},
	}
}

func newTestSupervisor() (*Supervisor, *fakeCarrier, *fakeCallRepo, *fakeTurnRepo, *fakeLogRepo, *fakeMetrics) {
	fc := newFakeCarrier()
	callRepo := &fakeCallRepo{}
	turnRepo := &fakeTurnRepo{}
	logRepo := &fakeLogRepo{}
	metrics := &fakeMetrics{}

	s := New(Config{
		CallID:   "call-1",
		Agent:    testAgent(),
		Carrier:  fc,
		CallRepo: callRepo,
		TurnRepo: turnRepo,
		LogRepo:  logRepo,
		Metrics:  metrics,
	})
	return s, fc, callRepo, turnRepo, logRepo, metrics
}

func TestIsVoiceActive_PrefersCarrierSuppliedEnergyOverRMS(t *testing.T) {
	s, _, _, _, _, _ := newTestSupervisor()
	energy := 999.0
	active := s.isVoiceActive(carrier.AudioIn{PCM16k: make([]byte, 4), Energy: &energy})
	assert.True(t, active)
}

func TestIsVoiceActive_FallsBackToRMSWhenEnergyAbsent(t *testing.T) {
	s, _, _, _, _, _ := newTestSupervisor()
	silence := make([]byte, 64)
	active := s.isVoiceActive(carrier.AudioIn{PCM16k: silence})
	assert.False(t, active)
}

func TestOutcomeForEndReason_ManualHangupMapsToCallbackRequested(t *testing.T) {
	assert.Equal(t, domain.CallOutcomeCallbackRequested, outcomeForEndReason(callstate.EndReasonManualHangup))
}

func TestOutcomeForEndReason_OtherReasonsDefaultToNotInterested(t *testing.T) {
	assert.Equal(t, domain.CallOutcomeNotInterested, outcomeForEndReason(callstate.EndReasonMaxDuration))
	assert.Equal(t, domain.CallOutcomeNotInterested, outcomeForEndReason(callstate.EndReasonCarrierClosed))
}

func TestPersistCallRecord_FinalizesWithMappedOutcomeAndSentiment(t *testing.T) {
	s, _, callRepo, _, _, _ := newTestSupervisor()
	s.currentAnalysis = domain.Analysis{Sentiment: 0.42}

	s.persistCallRecord(callstate.EndReasonSilence)

	assert.Equal(t, domain.CallOutcomeNotInterested, callRepo.finalizedOutcome)
	assert.Equal(t, 0.42, callRepo.finalizedSentiment)
}

func TestAppendCallLog_WritesFromToTransitionDetails(t *testing.T) {
	s, _, _, _, logRepo, _ := newTestSupervisor()

	s.appendCallLog(callstate.StateListening, callstate.StateThinking)

	require.Len(t, logRepo.events, 1)
	assert.Equal(t, "call-1", logRepo.events[0].CallID)
	assert.Equal(t, "LISTENING -> THINKING", logRepo.events[0].Details)
}

func TestExecute_StartAndCancelThinkingTimersArmsThenStopsBoth(t *testing.T) {
	s, _, _, _, _, _ := newTestSupervisor()

	s.execute(callstate.StartHedgeTimer{})
	s.execute(callstate.StartThinkingTimeout{})
	require.NotNil(t, s.hedgeTimer)
	require.NotNil(t, s.thinkingTimer)

	s.execute(callstate.CancelThinkingTimers{})

	select {
	case <-s.hedgeTimer.C:
		t.Fatal("hedge timer should have been stopped before firing")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestSelectAndStreamFiller_SendsAudioAndRecordsMetric(t *testing.T) {
	s, fc, _, _, _, metrics := newTestSupervisor()
	s.cfg.Fillers = hedge.NewIndex([]domain.Filler{
		{ID: "f1", PCM: []byte{1, 2, 3}, Duration: 0.01, Tags: domain.FillerTags{
			Languages: []domain.Language{domain.LanguageEnglish},
		}},
	})

	s.selectAndStreamFiller()

	require.Len(t, fc.sentAudio, 1)
	assert.Equal(t, []byte{1, 2, 3}, fc.sentAudio[0])
	assert.Equal(t, 1, metrics.fillersPlayed)
	assert.Equal(t, "f1", s.currentTurn.FillerID)
}

func TestFinalizeTurn_AppendsToHistoryAndPersistsTurn(t *testing.T) {
	s, _, _, turnRepo, _, metrics := newTestSupervisor()
	s.currentTurn = domain.Turn{UserTranscript: "hello", StartedAt: time.Now()}

	s.finalizeTurn(true)

	require.Len(t, turnRepo.turns, 1)
	assert.Equal(t, "hello", turnRepo.turns[0].UserTranscript)
	assert.True(t, turnRepo.turns[0].Interrupted)
	assert.Len(t, s.turnHistory, 1)
	assert.Equal(t, 1, s.turnIndex)
	assert.Equal(t, 1, metrics.interruptions)
}

func TestForwardModelAudio_ResamplesAndForwardsToCarrier(t *testing.T) {
	s, fc, _, _, _, metrics := newTestSupervisor()
	pcm24k := make([]byte, 240) // 5ms @ 24kHz mono 16-bit

	s.forwardModelAudioPCM(pcm24k)

	require.Len(t, fc.sentAudio, 1)
	assert.NotEmpty(t, fc.sentAudio[0])
	assert.Equal(t, 1, metrics.chunksOut)
}

func TestExecute_SendCarrierInterruptCallsCarrier(t *testing.T) {
	s, fc, _, _, _, _ := newTestSupervisor()

	s.execute(callstate.SendCarrierInterrupt{})

	assert.Equal(t, 1, fc.sentInterrupt)
}

func TestExecute_StopOutboundFramesSuppressesForwarding(t *testing.T) {
	s, fc, _, _, _, _ := newTestSupervisor()
	pcm24k := make([]byte, 240)

	s.execute(callstate.StopOutboundFrames{})
	s.forwardModelAudioPCM(pcm24k)

	assert.Empty(t, fc.sentAudio, "audio arriving after StopOutboundFrames should be dropped")
}

func TestExecute_EmitAudioOutFramesClearsSuppression(t *testing.T) {
	s, fc, _, _, _, _ := newTestSupervisor()
	pcm24k := make([]byte, 240)

	s.execute(callstate.StopOutboundFrames{})
	s.execute(callstate.EmitAudioOutFrames{})
	s.forwardModelAudioPCM(pcm24k)

	require.Len(t, fc.sentAudio, 1, "a new SPEAKING entry should clear suppression for the next turn")
}

func TestForwardModelAudio_DropsStaleChunksAfterInterrupt(t *testing.T) {
	s, fc, _, _, _, metrics := newTestSupervisor()
	s.machine = callstate.NewMachine()
	// Drive the machine into SPEAKING, then interrupt it — mirrors the
	// InterruptDetected handling in handleInboundAudio.
	s.dispatch(callstate.CallAnswered{})
	s.dispatch(callstate.SilenceThresholdMet{})
	s.dispatch(callstate.AudioOutReceived{})
	require.Equal(t, callstate.StateSpeaking, s.machine.State())

	s.dispatch(callstate.InterruptDetected{})
	require.Equal(t, callstate.StateListening, s.machine.State())
	require.Equal(t, 1, fc.sentInterrupt)

	// A stale AudioOut chunk from the generation the lead just talked over
	// must not reach the carrier.
	s.forwardModelAudio(modelsession.AudioOut{PCM24k: make([]byte, 240)})

	assert.Empty(t, fc.sentAudio)
	assert.Equal(t, 0, metrics.chunksOut)
}

func TestEmitPromptToRepeat_SendsReservedFillerAudio(t *testing.T) {
	s, fc, _, _, _, metrics := newTestSupervisor()
	s.cfg.Fillers = hedge.NewIndex([]domain.Filler{
		{ID: "prompt_to_repeat_en", PCM: []byte{9, 9, 9}, Tags: domain.FillerTags{
			Languages: []domain.Language{domain.LanguageEnglish},
		}},
	})

	s.emitPromptToRepeat()

	require.Len(t, fc.sentAudio, 1)
	assert.Equal(t, []byte{9, 9, 9}, fc.sentAudio[0])
	assert.Equal(t, 1, metrics.fillersPlayed)
}

func TestEmitPromptToRepeat_NoFillersIsNoop(t *testing.T) {
	s, fc, _, _, _, _ := newTestSupervisor()

	s.emitPromptToRepeat()

	assert.Empty(t, fc.sentAudio)
}

func TestTeardown_ClosesCarrierAndStopsArmedTimers(t *testing.T) {
	s, fc, _, _, _, _ := newTestSupervisor()
	s.hedgeTimer = time.NewTimer(time.Hour)

	s.teardown()

	assert.True(t, fc.closed)
	assert.False(t, s.hedgeTimer.Stop(), "teardown should already have stopped the armed hedge timer")
}

func TestRun_ManualHangupViaContextCancelEndsCallAndTearsDown(t *testing.T) {
	s, fc, _, _, _, _ := newTestSupervisor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx)

	require.Error(t, err)
	assert.Equal(t, callstate.StateEnded, s.machine.State())
	assert.True(t, fc.closed)
}
