// Package supervisor implements the Call Supervisor (spec §4.10): the
// one-per-call object that owns every other component's goroutines and
// sockets, drives the Call State Machine's pure transitions against real
// timers and real events, and guarantees cooperative teardown.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/priority-technologies/shreenika-voice-core/internal/analyzer"
	"github.com/priority-technologies/shreenika-voice-core/internal/audio"
	"github.com/priority-technologies/shreenika-voice-core/internal/cache"
	"github.com/priority-technologies/shreenika-voice-core/internal/callstate"
	"github.com/priority-technologies/shreenika-voice-core/internal/carrier"
	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
	"github.com/priority-technologies/shreenika-voice-core/internal/hedge"
	"github.com/priority-technologies/shreenika-voice-core/internal/modelsession"
	"github.com/priority-technologies/shreenika-voice-core/internal/ports"
	"github.com/priority-technologies/shreenika-voice-core/internal/principle"
	"github.com/priority-technologies/shreenika-voice-core/internal/prompt"
)

// ListeningPauseTimeout is how long a gap in active speech during LISTENING
// must persist before the state machine treats the user's turn as finished
// (spec §4.9 guard silenceThresholdMet). This is intentionally distinct
// from an agent's configured CallPolicy.EndOnSilenceSeconds, which governs
// the much longer whole-call silence timeout that ends the call entirely —
// reusing one value for both would make ordinary between-utterance pauses
// trigger a call-ending condition.
const ListeningPauseTimeout = 700 * time.Millisecond

// ModelConnector opens a Model Session. Exists so tests can substitute a
// fake without driving a real websocket dial.
type ModelConnector func(ctx context.Context, cfg modelsession.Config) (*modelsession.Session, error)

// Config bundles everything a Supervisor needs to run one call.
type Config struct {
	CallID string
	Agent  *domain.Agent
	Lead   prompt.Lead

	Carrier    carrier.Carrier
	Fillers    *hedge.Index
	CacheMgr   *cache.Manager
	Connect    ModelConnector
	ModelURL   string
	ModelName  string

	CallRepo ports.CallRepository
	TurnRepo ports.TurnRepository
	LogRepo  ports.CallLogRepository
	Metrics  ports.MetricsRecorder
	Observer ports.StateObserver

	Log *slog.Logger
}

// Supervisor drives one call end to end.
type Supervisor struct {
	cfg Config
	log *slog.Logger

	machine         *callstate.Machine
	principleEngine *principle.Engine
	session         *modelsession.Session

	analyzerState   analyzer.State
	turnHistory     []domain.Turn
	recentFillerIDs []string
	currentDecision domain.PrincipleDecision
	currentAnalysis domain.Analysis

	currentTurn   domain.Turn
	turnIndex     int
	lastUserText  string

	callStart       time.Time
	lastSpeechAt    time.Time
	speechStarted   bool
	interruptSince  time.Time

	// outboundSuppressed is set by StopOutboundFrames on interruption and
	// cleared when SPEAKING is next entered, so late AudioOut chunks from
	// the superseded generation are dropped instead of talked over the
	// lead (spec §5 (a)/(b)).
	outboundSuppressed bool

	hedgeTimer       *time.Timer
	thinkingTimer    *time.Timer
	listeningTimer   *time.Timer
	maxDurationTimer *time.Timer
	endSilenceTimer  *time.Timer
}

// New constructs a Supervisor in IDLE. Prewarm must be called before Run.
func New(cfg Config) *Supervisor {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{
		cfg:             cfg,
		log:             log.With("call_id", cfg.CallID, "agent_id", cfg.Agent.ID),
		machine:         callstate.NewMachine(),
		principleEngine: principle.NewEngine(),
	}
}

// Prewarm performs IDLE's entry action: load/validate config (the caller
// already resolved the Agent), fetch or create the context cache handle,
// build the initial system instruction, and open the model session (spec
// §4.9: "Pre-warm: load agent, validate config, open model session,
// pre-load filler index"). The filler index is supplied pre-built via
// Config.Fillers, so there is nothing left for Prewarm to do for it.
func (s *Supervisor) Prewarm(ctx context.Context) error {
	var knowledgeDocs []string
	for _, doc := range s.cfg.Agent.Knowledge {
		knowledgeDocs = append(knowledgeDocs, doc.Title+"\n"+doc.Text)
	}

	var cacheHandle string
	if s.cfg.CacheMgr != nil {
		handle, err := s.cfg.CacheMgr.GetOrCreate(ctx, s.cfg.Agent.ID, s.coreInstructionSeed(), knowledgeDocs)
		if err != nil {
			s.log.Warn("supervisor: cache lookup failed, proceeding without cached content", "error", err)
		}
		cacheHandle = handle
	}

	s.currentDecision = s.principleEngine.Decide(domain.Analysis{Stage: domain.StageAwareness})
	instruction := prompt.Build(s.cfg.Agent, s.cfg.Lead, s.currentDecision, domain.StageAwareness, nil, modelsession.KnowledgeCharacterCeiling-2_000)

	connect := s.cfg.Connect
	if connect == nil {
		connect = func(ctx context.Context, cfg modelsession.Config) (*modelsession.Session, error) {
			return modelsession.Connect(ctx, cfg, nil, s.log)
		}
	}

	session, err := connect(ctx, modelsession.Config{
		URL:                 s.cfg.ModelURL,
		Model:               s.cfg.ModelName,
		VoiceName:           s.cfg.Agent.EffectiveVoice().VoiceName,
		SystemInstruction:   instruction,
		CachedContentHandle: cacheHandle,
	})
	if err != nil {
		return err
	}
	s.session = session
	return nil
}

// coreInstructionSeed is the portion of the system instruction that's
// stable across the call (used as the cache's keyed content), distinct
// from the full per-call instruction prompt.Build produces once the
// opening stage/principle are known.
func (s *Supervisor) coreInstructionSeed() string {
	return s.cfg.Agent.DisplayName + "|" + string(s.cfg.Agent.Language) + "|" + s.cfg.Agent.Persona
}

// Run drives the call until it reaches ENDED or ctx is canceled. It always
// tears down owned resources before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	s.callStart = time.Now()
	defer s.teardown()

	for {
		var modelEvents <-chan modelsession.Event
		if s.session != nil {
			modelEvents = s.session.Events()
		}

		select {
		case <-ctx.Done():
			s.dispatch(callstate.ManualHangup{})
			return s.drainToEnded(ctx)

		case evt, ok := <-s.cfg.Carrier.Inbound():
			if !ok {
				s.dispatch(callstate.CarrierClosedEvent{})
			} else {
				s.handleCarrierEvent(evt)
			}

		case evt, ok := <-modelEvents:
			if ok {
				s.handleModelEvent(evt)
			}

		case <-timerC(s.hedgeTimer):
			s.dispatch(callstate.HedgeTimerFired{})
		case <-timerC(s.thinkingTimer):
			s.dispatch(callstate.ThinkingTimeoutFired{})
		case <-timerC(s.listeningTimer):
			s.dispatch(callstate.SilenceThresholdMet{})
		case <-timerC(s.maxDurationTimer):
			s.dispatch(callstate.MaxDurationExceeded{})
		case <-timerC(s.endSilenceTimer):
			s.dispatch(callstate.EndOnSilenceExceeded{})
		}

		if s.machine.State() == callstate.StateEnding {
			s.dispatch(callstate.TeardownComplete{})
		}
		if s.machine.State() == callstate.StateEnded {
			return nil
		}
	}
}

// drainToEnded dispatches TeardownComplete once CALL_ENDING's entry
// actions have already run synchronously via dispatch, so ctx cancellation
// still reaches ENDED deterministically.
func (s *Supervisor) drainToEnded(ctx context.Context) error {
	if s.machine.State() == callstate.StateEnding {
		s.dispatch(callstate.TeardownComplete{})
	}
	return ctx.Err()
}

// timerC returns t's channel, or nil (which blocks forever in a select) if
// t hasn't been armed.
func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func (s *Supervisor) dispatch(evt callstate.Event) {
	for _, action := range s.machine.Handle(evt) {
		s.execute(action)
	}
}

func (s *Supervisor) handleCarrierEvent(evt carrier.InboundEvent) {
	switch e := evt.(type) {
	case carrier.CallAnswered:
		s.armCallLifetimeTimers()
		s.dispatch(callstate.CallAnswered{})
	case carrier.AudioIn:
		s.handleInboundAudio(e)
	case carrier.CarrierClosed:
		s.dispatch(callstate.CarrierClosedEvent{})
	}
}

func (s *Supervisor) armCallLifetimeTimers() {
	if s.cfg.Agent.CallPolicy.MaxDurationSeconds > 0 {
		s.maxDurationTimer = time.NewTimer(time.Duration(s.cfg.Agent.CallPolicy.MaxDurationSeconds) * time.Second)
	}
	if s.cfg.Agent.CallPolicy.EndOnSilenceSeconds > 0 {
		s.endSilenceTimer = time.NewTimer(time.Duration(s.cfg.Agent.CallPolicy.EndOnSilenceSeconds) * time.Second)
	}
}

func (s *Supervisor) handleInboundAudio(e carrier.AudioIn) {
	if s.session != nil {
		if err := s.session.SendAudio(e.PCM16k); err != nil {
			s.log.Warn("supervisor: forwarding inbound audio failed", "error", err)
		}
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordChunkIn(s.cfg.Agent.ID)
	}

	active := s.isVoiceActive(e)
	state := s.machine.State()

	if active {
		s.resetEndSilenceTimer()
		if state == callstate.StateListening {
			s.speechStarted = true
			s.lastSpeechAt = time.Now()
			s.resetListeningPauseTimer()
		}
		if state == callstate.StateSpeaking || state == callstate.StateRecovery {
			if s.interruptSince.IsZero() {
				s.interruptSince = time.Now()
			} else if time.Since(s.interruptSince) >= callstate.InterruptHoldTime {
				s.interruptSince = time.Time{}
				s.dispatch(callstate.InterruptDetected{})
			}
		}
	} else if state == callstate.StateSpeaking || state == callstate.StateRecovery {
		s.interruptSince = time.Time{}
	}
}

func (s *Supervisor) isVoiceActive(e carrier.AudioIn) bool {
	threshold := s.cfg.Agent.CallPolicy.SilenceEnergyThreshold
	if threshold <= 0 {
		threshold = audio.DefaultVoiceThreshold
	}
	if e.Energy != nil {
		return *e.Energy > threshold
	}
	active, err := audio.IsVoiceActive(e.PCM16k, threshold)
	if err != nil {
		return false
	}
	return active
}

func (s *Supervisor) resetListeningPauseTimer() {
	if s.listeningTimer != nil {
		s.listeningTimer.Stop()
	}
	s.listeningTimer = time.NewTimer(ListeningPauseTimeout)
}

func (s *Supervisor) resetEndSilenceTimer() {
	if s.endSilenceTimer == nil {
		return
	}
	s.endSilenceTimer.Stop()
	if s.cfg.Agent.CallPolicy.EndOnSilenceSeconds > 0 {
		s.endSilenceTimer = time.NewTimer(time.Duration(s.cfg.Agent.CallPolicy.EndOnSilenceSeconds) * time.Second)
	}
}

func (s *Supervisor) handleModelEvent(evt modelsession.Event) {
	switch e := evt.(type) {
	case modelsession.AudioOut:
		s.forwardModelAudio(e)
	case modelsession.InputTranscript:
		s.lastUserText = e.Text
		s.runAnalysisAndPrinciple()
	case modelsession.OutputTranscript:
		s.currentTurn.AgentResponse += e.Text
	case modelsession.TurnComplete:
		s.finalizeTurn(false)
		s.dispatch(callstate.TurnCompleteReceived{})
	case modelsession.Interrupted:
		s.finalizeTurn(true)
		s.dispatch(callstate.InterruptDetected{})
	case modelsession.FatalError:
		s.dispatch(callstate.FatalErrorEvent{Detail: e.Detail})
	case modelsession.Closed:
		s.dispatch(callstate.FatalErrorEvent{Detail: e.Reason})
	}
}

func (s *Supervisor) forwardModelAudio(e modelsession.AudioOut) {
	// Dispatch first: if this chunk starts a brand-new turn (THINKING ->
	// SPEAKING), the machine's EmitAudioOutFrames entry action clears
	// outboundSuppressed before forwardModelAudioPCM checks it below. If
	// this chunk is stale tail-end audio from a generation the lead already
	// interrupted, the state is still LISTENING and the flag stays set.
	s.dispatch(callstate.AudioOutReceived{})
	s.forwardModelAudioPCM(e.PCM24k)
}

// forwardModelAudioPCM resamples one chunk of model-generated audio to the
// carrier's canonical rate and forwards it. Split out from forwardModelAudio
// so it can be exercised without a live modelsession.Session.
func (s *Supervisor) forwardModelAudioPCM(pcm24k []byte) {
	if s.outboundSuppressed {
		return
	}
	pcm16k, err := audio.Resample(pcm24k, audio.Rate24k, audio.Rate16k)
	if err != nil {
		s.log.Warn("supervisor: resampling model audio failed", "error", err)
		return
	}
	if err := s.cfg.Carrier.SendAudio(pcm16k); err != nil {
		s.log.Warn("supervisor: sending outbound audio failed", "error", err)
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordChunkOut(s.cfg.Agent.ID)
	}
}

// runAnalysisAndPrinciple runs the Conversation Analyzer and Principle
// Engine against the latest transcript text — THINKING's entry action
// (spec §4.9: "Snapshot transcript; run Analyzer; pick Principle").
func (s *Supervisor) runAnalysisAndPrinciple() {
	var langs []domain.Language
	langs = append(langs, s.cfg.Agent.Language)

	analysis, nextState := analyzer.Analyze(s.lastUserText, s.turnHistory, langs, s.analyzerStateValue())
	s.analyzerState = nextState
	s.currentAnalysis = analysis
	s.currentDecision = s.principleEngine.Decide(analysis)

	s.currentTurn.UserTranscript = s.lastUserText
	s.currentTurn.Stage = analysis.Stage
	s.currentTurn.Profile = analysis.Profile
	s.currentTurn.Objections = analysis.Objections
	s.currentTurn.Principle = s.currentDecision.Principle
	s.currentTurn.Sentiment = analysis.Sentiment
}

func (s *Supervisor) analyzerStateValue() analyzer.State {
	return s.analyzerState
}

// selectAndStreamFiller is RECOVERY's entry action.
func (s *Supervisor) selectAndStreamFiller() {
	if s.cfg.Fillers == nil {
		return
	}
	filler, ok := s.cfg.Fillers.Select(s.cfg.Agent.Language, s.currentDecision.Principle, s.currentAnalysis.Profile, s.recentFillerIDs)
	if !ok {
		return
	}
	s.recentFillerIDs = append([]string{filler.ID}, s.recentFillerIDs...)
	if len(s.recentFillerIDs) > 2 {
		s.recentFillerIDs = s.recentFillerIDs[:2]
	}
	s.currentTurn.FillerID = filler.ID

	if err := s.cfg.Carrier.SendAudio(filler.PCM); err != nil {
		s.log.Warn("supervisor: streaming filler failed", "error", err)
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordFillerPlayed(s.cfg.Agent.ID)
	}

	time.AfterFunc(time.Duration(filler.Duration*float64(time.Second)), func() {
		s.dispatch(callstate.FillerEnded{})
	})
}

// emitPromptToRepeat plays the reserved "could you repeat that?" nudge when
// RECOVERY exhausts its fillers with no AudioOut ever arriving (spec §4.9
// RECOVERY row; §8 boundary: "RECOVERY emits the verbal prompt-to-repeat,
// not silence").
func (s *Supervisor) emitPromptToRepeat() {
	if s.cfg.Fillers == nil {
		return
	}
	filler, ok := s.cfg.Fillers.SelectPromptToRepeat(s.cfg.Agent.Language)
	if !ok {
		s.log.Warn("supervisor: no prompt-to-repeat filler available", "language", s.cfg.Agent.Language)
		return
	}
	if err := s.cfg.Carrier.SendAudio(filler.PCM); err != nil {
		s.log.Warn("supervisor: streaming prompt-to-repeat failed", "error", err)
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordFillerPlayed(s.cfg.Agent.ID)
	}
}

// finalizeTurn commits the in-flight turn to history and persists it (spec
// §5: "Turn-log entries are committed in turn order after TurnComplete or
// interruption").
func (s *Supervisor) finalizeTurn(interrupted bool) {
	s.currentTurn.Index = s.turnIndex
	s.currentTurn.EndedAt = time.Now()
	s.currentTurn.Interrupted = interrupted

	if s.cfg.TurnRepo != nil {
		if err := s.cfg.TurnRepo.AppendTurn(context.Background(), s.cfg.CallID, s.currentTurn); err != nil {
			s.log.Warn("supervisor: persisting turn failed", "error", err)
		}
	}
	if interrupted && s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordInterruption(s.cfg.Agent.ID)
	}

	s.turnHistory = append(s.turnHistory, s.currentTurn)
	s.turnIndex++
	s.currentTurn = domain.Turn{StartedAt: time.Now()}
}

func (s *Supervisor) execute(action callstate.Action) {
	switch a := action.(type) {
	case callstate.AppendCallLogEvent:
		s.appendCallLog(a.From, a.To)
	case callstate.EmitStateChange:
		if s.cfg.Observer != nil {
			s.cfg.Observer.OnStateChange(s.cfg.CallID, string(a.From), string(a.To))
		}
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordStateChange(s.cfg.Agent.ID, string(a.From), string(a.To))
		}
	case callstate.RunAnalyzer:
		// Analysis is run opportunistically as transcripts arrive
		// (runAnalysisAndPrinciple); THINKING's entry here just confirms
		// the most recent analysis feeds the upcoming principle/prompt
		// decision rather than re-deriving it from scratch.
	case callstate.StartHedgeTimer:
		s.hedgeTimer = time.NewTimer(callstate.HedgeTimeout)
	case callstate.StartThinkingTimeout:
		s.thinkingTimer = time.NewTimer(callstate.ThinkingTimeout)
	case callstate.CancelThinkingTimers:
		stopTimer(s.hedgeTimer)
		stopTimer(s.thinkingTimer)
	case callstate.SelectFiller:
		s.selectAndStreamFiller()
	case callstate.EmitAudioOutFrames:
		s.outboundSuppressed = false
	case callstate.StopOutboundFrames:
		s.outboundSuppressed = true
	case callstate.DrainOutboundBuffer:
		// forwardModelAudioPCM calls straight through to the carrier with no
		// intermediate queue, so there is nothing buffered to discard beyond
		// the outboundSuppressed flag StopOutboundFrames just set.
	case callstate.SendCarrierInterrupt:
		if err := s.cfg.Carrier.SendInterrupt(); err != nil {
			s.log.Warn("supervisor: sending carrier interrupt failed", "error", err)
		}
	case callstate.EmitCancelSignal:
		// The model's realtime protocol has no mid-generation cancel message
		// to send; the superseded generation's remaining AudioOut chunks are
		// instead filtered out by outboundSuppressed until the next turn.
	case callstate.PromptToRepeat:
		s.emitPromptToRepeat()
	case callstate.CloseModelSession:
		if s.session != nil {
			s.session.Close()
		}
	case callstate.PersistCallRecord:
		s.persistCallRecord(a.Reason)
	case callstate.EmitMetrics:
		// per-call aggregate metrics are emitted by persistCallRecord's
		// caller via the metrics recorder's counters, already updated
		// incrementally; nothing further to flush here.
	}
}

func (s *Supervisor) appendCallLog(from, to callstate.State) {
	if s.cfg.LogRepo == nil {
		return
	}
	event := domain.CallLogEvent{
		CallID:    s.cfg.CallID,
		Timestamp: time.Now(),
		Details:   string(from) + " -> " + string(to),
	}
	if err := s.cfg.LogRepo.Append(context.Background(), event); err != nil {
		s.log.Warn("supervisor: appending call log event failed", "error", err)
	}
}

func (s *Supervisor) persistCallRecord(reason callstate.EndReason) {
	if s.cfg.CallRepo == nil {
		return
	}
	outcome := outcomeForEndReason(reason)
	if err := s.cfg.CallRepo.Finalize(context.Background(), s.cfg.CallID, outcome, s.currentAnalysis.Sentiment, time.Now()); err != nil {
		s.log.Warn("supervisor: finalizing call record failed", "error", err)
	}
}

func outcomeForEndReason(reason callstate.EndReason) domain.CallOutcome {
	switch reason {
	case callstate.EndReasonManualHangup:
		return domain.CallOutcomeCallbackRequested
	default:
		return domain.CallOutcomeNotInterested
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// teardown cancels every owned timer and closes the carrier/session
// sockets. Cooperative teardown: each owned resource's Close is
// independently safe to call even if the call ended abnormally (spec §5:
// "each task must release sockets and timers within 200ms").
func (s *Supervisor) teardown() {
	stopTimer(s.hedgeTimer)
	stopTimer(s.thinkingTimer)
	stopTimer(s.listeningTimer)
	stopTimer(s.maxDurationTimer)
	stopTimer(s.endSilenceTimer)

	if s.session != nil {
		s.session.Close()
	}
	if s.cfg.Carrier != nil {
		s.cfg.Carrier.Close()
	}
}
