package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/priority-technologies/shreenika-voice-core/internal/adapters/fillerstore"
	"github.com/priority-technologies/shreenika-voice-core/internal/adapters/metrics"
	"github.com/priority-technologies/shreenika-voice-core/internal/adapters/modelcache"
	"github.com/priority-technologies/shreenika-voice-core/internal/adapters/postgres"
	"github.com/priority-technologies/shreenika-voice-core/internal/audio"
	"github.com/priority-technologies/shreenika-voice-core/internal/cache"
	"github.com/priority-technologies/shreenika-voice-core/internal/carrier"
	"github.com/priority-technologies/shreenika-voice-core/internal/hedge"
	"github.com/priority-technologies/shreenika-voice-core/internal/prompt"
	"github.com/priority-technologies/shreenika-voice-core/internal/supervisor"
	"github.com/priority-technologies/shreenika-voice-core/shared/id"
)

// loopbackTransport feeds a scripted sequence of browser-protocol frames to
// a Carrier without a real socket, and records every frame written back, so
// simulate-call can drive a Supervisor without a client (spec §4.10: the
// Supervisor depends only on carrier.Carrier, never on a concrete
// transport).
type loopbackTransport struct {
	mu      sync.Mutex
	inbox   [][]byte
	pos     int
	outbox  [][]byte
	closed  bool
}

func (t *loopbackTransport) ReadMessage() (int, []byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.pos >= len(t.inbox) {
		return 0, nil, fmt.Errorf("loopback transport: no more scripted frames")
	}
	frame := t.inbox[t.pos]
	t.pos++
	time.Sleep(150 * time.Millisecond) // pace frames like a real mic stream
	return 1, frame, nil
}

func (t *loopbackTransport) WriteMessage(messageType int, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outbox = append(t.outbox, append([]byte(nil), data...))
	return nil
}

func (t *loopbackTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

type simBrowserFrame struct {
	Type        string   `json:"type"`
	Audio       string   `json:"audio,omitempty"`
	SampleRate  int      `json:"sampleRate,omitempty"`
	EnergyLevel *float64 `json:"energyLevel,omitempty"`
}

// scriptedUtterance builds silenceFrames 20ms frames of silence followed by
// voicedFrames frames of synthetic voiced energy, enough to exercise
// LISTENING -> THINKING -> SPEAKING without needing a real microphone capture.
func scriptedUtterance(silenceFrames, voicedFrames int) [][]byte {
	var frames [][]byte
	silence := make([]byte, 48000/1000*20*2) // 20ms of 16-bit mono @48kHz
	voiced := make([]byte, len(silence))
	for i := range voiced {
		if i%4 < 2 {
			voiced[i] = 0x40
		}
	}

	for i := 0; i < silenceFrames; i++ {
		frames = append(frames, mustMarshalFrame(simBrowserFrame{Type: "AUDIO", Audio: base64.StdEncoding.EncodeToString(silence), SampleRate: audio.Rate48k}))
	}
	for i := 0; i < voicedFrames; i++ {
		frames = append(frames, mustMarshalFrame(simBrowserFrame{Type: "AUDIO", Audio: base64.StdEncoding.EncodeToString(voiced), SampleRate: audio.Rate48k}))
	}
	return frames
}

func mustMarshalFrame(f simBrowserFrame) []byte {
	b, err := json.Marshal(f)
	if err != nil {
		panic(err)
	}
	return b
}

// simulateCallCmd drives one synthetic call through the Supervisor against
// a real model session and real persistence, using a scripted loopback
// transport in place of a carrier socket.
func simulateCallCmd() *cobra.Command {
	var agentID string

	cmd := &cobra.Command{
		Use:   "simulate-call",
		Short: "Drive one scripted call through the supervisor without a real carrier",
		RunE: func(cmd *cobra.Command, args []string) error {
			if agentID == "" {
				return fmt.Errorf("--agent-id is required")
			}
			return runSimulatedCall(cmd.Context(), agentID)
		},
	}
	cmd.Flags().StringVar(&agentID, "agent-id", "", "agent to simulate a call for")
	return cmd
}

func runSimulatedCall(ctx context.Context, agentID string) error {
	pool, err := initDB(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	agentRepo := postgres.NewAgentsRepository(pool)
	agent, err := agentRepo.Get(ctx, agentID)
	if err != nil {
		return fmt.Errorf("load agent: %w", err)
	}

	fillers, err := fillerstore.Load(cfg.Fillers.ManifestPath)
	if err != nil {
		fmt.Printf("warning: failed to load filler manifest (%v); continuing with no fillers\n", err)
	}

	callID := id.NewCall()
	transport := &loopbackTransport{
		inbox: scriptedUtterance(10, 30),
	}
	c := carrier.NewBrowser(transport, callID, nil)

	sup := supervisor.New(supervisor.Config{
		CallID:    callID,
		Agent:     agent,
		Lead:      prompt.Lead{FirstName: "Simulated", LastName: "Caller"},
		Carrier:   c,
		Fillers:   hedge.NewIndex(fillers),
		CacheMgr:  cache.NewManager(modelcache.New(cfg.Model.URL, cfg.Model.APIKey, cfg.Model.Name), nil),
		ModelURL:  cfg.Model.URL,
		ModelName: cfg.Model.Name,
		CallRepo:  postgres.NewCallsRepository(pool),
		TurnRepo:  postgres.NewTurnsRepository(pool),
		LogRepo:   postgres.NewCallLogsRepository(pool),
		Metrics:   metrics.NewRecorder(),
	})

	fmt.Printf("simulating call %s for agent %s\n", callID, agentID)

	if err := sup.Prewarm(ctx); err != nil {
		return fmt.Errorf("prewarm: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	if err := sup.Run(runCtx); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	transport.mu.Lock()
	outboundFrames := len(transport.outbox)
	transport.mu.Unlock()

	fmt.Printf("call %s ended; %d outbound frames sent to the simulated carrier\n", callID, outboundFrames)
	return nil
}
