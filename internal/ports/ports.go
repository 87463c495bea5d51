// Package ports defines the boundary interfaces the Call Supervisor depends
// on but does not implement: persistence, metrics, and tracing. Concrete
// adapters live under internal/adapters/*; tests supply fakes.
package ports

import (
	"context"
	"time"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// CallRepository persists call lifecycle records (spec §3 Call, §4.9
// CALL_ENDING: "persist call record").
type CallRepository interface {
	Create(ctx context.Context, call *domain.Call) error
	UpdateStatus(ctx context.Context, callID string, status domain.CallStatus) error
	Finalize(ctx context.Context, callID string, outcome domain.CallOutcome, sentiment float64, endedAt time.Time) error
}

// TurnRepository appends completed turns to a call's transcript (spec §4.9
// CALL_ENDING: "finalize turn log").
type TurnRepository interface {
	AppendTurn(ctx context.Context, callID string, turn domain.Turn) error
}

// CallLogRepository appends carrier-lifecycle events (spec §3 CallLogEvent).
type CallLogRepository interface {
	Append(ctx context.Context, event domain.CallLogEvent) error
}

// AgentRepository loads the immutable-per-call agent configuration.
type AgentRepository interface {
	Get(ctx context.Context, agentID string) (*domain.Agent, error)
}

// MetricsRecorder updates the call-level counters the state machine's
// transitions drive (spec §4.9: "update metrics counters (chunks in/out,
// fillers played, interruption count, model latency)").
type MetricsRecorder interface {
	RecordChunkIn(agentID string)
	RecordChunkOut(agentID string)
	RecordFillerPlayed(agentID string)
	RecordInterruption(agentID string)
	RecordModelLatency(agentID string, d time.Duration)
	RecordStateChange(agentID string, from, to string)
}

// StateObserver receives state_change notifications for external observers
// (dashboards, debugging tools) independent of metrics/log persistence.
type StateObserver interface {
	OnStateChange(callID string, from, to string)
}
