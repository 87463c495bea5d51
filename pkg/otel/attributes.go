package otel

import "go.opentelemetry.io/otel/attribute"

// Standard attribute keys for voice core spans.
const (
	AttrCallID        = "call.id"
	AttrAgentID       = "agent.id"
	AttrTurnID        = "turn.id"
	AttrCallState     = "call.state"
	AttrCarrierKind   = "carrier.kind"
	AttrModelLatencyMs = "model.latency_ms"
	AttrCacheHandle   = "cache.handle"
	AttrCacheHit      = "cache.hit"
	AttrChunksIn      = "audio.chunks_in"
	AttrChunksOut     = "audio.chunks_out"
	AttrFillerID      = "filler.id"
	AttrRequestID     = "request.id"
)

func CallID(id string) attribute.KeyValue       { return attribute.String(AttrCallID, id) }
func AgentID(id string) attribute.KeyValue      { return attribute.String(AttrAgentID, id) }
func TurnID(id string) attribute.KeyValue       { return attribute.String(AttrTurnID, id) }
func CallState(state string) attribute.KeyValue { return attribute.String(AttrCallState, state) }
func CarrierKind(kind string) attribute.KeyValue { return attribute.String(AttrCarrierKind, kind) }
func ModelLatencyMs(ms int64) attribute.KeyValue { return attribute.Int64(AttrModelLatencyMs, ms) }
func CacheHandle(handle string) attribute.KeyValue { return attribute.String(AttrCacheHandle, handle) }
func CacheHit(hit bool) attribute.KeyValue      { return attribute.Bool(AttrCacheHit, hit) }
func ChunksIn(n int64) attribute.KeyValue       { return attribute.Int64(AttrChunksIn, n) }
func ChunksOut(n int64) attribute.KeyValue      { return attribute.Int64(AttrChunksOut, n) }
func FillerID(id string) attribute.KeyValue     { return attribute.String(AttrFillerID, id) }
func RequestID(id string) attribute.KeyValue    { return attribute.String(AttrRequestID, id) }
