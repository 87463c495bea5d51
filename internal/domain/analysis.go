package domain

// Stage is the conversation's position in the sales funnel, produced by the
// Conversation Analyzer (spec §4.5) and consumed by the Principle Engine.
type Stage string

const (
	StageAwareness    Stage = "AWARENESS"
	StageConsideration Stage = "CONSIDERATION"
	StageDecision      Stage = "DECISION"
)

// Profile classifies the counterparty's decision style.
type Profile string

const (
	ProfileAnalytical        Profile = "ANALYTICAL"
	ProfileEmotional         Profile = "EMOTIONAL"
	ProfileSkeptical         Profile = "SKEPTICAL"
	ProfileDecisionMaker     Profile = "DECISION_MAKER"
	ProfileRelationshipSeeker Profile = "RELATIONSHIP_SEEKER"
)

// Objection is a class of pushback the analyzer can detect in user speech.
type Objection string

const (
	ObjectionPrice   Objection = "PRICE"
	ObjectionQuality Objection = "QUALITY"
	ObjectionTrust   Objection = "TRUST"
	ObjectionTiming  Objection = "TIMING"
	ObjectionNeed    Objection = "NEED"
)

// Principle is one of the six psychological principles the Principle Engine
// chooses between to guide the next agent response.
type Principle string

const (
	PrincipleReciprocity Principle = "RECIPROCITY"
	PrincipleCommitment  Principle = "COMMITMENT"
	PrincipleSocialProof Principle = "SOCIAL_PROOF"
	PrincipleAuthority   Principle = "AUTHORITY"
	PrincipleLiking      Principle = "LIKING"
	PrincipleScarcity    Principle = "SCARCITY"
)

// AllPrinciples is the fixed, priority-ordered principle set the Principle
// Engine filters down from (spec §4.6 step 6: "deterministic ordering by the
// principle's configured priority").
var AllPrinciples = []Principle{
	PrincipleReciprocity,
	PrincipleCommitment,
	PrincipleSocialProof,
	PrincipleAuthority,
	PrincipleLiking,
	PrincipleScarcity,
}

// AllObjections is the fixed objection vocabulary the Conversation Analyzer
// detects (spec §4.5).
var AllObjections = []Objection{
	ObjectionPrice,
	ObjectionQuality,
	ObjectionTrust,
	ObjectionTiming,
	ObjectionNeed,
}

// Analysis is the Conversation Analyzer's per-turn output (spec §4.5).
type Analysis struct {
	Stage      Stage
	Profile    Profile
	Objections []Objection
	Language   Language
	Sentiment  float64 // [0,1]
}

// HasObjection reports whether o is present in the analysis.
func (a Analysis) HasObjection(o Objection) bool {
	for _, x := range a.Objections {
		if x == o {
			return true
		}
	}
	return false
}

// PrincipleDecision is the Principle Engine's output for one turn (spec
// §4.6): the chosen principle plus a short reasoning string for logs.
type PrincipleDecision struct {
	Principle Principle
	Reasoning string
}
