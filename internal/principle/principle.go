// Package principle implements the Principle Engine: selecting one of six
// psychological principles to guide the next agent response (spec §4.6).
package principle

import (
	"strings"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// stageSet and profileSet and objectionSet define which stages/profiles/
// objections each principle applies to. Values chosen from standard sales
// psychology associations for each principle.
var stageSet = map[domain.Principle][]domain.Stage{
	domain.PrincipleReciprocity: {domain.StageAwareness, domain.StageConsideration},
	domain.PrincipleCommitment:  {domain.StageConsideration, domain.StageDecision},
	domain.PrincipleSocialProof: {domain.StageAwareness, domain.StageConsideration, domain.StageDecision},
	domain.PrincipleAuthority:   {domain.StageAwareness, domain.StageConsideration},
	domain.PrincipleLiking:      {domain.StageAwareness, domain.StageConsideration, domain.StageDecision},
	domain.PrincipleScarcity:    {domain.StageDecision},
}

var profileSet = map[domain.Principle][]domain.Profile{
	domain.PrincipleReciprocity: {domain.ProfileRelationshipSeeker, domain.ProfileEmotional},
	domain.PrincipleCommitment:  {domain.ProfileDecisionMaker, domain.ProfileAnalytical},
	domain.PrincipleSocialProof: {domain.ProfileSkeptical, domain.ProfileRelationshipSeeker},
	domain.PrincipleAuthority:   {domain.ProfileAnalytical, domain.ProfileSkeptical},
	domain.PrincipleLiking:      {domain.ProfileEmotional, domain.ProfileRelationshipSeeker},
	domain.PrincipleScarcity:    {domain.ProfileDecisionMaker, domain.ProfileAnalytical},
}

var objectionSet = map[domain.Principle][]domain.Objection{
	domain.PrincipleReciprocity: {domain.ObjectionNeed},
	domain.PrincipleCommitment:  {domain.ObjectionTiming},
	domain.PrincipleSocialProof: {domain.ObjectionTrust, domain.ObjectionQuality},
	domain.PrincipleAuthority:   {domain.ObjectionTrust, domain.ObjectionQuality},
	domain.PrincipleLiking:      {domain.ObjectionNeed},
	domain.PrincipleScarcity:    {domain.ObjectionPrice, domain.ObjectionTiming},
}

// Engine tracks per-call rotation state: recent principle usage and a
// round-robin counter for tie-breaking (spec §4.6 step 6).
type Engine struct {
	recent       []domain.Principle // most recent first, capped at 2
	roundRobin   int
}

func NewEngine() *Engine {
	return &Engine{}
}

// Decide runs the six-step selection algorithm and records the result into
// the rotation window.
func (e *Engine) Decide(analysis domain.Analysis) domain.PrincipleDecision {
	candidates := filterByStage(domain.AllPrinciples, analysis.Stage)
	candidates = filterByProfile(candidates, analysis.Profile)

	reasoning := []string{"stage=" + string(analysis.Stage), "profile=" + string(analysis.Profile)}

	if len(analysis.Objections) > 0 {
		if narrowed := filterByObjections(candidates, analysis.Objections); len(narrowed) > 0 {
			candidates = narrowed
			reasoning = append(reasoning, "objection-narrowed")
		}
	}

	afterRecency := excludeRecent(candidates, e.recent)
	if len(afterRecency) == 0 {
		// Step 5: reset the recency window and retry once.
		e.recent = nil
		afterRecency = candidates
		reasoning = append(reasoning, "recency-window-reset")
	}
	candidates = afterRecency

	if len(candidates) == 0 {
		// Nothing matched stage/profile at all; fall back to the full set
		// so the call always has a principle to work with.
		candidates = domain.AllPrinciples
		reasoning = append(reasoning, "fallback-to-full-set")
	}

	chosen := e.pickTopCandidate(candidates)
	e.recordUsage(chosen)

	return domain.PrincipleDecision{
		Principle: chosen,
		Reasoning: strings.Join(reasoning, ", "),
	}
}

func filterByStage(principles []domain.Principle, stage domain.Stage) []domain.Principle {
	var out []domain.Principle
	for _, p := range principles {
		if stageContains(stageSet[p], stage) {
			out = append(out, p)
		}
	}
	return out
}

func filterByProfile(principles []domain.Principle, profile domain.Profile) []domain.Principle {
	var out []domain.Principle
	for _, p := range principles {
		if profileContains(profileSet[p], profile) {
			out = append(out, p)
		}
	}
	return out
}

func filterByObjections(principles []domain.Principle, objections []domain.Objection) []domain.Principle {
	var out []domain.Principle
	for _, p := range principles {
		for _, o := range objections {
			if objectionContains(objectionSet[p], o) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func excludeRecent(principles []domain.Principle, recent []domain.Principle) []domain.Principle {
	var out []domain.Principle
	for _, p := range principles {
		if !principleContains(recent, p) {
			out = append(out, p)
		}
	}
	return out
}

// pickTopCandidate returns the candidate with the highest priority (lowest
// index in domain.AllPrinciples), tie-broken by the round-robin counter.
func (e *Engine) pickTopCandidate(candidates []domain.Principle) domain.Principle {
	best := -1
	var tied []domain.Principle
	for _, p := range candidates {
		rank := priorityRank(p)
		if best == -1 || rank < best {
			best = rank
			tied = []domain.Principle{p}
		} else if rank == best {
			tied = append(tied, p)
		}
	}
	if len(tied) == 0 {
		return domain.AllPrinciples[0]
	}
	chosen := tied[e.roundRobin%len(tied)]
	e.roundRobin++
	return chosen
}

func (e *Engine) recordUsage(p domain.Principle) {
	e.recent = append([]domain.Principle{p}, e.recent...)
	if len(e.recent) > 2 {
		e.recent = e.recent[:2]
	}
}

func priorityRank(p domain.Principle) int {
	for i, candidate := range domain.AllPrinciples {
		if candidate == p {
			return i
		}
	}
	return len(domain.AllPrinciples)
}

func stageContains(set []domain.Stage, s domain.Stage) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func profileContains(set []domain.Profile, p domain.Profile) bool {
	for _, x := range set {
		if x == p {
			return true
		}
	}
	return false
}

func objectionContains(set []domain.Objection, o domain.Objection) bool {
	for _, x := range set {
		if x == o {
			return true
		}
	}
	return false
}

func principleContains(set []domain.Principle, p domain.Principle) bool {
	for _, x := range set {
		if x == p {
			return true
		}
	}
	return false
}
