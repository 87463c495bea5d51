// Package analyzer classifies lightweight conversation signals from
// accumulating turn text, entirely local and keyword/lexicon driven (spec
// §4.5). No network calls; must complete well under 100ms.
package analyzer

import (
	"strings"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// stageDecisionKeywords trigger an immediate DECISION-stage classification
// regardless of turn count.
var stageDecisionKeywords = []string{"buy", "purchase", "schedule", "sign up", "sign me up", "let's do it", "book a"}

var stageConsiderationKeywords = []string{"compare", "versus", "vs", "difference between", "which is better", "feature", "pricing tier"}

var profileAnalyticalKeywords = []string{"roi", "percent", "%", "data", "metrics", "numbers", "cost-benefit"}
var profileEmotionalKeywords = []string{"feel", "feeling", "worried", "excited", "nervous", "stressed"}
var profileSkepticalKeywords = []string{"guarantee", "scam", "too good to be true", "prove it", "suspicious"}
var profileDecisionMakerKeywords = []string{"just send me", "book it", "set it up", "make it happen", "get it done"}

var objectionKeywords = map[domain.Objection][]string{
	domain.ObjectionPrice:   {"expensive", "cost", "price", "afford", "budget"},
	domain.ObjectionQuality: {"reliable", "quality", "works well", "good enough"},
	domain.ObjectionTrust:   {"trust", "scam", "legit", "reviews", "reputation"},
	domain.ObjectionTiming:  {"not now", "later", "busy", "next quarter", "next month"},
	domain.ObjectionNeed:    {"don't need", "not interested", "no use for", "already have"},
}

var positiveIntensifiers = []string{"great", "love", "excellent", "perfect", "amazing", "yes"}
var negativeIntensifiers = []string{"bad", "hate", "terrible", "awful", "no way", "annoying"}
var intensifierMultipliers = []string{"very", "extremely", "really", "so"}

// State carries the sticky classification fields that persist across
// Analyze calls for one call (spec §4.5: "language and profile are sticky
// after first determination with confidence").
type State struct {
	Language        domain.Language
	LanguageLocked  bool
	Profile         domain.Profile
	ProfileLocked   bool
	profileStrength float64
}

// Analyze classifies the latest utterance given the accumulated turn
// history and the prior sticky State, returning the updated Analysis and
// State.
func Analyze(latest string, history []domain.Turn, agentLanguages []domain.Language, state State) (domain.Analysis, State) {
	lower := strings.ToLower(latest)

	stage := classifyStage(lower, len(history))
	profile, newState := classifyProfile(lower, state)
	objections := classifyObjections(lower)
	language := classifyLanguage(lower, agentLanguages, newState)
	sentiment := classifySentiment(lower)

	newState.Language = language
	newState.LanguageLocked = true

	return domain.Analysis{
		Stage:      stage,
		Profile:    profile,
		Objections: objections,
		Language:   language,
		Sentiment:  sentiment,
	}, newState
}

func classifyStage(lower string, turnCount int) domain.Stage {
	if containsAny(lower, stageDecisionKeywords) {
		return domain.StageDecision
	}
	if containsAny(lower, stageConsiderationKeywords) {
		return domain.StageConsideration
	}
	if turnCount < 3 {
		return domain.StageAwareness
	}
	return domain.StageConsideration
}

func classifyProfile(lower string, state State) (domain.Profile, State) {
	candidate, confidence := rawProfile(lower)

	if !state.ProfileLocked {
		state.Profile = candidate
		state.profileStrength = confidence
		state.ProfileLocked = candidate != domain.ProfileRelationshipSeeker
		return state.Profile, state
	}

	// Sticky: only transition if the new signal is stronger than the one
	// that last set the profile (spec §4.5 hysteresis).
	if candidate != state.Profile && confidence > state.profileStrength {
		state.Profile = candidate
		state.profileStrength = confidence
	}
	return state.Profile, state
}

func rawProfile(lower string) (domain.Profile, float64) {
	switch {
	case containsAny(lower, profileAnalyticalKeywords):
		return domain.ProfileAnalytical, 1.0
	case containsAny(lower, profileEmotionalKeywords):
		return domain.ProfileEmotional, 1.0
	case containsAny(lower, profileSkepticalKeywords):
		return domain.ProfileSkeptical, 1.0
	case containsAny(lower, profileDecisionMakerKeywords):
		return domain.ProfileDecisionMaker, 1.0
	default:
		return domain.ProfileRelationshipSeeker, 0.0
	}
}

func classifyObjections(lower string) []domain.Objection {
	var found []domain.Objection
	for _, objection := range domain.AllObjections {
		for _, kw := range objectionKeywords[objection] {
			if strings.Contains(lower, kw) {
				found = append(found, objection)
				break
			}
		}
	}
	return found
}

// classifyLanguage keeps the sticky locked language unless it has not yet
// been set, then applies a crude script/token heuristic over the agent's
// configured language set.
func classifyLanguage(lower string, agentLanguages []domain.Language, state State) domain.Language {
	if state.LanguageLocked {
		return state.Language
	}
	if hasDevanagari(lower) {
		if containsAnyLanguage(agentLanguages, domain.LanguageHindi, domain.LanguageMarathi) {
			return pickConfiguredOr(agentLanguages, domain.LanguageHindi)
		}
	}
	if looksHinglish(lower) {
		if containsAnyLanguage(agentLanguages, domain.LanguageHinglish) {
			return domain.LanguageHinglish
		}
	}
	return pickConfiguredOr(agentLanguages, domain.LanguageEnglish)
}

func hasDevanagari(s string) bool {
	for _, r := range s {
		if r >= 0x0900 && r <= 0x097F {
			return true
		}
	}
	return false
}

// looksHinglish is a mixed-token heuristic: common Hindi function words
// transliterated into Latin script alongside English words.
var hinglishMarkers = []string{"hai", "nahi", "kya", "matlab", "acha", "theek"}

func looksHinglish(lower string) bool {
	return containsAny(lower, hinglishMarkers)
}

func containsAnyLanguage(set []domain.Language, candidates ...domain.Language) bool {
	for _, s := range set {
		for _, c := range candidates {
			if s == c {
				return true
			}
		}
	}
	return false
}

func pickConfiguredOr(set []domain.Language, preferred domain.Language) domain.Language {
	for _, s := range set {
		if s == preferred {
			return preferred
		}
	}
	if len(set) > 0 {
		return set[0]
	}
	return preferred
}

func classifySentiment(lower string) float64 {
	score := 0.5
	words := strings.Fields(lower)
	for i, w := range words {
		weight := 0.1
		if i > 0 && contains(intensifierMultipliers, words[i-1]) {
			weight = 0.2
		}
		if contains(positiveIntensifiers, w) {
			score += weight
		}
		if contains(negativeIntensifiers, w) {
			score -= weight
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

func containsAny(s string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
