package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

var defaultLanguages = []domain.Language{domain.LanguageEnglish, domain.LanguageHindi, domain.LanguageHinglish}

func TestAnalyze_EarlyTurnsAreAwareness(t *testing.T) {
	a, _ := Analyze("tell me more about this", nil, defaultLanguages, State{})
	assert.Equal(t, domain.StageAwareness, a.Stage)
}

func TestAnalyze_DecisionKeywordsOverrideTurnCount(t *testing.T) {
	a, _ := Analyze("ok let's schedule a demo", nil, defaultLanguages, State{})
	assert.Equal(t, domain.StageDecision, a.Stage)
}

func TestAnalyze_PriceObjectionDetected(t *testing.T) {
	a, _ := Analyze("that seems too expensive for our budget", nil, defaultLanguages, State{})
	assert.True(t, a.HasObjection(domain.ObjectionPrice))
}

func TestAnalyze_ProfileLocksAfterFirstStrongSignal(t *testing.T) {
	a1, state := Analyze("what's the ROI on this, show me the numbers", nil, defaultLanguages, State{})
	assert.Equal(t, domain.ProfileAnalytical, a1.Profile)
	assert.True(t, state.ProfileLocked)

	a2, _ := Analyze("I feel a bit worried about switching", nil, defaultLanguages, state)
	assert.Equal(t, domain.ProfileAnalytical, a2.Profile, "an equally strong signal should not override a locked profile")
}

func TestAnalyze_LanguageLocksAfterFirstCall(t *testing.T) {
	_, state := Analyze("yeh theek hai", nil, defaultLanguages, State{})
	assert.True(t, state.LanguageLocked)

	_, state2 := Analyze("totally different text now", nil, defaultLanguages, state)
	assert.Equal(t, state.Language, state2.Language)
}

func TestAnalyze_SentimentBoundedZeroOne(t *testing.T) {
	a, _ := Analyze("this is terrible terrible terrible awful hate it", nil, defaultLanguages, State{})
	assert.GreaterOrEqual(t, a.Sentiment, 0.0)
	assert.LessOrEqual(t, a.Sentiment, 1.0)
	assert.Less(t, a.Sentiment, 0.5)
}
