// Package hedge implements the Hedge Selector: picking a pre-loaded PCM
// filler to play during model thinking so there is no silent gap over
// 400ms (spec §4.7).
package hedge

import (
	"strings"
	"sync"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// PromptToRepeatPrefix marks the manifest filler IDs reserved for the
// verbal "could you repeat that?" nudge RECOVERY falls back to when a
// turn ends two fillers deep with no AudioOut ever arriving (spec §4.9
// RECOVERY row: "prompt-to-repeat utterance", not silence).
const PromptToRepeatPrefix = "prompt_to_repeat"

// Index indexes a Filler set by language, principle, and profile at
// startup for O(1) narrowing (spec §4.7: "fillers are indexed at startup").
type Index struct {
	fillers []domain.Filler

	mu         sync.Mutex
	roundRobin int
}

func NewIndex(fillers []domain.Filler) *Index {
	return &Index{fillers: fillers}
}

// Select runs the five-step narrowing selection, reverting to the
// previous step's candidate set whenever a step would empty it.
func (idx *Index) Select(language domain.Language, principle domain.Principle, profile domain.Profile, recent []string) (domain.Filler, bool) {
	candidates := idx.fillers
	if len(candidates) == 0 {
		return domain.Filler{}, false
	}

	// Step 1: language filter (critical) — fall back to English if empty.
	byLanguage := filterByLanguage(candidates, language)
	if len(byLanguage) == 0 {
		byLanguage = filterByLanguage(candidates, domain.LanguageEnglish)
	}
	if len(byLanguage) == 0 {
		byLanguage = candidates
	}
	candidates = byLanguage

	// Step 2: principle filter (strong).
	if byPrinciple := filterByPrinciple(candidates, principle); len(byPrinciple) > 0 {
		candidates = byPrinciple
	}

	// Step 3: profile filter (soft).
	if byProfile := filterByProfile(candidates, profile); len(byProfile) > 0 {
		candidates = byProfile
	}

	// Step 4: variety filter.
	if byVariety := excludeRecent(candidates, recent); len(byVariety) > 0 {
		candidates = byVariety
	}

	// Step 5: effectiveness pick, tie-broken round-robin.
	idx.mu.Lock()
	defer idx.mu.Unlock()
	chosen := pickMostEffective(candidates, idx.roundRobin)
	idx.roundRobin++
	return chosen, true
}

// SelectPromptToRepeat picks the reserved prompt-to-repeat clip for
// language, falling back to English the same way Select's step 1 does.
// Unlike Select, it ignores principle/profile/recency narrowing: there is
// only ever a handful of these clips, and RECOVERY reaches for one
// precisely because the ordinary hedge pool ran out.
func (idx *Index) SelectPromptToRepeat(language domain.Language) (domain.Filler, bool) {
	candidates := filterPromptToRepeat(idx.fillers, language)
	if len(candidates) == 0 {
		candidates = filterPromptToRepeat(idx.fillers, domain.LanguageEnglish)
	}
	if len(candidates) == 0 {
		return domain.Filler{}, false
	}
	return candidates[0], true
}

func filterPromptToRepeat(fillers []domain.Filler, language domain.Language) []domain.Filler {
	var out []domain.Filler
	for _, f := range fillers {
		if strings.HasPrefix(f.ID, PromptToRepeatPrefix) && f.Tags.HasLanguage(language) {
			out = append(out, f)
		}
	}
	return out
}

func filterByLanguage(fillers []domain.Filler, language domain.Language) []domain.Filler {
	var out []domain.Filler
	for _, f := range fillers {
		if f.Tags.HasLanguage(language) {
			out = append(out, f)
		}
	}
	return out
}

func filterByPrinciple(fillers []domain.Filler, principle domain.Principle) []domain.Filler {
	var out []domain.Filler
	for _, f := range fillers {
		if f.Tags.HasPrinciple(principle) {
			out = append(out, f)
		}
	}
	return out
}

func filterByProfile(fillers []domain.Filler, profile domain.Profile) []domain.Filler {
	var out []domain.Filler
	for _, f := range fillers {
		if f.Tags.HasProfile(profile) {
			out = append(out, f)
		}
	}
	return out
}

func excludeRecent(fillers []domain.Filler, recent []string) []domain.Filler {
	var out []domain.Filler
	for _, f := range fillers {
		if !containsID(recent, f.ID) {
			out = append(out, f)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func pickMostEffective(fillers []domain.Filler, roundRobin int) domain.Filler {
	best := -1.0
	var tied []domain.Filler
	for _, f := range fillers {
		if f.Tags.Effectiveness > best {
			best = f.Tags.Effectiveness
			tied = []domain.Filler{f}
		} else if f.Tags.Effectiveness == best {
			tied = append(tied, f)
		}
	}
	return tied[roundRobin%len(tied)]
}
