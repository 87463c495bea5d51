// Package fillerstore loads the Hedge Selector's pre-recorded filler set
// (spec §4.7: "fillers are indexed at startup") from a manifest file plus
// a directory of raw PCM assets, the way internal/adapters/postgres loads
// rows into domain types at the edge of the system.
package fillerstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// manifestEntry mirrors one filler's metadata in manifest.json. File is
// relative to the manifest's directory and must be raw 16-bit signed LE,
// 16kHz, mono PCM (spec §3 invariants) — no WAV/container parsing, to keep
// this loader a pure directory-to-domain.Filler mapping.
type manifestEntry struct {
	ID            string   `json:"id"`
	File          string   `json:"file"`
	Languages     []string `json:"languages"`
	Principles    []string `json:"principles"`
	Profiles      []string `json:"profiles"`
	Tone          string   `json:"tone"`
	Effectiveness float64  `json:"effectiveness"`
	DurationSec   float64  `json:"duration_seconds"`
}

// Load reads manifestPath and the PCM files it references, returning the
// domain.Filler set ready for hedge.NewIndex.
func Load(manifestPath string) ([]domain.Filler, error) {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read filler manifest: %w", err)
	}

	var entries []manifestEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse filler manifest: %w", err)
	}

	dir := filepath.Dir(manifestPath)
	fillers := make([]domain.Filler, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(dir, e.File)
		pcm, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read filler asset %s: %w", e.ID, err)
		}

		fillers = append(fillers, domain.Filler{
			ID:       e.ID,
			FilePath: path,
			PCM:      pcm,
			Duration: e.DurationSec,
			Tags: domain.FillerTags{
				Languages:      toLanguages(e.Languages),
				Principles:     toPrinciples(e.Principles),
				ClientProfiles: toProfiles(e.Profiles),
				Tone:           domain.Tone(e.Tone),
				Effectiveness:  e.Effectiveness,
			},
		})
	}

	return fillers, nil
}

func toLanguages(ss []string) []domain.Language {
	out := make([]domain.Language, len(ss))
	for i, s := range ss {
		out[i] = domain.Language(s)
	}
	return out
}

func toPrinciples(ss []string) []domain.Principle {
	out := make([]domain.Principle, len(ss))
	for i, s := range ss {
		out[i] = domain.Principle(s)
	}
	return out
}

func toProfiles(ss []string) []domain.Profile {
	out := make([]domain.Profile, len(ss))
	for i, s := range ss {
		out[i] = domain.Profile(s)
	}
	return out
}
