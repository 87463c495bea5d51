// Package prompt assembles the single system instruction for a call,
// executed once before Connect (spec §4.8). The instruction is
// language-neutral prose organized into labeled sections.
package prompt

import (
	"fmt"
	"strings"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// Lead is the minimal counterparty identity the Prompt Builder needs for
// salutation rules (spec §4.8 item 7).
type Lead struct {
	FirstName string
	LastName  string
}

// jiLanguages address the lead as "<FirstName> Ji" when a first name is
// known. Otherwise a known last name gives "Mr./Ms. <LastName>", and a lead
// with neither is addressed as "there" (spec §4.8 item 7).
var jiLanguages = map[domain.Language]bool{
	domain.LanguageHindi:    true,
	domain.LanguageHinglish: true,
	domain.LanguageMarathi:  true,
}

// Build assembles the nine-section system instruction. knowledgeBudget is
// the hard character ceiling the Knowledge Base section must fit under
// (spec §4.3's 20,000-character setup payload ceiling less headroom for
// the other sections).
func Build(agent *domain.Agent, lead Lead, initialPrinciple domain.PrincipleDecision, stage domain.Stage, objections []domain.Objection, knowledgeBudget int) string {
	var b strings.Builder

	writeSection(&b, "Core Identity", coreIdentity(agent))
	writeSection(&b, "Voice & Personality", voicePersonality(agent))
	writeSection(&b, "Knowledge Base", knowledgeBase(agent.Knowledge, knowledgeBudget))
	writeSection(&b, "Principle Guidance", principleGuidance(initialPrinciple))
	writeSection(&b, "Stage Guidance", stageGuidance(stage))
	writeSection(&b, "Objection Handling", objectionHandling(objections))
	writeSection(&b, "Language & Culture", languageCulture(agent, lead))
	writeSection(&b, "Quality Guidelines", qualityGuidelines(agent))
	writeSection(&b, "Critical Rules", criticalRules())

	if clause := noiseClause(agent.Noise); clause != "" {
		b.WriteString(clause)
		b.WriteString("\n")
	}

	return b.String()
}

func writeSection(b *strings.Builder, title, body string) {
	b.WriteString(title)
	b.WriteString(":\n")
	b.WriteString(body)
	b.WriteString("\n\n")
}

func coreIdentity(agent *domain.Agent) string {
	return fmt.Sprintf(
		"You are %s, %s. Persona: %s. You speak with %s in the %s industry.",
		agent.DisplayName, agent.Role, agent.Persona, agent.Audience, agent.Industry,
	)
}

func voicePersonality(agent *domain.Agent) string {
	v := agent.EffectiveVoice()
	return fmt.Sprintf(
		"Tone: %s. Emotional expressiveness: %.2f. Speaking speed: %.2fx. Pitch: %.2fx. Pause style: %dms between thoughts. Articulation: %s.",
		v.Tone, v.EmotionLevel, v.Speed, v.Pitch, v.PauseMs, v.Clarity,
	)
}

func knowledgeBase(docs []domain.KnowledgeDoc, budget int) string {
	var b strings.Builder
	remaining := budget
	for i, doc := range docs {
		entry := fmt.Sprintf("%d. %s\n%s\n", i+1, doc.Title, doc.Text)
		if len(entry) > remaining {
			if remaining > 0 {
				b.WriteString(entry[:remaining])
			}
			break
		}
		b.WriteString(entry)
		remaining -= len(entry)
	}
	if b.Len() == 0 {
		return "(no knowledge documents configured)"
	}
	return b.String()
}

func principleGuidance(decision domain.PrincipleDecision) string {
	return fmt.Sprintf("Lead with the %s pattern: %s", decision.Principle, principlePattern(decision.Principle))
}

func principlePattern(p domain.Principle) string {
	switch p {
	case domain.PrincipleReciprocity:
		return "offer something of value before asking for commitment."
	case domain.PrincipleCommitment:
		return "invite a small, specific next step and reference it consistently."
	case domain.PrincipleSocialProof:
		return "reference how similar customers have benefited."
	case domain.PrincipleAuthority:
		return "cite credentials, data, or expertise that back your claims."
	case domain.PrincipleLiking:
		return "build rapport through genuine, specific compliments and common ground."
	case domain.PrincipleScarcity:
		return "note limited availability or a closing window, honestly."
	default:
		return "stay consultative and responsive to the lead's stated needs."
	}
}

func stageGuidance(stage domain.Stage) string {
	switch stage {
	case domain.StageAwareness:
		return "The lead is exploring. Educate without pressuring toward a decision."
	case domain.StageConsideration:
		return "The lead is comparing options. Differentiate clearly and answer specifics."
	case domain.StageDecision:
		return "The lead is close to deciding. Remove friction and propose a concrete next step."
	default:
		return "Match the lead's pace."
	}
}

func objectionHandling(objections []domain.Objection) string {
	if len(objections) == 0 {
		return "No objections detected yet. Listen for price, quality, trust, timing, or need concerns."
	}
	var parts []string
	for _, o := range objections {
		parts = append(parts, objectionStrategy(o))
	}
	return strings.Join(parts, " ")
}

func objectionStrategy(o domain.Objection) string {
	switch o {
	case domain.ObjectionPrice:
		return "On price: reframe around value and total cost of inaction."
	case domain.ObjectionQuality:
		return "On quality: point to specific guarantees or track record."
	case domain.ObjectionTrust:
		return "On trust: offer verifiable references and transparent terms."
	case domain.ObjectionTiming:
		return "On timing: surface the cost of waiting without being pushy."
	case domain.ObjectionNeed:
		return "On need: reconnect the offering to a problem the lead already named."
	default:
		return ""
	}
}

func languageCulture(agent *domain.Agent, lead Lead) string {
	salutation := salutationFor(agent.Language, lead)
	return fmt.Sprintf(
		"Address the lead as %s. Speak primarily in %s; code-switch to English for technical terms only when it aids clarity.",
		salutation, agent.Language,
	)
}

func salutationFor(language domain.Language, lead Lead) string {
	if jiLanguages[language] && lead.FirstName != "" {
		return lead.FirstName + " Ji"
	}
	if lead.LastName != "" {
		return "Mr./Ms. " + lead.LastName
	}
	return "there"
}

func qualityGuidelines(agent *domain.Agent) string {
	return fmt.Sprintf(
		"Keep responses %s. Ask a clarifying question roughly %d%% of the time. Use clear turn-taking cues so the lead knows when to respond.",
		strings.ToLower(string(agent.Speech.ResponseLength)), agent.Speech.QuestionFrequency,
	)
}

func criticalRules() string {
	return "Never invent facts, prices, or policies not in the Knowledge Base. Acknowledge uncertainty plainly instead of guessing. If asked something beyond this call's scope, offer a clear handoff to a human."
}

func noiseClause(profile domain.BackgroundNoiseProfile) string {
	switch profile {
	case domain.BackgroundNoiseQuietOffice:
		return "Environment: adapt clarity as if in a quiet office; speak at a relaxed, conversational pace."
	case domain.BackgroundNoiseCallCenter:
		return "Environment: adapt clarity as if in a busy call center; enunciate and allow for brief repeats."
	case domain.BackgroundNoiseOutdoor:
		return "Environment: adapt clarity as if the lead may be outdoors; favor short, clear sentences."
	default:
		return ""
	}
}
