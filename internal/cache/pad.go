package cache

import (
	"strconv"
	"strings"
)

// masterDocumentPad is the fixed vocabulary document appended to every
// agent's cache content (spec §4.4: "a large stable vocabulary document...
// deterministic and does not vary per call"). It adds about 400 words, far
// fewer than the model's minimum cacheable token count, so it only lifts
// content that is already close to that minimum; the same pad is used for
// every language. Its content carries no semantic weight and must never
// change between builds, or the
// cache key would shift and every in-flight handle would silently miss.
var masterDocumentPad = buildMasterDocumentPad()

// PadDocumentCount is how many numbered pseudo-documents masterDocumentPad
// is split into for CachedPrompt.DocumentCount bookkeeping.
const PadDocumentCount = 1

// padVocabulary is a closed, fixed word list. Its repetition below is
// deterministic: same build, same bytes, same cache key.
var padVocabulary = strings.Fields(`
	account activation address adjustment agenda agreement alignment
	allocation analysis appointment approval architecture archive
	assessment assignment assurance attendance audit authorization
	availability balance baseline benefit billing boundary breakdown
	budget calendar campaign capacity catalog category certificate
	channel checklist clarification classification clause closure
	collateral commitment compensation compliance component condition
	configuration confirmation consent consideration constraint
	consultation contract coordination criteria currency customer
	database deadline decision delivery department deposit description
	diagram directory discount discrepancy disposition distribution
	document duration eligibility employee endorsement engagement
	enrollment entity escalation estimate evaluation exception exchange
	exhibit expectation expense extension facility feedback figure
	forecast format framework function gateway guideline handoff
	history identifier implementation incentive incident indicator
	inventory invoice itinerary jurisdiction justification keyword
	ledger license location logistics maintenance mandate meeting
	metric milestone modification monitor negotiation network notice
	objective obligation offering onboarding operation option outcome
	overview package parameter partnership payment pending percentage
	permission phase pipeline policy portfolio premise priority
	procedure process profile program project proposal protocol
	provision purchase qualification quantity query quote reference
	registration regulation reminder renewal report requirement
	reservation resolution resource response retention revenue review
	roadmap routine schedule scope section segment sequence session
	settlement signature specification stage standard statement status
	strategy structure subscription summary supplement support survey
	system target template tenure territory threshold timeline
	tolerance transaction transition trigger update upgrade validation
	variance vendor verification version warranty workflow workspace
`)

func buildMasterDocumentPad() string {
	var b strings.Builder
	b.WriteString("[[vocabulary pad]]\n")
	for i := 0; i < 400; i++ {
		b.WriteString(padVocabulary[i%len(padVocabulary)])
		b.WriteByte(' ')
		if i%16 == 15 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func buildCacheContent(systemInstruction string, knowledgeDocs []string) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\n")
	for i, doc := range knowledgeDocs {
		b.WriteString("[[document ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("]]\n")
		b.WriteString(doc)
		b.WriteString("\n\n")
	}
	b.WriteString(masterDocumentPad)
	return b.String()
}
