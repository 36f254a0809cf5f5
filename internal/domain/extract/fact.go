package extract

import (
	"math/rand/v2"
	"strings"
)

const (
	factMinLength = 40
	factMaxLength = 300

	factPrefix = "📚 "

	// FallbackFact is returned when no page yields a qualifying line.
	FallbackFact = "🌟 Lord of Mysteries adalah novel web serial yang ditulis oleh Cuttlefish That Loves Diving, mengisahkan petualangan Klein Moretti di dunia supernatural dengan sistem pathway dan sequences yang kompleks."
)

var (
	factKeywords = []string{
		"sequence", "beyonder", "pathway", "sealed artifact", "mystical",
		"potion", "ritual", "anchor", "divinity", "authority", "domain",
		"characteristic", "formula", "blasphemy", "tarot", "fool",
	}
	factBoilerplate = []string{"edit", "source", "category", "file:", "image:", "references"}
)

// FactCandidates returns the lines of text that qualify as standalone facts.
func FactCandidates(text string) []string {
	var facts []string
	for _, line := range Lines(text) {
		length := len([]rune(line))
		if length <= factMinLength || length >= factMaxLength {
			continue
		}
		lower := strings.ToLower(line)
		if !containsAny(lower, factKeywords) || containsAny(lower, factBoilerplate) {
			continue
		}
		facts = append(facts, line)
	}
	return facts
}

// RandomFact picks one qualifying line uniformly at random, or FallbackFact.
func RandomFact(text string, rng *rand.Rand) string {
	facts := FactCandidates(text)
	if len(facts) == 0 {
		return FallbackFact
	}
	return factPrefix + facts[rng.IntN(len(facts))]
}
