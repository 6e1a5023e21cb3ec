package analyzer

import (
	"math"
	"regexp"
	"strings"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Readability approximates the Flesch reading ease of a body. Bodies with
// no words or no sentences score zero on both metrics.
func Readability(body string) core.Readability {
	words := len(strings.Fields(body))
	sentences := 0
	for _, s := range sentenceSplit.Split(body, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	if words == 0 || sentences == 0 {
		return core.Readability{}
	}

	avg := float64(words) / float64(sentences)
	syllables := countSyllables(body)
	flesch := 206.835 - 1.015*avg - 84.6*(float64(syllables)/float64(words))
	flesch = math.Max(0, math.Min(100, flesch))

	return core.Readability{
		FleschReadingEase: round(flesch, 2),
		AvgSentenceLength: round(avg, 2),
	}
}

// countSyllables counts the starts of vowel runs
func countSyllables(text string) int {
	count := 0
	onVowel := false
	for _, r := range strings.ToLower(text) {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !onVowel {
			count++
		}
		onVowel = isVowel
	}
	return count
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
