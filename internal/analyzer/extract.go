package analyzer

import (
	"encoding/hex"
	"regexp"
	"slices"

	"golang.org/x/crypto/blake2b"

	"github.com/mikey/mail-topic-scanner/internal/rules"
)

const (
	maxKeyTopics   = 10
	minTopicLength = 4
	hashSize       = 24
)

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// keyTopics ranks body words by frequency, breaking ties by first occurrence
func (a *Analyzer) keyTopics(lowerBody string) []string {
	freq := make(map[string]int)
	var order []string
	for _, w := range wordPattern.FindAllString(lowerBody, -1) {
		if len(w) < minTopicLength || a.book.IsStopWord(w) {
			continue
		}
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}

	slices.SortStableFunc(order, func(x, y string) int {
		return freq[y] - freq[x]
	})
	if len(order) > maxKeyTopics {
		order = order[:maxKeyTopics]
	}
	return order
}

// ExtractLinks returns every URL in the body in order of appearance
func ExtractLinks(body string) []string {
	return rules.LinkPattern.FindAllString(body, -1)
}

// ContentHash returns the hex BLAKE2b-192 digest of the body
func ContentHash(body string) string {
	h, err := blake2b.New(hashSize, nil)
	if err != nil {
		panic(err)
	}
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}
