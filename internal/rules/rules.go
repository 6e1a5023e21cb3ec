// Package rules holds the static keyword and domain tables used to score,
// categorize and analyze messages. A RuleBook is built once and shared
// read-only by every pipeline.
package rules

import (
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

// Language style families scored by the content analyzer
const (
	StyleTechnical   = "technical"
	StyleBusiness    = "business"
	StyleEducational = "educational"
)

// CategoryRuleSet defines how one category is matched
type CategoryRuleSet struct {
	Category        core.Category
	Domains         []string
	Keywords        []string
	ExcludeKeywords []string
}

// RelevanceGroup is a keyword list used by the secondary relevance scorer
type RelevanceGroup struct {
	Category core.Category
	Keywords []string
}

// StyleIndicators lists the words that signal a language style
type StyleIndicators struct {
	Style string
	Words []string
}

// ContentPattern holds the word-boundary patterns for one content type
type ContentPattern struct {
	Type     core.ContentType
	Patterns []*regexp.Regexp
}

type contentPatternSpec struct {
	contentType core.ContentType
	words       []string
}

// RuleBook is the immutable set of rule tables
type RuleBook struct {
	categories      []CategoryRuleSet
	excludedDomains []string
	spamIndicators  []string
	relevanceGroups []RelevanceGroup
	relevantDomains []string
	contentPatterns []ContentPattern
	styles          []StyleIndicators
	positiveWords   []string
	negativeWords   []string
	stopWords       map[string]struct{}
}

var defaultBook = sync.OnceValue(buildDefault)

// Default returns the shared default rule book
func Default() *RuleBook {
	return defaultBook()
}

func buildDefault() *RuleBook {
	book := &RuleBook{
		categories:      cloneRuleSets(defaultCategories),
		excludedDomains: lowerAll(defaultExcludedDomains),
		spamIndicators:  lowerAll(defaultSpamIndicators),
		relevantDomains: lowerAll(defaultRelevantDomains),
		positiveWords:   slices.Clone(defaultPositiveWords),
		negativeWords:   slices.Clone(defaultNegativeWords),
		stopWords:       make(map[string]struct{}, len(defaultStopWords)),
	}

	for _, g := range defaultRelevanceGroups {
		book.relevanceGroups = append(book.relevanceGroups, RelevanceGroup{
			Category: g.Category,
			Keywords: lowerAll(g.Keywords),
		})
	}
	for _, s := range defaultStyleIndicators {
		book.styles = append(book.styles, StyleIndicators{Style: s.Style, Words: lowerAll(s.Words)})
	}
	for _, spec := range defaultContentPatterns {
		pattern := ContentPattern{Type: spec.contentType}
		for _, w := range spec.words {
			pattern.Patterns = append(pattern.Patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
		}
		book.contentPatterns = append(book.contentPatterns, pattern)
	}
	for _, w := range defaultStopWords {
		book.stopWords[w] = struct{}{}
	}

	return book
}

// WithCategories returns a copy of the book using the given category rule sets.
// The order of sets is the tie-break order.
func (b *RuleBook) WithCategories(sets ...CategoryRuleSet) *RuleBook {
	clone := *b
	clone.categories = cloneRuleSets(sets)
	return &clone
}

// Categories returns the scored category rule sets in definition order.
// The returned slices must not be modified.
func (b *RuleBook) Categories() []CategoryRuleSet {
	return slices.Clone(b.categories)
}

func (b *RuleBook) ExcludedDomains() []string { return b.excludedDomains }

func (b *RuleBook) SpamIndicators() []string { return b.spamIndicators }

func (b *RuleBook) RelevanceGroups() []RelevanceGroup { return b.relevanceGroups }

func (b *RuleBook) RelevantDomains() []string { return b.relevantDomains }

func (b *RuleBook) ContentPatterns() []ContentPattern { return b.contentPatterns }

func (b *RuleBook) Styles() []StyleIndicators { return b.styles }

func (b *RuleBook) PositiveWords() []string { return b.positiveWords }

func (b *RuleBook) NegativeWords() []string { return b.negativeWords }

// IsStopWord reports whether a lower-cased token is ignored by topic extraction
func (b *RuleBook) IsStopWord(word string) bool {
	_, ok := b.stopWords[word]
	return ok
}

func cloneRuleSets(sets []CategoryRuleSet) []CategoryRuleSet {
	out := make([]CategoryRuleSet, 0, len(sets))
	for _, s := range sets {
		out = append(out, CategoryRuleSet{
			Category:        s.Category,
			Domains:         lowerAll(s.Domains),
			Keywords:        lowerAll(s.Keywords),
			ExcludeKeywords: lowerAll(s.ExcludeKeywords),
		})
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// LinkPattern matches http and https URLs in message bodies
var LinkPattern = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
