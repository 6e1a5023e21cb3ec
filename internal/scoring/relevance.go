package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/rules"
)

// Relevance and quality weights of the secondary scorer
const (
	relevanceSubjectWeight = 0.3
	relevanceBodyWeight    = 0.4
	relevanceLengthWeight  = 0.1
	relevanceDomainWeight  = 0.1

	minTopicLength = 100
	topicThreshold = 0.3
)

// AssessRelevance runs the lighter relevance/quality scorer. It is
// independent of ScoreCategory and uses the relevance keyword groups and the
// relevant-domain list instead of the category rule sets.
func AssessRelevance(book *rules.RuleBook, f *Fields) core.RelevanceAssessment {
	assessment := core.RelevanceAssessment{
		SenderDomain: f.Domain(),
		HasLinks:     rules.LinkPattern.MatchString(f.Body),
	}

	seenSubject := make(map[string]struct{})
	seenBody := make(map[string]struct{})
	counts := make(map[core.Category]int)

	for _, group := range book.RelevanceGroups() {
		for _, kw := range group.Keywords {
			inSubject := f.SubjectHas(kw)
			inBody := f.BodyHas(kw)
			if inSubject {
				if _, dup := seenSubject[kw]; !dup {
					seenSubject[kw] = struct{}{}
					assessment.SubjectKeywords = append(assessment.SubjectKeywords, kw)
				}
			}
			if inBody {
				if _, dup := seenBody[kw]; !dup {
					seenBody[kw] = struct{}{}
					assessment.BodyKeywords = append(assessment.BodyKeywords, kw)
				}
			}
			if inSubject || inBody {
				counts[group.Category]++
			}
		}
	}

	length := utf8.RuneCountInString(f.Body)

	relevance := 0.0
	if len(assessment.SubjectKeywords) > 0 {
		relevance += relevanceSubjectWeight
	}
	if len(assessment.BodyKeywords) > 0 {
		relevance += relevanceBodyWeight
	}
	if length > 100 {
		relevance += relevanceLengthWeight
	}
	if length > 500 {
		relevance += relevanceLengthWeight
	}
	if assessment.SenderDomain != "" {
		for _, d := range book.RelevantDomains() {
			if strings.Contains(assessment.SenderDomain, d) {
				relevance += relevanceDomainWeight
				break
			}
		}
	}
	assessment.RelevanceScore = Clamp(relevance)

	quality := 0.0
	switch {
	case length > 200:
		quality += 0.2
	case length > 100:
		quality += 0.1
	}
	switch keywords := len(assessment.SubjectKeywords) + len(assessment.BodyKeywords); {
	case keywords > 5:
		quality += 0.3
	case keywords > 2:
		quality += 0.2
	}
	if assessment.HasLinks {
		quality += 0.1
	}
	quality += assessment.RelevanceScore * 0.3
	assessment.QualityScore = Clamp(quality)

	assessment.Category = majorityCategory(book.RelevanceGroups(), counts)
	assessment.TopicPotential = assessment.RelevanceScore >= topicThreshold &&
		assessment.QualityScore >= topicThreshold &&
		assessment.Category.IsInScope() &&
		length >= minTopicLength

	return assessment
}

// majorityCategory returns the group whose keyword count is strictly greater
// than every other group, or other.
func majorityCategory(groups []rules.RelevanceGroup, counts map[core.Category]int) core.Category {
	best := core.CategoryOther
	bestCount := 0
	tied := false
	for _, g := range groups {
		n := counts[g.Category]
		switch {
		case n > bestCount:
			best, bestCount, tied = g.Category, n, false
		case n == bestCount && n > 0:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return core.CategoryOther
	}
	return best
}
