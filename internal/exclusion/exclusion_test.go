package exclusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/rules"
	"github.com/mikey/mail-topic-scanner/internal/scoring"
)

func TestCheck(t *testing.T) {
	c := NewChecker(rules.Default(), []string{" Spammy.IO "}, []string{"Crypto Giveaway"}, zap.NewNop())

	tests := []struct {
		name                  string
		sender, subject, body string
		want                  Match
	}{
		{"static bank", "billing@chase.com", "Kubernetes newsletter", "python", MatchStaticDomain},
		{"display name", "Chase <alerts@CHASE.com>", "", "", MatchStaticDomain},
		{"user domain", "x@spammy.io", "hello", "", MatchUserDomain},
		{"three spam phrases", "a@example.org", "Click here", "limited time, act now", MatchSpam},
		{"two spam phrases", "a@example.org", "Click here", "limited time", NoMatch},
		{"user keyword", "a@example.org", "A crypto giveaway for you", "", MatchUserKeyword},
		{"clean", "news@substack.com", "Weekly digest", "AI trends", NoMatch},
		{"subdomain not excluded", "a@mail.chase.com.example", "", "", NoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := scoring.NewFields(tt.sender, tt.subject, tt.body)
			assert.Equal(t, tt.want, c.Check(f))
			assert.Equal(t, tt.want != NoMatch, c.IsExcluded(f))
		})
	}
}

func TestSpamScoreCountsDistinctPhrases(t *testing.T) {
	c := NewChecker(rules.Default(), nil, nil, nil)
	f := scoring.NewFields("a@b.org", "winner winner winner", "winner")

	assert.Equal(t, 1, c.SpamScore(f))
}

func TestEmptyUserListsIgnored(t *testing.T) {
	c := NewChecker(rules.Default(), []string{"", "  "}, []string{""}, nil)
	assert.Empty(t, c.userDomains)
	assert.Empty(t, c.userKeywords)
	assert.False(t, c.IsExcluded(scoring.NewFields("a@b.org", "anything", "at all")))
}
