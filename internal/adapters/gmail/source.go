package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/mikey/mail-topic-scanner/internal/adapters/mime"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

// Gmail caps a single list page at 500 ids
const maxPageSize = 500

// Source is a MailSource reading raw messages through the Gmail API. Get
// calls are paced by a token bucket to stay under the per-user quota.
type Source struct {
	svc     *gmailapi.Service
	user    string
	limiter *rate.Limiter
	parser  *mime.Parser
	logger  *zap.Logger
}

// NewSource creates a Gmail mail source. A non-positive rate disables pacing.
func NewSource(svc *gmailapi.Service, user string, requestsPerSecond float64, parser *mime.Parser, logger *zap.Logger) *Source {
	if user == "" {
		user = "me"
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Source{
		svc:     svc,
		user:    user,
		limiter: rate.NewLimiter(limit, 1),
		parser:  parser,
		logger:  logger,
	}
}

func (s *Source) Fetch(ctx context.Context, query core.FetchQuery) ([]core.Message, error) {
	var refs []*gmailapi.Message
	pageToken := ""
	for {
		call := s.svc.Users.Messages.List(s.user).Q(searchQuery(query)).Context(ctx)
		if query.Folder != "" {
			call = call.LabelIds(strings.ToUpper(query.Folder))
		}
		if remaining := query.Limit - len(refs); query.Limit > 0 {
			call = call.MaxResults(int64(min(remaining, maxPageSize)))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := call.Do()
		if err != nil {
			return nil, core.WrapError(core.ErrSourceUnavailable, "gmail list", err)
		}
		refs = append(refs, resp.Messages...)

		pageToken = resp.NextPageToken
		if pageToken == "" || (query.Limit > 0 && len(refs) >= query.Limit) {
			break
		}
	}
	if query.Limit > 0 && len(refs) > query.Limit {
		refs = refs[:query.Limit]
	}

	s.logger.Info("Listed Gmail messages", zap.Int("count", len(refs)))

	out := make([]core.Message, 0, len(refs))
	for _, ref := range refs {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		full, err := s.svc.Users.Messages.Get(s.user, ref.Id).Format("raw").Context(ctx).Do()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("Failed to get Gmail message", zap.String("id", ref.Id), zap.Error(err))
			continue
		}

		raw, err := decodeRaw(full.Raw)
		if err != nil {
			s.logger.Warn("Failed to decode Gmail message", zap.String("id", ref.Id), zap.Error(err))
			continue
		}
		msg, err := s.parser.ParseBytes(raw, full.Id)
		if err != nil {
			s.logger.Warn("Failed to parse Gmail message", zap.String("id", ref.Id), zap.Error(err))
			continue
		}
		if msg.Date.IsZero() && full.InternalDate > 0 {
			msg.Date = time.UnixMilli(full.InternalDate)
		}
		out = append(out, msg)
	}
	return out, nil
}

// searchQuery renders the Gmail search syntax for the query
func searchQuery(query core.FetchQuery) string {
	var terms []string
	if !query.Since.IsZero() {
		terms = append(terms, fmt.Sprintf("after:%d", query.Since.Unix()))
	}
	if query.UnreadOnly {
		terms = append(terms, "is:unread")
	}
	return strings.Join(terms, " ")
}

func decodeRaw(raw string) ([]byte, error) {
	if data, err := base64.URLEncoding.DecodeString(raw); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(raw)
}
