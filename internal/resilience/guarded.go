package resilience

import (
	"context"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

// GuardedTopicGenerator runs a topic generator through an executor
type GuardedTopicGenerator struct {
	next     core.TopicGenerator
	executor *Executor
	op       string
}

// NewGuardedTopicGenerator wraps next; op names the breaker
func NewGuardedTopicGenerator(next core.TopicGenerator, executor *Executor, op string) *GuardedTopicGenerator {
	return &GuardedTopicGenerator{next: next, executor: executor, op: op}
}

func (g *GuardedTopicGenerator) GenerateTopics(ctx context.Context, req core.TopicRequest) ([]core.Topic, error) {
	var topics []core.Topic
	err := g.executor.Execute(ctx, g.op, func(ctx context.Context) error {
		var err error
		topics, err = g.next.GenerateTopics(ctx, req)
		return err
	}, nil)
	return topics, err
}

// GuardedMailSource runs a mail source through an executor
type GuardedMailSource struct {
	next     core.MailSource
	executor *Executor
	op       string
}

// NewGuardedMailSource wraps next; op names the breaker
func NewGuardedMailSource(next core.MailSource, executor *Executor, op string) *GuardedMailSource {
	return &GuardedMailSource{next: next, executor: executor, op: op}
}

func (s *GuardedMailSource) Fetch(ctx context.Context, query core.FetchQuery) ([]core.Message, error) {
	var messages []core.Message
	err := s.executor.Execute(ctx, s.op, func(ctx context.Context) error {
		var err error
		messages, err = s.next.Fetch(ctx, query)
		return err
	}, nil)
	return messages, err
}
