package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/endrithotii/daskann/common/llm"
	"github.com/endrithotii/daskann/core/config"
)

const moderationServiceName = "moderation"

const moderationSystemPrompt = `You moderate answers submitted to a workplace discussion.
Decide whether the answer may be published to the other participants.
Reject answers that are abusive, harassing, hateful, sexually explicit, contain personal data of others, or are spam.
Off-topic but harmless answers are permitted.
When rejecting, write a short, polite userMessage telling the author what to change. When permitting, leave userMessage empty.`

// ModerationDecision is the collaborator's verdict on one answer.
type ModerationDecision struct {
	Permitted   bool
	UserMessage string
}

// moderationVerdict is the structured output requested from the LLM.
type moderationVerdict struct {
	Permitted   *bool  `json:"permitted" jsonschema:"description=True when the answer may be published"`
	UserMessage string `json:"userMessage" jsonschema:"description=Message shown to the author when the answer is rejected"`
}

// Moderator decides whether an answer to a question may be stored.
type Moderator interface {
	Moderate(ctx context.Context, question, answer string) (ModerationDecision, error)
}

type llmModerator struct {
	client llm.Client
}

// NewLLMModerator builds a Moderator over a structured-output LLM client.
// A nil client yields a moderator that always fails with ErrNotConfigured.
func NewLLMModerator(client llm.Client) Moderator {
	return &llmModerator{client: client}
}

func (m *llmModerator) Moderate(ctx context.Context, question, answer string) (ModerationDecision, error) {
	if m.client == nil {
		return ModerationDecision{}, ErrNotConfigured
	}

	var verdict moderationVerdict
	_, err := m.client.Chat(ctx, llm.Request{
		SystemPrompt: moderationSystemPrompt,
		UserPrompt:   fmt.Sprintf("Question: %s\n\nAnswer: %s", question, answer),
		SchemaName:   "moderation_decision",
		Schema:       llm.GenerateSchema[moderationVerdict](),
		MaxTokens:    300,
		Temperature:  llm.Temp(0),
	}, &verdict)
	if err != nil {
		return ModerationDecision{}, err
	}
	if verdict.Permitted == nil {
		return ModerationDecision{}, errors.New("moderation verdict is missing permitted")
	}

	return ModerationDecision{Permitted: *verdict.Permitted, UserMessage: verdict.UserMessage}, nil
}

// ModerationGate applies the configured failure policy around a Moderator.
type ModerationGate struct {
	moderator Moderator
	policy    config.ModerationPolicy
}

func NewModerationGate(moderator Moderator, policy config.ModerationPolicy) *ModerationGate {
	return &ModerationGate{moderator: moderator, policy: policy}
}

// Check returns nil when the answer may be stored, *ContentRejectedError when
// moderation rejected it, and *ExternalServiceError when moderation could not
// decide and the policy is fail_closed.
func (g *ModerationGate) Check(ctx context.Context, question, answer string) error {
	if g == nil || g.policy == config.ModerationDisabled {
		return nil
	}

	decision, err := g.moderator.Moderate(ctx, question, answer)
	if err != nil {
		if g.policy == config.ModerationFailOpen {
			slog.WarnContext(ctx, "moderation unavailable, allowing response through (fail_open)", "error", err)
			return nil
		}
		slog.WarnContext(ctx, "moderation unavailable, rejecting response (fail_closed)", "error", err)
		return &ExternalServiceError{Service: moderationServiceName, Err: err}
	}

	if !decision.Permitted {
		slog.InfoContext(ctx, "response rejected by moderation")
		return &ContentRejectedError{UserMessage: decision.UserMessage}
	}
	return nil
}
