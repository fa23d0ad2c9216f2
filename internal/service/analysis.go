package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/endrithotii/daskann/common/llm"
	"github.com/endrithotii/daskann/internal/model"
)

const (
	analysisServiceName = "consensus_analysis"
	analysisMaxAttempts = 2
	analysisMaxTokens   = 2000
)

const analysisSystemPrompt = `You are an expert at analyzing survey responses and identifying consensus.

You receive a question and a numbered list of responses. Group responses that express the same idea.
Rules:
- Every response belongs to exactly one group.
- "members" lists the response numbers (1-based) in the group and "count" equals the number of members.
- The counts of all groups must add up to the number of responses.
- The consensus must reference the id of the group with the strongest agreement.
- "confidence" is between 0 and 1 and reflects how much of the audience agrees with the consensus group.
- Copy the question exactly as given.`

// ConsensusAnalyzer groups responses into themes and picks the consensus.
// Implementations return only analyses that passed validation.
type ConsensusAnalyzer interface {
	Analyze(ctx context.Context, question string, responses []string) (*model.ConsensusAnalysis, error)
}

type llmConsensusAnalyzer struct {
	client  llm.Client
	timeout time.Duration
}

// NewLLMConsensusAnalyzer builds an analyzer over a structured-output LLM client.
// A nil client yields an analyzer that always reports ErrNotConfigured.
func NewLLMConsensusAnalyzer(client llm.Client, timeout time.Duration) ConsensusAnalyzer {
	return &llmConsensusAnalyzer{client: client, timeout: timeout}
}

func (a *llmConsensusAnalyzer) Analyze(ctx context.Context, question string, responses []string) (*model.ConsensusAnalysis, error) {
	if len(responses) == 0 {
		return nil, ErrNoResponses
	}
	if a.client == nil {
		return nil, &ExternalServiceError{Service: analysisServiceName, Err: ErrNotConfigured}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	req := llm.Request{
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   analysisUserPrompt(question, responses),
		SchemaName:   "consensus_analysis",
		Schema:       llm.GenerateSchema[model.ConsensusAnalysis](),
		MaxTokens:    analysisMaxTokens,
		Temperature:  llm.Temp(0.7),
	}

	var (
		result  model.ConsensusAnalysis
		lastErr error
	)
	for attempt := 1; attempt <= analysisMaxAttempts; attempt++ {
		result = model.ConsensusAnalysis{}
		_, lastErr = a.client.Chat(ctx, req, &result)
		if lastErr == nil || !llm.IsRetryable(ctx, lastErr) {
			break
		}
		slog.WarnContext(ctx, "consensus analysis attempt failed",
			"attempt", attempt,
			"error", lastErr)
	}
	if lastErr != nil {
		return nil, &ExternalServiceError{Service: analysisServiceName, Err: lastErr}
	}

	if err := result.Validate(len(responses)); err != nil {
		return nil, &ExternalServiceError{Service: analysisServiceName, Err: err}
	}

	return &result, nil
}

func analysisUserPrompt(question string, responses []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nResponses (%d):\n", question, len(responses))
	for i, r := range responses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	return b.String()
}

// AnalysisService regenerates the consensus analysis of a closed discussion on request.
type AnalysisService interface {
	Regenerate(ctx context.Context, userID, discussionID int64) (*model.ConsensusAnalysis, error)
}

type analysisService struct {
	stores   StoreProvider
	analyzer ConsensusAnalyzer
}

func NewAnalysisService(stores StoreProvider, analyzer ConsensusAnalyzer) AnalysisService {
	return &analysisService{stores: stores, analyzer: analyzer}
}

// Regenerate surfaces every failure to the caller, unlike the closure path
// where analysis is best effort.
func (s *analysisService) Regenerate(ctx context.Context, userID, discussionID int64) (*model.ConsensusAnalysis, error) {
	d, err := getDiscussion(ctx, s.stores, discussionID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.stores, d, userID); err != nil {
		return nil, err
	}
	if d.IsOpen() {
		return nil, ErrDiscussionOpen
	}

	responses, err := s.stores.Responses().ListByDiscussion(ctx, discussionID)
	if err != nil {
		return nil, fmt.Errorf("listing responses: %w", err)
	}
	if len(responses) == 0 {
		return nil, ErrNoResponses
	}

	analysis, err := s.analyzer.Analyze(ctx, d.Prompt, responseTexts(responses))
	if err != nil {
		return nil, err
	}

	if err := s.stores.Discussions().SetAnalysis(ctx, discussionID, analysis); err != nil {
		return nil, fmt.Errorf("saving analysis: %w", err)
	}

	slog.InfoContext(ctx, "consensus analysis regenerated",
		"groups", len(analysis.Groups),
		"consensus", analysis.Consensus.Label,
		"confidence", analysis.Consensus.Confidence)

	return analysis, nil
}

func responseTexts(responses []model.Response) []string {
	texts := make([]string, len(responses))
	for i, r := range responses {
		texts[i] = r.Text
	}
	return texts
}

