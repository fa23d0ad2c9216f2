package service

import (
	"github.com/endrithotii/daskann/common/llm"
	"github.com/endrithotii/daskann/core/config"
	"github.com/endrithotii/daskann/internal/store"
)

type Services struct {
	stores     *store.Stores
	txRunner   TxRunner
	analyzer   ConsensusAnalyzer
	moderation *ModerationGate
	publisher  NotificationPublisher
	sweepOpts  SweepOptions
}

// NewServices wires the discussion services. analysisLLM and moderationLLM may
// be nil when the corresponding collaborator is not configured; publisher may
// be nil when no delivery feed is configured.
func NewServices(
	stores *store.Stores,
	txRunner TxRunner,
	analysisLLM llm.Client,
	moderationLLM llm.Client,
	cfg config.Config,
	publisher NotificationPublisher,
) *Services {
	return &Services{
		stores:     stores,
		txRunner:   txRunner,
		analyzer:   NewLLMConsensusAnalyzer(analysisLLM, cfg.AnalysisLLM.Timeout),
		moderation: NewModerationGate(NewLLMModerator(moderationLLM), cfg.Moderation.Policy),
		publisher:  publisher,
		sweepOpts: SweepOptions{
			BatchSize:    cfg.Sweep.BatchSize,
			ClaimTTL:     cfg.Sweep.ClaimTTL,
			ClosureGrace: cfg.Sweep.ClosureGrace,
		},
	}
}

func (s *Services) Lifecycle() LifecycleEngine {
	return NewLifecycleEngine(s.stores, s.txRunner, s.analyzer, s.publisher)
}

func (s *Services) Discussions() DiscussionService {
	return NewDiscussionService(
		s.stores,
		s.txRunner,
		NewAudienceResolver(s.stores.Membership()),
		s.Lifecycle(),
		s.moderation,
		s.publisher,
	)
}

func (s *Services) Analysis() AnalysisService {
	return NewAnalysisService(s.stores, s.analyzer)
}

func (s *Services) Notifications() NotificationService {
	return NewNotificationService(s.stores.Notifications())
}

func (s *Services) Sweep() SweepService {
	return NewSweepService(s.stores, s.txRunner, s.Lifecycle(), s.publisher, s.sweepOpts)
}
