package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/fintask/fintask-go/internal/domain"
	"github.com/fintask/fintask-go/internal/ports"
)

// ChatService is the pipeline entry point. Stage order is fixed: safety
// filter, bulk matcher, then the model-assisted processor (which carries its
// own fallback). Each result is tagged with the stage that produced it.
type ChatService struct {
	Safety ports.SafetyFilter
	Bulk   ports.BulkMatcher
	Intent *IntentProcessor
	Log    zerolog.Logger
}

// NewChatService wires the pipeline stages. Safety and Bulk may be nil in
// reduced configurations; their stages are then skipped.
func NewChatService(safety ports.SafetyFilter, bulk ports.BulkMatcher, intent *IntentProcessor, log zerolog.Logger) *ChatService {
	return &ChatService{Safety: safety, Bulk: bulk, Intent: intent, Log: log}
}

// Handle runs one user query through the full pipeline and always returns a
// Result, never an error: refusals and failures become soft-failure results.
func (s *ChatService) Handle(ctx context.Context, query string) domain.Result {
	if s.Safety != nil {
		if err := s.Safety.Check(query); err != nil {
			var blocked *domain.BlockedPromptError
			if errors.As(err, &blocked) {
				s.Log.Info().Str("signature", blocked.Signature).Msg("blocked internal prompt")
				result := domain.SoftFailure("This request can't be handled through chat.")
				result.ProcessingMode = domain.ModeBlocked
				return result
			}
			s.Log.Warn().Err(err).Msg("safety filter error")
		}
	}

	if s.Bulk != nil {
		if result, ok := s.Bulk.Try(ctx, query); ok {
			result.ProcessingMode = domain.ModeRuleBased
			return result
		}
	}

	return s.Intent.Process(ctx, query)
}
