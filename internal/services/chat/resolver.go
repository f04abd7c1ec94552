// File: internal/services/chat/resolver.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iyunix/go-yasmin/internal/domain"
	"github.com/iyunix/go-yasmin/internal/repository"
	"github.com/iyunix/go-yasmin/internal/services/ai"
)

// Resolver turns a user message into a reply using the provider chain,
// falling back to offline replies, and records both sides in the store.
type Resolver struct {
	config  *Config
	store   ConversationStore
	chain   *providerChain
	offline *OfflineReplies
	locks   *conversationLocks
	logger  Logger
}

// NewResolver wires a resolver. Providers are tried in the given order.
// A nil offline table or recorder selects the defaults.
func NewResolver(
	config *Config,
	store ConversationStore,
	providers []ai.ChatProvider,
	offline *OfflineReplies,
	recorder Recorder,
	logger Logger,
) (*Resolver, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chat config: %w", err)
	}
	if offline == nil {
		offline = DefaultOfflineReplies()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Resolver{
		config:  config,
		store:   store,
		chain:   &providerChain{providers: providers, recorder: recorder, logger: logger},
		offline: offline,
		locks:   newConversationLocks(),
		logger:  logger,
	}, nil
}

// Providers returns the chain in priority order.
func (r *Resolver) Providers() []ai.ChatProvider { return r.chain.providers }

func (r *Resolver) normalize(op string, p GenerationParams) (params, error) {
	out := params{
		model:       strings.TrimSpace(p.Model),
		temperature: r.config.DefaultTemperature,
		maxTokens:   r.config.DefaultMaxTokens,
	}
	if p.Temperature != nil {
		if *p.Temperature < 0 || *p.Temperature > 2 {
			return out, NewValidationError(op, "temperature must be between 0 and 2")
		}
		out.temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		if *p.MaxTokens <= 0 {
			return out, NewValidationError(op, "max_tokens must be positive")
		}
		out.maxTokens = *p.MaxTokens
	}
	return out, nil
}

// Resolve runs one chat turn. The user message is stored before any
// provider is called; provider failures never fail the turn.
func (r *Resolver) Resolve(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, NewValidationError("chat", "message cannot be empty")
	}
	prm, err := r.normalize("chat", req.Params)
	if err != nil {
		return nil, err
	}

	conv, err := r.resolveConversation(ctx, req.ConversationID, text)
	if err != nil {
		return nil, err
	}

	unlock := r.locks.lock(conv.ID)
	defer unlock()

	if _, err := r.store.AppendMessage(ctx, conv.ID, domain.RoleUser, text); err != nil {
		r.logger.Error("failed to save user message", "conversation_id", conv.ID, "error", err)
		return nil, NewStorageError("chat", conv.ID, err)
	}

	history, err := r.store.ListMessages(ctx, conv.ID, r.config.HistoryLimit)
	if err != nil {
		r.logger.Error("failed to load history", "conversation_id", conv.ID, "error", err)
		return nil, NewStorageError("chat", conv.ID, err)
	}
	transcript := TranscriptFromMessages(history)

	outcome := r.chain.run(ctx, transcript, r.config.SystemPrompt, prm)

	// The reply is kept even if the client went away mid-turn.
	persistCtx := context.WithoutCancel(ctx)
	result := &TurnResult{
		ConversationID: conv.ID,
		Title:          conv.Title,
		Attempts:       outcome.attempts,
		Persisted:      true,
	}

	if outcome.ok() {
		result.Reply = outcome.reply
		result.Source = outcome.source
		result.Model = outcome.model
		r.persistReply(persistCtx, result)
		r.chain.recorder.TurnCompleted(KindChat, OutcomeSuccess)
		return result, nil
	}

	result.Offline = true
	result.Source = OfflineSource
	result.Reply = r.offline.Match(text)
	result.Error = describeAttempts(outcome.attempts)
	r.logger.Warn("all providers failed, using offline reply",
		"conversation_id", conv.ID, "attempts", len(outcome.attempts))

	if len(outcome.attempts) > 0 {
		if _, err := r.store.AppendMessage(persistCtx, conv.ID, domain.RoleError, ErrorMarkerPrefix+result.Error); err != nil {
			r.logger.Error("failed to save error marker", "conversation_id", conv.ID, "error", err)
			result.Persisted = false
			result.Warning = "provider errors could not be saved"
		}
	}
	r.persistReply(persistCtx, result)
	r.chain.recorder.TurnCompleted(KindChat, OutcomeOffline)
	return result, nil
}

func (r *Resolver) persistReply(ctx context.Context, result *TurnResult) {
	msg, err := r.store.AppendMessage(ctx, result.ConversationID, domain.RoleAssistant, result.Reply)
	if err != nil {
		r.logger.Error("failed to save reply", "conversation_id", result.ConversationID, "error", err)
		result.Persisted = false
		result.Warning = "reply could not be saved to the conversation history"
		return
	}
	result.MessageID = msg.ID
}

// resolveConversation loads id, or starts a new conversation when id is empty or unknown.
func (r *Resolver) resolveConversation(ctx context.Context, id, firstMessage string) (*domain.Conversation, error) {
	id = strings.TrimSpace(id)
	if id != "" {
		conv, err := r.store.Get(ctx, id)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, repository.ErrConversationNotFound) {
			return nil, NewStorageError("chat", id, err)
		}
		r.logger.Info("conversation not found, starting a new one", "requested_id", id)
	}

	conv, err := r.store.Create(ctx, DeriveTitle(firstMessage, r.config.TitleMaxRunes))
	if err != nil {
		r.logger.Error("failed to create conversation", "error", err)
		return nil, NewStorageError("chat", "", err)
	}
	r.logger.Info("conversation created", "conversation_id", conv.ID)
	return conv, nil
}

// Regenerate asks the providers for a new answer to the latest user message.
// A stored trailing assistant message is overwritten in place; otherwise a new
// one is appended. When every provider fails nothing is stored.
func (r *Resolver) Regenerate(ctx context.Context, req RegenerateRequest) (*TurnResult, error) {
	id := strings.TrimSpace(req.ConversationID)
	if id == "" {
		return nil, NewValidationError("regenerate", "conversation_id is required")
	}
	prm, err := r.normalize("regenerate", req.Params)
	if err != nil {
		return nil, err
	}

	conv, err := r.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, NewNotFoundError("regenerate", id)
		}
		return nil, NewStorageError("regenerate", id, err)
	}

	unlock := r.locks.lock(conv.ID)
	defer unlock()

	// One extra message so a trailing assistant reply can be dropped
	// without shrinking the window.
	stored, err := r.store.ListMessages(ctx, conv.ID, r.config.HistoryLimit+1)
	if err != nil {
		return nil, NewStorageError("regenerate", conv.ID, err)
	}

	var transcript []ai.Turn
	if req.Transcript != nil {
		if transcript, err = TranscriptFromEntries(req.Transcript); err != nil {
			return nil, err
		}
	} else {
		transcript = TranscriptFromMessages(stored)
	}

	transcript, ok := trimForRegenerate(transcript)
	if !ok {
		return nil, NewValidationError("regenerate", "conversation must end with a user message")
	}
	transcript = window(transcript, r.config.HistoryLimit)

	outcome := r.chain.run(ctx, transcript, r.config.SystemPrompt, prm)
	if !outcome.ok() {
		r.logger.Warn("regeneration unavailable", "conversation_id", conv.ID, "attempts", len(outcome.attempts))
		r.chain.recorder.TurnCompleted(KindRegenerate, OutcomeError)
		return nil, NewExhaustedError("regenerate", conv.ID, outcome.attempts)
	}

	result := &TurnResult{
		ConversationID: conv.ID,
		Title:          conv.Title,
		Reply:          outcome.reply,
		Source:         outcome.source,
		Model:          outcome.model,
		Attempts:       outcome.attempts,
		Persisted:      true,
	}

	persistCtx := context.WithoutCancel(ctx)
	if n := len(stored); n > 0 && stored[n-1].Role == domain.RoleAssistant {
		updated, err := r.store.ReplaceMessageContent(persistCtx, &stored[n-1], outcome.reply)
		if err != nil {
			r.logger.Error("failed to overwrite reply", "conversation_id", conv.ID, "message_id", stored[n-1].ID, "error", err)
			result.Persisted = false
			result.Warning = "reply could not be saved to the conversation history"
		} else {
			result.MessageID = updated.ID
		}
	} else {
		r.persistReply(persistCtx, result)
	}

	r.chain.recorder.TurnCompleted(KindRegenerate, OutcomeSuccess)
	return result, nil
}
