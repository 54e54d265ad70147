package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mattxslv/phoenix/internal/domain/docstore"
	"github.com/mattxslv/phoenix/internal/infrastructure/metrics"
	"github.com/mattxslv/phoenix/internal/utils/functional"
	"github.com/mattxslv/phoenix/internal/utils/idgen"
	"github.com/mattxslv/phoenix/internal/utils/platformerrors"
	"github.com/mattxslv/phoenix/internal/utils/stringutils"
)

// TruncateResult reports the two independently observable outcomes of the
// truncation phase of an edit commit.
type TruncateResult struct {
	Deleted int
	Failed  []string // document ids whose deletion failed
}

// TurnStore owns the authoritative turn sequence per conversation. It
// mirrors persisted state in an optimistic in-memory overlay: writes apply
// to the overlay first and are then pushed to the persistence collaborator.
// A rejected write is reported but never rolls the overlay back — a visible
// but unsaved turn beats losing what the user typed.
type TurnStore struct {
	store docstore.Store
	log   zerolog.Logger

	mu          sync.Mutex
	overlay     map[string][]*Turn
	lastCreated map[string]time.Time

	now func() time.Time
}

// NewTurnStore builds a turn store over the persistence collaborator.
func NewTurnStore(store docstore.Store, log zerolog.Logger) *TurnStore {
	return &TurnStore{
		store:       store,
		log:         log.With().Str("component", "turn-store").Logger(),
		overlay:     make(map[string][]*Turn),
		lastCreated: make(map[string]time.Time),
		now:         time.Now,
	}
}

// CreateConversation persists a new conversation record.
func (s *TurnStore) CreateConversation(ctx context.Context, userID, title string) (*Conversation, error) {
	id, err := idgen.GenerateConversationID()
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate conversation id")
	}

	conv := &Conversation{
		ID:        id,
		Title:     title,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.store.CreateDocument(ctx, docstore.CollectionConversations, conv.ID, conv.fields(), conv.CreatedAt); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}
	return conv, nil
}

// GetConversation fetches a conversation record.
func (s *TurnStore) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	doc, err := s.store.GetDocument(ctx, docstore.CollectionConversations, conversationID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	return conversationFromDocument(doc), nil
}

// ListConversations returns a user's conversations in creation order.
func (s *TurnStore) ListConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	docs, err := s.store.ListDocuments(ctx, docstore.CollectionConversations, docstore.Query{
		Filters:          []docstore.Filter{{Field: "user_id", Equals: userID}},
		OrderByCreatedAt: true,
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	return functional.Map(docs, conversationFromDocument), nil
}

// DeleteConversation removes the conversation record. Cleanup of its chat
// documents is the persistence collaborator's responsibility.
func (s *TurnStore) DeleteConversation(ctx context.Context, conversationID string) error {
	if err := s.store.DeleteDocument(ctx, docstore.CollectionConversations, conversationID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete conversation")
	}

	s.mu.Lock()
	delete(s.overlay, conversationID)
	delete(s.lastCreated, conversationID)
	s.mu.Unlock()
	return nil
}

// Turns returns the conversation's ordered turns. The first call per
// conversation loads from the persistence collaborator; afterwards the
// optimistic overlay is the view, so best-effort turns that failed to
// persist stay visible.
func (s *TurnStore) Turns(ctx context.Context, conversationID string) ([]*Turn, error) {
	s.mu.Lock()
	if cached, ok := s.overlay[conversationID]; ok {
		result := copyTurns(cached)
		s.mu.Unlock()
		return result, nil
	}
	s.mu.Unlock()

	docs, err := s.store.ListDocuments(ctx, docstore.CollectionChats, docstore.Query{
		Filters:          []docstore.Filter{{Field: "conversation", Equals: conversationID}},
		OrderByCreatedAt: true,
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load turns")
	}

	turns := functional.Map(docs, turnFromDocument)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overlay[conversationID]; !ok {
		s.overlay[conversationID] = turns
		if len(turns) > 0 {
			s.lastCreated[conversationID] = turns[len(turns)-1].CreatedAt
		}
	}
	return copyTurns(s.overlay[conversationID]), nil
}

// CreateTurn appends a new turn with a fresh id and a timestamp strictly
// after every existing turn in the conversation. The overlay append is
// applied before the write; if persistence rejects the write the turn is
// still returned alongside the error and the overlay keeps it.
func (s *TurnStore) CreateTurn(ctx context.Context, conversationID, prompt, response string) (*Turn, error) {
	if _, err := s.Turns(ctx, conversationID); err != nil {
		return nil, err
	}

	id, err := idgen.GenerateTurnID()
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate turn id")
	}

	s.mu.Lock()
	turn := &Turn{
		ID:             id,
		ConversationID: conversationID,
		Title:          stringutils.TurnTitle(prompt),
		UserPrompt:     prompt,
		AIResponse:     response,
		CreatedAt:      s.nextCreatedAtLocked(conversationID),
	}
	s.overlay[conversationID] = append(s.overlay[conversationID], turn)
	s.mu.Unlock()

	if _, err := s.store.CreateDocument(ctx, docstore.CollectionChats, turn.ID, turn.fields(), turn.CreatedAt); err != nil {
		perr := platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist turn")
		platformerrors.LogError(s.log, perr)
		return turn, perr
	}
	return turn, nil
}

// TruncateFuture deletes every turn created after the target turn — the
// first phase of an edit commit. Deletions are best-effort: a failed delete
// is logged per document id, reported in the result, and does not stop the
// rest. The overlay drops the future immediately either way.
func (s *TurnStore) TruncateFuture(ctx context.Context, conversationID, turnID string) (TruncateResult, error) {
	if _, err := s.Turns(ctx, conversationID); err != nil {
		return TruncateResult{}, err
	}

	s.mu.Lock()
	target, ok := functional.Find(s.overlay[conversationID], func(t *Turn) bool { return t.ID == turnID })
	if !ok {
		s.mu.Unlock()
		return TruncateResult{}, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"edited turn not found", nil, "4b5c6d7e-8f9a-4b0c-1d2e-3f4a5b6c7d8e",
			map[string]any{"conversation_id": conversationID, "turn_id": turnID})
	}

	future := functional.Filter(s.overlay[conversationID], func(t *Turn) bool {
		return t.CreatedAt.After(target.CreatedAt)
	})
	s.overlay[conversationID] = functional.Filter(s.overlay[conversationID], func(t *Turn) bool {
		return !t.CreatedAt.After(target.CreatedAt)
	})
	s.lastCreated[conversationID] = target.CreatedAt
	s.mu.Unlock()

	var result TruncateResult
	for _, t := range future {
		if err := s.store.DeleteDocument(ctx, docstore.CollectionChats, t.ID); err != nil {
			metrics.TruncationFailuresTotal.Inc()
			result.Failed = append(result.Failed, t.ID)
			s.log.Error().Err(err).
				Str("conversation_id", conversationID).
				Str("turn_id", t.ID).
				Msg("failed to delete truncated turn")
			continue
		}
		metrics.TruncatedTurnsTotal.Inc()
		result.Deleted++
	}
	return result, nil
}

// RewriteTurn overwrites the target turn's prompt, response, and derived
// title in place — the second phase of an edit commit. The overlay mutation
// sticks even if the persisted update is rejected.
func (s *TurnStore) RewriteTurn(ctx context.Context, conversationID, turnID, newPrompt, newResponse string) (*Turn, error) {
	if _, err := s.Turns(ctx, conversationID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	turn, ok := functional.Find(s.overlay[conversationID], func(t *Turn) bool { return t.ID == turnID })
	if !ok {
		s.mu.Unlock()
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"edited turn not found", nil, "5c6d7e8f-9a0b-4c1d-2e3f-4a5b6c7d8e9f",
			map[string]any{"conversation_id": conversationID, "turn_id": turnID})
	}
	turn.Title = stringutils.TurnTitle(newPrompt)
	turn.UserPrompt = newPrompt
	turn.AIResponse = newResponse
	updated := *turn
	s.mu.Unlock()

	if _, err := s.store.UpdateDocument(ctx, docstore.CollectionChats, turnID, updated.fields()); err != nil {
		perr := platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist edited turn")
		platformerrors.LogError(s.log, perr)
		return &updated, perr
	}
	return &updated, nil
}

// ReplaceFromEdit runs the two-phase edit commit: truncate the future, then
// rewrite the target. The phases are not atomic — a crash between them
// leaves the future deleted and the target unmodified, recoverable by
// retrying the edit — and partial truncation failures never block the
// rewrite.
func (s *TurnStore) ReplaceFromEdit(ctx context.Context, conversationID, turnID, newPrompt, newResponse string) (*Turn, TruncateResult, error) {
	result, err := s.TruncateFuture(ctx, conversationID, turnID)
	if err != nil {
		return nil, result, err
	}

	turn, err := s.RewriteTurn(ctx, conversationID, turnID, newPrompt, newResponse)
	return turn, result, err
}

// nextCreatedAtLocked returns a timestamp strictly after every turn already
// recorded for the conversation. Ties with a fast wall clock are broken by
// bumping a microsecond past the previous turn.
func (s *TurnStore) nextCreatedAtLocked(conversationID string) time.Time {
	now := s.now().UTC()
	if last, ok := s.lastCreated[conversationID]; ok && !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	s.lastCreated[conversationID] = now
	return now
}

func copyTurns(turns []*Turn) []*Turn {
	result := make([]*Turn, len(turns))
	copy(result, turns)
	return result
}
