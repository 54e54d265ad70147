package chat

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mattxslv/phoenix/internal/domain/generation"
	"github.com/mattxslv/phoenix/internal/domain/session"
	"github.com/mattxslv/phoenix/internal/infrastructure/metrics"
	"github.com/mattxslv/phoenix/internal/infrastructure/observability"
	"github.com/mattxslv/phoenix/internal/utils/functional"
	"github.com/mattxslv/phoenix/internal/utils/platformerrors"
	"github.com/mattxslv/phoenix/internal/utils/stringutils"
)

// Revealer is what the controller needs from the reveal scheduler.
type Revealer interface {
	Start(turnID, text string, onDone func()) bool
	Cancel(turnID string)
	Unsettle(turnID string)
	Revealing(turnID string) bool
}

// Controller orchestrates prompt submission: it gates on the submission
// signal and the latest turn's reveal, asks the gateway for a response, and
// records the outcome through the turn store. One generation runs at a time.
type Controller struct {
	store   *TurnStore
	gateway *generation.Gateway
	signal  SubmissionSignal
	reveals Revealer
	log     zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session.EditSession
}

func NewController(store *TurnStore, gateway *generation.Gateway, signal SubmissionSignal, reveals Revealer, log zerolog.Logger) *Controller {
	return &Controller{
		store:    store,
		gateway:  gateway,
		signal:   signal,
		reveals:  reveals,
		log:      log.With().Str("component", "submission-controller").Logger(),
		sessions: make(map[string]*session.EditSession),
	}
}

func (c *Controller) sessionFor(conversationID string) *session.EditSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[conversationID]
	if !ok {
		sess = session.NewEditSession()
		c.sessions[conversationID] = sess
	}
	return sess
}

// StartConversation opens a new conversation from its first prompt. The
// title comes from the model; when that yields nothing the prompt itself
// is truncated into a title.
func (c *Controller) StartConversation(ctx context.Context, userID, prompt string) (*Conversation, *Turn, error) {
	if !c.signal.TryBegin() {
		return nil, nil, rejectInFlight(ctx)
	}
	defer c.signal.End()

	// Generation is not abandoned once issued. The response is persisted
	// even if the requester goes away.
	genCtx := context.WithoutCancel(ctx)

	title := c.gateway.Summarize(genCtx, prompt)
	if title == "" {
		title = stringutils.TurnTitle(prompt)
	}

	conv, err := c.store.CreateConversation(genCtx, userID, title)
	if err != nil {
		return nil, nil, err
	}

	response := c.gateway.Respond(genCtx, prompt, nil)
	turn, err := c.store.CreateTurn(genCtx, conv.ID, prompt, response)
	if turn == nil {
		return conv, nil, err
	}
	if err != nil {
		// Best-effort persistence: the turn is live in the overlay and
		// already logged by the store.
		c.log.Warn().Str("conversation_id", conv.ID).Msg("first turn kept in memory only")
	}

	c.reveals.Start(turn.ID, response, nil)
	return conv, turn, nil
}

// SubmitPrompt runs one submission against an existing conversation. With
// an empty editingTurnID it appends a new turn over the full history; with
// one set it commits an edit of that turn. Rejected with a conflict while
// another submission is in flight or while the latest turn is still
// revealing.
func (c *Controller) SubmitPrompt(ctx context.Context, conversationID, prompt, editingTurnID string) (*Turn, error) {
	if !c.signal.TryBegin() {
		return nil, rejectInFlight(ctx)
	}
	defer c.signal.End()

	ctx, span := observability.StartSubmissionSpan(ctx, conversationID, editingTurnID)
	defer span.End()

	turns, err := c.store.Turns(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(turns) > 0 {
		if latest := turns[len(turns)-1]; c.reveals.Revealing(latest.ID) {
			metrics.SubmissionsRejectedTotal.WithLabelValues("reveal_pending").Inc()
			return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
				"latest turn is still revealing", nil, "8f9a0b1c-2d3e-4f4a-5b6c-7d8e9f0a1b2c",
				map[string]any{"conversation_id": conversationID, "turn_id": latest.ID})
		}
	}

	genCtx := context.WithoutCancel(ctx)

	if editingTurnID == "" {
		response := c.gateway.Respond(genCtx, prompt, ContextExchanges(turns))
		turn, err := c.store.CreateTurn(genCtx, conversationID, prompt, response)
		if err != nil && turn == nil {
			return nil, err
		}
		c.reveals.Start(turn.ID, response, nil)
		return turn, nil
	}

	return c.commitEdit(genCtx, conversationID, prompt, editingTurnID, turns)
}

// commitEdit regenerates an edited turn against only the turns before it,
// then truncates the future and rewrites the turn in place.
func (c *Controller) commitEdit(ctx context.Context, conversationID, prompt, editingTurnID string, turns []*Turn) (*Turn, error) {
	sess := c.sessionFor(conversationID)
	if state, id := sess.Current(); state != session.Editing || id != editingTurnID {
		if err := sess.BeginEdit(editingTurnID); err != nil {
			metrics.SubmissionsRejectedTotal.WithLabelValues("edit_pending").Inc()
			return nil, err
		}
	}
	if _, err := sess.StartSubmit(); err != nil {
		return nil, err
	}

	response := c.gateway.Respond(ctx, prompt, ContextExchanges(BuildContext(turns, editingTurnID)))

	turn, result, err := c.store.ReplaceFromEdit(ctx, conversationID, editingTurnID, prompt, response)
	if turn == nil {
		sess.Abort()
		return nil, err
	}
	if len(result.Failed) > 0 {
		c.log.Warn().
			Str("conversation_id", conversationID).
			Int("deleted", result.Deleted).
			Strs("failed", result.Failed).
			Msg("edit committed with orphaned future turns")
	}
	sess.Finish()

	if id, ok := sess.ConsumeJustEdited(); ok {
		c.reveals.Unsettle(id)
		c.reveals.Start(id, response, nil)
	}
	// A rejected rewrite was logged by the store; the overlay view is
	// what the caller sees either way.
	return turn, nil
}

// BeginEdit opens an edit on an existing turn.
func (c *Controller) BeginEdit(ctx context.Context, conversationID, turnID string) error {
	turns, err := c.store.Turns(ctx, conversationID)
	if err != nil {
		return err
	}
	if _, ok := functional.Find(turns, func(t *Turn) bool { return t.ID == turnID }); !ok {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"turn not found", nil, "9a0b1c2d-3e4f-4a5b-6c7d-8e9f0a1b2c3d",
			map[string]any{"conversation_id": conversationID, "turn_id": turnID})
	}
	return c.sessionFor(conversationID).BeginEdit(turnID)
}

// CancelEdit abandons an open edit, if any.
func (c *Controller) CancelEdit(conversationID string) {
	c.sessionFor(conversationID).Cancel()
}

// Turns exposes the conversation's current view.
func (c *Controller) Turns(ctx context.Context, conversationID string) ([]*Turn, error) {
	return c.store.Turns(ctx, conversationID)
}

// GetConversation fetches one conversation.
func (c *Controller) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	return c.store.GetConversation(ctx, conversationID)
}

// ListConversations lists a user's conversations.
func (c *Controller) ListConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	return c.store.ListConversations(ctx, userID)
}

// DeleteConversation removes the conversation and stops any reveal still
// running for its turns.
func (c *Controller) DeleteConversation(ctx context.Context, conversationID string) error {
	turns, err := c.store.Turns(ctx, conversationID)
	if err == nil {
		for _, t := range turns {
			c.reveals.Cancel(t.ID)
		}
	}

	c.mu.Lock()
	delete(c.sessions, conversationID)
	c.mu.Unlock()

	return c.store.DeleteConversation(ctx, conversationID)
}

func rejectInFlight(ctx context.Context) *platformerrors.PlatformError {
	metrics.SubmissionsRejectedTotal.WithLabelValues("in_flight").Inc()
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
		"a submission is already in flight", nil, "0b1c2d3e-4f5a-4b6c-7d8e-9f0a1b2c3d4e")
}
