package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GulovM/ToDo-Master/internal/ai"
	"github.com/GulovM/ToDo-Master/internal/config"
	"github.com/GulovM/ToDo-Master/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Snapshot bounds: enough context for the model without blowing the prompt.
const (
	snapshotPendingLimit   = 50
	snapshotCompletedLimit = 20
	minReplyTokens         = 32
)

const assistantInstruction = `You are a helpful task-management assistant. Answer briefly and concretely, referring to the user's tasks when relevant. Do not claim to have created, changed or deleted anything yourself.`

// AssistantService orchestrates AI conversations: it owns session
// retention, context snapshots, plan inference and confirmed execution.
type AssistantService struct {
	sessionRepo  domain.SessionRepository
	messageRepo  domain.MessageRepository
	taskRepo     domain.TaskRepository
	categoryRepo domain.CategoryRepository
	router       *ai.Router
	planner      *ai.Planner
	executor     *Executor
	cfg          config.AIConfig
}

// NewAssistantService creates a new assistant service
func NewAssistantService(
	sessionRepo domain.SessionRepository,
	messageRepo domain.MessageRepository,
	taskRepo domain.TaskRepository,
	categoryRepo domain.CategoryRepository,
	router *ai.Router,
	planner *ai.Planner,
	executor *Executor,
	cfg config.AIConfig,
) *AssistantService {
	return &AssistantService{
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		router:       router,
		planner:      planner,
		executor:     executor,
		cfg:          cfg,
	}
}

// Assist handles one conversational turn. With confirm=false an inferred
// plan is surfaced for approval; with confirm=true the supplied (or
// re-inferred) plan is executed and the reply reports what actually changed.
func (s *AssistantService) Assist(ctx context.Context, userID uuid.UUID, req domain.AssistRequest) (*domain.AssistResponse, error) {
	session, err := s.resolveSession(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	// History is read before the new message is persisted so the running
	// message appears exactly once in the prompt.
	history, err := s.messageRepo.ListRecent(ctx, session.ID, domain.HistoryTurnsForContext)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	now := time.Now()
	if req.Message != "" {
		userMsg := &domain.ChatMessage{
			ID:        uuid.New(),
			SessionID: session.ID,
			Role:      domain.RoleUser,
			Content:   req.Message,
			CreatedAt: now,
		}
		if err := s.messageRepo.Create(ctx, userMsg); err != nil {
			return nil, fmt.Errorf("failed to persist message: %w", err)
		}
	}

	snapshot, err := s.buildSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	turns := make([]ai.Message, 0, len(history))
	for _, m := range history {
		role := ai.RoleUser
		if m.Role == domain.RoleAssistant {
			role = ai.RoleAssistant
		}
		turns = append(turns, ai.Message{Role: role, Content: m.Content})
	}

	reply, source, err := s.converse(ctx, snapshot, turns, req)
	if err != nil {
		log.Warn().Err(err).Msg("conversational completion failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrAIUnavailable, err)
	}

	plan, err := s.obtainPlan(ctx, snapshot, turns, req)
	if err != nil {
		log.Warn().Err(err).Msg("plan inference failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrAIUnavailable, err)
	}

	resp := &domain.AssistResponse{
		Reply:  reply,
		Source: source,
		ChatID: session.ID,
	}

	if req.Confirm {
		summary, err := s.executor.Apply(ctx, userID, plan)
		if err != nil {
			return nil, fmt.Errorf("failed to execute plan: %w", err)
		}
		resp.Executed = true
		// The reply must reflect actual outcomes, never the model's
		// free-text claims.
		resp.Reply = appliedSummary(summary)
		resp.Created = summary.Clauses
	} else {
		resp.Plan = plan
		if plan.HasActions() {
			resp.Reply = plannedSummary(plan)
			resp.RequiresConfirmation = true
		}
	}

	assistantMsg := &domain.ChatMessage{
		ID:        uuid.New(),
		SessionID: session.ID,
		Role:      domain.RoleAssistant,
		Content:   resp.Reply,
		CreatedAt: time.Now(),
	}
	if err := s.messageRepo.Create(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to persist reply: %w", err)
	}
	if err := s.sessionRepo.Touch(ctx, session.ID, assistantMsg.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}

	return resp, nil
}

// ListChats returns the caller's sessions, most recently updated first.
func (s *AssistantService) ListChats(ctx context.Context, userID uuid.UUID) ([]domain.ChatSession, error) {
	sessions, err := s.sessionRepo.ListByUser(ctx, userID, domain.MaxSessionsPerUser)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// ChatMessages returns a session transcript oldest-first, or not-found when
// the session does not exist or belongs to someone else.
func (s *AssistantService) ChatMessages(ctx context.Context, userID, chatID uuid.UUID) ([]domain.ChatMessage, error) {
	session, err := s.sessionRepo.GetForUser(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}
	messages, err := s.messageRepo.ListBySession(ctx, chatID, domain.MaxMessagesPerListing)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (s *AssistantService) resolveSession(ctx context.Context, userID uuid.UUID, req domain.AssistRequest) (*domain.ChatSession, error) {
	if req.ChatID != nil {
		session, err := s.sessionRepo.GetForUser(ctx, *req.ChatID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if session == nil {
			return nil, domain.ErrNotFound
		}
		return session, nil
	}

	now := time.Now()
	session := &domain.ChatSession{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     domain.SessionTitle(req.Message),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Retention is enforced in the same request that grows the set.
	if pruned, err := s.sessionRepo.Prune(ctx, userID, domain.MaxSessionsPerUser); err != nil {
		log.Warn().Err(err).Msg("session pruning failed")
	} else if pruned > 0 {
		log.Debug().Int64("pruned", pruned).Msg("old chat sessions removed")
	}

	return session, nil
}

// buildSnapshot renders a bounded view of the user's tasks: up to 50
// pending and 20 completed, one line each.
func (s *AssistantService) buildSnapshot(ctx context.Context, userID uuid.UUID) (string, error) {
	categories, err := s.categoryRepo.ListVisible(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to list categories: %w", err)
	}
	names := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	pending := false
	pendingTasks, err := s.taskRepo.ListByUser(ctx, userID, domain.TaskFilter{IsDone: &pending, Limit: snapshotPendingLimit})
	if err != nil {
		return "", fmt.Errorf("failed to list tasks: %w", err)
	}
	done := true
	completedTasks, err := s.taskRepo.ListByUser(ctx, userID, domain.TaskFilter{IsDone: &done, Limit: snapshotCompletedLimit})
	if err != nil {
		return "", fmt.Errorf("failed to list tasks: %w", err)
	}

	var b strings.Builder
	for _, t := range append(pendingTasks, completedTasks...) {
		category := "-"
		if t.CategoryID != nil {
			if name, ok := names[*t.CategoryID]; ok {
				category = name
			}
		}
		marker := "pending"
		if t.IsDone {
			marker = "done"
		} else if t.Deadline != nil {
			marker = "due " + t.Deadline.UTC().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&b, "- id=%s [%s] %s (%s, %s)\n", t.ID, category, t.Title, t.Priority, marker)
	}
	return b.String(), nil
}

// converse produces the free-text answer for this turn.
func (s *AssistantService) converse(ctx context.Context, snapshot string, history []ai.Message, req domain.AssistRequest) (string, string, error) {
	provider, err := s.router.GetProvider(s.cfg.DefaultProvider)
	if err != nil {
		return "", "", err
	}

	system := assistantInstruction
	if snapshot != "" {
		system += "\n\nThe user's current tasks:\n" + snapshot
	}

	message := req.Message
	if message == "" {
		message = "Apply the confirmed changes."
	}

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: message})

	resp, err := provider.Complete(ctx, ai.Request{
		Messages:    messages,
		Temperature: 0.2,
		MaxTokens:   s.replyTokens(req.MaxTokens),
	})
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(resp.Content), resp.Source, nil
}

// obtainPlan returns the client-approved plan on a confirm call, otherwise
// infers one from the same context as the conversational answer.
func (s *AssistantService) obtainPlan(ctx context.Context, snapshot string, history []ai.Message, req domain.AssistRequest) (*domain.ActionPlan, error) {
	if req.Confirm && req.Actions != nil {
		return req.Actions, nil
	}
	message := req.Message
	if message == "" {
		return domain.EmptyPlan(), nil
	}
	return s.planner.Infer(ctx, s.cfg.DefaultProvider, snapshot, history, message)
}

// replyTokens clamps a client-requested budget to [32, configured cap].
func (s *AssistantService) replyTokens(requested *int) int {
	tokens := s.cfg.MaxTokens
	if requested != nil {
		tokens = *requested
	}
	if tokens < minReplyTokens {
		tokens = minReplyTokens
	}
	if tokens > s.cfg.MaxTokens {
		tokens = s.cfg.MaxTokens
	}
	return tokens
}

// plannedSummary itemizes a pending plan deterministically, bucket by bucket.
func plannedSummary(plan *domain.ActionPlan) string {
	var lines []string
	add := func(label string, n int) {
		if n > 0 {
			lines = append(lines, fmt.Sprintf("- %s: %d", label, n))
		}
	}
	add("categories to create", len(plan.Categories))
	add("tasks to create", len(plan.Tasks))
	add("categories to update", len(plan.UpdateCategories))
	add("tasks to update", len(plan.UpdateTasks))
	add("categories to delete", len(plan.DeleteCategories))
	add("tasks to delete", len(plan.DeleteTasks))

	return "Planned changes:\n" + strings.Join(lines, "\n") + "\n\nConfirm to apply these changes."
}

// appliedSummary reports what a confirmed plan actually changed.
func appliedSummary(summary *domain.ExecutionSummary) string {
	if summary.Mutations() == 0 {
		return "Changes applied."
	}
	return "Changes applied: " + strings.Join(summary.Clauses, "; ")
}
