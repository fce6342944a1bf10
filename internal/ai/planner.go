package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GulovM/ToDo-Master/internal/domain"
)

// plannerMaxTokens caps the plan completion; plans are small and a tight
// budget keeps the model from rambling past the JSON.
const plannerMaxTokens = 768

const plannerInstruction = `You are an action planner for a task manager. Given the user's message and their current tasks, produce the changes to apply.

Respond with ONLY a JSON object, no explanations and no markdown. Schema:
{
  "categories": [{"name": "...", "color": "#RRGGBB", "description": "..."}],
  "tasks": [{"title": "...", "description": "...", "priority": "low|medium|high", "deadline": "YYYY-MM-DDTHH:MM", "category": "..."}],
  "update_categories": [{"name": "...", "new_name": "...", "color": "#RRGGBB", "description": "..."}],
  "update_tasks": [{"id": "...", "title": "...", "description": "...", "priority": "low|medium|high", "deadline": "YYYY-MM-DDTHH:MM", "category": "...", "is_done": true}],
  "delete_categories": [{"name": "..."}],
  "delete_tasks": [{"id": "...", "title": "..."}]
}

Rules:
- Include only the lists you need; "categories" and "tasks" may be empty arrays.
- Reference existing tasks by id when it is shown in the context, otherwise by exact title.
- If the message requires no changes, respond with {"categories": [], "tasks": []}.`

// BuildPlannerPrompt renders the planner system instruction with the
// user's task snapshot appended as context.
func BuildPlannerPrompt(snapshot string) string {
	if snapshot == "" {
		return plannerInstruction
	}
	return plannerInstruction + "\n\nCurrent tasks:\n" + snapshot
}

// Planner infers structured action plans from user messages. It never
// mutates state; parse failures degrade to an empty plan.
type Planner struct {
	router *Router
}

// NewPlanner creates a new planner over the provider router
func NewPlanner(router *Router) *Planner {
	return &Planner{router: router}
}

// Infer asks the model for an action plan. Temperature is pinned to zero
// so identical context yields identical plans.
func (p *Planner) Infer(ctx context.Context, providerName, snapshot string, history []Message, message string) (*domain.ActionPlan, error) {
	provider, err := p.router.GetProvider(providerName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve planner provider: %w", err)
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: BuildPlannerPrompt(snapshot)})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: message})

	resp, err := provider.Complete(ctx, Request{
		Messages:    messages,
		Temperature: 0,
		MaxTokens:   plannerMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("planner completion failed: %w", err)
	}

	return ParsePlan(resp.Content), nil
}

// ParsePlan parses a raw model completion into an action plan. Markdown
// fences are stripped first; if the text still fails to parse, the
// substring between the first "{" and the last "}" is tried; anything
// unrecoverable yields an empty plan.
func ParsePlan(raw string) *domain.ActionPlan {
	text := stripCodeFence(strings.TrimSpace(raw))

	var plan domain.ActionPlan
	if err := json.Unmarshal([]byte(text), &plan); err == nil {
		return &plan
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		plan = domain.ActionPlan{}
		if err := json.Unmarshal([]byte(text[start:end+1]), &plan); err == nil {
			return &plan
		}
	}

	return domain.EmptyPlan()
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
