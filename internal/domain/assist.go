package domain

import "github.com/google/uuid"

// AssistRequest is the orchestrator entry point payload. Actions carries a
// previously surfaced plan back for confirmed execution; when absent on a
// confirm call the plan is re-inferred.
type AssistRequest struct {
	Message   string      `json:"message"`
	ChatID    *uuid.UUID  `json:"chat_id,omitempty"`
	Confirm   bool        `json:"confirm"`
	Actions   *ActionPlan `json:"actions,omitempty"`
	MaxTokens *int        `json:"max_tokens,omitempty"`
}

// AssistResponse is the orchestrator result. Plan is echoed on every
// unexecuted turn, even when empty; Created lists the applied-change
// clauses after execution.
type AssistResponse struct {
	Reply                string      `json:"reply"`
	Source               string      `json:"source"`
	ChatID               uuid.UUID   `json:"chat_id"`
	RequiresConfirmation bool        `json:"requires_confirmation"`
	Executed             bool        `json:"executed"`
	Plan                 *ActionPlan `json:"plan,omitempty"`
	Created              []string    `json:"created,omitempty"`
}
