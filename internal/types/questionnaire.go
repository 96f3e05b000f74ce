package types

import "github.com/go-playground/validator/v10"

// Responses holds form answers keyed by question id. Values are strings or
// string slices (multi-select questions).
type Responses map[string]any

// Clone returns a shallow copy so callers can keep mutating their own map.
func (r Responses) Clone() Responses {
	out := make(Responses, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// BackgroundQuestionnaire is the stored background questionnaire.
type BackgroundQuestionnaire struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Responses   Responses  `json:"responses"`
	CreatedAt   Timestamp  `json:"created_at"`
	UpdatedAt   Timestamp  `json:"updated_at"`
	CompletedAt *Timestamp `json:"completed_at,omitempty"`
}

// QuestionnaireSubmission is the body for creating or updating a questionnaire.
type QuestionnaireSubmission struct {
	Responses  Responses `json:"responses" validate:"required"`
	IsComplete bool      `json:"is_complete"`
}

// Validate checks the submission has a responses map.
func (s *QuestionnaireSubmission) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
