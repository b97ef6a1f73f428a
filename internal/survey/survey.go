package survey

import "time"

// SpeakerType identifies who authored a conversation turn.
type SpeakerType string

const (
	SpeakerUser      SpeakerType = "user"
	SpeakerAssistant SpeakerType = "assistant"
)

// PlaceholderTurnID marks a turn that was handed back to the caller without
// ever being written to storage. Real ids are always positive.
const PlaceholderTurnID int64 = -1

// Survey is a question set that respondents answer through conversation.
type Survey struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Language    string    `json:"language,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Question belongs to exactly one survey. QuestionOrder is the ordering key;
// values are not required to be contiguous.
type Question struct {
	ID            int64     `json:"id"`
	SurveyID      int64     `json:"survey_id"`
	QuestionText  string    `json:"question_text"`
	QuestionOrder int       `json:"question_order"`
	FollowupCount int       `json:"followup_count,omitempty"`
	QuestionType  string    `json:"question_type,omitempty"`
	Objectives    string    `json:"question_objectives,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Response is one respondent's conversation session against a survey.
type Response struct {
	ID         int64     `json:"id"`
	SurveyID   int64     `json:"survey_id"`
	Respondent string    `json:"respondent_identifier,omitempty"`
	Status     string    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Turn is a single conversation message. Turns are append-only: once created
// they are never edited, and they are deleted only when their response is.
type Turn struct {
	ID         int64       `json:"id"`
	ResponseID int64       `json:"survey_response_id"`
	Speaker    SpeakerType `json:"speaker_type"`
	Message    string      `json:"message_text"`
	Order      int         `json:"conversation_order"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Persisted reports whether the turn was durably stored.
func (t Turn) Persisted() bool { return t.ID != PlaceholderTurnID }

// DailyResponseCount is one day's worth of new responses.
type DailyResponseCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ResponseStatistics aggregates a survey's responses for dashboards.
type ResponseStatistics struct {
	TotalCount      int                  `json:"total_count"`
	StatusCounts    map[string]int       `json:"status_counts"`
	DailyCounts     []DailyResponseCount `json:"daily_counts"`
	RecentResponses []Response           `json:"recent_responses"`
}
