package survey

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups for ids that do not exist.
var ErrNotFound = errors.New("record not found")

// SurveyFilter narrows ListSurveys. Zero values mean "no filter".
type SurveyFilter struct {
	Status string
	UserID string
	Limit  int
	Offset int
}

// ResponseFilter narrows ListResponses.
type ResponseFilter struct {
	SurveyID int64
	Limit    int
	Offset   int
}

// Store defines persistence for surveys, questions, responses and turns.
// Implementations guarantee single-row atomicity only; multi-step sequences
// (such as "count turns, then insert the next one") carry no transaction
// boundary here.
type Store interface {
	CreateSurvey(ctx context.Context, s Survey) (Survey, error)
	GetSurvey(ctx context.Context, id int64) (Survey, error)
	ListSurveys(ctx context.Context, f SurveyFilter) ([]Survey, error)
	UpdateSurvey(ctx context.Context, s Survey) (Survey, error)
	DeleteSurvey(ctx context.Context, id int64) error

	CreateQuestion(ctx context.Context, q Question) (Question, error)
	CreateQuestions(ctx context.Context, qs []Question) ([]Question, error)
	GetQuestion(ctx context.Context, id int64) (Question, error)
	ListQuestionsBySurvey(ctx context.Context, surveyID int64) ([]Question, error)
	ListQuestionsByType(ctx context.Context, surveyID int64, questionType string) ([]Question, error)
	UpdateQuestion(ctx context.Context, q Question) (Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	ReorderQuestions(ctx context.Context, surveyID int64, orderedIDs []int64) ([]Question, error)

	CreateResponse(ctx context.Context, r Response) (Response, error)
	GetResponse(ctx context.Context, id int64) (Response, error)
	ListResponses(ctx context.Context, f ResponseFilter) ([]Response, error)
	UpdateResponse(ctx context.Context, r Response) (Response, error)
	UpdateResponseStatus(ctx context.Context, id int64, status string) (Response, error)
	DeleteResponse(ctx context.Context, id int64) error
	ResponseStatistics(ctx context.Context, surveyID int64) (ResponseStatistics, error)

	CreateTurn(ctx context.Context, t Turn) (Turn, error)
	GetTurn(ctx context.Context, id int64) (Turn, error)
	ListTurnsByResponse(ctx context.Context, responseID int64) ([]Turn, error)
	SearchTurnsByResponse(ctx context.Context, responseID int64, query string) ([]Turn, error)
	CountTurnsByResponse(ctx context.Context, responseID int64) (int, error)
	LatestTurnByResponse(ctx context.Context, responseID int64) (Turn, error)
	DeleteTurn(ctx context.Context, id int64) error

	Close() error
}
