package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/voxpoll/voxpoll/internal/survey"
)

// Store implements survey.Store backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

// New opens a PostgreSQL-backed store using the provided DSN and connection
// pool settings.
func New(dsn string, maxOpen, maxIdle, lifetimeMinutes, idleTimeMinutes int) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if lifetimeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(lifetimeMinutes) * time.Minute)
	}
	if idleTimeMinutes > 0 {
		db.SetConnMaxIdleTime(time.Duration(idleTimeMinutes) * time.Minute)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS surveys (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT,
	user_id TEXT,
	language TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS survey_questions (
	id BIGSERIAL PRIMARY KEY,
	survey_id BIGINT NOT NULL REFERENCES surveys(id) ON DELETE CASCADE,
	question_text TEXT NOT NULL,
	question_order INTEGER NOT NULL DEFAULT 0,
	followup_count INTEGER NOT NULL DEFAULT 0,
	question_type TEXT,
	question_objectives TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_questions_survey_order ON survey_questions(survey_id, question_order);
CREATE TABLE IF NOT EXISTS survey_responses (
	id BIGSERIAL PRIMARY KEY,
	survey_id BIGINT NOT NULL REFERENCES surveys(id) ON DELETE CASCADE,
	respondent_identifier TEXT,
	status TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_responses_survey ON survey_responses(survey_id);
CREATE TABLE IF NOT EXISTS survey_response_conversations (
	id BIGSERIAL PRIMARY KEY,
	survey_response_id BIGINT NOT NULL REFERENCES survey_responses(id) ON DELETE CASCADE,
	speaker_type TEXT NOT NULL,
	message_text TEXT NOT NULL,
	conversation_order INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_conversations_response_order ON survey_response_conversations(survey_response_id, conversation_order);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases underlying database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSurvey inserts a new survey.
func (s *Store) CreateSurvey(ctx context.Context, sv survey.Survey) (survey.Survey, error) {
	if strings.TrimSpace(sv.Title) == "" {
		return survey.Survey{}, errors.New("survey title required")
	}
	err := s.db.QueryRowContext(ctx, `
INSERT INTO surveys(title, description, status, user_id, language)
VALUES($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`,
		sv.Title, sv.Description, sv.Status, sv.UserID, sv.Language,
	).Scan(&sv.ID, &sv.CreatedAt, &sv.UpdatedAt)
	if err != nil {
		return survey.Survey{}, fmt.Errorf("insert survey: %w", err)
	}
	return sv, nil
}

// GetSurvey returns the survey with the given id.
func (s *Store) GetSurvey(ctx context.Context, id int64) (survey.Survey, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, COALESCE(description, ''), COALESCE(status, ''), COALESCE(user_id, ''), COALESCE(language, ''), created_at, updated_at
FROM surveys WHERE id = $1`, id)
	var sv survey.Survey
	err := row.Scan(&sv.ID, &sv.Title, &sv.Description, &sv.Status, &sv.UserID, &sv.Language, &sv.CreatedAt, &sv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Survey{}, survey.ErrNotFound
	}
	if err != nil {
		return survey.Survey{}, fmt.Errorf("scan survey: %w", err)
	}
	return sv, nil
}

// ListSurveys returns surveys matching the filter, newest first.
func (s *Store) ListSurveys(ctx context.Context, f survey.SurveyFilter) ([]survey.Survey, error) {
	query := `
SELECT id, title, COALESCE(description, ''), COALESCE(status, ''), COALESCE(user_id, ''), COALESCE(language, ''), created_at, updated_at
FROM surveys WHERE 1=1`
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()
	var out []survey.Survey
	for rows.Next() {
		var sv survey.Survey
		if err := rows.Scan(&sv.ID, &sv.Title, &sv.Description, &sv.Status, &sv.UserID, &sv.Language, &sv.CreatedAt, &sv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// UpdateSurvey overwrites mutable survey fields.
func (s *Store) UpdateSurvey(ctx context.Context, sv survey.Survey) (survey.Survey, error) {
	err := s.db.QueryRowContext(ctx, `
UPDATE surveys SET title = $1, description = $2, status = $3, language = $4, updated_at = now()
WHERE id = $5
RETURNING created_at, updated_at`,
		sv.Title, sv.Description, sv.Status, sv.Language, sv.ID,
	).Scan(&sv.CreatedAt, &sv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Survey{}, survey.ErrNotFound
	}
	if err != nil {
		return survey.Survey{}, fmt.Errorf("update survey: %w", err)
	}
	return sv, nil
}

// DeleteSurvey removes a survey; questions and responses cascade.
func (s *Store) DeleteSurvey(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return survey.ErrNotFound
	}
	return nil
}

// CreateQuestion inserts a new question.
func (s *Store) CreateQuestion(ctx context.Context, q survey.Question) (survey.Question, error) {
	if q.SurveyID == 0 {
		return survey.Question{}, errors.New("question requires survey id")
	}
	if strings.TrimSpace(q.QuestionText) == "" {
		return survey.Question{}, errors.New("question text required")
	}
	err := s.db.QueryRowContext(ctx, `
INSERT INTO survey_questions(survey_id, question_text, question_order, followup_count, question_type, question_objectives)
VALUES($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at`,
		q.SurveyID, q.QuestionText, q.QuestionOrder, q.FollowupCount, q.QuestionType, q.Objectives,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return survey.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

// CreateQuestions inserts questions one by one, returning the stored rows.
func (s *Store) CreateQuestions(ctx context.Context, qs []survey.Question) ([]survey.Question, error) {
	out := make([]survey.Question, 0, len(qs))
	for _, q := range qs {
		stored, err := s.CreateQuestion(ctx, q)
		if err != nil {
			return out, err
		}
		out = append(out, stored)
	}
	return out, nil
}

// GetQuestion returns the question with the given id.
func (s *Store) GetQuestion(ctx context.Context, id int64) (survey.Question, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, survey_id, question_text, question_order, followup_count, COALESCE(question_type, ''), COALESCE(question_objectives, ''), created_at, updated_at
FROM survey_questions WHERE id = $1`, id)
	var q survey.Question
	err := row.Scan(&q.ID, &q.SurveyID, &q.QuestionText, &q.QuestionOrder, &q.FollowupCount, &q.QuestionType, &q.Objectives, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Question{}, survey.ErrNotFound
	}
	if err != nil {
		return survey.Question{}, fmt.Errorf("scan question: %w", err)
	}
	return q, nil
}

// ListQuestionsBySurvey returns a survey's questions ordered by question_order.
func (s *Store) ListQuestionsBySurvey(ctx context.Context, surveyID int64) ([]survey.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, survey_id, question_text, question_order, followup_count, COALESCE(question_type, ''), COALESCE(question_objectives, ''), created_at, updated_at
FROM survey_questions WHERE survey_id = $1 ORDER BY question_order ASC, id ASC`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	var out []survey.Question
	for rows.Next() {
		var q survey.Question
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.QuestionText, &q.QuestionOrder, &q.FollowupCount, &q.QuestionType, &q.Objectives, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ListQuestionsByType returns a survey's questions of one type, ordered by
// question_order.
func (s *Store) ListQuestionsByType(ctx context.Context, surveyID int64, questionType string) ([]survey.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, survey_id, question_text, question_order, followup_count, COALESCE(question_type, ''), COALESCE(question_objectives, ''), created_at, updated_at
FROM survey_questions WHERE survey_id = $1 AND question_type = $2 ORDER BY question_order ASC, id ASC`, surveyID, questionType)
	if err != nil {
		return nil, fmt.Errorf("list questions by type: %w", err)
	}
	defer rows.Close()
	var out []survey.Question
	for rows.Next() {
		var q survey.Question
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.QuestionText, &q.QuestionOrder, &q.FollowupCount, &q.QuestionType, &q.Objectives, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// UpdateQuestion overwrites mutable question fields.
func (s *Store) UpdateQuestion(ctx context.Context, q survey.Question) (survey.Question, error) {
	err := s.db.QueryRowContext(ctx, `
UPDATE survey_questions SET question_text = $1, question_order = $2, followup_count = $3, question_type = $4, question_objectives = $5, updated_at = now()
WHERE id = $6
RETURNING survey_id, created_at, updated_at`,
		q.QuestionText, q.QuestionOrder, q.FollowupCount, q.QuestionType, q.Objectives, q.ID,
	).Scan(&q.SurveyID, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Question{}, survey.ErrNotFound
	}
	if err != nil {
		return survey.Question{}, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

// DeleteQuestion removes a question.
func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey_questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return survey.ErrNotFound
	}
	return nil
}

// ReorderQuestions rewrites question_order in one statement: orderedIDs[i]
// gets order i+1. Ids outside the survey are ignored.
func (s *Store) ReorderQuestions(ctx context.Context, surveyID int64, orderedIDs []int64) ([]survey.Question, error) {
	_, err := s.db.ExecContext(ctx, `
UPDATE survey_questions q
SET question_order = ord.pos, updated_at = now()
FROM (SELECT id, ordinality AS pos FROM unnest($1::bigint[]) WITH ORDINALITY AS t(id, ordinality)) ord
WHERE q.id = ord.id AND q.survey_id = $2`,
		pq.Array(orderedIDs), surveyID)
	if err != nil {
		return nil, fmt.Errorf("reorder questions: %w", err)
	}
	return s.ListQuestionsBySurvey(ctx, surveyID)
}

// CreateResponse inserts a new response session.
func (s *Store) CreateResponse(ctx context.Context, r survey.Response) (survey.Response, error) {
	if r.SurveyID == 0 {
		return survey.Response{}, errors.New("response requires survey id")
	}
	err := s.db.QueryRowContext(ctx, `
INSERT INTO survey_responses(survey_id, respondent_identifier, status)
VALUES($1, $2, $3)
RETURNING id, created_at, updated_at`,
		r.SurveyID, r.Respondent, r.Status,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return survey.Response{}, fmt.Errorf("insert response: %w", err)
	}
	return r, nil
}

// GetResponse returns the response with the given id.
func (s *Store) GetResponse(ctx context.Context, id int64) (survey.Response, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, survey_id, COALESCE(respondent_identifier, ''), COALESCE(status, ''), created_at, updated_at
FROM survey_responses WHERE id = $1`, id)
	var r survey.Response
	err := row.Scan(&r.ID, &r.SurveyID, &r.Respondent, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Response{}, survey.ErrNotFound
	}
	if err != nil {
		return survey.Response{}, fmt.Errorf("scan response: %w", err)
	}
	return r, nil
}

// ListResponses returns responses matching the filter, newest first.
func (s *Store) ListResponses(ctx context.Context, f survey.ResponseFilter) ([]survey.Response, error) {
	query := `
SELECT id, survey_id, COALESCE(respondent_identifier, ''), COALESCE(status, ''), created_at, updated_at
FROM survey_responses WHERE 1=1`
	var args []any
	if f.SurveyID != 0 {
		args = append(args, f.SurveyID)
		query += fmt.Sprintf(" AND survey_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()
	var out []survey.Response
	for rows.Next() {
		var r survey.Response
		if err := rows.Scan(&r.ID, &r.SurveyID, &r.Respondent, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateResponse overwrites mutable response fields.
func (s *Store) UpdateResponse(ctx context.Context, r survey.Response) (survey.Response, error) {
	err := s.db.QueryRowContext(ctx, `
UPDATE survey_responses SET respondent_identifier = $1, status = $2, updated_at = now()
WHERE id = $3
RETURNING survey_id, created_at, updated_at`,
		r.Respondent, r.Status, r.ID,
	).Scan(&r.SurveyID, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Response{}, survey.ErrNotFound
	}
	if err != nil {
		return survey.Response{}, fmt.Errorf("update response: %w", err)
	}
	return r, nil
}

// UpdateResponseStatus changes only the status field.
func (s *Store) UpdateResponseStatus(ctx context.Context, id int64, status string) (survey.Response, error) {
	_, err := s.db.ExecContext(ctx, `
UPDATE survey_responses SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return survey.Response{}, fmt.Errorf("update response status: %w", err)
	}
	return s.GetResponse(ctx, id)
}

// DeleteResponse removes a response; its turns cascade.
func (s *Store) DeleteResponse(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey_responses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete response: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return survey.ErrNotFound
	}
	return nil
}

// ResponseStatistics aggregates a survey's responses: total, per-status
// counts, per-day counts and the five most recent responses.
func (s *Store) ResponseStatistics(ctx context.Context, surveyID int64) (survey.ResponseStatistics, error) {
	stats := survey.ResponseStatistics{
		StatusCounts:    make(map[string]int),
		DailyCounts:     []survey.DailyResponseCount{},
		RecentResponses: []survey.Response{},
	}

	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM survey_responses WHERE survey_id = $1`, surveyID).Scan(&stats.TotalCount)
	if err != nil {
		return survey.ResponseStatistics{}, fmt.Errorf("count responses: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT COALESCE(status, ''), COUNT(*) FROM survey_responses WHERE survey_id = $1 GROUP BY status`, surveyID)
	if err != nil {
		return survey.ResponseStatistics{}, fmt.Errorf("count responses by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return survey.ResponseStatistics{}, fmt.Errorf("scan status count: %w", err)
		}
		stats.StatusCounts[status] = n
	}
	if err := rows.Err(); err != nil {
		return survey.ResponseStatistics{}, err
	}

	dayRows, err := s.db.QueryContext(ctx, `
SELECT to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS day, COUNT(*)
FROM survey_responses WHERE survey_id = $1 GROUP BY day ORDER BY day ASC`, surveyID)
	if err != nil {
		return survey.ResponseStatistics{}, fmt.Errorf("count responses by day: %w", err)
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var dc survey.DailyResponseCount
		if err := dayRows.Scan(&dc.Date, &dc.Count); err != nil {
			return survey.ResponseStatistics{}, fmt.Errorf("scan daily count: %w", err)
		}
		stats.DailyCounts = append(stats.DailyCounts, dc)
	}
	if err := dayRows.Err(); err != nil {
		return survey.ResponseStatistics{}, err
	}

	recent, err := s.ListResponses(ctx, survey.ResponseFilter{SurveyID: surveyID, Limit: 5})
	if err != nil {
		return survey.ResponseStatistics{}, err
	}
	if recent != nil {
		stats.RecentResponses = recent
	}
	return stats, nil
}

// CreateTurn inserts a conversation turn.
func (s *Store) CreateTurn(ctx context.Context, t survey.Turn) (survey.Turn, error) {
	if t.ResponseID == 0 {
		return survey.Turn{}, errors.New("turn requires response id")
	}
	if t.Speaker == "" {
		return survey.Turn{}, errors.New("turn requires speaker type")
	}
	err := s.db.QueryRowContext(ctx, `
INSERT INTO survey_response_conversations(survey_response_id, speaker_type, message_text, conversation_order)
VALUES($1, $2, $3, $4)
RETURNING id, created_at, updated_at`,
		t.ResponseID, string(t.Speaker), t.Message, t.Order,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return survey.Turn{}, fmt.Errorf("insert turn: %w", err)
	}
	return t, nil
}

// GetTurn returns the turn with the given id.
func (s *Store) GetTurn(ctx context.Context, id int64) (survey.Turn, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, survey_response_id, speaker_type, message_text, conversation_order, created_at, updated_at
FROM survey_response_conversations WHERE id = $1`, id)
	return scanTurn(row)
}

// ListTurnsByResponse returns a response's turns ordered by conversation_order.
func (s *Store) ListTurnsByResponse(ctx context.Context, responseID int64) ([]survey.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, survey_response_id, speaker_type, message_text, conversation_order, created_at, updated_at
FROM survey_response_conversations WHERE survey_response_id = $1 ORDER BY conversation_order ASC, id ASC`, responseID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()
	var out []survey.Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SearchTurnsByResponse returns a response's turns whose message text contains
// the query, case-insensitively, ordered by conversation_order.
func (s *Store) SearchTurnsByResponse(ctx context.Context, responseID int64, query string) ([]survey.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, survey_response_id, speaker_type, message_text, conversation_order, created_at, updated_at
FROM survey_response_conversations
WHERE survey_response_id = $1 AND message_text ILIKE $2
ORDER BY conversation_order ASC, id ASC`, responseID, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("search turns: %w", err)
	}
	defer rows.Close()
	var out []survey.Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountTurnsByResponse returns the number of stored turns for a response.
func (s *Store) CountTurnsByResponse(ctx context.Context, responseID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM survey_response_conversations WHERE survey_response_id = $1`, responseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return n, nil
}

// LatestTurnByResponse returns the turn with the highest conversation_order.
func (s *Store) LatestTurnByResponse(ctx context.Context, responseID int64) (survey.Turn, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, survey_response_id, speaker_type, message_text, conversation_order, created_at, updated_at
FROM survey_response_conversations WHERE survey_response_id = $1
ORDER BY conversation_order DESC, id DESC LIMIT 1`, responseID)
	return scanTurn(row)
}

// DeleteTurn removes a turn.
func (s *Store) DeleteTurn(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey_response_conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete turn: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return survey.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTurn(row rowScanner) (survey.Turn, error) {
	var t survey.Turn
	var speaker string
	err := row.Scan(&t.ID, &t.ResponseID, &speaker, &t.Message, &t.Order, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Turn{}, survey.ErrNotFound
	}
	if err != nil {
		return survey.Turn{}, fmt.Errorf("scan turn: %w", err)
	}
	t.Speaker = survey.SpeakerType(speaker)
	return t, nil
}
