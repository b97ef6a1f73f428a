package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// register sqlite driver
	_ "modernc.org/sqlite"

	"github.com/voxpoll/voxpoll/internal/survey"
)

// Store implements survey.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite store at the given path.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
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
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT,
	user_id TEXT,
	language TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS survey_questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	survey_id INTEGER NOT NULL REFERENCES surveys(id) ON DELETE CASCADE,
	question_text TEXT NOT NULL,
	question_order INTEGER NOT NULL DEFAULT 0,
	followup_count INTEGER NOT NULL DEFAULT 0,
	question_type TEXT,
	question_objectives TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_survey_order ON survey_questions(survey_id, question_order);
CREATE TABLE IF NOT EXISTS survey_responses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	survey_id INTEGER NOT NULL REFERENCES surveys(id) ON DELETE CASCADE,
	respondent_identifier TEXT,
	status TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_responses_survey ON survey_responses(survey_id);
CREATE TABLE IF NOT EXISTS survey_response_conversations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	survey_response_id INTEGER NOT NULL REFERENCES survey_responses(id) ON DELETE CASCADE,
	speaker_type TEXT NOT NULL,
	message_text TEXT NOT NULL,
	conversation_order INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
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

func nowPair(createdAt time.Time) (time.Time, time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	return createdAt, now
}

// CreateSurvey inserts a new survey.
func (s *Store) CreateSurvey(ctx context.Context, sv survey.Survey) (survey.Survey, error) {
	if strings.TrimSpace(sv.Title) == "" {
		return survey.Survey{}, errors.New("survey title required")
	}
	created, updated := nowPair(sv.CreatedAt)
	res, err := s.db.ExecContext(ctx, `
INSERT INTO surveys(title, description, status, user_id, language, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?)`,
		sv.Title, sv.Description, sv.Status, sv.UserID, sv.Language, created, updated)
	if err != nil {
		return survey.Survey{}, fmt.Errorf("insert survey: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return survey.Survey{}, err
	}
	sv.ID = id
	sv.CreatedAt = created
	sv.UpdatedAt = updated
	return sv, nil
}

// GetSurvey returns the survey with the given id.
func (s *Store) GetSurvey(ctx context.Context, id int64) (survey.Survey, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, description, status, user_id, language, created_at, updated_at
FROM surveys WHERE id = ?`, id)
	return scanSurvey(row)
}

// ListSurveys returns surveys matching the filter, newest first.
func (s *Store) ListSurveys(ctx context.Context, f survey.SurveyFilter) ([]survey.Survey, error) {
	query := `
SELECT id, title, description, status, user_id, language, created_at, updated_at
FROM surveys WHERE 1=1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()
	var out []survey.Survey
	for rows.Next() {
		sv, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// UpdateSurvey overwrites mutable survey fields.
func (s *Store) UpdateSurvey(ctx context.Context, sv survey.Survey) (survey.Survey, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
UPDATE surveys SET title = ?, description = ?, status = ?, language = ?, updated_at = ?
WHERE id = ?`,
		sv.Title, sv.Description, sv.Status, sv.Language, now, sv.ID)
	if err != nil {
		return survey.Survey{}, fmt.Errorf("update survey: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return survey.Survey{}, survey.ErrNotFound
	}
	return s.GetSurvey(ctx, sv.ID)
}

// DeleteSurvey removes a survey; questions and responses cascade.
func (s *Store) DeleteSurvey(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = ?`, id)
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
	created, updated := nowPair(q.CreatedAt)
	res, err := s.db.ExecContext(ctx, `
INSERT INTO survey_questions(survey_id, question_text, question_order, followup_count, question_type, question_objectives, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		q.SurveyID, q.QuestionText, q.QuestionOrder, q.FollowupCount, q.QuestionType, q.Objectives, created, updated)
	if err != nil {
		return survey.Question{}, fmt.Errorf("insert question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return survey.Question{}, err
	}
	q.ID = id
	q.CreatedAt = created
	q.UpdatedAt = updated
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
SELECT id, survey_id, question_text, question_order, followup_count, question_type, question_objectives, created_at, updated_at
FROM survey_questions WHERE id = ?`, id)
	return scanQuestion(row)
}

// ListQuestionsBySurvey returns a survey's questions ordered by question_order.
func (s *Store) ListQuestionsBySurvey(ctx context.Context, surveyID int64) ([]survey.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, survey_id, question_text, question_order, followup_count, question_type, question_objectives, created_at, updated_at
FROM survey_questions WHERE survey_id = ? ORDER BY question_order ASC, id ASC`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	var out []survey.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ListQuestionsByType returns a survey's questions of one type, ordered by
// question_order.
func (s *Store) ListQuestionsByType(ctx context.Context, surveyID int64, questionType string) ([]survey.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, survey_id, question_text, question_order, followup_count, question_type, question_objectives, created_at, updated_at
FROM survey_questions WHERE survey_id = ? AND question_type = ? ORDER BY question_order ASC, id ASC`, surveyID, questionType)
	if err != nil {
		return nil, fmt.Errorf("list questions by type: %w", err)
	}
	defer rows.Close()
	var out []survey.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// UpdateQuestion overwrites mutable question fields.
func (s *Store) UpdateQuestion(ctx context.Context, q survey.Question) (survey.Question, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
UPDATE survey_questions SET question_text = ?, question_order = ?, followup_count = ?, question_type = ?, question_objectives = ?, updated_at = ?
WHERE id = ?`,
		q.QuestionText, q.QuestionOrder, q.FollowupCount, q.QuestionType, q.Objectives, now, q.ID)
	if err != nil {
		return survey.Question{}, fmt.Errorf("update question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return survey.Question{}, survey.ErrNotFound
	}
	return s.GetQuestion(ctx, q.ID)
}

// DeleteQuestion removes a question.
func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey_questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return survey.ErrNotFound
	}
	return nil
}

// ReorderQuestions rewrites question_order so that orderedIDs[i] gets order i+1.
func (s *Store) ReorderQuestions(ctx context.Context, surveyID int64, orderedIDs []int64) ([]survey.Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()
	now := time.Now().UTC()
	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx, `
UPDATE survey_questions SET question_order = ?, updated_at = ? WHERE id = ? AND survey_id = ?`,
			i+1, now, id, surveyID); err != nil {
			return nil, fmt.Errorf("reorder question %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reorder: %w", err)
	}
	return s.ListQuestionsBySurvey(ctx, surveyID)
}

// CreateResponse inserts a new response session.
func (s *Store) CreateResponse(ctx context.Context, r survey.Response) (survey.Response, error) {
	if r.SurveyID == 0 {
		return survey.Response{}, errors.New("response requires survey id")
	}
	created, updated := nowPair(r.CreatedAt)
	res, err := s.db.ExecContext(ctx, `
INSERT INTO survey_responses(survey_id, respondent_identifier, status, created_at, updated_at)
VALUES(?, ?, ?, ?, ?)`,
		r.SurveyID, r.Respondent, r.Status, created, updated)
	if err != nil {
		return survey.Response{}, fmt.Errorf("insert response: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return survey.Response{}, err
	}
	r.ID = id
	r.CreatedAt = created
	r.UpdatedAt = updated
	return r, nil
}

// GetResponse returns the response with the given id.
func (s *Store) GetResponse(ctx context.Context, id int64) (survey.Response, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, survey_id, respondent_identifier, status, created_at, updated_at
FROM survey_responses WHERE id = ?`, id)
	return scanResponse(row)
}

// ListResponses returns responses matching the filter, newest first.
func (s *Store) ListResponses(ctx context.Context, f survey.ResponseFilter) ([]survey.Response, error) {
	query := `
SELECT id, survey_id, respondent_identifier, status, created_at, updated_at
FROM survey_responses WHERE 1=1`
	var args []any
	if f.SurveyID != 0 {
		query += ` AND survey_id = ?`
		args = append(args, f.SurveyID)
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()
	var out []survey.Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateResponse overwrites mutable response fields.
func (s *Store) UpdateResponse(ctx context.Context, r survey.Response) (survey.Response, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
UPDATE survey_responses SET respondent_identifier = ?, status = ?, updated_at = ? WHERE id = ?`,
		r.Respondent, r.Status, now, r.ID)
	if err != nil {
		return survey.Response{}, fmt.Errorf("update response: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return survey.Response{}, survey.ErrNotFound
	}
	return s.GetResponse(ctx, r.ID)
}

// UpdateResponseStatus changes only the status field.
func (s *Store) UpdateResponseStatus(ctx context.Context, id int64, status string) (survey.Response, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
UPDATE survey_responses SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	if err != nil {
		return survey.Response{}, fmt.Errorf("update response status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return survey.Response{}, survey.ErrNotFound
	}
	return s.GetResponse(ctx, id)
}

// DeleteResponse removes a response; its turns cascade.
func (s *Store) DeleteResponse(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey_responses WHERE id = ?`, id)
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
SELECT COUNT(*) FROM survey_responses WHERE survey_id = ?`, surveyID).Scan(&stats.TotalCount)
	if err != nil {
		return survey.ResponseStatistics{}, fmt.Errorf("count responses: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT COALESCE(status, ''), COUNT(*) FROM survey_responses WHERE survey_id = ? GROUP BY status`, surveyID)
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

	// Timestamps are stored as ISO-8601 text, so the date is the first ten
	// characters.
	dayRows, err := s.db.QueryContext(ctx, `
SELECT substr(created_at, 1, 10) AS day, COUNT(*) FROM survey_responses
WHERE survey_id = ? GROUP BY day ORDER BY day ASC`, surveyID)
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
	created, updated := nowPair(t.CreatedAt)
	res, err := s.db.ExecContext(ctx, `
INSERT INTO survey_response_conversations(survey_response_id, speaker_type, message_text, conversation_order, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?)`,
		t.ResponseID, string(t.Speaker), t.Message, t.Order, created, updated)
	if err != nil {
		return survey.Turn{}, fmt.Errorf("insert turn: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return survey.Turn{}, err
	}
	t.ID = id
	t.CreatedAt = created
	t.UpdatedAt = updated
	return t, nil
}

// GetTurn returns the turn with the given id.
func (s *Store) GetTurn(ctx context.Context, id int64) (survey.Turn, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, survey_response_id, speaker_type, message_text, conversation_order, created_at, updated_at
FROM survey_response_conversations WHERE id = ?`, id)
	return scanTurn(row)
}

// ListTurnsByResponse returns a response's turns ordered by conversation_order.
func (s *Store) ListTurnsByResponse(ctx context.Context, responseID int64) ([]survey.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, survey_response_id, speaker_type, message_text, conversation_order, created_at, updated_at
FROM survey_response_conversations WHERE survey_response_id = ? ORDER BY conversation_order ASC, id ASC`, responseID)
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
WHERE survey_response_id = ? AND message_text LIKE ?
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
SELECT COUNT(*) FROM survey_response_conversations WHERE survey_response_id = ?`, responseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return n, nil
}

// LatestTurnByResponse returns the turn with the highest conversation_order.
func (s *Store) LatestTurnByResponse(ctx context.Context, responseID int64) (survey.Turn, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, survey_response_id, speaker_type, message_text, conversation_order, created_at, updated_at
FROM survey_response_conversations WHERE survey_response_id = ?
ORDER BY conversation_order DESC, id DESC LIMIT 1`, responseID)
	return scanTurn(row)
}

// DeleteTurn removes a turn.
func (s *Store) DeleteTurn(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey_response_conversations WHERE id = ?`, id)
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

func scanSurvey(row rowScanner) (survey.Survey, error) {
	var sv survey.Survey
	var description, status, userID, language sql.NullString
	err := row.Scan(&sv.ID, &sv.Title, &description, &status, &userID, &language, &sv.CreatedAt, &sv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Survey{}, survey.ErrNotFound
	}
	if err != nil {
		return survey.Survey{}, fmt.Errorf("scan survey: %w", err)
	}
	sv.Description = description.String
	sv.Status = status.String
	sv.UserID = userID.String
	sv.Language = language.String
	return sv, nil
}

func scanQuestion(row rowScanner) (survey.Question, error) {
	var q survey.Question
	var qtype, objectives sql.NullString
	err := row.Scan(&q.ID, &q.SurveyID, &q.QuestionText, &q.QuestionOrder, &q.FollowupCount, &qtype, &objectives, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Question{}, survey.ErrNotFound
	}
	if err != nil {
		return survey.Question{}, fmt.Errorf("scan question: %w", err)
	}
	q.QuestionType = qtype.String
	q.Objectives = objectives.String
	return q, nil
}

func scanResponse(row rowScanner) (survey.Response, error) {
	var r survey.Response
	var respondent, status sql.NullString
	err := row.Scan(&r.ID, &r.SurveyID, &respondent, &status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Response{}, survey.ErrNotFound
	}
	if err != nil {
		return survey.Response{}, fmt.Errorf("scan response: %w", err)
	}
	r.Respondent = respondent.String
	r.Status = status.String
	return r, nil
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
