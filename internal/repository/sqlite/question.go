package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/repository"
)

var _ repository.QuestionRepository = (*QuestionDB)(nil)

type QuestionDB struct {
	conn *sql.DB
}

const questionColumns = `id, question, topic, difficulty, company, link, yt_link, created_at`

// questionOrder maps the public sort names onto ORDER BY clauses. Only
// values from this table ever reach the SQL text.
var questionOrder = map[string]string{
	"":           "topic ASC, created_at ASC",
	"topic":      "topic ASC, created_at ASC",
	"newest":     "created_at DESC",
	"difficulty": "CASE difficulty WHEN 'Easy' THEN 0 WHEN 'Medium' THEN 1 ELSE 2 END, topic ASC",
}

func (q *QuestionDB) Create(ctx context.Context, question *model.DSAQuestion) error {
	question.ID = xid.New().String()
	question.CreatedAt = time.Now().UTC()

	_, err := q.conn.ExecContext(ctx,
		`INSERT INTO dsa_questions (`+questionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		question.ID, question.Question, question.Topic, question.Difficulty,
		question.Company, question.Link, question.YTLink, question.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating question: %w", err)
	}
	return nil
}

func (q *QuestionDB) GetByID(ctx context.Context, id string) (*model.DSAQuestion, error) {
	question, err := scanQuestion(q.conn.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM dsa_questions WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("question", id)
		}
		return nil, fmt.Errorf("sqlite: getting question %s: %w", id, err)
	}
	return question, nil
}

func (q *QuestionDB) List(ctx context.Context, filter model.QuestionFilter) ([]model.DSAQuestion, error) {
	order, ok := questionOrder[filter.Sort]
	if !ok {
		return nil, apperror.ValidationFailed("sort", fmt.Sprintf("unknown sort %q", filter.Sort))
	}

	var (
		where []string
		args  []any
	)
	if filter.Topic != "" {
		where = append(where, "topic = ?")
		args = append(args, filter.Topic)
	}
	if filter.Difficulty != "" {
		where = append(where, "difficulty = ?")
		args = append(args, filter.Difficulty)
	}
	if filter.Company != "" {
		where = append(where, "company LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(filter.Company)+"%")
	}
	if filter.Search != "" {
		where = append(where, "question LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	query := `SELECT ` + questionColumns + ` FROM dsa_questions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ` + order

	rows, err := q.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing questions: %w", err)
	}
	defer rows.Close()

	questions := []model.DSAQuestion{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning question row: %w", err)
		}
		questions = append(questions, *question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating questions: %w", err)
	}
	return questions, nil
}

func (q *QuestionDB) Update(ctx context.Context, question *model.DSAQuestion) error {
	result, err := q.conn.ExecContext(ctx,
		`UPDATE dsa_questions
		 SET question = ?, topic = ?, difficulty = ?, company = ?, link = ?, yt_link = ?
		 WHERE id = ?`,
		question.Question, question.Topic, question.Difficulty, question.Company,
		question.Link, question.YTLink, question.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating question %s: %w", question.ID, err)
	}
	return expectOneRow(result, "question", question.ID)
}

func (q *QuestionDB) Delete(ctx context.Context, id string) error {
	result, err := q.conn.ExecContext(ctx, `DELETE FROM dsa_questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting question %s: %w", id, err)
	}
	return expectOneRow(result, "question", id)
}

func scanQuestion(row rowScanner) (*model.DSAQuestion, error) {
	var question model.DSAQuestion
	err := row.Scan(
		&question.ID, &question.Question, &question.Topic, &question.Difficulty,
		&question.Company, &question.Link, &question.YTLink, &question.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &question, nil
}
