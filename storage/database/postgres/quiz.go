package pgrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/quiz"
)

type quizRepository struct {
	exec core.DBExecutor
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(exec core.DBExecutor) *quizRepository {
	return &quizRepository{exec: exec}
}

type quizRow struct {
	ID        string      `db:"id"`
	CourseID  null.String `db:"course_id"`
	Title     string      `db:"title"`
	PassScore int         `db:"pass_score"`
	TimeLimit int         `db:"time_limit"`
	Status    string      `db:"status"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r quizRow) domain() quiz.Quiz {
	return quiz.Quiz(r)
}

type questionRow struct {
	ID         string         `db:"id"`
	QuizID     string         `db:"quiz_id"`
	Text       string         `db:"text"`
	Options    pq.StringArray `db:"options"`
	CorrectIdx int            `db:"correct_idx"`
	Points     int            `db:"points"`
	Position   int            `db:"position"`
}

func (r questionRow) domain() quiz.Question {
	return quiz.Question{
		ID:         r.ID,
		QuizID:     r.QuizID,
		Text:       r.Text,
		Options:    r.Options,
		CorrectIdx: r.CorrectIdx,
		Points:     r.Points,
		Position:   r.Position,
	}
}

type submissionRow struct {
	ID          string        `db:"id"`
	QuizID      string        `db:"quiz_id"`
	UserID      string        `db:"user_id"`
	Answers     pq.Int64Array `db:"answers"`
	Score       int           `db:"score"`
	Passed      bool          `db:"passed"`
	SubmittedAt time.Time     `db:"submitted_at"`
}

func (r submissionRow) domain() quiz.Submission {
	answers := make([]int, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, int(a))
	}
	return quiz.Submission{
		ID:          r.ID,
		QuizID:      r.QuizID,
		UserID:      r.UserID,
		Answers:     answers,
		Score:       r.Score,
		Passed:      r.Passed,
		SubmittedAt: r.SubmittedAt,
	}
}

func (repo quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz, exec ...core.DBExecutor) (quiz.Quiz, error) {
	qz.ID = uuid.New().String()
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `
		INSERT INTO quizzes (id, course_id, title, pass_score, time_limit, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		qz.ID, qz.CourseID, qz.Title, qz.PassScore, qz.TimeLimit, qz.Status,
		qz.CreatedAt.UTC(), qz.UpdatedAt.UTC(),
	)
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "inserting quiz")
	}
	return qz, nil
}

func (repo quizRepository) QueryQuizzes(ctx context.Context, courseID, status string, exec ...core.DBExecutor) ([]quiz.Quiz, error) {
	q := `SELECT * FROM quizzes`
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if courseID != "" {
		conds = append(conds, fmt.Sprintf("course_id = %s", arg(courseID)))
	}
	if status != "" {
		conds = append(conds, fmt.Sprintf("status = %s", arg(status)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	var rows []quizRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}
	quizzes := make([]quiz.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, row.domain())
	}
	return quizzes, nil
}

func (repo quizRepository) GetQuizByID(ctx context.Context, id string, exec ...core.DBExecutor) (quiz.Quiz, error) {
	if _, err := uuid.Parse(id); err != nil {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	var row quizRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, `SELECT * FROM quizzes WHERE id = $1`, id); err != nil {
		return quiz.Quiz{}, trapNoRowsErr(err, quiz.ErrNotFound, "finding quiz by ID")
	}
	return row.domain(), nil
}

func (repo quizRepository) UpdateQuiz(ctx context.Context, qz quiz.Quiz, exec ...core.DBExecutor) (quiz.Quiz, error) {
	var row quizRow
	err := getExec(repo.exec, exec).GetContext(ctx, &row, `
		UPDATE quizzes SET
			title = COALESCE(NULLIF($2, ''), title),
			pass_score = $3,
			time_limit = $4,
			status = COALESCE(NULLIF($5, ''), status),
			updated_at = $6
		WHERE id = $1
		RETURNING *`,
		qz.ID, qz.Title, qz.PassScore, qz.TimeLimit, qz.Status, qz.UpdatedAt.UTC(),
	)
	if err != nil {
		return quiz.Quiz{}, trapNoRowsErr(err, quiz.ErrNotFound, "updating quiz")
	}
	return row.domain(), nil
}

func (repo quizRepository) DeleteQuizzesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM quizzes WHERE id = ANY($1)`, pq.StringArray(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting quizzes")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo quizRepository) CreateQuestion(ctx context.Context, q quiz.Question, exec ...core.DBExecutor) (quiz.Question, error) {
	q.ID = uuid.New().String()
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `
		INSERT INTO questions (id, quiz_id, text, options, correct_idx, points, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		q.ID, q.QuizID, q.Text, pq.StringArray(q.Options), q.CorrectIdx, q.Points, q.Position,
	)
	if err != nil {
		return quiz.Question{}, errors.Wrap(err, "inserting question")
	}
	return q, nil
}

func (repo quizRepository) QueryQuestions(ctx context.Context, quizID string, exec ...core.DBExecutor) ([]quiz.Question, error) {
	var rows []questionRow
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		`SELECT * FROM questions WHERE quiz_id = $1 ORDER BY position ASC`, quizID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]quiz.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.domain())
	}
	return questions, nil
}

func (repo quizRepository) CreateSubmission(ctx context.Context, sub quiz.Submission, exec ...core.DBExecutor) (quiz.Submission, error) {
	sub.ID = uuid.New().String()
	answers := make(pq.Int64Array, 0, len(sub.Answers))
	for _, a := range sub.Answers {
		answers = append(answers, int64(a))
	}
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `
		INSERT INTO submissions (id, quiz_id, user_id, answers, score, passed, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.QuizID, sub.UserID, answers, sub.Score, sub.Passed, sub.SubmittedAt.UTC(),
	)
	if err != nil {
		return quiz.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo quizRepository) QuerySubmissions(ctx context.Context, quizID, userID string, exec ...core.DBExecutor) ([]quiz.Submission, error) {
	q := `SELECT * FROM submissions WHERE quiz_id = $1`
	args := []interface{}{quizID}
	if userID != "" {
		q += ` AND user_id = $2`
		args = append(args, userID)
	}
	q += ` ORDER BY submitted_at DESC`

	var rows []submissionRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]quiz.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.domain())
	}
	return subs, nil
}
