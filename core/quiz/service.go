package quiz

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Reema362/avocop/core"
)

var (
	// errors
	ErrNotFound     = errors.New("quiz not found")
	ErrNotPublished = errors.New("quiz is not published")
	ErrAnswerCount  = errors.New("answer count does not match question count")
)

type (
	Repository interface {
		CreateQuiz(ctx context.Context, qz Quiz, exec ...core.DBExecutor) (Quiz, error)
		QueryQuizzes(ctx context.Context, courseID, status string, exec ...core.DBExecutor) ([]Quiz, error)
		GetQuizByID(ctx context.Context, id string, exec ...core.DBExecutor) (Quiz, error)
		UpdateQuiz(ctx context.Context, qz Quiz, exec ...core.DBExecutor) (Quiz, error)
		DeleteQuizzesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)

		CreateQuestion(ctx context.Context, q Question, exec ...core.DBExecutor) (Question, error)
		QueryQuestions(ctx context.Context, quizID string, exec ...core.DBExecutor) ([]Question, error)

		CreateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		QuerySubmissions(ctx context.Context, quizID, userID string, exec ...core.DBExecutor) ([]Submission, error)
	}

	// Leaderboard keeps per-quiz best scores for gamification ranking.
	Leaderboard interface {
		RecordScore(ctx context.Context, quizID, userID string, score int) error
		Top(ctx context.Context, quizID string, n int) ([]LeaderboardEntry, error)
	}

	Service struct {
		repo  Repository
		board Leaderboard
		log   core.Logger
	}
)

func NewService(repo Repository, board Leaderboard, log core.Logger) *Service {
	return &Service{repo: repo, board: board, log: log}
}

func (svc *Service) Create(ctx context.Context, nq NewQuiz) (Quiz, error) {
	now := time.Now().UTC()
	qz := Quiz{
		CourseID:  null.NewString(nq.CourseID, nq.CourseID != ""),
		Title:     nq.Title,
		PassScore: nq.PassScore,
		TimeLimit: nq.TimeLimit,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateQuiz(ctx, qz)
}

func (svc *Service) Query(ctx context.Context, courseID, status string) ([]Quiz, error) {
	return svc.repo.QueryQuizzes(ctx, courseID, core.CleanString(status, true /* lower */))
}

func (svc *Service) GetByID(ctx context.Context, id string) (Quiz, error) {
	return svc.repo.GetQuizByID(ctx, id)
}

func (svc *Service) Publish(ctx context.Context, id string) (Quiz, error) {
	qz, err := svc.repo.GetQuizByID(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	qz.Status = StatusPublished
	qz.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateQuiz(ctx, qz)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteQuizzesByID(ctx, ids)
	return err
}

func (svc *Service) AddQuestion(ctx context.Context, quizID string, nq NewQuestion) (Question, error) {
	if _, err := svc.repo.GetQuizByID(ctx, quizID); err != nil {
		return Question{}, err
	}
	q := Question{
		QuizID:     quizID,
		Text:       nq.Text,
		Options:    nq.Options,
		CorrectIdx: nq.CorrectIdx,
		Points:     nq.Points,
		Position:   nq.Position,
	}
	return svc.repo.CreateQuestion(ctx, q)
}

func (svc *Service) Questions(ctx context.Context, quizID string) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, quizID)
}

// Score computes the percent score of answers against questions (in position
// order). Skipped or out-of-range answers earn nothing.
func Score(questions []Question, answers []int) int {
	var total, earned int
	for i, q := range questions {
		total += q.Points
		if i < len(answers) && answers[i] == q.CorrectIdx {
			earned += q.Points
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(earned) / float64(total) * 100))
}

// Submit grades a learner's answers server-side and records the submission.
// The best score per (quiz, user) feeds the leaderboard.
func (svc *Service) Submit(ctx context.Context, quizID, userID string, req SubmitRequest) (Submission, error) {
	qz, err := svc.repo.GetQuizByID(ctx, quizID)
	if err != nil {
		return Submission{}, err
	}
	if qz.Status != StatusPublished {
		return Submission{}, ErrNotPublished
	}

	questions, err := svc.repo.QueryQuestions(ctx, quizID)
	if err != nil {
		return Submission{}, err
	}
	if len(req.Answers) != len(questions) {
		return Submission{}, core.NewValidationError(ErrAnswerCount,
			core.FieldError{Field: "answers", Error: ErrAnswerCount.Error()})
	}

	score := Score(questions, req.Answers)
	sub := Submission{
		QuizID:      quizID,
		UserID:      userID,
		Answers:     req.Answers,
		Score:       score,
		Passed:      score >= qz.PassScore,
		SubmittedAt: time.Now().UTC(),
	}
	sub, err = svc.repo.CreateSubmission(ctx, sub)
	if err != nil {
		return Submission{}, err
	}

	if svc.board != nil {
		if err := svc.board.RecordScore(ctx, quizID, userID, score); err != nil {
			svc.log.Error("quiz: recording leaderboard score failed", err)
		}
	}
	return sub, nil
}

func (svc *Service) Submissions(ctx context.Context, quizID, userID string) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, quizID, userID)
}

// Leaderboard returns the top n ranked scores for a quiz.
func (svc *Service) Leaderboard(ctx context.Context, quizID string, n int) ([]LeaderboardEntry, error) {
	if svc.board == nil {
		return nil, nil
	}
	return svc.board.Top(ctx, quizID, n)
}
