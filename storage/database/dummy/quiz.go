package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/quiz"
)

type quizRepository struct {
	db *quizTable
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{db: db.quiz}
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz, exec ...core.DBExecutor) (quiz.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	qz.ID = uuid.New().String()
	repo.db.quizzes[qz.ID] = &qz
	return qz, nil
}

func (repo *quizRepository) QueryQuizzes(ctx context.Context, courseID, status string, exec ...core.DBExecutor) ([]quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	quizzes := make([]quiz.Quiz, 0, len(repo.db.quizzes))
	for _, qz := range repo.db.quizzes {
		if courseID != "" && qz.CourseID.String != courseID {
			continue
		}
		if status != "" && qz.Status != status {
			continue
		}
		quizzes = append(quizzes, *qz)
	}
	return quizzes, nil
}

func (repo *quizRepository) GetQuizByID(ctx context.Context, id string, exec ...core.DBExecutor) (quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if qz, ok := repo.db.quizzes[id]; ok {
		return *qz, nil
	}
	return quiz.Quiz{}, quiz.ErrNotFound
}

func (repo *quizRepository) UpdateQuiz(ctx context.Context, qz quiz.Quiz, exec ...core.DBExecutor) (quiz.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.quizzes[qz.ID]
	if !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	if qz.Title != "" {
		orig.Title = qz.Title
	}
	orig.PassScore = qz.PassScore
	orig.TimeLimit = qz.TimeLimit
	if qz.Status != "" {
		orig.Status = qz.Status
	}
	orig.UpdatedAt = qz.UpdatedAt

	return *orig, nil
}

func (repo *quizRepository) DeleteQuizzesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.quizzes[id]; ok {
			delete(repo.db.quizzes, id)
			n++
		}
	}
	return n, nil
}

func (repo *quizRepository) CreateQuestion(ctx context.Context, q quiz.Question, exec ...core.DBExecutor) (quiz.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	q.ID = uuid.New().String()
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *quizRepository) QueryQuestions(ctx context.Context, quizID string, exec ...core.DBExecutor) ([]quiz.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var questions []quiz.Question
	for _, q := range repo.db.questions {
		if q.QuizID == quizID {
			questions = append(questions, *q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Position < questions[j].Position })
	return questions, nil
}

func (repo *quizRepository) CreateSubmission(ctx context.Context, sub quiz.Submission, exec ...core.DBExecutor) (quiz.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub.ID = uuid.New().String()
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *quizRepository) QuerySubmissions(ctx context.Context, quizID, userID string, exec ...core.DBExecutor) ([]quiz.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var subs []quiz.Submission
	for _, sub := range repo.db.submissions {
		if sub.QuizID != quizID {
			continue
		}
		if userID != "" && sub.UserID != userID {
			continue
		}
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}
