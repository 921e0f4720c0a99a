package quiz_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reema362/avocop/core/quiz"
	logsvc "github.com/Reema362/avocop/services/logger"
	"github.com/Reema362/avocop/storage/cache"
	dummydb "github.com/Reema362/avocop/storage/database/dummy"
)

func newTestService(t *testing.T) *quiz.Service {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	return quiz.NewService(dummydb.NewQuizRepository(db), cache.NewDummyLeaderboard(), logger)
}

func createPublishedQuiz(t *testing.T, svc *quiz.Service, passScore int) quiz.Quiz {
	t.Helper()
	ctx := context.Background()

	qz, err := svc.Create(ctx, quiz.NewQuiz{Title: "Phishing basics", PassScore: passScore})
	require.NoError(t, err)

	_, err = svc.AddQuestion(ctx, qz.ID, quiz.NewQuestion{
		Text: "What should you do with a suspicious link?", Options: []string{"Click it", "Report it"},
		CorrectIdx: 1, Points: 2, Position: 0,
	})
	require.NoError(t, err)
	_, err = svc.AddQuestion(ctx, qz.ID, quiz.NewQuestion{
		Text: "Is MFA optional?", Options: []string{"Yes", "No"},
		CorrectIdx: 1, Points: 1, Position: 1,
	})
	require.NoError(t, err)
	_, err = svc.AddQuestion(ctx, qz.ID, quiz.NewQuestion{
		Text: "Who can you share your password with?", Options: []string{"Nobody", "IT staff"},
		CorrectIdx: 0, Points: 1, Position: 2,
	})
	require.NoError(t, err)

	qz, err = svc.Publish(ctx, qz.ID)
	require.NoError(t, err)
	return qz
}

func TestScore(t *testing.T) {
	questions := []quiz.Question{
		{CorrectIdx: 1, Points: 2},
		{CorrectIdx: 0, Points: 1},
		{CorrectIdx: 2, Points: 1},
	}
	tests := []struct {
		name    string
		answers []int
		want    int
	}{
		{"all correct", []int{1, 0, 2}, 100},
		{"all wrong", []int{0, 1, 0}, 0},
		{"weighted partial", []int{1, 1, 1}, 50},
		{"skipped answers earn nothing", []int{1, -1, -1}, 50},
		{"short answer list", []int{1}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quiz.Score(questions, tt.answers))
		})
	}
}

func TestScore_noQuestions(t *testing.T) {
	assert.Equal(t, 0, quiz.Score(nil, nil))
}

func TestSubmit_gradesServerSide(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	qz := createPublishedQuiz(t, svc, 70)

	sub, err := svc.Submit(ctx, qz.ID, "usr1", quiz.SubmitRequest{Answers: []int{1, 1, 0}})
	require.NoError(t, err)
	assert.Equal(t, 100, sub.Score)
	assert.True(t, sub.Passed)

	sub, err = svc.Submit(ctx, qz.ID, "usr2", quiz.SubmitRequest{Answers: []int{1, 0, 1}})
	require.NoError(t, err)
	assert.Equal(t, 50, sub.Score)
	assert.False(t, sub.Passed)
}

func TestSubmit_rejectsDraftQuiz(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	qz, err := svc.Create(ctx, quiz.NewQuiz{Title: "Drafty"})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, qz.ID, "usr1", quiz.SubmitRequest{Answers: []int{}})
	assert.ErrorIs(t, err, quiz.ErrNotPublished)
}

func TestSubmit_rejectsAnswerCountMismatch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	qz := createPublishedQuiz(t, svc, 70)

	_, err := svc.Submit(ctx, qz.ID, "usr1", quiz.SubmitRequest{Answers: []int{1}})
	assert.Error(t, err)
}

func TestLeaderboard_bestScoreWins(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	qz := createPublishedQuiz(t, svc, 70)

	// usr1 submits twice; only the best attempt counts
	_, err := svc.Submit(ctx, qz.ID, "usr1", quiz.SubmitRequest{Answers: []int{1, 1, 0}}) // 100
	require.NoError(t, err)
	_, err = svc.Submit(ctx, qz.ID, "usr1", quiz.SubmitRequest{Answers: []int{0, 0, 0}}) // 25
	require.NoError(t, err)

	_, err = svc.Submit(ctx, qz.ID, "usr2", quiz.SubmitRequest{Answers: []int{1, 0, 1}}) // 50
	require.NoError(t, err)

	entries, err := svc.Leaderboard(ctx, qz.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, quiz.LeaderboardEntry{UserID: "usr1", Score: 100, Rank: 1}, entries[0])
	assert.Equal(t, quiz.LeaderboardEntry{UserID: "usr2", Score: 50, Rank: 2}, entries[1])

	// attempts are all kept
	subs, err := svc.Submissions(ctx, qz.ID, "usr1")
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}
