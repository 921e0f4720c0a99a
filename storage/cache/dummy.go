package cache

import (
	"context"
	"sort"
	"sync"

	"github.com/Reema362/avocop/core/quiz"
)

// dummyLeaderboard is an in-memory stand-in for tests and local development
// without Redis.
type dummyLeaderboard struct {
	mu     sync.RWMutex
	scores map[string]map[string]int // quizID -> userID -> best score
}

var _ quiz.Leaderboard = (*dummyLeaderboard)(nil)

func NewDummyLeaderboard() quiz.Leaderboard {
	return &dummyLeaderboard{scores: make(map[string]map[string]int)}
}

func (lb *dummyLeaderboard) RecordScore(ctx context.Context, quizID, userID string, score int) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	board, ok := lb.scores[quizID]
	if !ok {
		board = make(map[string]int)
		lb.scores[quizID] = board
	}
	if best, ok := board[userID]; !ok || score > best {
		board[userID] = score
	}
	return nil
}

func (lb *dummyLeaderboard) Top(ctx context.Context, quizID string, n int) ([]quiz.LeaderboardEntry, error) {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	if n <= 0 {
		n = 10
	}
	entries := make([]quiz.LeaderboardEntry, 0, len(lb.scores[quizID]))
	for uid, score := range lb.scores[quizID] {
		entries = append(entries, quiz.LeaderboardEntry{UserID: uid, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
