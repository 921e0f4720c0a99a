package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification, exec ...core.DBExecutor) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = uuid.New().String()
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, userID string, unreadOnly bool, exec ...core.DBExecutor) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var notifs []notification.Notification
	for _, n := range repo.db.table {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.ReadAt.Valid {
			continue
		}
		notifs = append(notifs, *n)
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })
	return notifs, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string, exec ...core.DBExecutor) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification, exec ...core.DBExecutor) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[n.ID]
	if !ok {
		return notification.Notification{}, notification.ErrNotFound
	}
	orig.ReadAt = n.ReadAt

	return *orig, nil
}
