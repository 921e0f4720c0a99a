package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/notification"
)

type notificationRepository struct {
	exec core.DBExecutor
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(exec core.DBExecutor) *notificationRepository {
	return &notificationRepository{exec: exec}
}

type notificationRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Kind      string    `db:"kind"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	ReadAt    null.Time `db:"read_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (r notificationRow) domain() notification.Notification {
	return notification.Notification(r)
}

func (repo notificationRepository) CreateNotification(ctx context.Context, n notification.Notification, exec ...core.DBExecutor) (notification.Notification, error) {
	n.ID = uuid.New().String()
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, body, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.Kind, n.Title, n.Body, n.ReadAt, n.CreatedAt.UTC(),
	)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo notificationRepository) QueryNotifications(ctx context.Context, userID string, unreadOnly bool, exec ...core.DBExecutor) ([]notification.Notification, error) {
	q := `SELECT * FROM notifications WHERE user_id = $1`
	if unreadOnly {
		q += ` AND read_at IS NULL`
	}
	q += ` ORDER BY created_at DESC`

	var rows []notificationRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, row.domain())
	}
	return notifs, nil
}

func (repo notificationRepository) GetNotificationByID(ctx context.Context, id string, exec ...core.DBExecutor) (notification.Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return notification.Notification{}, notification.ErrNotFound
	}
	var row notificationRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, `SELECT * FROM notifications WHERE id = $1`, id); err != nil {
		return notification.Notification{}, trapNoRowsErr(err, notification.ErrNotFound, "finding notification by ID")
	}
	return row.domain(), nil
}

func (repo notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification, exec ...core.DBExecutor) (notification.Notification, error) {
	var row notificationRow
	err := getExec(repo.exec, exec).GetContext(ctx, &row, `
		UPDATE notifications SET read_at = $2 WHERE id = $1 RETURNING *`,
		n.ID, n.ReadAt,
	)
	if err != nil {
		return notification.Notification{}, trapNoRowsErr(err, notification.ErrNotFound, "updating notification")
	}
	return row.domain(), nil
}
