package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/models"
)

type EventRepository interface {
	Create(ctx context.Context, event *models.EventLog) (int64, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.EventLog, error)
}

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.EventLog) (int64, error) {
	query := `
		INSERT INTO event_log (user_id, scope, level, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, event.UserID, event.Scope, event.Level, event.Message).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *eventRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.EventLog, error) {
	query := `SELECT id, user_id, scope, level, message, created_at FROM event_log WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var events []*models.EventLog
	for rows.Next() {
		var e models.EventLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.Scope, &e.Level, &e.Message, &e.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
