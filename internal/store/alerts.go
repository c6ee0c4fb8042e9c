package store

import (
	"context"
	"time"

	"github.com/piwi3910/barcut/internal/model"
)

// AddAlert stores a notification for a user.
func (s *Store) AddAlert(ctx context.Context, user, message string) (model.Alert, error) {
	a := model.Alert{User: user, Message: message, Created: time.Now().UTC()}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (user, message, created) VALUES (?, ?, ?)`,
		user, message, formatTime(a.Created))
	if err != nil {
		return model.Alert{}, err
	}
	a.ID, err = res.LastInsertId()
	return a, err
}

// ListAlerts returns a user's notifications, newest first.
func (s *Store) ListAlerts(ctx context.Context, user string) ([]model.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user, message, created FROM alerts WHERE user = ? ORDER BY id DESC`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := []model.Alert{}
	for rows.Next() {
		var (
			a       model.Alert
			created string
		)
		if err := rows.Scan(&a.ID, &a.User, &a.Message, &created); err != nil {
			return nil, err
		}
		a.Created = parseTime(created)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
