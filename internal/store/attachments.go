package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/barcut/internal/model"
)

// AddAttachment stores a file against a document and fills in its id, size
// and creation time.
func (s *Store) AddAttachment(ctx context.Context, a *model.Attachment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Size = len(a.Content)
	a.Created = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attachments (id, doctype, docname, file_name, content_type, private, content, created)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DocType, a.DocName, a.FileName, a.ContentType, a.Private, a.Content, formatTime(a.Created))
	return err
}

// ListAttachments returns the attachments of a document without their
// content, newest first.
func (s *Store) ListAttachments(ctx context.Context, doctype, docname string) ([]model.Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doctype, docname, file_name, content_type, private, length(content), created
		 FROM attachments WHERE doctype = ? AND docname = ? ORDER BY created DESC, rowid DESC`,
		doctype, docname)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Attachment{}
	for rows.Next() {
		var (
			a       model.Attachment
			created string
		)
		if err := rows.Scan(&a.ID, &a.DocType, &a.DocName, &a.FileName, &a.ContentType, &a.Private, &a.Size, &created); err != nil {
			return nil, err
		}
		a.Created = parseTime(created)
		list = append(list, a)
	}
	return list, rows.Err()
}

// GetAttachment loads one attachment including its content.
func (s *Store) GetAttachment(ctx context.Context, id string) (model.Attachment, error) {
	var (
		a       model.Attachment
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, doctype, docname, file_name, content_type, private, content, created
		 FROM attachments WHERE id = ?`, id,
	).Scan(&a.ID, &a.DocType, &a.DocName, &a.FileName, &a.ContentType, &a.Private, &a.Content, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Attachment{}, fmt.Errorf("%s: %w", id, ErrAttachmentNotFound)
	}
	if err != nil {
		return model.Attachment{}, err
	}
	a.Size = len(a.Content)
	a.Created = parseTime(created)
	return a, nil
}
