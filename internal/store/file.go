package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/infra/db"
	"github.com/trackly/trackly-api/internal/domain/model"
)

var _ FileStore = (*Files)(nil)

const fileColumns = `id, original_filename, file_size, content_type, file_url, uploaded_by, status, created_at`

type Files struct {
	db *db.DB
}

func NewFiles(conn *db.DB) *Files {
	return &Files{db: conn}
}

func (s *Files) Create(ctx context.Context, f *model.File) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO files (`+fileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		f.ID, f.OriginalFilename, f.Size, f.ContentType, f.URL, f.UploadedBy, string(f.Status), f.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create file: %w", db.Classify(err))
	}
	return nil
}

func (s *Files) Get(ctx context.Context, id string) (*model.File, error) {
	f, err := scanFile(s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT `+fileColumns+` FROM files WHERE id = ? AND status = ?`), id, string(model.FileActive)))
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", id, db.Classify(err))
	}
	return f, nil
}

// List returns active files, optionally only those uploaded by one user.
func (s *Files) List(ctx context.Context, uploadedBy uuid.UUID, limit, offset int) ([]*model.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE status = ?`
	args := []any{string(model.FileActive)}
	if uploadedBy != uuid.Nil {
		query += ` AND uploaded_by = ?`
		args = append(args, uploadedBy)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []*model.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Count returns the number of active files.
func (s *Files) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT COUNT(*) FROM files WHERE status = ?`), string(model.FileActive)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

// Delete marks the file as deleted; the metadata row is kept for audit.
func (s *Files) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE files SET status = ? WHERE id = ? AND status = ?`),
		string(model.FileDeleted), id, string(model.FileActive))
	if err != nil {
		return fmt.Errorf("delete file %s: %w", id, err)
	}
	return expectOne(res, "delete file", id)
}

func scanFile(r rowScanner) (*model.File, error) {
	var (
		f      model.File
		status string
	)
	if err := r.Scan(&f.ID, &f.OriginalFilename, &f.Size, &f.ContentType, &f.URL, &f.UploadedBy, &status, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Status = model.FileStatus(status)
	return &f, nil
}
