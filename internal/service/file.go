package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/infra/blob"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/domain/policy"
	"github.com/trackly/trackly-api/internal/service/dto"
	"github.com/trackly/trackly-api/internal/store"
)

const (
	fileIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	fileIDLength   = 7
	fileIDAttempts = 5
)

type FileService struct {
	files   store.FileStore
	blobs   *blob.Store
	baseURL string
	logger  *slog.Logger
}

func NewFileService(files store.FileStore, blobs *blob.Store, baseURL string, logger *slog.Logger) *FileService {
	return &FileService{
		files:   files,
		blobs:   blobs,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Upload stores the content under a fresh file id and records its metadata.
func (s *FileService) Upload(ctx context.Context, actor model.Identity, filename, contentType string, r io.Reader) (*model.File, error) {
	filename = path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if filename == "" || filename == "." || filename == "/" {
		return nil, invalidf("No file selected")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id, err := newFileID()
	if err != nil {
		return nil, err
	}

	size, err := s.blobs.Put(id, r)
	if err != nil {
		if errors.Is(err, blob.ErrTooLarge) {
			return nil, fmt.Errorf("%w: File too large. Maximum size is %dMB", ErrTooLarge, s.blobs.MaxSize()>>20)
		}
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}

	f := &model.File{
		OriginalFilename: filename,
		Size:             size,
		ContentType:      contentType,
		UploadedBy:       actor.UserID,
		Status:           model.FileActive,
		CreatedAt:        time.Now().UTC(),
	}
	for attempt := 0; ; attempt++ {
		f.ID = id
		f.URL = s.baseURL + "/" + id + "/download"

		err = s.files.Create(ctx, f)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrDuplicate) || attempt == fileIDAttempts {
			_ = s.blobs.Delete(id)
			return nil, fromStore(err, "File")
		}

		// The blob was written under an id that is already taken by metadata.
		next, idErr := newFileID()
		if idErr != nil {
			return nil, idErr
		}
		if err := s.rename(id, next); err != nil {
			return nil, err
		}
		id = next
	}

	s.logger.Info("[FILES] uploaded",
		slog.String("file_id", f.ID),
		slog.Int64("size", f.Size),
		slog.String("uploaded_by", actor.UserID.String()),
	)
	return f, nil
}

func (s *FileService) List(ctx context.Context, skip, limit int) (*dto.FileList, error) {
	skip, limit, err := window(skip, limit)
	if err != nil {
		return nil, err
	}
	files, err := s.files.List(ctx, uuid.Nil, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	total, err := s.files.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	if files == nil {
		files = []*model.File{}
	}
	return &dto.FileList{Files: files, Total: total, Skip: skip, Limit: limit}, nil
}

func (s *FileService) Count(ctx context.Context) (int, error) {
	return s.files.Count(ctx)
}

func (s *FileService) Get(ctx context.Context, id string) (*model.File, error) {
	f, err := s.files.Get(ctx, id)
	if err != nil {
		return nil, fromStore(err, "File")
	}
	return f, nil
}

// Open returns the metadata and a reader over the content. The caller closes the reader.
func (s *FileService) Open(ctx context.Context, id string) (*model.File, io.ReadSeekCloser, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(id)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: File content not found", ErrNotFound)
		}
		return nil, nil, err
	}
	return f, rc, nil
}

// Delete hides the file and removes its content. Only the uploader or an admin may do it.
func (s *FileService) Delete(ctx context.Context, actor model.Identity, id string) error {
	f, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanManageFile(actor, f.UploadedBy) {
		return ErrForbidden
	}
	if err := s.files.Delete(ctx, id); err != nil {
		return fromStore(err, "File")
	}
	if err := s.blobs.Delete(id); err != nil {
		s.logger.Warn("[FILES] content not removed", slog.String("file_id", id), slog.Any("err", err))
	}
	return nil
}

func (s *FileService) rename(from, to string) error {
	src, err := s.blobs.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()
	if _, err := s.blobs.Put(to, src); err != nil {
		return err
	}
	return s.blobs.Delete(from)
}

// newFileID returns "F" followed by random upper-case letters and digits.
func newFileID() (string, error) {
	buf := make([]byte, fileIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("file id: %w", err)
	}
	var b strings.Builder
	b.Grow(fileIDLength + 1)
	b.WriteByte('F')
	for _, c := range buf {
		b.WriteByte(fileIDAlphabet[int(c)%len(fileIDAlphabet)])
	}
	return b.String(), nil
}
