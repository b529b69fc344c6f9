package rest

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trackly/trackly-api/internal/handler/marshaller"
	"github.com/trackly/trackly-api/internal/service"
)

// multipartSlack covers boundaries and part headers on top of the file itself.
const multipartSlack = 1 << 20

type FileHandler struct {
	fileService FileService
	maxSize     int64
}

func NewFileHandler(fileService FileService, maxSize int64) *FileHandler {
	return &FileHandler{fileService: fileService, maxSize: maxSize}
}

// Upload streams the "file" part of a multipart form into storage without
// buffering the whole body.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartSlack)
	mr, err := r.MultipartReader()
	if err != nil {
		fail(w, r, fmt.Errorf("%w: Expected a multipart/form-data body", service.ErrInvalidInput))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			fail(w, r, fmt.Errorf("%w: No file selected", service.ErrInvalidInput))
			return
		}
		if err != nil {
			fail(w, r, h.bodyError(err))
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		contentType := part.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		f, err := h.fileService.Upload(r.Context(), me, part.FileName(), contentType, part)
		_ = part.Close()
		if err != nil {
			fail(w, r, h.bodyError(err))
			return
		}
		marshaller.JSON(w, http.StatusCreated, f)
		return
	}
}

// bodyError turns a tripped MaxBytesReader into the same 413 the storage
// limit produces.
func (h *FileHandler) bodyError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return fmt.Errorf("%w: File too large. Maximum size is %dMB", service.ErrTooLarge, h.maxSize>>20)
	}
	return err
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := page(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	list, err := h.fileService.List(r.Context(), skip, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, list)
}

func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.fileService.Get(r.Context(), chi.URLParam(r, "file_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, f)
}

func (h *FileHandler) URL(w http.ResponseWriter, r *http.Request) {
	f, err := h.fileService.Get(r.Context(), chi.URLParam(r, "file_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, map[string]string{"file_id": f.ID, "file_url": f.URL})
}

// Download serves the content with range and conditional request support.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	f, content, err := h.fileService.Open(r.Context(), chi.URLParam(r, "file_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": f.OriginalFilename}))
	http.ServeContent(w, r, f.OriginalFilename, f.CreatedAt, content)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := h.fileService.Delete(r.Context(), me, chi.URLParam(r, "file_id")); err != nil {
		fail(w, r, err)
		return
	}
	ok(w, message{Message: "File deleted successfully"})
}

func (h *FileHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.fileService.Count(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, map[string]int{"total_files": n})
}
