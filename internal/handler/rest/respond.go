package rest

import (
	"log/slog"
	"net/http"

	"github.com/trackly/trackly-api/internal/handler/marshaller"
)

// fail writes err as a {"detail": ...} response. Only server faults are
// logged; client errors are already visible in the access log.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := marshaller.Describe(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "[HTTP] request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
	}
	marshaller.Error(w, err)
}

func ok(w http.ResponseWriter, v any) {
	marshaller.JSON(w, http.StatusOK, v)
}

// list keeps empty collections as [] instead of null.
func list[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
