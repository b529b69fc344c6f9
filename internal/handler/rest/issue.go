package rest

import (
	"net/http"

	"github.com/trackly/trackly-api/internal/handler/marshaller"
	"github.com/trackly/trackly-api/internal/service/dto"
)

type IssueHandler struct {
	issueService IssueService
}

func NewIssueHandler(issueService IssueService) *IssueHandler {
	return &IssueHandler{issueService: issueService}
}

func (h *IssueHandler) Create(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req dto.IssueCreate
	if err := marshaller.Decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	issue, err := h.issueService.Create(r.Context(), me, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	marshaller.JSON(w, http.StatusCreated, issue)
}

func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	skip, limit, err := page(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	issues, err := h.issueService.List(r.Context(), me, dto.IssueQuery{
		Status: r.URL.Query().Get("status"),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, list(issues))
}

func (h *IssueHandler) Get(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := pathUUID(r, "issue_id", "Issue")
	if err != nil {
		fail(w, r, err)
		return
	}

	issue, err := h.issueService.Get(r.Context(), me, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, issue)
}

func (h *IssueHandler) Update(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := pathUUID(r, "issue_id", "Issue")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req dto.IssueUpdate
	if err := marshaller.Decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	issue, err := h.issueService.Update(r.Context(), me, id, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, issue)
}

func (h *IssueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := pathUUID(r, "issue_id", "Issue")
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := h.issueService.Delete(r.Context(), me, id); err != nil {
		fail(w, r, err)
		return
	}
	ok(w, message{Message: "Issue deleted successfully"})
}

func (h *IssueHandler) ListByCreator(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	creator, err := pathUUID(r, "user_id", "User")
	if err != nil {
		fail(w, r, err)
		return
	}
	skip, limit, err := page(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	issues, err := h.issueService.ListByCreator(r.Context(), me, creator, skip, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, list(issues))
}

func (h *IssueHandler) Count(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	n, err := h.issueService.Count(r.Context(), me)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, map[string]int{"total_issues": n})
}

func (h *IssueHandler) CountByStatus(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	counts, err := h.issueService.CountByStatus(r.Context(), me)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, map[string]any{"issues_by_status": counts})
}

func (h *IssueHandler) CountBySeverity(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	counts, err := h.issueService.CountBySeverity(r.Context(), me)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, map[string]any{"issues_by_severity": counts})
}
