package rest_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/trackly/trackly-api/infra/server/http/interceptors"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/handler/rest"
	"github.com/trackly/trackly-api/internal/service"
	"github.com/trackly/trackly-api/internal/service/dto"
)

type readSeekNopCloser struct{ *bytes.Reader }

func (readSeekNopCloser) Close() error { return nil }

var _ = Describe("REST API", func() {
	var (
		authSvc  *mockAuthService
		userSvc  *mockUserService
		issueSvc *mockIssueService
		fileSvc  *mockFileService
		statsSvc *mockStatsService
		router   chi.Router

		admin    model.Identity
		reporter model.Identity
	)

	const maxUpload = 16

	BeforeEach(func() {
		authSvc = &mockAuthService{}
		userSvc = &mockUserService{}
		issueSvc = &mockIssueService{}
		fileSvc = &mockFileService{}
		statsSvc = &mockStatsService{}

		admin = model.Identity{UserID: uuid.New(), Name: "Root", Role: model.RoleAdmin}
		reporter = model.Identity{UserID: uuid.New(), Name: "Rita", Role: model.RoleReporter}

		authn := tokenAuth{"admin-token": admin, "reporter-token": reporter}
		router = chi.NewRouter()
		rest.SetupRoutes(router, rest.Handlers{
			Auth:   rest.NewAuthHandler(authSvc),
			Users:  rest.NewUserHandler(userSvc),
			Issues: rest.NewIssueHandler(issueSvc),
			Files:  rest.NewFileHandler(fileSvc, maxUpload),
			Stats:  rest.NewStatsHandler(statsSvc),
			System: rest.NewSystemHandler(stubHub{stats: model.HubStats{ActiveSubscribers: 3, Published: 7}}, prometheus.NewRegistry()),
		}, interceptors.NewAuthInterceptor(authn), rest.RouterConfig{LoginRateLimit: 2})
	})

	do := func(method, target, token string, body io.Reader) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, body)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if body != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder) map[string]any {
		var out map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
		return out
	}

	Context("probes", func() {
		It("reports health without credentials", func() {
			rec := do(http.MethodGet, "/health", "", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec)).To(HaveKeyWithValue("status", "healthy"))
		})

		It("serves the welcome document", func() {
			rec := do(http.MethodGet, "/", "", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec)).To(HaveKeyWithValue("message", "Welcome to Trackly API"))
		})

		It("exposes prometheus metrics", func() {
			rec := do(http.MethodGet, "/metrics", "", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Context("auth", func() {
		It("creates an account and returns tokens", func() {
			authSvc.signupFn = func(_ context.Context, req dto.SignupRequest) (*dto.LoginResponse, error) {
				Expect(req.Email).To(Equal("new@example.com"))
				return &dto.LoginResponse{
					User:   &model.User{ID: uuid.New(), Email: req.Email, Role: model.RoleReporter},
					Tokens: dto.TokenResponse{AccessToken: "a", RefreshToken: "r", TokenType: "bearer"},
				}, nil
			}

			rec := do(http.MethodPost, "/api/auth/signup", "",
				strings.NewReader(`{"email":"new@example.com","password":"long-enough","full_name":"New"}`))
			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(decode(rec)).To(HaveKey("tokens"))
		})

		It("reports malformed JSON as a validation failure", func() {
			rec := do(http.MethodPost, "/api/auth/login", "", strings.NewReader(`{"email":`))
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
			Expect(decode(rec)).To(HaveKey("errors"))
		})

		It("passes the client text of a failed login through", func() {
			authSvc.loginFn = func(context.Context, dto.LoginRequest) (*dto.LoginResponse, error) {
				return nil, service.ErrUnauthorized
			}
			rec := do(http.MethodPost, "/api/auth/login", "", strings.NewReader(`{"email":"a@b.io","password":"x"}`))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Header().Get("WWW-Authenticate")).To(Equal("Bearer"))
		})

		It("rate limits credential attempts per client", func() {
			body := `{"email":"a@b.io","password":"x"}`
			Expect(do(http.MethodPost, "/api/auth/login", "", strings.NewReader(body)).Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodPost, "/api/auth/login", "", strings.NewReader(body)).Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodPost, "/api/auth/login", "", strings.NewReader(body)).Code).To(Equal(http.StatusTooManyRequests))
		})

		It("guards /me but not /logout", func() {
			Expect(do(http.MethodGet, "/api/auth/me", "", nil).Code).To(Equal(http.StatusUnauthorized))

			rec := do(http.MethodGet, "/api/auth/me", "reporter-token", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec)).To(HaveKeyWithValue("role", "REPORTER"))

			rec = do(http.MethodPost, "/api/auth/logout", "", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec)["message"]).To(ContainSubstring("discard your tokens"))
		})
	})

	Context("issues", func() {
		It("refuses anonymous callers", func() {
			rec := do(http.MethodGet, "/api/issues/", "", nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(decode(rec)).To(HaveKey("detail"))
		})

		It("creates an issue on behalf of the caller", func() {
			issueSvc.createFn = func(_ context.Context, actor model.Identity, in dto.IssueCreate) (*model.Issue, error) {
				Expect(actor.UserID).To(Equal(reporter.UserID))
				return model.NewIssue(in.Title, in.Description, model.IssueSeverity(in.Severity), actor.UserID, ""), nil
			}

			rec := do(http.MethodPost, "/api/issues/", "reporter-token",
				strings.NewReader(`{"title":"Crash","description":"on save","severity":"HIGH"}`))
			Expect(rec.Code).To(Equal(http.StatusCreated))
			body := decode(rec)
			Expect(body).To(HaveKeyWithValue("status", "OPEN"))
			Expect(body).To(HaveKeyWithValue("severity", "HIGH"))
		})

		It("forwards list filters and returns an empty array for no rows", func() {
			var got dto.IssueQuery
			issueSvc.listFn = func(_ context.Context, _ model.Identity, q dto.IssueQuery) ([]*model.Issue, error) {
				got = q
				return nil, nil
			}

			rec := do(http.MethodGet, "/api/issues/?status=OPEN&skip=5&limit=10", "admin-token", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(strings.TrimSpace(rec.Body.String())).To(Equal("[]"))
			Expect(got).To(Equal(dto.IssueQuery{Status: "OPEN", Skip: 5, Limit: 10}))
		})

		It("rejects a non-numeric page parameter", func() {
			rec := do(http.MethodGet, "/api/issues/?limit=ten", "admin-token", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rec)).To(HaveKeyWithValue("detail", "limit must be an integer"))
		})

		It("treats a malformed id as a missing issue", func() {
			rec := do(http.MethodGet, "/api/issues/not-a-uuid", "admin-token", nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(decode(rec)).To(HaveKeyWithValue("detail", "Issue not found"))
		})

		It("maps a permission failure to 403", func() {
			issueSvc.deleteFn = func(context.Context, model.Identity, uuid.UUID) error {
				return service.ErrForbidden
			}
			rec := do(http.MethodDelete, "/api/issues/"+uuid.NewString(), "reporter-token", nil)
			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(decode(rec)).To(HaveKeyWithValue("detail", "Not enough permissions"))
		})

		It("hides the text of unexpected failures", func() {
			issueSvc.countFn = func(context.Context, model.Identity) (int, error) {
				return 0, io.ErrUnexpectedEOF
			}
			rec := do(http.MethodGet, "/api/issues/stats/count", "admin-token", nil)
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(decode(rec)).To(HaveKeyWithValue("detail", "Internal server error"))
		})

		It("routes the static stats paths ahead of the id wildcard", func() {
			issueSvc.countByStatusFn = func(context.Context, model.Identity) (map[model.IssueStatus]int, error) {
				return map[model.IssueStatus]int{model.StatusOpen: 2}, nil
			}
			rec := do(http.MethodGet, "/api/issues/stats/by-status", "admin-token", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec)).To(HaveKey("issues_by_status"))
		})
	})

	Context("files", func() {
		multipartBody := func(field, name string, content []byte) (*bytes.Buffer, string) {
			buf := &bytes.Buffer{}
			mw := multipart.NewWriter(buf)
			fw, err := mw.CreateFormFile(field, name)
			Expect(err).NotTo(HaveOccurred())
			_, err = fw.Write(content)
			Expect(err).NotTo(HaveOccurred())
			Expect(mw.Close()).To(Succeed())
			return buf, mw.FormDataContentType()
		}

		upload := func(body io.Reader, contentType string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/api/files/upload", body)
			req.Header.Set("Authorization", "Bearer reporter-token")
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			return rec
		}

		It("streams the file part to storage", func() {
			fileSvc.uploadFn = func(_ context.Context, _ model.Identity, filename, _ string, r io.Reader) (*model.File, error) {
				data, err := io.ReadAll(r)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("stack trace"))
				return &model.File{ID: "F1234ABC", OriginalFilename: filename, Size: int64(len(data))}, nil
			}

			body, ct := multipartBody("file", "trace.txt", []byte("stack trace"))
			rec := upload(body, ct)
			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(decode(rec)).To(HaveKeyWithValue("original_filename", "trace.txt"))
		})

		It("requires a part named file", func() {
			body, ct := multipartBody("attachment", "trace.txt", []byte("x"))
			rec := upload(body, ct)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rec)).To(HaveKeyWithValue("detail", "No file selected"))
		})

		It("stops reading once the body passes the limit", func() {
			fileSvc.uploadFn = func(_ context.Context, _ model.Identity, _, _ string, r io.Reader) (*model.File, error) {
				_, err := io.Copy(io.Discard, r)
				return nil, err
			}

			body, ct := multipartBody("file", "big.bin", bytes.Repeat([]byte("a"), 2<<20))
			rec := upload(body, ct)
			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
			Expect(decode(rec)["detail"]).To(HavePrefix("File too large"))
		})

		It("downloads with the original name", func() {
			fileSvc.openFn = func(_ context.Context, id string) (*model.File, io.ReadSeekCloser, error) {
				Expect(id).To(Equal("F1234ABC"))
				return &model.File{ID: id, OriginalFilename: "trace.txt", ContentType: "text/plain", CreatedAt: time.Now()},
					readSeekNopCloser{bytes.NewReader([]byte("stack trace"))}, nil
			}

			rec := do(http.MethodGet, "/api/files/F1234ABC/download", "reporter-token", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal("stack trace"))
			Expect(rec.Header().Get("Content-Type")).To(Equal("text/plain"))
			Expect(rec.Header().Get("Content-Disposition")).To(Equal(`attachment; filename=trace.txt`))
		})

		It("reports an unknown file as 404", func() {
			rec := do(http.MethodGet, "/api/files/url/F0000000", "reporter-token", nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Context("stats", func() {
		It("returns the snapshot an aggregation pass stored", func() {
			byStatus, bySeverity := model.NewCounts()
			byStatus[model.StatusOpen] = 4
			statsSvc.triggerFn = func(context.Context, model.Identity) (*model.AggregationResult, error) {
				return &model.AggregationResult{
					Snapshot: &model.DailyStatsSnapshot{
						ID:               uuid.New(),
						Date:             time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
						CountsByStatus:   byStatus,
						CountsBySeverity: bySeverity,
						TotalIssues:      4,
					},
					Elapsed: 12 * time.Millisecond,
				}, nil
			}

			rec := do(http.MethodPost, "/api/stats/aggregate", "admin-token", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			body := decode(rec)
			Expect(body).To(HaveKeyWithValue("message", "Daily aggregation triggered successfully"))
			Expect(body).To(HaveKeyWithValue("elapsed_ms", BeNumerically("==", 12)))
			Expect(body["result"]).To(HaveKeyWithValue("date", "2025-01-10"))
			Expect(body["result"]).To(HaveKeyWithValue("status_open", BeNumerically("==", 4)))
		})

		It("forwards the caller to the scheduler status check", func() {
			statsSvc.statusFn = func(actor model.Identity) (model.JobStatus, error) {
				if actor.Role != model.RoleAdmin {
					return model.JobStatus{}, service.ErrForbidden
				}
				return model.JobStatus{ID: "daily_stats_aggregation", State: model.JobRunning}, nil
			}

			Expect(do(http.MethodGet, "/api/stats/scheduler/status", "reporter-token", nil).Code).To(Equal(http.StatusForbidden))

			rec := do(http.MethodGet, "/api/stats/scheduler/status", "admin-token", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec)).To(HaveKeyWithValue("scheduler_state", "running"))
		})

		It("reports a missing day as 404", func() {
			rec := do(http.MethodGet, "/api/stats/daily/2025-01-10", "admin-token", nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Context("event stats", func() {
		It("is admin only", func() {
			Expect(do(http.MethodGet, "/api/events/stats", "reporter-token", nil).Code).To(Equal(http.StatusForbidden))

			rec := do(http.MethodGet, "/api/events/stats", "admin-token", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec)).To(HaveKeyWithValue("active_subscribers", BeNumerically("==", 3)))
		})
	})
})
