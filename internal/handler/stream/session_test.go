package stream_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/trackly/trackly-api/internal/domain/event"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/domain/registry"
	"github.com/trackly/trackly-api/internal/handler/stream"
	"github.com/trackly/trackly-api/internal/service"
)

var errBroken = errors.New("broken pipe")

type chanSink struct {
	frames chan []byte
	fail   atomic.Bool
}

func newChanSink() *chanSink {
	return &chanSink{frames: make(chan []byte, 64)}
}

func (s *chanSink) Send(frame []byte) error {
	if s.fail.Load() {
		return errBroken
	}
	s.frames <- append([]byte(nil), frame...)
	return nil
}

func (s *chanSink) Flush() error { return nil }

// next returns the type and body of the next frame.
func (s *chanSink) next() (string, map[string]any) {
	var frame []byte
	Eventually(s.frames).WithTimeout(2 * time.Second).Should(Receive(&frame))

	var body map[string]any
	ExpectWithOffset(1, json.Unmarshal(frame, &body)).To(Succeed())
	kind, _ := body["type"].(string)
	return kind, body
}

type authFunc func(ctx context.Context, token string) (model.Identity, error)

func (f authFunc) Authenticate(ctx context.Context, token string) (model.Identity, error) {
	return f(ctx, token)
}

func created(creator uuid.UUID) *event.IssueEvent {
	issue := model.NewIssue("Crash on save", "steps", model.SeverityHigh, creator, "")
	return event.NewIssueCreated(*issue, model.Identity{UserID: creator, Name: "author", Role: model.RoleReporter})
}

var _ = Describe("Session", func() {
	var (
		hub     *registry.Hub
		sink    *chanSink
		ctx     context.Context
		cancel  context.CancelFunc
		done    chan error
		logger  *slog.Logger
		session *stream.Session
	)

	start := func(identity model.Identity) {
		go func() { done <- session.Run(ctx, identity, sink) }()
	}

	BeforeEach(func() {
		hub = registry.NewHub()
		sink = newChanSink()
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		session = stream.NewSession(service.NewDeliveryService(hub), time.Minute, logger)
	})

	AfterEach(func() {
		cancel()
		Eventually(hub.ActiveCount).Should(BeZero())
	})

	It("acknowledges the connection with the caller's role", func() {
		me := model.Identity{UserID: uuid.New(), Role: model.RoleMaintainer}
		start(me)

		kind, body := sink.next()
		Expect(kind).To(Equal("connected"))
		data := body["data"].(map[string]any)
		Expect(data["role"]).To(Equal("MAINTAINER"))
		Expect(data["user_id"]).To(Equal(me.UserID.String()))
		Expect(hub.ActiveCount()).To(Equal(1))
	})

	It("forwards only the events a reporter may see", func() {
		me := model.Identity{UserID: uuid.New(), Role: model.RoleReporter}
		start(me)
		kind, _ := sink.next()
		Expect(kind).To(Equal("connected"))

		hub.Publish(created(uuid.New()))
		own := created(me.UserID)
		hub.Publish(own)

		kind, body := sink.next()
		Expect(kind).To(Equal("issue_created"))
		Expect(body["issue_id"]).To(Equal(own.GetIssueID().String()))
		Consistently(sink.frames, 50*time.Millisecond).ShouldNot(Receive())
	})

	It("sends a heartbeat after an idle window", func() {
		session = stream.NewSession(service.NewDeliveryService(hub), 20*time.Millisecond, logger)
		start(model.Identity{UserID: uuid.New(), Role: model.RoleAdmin})

		kind, _ := sink.next()
		Expect(kind).To(Equal("connected"))

		kind, body := sink.next()
		Expect(kind).To(Equal("heartbeat"))
		Expect(body["timestamp"]).NotTo(BeEmpty())
	})

	It("releases the subscriber when the client goes away", func() {
		start(model.Identity{UserID: uuid.New(), Role: model.RoleAdmin})
		sink.next()
		Expect(hub.ActiveCount()).To(Equal(1))

		cancel()

		Eventually(done).Should(Receive(BeNil()))
		Expect(hub.ActiveCount()).To(BeZero())
	})

	It("ends the session on a failed write and still releases the subscriber", func() {
		start(model.Identity{UserID: uuid.New(), Role: model.RoleAdmin})
		sink.next()

		sink.fail.Store(true)
		hub.Publish(created(uuid.New()))

		Eventually(done).Should(Receive(MatchError(errBroken)))
		Expect(hub.ActiveCount()).To(BeZero())
	})

	It("says goodbye when the hub shuts down", func() {
		start(model.Identity{UserID: uuid.New(), Role: model.RoleAdmin})
		sink.next()

		hub.Shutdown()

		kind, body := sink.next()
		Expect(kind).To(Equal("disconnected"))
		Expect(body["data"].(map[string]any)["code"]).To(Equal(registry.ReasonShutdown))

		var err error
		Eventually(done).Should(Receive(&err))
		Expect(err).To(MatchError(stream.ErrClosedByServer))
	})
})

var _ = Describe("Credential", func() {
	It("prefers the token query parameter", func() {
		r := httptest.NewRequest(http.MethodGet, "/api/events/stream?token=from-query", nil)
		r.Header.Set("Authorization", "Bearer from-header")
		Expect(stream.Credential(r)).To(Equal("from-query"))
	})

	It("falls back to a bearer header", func() {
		r := httptest.NewRequest(http.MethodGet, "/api/events/stream", nil)
		r.Header.Set("Authorization", "bearer abc")
		Expect(stream.Credential(r)).To(Equal("abc"))
	})

	It("ignores other schemes", func() {
		r := httptest.NewRequest(http.MethodGet, "/api/events/stream", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		Expect(stream.Credential(r)).To(BeEmpty())
	})
})

var _ = Describe("Authorize", func() {
	It("writes 401 before anything else when the token is rejected", func() {
		authn := authFunc(func(context.Context, string) (model.Identity, error) {
			return model.Identity{}, service.ErrUnauthorized
		})
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/events/stream?token=bad", nil)

		_, ok := stream.Authorize(w, r, authn)

		Expect(ok).To(BeFalse())
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring(`"detail"`))
	})

	It("passes the credential through", func() {
		var seen string
		me := model.Identity{UserID: uuid.New(), Role: model.RoleReporter}
		authn := authFunc(func(_ context.Context, token string) (model.Identity, error) {
			seen = token
			return me, nil
		})
		r := httptest.NewRequest(http.MethodGet, "/api/events/stream?token=good", nil)

		got, ok := stream.Authorize(httptest.NewRecorder(), r, authn)

		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(me))
		Expect(seen).To(Equal("good"))
	})
})
