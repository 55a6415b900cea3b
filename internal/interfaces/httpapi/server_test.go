package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referent/internal/domain/entity"
)

type stubService struct {
	article     *entity.Article
	result      *entity.GenerationResult
	translation *entity.TranslationResult
	err         error

	gotURL string
	gotReq entity.TransformationRequest
	gotCtx context.Context
}

func (s *stubService) Parse(ctx context.Context, url string) (*entity.Article, error) {
	s.gotURL, s.gotCtx = url, ctx
	return s.article, s.err
}

func (s *stubService) Process(ctx context.Context, req entity.TransformationRequest) (*entity.GenerationResult, error) {
	s.gotReq, s.gotCtx = req, ctx
	return s.result, s.err
}

func (s *stubService) Translate(ctx context.Context, url string) (*entity.TranslationResult, error) {
	s.gotURL, s.gotCtx = url, ctx
	return s.translation, s.err
}

func newTestHandler(svc ArticleService) http.Handler {
	return NewHandler(svc, Options{RateLimitRPS: 100, RateLimitBurst: 100, Logger: zerolog.Nop()})
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestParse(t *testing.T) {
	svc := &stubService{article: entity.NewArticle("Title", "", "Body text")}
	rec := post(t, newTestHandler(svc), "/api/parse", `{"url":"https://example.com/a"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com/a", svc.gotURL)
	assert.JSONEq(t, `{"title":"Title","date":"Не найдено","content":"Body text"}`, rec.Body.String())
}

func TestProcess(t *testing.T) {
	svc := &stubService{result: &entity.GenerationResult{
		ActionKind: entity.ActionTheses,
		Original:   entity.Excerpt{Title: "T", Content: "C...", Date: "D"},
		Result:     "• один",
	}}
	rec := post(t, newTestHandler(svc), "/api/ai-process", `{"url":"https://example.com/a","actionKind":"theses"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.ActionTheses, svc.gotReq.ActionKind)
	assert.JSONEq(t, `{"actionKind":"theses","original":{"title":"T","content":"C...","date":"D"},"result":"• один"}`, rec.Body.String())
}

func TestProcess_AcceptsActionType(t *testing.T) {
	svc := &stubService{result: &entity.GenerationResult{ActionKind: entity.ActionTelegram}}
	rec := post(t, newTestHandler(svc), "/api/ai-process", `{"url":"https://example.com/a","actionType":"telegram"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.ActionTelegram, svc.gotReq.ActionKind)
}

func TestTranslate(t *testing.T) {
	svc := &stubService{translation: &entity.TranslationResult{
		Original:    entity.Article{Title: "T", Date: "D", Content: "Full body"},
		Translation: "Перевод",
	}}
	rec := post(t, newTestHandler(svc), "/api/translate", `{"url":"https://example.com/a"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"original":{"title":"T","date":"D","content":"Full body"},"translation":"Перевод"}`, rec.Body.String())
}

func TestErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", entity.Errorf(entity.ErrInvalidInput, "URL is required"), http.StatusBadRequest},
		{"unextractable", entity.Errorf(entity.ErrContentUnextractable, "x"), http.StatusBadRequest},
		{"too short", entity.Errorf(entity.ErrContentTooShort, "x"), http.StatusBadRequest},
		{"fetch 404", &entity.Error{Kind: entity.ErrUpstreamFetchFailed, UpstreamStatus: 404}, http.StatusNotFound},
		{"fetch 500", &entity.Error{Kind: entity.ErrUpstreamFetchFailed, UpstreamStatus: 500}, http.StatusBadRequest},
		{"fetch transport", &entity.Error{Kind: entity.ErrUpstreamFetchFailed}, http.StatusBadRequest},
		{"missing credential", entity.Errorf(entity.ErrMissingCredential, "x"), http.StatusInternalServerError},
		{"timeout", entity.Errorf(entity.ErrGenerationTimeout, "x"), http.StatusGatewayTimeout},
		{"invalid credential", &entity.Error{Kind: entity.ErrInvalidCredential, UpstreamStatus: 401}, http.StatusUnauthorized},
		{"rate limited", &entity.Error{Kind: entity.ErrRateLimited, UpstreamStatus: 429}, http.StatusTooManyRequests},
		{"unavailable", &entity.Error{Kind: entity.ErrUpstreamUnavailable, UpstreamStatus: 503}, http.StatusBadGateway},
		{"upstream 402", &entity.Error{Kind: entity.ErrUpstreamError, UpstreamStatus: 402}, http.StatusPaymentRequired},
		{"upstream 500", &entity.Error{Kind: entity.ErrUpstreamError, UpstreamStatus: 500}, http.StatusBadGateway},
		{"invalid response", entity.Errorf(entity.ErrInvalidUpstreamResponse, "x"), http.StatusInternalServerError},
		{"empty result", entity.Errorf(entity.ErrEmptyGenerationResult, "x"), http.StatusInternalServerError},
		{"unknown", entity.Errorf(entity.ErrUnknown, "x"), http.StatusInternalServerError},
		{"foreign", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestProcess_ErrorBody(t *testing.T) {
	svc := &stubService{err: entity.Errorf(entity.ErrContentTooShort, "Контент статьи слишком короткий")}
	rec := post(t, newTestHandler(svc), "/api/ai-process", `{"url":"https://example.com/a","actionKind":"summary"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Контент статьи слишком короткий", decodeBody(t, rec)["error"])
}

func TestBadRequestBody(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(svc)

	rec := post(t, h, "/api/parse", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", decodeBody(t, rec)["error"])

	rec = post(t, h, "/api/translate", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body is required", decodeBody(t, rec)["error"])

	assert.Nil(t, svc.gotCtx, "service must not be called")
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/parse", nil)
	rec := httptest.NewRecorder()
	newTestHandler(&stubService{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	newTestHandler(&stubService{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestRequestID(t *testing.T) {
	var buf bytes.Buffer
	svc := &stubService{article: entity.NewArticle("", "", "")}
	h := NewHandler(svc, Options{RateLimitRPS: 100, RateLimitBurst: 100, Logger: zerolog.New(&buf)})

	rec := post(t, h, "/api/parse", `{"url":"https://example.com/a"}`)
	id := rec.Header().Get(requestIDHeader)
	require.NotEmpty(t, id)
	assert.Contains(t, buf.String(), `"request_id":"`+id+`"`)
	assert.Contains(t, buf.String(), `"status":200`)

	// The service sees a logger carrying the same id.
	zerolog.Ctx(svc.gotCtx).Info().Msg("from service")
	assert.Contains(t, buf.String(), `"message":"from service"`)

	req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(`{"url":"x"}`))
	req.Header.Set(requestIDHeader, "given-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "given-id", rec.Header().Get(requestIDHeader))
}

func TestRateLimit(t *testing.T) {
	svc := &stubService{article: entity.NewArticle("", "", "")}
	h := NewHandler(svc, Options{RateLimitRPS: 0.001, RateLimitBurst: 2, Logger: zerolog.Nop()})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(`{"url":"https://example.com"}`))
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"), "other clients keep their own budget")

	// Health checks are not limited.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newRateLimiter(1, 1, false)
	l.now = func() time.Time { return now }

	l.allow("a")
	now = now.Add(clientIdleTTL + sweepInterval + time.Second)
	l.allow("b")

	_, kept := l.clients["a"]
	assert.False(t, kept)
	assert.Len(t, l.clients, 1)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", clientIP(req, false))
	assert.Equal(t, "192.0.2.1", clientIP(req, true))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "192.0.2.1", clientIP(req, false), "header ignored without a trusted proxy")
	assert.Equal(t, "203.0.113.7", clientIP(req, true))
}

func TestRateLimit_IgnoresForwardedForByDefault(t *testing.T) {
	svc := &stubService{article: entity.NewArticle("", "", "")}
	send := func(h http.Handler, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(`{"url":"https://example.com"}`))
		req.RemoteAddr = "10.0.0.9:4000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	direct := NewHandler(svc, Options{RateLimitRPS: 0.001, RateLimitBurst: 1, Logger: zerolog.Nop()})
	assert.Equal(t, http.StatusOK, send(direct, "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send(direct, "198.51.100.2"), "a new header value does not buy a new bucket")

	proxied := NewHandler(svc, Options{RateLimitRPS: 0.001, RateLimitBurst: 1, TrustProxy: true, Logger: zerolog.Nop()})
	assert.Equal(t, http.StatusOK, send(proxied, "198.51.100.1"))
	assert.Equal(t, http.StatusOK, send(proxied, "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, send(proxied, "198.51.100.1"))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", newTestHandler(&stubService{}), zerolog.Nop())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
