package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/custodia-labs/sercha-ingest/docs"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-ingest/internal/runtime"
)

// Mock services for testing

type mockAuthService struct {
	authenticateFn  func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	validateTokenFn func(ctx context.Context, token string) (*domain.AuthContext, error)
	refreshTokenFn  func(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResponse, error)
	logoutFn        func(ctx context.Context, token string) error
}

func (m *mockAuthService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) RefreshToken(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResponse, error) {
	if m.refreshTokenFn != nil {
		return m.refreshTokenFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

func (m *mockAuthService) LogoutAll(ctx context.Context, userID string) error {
	return nil
}

type mockUserService struct {
	registerFn func(ctx context.Context, req domain.RegistrationRequest) (*domain.User, error)
	getFn      func(ctx context.Context, id string) (*domain.User, error)
}

func (m *mockUserService) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

type mockIngestService struct {
	ingestFn func(ctx context.Context, callerID string, req domain.IngestRequest) (*domain.IngestResult, error)
}

func (m *mockIngestService) Ingest(ctx context.Context, callerID string, req domain.IngestRequest) (*domain.IngestResult, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, callerID, req)
	}
	return nil, errors.New("not implemented")
}

type mockSearchService struct {
	searchFn     func(ctx context.Context, callerID, query string, limit int) ([]domain.ScoredPoint, error)
	listPointsFn func(ctx context.Context, callerID string, limit int) ([]domain.Point, error)
}

func (m *mockSearchService) Search(ctx context.Context, callerID, query string, limit int) ([]domain.ScoredPoint, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, callerID, query, limit)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSearchService) ListPoints(ctx context.Context, callerID string, limit int) ([]domain.Point, error) {
	if m.listPointsFn != nil {
		return m.listPointsFn(ctx, callerID, limit)
	}
	return nil, errors.New("not implemented")
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

// Helpers

func withAuth(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), authContextKey, &domain.AuthContext{UserID: userID, Username: userID})
	return r.WithContext(ctx)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func multipartBody(t *testing.T, text, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if text != "" {
		if err := mw.WriteField("text", text); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return body, mw.FormDataContentType()
}

// Health endpoints

func TestHandleHealth(t *testing.T) {
	services := runtime.NewServices(domain.NewRuntimeConfig("redis", "qdrant"))
	store := mocks.NewMockVectorStore()
	store.SetHealthError(errors.New("down"))
	services.SetVectorStore(store)
	services.SetEmbeddingService(mocks.NewMockEmbeddingService())

	server := &Server{services: services}

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	server.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp HealthResponse
	decodeBody(t, rr, &resp)
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %s", resp.Status)
	}
	if resp.Components["embedding"] != "healthy" {
		t.Errorf("expected healthy embedding, got %q", resp.Components["embedding"])
	}
	if resp.Components["vector_store"] != "unhealthy" {
		t.Errorf("expected unhealthy vector store, got %q", resp.Components["vector_store"])
	}
}

func TestHandleReady(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		redis    Pinger
		expected int
	}{
		{"no dependencies", nil, nil, http.StatusOK},
		{"all healthy", &mockPinger{}, &mockPinger{}, http.StatusOK},
		{"database down", &mockPinger{err: errors.New("refused")}, &mockPinger{}, http.StatusServiceUnavailable},
		{"redis down", &mockPinger{}, &mockPinger{err: errors.New("refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &Server{db: tt.db, redisClient: tt.redis}

			rr := httptest.NewRecorder()
			server.handleReady(rr, httptest.NewRequest("GET", "/ready", nil))

			if rr.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, rr.Code)
			}
		})
	}
}

func TestHandleVersion(t *testing.T) {
	server := &Server{version: "1.2.3"}

	rr := httptest.NewRecorder()
	server.handleVersion(rr, httptest.NewRequest("GET", "/version", nil))

	var resp VersionResponse
	decodeBody(t, rr, &resp)
	if resp.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %s", resp.Version)
	}
}

func TestHandleSwaggerDoc(t *testing.T) {
	server := &Server{}

	rr := httptest.NewRecorder()
	server.handleSwaggerDoc(rr, httptest.NewRequest("GET", "/swagger/doc.json", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var doc map[string]interface{}
	decodeBody(t, rr, &doc)
	paths, ok := doc["paths"].(map[string]interface{})
	if !ok {
		t.Fatal("expected paths in document")
	}
	if _, ok := paths["/embedding/add-embedding"]; !ok {
		t.Error("expected add-embedding path in document")
	}
}

// Auth endpoints

func TestHandleRegistration_Success(t *testing.T) {
	var got domain.RegistrationRequest
	server := &Server{userService: &mockUserService{
		registerFn: func(ctx context.Context, req domain.RegistrationRequest) (*domain.User, error) {
			got = req
			return &domain.User{ID: "u1", Username: req.Username}, nil
		},
	}}

	body, _ := json.Marshal(domain.RegistrationRequest{
		Username: "jdoe_42", Email: "jdoe@example.com", Password: "Str0ngPassw0rd", Password1: "Str0ngPassw0rd",
	})
	rr := httptest.NewRecorder()
	server.handleRegistration(rr, httptest.NewRequest("POST", "/api/v1/auth/registration", bytes.NewBuffer(body)))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	var resp map[string]string
	decodeBody(t, rr, &resp)
	if resp["message"] != "Registration successfully completed" {
		t.Errorf("unexpected message %q", resp["message"])
	}
	if got.Username != "jdoe_42" || got.Password1 != "Str0ngPassw0rd" {
		t.Errorf("request not passed through: %+v", got)
	}
}

func TestHandleRegistration_Errors(t *testing.T) {
	validation := domain.NewValidationError()
	validation.Add("password", "too common")

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", validation, http.StatusBadRequest},
		{"duplicate", fmt.Errorf("username: %w", domain.ErrAlreadyExists), http.StatusConflict},
		{"internal", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &Server{userService: &mockUserService{
				registerFn: func(ctx context.Context, req domain.RegistrationRequest) (*domain.User, error) {
					return nil, tt.err
				},
			}}

			rr := httptest.NewRecorder()
			server.handleRegistration(rr, httptest.NewRequest("POST", "/api/v1/auth/registration", strings.NewReader(`{}`)))

			if rr.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, rr.Code)
			}
		})
	}
}

func TestHandleRegistration_ValidationFields(t *testing.T) {
	validation := domain.NewValidationError()
	validation.Add("email", "invalid format")
	server := &Server{userService: &mockUserService{
		registerFn: func(ctx context.Context, req domain.RegistrationRequest) (*domain.User, error) {
			return nil, validation
		},
	}}

	rr := httptest.NewRecorder()
	server.handleRegistration(rr, httptest.NewRequest("POST", "/api/v1/auth/registration", strings.NewReader(`{}`)))

	var resp ValidationErrorResponse
	decodeBody(t, rr, &resp)
	if resp.Fields["email"] != "invalid format" {
		t.Errorf("expected email field error, got %+v", resp.Fields)
	}
}

func TestHandleRegistration_InvalidBody(t *testing.T) {
	server := &Server{userService: &mockUserService{}}

	rr := httptest.NewRecorder()
	server.handleRegistration(rr, httptest.NewRequest("POST", "/api/v1/auth/registration", strings.NewReader("not json")))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleLogin(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, http.StatusOK},
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"account disabled", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &Server{authService: &mockAuthService{
				authenticateFn: func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.LoginResponse{Token: "jwt", User: &domain.UserSummary{ID: "u1"}}, nil
				},
			}}

			body, _ := json.Marshal(domain.LoginRequest{Username: "jdoe_42", Password: "pw"})
			rr := httptest.NewRecorder()
			server.handleLogin(rr, httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBuffer(body)))

			if rr.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, rr.Code)
			}
		})
	}
}

func TestHandleRefresh_Invalid(t *testing.T) {
	server := &Server{authService: &mockAuthService{
		refreshTokenFn: func(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResponse, error) {
			return nil, domain.ErrTokenInvalid
		},
	}}

	rr := httptest.NewRecorder()
	server.handleRefresh(rr, httptest.NewRequest("POST", "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"x"}`)))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestHandleLogout(t *testing.T) {
	var loggedOut string
	server := &Server{authService: &mockAuthService{
		logoutFn: func(ctx context.Context, token string) error {
			loggedOut = token
			return nil
		},
	}}

	req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	server.handleLogout(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if loggedOut != "tok" {
		t.Errorf("expected token tok to be logged out, got %q", loggedOut)
	}
}

func TestHandleGetMe(t *testing.T) {
	server := &Server{userService: &mockUserService{
		getFn: func(ctx context.Context, id string) (*domain.User, error) {
			if id != "u1" {
				return nil, domain.ErrNotFound
			}
			return &domain.User{ID: "u1", Username: "jdoe_42", PasswordHash: "secret"}, nil
		},
	}}

	rr := httptest.NewRecorder()
	server.handleGetMe(rr, withAuth(httptest.NewRequest("GET", "/api/v1/me", nil), "u1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "secret") {
		t.Error("password hash leaked in response")
	}

	rr = httptest.NewRecorder()
	server.handleGetMe(rr, withAuth(httptest.NewRequest("GET", "/api/v1/me", nil), "u2"))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

// Embedding endpoints

func TestHandleAddEmbedding_JSON(t *testing.T) {
	var gotCaller string
	var gotReq domain.IngestRequest
	server := &Server{maxUploadBytes: 1 << 20, ingestService: &mockIngestService{
		ingestFn: func(ctx context.Context, callerID string, req domain.IngestRequest) (*domain.IngestResult, error) {
			gotCaller, gotReq = callerID, req
			return &domain.IngestResult{Status: domain.IngestStatusSuccess, ChunksSaved: 1, Chunks: []string{req.Text}}, nil
		},
	}}

	req := httptest.NewRequest("POST", "/api/v1/embedding/add-embedding", strings.NewReader(`{"text":"The cat sat."}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	server.handleAddEmbedding(rr, withAuth(req, "alice"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotCaller != "alice" {
		t.Errorf("expected caller alice, got %q", gotCaller)
	}
	if gotReq.Text != "The cat sat." || gotReq.File != nil {
		t.Errorf("unexpected request %+v", gotReq)
	}

	var resp domain.IngestResult
	decodeBody(t, rr, &resp)
	if resp.Status != "success" || resp.ChunksSaved != 1 {
		t.Errorf("unexpected result %+v", resp)
	}
}

func TestHandleAddEmbedding_Multipart(t *testing.T) {
	var gotReq domain.IngestRequest
	server := &Server{maxUploadBytes: 1 << 20, ingestService: &mockIngestService{
		ingestFn: func(ctx context.Context, callerID string, req domain.IngestRequest) (*domain.IngestResult, error) {
			gotReq = req
			return &domain.IngestResult{Status: domain.IngestStatusSuccess, ChunksSaved: 2}, nil
		},
	}}

	body, contentType := multipartBody(t, "intro text", "notes.txt", []byte("file body"))
	req := httptest.NewRequest("POST", "/api/v1/embedding/add-embedding", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	server.handleAddEmbedding(rr, withAuth(req, "alice"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotReq.Text != "intro text" {
		t.Errorf("expected text field, got %q", gotReq.Text)
	}
	if gotReq.File == nil || gotReq.File.Filename != "notes.txt" || string(gotReq.File.Content) != "file body" {
		t.Errorf("unexpected file %+v", gotReq.File)
	}
}

func TestHandleAddEmbedding_MultipartTextOnly(t *testing.T) {
	var gotReq domain.IngestRequest
	server := &Server{maxUploadBytes: 1 << 20, ingestService: &mockIngestService{
		ingestFn: func(ctx context.Context, callerID string, req domain.IngestRequest) (*domain.IngestResult, error) {
			gotReq = req
			return &domain.IngestResult{Status: domain.IngestStatusSuccess, ChunksSaved: 1}, nil
		},
	}}

	body, contentType := multipartBody(t, "only text", "", nil)
	req := httptest.NewRequest("POST", "/api/v1/embedding/add-embedding", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	server.handleAddEmbedding(rr, withAuth(req, "alice"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if gotReq.File != nil {
		t.Error("expected no file")
	}
}

func TestHandleAddEmbedding_TooLarge(t *testing.T) {
	called := false
	server := &Server{maxUploadBytes: 64, ingestService: &mockIngestService{
		ingestFn: func(ctx context.Context, callerID string, req domain.IngestRequest) (*domain.IngestResult, error) {
			called = true
			return nil, nil
		},
	}}

	body, contentType := multipartBody(t, "", "big.txt", bytes.Repeat([]byte("a"), 4096))
	req := httptest.NewRequest("POST", "/api/v1/embedding/add-embedding", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	server.handleAddEmbedding(rr, withAuth(req, "alice"))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", rr.Code)
	}
	if called {
		t.Error("ingest should not run for oversized uploads")
	}
}

func TestHandleAddEmbedding_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
		contains string
	}{
		{"no input", domain.ErrNoInput, http.StatusBadRequest, "no text or file"},
		{"unsupported", fmt.Errorf("notes.xyz: %w", domain.ErrUnsupportedFormat), http.StatusUnprocessableEntity, "notes.xyz"},
		{"extraction", fmt.Errorf("notes.xyz: %w: bad zip", domain.ErrExtractionFailed), http.StatusUnprocessableEntity, "notes.xyz"},
		{"embedding", fmt.Errorf("%w: 401 from provider sk-123", domain.ErrEmbeddingFailed), http.StatusBadGateway, "embedding provider unavailable"},
		{"store", fmt.Errorf("%w: dial tcp", domain.ErrStoreUnavailable), http.StatusServiceUnavailable, "vector store unavailable"},
		{"partial", &domain.PartialWriteError{Stored: 2, Total: 5, Err: errors.New("timeout")}, http.StatusServiceUnavailable, `"chunks_saved":2`},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &Server{maxUploadBytes: 1 << 20, ingestService: &mockIngestService{
				ingestFn: func(ctx context.Context, callerID string, req domain.IngestRequest) (*domain.IngestResult, error) {
					return nil, tt.err
				},
			}}

			body, contentType := multipartBody(t, "", "notes.xyz", []byte("data"))
			req := httptest.NewRequest("POST", "/api/v1/embedding/add-embedding", body)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()
			server.handleAddEmbedding(rr, withAuth(req, "alice"))

			if rr.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.contains) {
				t.Errorf("expected body to contain %q, got %s", tt.contains, rr.Body.String())
			}
			if strings.Contains(rr.Body.String(), "sk-123") {
				t.Error("provider detail leaked to client")
			}
		})
	}
}

func TestHandleAddEmbedding_RequiresAuthContext(t *testing.T) {
	server := &Server{maxUploadBytes: 1 << 20, ingestService: &mockIngestService{}}

	rr := httptest.NewRecorder()
	server.handleAddEmbedding(rr, httptest.NewRequest("POST", "/api/v1/embedding/add-embedding", strings.NewReader(`{"text":"x"}`)))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestHandleSearchEmbedding(t *testing.T) {
	var gotCaller, gotQuery string
	var gotLimit int
	server := &Server{searchService: &mockSearchService{
		searchFn: func(ctx context.Context, callerID, query string, limit int) ([]domain.ScoredPoint, error) {
			gotCaller, gotQuery, gotLimit = callerID, query, limit
			return []domain.ScoredPoint{
				{ID: "p1", Score: 0.9, Payload: domain.Payload{ID: "p1", UserID: callerID, Text: "The cat sat.", Part: domain.IntPtr(2)}},
			}, nil
		},
	}}

	req := httptest.NewRequest("POST", "/api/v1/embedding/search-embedding", strings.NewReader(`{"text":"cat","limit":3}`))
	rr := httptest.NewRecorder()
	server.handleSearchEmbedding(rr, withAuth(req, "bob"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if gotCaller != "bob" || gotQuery != "cat" || gotLimit != 3 {
		t.Errorf("unexpected call: %s %s %d", gotCaller, gotQuery, gotLimit)
	}

	var resp SearchResponse
	decodeBody(t, rr, &resp)
	if resp.Status != "success" || len(resp.Results) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	hit := resp.Results[0]
	if hit.ID != "p1" || hit.Text != "The cat sat." || hit.Part == nil || *hit.Part != 2 {
		t.Errorf("unexpected hit %+v", hit)
	}
}

func TestHandleSearchEmbedding_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		expected int
	}{
		{"bad body", "nope", nil, http.StatusBadRequest},
		{"empty query", `{"text":""}`, fmt.Errorf("%w: query is required", domain.ErrInvalidInput), http.StatusBadRequest},
		{"embedding", `{"text":"q"}`, domain.ErrEmbeddingFailed, http.StatusBadGateway},
		{"store", `{"text":"q"}`, domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &Server{searchService: &mockSearchService{
				searchFn: func(ctx context.Context, callerID, query string, limit int) ([]domain.ScoredPoint, error) {
					return nil, tt.err
				},
			}}

			rr := httptest.NewRecorder()
			server.handleSearchEmbedding(rr, withAuth(httptest.NewRequest("POST", "/", strings.NewReader(tt.body)), "bob"))

			if rr.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, rr.Code)
			}
		})
	}
}

func TestHandleListPoints(t *testing.T) {
	var gotLimit int
	server := &Server{searchService: &mockSearchService{
		listPointsFn: func(ctx context.Context, callerID string, limit int) ([]domain.Point, error) {
			gotLimit = limit
			return []domain.Point{{ID: "p1", Payload: domain.Payload{ID: "p1", UserID: callerID, Text: "hi"}}}, nil
		},
	}}

	rr := httptest.NewRecorder()
	server.handleListPoints(rr, withAuth(httptest.NewRequest("GET", "/api/v1/embedding/points?limit=7", nil), "alice"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if gotLimit != 7 {
		t.Errorf("expected limit 7, got %d", gotLimit)
	}
	var resp PointsResponse
	decodeBody(t, rr, &resp)
	if len(resp.Points) != 1 || resp.Points[0].Payload.UserID != "alice" {
		t.Errorf("unexpected points %+v", resp.Points)
	}
}

func TestHandleListPoints_EmptyAndInvalid(t *testing.T) {
	server := &Server{searchService: &mockSearchService{
		listPointsFn: func(ctx context.Context, callerID string, limit int) ([]domain.Point, error) {
			return nil, nil
		},
	}}

	rr := httptest.NewRecorder()
	server.handleListPoints(rr, withAuth(httptest.NewRequest("GET", "/api/v1/embedding/points", nil), "alice"))
	if !strings.Contains(rr.Body.String(), `"points":[]`) {
		t.Errorf("expected empty array, got %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	server.handleListPoints(rr, withAuth(httptest.NewRequest("GET", "/api/v1/embedding/points?limit=abc", nil), "alice"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

// Routing

func TestRoutes_RequireAuth(t *testing.T) {
	auth := &mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			if token == "good" {
				return &domain.AuthContext{UserID: "alice"}, nil
			}
			return nil, domain.ErrTokenInvalid
		},
	}
	search := &mockSearchService{
		listPointsFn: func(ctx context.Context, callerID string, limit int) ([]domain.Point, error) {
			return []domain.Point{}, nil
		},
	}
	server := NewServer(DefaultConfig(), Dependencies{Auth: auth, Search: search})
	handler := server.Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/embedding/points", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without token, got %d", rr.Code)
	}

	req := httptest.NewRequest("GET", "/api/v1/embedding/points", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200 with token, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected public health endpoint, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/embedding/add-embedding", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405 for GET on add-embedding, got %d", rr.Code)
	}
}
