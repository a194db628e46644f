package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// ValidationErrorResponse lists the rejected fields
// @Description Per-field validation errors
type ValidationErrorResponse struct {
	Error  string            `json:"error" example:"invalid input"`
	Fields map[string]string `json:"fields"`
}

// PartialWriteResponse is returned when only some points reached the store
// @Description Vector store failed part way through an ingest
type PartialWriteResponse struct {
	Error       string `json:"error" example:"vector store unavailable"`
	ChunksSaved int    `json:"chunks_saved" example:"2"`
	ChunksTotal int    `json:"chunks_total" example:"5"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// HealthResponse reports liveness plus per-component health
// @Description Health status with components
type HealthResponse struct {
	Status     string            `json:"status" example:"ok"`
	Components map[string]string `json:"components"`
}

// ReadyResponse reports dependency checks
// @Description Readiness status with checks
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// TextRequest is the JSON body for ingest and search
// @Description Text to ingest or search with
type TextRequest struct {
	Text  string `json:"text" example:"The cat sat. The cat slept."`
	Limit int    `json:"limit,omitempty" example:"5"`
}

// SearchHit is one search result
// @Description One scored chunk
type SearchHit struct {
	ID    string  `json:"id" example:"6f1c2a9e-4d1b-4c47-9a53-2f0f7a0d9b11"`
	Score float32 `json:"score" example:"0.87"`
	Text  string  `json:"text" example:"The cat sat."`
	Part  *int    `json:"part,omitempty" example:"2"`
}

// SearchResponse wraps search results
// @Description Search results for the caller
type SearchResponse struct {
	Status  string      `json:"status" example:"success"`
	Results []SearchHit `json:"results"`
}

// PointsResponse lists the caller's points
// @Description Stored points owned by the caller
type PointsResponse struct {
	Points []domain.Point `json:"points"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns liveness plus the health of the vector store and embedding provider
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string)
	if s.services != nil {
		for name, err := range s.services.HealthStatus(r.Context()) {
			if err != nil {
				components[name] = "unhealthy"
				continue
			}
			components[name] = "healthy"
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Components: components})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the database and Redis when they are configured
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	ready := true

	checkDep := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(r.Context()); err != nil {
			log.Printf("readiness check %s failed: %v", name, err)
			checks[name] = "unavailable"
			ready = false
			return
		}
		checks[name] = "ok"
	}
	checkDep("database", s.db)
	checkDep("redis", s.redisClient)

	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "not ready", Checks: checks})
		return
	}
	writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready", Checks: checks})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleSwaggerDoc serves the registered OpenAPI document
func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not registered")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}

// Auth endpoints

// handleRegistration godoc
// @Summary      Register
// @Description  Create an account. The password must pass the password policy.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.RegistrationRequest  true  "Account details"
// @Success      201      {object}  driving.RegistrationResponse
// @Failure      400      {object}  ValidationErrorResponse  "Invalid input"
// @Failure      409      {object}  ErrorResponse  "Username or email taken"
// @Router       /auth/registration [post]
func (s *Server) handleRegistration(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := s.userService.Register(r.Context(), req); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, driving.RegistrationResponse{Message: "Registration successfully completed"})
}

// handleLogin godoc
// @Summary      User login
// @Description  Authenticate with username (or email) and password to receive a JWT token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials or account disabled"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "account disabled")
		default:
			log.Printf("login failed: %v", err)
			writeError(w, http.StatusInternalServerError, "authentication failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh godoc
// @Summary      Refresh token
// @Description  Exchange a refresh token for a new JWT token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.RefreshRequest  true  "Refresh token"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid refresh token"
// @Router       /auth/refresh [post]
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.RefreshToken(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleLogout godoc
// @Summary      Logout user
// @Description  Invalidate the current session token
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Router       /auth/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := extractBearerToken(r); token != "" {
		_ = s.authService.Logout(r.Context(), token)
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// User endpoints

// handleGetMe godoc
// @Summary      Get current user
// @Description  Get the currently authenticated user's profile
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.UserSummary
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "User not found"
// @Router       /me [get]
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := s.userService.Get(r.Context(), authCtx.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, user.ToSummary())
}

// Embedding endpoints

// handleAddEmbedding godoc
// @Summary      Ingest text and/or a file
// @Description  Extracts, chunks, embeds and stores the content as points owned by the caller.
// @Description  Accepts multipart form data (fields text and file) or a JSON body with text.
// @Tags         Embedding
// @Accept       mpfd
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        text  formData  string  false  "Free text"
// @Param        file  formData  file    false  "PDF, DOCX or TXT file"
// @Success      200   {object}  domain.IngestResult
// @Failure      400   {object}  ErrorResponse  "No text or file provided"
// @Failure      401   {object}  ErrorResponse  "Unauthorized"
// @Failure      413   {object}  ErrorResponse  "Upload too large"
// @Failure      422   {object}  ErrorResponse  "File could not be read"
// @Failure      502   {object}  ErrorResponse  "Embedding provider failed"
// @Failure      503   {object}  PartialWriteResponse  "Vector store unavailable"
// @Router       /embedding/add-embedding [post]
func (s *Server) handleAddEmbedding(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	req, err := s.readIngestRequest(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.ingestService.Ingest(r.Context(), authCtx.UserID, req)
	if err != nil {
		if errors.Is(err, domain.ErrExtractionFailed) && req.File != nil {
			msg := "could not extract text from " + req.File.Filename
			if errors.Is(err, domain.ErrUnsupportedFormat) {
				msg = "unsupported file type: " + req.File.Filename
			}
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// readIngestRequest decodes either a multipart form or a JSON body
func (s *Server) readIngestRequest(r *http.Request) (domain.IngestRequest, error) {
	var req domain.IngestRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
			return req, err
		}
		req.Text = r.FormValue("text")

		file, header, err := r.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil
		}
		if err != nil {
			return req, err
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			return req, err
		}
		req.File = &domain.RawDocument{Filename: header.Filename, Content: content}
		return req, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Text = r.PostFormValue("text")
		return req, nil

	default:
		var body TextRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return req, err
		}
		req.Text = body.Text
		return req, nil
	}
}

// handleSearchEmbedding godoc
// @Summary      Search the caller's chunks
// @Description  Embeds the query and returns the most similar chunks owned by the caller
// @Tags         Embedding
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      TextRequest  true  "Query text and optional limit"
// @Success      200      {object}  SearchResponse
// @Failure      400      {object}  ErrorResponse  "Query is required"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      502      {object}  ErrorResponse  "Embedding provider failed"
// @Failure      503      {object}  ErrorResponse  "Vector store unavailable"
// @Router       /embedding/search-embedding [post]
func (s *Server) handleSearchEmbedding(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	points, err := s.searchService.Search(r.Context(), authCtx.UserID, req.Text, req.Limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	hits := make([]SearchHit, len(points))
	for i, p := range points {
		hits[i] = SearchHit{ID: p.ID, Score: p.Score, Text: p.Payload.Text, Part: p.Payload.Part}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Status: domain.IngestStatusSuccess, Results: hits})
}

// handleListPoints godoc
// @Summary      List the caller's points
// @Description  Returns stored points owned by the caller, without vectors, in insertion order
// @Tags         Embedding
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum points to return"
// @Success      200    {object}  PointsResponse
// @Failure      400    {object}  ErrorResponse  "Invalid limit"
// @Failure      401    {object}  ErrorResponse  "Unauthorized"
// @Failure      503    {object}  ErrorResponse  "Vector store unavailable"
// @Router       /embedding/points [get]
func (s *Server) handleListPoints(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	points, err := s.searchService.ListPoints(r.Context(), authCtx.UserID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if points == nil {
		points = []domain.Point{}
	}

	writeJSON(w, http.StatusOK, PointsResponse{Points: points})
}

// Helper functions

// writeServiceError maps domain errors to status codes. Provider and store
// details are logged, never returned to the client.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		validation *domain.ValidationError
		partial    *domain.PartialWriteError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{Error: "invalid input", Fields: validation.Fields})
	case errors.Is(err, domain.ErrNoInput):
		writeError(w, http.StatusBadRequest, "no text or file provided")
	case errors.Is(err, domain.ErrExtractionFailed):
		writeError(w, http.StatusUnprocessableEntity, "could not extract text")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "username or email already registered")
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrEmbeddingFailed):
		log.Printf("embedding error: %v", err)
		writeError(w, http.StatusBadGateway, "embedding provider unavailable")
	case errors.As(err, &partial):
		log.Printf("partial write: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, PartialWriteResponse{
			Error:       "vector store unavailable",
			ChunksSaved: partial.Stored,
			ChunksTotal: partial.Total,
		})
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Printf("vector store error: %v", err)
		writeError(w, http.StatusServiceUnavailable, "vector store unavailable")
	default:
		log.Printf("unexpected error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
