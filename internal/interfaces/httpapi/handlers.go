package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"referent/internal/domain/entity"
)

const maxRequestBody = 1 << 20

// ArticleService is the pipeline the handlers expose.
type ArticleService interface {
	Parse(ctx context.Context, url string) (*entity.Article, error)
	Process(ctx context.Context, req entity.TransformationRequest) (*entity.GenerationResult, error)
	Translate(ctx context.Context, url string) (*entity.TranslationResult, error)
}

type urlRequest struct {
	URL string `json:"url"`
}

type processRequest struct {
	URL        string `json:"url"`
	ActionKind string `json:"actionKind"`
	// ActionType is the older name of ActionKind.
	ActionType string `json:"actionType"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	service ArticleService
}

func (h *handler) parse(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	article, err := h.service.Parse(r.Context(), req.URL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (h *handler) process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kind := req.ActionKind
	if kind == "" {
		kind = req.ActionType
	}

	result, err := h.service.Process(r.Context(), entity.TransformationRequest{
		URL:        req.URL,
		ActionKind: entity.ActionKind(kind),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) translate(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Translate(r.Context(), req.URL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		loggerFrom(r).Debug().Err(err).Msg("bad request body")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	loggerFrom(r).Debug().
		Str("kind", string(entity.ErrorKindOf(err))).
		Int("status", status).
		Msg("request failed")
	writeJSON(w, status, errorResponse{Error: entity.ErrorMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
