// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"travel_recommender/internal/app"
	"travel_recommender/internal/domain"
)

// SessionHeader identifies the caller's profile session.
const SessionHeader = "X-Session-ID"

type Handlers struct {
	S        *app.RecommendationService
	validate *validator.Validate
}

func NewHandlers(s *app.RecommendationService) *Handlers {
	return &Handlers{S: s, validate: validator.New(validator.WithRequiredStructEnabled())}
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type suggestRequest struct {
	Budget    string   `json:"budget" validate:"omitempty,oneof=Low Medium High"`
	Climate   string   `json:"climate" validate:"omitempty,oneof=Tropical Savannah Arid Temperate"`
	MinRating *float64 `json:"min_rating" validate:"omitempty,gte=0,lte=5"`
}

type searchRequest struct {
	Term string `json:"term" validate:"required,max=200"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/recommendations", h.home)
	s.mux.Post("/v1/recommendations/suggest", h.suggest)
	s.mux.Post("/v1/recommendations/search", h.search)
	s.mux.Get("/v1/profile", h.profile)
	s.mux.Get("/v1/model", h.modelStatus)
	s.mux.Post("/v1/model/train", h.trainModel)
}

func session(r *http.Request) string {
	if s := strings.TrimSpace(r.Header.Get(SessionHeader)); s != "" {
		return s
	}
	return app.DefaultSession
}

func pageParam(r *http.Request) (int, bool) {
	ps := r.URL.Query().Get("page")
	if ps == "" {
		return 1, true
	}
	p, err := strconv.Atoi(ps)
	if err != nil || p < 1 {
		return 0, false
	}
	return p, true
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeProblem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
	case errors.Is(err, domain.ErrInsufficientData):
		writeProblem(w, http.StatusConflict, "Insufficient Data", "no destinations to train on")
	case domain.IsRecoverable(err):
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	case r.Context().Err() != nil:
		// client went away; nothing useful to send
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("request cancelled")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if r.Method == http.MethodGet && etag != "" {
		if inm := r.Header.Get("If-None-Match"); inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write response body")
	}
}

// decodeBody reads a JSON body into dst and validates it. An empty body
// leaves dst at its zero value.
func (h *Handlers) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return false
	}
	return true
}

func validationDetail(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

func (h *Handlers) home(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid page", "page must be a positive integer")
		return
	}
	out, err := h.S.Home(r.Context(), session(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handlers) suggest(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid page", "page must be a positive integer")
		return
	}
	var req suggestRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	f := domain.ProfileFilter{
		Budget:    domain.Budget(req.Budget),
		Climate:   domain.Climate(req.Climate),
		MinRating: req.MinRating,
	}
	out, err := h.S.Suggest(r.Context(), session(r), f, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid page", "page must be a positive integer")
		return
	}
	var req searchRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	out, err := h.S.Search(r.Context(), session(r), req.Term, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.S.Profile(r.Context(), session(r)))
}

func (h *Handlers) modelStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.S.ModelStatus(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (h *Handlers) trainModel(w http.ResponseWriter, r *http.Request) {
	st, err := h.S.TrainModel(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}
