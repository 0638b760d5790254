package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fkoehler/buildorder/pkg/depdata"
	apierrors "github.com/fkoehler/buildorder/pkg/errors"
	"github.com/fkoehler/buildorder/pkg/history"
	"github.com/fkoehler/buildorder/pkg/pipeline"
	"github.com/fkoehler/buildorder/pkg/render"
	"github.com/fkoehler/buildorder/pkg/resolve"
)

// maxBodyBytes bounds resolve request bodies. Requests name components,
// not data, so anything bigger is abuse.
const maxBodyBytes = 1 << 20

// resolveRequest is the body of POST /v1/resolve.
type resolveRequest struct {
	Components    []string `json:"components"`
	Branch        string   `json:"branch,omitempty"`
	Direct        bool     `json:"direct,omitempty"`
	AssumePresent bool     `json:"assume_present,omitempty"`
	Waves         bool     `json:"waves,omitempty"`
	Refresh       bool     `json:"refresh,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	components := s.db.AllComponents()
	writeJSON(w, http.StatusOK, map[string]any{
		"components": components,
		"count":      len(components),
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, r, apierrors.New(apierrors.ErrCodeInvalidInput, "invalid request body: %v", err))
		return
	}
	if err := validateInput(req.Components, req.Branch); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.Options{
		DataFile:      s.cfg.DataFile,
		Components:    req.Components,
		Branch:        req.Branch,
		Direct:        req.Direct,
		AssumePresent: req.AssumePresent,
		Waves:         req.Waves,
		Refresh:       req.Refresh,
	}
	if err := opts.ValidateForResolve(); err != nil {
		s.writeError(w, r, apierrors.New(apierrors.ErrCodeInvalidInput, "%v", err))
		return
	}

	start := time.Now()
	resolution, err := s.runner.Resolve(r.Context(), s.db, s.dataHash, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	size := len(resolution.Order)
	for _, refs := range resolution.Direct {
		size += len(refs)
	}
	entry := history.NewEntry(resolution.Components, opts.Branch, opts.Direct, size, time.Since(start))
	if err := s.store.Record(r.Context(), entry); err != nil {
		s.logger.Warn("recording history", "err", err, "request_id", RequestID(r.Context()))
	}

	writeJSON(w, http.StatusOK, resolution)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	component := r.URL.Query().Get("component")
	branch := r.URL.Query().Get("branch")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}

	if component == "" {
		s.writeError(w, r, apierrors.New(apierrors.ErrCodeInvalidInput, "component query parameter is required"))
		return
	}
	if err := validateInput([]string{component}, branch); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, apierrors.New(apierrors.ErrCodeInvalidInput, "%v", err))
		return
	}

	opts := pipeline.Options{
		DataFile:   s.cfg.DataFile,
		Components: []string{component},
		Branch:     branch,
		Format:     format,
		Detailed:   r.URL.Query().Get("detailed") == "true",
	}

	artifact, err := s.runner.Render(r.Context(), s.db, s.dataHash, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, r, apierrors.New(apierrors.ErrCodeInvalidInput, "invalid limit %q", raw))
			return
		}
		limit = min(n, 100)
	}

	entries, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// validateInput screens untrusted component and branch names before they
// reach the resolver or rendered output.
func validateInput(components []string, branch string) error {
	for _, c := range components {
		if err := apierrors.ValidateComponentPath(c); err != nil {
			return err
		}
	}
	return apierrors.ValidateBranch(branch)
}

func contentType(format string) string {
	switch format {
	case render.FormatSVG:
		return "image/svg+xml"
	case render.FormatPNG:
		return "image/png"
	default:
		return "text/vnd.graphviz"
	}
}

// errorStatus maps domain errors onto HTTP status codes and API error
// codes.
func errorStatus(err error) (int, apierrors.Code) {
	var notFound *depdata.ComponentNotFoundError
	var conflict *resolve.BranchConflictError
	var cycle *resolve.CycleError
	var apiErr *apierrors.Error

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, apierrors.ErrCodeNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict, apierrors.ErrCodeConflict
	case errors.As(err, &cycle):
		return http.StatusConflict, apierrors.ErrCodeCycle
	case errors.As(err, &apiErr):
		switch apiErr.Code {
		case apierrors.ErrCodeInvalidInput:
			return http.StatusBadRequest, apiErr.Code
		case apierrors.ErrCodeNotFound:
			return http.StatusNotFound, apiErr.Code
		case apierrors.ErrCodeConflict, apierrors.ErrCodeCycle:
			return http.StatusConflict, apiErr.Code
		default:
			return http.StatusInternalServerError, apiErr.Code
		}
	default:
		return http.StatusInternalServerError, apierrors.ErrCodeInternal
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err, "request_id", RequestID(r.Context()))
	}
	writeJSON(w, status, map[string]any{
		"error":      apierrors.UserMessage(err),
		"code":       code,
		"request_id": RequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
