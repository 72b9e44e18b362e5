package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/baxromumarov/policy-summarizer/internal/ai"
	"github.com/baxromumarov/policy-summarizer/internal/core"
	"github.com/baxromumarov/policy-summarizer/internal/httpx"
	"github.com/baxromumarov/policy-summarizer/internal/observability"
	"github.com/baxromumarov/policy-summarizer/internal/urlutil"
)

type URLRequest struct {
	URL string `json:"url"`
}

func decodeURLRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req URLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return "", false
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	input := strings.TrimSpace(req.URL)
	if input == "" {
		respondError(w, http.StatusBadRequest, "URL is required")
		return "", false
	}
	return input, true
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeURLRequest(w, r)
	if !ok {
		return
	}

	summary, err := s.service.Summarize(r.Context(), input)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"summary": summary.Result,
	})
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeURLRequest(w, r)
	if !ok {
		return
	}

	policyURL, err := s.service.Locate(r.Context(), input)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"site":       urlutil.NormalizeSite(input).String(),
		"policy_url": policyURL,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, observability.Snapshot())
}

func statusFor(err error) int {
	var (
		notFound *core.PolicyNotFoundError
		tooLarge *core.DocumentTooLargeError
		timeout  *core.TimeoutError
		fetchErr *httpx.FetchError
		modelErr *ai.SummarizationError
	)
	switch {
	case errors.Is(err, core.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &fetchErr), errors.As(err, &modelErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
