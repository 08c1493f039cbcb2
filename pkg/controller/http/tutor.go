package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
)

type analyzeRequest struct {
	Image    string `json:"image"`
	Hint     string `json:"hint"`
	Language string `json:"language"`
}

type similarRequest struct {
	Question string `json:"question"`
	Analysis string `json:"analysis"`
	Language string `json:"language"`
}

func parseLanguage(s string) (types.Language, error) {
	lang, err := types.ParseLanguage(s)
	if err != nil {
		return "", goerr.Wrap(errors.Join(errBadRequest, err), "unsupported language")
	}
	return lang, nil
}

func (s *Server) analyzeImage(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	lang, err := parseLanguage(req.Language)
	if err != nil {
		handleError(w, r, err)
		return
	}

	analysis, err := s.uc.Tutor.Analyze(r.Context(), req.Image, req.Hint, lang)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, analysis)
}

func (s *Server) enrichMistake(w http.ResponseWriter, r *http.Request) {
	identity := model.IdentityFromContext(r.Context())
	id := model.MistakeID(chi.URLParam(r, "id"))

	var req analyzeRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	lang, err := parseLanguage(req.Language)
	if err != nil {
		handleError(w, r, err)
		return
	}

	enriched, err := s.uc.Tutor.EnrichByID(r.Context(), identity, id, req.Hint, lang)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, enriched)
}

func (s *Server) similarQuestion(w http.ResponseWriter, r *http.Request) {
	var req similarRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	lang, err := parseLanguage(req.Language)
	if err != nil {
		handleError(w, r, err)
		return
	}

	question, err := s.uc.Tutor.Similar(r.Context(), req.Question, req.Analysis, lang)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, question)
}
