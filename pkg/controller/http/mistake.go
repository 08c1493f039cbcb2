package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
)

func (s *Server) listMistakes(w http.ResponseWriter, r *http.Request) {
	identity := model.IdentityFromContext(r.Context())

	mistakes, err := s.uc.Mistake.ListAll(r.Context(), identity)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if mistakes == nil {
		mistakes = []*model.Mistake{}
	}
	writeJSON(w, r, http.StatusOK, mistakes)
}

func (s *Server) createMistake(w http.ResponseWriter, r *http.Request) {
	identity := model.IdentityFromContext(r.Context())

	var input model.Mistake
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, err)
		return
	}

	created, err := s.uc.Mistake.Create(r.Context(), identity, &input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) updateMistake(w http.ResponseWriter, r *http.Request) {
	identity := model.IdentityFromContext(r.Context())
	id := model.MistakeID(chi.URLParam(r, "id"))

	var input model.Mistake
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, err)
		return
	}
	if input.ID == "" {
		input.ID = id
	}
	if input.ID != id {
		handleError(w, r, goerr.Wrap(errBadRequest, "id in body does not match path", goerr.V("path", id), goerr.V("body", input.ID)))
		return
	}

	updated, err := s.uc.Mistake.Update(r.Context(), identity, &input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

type deleteResponse struct {
	ID           model.MistakeID `json:"id"`
	ImageRef     string          `json:"imageRef,omitempty"`
	CleanupError string          `json:"cleanupError,omitempty"`
}

func (s *Server) deleteMistake(w http.ResponseWriter, r *http.Request) {
	identity := model.IdentityFromContext(r.Context())
	id := model.MistakeID(chi.URLParam(r, "id"))

	cleanup, err := s.uc.Mistake.Delete(r.Context(), identity, id, r.URL.Query().Get("imageRef"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := deleteResponse{ID: id}
	if cleanup.Attempted() {
		resp.ImageRef = cleanup.ImageRef
	}
	if cleanup.Failed() {
		resp.CleanupError = cleanup.Err.Error()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) exportMistakes(w http.ResponseWriter, r *http.Request) {
	identity := model.IdentityFromContext(r.Context())

	filename := "wrongbook-" + time.Now().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := s.uc.Transfer.Export(r.Context(), identity, w); err != nil {
		handleError(w, r, err)
		return
	}
}

func (s *Server) importMistakes(w http.ResponseWriter, r *http.Request) {
	identity := model.IdentityFromContext(r.Context())

	result, err := s.uc.Transfer.Import(r.Context(), identity, r.Body)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}
