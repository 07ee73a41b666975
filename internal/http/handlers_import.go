package http

import (
	"errors"
	"io"
	"net/http"

	"fiado/internal/extract"
	"fiado/internal/importer"
	"fiado/internal/services"
)

const maxUploadBytes = 8 << 20 // 8 MiB per uploaded file

// handleImportExtract accepts a multipart upload under the "file" field
// and responds with the staged items for review.
func (s *Server) handleImportExtract(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	staged, err := s.imports.Extract(r.Context(), sess, header.Filename, data)
	switch {
	case errors.Is(err, extract.ErrExtractionFailed):
		writeError(w, http.StatusUnprocessableEntity, "extraction failed; nothing was imported")
	case errors.Is(err, services.ErrTooManyItems):
		writeError(w, http.StatusRequestEntityTooLarge, "too many items in file")
	case err != nil:
		s.logger.ErrorContext(r.Context(), "import extract", "error", err)
		writeError(w, http.StatusUnprocessableEntity, "invalid import batch")
	default:
		writeJSON(w, http.StatusOK, staged)
	}
}

func (s *Server) handleImportRematch(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	var item importer.StagedItem
	if err := readJSON(w, r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	got, err := s.imports.Rematch(r.Context(), sess, item)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "import rematch", "error", err)
		writeError(w, http.StatusInternalServerError, "rematch failed")
		return
	}
	writeJSON(w, http.StatusOK, got)
}

func (s *Server) handleImportCommit(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	var items []importer.StagedItem
	if err := readJSON(w, r, &items); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "nothing to commit")
		return
	}

	result, err := s.imports.Commit(r.Context(), sess, items)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "import commit", "error", err)
		writeError(w, http.StatusInternalServerError, "commit failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
