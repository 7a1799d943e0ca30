package api

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/waddle/internal/analysis"
	"github.com/MikeSquared-Agency/waddle/internal/calls"
	"github.com/MikeSquared-Agency/waddle/internal/export"
	"github.com/MikeSquared-Agency/waddle/internal/processor"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// uploadRequest is the JSON form of an upload, carrying the export as a
// browser data URL.
type uploadRequest struct {
	Filename string `json:"filename"`
	Contents string `json:"contents"`
	Partner  *int   `json:"partner,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

type upload struct {
	source   string
	convs    []export.Conversation
	partner  string // raw form value
	index    *int
	timezone string
}

// readUpload accepts multipart/form-data with a "file" part or a JSON
// uploadRequest.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req uploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, uploadStatus(err), fmt.Errorf("invalid JSON: %w", err)
		}
		convs, err := export.DecodeDataURL(req.Contents, req.Filename)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		return &upload{source: req.Filename, convs: convs, index: req.Partner, timezone: req.Timezone}, 0, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, uploadStatus(err), fmt.Errorf("invalid upload: %w", err)
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("missing file: %w", err)
	}
	defer file.Close()

	convs, err := export.Decode(file, hdr.Filename)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return &upload{
		source:   hdr.Filename,
		convs:    convs,
		partner:  r.FormValue("partner"),
		timezone: r.FormValue("timezone"),
	}, 0, nil
}

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// POST /api/v1/partners
func (s *Server) listPartners(w http.ResponseWriter, r *http.Request) {
	up, status, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}
	partners := export.Partners(up.convs)
	if partners == nil {
		partners = []export.Partner{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"source":   up.source,
		"partners": partners,
		"index":    export.PartnerIndex(partners),
	})
}

// POST /api/v1/analyses
func (s *Server) createAnalysis(w http.ResponseWriter, r *http.Request) {
	up, status, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}

	index := up.index
	if index == nil {
		n, err := strconv.Atoi(up.partner)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "partner must be a conversation index")
			return
		}
		index = &n
	}

	a, err := s.analyzer.Analyze(r.Context(), processor.Request{
		Source:        up.source,
		Conversations: up.convs,
		Partner:       *index,
		Timezone:      up.timezone,
	})
	if err != nil {
		s.writeAnalyzeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) writeAnalyzeError(w http.ResponseWriter, err error) {
	var rerr *calls.ReconstructError
	switch {
	case errors.As(err, &rerr):
		s.writeError(w, http.StatusUnprocessableEntity, "could not build call history: "+rerr.Err.Error())
	case processor.IsInputError(err):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("analysis failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "analysis failed")
	}
}

// GET /api/v1/analyses/{id}
func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	a, err := s.analyzer.Get(r.Context(), id)
	switch {
	case errors.Is(err, processor.ErrNoStore):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, analysis.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.logger.Error("get analysis failed", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not load analysis")
	default:
		s.writeJSON(w, http.StatusOK, a)
	}
}

// DELETE /api/v1/analyses/{id}
func (s *Server) deleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	err = s.analyzer.Delete(r.Context(), id)
	switch {
	case errors.Is(err, processor.ErrNoStore):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, analysis.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.logger.Error("delete analysis failed", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not delete analysis")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
