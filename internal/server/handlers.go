package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pixelfit/pixelfit/internal/history"
	"github.com/pixelfit/pixelfit/internal/workflow"
)

const maxUploadBytes = 64 << 20

type errorResponse struct {
	Error    string             `json:"error"`
	Snapshot *workflow.Snapshot `json:"snapshot,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.workflow.Snapshot())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("reading upload: %w", err), nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var files []workflow.File
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, err, nil)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, err, nil)
			return
		}
		files = append(files, workflow.FileFromBytes(fh.Filename, fh.Header.Get("Content-Type"), data))
	}

	s.dispatch(w, r, workflow.Event{Action: workflow.ActionSelect, Files: files})
}

func (s *Server) handleSetFolder(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid index: %w", err), nil)
		return
	}
	var body struct {
		MainFolder string `json:"main_folder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err), nil)
		return
	}

	s.dispatch(w, r, workflow.Event{Action: workflow.ActionSetFolder, Index: index, Folder: body.MainFolder})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, workflow.Event{Action: workflow.ActionProcess})
}

// handleDownload streams the current archive, like following the download
// link.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	a := s.workflow.Artifact()
	if a == nil {
		writeError(w, http.StatusNotFound, workflow.ErrNoArtifact, nil)
		return
	}
	rc, err := a.Open()
	if err != nil {
		writeError(w, http.StatusGone, err, nil)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.DisplayName))
	w.Header().Set("Content-Length", strconv.FormatInt(a.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Debug("download interrupted", "error", err)
	}
}

// handleSave writes the current archive into the output directory and
// records it.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	res, err := s.workflow.Dispatch(r.Context(), workflow.Event{Action: workflow.ActionDownload, Dir: s.cfg.OutputDir})
	if err != nil {
		writeError(w, statusFor(err), err, &res.Snapshot)
		return
	}

	entry, err := s.history.Record(r.Context(), history.Entry{
		Name:   res.Download.Name,
		Path:   res.Download.Path,
		Source: history.SourceBatch,
		Files:  res.Download.Files,
		Size:   res.Download.Size,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, ev workflow.Event) {
	res, err := s.workflow.Dispatch(r.Context(), ev)
	if err != nil {
		writeError(w, statusFor(err), err, &res.Snapshot)
		return
	}
	writeJSON(w, http.StatusOK, res.Snapshot)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNothingToProcess),
		errors.Is(err, workflow.ErrMissingFolder):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrNoSuchEntry),
		errors.Is(err, workflow.ErrNoArtifact):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrClosed),
		errors.Is(err, workflow.ErrReleased):
		return http.StatusGone
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error, snap *workflow.Snapshot) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Snapshot: snap})
}
