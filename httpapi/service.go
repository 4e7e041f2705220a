// Package httpapi exposes the document pipeline over HTTP.
//
// Routes are versioned under /v1. Stage endpoints always re-run their
// stage; the pipeline endpoint honors stored progress. Fault codes map to
// statuses: NO_DOC is 404, NO_TEXT is 409, UNSUPPORTED is 415.
package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/medqc/fault"
	"github.com/hazyhaar/medqc/ingest"
	"github.com/hazyhaar/medqc/pipeline"
	"github.com/hazyhaar/medqc/store"
)

// Service wires the store, pipeline and ingester behind chi handlers.
type Service struct {
	store     *store.Store
	pipe      *pipeline.Pipeline
	ingester  *ingest.Ingester
	logger    *slog.Logger
	maxUpload int64
}

func New(st *store.Store, pipe *pipeline.Pipeline, ing *ingest.Ingester, logger *slog.Logger, maxUpload int64) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, pipe: pipe, ingester: ing, logger: logger, maxUpload: maxUpload}
}

// RegisterHTTP registers all endpoints on the router.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/v1/healthz", s.handleHealthz)
	r.Post("/v1/ingest", s.handleIngest)

	r.Post("/v1/docs/{docID}/extract", s.stageHandler(pipeline.StepExtract))
	r.Post("/v1/docs/{docID}/section", s.stageHandler(pipeline.StepSection))
	r.Post("/v1/docs/{docID}/entities", s.stageHandler(pipeline.StepEntities))
	r.Post("/v1/docs/{docID}/pipeline", s.handlePipeline)

	r.Get("/v1/docs/{docID}", s.handleGetDoc)
	r.Get("/v1/docs/{docID}/sections", s.handleSections)
	r.Get("/v1/docs/{docID}/entities", s.handleEntities)
}

func (s *Service) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIngest accepts a multipart upload ("file" field) plus optional
// metadata fields and registers the document.
func (s *Service) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, s.logger, httpError(http.StatusBadRequest, "invalid multipart body"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, s.logger, httpError(http.StatusBadRequest, "missing file field"))
		return
	}
	defer file.Close()

	tmpDir, err := os.MkdirTemp("", "medqc-upload-*")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(header.Filename))
	out, err := os.Create(tmpPath)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		writeError(w, s.logger, err)
		return
	}
	if err := out.Close(); err != nil {
		writeError(w, s.logger, err)
		return
	}

	rec, err := s.ingester.Ingest(tmpPath, r.FormValue("doc_id"), ingest.Meta{
		Facility: r.FormValue("facility"),
		Dept:     r.FormValue("dept"),
		Author:   r.FormValue("author"),
		AdmitDT:  r.FormValue("admit_dt"),
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// stageHandler re-runs a single pipeline stage for the document.
func (s *Service) stageHandler(step string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := chi.URLParam(r, "docID")
		results, err := s.pipe.Run(docID, []string{step}, map[string]bool{step: true})
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"doc_id": docID,
			"step":   step,
			"rows":   results[0].Rows,
		})
	}
}

// handlePipeline runs the named steps (all by default), honoring stored
// progress. Query parameters: steps=a,b and force=a,b.
func (s *Service) handlePipeline(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	steps := splitList(r.URL.Query().Get("steps"))
	force := map[string]bool{}
	for _, step := range splitList(r.URL.Query().Get("force")) {
		force[step] = true
	}
	results, err := s.pipe.Run(docID, steps, force)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "stages": results})
}

func (s *Service) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	doc, err := s.store.GetDoc(docID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if doc == nil {
		writeError(w, s.logger, fault.New(fault.NoDoc, "document %s is not ingested", docID))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Service) handleSections(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.requireDoc(docID); err != nil {
		writeError(w, s.logger, err)
		return
	}
	secs, err := s.store.GetSections(docID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "sections": secs})
}

func (s *Service) handleEntities(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.requireDoc(docID); err != nil {
		writeError(w, s.logger, err)
		return
	}
	ents, err := s.store.GetEntities(docID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "entities": ents})
}

func (s *Service) requireDoc(docID string) error {
	doc, err := s.store.GetDoc(docID)
	if err != nil {
		return err
	}
	if doc == nil {
		return fault.New(fault.NoDoc, "document %s is not ingested", docID)
	}
	return nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
