// medqc processes clinical documents: ingest → extract → section → entities.
//
// Two modes:
//
//	medqc -file chart.pdf -facility "ГКБ №1"   one-shot pipeline run, JSON summary on stdout
//	medqc -doc-id KZ-20260828-9F2C41AB          one-shot run over an ingested document
//	medqc -config medqc.yaml                    HTTP service
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/medqc/httpapi"
	"github.com/hazyhaar/medqc/ingest"
	"github.com/hazyhaar/medqc/pipeline"
	"github.com/hazyhaar/medqc/shield"
	"github.com/hazyhaar/medqc/store"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "path to YAML config (defaults apply when empty)")
		file     = flag.String("file", "", "source file to ingest and process")
		docID    = flag.String("doc-id", "", "document ID (generated from content when empty)")
		steps    = flag.String("steps", "", "comma-separated pipeline steps (default: all)")
		force    = flag.String("force", "", "comma-separated steps to re-run, or \"all\"")
		facility = flag.String("facility", "", "facility name")
		dept     = flag.String("dept", "", "department name")
		author   = flag.String("author", "", "document author")
		admitDT  = flag.String("admit-dt", "", "admission timestamp, e.g. 2026-08-21T10:15")
		logLevel = flag.String("log-level", "info", "debug|info|warn|error")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))
	slog.SetDefault(logger)

	cfg := pipeline.DefaultConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(*cfgPath); err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
	}
	if err := os.MkdirAll(cfg.StorageRoot, 0o755); err != nil {
		slog.Error("create storage root", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	pipe := pipeline.New(st, logger)
	ing := ingest.New(st, cfg.StorageRoot)

	if *file != "" || *docID != "" {
		meta := ingest.Meta{Facility: *facility, Dept: *dept, Author: *author, AdmitDT: *admitDT}
		if err := runOnce(pipe, ing, *file, *docID, *steps, *force, meta); err != nil {
			slog.Error("pipeline", "error", err)
			os.Exit(1)
		}
		return
	}

	serve(cfg, st, pipe, ing, logger)
}

// runOnce ingests the file (when given) and runs the pipeline, printing a
// JSON summary to stdout.
func runOnce(pipe *pipeline.Pipeline, ing *ingest.Ingester, file, docID, steps, force string, meta ingest.Meta) error {
	summary := map[string]any{}

	if file != "" {
		rec, err := ing.Ingest(file, docID, meta)
		if err != nil {
			return err
		}
		docID = rec.DocID
		summary["ingest"] = rec
	}

	results, err := pipe.Run(docID, splitList(steps), forceSet(force))
	if err != nil {
		return err
	}
	summary["doc_id"] = docID
	summary["stages"] = results

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(summary)
}

func serve(cfg *pipeline.Config, st *store.Store, pipe *pipeline.Pipeline, ing *ingest.Ingester, logger *slog.Logger) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Headroom over the upload cap for the multipart envelope.
	for _, mw := range shield.APIStack(cfg.MaxFileBytes() + 1<<20) {
		r.Use(mw)
	}

	svc := httpapi.New(st, pipe, ing, logger, cfg.MaxFileBytes())
	svc.RegisterHTTP(r)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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

func forceSet(v string) map[string]bool {
	set := map[string]bool{}
	for _, step := range splitList(v) {
		if step == "all" {
			for _, s := range pipeline.Steps() {
				set[s] = true
			}
			continue
		}
		set[step] = true
	}
	return set
}
