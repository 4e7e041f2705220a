package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/medqc/ingest"
	"github.com/hazyhaar/medqc/pipeline"
	"github.com/hazyhaar/medqc/store"
)

const chartText = "Триаж пациента.\nДиагноз: I10\nЛист назначений:\nПарацетамол 500 мг перорально 3 раза/сут"

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st := store.OpenMemory(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(st, pipeline.New(st, logger), ingest.New(st, t.TempDir()), logger, 10<<20)

	r := chi.NewRouter()
	svc.RegisterHTTP(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, st
}

func uploadChart(t *testing.T, srv *httptest.Server, filename, content string, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(srv.URL+"/v1/ingest", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func post(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestIngestAndPipelineFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := uploadChart(t, srv, "chart.txt", chartText, map[string]string{
		"doc_id":   "KZ-HTTP-01",
		"facility": "ГКБ-7",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("ingest status = %d", resp.StatusCode)
	}
	var rec struct {
		DocID  string `json:"doc_id"`
		Status string `json:"status"`
	}
	decodeJSON(t, resp, &rec)
	if rec.DocID != "KZ-HTTP-01" || rec.Status != "INGESTED" {
		t.Fatalf("receipt: %+v", rec)
	}

	run := post(t, srv.URL+"/v1/docs/KZ-HTTP-01/pipeline")
	if run.StatusCode != http.StatusOK {
		t.Fatalf("pipeline status = %d", run.StatusCode)
	}
	var runBody struct {
		Stages []pipeline.StageResult `json:"stages"`
	}
	decodeJSON(t, run, &runBody)
	if len(runBody.Stages) != 3 {
		t.Fatalf("stages: %+v", runBody.Stages)
	}

	secsResp, err := http.Get(srv.URL + "/v1/docs/KZ-HTTP-01/sections")
	if err != nil {
		t.Fatal(err)
	}
	var secsBody struct {
		Sections []struct {
			ID   string `json:"section_id"`
			Kind string `json:"kind"`
		} `json:"sections"`
	}
	decodeJSON(t, secsResp, &secsBody)
	if len(secsBody.Sections) != 2 {
		t.Fatalf("sections: %+v", secsBody.Sections)
	}

	entsResp, err := http.Get(srv.URL + "/v1/docs/KZ-HTTP-01/entities")
	if err != nil {
		t.Fatal(err)
	}
	var entsBody struct {
		Entities []json.RawMessage `json:"entities"`
	}
	decodeJSON(t, entsResp, &entsBody)
	if len(entsBody.Entities) != 2 {
		t.Fatalf("entities: %d", len(entsBody.Entities))
	}
}

func TestStageEndpoint_SingleStep(t *testing.T) {
	srv, _ := newTestServer(t)
	uploadChart(t, srv, "chart.txt", chartText, map[string]string{"doc_id": "KZ-HTTP-02"}).Body.Close()

	resp := post(t, srv.URL+"/v1/docs/KZ-HTTP-02/extract")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("extract status = %d", resp.StatusCode)
	}
	var body struct {
		Step string `json:"step"`
		Rows int    `json:"rows"`
	}
	decodeJSON(t, resp, &body)
	if body.Step != "extract" || body.Rows != 1 {
		t.Errorf("body: %+v", body)
	}
}

func TestFaultStatusMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	// Unknown document: 404.
	resp := post(t, srv.URL+"/v1/docs/KZ-NOPE/section")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("NO_DOC status = %d, want 404", resp.StatusCode)
	}
	var env errorEnvelope
	decodeJSON(t, resp, &env)
	if env.Error.Code != "NO_DOC" {
		t.Errorf("code = %q", env.Error.Code)
	}

	// Sectioning before extraction: 409.
	uploadChart(t, srv, "chart.txt", chartText, map[string]string{"doc_id": "KZ-HTTP-03"}).Body.Close()
	resp = post(t, srv.URL+"/v1/docs/KZ-HTTP-03/section")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("NO_TEXT status = %d, want 409", resp.StatusCode)
	}

	// Unsupported format: 415 on extraction.
	uploadChart(t, srv, "chart.odt", "данные", map[string]string{"doc_id": "KZ-HTTP-04"}).Body.Close()
	resp = post(t, srv.URL+"/v1/docs/KZ-HTTP-04/extract")
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("UNSUPPORTED status = %d, want 415", resp.StatusCode)
	}
}

func TestIngest_MissingFileField(t *testing.T) {
	srv, _ := newTestServer(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("doc_id", "X")
	mw.Close()
	resp, err := http.Post(srv.URL+"/v1/ingest", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetDoc_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/docs/KZ-NOPE")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
