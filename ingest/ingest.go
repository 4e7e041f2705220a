// Package ingest registers source files with the document store.
//
// Ingestion copies the file into the content-addressed storage tree at
// <root>/<doc_id>/<filename>, hashes it, and upserts the docs row. It does
// not read the document content; extraction is a separate stage.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/medqc/idgen"
	"github.com/hazyhaar/medqc/store"
)

// Meta is caller-supplied document metadata.
type Meta struct {
	Facility string
	Dept     string
	Author   string
	AdmitDT  string
}

// Receipt reports the outcome of one ingestion.
type Receipt struct {
	DocID    string `json:"doc_id"`
	Status   string `json:"status"`
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Size     int64  `json:"size"`
	SHA256   string `json:"sha256"`
	Dedup    bool   `json:"dedup,omitempty"`
}

// Ingester copies files into the storage tree and records them.
type Ingester struct {
	store *store.Store
	root  string
}

func New(st *store.Store, storageRoot string) *Ingester {
	return &Ingester{store: st, root: storageRoot}
}

// Ingest registers the file at srcPath under docID. An empty docID is
// resolved by content hash: a document already ingested with the same
// bytes keeps its ID, otherwise a new date-and-hash ID is derived.
func (in *Ingester) Ingest(srcPath, docID string, meta Meta) (*Receipt, error) {
	srcAbs, err := filepath.Abs(srcPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(srcAbs)
	if err != nil {
		return nil, fmt.Errorf("source file: %w", err)
	}
	sha, err := hashFile(srcAbs)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", srcAbs, err)
	}

	dedup := false
	if docID == "" {
		existing, err := in.store.FindDocBySHA256(sha)
		if err != nil {
			return nil, err
		}
		if existing != "" {
			docID = existing
			dedup = true
		} else {
			docID = idgen.DocID(time.Now(), sha)
		}
	}

	filename := filepath.Base(srcAbs)
	dest, err := in.place(srcAbs, docID, filename)
	if err != nil {
		return nil, err
	}

	doc := &store.Doc{
		ID:        docID,
		SHA256:    sha,
		SrcPath:   dest,
		Filename:  filename,
		MIME:      mimeByExt(filename),
		SizeBytes: info.Size(),
		Facility:  meta.Facility,
		Dept:      meta.Dept,
		Author:    meta.Author,
		AdmitDT:   meta.AdmitDT,
	}
	if err := in.store.UpsertDoc(doc); err != nil {
		return nil, fmt.Errorf("upsert doc %s: %w", docID, err)
	}

	return &Receipt{
		DocID:    docID,
		Status:   "INGESTED",
		Filename: filename,
		MIME:     doc.MIME,
		Size:     doc.SizeBytes,
		SHA256:   sha,
		Dedup:    dedup,
	}, nil
}

// place copies the source into <root>/<doc_id>/<filename> and returns the
// destination path. A source already at its destination is left alone.
func (in *Ingester) place(srcAbs, docID, filename string) (string, error) {
	destDir := filepath.Join(in.root, docID)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, filename)
	if dest == srcAbs {
		return dest, nil
	}
	src, err := os.Open(srcAbs)
	if err != nil {
		return "", err
	}
	defer src.Close()
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("copy to %s: %w", dest, err)
	}
	return dest, out.Close()
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// mimeByExt resolves a MIME type from the filename extension. The office
// types are pinned because the system MIME table may not know them.
func mimeByExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	if mt := mime.TypeByExtension(filepath.Ext(filename)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
