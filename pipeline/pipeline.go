// Package pipeline orchestrates the processing stages for one document:
//
//	extract → section → entities
//
// Each stage reads its input from the store and transactionally replaces
// its own output, so stages can be re-run in any order without leaving
// stale rows. Run skips stages whose output already exists unless forced.
package pipeline

import (
	"log/slog"
	"time"

	"github.com/hazyhaar/medqc/docmodel"
	"github.com/hazyhaar/medqc/entities"
	"github.com/hazyhaar/medqc/extract"
	"github.com/hazyhaar/medqc/fault"
	"github.com/hazyhaar/medqc/idgen"
	"github.com/hazyhaar/medqc/model"
	"github.com/hazyhaar/medqc/section"
	"github.com/hazyhaar/medqc/store"
)

// Pipeline stage names, in execution order.
const (
	StepExtract  = "extract"
	StepSection  = "section"
	StepEntities = "entities"
)

// Steps returns all stage names in execution order.
func Steps() []string { return []string{StepExtract, StepSection, StepEntities} }

// StageResult reports one stage of a Run.
type StageResult struct {
	Step    string `json:"step"`
	Rows    int    `json:"rows"`
	Skipped bool   `json:"skipped,omitempty"`
}

// Pipeline binds the processing engines to a store.
type Pipeline struct {
	store    *store.Store
	log      *slog.Logger
	sections *section.Engine
	entities *entities.Engine
}

func New(st *store.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    st,
		log:      logger,
		sections: section.NewEngine(),
		entities: entities.NewEngine(),
	}
}

// Extract reads the document's source file, composes the offset-indexed
// full text and replaces the stored extraction. Returns the page count.
func (p *Pipeline) Extract(docID string) (int, error) {
	doc, err := p.store.GetDoc(docID)
	if err != nil {
		return 0, err
	}
	if doc == nil {
		return 0, fault.New(fault.NoDoc, "document %s is not ingested", docID)
	}

	res, err := extract.FromFile(doc.SrcPath)
	if err != nil {
		return 0, err
	}
	text := docmodel.Compose(res.Pages)
	err = p.store.ReplaceExtraction(model.Document{
		ID:        docID,
		FullText:  text.Full,
		PageCount: len(res.Pages),
		Scanned:   text.Scanned,
		Producer:  res.Producer,
	}, text.Pages)
	if err != nil {
		return 0, err
	}
	return len(text.Pages), nil
}

// Section partitions the stored full text into sections and replaces the
// stored set. Returns the section count; a cue-free document yields zero.
func (p *Pipeline) Section(docID string) (int, error) {
	full, err := p.requireText(docID)
	if err != nil {
		return 0, err
	}
	secs := p.sections.Partition(full)
	if err := p.store.ReplaceSections(docID, secs); err != nil {
		return 0, err
	}
	return len(secs), nil
}

// Entities runs the recognizer families over the stored sections and
// replaces the stored entity set. Without sections there are no entities.
func (p *Pipeline) Entities(docID string) (int, error) {
	full, err := p.requireText(docID)
	if err != nil {
		return 0, err
	}
	secs, err := p.store.GetSections(docID)
	if err != nil {
		return 0, err
	}
	ents := p.entities.Recognize(full, secs)
	if err := p.store.ReplaceEntities(docID, ents); err != nil {
		return 0, err
	}
	return len(ents), nil
}

// requireText loads the extracted full text, distinguishing an unknown
// document from one that has no text yet.
func (p *Pipeline) requireText(docID string) (string, error) {
	doc, err := p.store.GetDoc(docID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", fault.New(fault.NoDoc, "document %s is not ingested", docID)
	}
	full, err := p.store.GetFullText(docID)
	if err != nil {
		return "", err
	}
	if full == "" {
		return "", fault.New(fault.NoText, "document %s has no extracted text", docID)
	}
	return full, nil
}

// Run executes the named stages in pipeline order. A stage whose output
// already exists is skipped unless listed in force. Empty steps means all
// stages.
func (p *Pipeline) Run(docID string, steps []string, force map[string]bool) ([]StageResult, error) {
	if len(steps) == 0 {
		steps = Steps()
	}
	runID := idgen.New()
	log := p.log.With("run_id", runID, "doc_id", docID)

	var results []StageResult
	for _, step := range steps {
		done, err := p.stageDone(docID, step)
		if err != nil {
			return results, err
		}
		if done && !force[step] {
			log.Info("stage skipped", "step", step)
			results = append(results, StageResult{Step: step, Skipped: true})
			continue
		}

		started := time.Now()
		var rows int
		switch step {
		case StepExtract:
			rows, err = p.Extract(docID)
		case StepSection:
			rows, err = p.Section(docID)
		case StepEntities:
			rows, err = p.Entities(docID)
		default:
			return results, fault.New(fault.Unsupported, "unknown pipeline step %q", step)
		}
		if err != nil {
			log.Error("stage failed", "step", step, "error", err)
			return results, err
		}
		log.Info("stage done", "step", step, "rows", rows, "elapsed", time.Since(started))
		results = append(results, StageResult{Step: step, Rows: rows})
	}
	return results, nil
}

// stageDone probes whether a stage already has output for the document.
func (p *Pipeline) stageDone(docID, step string) (bool, error) {
	switch step {
	case StepExtract:
		full, err := p.store.GetFullText(docID)
		return full != "", err
	case StepSection:
		n, err := p.store.CountSections(docID)
		return n > 0, err
	case StepEntities:
		n, err := p.store.CountEntities(docID)
		return n > 0, err
	}
	return false, nil
}
