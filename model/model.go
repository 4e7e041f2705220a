// Package model defines the shared records of the medqc pipeline:
// documents, pages, sections and extracted entities. All offsets are byte
// offsets into the document's UTF-8 full text, half-open [Start, End).
package model

import "encoding/json"

// SectionKind is the semantic category of a section, from a fixed vocabulary.
type SectionKind string

const (
	KindAdmit       SectionKind = "admit"
	KindTriage      SectionKind = "triage"
	KindInitialExam SectionKind = "initial_exam"
	KindDailyNote   SectionKind = "daily_note"
	KindPlan        SectionKind = "plan"
	KindOrders      SectionKind = "orders"
	KindVitals      SectionKind = "vitals"
	KindECG         SectionKind = "ecg"
	KindEpicrisis   SectionKind = "epicrisis"
	KindNone        SectionKind = ""
)

// EntityType is the type tag of an extracted entity.
type EntityType string

const (
	TypeDatetime   EntityType = "datetime"
	TypeDiagnosis  EntityType = "diagnosis"
	TypeMedication EntityType = "medication"
	TypeVital      EntityType = "vital"
)

// Document is the root record for one ingested clinical document.
// FullText is immutable once extracted; re-extraction replaces it wholesale.
type Document struct {
	ID        string `json:"doc_id"`
	FullText  string `json:"-"`
	PageCount int    `json:"page_count"`
	Scanned   bool   `json:"is_scanned"`
	Producer  string `json:"producer,omitempty"`
}

// Page locates one extracted page inside the document's full text.
// Pages are contiguous in page-number order; the last page's End equals
// len(FullText).
type Page struct {
	Number int `json:"pageno"`
	Start  int `json:"start"`
	End    int `json:"end"`
}

// Section is a contiguous, non-overlapping labeled span of the full text.
// IDs are sequential within a document ("S1".."Sn", in start order).
type Section struct {
	ID    string      `json:"section_id"`
	Label string      `json:"name"`
	Kind  SectionKind `json:"kind"`
	Start int         `json:"start"`
	End   int         `json:"end"`
}

// Contains reports whether the half-open span [start, end) lies inside
// the section.
func (s Section) Contains(start, end int) bool {
	return s.Start <= start && start < end && end <= s.End
}

// Entity is a typed, position-anchored fact extracted from text. SectionID
// is empty when the entity is not scoped to a section. Value holds the
// type-specific payload as JSON.
type Entity struct {
	Type       EntityType      `json:"etype"`
	SectionID  string          `json:"section_id,omitempty"`
	Start      int             `json:"start"`
	End        int             `json:"end"`
	Value      json.RawMessage `json:"value"`
	Source     string          `json:"source"`
	Confidence float64         `json:"confidence"`
}

// DatetimeValue is the payload of a datetime entity. ISO is empty when the
// matched text could not be normalized.
type DatetimeValue struct {
	Raw string `json:"raw"`
	ISO string `json:"iso,omitempty"`
}

// DiagnosisValue is the payload of a diagnosis entity.
type DiagnosisValue struct {
	ICD string `json:"icd"`
}

// MedicationValue is the payload of a medication entity. Dose, Route and
// Freq are independently optional; Text is the full order line.
type MedicationValue struct {
	Text  string `json:"text"`
	Dose  string `json:"dose,omitempty"`
	Route string `json:"route,omitempty"`
	Freq  string `json:"freq,omitempty"`
}

// Vital kind tags.
const (
	VitalTemperature   = "temperature"
	VitalBloodPressure = "blood_pressure"
	VitalSpO2          = "spo2"
)

// VitalValue is the payload of a vital entity. Value is set for temperature
// and spo2; Systolic/Diastolic for blood pressure.
type VitalValue struct {
	Kind      string  `json:"kind"`
	Value     float64 `json:"value,omitempty"`
	Systolic  int     `json:"systolic,omitempty"`
	Diastolic int     `json:"diastolic,omitempty"`
	Unit      string  `json:"unit,omitempty"`
}
