package document

import "time"

// Document is one produced discovery artifact. The path is globally unique;
// path and ownership fields are immutable after creation.
type Document struct {
	ID                     string            `bson:"id" json:"id"`
	Path                   string            `bson:"path" json:"path"`
	Filename               string            `bson:"filename" json:"filename"`
	Type                   string            `bson:"type" json:"type"`
	Title                  string            `bson:"title" json:"title"`
	CreateDate             time.Time         `bson:"create_date" json:"create_date"`
	DocumentDate           string            `bson:"document_date" json:"document_date"`
	ProducedDate           string            `bson:"produced_date" json:"produced_date"`
	BeginningBates         string            `bson:"beginning_bates" json:"beginning_bates"`
	EndingBates            string            `bson:"ending_bates" json:"ending_bates"`
	PageCount              int               `bson:"page_count" json:"page_count"`
	Classification         string            `bson:"classification" json:"classification"`
	SubClassification      map[string]string `bson:"sub_classification" json:"sub_classification"`
	SubClassificationLabel string            `bson:"sub_classification_label" json:"sub_classification_label"`
	AddedUsername          string            `bson:"added_username" json:"added_username"`
	AddedDate              time.Time         `bson:"added_date" json:"added_date"`
	UpdatedUsername        string            `bson:"updated_username" json:"updated_username"`
	UpdatedDate            time.Time         `bson:"updated_date" json:"updated_date"`
	Version                string            `bson:"version" json:"version"`
}

func (d Document) EntityID() string {
	return d.ID
}

// Update carries the mutable field allow-list. Path, ownership and the
// timestamps are deliberately absent; they cannot be overwritten through an
// update.
type Update struct {
	BeginningBates string `json:"beginning_bates"`
	EndingBates    string `json:"ending_bates"`
	DocumentDate   string `json:"document_date"`
	ProducedDate   string `json:"produced_date"`
	PageCount      int    `json:"page_count"`
	Title          string `json:"title"`
	Type           string `json:"type"`
	Classification string `json:"classification"`
}

// ExtendedProperties holds the extracted content for one document, 1:1 by
// document id. It is never independently authorizable; callers reach it only
// through its document.
type ExtendedProperties struct {
	ID             string         `bson:"id" json:"id"`
	Images         []string       `bson:"images,omitempty" json:"images,omitempty"`
	Text           string         `bson:"text,omitempty" json:"text,omitempty"`
	CleanText      string         `bson:"clean_text,omitempty" json:"clean_text,omitempty"`
	Props          map[string]any `bson:"props,omitempty" json:"props,omitempty"`
	Tables         map[string]any `bson:"tables,omitempty" json:"tables,omitempty"`
	JobID          string         `bson:"job_id,omitempty" json:"job_id,omitempty"`
	ExtractionType string         `bson:"extraction_type,omitempty" json:"extraction_type,omitempty"`
}

func (p ExtendedProperties) EntityID() string {
	return p.ID
}

// PropsUpdate is a partial ExtendedProperties payload. Upserts merge it field
// by field; a nil field leaves the stored value untouched, so a partial update
// cannot erase unrelated extracted data.
type PropsUpdate struct {
	Images         []string       `json:"images"`
	Text           *string        `json:"text"`
	CleanText      *string        `json:"clean_text"`
	Props          map[string]any `json:"props"`
	Tables         map[string]any `json:"tables"`
	JobID          *string        `json:"job_id"`
	ExtractionType *string        `json:"extraction_type"`
}
