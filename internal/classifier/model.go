package classifier

import "time"

// Status of a classification task
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Task records one document's trip through the classification service
type Task struct {
	ID             string            `bson:"id" json:"id"`
	DocumentID     string            `bson:"document_id" json:"document_id"`
	Status         Status            `bson:"status" json:"status"`
	Classification string            `bson:"classification,omitempty" json:"classification,omitempty"`
	SubFields      map[string]string `bson:"sub_fields,omitempty" json:"sub_fields,omitempty"`
	Label          string            `bson:"label,omitempty" json:"label,omitempty"`
	Message        string            `bson:"message,omitempty" json:"message,omitempty"`
	QueuedDate     time.Time         `bson:"queued_date" json:"queued_date"`
}

// Result is the classifier service's verdict for one document
type Result struct {
	Classification string            `json:"classification"`
	SubFields      map[string]string `json:"sub_classification"`
	Label          string            `json:"sub_classification_label"`
}
