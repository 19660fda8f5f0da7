package tracker

import (
	"time"
)

// Tracker is a named collection of discovery documents under one client.
// The documents list is ordered for display, but membership is what matters;
// it is mutated only through the link/unlink operations.
type Tracker struct {
	ID              string    `bson:"id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	ClientID        string    `bson:"client_id" json:"client_id"`
	BatesPattern    string    `bson:"bates_pattern" json:"bates_pattern"`
	Documents       []string  `bson:"documents" json:"documents"`
	AddedUsername   string    `bson:"added_username" json:"added_username"`
	AddedDate       time.Time `bson:"added_date" json:"added_date"`
	UpdatedUsername string    `bson:"updated_username" json:"updated_username"`
	UpdatedDate     time.Time `bson:"updated_date" json:"updated_date"`
	Version         string    `bson:"version" json:"version"`
}

func (t Tracker) EntityID() string {
	return t.ID
}

// IsLinked reports whether the document id is in the tracker's document list
func (t Tracker) IsLinked(documentID string) bool {
	for _, id := range t.Documents {
		if id == documentID {
			return true
		}
	}
	return false
}

// Update deliberately has no documents field: the restricted update shape
// cannot mass-overwrite the link list.
type Update struct {
	Name         string `json:"name"`
	BatesPattern string `json:"bates_pattern"`
}

// DatasetName selects one of the derived read-only projections
type DatasetName string

const (
	DatasetTrackerList       DatasetName = "TRACKER_LIST"
	DatasetTransfers         DatasetName = "TRANSFERS"
	DatasetDeposits          DatasetName = "DEPOSITS"
	DatasetCashBackPurchases DatasetName = "CASH_BACK_PURCHASES"
)

// DatasetResponse carries one derived dataset for a tracker
type DatasetResponse struct {
	ID          string      `json:"id"`
	DatasetName DatasetName `json:"dataset_name"`
	Data        []Row       `json:"data"`
}

// Row is one record of a derived dataset; shapes vary per dataset
type Row map[string]any

// CategoryPair is a distinct classification/sub-classification pair with its
// document count
type CategoryPair struct {
	Category    string `bson:"category" json:"category"`
	Subcategory string `bson:"subcategory" json:"subcategory"`
	Count       int    `bson:"count" json:"count"`
}

// ComplianceCell is one month's entry in the compliance matrix
type ComplianceCell struct {
	Bates string `json:"bates"`
	Path  string `json:"path"`
	ID    string `json:"id"`
	Date  string `json:"date"`
}

// ComplianceMatrix maps account key -> year -> month name -> cell. Documents
// with missing or malformed dates are skipped, never fail the aggregation.
type ComplianceMatrix map[string]map[int]map[string]*ComplianceCell
