package discovery

// DiscoveryFile is one served discovery instrument (a production request,
// interrogatory set, disclosure or admission set) for a client.
type DiscoveryFile struct {
	ID            string `bson:"id" json:"id"`
	ClientID      string `bson:"client_id" json:"client_id"`
	DiscoveryType string `bson:"discovery_type" json:"discovery_type"`
	ServiceDate   string `bson:"service_date" json:"service_date"`
	DueDate       string `bson:"due_date,omitempty" json:"due_date,omitempty"`
	PartyName     string `bson:"party_name" json:"party_name"`
	CreatedBy     string `bson:"created_by" json:"created_by"`
	CreateDate    string `bson:"create_date" json:"create_date"`
	Version       string `bson:"version" json:"version"`
}

func (f DiscoveryFile) EntityID() string {
	return f.ID
}

// FileUpdate carries the mutable DiscoveryFile fields
type FileUpdate struct {
	DiscoveryType string `json:"discovery_type"`
	ServiceDate   string `json:"service_date"`
	DueDate       string `json:"due_date"`
	PartyName     string `json:"party_name"`
}

// FileSummary is a DiscoveryFile with its request counts joined in
type FileSummary struct {
	DiscoveryFile `bson:",inline"`
	RequestCount  int `bson:"request_count" json:"request_count"`
	ResponseCount int `bson:"response_count" json:"response_count"`
}

// DiscoveryRequest is one numbered request within a discovery file. It has no
// client_id of its own; the owning client is always resolved through the
// parent file.
type DiscoveryRequest struct {
	ID                        string   `bson:"id" json:"id"`
	FileID                    string   `bson:"file_id" json:"file_id"`
	RequestNumber             int      `bson:"request_number" json:"request_number"`
	RequestText               string   `bson:"request_text" json:"request_text"`
	LookbackDate              string   `bson:"lookback_date,omitempty" json:"lookback_date,omitempty"`
	Interpretations           []string `bson:"interpretations" json:"interpretations"`
	Privileges                []string `bson:"privileges" json:"privileges"`
	Objections                []string `bson:"objections" json:"objections"`
	Response                  string   `bson:"response,omitempty" json:"response,omitempty"`
	ResponsiveClassifications []string `bson:"responsive_classifications" json:"responsive_classifications"`
	CreatedBy                 string   `bson:"created_by" json:"created_by"`
	CreateDate                string   `bson:"create_date" json:"create_date"`
	LastUpdatedBy             string   `bson:"last_updated_by,omitempty" json:"last_updated_by,omitempty"`
	LastUpdatedDate           string   `bson:"last_updated_date,omitempty" json:"last_updated_date,omitempty"`
	Version                   string   `bson:"version" json:"version"`
}

func (r DiscoveryRequest) EntityID() string {
	return r.ID
}

// RequestUpdate carries the mutable DiscoveryRequest fields. The file_id is
// immutable; a request never moves between files.
type RequestUpdate struct {
	RequestNumber             int      `json:"request_number"`
	RequestText               string   `json:"request_text"`
	LookbackDate              string   `json:"lookback_date"`
	Interpretations           []string `json:"interpretations"`
	Privileges                []string `json:"privileges"`
	Objections                []string `json:"objections"`
	Response                  string   `json:"response"`
	ResponsiveClassifications []string `json:"responsive_classifications"`
}

// ServiceListEntry is one row of the request service list: all requests of
// one discovery type served by one party on one date for a client, with how
// many have responses.
type ServiceListEntry struct {
	ClientID      string `bson:"client_id" json:"client_id"`
	DiscoveryType string `bson:"discovery_type" json:"discovery_type"`
	PartyName     string `bson:"party_name" json:"party_name"`
	ServiceDate   string `bson:"service_date" json:"service_date"`
	ServedCount   int    `bson:"served_count" json:"served_count"`
	RespondedCount int   `bson:"responded_count" json:"responded_count"`
}
