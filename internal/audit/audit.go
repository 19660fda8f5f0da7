package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

const collection = "auditlog"

// Event is one audit log record. OldData/NewData hold JSON snapshots of the
// entity before and after the mutation.
type Event struct {
	Description string    `bson:"description"`
	Collection  string    `bson:"table"`
	RecordID    string    `bson:"record_id"`
	Username    string    `bson:"username"`
	AdminUser   bool      `bson:"admin_user"`
	EventDate   time.Time `bson:"event_date"`
	Success     bool      `bson:"success"`
	Message     string    `bson:"message,omitempty"`
	OldData     string    `bson:"old_data,omitempty"`
	NewData     string    `bson:"new_data,omitempty"`
}

// Logger writes audit events. When disabled every call is a no-op; a failed
// insert is logged and swallowed so auditing can never fail an operation.
type Logger struct {
	coll    *mongo.Collection
	enabled bool
}

func NewLogger(database *mongo.Database, enabled bool) *Logger {
	return &Logger{coll: database.Collection(collection), enabled: enabled}
}

func (l *Logger) Record(ctx context.Context, event Event) {
	if l == nil || !l.enabled {
		return
	}
	event.EventDate = time.Now().UTC()
	if _, err := l.coll.InsertOne(ctx, event); err != nil {
		log.Printf("audit insert failed for %s/%s: %v", event.Collection, event.RecordID, err)
	}
}

// Snapshot renders an entity for the old_data/new_data fields
func Snapshot(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
