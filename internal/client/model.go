package client

import (
	"strings"
	"time"
)

// Client is a law-firm client. Every other entity in the system is reachable
// only through a client the caller is authorized on.
type Client struct {
	ID              string    `bson:"id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	BillingNumber   string    `bson:"billing_number" json:"billing_number"`
	CreatedBy       string    `bson:"created_by" json:"created_by"`
	AuthorizedUsers []string  `bson:"authorized_users" json:"authorized_users"`
	Enabled         bool      `bson:"enabled" json:"enabled"`
	CreatedDate     time.Time `bson:"created_date" json:"created_date"`

	// Case metadata
	Court       string `bson:"court,omitempty" json:"court,omitempty"`
	CauseNumber string `bson:"cause_number,omitempty" json:"cause_number,omitempty"`
	County      string `bson:"county,omitempty" json:"county,omitempty"`
	USState     string `bson:"us_state,omitempty" json:"us_state,omitempty"`

	Version string `bson:"version" json:"version"`
}

func (c Client) EntityID() string {
	return c.ID
}

// HasAuthorizedUser reports membership, case-insensitively
func (c Client) HasAuthorizedUser(username string) bool {
	username = strings.ToLower(username)
	for _, u := range c.AuthorizedUsers {
		if strings.ToLower(u) == username {
			return true
		}
	}
	return false
}

// Update names exactly the fields the creator may change. The authorized_users
// set and created_by are never writable through this shape. Enabled is a
// pointer so an update that omits it leaves the stored flag untouched instead
// of silently disabling the client.
type Update struct {
	Name          string `json:"name"`
	BillingNumber string `json:"billing_number"`
	Enabled       *bool  `json:"enabled"`
	Court         string `json:"court"`
	CauseNumber   string `json:"cause_number"`
	County        string `json:"county"`
	USState       string `json:"us_state"`
}
