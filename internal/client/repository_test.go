package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateSet_OmittedEnabledIsNotWritten(t *testing.T) {
	set := updateSet(Update{Name: "Doe v. Doe", BillingNumber: "BN-100"})

	_, present := set["enabled"]
	assert.False(t, present, "an update without the enabled field must not touch the stored flag")
	assert.Equal(t, "Doe v. Doe", set["name"])
	assert.Equal(t, "BN-100", set["billing_number"])
}

func TestUpdateSet_ExplicitEnabledIsWritten(t *testing.T) {
	enabled := false
	set := updateSet(Update{Name: "Doe v. Doe", Enabled: &enabled})

	assert.Equal(t, false, set["enabled"])
}
