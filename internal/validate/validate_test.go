package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	UserID string `validate:"required,numeric"`
	IP     string `validate:"required,ip"`
}

func TestStructValid(t *testing.T) {
	assert.NoError(t, Struct(payload{UserID: "123", IP: "203.0.113.9"}))
	assert.NoError(t, Struct(payload{UserID: "123", IP: "2001:db8::1"}))
}

func TestStructReportsEveryField(t *testing.T) {
	err := Struct(payload{UserID: "abc", IP: "not-an-ip"})
	require.Error(t, err)
	assert.Equal(t, "field 'UserID' failed 'numeric'; field 'IP' failed 'ip'", err.Error())
}
