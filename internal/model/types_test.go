package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionValid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var nilSession *Session
	assert.False(t, nilSession.Valid(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Hour)}).Valid(now), "no token")
	assert.False(t, (&Session{Token: "t"}).Valid(now), "no expiry")
	assert.False(t, (&Session{Token: "t", ExpiresAt: now}).Valid(now), "expires exactly now")
	assert.False(t, (&Session{Token: "t", ExpiresAt: now.Add(-time.Second)}).Valid(now))
	assert.True(t, (&Session{Token: "t", ExpiresAt: now.Add(time.Second)}).Valid(now))
}

func TestRoleFor(t *testing.T) {
	assert.Equal(t, RoleManagement, RoleFor("2"))
	assert.Equal(t, RoleManagement, RoleFor(" 2 "))
	assert.Equal(t, RoleStandard, RoleFor("1"))
	assert.Equal(t, RoleStandard, RoleFor(""))
	assert.Equal(t, RoleStandard, RoleFor("22"))
	assert.Equal(t, "management", RoleManagement.String())
}

func TestPageNormalize(t *testing.T) {
	p := Page[int]{CurrentPage: 0, LastPage: 0}
	p.Normalize()
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, 1, p.LastPage)

	p = Page[int]{CurrentPage: 4, LastPage: 2}
	p.Normalize()
	assert.Equal(t, 4, p.LastPage)

	p = Page[int]{CurrentPage: 2, LastPage: 7}
	p.Normalize()
	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, 7, p.LastPage)
}

func TestProfileEmployeeType(t *testing.T) {
	var p Profile
	require.NoError(t, json.Unmarshal([]byte(`{"token":"x","name":"Rina","phone":"01711111111","employee_type":2}`), &p))
	assert.Equal(t, EmployeeType("2"), p.EmployeeType)

	require.NoError(t, json.Unmarshal([]byte(`{"employee_type":"1"}`), &p))
	assert.Equal(t, EmployeeType("1"), p.EmployeeType)

	require.NoError(t, json.Unmarshal([]byte(`{"employee_type":null}`), &p))
	assert.Equal(t, EmployeeType(""), p.EmployeeType)

	assert.Error(t, json.Unmarshal([]byte(`{"employee_type":true}`), &p))
}

func TestSplitSerials(t *testing.T) {
	assert.Equal(t, []string{"A1", "B2", "C3"}, SplitSerials(" A1, B2,,C3 ,"))
	assert.Empty(t, SplitSerials(""))
	assert.Equal(t, []string{"X"}, InvoiceLine{SerialNo: "X"}.Serials())
	assert.Equal(t, "A1,B2", JoinSerials([]string{"A1", "B2"}))
}
