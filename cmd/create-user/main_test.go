package main

import (
	"testing"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) options {
	t.Helper()
	var opts options
	require.NoError(t, newFlagSet(&opts).Parse(args))
	return opts
}

func TestInput_Defaults(t *testing.T) {
	in, err := parse(t, "--username", "alice").input()
	require.NoError(t, err)

	assert.Equal(t, "alice", in.Username)
	assert.Equal(t, policy.RoleMember, in.Role)
	assert.Equal(t, "alice@example.com", in.Email)
	assert.Empty(t, in.Password)
}

func TestInput_AllFlags(t *testing.T) {
	in, err := parse(t,
		"-u", "bob",
		"-p", "password123",
		"--email", "bob@deskhub.io",
		"-r", "Staff",
		"--first-name", "Bob",
		"--last-name", "Builder",
		"--phone", "+44 20 7946 0000",
		"--company", "Acme",
	).input()
	require.NoError(t, err)

	assert.Equal(t, "bob@deskhub.io", in.Email)
	assert.Equal(t, "password123", in.Password)
	assert.Equal(t, policy.RoleStaff, in.Role)
	assert.Equal(t, "Bob", in.FirstName)
	assert.Equal(t, "Builder", in.LastName)
	assert.Equal(t, "+44 20 7946 0000", in.Phone)
	assert.Equal(t, "Acme", in.Company)
}

func TestInput_UnknownRole(t *testing.T) {
	_, err := parse(t, "-u", "carol", "-r", "owner").input()
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
