package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  Role
	}{
		{name: "standard user", value: "STANDARD_USER", want: RoleStandardUser},
		{name: "event admin", value: "EVENT_ADMIN", want: RoleEventAdmin},
		{name: "ultimate admin", value: "ULTIMATE_ADMIN", want: RoleUltimateAdmin},
		{name: "unknown collapses to standard", value: "SUPER_DUPER_ADMIN", want: RoleStandardUser},
		{name: "empty collapses to standard", value: "", want: RoleStandardUser},
		{name: "case sensitive", value: "event_admin", want: RoleStandardUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.value))
		})
	}
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole("STANDARD_USER"))
	assert.True(t, IsValidRole("EVENT_ADMIN"))
	assert.True(t, IsValidRole("ULTIMATE_ADMIN"))
	assert.False(t, IsValidRole(""))
	assert.False(t, IsValidRole("ADMIN"))
}

func TestHasRole(t *testing.T) {
	assert.True(t, HasRole(RoleEventAdmin, RoleEventAdmin, RoleUltimateAdmin))
	assert.False(t, HasRole(RoleStandardUser, RoleEventAdmin, RoleUltimateAdmin))
	// Empty allow-list never grants.
	assert.False(t, HasRole(RoleUltimateAdmin))
}

func TestRoleTiers(t *testing.T) {
	assert.False(t, IsEventAdmin(RoleStandardUser))
	assert.True(t, IsEventAdmin(RoleEventAdmin))
	assert.True(t, IsEventAdmin(RoleUltimateAdmin))

	assert.False(t, IsUltimateAdmin(RoleEventAdmin))
	assert.True(t, IsUltimateAdmin(RoleUltimateAdmin))
}
