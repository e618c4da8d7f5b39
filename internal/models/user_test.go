package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid user",
			user:    User{Name: "Ana Souza", Email: "ana@example.com", Role: RoleUser},
			wantErr: false,
		},
		{
			name:    "valid admin",
			user:    User{Name: "Root", Email: "root@example.com", Role: RoleAdmin},
			wantErr: false,
		},
		{
			name:    "missing name",
			user:    User{Name: "  ", Email: "ana@example.com", Role: RoleUser},
			wantErr: true,
			errMsg:  "name is required",
		},
		{
			name:    "missing email",
			user:    User{Name: "Ana", Role: RoleUser},
			wantErr: true,
			errMsg:  "email is required",
		},
		{
			name:    "invalid email",
			user:    User{Name: "Ana", Email: "not-an-email", Role: RoleUser},
			wantErr: true,
			errMsg:  "invalid email format",
		},
		{
			name:    "invalid role",
			user:    User{Name: "Ana", Email: "ana@example.com", Role: "owner"},
			wantErr: true,
			errMsg:  "invalid role: owner",
		},
	}

	for i := range tests {
		tt := &tests[i]
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr {
				assert.EqualError(t, err, tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUser_IncrementFailedAttempts(t *testing.T) {
	user := &User{}

	assert.False(t, user.IncrementFailedAttempts(3))
	assert.False(t, user.IncrementFailedAttempts(3))
	assert.False(t, user.IsLocked())

	assert.True(t, user.IncrementFailedAttempts(3))
	assert.True(t, user.IsLocked())
	assert.Equal(t, 3, user.FailedLoginAttempts)

	// already locked users do not report a new lock
	assert.False(t, user.IncrementFailedAttempts(3))
}

func TestUser_RecordLoginResetsAttempts(t *testing.T) {
	user := &User{FailedLoginAttempts: 2}

	user.RecordLogin()

	assert.Zero(t, user.FailedLoginAttempts)
	assert.NotNil(t, user.LastLoginAt)
}

func TestUser_Unlock(t *testing.T) {
	user := &User{}
	user.IncrementFailedAttempts(1)
	assert.True(t, user.IsLocked())

	user.Unlock()

	assert.False(t, user.IsLocked())
	assert.Zero(t, user.FailedLoginAttempts)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
}
