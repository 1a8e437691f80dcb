package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordValidator_ValidateEmail(t *testing.T) {
	validator := NewPasswordValidator()

	tests := []struct {
		name        string
		email       string
		wantErr     bool
		expectedErr string
	}{
		{name: "valid email", email: "ana@acme.com"},
		{name: "valid with plus", email: "ana+obra@acme.com.br"},
		{name: "empty", email: "", wantErr: true, expectedErr: "email is required"},
		{name: "no domain", email: "ana", wantErr: true, expectedErr: "email is malformed"},
		{name: "display name", email: "Ana <ana@acme.com>", wantErr: true, expectedErr: "email is malformed"},
		{
			name:        "too long",
			email:       strings.Repeat("a", 250) + "@a.io",
			wantErr:     true,
			expectedErr: "email must be at most 254 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateEmail(tt.email)

			if tt.wantErr {
				assert.EqualError(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPasswordValidator_ValidatePassword(t *testing.T) {
	validator := NewPasswordValidator()

	tests := []struct {
		name        string
		password    string
		expectedErr string
	}{
		{name: "valid", password: "Ancoragem2024"},
		{name: "too short", password: "Ab1", expectedErr: "password must be at least 8 characters"},
		{name: "no lowercase", password: "ANCORAGEM2024", expectedErr: "password must contain at least one lowercase letter"},
		{name: "no uppercase", password: "ancoragem2024", expectedErr: "password must contain at least one uppercase letter"},
		{name: "no digit", password: "Ancoragemmm", expectedErr: "password must contain at least one digit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidatePassword(tt.password)

			if tt.expectedErr != "" {
				assert.EqualError(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPasswordValidator_ValidateRegister(t *testing.T) {
	validator := NewPasswordValidator()

	assert.NoError(t, validator.ValidateRegister("ana@acme.com", "Ancoragem2024"))
	assert.ErrorContains(t, validator.ValidateRegister("bad", "Ancoragem2024"), "email validation failed")
	assert.ErrorContains(t, validator.ValidateRegister("ana@acme.com", "short"), "password validation failed")
}
