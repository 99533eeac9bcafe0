package signup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() Submission {
	return Submission{
		FirstName:  "A",
		LastName:   "B",
		Email:      "a@b.com",
		Experience: "x",
		Country:    "US",
		Agreement:  "on",
		Interests:  []string{"dapp-development"},
	}
}

func TestValidateRegistration(t *testing.T) {
	sub := validRegistration()

	require.NoError(t, sub.Validate())
	assert.Equal(t, "registration", sub.Form())
}

func TestValidateRegistrationMissingFields(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Submission)
		expected string
	}{
		{
			name:     "missing first name",
			mutate:   func(s *Submission) { s.FirstName = "" },
			expected: "Missing required field: firstName",
		},
		{
			name:     "missing last name",
			mutate:   func(s *Submission) { s.LastName = "" },
			expected: "Missing required field: lastName",
		},
		{
			name:     "missing email",
			mutate:   func(s *Submission) { s.Email = "" },
			expected: "Missing required field: email",
		},
		{
			name:     "missing experience",
			mutate:   func(s *Submission) { s.Experience = "" },
			expected: "Missing required field: experience",
		},
		{
			name:     "missing country",
			mutate:   func(s *Submission) { s.Country = "" },
			expected: "Missing required field: country",
		},
		{
			name:     "missing agreement",
			mutate:   func(s *Submission) { s.Agreement = "" },
			expected: "Missing required field: agreement",
		},
		{
			name:     "agreement not literal on",
			mutate:   func(s *Submission) { s.Agreement = "true" },
			expected: "Missing required field: agreement",
		},
		{
			name:     "no interests",
			mutate:   func(s *Submission) { s.Interests = nil },
			expected: "At least one area of interest must be selected",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sub := validRegistration()
			test.mutate(&sub)

			err := sub.Validate()
			require.Error(t, err)
			assert.Equal(t, test.expected, err.Error())
		})
	}
}

func TestValidateAccount(t *testing.T) {
	tests := []struct {
		name    string
		sub     Submission
		wantErr string
	}{
		{
			name: "valid without address",
			sub: Submission{
				Username: "tron_fan",
				Email:    "fan@example.com",
				Password: "hunter2hunter2",
			},
		},
		{
			name: "valid with address",
			sub: Submission{
				Username:    "tron_fan",
				Email:       "fan@example.com",
				Password:    "hunter2hunter2",
				TronAddress: "TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU7",
			},
		},
		{
			name: "username too short",
			sub: Submission{
				Username: "ab",
				Email:    "fan@example.com",
				Password: "hunter2hunter2",
			},
			wantErr: "Username must be 3-20 characters, letters, numbers and underscores only",
		},
		{
			name: "username with spaces",
			sub: Submission{
				Username: "tron fan",
				Email:    "fan@example.com",
				Password: "hunter2hunter2",
			},
			wantErr: "Username must be 3-20 characters, letters, numbers and underscores only",
		},
		{
			name: "bad email",
			sub: Submission{
				Username: "tron_fan",
				Email:    "not-an-email",
				Password: "hunter2hunter2",
			},
			wantErr: "Invalid email address",
		},
		{
			name: "short password",
			sub: Submission{
				Username: "tron_fan",
				Email:    "fan@example.com",
				Password: "short",
			},
			wantErr: "Password must be at least 8 characters",
		},
		{
			name: "malformed address",
			sub: Submission{
				Username:    "tron_fan",
				Email:       "fan@example.com",
				Password:    "hunter2hunter2",
				TronAddress: "0x12345",
			},
			wantErr: "Invalid TRON address",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, "account", test.sub.Form())

			err := test.sub.Validate()
			if test.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, test.wantErr, err.Error())
			}
		})
	}
}

func TestRelayConfig(t *testing.T) {
	empty := RelayConfig{}
	assert.Empty(t, empty.ConfiguredMethods())
	assert.Equal(t,
		"Signup received. Configure a relay destination to forward submissions.",
		empty.Message())

	full := RelayConfig{
		GoogleFormsURL: "https://docs.google.com/forms/x",
		WebhookURL:     "https://hooks.example.com/signup",
		FormspreeURL:   "https://formspree.io/f/x",
	}
	assert.Equal(t,
		[]string{"google-forms", "webhook", "formspree"},
		full.ConfiguredMethods())
	assert.Equal(t, "Signup received successfully.", full.Message())
}
