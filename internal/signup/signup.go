// Package signup validates community signup submissions and describes
// where valid submissions should be relayed.
package signup

import (
	"fmt"
	"regexp"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	addressRe  = regexp.MustCompile(`^T[A-Za-z0-9]{33}$`)
)

const minPasswordLength = 8

// Submission is a community signup form in either of its two shapes.
// The registration shape carries contact details, areas of interest
// and a terms agreement; the account shape carries credentials and an
// optional wallet address.
type Submission struct {
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	Email      string   `json:"email"`
	Experience string   `json:"experience"`
	Country    string   `json:"country"`
	Agreement  string   `json:"agreement"`
	Interests  []string `json:"interests"`

	Username    string `json:"username"`
	Password    string `json:"password"`
	TronAddress string `json:"tronAddress"`
}

// Form returns which shape the submission is, "account" when
// credentials are present and "registration" otherwise.
func (s *Submission) Form() string {
	if s.Username != "" || s.Password != "" {
		return "account"
	}

	return "registration"
}

// Validate checks the submission against the rules of its shape. The
// first violated rule is returned; a nil error means the submission
// is acceptable for relay.
func (s *Submission) Validate() error {
	if s.Form() == "account" {
		return s.validateAccount()
	}

	return s.validateRegistration()
}

func (s *Submission) validateRegistration() error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"firstName", s.FirstName},
		{"lastName", s.LastName},
		{"email", s.Email},
		{"experience", s.Experience},
		{"country", s.Country},
	} {
		if field.value == "" {
			return fmt.Errorf("Missing required field: %s", field.name)
		}
	}

	// Checkbox semantics, anything but the literal "on" counts as
	// unchecked.
	if s.Agreement != "on" {
		return fmt.Errorf("Missing required field: agreement")
	}

	if len(s.Interests) == 0 {
		return fmt.Errorf("At least one area of interest must be selected")
	}

	return nil
}

func (s *Submission) validateAccount() error {
	if !usernameRe.MatchString(s.Username) {
		return fmt.Errorf("Username must be 3-20 characters, letters, numbers and underscores only")
	}

	if !emailRe.MatchString(s.Email) {
		return fmt.Errorf("Invalid email address")
	}

	if len(s.Password) < minPasswordLength {
		return fmt.Errorf("Password must be at least 8 characters")
	}

	if s.TronAddress != "" && !addressRe.MatchString(s.TronAddress) {
		return fmt.Errorf("Invalid TRON address")
	}

	return nil
}

// RelayConfig lists the external destinations a valid submission can
// be forwarded to. All fields are optional.
type RelayConfig struct {
	GoogleFormsURL string `yaml:"google_forms_url"`
	WebhookURL     string `yaml:"webhook_url"`
	FormspreeURL   string `yaml:"formspree_url"`
}

// ConfiguredMethods returns the names of the relay destinations that
// have been configured.
func (c *RelayConfig) ConfiguredMethods() []string {
	methods := []string{}

	if c.GoogleFormsURL != "" {
		methods = append(methods, "google-forms")
	}

	if c.WebhookURL != "" {
		methods = append(methods, "webhook")
	}

	if c.FormspreeURL != "" {
		methods = append(methods, "formspree")
	}

	return methods
}

// Message returns the acknowledgement for a valid submission,
// reflecting whether any relay destination is configured.
func (c *RelayConfig) Message() string {
	if len(c.ConfiguredMethods()) == 0 {
		return "Signup received. Configure a relay destination to forward submissions."
	}

	return "Signup received successfully."
}
