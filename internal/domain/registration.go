package domain

import (
	"strings"
	"time"
)

// AddressSeparator joins postal code and address lines. It is a full-width bar
// so it never collides with the ASCII characters users type into the form.
const AddressSeparator = "｜"

// PendingRegistration is the state of one report signup between registration
// and SMS verification. PK: email. ExpiresAt doubles as the DynamoDB TTL.
type PendingRegistration struct {
	Email              string    `json:"email" dynamodbav:"email"`
	Name               string    `json:"name" dynamodbav:"name"`
	Address            string    `json:"address" dynamodbav:"address"`
	DisclaimerAccepted bool      `json:"disclaimer_accepted" dynamodbav:"disclaimer_accepted"`
	Phone              string    `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Verified           bool      `json:"verified,omitempty" dynamodbav:"verified"`
	CreatedAt          time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt          time.Time `json:"expires_at" dynamodbav:"expires_at"`
}

// Expired reports whether rec can no longer be consumed at now.
func (r *PendingRegistration) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// HasPhone reports whether the phone step has completed.
func (r *PendingRegistration) HasPhone() bool { return r.Phone != "" }

// PostalCode returns the first segment of the composed address.
func (r *PendingRegistration) PostalCode() string {
	postal, _ := SplitAddress(r.Address)
	return postal
}

// NormalizeEmail trims and lower-cases an email so it can be used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePostalCode removes hyphens (ASCII and full-width) and spaces.
func NormalizePostalCode(code string) string {
	return strings.NewReplacer("-", "", "－", "", "ー", "", " ", "", "　", "").Replace(strings.TrimSpace(code))
}

// ComposeAddress joins the non-empty parts with AddressSeparator.
func ComposeAddress(postalCode, line1, line2 string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{postalCode, line1, line2} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, AddressSeparator)
}

// SplitAddress returns the postal code and the address lines joined by a space.
func SplitAddress(address string) (postalCode, lines string) {
	parts := strings.Split(address, AddressSeparator)
	return parts[0], strings.Join(parts[1:], " ")
}
