package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToE164(t *testing.T) {
	cases := []struct {
		in, cc, want string
	}{
		{"09012345678", "81", "+819012345678"},
		{"090 1234 5678", "81", "+819012345678"},
		{"090-1234-5678", "+81", "+819012345678"},
		{"+15551234567", "81", "+15551234567"},
		{"9012345678", "81", "+819012345678"},
		{"0012345", "81", "+81012345"}, // only one trunk zero is stripped
		{"   ", "81", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToE164(tc.in, tc.cc), tc.in)
	}
}

func TestToE164_Idempotent(t *testing.T) {
	once := ToE164("09012345678", "81")
	assert.Equal(t, once, ToE164(once, "81"))
}
