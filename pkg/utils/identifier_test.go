package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIdentifier(t *testing.T) {
	tests := []struct {
		name         string
		fingerprint  string
		forwardedFor string
		want         string
	}{
		{"fingerprint wins over forwarded-for", "abc", "1.2.3.4, 5.6.7.8", "abc"},
		{"fingerprint alone", "abc", "", "abc"},
		{"first forwarded address", "", "1.2.3.4, 5.6.7.8", "1.2.3.4"},
		{"single forwarded address with spaces", "", "  9.9.9.9  ", "9.9.9.9"},
		{"empty first forwarded entry", "", " ,5.6.7.8", "127.0.0.1"},
		{"nothing present", "", "", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveIdentifier(tt.fingerprint, tt.forwardedFor))
		})
	}
}

func TestCapitalizeFirst(t *testing.T) {
	assert.Equal(t, "", CapitalizeFirst(""))
	assert.Equal(t, "Cat in a hat", CapitalizeFirst("cat in a hat"))
	assert.Equal(t, "Already", CapitalizeFirst("Already"))
}

func TestPositiveIntOr(t *testing.T) {
	assert.Equal(t, 3, PositiveIntOr("3", 9))
	assert.Equal(t, 9, PositiveIntOr("", 9))
	assert.Equal(t, 9, PositiveIntOr("-2", 9))
	assert.Equal(t, 9, PositiveIntOr("abc", 9))
}
