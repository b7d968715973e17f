package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{"https://portal.example.com", []string{"https://portal.example.com"}},
		{"https://a.example.com, https://b.example.com", []string{"https://a.example.com", "https://b.example.com"}},
		{" , ,", []string{"*"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseOrigins(tt.in), tt.in)
	}
}
