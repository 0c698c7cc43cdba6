package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSelector(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"id:foo", "#foo"},
		{"name:bar", `[name="bar"]`},
		{"id:", "#"},
		{"name:", `[name=""]`},
		{"#already-css", "#already-css"},
		{"input[type=email]", "input[type=email]"},
		{"ID:upper", "ID:upper"},
		{" id:space", " id:space"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSelector(tt.raw))
		})
	}
}
