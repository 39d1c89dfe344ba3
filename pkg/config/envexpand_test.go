package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	tests := []struct {
		name  string
		input string
		env   map[string]string
		want  string
	}{
		{
			name:  "braced substitution",
			input: "dsn: postgres://${DB_HOST}/db",
			env:   map[string]string{"DB_HOST": "localhost"},
			want:  "dsn: postgres://localhost/db",
		},
		{
			name:  "bare substitution",
			input: "key=$API_KEY",
			env:   map[string]string{"API_KEY": "secret123"},
			want:  "key=secret123",
		},
		{
			name:  "missing variable expands to empty",
			input: "endpoint=${MISSING_VAR}",
			env:   map[string]string{},
			want:  "endpoint=",
		},
		{
			name:  "multiple substitutions",
			input: "${PROTOCOL}://${HOST}:${PORT}",
			env: map[string]string{
				"PROTOCOL": "https",
				"HOST":     "example.com",
				"PORT":     "443",
			},
			want: "https://example.com:443",
		},
		{
			name:  "no variables is unchanged",
			input: "static=value",
			env:   map[string]string{},
			want:  "static=value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			result := ExpandEnv([]byte(tt.input))
			assert.Equal(t, tt.want, string(result))
		})
	}
}

func TestExpandEnvWithEmptyInput(t *testing.T) {
	result := ExpandEnv([]byte(""))
	assert.Equal(t, "", string(result))
}
