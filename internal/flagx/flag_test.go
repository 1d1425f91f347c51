package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		allowed  []string
		expected []string
	}{
		{
			name:     "keeps allowed flag with separate value",
			args:     []string{"-c", "conf.json", "-x", "other"},
			allowed:  []string{"-c"},
			expected: []string{"-c", "conf.json"},
		},
		{
			name:     "keeps allowed flag with equals value",
			args:     []string{"--config=conf.json", "-x=1"},
			allowed:  []string{"--config"},
			expected: []string{"--config=conf.json"},
		},
		{
			name:     "drops unknown flags",
			args:     []string{"-a", "1", "-b", "2"},
			allowed:  []string{"-c"},
			expected: []string{},
		},
		{
			name:     "flag at end without value",
			args:     []string{"-d", "path", "-o"},
			allowed:  []string{"-d", "-o"},
			expected: []string{"-d", "path", "-o"},
		},
		{
			name:     "value starting with dash is not consumed",
			args:     []string{"-o", "-d", "notes.db"},
			allowed:  []string{"-o", "-d"},
			expected: []string{"-o", "-d", "notes.db"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("long flag", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", "a.json"}
		assert.Equal(t, "a.json", JsonConfigFlags())
	})

	t.Run("short flag", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "b.json"}
		assert.Equal(t, "b.json", JsonConfigFlags())
	})

	t.Run("absent", func(t *testing.T) {
		os.Args = []string{"testbin"}
		assert.Equal(t, "", JsonConfigFlags())
	})
}
