package wordlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "one per line",
			input:    "cat\ndog\n",
			expected: []string{"cat", "dog"},
		},
		{
			name:     "trimmed and blank lines skipped",
			input:    "  cat \r\n\n\t\ndog\t\n   \n",
			expected: []string{"cat", "dog"},
		},
		{
			name:     "duplicates kept in order",
			input:    "dog\ncat\ndog",
			expected: []string{"dog", "cat", "dog"},
		},
		{
			name:     "inner spaces kept",
			input:    "ice cream\n日本語\n",
			expected: []string{"ice cream", "日本語"},
		},
		{
			name:     "empty",
			input:    "\n\n",
			expected: nil,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			words, err := Read(strings.NewReader(c.input))
			require.NoError(t, err)
			if diff := cmp.Diff(c.expected, words); diff != "" {
				t.Fatalf("unexpected words (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("cat\n\ndog\n"), 0644))

	words, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"cat", "dog"}, words)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
