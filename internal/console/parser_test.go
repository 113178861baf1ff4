package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantVerb string
		wantArgs []string
		wantErr  error
	}{
		{
			name:     "simple verb",
			input:    "back",
			wantVerb: "back",
		},
		{
			name:     "verb with args",
			input:    "set RHOST 192.168.1.10",
			wantVerb: "set",
			wantArgs: []string{"RHOST", "192.168.1.10"},
		},
		{
			name:     "verb is lowercased, args keep case",
			input:    "USE Exploit/Shor_RSA",
			wantVerb: "use",
			wantArgs: []string{"Exploit/Shor_RSA"},
		},
		{
			name:     "double quoted arg",
			input:    `set WORDLIST "/tmp/my lists/rockyou.txt"`,
			wantVerb: "set",
			wantArgs: []string{"WORDLIST", "/tmp/my lists/rockyou.txt"},
		},
		{
			name:     "single quoted arg",
			input:    "set TARGET 'alpha beta'",
			wantVerb: "set",
			wantArgs: []string{"TARGET", "alpha beta"},
		},
		{
			name:     "extra whitespace collapses",
			input:    "  show    options  ",
			wantVerb: "show",
			wantArgs: []string{"options"},
		},
		{
			name:    "empty line",
			input:   "",
			wantErr: ErrEmptyInput,
		},
		{
			name:    "whitespace only",
			input:   "   \t ",
			wantErr: ErrEmptyInput,
		},
		{
			name:    "unterminated quote",
			input:   `set X "never closed`,
			wantErr: ErrUnterminatedQuote,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVerb, cmd.Verb)
			assert.Equal(t, tt.wantArgs, cmd.Args)
		})
	}
}

func TestParseEmptyQuotedArg(t *testing.T) {
	cmd, err := Parse(`set RHOST ""`)
	require.NoError(t, err)
	assert.Equal(t, []string{"RHOST", ""}, cmd.Args)
}
