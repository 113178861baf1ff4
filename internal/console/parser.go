package console

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrEmptyInput is returned when the input string is empty or only
	// whitespace.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnterminatedQuote is returned when a quoted argument never closes.
	ErrUnterminatedQuote = errors.New("unterminated quote")
)

// Command is one parsed console line.
type Command struct {
	// Verb is the first token, lower-cased.
	Verb string
	// Args are the remaining tokens with quoting resolved.
	Args []string
}

// Parse splits a console input line into a verb and arguments.
//
// Parsing rules:
//   - Tokens are separated by unquoted whitespace
//   - Single and double quotes group a token ("my value", 'my value')
//   - The verb is lower-cased; argument case is preserved
func Parse(input string) (*Command, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, ErrEmptyInput
	}

	var args []string
	if len(tokens) > 1 {
		args = tokens[1:]
	}
	return &Command{
		Verb: strings.ToLower(tokens[0]),
		Args: args,
	}, nil
}

// tokenize splits input on whitespace, honoring quoted substrings.
func tokenize(input string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	var quote rune
	inToken := false

	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, ErrUnterminatedQuote
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}
