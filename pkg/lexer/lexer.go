package lexer

import "regexp"

var numRegex = regexp.MustCompile(`^[+-]?[0-9]+$`)

// Lexer splits bytecode source into whitespace-separated tokens,
// reporting an EOL token at every line break.
type Lexer struct {
	input    string // input string to be tokenized
	length   int    // length of the input string
	position int    // current position in the input string
	line     int    // current line number for error reporting
	column   int    // current column number for error reporting
}

// Create a new lexer instance
func NewLexer(s string) *Lexer {
	return &Lexer{
		input:  s,
		length: len(s),
		line:   1,
		column: 1,
	}
}

// Get the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipBlanks()

	if l.position >= l.length {
		return NewToken(EOF, "", l.currentPosition())
	}

	if l.input[l.position] == '\n' {
		tok := NewToken(EOL, "\n", l.currentPosition())
		l.advance(1)
		return tok
	}

	pos := l.currentPosition()
	start := l.position
	for l.position < l.length && !isBlank(l.input[l.position]) && l.input[l.position] != '\n' {
		l.advance(1)
	}

	lexeme := l.input[start:l.position]
	if numRegex.MatchString(lexeme) {
		return NewToken(NUM, lexeme, pos)
	}
	return NewToken(WORD, lexeme, pos)
}

// NextLine returns the tokens of the next source line without the EOL
// token. ok is false once the input is exhausted.
func (l *Lexer) NextLine() (tokens []Token, line int, ok bool) {
	if !l.HasMore() {
		return nil, l.line, false
	}

	line = l.line
	for {
		tok := l.NextToken()
		if tok.Type == EOL || tok.Type == EOF {
			return tokens, line, true
		}
		tokens = append(tokens, tok)
	}
}

// Check if there are more characters to read
func (l *Lexer) HasMore() bool {
	return l.position < l.length
}

// Skip spaces, tabs and carriage returns, but not line breaks
func (l *Lexer) skipBlanks() {
	for l.position < l.length && isBlank(l.input[l.position]) {
		l.advance(1)
	}
}

// Advance the lexer position by n characters
func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		if l.position >= l.length {
			break
		}

		if l.input[l.position] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}

		l.position++
	}
}

// Get the current position of the lexer
func (l *Lexer) currentPosition() Position {
	return NewPosition(l.line, l.column, l.position)
}

func isBlank(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\v' || ch == '\f'
}
