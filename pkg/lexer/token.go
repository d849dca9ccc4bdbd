package lexer

type TokenType int

type Token struct {
	Type   TokenType // Type of the token
	Lexeme string    // Actual string from source code
	Pos    Position  // Position in source code
}

// NewToken creates a new Token instance
func NewToken(tokenType TokenType, lexeme string, pos Position) Token {
	return Token{
		Type:   tokenType,
		Lexeme: lexeme,
		Pos:    pos,
	}
}

const (
	EOF  TokenType = iota // End of file
	EOL                   // End of line
	WORD                  // mnemonic or symbolic name
	NUM                   // signed decimal integer
)

// String returns the name of the token type
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case EOL:
		return "EOL"
	case WORD:
		return "WORD"
	case NUM:
		return "NUM"
	default:
		return "UNKNOWN"
	}
}
