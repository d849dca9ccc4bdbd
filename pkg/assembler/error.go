package assembler

import (
	"errors"
	"fmt"

	"bytevm/pkg/color"
	"bytevm/pkg/lexer"
)

var ErrSyntax = errors.New("syntax error")

// Diagnostic reports a malformed line. Lines whose mnemonic is not known
// never produce one; they are dropped.
type Diagnostic struct {
	Pos      lexer.Position
	Mnemonic string
	Msg      string
	Line     string // source text of the offending line
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("line %s: %s: %s", d.Pos, d.Mnemonic, d.Msg)
}

func (d *Diagnostic) Unwrap() error {
	return ErrSyntax
}

// Pretty renders the diagnostic for a terminal, with the source line as context
func (d *Diagnostic) Pretty() string {
	return color.ErrorWithPosition(d.Pos.Line, d.Pos.Column, d.Mnemonic+": "+d.Msg, d.Line)
}

// addError records a diagnostic for the line currently being assembled
func (a *Assembler) addError(pos lexer.Position, mnemonic, format string, args ...any) {
	a.errors = append(a.errors, &Diagnostic{
		Pos:      pos,
		Mnemonic: mnemonic,
		Msg:      fmt.Sprintf(format, args...),
		Line:     a.line,
	})
}

// Errors returns every diagnostic of the last Assemble call
func (a *Assembler) Errors() []*Diagnostic {
	return a.errors
}
