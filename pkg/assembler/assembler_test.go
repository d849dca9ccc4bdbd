package assembler_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bytevm/pkg/assembler"
	"bytevm/pkg/bytecode"
)

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func dump(p *bytecode.Program) string {
	var buf bytes.Buffer
	p.Dump(&buf)
	return buf.String()
}

func TestFlatInstructions(t *testing.T) {
	src := lines(
		"LOAD_VAL 1", "WRITE_VAR x", "LOAD_VAL 2", "WRITE_VAR y",
		"READ_VAR x", "LOAD_VAL 1", "ADD", "READ_VAR y", "MULTIPLY",
		"SUBTRACT", "DIVIDE", "LESS_THAN", "LESS_THAN_EQUAL",
		"GREATER_THAN", "GREATER_THAN_EQUAL", "PRINT x", "PRINT_LN y",
		"SLEEP 2", "RETURN", "RETURN_VALUE",
	)

	prog, err := assembler.Assemble(src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	expected := []bytecode.Opcode{
		bytecode.OpLoadVal, bytecode.OpWriteVar, bytecode.OpLoadVal, bytecode.OpWriteVar,
		bytecode.OpReadVar, bytecode.OpLoadVal, bytecode.OpAdd, bytecode.OpReadVar, bytecode.OpMultiply,
		bytecode.OpSubtract, bytecode.OpDivide, bytecode.OpLessThan, bytecode.OpLessThanEqual,
		bytecode.OpGreaterThan, bytecode.OpGreaterThanEqual, bytecode.OpPrint, bytecode.OpPrintLn,
		bytecode.OpSleep, bytecode.OpReturn, bytecode.OpReturnValue,
	}

	if len(prog.Entry) != len(expected) {
		t.Fatalf("expected %d instructions, got %d", len(expected), len(prog.Entry))
	}
	for i, op := range expected {
		if prog.Entry[i].Op != op {
			t.Errorf("instruction %d: expected %s, got %s", i, op, prog.Entry[i].Op)
		}
	}

	if prog.Entry[0].Int != 1 || prog.Entry[1].Name != "x" || prog.Entry[17].Int != 2 {
		t.Errorf("operands not decoded: %v %v %v", prog.Entry[0], prog.Entry[1], prog.Entry[17])
	}
	if len(prog.Functions) != 0 {
		t.Errorf("expected no functions, got %d", len(prog.Functions))
	}
}

func TestLoop(t *testing.T) {
	src := lines(
		"LOAD_VAL 0", "WRITE_VAR i",
		"LOOP", "READ_VAR i", "LOAD_VAL 3", "LESS_THAN",
		"LOOP_START", "READ_VAR i", "LOAD_VAL 1", "ADD", "WRITE_VAR i",
		"LOOP_END",
		"READ_VAR i", "RETURN_VALUE",
	)

	prog, err := assembler.Assemble(src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if len(prog.Entry) != 5 {
		t.Fatalf("expected 5 top-level instructions, got %d:\n%s", len(prog.Entry), dump(prog))
	}

	loop := prog.Entry[2]
	if loop.Op != bytecode.OpLoop {
		t.Fatalf("expected LOOP at index 2, got %s", loop.Op)
	}
	if len(loop.Cond) != 3 || loop.Cond[2].Op != bytecode.OpLessThan {
		t.Errorf("unexpected condition %v", loop.Cond)
	}
	if len(loop.Body) != 4 || loop.Body[3].Op != bytecode.OpWriteVar {
		t.Errorf("unexpected body %v", loop.Body)
	}
	if prog.Entry[3].Op != bytecode.OpReadVar || prog.Entry[4].Op != bytecode.OpReturnValue {
		t.Errorf("instructions after the loop are misplaced:\n%s", dump(prog))
	}
}

func TestNestedBlocks(t *testing.T) {
	src := lines(
		"FUNC count",
		"  LOAD_VAL 0", "  WRITE_VAR i",
		"  LOOP", "    READ_VAR i", "    LOAD_VAL 2", "    LESS_THAN",
		"  LOOP_START",
		"    LOAD_VAL 0", "    WRITE_VAR j",
		"    LOOP", "      READ_VAR j", "      LOAD_VAL 2", "      LESS_THAN",
		"    LOOP_START", "      READ_VAR j", "      LOAD_VAL 1", "      ADD", "      WRITE_VAR j",
		"    LOOP_END",
		"    READ_VAR i", "    LOAD_VAL 1", "    ADD", "    WRITE_VAR i",
		"  LOOP_END",
		"  READ_VAR i", "  RETURN_VALUE",
		"FUNC_END",
		"CHANNEL tx rx",
		"SPAWN tx",
		"  LOOP", "    LOAD_VAL 0", "    LOAD_VAL 1", "    GREATER_THAN",
		"  LOOP_START", "  LOOP_END",
		"  LOAD_VAL 5", "  SEND_CHANNEL tx", "  RETURN",
		"SPAWN_END",
		"SPAWN rx", "  RECEIVE_CHANNEL rx", "  RETURN_VALUE", "SPAWN_END",
		"FUNC_CALL count",
		"ADD",
		"RETURN_VALUE",
	)

	prog, err := assembler.Assemble(src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	want := `FUNC count
  LOAD_VAL 0
  WRITE_VAR i
  LOOP
    READ_VAR i
    LOAD_VAL 2
    LESS_THAN
  LOOP_START
    LOAD_VAL 0
    WRITE_VAR j
    LOOP
      READ_VAR j
      LOAD_VAL 2
      LESS_THAN
    LOOP_START
      READ_VAR j
      LOAD_VAL 1
      ADD
      WRITE_VAR j
    LOOP_END
    READ_VAR i
    LOAD_VAL 1
    ADD
    WRITE_VAR i
  LOOP_END
  READ_VAR i
  RETURN_VALUE
FUNC_END
CHANNEL tx rx
SPAWN tx
  LOOP
    LOAD_VAL 0
    LOAD_VAL 1
    GREATER_THAN
  LOOP_START
  LOOP_END
  LOAD_VAL 5
  SEND_CHANNEL tx
  RETURN
SPAWN_END
SPAWN rx
  RECEIVE_CHANNEL rx
  RETURN_VALUE
SPAWN_END
FUNC_CALL count
ADD
RETURN_VALUE
`
	if got := dump(prog); got != want {
		t.Errorf("unexpected tree:\n%s", got)
	}
}

func TestParameterNames(t *testing.T) {
	prog, err := assembler.Assemble(lines("CHANNEL tx rx", "FUNC_CALL worker tx rx", "SPAWN tx rx", "SPAWN_END"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	ch := prog.Entry[0]
	if ch.Name != "tx" || ch.Peer != "rx" {
		t.Errorf("CHANNEL: unexpected operands %q %q", ch.Name, ch.Peer)
	}

	call := prog.Entry[1]
	if call.Name != "worker" || strings.Join(call.Names, ",") != "tx,rx" {
		t.Errorf("FUNC_CALL: unexpected operands %q %v", call.Name, call.Names)
	}

	spawn := prog.Entry[2]
	if spawn.Op != bytecode.OpSpawn || strings.Join(spawn.Names, ",") != "tx,rx" || len(spawn.Body) != 0 {
		t.Errorf("SPAWN: unexpected instruction %v", spawn)
	}
}

func TestUnknownMnemonicsAreSkipped(t *testing.T) {
	a := assembler.New()
	prog, err := a.Assemble(lines("LOAD_VAL 1", "NOPE 1 2 3", "// comment", "", "   ", "RETURN_VALUE"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(a.Errors()) != 0 {
		t.Errorf("unknown mnemonics must not produce diagnostics: %v", a.Errors())
	}
	if len(prog.Entry) != 2 {
		t.Errorf("expected 2 instructions, got %d:\n%s", len(prog.Entry), dump(prog))
	}
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		src         string
		line        int
		mnemonic    string
		description string
	}{
		{lines("LOAD_VAL"), 1, "LOAD_VAL", "missing integer"},
		{lines("LOAD_VAL 1", "LOAD_VAL abc"), 2, "LOAD_VAL", "non-integer"},
		{lines("SLEEP -1"), 1, "SLEEP", "negative sleep"},
		{lines("WRITE_VAR"), 1, "WRITE_VAR", "missing name"},
		{lines("CHANNEL tx"), 1, "CHANNEL", "missing receive name"},
		{lines("FUNC_CALL"), 1, "FUNC_CALL", "missing function name"},
		{lines("FUNC"), 1, "FUNC", "missing FUNC name"},
		{lines("LOOP_START"), 1, "LOOP_START", "LOOP_START outside loop"},
		{lines("LOOP", "LOOP_END"), 2, "LOOP_END", "LOOP_END without LOOP_START"},
		{lines("FUNC_END"), 1, "FUNC_END", "stray FUNC_END"},
		{lines("SPAWN", "FUNC_END"), 2, "FUNC_END", "mismatched terminator"},
		{lines("LOAD_VAL 1", "SPAWN"), 2, "SPAWN", "unterminated spawn"},
		{lines("FUNC f", "LOAD_VAL 1"), 1, "FUNC", "unterminated function"},
	}

	for _, test := range tests {
		_, err := assembler.Assemble(test.src)
		if !errors.Is(err, assembler.ErrSyntax) {
			t.Errorf("%s: expected syntax error, got %v", test.description, err)
			continue
		}

		var diag *assembler.Diagnostic
		if !errors.As(err, &diag) {
			t.Errorf("%s: expected *Diagnostic, got %T", test.description, err)
			continue
		}
		if diag.Pos.Line != test.line || diag.Mnemonic != test.mnemonic {
			t.Errorf("%s: expected %s at line %d, got %s at line %d", test.description, test.mnemonic, test.line, diag.Mnemonic, diag.Pos.Line)
		}
	}
}

func TestAssemblerContinuesAfterDiagnostic(t *testing.T) {
	a := assembler.New()
	prog, err := a.Assemble(lines("LOAD_VAL x", "LOAD_VAL 2", "READ_VAR", "RETURN_VALUE"))
	if err == nil {
		t.Fatalf("expected an error")
	}
	if len(a.Errors()) != 2 {
		t.Errorf("expected 2 diagnostics, got %d", len(a.Errors()))
	}
	if len(prog.Entry) != 2 {
		t.Errorf("valid lines should still be assembled, got:\n%s", dump(prog))
	}
	if !strings.Contains(a.Errors()[0].Line, "LOAD_VAL x") {
		t.Errorf("diagnostic should carry the source line, got %q", a.Errors()[0].Line)
	}
}

func TestSharedSymbols(t *testing.T) {
	st := bytecode.NewSymbolTable()

	if _, err := assembler.New(assembler.WithSymbols(st)).Assemble(lines("LOAD_VAL 1", "WRITE_VAR x")); err != nil {
		t.Fatal(err)
	}
	if _, err := assembler.New(assembler.WithSymbols(st)).Assemble(lines("READ_VAR x", "CHANNEL a b")); err != nil {
		t.Fatal(err)
	}

	if st.Len() != 3 {
		t.Errorf("expected 3 interned names, got %v", st.All())
	}
}

func TestAssembleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.bc")
	if err := os.WriteFile(path, []byte("LOAD_VAL 7\r\nRETURN_VALUE\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	prog, err := assembler.AssembleFile(path)
	if err != nil {
		t.Fatalf("AssembleFile: %v", err)
	}
	if len(prog.Entry) != 2 || prog.Entry[0].Int != 7 {
		t.Errorf("unexpected program:\n%s", dump(prog))
	}

	if _, err := assembler.AssembleFile(filepath.Join(t.TempDir(), "missing.bc")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
