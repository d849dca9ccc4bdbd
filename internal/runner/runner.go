package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bytevm/pkg/assembler"
	"bytevm/pkg/bytecode"
	"bytevm/pkg/color"
	"bytevm/pkg/interpreter"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type Runner struct {
	Verbose        bool          // Dump the assembled program before running it
	Extension      string        // Script extension picked up in directory mode
	ImageExtension string        // Extension of CBOR program images
	SleepUnit      time.Duration // Duration of SLEEP 1

	Out    io.Writer   // Program output, defaults to stdout
	Report io.Writer   // Headers, dumps and results, defaults to stdout
	Logger *log.Logger // Defaults to the process-wide logger

	symbols *bytecode.SymbolTable
}

// Outcome is the result of running one script or image
type Outcome struct {
	Path  string
	Value bytecode.Value
	Vars  interpreter.Vars
	Err   error
}

// Summary is the result of a directory run
type Summary struct {
	Passed   []string
	Failed   []Outcome
	Duration time.Duration
}

// LineCount is the number of lines of one script
type LineCount struct {
	Path  string
	Lines int
}

func (r *Runner) init() {
	if r.Extension == "" {
		r.Extension = "bc"
	}
	if r.ImageExtension == "" {
		r.ImageExtension = "bci"
	}
	if r.SleepUnit == 0 {
		r.SleepUnit = time.Second
	}
	if r.Out == nil {
		r.Out = os.Stdout
	}
	if r.Report == nil {
		r.Report = os.Stdout
	}
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	if r.symbols == nil {
		r.symbols = bytecode.NewSymbolTable()
	}
}

func (r *Runner) isImage(path string) bool {
	return strings.EqualFold(strings.TrimPrefix(filepath.Ext(path), "."), r.ImageExtension)
}

// Load reads a program from path, decoding it when it is an image and
// assembling it otherwise.
func (r *Runner) Load(path string) (*bytecode.Program, error) {
	r.init()

	if r.isImage(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}
		prog, err := bytecode.UnmarshalProgram(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return prog, nil
	}

	return assembler.AssembleFile(path, assembler.WithSymbols(r.symbols))
}

// RunFile loads and executes the program at path. Assembly errors are
// returned; runtime errors are reported in the outcome.
func (r *Runner) RunFile(path string) (Outcome, error) {
	r.init()
	r.Logger.Info("Processing file", "file", path)

	prog, err := r.Load(path)
	if err != nil {
		var diag *assembler.Diagnostic
		if errors.As(err, &diag) {
			fmt.Fprintln(r.Report, color.BrightRedText("=== Syntax Errors ==="))
			fmt.Fprintln(r.Report, diag.Pretty())
		}
		return Outcome{Path: path, Err: err}, err
	}

	if r.Verbose {
		fmt.Fprintln(r.Report, color.GreenText("=== Assembled Program ==="))
		if len(prog.Entry) == 0 && len(prog.Functions) == 0 {
			fmt.Fprintln(r.Report, color.GrayText("No code generated."))
		} else {
			prog.Dump(r.Report)
		}
	}

	return r.execute(path, prog, r.Logger), nil
}

func (r *Runner) execute(path string, prog *bytecode.Program, logger *log.Logger) Outcome {
	it := interpreter.NewInterpreter(
		interpreter.WithWriter(r.Out),
		interpreter.WithLogger(logger.With("file", filepath.Base(path))),
		interpreter.WithSleepUnit(r.SleepUnit),
	)

	v, vars, err := it.Run(prog)
	return Outcome{Path: path, Value: v, Vars: vars, Err: err}
}

// PrintOutcome writes the result line of an outcome to the report writer
func (r *Runner) PrintOutcome(o Outcome) {
	r.init()

	if o.Err != nil {
		fmt.Fprintf(r.Report, "%s %v\n", color.RedText("error:"), o.Err)
		return
	}
	fmt.Fprintf(r.Report, "%s %s\n", color.GreenText("result:"), color.Value(o.Value.Kind.String(), o.Value.String()))
}

// Scripts lists the files under dir with the runner's script or image
// extension, in lexical order.
func (r *Runner) Scripts(dir string) ([]string, error) {
	r.init()

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext == r.Extension || r.isImage(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot walk %s: %w", dir, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// RunDir executes every script under dir with a shared symbol table and
// reports one line per script followed by a summary.
func (r *Runner) RunDir(dir string) (Summary, error) {
	r.init()

	paths, err := r.Scripts(dir)
	if err != nil {
		return Summary{}, err
	}

	logger := r.Logger.With("run", uuid.NewString())
	logger.Info("Running directory", "dir", dir, "scripts", len(paths))

	start := time.Now()
	var sum Summary
	for _, path := range paths {
		o := r.runOne(path, logger)
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}

		if o.Err != nil {
			sum.Failed = append(sum.Failed, o)
			fmt.Fprintf(r.Report, "%s: %v\n", color.Fail(rel), o.Err)
			continue
		}
		sum.Passed = append(sum.Passed, path)
		fmt.Fprintf(r.Report, "%s = %s\n", color.Pass(rel), color.Value(o.Value.Kind.String(), o.Value.String()))
	}
	sum.Duration = time.Since(start)

	fmt.Fprintf(r.Report, "%s passed, %s failed in %s\n",
		color.GreenText(fmt.Sprint(len(sum.Passed))),
		color.RedText(fmt.Sprint(len(sum.Failed))),
		sum.Duration.Round(time.Millisecond))
	logger.Debug("Directory run finished", "symbols", r.symbols.Len())

	return sum, nil
}

func (r *Runner) runOne(path string, logger *log.Logger) Outcome {
	prog, err := r.Load(path)
	if err != nil {
		return Outcome{Path: path, Err: err}
	}
	return r.execute(path, prog, logger)
}

// CountLines counts the lines of every script under dir, blank ones included
func (r *Runner) CountLines(dir string) ([]LineCount, int, error) {
	r.init()

	paths, err := r.Scripts(dir)
	if err != nil {
		return nil, 0, err
	}

	var counts []LineCount
	total := 0
	for _, path := range paths {
		if r.isImage(path) {
			continue
		}
		n, err := countLines(path)
		if err != nil {
			return nil, 0, err
		}
		counts = append(counts, LineCount{Path: path, Lines: n})
		total += n
	}

	return counts, total, nil
}

func countLines(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("cannot read %s: %w", path, err)
	}
	defer file.Close()

	n := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return n, nil
}

// WriteImage assembles the script at src and writes its image to out
func (r *Runner) WriteImage(src, out string) error {
	r.init()

	prog, err := assembler.AssembleFile(src, assembler.WithSymbols(r.symbols))
	if err != nil {
		return err
	}

	data, err := bytecode.MarshalProgram(prog)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", out, err)
	}
	r.Logger.Info("Image written", "file", out, "bytes", len(data))
	return nil
}
