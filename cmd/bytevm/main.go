package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"bytevm/internal/config"
	"bytevm/internal/logger"
	"bytevm/internal/runner"
	"bytevm/pkg/color"

	"github.com/charmbracelet/log"
)

type options struct {
	Help       bool   // Show help message
	Verbose    bool   // Enable debug logging and dump the assembled program
	NoColor    bool   // Disable colored output
	CountLines bool   // Count script lines instead of running
	Extension  string // Script extension in directory mode
	OutputFile string // Write a CBOR image instead of running
	ConfigFile string // Explicit config file
}

// Main entry point for the bytevm runner.
func main() {
	opts := options{}

	flag.BoolVar(&opts.Help, "h", false, "Show help")
	flag.BoolVar(&opts.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&opts.NoColor, "n", false, "No color")
	flag.BoolVar(&opts.CountLines, "l", false, "Count lines of matching scripts")
	flag.StringVar(&opts.Extension, "e", "bc", "Script extension in directory mode")
	flag.StringVar(&opts.OutputFile, "o", "", "Write the assembled program as an image")
	flag.StringVar(&opts.ConfigFile, "config", "", "Config file (default: nearest "+config.FileName+")")

	flag.Parse()
	args := flag.Args()

	cfg, cfgErr := loadConfig(opts.ConfigFile)
	if cfgErr == nil {
		applyConfig(&opts, cfg)
	}

	logger.Init(opts.Verbose, opts.NoColor)
	if cfgErr != nil {
		log.Fatal("Invalid configuration", "error", cfgErr)
	}
	if cfg.Path != "" {
		log.Debug("Configuration loaded", "file", cfg.Path)
	}

	if opts.Help {
		fmt.Printf("Usage: %s [options] <file|dir>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if opts.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	r := &runner.Runner{
		Verbose:        opts.Verbose,
		Extension:      opts.Extension,
		ImageExtension: cfg.Run.ImageExtension,
		SleepUnit:      cfg.Engine.SleepUnit.Duration,
	}

	if err := run(r, opts, args[0]); err != nil {
		log.Fatal("Execution failed", "error", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	wd, err := os.Getwd()
	if err != nil {
		return config.Default(), nil
	}
	return config.FindAndLoad(wd)
}

// applyConfig fills in every option not given on the command line
func applyConfig(opts *options, cfg *config.Config) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["v"] {
		opts.Verbose = cfg.Log.Verbose
	}
	if !set["n"] {
		opts.NoColor = cfg.Log.NoColor
	}
	if !set["e"] {
		opts.Extension = cfg.Run.Extension
	}
}

func run(r *runner.Runner, opts options, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	switch {
	case opts.CountLines:
		dir := path
		if !info.IsDir() {
			dir = filepath.Dir(path)
		}
		counts, total, err := r.CountLines(dir)
		if err != nil {
			return err
		}
		for _, c := range counts {
			fmt.Printf("%6d %s\n", c.Lines, c.Path)
		}
		fmt.Printf("%6d %s\n", total, color.BoldText("total"))
		return nil

	case opts.OutputFile != "":
		return r.WriteImage(path, opts.OutputFile)

	case info.IsDir():
		sum, err := r.RunDir(path)
		if err != nil {
			return err
		}
		if len(sum.Failed) > 0 {
			return fmt.Errorf("%d of %d scripts failed", len(sum.Failed), len(sum.Failed)+len(sum.Passed))
		}
		return nil
	}

	o, err := r.RunFile(path)
	if err != nil {
		return err
	}
	r.PrintOutcome(o)
	return o.Err
}
