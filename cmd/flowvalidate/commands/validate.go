package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/flowspec/flowvalidate/document"
	"github.com/flowspec/flowvalidate/validator"
)

// ValidateFlags contains flags for the validate command.
type ValidateFlags struct {
	NoWarnings bool
	Quiet      bool
	Format     string
}

// SetupValidateFlags creates and configures a FlagSet for the validate command.
func SetupValidateFlags() (*flag.FlagSet, *ValidateFlags) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags := &ValidateFlags{}

	fs.BoolVar(&flags.NoWarnings, "no-warnings", false, "suppress warning messages (only show errors)")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only output validation result, no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only output validation result, no diagnostic messages")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: flowvalidate validate [flags] <file|->\n\n")
		Writef(fs.Output(), "Validate a declarative workflow document against its structural and semantic rules.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nOutput Formats:\n")
		Writef(fs.Output(), "  text (default)  Human-readable text output\n")
		Writef(fs.Output(), "  json            JSON format for programmatic processing\n")
		Writef(fs.Output(), "  yaml            YAML format for programmatic processing\n")
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  flowvalidate validate workflow.yaml\n")
		Writef(fs.Output(), "  flowvalidate validate --no-warnings workflow.json\n")
		Writef(fs.Output(), "  cat workflow.yaml | flowvalidate validate -q -\n")
		Writef(fs.Output(), "  flowvalidate validate --format json workflow.yaml | jq '.valid'\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Validation successful\n")
		Writef(fs.Output(), "  1    Validation failed with errors\n")
	}

	return fs, flags
}

// HandleValidate executes the validate command.
func HandleValidate(args []string) error {
	fs, flags := SetupValidateFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("validate command requires exactly one file path or '-' for stdin")
	}

	docPath := fs.Arg(0)

	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	v := validator.New()
	v.IncludeWarnings = !flags.NoWarnings

	startTime := time.Now()
	var result *validator.Result
	var err error

	if docPath == StdinFilePath {
		raw, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			return fmt.Errorf("reading stdin: %w", readErr)
		}
		loadStart := time.Now()
		tree, decodeErr := document.FromString(string(raw))
		if decodeErr != nil {
			return fmt.Errorf("decoding stdin: %w", decodeErr)
		}
		result, err = v.ValidateDocument(tree, time.Since(loadStart))
	} else {
		result, err = v.Validate(docPath)
	}
	if err != nil {
		return fmt.Errorf("validating document: %w", err)
	}
	totalTime := time.Since(startTime)

	if flags.Format == FormatJSON || flags.Format == FormatYAML {
		if err := OutputStructured(result, flags.Format); err != nil {
			return err
		}
		if !result.Valid {
			os.Exit(1)
		}
		return nil
	}

	if !flags.Quiet {
		Writef(os.Stderr, "Workflow Document Validator\n")
		Writef(os.Stderr, "============================\n\n")
		Writef(os.Stderr, "Document: %s\n", FormatDocPath(docPath))
		Writef(os.Stderr, "Load Time: %v\n", result.LoadTime)
		Writef(os.Stderr, "Total Time: %v\n", totalTime)
		if line := FormatSummaryLine(result.Summary); line != "" {
			Writef(os.Stderr, "Summary: %s\n", line)
		}
		Writef(os.Stderr, "\n")

		if len(result.Errors) > 0 {
			Writef(os.Stderr, "Errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				Writef(os.Stderr, "  %s\n", e.String())
			}
			Writef(os.Stderr, "\n")
		}

		if len(result.Warnings) > 0 {
			Writef(os.Stderr, "Warnings (%d):\n", len(result.Warnings))
			for _, w := range result.Warnings {
				Writef(os.Stderr, "  %s\n", w.String())
			}
			Writef(os.Stderr, "\n")
		}

		if result.Valid {
			Writef(os.Stderr, "Validation passed")
			if len(result.Warnings) > 0 {
				Writef(os.Stderr, " with %d warning(s)", len(result.Warnings))
			}
			Writef(os.Stderr, "\n")
		} else {
			Writef(os.Stderr, "Validation failed: %d error(s)", len(result.Errors))
			if len(result.Warnings) > 0 {
				Writef(os.Stderr, ", %d warning(s)", len(result.Warnings))
			}
			Writef(os.Stderr, "\n")
		}
	}

	if !result.Valid {
		os.Exit(1)
	}

	return nil
}
