package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/capibara/internal/build"
	"github.com/morozRed/capibara/internal/config"
	"github.com/morozRed/capibara/internal/document"
	"github.com/morozRed/capibara/internal/fileutil"
	"github.com/morozRed/capibara/internal/logging"
	"github.com/morozRed/capibara/internal/model"
)

var (
	ErrStrict = errors.New("build reported diagnostics")
	ErrStale  = errors.New("reference document is out of date")
)

// RunBuild writes the reference document and prints a run summary.
func RunBuild(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json")
	if err != nil {
		return err
	}
	logger, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		return err
	}

	progress := newPassProgressReporter(asJSON)
	result, err := runBuild(commandContext(cmd), cfg, logger, progress)
	progress.Done()
	if err != nil {
		return err
	}

	data, err := document.Encode(result.Document, cfg.Indent)
	if err != nil {
		return errors.Errorf("failed to encode document: %w", err)
	}
	rewritten, err := writeDocument(cfg.Output, result.Document, data, cfg.Indent)
	if err != nil {
		return err
	}

	summary := NewRunSummary("build", cfg, result)
	summary.Bytes = len(data)
	summary.Rewritten = rewritten
	if err := PrintRunSummary(cmd.OutOrStdout(), summary, asJSON); err != nil {
		return err
	}

	return strictError(cfg, result)
}

// RunCheck rebuilds in memory and fails with ErrStale when the document on
// disk differs by more than its build date.
func RunCheck(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		return err
	}

	result, err := runBuild(commandContext(cmd), cfg, logger, nil)
	if err != nil {
		return err
	}

	existing, err := os.ReadFile(cfg.Output)
	if os.IsNotExist(err) {
		return errors.Errorf("%s does not exist: %w", cfg.Output, ErrStale)
	}
	if err != nil {
		return errors.Errorf("failed to read %s: %w", cfg.Output, err)
	}
	same, err := document.SameContent(existing, result.Document, cfg.Indent)
	if err != nil {
		return errors.Errorf("failed to compare %s: %w", cfg.Output, err)
	}
	if !same {
		return errors.Errorf("%s: %w", cfg.Output, ErrStale)
	}
	if err := strictError(cfg, result); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", cfg.Output)
	return nil
}

func runBuild(ctx context.Context, cfg config.Config, logger *slog.Logger, progress *passProgressReporter) (*build.Result, error) {
	opts := build.Options{
		Root:         cfg.Root,
		ReferenceURL: cfg.ReferenceURL,
		Marker:       cfg.Marker,
		IgnoreRules:  cfg.Ignore,
		Parallel:     cfg.Parallel,
		Logger:       logger,
	}
	if progress != nil && progress.enabled {
		opts.Progress = progress.Update
	}

	result, err := build.Run(ctx, opts)
	if err != nil {
		return nil, errors.Errorf("failed to build %s: %w", cfg.Root, err)
	}
	return result, nil
}

// writeDocument leaves path untouched when it only differs from doc by its
// build date.
func writeDocument(path string, doc model.Document, data []byte, indent int) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil {
		same, err := document.SameContent(existing, doc, indent)
		if err == nil && same {
			return false, nil
		}
	}
	rewritten, err := fileutil.WriteIfChangedTracked(path, data)
	if err != nil {
		return false, errors.Errorf("failed to write %s: %w", path, err)
	}
	return rewritten, nil
}

func strictError(cfg config.Config, result *build.Result) error {
	if !cfg.Strict || result.Clean() {
		return nil
	}
	return errors.Errorf("%w: %d skipped, %d unresolved, %d passes aborted", ErrStrict, result.Skipped, result.Unresolved, len(result.PassErrors))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
