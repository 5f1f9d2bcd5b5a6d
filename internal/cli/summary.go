package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/morozRed/capibara/internal/build"
	"github.com/morozRed/capibara/internal/config"
	"github.com/morozRed/capibara/internal/diag"
	"github.com/morozRed/capibara/internal/fileutil"
)

// RunSummary is what build prints when it finishes.
type RunSummary struct {
	Mode          string   `json:"mode"`
	RootPath      string   `json:"root_path"`
	Output        string   `json:"output,omitempty"`
	Headers       int      `json:"headers"`
	Macros        int      `json:"macros"`
	Enums         int      `json:"enums"`
	Structs       int      `json:"structs"`
	Typedefs      int      `json:"typedefs"`
	Functions     int      `json:"functions"`
	Skipped       int      `json:"skipped"`
	Unresolved    int      `json:"unresolved"`
	AbortedPasses []string `json:"aborted_passes,omitempty"`
	SkippedFiles  []string `json:"skipped_files,omitempty"`
	UnresolvedIn  []string `json:"unresolved_in,omitempty"`
	Bytes         int      `json:"bytes"`
	Rewritten     bool     `json:"rewritten"`
	Parallel      bool     `json:"parallel"`
	DurationMS    int64    `json:"duration_ms"`
}

func NewRunSummary(mode string, cfg config.Config, result *build.Result) RunSummary {
	doc := result.Document
	summary := RunSummary{
		Mode:       mode,
		RootPath:   cfg.Root,
		Output:     cfg.Output,
		Headers:    len(doc.Headers),
		Macros:     len(doc.Macros),
		Enums:      len(doc.Enums),
		Structs:    len(doc.Structs),
		Typedefs:   len(doc.Typedefs),
		Functions:  len(doc.Functions),
		Skipped:    result.Skipped,
		Unresolved: result.Unresolved,
		Parallel:   cfg.Parallel,
		DurationMS: result.Duration.Milliseconds(),
	}
	for _, pe := range result.PassErrors {
		summary.AbortedPasses = append(summary.AbortedPasses, string(pe.Kind))
	}
	for _, d := range result.Diagnostics {
		if d.Path == "" {
			continue
		}
		switch d.Severity {
		case diag.Warning:
			summary.SkippedFiles = append(summary.SkippedFiles, d.Path)
		case diag.Unresolved:
			summary.UnresolvedIn = append(summary.UnresolvedIn, d.Path)
		}
	}
	return summary
}

func PrintRunSummary(w io.Writer, summary RunSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(w, summary)
	}

	fmt.Fprintf(w, "%s complete in %dms\n", summary.Mode, summary.DurationMS)
	if summary.Output != "" {
		state := "unchanged"
		if summary.Rewritten {
			state = "written"
		}
		fmt.Fprintf(w, "output: %s (%s, %s)\n", summary.Output, humanize.Bytes(uint64(summary.Bytes)), state)
	}
	fmt.Fprintf(w, "headers=%d macros=%d enums=%d structs=%d typedefs=%d functions=%d\n",
		summary.Headers,
		summary.Macros,
		summary.Enums,
		summary.Structs,
		summary.Typedefs,
		summary.Functions,
	)
	if summary.Skipped > 0 {
		fmt.Fprintf(w, "skipped (%d): %s\n", summary.Skipped, SummarizePaths(summary.SkippedFiles, 8))
	}
	if summary.Unresolved > 0 {
		fmt.Fprintf(w, "unresolved references (%d): %s\n", summary.Unresolved, SummarizePaths(summary.UnresolvedIn, 8))
	}
	if len(summary.AbortedPasses) > 0 {
		fmt.Fprintf(w, "aborted passes: %s\n", strings.Join(summary.AbortedPasses, ", "))
	}
	return nil
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
