package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/capibara/internal/fileutil"
	"github.com/morozRed/capibara/internal/ignore"
	"github.com/morozRed/capibara/internal/walk"
)

type headerEntry struct {
	Ref  string `json:"ref"`
	Path string `json:"path"`
}

// RunWalk prints the header refs found under root, in walk order.
func RunWalk(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json")
	if err != nil {
		return err
	}

	rules, err := ignore.LoadRules(cfg.Root)
	if err != nil {
		return err
	}
	boundaries, err := walk.Headers(cfg.Root, walk.Options{
		Marker:  cfg.Marker,
		Matcher: ignore.NewMatcher(append(rules, cfg.Ignore...)),
	})
	if err != nil {
		return errors.Errorf("failed to walk %s: %w", cfg.Root, err)
	}

	if asJSON {
		entries := make([]headerEntry, 0, len(boundaries))
		for _, b := range boundaries {
			entries = append(entries, headerEntry{Ref: b.Ref, Path: b.Path})
		}
		return fileutil.PrintJSON(cmd.OutOrStdout(), entries)
	}
	for _, b := range boundaries {
		fmt.Fprintln(cmd.OutOrStdout(), b.Ref)
	}
	return nil
}
