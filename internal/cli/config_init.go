package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/capibara/internal/config"
	"github.com/morozRed/capibara/internal/fileutil"
)

const defaultConfigFile = "capibara.yaml"

// RunConfigInit writes a config template, refusing to overwrite.
func RunConfigInit(cmd *cobra.Command, args []string) error {
	path := defaultConfigFile
	if len(args) > 0 {
		path = args[0]
	}

	format := config.FormatOf(path)
	data, err := config.Template(format)
	if err != nil {
		return err
	}
	if err := fileutil.WriteIfMissing(path, data, 0o644); err != nil {
		return errors.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote config template to %s\n", path)
	return nil
}
