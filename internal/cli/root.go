package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the capibara command tree.
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "capibara",
		Short: "Aggregate per-header API fragments into one reference document",
		Long: `Capibara walks a directory tree of header descriptions. Every directory
holding a meta.yaml is one header; the fragments next to it (mo-, em-, st-,
tf- and fn- prefixed YAML files) describe its macros, enumerations,
structures, type aliases and functions.

All of it is merged into a single JSON document, capibara.json by default.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	buildCmd := &cobra.Command{
		Use:   "build [root] [reference-url]",
		Short: "Build the reference document",
		Args:  cobra.MaximumNArgs(2),
		RunE:  RunBuild,
	}
	addBuildFlags(buildCmd)
	buildCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	checkCmd := &cobra.Command{
		Use:   "check [root] [reference-url]",
		Short: "Fail if the reference document is out of date",
		Args:  cobra.MaximumNArgs(2),
		RunE:  RunCheck,
	}
	addBuildFlags(checkCmd)

	walkCmd := &cobra.Command{
		Use:   "walk [root]",
		Short: "List the header directories found under root",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunWalk,
	}
	walkCmd.Flags().String("config", "", "Config file (default: capibara.{yaml,yml,toml,json} in the working directory)")
	walkCmd.Flags().String("marker", "", "Boundary file name")
	walkCmd.Flags().StringSlice("ignore", []string{}, "Extra ignore patterns (gitignore syntax)")
	walkCmd.Flags().Bool("json", false, "Print machine-readable header list")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the capibara config file",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config template (default: capibara.yaml)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunConfigInit,
	}
	configCmd.AddCommand(configInitCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "capibara %s\n", version)
		},
	}

	rootCmd.AddCommand(
		buildCmd,
		checkCmd,
		walkCmd,
		configCmd,
		versionCmd,
	)

	return rootCmd
}
