package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/capibara/internal/config"
)

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Config file (default: capibara.{yaml,yml,toml,json} in the working directory)")
	cmd.Flags().String("reference-url", "", "Reference URL recorded in the document")
	cmd.Flags().StringP("output", "o", "", "Output file (default: capibara.json)")
	cmd.Flags().String("marker", "", "Boundary file name (default: meta.yaml)")
	cmd.Flags().StringSlice("ignore", []string{}, "Extra ignore patterns (gitignore syntax)")
	cmd.Flags().Bool("parallel", false, "Run independent passes concurrently")
	cmd.Flags().Bool("strict", false, "Fail when any fragment was skipped or a pass aborted")
	cmd.Flags().Int("indent", 0, "Indent the document by N spaces (0: compact)")
	cmd.Flags().String("log-level", "", "Log level: trace|debug|info|warn|error")
}

// resolveConfig layers defaults, the config file, CAPIBARA_* variables, flags
// and positional arguments, in increasing priority.
func resolveConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	path, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return config.Config{}, err
	}
	if path == "" {
		wd, err := resolveWorkingDirectory()
		if err != nil {
			return config.Config{}, err
		}
		path = config.Discover(wd)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	cfg, err = config.ApplyEnv(cfg, os.LookupEnv)
	if err != nil {
		return cfg, err
	}

	strFlags := map[string]*string{
		"reference-url": &cfg.ReferenceURL,
		"output":        &cfg.Output,
		"marker":        &cfg.Marker,
		"log-level":     &cfg.LogLevel,
	}
	for name, dst := range strFlags {
		if !changed(cmd, name) {
			continue
		}
		value, err := OptionalStringFlag(cmd, name)
		if err != nil {
			return cfg, err
		}
		*dst = value
	}
	for name, dst := range map[string]*bool{"parallel": &cfg.Parallel, "strict": &cfg.Strict} {
		if !changed(cmd, name) {
			continue
		}
		value, err := cmd.Flags().GetBool(name)
		if err != nil {
			return cfg, errors.Errorf("failed to read --%s flag: %w", name, err)
		}
		*dst = value
	}
	if changed(cmd, "indent") {
		value, err := cmd.Flags().GetInt("indent")
		if err != nil {
			return cfg, errors.Errorf("failed to read --indent flag: %w", err)
		}
		cfg.Indent = value
	}
	if changed(cmd, "ignore") {
		rules, err := cmd.Flags().GetStringSlice("ignore")
		if err != nil {
			return cfg, errors.Errorf("failed to read --ignore flag: %w", err)
		}
		cfg.Ignore = append(cfg.Ignore, rules...)
	}

	if len(args) > 0 {
		cfg.Root = args[0]
	}
	if len(args) > 1 {
		cfg.ReferenceURL = strings.TrimSpace(args[1])
	}
	return cfg, nil
}

func changed(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", errors.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

func OptionalBoolFlag(cmd *cobra.Command, name string) (bool, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return false, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, errors.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

func resolveWorkingDirectory() (string, error) {
	rootPath, err := os.Getwd()
	if err != nil {
		return "", errors.Errorf("failed to resolve working directory: %w", err)
	}
	return rootPath, nil
}
