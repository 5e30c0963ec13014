package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/tut2video/internal/artifact"
	"github.com/ivlev/tut2video/internal/config"
	"github.com/ivlev/tut2video/internal/contract"
)

func newContractCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Inspect governance contracts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the active contract as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.contract()
			if err != nil {
				return err
			}
			data, err := artifact.Encode(c, artifact.YAML)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <contract.yaml>",
		Short: "Verify that a contract file parses and is self-consistent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := contract.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[+++] contract v%s: %s\n", c.Version, strings.Join(c.SceneTypeNames(), ", "))
			return nil
		},
	})
	return cmd
}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init [path]",
		Short:       "Write the default configuration",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "tut2video.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			cfg := config.Default()
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			if err := artifact.WriteBytes(path, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[+++] wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := ctx.config.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}
