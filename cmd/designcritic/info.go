package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/dshills/designcritic/internal/config"
	"github.com/dshills/designcritic/internal/profile"
	"github.com/dshills/designcritic/internal/prompt"
	"github.com/dshills/designcritic/internal/schema"
)

func newInstructionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instructions",
		Short: "Print the output-format instructions sent with every prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), prompt.CompileInstructions(schema.Critique()))
			return err
		},
	}
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in critic profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := profile.List()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, name := range names {
				p, err := profile.LoadBuiltin(name)
				if err != nil {
					return err
				}
				marker := " "
				if name == profile.Default {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %-14s %s\n", marker, name, strings.TrimSpace(p.Description))
			}
			return nil
		},
	}
}

func newConfigCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rf.configPath
			if path == "" {
				path = config.Path()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return exitError(3, "%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return exitError(3, "%v", err)
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := rf.setup()
			if err != nil {
				return err
			}
			masked := *cfg
			for _, key := range []*string{&masked.GroqAPIKey, &masked.OpenAIAPIKey, &masked.AnthropicAPIKey, &masked.GeminiAPIKey} {
				*key = mask(*key)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(masked)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
