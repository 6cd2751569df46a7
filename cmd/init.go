package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/dataloom-cli/internal/config"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config and create the runs directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			p, err := cfgpkg.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		out := cmd.OutOrStdout()
		// Refuse to overwrite an existing config.
		if _, err := os.Stat(path); err == nil && !initForce {
			fmt.Fprintf(out, "Config already exists at %s (use --force to overwrite)\n", path)
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat config: %w", err)
		} else {
			if err := cfgpkg.Save(cfgpkg.Defaults(), path); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Config written: %s\n", path)
		}

		c, err := cfgpkg.Load(path)
		if err != nil {
			return err
		}
		cfg, cfgErr = c, nil
		for _, dir := range []string{c.RunsDir, c.OutputDir} {
			if dir == "" {
				continue
			}
			if err := utils.EnsureDir(dir); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "✓ Runs directory: %s\n", c.RunsDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config with defaults")
}
