package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/authwire/authwire/internal/errors"
	"github.com/authwire/authwire/internal/platform"
)

func init() {
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show the detected hosting platform",
	Long: `Detect the hosting platform of the project at --project from its
configuration files (fly.toml, vercel.json, netlify.toml, render.yaml).`,
	Example: `  # Detect the platform of the current directory
  authwire detect

  See Also: authwire add --platform`,
	RunE: runDetect,
}

func runDetect(cmd *cobra.Command, _ []string) error {
	root, err := filepath.Abs(projectFlag)
	if err != nil {
		return errors.NewSystemError(err, "")
	}

	name := platform.Detect(root)
	p, ok := platform.Get(name)
	if !ok {
		return errors.NewUserError(
			errors.Newf("no hosting platform detected in %s", root),
			"Pass --platform to authwire add, or add a platform config file")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", p.Name, p.ConfigFile)
	return nil
}
