package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/authwire/authwire/internal/errors"
	"github.com/authwire/authwire/internal/logging"
	"github.com/authwire/authwire/internal/pipeline"
)

var (
	addPlatform  string
	addEntryFunc string
	addForce     bool
	addDryRun    bool
	addNoBackup  bool
)

func init() {
	addCmd.Flags().StringVar(&addPlatform, "platform", "",
		"hosting platform: fly, vercel, netlify, render (default: detected)")
	addCmd.Flags().StringVar(&addEntryFunc, "entry-func", "",
		"initialization routine to patch (default from config)")
	addCmd.Flags().BoolVar(&addForce, "force", false,
		"overwrite an existing installation of the same provider")
	addCmd.Flags().BoolVar(&addDryRun, "dry-run", false,
		"validate and detect without mutating the project")
	addCmd.Flags().BoolVar(&addNoBackup, "no-backup", false,
		"skip the pre-mutation snapshot")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add [provider]",
	Short: "Wire an authentication provider into the project",
	Long: `Wire an authentication provider into the project at --project.

Creates the provider's source files under internal/auth, records its module
dependencies in go.mod, patches the entry point to register the provider,
and merges its configuration keys into the platform config file and
.env.example.

A snapshot of every file the run may touch is captured first; any failure
restores the project to its pre-run state. A project that already has a
provider wired is rejected: use --force to overwrite the same provider, or
remove a different one first.

When no provider argument is given and stdin is a terminal, an interactive
picker opens.`,
	Example: `  # Wire auth0
  authwire add auth0

  # Pick interactively
  authwire add

  # Force a re-run over an existing auth0 installation
  authwire add auth0 --force

  # Preview only
  authwire add clerk --dry-run

  See Also: authwire detect, authwire snapshots list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	return runAddWith(cmd, pipeline.New(log), args)
}

func runAddWith(cmd *cobra.Command, orch *pipeline.Orchestrator, args []string) error {
	root, err := filepath.Abs(projectFlag)
	if err != nil {
		return errors.NewSystemError(err, "")
	}

	var providerID string
	if len(args) > 0 {
		providerID = args[0]
	} else {
		providerID, err = pickProvider(orch.Providers().IDs())
		if err != nil {
			return err
		}
	}

	opts := pipeline.NewOptions(root, providerID)
	opts.Platform = addPlatform
	opts.Force = addForce
	opts.DryRun = addDryRun
	opts.EntryFunc = addEntryFunc
	if opts.EntryFunc == "" {
		opts.EntryFunc = toolConfig().EntryFunc
	}
	opts.Backup = toolConfig().Backup && !addNoBackup

	res := orch.Run(opts)
	printResult(cmd.OutOrStdout(), res)

	if !res.Success {
		return errors.NewExitError(res.Err, errors.CodeFor(errors.KindOf(res.Err)))
	}
	return nil
}

// pickProvider opens the interactive finder. Outside a terminal the
// provider argument is required.
func pickProvider(ids []string) (string, error) {
	if !logging.IsTTY(os.Stdin) {
		return "", errors.NewUserError(nil,
			"provider argument required; one of: "+strings.Join(ids, ", "))
	}

	idx, err := fuzzyfinder.Find(ids, func(i int) string { return ids[i] })
	if err != nil {
		return "", errors.NewUserError(err, "no provider selected")
	}
	return ids[idx], nil
}
