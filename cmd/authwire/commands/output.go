package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/authwire/authwire/internal/pipeline"
)

var (
	okStyle   = color.New(color.FgGreen, color.Bold)
	failStyle = color.New(color.FgRed, color.Bold)
	warnStyle = color.New(color.FgYellow)
	pathStyle = color.New(color.FgCyan)
)

// printResult renders a pipeline result for humans. Passed gate checks are
// demoted to debug logging; the remaining warnings are worth the screen
// space.
func printResult(w io.Writer, res pipeline.Result) {
	if !res.Success {
		failStyle.Fprintf(w, "✗ wiring %s failed\n", res.Provider)
		if res.Err != nil {
			fmt.Fprintf(w, "  %v\n", res.Err)
		}
		for _, warning := range res.Warnings {
			warnStyle.Fprintf(w, "  warning: %s\n", warning)
		}
		return
	}

	okStyle.Fprintf(w, "✓ %s wired for %s\n", res.Provider, res.Platform)

	for _, rel := range res.FilesCreated {
		fmt.Fprintf(w, "  created   %s\n", pathStyle.Sprint(rel))
	}
	for _, rel := range res.FilesModified {
		fmt.Fprintf(w, "  modified  %s\n", pathStyle.Sprint(rel))
	}

	for _, warning := range res.Warnings {
		if strings.HasPrefix(warning, "check passed: ") {
			log.Debug("gate", "check", strings.TrimPrefix(warning, "check passed: "))
			continue
		}
		warnStyle.Fprintf(w, "  warning: %s\n", warning)
	}
}
