package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/urfave/cli/v3"
)

// versionLine renders the build as a single line, e.g.
// "tmxsync 1.2.0 (abc1234, 2026-01-02, go1.25.4)".
func versionLine() string {
	return fmt.Sprintf("tmxsync %s (%s, %s, %s)", Version, Commit, BuildDate, runtime.Version())
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the tmxsync version and build details",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Println(versionLine())
			return nil
		},
	}
}
