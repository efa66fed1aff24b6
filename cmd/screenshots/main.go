// Command screenshots adds the screenshots of every plugin page to a corpus file.
package main

import (
	"context"

	"github.com/somerandev/rpgmaker-site/internal/cli"
	"github.com/somerandev/rpgmaker-site/internal/common"
)

func main() {
	cli.Main(cli.Command{
		Name:    "screenshots",
		Args:    "<input.json> <output.json>",
		MinArgs: 2,
		MaxArgs: 2,
		Run: func(ctx context.Context, env *cli.Env, args []string) error {
			report, err := env.Service.Screenshots(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			common.Log.InfoContext(ctx, "screenshots done",
				"withScreenshots", report.WithScreenshots,
				"without", report.Without,
				"failed", report.Failed)
			return nil
		},
	})
}
