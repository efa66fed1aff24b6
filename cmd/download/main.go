// Command download saves every plugin file a corpus links to.
package main

import (
	"context"

	"github.com/somerandev/rpgmaker-site/internal/cli"
	"github.com/somerandev/rpgmaker-site/internal/common"
)

func main() {
	cli.Main(cli.Command{
		Name:    "download",
		Args:    "<corpus.json> <download_folder>",
		MinArgs: 2,
		MaxArgs: 2,
		Run: func(ctx context.Context, env *cli.Env, args []string) error {
			report, err := env.Service.Download(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			common.Log.InfoContext(ctx, "download done",
				"downloaded", report.Downloaded,
				"failed", report.Failed,
				"skipped", report.Skipped)
			return nil
		},
	})
}
