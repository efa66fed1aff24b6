// Command redirects writes redirect pages from the legacy site paths to the new site.
package main

import (
	"context"

	"github.com/somerandev/rpgmaker-site/internal/cli"
	"github.com/somerandev/rpgmaker-site/internal/common"
)

func main() {
	cli.Main(cli.Command{
		Name:    "redirects",
		Args:    "<corpus.json> <output_folder>",
		MinArgs: 2,
		MaxArgs: 2,
		Run: func(ctx context.Context, env *cli.Env, args []string) error {
			n, err := env.Service.Redirects(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			common.Log.InfoContext(ctx, "redirects done", "count", n)
			return nil
		},
	})
}
