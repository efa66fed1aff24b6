// Command build renders the plugin pages and engine listings of a corpus.
package main

import (
	"context"

	"github.com/somerandev/rpgmaker-site/internal/cli"
	"github.com/somerandev/rpgmaker-site/internal/common"
)

func main() {
	cli.Main(cli.Command{
		Name:    "build",
		Args:    "<corpus.json> <plugin_template.html> <plugin_list_template.html> <output_folder>",
		MinArgs: 4,
		MaxArgs: 4,
		Run: func(ctx context.Context, env *cli.Env, args []string) error {
			report, err := env.Service.Build(ctx, args[0], args[1], args[2], args[3])
			if err != nil {
				return err
			}

			common.Log.InfoContext(ctx, "build done",
				"pages", report.Pages,
				"listings", report.Listings,
				"skipped", report.Skipped)
			return nil
		},
	})
}
