// Command scrape prints the metadata of one legacy plugin page as JSON.
package main

import (
	"context"

	"github.com/somerandev/rpgmaker-site/internal/cli"
)

func main() {
	cli.Main(cli.Command{
		Name:    "scrape",
		Args:    "<url>",
		MinArgs: 1,
		MaxArgs: 1,
		Run: func(ctx context.Context, env *cli.Env, args []string) error {
			result, err := env.Service.Scrape(ctx, args[0])
			if err != nil {
				return err
			}

			return env.PrintJSON(result)
		},
	})
}
