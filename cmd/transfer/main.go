// Command transfer builds a corpus file from plain-text plugin lists and scrapes every listed plugin page.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/somerandev/rpgmaker-site/internal/cli"
	"github.com/somerandev/rpgmaker-site/internal/common"
	"github.com/somerandev/rpgmaker-site/pkg/corpus"
	"github.com/somerandev/rpgmaker-site/pkg/transfer"
	flag "github.com/spf13/pflag"
)

func main() {
	var engine string

	cli.Main(cli.Command{
		Name:    "transfer",
		Args:    "<output.json> <input.txt[=mv|mz] ...>",
		MinArgs: 2,
		MaxArgs: -1,
		Flags: func(fs *flag.FlagSet) {
			fs.StringVar(&engine, "engine", "", "engine of inputs without an explicit =engine suffix (default: from the file name)")
		},
		Run: func(ctx context.Context, env *cli.Env, args []string) error {
			inputs := make([]transfer.Input, 0, len(args)-1)
			for _, arg := range args[1:] {
				in := transfer.ParseInput(arg)
				if engine != "" && !strings.Contains(arg, "=") {
					in.Engine = corpus.NormalizeEngine(engine)
				}
				if err := common.ValidateEngine(in.Engine); err != nil {
					return fmt.Errorf("%s: %w", in.Path, err)
				}
				inputs = append(inputs, in)
			}

			report, err := env.Service.Transfer(ctx, args[0], inputs)
			if err != nil {
				return err
			}

			common.Log.InfoContext(ctx, "transfer done",
				"files", report.Files,
				"entries", report.Entries,
				"skippedFiles", report.SkippedFiles,
				"skippedGroups", report.SkippedGroups,
				"scrapeFailures", report.ScrapeFailures)
			return nil
		},
	})
}
