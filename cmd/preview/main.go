// Command preview serves a built site folder over HTTP until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/somerandev/rpgmaker-site/internal"
	"github.com/somerandev/rpgmaker-site/internal/cli"
	"github.com/somerandev/rpgmaker-site/internal/common"
	flag "github.com/spf13/pflag"
)

func main() {
	var addr string

	cli.Main(cli.Command{
		Name:    "preview",
		Args:    "[<public_folder>]",
		MinArgs: 0,
		MaxArgs: 1,
		Flags: func(fs *flag.FlagSet) {
			fs.StringVar(&addr, "addr", "", "listen address (default: preview_listen_addr from the configuration)")
		},
		Run: func(ctx context.Context, env *cli.Env, args []string) error {
			publicDir := "public"
			if len(args) == 1 {
				publicDir = args[0]
			}
			if addr == "" {
				addr = env.Config.PreviewListenAddr
			}

			app, err := internal.NewApp(publicDir)
			if err != nil {
				return fmt.Errorf("failed to internal.NewApp: %w", err)
			}

			srv := &http.Server{
				Addr:    addr,
				Handler: app.Router(),
			}

			errc := make(chan error, 1)
			go func() {
				common.Log.Info("Listening", "addr", addr, "dir", publicDir)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- fmt.Errorf("failed to http.Server.ListenAndServe: %w", err)
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to http.Server.Shutdown: %w", err)
			}

			common.Log.Info("Bye!")
			return nil
		},
	})
}
