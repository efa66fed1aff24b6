package internal

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	slogchi "github.com/samber/slog-chi"
	"github.com/somerandev/rpgmaker-site/internal/common"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// App serves a built site folder for local preview.
type App struct {
	PublicDir string
}

/*
NewApp creates a new instance of the App struct.

Parameters:
  - publicDir: The folder holding the built site, as written by the build command.

Returns:
  - A pointer to the newly created App instance, or an error when publicDir is not a folder.
*/
func NewApp(publicDir string) (*App, error) {
	info, err := os.Stat(publicDir)
	if err != nil {
		return nil, fmt.Errorf("failed to os.Stat: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", publicDir)
	}

	return &App{
		PublicDir: publicDir,
	}, nil
}

// Router returns the preview HTTP handler.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(slogchi.New(common.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD"},
		AllowedHeaders: []string{
			"Content-Type",
			"X-Requested-With",
			"Accept",
			"Accept-Language",
			"Accept-Encoding",
			"Content-Language",
			"Origin",
		},
		MaxAge: 300,
	}))
	r.Get("/healthz", a.HealthHandler)
	r.Handle("/*", http.FileServer(http.Dir(a.PublicDir)))

	return otelhttp.NewHandler(r, "preview")
}

/*
HealthHandler reports that the preview server is up.

This method writes a plain "ok" body.
*/
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "HealthHandler")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("ok")); err != nil {
		common.Log.ErrorContext(ctx, "Failed to write response", "err", err)
		span.RecordError(err)
	}
}
