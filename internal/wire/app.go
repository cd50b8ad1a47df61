package wire

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/mithrel/stripnbsp/internal/config"
	"github.com/mithrel/stripnbsp/internal/db"
	"github.com/mithrel/stripnbsp/internal/engine"
	"github.com/mithrel/stripnbsp/internal/pipeline"
	"github.com/mithrel/stripnbsp/internal/plugin"
	"github.com/mithrel/stripnbsp/pkg/api"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg      *viper.Viper
	Log      *slog.Logger
	Plugin   api.Plugin
	Pipeline *pipeline.Pipeline
	Cache    db.Store
}

// BuildApp wires dependencies with the provided config. Logs go to logOut.
func BuildApp(ctx context.Context, v *viper.Viper, logOut io.Writer) (*App, error) {
	if err := config.CheckConfigValidity(v); err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: config.LogLevel(v)}))

	p := plugin.Wrap(engine.New(EngineConfig(v)))
	pl := pipeline.New(p, logger)
	if jobs := v.GetInt("jobs"); jobs > 0 {
		pl.Jobs = jobs
	}

	app := &App{Cfg: v, Log: logger, Plugin: p, Pipeline: pl}
	if v.GetBool("cache.enabled") {
		store, err := db.Open(ctx, v.GetString("cache.path"))
		if err != nil {
			return nil, err
		}
		app.Cache = store
		pl.Cache = store
	}
	return app, nil
}

// EngineConfig maps configuration onto the markdown engine.
func EngineConfig(v *viper.Viper) engine.Config {
	return engine.Config{
		GFM:        v.GetBool("gfm"),
		UnsafeHTML: v.GetBool("html.unsafe"),
		Style:      v.GetString("glamour.style"),
		WordWrap:   v.GetInt("glamour.word_wrap"),
	}
}

// Close releases the cache, if any.
func (a *App) Close() error {
	if a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}
