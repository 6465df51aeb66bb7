package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/expvn/explog/internal/app"
	"github.com/expvn/explog/internal/server"
	"github.com/expvn/explog/internal/store"
)

const rebuildDebounce = 500 * time.Millisecond

var skipBuild bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the blog and rebuilds it when posts change",
	Long: `The serve command builds the data files, then serves the blog over HTTP.
With the default directory source it also watches './content', './static'
and the config file, rebuilding and dropping cached data on every change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !skipBuild {
			logger.Info().Msg("performing initial build")
			if _, err := runBuild(ctx); err != nil {
				return fmt.Errorf("initial build failed: %w", err)
			}
		}

		fetcher, err := store.New(ctx, appConfig)
		if err != nil {
			return err
		}
		blog, err := app.New(appConfig, fetcher, logger)
		if err != nil {
			return err
		}
		defer blog.Close()

		if _, local := fetcher.(*store.Dir); local {
			w, err := newWatcher(logger, blog.Reset)
			if err != nil {
				return err
			}
			defer w.Close()
			w.watch(appConfig.ContentDir, appConfig.StaticDir)
			if configFile != "" {
				w.watchFile(configFile)
			}
			go w.run(ctx)
		}

		srv := server.New(server.Config{
			Addr:           fmt.Sprintf(":%d", appConfig.Port),
			OutputDir:      appConfig.OutputDir,
			AllowedOrigins: appConfig.AllowedOrigins,
		}, blog, logger)
		logger.Info().Msgf("serving on http://localhost:%d, press Ctrl+C to stop", appConfig.Port)
		return srv.Run(ctx)
	},
}

// watcher rebuilds the site after a quiet period following file changes.
type watcher struct {
	fs      *fsnotify.Watcher
	log     zerolog.Logger
	onBuild func()

	mu    sync.Mutex
	timer *time.Timer
	build sync.Mutex
}

func newWatcher(log zerolog.Logger, onBuild func()) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &watcher{fs: fw, log: log.With().Str("component", "watch").Logger(), onBuild: onBuild}, nil
}

func (w *watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}

// watch adds every directory below the given roots.
func (w *watcher) watch(roots ...string) {
	for _, root := range roots {
		if !isDir(root) {
			w.log.Warn().Str("dir", root).Msg("directory not found, not watching")
			continue
		}
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				w.log.Warn().Err(err).Str("path", path).Msg("walk failed")
				return nil
			}
			if d.IsDir() {
				if err := w.fs.Add(path); err != nil {
					w.log.Warn().Err(err).Str("dir", path).Msg("failed to watch")
				}
			}
			return nil
		})
		if err != nil {
			w.log.Warn().Err(err).Str("dir", root).Msg("walk failed")
		}
	}
}

func (w *watcher) watchFile(file string) {
	if err := w.fs.Add(file); err != nil {
		w.log.Warn().Err(err).Str("file", file).Msg("failed to watch")
	}
}

func (w *watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if strings.HasSuffix(event.Name, "~") {
				continue
			}
			w.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("change detected")
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				w.watch(event.Name)
			}
			w.schedule(ctx)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(rebuildDebounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.build.Lock()
		defer w.build.Unlock()
		w.log.Info().Msg("rebuilding site")
		if err := reloadSource(); err != nil {
			w.log.Error().Err(err).Msg("config reload failed, keeping the previous site sections")
		}
		if _, err := runBuild(ctx); err != nil {
			w.log.Error().Err(err).Msg("rebuild failed")
			return
		}
		w.onBuild()
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func init() {
	serveCmd.Flags().IntP("port", "p", 1313, "port to serve the site on")
	serveCmd.Flags().BoolVar(&skipBuild, "skip-build", false, "serve the existing output without building first")
	rootCmd.AddCommand(serveCmd)
}
