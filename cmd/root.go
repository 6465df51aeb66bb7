package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/expvn/explog/internal/config"
	"github.com/expvn/explog/internal/model"
)

// SourceLoader reads the editable site sections (site, hero, home, menu) from
// the config file. An empty file name means no file was found.
type SourceLoader func(file string) (model.SiteSource, error)

var (
	cfgFile    string
	appConfig  config.Config
	siteSource model.SiteSource
	loadSource SourceLoader
	configFile string
	logger     = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

var rootCmd = &cobra.Command{
	Use:   "explog",
	Short: "explog - a markdown blog built into JSON and served as pages",
	Long: `explog turns a folder of markdown posts into the JSON data files the
blog is served from (build), and serves the blog itself over HTTP (serve).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute runs the root command. load decodes the site sections of the
// config file once it is known.
func Execute(load SourceLoader) {
	loadSource = load
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
}

func initializeConfig(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, config.Defaults())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("EXPLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, name := range map[string]string{"log.level": "log-level", "port": "port"} {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	usedFile := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if cfgFile != "" {
			return fmt.Errorf("config file %s not found: %w", cfgFile, err)
		}
	} else {
		usedFile = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&appConfig); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	logger = newLogger(appConfig.Log)
	if usedFile == "" {
		logger.Info().Msg("no config file found, using defaults and EXPLOG_* environment variables")
	} else {
		logger.Info().Str("file", usedFile).Msg("using config file")
	}

	configFile = usedFile
	return reloadSource()
}

// reloadSource re-reads the site sections of the config file.
func reloadSource() error {
	if loadSource == nil {
		return nil
	}
	src, err := loadSource(configFile)
	if err != nil {
		return err
	}
	siteSource = src
	return nil
}

// setDefaults registers every key so env vars can override keys the config
// file does not mention.
func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("siteTitle", d.SiteTitle)
	v.SetDefault("outputDir", d.OutputDir)
	v.SetDefault("contentDir", d.ContentDir)
	v.SetDefault("staticDir", d.StaticDir)
	v.SetDefault("baseURL", d.BaseURL)
	v.SetDefault("postsPerPage", d.PostsPerPage)
	v.SetDefault("port", d.Port)
	v.SetDefault("heroInterval", d.HeroInterval)
	v.SetDefault("legacyDomains", d.LegacyDomains)
	v.SetDefault("allowedOrigins", d.AllowedOrigins)
	v.SetDefault("shell.rootID", d.Shell.RootID)
	v.SetDefault("shell.script", d.Shell.Script)
	v.SetDefault("source.kind", d.Source.Kind)
	v.SetDefault("source.url", d.Source.URL)
	v.SetDefault("source.bucket", d.Source.Bucket)
	v.SetDefault("source.prefix", d.Source.Prefix)
	v.SetDefault("source.region", d.Source.Region)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func newLogger(cfg config.Log) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}
