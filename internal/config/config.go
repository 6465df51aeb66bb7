package config

import "time"

// Config is the tool configuration read from config.yaml and EXPLOG_* env vars.
type Config struct {
	SiteTitle      string        `mapstructure:"siteTitle"`
	OutputDir      string        `mapstructure:"outputDir"`
	ContentDir     string        `mapstructure:"contentDir"`
	StaticDir      string        `mapstructure:"staticDir"`
	BaseURL        string        `mapstructure:"baseURL"`
	PostsPerPage   int           `mapstructure:"postsPerPage"`
	Port           int           `mapstructure:"port"`
	HeroInterval   time.Duration `mapstructure:"heroInterval"`
	LegacyDomains  []string      `mapstructure:"legacyDomains"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	Shell          Shell         `mapstructure:"shell"`
	Source         Source        `mapstructure:"source"`
	Log            Log           `mapstructure:"log"`
}

// Shell identifies the SPA shell document a misconfigured host may return for
// unknown paths.
type Shell struct {
	RootID string `mapstructure:"rootID"`
	Script string `mapstructure:"script"`
}

// Source selects where the server reads the generated data files from.
type Source struct {
	Kind   string `mapstructure:"kind"` // dir (default), http or s3
	URL    string `mapstructure:"url"`
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		SiteTitle:      "My Website",
		OutputDir:      "public",
		ContentDir:     "content",
		StaticDir:      "static",
		PostsPerPage:   20,
		Port:           1313,
		HeroInterval:   5 * time.Second,
		AllowedOrigins: []string{"*"},
		Shell:          Shell{RootID: "app", Script: "app.js"},
		Source:         Source{Kind: "dir"},
		Log:            Log{Level: "info", Format: "console"},
	}
}
