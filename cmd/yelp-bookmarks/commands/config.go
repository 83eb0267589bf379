package commands

import (
	"errors"
	"fmt"
	"os"

	"yelp-bookmarks/internal/bookmarks"
	"yelp-bookmarks/internal/output"
	"yelp-bookmarks/internal/yelpapi"
	"yelp-bookmarks/internal/yelpsite"
	"yelp-bookmarks/lib/configutil"

	"github.com/spf13/cobra"
)

const (
	envAppID     = "YELP_APP_ID"
	envAppSecret = "YELP_APP_SECRET"
)

type Config struct {
	AppID       string `json:"app_id"`
	AppSecret   string `json:"app_secret"`
	UserID      string `json:"user_id"`
	Output      string `json:"output"`
	Verbose     bool   `json:"verbose"`
	Concurrency int    `json:"concurrency"`
	APIBaseURL  string `json:"api_base_url"`
	SiteBaseURL string `json:"site_base_url"`
	// DumpHTTPDir keeps every http exchange as a file in this directory
	// when set.
	DumpHTTPDir string `json:"dump_http_dir"`
}

func defaultConfig() Config {
	return Config{
		Output:      output.TargetStdout,
		Concurrency: bookmarks.DefaultConcurrency,
		APIBaseURL:  yelpapi.DefaultBaseURL,
		SiteBaseURL: yelpsite.DefaultBaseURL,
	}
}

// loadConfig resolves the configuration of a command, later sources win:
// defaults, the config file (and its local override), the environment and
// finally the flags that were explicitly set.
func loadConfig(cmd *cobra.Command) (Config, error) {
	cfg := defaultConfig()
	fs := cmd.Flags()

	path, err := fs.GetString("config")
	if err != nil {
		return Config{}, err
	}
	fromFile, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := configutil.Override(&cfg, fromFile); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	fromEnv := Config{
		AppID:     os.Getenv(envAppID),
		AppSecret: os.Getenv(envAppSecret),
	}
	if err := configutil.Override(&cfg, fromEnv); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	// lookup errors only happen for flags a command does not define, which
	// then are never changed either
	if fs.Changed("app-id") {
		cfg.AppID, _ = fs.GetString("app-id")
	}
	if fs.Changed("app-secret") {
		cfg.AppSecret, _ = fs.GetString("app-secret")
	}
	if fs.Changed("user-id") {
		cfg.UserID, _ = fs.GetString("user-id")
	}
	if fs.Changed("output") {
		cfg.Output, _ = fs.GetString("output")
	}
	if fs.Changed("verbose") {
		cfg.Verbose, _ = fs.GetBool("verbose")
	}
	if fs.Changed("dump-http") {
		cfg.DumpHTTPDir, _ = fs.GetString("dump-http")
	}
	if fs.Changed("concurrency") {
		cfg.Concurrency, _ = fs.GetInt("concurrency")
	}

	return cfg, nil
}

func (c Config) credentials() (yelpapi.Credentials, error) {
	if c.AppID == "" || c.AppSecret == "" {
		return yelpapi.Credentials{}, fmt.Errorf(
			"missing yelp api credentials, pass --app-id and --app-secret or set %s and %s",
			envAppID, envAppSecret,
		)
	}
	return yelpapi.Credentials{AppID: c.AppID, AppSecret: c.AppSecret}, nil
}
