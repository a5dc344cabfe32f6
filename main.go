package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxfinder/internal/api/tgvmax"
	"github.com/danpilch/maxfinder/internal/config"
	"github.com/danpilch/maxfinder/internal/notify"
	"github.com/danpilch/maxfinder/internal/render"
	"github.com/danpilch/maxfinder/internal/session"
)

var CLI struct {
	Config    string `help:"Path to config file" default:"config.yaml" type:"path"`
	LogLevel  string `help:"Log level" default:"info" enum:"debug,info,warn,error"`
	LogFormat string `help:"Log format" default:"text" enum:"text,json"`

	Single    SingleCmd    `cmd:"" help:"Search trips from an origin on one date."`
	Range     RangeCmd     `cmd:"" help:"Search trips over a range of days, grouped by date."`
	RoundTrip RoundTripCmd `cmd:"" name:"round-trip" help:"Search outbound and return trips per destination."`
	Watch     WatchCmd     `cmd:"" help:"Re-run the configured watches and alert on new trips."`
}

// App holds the collaborators shared by every command.
type App struct {
	cfg      *config.Config
	logger   *logrus.Logger
	client   *tgvmax.Client
	renderer *render.Renderer
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("maxfinder"),
		kong.Description("Find TGV Max seats by date, date range or round trip."),
		kong.UsageOnError(),
	)

	// Setup structured logging with logfmt
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if CLI.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	}
	level, err := logrus.ParseLevel(CLI.LogLevel)
	if err != nil {
		logger.WithField("error", err).Fatal("invalid log level")
	}
	logger.SetLevel(level)

	// Credentials may live in a local .env file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.WithField("error", err).Warn("failed to read .env file")
	}

	// Load configuration
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		logger.WithField("error", err).Fatal("failed to load config")
	}

	client := tgvmax.NewClient(cfg.API.BaseURL, logger,
		tgvmax.WithTimeout(cfg.API.Timeout),
		tgvmax.WithCache(cfg.API.CacheTTL, cfg.API.CacheSize),
		tgvmax.WithRetries(cfg.API.Retries, tgvmax.DefaultRetryWait),
	)

	app := &App{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		renderer: render.NewRenderer(os.Stdout, cfg.Search.Preview),
	}

	ctx.FatalIfErrorf(ctx.Run(app))
}

func (a *App) newController() *session.Controller {
	return session.NewController(a.client, a.logger)
}

// notifier builds a Pushover notifier from the environment.
func (a *App) notifier() *notify.Notifier {
	token := os.Getenv("PUSHOVER_TOKEN")
	user := os.Getenv("PUSHOVER_USER")
	if token == "" || user == "" {
		a.logger.Fatal("PUSHOVER_TOKEN and PUSHOVER_USER environment variables are required")
	}
	return notify.NewNotifier(token, user, a.logger)
}
