package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxfinder/internal/api/tgvmax"
	"github.com/danpilch/maxfinder/internal/config"
	"github.com/danpilch/maxfinder/internal/monitor"
	"github.com/danpilch/maxfinder/internal/scheduler"
	"github.com/danpilch/maxfinder/internal/session"
	"github.com/danpilch/maxfinder/internal/trips"
)

// searchFlags are shared by every search command.
type searchFlags struct {
	Origin      string  `help:"Departure station (defaults to search.origin)." short:"o"`
	Date        string  `help:"Departure date, YYYY-MM-DD." required:""`
	DepartStart string  `help:"Earliest departure, HH:MM."`
	DepartEnd   string  `help:"Latest departure, HH:MM."`
	MaxDuration float64 `help:"Maximum trip duration in hours."`
	Select      string  `help:"Open the detail view of this group." short:"s"`
	Interactive bool    `help:"Navigate groups interactively." short:"i"`
	Notify      bool    `help:"Send a Pushover summary of the results."`
	Sort        string  `help:"Order trip listings by departure, duration or destination."`
	Desc        bool    `help:"Reverse the --sort order."`
}

type SingleCmd struct {
	Search      searchFlags `embed:""`
	Destination string      `help:"Only trips to this station." short:"d"`
}

func (c *SingleCmd) Run(app *App) error {
	req, err := app.request(trips.ModeSingle, c.Search)
	if err != nil {
		return err
	}
	outbound, err := app.outboundFilter(c.Search)
	if err != nil {
		return err
	}
	req.Destination = c.Destination
	req.StartTime, req.EndTime = outbound.DepartStart, outbound.DepartEnd
	return app.search(c.Search, session.Params{Request: req, Outbound: outbound})
}

type RangeCmd struct {
	Search      searchFlags `embed:""`
	Destination string      `help:"Only trips to this station." short:"d"`
	Days        int         `help:"Number of days to search (1-30, defaults to search.range_days)."`
}

func (c *RangeCmd) Run(app *App) error {
	req, err := app.request(trips.ModeDateRange, c.Search)
	if err != nil {
		return err
	}
	outbound, err := app.outboundFilter(c.Search)
	if err != nil {
		return err
	}
	req.Destination = c.Destination
	req.Days = c.Days
	if req.Days == 0 {
		req.Days = app.cfg.Search.RangeDays
	}
	return app.search(c.Search, session.Params{Request: req, Outbound: outbound})
}

type RoundTripCmd struct {
	Search      searchFlags `embed:""`
	ReturnDate  string      `help:"Return date, YYYY-MM-DD." required:""`
	ReturnStart string      `help:"Earliest return departure, HH:MM."`
	ReturnEnd   string      `help:"Latest return departure, HH:MM."`
	All         bool        `help:"Show every trip in the overview instead of a preview."`
}

func (c *RoundTripCmd) Run(app *App) error {
	req, err := app.request(trips.ModeRoundTrip, c.Search)
	if err != nil {
		return err
	}
	if req.ReturnDate, err = time.Parse("2006-01-02", c.ReturnDate); err != nil {
		return fmt.Errorf("invalid return date %q: %w", c.ReturnDate, err)
	}

	outbound, err := app.outboundFilter(c.Search)
	if err != nil {
		return err
	}
	inbound, err := windowFilter("return", mergeWindow(app.cfg.Search.Return, c.ReturnStart, c.ReturnEnd), app.maxDuration(c.Search))
	if err != nil {
		return err
	}
	if c.All {
		app.renderer = app.renderer.WithPreview(-1)
	}

	return app.search(c.Search, session.Params{
		Request:  req,
		Outbound: outbound,
		Inbound:  inbound,
	})
}

type WatchCmd struct {
	DryRun bool `help:"Log new trips instead of sending Pushover alerts."`
}

func (c *WatchCmd) Run(app *App) error {
	if len(app.cfg.Watches) == 0 {
		return fmt.Errorf("no watches configured in %s", CLI.Config)
	}

	var alerter monitor.Alerter
	if !c.DryRun {
		alerter = app.notifier()
	}

	outbound := app.cfg.Search.Depart.Filter(app.cfg.Search.MaxDurationValue())
	inbound := app.cfg.Search.Return.Filter(app.cfg.Search.MaxDurationValue())
	watchMonitor := monitor.NewWatchMonitor(app.client, alerter, outbound, inbound, app.logger)
	sched := scheduler.NewScheduler(app.cfg.Watches, watchMonitor, app.logger)

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		app.logger.WithField("signal", sig).Info("received signal, shutting down")
		cancel()
	}()

	app.logger.WithFields(logrus.Fields{
		"watches": len(app.cfg.Watches),
		"dry_run": c.DryRun,
	}).Info("starting maxfinder watch")

	sched.Start(ctx)
	<-ctx.Done()
	sched.Stop()

	app.logger.Info("maxfinder stopped")
	return nil
}

func (a *App) request(mode trips.Mode, f searchFlags) (tgvmax.Request, error) {
	date, err := time.Parse("2006-01-02", f.Date)
	if err != nil {
		return tgvmax.Request{}, fmt.Errorf("invalid date %q: %w", f.Date, err)
	}
	origin := f.Origin
	if origin == "" {
		origin = a.cfg.Search.Origin
	}
	return tgvmax.Request{Mode: mode, Origin: origin, Date: date}, nil
}

// mergeWindow overrides the configured window with the non-empty flag values.
func mergeWindow(w config.Window, start, end string) config.Window {
	if start != "" {
		w.Start = start
	}
	if end != "" {
		w.End = end
	}
	return w
}

func windowFilter(name string, w config.Window, maxDuration time.Duration) (trips.Filter, error) {
	if err := w.Validate(); err != nil {
		return trips.Filter{}, fmt.Errorf("invalid %s window: %w", name, err)
	}
	return w.Filter(maxDuration), nil
}

func (a *App) maxDuration(f searchFlags) time.Duration {
	if f.MaxDuration > 0 {
		return time.Duration(f.MaxDuration * float64(time.Hour))
	}
	return a.cfg.Search.MaxDurationValue()
}

func (a *App) outboundFilter(f searchFlags) (trips.Filter, error) {
	return windowFilter("departure", mergeWindow(a.cfg.Search.Depart, f.DepartStart, f.DepartEnd), a.maxDuration(f))
}

// search runs one search and presents it according to the flags.
func (a *App) search(f searchFlags, p session.Params) error {
	sortKey, err := trips.ParseSortKey(f.Sort)
	if err != nil {
		return err
	}
	renderer := a.renderer.WithOrder(sortKey, f.Desc)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	controller := a.newController()
	result, err := controller.RunSearch(ctx, p)
	if err != nil {
		renderer.Error(err)
		return err
	}

	if f.Notify {
		if err := a.notifier().SendSearchSummary(p.Request.Origin, result); err != nil {
			a.logger.WithField("error", err).Error("failed to send summary")
		}
	}

	if f.Select != "" {
		if key, ok := matchKey(result, f.Select); !ok || !controller.SelectGroup(key) {
			a.logger.WithField("key", f.Select).Warn("no group with this key")
		}
	}

	if f.Interactive {
		return navigate(controller, renderer, os.Stdin, os.Stdout)
	}
	renderer.Controller(controller)
	return nil
}

// navigate reads navigation commands until EOF or "q": a group key or its
// 1-based index opens it, "b" goes back.
func navigate(c *session.Controller, r rendererFace, in io.Reader, out io.Writer) error {
	r.Controller(c)
	fmt.Fprint(out, "> ")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
		case "q", "quit", "exit":
			return nil
		case "b", "back":
			c.GoBack()
			r.Controller(c)
		default:
			key, ok := matchKey(c.CurrentGroups(), input)
			if !ok || !c.SelectGroup(key) {
				fmt.Fprintf(out, "no group %q\n", input)
			} else {
				r.Controller(c)
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

type rendererFace interface {
	Controller(c *session.Controller)
}

// matchKey resolves user input to a group key: exact match, then
// case-insensitive match, then 1-based index.
func matchKey(result trips.Result, input string) (string, bool) {
	keys := result.Keys()
	for _, k := range keys {
		if k == input {
			return k, true
		}
	}
	for _, k := range keys {
		if strings.EqualFold(k, input) {
			return k, true
		}
	}
	if i, err := strconv.Atoi(input); err == nil && i >= 1 && i <= len(keys) {
		return keys[i-1], true
	}
	return "", false
}
