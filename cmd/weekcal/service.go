package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"weekcal/internal/calendar"
	"weekcal/internal/config"
	"weekcal/internal/editor"
	"weekcal/internal/ics"
	appLog "weekcal/internal/log"
	"weekcal/internal/model"
	"weekcal/internal/snapshot"
	"weekcal/internal/storage"
	"weekcal/internal/store"
	"weekcal/internal/web"
)

// service is the state shared by all commands once config is loaded.
type service struct {
	cfg   *config.Config
	loc   *time.Location
	store *store.Store
	slot  storage.Slot
}

func (rt *service) load(c *cli.Context) error {
	path := c.String("config")
	conf, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	// CLI flags override config file values.
	if v := c.String("listen"); v != "" {
		conf.Listen = v
	}
	if v := c.String("log-level"); v != "" {
		conf.LogLevel = v
	}
	if c.Bool("ephemeral") {
		conf.Storage.Driver = "memory"
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", conf.Timezone)
	}

	slot, err := storage.Open(storage.Options{
		Driver:        conf.Storage.Driver,
		Path:          conf.Storage.Path,
		Key:           conf.Storage.Key,
		RedisAddr:     conf.Storage.RedisAddr,
		RedisPassword: conf.Storage.RedisPassword,
		RedisDB:       conf.Storage.RedisDB,
	})
	if err != nil {
		return err
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", loc.String(),
		"week_start", conf.WeekStart,
		"storage_driver", conf.Storage.Driver,
		"snapshot_path", conf.Snapshot.Path,
	)

	rt.cfg = conf
	rt.loc = loc
	rt.slot = slot
	rt.store = store.New(c.Context, store.NewSlotRepository(slot, loc))
	return nil
}

func (rt *service) close(*cli.Context) error {
	if closer, ok := rt.slot.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (rt *service) serve(c *cli.Context) error {
	if rt.cfg.Snapshot.Path != "" {
		snap, err := snapshot.New(rt.store, snapshot.Options{
			Schedule: rt.cfg.Snapshot.Cron,
			Path:     rt.cfg.Snapshot.Path,
			Name:     "weekcal",
			Location: rt.loc,
		})
		if err != nil {
			return err
		}
		snap.Start()
		defer snap.Stop()
	}

	srv := web.NewServer(rt.cfg, rt.store, editor.New(rt.store, rt.loc), rt.loc)
	defer srv.Close()
	return srv.ListenAndServe(c.Context)
}

func (rt *service) printWeek(c *cli.Context) error {
	anchor := time.Now().In(rt.loc)
	if v := c.String("date"); v != "" {
		d, err := model.ParseDay(v, rt.loc)
		if err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
		anchor = d
	}

	week := calendar.Week{Start: calendar.ParseWeekStart(rt.cfg.WeekStart)}
	days := week.Days(anchor)

	out := c.App.Writer
	fmt.Fprintln(out, calendar.Label(anchor))
	for _, b := range rt.store.BucketByDay(days) {
		fmt.Fprintf(out, "%s %s\n", b.Day.Format("Mon"), b.Day.Format(model.DayLayout))
		for _, e := range b.Events {
			fmt.Fprintf(out, "  %s-%s  %s\n", e.Start.In(rt.loc).Format("15:04"), e.End.In(rt.loc).Format("15:04"), e.Title)
		}
	}
	return nil
}

func (rt *service) export(c *cli.Context) error {
	body := ics.Export("weekcal", rt.store.List(), time.Now())
	path := c.String("out")
	if path == "" {
		_, err := io.WriteString(c.App.Writer, body)
		return err
	}

	slot, err := storage.NewFileSlot(path)
	if err != nil {
		return err
	}
	if err := slot.Save(c.Context, []byte(body)); err != nil {
		return err
	}
	appLog.Info("export written", "path", path)
	return nil
}

func (rt *service) importFile(c *cli.Context) error {
	path := strings.TrimSpace(c.Args().First())
	if path == "" {
		return errors.New("import: FILE argument is required")
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	created, err := ics.Import(c.Context, rt.store, body, ics.ParseOptions{Location: rt.loc})
	fmt.Fprintf(c.App.Writer, "imported %d events from %s\n", len(created), path)
	return err
}
