package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alexanderjulianmartinez/schemawalk/internal/buttons"
	"github.com/alexanderjulianmartinez/schemawalk/internal/config"
	"github.com/alexanderjulianmartinez/schemawalk/internal/report"
	"github.com/alexanderjulianmartinez/schemawalk/internal/source/mysql"
	"github.com/alexanderjulianmartinez/schemawalk/internal/walker"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "schemawalk error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 {
		printUsage()
		return nil
	}

	switch args[1] {
	case "walk":
		return runWalk(args[2:])
	case "databases":
		return runDatabases(args[2:])
	case "buttons":
		return runButtons(args[2:])
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", args[1])
	}
}

func loadConfig(name string, args []string) (*config.Config, *logrus.Logger, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config.yaml")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if *configPath == "" {
		return nil, nil, fmt.Errorf("missing required flag: --config")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newLogger(cfg config.LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

func newSink(cfg config.ReportConfig) report.Sink {
	if cfg.Sink == config.SinkKafka {
		return report.NewKafkaSink(cfg.Kafka)
	}
	return report.NewConsoleSink(os.Stdout)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runWalk(args []string) error {
	cfg, log, err := loadConfig("walk", args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	insp, err := mysql.NewInspector(ctx, cfg.Source, cfg.Walk.QueryTimeout)
	if err != nil {
		return err
	}

	sink := newSink(cfg.Report)
	defer func() {
		if err := sink.Close(); err != nil {
			log.WithError(err).Warn("close report sink")
		}
	}()

	w := walker.New(insp, sink, log, walker.Options{
		Concurrency: cfg.Walk.Concurrency,
		Filter:      cfg.Databases.Allows,
	})
	sum, err := w.Walk(ctx)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"databases": sum.Databases,
		"tables":    sum.Tables,
		"columns":   sum.Columns,
		"failures":  len(sum.Failures),
	}).Info("walk complete")
	return nil
}

func runDatabases(args []string) error {
	cfg, log, err := loadConfig("databases", args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	insp, err := mysql.NewInspector(ctx, cfg.Source, cfg.Walk.QueryTimeout)
	if err != nil {
		return err
	}

	w := walker.New(insp, nil, log, walker.Options{Filter: cfg.Databases.Allows})
	dbs, err := w.Databases(ctx)
	if err != nil {
		return err
	}
	for _, db := range dbs {
		fmt.Println(db)
	}
	return nil
}

func runButtons(args []string) error {
	cfg, log, err := loadConfig("buttons", args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	db, err := mysql.Open(ctx, cfg.Source, cfg.Walk.QueryTimeout)
	if err != nil {
		return err
	}
	loadCtx, loadCancel := context.WithTimeout(ctx, cfg.Walk.QueryTimeout)
	rows, err := buttons.Load(loadCtx, db, cfg.Buttons.Table)
	loadCancel()
	db.Close()
	if err != nil {
		return err
	}
	log.WithField("count", len(rows)).Info("loaded buttons")

	srv := &http.Server{
		Addr:              cfg.Buttons.Listen,
		Handler:           buttons.NewHandler(rows, cfg.Buttons.Static, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithField("addr", srv.Addr).Info("serving buttons")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func printUsage() {
	fmt.Print(`schemawalk - MySQL schema diagnostic dump

Usage:
  schemawalk walk --config <path>
  schemawalk databases --config <path>
  schemawalk buttons --config <path>

Commands:
  walk       Print every database, table and column
  databases  List databases only
  buttons    Serve the till button layout over HTTP
  help       Show this help message
`)
}
