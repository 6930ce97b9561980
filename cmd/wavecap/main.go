package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"wavecap/internal/broker"
	"wavecap/internal/config"
	"wavecap/internal/store"
	"wavecap/internal/util"
	"wavecap/internal/view"
	"wavecap/pkg/wavecap"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default $WAVECAP_CONFIG or "+config.DefaultPath+")")
	flag.Parse()

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs always go to a file.
	logPath := cfg.Logging.File
	if logPath == "" {
		logPath = util.DefaultLogPath("wavecap", time.Now())
	}
	logFile, err := util.OpenLogFile(logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, logFile)
	util.SetDefault(logger)
	logger.Info("starting wavecap", "backend", cfg.Backend.BaseURL, "broker", cfg.Broker.Kind)

	client := wavecap.NewClient(cfg.Backend.BaseURL,
		wavecap.WithTimeout(cfg.Backend.Timeout()),
		wavecap.WithLogger(logger))

	var b broker.Broker = broker.NewBackendBroker(client)
	if strings.EqualFold(cfg.Broker.Kind, "alpaca") {
		b = broker.NewAlpacaBroker(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
		logger.Info("alpaca broker initialized", "base_url", cfg.Alpaca.BaseURL)
	}

	journal, err := store.OpenJournal(cfg.Journal.SQLitePath)
	if err != nil {
		logger.Warn("order journal disabled", "path", cfg.Journal.SQLitePath, "error", err)
		journal = store.NoopJournal{}
	}
	defer journal.Close()

	palette := view.Palette{
		Positive:    cfg.Chart.PositiveColor,
		Negative:    cfg.Chart.NegativeColor,
		FillOpacity: cfg.Chart.FillOpacity,
	}
	banner := view.NewBanner()
	targets := chartFactory(palette)

	newSession := func(uid string, sim wavecap.Simulation) *view.Session {
		chart := view.NewChart(client, palette, targets, banner, logger)
		return view.NewSession(uid, sim, chart, b, journal, banner, logger)
	}
	shell := view.NewShell(
		view.NewSearch(client, logger),
		view.NewPortfolio(client, logger),
		view.NewDetail(client, banner, logger),
		view.NewChart(client, palette, targets, banner, logger),
		view.NewSimulations(client, newSession, logger),
		view.NewGainers(client, logger),
		view.NewChat(client, logger),
		view.NewAuth(client, cfg.Session.UID, banner, logger),
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(
		initialModel(ctx, cancel, shell, banner, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
