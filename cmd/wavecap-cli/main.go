package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"wavecap/internal/broker"
	"wavecap/internal/config"
	"wavecap/internal/store"
	"wavecap/internal/util"
	"wavecap/pkg/wavecap"
)

const version = "0.1.0"

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	client *wavecap.Client
	logger *slog.Logger
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: wavecap-cli [-config file] <command> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version                          Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "  status                           Check the backend is reachable\n")
	fmt.Fprintf(os.Stderr, "  login <email> <password>         Sign in and print the uid\n")
	fmt.Fprintf(os.Stderr, "  signup <email> <password>        Create an account\n")
	fmt.Fprintf(os.Stderr, "  logout                           End the configured session\n")
	fmt.Fprintf(os.Stderr, "  search <query>                   Autocomplete symbols\n")
	fmt.Fprintf(os.Stderr, "  quote <symbol>                   Show company metrics\n")
	fmt.Fprintf(os.Stderr, "  chart <symbol> [-style s] [interval] Summarise the price series\n")
	fmt.Fprintf(os.Stderr, "  news <symbol>                    List headlines\n")
	fmt.Fprintf(os.Stderr, "  gainers                          List top gainers\n")
	fmt.Fprintf(os.Stderr, "  portfolio                        List saved symbols\n")
	fmt.Fprintf(os.Stderr, "  save <symbol> | unsave <symbol>  Add or remove a saved symbol\n")
	fmt.Fprintf(os.Stderr, "  sims                             List simulations\n")
	fmt.Fprintf(os.Stderr, "  new-sim <name> <balance> <ticker> Create a simulation\n")
	fmt.Fprintf(os.Stderr, "  order <ticker> <amount>          Place a paper order (-type, -side)\n")
	fmt.Fprintf(os.Stderr, "  orders                           Show the local order journal\n")
	fmt.Fprintf(os.Stderr, "  export <symbol> [interval] [file] Save a price series as Parquet\n")
	fmt.Fprintf(os.Stderr, "  snapshots [interval]             List exported series\n")
	fmt.Fprintf(os.Stderr, "  chat <message>                   Ask the assistant\n")
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	flag.Usage = usage
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}
	if args[0] == "version" {
		fmt.Printf("wavecap-cli %s\n", version)
		return
	}

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logOut := os.Stderr
	if cfg.Logging.File != "" {
		f, err := util.OpenLogFile(cfg.Logging.File)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, logOut)
	util.SetDefault(logger)

	a := &app{
		cfg:    cfg,
		logger: logger,
		client: wavecap.NewClient(cfg.Backend.BaseURL,
			wavecap.WithTimeout(cfg.Backend.Timeout()),
			wavecap.WithLogger(logger)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := a.run(ctx, args[0], args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
		} else {
			fmt.Fprintf(os.Stderr, "error: %s\n", wavecap.Message(err))
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "status":
		return a.status(ctx)
	case "login", "signup":
		return a.auth(ctx, cmd, args)
	case "logout":
		return a.logout(ctx)
	case "search":
		return a.search(ctx, args)
	case "quote":
		return a.quote(ctx, args)
	case "chart":
		return a.chart(ctx, args)
	case "news":
		return a.news(ctx, args)
	case "gainers":
		return a.gainers(ctx)
	case "portfolio":
		return a.portfolio(ctx)
	case "save", "unsave":
		return a.toggle(ctx, cmd, args)
	case "sims":
		return a.sims(ctx)
	case "new-sim":
		return a.newSim(ctx, args)
	case "order":
		return a.order(ctx, args)
	case "orders":
		return a.orders(ctx, args)
	case "export":
		return a.export(ctx, args)
	case "snapshots":
		return a.snapshots(ctx, args)
	case "chat":
		return a.chat(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		return errUsage
	}
}

// uid returns the configured session or explains how to get one.
func (a *app) uid() (string, error) {
	if a.cfg.Session.UID == "" {
		return "", fmt.Errorf("no session: run `wavecap-cli login` and set WAVECAP_UID")
	}
	return a.cfg.Session.UID, nil
}

func (a *app) broker() broker.Broker {
	if strings.EqualFold(a.cfg.Broker.Kind, "alpaca") {
		return broker.NewAlpacaBroker(a.cfg.Alpaca.APIKey, a.cfg.Alpaca.APISecret, a.cfg.Alpaca.BaseURL)
	}
	return broker.NewBackendBroker(a.client)
}

func (a *app) journal() store.OrderJournal {
	j, err := store.OpenJournal(a.cfg.Journal.SQLitePath)
	if err != nil {
		a.logger.Warn("order journal disabled", "path", a.cfg.Journal.SQLitePath, "error", err)
		return store.NoopJournal{}
	}
	return j
}

// seriesDir is where exported snapshots live.
func seriesDir() string {
	if d := os.Getenv("WAVECAP_DATA_DIR"); d != "" {
		return d
	}
	return "data"
}
