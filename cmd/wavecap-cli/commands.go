package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"wavecap/internal/broker"
	"wavecap/internal/format"
	"wavecap/internal/news"
	"wavecap/internal/store"
	"wavecap/internal/view"
	"wavecap/pkg/wavecap"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	gainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func symbolArg(args []string) (string, error) {
	if len(args) < 1 || strings.TrimSpace(args[0]) == "" {
		return "", errUsage
	}
	return strings.ToUpper(strings.TrimSpace(args[0])), nil
}

func (a *app) status(ctx context.Context) error {
	msg, err := a.client.ServerTest(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", a.client.BaseURL(), msg)
	return nil
}

func (a *app) auth(ctx context.Context, cmd string, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	login := a.client.Login
	if cmd == "signup" {
		login = a.client.Signup
	}
	res, err := login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if cmd == "login" {
		fmt.Println("Login successful!")
		fmt.Printf("export WAVECAP_UID=%s\n", res.UID)
		return nil
	}
	fmt.Println(res.Message)
	if res.IPFSHash != "" {
		fmt.Printf("IPFS hash: %s\n", res.IPFSHash)
	}
	return nil
}

func (a *app) logout(ctx context.Context) error {
	uid, err := a.uid()
	if err != nil {
		return err
	}
	msg, err := a.client.Logout(ctx, uid)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) search(ctx context.Context, args []string) error {
	query, err := symbolArg(args)
	if err != nil {
		return err
	}
	res, err := a.client.Autocomplete(ctx, query)
	if err != nil {
		return err
	}
	if len(res) == 0 {
		fmt.Println("no matches")
		return nil
	}
	t := newTable("Symbol", "Name")
	for _, s := range res {
		t.Row(s.Symbol, s.Name)
	}
	fmt.Println(t)
	return nil
}

func (a *app) quote(ctx context.Context, args []string) error {
	symbol, err := symbolArg(args)
	if err != nil {
		return err
	}
	m, err := a.client.StockMetrics(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Println(headerStyle.Render(symbol + "  " + m.DisplayName()))
	t := newTable("Metric", "Value").
		Row("Market Cap", format.MetricCompact(m.MarketCap)).
		Row("Sector", format.MetricText(m.Sector)).
		Row("Industry", format.MetricText(m.Industry)).
		Row("EPS", format.MetricNumber(m.EPS)).
		Row("Volume", format.MetricCompact(m.Volume)).
		Row("Day High", format.MetricPrice(m.DayHigh)).
		Row("Day Low", format.MetricPrice(m.DayLow)).
		Row("Dividend Yield", format.MetricPercent(m.DividendYield)).
		Row("52W High", format.MetricPrice(m.YearHigh)).
		Row("52W Low", format.MetricPrice(m.YearLow))
	fmt.Println(t)
	if m.Summary.Valid() {
		fmt.Println(m.Summary.String())
	}
	return nil
}

func intervalArg(args []string, i int) (wavecap.Interval, error) {
	if len(args) <= i {
		return wavecap.IntervalDay, nil
	}
	return wavecap.ParseInterval(args[i])
}

func (a *app) chart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	style := fs.String("style", "line", "line or candle")
	symbol, err := symbolArg(args)
	if err != nil {
		return err
	}
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}
	interval, err := intervalArg(fs.Args(), 0)
	if err != nil {
		return err
	}

	g, err := a.client.StockGraph(ctx, symbol, interval)
	if err != nil {
		return err
	}
	palette := view.Palette{
		Positive:    a.cfg.Chart.PositiveColor,
		Negative:    a.cfg.Chart.NegativeColor,
		FillOpacity: a.cfg.Chart.FillOpacity,
	}
	s, err := view.BuildSeries(g, view.Style(*style), palette)
	if err != nil {
		return err
	}

	trend := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Stroke.Hex))
	n := len(s.Labels)
	fmt.Printf("%s %s (%s, %d points)\n", headerStyle.Render(symbol), trend.Render(trendName(s.Trend)), interval, n)
	if n == 0 {
		return nil
	}

	t := newTable("Time", "Open", "High", "Low", "Close")
	from := max(n-10, 0)
	for i := from; i < n; i++ {
		if s.Style == view.StyleCandle {
			c := s.Candles[i]
			t.Row(s.Labels[i], format.Price(c.Open), format.Price(c.High), format.Price(c.Low), format.Price(c.Close))
		} else {
			t.Row(s.Labels[i], "", "", "", format.Price(s.Points[i]))
		}
	}
	fmt.Println(t)
	return nil
}

func trendName(t view.Trend) string {
	if t == view.TrendDown {
		return "down"
	}
	return "up"
}

func (a *app) news(ctx context.Context, args []string) error {
	symbol, err := symbolArg(args)
	if err != nil {
		return err
	}
	articles, err := a.client.News(ctx, symbol)
	if err != nil {
		return err
	}
	headlines := news.Normalize(articles)
	if len(headlines) == 0 {
		fmt.Println("No news found.")
		return nil
	}
	now := time.Now()
	for _, h := range headlines {
		fmt.Println(headerStyle.Render(h.Title))
		fmt.Println(dimStyle.Render(strings.TrimSpace(h.Source + "  " + format.Published(h.Published, now) + "  " + h.Link)))
		fmt.Printf("  %s\n\n", format.Description(h.Summary))
	}
	return nil
}

func (a *app) gainers(ctx context.Context) error {
	list, err := a.client.TopGainers(ctx)
	if err != nil {
		return err
	}
	t := newTable("Symbol", "Name", "Price", "Change", "High", "Low")
	for _, g := range list {
		pct, _ := g.PercentChange.Float()
		change := gainStyle.Render(format.MetricPercent(g.PercentChange))
		if pct < 0 {
			change = lossStyle.Render(format.MetricPercent(g.PercentChange))
		}
		t.Row(g.Symbol, g.Name, format.MetricPrice(g.Price), change, format.MetricPrice(g.High), format.MetricPrice(g.Low))
	}
	fmt.Println(t)
	return nil
}

func (a *app) portfolio(ctx context.Context) error {
	uid, err := a.uid()
	if err != nil {
		return err
	}
	entries, err := a.client.Portfolio(ctx, uid)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println(view.EmptyPortfolio)
		return nil
	}
	t := newTable("Symbol", "Name")
	for _, e := range entries {
		t.Row(e.Symbol, e.Name)
	}
	fmt.Println(t)
	return nil
}

func (a *app) toggle(ctx context.Context, cmd string, args []string) error {
	uid, err := a.uid()
	if err != nil {
		return err
	}
	symbol, err := symbolArg(args)
	if err != nil {
		return err
	}
	m, err := a.client.StockMetrics(ctx, symbol)
	if err != nil {
		a.logger.Warn("metrics lookup failed", "symbol", symbol, "error", err)
	}
	name := m.DisplayName()
	if cmd == "save" {
		err = a.client.SaveStock(ctx, uid, symbol, name)
	} else {
		err = a.client.RemoveStock(ctx, uid, symbol, name)
	}
	if err != nil {
		return err
	}
	saved, err := a.client.IsSaved(ctx, uid, symbol)
	if err != nil {
		return err
	}
	fmt.Printf("%s saved: %t\n", symbol, saved)
	return nil
}

func (a *app) sims(ctx context.Context) error {
	uid, err := a.uid()
	if err != nil {
		return err
	}
	sims, err := a.client.FetchUserSims(ctx, uid)
	if err != nil {
		return err
	}
	if len(sims) == 0 {
		fmt.Println("no simulations")
		return nil
	}
	t := newTable("ID", "Name", "Ticker", "Cash", "Balance", "P/L", "Win %", "Opened")
	for _, s := range sims {
		t.Row(string(s.ID), s.Name, s.StartingTicker, format.Amount(s.SimulatedCash),
			format.Amount(s.CurrentBalance), format.Amount(s.ProfitLoss), format.Rate(s.WinRate),
			format.SimDate(s.DateOpened))
	}
	fmt.Println(t)
	return nil
}

func (a *app) newSim(ctx context.Context, args []string) error {
	uid, err := a.uid()
	if err != nil {
		return err
	}
	if len(args) != 3 {
		return errUsage
	}
	balance, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("starting balance must be a number")
	}
	sim, err := a.client.CreateSimulation(ctx, wavecap.NewSimulation{
		UID:             uid,
		Name:            args[0],
		StartingBalance: balance,
		StartingTicker:  args[2],
	})
	if err != nil {
		return err
	}
	fmt.Printf("created simulation %s (%s, %s)\n", sim.ID, sim.Name, format.Amount(sim.StartingBalance))
	return nil
}

func (a *app) order(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	orderType := fs.String("type", "market", "market or limit")
	side := fs.String("side", "buy", "buy or sell")
	sim := fs.String("sim", "", "simulation id recorded in the journal")
	if len(args) < 2 {
		return errUsage
	}
	if err := fs.Parse(args[2:]); err != nil {
		return errUsage
	}

	req := wavecap.OrderRequest{
		Ticker:       strings.ToUpper(args[0]),
		DollarAmount: args[1],
		OrderType:    *orderType,
		Side:         *side,
	}
	b := a.broker()
	id, err := b.PlaceOrder(ctx, req)
	text := broker.ResultText(id, err)
	fmt.Println(text)

	j := a.journal()
	defer j.Close()
	if jerr := j.RecordOrder(ctx, &store.OrderEntry{
		UID:          a.cfg.Session.UID,
		SimulationID: *sim,
		Broker:       b.Name(),
		Ticker:       req.Ticker,
		DollarAmount: req.DollarAmount,
		OrderType:    req.OrderType,
		Side:         req.Side,
		OrderID:      id,
		Result:       text,
		OK:           err == nil,
	}); jerr != nil {
		a.logger.Warn("journal write failed", "error", jerr)
	}
	return err
}

func (a *app) orders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	limit := fs.Int("n", 20, "number of entries")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	j := a.journal()
	defer j.Close()
	entries, err := j.RecentOrders(ctx, *limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("journal is empty")
		return nil
	}
	t := newTable("Time", "Broker", "Ticker", "Amount", "Type", "Side", "Result")
	for _, e := range entries {
		result := gainStyle.Render(e.Result)
		if !e.OK {
			result = lossStyle.Render(e.Result)
		}
		t.Row(e.Time.Local().Format("2006-01-02 15:04:05"), e.Broker, e.Ticker, "$"+e.DollarAmount, e.OrderType, e.Side, result)
	}
	fmt.Println(t)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	symbol, err := symbolArg(args)
	if err != nil {
		return err
	}
	interval, err := intervalArg(args, 1)
	if err != nil {
		return err
	}
	g, err := a.client.StockGraph(ctx, symbol, interval)
	if err != nil {
		return err
	}
	points := store.SeriesFromGraph(g)

	if len(args) > 2 {
		if err := store.WriteSeriesFile(args[2], symbol, string(interval), points); err != nil {
			return err
		}
		fmt.Printf("wrote %d points to %s\n", len(points), args[2])
		return nil
	}
	ps := store.NewParquetStore(seriesDir())
	if err := ps.WriteSeries(ctx, symbol, string(interval), points); err != nil {
		return err
	}
	fmt.Printf("wrote %d points for %s/%s under %s\n", len(points), symbol, interval, ps.DataDir)
	return nil
}

func (a *app) snapshots(ctx context.Context, args []string) error {
	ps := store.NewParquetStore(seriesDir())
	intervals := wavecap.Intervals
	if len(args) > 0 {
		iv, err := wavecap.ParseInterval(args[0])
		if err != nil {
			return err
		}
		intervals = []wavecap.Interval{iv}
	}

	t := newTable("Interval", "Symbol", "Points", "Last", "Close")
	for _, iv := range intervals {
		symbols, err := ps.ListSymbols(ctx, string(iv))
		if err != nil {
			return err
		}
		for _, sym := range symbols {
			points, err := ps.ReadSeries(ctx, sym, string(iv))
			if err != nil {
				a.logger.Warn("reading snapshot", "symbol", sym, "interval", iv, "error", err)
				continue
			}
			last, closePx := "", ""
			if n := len(points); n > 0 {
				last, closePx = points[n-1].Label, format.Price(points[n-1].Close)
			}
			t.Row(string(iv), sym, strconv.Itoa(len(points)), last, closePx)
		}
	}
	fmt.Println(t)
	return nil
}

func (a *app) chat(ctx context.Context, args []string) error {
	msg := strings.TrimSpace(strings.Join(args, " "))
	if msg == "" {
		return errUsage
	}
	reply, err := a.client.Chat(ctx, msg)
	if err != nil {
		a.logger.Warn("chat failed", "error", err)
		fmt.Println(view.ChatFailed)
		return nil
	}
	if reply == "" {
		reply = view.ChatNoAnswer
	}
	fmt.Println(reply)
	return nil
}
