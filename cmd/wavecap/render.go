package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"wavecap/internal/format"
	"wavecap/internal/news"
	"wavecap/internal/view"
	"wavecap/pkg/wavecap"
)

const (
	sidebarWidth = 28
	bannerTTL    = 8 * time.Second
	maxHeadlines = 8
)

// Styles.
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	symbolStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")).Background(lipgloss.Color("236"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3"))
	savedStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("208"))
	unsavedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	botStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	sidebarStyle   = lipgloss.NewStyle().Width(sidebarWidth).BorderStyle(lipgloss.NormalBorder()).BorderRight(true).BorderForeground(lipgloss.Color("238"))
)

func signed(pct float64, text string) string {
	if pct < 0 {
		return lossStyle.Render(text)
	}
	return gainStyle.Render(text)
}

func (m model) renderLogin() string {
	st := m.shell.Auth.State()
	var b strings.Builder
	b.WriteString(titleStyle.Render(" WaveCap ") + " " + headerStyle.Render(st.Mode.String()) + "\n\n")

	fmt.Fprintf(&b, "  Email:    %s\n", st.Email)
	b.WriteString("  Password: ********\n\n")
	if m.editing != fieldNone {
		b.WriteString("  " + m.editor.View() + "\n\n")
	}
	if st.Busy {
		b.WriteString(dimStyle.Render("  working...") + "\n")
	}
	if st.Message != "" {
		b.WriteString("  " + st.Message + "\n")
	}
	if st.IPFSHash != "" {
		b.WriteString(dimStyle.Render("  IPFS hash: "+st.IPFSHash) + "\n")
	}
	other := view.ModeSignup
	if st.Mode == view.ModeSignup {
		other = view.ModeLogin
	}
	b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("  e email  p password  enter submit  t switch to %s  q quit", other)))
	return b.String()
}

func (m model) renderShell() string {
	v := m.shell.View()
	header := titleStyle.Render(" WaveCap ") + " " + headerStyle.Render(screenTitle(v)) +
		dimStyle.Render("  uid "+m.mountedUID)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Height(m.viewport.Height).Render(m.renderSidebar()),
		" "+m.viewport.View(),
	)
	return header + "\n" + body + "\n" + m.renderFooter()
}

func screenTitle(v view.View) string {
	switch v.Screen {
	case view.ScreenStockDetail:
		return v.Symbol
	case view.ScreenDashboard:
		return "Dashboard"
	}
	return ""
}

func (m model) renderFooter() string {
	var line string
	if n, ok := m.banner.Current(bannerTTL); ok {
		st := infoStyle
		if n.Level == view.LevelError {
			st = errorStyle
		}
		line = st.Render(" "+n.Text+" ") + dimStyle.Render("  x dismiss")
	}
	if m.editing != fieldNone {
		line = m.editor.View()
	}
	help := "/ search  tab pane  d dashboard  c chat  L logout  q quit"
	switch {
	case m.shell.View().Screen == view.ScreenStockDetail:
		help = "s save  1-4 interval  v line/candle  r reload  " + help
	case m.shell.Simulations.State().Session != nil:
		help = "a amount  t type  s side  p place  b back  " + help
	case m.shell.View().Screen == view.ScreenDashboard:
		help = "enter open  n new sim  g gainers  " + help
	}
	return line + "\n" + dimStyle.Render(help)
}

func (m model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(m.search.View() + "\n\n")

	if _, suggestions := m.sidebarItems(); suggestions {
		for i, s := range m.shell.Search.State().Suggestions {
			line := fmt.Sprintf("%-6s %s", s.Symbol, s.Name)
			b.WriteString(m.sideLine(i, line) + "\n")
		}
		return b.String()
	}

	b.WriteString(headerStyle.Render("Saved") + "\n")
	st := m.shell.Portfolio.State()
	switch {
	case st.Loading:
		b.WriteString(dimStyle.Render("loading...") + "\n")
	case st.Err != "":
		b.WriteString(lossStyle.Render(st.Err) + "\n")
	case st.Placeholder != "":
		b.WriteString(dimStyle.Render(st.Placeholder) + "\n")
	}
	for i, e := range st.Data {
		b.WriteString(m.sideLine(i, fmt.Sprintf("%-6s %s", e.Symbol, e.Name)) + "\n")
	}
	return b.String()
}

func (m model) sideLine(i int, text string) string {
	text = truncate(text, sidebarWidth-2)
	if m.pane == paneSidebar && i == m.sideCursor {
		return selectedStyle.Render(text)
	}
	return text
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m model) renderMain() string {
	var out string
	switch v := m.shell.View(); v.Screen {
	case view.ScreenStockDetail:
		out = m.renderDetail()
	case view.ScreenDashboard:
		out = m.renderDashboard()
	default:
		out = dimStyle.Render("Search for a symbol to get started.")
	}
	if chat := m.renderChat(); chat != "" {
		out += "\n\n" + chat
	}
	return out
}

// ---------------------------------------------------------------------------
// Stock detail
// ---------------------------------------------------------------------------

func (m model) renderDetail() string {
	st := m.shell.Detail.State()
	var b strings.Builder

	name := ""
	if st.Metrics.Data != nil {
		name = st.Metrics.Data.DisplayName()
	}
	b.WriteString(symbolStyle.Render(st.Symbol) + "  " + headerStyle.Render(name) + "  " + saveButton(st) + "\n\n")

	b.WriteString(m.renderChart(m.shell.Chart) + "\n\n")
	b.WriteString(renderMetrics(st.Metrics) + "\n")
	b.WriteString(renderNews(st.News))
	return b.String()
}

func saveButton(st view.DetailState) string {
	switch {
	case st.Saved.Loading || st.Toggling:
		return dimStyle.Render("[ ... ]")
	case st.Saved.Err != "":
		return dimStyle.Render("[ " + st.Saved.Err + " ]")
	case st.Saved.Data:
		return savedStyle.Render(" ★ Saved ")
	default:
		return unsavedStyle.Render("[ ☆ Save ]")
	}
}

func (m model) renderChart(c *view.Chart) string {
	st := c.State()
	var b strings.Builder
	for _, iv := range wavecap.Intervals {
		label := " " + string(iv) + " "
		if iv == st.Interval {
			b.WriteString(selectedStyle.Render(label))
		} else {
			b.WriteString(dimStyle.Render(label))
		}
	}
	b.WriteString(dimStyle.Render("  " + string(st.Style)))
	if st.Loading {
		b.WriteString(dimStyle.Render("  loading..."))
	}
	if st.Series != nil && len(st.Series.Points) > 1 {
		first, last := st.Series.Points[0], st.Series.Points[len(st.Series.Points)-1]
		if first != 0 {
			pct := (last - first) / first * 100
			b.WriteString("  " + signed(pct, format.Price(last)+" "+format.Percent(pct)))
		}
	}
	b.WriteString("\n")
	if st.Err != "" {
		b.WriteString(lossStyle.Render(st.Err) + "\n")
	}
	if t, ok := c.Target().(*termChart); ok {
		b.WriteString(t.Render(m.viewport.Width-2, 10))
	}
	return b.String()
}

func renderMetrics(s view.Sub[*wavecap.Metrics]) string {
	if s.Loading {
		return dimStyle.Render("Loading stock data...")
	}
	if s.Err != "" {
		return lossStyle.Render(s.Err)
	}
	md := s.Data
	if md == nil {
		md = &wavecap.Metrics{}
	}
	rows := [][2]string{
		{"Market Cap", format.MetricCompact(md.MarketCap)},
		{"Sector", format.MetricText(md.Sector)},
		{"Industry", format.MetricText(md.Industry)},
		{"EPS", format.MetricNumber(md.EPS)},
		{"Volume", format.MetricCompact(md.Volume)},
		{"Day High", format.MetricPrice(md.DayHigh)},
		{"Day Low", format.MetricPrice(md.DayLow)},
		{"Dividend Yield", format.MetricPercent(md.DividendYield)},
		{"52W High", format.MetricPrice(md.YearHigh)},
		{"52W Low", format.MetricPrice(md.YearLow)},
	}
	var b strings.Builder
	for i, r := range rows {
		fmt.Fprintf(&b, "%s %-16s", colHeaderStyle.Render(fmt.Sprintf("%-15s", r[0])), r[1])
		if i%2 == 1 {
			b.WriteString("\n")
		}
	}
	if md.Summary.Valid() {
		b.WriteString("\n" + dimStyle.Render(truncate(md.Summary.String(), 400)) + "\n")
	}
	return b.String()
}

func renderNews(s view.Sub[[]news.Headline]) string {
	var b strings.Builder
	b.WriteString("\n" + headerStyle.Render("News") + "\n")
	switch {
	case s.Loading:
		b.WriteString(dimStyle.Render("Loading news...") + "\n")
		return b.String()
	case s.Err != "":
		b.WriteString(lossStyle.Render(s.Err) + "\n")
		return b.String()
	case len(s.Data) == 0:
		b.WriteString(dimStyle.Render("No news found.") + "\n")
		return b.String()
	}
	now := time.Now()
	for i, h := range s.Data {
		if i == maxHeadlines {
			break
		}
		meta := strings.TrimSpace(h.Source + "  " + format.Published(h.Published, now))
		b.WriteString(symbolStyle.Render("• "+h.Title) + "  " + dimStyle.Render(meta) + "\n")
		b.WriteString("  " + truncate(format.Description(h.Summary), 200) + "\n")
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

func (m model) renderDashboard() string {
	st := m.shell.Simulations.State()
	if st.Session != nil {
		return m.renderSession(st.Session)
	}

	var b strings.Builder
	b.WriteString(renderGainers(m.shell.Gainers.State()) + "\n")
	b.WriteString(headerStyle.Render("Simulations") + "\n")
	if st.Loading {
		b.WriteString(dimStyle.Render("loading...") + "\n")
	}
	if !st.Loading && len(st.Sims) == 0 {
		b.WriteString(dimStyle.Render("No simulations yet. Press n to create one.") + "\n")
	}
	if len(st.Sims) > 0 {
		b.WriteString(colHeaderStyle.Render(fmt.Sprintf("  %-20s %-8s %14s %12s", "Name", "Ticker", "Cash", "Opened")) + "\n")
	}
	for i, s := range st.Sims {
		line := fmt.Sprintf("  %-20s %-8s %14s %12s",
			truncate(s.Name, 20), s.StartingTicker, format.Amount(s.SimulatedCash), format.SimDate(s.DateOpened))
		if i == m.simCursor && m.pane == paneMain {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if f := st.Form; f.Open {
		b.WriteString("\n" + headerStyle.Render("New simulation") + "\n")
		fmt.Fprintf(&b, "  Name: %s\n  Starting balance: %s\n  Starting ticker: %s\n",
			f.Name, f.StartingBalance, f.StartingTicker)
		if f.Submitting {
			b.WriteString(dimStyle.Render("  creating...") + "\n")
		}
		if f.Err != "" {
			b.WriteString(lossStyle.Render("  "+f.Err) + "\n")
		}
	}
	return b.String()
}

func renderGainers(s view.Sub[[]wavecap.Gainer]) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Top gainers") + "\n")
	switch {
	case s.Loading:
		b.WriteString(dimStyle.Render("loading...") + "\n")
	case s.Err != "":
		b.WriteString(lossStyle.Render(s.Err) + "\n")
	case len(s.Data) == 0:
		b.WriteString(dimStyle.Render(format.Placeholder) + "\n")
	}
	for _, g := range s.Data {
		pct, _ := g.PercentChange.Float()
		fmt.Fprintf(&b, "  %s %-24s %10s %s  %s\n",
			symbolStyle.Render(fmt.Sprintf("%-6s", g.Symbol)), truncate(g.Name, 24),
			format.MetricPrice(g.Price), signed(pct, fmt.Sprintf("%8s", format.MetricPercent(g.PercentChange))),
			dimStyle.Render("H "+format.MetricPrice(g.High)+" L "+format.MetricPrice(g.Low)))
	}
	return b.String()
}

func (m model) renderSession(sess *view.Session) string {
	st := sess.State()
	sim := st.Sim
	var b strings.Builder
	b.WriteString(headerStyle.Render(sim.Name) + dimStyle.Render("  opened "+format.SimDate(sim.DateOpened)) + "\n")
	fmt.Fprintf(&b, "%s %s   %s %s   %s %s%%\n\n",
		colHeaderStyle.Render("Balance"), format.Amount(sim.CurrentBalance),
		colHeaderStyle.Render("P/L"), format.Amount(sim.ProfitLoss),
		colHeaderStyle.Render("Win rate"), format.Rate(sim.WinRate))

	b.WriteString(symbolStyle.Render(sim.StartingTicker) + "\n")
	b.WriteString(m.renderChart(sess.Chart()) + "\n\n")

	b.WriteString(headerStyle.Render("Place order") + "\n")
	fmt.Fprintf(&b, "  Amount: $%s   Type: %s   Side: %s\n", st.Form.DollarAmount, st.Form.OrderType, st.Form.Side)
	if st.Placing {
		b.WriteString(dimStyle.Render("  placing...") + "\n")
	}
	if st.Message != "" {
		b.WriteString("  " + st.Message + "\n")
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Chat
// ---------------------------------------------------------------------------

func (m model) renderChat() string {
	st := m.shell.Chat.State()
	if !st.Open {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("Assistant") + dimStyle.Render("  m message  c close") + "\n")
	for _, msg := range st.Messages {
		if msg.Role == view.RoleUser {
			b.WriteString(userStyle.Render("You: ") + msg.Content + "\n")
		} else {
			b.WriteString(botStyle.Render("AI:  ") + msg.Content + "\n")
		}
	}
	if st.Pending > 0 {
		b.WriteString(dimStyle.Render("AI is typing...") + "\n")
	}
	return b.String()
}
