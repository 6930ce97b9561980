package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"wavecap/internal/view"
	"wavecap/pkg/wavecap"
)

// Messages.
type tickMsg time.Time
type fetchedMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// pane is the part of the screen that receives keys.
type pane int

const (
	paneSearch pane = iota
	paneSidebar
	paneMain
)

// field is the form field bound to the shared editor.
type field int

const (
	fieldNone field = iota
	fieldEmail
	fieldPassword
	fieldSimName
	fieldSimBalance
	fieldSimTicker
	fieldAmount
	fieldChat
)

var fieldPrompts = map[field]string{
	fieldEmail:      "Email: ",
	fieldPassword:   "Password: ",
	fieldSimName:    "Name: ",
	fieldSimBalance: "Starting balance: ",
	fieldSimTicker:  "Starting ticker: ",
	fieldAmount:     "Dollar amount: ",
	fieldChat:       "You: ",
}

var intervalKeys = map[string]wavecap.Interval{
	"1": wavecap.IntervalIntraday,
	"2": wavecap.IntervalDay,
	"3": wavecap.IntervalMonth,
	"4": wavecap.IntervalYear,
}

// Model.
type model struct {
	shell  *view.Shell
	banner *view.Banner
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	search  textinput.Model
	editor  textinput.Model
	editing field
	pane    pane

	sideCursor int
	simCursor  int
	mountedUID string

	viewport      viewport.Model
	ready         bool
	width, height int
}

func initialModel(ctx context.Context, cancel context.CancelFunc, shell *view.Shell, banner *view.Banner, logger *slog.Logger) model {
	search := textinput.New()
	search.Placeholder = "Search symbol"
	search.Prompt = "/ "
	search.CharLimit = 16

	editor := textinput.New()
	editor.CharLimit = 256

	return model{
		shell:  shell,
		banner: banner,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		search: search,
		editor: editor,
		pane:   paneMain,
	}
}

func (m model) Init() tea.Cmd {
	// The first fetchedMsg mounts the configured session, if any.
	return tea.Batch(tickCmd(), textinput.Blink, func() tea.Msg { return fetchedMsg{} })
}

// run turns fetches into commands that report back with fetchedMsg.
func (m model) run(fs ...view.Fetch) tea.Cmd {
	var cmds []tea.Cmd
	ctx := m.ctx
	for _, f := range view.Batch(fs...) {
		cmds = append(cmds, func() tea.Msg {
			f(ctx)
			return fetchedMsg{}
		})
	}
	return tea.Batch(cmds...)
}

// syncSession mounts or unmounts the shell when the signed-in user changes.
func (m *model) syncSession() tea.Cmd {
	uid := m.shell.Auth.UID()
	if uid == m.mountedUID {
		return nil
	}
	m.mountedUID = uid
	m.sideCursor, m.simCursor = 0, 0
	if uid == "" {
		m.logger.Info("signed out")
		m.shell.Unmount()
		return nil
	}
	m.logger.Info("signed in", "uid", uid)
	m.banner.Dismiss()
	return m.run(m.shell.Mount(uid)...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
		cmd = m.handleKey(msg)
		mount := m.syncSession()
		m.refresh()
		return m, tea.Batch(cmd, mount)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerH := 1
		footerH := 2
		vpHeight := m.height - headerH - footerH
		if vpHeight < 1 {
			vpHeight = 1
		}
		vpWidth := m.width - sidebarWidth - 1
		if vpWidth < 20 {
			vpWidth = 20
		}
		if !m.ready {
			m.viewport = viewport.New(vpWidth, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = vpWidth
			m.viewport.Height = vpHeight
		}
		m.refresh()
		return m, nil

	case fetchedMsg:
		mount := m.syncSession()
		m.refresh()
		return m, mount

	case tickMsg:
		m.refresh()
		return m, tickCmd()
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// refresh re-renders the main area into the viewport.
func (m *model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.renderMain())
	}
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.editing != fieldNone {
		return m.handleEditor(msg)
	}
	if m.shell.Auth.UID() == "" {
		return m.handleLogin(msg)
	}
	if m.pane == paneSearch {
		return m.handleSearch(msg)
	}

	switch msg.String() {
	case "q":
		m.cancel()
		return tea.Quit
	case "/":
		m.pane = paneSearch
		return m.search.Focus()
	case "tab":
		if m.pane == paneMain {
			m.pane = paneSidebar
		} else {
			m.pane = paneMain
		}
		return nil
	case "d":
		return m.run(m.shell.GoDashboard()...)
	case "c":
		m.shell.Chat.Toggle()
		return nil
	case "m":
		if m.shell.Chat.State().Open {
			return m.edit(fieldChat, "")
		}
		return nil
	case "x":
		m.banner.Dismiss()
		return nil
	case "L":
		m.search.SetValue("")
		return m.run(m.shell.Auth.Logout())
	}

	if m.pane == paneSidebar {
		return m.handleSidebar(msg)
	}
	switch m.shell.View().Screen {
	case view.ScreenStockDetail:
		return m.handleDetail(msg)
	case view.ScreenDashboard:
		return m.handleDashboard(msg)
	}
	return nil
}

func (m *model) handleLogin(msg tea.KeyMsg) tea.Cmd {
	auth := m.shell.Auth
	switch msg.String() {
	case "q":
		m.cancel()
		return tea.Quit
	case "e":
		return m.edit(fieldEmail, auth.State().Email)
	case "p":
		return m.edit(fieldPassword, "")
	case "t":
		auth.ToggleMode()
	case "enter":
		return m.run(auth.Submit())
	}
	return nil
}

func (m *model) handleSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.search.Blur()
		m.pane = paneMain
		return nil
	case "enter":
		m.search.Blur()
		m.pane = paneMain
		return m.run(m.shell.Submit()...)
	case "down", "tab":
		m.search.Blur()
		m.pane = paneSidebar
		m.sideCursor = 0
		return nil
	}

	var cmd tea.Cmd
	before := m.search.Value()
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.search.SetValue(strings.ToUpper(v))
		return tea.Batch(cmd, m.run(m.shell.Search.OnInputChange(v)))
	}
	return cmd
}

// sidebarItems is what up/down walks: suggestions while there are any,
// otherwise the saved symbols.
func (m *model) sidebarItems() (symbols []string, suggestions bool) {
	if sugg := m.shell.Search.State().Suggestions; len(sugg) > 0 {
		for _, s := range sugg {
			symbols = append(symbols, s.Symbol)
		}
		return symbols, true
	}
	for _, e := range m.shell.Portfolio.State().Data {
		symbols = append(symbols, e.Symbol)
	}
	return symbols, false
}

func (m *model) handleSidebar(msg tea.KeyMsg) tea.Cmd {
	items, suggestions := m.sidebarItems()
	switch msg.String() {
	case "up":
		if m.sideCursor > 0 {
			m.sideCursor--
		} else if suggestions {
			m.pane = paneSearch
			return m.search.Focus()
		}
	case "down":
		if m.sideCursor < len(items)-1 {
			m.sideCursor++
		}
	case "enter":
		if m.sideCursor >= len(items) {
			return nil
		}
		m.pane = paneMain
		if suggestions {
			sym := items[m.sideCursor]
			m.search.SetValue(sym)
			m.sideCursor = 0
			return m.run(m.shell.PickSuggestion(sym)...)
		}
		return m.run(m.shell.PickPortfolio(m.sideCursor)...)
	}
	return nil
}

func (m *model) handleDetail(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if iv, ok := intervalKeys[key]; ok {
		return m.run(m.shell.Chart.SetInterval(iv))
	}
	switch key {
	case "s":
		return m.run(m.shell.Detail.ToggleSave())
	case "v":
		style := view.StyleCandle
		if m.shell.Chart.State().Style == view.StyleCandle {
			style = view.StyleLine
		}
		return m.run(m.shell.Chart.SetStyle(style))
	case "r":
		return m.run(m.shell.Chart.Reload())
	}
	return nil
}

func (m *model) handleDashboard(msg tea.KeyMsg) tea.Cmd {
	sims := m.shell.Simulations
	st := sims.State()

	if sess := st.Session; sess != nil {
		order := sess.State().Form
		switch msg.String() {
		case "esc", "b":
			sims.Back()
		case "a":
			return m.edit(fieldAmount, order.DollarAmount)
		case "t":
			if order.OrderType == "market" {
				sess.SetOrderType("limit")
			} else {
				sess.SetOrderType("market")
			}
		case "s":
			if order.Side == "buy" {
				sess.SetSide("sell")
			} else {
				sess.SetSide("buy")
			}
		case "1", "2", "3", "4":
			return m.run(sess.Chart().SetInterval(intervalKeys[msg.String()]))
		case "p", "enter":
			return m.run(sess.PlaceOrder())
		}
		return nil
	}

	switch msg.String() {
	case "up":
		if m.simCursor > 0 {
			m.simCursor--
		}
	case "down":
		if m.simCursor < len(st.Sims)-1 {
			m.simCursor++
		}
	case "enter":
		return m.run(sims.Enter(m.simCursor))
	case "n":
		sims.OpenForm()
		return m.edit(fieldSimName, "")
	case "g":
		return m.run(m.shell.Gainers.Load())
	}
	return nil
}

// edit binds the shared editor to f.
func (m *model) edit(f field, value string) tea.Cmd {
	m.editing = f
	m.editor.Prompt = fieldPrompts[f]
	m.editor.EchoMode = textinput.EchoNormal
	if f == fieldPassword {
		m.editor.EchoMode = textinput.EchoPassword
	}
	m.editor.SetValue(value)
	m.editor.CursorEnd()
	return m.editor.Focus()
}

func (m *model) stopEditing() {
	m.editing = fieldNone
	m.editor.Blur()
	m.editor.SetValue("")
}

func (m *model) handleEditor(msg tea.KeyMsg) tea.Cmd {
	f := m.editing
	switch msg.String() {
	case "esc":
		if f == fieldSimName || f == fieldSimBalance || f == fieldSimTicker {
			m.shell.Simulations.CancelForm()
		}
		m.stopEditing()
		return nil
	case "enter":
		return m.commit(f, m.editor.Value())
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.apply(f, m.editor.Value())
	return cmd
}

// apply mirrors the editor into the bound field as the user types.
func (m *model) apply(f field, v string) {
	switch f {
	case fieldEmail:
		m.shell.Auth.SetEmail(v)
	case fieldPassword:
		m.shell.Auth.SetPassword(v)
	case fieldSimName:
		m.shell.Simulations.SetField(view.SimFieldName, v)
	case fieldSimBalance:
		m.shell.Simulations.SetField(view.SimFieldBalance, v)
	case fieldSimTicker:
		m.shell.Simulations.SetField(view.SimFieldTicker, v)
	case fieldAmount:
		if sess := m.shell.Simulations.State().Session; sess != nil {
			sess.SetAmount(v)
		}
	}
}

// commit finishes editing f. The simulation form walks name, balance and
// ticker, then submits.
func (m *model) commit(f field, v string) tea.Cmd {
	m.apply(f, v)
	m.stopEditing()
	sims := m.shell.Simulations
	switch f {
	case fieldSimName:
		return m.edit(fieldSimBalance, sims.State().Form.StartingBalance)
	case fieldSimBalance:
		return m.edit(fieldSimTicker, sims.State().Form.StartingTicker)
	case fieldSimTicker:
		fetch := sims.Create()
		if fetch == nil {
			// Rejected locally; let the user fix the balance.
			return m.edit(fieldSimBalance, sims.State().Form.StartingBalance)
		}
		return m.run(fetch)
	case fieldPassword:
		return m.run(m.shell.Auth.Submit())
	case fieldChat:
		return m.run(m.shell.Chat.Send(v))
	}
	return nil
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	if m.shell.Auth.UID() == "" {
		return m.renderLogin()
	}
	return m.renderShell()
}
