// Package ui is the terminal chat view. It renders a chat.Controller and forwards
// user input to it.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/chat"
)

const compareTimeout = 15 * time.Second

// Comparer fetches a side-by-side comparison.
type Comparer interface {
	Compare(ctx context.Context, ids []string) (*catalog.CompareResult, error)
}

// Tracker receives product interactions. *analytics.Tracker implements it.
type Tracker interface {
	ProductClick(p catalog.Product, position int)
	CompareView(ids []string)
}

// Signal returns an observer for the controller and the channel it wakes the view
// on. Bursts of events collapse into one wake-up; the view then reads a fresh
// snapshot, so nothing is lost and the observer never blocks.
func Signal() (chat.Observer, <-chan struct{}) {
	ch := make(chan struct{}, 1)
	return func(chat.Event) {
		select {
		case ch <- struct{}{}:
		default:
		}
	}, ch
}

type stateChangedMsg struct{}

// SignedOutMsg tells the view the backend rejected the stored credentials.
type SignedOutMsg struct{}

const signedOutPrompt = "You have been signed out. Run `dermachat login` to sign in again."

type compareMsg struct {
	res *catalog.CompareResult
	err error
}

// Option configures a Model.
type Option func(*Model)

// WithComparer enables the compare table.
func WithComparer(c Comparer) Option {
	return func(m *Model) { m.comparer = c }
}

// WithTracker reports product clicks and comparisons.
func WithTracker(t Tracker) Option {
	return func(m *Model) { m.tracker = t }
}

// WithPrompt shows banner above the transcript, e.g. the profile completion nudge.
func WithPrompt(banner string) Option {
	return func(m *Model) { m.prompt = banner }
}

type Model struct {
	ctrl     *chat.Controller
	updates  <-chan struct{}
	comparer Comparer
	tracker  Tracker
	prompt   string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	width  int
	height int

	snap      chat.Snapshot
	cursor    int
	marked    map[string]bool
	compare   *catalog.CompareResult
	comparing bool
	status    string
	err       error
}

// New creates the view for ctrl. updates is the channel returned by Signal, whose
// observer must be registered on ctrl.
func New(ctrl *chat.Controller, updates <-chan struct{}, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about a concern, ingredient or product..."
	ti.Prompt = "> "
	ti.CharLimit = 500
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	h := help.New()
	h.ShowAll = false

	m := Model{
		ctrl:     ctrl,
		updates:  updates,
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		help:     h,
		keys:     defaultKeys(),
		marked:   make(map[string]bool),
		snap:     ctrl.State(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForUpdate())
}

func (m Model) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	updates := m.updates
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

func (m Model) compareCmd(ids []string) tea.Cmd {
	comparer := m.comparer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), compareTimeout)
		defer cancel()
		res, err := comparer.Compare(ctx, ids)
		return compareMsg{res: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refresh()

	case stateChangedMsg:
		m.refresh()
		cmds = append(cmds, m.waitForUpdate())

	case SignedOutMsg:
		m.prompt = signedOutPrompt

	case compareMsg:
		m.comparing = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "Compare failed"
			break
		}
		m.compare = msg.res
		m.status = fmt.Sprintf("Comparing %d products", len(msg.res.Products))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Submit):
			text := m.input.Value()
			if m.ctrl.SubmitQuery(text) {
				m.input.Reset()
				m.err = nil
				m.status = ""
			}
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Reset):
			m.ctrl.Reset()
			m.marked = make(map[string]bool)
			m.compare = nil
			m.cursor = 0
			m.status = "New conversation"
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			m.selectCurrent()
			return m, nil
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.snap.View.Products)-1 {
				m.cursor++
			}
			m.selectCurrent()
			return m, nil
		case key.Matches(msg, m.keys.Detail):
			if p, ok := m.current(); ok {
				m.ctrl.SelectProduct(&p)
				if m.ctrl.ToggleProductDetail() && m.tracker != nil {
					m.tracker.ProductClick(p, m.cursor+1)
				}
			}
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Mark):
			if p, ok := m.current(); ok {
				if m.marked[p.ID] {
					delete(m.marked, p.ID)
				} else {
					m.marked[p.ID] = true
				}
			}
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Compare):
			return m, m.toggleCompare()
		case key.Matches(msg, m.keys.PageUp):
			m.viewport.HalfViewUp()
			return m, nil
		case key.Matches(msg, m.keys.PageDown):
			m.viewport.HalfViewDown()
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.ctrl.SetQuery(m.input.Value())
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) toggleCompare() tea.Cmd {
	on := m.ctrl.ToggleCompareMode()
	m.refresh()
	if !on {
		m.compare = nil
		m.status = ""
		return nil
	}

	ids := m.markedIDs()
	switch {
	case m.comparer == nil:
		m.status = "Compare is not available"
		return nil
	case len(ids) < 2:
		m.status = "Mark at least two products with ctrl+t to compare"
		return nil
	}
	if m.tracker != nil {
		m.tracker.CompareView(ids)
	}
	m.comparing = true
	m.status = "Comparing..."
	return m.compareCmd(ids)
}

// markedIDs returns the marked products in list order.
func (m Model) markedIDs() []string {
	var ids []string
	for _, p := range m.snap.View.Products {
		if m.marked[p.ID] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (m Model) current() (catalog.Product, bool) {
	products := m.snap.View.Products
	if m.cursor < 0 || m.cursor >= len(products) {
		return catalog.Product{}, false
	}
	return products[m.cursor], true
}

func (m *Model) selectCurrent() {
	if p, ok := m.current(); ok {
		m.ctrl.SelectProduct(&p)
	}
	m.refresh()
}

// refresh re-reads the controller state and re-renders the transcript.
func (m *Model) refresh() {
	prevCount := len(m.snap.Transcript)
	m.snap = m.ctrl.State()
	if m.cursor >= len(m.snap.View.Products) {
		m.cursor = 0
	}
	for id := range m.marked {
		if !containsProduct(m.snap.View.Products, id) {
			delete(m.marked, id)
		}
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(renderTranscript(m.snap, m.viewport.Width))
	if atBottom || len(m.snap.Transcript) != prevCount || m.snap.Partial != "" {
		m.viewport.GotoBottom()
	}
}

func containsProduct(products []catalog.Product, id string) bool {
	for _, p := range products {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	left, _ := m.paneWidths()
	bodyHeight := m.height - 4
	if bodyHeight < 8 {
		bodyHeight = 8
	}
	m.viewport.Width = left - 4
	m.viewport.Height = bodyHeight - 2
	m.input.Width = m.width - 4
}

func (m Model) paneWidths() (int, int) {
	right := m.width / 3
	if right < 30 {
		right = 30
	}
	left := m.width - right - 1
	if left < 30 {
		left = 30
	}
	return left, right
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}

	left, right := m.paneWidths()
	bodyHeight := m.height - 4
	if bodyHeight < 8 {
		bodyHeight = 8
	}

	chatPane := panelStyle(true).Width(left).Height(bodyHeight).Render(m.viewport.View())
	sidePane := panelStyle(false).Width(right).Height(bodyHeight).Render(m.sidebar(right - 4))
	body := lipgloss.JoinHorizontal(lipgloss.Top, chatPane, sidePane)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusLine(),
		body,
		m.input.View(),
		m.help.View(m.keys),
	)
}

func (m Model) sidebar(width int) string {
	if m.snap.View.CompareMode && m.compare != nil {
		return renderComparison(m.compare, width)
	}
	var b strings.Builder
	b.WriteString(renderProducts(m.snap.View.Products, m.cursor, m.marked))
	if m.snap.View.ShowProductDetail && m.snap.View.SelectedProduct != nil {
		b.WriteString("\n")
		b.WriteString(renderDetail(*m.snap.View.SelectedProduct, width))
	}
	if len(m.snap.KeyIngredients) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Key ingredients"))
		b.WriteString("\n")
		b.WriteString(strings.Join(m.snap.KeyIngredients, ", "))
	}
	return b.String()
}

func (m Model) statusLine() string {
	var status string
	switch {
	case m.snap.Loading:
		status = m.spinner.View() + " Searching products..."
	case m.comparing:
		status = m.spinner.View() + " Comparing..."
	case m.snap.Partial != "":
		status = "Typing..."
	case m.prompt != "":
		status = m.prompt
	}
	if m.status != "" {
		status += "  " + m.status
	}
	if m.err != nil {
		status += "  err=" + m.err.Error()
	}
	return statusStyle.Render(status)
}

type keyMap struct {
	Submit   key.Binding
	Up       key.Binding
	Down     key.Binding
	Detail   key.Binding
	Mark     key.Binding
	Compare  key.Binding
	Reset    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "prev product"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next product"),
		),
		Detail: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "details"),
		),
		Mark: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "mark for compare"),
		),
		Compare: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "compare"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Up, k.Down, k.Detail, k.Mark, k.Compare, k.Reset, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Reset, k.Quit},
		{k.Up, k.Down, k.Detail, k.Mark, k.Compare},
		{k.PageUp, k.PageDown},
	}
}
