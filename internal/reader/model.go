package reader

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/tracker"
)

const refreshInterval = time.Second

// SessionTracker is the part of *tracker.Tracker the reader drives.
type SessionTracker interface {
	StartSession(bookID string, bookType domain.BookType, start tracker.Position) error
	UpdateProgress(pos tracker.Position)
	EndSession(end tracker.Position)
	State() tracker.State
}

// Signals receives the terminal's input and focus events. *tracker.Host implements it.
type Signals interface {
	Emit(kind tracker.ActivityKind)
	SetHidden(hidden bool)
}

type bookOpenedMsg struct {
	book *Book
	err  error
}

type refreshMsg time.Time

// Model is the bubbletea model for a single open book.
type Model struct {
	path    string
	bookID  string
	open    func(path, bookID string) (*Book, error)
	tracker SessionTracker
	signals Signals

	book   *Book
	page   int
	err    error
	width  int
	height int
}

// NewModel creates a reader for the book at path.
func NewModel(path, bookID string, t SessionTracker, signals Signals) Model {
	return Model{
		path:    path,
		bookID:  bookID,
		open:    OpenBook,
		tracker: t,
		signals: signals,
	}
}

// Init opens and paginates the book in the background.
func (m Model) Init() tea.Cmd {
	path, bookID, open := m.path, m.bookID, m.open
	return tea.Batch(
		func() tea.Msg {
			book, err := open(path, bookID)
			return bookOpenedMsg{book: book, err: err}
		},
		refresh(),
	)
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// Update handles bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case bookOpenedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.book = msg.book
		m.page = 1
		m.startSession()
		return m, nil

	case tea.KeyMsg:
		m.signals.Emit(tracker.ActivityKeyPress)
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.FocusMsg:
		m.signals.SetHidden(false)
		return m, nil

	case tea.BlurMsg:
		m.signals.SetHidden(true)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		return m, refresh()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if m.book != nil {
			m.tracker.EndSession(m.position())
		}
		return m, tea.Quit
	case "right", "l", "n", "pgdown", " ":
		m.turn(m.page + 1)
	case "left", "h", "p", "pgup":
		m.turn(m.page - 1)
	case "home", "g":
		m.turn(1)
	case "end", "G":
		if m.book != nil && m.book.Pages > 0 {
			m.turn(m.book.Pages)
		}
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Button == tea.MouseButtonWheelDown:
		m.signals.Emit(tracker.ActivityScroll)
		m.turn(m.page + 1)
	case msg.Button == tea.MouseButtonWheelUp:
		m.signals.Emit(tracker.ActivityScroll)
		m.turn(m.page - 1)
	case msg.Action == tea.MouseActionMotion:
		m.signals.Emit(tracker.ActivityPointerMove)
	case msg.Action == tea.MouseActionPress:
		m.signals.Emit(tracker.ActivityPointerDown)
	}
	return m, nil
}

// turn moves to page and reports the new position. Reading after the tracker closed
// an idle session opens a fresh one.
func (m *Model) turn(page int) {
	if m.book == nil {
		return
	}
	if page < 1 {
		page = 1
	}
	if m.book.Pages > 0 && page > m.book.Pages {
		page = m.book.Pages
	}
	if page == m.page {
		return
	}
	m.page = page

	if m.tracker.State() == tracker.StateIdle {
		m.startSession()
		return
	}
	m.tracker.UpdateProgress(m.position())
}

func (m *Model) startSession() {
	if err := m.tracker.StartSession(m.book.ID, m.book.Type, m.position()); err != nil {
		m.err = err
	}
}

func (m Model) position() tracker.Position {
	if m.book == nil {
		return tracker.Position{}
	}
	return tracker.Position{
		Location: m.book.Location(m.page),
		Progress: m.book.Progress(m.page),
	}
}

// Page returns the current 1-based page, or zero before the book is open.
func (m Model) Page() int {
	return m.page
}

// Err returns the error that stopped the reader, if any.
func (m Model) Err() error {
	return m.err
}

// View renders the reader.
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n" + mutedStyle.Render("q: quit") + "\n"
	}
	if m.book == nil {
		return mutedStyle.Render("Opening "+m.path+"…") + "\n"
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render(m.book.Title),
		"  ",
		mutedStyle.Render("["+string(m.book.Type)+"]"),
		"  ",
		renderState(m.tracker.State().String()),
	)

	body := pageStyle.Render(m.pageBody())
	if m.width > 4 {
		body = pageStyle.Width(m.width - 4).Render(m.pageBody())
	}

	footer := mutedStyle.Render("←/→: page  g/G: first/last  q: finish reading")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer) + "\n"
}

func (m Model) pageBody() string {
	var b strings.Builder
	if m.book.Pages > 0 {
		fmt.Fprintf(&b, "Page %d of %d", m.page, m.book.Pages)
		if p := m.book.Progress(m.page); p != nil {
			fmt.Fprintf(&b, "  (%.1f%%)", *p)
		}
	} else {
		fmt.Fprintf(&b, "Page %d", m.page)
	}
	if label := m.book.PageLabel(m.page); label != "" {
		b.WriteString("\n\n" + label)
	}
	b.WriteString("\n\n" + mutedStyle.Render("at "+m.book.Location(m.page)))
	return b.String()
}
