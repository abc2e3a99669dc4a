// Tacscope Console
// Terminal scope view of a live session: plots entities around the theater
// center, lists their state and lets the operator reclassify them
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/opsdeck/tacscope/pkg/geo"
	"github.com/opsdeck/tacscope/pkg/marker"
	"github.com/opsdeck/tacscope/pkg/stream"
)

// Scope viewport dimensions
const (
	scopeWidth  = 61
	scopeHeight = 25
)

var (
	serverURL   = flag.String("server", "http://localhost:8080", "Tacscope server base URL")
	sessionCode = flag.String("session", "", "Join an existing session instead of creating one")
)

// dispositionCycle is the order the space key steps through.
var dispositionCycle = []marker.Disposition{
	marker.DispositionUnknown,
	marker.DispositionFriendly,
	marker.DispositionHostile,
	marker.DispositionNeutral,
	marker.DispositionCaution,
}

type model struct {
	client  *stream.Client
	code    string
	primary bool

	events <-chan marker.Event
	errs   <-chan error

	entities     []marker.Entity
	dispositions map[string]marker.Disposition
	center       geo.Coordinate
	haveCenter   bool

	selected int
	zoom     float64
	status   string
	err      error
}

type eventMsg marker.Event

type streamErrMsg struct{ err error }

type dispositionSetMsg struct {
	id  string
	d   marker.Disposition
	err error
}

func waitForEvent(events <-chan marker.Event, errs <-chan error) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev, ok := <-events:
			if !ok {
				return streamErrMsg{fmt.Errorf("stream closed")}
			}
			return eventMsg(ev)
		case err := <-errs:
			return streamErrMsg{err}
		}
	}
}

func (m model) Init() tea.Cmd {
	return waitForEvent(m.events, m.errs)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.entities)-1 {
				m.selected++
			}

		case "+", "=":
			if m.zoom < 8 {
				m.zoom *= 2
			}

		case "-", "_":
			if m.zoom > 0.25 {
				m.zoom /= 2
			}

		case " ":
			if m.selected < len(m.entities) {
				e := m.entities[m.selected]
				next := nextDisposition(m.currentDisposition(e))
				return m, m.setDisposition(e.ID, next)
			}
		}

	case eventMsg:
		m.entities = msg.Entities
		m.dispositions = msg.Dispositions
		sort.Slice(m.entities, func(i, j int) bool {
			return m.entities[i].ID < m.entities[j].ID
		})
		if m.selected >= len(m.entities) && len(m.entities) > 0 {
			m.selected = len(m.entities) - 1
		}
		// The radio tower sits at the theater center; anchor the scope on
		// it the first time it appears
		if !m.haveCenter {
			for _, e := range m.entities {
				if e.ID == "r1" {
					m.center = e.Coordinates
					m.haveCenter = true
					break
				}
			}
		}
		return m, waitForEvent(m.events, m.errs)

	case dispositionSetMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("set %s failed: %v", msg.id, msg.err)
		} else {
			m.status = fmt.Sprintf("%s marked %s", msg.id, msg.d)
		}

	case streamErrMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// currentDisposition resolves what the server currently reports for an
// entity: the session override map wins over the entity payload.
func (m model) currentDisposition(e marker.Entity) marker.Disposition {
	if d, ok := m.dispositions[e.ID]; ok {
		return d
	}
	return e.Data.Disposition
}

func nextDisposition(d marker.Disposition) marker.Disposition {
	for i, c := range dispositionCycle {
		if c == d {
			return dispositionCycle[(i+1)%len(dispositionCycle)]
		}
	}
	return marker.DispositionUnknown
}

func (m model) setDisposition(id string, d marker.Disposition) tea.Cmd {
	return func() tea.Msg {
		err := m.client.SetDisposition(context.Background(), m.code, id, d)
		return dispositionSetMsg{id: id, d: d, err: err}
	}
}

func (m model) View() string {
	var s strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	role := "viewer"
	if m.primary {
		role = "primary"
	}
	s.WriteString(titleStyle.Render(fmt.Sprintf("TACSCOPE CONSOLE  session %s (%s)", m.code, role)))
	s.WriteString("\n\n")

	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		s.WriteString(errStyle.Render(fmt.Sprintf("Stream error: %v", m.err)))
		s.WriteString("\n")
		return s.String()
	}

	if len(m.entities) == 0 {
		s.WriteString("Waiting for first snapshot...\n")
		return s.String()
	}

	scopeLines := strings.Split(m.renderScope(), "\n")
	listLines := strings.Split(m.renderEntityList(), "\n")

	maxLines := len(scopeLines)
	if len(listLines) > maxLines {
		maxLines = len(listLines)
	}
	for i := 0; i < maxLines; i++ {
		if i < len(scopeLines) {
			s.WriteString(scopeLines[i])
		} else {
			s.WriteString(strings.Repeat(" ", scopeWidth))
		}
		s.WriteString("  ")
		if i < len(listLines) {
			s.WriteString(listLines[i])
		}
		s.WriteString("\n")
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	s.WriteString("\n")
	if m.status != "" {
		s.WriteString(helpStyle.Render(m.status))
		s.WriteString("\n")
	}
	s.WriteString(helpStyle.Render("↑/↓: Select  SPACE: Reclassify  +/-: Zoom  Q: Quit"))
	s.WriteString("\n")
	return s.String()
}

// renderScope plots every entity on an ASCII grid centered on the theater
// center. One zoom step halves or doubles the covered area.
func (m model) renderScope() string {
	grid := make([][]rune, scopeHeight)
	for y := range grid {
		grid[y] = make([]rune, scopeWidth)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	// Degrees covered by the viewport at zoom 1: roughly a 35 mile radius,
	// with longitude stretched for the latitude of the center
	latSpan := 1.0 / m.zoom
	lonSpan := latSpan / math.Cos(m.center.Latitude*geo.DegreesToRadians) * 1.2

	type plotted struct {
		x, y  int
		sym   rune
		style lipgloss.Style
	}
	var plots []plotted

	for i, e := range m.entities {
		dx := (e.Coordinates.Longitude - m.center.Longitude) / lonSpan
		dy := (e.Coordinates.Latitude - m.center.Latitude) / latSpan
		x := scopeWidth/2 + int(math.Round(dx*float64(scopeWidth)))
		y := scopeHeight/2 - int(math.Round(dy*float64(scopeHeight)))
		if x < 0 || x >= scopeWidth || y < 0 || y >= scopeHeight {
			continue
		}
		style := dispositionStyle(m.currentDisposition(e))
		if i == m.selected {
			style = style.Reverse(true)
		}
		plots = append(plots, plotted{x, y, entitySymbol(e.Data.Type), style})
	}

	// Crosshair at the center
	grid[scopeHeight/2][scopeWidth/2] = '+'

	var s strings.Builder
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	s.WriteString(borderStyle.Render("┌" + strings.Repeat("─", scopeWidth) + "┐"))
	s.WriteString("\n")
	for y := 0; y < scopeHeight; y++ {
		s.WriteString(borderStyle.Render("│"))
		for x := 0; x < scopeWidth; x++ {
			drawn := false
			for _, p := range plots {
				if p.x == x && p.y == y {
					s.WriteString(p.style.Render(string(p.sym)))
					drawn = true
					break
				}
			}
			if !drawn {
				s.WriteRune(grid[y][x])
			}
		}
		s.WriteString(borderStyle.Render("│"))
		s.WriteString("\n")
	}
	s.WriteString(borderStyle.Render("└" + strings.Repeat("─", scopeWidth) + "┘"))
	return s.String()
}

func (m model) renderEntityList() string {
	var s strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	s.WriteString(headerStyle.Render(fmt.Sprintf("%-4s %-16s %-9s %6s", "ID", "NAME", "DISP", "BRG")))
	s.WriteString("\n")

	for i, e := range m.entities {
		d := m.currentDisposition(e)
		style := dispositionStyle(d)
		line := fmt.Sprintf("%-4s %-16s %-9s %6.1f", e.ID, truncate(e.Data.Name, 16), d, e.Bearing)
		if i == m.selected {
			line = "> " + line
			style = style.Bold(true)
		} else {
			line = "  " + line
		}
		s.WriteString(style.Render(line))
		s.WriteString("\n")
	}

	// Diagnostics panel for the selected entity, if it carries any
	if m.selected < len(m.entities) {
		if ts := m.entities[m.selected].Data.TankStatus; ts != nil {
			dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
			s.WriteString("\n")
			s.WriteString(dimStyle.Render(fmt.Sprintf("Fuel %d%%  Ammo %d%%  Engine %d%%  Hull %d%%",
				ts.Fuel, ts.Ammo, ts.Health.Engine, ts.Health.Hull)))
			s.WriteString("\n")
			for _, rec := range ts.Recommendations {
				s.WriteString(dimStyle.Render("! " + rec))
				s.WriteString("\n")
			}
		}
	}

	return s.String()
}

func entitySymbol(t marker.EntityType) rune {
	switch t {
	case marker.TypeAircraft:
		return 'A'
	case marker.TypeDrone:
		return 'd'
	case marker.TypeTank:
		return 'T'
	case marker.TypeVehicle:
		return 'J'
	case marker.TypeRadioTower:
		return 'R'
	case marker.TypeGroundOperator:
		return 'G'
	default:
		return '?'
	}
}

func dispositionStyle(d marker.Disposition) lipgloss.Style {
	switch d {
	case marker.DispositionFriendly:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	case marker.DispositionHostile:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	case marker.DispositionNeutral:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	case marker.DispositionCaution:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func main() {
	flag.Parse()

	client := stream.NewClient(*serverURL)
	ctx := context.Background()

	code := *sessionCode
	primary := false
	if code == "" {
		var err error
		code, err = client.CreateSession(ctx)
		if err != nil {
			log.Fatalf("Failed to create session: %v", err)
		}
		primary = true
		fmt.Printf("Session created: %s\n", code)
	}

	role := ""
	if primary {
		role = "primary"
	}

	events := make(chan marker.Event, 1)
	errs := make(chan error, 1)
	go func() {
		err := stream.RetryWithBackoff(ctx, stream.DefaultRetryConfig(), func() error {
			return client.Subscribe(ctx, code, role, func(e marker.Event) {
				// Drop stale frames if the UI falls behind
				select {
				case events <- e:
				default:
				}
			})
		})
		errs <- err
	}()

	m := model{
		client:  client,
		code:    code,
		primary: primary,
		events:  events,
		errs:    errs,
		zoom:    1.0,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
