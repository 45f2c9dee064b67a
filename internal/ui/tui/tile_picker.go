package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/klauern/tmxsync/internal/sync"
)

// ErrInterrupted is returned by Resolver when the picker is closed with ctrl+c.
var ErrInterrupted = errors.New("interrupted")

// pickerChoice is one selectable line of the picker: a variant or a fixed action.
type pickerChoice struct {
	action  sync.Action
	variant int // index into Situation.Variants for ActionAdopt
}

// tilePickerKeyMap defines the key bindings for the tile picker.
type tilePickerKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Clear   key.Binding
	Skip    key.Binding
	Quit    key.Binding
	Details key.Binding
	Cancel  key.Binding
}

func defaultTilePickerKeyMap() tilePickerKeyMap {
	return tilePickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "choose"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "save and quit"),
		),
		Details: key.NewBinding(
			key.WithKeys("d", "?"),
			key.WithHelp("d", "details"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "abort without saving"),
		),
	}
}

// Styles for the tile picker.
var pickerStyles = struct {
	Title    lipgloss.Style
	Kind     lipgloss.Style
	Selected lipgloss.Style
	Normal   lipgloss.Style
	Holders  lipgloss.Style
	Missing  lipgloss.Style
	Action   lipgloss.Style
	Detail   lipgloss.Style
	Help     lipgloss.Style
}{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Kind:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true),
	Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
	Normal:   lipgloss.NewStyle(),
	Holders:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Missing:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	Action:   lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	Detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("7")).PaddingLeft(4),
	Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
}

// TilePickerResult is the outcome of one picker session.
type TilePickerResult struct {
	Outcome sync.Outcome
	// Decided is false when the picker was cancelled with ctrl+c.
	Decided bool
}

// TilePickerModel is the BubbleTea model that asks how to resolve one tile id.
type TilePickerModel struct {
	situation   sync.Situation
	position    string
	choices     []pickerChoice
	cursor      int
	keys        tilePickerKeyMap
	showDetails bool
	width       int
	result      TilePickerResult
	quitting    bool
}

// NewTilePickerModel creates a picker for s. position is an optional
// "n of m" style label shown in the title.
func NewTilePickerModel(s sync.Situation, position string) TilePickerModel {
	choices := make([]pickerChoice, 0, len(s.Variants)+3)
	for i := range s.Variants {
		choices = append(choices, pickerChoice{action: sync.ActionAdopt, variant: i})
	}
	choices = append(choices,
		pickerChoice{action: sync.ActionClear},
		pickerChoice{action: sync.ActionSkip},
		pickerChoice{action: sync.ActionAbort},
	)

	return TilePickerModel{
		situation: s,
		position:  position,
		choices:   choices,
		keys:      defaultTilePickerKeyMap(),
		width:     80,
	}
}

// Init implements tea.Model.
func (m TilePickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m TilePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Details):
			m.showDetails = !m.showDetails

		case key.Matches(msg, m.keys.Select):
			return m.decide(m.choices[m.cursor])

		case key.Matches(msg, m.keys.Clear):
			return m.decide(pickerChoice{action: sync.ActionClear})

		case key.Matches(msg, m.keys.Skip):
			return m.decide(pickerChoice{action: sync.ActionSkip})

		case key.Matches(msg, m.keys.Quit):
			return m.decide(pickerChoice{action: sync.ActionAbort})

		default:
			// digits pick a variant directly
			if n, ok := variantDigit(msg, len(m.situation.Variants)); ok {
				return m.decide(pickerChoice{action: sync.ActionAdopt, variant: n})
			}
		}
	}
	return m, nil
}

func variantDigit(msg tea.KeyMsg, variants int) (int, bool) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	n := int(r - '1')
	return n, n < variants
}

func (m TilePickerModel) decide(c pickerChoice) (tea.Model, tea.Cmd) {
	out := sync.Outcome{Action: c.action}
	if c.action == sync.ActionAdopt {
		out.Record = m.situation.Variants[c.variant].Record
	}
	m.result = TilePickerResult{Outcome: out, Decided: true}
	m.quitting = true
	return m, tea.Quit
}

// View implements tea.Model.
func (m TilePickerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	s := m.situation

	title := fmt.Sprintf("Tile %d of tileset %s", s.TileID, s.Tileset)
	if m.position != "" {
		title += " (" + m.position + ")"
	}
	b.WriteString(pickerStyles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(pickerStyles.Kind.Render("  " + s.Describe()))
	b.WriteString("\n\n")

	for i, c := range m.choices {
		cursor := "  "
		style := pickerStyles.Normal
		if i == m.cursor {
			cursor = "> "
			style = pickerStyles.Selected
		}
		b.WriteString(cursor)
		b.WriteString(style.Render(m.choiceLabel(i, c)))
		b.WriteString("\n")

		if c.action == sync.ActionAdopt {
			v := s.Variants[c.variant]
			b.WriteString(pickerStyles.Holders.Render(
				formatDetail("     used by: ", strings.Join(s.DocumentLabels(v.Holders), ", "), m.width)))
			b.WriteString("\n")
			if m.showDetails && i == m.cursor {
				b.WriteString(m.recordDetails(c.variant))
			}
		}
	}

	if len(s.Missing) > 0 {
		b.WriteString("\n")
		b.WriteString(pickerStyles.Missing.Render(
			formatDetail("  missing in: ", strings.Join(s.DocumentLabels(s.Missing), ", "), m.width)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m TilePickerModel) choiceLabel(i int, c pickerChoice) string {
	switch c.action {
	case sync.ActionAdopt:
		text := m.situation.Variants[c.variant].Record.String()
		return fmt.Sprintf("%d) %s", i+1, truncateText(text, max(m.width-6, 10)))
	case sync.ActionClear:
		return pickerStyles.Action.Render("c) clear this tile from all maps")
	case sync.ActionSkip:
		return pickerStyles.Action.Render("s) skip this tile")
	default:
		return pickerStyles.Action.Render("q) save and quit")
	}
}

func (m TilePickerModel) recordDetails(variant int) string {
	rec := m.situation.Variants[variant].Record
	var lines []string
	lines = append(lines, "terrain:     "+rec.Terrain.String())
	lines = append(lines, "probability: "+rec.Probability.String())
	for _, name := range rec.PropertyNames() {
		lines = append(lines, formatDetail(name+" = ", rec.Properties[name], max(m.width-4, 20)))
	}
	return pickerStyles.Detail.Render(strings.Join(lines, "\n")) + "\n"
}

func (m TilePickerModel) renderHelp() string {
	bindings := []key.Binding{
		m.keys.Up, m.keys.Down, m.keys.Select, m.keys.Clear,
		m.keys.Skip, m.keys.Quit, m.keys.Details, m.keys.Cancel,
	}
	parts := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return pickerStyles.Help.Render(strings.Join(parts, " • "))
}

// Result returns the result of the user interaction.
func (m TilePickerModel) Result() TilePickerResult {
	return m.result
}

// Resolver is a sync.Resolver that shows a TilePickerModel for every situation.
type Resolver struct {
	run   func(ctx context.Context, m tea.Model) (tea.Model, error)
	asked int
}

// NewResolver returns a Resolver that runs the picker in the alternate screen.
func NewResolver() *Resolver {
	return &Resolver{run: runProgram}
}

func runProgram(ctx context.Context, m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
}

// Resolve implements sync.Resolver.
func (r *Resolver) Resolve(ctx context.Context, s sync.Situation) (sync.Outcome, error) {
	r.asked++
	mdl := NewTilePickerModel(s, fmt.Sprintf("decision %d", r.asked))

	final, err := r.run(ctx, mdl)
	if err != nil {
		return sync.Outcome{}, err
	}

	m, ok := final.(TilePickerModel)
	if !ok || !m.Result().Decided {
		return sync.Outcome{}, ErrInterrupted
	}
	return m.Result().Outcome, nil
}
