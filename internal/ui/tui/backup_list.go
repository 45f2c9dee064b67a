package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/klauern/tmxsync/internal/backup"
)

// BackupAction represents the action to perform on a selected backup.
type BackupAction int

const (
	// BackupNone means no action was taken (user quit).
	BackupNone BackupAction = iota
	// BackupRestore means the user wants to restore the selected backup over its map.
	BackupRestore
	// BackupDelete means the user wants to delete the selected backup.
	BackupDelete
	// BackupVerify means the user wants to verify the selected backup.
	BackupVerify
)

// BackupListResult contains the result of the backup list TUI interaction.
type BackupListResult struct {
	Action BackupAction
	Backup backup.Metadata
}

// backupListKeyMap defines the key bindings for the backup list.
type backupListKeyMap struct {
	Restore  key.Binding
	Delete   key.Binding
	Verify   key.Binding
	Filter   key.Binding
	ClearFlt key.Binding
	Quit     key.Binding
}

func defaultBackupListKeyMap() backupListKeyMap {
	return backupListKeyMap{
		Restore: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restore"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Verify: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "verify"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		ClearFlt: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// BackupListModel is the BubbleTea model for browsing map backups.
type BackupListModel struct {
	table       table.Model
	backups     []backup.Metadata
	filtered    []backup.Metadata
	keys        backupListKeyMap
	result      BackupListResult
	filter      string
	filtering   bool
	confirmMode bool
	confirmMsg  string
	quitting    bool
}

var backupListStyles = struct {
	Title       lipgloss.Style
	Help        lipgloss.Style
	Filter      lipgloss.Style
	FilterInput lipgloss.Style
	Confirm     lipgloss.Style
	Status      lipgloss.Style
}{
	Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Help:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Filter:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	FilterInput: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
	Confirm:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true).Padding(1, 2),
	Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
}

// NewBackupListModel creates a new backup list model.
func NewBackupListModel(backups []backup.Metadata) BackupListModel {
	columns := []table.Column{
		{Title: "ID", Width: 24},
		{Title: "Map", Width: 20},
		{Title: "Directory", Width: 32},
		{Title: "Created", Width: 16},
		{Title: "Size", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(backupsToRows(backups)),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return BackupListModel{
		table:    t,
		backups:  backups,
		filtered: backups,
		keys:     defaultBackupListKeyMap(),
	}
}

func backupsToRows(backups []backup.Metadata) []table.Row {
	rows := make([]table.Row, len(backups))
	for i, b := range backups {
		dir := filepath.Dir(b.SourcePath)
		if len(dir) > 32 {
			dir = "..." + dir[len(dir)-29:]
		}
		rows[i] = table.Row{
			b.ID,
			filepath.Base(b.SourcePath),
			dir,
			b.CreatedAt.Format("2006-01-02 15:04"),
			humanize.Bytes(uint64(max(b.Size, 0))),
		}
	}
	return rows
}

// Init implements tea.Model.
func (m BackupListModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m BackupListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-8, 5))

	case tea.KeyMsg:
		if m.confirmMode {
			switch msg.String() {
			case "y", "Y":
				m.quitting = true
				return m, tea.Quit
			case "n", "N", "esc":
				m.confirmMode = false
				m.confirmMsg = ""
				m.result = BackupListResult{}
			}
			return m, nil
		}

		if m.filtering {
			switch msg.String() {
			case "enter":
				m.filtering = false
			case "esc":
				m.filter = ""
				m.filtering = false
				m.applyFilter()
			case "backspace":
				if len(m.filter) > 0 {
					m.filter = m.filter[:len(m.filter)-1]
					m.applyFilter()
				}
			default:
				if len(msg.String()) == 1 {
					m.filter += msg.String()
					m.applyFilter()
				}
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			return m, nil

		case key.Matches(msg, m.keys.ClearFlt):
			m.filter = ""
			m.applyFilter()
			return m, nil

		case key.Matches(msg, m.keys.Restore):
			if selected, ok := m.selectedBackup(); ok {
				m.result = BackupListResult{Action: BackupRestore, Backup: selected}
				m.confirmMode = true
				m.confirmMsg = fmt.Sprintf("Restore %s over %s? (y/n)", selected.ID, selected.SourcePath)
			}
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			if selected, ok := m.selectedBackup(); ok {
				m.result = BackupListResult{Action: BackupDelete, Backup: selected}
				m.confirmMode = true
				m.confirmMsg = fmt.Sprintf("Delete backup %s? (y/n)", selected.ID)
			}
			return m, nil

		case key.Matches(msg, m.keys.Verify):
			if selected, ok := m.selectedBackup(); ok {
				m.result = BackupListResult{Action: BackupVerify, Backup: selected}
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *BackupListModel) applyFilter() {
	if m.filter == "" {
		m.filtered = m.backups
	} else {
		var filtered []backup.Metadata
		lowerFilter := strings.ToLower(m.filter)
		for _, b := range m.backups {
			if strings.Contains(strings.ToLower(b.ID), lowerFilter) ||
				strings.Contains(strings.ToLower(b.SourcePath), lowerFilter) {
				filtered = append(filtered, b)
			}
		}
		m.filtered = filtered
	}
	m.table.SetRows(backupsToRows(m.filtered))
	m.table.SetCursor(0)
}

func (m BackupListModel) selectedBackup() (backup.Metadata, bool) {
	cursor := m.table.Cursor()
	if cursor >= 0 && cursor < len(m.filtered) {
		return m.filtered[cursor], true
	}
	return backup.Metadata{}, false
}

// View implements tea.Model.
func (m BackupListModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(backupListStyles.Title.Render("Map Backups"))
	b.WriteString("\n\n")

	if m.filter != "" || m.filtering {
		filterVal := backupListStyles.FilterInput.Render(m.filter)
		if m.filtering {
			filterVal += "█"
		}
		b.WriteString(backupListStyles.Filter.Render("Filter: ") + filterVal + "\n\n")
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")

	if m.confirmMode {
		b.WriteString(backupListStyles.Confirm.Render(m.confirmMsg))
		return b.String()
	}

	status := fmt.Sprintf("%d backup(s)", len(m.filtered))
	if m.filter != "" {
		status = fmt.Sprintf("%d of %d backup(s) (filtered)", len(m.filtered), len(m.backups))
	}
	b.WriteString(backupListStyles.Status.Render(status))
	b.WriteString("\n")

	keys := []string{"↑/↓ navigate", "r restore", "d delete", "v verify", "/ filter", "q quit"}
	b.WriteString(backupListStyles.Help.Render(strings.Join(keys, " • ")))
	return b.String()
}

// Result returns the result of the user interaction.
func (m BackupListModel) Result() BackupListResult {
	return m.result
}

// RunBackupList runs the interactive backup list and returns the result.
func RunBackupList(backups []backup.Metadata) (BackupListResult, error) {
	if len(backups) == 0 {
		return BackupListResult{}, nil
	}

	finalModel, err := tea.NewProgram(NewBackupListModel(backups), tea.WithAltScreen()).Run()
	if err != nil {
		return BackupListResult{}, err
	}

	if m, ok := finalModel.(BackupListModel); ok {
		return m.Result(), nil
	}
	return BackupListResult{}, nil
}
