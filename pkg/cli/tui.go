package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haivivi/bipbuf/pkg/buffer"
)

// Theme defines the color scheme for the region map.
type Theme struct {
	Primary lipgloss.Color // borders and titles
	Dim     lipgloss.Color // free space and help text
	BlockA  lipgloss.Color
	BlockB  lipgloss.Color
	Reserve lipgloss.Color // outstanding reservations
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	BlockA:  lipgloss.Color("#58a6ff"),
	BlockB:  lipgloss.Color("#d2a8ff"),
	Reserve: lipgloss.Color("#f0883e"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title   lipgloss.Style
	Border  lipgloss.Style
	Help    lipgloss.Style
	BlockA  lipgloss.Style
	BlockB  lipgloss.Style
	Reserve lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Border:  lipgloss.NewStyle().Foreground(t.Primary),
		Help:    lipgloss.NewStyle().Foreground(t.Dim),
		BlockA:  lipgloss.NewStyle().Foreground(t.BlockA),
		BlockB:  lipgloss.NewStyle().Foreground(t.BlockB),
		Reserve: lipgloss.NewStyle().Bold(true).Foreground(t.Reserve),
	}
}

// Cell glyphs used by MapCells.
const (
	CellFree         = '.'
	CellBlockA       = 'A'
	CellBlockB       = 'B'
	CellWriteReserve = 'w'
	CellReadReserve  = 'r'
)

// MapCells scales the storage of s onto width cells. A cell shows the
// highest priority region overlapping its byte range: read reservation,
// write reservation, block A, block B, free.
func MapCells(s buffer.Stats, width int) []rune {
	if width <= 0 || s.Capacity == 0 {
		return nil
	}
	cells := make([]rune, width)
	layers := []struct {
		r    buffer.Region
		cell rune
	}{
		{s.ReadReservation, CellReadReserve},
		{s.WriteReservation, CellWriteReserve},
		{s.BlockA, CellBlockA},
		{s.BlockB, CellBlockB},
	}
	for i := range cells {
		lo := i * s.Capacity / width
		hi := (i + 1) * s.Capacity / width
		if hi == lo {
			hi = lo + 1
		}
		cells[i] = CellFree
		for _, l := range layers {
			if !l.r.Empty() && l.r.Index < hi && l.r.End() > lo {
				cells[i] = l.cell
				break
			}
		}
	}
	return cells
}

// RegionMap renders a BipBuffer snapshot as a framed bar.
type RegionMap struct {
	Styles Styles
	Title  string
	// Width is the total frame width including borders
	Width int
}

// NewRegionMap returns a RegionMap with the default theme.
func NewRegionMap(title string, width int) RegionMap {
	return RegionMap{Styles: NewStyles(DefaultTheme), Title: title, Width: width}
}

// Render renders the frame to a string.
func (m RegionMap) Render(s buffer.Stats) string {
	width := max(m.Width, 24)
	inner := width - 4
	bc := m.Styles.Border

	var lines []string
	lines = append(lines, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))

	title := m.Styles.Title.Render(m.Title)
	status := m.Styles.Help.Render("[" + s.State.String() + "]")
	padding := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(status))
	lines = append(lines, bc.Render("│")+" "+title+" "+status+
		strings.Repeat(" ", padding)+" "+bc.Render("│"))

	lines = append(lines, m.row(bc, m.renderCells(MapCells(s, inner)), inner))
	lines = append(lines, m.row(bc, fmt.Sprintf("A %s  B %s  used %s / %s",
		s.BlockA, s.BlockB, FormatBytes(int64(s.Used)), FormatBytes(int64(s.Capacity))), inner))
	lines = append(lines, m.row(bc, fmt.Sprintf("w %s  r %s  gen %d  grows %d  signaled %t",
		s.WriteReservation, s.ReadReservation, s.Generation, s.Grows, s.Signaled), inner))

	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	return strings.Join(lines, "\n")
}

func (m RegionMap) row(bc lipgloss.Style, text string, inner int) string {
	if inner > 1 && lipgloss.Width(text) > inner {
		text = truncateString(text, inner-1) + "…"
	}
	return bc.Render("│") + " " + text +
		strings.Repeat(" ", max(0, inner-lipgloss.Width(text))) + " " + bc.Render("│")
}

func (m RegionMap) renderCells(cells []rune) string {
	var sb strings.Builder
	for _, c := range cells {
		st := m.Styles.Help
		switch c {
		case CellBlockA:
			st = m.Styles.BlockA
		case CellBlockB:
			st = m.Styles.BlockB
		case CellWriteReserve, CellReadReserve:
			st = m.Styles.Reserve
		}
		sb.WriteString(st.Render(string(c)))
	}
	return sb.String()
}

// truncateString safely truncates a string to the given width,
// handling multi-byte characters correctly.
func truncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	currentWidth := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if currentWidth+w > width {
			return string(runes[:i])
		}
		currentWidth += w
	}
	return s
}
