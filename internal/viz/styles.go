package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

func (t Theme) header() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
}

func (t Theme) value() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Text)
}

// ProgressBar renders done/total as a bar of the given width.
func ProgressBar(t Theme, percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(t.Accent).Render(bar)
}

// SignalStrip renders the most recent signals as a strip, one cell per
// tick. Cells above half scale use the theme's On color.
func SignalStrip(t Theme, signals []float64, width int) string {
	if len(signals) > width {
		signals = signals[len(signals)-width:]
	}
	if len(signals) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	on := lipgloss.NewStyle().Foreground(t.On)
	off := lipgloss.NewStyle().Foreground(t.Off)

	var b strings.Builder
	for _, v := range signals {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		c := string(chars[int(v*float64(len(chars)-1))])
		if v > 0.5 {
			b.WriteString(on.Render(c))
		} else {
			b.WriteString(off.Render(c))
		}
	}
	return b.String()
}
