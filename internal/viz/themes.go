package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme of the live view.
type Theme struct {
	Name        string
	Measurement lipgloss.Color
	Target      lipgloss.Color
	Accent      lipgloss.Color
	Text        lipgloss.Color
	Muted       lipgloss.Color
	On          lipgloss.Color
	Off         lipgloss.Color
}

var (
	ThemeThermal = Theme{
		Name:        "thermal",
		Measurement: lipgloss.Color("#ff8c00"),
		Target:      lipgloss.Color("#ff3355"),
		Accent:      lipgloss.Color("#ffd700"),
		Text:        lipgloss.Color("#fff5e6"),
		Muted:       lipgloss.Color("#886655"),
		On:          lipgloss.Color("#ff5533"),
		Off:         lipgloss.Color("#3388ff"),
	}

	ThemeRetro = Theme{
		Name:        "retro",
		Measurement: lipgloss.Color("#00ff00"),
		Target:      lipgloss.Color("#88ff88"),
		Accent:      lipgloss.Color("#ccffcc"),
		Text:        lipgloss.Color("#00ff00"),
		Muted:       lipgloss.Color("#005500"),
		On:          lipgloss.Color("#88ff88"),
		Off:         lipgloss.Color("#005500"),
	}

	ThemeMinimal = Theme{
		Name:        "minimal",
		Measurement: lipgloss.Color("#ffffff"),
		Target:      lipgloss.Color("#0088ff"),
		Accent:      lipgloss.Color("#0088ff"),
		Text:        lipgloss.Color("#ffffff"),
		Muted:       lipgloss.Color("#888888"),
		On:          lipgloss.Color("#ffaa00"),
		Off:         lipgloss.Color("#888888"),
	}

	Themes = []Theme{
		ThemeThermal,
		ThemeRetro,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// next returns the theme after t in Themes.
func (t Theme) next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
