package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used for text output.
type Styles struct {
	Header1       lipgloss.Style
	Header2       lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	Success       lipgloss.Style
	Warning       lipgloss.Style
	Error         lipgloss.Style
	Info          lipgloss.Style
	Path          lipgloss.Style
	TokenKind     lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// DefaultStyles returns the colored styles for terminals.
func DefaultStyles() *Styles {
	green := lipgloss.Color("10")
	red := lipgloss.Color("9")
	return &Styles{
		Header1:       lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("12")),
		Header2:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:          lipgloss.NewStyle().Bold(true),
		Muted:         lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Success:       lipgloss.NewStyle().Foreground(green),
		Warning:       lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Error:         lipgloss.NewStyle().Foreground(red),
		Info:          lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Path:          lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		TokenKind:     lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		StatusSuccess: lipgloss.NewStyle().Foreground(green).SetString("✓"),
		StatusFailed:  lipgloss.NewStyle().Foreground(red).SetString("✗"),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Header1:       plain,
		Header2:       plain,
		Bold:          plain,
		Muted:         plain,
		Success:       plain,
		Warning:       plain,
		Error:         plain,
		Info:          plain,
		Path:          plain,
		TokenKind:     plain,
		StatusSuccess: plain.SetString("✓"),
		StatusFailed:  plain.SetString("✗"),
	}
}
