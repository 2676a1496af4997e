package styles

import "github.com/charmbracelet/lipgloss"

// palette holds the colors of one theme.
type palette struct {
	text   lipgloss.Color
	muted  lipgloss.Color
	border lipgloss.Color
	cyan   lipgloss.Color
	amber  lipgloss.Color
	red    lipgloss.Color
	green  lipgloss.Color
}

var (
	darkPalette = palette{
		text:   lipgloss.Color("#E2E8F0"),
		muted:  lipgloss.Color("#64748B"),
		border: lipgloss.Color("#334155"),
		cyan:   lipgloss.Color("#06B6D4"),
		amber:  lipgloss.Color("#F59E0B"),
		red:    lipgloss.Color("#EF4444"),
		green:  lipgloss.Color("#22C55E"),
	}
	lightPalette = palette{
		text:   lipgloss.Color("#0F172A"),
		muted:  lipgloss.Color("#64748B"),
		border: lipgloss.Color("#CBD5E1"),
		cyan:   lipgloss.Color("#0E7490"),
		amber:  lipgloss.Color("#B45309"),
		red:    lipgloss.Color("#B91C1C"),
		green:  lipgloss.Color("#15803D"),
	}
)

// Set is the centralized style set for the TUI. It is rebuilt when the
// theme is toggled.
type Set struct {
	Dark bool

	Header    lipgloss.Style
	Subtitle  lipgloss.Style
	Online    lipgloss.Style
	TabActive []lipgloss.Style // indexed by tab, in display order
	TabIdle   lipgloss.Style

	Panel      lipgloss.Style
	PanelTitle lipgloss.Style
	Text       lipgloss.Style
	Dim        lipgloss.Style
	Warning    lipgloss.Style
	Danger     lipgloss.Style
	OK         lipgloss.Style
	Result     lipgloss.Style

	SwitchOn  lipgloss.Style
	SwitchOff lipgloss.Style
	Feature   lipgloss.Style

	UserPrefix lipgloss.Style
	UserBlock  lipgloss.Style
	AIPrefix   lipgloss.Style
	AIBlock    lipgloss.Style
	ErrorBlock lipgloss.Style
	Spinner    lipgloss.Style

	FocusedBorder  lipgloss.Style
	DisabledBorder lipgloss.Style
	Status         lipgloss.Style
}

// New builds the dark or light style set.
func New(dark bool) Set {
	p := lightPalette
	if dark {
		p = darkPalette
	}

	tabBase := lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder(), true, true, false, true)

	return Set{
		Dark: dark,

		Header:   lipgloss.NewStyle().Bold(true).Foreground(p.text),
		Subtitle: lipgloss.NewStyle().Foreground(p.muted),
		Online:   lipgloss.NewStyle().Foreground(p.green),
		TabActive: []lipgloss.Style{
			tabBase.Bold(true).Foreground(p.cyan).BorderForeground(p.cyan),
			tabBase.Bold(true).Foreground(p.amber).BorderForeground(p.amber),
			tabBase.Bold(true).Foreground(p.red).BorderForeground(p.red),
			tabBase.Bold(true).Foreground(p.green).BorderForeground(p.green),
		},
		TabIdle: tabBase.Foreground(p.muted).BorderForeground(p.border),

		Panel:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.border).Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().Foreground(p.muted).Bold(true),
		Text:       lipgloss.NewStyle().Foreground(p.text),
		Dim:        lipgloss.NewStyle().Foreground(p.muted),
		Warning:    lipgloss.NewStyle().Foreground(p.amber),
		Danger:     lipgloss.NewStyle().Foreground(p.red).Bold(true),
		OK:         lipgloss.NewStyle().Foreground(p.green),
		Result:     lipgloss.NewStyle().Foreground(p.amber).Bold(true).Padding(0, 2),

		SwitchOn:  lipgloss.NewStyle().Foreground(p.green).Bold(true).Border(lipgloss.ThickBorder()).BorderForeground(p.green).Padding(0, 1),
		SwitchOff: lipgloss.NewStyle().Foreground(p.muted).Border(lipgloss.NormalBorder()).BorderForeground(p.border).Padding(0, 1),
		Feature:   lipgloss.NewStyle().Foreground(p.cyan),

		UserPrefix: lipgloss.NewStyle().Bold(true).Foreground(p.cyan),
		UserBlock:  lipgloss.NewStyle().PaddingLeft(1),
		AIPrefix:   lipgloss.NewStyle().Bold(true).Foreground(p.green),
		AIBlock:    lipgloss.NewStyle().PaddingLeft(1),
		ErrorBlock: lipgloss.NewStyle().
			PaddingLeft(1).
			Foreground(p.red).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(p.red),
		Spinner: lipgloss.NewStyle().Foreground(p.green),

		FocusedBorder:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.green),
		DisabledBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.border),
		Status:         lipgloss.NewStyle().Foreground(p.muted),
	}
}

// GlamourStyle names the glamour standard style matching the theme.
func (s Set) GlamourStyle() string {
	if s.Dark {
		return "dark"
	}
	return "light"
}
