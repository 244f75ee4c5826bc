package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/dialog"
	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/lips"
)

// Theme defines the color scheme of the console.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default pink theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#ff5fd7"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Help  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Bold(true),
		Help:  lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// ledColors maps the color names used by the dialog script to RGB.
var ledColors = map[string]lipgloss.Color{
	"red":     "#ff0000",
	"orange":  "#ff8000",
	"yellow":  "#ffff00",
	"green":   "#00ff00",
	"cyan":    "#00ffff",
	"blue":    "#0000ff",
	"purple":  "#8000ff",
	"magenta": "#ff00ff",
	"pink":    "#ff69b4",
	"white":   "#ffffff",
}

// LEDColor returns the display color of a named LED color.
func LEDColor(name string) (lipgloss.Color, bool) {
	c, ok := ledColors[strings.ToLower(name)]
	return c, ok
}

// DefaultStripLength is the number of LEDs on the machine's strip.
const DefaultStripLength = 12

// Console mirrors the LED strip and the dialog state on a terminal, one
// line per change. It implements dialog.LEDs.
type Console struct {
	w      io.Writer
	styles Styles

	mu    sync.Mutex
	cells []lipgloss.Color
}

var _ dialog.LEDs = (*Console)(nil)

// NewConsole creates a console mirror of a strip of n LEDs.
func NewConsole(w io.Writer, n int) *Console {
	if n <= 0 {
		n = DefaultStripLength
	}
	return &Console{
		w:      w,
		styles: NewStyles(DefaultTheme),
		cells:  make([]lipgloss.Color, n),
	}
}

// SetAll implements dialog.LEDs.
func (c *Console) SetAll(color string, effect float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rgb, ok := LEDColor(color)
	if !ok {
		rgb = "#808080"
	}
	for i := range c.cells {
		c.cells[i] = rgb
	}
	c.printf("%s %s %s", c.styles.Label.Render("leds"), c.strip(), c.styles.Help.Render(fmt.Sprintf("%s ~%g", color, effect)))
}

// SetOne implements dialog.LEDs.
func (c *Console) SetOne(index int, r, g, b uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.cells) {
		return
	}
	c.cells[index] = lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
	c.printf("%s %s", c.styles.Label.Render("leds"), c.strip())
}

// AllOff implements dialog.LEDs.
func (c *Console) AllOff() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.cells)
	c.printf("%s %s", c.styles.Label.Render("leds"), c.strip())
}

// Observe prints the state line of a session snapshot. Pass it to
// dialog.WithObserver.
func (c *Console) Observe(s dialog.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var flags []string
	if !s.Started {
		flags = append(flags, "stopped")
	}
	if s.Speaking {
		flags = append(flags, "speaking")
	}
	if s.LastGesture != lips.None {
		flags = append(flags, "last="+s.LastGesture.String())
	}
	line := c.styles.Title.Render(s.State.String()) + " " + c.styles.Help.Render("["+s.Mode.String()+"]")
	if len(flags) > 0 {
		line += " " + strings.Join(flags, " ")
	}
	c.printf("%s %s", c.styles.Label.Render("kiss"), line)
}

func (c *Console) strip() string {
	var b strings.Builder
	for _, rgb := range c.cells {
		if rgb == "" {
			b.WriteString(c.styles.Help.Render("·"))
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(rgb).Render("●"))
	}
	return b.String()
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.w, format+"\n", args...)
}
