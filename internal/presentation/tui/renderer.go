package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Renderer draws messages for a terminal: markdown through glamour and role
// labels through termenv colors.
type Renderer struct {
	md      *glamour.TermRenderer
	profile termenv.Profile
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	width   int
	style   string
	profile *termenv.Profile
}

// WithWordWrap sets the markdown wrap width. Zero keeps glamour's default.
func WithWordWrap(width int) Option {
	return func(c *config) { c.width = width }
}

// WithStyle forces a glamour style ("dark", "light", "notty", ...).
// Without it the style follows the terminal background.
func WithStyle(style string) Option {
	return func(c *config) { c.style = style }
}

// WithProfile forces the color profile, mainly for tests.
func WithProfile(p termenv.Profile) Option {
	return func(c *config) { c.profile = &p }
}

// NewRenderer creates a terminal renderer.
func NewRenderer(opts ...Option) (*Renderer, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	mdOpts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if cfg.style != "" {
		mdOpts = []glamour.TermRendererOption{glamour.WithStandardStyle(cfg.style)}
	}
	if cfg.width > 0 {
		mdOpts = append(mdOpts, glamour.WithWordWrap(cfg.width))
	}
	md, err := glamour.NewTermRenderer(mdOpts...)
	if err != nil {
		return nil, fmt.Errorf("markdown renderer: %w", err)
	}

	profile := termenv.ColorProfile()
	if cfg.profile != nil {
		profile = *cfg.profile
	}
	return &Renderer{md: md, profile: profile}, nil
}

// Markdown renders a markdown document.
func (r *Renderer) Markdown(text string) (string, error) {
	return r.md.Render(text)
}

// Message renders one message. It has the shape of runner.ContentRenderer.
func (r *Renderer) Message(msg domain.Message) (string, error) {
	switch msg.Role {
	case domain.RoleUser:
		return r.label("You", "#818cf8") + " " + msg.Content, nil
	case domain.RoleAssistant:
		if msg.RequestsTool() {
			names := make([]string, len(msg.ToolCalls))
			for i, c := range msg.ToolCalls {
				names[i] = c.Name
			}
			return r.label("Assistant", "#c084fc") + " calling " + strings.Join(names, ", "), nil
		}
		body, err := r.md.Render(msg.Content)
		if err != nil {
			return "", err
		}
		return r.label("Assistant", "#c084fc") + "\n" + strings.TrimRight(body, "\n"), nil
	case domain.RoleToolResult:
		if msg.IsError {
			return r.label("Tool "+msg.ToolName+" failed", "#fb7185") + " " + msg.Content, nil
		}
		return r.label("Tool "+msg.ToolName, "#a78bfa") + " " + preview(msg.Content, 200), nil
	default:
		return "", fmt.Errorf("unknown role %q", msg.Role)
	}
}

func (r *Renderer) label(text, color string) string {
	return r.profile.String(text + ":").Foreground(r.profile.Color(color)).Bold().String()
}

// preview keeps tool output to one short line.
func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
