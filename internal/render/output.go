package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/domain"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/ratelimit"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/retry"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/session"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/usererr"
)

// Renderer handles output formatting.
type Renderer struct {
	pretty bool
}

// New creates a new renderer. Plain mode emits greppable one-liners.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

var severityColors = map[usererr.Severity]lipgloss.Color{
	usererr.SeverityInfo:     lipgloss.Color("39"),  // blue
	usererr.SeverityWarning:  lipgloss.Color("214"), // orange
	usererr.SeverityError:    lipgloss.Color("196"), // red
	usererr.SeverityCritical: lipgloss.Color("201"), // magenta
}

// ErrorBox renders a user-facing failure message.
func (r *Renderer) ErrorBox(msg usererr.Message) string {
	if !r.pretty {
		out := fmt.Sprintf("error: %s: %s", msg.Title, msg.Description)
		if msg.Suggestion != "" {
			out += " (" + msg.Suggestion + ")"
		}
		return out + "\n"
	}

	c, ok := severityColors[msg.Severity]
	if !ok {
		c = severityColors[usererr.SeverityError]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", msg.Icon, lipgloss.NewStyle().Bold(true).Render(msg.Title))
	sb.WriteString(msg.Description)
	if msg.Suggestion != "" {
		sb.WriteString("\n\n" + color.HiBlackString(msg.Suggestion))
	}
	if usererr.ShouldShowCountdown(msg) {
		fmt.Fprintf(&sb, "\n%s", color.YellowString("Try again in %ds", msg.RetryAfterSeconds))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Padding(0, 1).
		Width(60)
	return box.Render(sb.String()) + "\n"
}

// Sessions formats the saved-session listing.
func (r *Renderer) Sessions(meta []domain.SessionMetadata) string {
	if len(meta) == 0 {
		return "No saved sessions\n"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Saved Sessions\n"))
		sb.WriteString(strings.Repeat("─", 72) + "\n")
	}

	for _, m := range meta {
		timeStr := m.UpdatedAt.Format("Jan 2 15:04")
		tags := ""
		if len(m.Tags) > 0 {
			tags = " [" + strings.Join(m.Tags, ", ") + "]"
		}
		if r.pretty {
			fmt.Fprintf(&sb, "%s  %-32s %s  %d msg%s\n",
				color.HiBlackString(m.ID[:8]),
				Truncate(m.Name, 32),
				color.HiBlackString(timeStr),
				m.MessageCount,
				color.GreenString("%s", tags))
		} else {
			fmt.Fprintf(&sb, "%s\t%s\t%s\t%d%s\n", m.ID, m.Name, timeStr, m.MessageCount, tags)
		}
	}
	return sb.String()
}

// SessionDetail formats one full session.
func (r *Renderer) SessionDetail(s *domain.Session) string {
	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("%s\n", s.Name))
		sb.WriteString(strings.Repeat("─", 72) + "\n")
	} else {
		sb.WriteString(s.Name + "\n")
	}
	fmt.Fprintf(&sb, "  ID:      %s\n", s.ID)
	fmt.Fprintf(&sb, "  Created: %s\n", s.CreatedAt.Format(time.RFC822))
	fmt.Fprintf(&sb, "  Updated: %s\n", s.UpdatedAt.Format(time.RFC822))
	if len(s.Tags) > 0 {
		fmt.Fprintf(&sb, "  Tags:    %s\n", strings.Join(s.Tags, ", "))
	}
	if s.VisualizationImage != "" {
		fmt.Fprintf(&sb, "  Visual:  yes (%d bytes)\n", len(s.VisualizationImage))
	}

	sb.WriteString("\n" + s.Analysis.Plan + "\n")

	if len(s.Messages) > 0 {
		sb.WriteString("\n")
		if r.pretty {
			sb.WriteString(color.CyanString("Conversation\n"))
		} else {
			sb.WriteString("Conversation:\n")
		}
		for _, m := range s.Messages {
			role := string(m.Role)
			if r.pretty && m.Role == domain.RoleUser {
				role = color.GreenString(role)
			}
			fmt.Fprintf(&sb, "  %s: %s\n", role, m.Text)
		}
	}
	return sb.String()
}

// Analysis formats a fresh analyze result.
func (r *Renderer) Analysis(plan string, warnings []string, attempts int) string {
	var sb strings.Builder
	for _, w := range warnings {
		if r.pretty {
			fmt.Fprintf(&sb, "%s %s\n", color.YellowString("!"), w)
		} else {
			fmt.Fprintf(&sb, "warning: %s\n", w)
		}
	}
	if len(warnings) > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(plan + "\n")
	if attempts > 1 && r.pretty {
		fmt.Fprintf(&sb, "\n%s\n", color.HiBlackString("(succeeded after %d attempts)", attempts))
	}
	return sb.String()
}

// Status formats limiter, breaker, and storage state.
func (r *Renderer) Status(l *ratelimit.Limiter, b retry.Snapshot, info session.StorageInfo) string {
	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("ZenSpace Status\n"))
		sb.WriteString(strings.Repeat("─", 40) + "\n")

		fmt.Fprintf(&sb, "  Tokens:   %.1f / %.0f\n", l.Tokens(), l.MaxTokens())
		if wait := l.FormatWaitTime(); wait != "" {
			fmt.Fprintf(&sb, "  Next in:  %s\n", wait)
		}

		state := string(b.State)
		switch b.State {
		case retry.Closed:
			state = color.GreenString(state)
		case retry.Open:
			state = color.RedString(state)
		default:
			state = color.YellowString(state)
		}
		fmt.Fprintf(&sb, "  Circuit:  %s (%d failures)\n", state, b.Failures)

		fmt.Fprintf(&sb, "  Sessions: %d / %d (%s)\n",
			info.SessionCount, info.MaxSessions, FormatBytes(info.EstimatedSize))
	} else {
		fmt.Fprintf(&sb, "tokens=%.1f/%.0f circuit=%s failures=%d sessions=%d/%d size=%d\n",
			l.Tokens(), l.MaxTokens(), b.State, b.Failures,
			info.SessionCount, info.MaxSessions, info.EstimatedSize)
	}
	return sb.String()
}

// FormatBytes renders a byte count in human-readable form.
func FormatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
