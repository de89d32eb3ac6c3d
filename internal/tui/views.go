package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/service"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// renderList renders the browse list rows starting at the scroll offset
func (m Model) renderList(height int) string {
	if len(m.Results) == 0 {
		msg := "No items in catalog"
		if m.filter.Value() != "" {
			msg = "No matches"
		}
		return lipgloss.NewStyle().Height(height).Render(styles.DimStyle.Render("  " + msg))
	}

	end := min(m.Offset+height, len(m.Results))
	rows := make([]string, 0, height)
	for i := m.Offset; i < end; i++ {
		rows = append(rows, m.renderRow(m.Results[i], i == m.Cursor))
	}
	for len(rows) < height {
		rows = append(rows, "")
	}
	return strings.Join(rows, "\n")
}

// renderRow renders one item: watch status, highlighted title, details
func (m Model) renderRow(r service.FilterResult, selected bool) string {
	item := r.Item
	p, saved := m.PlaybackSvc.Progress(item.ID)
	watched := saved && p.Watched
	inProgress := saved && p.ShouldResume()

	details := item.GetDescription()
	if item.Kind == domain.ItemKindShort {
		details = "short · " + details
	}
	if m.Session.ItemID == item.ID {
		details = "now playing · " + details
	}

	titleWidth := max(m.Width-lipgloss.Width(details)-8, 10)
	title := styles.Truncate(item.Title, titleWidth)

	parts := []styles.RowPart{{Text: statusText(watched, inProgress) + " "}}
	parts = append(parts, highlightParts(title, r.MatchedIndexes)...)

	pad := max(m.Width-lipgloss.Width(title)-lipgloss.Width(details)-6, 1)
	dim := styles.DimGray
	parts = append(parts, styles.RowPart{Text: strings.Repeat(" ", pad) + details, Foreground: &dim})

	return styles.RenderListRow(parts, selected, m.Width)
}

func statusText(watched, inProgress bool) string {
	switch {
	case watched:
		return styles.PlayedChar
	case inProgress:
		return styles.InProgressChar
	default:
		return styles.UnplayedChar
	}
}

// highlightParts splits title into plain and matched runs
func highlightParts(title string, matched []int) []styles.RowPart {
	if len(matched) == 0 {
		return []styles.RowPart{{Text: title}}
	}

	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	accent := styles.ReelAmber
	var parts []styles.RowPart
	var run strings.Builder
	runHit := false

	flush := func() {
		if run.Len() == 0 {
			return
		}
		part := styles.RowPart{Text: run.String()}
		if runHit {
			part.Foreground = &accent
			part.Bold = true
		}
		parts = append(parts, part)
		run.Reset()
	}

	for i, r := range title {
		if hit[i] != runHit {
			flush()
			runHit = hit[i]
		}
		run.WriteRune(r)
	}
	flush()
	return parts
}

func (m Model) renderFilterLine() string {
	return styles.FilterPromptStyle.Render(" / ") + m.filter.View()
}

// renderPlayer renders the full-screen player
func (m Model) renderPlayer(height int) string {
	item := m.sessionItem()
	width := min(max(m.Width-8, 20), 80)

	lines := []string{
		styles.TitleStyle.Render(styles.Truncate(item.Title, width)),
	}
	if item.Channel != "" {
		lines = append(lines, styles.SubtitleStyle.Render(item.Channel))
	}
	lines = append(lines, "")

	if m.Session.State == service.StateLoading {
		spinner := styles.SpinnerFrames[m.SpinnerFrame%len(styles.SpinnerFrames)]
		lines = append(lines, styles.AccentStyle.Render(spinner+" Starting player..."))
	} else {
		lines = append(lines,
			playIndicator(m.Session.Playing),
			"",
			styles.RenderProgressBar(fraction(m.Session), width),
			styles.DimStyle.Render(timeline(m.Session)),
		)
	}

	lines = append(lines, "", styles.HelpDescStyle.Render("space play/pause · ←/→ seek · m minimize · x close"))

	panel := styles.PlayerStyle.Width(width + 6).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.Width, height, lipgloss.Center, lipgloss.Center, panel)
}

// renderMiniPlayer renders the overlay shown while the player is minimized
func (m Model) renderMiniPlayer() string {
	item := m.sessionItem()
	right := timeline(m.Session) + "  " + styles.HelpDescStyle.Render("r restore · x close")
	titleWidth := max(m.Width-lipgloss.Width(right)-12, 10)

	line := playIndicatorShort(m.Session.Playing) + " " +
		styles.TitleStyle.Render(styles.Truncate(item.Title, titleWidth))
	pad := max(m.Width-4-lipgloss.Width(line)-lipgloss.Width(right), 1)

	return styles.MiniPlayerStyle.Width(m.Width - 2).Render(line + strings.Repeat(" ", pad) + right)
}

func playIndicator(playing bool) string {
	if playing {
		return styles.SuccessStyle.Render("▶ Playing")
	}
	return styles.DimStyle.Render("⏸ Paused")
}

func playIndicatorShort(playing bool) string {
	if playing {
		return styles.SuccessStyle.Render("▶")
	}
	return styles.DimStyle.Render("⏸")
}

func fraction(s service.Snapshot) float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Position) / float64(s.Duration)
}

func timeline(s service.Snapshot) string {
	if s.Duration <= 0 {
		return domain.FormatDuration(s.Position)
	}
	return fmt.Sprintf("%s / %s", domain.FormatDuration(s.Position), domain.FormatDuration(s.Duration))
}

// renderFooter renders a single-line minimal footer
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.AccentStyle.Render(m.StatusMsg)
	case m.Session.State == service.StateClosing:
		spinner := styles.SpinnerFrames[m.SpinnerFrame%len(styles.SpinnerFrames)]
		left = styles.DimStyle.Render(spinner + " Closing player...")
	}

	right := styles.HelpDescStyle.Render(fmt.Sprintf("%d items · ? help · q quit", len(m.Results)))

	pad := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return " " + left + strings.Repeat(" ", pad) + right + " "
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
BROWSE                          PLAYER
  j/k        Up/down               Space  Play/pause
  g/G        Top/bottom            ←/→    Seek
  Enter      Play/resume           m/Esc  Minimize
  /          Filter                r      Restore
  w          Mark watched          x      Close player
  u          Mark unwatched

  q          Quit                  ?      This help

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.DimStyle.Render(help))
}
