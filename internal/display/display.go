package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F59E0B")).
			MarginTop(1)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	signalStyles = map[string]lipgloss.Style{
		"BUY":  completedStyle,
		"SELL": errorStyle,
		"HOLD": warningStyle.Bold(true),
	}
)

// Printer renders user-facing CLI output. Logs go to zap, not here.
type Printer struct {
	w  io.Writer
	md *glamour.TermRenderer
}

// New returns a printer writing to w. Markdown is wrapped at width.
func New(w io.Writer, width int) *Printer {
	if width <= 0 {
		width = 100
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		md = nil
	}
	return &Printer{w: w, md: md}
}

func (p *Printer) Banner() {
	fmt.Fprintln(p.w, titleStyle.Render("TradeCortex · multi-agent trading analysis"))
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.w, infoStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, completedStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.w, warningStyle.Render("! "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Error(err error) {
	fmt.Fprintln(p.w, errorStyle.Render("✗ "+err.Error()))
}

// Markdown renders md through glamour, falling back to the raw text.
func (p *Printer) Markdown(md string) {
	if p.md != nil {
		if out, err := p.md.Render(md); err == nil {
			fmt.Fprint(p.w, out)
			return
		}
	}
	fmt.Fprintln(p.w, md)
}

// Table prints rows under headers with a rounded border.
func (p *Printer) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(pendingStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(p.w, t.Render())
}

// NodeProgress prints one agent start or finish line.
func (p *Printer) NodeProgress(node string, done bool, err error, elapsed time.Duration) {
	name := consts.DisplayName(node)
	switch {
	case err != nil:
		fmt.Fprintln(p.w, errorStyle.Render(fmt.Sprintf("  ✗ %-20s %v", name, err)))
	case done:
		fmt.Fprintln(p.w, completedStyle.Render(fmt.Sprintf("  ✓ %-20s %s", name, elapsed.Round(time.Millisecond))))
	default:
		fmt.Fprintln(p.w, pendingStyle.Render(fmt.Sprintf("  … %s", name)))
	}
}

// Signal renders a BUY/SELL/HOLD badge.
func Signal(decision string) string {
	decision = strings.ToUpper(strings.TrimSpace(decision))
	if s, ok := signalStyles[decision]; ok {
		return s.Render(decision)
	}
	return decision
}

// Results prints the reports, the debate outcome and the final decision of a run.
func (p *Printer) Results(state *models.TradingState, decision string) {
	fmt.Fprintln(p.w, headerStyle.Render(fmt.Sprintf("%s  %s  %s", state.CompanyOfInterest, state.TradeDate, Signal(decision))))
	p.Markdown(ResultsMarkdown(state))
}

// ResultsMarkdown lays out a finished state as one markdown document.
func ResultsMarkdown(state *models.TradingState) string {
	var b strings.Builder
	section := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", title, strings.TrimSpace(body))
	}

	section("Market Analysis", state.MarketReport)
	section("Social Sentiment", state.SentimentReport)
	section("News Analysis", state.NewsReport)
	section("Fundamentals", state.FundamentalsReport)
	if d := state.InvestmentDebateState; d != nil {
		section("Bull Researcher", d.BullHistory)
		section("Bear Researcher", d.BearHistory)
		section("Research Manager", d.JudgeDecision)
	}
	section("Investment Plan", state.InvestmentPlan)
	section("Trader Plan", state.TraderInvestmentPlan)
	if r := state.RiskDebateState; r != nil {
		section("Risk Debate", r.History)
	}
	section("Final Trade Decision", state.FinalTradeDecision)
	return b.String()
}

// Section prints a styled heading.
func (p *Printer) Section(title string) {
	fmt.Fprintln(p.w, sectionStyle.Render(title))
}
