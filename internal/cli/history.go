package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/dataflows"
	"github.com/dyike/TradeCortex/internal/display"
	"github.com/dyike/TradeCortex/internal/storage"
	"github.com/dyike/TradeCortex/models"
)

func newHistoryCmd(app *appContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"sessions"},
		Short:   "Browse recorded analysis sessions",
	}

	var (
		symbol string
		limit  int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storage.Shared(app.cfg)
			if err != nil {
				return err
			}
			sessions, err := store.ListSessions(cmd.Context(), dataflows.NormalizeSymbol(symbol), limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				app.out.Info("no sessions recorded yet")
				return nil
			}
			app.out.Table([]string{"ID", "Symbol", "Trade Date", "Status", "Decision", "Started"}, sessionRows(sessions))
			return nil
		},
	}
	listCmd.Flags().StringVarP(&symbol, "symbol", "s", "", "Only sessions for this symbol")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to list")

	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show every agent message of one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.Shared(app.cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			sess, err := store.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			msgs, err := store.ListMessages(ctx, sess.Id)
			if err != nil {
				return err
			}
			app.out.Markdown(SessionMarkdown(sess, msgs))
			return nil
		},
	}

	historyCmd.AddCommand(listCmd, showCmd)
	return historyCmd
}

func sessionRows(sessions []*models.SessionRecord) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		decision := s.Decision
		if decision != "" {
			decision = display.Signal(decision)
		}
		rows = append(rows, []string{
			s.Id, s.Symbol, s.TradeDate, s.Status, decision,
			s.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

// SessionMarkdown renders a session and its messages in recording order.
func SessionMarkdown(sess *models.SessionRecord, msgs []*models.MessageRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s · %s\n\n", sess.Symbol, sess.TradeDate)
	fmt.Fprintf(&b, "- **Status:** %s\n", sess.Status)
	if sess.Decision != "" {
		fmt.Fprintf(&b, "- **Decision:** %s\n", sess.Decision)
	}
	if sess.Error != "" {
		fmt.Fprintf(&b, "- **Error:** %s\n", sess.Error)
	}
	b.WriteString("\n")
	for _, m := range msgs {
		fmt.Fprintf(&b, "## %d. %s\n\n%s\n\n", m.Seq, consts.DisplayName(m.Agent), strings.TrimSpace(m.Content))
	}
	return b.String()
}
