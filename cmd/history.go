package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"taquilla-cli/model"
	"taquilla-cli/session"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lista tus compras",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		user, ok := a.sessions.CurrentUser()
		if !ok {
			return session.ErrNotAuthenticated
		}
		transactions, err := a.client.GetTransactionsByUser(cmd.Context(), user.ID)
		if err != nil {
			return fmt.Errorf("no se pudo cargar el historial: %w", err)
		}
		if len(transactions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Todavía no tienes compras.")
			return nil
		}
		renderHistory(cmd.OutOrStdout(), transactions)
		return nil
	},
}

func renderHistory(w io.Writer, transactions []model.TransactionInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Transacción", "Evento", "Fecha", "Pago", "Estado", "Total"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 28},
		{Number: 6, Align: text.AlignRight},
	})
	for _, tx := range transactions {
		t.AppendRow(table.Row{tx.TransactionID(), tx.Event, tx.Date, tx.PaymentMethod, tx.Status, "$" + tx.Total.StringFixed(2)})
	}
	t.Render()
}
