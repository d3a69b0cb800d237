package cmd

import (
	"fmt"
	"io"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"taquilla-cli/model"
	"taquilla-cli/seating"
	"taquilla-cli/store"
)

var placesCmd = &cobra.Command{
	Use:   "places <teatro|cine|museo>",
	Short: "Lista teatros, cines o museos",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		venue, err := seating.ParseVenueType(args[0])
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		places, err := a.client.GetPlaces(cmd.Context(), string(venue))
		if err != nil {
			return fmt.Errorf("no se pudieron cargar los lugares: %w", err)
		}
		hidden, _ := store.LoadHiddenPlaces(string(venue))
		renderPlaces(cmd.OutOrStdout(), places, hidden, all)
		return nil
	},
}

var sectionsCmd = &cobra.Command{
	Use:   "sections <teatro|cine> <evento>",
	Short: "Muestra las secciones y la ocupación de una función",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		venue, err := seating.ParseVenueType(args[0])
		if err != nil {
			return err
		}
		if !seating.VenueFor(venue).SeatSelection {
			return seating.ErrNoSeatSelection
		}
		room, _ := cmd.Flags().GetString("room")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		registry := seating.NewRegistry(a.client, a.log)
		sections := registry.LoadSections(cmd.Context(), seating.Request{Venue: venue, EventID: args[1], RoomType: room})
		if substituted := renderSections(cmd.OutOrStdout(), sections); substituted > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "aviso: %d sección(es) sin datos del servidor; se muestran dimensiones de referencia sin ocupación.\n", substituted)
		}
		return nil
	},
}

func renderPlaces(w io.Writer, places []model.Place, hidden map[string]bool, all bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Lugar", "Ubicación", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 32},
	})
	for _, place := range places {
		mark := ""
		if hidden[place.ID] {
			if !all {
				continue
			}
			mark = "oculto"
		}
		t.AppendRow(table.Row{place.ID, place.Name, place.Location, mark})
	}
	t.Render()
}

// renderSections prints one row per section and returns how many rows are
// built-in substitutes.
func renderSections(w io.Writer, sections map[string]*seating.Section) int {
	keys := make([]string, 0, len(sections))
	for key := range sections {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Sección", "Precio", "Filas", "Columnas", "Libres", "Ocupados", "Origen"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Style().Options.SeparateRows = true

	free, total, substituted := 0, 0, 0
	for _, key := range keys {
		s := sections[key]
		free += s.Available()
		total += s.Capacity()
		origin := "servidor"
		if s.Fallback {
			origin = "respaldo"
			substituted++
		}
		t.AppendRow(table.Row{s.Name, "$" + s.UnitPrice.StringFixed(2), s.Rows, s.Cols, s.Available(), s.Capacity() - s.Available(), origin})
	}
	t.AppendFooter(table.Row{"Total", "", "", "", free, total - free, ""})
	t.Render()
	return substituted
}
