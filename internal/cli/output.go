package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/user/mds-pull/internal/provider"
)

func PrintJSON(w io.Writer, data interface{}) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data to JSON: %w", err)
	}
	fmt.Fprintln(w, string(b))
	return nil
}

func PrintProviders(w io.Writer, providers []provider.Provider) error {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.ASCIIBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			return cellStyle
		}).
		Headers("NAME", "ID", "MDS API URL")

	for _, p := range providers {
		t.Row(p.Name, p.ID.String(), orNA(p.APIURL))
	}

	fmt.Fprintln(w, "MDS Providers")
	fmt.Fprintln(w, t)
	fmt.Fprintf(w, "%d providers\n", len(providers))

	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
