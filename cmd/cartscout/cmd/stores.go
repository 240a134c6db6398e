package cmd

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/cartscout/backend/config"
	"github.com/cartscout/backend/internal/usecase"
)

func init() {
	rootCmd.AddCommand(storesCmd)
}

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "Lists the configured store sources.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Store", "Type", "Timeout"})

		for _, sc := range cfg.Stores {
			timeout := sc.Timeout
			if timeout <= 0 {
				timeout = usecase.DefaultSourceTimeout
			}
			t.AppendRow(table.Row{sc.Name, sc.Type, timeout.Round(time.Millisecond).String()})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
