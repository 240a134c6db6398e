package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/cartscout/backend/config"
	"github.com/cartscout/backend/internal/domain"
)

var (
	shopItems    string
	shopRestrict []string
	shopStrategy string
)

func init() {
	shopCmd.Flags().StringVar(&shopItems, "items", "", "comma- or newline-separated shopping list, e.g. \"milk, bread, eggs\"")
	shopCmd.Flags().StringSliceVar(&shopRestrict, "restrict", nil, "dietary restriction tags, e.g. gluten-free,vegan")
	shopCmd.Flags().StringVar(&shopStrategy, "strategy", "", "ranking strategy override: cheapest, weighted or delegated")
	shopCmd.MarkFlagRequired("items")
	rootCmd.AddCommand(shopCmd)
}

var shopCmd = &cobra.Command{
	Use:   "shop --items \"milk, bread\" [--restrict gluten-free]",
	Short: "Prices a shopping list across all configured stores and picks the best one.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		var strategy domain.Strategy
		if shopStrategy != "" {
			strategy, err = domain.ParseStrategy(shopStrategy)
			if err != nil {
				return err
			}
		}

		shopping, err := buildShoppingService(cfg)
		if err != nil {
			return err
		}

		list := domain.ShoppingList{
			Items:       splitItems(shopItems),
			Constraints: domain.NewTagSet(shopRestrict...),
		}

		summary, err := shopping.ProcessList(cmd.Context(), list, strategy)
		if err != nil {
			return err
		}

		renderSummary(summary)
		return nil
	},
}

// splitItems breaks the --items flag on commas, semicolons and newlines.
func splitItems(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}

func renderSummary(summary *domain.ListSummary) {
	if len(summary.Constraints) > 0 {
		tags := make([]string, len(summary.Constraints))
		for i, t := range summary.Constraints {
			tags[i] = string(t)
		}
		fmt.Printf("Dietary restrictions: %s\n\n", strings.Join(tags, ", "))
	}

	picks := table.NewWriter()
	picks.SetOutputMirror(os.Stdout)
	picks.AppendHeader(table.Row{"Item", "Store", "Product", "Price", "Why"})

	for _, item := range summary.Items {
		if !item.Resolved() {
			picks.AppendRow(table.Row{item.Item, "-", "-", "-", item.Reason})
			continue
		}
		rec := item.Recommendation
		picks.AppendRow(table.Row{
			item.Item,
			rec.Candidate.Store,
			rec.Candidate.ProductName,
			fmt.Sprintf("$%.2f", *rec.Candidate.Price),
			rec.Rationale,
		})
	}

	picks.SetStyle(table.StyleRounded)
	picks.Render()

	if len(summary.StoreTotals) > 0 {
		fmt.Println()
		totals := table.NewWriter()
		totals.SetOutputMirror(os.Stdout)
		totals.AppendHeader(table.Row{"Store", "Items Won", "Total"})
		for _, st := range summary.StoreTotals {
			totals.AppendRow(table.Row{st.Store, len(st.Items), fmt.Sprintf("$%.2f", st.Total)})
		}
		totals.SetStyle(table.StyleRounded)
		totals.Render()
	}

	fmt.Println()
	fmt.Printf("Resolved %d of %d item(s), estimated total $%.2f\n",
		summary.Resolved, summary.Resolved+summary.Unresolved, summary.TotalCost)
	if summary.BestStore != "" {
		fmt.Printf("Best store: %s\n", summary.BestStore)
	} else {
		fmt.Println("No suitable products found for any item.")
	}
}
