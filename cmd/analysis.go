package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/orderlens-cli/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	citiesFormat string

	catCity   string
	catTop    int
	catFormat string
	catOutput string

	corrVars   []string
	corrCity   string
	corrFormat string
	corrOutput string

	expTop    int
	expFormat string
	expOutput string

	rfmTop    int
	rfmFormat string
	rfmOutput string
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List customer cities with their order counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := checkFormat(citiesFormat)
		if err != nil {
			return err
		}
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		rows := analysis.OrdersByCity(t)
		return emit(cmd, format, "", rows, func() string {
			var b strings.Builder
			for _, r := range rows {
				fmt.Fprintf(&b, "%s\t%d\n", r.City, r.Orders)
			}
			return b.String()
		})
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Rank product categories by purchase count for one city",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(catCity) == "" {
			return fmt.Errorf("--city is required")
		}
		format, err := checkFormat(catFormat)
		if err != nil {
			return err
		}
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		counts := analysis.Top(analysis.CategoryCounts(t, catCity), topN(catTop))
		switch {
		case !t.HasCity(catCity):
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: no customers in city %q (names are case-sensitive, see 'orderlens cities')\n", catCity)
		case len(counts) == 0:
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: no categorized purchases for city %q\n", catCity)
		}
		return emit(cmd, format, catOutput, counts, func() string {
			return analysis.CategoriesMarkdown(catCity, counts)
		})
	},
}

var correlateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Pearson correlation matrix of numeric variables",
	Long: `Computes pairwise Pearson correlations. Variables may be given by column name
or label, e.g. --vars "Freight Value" --vars review_score. Without --vars the
config default_vars are used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := checkFormat(corrFormat)
		if err != nil {
			return err
		}
		vars := corrVars
		if len(vars) == 0 {
			vars = settings().DefaultVars
		}
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		if corrCity != "" {
			t = t.FilterCity(corrCity)
			debugf(cmd, "city %q: %d rows", corrCity, t.Len())
		}
		m, err := analysis.Correlate(t, vars)
		if err != nil {
			return err
		}
		return emit(cmd, format, corrOutput, m, m.Markdown)
	},
}

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Exploratory report over the merged dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := checkFormat(expFormat)
		if err != nil {
			return err
		}
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		rep, err := analysis.Explore(t, topN(expTop))
		if err != nil {
			return err
		}
		return emit(cmd, format, expOutput, rep, rep.Markdown)
	},
}

var rfmCmd = &cobra.Command{
	Use:   "rfm",
	Short: "Recency, frequency and monetary value per customer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := checkFormat(rfmFormat)
		if err != nil {
			return err
		}
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		rows, err := analysis.CustomerRFM(t)
		if err != nil {
			return err
		}
		rows = analysis.TopRFM(rows, topN(rfmTop))
		return emit(cmd, format, rfmOutput, rows, func() string { return analysis.RFMMarkdown(rows) })
	},
}

func init() {
	rootCmd.AddCommand(citiesCmd, categoriesCmd, correlateCmd, exploreCmd, rfmCmd)

	citiesCmd.Flags().StringVar(&citiesFormat, "format", "markdown", "output format: markdown|json")

	categoriesCmd.Flags().StringVarP(&catCity, "city", "c", "", "customer city (exact, case-sensitive)")
	categoriesCmd.Flags().IntVarP(&catTop, "top", "n", 0, "number of categories to show (default from config top_n)")
	categoriesCmd.Flags().StringVar(&catFormat, "format", "markdown", "output format: markdown|json")
	categoriesCmd.Flags().StringVarP(&catOutput, "output", "o", "", "optional path to write the result")

	correlateCmd.Flags().StringArrayVar(&corrVars, "vars", nil, "numeric variable (repeatable)")
	correlateCmd.Flags().StringVarP(&corrCity, "city", "c", "", "restrict to one customer city")
	correlateCmd.Flags().StringVar(&corrFormat, "format", "markdown", "output format: markdown|json")
	correlateCmd.Flags().StringVarP(&corrOutput, "output", "o", "", "optional path to write the result")

	exploreCmd.Flags().IntVarP(&expTop, "top", "n", 0, "cities listed per section (default from config top_n)")
	exploreCmd.Flags().StringVar(&expFormat, "format", "markdown", "output format: markdown|json")
	exploreCmd.Flags().StringVarP(&expOutput, "output", "o", "", "optional path to write the report")

	rfmCmd.Flags().IntVarP(&rfmTop, "top", "n", 0, "customers to show (default from config top_n)")
	rfmCmd.Flags().StringVar(&rfmFormat, "format", "markdown", "output format: markdown|json")
	rfmCmd.Flags().StringVarP(&rfmOutput, "output", "o", "", "optional path to write the result")
}
