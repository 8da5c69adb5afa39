package cmd

import (
	"fmt"

	"github.com/KaramelBytes/orderlens-cli/internal/merge"
	"github.com/KaramelBytes/orderlens-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	mergeSources string
	mergeOutput  string
	mergeReviews string
	mergeReport  bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Join the five source tables into one analysis dataset",
	Long: `Reads customers_dataset.csv, orders_dataset.csv, order_items_dataset.csv,
order_reviews_dataset.csv and products_dataset.csv from the sources directory and
inner-joins them on customer_id, order_id and product_id. Rows without a match in
every table are dropped. The output file is replaced on every run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		dir := mergeSources
		if dir == "" {
			dir = c.SourcesDir
		}
		dir, err := utils.ExpandHome(dir)
		if err != nil {
			return err
		}
		out := mergeOutput
		if out == "" {
			if out, err = dataPath(); err != nil {
				return err
			}
		}
		policyName := mergeReviews
		if policyName == "" {
			policyName = c.ReviewPolicy
		}
		policy, err := merge.ParseReviewPolicy(policyName)
		if err != nil {
			return err
		}
		delim, err := delimiter()
		if err != nil {
			return err
		}

		rep, err := merge.Run(dir, out, merge.Options{Delimiter: delim, Reviews: policy})
		if err != nil {
			return err
		}
		for _, s := range rep.Stages {
			debugf(cmd, "join %s on %s: %d x %d -> %d rows", s.Right, s.Key, s.LeftRows, s.RightRows, s.Rows)
		}
		for _, w := range rep.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", w)
		}
		if mergeReport {
			fmt.Fprint(cmd.OutOrStdout(), rep.Markdown())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Merged %d rows into %s\n", rep.Rows, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringVarP(&mergeSources, "sources", "s", "", "directory with the source CSV files (default from config sources_dir)")
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "merged dataset path (default from --data or config data_path)")
	mergeCmd.Flags().StringVar(&mergeReviews, "reviews", "", "orders with several reviews: all|first|mean (default from config review_policy)")
	mergeCmd.Flags().BoolVar(&mergeReport, "report", false, "print the source and join summary")
}
