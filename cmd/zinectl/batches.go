package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/zine-ledger/api"
	"github.com/warp/zine-ledger/ledger"
)

var flagBatchesZine string

func init() {
	rootCmd.AddCommand(batchesCmd)
	batchesCmd.Flags().StringVar(&flagBatchesZine, "zine", "", "List one zine's batches instead of the user's")
}

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List batches, newest drop-off first",
	Args:  cobra.NoArgs,
	RunE:  runBatches,
}

func runBatches(cmd *cobra.Command, args []string) error {
	var (
		batches []ledger.Batch
		err     error
	)
	if flagBatchesZine != "" {
		batches, err = current.ledger.ListBatchesByZine(cmd.Context(), ledger.ZineID(flagBatchesZine))
	} else {
		owner, uerr := requireUser()
		if uerr != nil {
			return uerr
		}
		batches, err = current.ledger.ListBatchesByOwner(cmd.Context(), owner)
	}
	if err != nil {
		return err
	}

	dtos := api.ToBatchDTOs(batches)
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), dtos)
	}
	if len(dtos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No batches.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tZINE\tSTORE\tPLACED\tCOPIES\tSOLD\tMODE\tSTATUS\tEARNINGS")
	for _, b := range dtos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			b.ID, b.ZineID, b.StoreID, b.DatePlaced, b.CopiesPlaced,
			intOrDash(b.CopiesSold), b.PaymentMode, b.Status, strOrDash(b.Earnings))
	}
	return tw.Flush()
}

func intOrDash(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprint(*p)
}

func strOrDash(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

// ─── checkins ────────────────────────────────────────────────────────────────

var flagCheckinsAsOf string

func init() {
	rootCmd.AddCommand(checkinsCmd)
	checkinsCmd.Flags().StringVar(&flagCheckinsAsOf, "as-of", "today", "Due date cutoff (YYYY-MM-DD, today, today+N)")
}

var checkinsCmd = &cobra.Command{
	Use:   "checkins",
	Short: "List active batches due a store visit",
	Args:  cobra.NoArgs,
	RunE:  runCheckins,
}

func runCheckins(cmd *cobra.Command, args []string) error {
	owner, err := requireUser()
	if err != nil {
		return err
	}
	asOf, err := current.fixtures.ParseDate(flagCheckinsAsOf)
	if err != nil {
		return fmt.Errorf("--as-of: %w", err)
	}
	due, err := current.ledger.DueCheckins(cmd.Context(), owner, asOf)
	if err != nil {
		return err
	}

	dtos := api.ToBatchDTOs(due)
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), dtos)
	}
	if len(dtos) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing due by %s.\n", asOf)
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DUE\tID\tZINE\tSTORE\tCOPIES\tSOLD\tNOTES")
	for _, b := range dtos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			b.NextCheckin, b.ID, b.ZineID, b.StoreID, b.CopiesPlaced, intOrDash(b.CopiesSold), b.Notes)
	}
	return tw.Flush()
}
