package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/zine-ledger/api"
	"github.com/warp/zine-ledger/ledger"
)

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.AddCommand(statsUserCmd)
	statsCmd.AddCommand(statsZineCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate statistics",
}

// ─── stats user ─────────────────────────────────────────────────────────────

var statsUserCmd = &cobra.Command{
	Use:   "user",
	Short: "Totals across every zine the user owns",
	Args:  cobra.NoArgs,
	RunE:  runStatsUser,
}

func runStatsUser(cmd *cobra.Command, args []string) error {
	owner, err := requireUser()
	if err != nil {
		return err
	}
	stats, err := current.ledger.UserStats(cmd.Context(), owner)
	if err != nil {
		return err
	}
	dto := api.ToUserStatsDTO(stats)
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), dto)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "User:\t%s\n", dto.Owner)
	fmt.Fprintf(tw, "Zines:\t%d\n", dto.TotalZines)
	writeSummary(tw, dto.SummaryDTO)
	return tw.Flush()
}

// ─── stats zine ─────────────────────────────────────────────────────────────

var statsZineCmd = &cobra.Command{
	Use:   "zine ZINE_ID",
	Short: "Aggregates for one zine",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatsZine,
}

func runStatsZine(cmd *cobra.Command, args []string) error {
	stats, err := current.ledger.ZineStats(cmd.Context(), ledger.ZineID(args[0]))
	if err != nil {
		return err
	}
	dto := api.ToZineStatsDTO(stats)
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), dto)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Zine:\t%s\n", dto.ZineID)
	fmt.Fprintf(tw, "Stock:\t%s\n", dto.StockStatus)
	writeSummary(tw, dto.SummaryDTO)
	fmt.Fprintf(tw, "Stores:\t%s\n", strings.Join(dto.Stores, ", "))
	fmt.Fprintf(tw, "Last update:\t%s\n", dto.LastUpdate)
	return tw.Flush()
}

func writeSummary(tw *tabwriter.Writer, s api.SummaryDTO) {
	sellThrough := "n/a"
	if s.SellThrough != nil {
		sellThrough = *s.SellThrough + "%"
	}
	fmt.Fprintf(tw, "Active batches:\t%d\n", s.ActiveBatches)
	fmt.Fprintf(tw, "Copies out:\t%d\n", s.CopiesOut)
	fmt.Fprintf(tw, "Copies sold:\t%d\n", s.CopiesSold)
	fmt.Fprintf(tw, "Sell-through:\t%s\n", sellThrough)
	fmt.Fprintf(tw, "Earnings:\t%s\n", s.Earnings)
	fmt.Fprintf(tw, "Revenue:\t%s\n", s.Revenue)
}
