package commands

import (
	"fmt"
	"os"

	"ecourts-casestatus/internal/casestatus"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var parseAsJson *bool

func init() {
	parseAsJson = parseCmd.Flags().Bool("json", false, "Print the parsed listing as json.")
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(detailCmd)
	rootCmd.AddCommand(extractCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <listing.html>",
	Short: "Parses a saved case listing fragment.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fragment, err := readFile(args[0])
		if err != nil {
			return err
		}
		listing := casestatus.ParseListing(fragment)
		if listing == nil {
			return fmt.Errorf("%s does not contain a case listing", args[0])
		}
		if *parseAsJson {
			return printJson(listing)
		}

		fmt.Printf(
			"%s: %d establishment(s), %d case(s)\n",
			listing.Summary.CourtComplex,
			listing.Summary.TotalEstablishments,
			listing.Summary.TotalCases,
		)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Sr", "Case", "Petitioner", "Respondent", "Court"})
		for _, row := range listing.Rows {
			t.AppendRow(table.Row{row.Serial, row.CaseId, row.Petitioner(), row.Respondent(), row.CourtName})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

var detailCmd = &cobra.Command{
	Use:   "detail <detail.html>",
	Short: "Parses a saved case history page and prints it as json.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fragment, err := readFile(args[0])
		if err != nil {
			return err
		}
		return printJson(casestatus.ParseDetail(fragment))
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <listing.html>",
	Short: "Prints the case reference of the first case in a saved listing.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fragment, err := readFile(args[0])
		if err != nil {
			return err
		}
		ref := casestatus.ExtractReference(fragment)
		if ref == nil {
			return fmt.Errorf("no case reference found in %s", args[0])
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Case Number", "CNR", "Court Code"})
		t.AppendRow(table.Row{ref.CaseNumber, ref.Cnr, ref.CourtCode})
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
