package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"ecourts-casestatus/internal/casestatus"
	"ecourts-casestatus/internal/chrono"

	"github.com/spf13/cobra"
)

type reportFlags struct {
	listing      *string
	detail       *string
	caseNumber   *string
	year         *string
	state        *string
	district     *string
	courtComplex *string
	caseType     *string
	out          *string
}

var reportArgs reportFlags

func init() {
	flags := reportCmd.Flags()
	reportArgs = reportFlags{
		listing:      flags.String("listing", "", "Saved case listing fragment."),
		detail:       flags.String("detail", "", "Saved case history page (optional)."),
		caseNumber:   flags.String("case-no", "", "Case number that was searched."),
		year:         flags.String("year", "", "Registration year that was searched."),
		state:        flags.String("state", "", "State label."),
		district:     flags.String("district", "", "District label."),
		courtComplex: flags.String("court-complex", "", "Court complex label."),
		caseType:     flags.String("case-type", "", "Case type label."),
		out:          flags.String("out", ".", "Directory the report is written to."),
	}
	_ = reportCmd.MarkFlagRequired("listing")
	rootCmd.AddCommand(reportCmd)
}

// resultFromFiles builds the result a live search would have produced for the saved pages.
func resultFromFiles(listingPath, detailPath string) (casestatus.MergedCaseResult, error) {
	rawListing, err := readFile(listingPath)
	if err != nil {
		return casestatus.MergedCaseResult{}, err
	}
	listing := casestatus.ParseListing(rawListing)
	if listing == nil {
		return casestatus.MergedCaseResult{}, fmt.Errorf("%s does not contain a case listing", listingPath)
	}

	result := casestatus.MergedCaseResult{
		Outcome:        casestatus.OutcomeListing,
		Listing:        listing,
		Reference:      casestatus.ExtractReference(rawListing),
		RawListingHtml: rawListing,
	}
	if detailPath == "" {
		return result, nil
	}

	rawDetail, err := readFile(detailPath)
	if err != nil {
		return casestatus.MergedCaseResult{}, err
	}
	detail := casestatus.ParseDetail(rawDetail)
	result.Outcome = casestatus.OutcomeListingWithDetail
	result.Detail = &detail
	return result, nil
}

var reportCmd = &cobra.Command{
	Use:   "report --listing <listing.html> [--detail <detail.html>] [--case-no <n>] [--year <yyyy>]",
	Short: "Builds the exported json report from saved pages.",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := resultFromFiles(*reportArgs.listing, *reportArgs.detail)
		if err != nil {
			return err
		}

		criteria := casestatus.SearchCriteria{
			CaseNumber:        *reportArgs.caseNumber,
			RegistrationYear:  *reportArgs.year,
			StateLabel:        *reportArgs.state,
			DistrictLabel:     *reportArgs.district,
			CourtComplexLabel: *reportArgs.courtComplex,
			CaseTypeLabel:     *reportArgs.caseType,
		}
		payload := casestatus.NewAssembler(chrono.NewStandardTime()).Assemble(result, criteria)
		body, err := payload.Marshal()
		if err != nil {
			return err
		}

		path := filepath.Join(*reportArgs.out, casestatus.ReportFilename(criteria))
		err = os.WriteFile(path, body, 0644)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}
