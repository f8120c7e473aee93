package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"ecourts-casestatus/lib/telemetry"

	"github.com/spf13/cobra"
)

var verbose *bool

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
}

var rootCmd = &cobra.Command{
	Use:   "casestatus-cli",
	Short: "casestatus-cli parses saved eCourts pages and queries the live court system.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if *verbose {
			telemetry.InitSlog(true)
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func printJson(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
