package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"ecourts-casestatus/internal/ecourts"
	"ecourts-casestatus/internal/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var baseUrl *string

func init() {
	baseUrl = rootCmd.PersistentFlags().String("base-url", ecourts.DEFAULT_BASE_URL, "The eCourts services site.")
	rootCmd.AddCommand(statesCmd)
	rootCmd.AddCommand(matchCmd)
}

func newClient() (*ecourts.Client, error) {
	config := ecourts.DefaultConfig()
	config.BaseUrl = *baseUrl
	return ecourts.NewClient(config, telemetry.SlogAPI{})
}

func fetchStates(ctx context.Context) ([]ecourts.Option, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second*30)
	defer cancel()
	states, _ := client.States(ctx)
	return states, nil
}

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "Prints the states known to the court system.",
	RunE: func(cmd *cobra.Command, args []string) error {
		states, err := fetchStates(cmd.Context())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Code", "State"})
		for _, s := range states {
			t.AppendRow(table.Row{s.Value, s.Text})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <state name or code>",
	Short: "Finds the state option closest to the given name.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		states, err := fetchStates(cmd.Context())
		if err != nil {
			return err
		}
		option, ok := ecourts.MatchOption(states, args[0])
		if !ok {
			return fmt.Errorf("no state matches %q", args[0])
		}
		fmt.Printf("%s\t%s\n", option.Value, option.Text)
		return nil
	},
}
