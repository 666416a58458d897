package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/taskpilot/internal/tools"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search the web",
	Long: `Run a web search through the Serper API.

Handy for looking something up while planning tasks. Requires
SERPER_API_KEY in the environment.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Search.APIKey == "" {
			return fmt.Errorf("SERPER_API_KEY is not set")
		}

		client := tools.NewSearchClient(cfg.Search)
		results, err := client.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No results.")
			return nil
		}

		for i, r := range results {
			fmt.Printf("%d. %s\n   %s\n   %s\n", i+1, r.Title, r.Link, r.Snippet)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
