package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyantunes/nyantunes/internal/console"
	"github.com/nyantunes/nyantunes/internal/engine/types"
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List the library or live downloads",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := initializeGlobalState()

		active, _ := cmd.Flags().GetBool("active")
		asJSON, _ := cmd.Flags().GetBool("json")

		if active {
			var tasks []types.TaskInfo
			if remote := resolveRemoteService(); remote != nil {
				defer func() { _ = remote.Shutdown() }()
				var err error
				tasks, err = remote.Active()
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
			}
			printListing(asJSON, tasks, func() string { return console.FormatActive(tasks) })
			return
		}

		store := openStore(settings)
		defer func() { _ = store.Close() }()
		files, err := store.ListRecords()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printListing(asJSON, files, func() string { return console.FormatLibrary(files) })
	},
}

func printListing(asJSON bool, v any, render func() string) {
	if !asJSON {
		fmt.Print(render())
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolP("active", "a", false, "Show live downloads on the running server")
	lsCmd.Flags().Bool("json", false, "Print JSON")
}
