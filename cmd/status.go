package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyantunes/nyantunes/internal/console"
	"github.com/nyantunes/nyantunes/internal/core"
)

var statusCmd = &cobra.Command{
	Use:   "status [url]...",
	Short: "Show whether tracks are downloaded, downloading or downloadable",
	Run: func(cmd *cobra.Command, args []string) {
		settings := initializeGlobalState()
		asJSON, _ := cmd.Flags().GetBool("json")

		tracks, err := collectTracks(cmd, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(tracks) == 0 {
			_ = cmd.Help()
			return
		}

		var svc core.DownloadService
		if remote := resolveRemoteService(); remote != nil {
			defer func() { _ = remote.Shutdown() }()
			svc = remote
		} else {
			backend, err := openLocalBackend(settings)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer backend.Close()
			svc = backend.Service
		}

		statuses, err := svc.Status(tracks)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		printListing(asJSON, statuses, func() string { return console.FormatStatus(statuses) })
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addTrackFlags(statusCmd)
	statusCmd.Flags().Bool("json", false, "Print JSON")
}
