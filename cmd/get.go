package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nyantunes/nyantunes/internal/config"
	"github.com/nyantunes/nyantunes/internal/console"
	"github.com/nyantunes/nyantunes/internal/core"
	"github.com/nyantunes/nyantunes/internal/engine/types"
)

var getCmd = &cobra.Command{
	Use:     "get [url]...",
	Aliases: []string{"add"},
	Short:   "Download tracks into the library",
	Long: `Download one or more tracks into the library and wait for them to finish.

Tracks already in the library or already downloading are skipped unless --force is given.
When a server started with 'nyantunes serve' is running, downloads are sent to it.`,
	Run: func(cmd *cobra.Command, args []string) {
		settings := initializeGlobalState()

		tracks, err := collectTracks(cmd, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(tracks) == 0 {
			_ = cmd.Help()
			return
		}

		os.Exit(runGet(cmd, settings, tracks))
	},
}

func runGet(cmd *cobra.Command, settings *config.Settings, tracks []types.Track) int {
	localOnly, _ := cmd.Flags().GetBool("local")
	force, _ := cmd.Flags().GetBool("force")
	limit, _ := cmd.Flags().GetInt("concurrency")
	if limit <= 0 {
		limit = settings.Network.MaxConcurrentDownloads
	}

	var svc core.DownloadService
	if !localOnly {
		if remote := resolveRemoteService(); remote != nil {
			defer func() { _ = remote.Shutdown() }()
			fmt.Printf("Sending downloads to server at %s\n", remote.BaseURL)
			svc = remote
		}
	}
	if svc == nil {
		backend, err := openLocalBackend(settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer backend.Close()
		svc = backend.Service
	}

	requested := len(tracks)
	if force {
		tracks = uniqueByURL(tracks)
	} else {
		var err error
		tracks, err = svc.Pending(tracks)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking library: %v\n", err)
			return 1
		}
	}
	if skipped := requested - len(tracks); skipped > 0 {
		fmt.Printf("Skipping %d track(s) already in the library, downloading or repeated.\n", skipped)
	}
	if len(tracks) == 0 {
		fmt.Println("Nothing to download.")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := console.NewReporter(os.Stdout)
	if err := runBatch(ctx, svc, tracks, limit, rep); err != nil {
		fmt.Println(rep.Summary())
		fmt.Fprintf(os.Stderr, "Interrupted: %v\n", err)
		return 1
	}

	fmt.Println(rep.Summary())
	if rep.Failed() > 0 {
		return 1
	}
	return 0
}

func init() {
	rootCmd.AddCommand(getCmd)
	addTrackFlags(getCmd)
	getCmd.Flags().IntP("concurrency", "c", 0, "Maximum parallel downloads (default from settings)")
	getCmd.Flags().Bool("force", false, "Download even if the track is already in the library")
	getCmd.Flags().Bool("local", false, "Download in this process even if a server is running")
}
