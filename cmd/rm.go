package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nyantunes/nyantunes/internal/core"
	"github.com/nyantunes/nyantunes/internal/engine/types"
)

var rmCmd = &cobra.Command{
	Use:     "rm <ID>...",
	Aliases: []string{"delete"},
	Short:   "Remove tracks from the library",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings := initializeGlobalState()

		ids, err := parseIDs(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		backend, err := openLocalBackend(settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		failed := 0
		for _, id := range ids {
			if err := deleteRecord(backend.Service, id); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing %d: %v\n", id, err)
				failed++
				continue
			}
			fmt.Printf("Removed %d\n", id)
		}
		backend.Close()
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func deleteRecord(svc *core.LocalDownloadService, id int64) error {
	err := svc.Delete(id)
	if errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("not in library")
	}
	return err
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid track ID %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <url>...",
	Short: "Cancel live downloads on the running server",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		remote := resolveRemoteService()
		if remote == nil {
			fmt.Fprintln(os.Stderr, "Error: no running server found. Start one with 'nyantunes serve'.")
			os.Exit(1)
		}
		defer func() { _ = remote.Shutdown() }()

		if failed := cancelAll(remote, args); failed > 0 {
			_ = remote.Shutdown()
			os.Exit(1)
		}
	},
}

func cancelAll(svc core.DownloadService, urls []string) int {
	failed := 0
	for _, u := range urls {
		if err := svc.Cancel(u); err != nil {
			fmt.Fprintf(os.Stderr, "Error cancelling %s: %v\n", u, err)
			failed++
			continue
		}
		fmt.Printf("Cancelled %s\n", u)
	}
	return failed
}

func init() {
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(cancelCmd)
}
