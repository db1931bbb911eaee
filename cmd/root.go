package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyantunes/nyantunes/internal/config"
	"github.com/nyantunes/nyantunes/internal/core"
	"github.com/nyantunes/nyantunes/internal/engine/state"
	"github.com/nyantunes/nyantunes/internal/engine/transfer"
	"github.com/nyantunes/nyantunes/internal/engine/types"
	"github.com/nyantunes/nyantunes/internal/utils"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "nyantunes",
	Short:   "Download audio tracks into a local library",
	Long:    `nyantunes fetches remote audio tracks concurrently and keeps them in a local library you can list, export and prune.`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("nyantunes version {{.Version}}\n")
}

// initializeGlobalState sets up directories and logging and returns the
// loaded settings. Unreadable settings fall back to defaults.
func initializeGlobalState() *config.Settings {
	if err := config.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directories: %v\n", err)
		os.Exit(1)
	}

	utils.ConfigureDebug(config.GetLogsDir())

	settings, err := config.LoadSettings()
	if err != nil {
		utils.Debug("Error loading settings, using defaults: %v", err)
		settings = config.DefaultSettings()
	}
	utils.CleanupLogs(settings.General.LogRetentionCount)
	return settings
}

// localBackend is an in-process service together with what it owns.
type localBackend struct {
	Service  *core.LocalDownloadService
	Transfer *transfer.HTTPTransfer
	Store    *state.Store
}

// openLocalBackend opens the library and wires an HTTP transfer into a
// local service.
func openLocalBackend(settings *config.Settings) (*localBackend, error) {
	store, err := state.Open(settings.LibraryPath())
	if err != nil {
		return nil, err
	}
	tr := transfer.NewHTTPTransfer(types.ConvertRuntimeConfig(settings.ToRuntimeConfig()))
	return &localBackend{
		Service:  core.NewLocalDownloadService(tr, store, settings),
		Transfer: tr,
		Store:    store,
	}, nil
}

// Close cancels live downloads, waits for their goroutines and closes the
// library.
func (b *localBackend) Close() {
	if err := b.Service.Shutdown(); err != nil {
		utils.Debug("Error shutting down service: %v", err)
	}
	b.Transfer.Wait()
	if err := b.Store.Close(); err != nil {
		utils.Debug("Error closing library: %v", err)
	}
}

// openStore opens the library alone, for commands that never download.
func openStore(settings *config.Settings) *state.Store {
	store, err := state.Open(settings.LibraryPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening library: %v\n", err)
		os.Exit(1)
	}
	return store
}
