package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <ID>...",
	Short: "Write library tracks out as audio files",
	Long:  `Write the stored audio of each track to "<title> <id>.mp3" in the output directory (default: the export_dir setting).`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings := initializeGlobalState()
		outDir, _ := cmd.Flags().GetString("output")

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
			path, err := backend.Service.Export(id, outDir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error exporting %d: %v\n", id, err)
				failed++
				continue
			}
			fmt.Println(path)
		}
		backend.Close()
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("output", "o", "", "Output directory")
}
