package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyantunes/nyantunes/internal/console"
	"github.com/nyantunes/nyantunes/internal/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the download server",
	Long:  `Run a download server that other nyantunes commands send their downloads to.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := initializeGlobalState()

		isMaster, err := AcquireLock()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error acquiring lock: %v\n", err)
			os.Exit(1)
		}
		if !isMaster {
			fmt.Fprintln(os.Stderr, "Error: a nyantunes server is already running.")
			os.Exit(1)
		}
		defer func() {
			if err := ReleaseLock(); err != nil {
				utils.Debug("Error releasing lock: %v", err)
			}
		}()

		portFlag, _ := cmd.Flags().GetInt("port")
		quiet, _ := cmd.Flags().GetBool("quiet")

		var port int
		var listener net.Listener
		if portFlag > 0 {
			// Strict port mode
			port = portFlag
			listener, err = net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: could not bind to port %d: %v\n", port, err)
				os.Exit(1)
			}
		} else {
			port, listener = findAvailablePort(defaultPort)
			if listener == nil {
				fmt.Fprintln(os.Stderr, "Error: could not find available port")
				os.Exit(1)
			}
		}

		backend, err := openLocalBackend(settings)
		if err != nil {
			_ = listener.Close()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if !quiet {
			rep := console.NewReporter(os.Stdout)
			defer backend.Service.Manager.Register(rep.Observer())()
		}

		srv := &http.Server{
			Handler:           newAPIServer(backend.Service, port, ensureAuthToken()),
			ReadHeaderTimeout: 10 * time.Second,
		}
		saveActivePort(port)
		go startHTTPServer(listener, srv)
		fmt.Printf("nyantunes %s serving on http://127.0.0.1:%d (library: %s)\n", Version, port, backend.Store.Path())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		fmt.Println("Shutting down...")
		removeActivePort()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Close the service first so open event streams end
		backend.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.Debug("HTTP shutdown error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, fmt.Sprintf("Port to listen on (default: %d or first available)", defaultPort))
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not log download events")
}
