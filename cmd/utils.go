package cmd

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nyantunes/nyantunes/internal/config"
	"github.com/nyantunes/nyantunes/internal/core"
	"github.com/nyantunes/nyantunes/internal/utils"
)

const defaultPort = 1700

func portPath() string {
	return filepath.Join(config.GetRuntimeDir(), "port")
}

// readActivePort reads the port from the port file
func readActivePort() int {
	data, err := os.ReadFile(portPath())
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return port
}

// saveActivePort writes the active port for CLI discovery
func saveActivePort(port int) {
	if err := os.WriteFile(portPath(), []byte(strconv.Itoa(port)), 0o644); err != nil {
		utils.Debug("Error writing port file: %v", err)
	}
	utils.Debug("HTTP server listening on port %d", port)
}

// removeActivePort cleans up the port file on exit
func removeActivePort() {
	if err := os.Remove(portPath()); err != nil && !os.IsNotExist(err) {
		utils.Debug("Error removing port file: %v", err)
	}
}

// findAvailablePort tries ports starting from 'start' until one is available
func findAvailablePort(start int) (int, net.Listener) {
	for port := start; port < start+100; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			return port, ln
		}
	}
	return 0, nil
}

// resolveRemoteService returns a client for the running server, or nil
// when none answers on the advertised port.
func resolveRemoteService() *core.RemoteDownloadService {
	port := readActivePort()
	if port <= 0 {
		return nil
	}
	token := readAuthToken()
	if token == "" {
		return nil
	}

	svc := core.NewRemoteDownloadService(fmt.Sprintf("http://127.0.0.1:%d", port), token)
	if err := svc.Health(); err != nil {
		utils.Debug("Stale port file (port %d): %v", port, err)
		_ = svc.Shutdown()
		return nil
	}
	return svc
}

// readURLsFromFile reads URLs from a file, one per line
func readURLsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	return urls, scanner.Err()
}
