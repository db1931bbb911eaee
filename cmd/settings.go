package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyantunes/nyantunes/internal/config"
	"github.com/nyantunes/nyantunes/internal/console"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := initializeGlobalState()
		values, err := settingValues(settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		meta := config.GetSettingsMetadata()
		for _, category := range config.CategoryOrder() {
			fmt.Println(console.HeaderStyle.Render(category))
			for _, m := range meta[category] {
				fmt.Printf("  %-26s %s\n", m.Key, formatSetting(m, values[m.Key]))
				fmt.Printf("  %-26s %s\n", "", console.ArtistStyle.Render(m.Description))
			}
		}
		fmt.Printf("\nFile: %s\n", config.GetSettingsPath())
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings := initializeGlobalState()
		m, _, ok := findSetting(args[0])
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown setting %q\n", args[0])
			os.Exit(1)
		}
		values, err := settingValues(settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(formatSetting(m, values[m.Key]))
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		settings := initializeGlobalState()
		if err := applySetting(settings, args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := config.SaveSettings(settings); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving settings: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s updated\n", args[0])
	},
}

// findSetting returns the metadata for key and the JSON name of its category.
func findSetting(key string) (config.SettingMeta, string, bool) {
	for category, metas := range config.GetSettingsMetadata() {
		for _, m := range metas {
			if m.Key == key {
				return m, strings.ToLower(category), true
			}
		}
	}
	return config.SettingMeta{}, "", false
}

// settingValues flattens settings into their JSON keys. Keys are unique
// across categories.
func settingValues(s *config.Settings) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var categories map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, err
	}
	flat := make(map[string]json.RawMessage)
	for _, fields := range categories {
		for k, v := range fields {
			flat[k] = v
		}
	}
	return flat, nil
}

func formatSetting(m config.SettingMeta, raw json.RawMessage) string {
	switch m.Type {
	case "duration":
		var ns int64
		if err := json.Unmarshal(raw, &ns); err == nil {
			return time.Duration(ns).String()
		}
	case "string":
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s == "" {
				return "(default)"
			}
			return s
		}
	}
	return string(raw)
}

// applySetting parses value by the setting's type and stores it in s.
func applySetting(s *config.Settings, key, value string) error {
	m, category, ok := findSetting(key)
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}

	var encoded any
	switch m.Type {
	case "string":
		encoded = value
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		encoded = n
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		encoded = b
	case "duration":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s must be a duration such as 30s or 5m", key)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
		encoded = int64(d)
	default:
		return fmt.Errorf("unsupported setting type %q", m.Type)
	}

	if key == "max_concurrent_downloads" {
		if n := encoded.(int); n < 1 || n > maxBatchConcurrency {
			return fmt.Errorf("%s must be between 1 and %d", key, maxBatchConcurrency)
		}
	}

	patch, err := json.Marshal(map[string]map[string]any{category: {key: encoded}})
	if err != nil {
		return err
	}
	return json.Unmarshal(patch, s)
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}
