package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/mSW/pkg/core/config"
	"github.com/msto63/mSW/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "msw",
	Short: "meinSPRACHWERK - Lokaler Vorlesedienst",
	Long: `meinSPRACHWERK ist ein leichtgewichtiger, lokal laufender
Text-to-Speech Dienst für den Einzelarbeitsplatz.

Befehle:
  serve    - Dienst starten (API, Tray, Hotkeys)
  speak    - Text über die API vorlesen lassen
  voices   - Installierte Stimmen anzeigen oder auswählen
  stop     - Wiedergabe stoppen und Warteschlange leeren
  status   - Dienststatus anzeigen`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.toml", "Config-Datei")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose Output")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Service.LogLevel = "debug"
	}
	logging.SetDefaults(logging.ParseLevel(cfg.Service.LogLevel), logging.ParseFormat(cfg.Service.LogFormat))
	return cfg, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Fehler: %s: %v\n", msg, err)
}
