package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stoppt die Wiedergabe",
	Long:  `Bricht die laufende Wiedergabe ab und leert die Warteschlange.`,
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Konfiguration laden", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resp struct {
		Stopped bool `json:"stopped"`
	}
	if err := newAPIClient(cfg.Service.Port).postJSON(ctx, "/api/stop", nil, &resp); err != nil {
		printError("Anfrage senden", err)
		return err
	}

	fmt.Println("Wiedergabe gestoppt, Warteschlange geleert.")
	return nil
}
