package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Zeigt den Dienststatus",
	Long:  `Prüft die Erreichbarkeit des Dienstes und zeigt seinen Zustand an.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Konfiguration laden", err)
		return err
	}

	fmt.Println("meinSPRACHWERK Status")
	fmt.Println("=====================")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resp struct {
		Running      bool   `json:"running"`
		ActiveVoices int    `json:"activeVoices"`
		QueueDepth   int    `json:"queueDepth"`
		Version      string `json:"version"`
	}
	if err := newAPIClient(cfg.Service.Port).getJSON(ctx, "/api/status", &resp); err != nil {
		fmt.Printf("  [-] Dienst auf Port %d nicht erreichbar\n", cfg.Service.Port)
		fmt.Println("      Start mit: msw serve")
		return nil
	}

	fmt.Printf("  [+] Dienst läuft (v%s, Port %d)\n", resp.Version, cfg.Service.Port)
	fmt.Printf("      Geladene Stimmen:   %d\n", resp.ActiveVoices)
	fmt.Printf("      Warteschlange:      %d\n", resp.QueueDepth)
	return nil
}
