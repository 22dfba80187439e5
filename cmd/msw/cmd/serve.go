package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/mSW/internal/app"
)

var (
	serveNoTray    bool
	serveNoHotkeys bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Startet den Vorlesedienst",
	Long: `Startet den Vorlesedienst mit API, System-Tray und Hotkeys.

Die API ist nur auf 127.0.0.1 erreichbar. Mit --no-tray läuft der
Dienst ohne Desktop-Integration, etwa unter systemd.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoTray, "no-tray", false, "Ohne System-Tray starten")
	serveCmd.Flags().BoolVar(&serveNoHotkeys, "no-hotkeys", false, "Ohne globale Hotkeys starten")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Konfiguration laden", err)
		return err
	}

	a, err := app.New(*cfg, app.Options{
		EnableTray:    !serveNoTray,
		EnableHotkeys: !serveNoHotkeys,
	})
	if err != nil {
		printError("Dienst initialisieren", err)
		return err
	}

	fmt.Printf("meinSPRACHWERK v%s\n", app.Version)
	fmt.Println("────────────────────────────")
	fmt.Printf("API: http://127.0.0.1:%d\n", cfg.Service.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}
