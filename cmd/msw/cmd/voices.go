package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/msto63/mSW/internal/catalog"
	"github.com/msto63/mSW/internal/prefs"
	"github.com/msto63/mSW/internal/tui/picker"
	"github.com/msto63/mSW/pkg/core/logging"
)

var voicesPick bool

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "Zeigt die installierten Stimmen",
	Long: `Zeigt die installierten Stimmen an. Mit --pick öffnet sich ein
interaktiver Dialog, die gewählte Stimme wird als Standard gespeichert.`,
	RunE: runVoices,
}

func init() {
	voicesCmd.Flags().BoolVar(&voicesPick, "pick", false, "Stimme interaktiv auswählen")
	rootCmd.AddCommand(voicesCmd)
}

func runVoices(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Konfiguration laden", err)
		return err
	}

	// Try the running service first; fall back to a direct directory scan
	voices, defaultVoice := voicesFromService(cfg.Service.Port)
	if voices == nil {
		cat := catalog.New(cfg.Service.VoicesDir, cfg.Service.DefaultVoice, logging.New("catalog"))
		defer cat.Close()
		voices = cat.List()
		defaultVoice = cat.DefaultVoice()
	}

	if voicesPick {
		return pickVoice(voices, defaultVoice)
	}

	if len(voices) == 0 {
		fmt.Printf("Keine Stimmen in %s gefunden.\n", cfg.Service.VoicesDir)
		return nil
	}

	fmt.Println("Installierte Stimmen:")
	for _, v := range voices {
		marker := " "
		if v.ID == defaultVoice {
			marker = "*"
		}
		fmt.Printf("  %s %-20s %d Hz\n", marker, v.DisplayName, v.SampleRate)
	}
	return nil
}

func voicesFromService(port int) ([]catalog.Voice, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		SampleRate int    `json:"sampleRate"`
	}
	if err := newAPIClient(port).getJSON(ctx, "/api/voices", &out); err != nil {
		return nil, ""
	}

	voices := make([]catalog.Voice, 0, len(out))
	for _, v := range out {
		voices = append(voices, catalog.Voice{ID: v.ID, DisplayName: v.Name, SampleRate: v.SampleRate})
	}
	return voices, ""
}

func pickVoice(voices []catalog.Voice, defaultVoice string) error {
	m := picker.New(voices, defaultVoice)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		printError("Auswahl anzeigen", err)
		return err
	}

	chosen := final.(picker.Model).Chosen()
	if chosen == nil {
		return nil
	}

	store, err := prefs.NewStore("")
	if err != nil {
		printError("Einstellungen öffnen", err)
		return err
	}
	if err := store.Save(prefs.Preferences{Voice: chosen.ID}); err != nil {
		printError("Einstellungen speichern", err)
		return err
	}

	fmt.Printf("Standardstimme: %s\n", chosen.ID)
	fmt.Println("Die Änderung gilt nach einem Neustart des Dienstes.")

	previewVoice(chosen.ID)
	return nil
}

// previewVoice speaks a short sample through the running service. Purely
// best-effort, without a running service the pick still succeeds.
func previewVoice(voiceID string) {
	cfg, err := loadConfig()
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	body := map[string]string{
		"text":  "Hallo, ich bin die neue Standardstimme.",
		"voice": voiceID,
	}
	_ = newAPIClient(cfg.Service.Port).postJSON(ctx, "/api/speak", body, nil)
}
