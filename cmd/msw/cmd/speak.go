package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	speakSource string
	speakVoice  string
)

var speakCmd = &cobra.Command{
	Use:   "speak [text]",
	Short: "Lässt Text vorlesen",
	Long: `Übergibt Text an den laufenden Dienst. Ohne Argument wird der
Text von der Standardeingabe gelesen.

Beispiele:
  msw speak "Hallo Welt"
  echo "Hallo Welt" | msw speak
  msw speak --voice amy --source alerts "Build fehlgeschlagen"`,
	RunE: runSpeak,
}

func init() {
	speakCmd.Flags().StringVar(&speakSource, "source", "", "Quellenname für das Routing")
	speakCmd.Flags().StringVar(&speakVoice, "voice", "", "Stimme für diese Anfrage")
	rootCmd.AddCommand(speakCmd)
}

func runSpeak(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Konfiguration laden", err)
		return err
	}

	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			printError("Eingabe lesen", err)
			return err
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("kein Text angegeben")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var resp struct {
		Queued bool    `json:"queued"`
		ID     *string `json:"id"`
	}
	client := newAPIClient(cfg.Service.Port)
	body := map[string]string{"text": text}
	if speakSource != "" {
		body["source"] = speakSource
	}
	if speakVoice != "" {
		body["voice"] = speakVoice
	}
	if err := client.postJSON(ctx, "/api/speak", body, &resp); err != nil {
		printError("Anfrage senden", err)
		return err
	}

	if resp.Queued {
		fmt.Printf("Eingereiht: %s\n", *resp.ID)
	} else {
		fmt.Println("Von den Filtern der Quelle abgewiesen.")
	}
	return nil
}
