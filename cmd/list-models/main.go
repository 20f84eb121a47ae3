package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/omeshsingh/bnsp/config"
	"github.com/omeshsingh/bnsp/llm"
)

func main() {
	cfg, err := config.Load(config.GetEnv())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.LLM.Provider != config.ProviderGemini {
		log.Fatalf("list-models supports the gemini provider only, configured: %s", cfg.LLM.Provider)
	}

	ctx := context.Background()
	client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{APIKey: cfg.LLM.APIKey})
	if err != nil {
		log.Fatalf("Failed to initialize Gemini: %v", err)
	}
	defer client.Close()

	models, err := client.GenerationModels(ctx)
	if err != nil {
		log.Fatalf("Failed to list models: %v", err)
	}

	fmt.Println("Models that support 'generateContent':")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDISPLAY NAME\tINPUT TOKENS")
	for _, m := range models {
		fmt.Fprintf(w, "%s\t%s\t%d\n", m.Name, m.DisplayName, m.InputTokenLimit)
	}
	_ = w.Flush()
}
