// File: cmd/diagnostic/llm_diagnostic.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/iyunix/go-relay/internal/auth"
	"github.com/iyunix/go-relay/internal/config"
	"github.com/iyunix/go-relay/internal/domain"
	"github.com/iyunix/go-relay/internal/services/chat"
	"github.com/iyunix/go-relay/internal/services/gateway"
	"github.com/iyunix/go-relay/internal/services/models"
)

func main() {
	prompt := flag.String("prompt", "What is the answer to life, universe and everything?", "prompt to stream")
	model := flag.String("model", "", "display name to resolve (empty: first chat model)")
	webSearch := flag.Bool("web-search", false, "resolve the search model")
	listOnly := flag.Bool("list", false, "only list chat models")
	mintToken := flag.Duration("token", 0, "print a bearer token valid for this long and exit")
	flag.Parse()

	cfg := config.Load()

	if *mintToken > 0 {
		token, err := auth.GenerateJWT("diagnostic", []byte(cfg.JWTSecretKey), *mintToken)
		if err != nil {
			log.Fatalf("token: %v", err)
		}
		fmt.Println(token)
		return
	}

	gwConfig := gateway.DefaultConfig()
	gwConfig.APIKey = cfg.GatewayAPIKey
	gwConfig.BaseURL = cfg.GatewayBaseURL
	gwConfig.RequestTimeout = cfg.GatewayRequestTimeout
	provider, err := gateway.NewOpenAIProvider(gwConfig)
	if err != nil {
		log.Fatalf("gateway: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GatewayStreamTimeout)
	defer cancel()

	all, err := provider.ListModels(ctx)
	if err != nil {
		log.Fatalf("list models: %v", err)
	}
	chatModels := models.FilterLanguage(all)
	fmt.Printf("gateway %s: %d models, %d chat models\n", cfg.GatewayBaseURL, len(all), len(chatModels))
	for _, m := range chatModels {
		fmt.Printf("  %-40s %s\n", m.ID, m.Name)
	}
	if *listOnly {
		return
	}

	name := *model
	if name == "" && len(chatModels) > 0 {
		name = chatModels[0].Name
	}
	res, err := models.NewResolver(cfg.SearchModel, cfg.DefaultModel).Resolve(chatModels, name, *webSearch)
	if err != nil {
		log.Fatalf("resolve: %v", err)
	}
	fmt.Printf("streaming from %s (%s)\n\n", res.ModelID, res.Reason)

	started := time.Now()
	stream, err := provider.StreamCompletion(ctx, gateway.CompletionRequest{
		Model:    res.ModelID,
		Messages: chat.BuildConversation(chat.DefaultSystemPrompt, nil, *prompt),
	})
	if err != nil {
		log.Fatalf("open stream: %v", err)
	}
	defer stream.Close()

	counts := map[string]int{}
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr)
			log.Fatalf("stream: %v", err)
		}
		counts[ev.Type]++
		switch ev.Type {
		case domain.EventTextDelta:
			fmt.Print(ev.Delta)
		case domain.EventReasoningDelta:
			fmt.Fprint(os.Stderr, ev.Delta)
		case domain.EventSourceURL:
			fmt.Printf("\n[source] %s %s", ev.URL, ev.Title)
		}
	}
	fmt.Printf("\n\ndone in %s, events: %v\n", time.Since(started).Round(time.Millisecond), counts)
}
