// File: cmd/diagnostic/main.go
//
// diagnostic probes every configured provider with a short prompt, or mints
// an operator token for /api/admin/errors:
//
//	diagnostic [-prompt "..."] [-timeout 2m]
//	diagnostic -mint-token -subject ops -ttl 24h
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/iyunix/go-yasmin/internal/auth"
	"github.com/iyunix/go-yasmin/internal/config"
	"github.com/iyunix/go-yasmin/internal/services"
)

func main() {
	prompt := flag.String("prompt", "مرحبا، عرّفي بنفسك في جملة واحدة.", "prompt sent to each provider")
	timeout := flag.Duration("timeout", 3*time.Minute, "overall probe budget")
	mint := flag.Bool("mint-token", false, "print an operator bearer token and exit")
	subject := flag.String("subject", "operator", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()

	if *mint {
		if cfg.AdminTokenSecret == "" {
			log.Fatal("ADMIN_TOKEN_SECRET not set in environment")
		}
		token, err := auth.GenerateToken(*subject, *ttl, []byte(cfg.AdminTokenSecret))
		if err != nil {
			log.Fatalf("Could not mint token: %v", err)
		}
		fmt.Println(token)
		return
	}

	aiService, err := services.NewAIService(cfg)
	if err != nil {
		log.Fatalf("Invalid provider configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Probing providers in order %v\n", cfg.ProviderOrder)
	failed := 0
	for _, res := range aiService.Probe(ctx, *prompt) {
		switch {
		case res.Skipped:
			fmt.Printf("- %-12s SKIPPED (no credential)\n", res.Provider)
		case res.Err != nil:
			failed++
			fmt.Printf("- %-12s FAILED  model=%s after %s: %v\n", res.Provider, res.Model, res.Latency.Round(time.Millisecond), res.Err)
		default:
			fmt.Printf("- %-12s OK      model=%s in %s: %q\n", res.Provider, res.Model, res.Latency.Round(time.Millisecond), res.Reply)
		}
	}

	if aiService.ConfiguredCount() == 0 {
		fmt.Println("No provider is configured; the server will answer with offline replies only.")
	}
	if failed > 0 {
		os.Exit(1)
	}
}
