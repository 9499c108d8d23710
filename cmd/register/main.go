// Package main provides a CLI tool for registering accounts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ficha/internal/account"
	"github.com/cory-johannsen/ficha/internal/config"
	"github.com/cory-johannsen/ficha/internal/storage"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	username := flag.String("username", "", "account user name (required)")
	email := flag.String("email", "", "account e-mail (required)")
	flag.Parse()

	password := os.Getenv("FICHA_REGISTER_PASSWORD")
	if *username == "" || *email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "usage: FICHA_REGISTER_PASSWORD=<password> register -username <name> -email <addr> [-config <file>]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("opening storage: %v", err)
	}
	defer backend.Close()

	acct, err := account.NewService(backend.Accounts).Register(ctx, *username, *email, password)
	if err != nil {
		log.Fatalf("registering %q: %v", *username, err)
	}

	fmt.Printf("registered %q as account %d [%s]\n", acct.Username, acct.ID, time.Since(start).Round(time.Millisecond))
}
