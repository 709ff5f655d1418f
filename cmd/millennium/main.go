package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"millennium-sync/pkg/client"
	"millennium-sync/pkg/config"
)

func main() {
	cfg := config.GetCached()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	stdin := bufio.NewScanner(os.Stdin)
	prompt := func(label string) (string, error) {
		fmt.Print(label + ": ")
		if !stdin.Scan() {
			return "", fmt.Errorf("input closed")
		}
		return strings.TrimSpace(stdin.Text()), nil
	}

	app := client.NewApp(cfg, prompt)
	go app.WatchAuthEvents(ctx)

	fmt.Println("Connected to " + cfg.StoreURL + ". Type 'help' for commands.")
	client.RunREPL(ctx, app, app.Status, stdin)
}
