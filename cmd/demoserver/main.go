// Command demoserver serves the sitecheck fixture site: pages with known
// accessibility, SEO, performance, runtime and header defects.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/raysh454/sitecheck/internal/demoserver"
	"github.com/raysh454/sitecheck/internal/logging"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   sitecheck fixture site")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Every page starts on version 1, which carries known defects:")
	for _, p := range demoserver.GetAllPages() {
		fmt.Printf("  %-15s %-14s %s\n", p.Path, p.Engine, p.Description)
	}
	fmt.Println()
	fmt.Printf("Switch pages to their fixed version at http://localhost:%d/fixtures/control\n", cfg.Port)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logCfg := logging.DefaultConfig()
	logCfg.Format = "console"
	server := demoserver.NewServer(cfg, logging.NewZapLogger(logCfg))
	if err := server.ListenAndServe(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
