package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/yourusername/pairtrade-analytics/pkg/service"
)

const (
	appName    = "PairtradeSignald"
	appVersion = "1.0.0"
)

var (
	configFile = flag.String("config", "./config/signald.yaml", "Configuration file path")
	version    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(0)
	}

	log.Printf("[Main] Loading configuration from: %s", *configFile)
	config, err := service.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("[Main] Failed to load config: %v", err)
	}
	log.Printf("[Main] Tracking %d pairs, method %s, window %d",
		len(config.Pairs), config.Signal.Method, config.Signal.Window)

	svc := service.NewSignalService(config)
	if err := svc.Start(); err != nil {
		log.Fatalf("[Main] Failed to start signal service: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("[Main] Received %v, shutting down", sig)

	svc.Stop()
}
