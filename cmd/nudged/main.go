package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vthunder/nudge/internal/archive"
	"github.com/vthunder/nudge/internal/backend"
	"github.com/vthunder/nudge/internal/config"
	"github.com/vthunder/nudge/internal/engine"
	"github.com/vthunder/nudge/internal/journal"
	"github.com/vthunder/nudge/internal/memory"
	"github.com/vthunder/nudge/internal/monitor"
	"github.com/vthunder/nudge/internal/notify"
	"github.com/vthunder/nudge/internal/screen"
	"github.com/vthunder/nudge/internal/watcher"
)

func main() {
	log.Println("nudged - productivity monitor")
	log.Println("=============================")

	// Load .env file (optional - won't error if missing)
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using environment variables")
	} else {
		log.Println("[config] Loaded .env file")
	}

	cfgPath := os.Getenv("NUDGE_CONFIG")
	if cfgPath == "" {
		cfgPath = "nudge.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Bad configuration: %v", err)
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		log.Printf("[config] Warning: no API key in $%s; decisions will fail closed", cfg.Backend.APIKeyEnv)
	}

	os.MkdirAll(cfg.StatePath, 0755)

	// Durable state
	store := memory.NewStore(cfg.StatePath)
	if err := store.Load(); err != nil {
		log.Printf("Warning: failed to load behavior state: %v", err)
	}
	jrnl := journal.New(cfg.StatePath)

	arch, err := archive.Open(cfg.StatePath)
	if err != nil {
		log.Printf("Warning: cycle archive unavailable: %v", err)
		arch = nil
	}

	// Reasoning backend
	client := backend.New(backend.Config{
		BaseURL:     cfg.Backend.BaseURL,
		APIKey:      apiKey,
		Model:       cfg.Backend.Model,
		VisionModel: cfg.Backend.VisionModel,
		RatePerMin:  cfg.Backend.RatePerMin,
	})

	eng := engine.New(client, cfg.HistoryCap)

	// Screen classifier (optional)
	var classifier monitor.Classifier
	if cfg.Screen.Enabled {
		classifier = screen.NewClassifier(screen.NewCommandCapturer(cfg.Screen.CaptureCommand), client)
	}

	// Activity source
	source := watcher.NewProcessWatcher(watcher.Config{
		PollInterval:  time.Duration(cfg.PollIntervalSec) * time.Second,
		IdleThreshold: cfg.IdleThreshold(),
	})

	// Notification sinks
	sinks := notify.NewMulti(notify.NewConsole(), notify.NewCommand(cfg.Notify.Command))
	var discordSink *notify.Discord
	if cfg.Notify.DiscordToken != "" && cfg.Notify.DiscordChannel != "" {
		discordSink, err = notify.NewDiscord(cfg.Notify.DiscordToken, cfg.Notify.DiscordChannel)
		if err != nil {
			log.Printf("Warning: discord sink unavailable: %v", err)
		} else {
			sinks.Add(discordSink)
		}
	}

	mon := monitor.New(monitor.Config{
		CycleInterval:       cfg.CycleInterval(),
		ClassifyInterval:    cfg.ClassifyInterval(),
		IdleThreshold:       cfg.IdleThreshold(),
		EffectivenessWindow: cfg.EffectivenessWindow(),
	}, source, eng, store, classifier, sinks, jrnl, arch)

	if err := mon.Start(); err != nil {
		log.Fatalf("Failed to start monitor: %v", err)
	}

	log.Println("[main] Monitoring. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[main] Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	mon.Stop(ctx)

	if discordSink != nil {
		discordSink.Close()
	}
	if arch != nil {
		arch.Close()
	}

	log.Println("[main] Goodbye!")
}
