package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/lumenlauncher/lumen/internal/compose"
	"github.com/lumenlauncher/lumen/internal/config"
	"github.com/lumenlauncher/lumen/internal/engine"
	"github.com/lumenlauncher/lumen/internal/listener"
	"github.com/lumenlauncher/lumen/internal/logging"
	"github.com/lumenlauncher/lumen/internal/mediaquery"
	"github.com/lumenlauncher/lumen/internal/persist"
)

func main() {
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()
	logging.Setup(*verbose)

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("lumen-notifyd failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading preferences: %w", err)
	}
	prefs := config.NewStore(cfg)

	// Preference edits apply live; a missing user config is fine.
	userConfig := config.DefaultPath()
	if _, err := os.Stat(userConfig); err == nil {
		if err := prefs.Watch(userConfig); err != nil {
			log.Warn().Err(err).Str("path", userConfig).Msg("preference watch unavailable")
		}
	}

	dbPath, err := persist.DefaultPath()
	if err != nil {
		return fmt.Errorf("resolving data path: %w", err)
	}
	store, err := persist.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening conversation store: %w", err)
	}

	media, err := mediaquery.New()
	if err != nil {
		return fmt.Errorf("connecting media query: %w", err)
	}

	eng := engine.New(store, media, prefs)
	defer eng.Close()

	lst, err := listener.New(eng)
	if err != nil {
		return fmt.Errorf("attaching notification listener: %w", err)
	}

	sub := eng.SubscribeBadges()
	go func() {
		for {
			select {
			case snapshot := <-sub.C:
				printBadges(snapshot, prefs)
			case <-sub.Done:
				return
			}
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("lumen-notifyd started")
	return lst.Run(ctx)
}

// printBadges renders one composed badge line per application to stdout,
// standing in for the launcher's home-screen slots.
func printBadges(snapshot engine.BadgeSnapshot, prefs *config.Store) {
	appIDs := make([]string, 0, len(snapshot))
	for appID := range snapshot {
		appIDs = append(appIDs, appID)
	}
	sort.Strings(appIDs)

	toggles := prefs.Toggles()
	limit := prefs.CharLimit()

	var b strings.Builder
	b.WriteString("---\n")
	for _, appID := range appIDs {
		summary := snapshot[appID]
		text := compose.BadgeText(appID, prefs.DisplayName(appID), &summary, toggles, limit)
		b.WriteString(text)
		b.WriteString("\n")
	}
	fmt.Print(b.String())
}
