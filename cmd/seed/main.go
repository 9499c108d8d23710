// Package main validates monster archetype content and seeds monsters of one
// archetype into the configured storage backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ficha/internal/config"
	"github.com/cory-johannsen/ficha/internal/game/dice"
	"github.com/cory-johannsen/ficha/internal/game/monster"
	"github.com/cory-johannsen/ficha/internal/storage"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	kind := flag.String("kind", monster.KindMolodoy, "archetype kind to seed")
	count := flag.Int("count", 5, "number of monsters to create")
	validateOnly := flag.Bool("validate", false, "only validate the archetype content directory")
	flag.Parse()

	if *count < 1 {
		fmt.Fprintln(os.Stderr, "usage: seed [-config <file>] [-kind <kind>] [-count <n>] [-validate]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	reg := monster.NewRegistry()
	if cfg.Content.MonsterDir != "" {
		archetypes, err := monster.LoadArchetypes(cfg.Content.MonsterDir)
		if err != nil {
			log.Fatalf("loading archetypes: %v", err)
		}
		for _, a := range archetypes {
			if err := reg.Register(a); err != nil {
				log.Fatalf("registering archetype %q: %v", a.Kind, err)
			}
		}
	}
	if *validateOnly {
		fmt.Printf("archetypes valid: %v [%s]\n", reg.Kinds(), time.Since(start).Round(time.Millisecond))
		return
	}

	arch, err := reg.Get(*kind)
	if err != nil {
		log.Fatalf("%v (known: %v)", err, reg.Kinds())
	}

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("opening storage: %v", err)
	}
	defer backend.Close()

	roller := dice.NewRoller(dice.NewCryptoSource(), zap.NewNop())
	for range *count {
		name, err := monster.GenerateName(roller)
		if err != nil {
			log.Fatalf("generating name: %v", err)
		}
		m, err := backend.Monsters.Create(ctx, monster.New(name, arch))
		if err != nil {
			log.Fatalf("creating monster: %v", err)
		}
		fmt.Printf("  #%d %s (%s, %d hp, armor %d)\n", m.ID, m.Name, m.Kind, m.HitPoints, m.ArmorRating)
	}
	fmt.Printf("seeded %d %s into %s [%s]\n", *count, arch.Kind, cfg.Storage.Driver, time.Since(start).Round(time.Millisecond))
}
