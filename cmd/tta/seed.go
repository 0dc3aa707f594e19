package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/tta-core/internal/config"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the starter world in the configured stores",
	Long: `Seed loads the embedded starter world: the prime universe, its
locations, characters, items, factions, and quests. Point TTA_TRUTH_STORE at
sqlite to keep the world between runs.`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.seeder.Seed(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d entities and %d quests.\n", result.Entities, result.Quests)
	fmt.Printf("  universe: %s\n", result.UniverseID)
	fmt.Printf("  hero:     %s\n", result.HeroID)
	fmt.Printf("  location: %s\n", result.LocationID)
	return nil
}
