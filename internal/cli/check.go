package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/badjoke-lab/cryptopaymap/internal/cache"
	"github.com/badjoke-lab/cryptopaymap/internal/liveness"
	"github.com/badjoke-lab/cryptopaymap/internal/store"
)

var checkStoreDir string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe record websites and evidence URLs for liveness",
	Long: `HEAD-check every record's website and sourced evidence URLs, honoring
robots.txt and per-domain rate limits. Each record's
verification.last_checked timestamp is refreshed, unreachable sources
are marked dead, and sources submitted as bare URLs are named from
their page title. Trust tiers are never changed by this command.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkStoreDir, "store", "", "record store directory")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if checkStoreDir != "" {
		cfg.Store.Dir = checkStoreDir
	}

	var fetchCache cache.Cache
	if cfg.Cache.Enabled {
		fetchCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}
	checker := liveness.NewChecker(cfg.HTTP, fetchCache)

	shards, err := store.ListShards(cfg.Store.Dir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	totalDead := 0
	checked := 0
	for _, shard := range shards {
		places, err := store.LoadShard(shard)
		if err != nil {
			return err
		}
		for i := range places {
			checker.NameSources(ctx, places[i].Verification.Sources)
			dead, results := checker.CheckRecord(ctx, &places[i])
			checked++
			totalDead += dead
			if dead > 0 || cfg.Output.Verbose {
				for _, res := range results {
					if res.Alive {
						continue
					}
					reason := res.Error
					if reason == "" {
						reason = fmt.Sprintf("status %d", res.StatusCode)
					}
					if res.Blocked {
						reason = "robots.txt disallow"
					}
					fmt.Fprintf(os.Stderr, "%s %s: %s (%s)\n", filepath.Base(shard), places[i].ID, res.URL, reason)
				}
			}
		}
		if err := store.WriteShard(shard, places); err != nil {
			return err
		}
	}

	fmt.Printf("Checked %d record(s); %d dead URL(s).\n", checked, totalDead)
	return nil
}
