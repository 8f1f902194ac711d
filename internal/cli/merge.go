package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/badjoke-lab/cryptopaymap/internal/chains"
	"github.com/badjoke-lab/cryptopaymap/internal/model"
	"github.com/badjoke-lab/cryptopaymap/internal/pipeline"
	"github.com/badjoke-lab/cryptopaymap/internal/store"
	"github.com/badjoke-lab/cryptopaymap/internal/worker"
)

var (
	mergeSubmissionsDir string
	mergeStoreDir       string
	mergeRejectsFile    string
	mergeConcurrency    int
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge raw submissions into the record store",
	Long: `Normalize raw submission files, match them against existing records and
merge them into the sharded store.

Submissions are grouped by target shard and shards are processed in
parallel; each shard file is rewritten atomically. Unparseable payment
lines and refused submissions are appended to the rejects log.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeSubmissionsDir, "submissions", "", "directory of submission JSON files")
	mergeCmd.Flags().StringVar(&mergeStoreDir, "store", "", "record store directory")
	mergeCmd.Flags().StringVar(&mergeRejectsFile, "rejects", "", "rejects log file (JSON lines)")
	mergeCmd.Flags().IntVar(&mergeConcurrency, "concurrency", 0, "parallel shard workers (default: number of CPUs)")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if mergeSubmissionsDir != "" {
		cfg.Store.SubmissionsDir = mergeSubmissionsDir
	}
	if mergeStoreDir != "" {
		cfg.Store.Dir = mergeStoreDir
	}
	if mergeRejectsFile != "" {
		cfg.Store.RejectsFile = mergeRejectsFile
	}
	if mergeConcurrency > 0 {
		cfg.Concurrency.Workers = mergeConcurrency
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	files, err := store.ListSubmissions(cfg.Store.SubmissionsDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No submissions found.")
		return nil
	}

	// Group by target shard; one job per shard keeps writes single-owner.
	byShard := make(map[string][]pipeline.Unit)
	for _, path := range files {
		sub, err := store.LoadSubmission(path)
		if err != nil {
			return err
		}
		shard := pipeline.ShardPath(cfg.Store.Dir, sub.Country, sub.City)
		byShard[shard] = append(byShard[shard], pipeline.Unit{Path: path, Submission: sub})
	}

	if err := os.MkdirAll(cfg.Store.Dir, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	shards := make([]string, 0, len(byShard))
	for shard := range byShard {
		shards = append(shards, shard)
	}
	sort.Strings(shards)

	p := pipeline.New(registry, cfg)
	pool := worker.NewPool(cfg.Concurrency.Workers)
	pool.Start()
	for _, shard := range shards {
		pool.Submit(&pipeline.Job{Pipeline: p, ShardPath: shard, Units: byShard[shard]})
	}
	results := pool.Wait()

	var created, updated, refused int
	var rejects []store.RejectRecord
	var failed int
	for _, res := range results {
		sr, ok := res.(*pipeline.ShardResult)
		if !ok {
			continue
		}
		if sr.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "shard %s: %v\n", sr.Shard, sr.Err)
			continue
		}
		created += sr.Created
		updated += sr.Updated
		refused += sr.Refused
		rejects = append(rejects, sr.Rejects...)
	}

	if len(rejects) > 0 {
		if err := store.NewRejectsLog(cfg.Store.RejectsFile).Append(rejects); err != nil {
			return err
		}
	}

	fmt.Printf("Submissions: %d  created: %d  updated: %d  refused: %d  rejected lines: %d\n",
		len(files), created, updated, refused, len(rejects)-refused)
	if failed > 0 {
		return fmt.Errorf("%d shard(s) failed", failed)
	}
	return nil
}

func buildRegistry(cfg model.Config) (*chains.Registry, error) {
	if cfg.Chains.AliasFile == "" {
		return chains.New(nil), nil
	}
	table, err := chains.LoadTable(cfg.Chains.AliasFile)
	if err != nil {
		return nil, err
	}
	return chains.New(table), nil
}
