package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/badjoke-lab/cryptopaymap/internal/store"
	"github.com/badjoke-lab/cryptopaymap/internal/validate"
)

var validateStoreDir string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Audit the record store against the business rules",
	Long: `Load every shard and check each record: chain strictness, the
lightning/BTC invariants, preferred-asset consistency, media caps and
profile tier gating. Violations are printed and the command exits
non-zero if any are found.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateStoreDir, "store", "", "record store directory")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if validateStoreDir != "" {
		cfg.Store.Dir = validateStoreDir
	}

	shards, err := store.ListShards(cfg.Store.Dir)
	if err != nil {
		return err
	}

	v := validate.New()
	total := 0
	records := 0
	for _, shard := range shards {
		places, err := store.LoadShard(shard)
		if err != nil {
			return err
		}
		records += len(places)
		for _, violation := range v.ValidateAll(places) {
			total++
			fmt.Fprintf(os.Stderr, "%s: %s: %s\n", filepath.Base(shard), violation.Location, violation.Message)
		}
	}

	fmt.Printf("Checked %d record(s) in %d shard(s).\n", records, len(shards))
	if total > 0 {
		return fmt.Errorf("%d rule violation(s)", total)
	}
	fmt.Println("No violations.")
	return nil
}
