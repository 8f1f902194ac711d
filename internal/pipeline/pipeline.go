// Package pipeline runs submissions through normalization, matching, merge
// and validation against one shard file at a time. A shard is the unit of
// parallelism: all submissions for a shard are applied in order by a single
// job, so no file is ever written by two workers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/badjoke-lab/cryptopaymap/internal/chains"
	"github.com/badjoke-lab/cryptopaymap/internal/match"
	"github.com/badjoke-lab/cryptopaymap/internal/merge"
	"github.com/badjoke-lab/cryptopaymap/internal/model"
	"github.com/badjoke-lab/cryptopaymap/internal/normalize"
	"github.com/badjoke-lab/cryptopaymap/internal/store"
	"github.com/badjoke-lab/cryptopaymap/internal/validate"
	"github.com/badjoke-lab/cryptopaymap/internal/worker"
)

// Unit is one submission queued for a shard, with its source path kept for
// reject-log provenance.
type Unit struct {
	Path       string
	Submission model.Submission
}

// ShardResult summarizes one shard run. Refused submissions and quarantined
// payment lines both land in Rejects; nothing is dropped without a line
// there.
type ShardResult struct {
	Shard   string
	Created int
	Updated int
	Refused int
	Rejects []store.RejectRecord
	Err     error
}

// GetError implements worker.Result.
func (r *ShardResult) GetError() error { return r.Err }

// Pipeline applies submissions to the canonical store.
type Pipeline struct {
	normalizer *normalize.Normalizer
	matcher    *match.Matcher
	merger     *merge.Merger
	validator  *validate.Validator
}

// New builds a pipeline from the chain registry and config.
func New(registry *chains.Registry, cfg model.Config) *Pipeline {
	return &Pipeline{
		normalizer: normalize.New(registry, cfg.Normalizer.RulesVersion),
		matcher:    match.New(cfg.Match.MaxDistanceMeters),
		merger:     merge.New(),
		validator:  validate.New(),
	}
}

// ShardPath returns the shard file a submission belongs to: one file per
// country/city slug pair under the store directory.
func ShardPath(storeDir, country, city string) string {
	c := match.Slug(country)
	if c == "" {
		c = "unknown"
	}
	name := c + ".json"
	if s := match.Slug(city); s != "" {
		name = c + "-" + s + ".json"
	}
	return filepath.Join(storeDir, name)
}

// RunShard applies units to one shard file in order. The shard is loaded
// once, every accepted merge is applied in memory and the file is rewritten
// atomically at the end, so a run that dies mid-shard leaves the previous
// contents intact.
func (p *Pipeline) RunShard(ctx context.Context, shardPath string, units []Unit) *ShardResult {
	result := &ShardResult{Shard: shardPath}

	records, err := store.LoadShard(shardPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		result.Err = err
		return result
	}

	dirty := false
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}
		if p.apply(&records, unit, result) {
			dirty = true
		}
	}

	if dirty {
		if err := store.WriteShard(shardPath, records); err != nil {
			result.Err = err
		}
	}
	return result
}

// apply merges one submission into the in-memory shard. It reports whether
// the shard changed; every non-applied outcome is recorded in result.
func (p *Pipeline) apply(records *[]model.PlaceRecord, unit Unit, result *ShardResult) bool {
	patch := p.normalizer.BuildPatch(unit.Submission)
	for _, rej := range patch.Rejects {
		result.Rejects = append(result.Rejects, store.RejectRecord{
			Submission: unit.Path,
			Raw:        rej.Raw,
			Reason:     rej.Reason,
			At:         patch.SubmittedAt,
		})
	}

	idx, err := p.matcher.Find(*records, patch.Place, patch.AlreadyListedRef)
	if err != nil {
		p.refuse(result, unit, "unmatched-reference: "+patch.AlreadyListedRef, patch)
		return false
	}
	if patch.Kind == model.KindReport && idx < 0 {
		p.refuse(result, unit, "report-targets-unknown-place", patch)
		return false
	}

	if idx >= 0 {
		merged := p.merger.Merge(&(*records)[idx], patch)
		if errs := p.validator.Validate(merged); len(errs) > 0 {
			p.refuse(result, unit, violationReason(errs), patch)
			return false
		}
		(*records)[idx] = merged
		result.Updated++
		return true
	}

	merged := p.merger.Merge(nil, patch)
	merged.ID = newID(patch)
	if errs := p.validator.Validate(merged); len(errs) > 0 {
		p.refuse(result, unit, violationReason(errs), patch)
		return false
	}
	*records = append(*records, merged)
	result.Created++
	return true
}

func (p *Pipeline) refuse(result *ShardResult, unit Unit, reason string, patch model.Patch) {
	result.Refused++
	result.Rejects = append(result.Rejects, store.RejectRecord{
		Submission: unit.Path,
		Reason:     reason,
		At:         patch.SubmittedAt,
	})
}

func newID(patch model.Patch) string {
	var lat, lng float64
	if patch.Place.Lat != nil {
		lat = *patch.Place.Lat
	}
	if patch.Place.Lng != nil {
		lng = *patch.Place.Lng
	}
	return match.DeriveID(patch.Place.Country, patch.Place.City, patch.Place.Name, lat, lng, patch.SubmittedAt)
}

func violationReason(errs []validate.ValidationError) string {
	first := errs[0]
	if len(errs) == 1 {
		return fmt.Sprintf("rule-violation: %s: %s", first.Location, first.Message)
	}
	return fmt.Sprintf("rule-violation: %s: %s (+%d more)", first.Location, first.Message, len(errs)-1)
}

// Job adapts a shard run to the worker pool.
type Job struct {
	Pipeline  *Pipeline
	ShardPath string
	Units     []Unit
}

// Execute implements worker.Job.
func (j *Job) Execute(ctx context.Context) worker.Result {
	return j.Pipeline.RunShard(ctx, j.ShardPath, j.Units)
}
