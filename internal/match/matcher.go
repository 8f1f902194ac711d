// Package match decides whether a submission updates an existing canonical
// record or creates a new one.
package match

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

// ErrUnmatchedReference means the submission claimed an existing record but
// none could be located. The merge must be refused for manual review rather
// than silently creating a duplicate.
var ErrUnmatchedReference = errors.New("claimed record not found")

const earthRadiusMeters = 6371000.0

// Matcher locates existing records for candidate submissions.
type Matcher struct {
	maxDistanceMeters float64
}

// New creates a matcher with the given fuzzy-match distance threshold.
func New(maxDistanceMeters float64) *Matcher {
	if maxDistanceMeters <= 0 {
		maxDistanceMeters = 50
	}
	return &Matcher{maxDistanceMeters: maxDistanceMeters}
}

// Find returns the pool index of the record the candidate refers to, or -1
// when the candidate is a new place. Resolution order: explicit reference,
// then exact-name + proximity fuzzy match. A claimed-but-unlocatable
// reference returns ErrUnmatchedReference.
func (m *Matcher) Find(pool []model.PlaceRecord, candidate model.PlaceRecord, ref string) (int, error) {
	if ref != "" {
		id := ExtractID(ref)
		for i := range pool {
			if pool[i].ID == id {
				return i, nil
			}
		}
		if i := m.fuzzy(pool, candidate); i >= 0 {
			return i, nil
		}
		return -1, fmt.Errorf("%w: %q", ErrUnmatchedReference, ref)
	}

	return m.fuzzy(pool, candidate), nil
}

// fuzzy matches on case-insensitive exact name equality plus great-circle
// distance within the threshold. A deliberate simplification: no confidence
// scoring, so abbreviated names miss and co-located businesses can collide.
func (m *Matcher) fuzzy(pool []model.PlaceRecord, candidate model.PlaceRecord) int {
	if candidate.Name == "" || candidate.Lat == nil || candidate.Lng == nil {
		return -1
	}
	name := strings.ToLower(strings.TrimSpace(candidate.Name))
	for i := range pool {
		rec := &pool[i]
		if rec.Lat == nil || rec.Lng == nil {
			continue
		}
		if strings.ToLower(strings.TrimSpace(rec.Name)) != name {
			continue
		}
		d := Distance(*candidate.Lat, *candidate.Lng, *rec.Lat, *rec.Lng)
		if d <= m.maxDistanceMeters {
			return i
		}
	}
	return -1
}

// ExtractID pulls a record id out of a raw reference, which may be the id
// itself or a URL whose last path segment is the id.
func ExtractID(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.Contains(ref, "://") {
		if parsed, err := url.Parse(ref); err == nil {
			segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
			if len(segments) > 0 {
				return segments[len(segments)-1]
			}
		}
	}
	return ref
}

// DeriveID builds a stable id from location slugs plus a short hash of the
// identifying fields, collision-resistant without a central sequence.
func DeriveID(country, city, name string, lat, lng float64, ts time.Time) string {
	payload := fmt.Sprintf("%s|%.6f|%.6f|%d", name, lat, lng, ts.Unix())
	sum := sha256.Sum256([]byte(payload))
	short := hex.EncodeToString(sum[:4])

	parts := []string{Slug(country), Slug(city), Slug(name), short}
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "-")
}

// Slug lowercases and reduces text to hyphen-separated alphanumerics.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastHyphen := true // Suppress leading hyphens
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Distance returns the great-circle distance in meters between two points.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
