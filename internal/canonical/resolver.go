package canonical

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/orderlens/internal/datastore/entities"
	"github.com/tphakala/orderlens/internal/datastore/repository"
	"github.com/tphakala/orderlens/internal/errors"
	"github.com/tphakala/orderlens/internal/logger"
)

// Default similarity thresholds for accepting a fuzzy match.
const (
	DefaultItemThreshold     = 0.8
	DefaultCategoryThreshold = 0.75
)

// Resolution stages reported on errors and metrics.
const (
	StageLookup       = "lookup"
	StageFuzzyScan    = "fuzzy_scan"
	StageCreateEntity = "create_entity"
	StageWriteMapping = "write_mapping"
)

// Store is the storage collaborator required by the Resolver.
// CreateEntityIfAbsent must be atomic with respect to the normalized name.
type Store interface {
	FindMapping(ctx context.Context, kind entities.EntityKind, normalizedRawName string) (*repository.NameMapping, error)
	CreateMappingIfAbsent(ctx context.Context, kind entities.EntityKind, mapping *repository.NameMapping) (bool, error)
	ListEntities(ctx context.Context, kind entities.EntityKind) ([]*repository.CanonicalEntity, error)
	CreateEntityIfAbsent(ctx context.Context, kind entities.EntityKind, canonicalName, normalizedName string) (*repository.CanonicalEntity, bool, error)
}

// Recorder receives resolution outcomes. A nil Recorder is allowed.
type Recorder interface {
	RecordResolution(kind string, method string, duration time.Duration)
	RecordResolutionError(kind string, stage string)
	RecordMappingWriteFailure(kind string)
}

// Config holds Resolver settings. Zero thresholds fall back to the defaults.
type Config struct {
	ItemThreshold     float64
	CategoryThreshold float64
	// CacheTTL bounds the lifetime of exact-match cache entries; 0 keeps them
	// until the process exits.
	CacheTTL time.Duration
	Recorder Recorder
}

// Resolution is the outcome of resolving one raw name.
type Resolution struct {
	EntityID      uint
	Kind          entities.EntityKind
	NormalizedKey string
	Method        entities.ResolutionMethod
	Confidence    float64
	// MappingPersisted is false when the entity was resolved but the audit
	// mapping could not be written.
	MappingPersisted bool
}

// Resolver turns raw names into canonical entity IDs.
// It is safe for concurrent use.
type Resolver struct {
	store    Store
	log      logger.Logger
	cfg      Config
	recorder Recorder

	// exact-match cache: "kind:normalized key" -> entity ID
	cache *cache.Cache
}

// ResolveOption customises a single Resolve call.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	threshold float64
}

// WithThreshold overrides the similarity threshold for one call.
func WithThreshold(threshold float64) ResolveOption {
	return func(o *resolveOptions) {
		o.threshold = threshold
	}
}

// NewResolver creates a Resolver on top of store.
func NewResolver(store Store, log logger.Logger, cfg Config) *Resolver {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	if cfg.ItemThreshold <= 0 {
		cfg.ItemThreshold = DefaultItemThreshold
	}
	if cfg.CategoryThreshold <= 0 {
		cfg.CategoryThreshold = DefaultCategoryThreshold
	}

	ttl := cfg.CacheTTL
	cleanup := 2 * ttl
	if ttl <= 0 {
		ttl = cache.NoExpiration
		cleanup = 0
	}

	return &Resolver{
		store:    store,
		log:      log.Module("canonical"),
		cfg:      cfg,
		recorder: cfg.Recorder,
		cache:    cache.New(ttl, cleanup),
	}
}

// Threshold returns the configured default threshold for kind.
func (r *Resolver) Threshold(kind entities.EntityKind) float64 {
	if kind == entities.KindCategory {
		return r.cfg.CategoryThreshold
	}
	return r.cfg.ItemThreshold
}

func cacheKey(kind entities.EntityKind, key string) string {
	return string(kind) + ":" + key
}

// Resolve returns the canonical entity for rawName, creating one when no
// existing mapping or sufficiently similar entity exists.
//
// An empty raw name, or one that normalizes to nothing, yields (nil, nil)
// without touching the store. Failing to create the canonical entity is
// returned as an error; failing to write the mapping is logged and the
// resolution is still returned.
func (r *Resolver) Resolve(ctx context.Context, kind entities.EntityKind, rawName string, opts ...ResolveOption) (*Resolution, error) {
	if !kind.Valid() {
		return nil, errors.Newf("unknown entity kind %q", kind).
			Component("canonical").
			Category(errors.CategoryValidation).
			Build()
	}

	key, ok := Normalize(rawName)
	if !ok {
		return nil, nil
	}

	options := resolveOptions{threshold: r.Threshold(kind)}
	for _, opt := range opts {
		opt(&options)
	}

	start := time.Now()
	log := r.log.WithContext(ctx).With(logger.String("kind", kind.String()), logger.String("key", key))

	// Step 1: exact match, cache first then store.
	if id, found := r.cache.Get(cacheKey(kind, key)); found {
		res := &Resolution{EntityID: id.(uint), Kind: kind, NormalizedKey: key, Method: entities.MethodExact, Confidence: 1, MappingPersisted: true}
		r.recordResolution(res, start)
		return res, nil
	}

	mapping, err := r.store.FindMapping(ctx, kind, key)
	switch {
	case err == nil:
		r.cache.Set(cacheKey(kind, key), mapping.EntityID, cache.DefaultExpiration)
		res := &Resolution{EntityID: mapping.EntityID, Kind: kind, NormalizedKey: key, Method: entities.MethodExact, Confidence: 1, MappingPersisted: true}
		r.recordResolution(res, start)
		return res, nil
	case !errors.Is(err, repository.ErrMappingNotFound):
		return nil, r.fail(kind, key, StageLookup, err)
	}

	// Step 2: fuzzy scan.
	candidates, err := r.store.ListEntities(ctx, kind)
	if err != nil {
		return nil, r.fail(kind, key, StageFuzzyScan, err)
	}
	best, bestScore := bestCandidate(key, candidates)

	// Step 3: accept the best candidate at or above the threshold.
	if best != nil && bestScore >= options.threshold {
		log.Debug("fuzzy match accepted",
			logger.String("canonical_name", best.CanonicalName),
			logger.Float64("score", bestScore),
			logger.Float64("threshold", options.threshold))
		res := r.persistMapping(ctx, log, rawName, &Resolution{
			EntityID:      best.ID,
			Kind:          kind,
			NormalizedKey: key,
			Method:        entities.MethodFuzzy,
			Confidence:    bestScore,
		})
		r.recordResolution(res, start)
		return res, nil
	}

	// Step 4: create a new canonical entity.
	displayName := DisplayName(kind, rawName, key)
	normalizedName, ok := Normalize(displayName)
	if !ok {
		displayName, normalizedName = rawName, key
	}

	entity, created, err := r.store.CreateEntityIfAbsent(ctx, kind, displayName, normalizedName)
	if err != nil {
		return nil, r.fail(kind, key, StageCreateEntity, err)
	}

	method := entities.MethodCreated
	if created {
		log.Info("canonical entity created",
			logger.String("canonical_name", entity.CanonicalName),
			logger.Uint64("entity_id", uint64(entity.ID)))
	} else {
		// A concurrent resolver, or another raw spelling, already created it.
		method = entities.MethodExact
	}

	res := r.persistMapping(ctx, log, rawName, &Resolution{
		EntityID:      entity.ID,
		Kind:          kind,
		NormalizedKey: key,
		Method:        method,
		Confidence:    1,
	})
	r.recordResolution(res, start)
	return res, nil
}

// bestCandidate returns the highest scoring candidate. Ties keep the first
// candidate seen, so the store's iteration order decides them.
func bestCandidate(key string, candidates []*repository.CanonicalEntity) (*repository.CanonicalEntity, float64) {
	var best *repository.CanonicalEntity
	bestScore := 0.0
	for _, candidate := range candidates {
		if candidate == nil || candidate.NormalizedName == "" {
			continue
		}
		score := Similarity(key, candidate.NormalizedName)
		if best == nil || score > bestScore {
			best, bestScore = candidate, score
		}
	}
	return best, bestScore
}

// persistMapping writes the audit mapping for res. A write failure is logged
// and leaves res valid. When another writer stored a mapping for the same key
// first, its entity wins so every caller agrees with the store.
func (r *Resolver) persistMapping(ctx context.Context, log logger.Logger, rawName string, res *Resolution) *Resolution {
	created, err := r.store.CreateMappingIfAbsent(ctx, res.Kind, &repository.NameMapping{
		RawName:           rawName,
		NormalizedRawName: res.NormalizedKey,
		EntityID:          res.EntityID,
		Method:            res.Method,
		Confidence:        res.Confidence,
	})
	if err != nil {
		log.Warn("failed to write name mapping",
			logger.String("stage", StageWriteMapping),
			logger.Uint64("entity_id", uint64(res.EntityID)),
			logger.Error(err))
		if r.recorder != nil {
			r.recorder.RecordMappingWriteFailure(res.Kind.String())
		}
		return res
	}

	res.MappingPersisted = true

	if !created {
		stored, findErr := r.store.FindMapping(ctx, res.Kind, res.NormalizedKey)
		if findErr != nil {
			// The stored entity is unknown, so the cache must not guess it.
			log.Warn("failed to read back existing name mapping",
				logger.Uint64("entity_id", uint64(res.EntityID)),
				logger.Error(findErr))
			return res
		}
		if stored.EntityID != res.EntityID {
			log.Debug("mapping already written by another resolver",
				logger.Uint64("entity_id", uint64(stored.EntityID)))
			res.EntityID = stored.EntityID
			res.Method = entities.MethodExact
			res.Confidence = 1
		}
	}

	r.cache.Set(cacheKey(res.Kind, res.NormalizedKey), res.EntityID, cache.DefaultExpiration)
	return res
}

func (r *Resolver) fail(kind entities.EntityKind, key, stage string, err error) error {
	if r.recorder != nil {
		r.recorder.RecordResolutionError(kind.String(), stage)
	}
	return errors.New(fmt.Errorf("resolve %s %q: %s: %w", kind, key, stage, err)).
		Component("canonical").
		Category(errors.CategoryResolution).
		Context("kind", kind.String()).
		Context("stage", stage).
		Context("operation", "resolve_"+stage).
		Build()
}

func (r *Resolver) recordResolution(res *Resolution, start time.Time) {
	if r.recorder != nil {
		r.recorder.RecordResolution(res.Kind.String(), string(res.Method), time.Since(start))
	}
}

// ResolveLineItem resolves the item and category names of one line item.
// Either ID is nil when its name is empty or its resolution failed; all
// failures are returned joined.
func (r *Resolver) ResolveLineItem(ctx context.Context, itemName, categoryName string) (itemID, categoryID *uint, err error) {
	var errs []error

	if res, resErr := r.Resolve(ctx, entities.KindItem, itemName); resErr != nil {
		errs = append(errs, resErr)
	} else if res != nil {
		id := res.EntityID
		itemID = &id
	}

	if res, resErr := r.Resolve(ctx, entities.KindCategory, categoryName); resErr != nil {
		errs = append(errs, resErr)
	} else if res != nil {
		id := res.EntityID
		categoryID = &id
	}

	return itemID, categoryID, errors.Join(errs...)
}

// Purge drops every exact-match cache entry.
func (r *Resolver) Purge() {
	r.cache.Flush()
}
