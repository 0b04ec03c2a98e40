package recommend

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"travel_recommender/internal/adapters/observability"
	"travel_recommender/internal/domain"
)

// StalenessPolicy decides what happens when the destination set drifts away
// from the set the artifact was trained on.
type StalenessPolicy string

const (
	// StaleAccept keeps using the artifact until someone retrains explicitly.
	StaleAccept StalenessPolicy = "accept"
	// StaleFingerprint retrains in LoadOrTrain when the destination fingerprint changed.
	StaleFingerprint StalenessPolicy = "fingerprint"
	// StaleRetrain retrains whenever the destination set is replaced (see app.SeedService).
	StaleRetrain StalenessPolicy = "retrain"
)

func ParseStalenessPolicy(s string) StalenessPolicy {
	switch StalenessPolicy(s) {
	case StaleFingerprint, StaleRetrain:
		return StalenessPolicy(s)
	}
	return StaleAccept
}

type ModelConfig struct {
	Clusters  int
	Seed      uint64
	AutoTrain bool
	Staleness StalenessPolicy
	// Refresh is how often LoadOrTrain re-reads the store for an artifact
	// saved by another process. Zero checks on every call; negative never does.
	Refresh time.Duration
}

func DefaultModelConfig() ModelConfig {
	return ModelConfig{Clusters: 5, Seed: 42, AutoTrain: true, Staleness: StaleAccept, Refresh: 30 * time.Second}
}

// DestinationSource yields the full destination set for training.
type DestinationSource func(ctx context.Context) ([]domain.Destination, error)

// ClusterModel owns the cluster artifact: training, persistence, reload and
// prediction. It is Untrained until Train or Load succeeds. Training runs as a
// single flight, so concurrent cold starts share one pass and one write.
type ClusterModel struct {
	store domain.ModelStore
	cfg   ModelConfig
	now   func() time.Time

	mu      sync.RWMutex
	art     *domain.ClusterArtifact
	checked time.Time // last store read, guarded by mu

	flight singleflight.Group
	write  sync.Mutex
}

func NewClusterModel(store domain.ModelStore, cfg ModelConfig) *ClusterModel {
	if cfg.Clusters <= 0 {
		cfg.Clusters = 5
	}
	if cfg.Staleness == "" {
		cfg.Staleness = StaleAccept
	}
	return &ClusterModel{store: store, cfg: cfg, now: time.Now}
}

func (m *ClusterModel) Config() ModelConfig { return m.cfg }

func (m *ClusterModel) IsTrained() bool {
	_, ok := m.current()
	return ok
}

func (m *ClusterModel) current() (domain.ClusterArtifact, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.art == nil {
		return domain.ClusterArtifact{}, false
	}
	return *m.art, true
}

func (m *ClusterModel) install(a domain.ClusterArtifact) {
	m.mu.Lock()
	m.art = &a
	m.checked = m.now()
	m.mu.Unlock()
}

// installOver replaces the current artifact only if it is still the one with
// version prev, so a slow store read cannot undo a newer local install.
func (m *ClusterModel) installOver(prev string, a domain.ClusterArtifact) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.art != nil && m.art.Version != prev {
		return false
	}
	m.art = &a
	m.checked = m.now()
	return true
}

// Train fits the model over ds, persists it and makes it current.
//
// Concurrent callers share one flight: a caller joining a pass already in
// progress gets the artifact trained on the first caller's ds. The flight
// ignores the first caller's cancellation so it cannot fail the joiners.
func (m *ClusterModel) Train(ctx context.Context, ds []domain.Destination) (domain.ClusterArtifact, error) {
	fctx := context.WithoutCancel(ctx)
	v, err, _ := m.flight.Do("train", func() (any, error) {
		return m.train(fctx, ds)
	})
	if err != nil {
		return domain.ClusterArtifact{}, err
	}
	return v.(domain.ClusterArtifact), nil
}

func (m *ClusterModel) train(ctx context.Context, ds []domain.Destination) (domain.ClusterArtifact, error) {
	start := m.now()
	a, err := Fit(ds, m.cfg.Clusters, m.cfg.Seed)
	if err != nil {
		return domain.ClusterArtifact{}, err
	}
	a.Version = uuid.NewString()
	a.TrainedAt = start.UTC()

	m.write.Lock()
	defer m.write.Unlock()
	if m.store != nil {
		if err := m.store.SaveModel(ctx, a); err != nil {
			observability.ObserveTraining("save_failed", time.Since(start))
			return domain.ClusterArtifact{}, domain.Degrade("save_model", err)
		}
	}
	m.install(a)

	observability.ObserveTraining("ok", time.Since(start))
	log.Info().
		Str("version", a.Version).
		Int("destinations", len(ds)).
		Int("clusters", len(a.Centroids)).
		Dur("duration", time.Since(start)).
		Msg("cluster model trained")
	return a, nil
}

// Fit encodes and standardizes ds and clusters it. It is pure: identical
// input, k and seed give an identical artifact apart from Version and TrainedAt.
func Fit(ds []domain.Destination, k int, seed uint64) (domain.ClusterArtifact, error) {
	if len(ds) == 0 {
		return domain.ClusterArtifact{}, domain.ErrInsufficientData
	}
	if k <= 0 {
		return domain.ClusterArtifact{}, fmt.Errorf("%w: %d clusters", domain.ErrInvalidArgument, k)
	}
	x := make([][]float64, len(ds))
	for i, d := range ds {
		x[i] = Encode(d)
	}
	st := fitStandardizer(x)
	z := make([][]float64, len(x))
	for i := range x {
		z[i] = st.transform(x[i])
	}
	res := fitKMeans(z, k, seed)

	labels := make(map[int64]int, len(ds))
	for i, d := range ds {
		labels[d.ID] = res.labels[i]
	}
	return domain.ClusterArtifact{
		Fingerprint: Fingerprint(ds),
		Seed:        seed,
		Mean:        st.mean,
		Scale:       st.scale,
		Centroids:   res.centroids,
		Labels:      labels,
	}, nil
}

// Load reads the persisted artifact and makes it current.
func (m *ClusterModel) Load(ctx context.Context) (domain.ClusterArtifact, error) {
	if m.store == nil {
		return domain.ClusterArtifact{}, domain.ErrModelUnavailable
	}
	a, err := m.store.LoadModel(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ClusterArtifact{}, domain.ErrModelUnavailable
	}
	if err != nil {
		return domain.ClusterArtifact{}, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	if err := validateArtifact(a); err != nil {
		return domain.ClusterArtifact{}, err
	}
	m.install(a)
	return a, nil
}

// LoadOrTrain returns the current artifact, loading it from the store or
// training synchronously when none exists. Once per Refresh interval it also
// picks up an artifact another process saved. src is only called when training
// or a fingerprint check needs the full destination set.
//
// Callers should use the returned artifact for the whole request (PredictWith
// and its Labels) rather than reading the model again.
func (m *ClusterModel) LoadOrTrain(ctx context.Context, src DestinationSource) (domain.ClusterArtifact, error) {
	a, ok := m.current()
	if ok {
		a = m.refresh(ctx, a)
	}
	if ok && m.cfg.Staleness != StaleFingerprint {
		return a, nil
	}
	if !ok {
		var err error
		a, err = m.Load(ctx)
		switch {
		case err == nil:
			ok = true
		case !errors.Is(err, domain.ErrModelUnavailable):
			return domain.ClusterArtifact{}, err
		case !m.cfg.AutoTrain:
			return domain.ClusterArtifact{}, err
		}
	}
	if ok && m.cfg.Staleness != StaleFingerprint {
		return a, nil
	}

	ds, err := src(ctx)
	if err != nil {
		return domain.ClusterArtifact{}, domain.Degrade("list_destinations", err)
	}
	if ok && a.Fingerprint == Fingerprint(ds) {
		return a, nil
	}
	if ok {
		if !m.cfg.AutoTrain {
			// stale but usable
			return a, nil
		}
		log.Info().Str("version", a.Version).Msg("destination set changed; retraining cluster model")
	}
	return m.Train(ctx, ds)
}

// refresh re-reads the store when the refresh interval elapsed and installs
// the persisted artifact if its version differs from cur. Store errors keep cur.
func (m *ClusterModel) refresh(ctx context.Context, cur domain.ClusterArtifact) domain.ClusterArtifact {
	if m.store == nil || m.cfg.Refresh < 0 {
		return cur
	}
	m.mu.Lock()
	if m.cfg.Refresh > 0 && m.now().Sub(m.checked) < m.cfg.Refresh {
		m.mu.Unlock()
		return cur
	}
	m.checked = m.now()
	m.mu.Unlock()

	a, err := m.store.LoadModel(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && ctx.Err() == nil {
			log.Warn().Err(err).Str("version", cur.Version).Msg("cluster model refresh failed; keeping current artifact")
		}
		return cur
	}
	if a.Version == cur.Version {
		return cur
	}
	if err := validateArtifact(a); err != nil {
		log.Warn().Err(err).Str("version", a.Version).Msg("persisted cluster model rejected")
		return cur
	}
	if !m.installOver(cur.Version, a) {
		got, _ := m.current()
		return got
	}
	log.Info().Str("from", cur.Version).Str("to", a.Version).Msg("picked up persisted cluster model")
	return a
}

// Predict returns the cluster label nearest to p, using the persisted
// standardizer and centroids.
func (m *ClusterModel) Predict(p domain.PreferenceProfile) (int, error) {
	a, ok := m.current()
	if !ok {
		return 0, domain.ErrModelUnavailable
	}
	return PredictWith(a, p)
}

func PredictWith(a domain.ClusterArtifact, p domain.PreferenceProfile) (int, error) {
	if err := validateArtifact(a); err != nil {
		return 0, err
	}
	st := standardizer{mean: a.Mean, scale: a.Scale}
	return nearest(st.transform(EncodeProfile(p)), a.Centroids), nil
}

// Label returns the training-time label of a destination.
func (m *ClusterModel) Label(id int64) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.art == nil {
		return 0, false
	}
	l, ok := m.art.Labels[id]
	return l, ok
}

// Status summarizes the current artifact against ds.
func (m *ClusterModel) Status(ds []domain.Destination) domain.ModelStatus {
	a, ok := m.current()
	if !ok {
		return domain.ModelStatus{}
	}
	at := a.TrainedAt
	return domain.ModelStatus{
		Trained:   true,
		Version:   a.Version,
		TrainedAt: &at,
		Size:      len(a.Labels),
		Stale:     a.Fingerprint != Fingerprint(ds),
		Clusters:  Stats(a, ds),
	}
}

func validateArtifact(a domain.ClusterArtifact) error {
	if len(a.Mean) != FeatureCount || len(a.Scale) != FeatureCount || len(a.Centroids) == 0 {
		return fmt.Errorf("%w: malformed artifact", domain.ErrModelUnavailable)
	}
	for _, s := range a.Scale {
		if s == 0 {
			return fmt.Errorf("%w: zero feature scale", domain.ErrModelUnavailable)
		}
	}
	for _, c := range a.Centroids {
		if len(c) != FeatureCount {
			return fmt.Errorf("%w: malformed centroid", domain.ErrModelUnavailable)
		}
	}
	return nil
}

// Fingerprint identifies a destination set by the fields the encoder reads.
func Fingerprint(ds []domain.Destination) string {
	rows := make([]string, 0, len(ds))
	for _, d := range ds {
		r := "-"
		if d.Rating != nil {
			r = strconv.FormatFloat(*d.Rating, 'g', -1, 64)
		}
		rows = append(rows, strconv.FormatInt(d.ID, 10)+"|"+string(d.Budget)+"|"+string(d.Climate)+"|"+r)
	}
	sort.Strings(rows)
	h := sha1.New()
	for _, r := range rows {
		h.Write([]byte(r))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
