package recommend_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"travel_recommender/internal/domain"
	"travel_recommender/internal/recommend"
)

type memModelStore struct {
	mu    sync.Mutex
	art   *domain.ClusterArtifact
	saves int32
	loads int32
	err   error
}

func (s *memModelStore) LoadModel(ctx context.Context) (domain.ClusterArtifact, error) {
	atomic.AddInt32(&s.loads, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.art == nil {
		return domain.ClusterArtifact{}, domain.ErrNotFound
	}
	return *s.art, nil
}

func (s *memModelStore) SaveModel(ctx context.Context, a domain.ClusterArtifact) error {
	atomic.AddInt32(&s.saves, 1)
	if s.err != nil {
		return s.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.art = &a
	s.mu.Unlock()
	return nil
}

func sampleDestinations() []domain.Destination {
	return []domain.Destination{
		{ID: 1, Name: "Eko Hotel", Budget: domain.BudgetHigh, Climate: domain.ClimateTropical, Rating: pfloat(4.6)},
		{ID: 2, Name: "Lagos Continental", Budget: domain.BudgetHigh, Climate: domain.ClimateTropical, Rating: pfloat(4.4)},
		{ID: 3, Name: "Ibis Ikeja", Budget: domain.BudgetMedium, Climate: domain.ClimateTropical, Rating: pfloat(3.9)},
		{ID: 4, Name: "Transcorp Hilton", Budget: domain.BudgetHigh, Climate: domain.ClimateSavannah, Rating: pfloat(4.5)},
		{ID: 5, Name: "Bolton White", Budget: domain.BudgetMedium, Climate: domain.ClimateSavannah, Rating: pfloat(3.8)},
		{ID: 6, Name: "Kano Guest Inn", Budget: domain.BudgetLow, Climate: domain.ClimateArid, Rating: pfloat(3.1)},
		{ID: 7, Name: "Tahir Guest Palace", Budget: domain.BudgetMedium, Climate: domain.ClimateArid, Rating: pfloat(3.6)},
		{ID: 8, Name: "Hill Station", Budget: domain.BudgetLow, Climate: domain.ClimateTemperate, Rating: pfloat(3.0)},
		{ID: 9, Name: "Crispan Suites", Budget: domain.BudgetMedium, Climate: domain.ClimateTemperate},
		{ID: 10, Name: "Unknown Lodge", Budget: domain.BudgetUnknown, Climate: "Desert"},
	}
}

func source(ds []domain.Destination, calls *int32) recommend.DestinationSource {
	return func(ctx context.Context) ([]domain.Destination, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return ds, nil
	}
}

func mustFit(t *testing.T, ds []domain.Destination, k int, seed uint64) domain.ClusterArtifact {
	t.Helper()
	a, err := recommend.Fit(ds, k, seed)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	return a
}

func TestFit_Deterministic(t *testing.T) {
	ds := sampleDestinations()
	a := mustFit(t, ds, 4, 42)
	b := mustFit(t, ds, 4, 42)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same input and seed gave different artifacts")
	}
	if len(a.Centroids) != 4 || len(a.Labels) != len(ds) {
		t.Fatalf("unexpected artifact shape: %d centroids, %d labels", len(a.Centroids), len(a.Labels))
	}
	for id, l := range a.Labels {
		if l < 0 || l >= 4 {
			t.Fatalf("label %d for %d out of range", l, id)
		}
	}
}

func TestFit_CapsClustersAtPointCount(t *testing.T) {
	ds := sampleDestinations()[:2]
	a := mustFit(t, ds, 5, 1)
	if len(a.Centroids) != 2 {
		t.Fatalf("expected k capped at 2, got %d", len(a.Centroids))
	}
}

func TestFit_ConstantColumnHasUnitScale(t *testing.T) {
	ds := []domain.Destination{
		{ID: 1, Budget: domain.BudgetLow, Climate: domain.ClimateArid, Rating: pfloat(4)},
		{ID: 2, Budget: domain.BudgetHigh, Climate: domain.ClimateArid, Rating: pfloat(4)},
	}
	a := mustFit(t, ds, 2, 7)
	if a.Scale[1] != 1 || a.Scale[2] != 1 {
		t.Fatalf("constant columns must get scale 1, got %v", a.Scale)
	}
	if _, err := recommend.PredictWith(a, domain.DefaultProfile()); err != nil {
		t.Fatalf("predict after constant column: %v", err)
	}
}

func TestFit_RejectsEmptySetAndBadK(t *testing.T) {
	if _, err := recommend.Fit(nil, 3, 1); !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := recommend.Fit(sampleDestinations(), 0, 1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for k=0, got %v", err)
	}
}

func TestClusterModel_TrainPredict(t *testing.T) {
	ctx := context.Background()
	store := &memModelStore{}
	m := recommend.NewClusterModel(store, recommend.DefaultModelConfig())

	if _, err := m.Predict(domain.DefaultProfile()); !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable before training, got %v", err)
	}
	if _, err := m.Train(ctx, nil); !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	ds := sampleDestinations()
	a, err := m.Train(ctx, ds)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if a.Version == "" || a.TrainedAt.IsZero() || !m.IsTrained() {
		t.Fatalf("artifact not installed: %+v", a)
	}
	if store.art == nil || store.art.Version != a.Version {
		t.Fatalf("artifact not persisted")
	}

	// a profile identical to a destination's features lands in that destination's cluster
	eko := ds[0]
	got, err := m.Predict(domain.PreferenceProfile{Budget: eko.Budget, Climate: eko.Climate, MinRating: eko.Rating})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if l, ok := m.Label(eko.ID); !ok || l != got {
		t.Fatalf("predicted %d, destination label %d (%v)", got, l, ok)
	}
	if _, ok := m.Label(999); ok {
		t.Fatalf("unknown destination must have no label")
	}
}

func TestClusterModel_SaveFailureIsRecoverable(t *testing.T) {
	store := &memModelStore{err: errors.New("disk full")}
	m := recommend.NewClusterModel(store, recommend.DefaultModelConfig())
	_, err := m.Train(context.Background(), sampleDestinations())
	if err == nil || !domain.IsRecoverable(err) {
		t.Fatalf("expected recoverable degraded error, got %v", err)
	}
	if m.IsTrained() {
		t.Fatalf("unsaved artifact must not become current")
	}
}

func TestClusterModel_LoadOrTrain(t *testing.T) {
	ctx := context.Background()
	ds := sampleDestinations()
	store := &memModelStore{}

	// cold start trains once and persists
	var calls int32
	m := recommend.NewClusterModel(store, recommend.DefaultModelConfig())
	first, err := m.LoadOrTrain(ctx, source(ds, &calls))
	if err != nil {
		t.Fatalf("cold start: %v", err)
	}
	if calls != 1 || store.saves != 1 {
		t.Fatalf("expected one read and one save, got %d reads %d saves", calls, store.saves)
	}

	// a fresh process reloads the persisted artifact without training
	calls = 0
	m2 := recommend.NewClusterModel(store, recommend.DefaultModelConfig())
	got, err := m2.LoadOrTrain(ctx, source(ds, &calls))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Version != first.Version || calls != 0 || store.saves != 1 {
		t.Fatalf("expected reload of %s without training, got %s (%d reads, %d saves)", first.Version, got.Version, calls, store.saves)
	}
	p := domain.DefaultProfile()
	l1, _ := m.Predict(p)
	l2, _ := m2.Predict(p)
	if l1 != l2 {
		t.Fatalf("reloaded model predicts %d, original %d", l2, l1)
	}
}

func TestClusterModel_NoAutoTrainFailsFast(t *testing.T) {
	cfg := recommend.DefaultModelConfig()
	cfg.AutoTrain = false
	var calls int32
	m := recommend.NewClusterModel(&memModelStore{}, cfg)
	_, err := m.LoadOrTrain(context.Background(), source(sampleDestinations(), &calls))
	if !errors.Is(err, domain.ErrModelUnavailable) || calls != 0 {
		t.Fatalf("expected ErrModelUnavailable without reading, got %v (%d reads)", err, calls)
	}
}

func TestClusterModel_FingerprintPolicyRetrainsOnDrift(t *testing.T) {
	ctx := context.Background()
	cfg := recommend.DefaultModelConfig()
	cfg.Staleness = recommend.StaleFingerprint
	store := &memModelStore{}
	m := recommend.NewClusterModel(store, cfg)

	ds := sampleDestinations()
	a, err := m.LoadOrTrain(ctx, source(ds, nil))
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	same, err := m.LoadOrTrain(ctx, source(ds, nil))
	if err != nil || same.Version != a.Version {
		t.Fatalf("unchanged set must not retrain: %v %s vs %s", err, same.Version, a.Version)
	}
	if st := m.Status(ds); st.Stale || !st.Trained || st.Size != len(ds) {
		t.Fatalf("unexpected status: %+v", st)
	}

	drifted := append(sampleDestinations(), domain.Destination{ID: 11, Budget: domain.BudgetLow, Climate: domain.ClimateTropical, Rating: pfloat(2)})
	if st := m.Status(drifted); !st.Stale {
		t.Fatalf("status must report drift")
	}
	b, err := m.LoadOrTrain(ctx, source(drifted, nil))
	if err != nil {
		t.Fatalf("retrain: %v", err)
	}
	if b.Version == a.Version || len(b.Labels) != len(drifted) || store.saves != 2 {
		t.Fatalf("expected retrain over %d destinations, got %+v (%d saves)", len(drifted), b.Labels, store.saves)
	}
}

func TestClusterModel_AcceptPolicyKeepsStaleArtifact(t *testing.T) {
	ctx := context.Background()
	store := &memModelStore{}
	m := recommend.NewClusterModel(store, recommend.DefaultModelConfig())
	a, err := m.Train(ctx, sampleDestinations())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	var calls int32
	drifted := sampleDestinations()[:5]
	got, err := m.LoadOrTrain(ctx, source(drifted, &calls))
	if err != nil || got.Version != a.Version || calls != 0 {
		t.Fatalf("accept policy must not retrain: %v %s (%d reads)", err, got.Version, calls)
	}
}

func TestClusterModel_ConcurrentTrainSavesOnce(t *testing.T) {
	store := &memModelStore{}
	m := recommend.NewClusterModel(store, recommend.DefaultModelConfig())
	ds := sampleDestinations()

	start := make(chan struct{})
	var wg sync.WaitGroup
	versions := make([]string, 8)
	for i := range versions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			a, err := m.LoadOrTrain(context.Background(), source(ds, nil))
			if err != nil {
				t.Errorf("load or train: %v", err)
				return
			}
			versions[i] = a.Version
		}(i)
	}
	close(start)
	wg.Wait()

	// callers either share the single flight or observe its persisted result
	if n := atomic.LoadInt32(&store.saves); n < 1 || n > int32(len(versions)) {
		t.Fatalf("unexpected save count %d", n)
	}
	for i, v := range versions {
		if v == "" {
			t.Fatalf("caller %d got no artifact", i)
		}
	}
	if !m.IsTrained() {
		t.Fatalf("model not trained after concurrent cold start")
	}
}

func TestPredictWith_RejectsMalformedArtifact(t *testing.T) {
	a := mustFit(t, sampleDestinations(), 3, 42)
	a.Scale[0] = 0
	if _, err := recommend.PredictWith(a, domain.DefaultProfile()); !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable for zero scale, got %v", err)
	}
	a = mustFit(t, sampleDestinations(), 3, 42)
	a.Centroids = nil
	if _, err := recommend.PredictWith(a, domain.DefaultProfile()); !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable for missing centroids, got %v", err)
	}
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	ds := sampleDestinations()
	rev := make([]domain.Destination, len(ds))
	for i, d := range ds {
		rev[len(ds)-1-i] = d
	}
	if recommend.Fingerprint(ds) != recommend.Fingerprint(rev) {
		t.Fatalf("fingerprint depends on order")
	}
	ds[0].Rating = pfloat(1)
	if recommend.Fingerprint(ds) == recommend.Fingerprint(rev) {
		t.Fatalf("fingerprint ignores rating change")
	}
}

func TestStats(t *testing.T) {
	ds := []domain.Destination{
		{ID: 1, Budget: domain.BudgetLow, Climate: domain.ClimateTropical, Rating: pfloat(4)},
		{ID: 2, Budget: domain.BudgetHigh, Climate: domain.ClimateTropical, Rating: pfloat(3)},
		{ID: 3, Budget: domain.BudgetMedium, Climate: domain.ClimateArid, Rating: pfloat(5)},
		{ID: 4, Budget: domain.BudgetMedium, Climate: domain.ClimateArid},
	}
	a := domain.ClusterArtifact{Labels: map[int64]int{1: 1, 2: 1, 3: 0}}
	got := recommend.Stats(a, ds)
	want := []domain.ClusterStat{
		{Label: 0, Count: 1, AvgBudget: 1, AvgClimate: 2, AvgRating: 5},
		{Label: 1, Count: 2, AvgBudget: 1, AvgClimate: 0, AvgRating: 3.5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Stats = %+v, want %+v", got, want)
	}
}

// reseeded mirrors a replace-all reseed: same hotels, fresh store ids.
func reseeded() []domain.Destination {
	ds := sampleDestinations()
	for i := range ds {
		ds[i].ID += 100
	}
	return ds
}

func TestClusterModel_PicksUpArtifactSavedByAnotherProcess(t *testing.T) {
	for _, policy := range []recommend.StalenessPolicy{recommend.StaleAccept, recommend.StaleRetrain} {
		t.Run(string(policy), func(t *testing.T) {
			ctx := context.Background()
			cfg := recommend.DefaultModelConfig()
			cfg.Staleness = policy
			cfg.Refresh = 0
			store := &memModelStore{}

			api := recommend.NewClusterModel(store, cfg)
			first, err := api.LoadOrTrain(ctx, source(sampleDestinations(), nil))
			if err != nil {
				t.Fatalf("api cold start: %v", err)
			}

			// a seeder process retrains on the reseeded set and saves to the shared store
			seeder := recommend.NewClusterModel(store, cfg)
			ds := reseeded()
			saved, err := seeder.Train(ctx, ds)
			if err != nil {
				t.Fatalf("seeder train: %v", err)
			}

			got, err := api.LoadOrTrain(ctx, source(ds, nil))
			if err != nil {
				t.Fatalf("api reload: %v", err)
			}
			if got.Version != saved.Version || got.Version == first.Version {
				t.Fatalf("api kept %s, store has %s", got.Version, saved.Version)
			}
			for _, d := range ds {
				if _, ok := got.Labels[d.ID]; !ok {
					t.Fatalf("reseeded destination %d has no label", d.ID)
				}
				if _, ok := api.Label(d.ID); !ok {
					t.Fatalf("installed artifact misses destination %d", d.ID)
				}
			}
		})
	}
}

func TestClusterModel_RefreshIntervalLimitsStoreReads(t *testing.T) {
	ctx := context.Background()
	store := &memModelStore{}
	m := recommend.NewClusterModel(store, recommend.DefaultModelConfig())
	if _, err := m.Train(ctx, sampleDestinations()); err != nil {
		t.Fatalf("train: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := m.LoadOrTrain(ctx, source(nil, nil)); err != nil {
			t.Fatalf("load or train: %v", err)
		}
	}
	if n := atomic.LoadInt32(&store.loads); n != 0 {
		t.Fatalf("expected no store reads inside the refresh interval, got %d", n)
	}

	cfg := recommend.DefaultModelConfig()
	cfg.Refresh = -1
	pinned := recommend.NewClusterModel(store, cfg)
	a, err := pinned.LoadOrTrain(ctx, source(nil, nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := recommend.NewClusterModel(store, cfg).Train(ctx, reseeded()); err != nil {
		t.Fatalf("train: %v", err)
	}
	if b, _ := pinned.LoadOrTrain(ctx, source(nil, nil)); b.Version != a.Version {
		t.Fatalf("negative refresh must never re-read the store")
	}
}

func TestClusterModel_RefreshRejectsMalformedArtifact(t *testing.T) {
	ctx := context.Background()
	cfg := recommend.DefaultModelConfig()
	cfg.Refresh = 0
	store := &memModelStore{}
	m := recommend.NewClusterModel(store, cfg)
	a, err := m.Train(ctx, sampleDestinations())
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	store.mu.Lock()
	store.art = &domain.ClusterArtifact{Version: "broken"} // fails validation
	store.mu.Unlock()

	got, err := m.LoadOrTrain(ctx, source(nil, nil))
	if err != nil || got.Version != a.Version {
		t.Fatalf("expected to keep %s, got %s (%v)", a.Version, got.Version, err)
	}
}

func TestClusterModel_TrainIgnoresCallerCancellation(t *testing.T) {
	store := &memModelStore{}
	m := recommend.NewClusterModel(store, recommend.DefaultModelConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := m.Train(ctx, sampleDestinations())
	if err != nil {
		t.Fatalf("a cancelled caller must not fail the shared training pass: %v", err)
	}
	if store.art == nil || store.art.Version != a.Version {
		t.Fatalf("artifact not persisted")
	}
}
