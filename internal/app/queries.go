package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"travel_recommender/internal/adapters/observability"
	"travel_recommender/internal/domain"
	"travel_recommender/internal/recommend"
)

// DefaultSession keys the profile of callers that do not identify a session.
const DefaultSession = "default"

type Options struct {
	PageSize        int
	Currency        string
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// RecommendationService runs the recommendation pipeline: candidate retrieval,
// normalization, scoring, cluster partition, ranking and pagination.
type RecommendationService struct {
	repo     domain.DestinationRepository
	model    *recommend.ClusterModel
	profiles domain.ProfileStore
	breaker  *gobreaker.CircuitBreaker[[]domain.Destination]
	pageSize int
	currency string
}

func NewRecommendationService(r domain.DestinationRepository, m *recommend.ClusterModel, p domain.ProfileStore, opt Options) *RecommendationService {
	if opt.PageSize <= 0 {
		opt.PageSize = 5
	}
	if opt.Currency == "" {
		opt.Currency = "NGN"
	}
	if opt.BreakerFailures == 0 {
		opt.BreakerFailures = 5
	}
	if opt.BreakerTimeout <= 0 {
		opt.BreakerTimeout = 30 * time.Second
	}
	if p == nil {
		p = NewMemoryProfileStore()
	}
	cb := gobreaker.NewCircuitBreaker[[]domain.Destination](gobreaker.Settings{
		Name:    "destination-store",
		Timeout: opt.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opt.BreakerFailures
		},
		// a caller hanging up says nothing about store health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return &RecommendationService{
		repo:     r,
		model:    m,
		profiles: p,
		breaker:  cb,
		pageSize: opt.PageSize,
		currency: opt.Currency,
	}
}

// Home ranks every destination against the session's current profile.
func (s *RecommendationService) Home(ctx context.Context, session string, page int) (domain.RecommendationPage, error) {
	p := s.Profile(ctx, session)
	return s.recommend(ctx, "home", p, domain.DestinationQuery{}, page)
}

// Suggest filters by the submitted criteria and folds them into the session
// profile; omitted fields keep their last-known value.
func (s *RecommendationService) Suggest(ctx context.Context, session string, f domain.ProfileFilter, page int) (domain.RecommendationPage, error) {
	p := recommend.MergeProfile(s.Profile(ctx, session), f)
	if err := s.profiles.PutProfile(ctx, sessionOrDefault(session), p); err != nil {
		log.Warn().Err(err).Str("session", session).Msg("profile save failed")
	}
	q := domain.DestinationQuery{Budget: f.Budget, Climate: f.Climate, MinRating: f.MinRating}
	return s.recommend(ctx, "suggest", p, q, page)
}

// Search matches term against name or city, ranked against the current profile.
func (s *RecommendationService) Search(ctx context.Context, session, term string, page int) (domain.RecommendationPage, error) {
	p := s.Profile(ctx, session)
	return s.recommend(ctx, "search", p, domain.DestinationQuery{Text: term}, page)
}

// Profile returns the session's last-known profile, or the default one.
func (s *RecommendationService) Profile(ctx context.Context, session string) domain.PreferenceProfile {
	p, ok, err := s.profiles.GetProfile(ctx, sessionOrDefault(session))
	if err != nil {
		log.Warn().Err(err).Str("session", session).Msg("profile load failed; using default profile")
	}
	if !ok {
		return domain.DefaultProfile()
	}
	return p
}

func (s *RecommendationService) recommend(ctx context.Context, entry string, p domain.PreferenceProfile, q domain.DestinationQuery, page int) (domain.RecommendationPage, error) {
	if page < 1 {
		page = 1
	}
	out := domain.RecommendationPage{Page: page}

	// 1) candidates
	cands, err := s.candidates(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if !domain.IsRecoverable(err) {
			return out, err
		}
		log.Warn().Err(err).Str("entry", entry).Msg("destination query failed; continuing with no candidates")
		observability.ObserveDegraded("store")
		out.Degraded = append(out.Degraded, "store")
	}
	cands = recommend.Filter(cands, q)

	// 2) normalize + score
	views := make([]domain.DestinationView, 0, len(cands))
	for _, d := range cands {
		views = append(views, recommend.View(d, p, s.currency))
	}

	// 3) cluster partition
	if len(views) > 0 {
		label, labels, err := s.predict(ctx, p)
		switch {
		case err == nil:
			recommend.MarkCluster(views, label, labels)
			out.Clustered = true
		case ctx.Err() != nil:
			return out, ctx.Err()
		case domain.IsRecoverable(err):
			log.Warn().Err(err).Str("entry", entry).Msg("cluster prediction unavailable; ranking by score only")
			observability.ObserveDegraded("cluster")
			out.Degraded = append(out.Degraded, "cluster")
		default:
			return out, err
		}
	}

	// 4) rank + paginate
	items, pages, err := recommend.Paginate(recommend.Rank(views), page, s.pageSize)
	if err != nil {
		return out, err
	}
	out.Items, out.TotalPages, out.Total = items, pages, len(views)
	observability.ObserveRecommendation(entry, out.Clustered)
	return out, nil
}

// predict returns p's cluster and the label table of the same artifact, so a
// concurrent retrain cannot mix labels from two artifacts in one response.
func (s *RecommendationService) predict(ctx context.Context, p domain.PreferenceProfile) (int, map[int64]int, error) {
	if s.model == nil {
		return 0, nil, domain.ErrModelUnavailable
	}
	a, err := s.model.LoadOrTrain(ctx, s.allDestinations)
	if err != nil {
		return 0, nil, err
	}
	label, err := recommend.PredictWith(a, p)
	if err != nil {
		return 0, nil, err
	}
	return label, a.Labels, nil
}

func (s *RecommendationService) candidates(ctx context.Context, q domain.DestinationQuery) ([]domain.Destination, error) {
	ds, err := s.breaker.Execute(func() ([]domain.Destination, error) {
		return s.repo.FindDestinations(ctx, q)
	})
	if err != nil {
		return nil, domain.Degrade("find_destinations", err)
	}
	return ds, nil
}

func (s *RecommendationService) allDestinations(ctx context.Context) ([]domain.Destination, error) {
	ds, err := s.breaker.Execute(func() ([]domain.Destination, error) {
		return s.repo.ListDestinations(ctx)
	})
	if err != nil {
		return nil, domain.Degrade("list_destinations", err)
	}
	return ds, nil
}

// TrainModel retrains the cluster model on the full destination set.
func (s *RecommendationService) TrainModel(ctx context.Context) (domain.ModelStatus, error) {
	if s.model == nil {
		return domain.ModelStatus{}, domain.ErrModelUnavailable
	}
	ds, err := s.allDestinations(ctx)
	if err != nil {
		return domain.ModelStatus{}, err
	}
	if _, err := s.model.Train(ctx, ds); err != nil {
		return domain.ModelStatus{}, err
	}
	return s.model.Status(ds), nil
}

// ModelStatus reports the current artifact (loading it if persisted) with
// per-cluster statistics over the current destination set.
func (s *RecommendationService) ModelStatus(ctx context.Context) (domain.ModelStatus, error) {
	if s.model == nil {
		return domain.ModelStatus{}, nil
	}
	if !s.model.IsTrained() {
		if _, err := s.model.Load(ctx); err != nil && !errors.Is(err, domain.ErrModelUnavailable) {
			return domain.ModelStatus{}, err
		}
	}
	ds, err := s.allDestinations(ctx)
	if err != nil {
		return domain.ModelStatus{}, err
	}
	return s.model.Status(ds), nil
}

func sessionOrDefault(s string) string {
	if s == "" {
		return DefaultSession
	}
	return s
}
