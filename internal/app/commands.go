package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"travel_recommender/internal/adapters/observability"
	"travel_recommender/internal/domain"
	"travel_recommender/internal/recommend"
	"travel_recommender/internal/shared"
)

type SeedService struct {
	search   domain.HotelSearchClient
	repo     domain.DestinationRepository
	model    *recommend.ClusterModel
	currency string
	workers  int
}

func NewSeedService(c domain.HotelSearchClient, r domain.DestinationRepository, m *recommend.ClusterModel, currency string, workers int) *SeedService {
	if workers <= 0 {
		workers = 1
	}
	return &SeedService{search: c, repo: r, model: m, currency: currency, workers: workers}
}

// FetchLocation pulls the first result page for one location and maps it.
func (s *SeedService) FetchLocation(ctx context.Context, loc shared.Location) ([]domain.Destination, error) {
	res, err := s.search.SearchHotels(ctx, loc.GeoID, 1, s.currency)
	if err != nil {
		return nil, fmt.Errorf("search %s (geo %d): %w", loc.City, loc.GeoID, err)
	}
	return mapHotels(loc, res), nil
}

// Seed replaces the destination set with fresh hotel-search results for locs.
// Per-location failures are logged and skipped; when nothing at all comes back
// the built-in fallback list is stored instead. Returns the number of stored
// destinations.
func (s *SeedService) Seed(ctx context.Context, locs []shared.Location) (int, error) {
	// 1) Fan out with bounded concurrency; keep per-location results in input order.
	perLoc := make([][]domain.Destination, len(locs))
	sem := semaphore.NewWeighted(int64(s.workers))
	var wg sync.WaitGroup

	for i, loc := range locs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return 0, err
		}
		wg.Add(1)
		go func(i int, loc shared.Location) {
			defer wg.Done()
			defer sem.Release(1)

			ds, err := s.FetchLocation(ctx, loc)
			if err != nil {
				log.Warn().Str("city", loc.City).Str("kind", observability.LabelErr(errors.Unwrap(err))).Err(err).Msg("location fetch failed")
				return
			}
			perLoc[i] = ds
			log.Info().Str("city", loc.City).Int("destinations", len(ds)).Msg("location fetched")
		}(i, loc)
	}
	wg.Wait()

	var all []domain.Destination
	for _, ds := range perLoc {
		all = append(all, ds...)
	}

	// 2) Nothing fetched (API down, bad key, empty areas): seed the fallback list.
	if len(all) == 0 {
		log.Warn().Msg("no data fetched from hotel search; seeding fallback destinations")
		all = FallbackDestinations()
	}

	// 3) Replace the whole set.
	if err := s.repo.ReplaceDestinations(ctx, all); err != nil {
		return 0, fmt.Errorf("replace destinations: %w", err)
	}

	// 4) Assignments are derived from the set as of the last training pass.
	if s.model != nil && s.model.Config().Staleness == recommend.StaleRetrain {
		if err := s.retrain(ctx); err != nil {
			return len(all), err
		}
	}
	return len(all), nil
}

// retrain reloads the stored set (ids are assigned by the store) and trains on it.
func (s *SeedService) retrain(ctx context.Context) error {
	stored, err := s.repo.ListDestinations(ctx)
	if err != nil {
		return fmt.Errorf("reload destinations: %w", err)
	}
	if _, err := s.model.Train(ctx, stored); err != nil {
		if errors.Is(err, domain.ErrInsufficientData) {
			log.Warn().Msg("destination set is empty; cluster model not retrained")
			return nil
		}
		return fmt.Errorf("retrain cluster model: %w", err)
	}
	return nil
}
