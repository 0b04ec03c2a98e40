package app_test

import (
	"context"
	"sync"

	"travel_recommender/internal/domain"
	"travel_recommender/internal/recommend"
)

// ---- fakes ----

type fakeRepo struct {
	mu    sync.Mutex
	ds    []domain.Destination
	err   error
	finds int
}

func (f *fakeRepo) ReplaceDestinations(ctx context.Context, ds []domain.Destination) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.ds = make([]domain.Destination, len(ds))
	for i, d := range ds {
		d.ID = int64(i + 1)
		f.ds[i] = d
	}
	return nil
}

func (f *fakeRepo) ListDestinations(ctx context.Context) ([]domain.Destination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Destination(nil), f.ds...), nil
}

func (f *fakeRepo) FindDestinations(ctx context.Context, q domain.DestinationQuery) ([]domain.Destination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return recommend.Filter(f.ds, q), nil
}

type fakeModelStore struct {
	mu    sync.Mutex
	art   *domain.ClusterArtifact
	saves int
}

func (s *fakeModelStore) LoadModel(ctx context.Context) (domain.ClusterArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.art == nil {
		return domain.ClusterArtifact{}, domain.ErrNotFound
	}
	return *s.art, nil
}

func (s *fakeModelStore) SaveModel(ctx context.Context, a domain.ClusterArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.art = &a
	return nil
}

type fakeSearch struct {
	byGeo map[int64][]map[string]any
	fail  map[int64]error
}

func (f *fakeSearch) SearchHotels(ctx context.Context, geoID int64, page int, currency string) ([]map[string]any, error) {
	if err := f.fail[geoID]; err != nil {
		return nil, err
	}
	return f.byGeo[geoID], nil
}

func pfloat(f float64) *float64 { return &f }
func pstr(s string) *string     { return &s }

func seedSet() []domain.Destination {
	return []domain.Destination{
		{ID: 1, Name: "1. Eko Hotel", City: "Lagos", Budget: domain.BudgetHigh, Climate: domain.ClimateTropical, Rating: pfloat(4.6), Price: pstr("NGN250000")},
		{ID: 2, Name: "Ibis Ikeja", City: "Lagos", Budget: domain.BudgetMedium, Climate: domain.ClimateTropical, Rating: pfloat(4.1), Price: pstr("NGN 95,000")},
		{ID: 3, Name: "Lagos Budget Inn", City: "Lagos", Budget: domain.BudgetLow, Climate: domain.ClimateTropical, Rating: pfloat(3.2)},
		{ID: 4, Name: "Transcorp Hilton", City: "Abuja", Budget: domain.BudgetHigh, Climate: domain.ClimateSavannah, Rating: pfloat(4.5)},
		{ID: 5, Name: "Bolton White", City: "Abuja", Budget: domain.BudgetMedium, Climate: domain.ClimateSavannah, Rating: pfloat(3.8)},
		{ID: 6, Name: "Tahir Guest Palace", City: "Kano", Budget: domain.BudgetMedium, Climate: domain.ClimateArid, Rating: pfloat(3.6)},
		{ID: 7, Name: "Kano Guest Inn", City: "Kano", Budget: domain.BudgetLow, Climate: domain.ClimateArid, Rating: pfloat(3.0)},
		{ID: 8, Name: "Hill Station", City: "Jos", Budget: domain.BudgetLow, Climate: domain.ClimateTemperate, Rating: pfloat(3.3)},
		{ID: 9, Name: "Crispan Suites", City: "Jos", Budget: domain.BudgetMedium, Climate: domain.ClimateTemperate},
		{ID: 10, Name: "Marina Resort", City: "Calabar", Budget: domain.BudgetMedium, Climate: domain.ClimateTropical, Rating: pfloat(4.0)},
		{ID: 11, Name: "Tinapa Lakeside", City: "Calabar", Budget: domain.BudgetHigh, Climate: domain.ClimateTropical, Rating: pfloat(4.2)},
		{ID: 12, Name: "Channel View", City: "Calabar", Budget: domain.BudgetLow, Climate: domain.ClimateTropical},
	}
}
