package shared

import "travel_recommender/internal/domain"

// Location is a hotel-search area the seeder pulls destinations from.
type Location struct {
	City    string
	GeoID   int64
	Climate domain.Climate
}

// Locations seeded by cmd/seeder. GeoIDs are TripAdvisor location ids.
var Locations = []Location{
	{City: "Lagos", GeoID: 304026, Climate: domain.ClimateTropical},
	{City: "Abuja", GeoID: 293794, Climate: domain.ClimateSavannah},
	{City: "Port Harcourt", GeoID: 317037, Climate: domain.ClimateTropical},
	{City: "Kano", GeoID: 317046, Climate: domain.ClimateArid},
	{City: "Jos", GeoID: 480194, Climate: domain.ClimateTemperate},
	{City: "Calabar", GeoID: 317039, Climate: domain.ClimateTropical},
}
