package domain

import "time"

// Budget is the fixed budget-category enumeration shared by destinations and profiles.
type Budget string

const (
	BudgetLow     Budget = "Low"
	BudgetMedium  Budget = "Medium"
	BudgetHigh    Budget = "High"
	BudgetUnknown Budget = "Unknown"
)

// Climate is the fixed climate enumeration. Values outside the known set are
// still stored verbatim; the feature encoder maps them to a fallback ordinal.
type Climate string

const (
	ClimateTropical  Climate = "Tropical"
	ClimateSavannah  Climate = "Savannah"
	ClimateArid      Climate = "Arid"
	ClimateTemperate Climate = "Temperate"
)

type Destination struct {
	ID       int64
	Name     string // raw form may carry a leading ordinal ("3. Bali")
	City     string
	Climate  Climate
	Budget   Budget
	Info     *string
	Rating   *float64 // nil means unknown, not zero
	Price    *string  // raw, e.g. "NGN 120,000"
	ImageURL *string
}

// PreferenceProfile is the user's desired budget, climate and minimum rating.
type PreferenceProfile struct {
	Budget    Budget   `json:"budget"`
	Climate   Climate  `json:"climate"`
	MinRating *float64 `json:"min_rating,omitempty"`
}

// DefaultProfile is the profile a session starts with before any filter is submitted.
func DefaultProfile() PreferenceProfile {
	r := 4.0
	return PreferenceProfile{Budget: BudgetMedium, Climate: ClimateTropical, MinRating: &r}
}

// ProfileFilter holds the optional fields of a filter submission.
// Empty strings and nil mean "omitted".
type ProfileFilter struct {
	Budget    Budget
	Climate   Climate
	MinRating *float64
}

func (f ProfileFilter) Empty() bool {
	return f.Budget == "" && f.Climate == "" && f.MinRating == nil
}

// DestinationQuery narrows the candidate set. Zero values pass every destination through.
type DestinationQuery struct {
	Budget    Budget
	Climate   Climate
	MinRating *float64
	Text      string // case-insensitive substring over name or city
}

// Read models

type DestinationView struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	City      string   `json:"city"`
	Climate   Climate  `json:"climate"`
	Budget    Budget   `json:"budget_category"`
	Info      *string  `json:"info,omitempty"`
	Rating    *float64 `json:"rating"`
	Price     *string  `json:"price"`
	Image     *string  `json:"image"`
	Score     float64  `json:"score"`
	InCluster bool     `json:"in_cluster"`
}

type RecommendationPage struct {
	Items      []DestinationView `json:"items"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	Total      int               `json:"total"`
	Clustered  bool              `json:"clustered"`
	Degraded   []string          `json:"degraded,omitempty"`
}

// ClusterArtifact is the persisted output of a training pass.
type ClusterArtifact struct {
	Version     string        `json:"version"`
	Fingerprint string        `json:"fingerprint"`
	TrainedAt   time.Time     `json:"trained_at"`
	Seed        uint64        `json:"seed"`
	Mean        []float64     `json:"mean"`
	Scale       []float64     `json:"scale"`
	Centroids   [][]float64   `json:"centroids"`
	Labels      map[int64]int `json:"labels"`
}

type ClusterStat struct {
	Label      int     `json:"label"`
	Count      int     `json:"count"`
	AvgBudget  float64 `json:"avg_budget"`
	AvgClimate float64 `json:"avg_climate"`
	AvgRating  float64 `json:"avg_rating"`
}

type ModelStatus struct {
	Trained   bool          `json:"trained"`
	Version   string        `json:"version,omitempty"`
	TrainedAt *time.Time    `json:"trained_at,omitempty"`
	Size      int           `json:"size"`
	Stale     bool          `json:"stale"`
	Clusters  []ClusterStat `json:"clusters,omitempty"`
}
