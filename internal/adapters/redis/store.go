package redisad

import (
	"context"

	"travel_recommender/internal/domain"
)

const modelKey = "model:cluster"

// ModelStore keeps the cluster artifact in Redis without expiry.
type ModelStore struct{ c domain.Cache }

func NewModelStore(c domain.Cache) *ModelStore { return &ModelStore{c: c} }

func (s *ModelStore) LoadModel(ctx context.Context) (domain.ClusterArtifact, error) {
	var a domain.ClusterArtifact
	ok, err := s.c.Get(ctx, modelKey, &a)
	if err != nil {
		return domain.ClusterArtifact{}, err
	}
	if !ok {
		return domain.ClusterArtifact{}, domain.ErrNotFound
	}
	return a, nil
}

func (s *ModelStore) SaveModel(ctx context.Context, a domain.ClusterArtifact) error {
	return s.c.Set(ctx, modelKey, a, 0)
}

// ProfileStore keeps the last-known preference profile per session.
type ProfileStore struct {
	c      domain.Cache
	ttlSec int
}

func NewProfileStore(c domain.Cache, ttlSec int) *ProfileStore {
	return &ProfileStore{c: c, ttlSec: ttlSec}
}

func profileKey(session string) string { return "profile:" + session }

func (s *ProfileStore) GetProfile(ctx context.Context, session string) (domain.PreferenceProfile, bool, error) {
	var p domain.PreferenceProfile
	ok, err := s.c.Get(ctx, profileKey(session), &p)
	if err != nil || !ok {
		return domain.PreferenceProfile{}, false, err
	}
	return p, true, nil
}

func (s *ProfileStore) PutProfile(ctx context.Context, session string, p domain.PreferenceProfile) error {
	return s.c.Set(ctx, profileKey(session), p, s.ttlSec)
}
