package storage

import (
	"sort"
	"sync"
)

// In memory implementation of Storage below

type MemoryStorage struct {
	mutex        sync.Mutex
	observations []*Observation
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		observations: []*Observation{},
	}
}

func (s *MemoryStorage) WriteObservation(o *Observation) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cp := *o
	cp.ObservedAt = cp.ObservedAt.UTC()
	s.observations = append(s.observations, &cp)
	return nil
}

func (s *MemoryStorage) ListObservations(filter ListObservationsFilter) ([]*Observation, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	observations := []*Observation{}
	for i := len(s.observations) - 1; i >= 0; i-- {
		o := s.observations[i]
		if filter.StopID != "" && o.StopID != filter.StopID {
			continue
		}
		cp := *o
		observations = append(observations, &cp)
	}

	// Stable, so equal timestamps keep most recently written first.
	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].ObservedAt.After(observations[j].ObservedAt)
	})

	if filter.Limit > 0 && len(observations) > filter.Limit {
		observations = observations[:filter.Limit]
	}

	return observations, nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
