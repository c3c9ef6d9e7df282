package storage

import (
	"sort"
	"sync"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
)

// MemoryStorage keeps everything in process memory
type MemoryStorage struct {
	settings map[string]string
	reports  map[string]*models.Report
	activity []models.Activity
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		settings: make(map[string]string),
		reports:  make(map[string]*models.Report),
	}
}

func (s *MemoryStorage) GetSetting(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStorage) SetSetting(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *MemoryStorage) SaveReport(report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = report.Clone()
	return nil
}

func (s *MemoryStorage) GetReport(id string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return report.Clone(), nil
}

func (s *MemoryStorage) ListReports(limit int) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]*models.Report, 0, len(s.reports))
	for _, report := range s.reports {
		reports = append(reports, report.Clone())
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

func (s *MemoryStorage) AppendActivity(activity models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, activity)
	return nil
}

func (s *MemoryStorage) ListActivity(limit int) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.activity)
	if limit > 0 && n > limit {
		n = limit
	}
	activity := make([]models.Activity, 0, n)
	for i := len(s.activity) - 1; i >= 0 && len(activity) < n; i-- {
		activity = append(activity, s.activity[i])
	}
	return activity, nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
