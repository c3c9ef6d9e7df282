package storage

import (
	"errors"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
)

// Fixed keys of the settings table
const (
	KeySystemPrompt = "systemPrompt"
	KeyAPIKey       = "apiKey"
)

// ErrNotFound is returned when a setting or report does not exist
var ErrNotFound = errors.New("not found")

// Store persists settings, completed reports and the activity log
type Store interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error

	SaveReport(report *models.Report) error
	GetReport(id string) (*models.Report, error)
	// ListReports returns reports newest first. limit <= 0 means all.
	ListReports(limit int) ([]*models.Report, error)

	AppendActivity(activity models.Activity) error
	// ListActivity returns activity newest first. limit <= 0 means all.
	ListActivity(limit int) ([]models.Activity, error)

	Close() error
}

var (
	_ Store = (*MemoryStorage)(nil)
	_ Store = (*SQLiteStorage)(nil)
)
