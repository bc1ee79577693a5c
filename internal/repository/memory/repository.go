package memory

import (
	"sync"

	"github.com/omarshaarawi/superliga/internal/models"
)

// Repository holds the latest refresh snapshot and the lazily loaded player
// directory. A snapshot is replaced as a whole, never patched.
type Repository struct {
	report    *models.Report
	trades    []models.TransactionRecord
	state     *models.SportState
	directory models.PlayerDirectory
	mu        sync.RWMutex
}

func NewRepository() *Repository {
	return &Repository{}
}

// SaveSnapshot stores a refresh report together with the completed trades
// read during the same refresh.
func (r *Repository) SaveSnapshot(report *models.Report, trades []models.TransactionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report = report
	r.trades = trades
}

func (r *Repository) GetReport() *models.Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.report
}

func (r *Repository) GetTrades() []models.TransactionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trades
}

func (r *Repository) SaveState(state *models.SportState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
}

func (r *Repository) GetState() *models.SportState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Repository) SavePlayers(directory models.PlayerDirectory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.directory = directory
}

// GetPlayers returns the cached directory, nil until one was saved.
func (r *Repository) GetPlayers() models.PlayerDirectory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.directory
}
