package store

import "github.com/JosephStocks/roberthalf-scraper/internal/model"

// NopStore is a no-op store used in dry-run mode. Nothing is persisted, so
// every job counts as new on every run.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) RecordRun(result *model.AggregateResult) ([]model.Job, error) {
	return result.Jobs, nil
}
func (s *NopStore) IsEmpty() (bool, error) { return false, nil }
func (s *NopStore) Close() error           { return nil }
