package storage

import (
	"time"

	"suumo-scraper/models"
)

// SnapshotWriter persists the latest snapshot and the per-run-date history
// artifact.
type SnapshotWriter interface {
	WriteSnapshot(records []*models.Record, runDate string, fetchedAt time.Time) error
}

// StoreWriter persists one run into the relational store and its run ledger.
type StoreWriter interface {
	WriteRun(records []*models.Record, runDate string) error
	Close() error
}
