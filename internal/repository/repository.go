package repository

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/one-spear/internal/database"
)

const dateLayout = "2006-01-02"

// Repositories holds the Postgres-backed repository implementations
type Repositories struct {
	Outcomes       OutcomeStore
	Snapshots      SnapshotRepository
	BacktestResult BacktestResultRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB, log *logrus.Logger) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Outcomes:       NewPostgresOutcomeStore(db, log),
		Snapshots:      NewPostgresSnapshotRepository(db),
		BacktestResult: NewPostgresBacktestResultRepository(db),
	}, nil
}

// dayBounds converts an inclusive [start, end] day range to a half-open one
func dayBounds(start, end time.Time) (string, string) {
	return start.UTC().Format(dateLayout), end.UTC().AddDate(0, 0, 1).Format(dateLayout)
}
