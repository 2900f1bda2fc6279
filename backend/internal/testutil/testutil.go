// Package testutil общие помощники для тестов: in-memory БД и справочники.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobboard/backend/internal/models"
	"jobboard/backend/internal/storage"
)

var dbSeq atomic.Int64

// NewDB in-memory SQLite с применённой схемой
func NewDB(t *testing.T) *storage.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&_pragma=foreign_keys(1)&_time_format=sqlite", dbSeq.Add(1))
	db, err := storage.NewDatabase(storage.DriverSQLite, dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

// Seed наполняет справочники
func Seed(t *testing.T, db *storage.Database, c storage.Catalog, items ...models.CatalogItem) {
	t.Helper()
	require.NoError(t, storage.NewCatalogRepository(db.Conn()).Upsert(context.Background(), c, items...))
}

// SeedDefaults типовой набор справочников
func SeedDefaults(t *testing.T, db *storage.Database) {
	t.Helper()
	Seed(t, db, storage.CatalogLocations,
		models.CatalogItem{ID: 1, Name: "Berlin"},
		models.CatalogItem{ID: 2, Name: "Lisbon"},
	)
	Seed(t, db, storage.CatalogSkills,
		models.CatalogItem{ID: 1, Name: "Go"},
		models.CatalogItem{ID: 2, Name: "PostgreSQL"},
		models.CatalogItem{ID: 3, Name: "Python"},
		models.CatalogItem{ID: 4, Name: "PHP"},
		models.CatalogItem{ID: 5, Name: "Perl"},
		models.CatalogItem{ID: 6, Name: "Pascal"},
		models.CatalogItem{ID: 7, Name: "Prolog"},
		models.CatalogItem{ID: 8, Name: "Rust"},
	)
	Seed(t, db, storage.CatalogBenefits,
		models.CatalogItem{ID: 1, Name: "Health insurance"},
		models.CatalogItem{ID: 2, Name: "Remote budget"},
	)
	Seed(t, db, storage.CatalogCategories,
		models.CatalogItem{ID: 1, Name: "Engineering"},
		models.CatalogItem{ID: 2, Name: "Design"},
	)
}
