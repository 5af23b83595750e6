package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
)

func TestDecrementStockGuardsAgainstOversell(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	item := dbtest.MustCreateItem(t, conn, "Mug", "12.00", "0", 3)
	ctx := context.Background()

	ok, err := repo.DecrementStock(ctx, item.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, dbtest.Stock(t, conn, item.ID))

	ok, err = repo.DecrementStock(ctx, item.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, dbtest.Stock(t, conn, item.ID))

	ok, err = repo.DecrementStock(ctx, item.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, dbtest.Stock(t, conn, item.ID))

	ok, err = repo.DecrementStock(ctx, uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestoreStock(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	item := dbtest.MustCreateItem(t, conn, "Cap", "8.00", "0", 0)

	require.NoError(t, repo.RestoreStock(context.Background(), item.ID, 4))
	assert.Equal(t, 4, dbtest.Stock(t, conn, item.ID))
}

func TestListFiltersUnavailable(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	dbtest.MustCreateItem(t, conn, "Banner", "5.00", "0", 1)
	hidden := dbtest.MustCreateItem(t, conn, "Amulet", "5.00", "0", 1)
	require.NoError(t, conn.Model(&models.CatalogItem{}).Where("id = ?", hidden.ID).Update("is_available", false).Error)

	all, err := repo.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Amulet", all[0].Name)

	available, err := repo.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "Banner", available[0].Name)
}

func TestFindByIDMissing(t *testing.T) {
	conn := dbtest.Open(t)
	_, err := NewRepository(conn).FindByID(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
