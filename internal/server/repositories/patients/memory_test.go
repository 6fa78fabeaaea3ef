package patients

import (
	"context"
	"testing"
	"time"

	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *MemoryRepository {
	t.Helper()
	r := NewMemoryRepository()
	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	for i, p := range []models.Patient{
		{ID: "1", FirstName: "Asha", LastName: "Rao", Phone: "100", Address: "MG Road, Pune"},
		{ID: "2", FirstName: "Ravi", LastName: "Rao", Phone: "200", Address: "Park Street, Kolkata"},
		{ID: "3", FirstName: "Sasha", LastName: "Iyer", Phone: "300", Address: "Church Street, Bengaluru"},
	} {
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, r.Create(context.Background(), &p))
	}
	return r
}

func ids(ps []*models.Patient) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestMemory_ListNewestFirst(t *testing.T) {
	got, err := seed(t).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "1"}, ids(got))
}

func TestMemory_SearchByName(t *testing.T) {
	r := seed(t)
	ctx := context.Background()

	got, err := r.SearchByName(ctx, "SHA", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1"}, ids(got))

	got, err = r.SearchByName(ctx, "sha", "rao")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(got))

	got, err = r.SearchByName(ctx, "", "rao")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, ids(got))
}

func TestMemory_SearchByAddress(t *testing.T) {
	got, err := seed(t).SearchByAddress(context.Background(), "street")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2"}, ids(got))
}

func TestMemory_UniquePhone(t *testing.T) {
	r := seed(t)
	ctx := context.Background()

	err := r.Create(ctx, &models.Patient{ID: "4", Phone: "100"})
	assert.ErrorIs(t, err, common.ErrDuplicatePhone)

	p, err := r.Get(ctx, "2")
	require.NoError(t, err)
	p.Phone = "300"
	assert.ErrorIs(t, r.Update(ctx, p), common.ErrDuplicatePhone)

	p.Phone = "200"
	p.FirstName = "Ravindra"
	require.NoError(t, r.Update(ctx, p), "keeping own phone is fine")
}

func TestMemory_UpdateKeepsCreatedAt(t *testing.T) {
	r := seed(t)
	ctx := context.Background()

	before, err := r.Get(ctx, "1")
	require.NoError(t, err)
	require.NoError(t, r.Update(ctx, &models.Patient{ID: "1", FirstName: "A", Phone: "100"}))

	after, err := r.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Equal(t, "A", after.FirstName)
}

func TestMemory_DeleteAndNotFound(t *testing.T) {
	r := seed(t)
	ctx := context.Background()

	require.NoError(t, r.Delete(ctx, "1"))
	assert.ErrorIs(t, r.Delete(ctx, "1"), common.ErrorNotFound)
	_, err := r.Get(ctx, "1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, r.Update(ctx, &models.Patient{ID: "1"}), common.ErrorNotFound)
}
