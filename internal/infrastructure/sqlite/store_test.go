package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// strictly increasing clock so ordering is deterministic
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func TestCreateAndListReports(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := &domain.IncidentReport{OwnerID: "u1", Category: "Flooding", Description: "Knee deep water", Lat: 19.07, Lon: 72.87}
	require.NoError(t, s.CreateReport(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, domain.ReportOpen, first.Status)
	assert.False(t, first.CreatedAt.IsZero())

	far := &domain.IncidentReport{OwnerID: "u2", Category: "Accident", Lat: 28.61, Lon: 77.20}
	require.NoError(t, s.CreateReport(ctx, far))

	all, err := s.ListReports(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, far.ID, all[0].ID, "newest first")
	assert.Equal(t, "Knee deep water", all[1].Description)
	assert.True(t, first.CreatedAt.Equal(all[1].CreatedAt))

	box := domain.BoxAround(domain.Coordinates{Lat: 19.076, Lon: 72.8777}, 5)
	near, err := s.ListReports(ctx, &box, 10)
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, first.ID, near[0].ID)

	limited, err := s.ListReports(ctx, nil, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListReports_EmptyIsNotNil(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ListReports(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUpdateReportStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r := &domain.IncidentReport{OwnerID: "u1", Category: "Road Works", Lat: 1, Lon: 1}
	require.NoError(t, s.CreateReport(ctx, r))

	updated, err := s.UpdateReportStatus(ctx, r.ID, "u1", domain.ReportResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportResolved, updated.Status)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = s.UpdateReportStatus(ctx, r.ID, "someone-else", domain.ReportOpen)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = s.UpdateReportStatus(ctx, "missing", "u1", domain.ReportOpen)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := s.ListReports(ctx, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportResolved, list[0].Status)
}

func TestSimulations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sim := &domain.Simulation{
		OwnerID:     "u1",
		Origin:      domain.Coordinates{Lat: 19.07, Lon: 72.87},
		Destination: domain.Coordinates{Lat: 19.2, Lon: 72.97},
		Status:      domain.SimulationCompleted,
		Result:      json.RawMessage(`{"route":{"lengthInMeters":1200}}`),
	}
	require.NoError(t, s.SaveSimulation(ctx, sim))
	require.NoError(t, s.SaveSimulation(ctx, &domain.Simulation{OwnerID: "u2", Status: domain.SimulationDegraded}))
	second := &domain.Simulation{OwnerID: "u1", Status: domain.SimulationDegraded}
	require.NoError(t, s.SaveSimulation(ctx, second))

	got, err := s.ListSimulations(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.JSONEq(t, "null", string(got[0].Result))
	assert.Equal(t, sim.Destination, got[1].Destination)
	assert.Equal(t, domain.SimulationCompleted, got[1].Status)
	assert.JSONEq(t, `{"route":{"lengthInMeters":1200}}`, string(got[1].Result))

	none, err := s.ListSimulations(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOpenInMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.CreateReport(context.Background(), &domain.IncidentReport{OwnerID: "a", Category: "Jam"}))
}
