package itinerary_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zhouzirui/churai/backend/internal/model/trip"
	"github.com/zhouzirui/churai/backend/internal/service/itinerary"
)

func TestServiceLoadAndGet(t *testing.T) {
	svc := itinerary.NewService(zaptest.NewLogger(t))
	ctx := context.Background()

	editor := svc.Load(ctx, trip.Seed())
	got, err := svc.Get(ctx, editor.ID())
	require.NoError(t, err)
	require.Same(t, editor, got)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, itinerary.ErrTripNotFound)
}

func TestServiceCreateListDelete(t *testing.T) {
	svc := itinerary.NewService(zaptest.NewLogger(t))
	ctx := context.Background()

	seed := svc.Load(ctx, trip.Seed())
	created := svc.CreateTrip(ctx, "", "Lisbon")

	trips := svc.List(ctx)
	require.Len(t, trips, 2)
	require.Equal(t, seed.ID(), trips[0].ID)
	require.Equal(t, created.ID(), trips[1].ID)
	require.Equal(t, "My Trip to Lisbon", trips[1].Title)
	require.Empty(t, trips[1].Days)

	require.NoError(t, svc.Delete(ctx, seed.ID()))
	require.ErrorIs(t, svc.Delete(ctx, seed.ID()), itinerary.ErrTripNotFound)

	trips = svc.List(ctx)
	require.Len(t, trips, 1)
	require.Equal(t, created.ID(), trips[0].ID)
}

func TestServiceTripsAreIndependent(t *testing.T) {
	svc := itinerary.NewService(zaptest.NewLogger(t))
	ctx := context.Background()

	first := svc.Load(ctx, trip.Seed())
	second := svc.Load(ctx, trip.Seed())
	require.NotEqual(t, first.ID(), second.ID())

	act := first.View().Trip.Days[0].Activities[0]
	require.True(t, first.BeginEdit(act.ID))
	require.Empty(t, second.EditingID())
	require.False(t, second.BeginEdit(act.ID))
}
