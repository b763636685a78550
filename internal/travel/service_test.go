package travel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormadvisor/stormadvisor/internal/travel"
	"github.com/stormadvisor/stormadvisor/internal/weather"
)

// mockDirectionsProvider is a mock directions/geocoding provider for testing.
type mockDirectionsProvider struct {
	routes       []travel.Route
	routesErr    error
	geocoded     travel.Coordinate
	geocodeErr   error
	geocodeCalls int
}

func (m *mockDirectionsProvider) GetWalkingDirections(_ context.Context, _, _ travel.Coordinate) ([]travel.Route, error) {
	if m.routesErr != nil {
		return nil, m.routesErr
	}
	return m.routes, nil
}

func (m *mockDirectionsProvider) Geocode(_ context.Context, _ string) (travel.Coordinate, error) {
	m.geocodeCalls++
	if m.geocodeErr != nil {
		return travel.Coordinate{}, m.geocodeErr
	}
	return m.geocoded, nil
}

func (m *mockDirectionsProvider) Name() string { return "mock-directions" }

func newTestService(provider *mockDirectionsProvider) *travel.Service {
	return travel.NewService(travel.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})
}

func walkingRoute(durationSec, distanceMeters int, steps ...travel.Step) travel.Route {
	return travel.Route{
		DurationSeconds: durationSec,
		DistanceMeters:  distanceMeters,
		Steps:           steps,
	}
}

var (
	origin = travel.Coordinate{Lat: 40.7128, Lon: -74.0060}
	dest   = travel.Coordinate{Lat: 40.7306, Lon: -73.9866}
)

func TestDerive_BasicRoute(t *testing.T) {
	provider := &mockDirectionsProvider{
		routes: []travel.Route{
			walkingRoute(1800, 2000,
				travel.Step{Instruction: "Head north on Broadway", TravelMode: "WALKING", DurationSeconds: 900},
				travel.Step{Instruction: "Turn right onto Canal St", TravelMode: "WALKING", DurationSeconds: 900},
			),
		},
	}
	svc := newTestService(provider)

	data, err := svc.Derive(context.Background(), origin, "East Village", &dest)

	require.NoError(t, err)
	require.NotNil(t, data.BaselineMinutes)
	assert.Equal(t, 30, *data.BaselineMinutes)
	require.NotNil(t, data.DistanceMiles)
	assert.InDelta(t, 1.2, *data.DistanceMiles, 0.01)
	assert.Equal(t, travel.DistanceShortTransit, data.DistanceCategory)
	assert.False(t, data.FerryOnlyRoute)
	require.NotNil(t, data.BestRoute)
	assert.Equal(t, "Head north on Broadway, then turn right onto Canal St (about 30 min)", *data.BestRoute)
	// Storm projection is applied separately, after the weather fetch.
	assert.Nil(t, data.StormMinutes)
}

func TestDerive_SuppliedCoordsSkipGeocoding(t *testing.T) {
	provider := &mockDirectionsProvider{
		routes: []travel.Route{walkingRoute(600, 500, travel.Step{Instruction: "Walk east"})},
	}
	svc := newTestService(provider)

	_, err := svc.Derive(context.Background(), origin, "somewhere", &dest)

	require.NoError(t, err)
	assert.Equal(t, 0, provider.geocodeCalls)
}

func TestDerive_GeocodesWhenCoordsMissing(t *testing.T) {
	provider := &mockDirectionsProvider{
		geocoded: dest,
		routes:   []travel.Route{walkingRoute(600, 500, travel.Step{Instruction: "Walk east"})},
	}
	svc := newTestService(provider)

	_, err := svc.Derive(context.Background(), origin, "East Village", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, provider.geocodeCalls)
}

func TestDerive_GeocodeFailureIsHardStop(t *testing.T) {
	provider := &mockDirectionsProvider{geocodeErr: errors.New("no results")}
	svc := newTestService(provider)

	data, err := svc.Derive(context.Background(), origin, "nowhere", nil)

	assert.Nil(t, data)
	assert.ErrorIs(t, err, travel.ErrGeocodeFailed)
}

func TestDerive_DirectionsFailureIsHardStop(t *testing.T) {
	provider := &mockDirectionsProvider{routesErr: errors.New("upstream down")}
	svc := newTestService(provider)

	data, err := svc.Derive(context.Background(), origin, "East Village", &dest)

	assert.Nil(t, data)
	assert.Error(t, err)
}

func TestDerive_NoRoutesIsHardStop(t *testing.T) {
	provider := &mockDirectionsProvider{routes: []travel.Route{}}
	svc := newTestService(provider)

	data, err := svc.Derive(context.Background(), origin, "East Village", &dest)

	assert.Nil(t, data)
	assert.ErrorIs(t, err, travel.ErrNoRouteFound)
}

func TestDerive_FerryOnlyIsFirstClassOutcome(t *testing.T) {
	provider := &mockDirectionsProvider{
		routes: []travel.Route{
			walkingRoute(1200, 1000, travel.Step{Instruction: "Take the ferry to Manhattan", TravelMode: "FERRY"}),
			walkingRoute(1500, 1100, travel.Step{Instruction: "Board the water taxi", TravelMode: "WALKING"}),
		},
	}
	svc := newTestService(provider)

	data, err := svc.Derive(context.Background(), origin, "Governors Island", &dest)

	require.NoError(t, err)
	assert.True(t, data.FerryOnlyRoute)
	assert.Nil(t, data.BaselineMinutes)
	assert.Nil(t, data.StormMinutes)
	assert.Nil(t, data.DistanceMiles)
	assert.Equal(t, travel.DistanceUnknown, data.DistanceCategory)
	assert.Empty(t, data.RelevantLines)
	assert.Empty(t, data.RouteSteps)
}

func TestDerive_SkipsWaterAlternatives(t *testing.T) {
	provider := &mockDirectionsProvider{
		routes: []travel.Route{
			walkingRoute(1200, 1000, travel.Step{Instruction: "Take the ferry", TravelMode: "FERRY"}),
			walkingRoute(2400, 3000, travel.Step{Instruction: "Walk over the bridge", TravelMode: "WALKING"}),
		},
	}
	svc := newTestService(provider)

	data, err := svc.Derive(context.Background(), origin, "Dumbo", &dest)

	require.NoError(t, err)
	assert.False(t, data.FerryOnlyRoute)
	require.NotNil(t, data.BaselineMinutes)
	assert.Equal(t, 40, *data.BaselineMinutes)
}

func TestDerive_DistanceBucketBoundaries(t *testing.T) {
	// Buckets are decided on the unrounded mileage; meters chosen to land
	// exactly on the documented boundary cases.
	tests := []struct {
		name   string
		meters int
		want   travel.DistanceCategory
	}{
		{"0.79 miles is walkable", 1271, travel.DistanceWalkable},
		{"0.8 miles is short transit", 1288, travel.DistanceShortTransit},
		{"2.99 miles is short transit", 4812, travel.DistanceShortTransit},
		{"3.0 miles is long transit", 4829, travel.DistanceLongTransit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockDirectionsProvider{
				routes: []travel.Route{
					walkingRoute(600, tt.meters, travel.Step{Instruction: "Walk"}),
				},
			}
			svc := newTestService(provider)

			data, err := svc.Derive(context.Background(), origin, "x", &dest)

			require.NoError(t, err)
			assert.Equal(t, tt.want, data.DistanceCategory)
		})
	}
}

func TestApplyStormProjection(t *testing.T) {
	tests := []struct {
		name     string
		baseline int
		severity weather.Severity
		want     int
	}{
		{"none keeps baseline", 30, weather.SeverityNone, 30},
		{"light", 30, weather.SeverityLight, 39},
		{"moderate", 30, weather.SeverityModerate, 51},
		{"severe", 30, weather.SeveritySevere, 66},
		{"extreme", 30, weather.SeverityExtreme, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseline := tt.baseline
			route := "Walk north (about 30 min)"
			data := &travel.Data{
				BaselineMinutes:  &baseline,
				BestRoute:        &route,
				DistanceCategory: travel.DistanceShortTransit,
			}

			data.ApplyStormProjection(tt.severity)

			require.NotNil(t, data.StormMinutes)
			assert.Equal(t, tt.want, *data.StormMinutes)
		})
	}
}

func TestApplyStormProjection_FerryOnlyIsNoOp(t *testing.T) {
	data := travel.FerryOnlyData()

	data.ApplyStormProjection(weather.SeverityExtreme)

	assert.Nil(t, data.StormMinutes)
}

func TestApplyStormProjection_NilReceiverIsSafe(t *testing.T) {
	var data *travel.Data
	assert.NotPanics(t, func() {
		data.ApplyStormProjection(weather.SeveritySevere)
	})
}

func TestApplyStormProjection_FallbackDescription(t *testing.T) {
	baseline := 12
	data := &travel.Data{
		BaselineMinutes:  &baseline,
		DistanceCategory: travel.DistanceWalkable,
	}

	data.ApplyStormProjection(weather.SeveritySevere)

	require.NotNil(t, data.BestRoute)
	assert.Equal(t, "A short walk, but conditions are rough", *data.BestRoute)
}

func TestDerive_ExtractsRelevantLines(t *testing.T) {
	provider := &mockDirectionsProvider{
		routes: []travel.Route{
			walkingRoute(2400, 4000,
				travel.Step{Instruction: "Take the A/C/E line downtown", TravelMode: "TRANSIT"},
				travel.Step{Instruction: "Transfer to the 7 train at Times Square", TravelMode: "TRANSIT"},
				travel.Step{Instruction: "Take the X train", TravelMode: "TRANSIT"},
			),
		},
	}
	svc := newTestService(provider)

	data, err := svc.Derive(context.Background(), origin, "Queens", &dest)

	require.NoError(t, err)
	// X is not a real line and must be dropped; the rest dedupe in order.
	assert.Equal(t, []string{"A", "C", "E", "7"}, data.RelevantLines)
}

func TestDerive_CarriesAtMostSixSteps(t *testing.T) {
	steps := make([]travel.Step, 0, 9)
	for i := 0; i < 9; i++ {
		steps = append(steps, travel.Step{Instruction: "Continue straight", DurationSeconds: 60})
	}
	provider := &mockDirectionsProvider{
		routes: []travel.Route{walkingRoute(540, 700, steps...)},
	}
	svc := newTestService(provider)

	data, err := svc.Derive(context.Background(), origin, "x", &dest)

	require.NoError(t, err)
	assert.Len(t, data.RouteSteps, 6)
}

func TestDerive_SingleStepDescription(t *testing.T) {
	provider := &mockDirectionsProvider{
		routes: []travel.Route{
			walkingRoute(300, 400, travel.Step{Instruction: "Walk two blocks north"}),
		},
	}
	svc := newTestService(provider)

	data, err := svc.Derive(context.Background(), origin, "x", &dest)

	require.NoError(t, err)
	require.NotNil(t, data.BestRoute)
	assert.Equal(t, "Walk two blocks north (about 5 min)", *data.BestRoute)
}

func TestDerive_ArrivalStepsExcludedFromDescription(t *testing.T) {
	provider := &mockDirectionsProvider{
		routes: []travel.Route{
			walkingRoute(600, 800,
				travel.Step{Instruction: "Head south on 5th Ave"},
				travel.Step{Instruction: "Arrive at destination"},
			),
		},
	}
	svc := newTestService(provider)

	data, err := svc.Derive(context.Background(), origin, "x", &dest)

	require.NoError(t, err)
	require.NotNil(t, data.BestRoute)
	assert.Equal(t, "Head south on 5th Ave (about 10 min)", *data.BestRoute)
}
