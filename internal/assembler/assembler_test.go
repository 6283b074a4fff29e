package assembler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidelab/surfcast/internal/domain"
	"github.com/tidelab/surfcast/internal/observability"
)

// Tonfano coordinates: 12:00 UTC in June is mid-afternoon local, well
// inside the daylight window.
var (
	testGuard = domain.DaylightGuard{Lat: 43.9866, Lon: 10.2134}
	testNoon  = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
)

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
}

type stubBuoyResults struct {
	byStation map[domain.StationID]domain.BuoySnapshot
}

func (s stubBuoyResults) ForSpot(spot domain.Spot) (domain.BuoySnapshot, error) {
	b, ok := s.byStation[spot.BuoyStation]
	if !ok {
		return domain.BuoySnapshot{}, domain.ErrNoResultForSpot
	}
	return b, nil
}

type stubWeatherResults struct {
	bySpot map[int64]domain.WeatherRecord
}

func (s stubWeatherResults) ForSpot(spot domain.Spot) (domain.WeatherRecord, error) {
	w, ok := s.bySpot[spot.ID]
	if !ok {
		return domain.WeatherRecord{}, domain.ErrNoResultForSpot
	}
	return w, nil
}

type stubWebcamResults struct {
	bySpot map[int64]domain.WebcamCapture
}

func (s stubWebcamResults) ForSpot(spot domain.Spot) (domain.WebcamCapture, error) {
	c, ok := s.bySpot[spot.ID]
	if !ok {
		return domain.WebcamCapture{}, domain.ErrNoResultForSpot
	}
	return c, nil
}

type mockBuoySource struct {
	results BuoyResults
	err     error
	calls   int
}

func (m *mockBuoySource) FetchCurrent(_ context.Context, _ domain.SpotSet, _ time.Time) (BuoyResults, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockWeatherSource struct {
	results WeatherResults
	err     error
}

func (m *mockWeatherSource) FetchCurrent(_ context.Context, _ domain.SpotSet, _ time.Time) (WeatherResults, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockWebcamSource struct {
	results WebcamResults
	err     error
}

func (m *mockWebcamSource) FetchCurrent(_ context.Context, _ domain.SpotSet, _ time.Time) (WebcamResults, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockWriter struct {
	batches [][]domain.SnapshotData
	err     error
	block   chan struct{}
}

func (m *mockWriter) CreateSnapshots(_ context.Context, batch []domain.SnapshotData) ([]domain.SpotSnapshot, error) {
	if m.block != nil {
		<-m.block
	}
	m.batches = append(m.batches, batch)
	if m.err != nil {
		return nil, m.err
	}
	snapshots := make([]domain.SpotSnapshot, len(batch))
	for i, data := range batch {
		snapshots[i] = domain.SpotSnapshot{
			ID:      int64(i + 1),
			Spot:    data.Spot,
			Created: data.Taken,
			Buoy:    domain.BuoyRecord{ID: int64(i + 1), Created: data.Taken, BuoySnapshot: data.Buoy},
			Weather: data.Weather,
			Windy:   data.Windy,
			IPCam:   data.IPCam,
		}
	}
	return snapshots, nil
}

type mockPublisher struct {
	published []domain.SpotSnapshot
	err       error
}

func (m *mockPublisher) PublishSnapshots(_ context.Context, snapshots []domain.SpotSnapshot) error {
	m.published = append(m.published, snapshots...)
	return m.err
}

func testSpots() domain.SpotSet {
	return domain.SpotSet{
		{
			ID: 1, UID: "abc", Name: "Pontile Tonfano",
			Lat: "43.9866", Lon: "10.2134",
			BuoyStation:   domain.StationGorgona,
			WindyWebcamID: "1234567890",
			IPCamAlias:    "tonfano",
		},
		{
			ID: 2, UID: "def", Name: "Castiglione della Pescaia",
			Lat: "42.7614", Lon: "10.8807",
			BuoyStation: domain.StationGiannutri,
		},
	}
}

func testSources(spots domain.SpotSet) (Sources, *mockBuoySource, *mockWeatherSource) {
	buoySrc := &mockBuoySource{results: stubBuoyResults{byStation: map[domain.StationID]domain.BuoySnapshot{
		domain.StationGorgona:   {Station: domain.StationGorgona, AsOf: testNoon},
		domain.StationGiannutri: {Station: domain.StationGiannutri, AsOf: testNoon},
	}}}
	weatherSrc := &mockWeatherSource{results: stubWeatherResults{bySpot: map[int64]domain.WeatherRecord{
		1: {Lat: spots[0].Lat, Lon: spots[0].Lon, Temperature: "24.3"},
		2: {Lat: spots[1].Lat, Lon: spots[1].Lon, Temperature: "25.1"},
	}}}
	windySrc := &mockWebcamSource{results: stubWebcamResults{bySpot: map[int64]domain.WebcamCapture{
		1: {Provider: domain.WebcamProviderWindy, WebcamRef: "1234567890"},
	}}}
	ipcamSrc := &mockWebcamSource{results: stubWebcamResults{bySpot: map[int64]domain.WebcamCapture{
		1: {Provider: domain.WebcamProviderIPCam, WebcamRef: "tonfano"},
	}}}
	return Sources{Buoy: buoySrc, Weather: weatherSrc, Windy: windySrc, IPCam: ipcamSrc}, buoySrc, weatherSrc
}

func newTestAssembler(sources Sources, writer SnapshotWriter, publisher EventPublisher) *Assembler {
	logger := slog.New(slog.NewTextHandler(testWriter{}, nil))
	return New(sources, writer, publisher, testGuard, logger, observability.NewMetricsForTesting())
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestRun_AssemblesAllSpots(t *testing.T) {
	freezeClock(t, testNoon)
	spots := testSpots()
	sources, _, _ := testSources(spots)
	writer := &mockWriter{}
	publisher := &mockPublisher{}

	asm := newTestAssembler(sources, writer, publisher)
	snapshots, err := asm.Run(context.Background(), spots, false)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	require.Len(t, writer.batches, 1)
	batch := writer.batches[0]
	require.Len(t, batch, 2)

	assert.Equal(t, testNoon, batch[0].Taken)
	assert.Equal(t, domain.StationGorgona, batch[0].Buoy.Station)
	assert.Equal(t, "24.3", batch[0].Weather.Temperature)
	assert.Equal(t, domain.WebcamProviderWindy, batch[0].Windy.Provider)
	assert.Equal(t, domain.WebcamProviderIPCam, batch[0].IPCam.Provider)

	// Spot 2 has no webcams registered: both captures stay zero.
	assert.Equal(t, domain.StationGiannutri, batch[1].Buoy.Station)
	assert.Empty(t, batch[1].Windy.Provider)
	assert.Empty(t, batch[1].IPCam.Provider)

	assert.Len(t, publisher.published, 2)
}

func TestRun_WeatherFailureAbortsBatch(t *testing.T) {
	freezeClock(t, testNoon)
	spots := testSpots()
	sources, _, weatherSrc := testSources(spots)
	weatherSrc.err = domain.NewFetchError("weather", errors.New("upstream 500"))
	writer := &mockWriter{}

	asm := newTestAssembler(sources, writer, nil)
	_, err := asm.Run(context.Background(), spots, false)
	require.Error(t, err)

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "weather", fetchErr.Source)
	assert.Empty(t, writer.batches, "nothing persists when a required source fails")
}

func TestRun_WebcamFailureAbortsBatch(t *testing.T) {
	freezeClock(t, testNoon)
	spots := testSpots()
	sources, _, _ := testSources(spots)
	sources.Windy = &mockWebcamSource{err: domain.NewFetchError("windy", errors.New("timeout"))}
	writer := &mockWriter{}

	asm := newTestAssembler(sources, writer, nil)
	_, err := asm.Run(context.Background(), spots, false)
	require.Error(t, err)

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "windy", fetchErr.Source)
	assert.Empty(t, writer.batches, "one failing webcam aborts the whole spot set")
}

func TestRun_MissingBuoyResultAbortsBatch(t *testing.T) {
	freezeClock(t, testNoon)
	spots := testSpots()
	sources, buoySrc, _ := testSources(spots)
	buoySrc.results = stubBuoyResults{byStation: map[domain.StationID]domain.BuoySnapshot{
		domain.StationGorgona: {Station: domain.StationGorgona, AsOf: testNoon},
	}}
	writer := &mockWriter{}

	asm := newTestAssembler(sources, writer, nil)
	_, err := asm.Run(context.Background(), spots, false)
	require.ErrorIs(t, err, domain.ErrNoResultForSpot)
	assert.Empty(t, writer.batches)
}

func TestRun_RefusesConcurrentRuns(t *testing.T) {
	freezeClock(t, testNoon)
	spots := testSpots()
	sources, _, _ := testSources(spots)
	writer := &mockWriter{block: make(chan struct{})}

	asm := newTestAssembler(sources, writer, nil)

	done := make(chan error, 1)
	go func() {
		_, err := asm.Run(context.Background(), spots, false)
		done <- err
	}()

	// Second run must fail fast while the first one is blocked in persist.
	require.Eventually(t, func() bool {
		_, err := asm.Run(context.Background(), spots, false)
		return errors.Is(err, domain.ErrRunInProgress)
	}, time.Second, 5*time.Millisecond)

	close(writer.block)
	require.NoError(t, <-done)
}

func TestRun_DaylightGuard(t *testing.T) {
	midnight := time.Date(2026, 6, 15, 0, 30, 0, 0, time.UTC)
	freezeClock(t, midnight)
	spots := testSpots()
	sources, _, _ := testSources(spots)
	writer := &mockWriter{}

	asm := newTestAssembler(sources, writer, nil)

	_, err := asm.Run(context.Background(), spots, false)
	require.ErrorIs(t, err, domain.ErrOutsideDaylight)
	assert.Empty(t, writer.batches)

	snapshots, err := asm.Run(context.Background(), spots, true)
	require.NoError(t, err, "force bypasses the daylight guard")
	assert.Len(t, snapshots, 2)
}

func TestRun_PublishFailureDoesNotFailRun(t *testing.T) {
	freezeClock(t, testNoon)
	spots := testSpots()
	sources, _, _ := testSources(spots)
	writer := &mockWriter{}
	publisher := &mockPublisher{err: errors.New("broker unreachable")}

	asm := newTestAssembler(sources, writer, publisher)
	snapshots, err := asm.Run(context.Background(), spots, false)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
}

func TestRun_NoSpots(t *testing.T) {
	freezeClock(t, testNoon)
	sources, buoySrc, _ := testSources(testSpots())
	writer := &mockWriter{}

	asm := newTestAssembler(sources, writer, nil)
	snapshots, err := asm.Run(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Empty(t, snapshots)
	assert.Zero(t, buoySrc.calls)
	assert.Empty(t, writer.batches)
}
