package sim

import (
	"bytes"
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"facewarp/internal/landmarks"
	"facewarp/internal/logging"
	"facewarp/internal/metrics"
	"facewarp/internal/zones"
	"facewarp/pkg/raster"
)

func gradient(w, h int) *raster.Image {
	m := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, [4]uint8{uint8(x * 255 / (w - 1)), uint8(y * 255 / (h - 1)), uint8((x * y) % 251), 255})
		}
	}
	return m
}

// face places every zone's landmarks on a small ring around its default
// centre, giving a full mesh.
func face() landmarks.Set {
	set := make(landmarks.Set, landmarks.MeshSize)
	for _, d := range zones.All() {
		for k, idx := range d.Landmarks {
			a := 2 * math.Pi * float64(k) / float64(len(d.Landmarks))
			set[idx] = landmarks.Landmark{
				X: d.Region.CX + 0.6*d.Region.RX*math.Cos(a),
				Y: d.Region.CY + 0.6*d.Region.RY*math.Sin(a),
			}
		}
	}
	return set
}

func newLoaded(t *testing.T, opts Options) *Simulator {
	t.Helper()
	s := New(opts)
	t.Cleanup(s.Close)
	require.NoError(t, s.LoadImage(gradient(120, 120)))
	return s
}

func TestRecomputeWithoutImage(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	_, err := s.Recompute(context.Background())
	assert.ErrorIs(t, err, ErrNoImage)
	assert.ErrorIs(t, s.Export(&bytes.Buffer{}), ErrNoImage)
	_, err = s.ActivateSculpt()
	assert.ErrorIs(t, err, ErrNoImage)
	assert.ErrorIs(t, s.LoadImage(nil), ErrNoImage)
}

func TestNoAssignmentsCopiesOriginal(t *testing.T) {
	s := newLoaded(t, Options{})
	s.SetLandmarks(face())

	out, err := s.Recompute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, gradient(120, 120).Pix, out.Pix)
}

func TestAssignValidates(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	assert.ErrorIs(t, s.Assign("testa", Assignment{Intensity: 101}), ErrInvalidIntensity)
	assert.ErrorIs(t, s.Assign("testa", Assignment{Intensity: math.NaN()}), ErrInvalidIntensity)
	assert.ErrorIs(t, s.Assign("orelha", Assignment{Intensity: 10}), ErrUnknownZone)
	assert.ErrorIs(t, s.Assign("testa", Assignment{Intensity: 10}), ErrNoProcedure)
	assert.ErrorIs(t, s.Assign("testa", Assignment{Procedure: Procedure(99), Intensity: 10}), ErrNoProcedure)
	assert.ErrorIs(t, s.SetIntensity("testa", 10), ErrUnknownZone)

	require.NoError(t, s.Assign("testa", Assignment{Procedure: Toxin, Intensity: 40}))
	require.NoError(t, s.Assign("testa", Assignment{Procedure: Filler, Intensity: 60}))
	a, ok := s.Assignment("testa")
	require.True(t, ok)
	assert.Equal(t, Filler, a.Procedure)
	assert.Len(t, s.Assignments(), 1)

	assert.True(t, s.Remove("testa"))
	assert.False(t, s.Remove("testa"))
	assert.Empty(t, s.Assignments())
}

func TestAssignmentChangesFrame(t *testing.T) {
	s := newLoaded(t, Options{})
	s.SetLandmarks(face())
	require.NoError(t, s.Assign("malar_dir", Assignment{Procedure: Filler, Intensity: 100}))

	out, err := s.Recompute(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, gradient(120, 120).Pix, out.Pix)
	assert.Equal(t, out, s.Frame().Image)
	assert.Equal(t, s.Generation(), s.Frame().Generation)
}

func TestNoFaceKeepsGeometry(t *testing.T) {
	s := New(Options{})
	defer s.Close()
	gray := raster.New(80, 80)
	gray.Fill(128, 128, 128, 255)
	require.NoError(t, s.LoadImage(gray))
	require.NoError(t, s.Analyze(context.Background(), landmarks.Static(nil)))
	require.NoError(t, s.Assign("testa", Assignment{Procedure: Enzyme, Intensity: 100}))

	out, err := s.Recompute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, gray.Pix, out.Pix)
	assert.Nil(t, s.Landmarks())
}

func TestRenderAlwaysStartsFromOriginal(t *testing.T) {
	s := newLoaded(t, Options{})
	s.SetLandmarks(face())
	require.NoError(t, s.Assign("mento", Assignment{Procedure: Filler, Intensity: 80}))
	first, err := s.Recompute(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.SetIntensity("mento", 20))
	_, err = s.Recompute(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.SetIntensity("mento", 80))
	again, err := s.Recompute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Pix, again.Pix)
}

func TestRequestPublishesLatestInput(t *testing.T) {
	s := newLoaded(t, Options{})
	s.SetLandmarks(face())
	require.NoError(t, s.Assign("labios", Assignment{Procedure: Filler, Intensity: 10}))
	s.Request()
	require.NoError(t, s.SetIntensity("labios", 90))
	s.Request()
	s.Wait()

	ref := newLoaded(t, Options{})
	ref.SetLandmarks(face())
	require.NoError(t, ref.Assign("labios", Assignment{Procedure: Filler, Intensity: 90}))
	want, err := ref.Recompute(context.Background())
	require.NoError(t, err)

	f := s.Frame()
	assert.Equal(t, s.Generation(), f.Generation)
	assert.Equal(t, want.Pix, f.Image.Pix)
}

func TestDebounceCoalescesBursts(t *testing.T) {
	var published atomic.Int32
	m := metrics.New()
	s := newLoaded(t, Options{
		Debounce: 50 * time.Millisecond,
		Metrics:  m,
		OnFrame:  func(Frame) { published.Add(1) },
	})
	require.NoError(t, s.Assign("nariz", Assignment{Procedure: Threads, Intensity: 50}))
	for i := 0; i < 5; i++ {
		s.Request()
	}
	s.Wait()

	assert.Equal(t, int32(1), published.Load())
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Recomputes.WithLabelValues(metrics.OutcomeSuperseded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recomputes.WithLabelValues(metrics.OutcomePublished)))
	assert.Equal(t, s.Generation(), s.Frame().Generation)
}

func TestSculptSuspendsRecompute(t *testing.T) {
	var published atomic.Int32
	s := newLoaded(t, Options{OnFrame: func(Frame) { published.Add(1) }})
	require.NoError(t, s.Assign("testa", Assignment{Procedure: Toxin, Intensity: 70}))
	base, err := s.Recompute(context.Background())
	require.NoError(t, err)
	published.Store(0)

	sess, err := s.ActivateSculpt()
	require.NoError(t, err)
	assert.Equal(t, base.Pix, sess.Image().Pix)
	assert.True(t, s.Sculpting())

	_, err = s.ActivateSculpt()
	assert.ErrorIs(t, err, ErrSculptActive)
	_, err = s.Recompute(context.Background())
	assert.ErrorIs(t, err, ErrSculptActive)

	require.NoError(t, s.SetIntensity("testa", 20))
	s.Request()
	s.Wait()
	assert.Zero(t, published.Load())

	out, err := s.DeactivateSculpt()
	require.NoError(t, err)
	assert.Equal(t, base.Pix, out.Pix)
	s.Wait()
	assert.Equal(t, int32(1), published.Load())
	assert.Equal(t, s.Generation(), s.Frame().Generation)

	_, err = s.DeactivateSculpt()
	assert.ErrorIs(t, err, ErrSculptInactive)
}

func TestLoadImageRefusedWhileSculpting(t *testing.T) {
	s := newLoaded(t, Options{})
	_, err := s.ActivateSculpt()
	require.NoError(t, err)

	assert.ErrorIs(t, s.LoadImage(gradient(60, 40)), ErrSculptActive)

	out, err := s.DeactivateSculpt()
	require.NoError(t, err)
	assert.Equal(t, 120, out.Width)
	assert.Equal(t, 120, out.Height)

	require.NoError(t, s.LoadImage(gradient(60, 40)))
	assert.Equal(t, 60, s.Frame().Image.Width)
}

func TestLoadImageRejectsEmptyBuffer(t *testing.T) {
	s := New(Options{})
	defer s.Close()
	err := s.LoadImage(&raster.Image{Width: 10, Height: 0})
	assert.ErrorIs(t, err, raster.ErrSize)
	err = s.LoadImage(&raster.Image{Width: 2, Height: 2, Pix: make([]uint8, 3)})
	assert.ErrorIs(t, err, raster.ErrSize)
	assert.Nil(t, s.Frame().Image)
}

func TestCancelledRecomputeCountsAsSuperseded(t *testing.T) {
	m := metrics.New()
	s := newLoaded(t, Options{Metrics: m})
	require.NoError(t, s.Assign("testa", Assignment{Procedure: Toxin, Intensity: 70}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Recompute(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recomputes.WithLabelValues(metrics.OutcomeSuperseded)))
	assert.Zero(t, testutil.ToFloat64(m.Recomputes.WithLabelValues(metrics.OutcomeFailed)))
}

func TestExportWritesPNG(t *testing.T) {
	s := newLoaded(t, Options{})
	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf))

	img, err := raster.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Width)
	assert.Equal(t, 120, img.Height)
}

func TestCloseStopsRequests(t *testing.T) {
	var published atomic.Int32
	s := New(Options{OnFrame: func(Frame) { published.Add(1) }})
	require.NoError(t, s.LoadImage(gradient(40, 40)))
	s.Close()
	s.Request()
	s.Wait()
	assert.Zero(t, published.Load())
}

func TestZoneStateOperations(t *testing.T) {
	s := New(Options{})
	defer s.Close()
	testa, err := zones.ByID("testa")
	require.NoError(t, err)

	r, err := s.ZoneState("testa")
	require.NoError(t, err)
	assert.Equal(t, testa.Region, r)

	require.NoError(t, s.Move("testa", 0.4, 1.7))
	require.NoError(t, s.Resize("testa", 5, 0))
	r, err = s.ZoneState("testa")
	require.NoError(t, err)
	assert.Equal(t, zones.Region{CX: 0.4, CY: 1, RX: testa.MaxRX, RY: zones.MinRadius}, r)

	require.NoError(t, s.ResetZone("testa"))
	r, err = s.ZoneState("testa")
	require.NoError(t, err)
	assert.Equal(t, testa.Region, r)

	_, err = s.ZoneState("nope")
	assert.ErrorIs(t, err, ErrUnknownZone)
	assert.ErrorIs(t, s.Move("nope", 0, 0), ErrUnknownZone)
}

func TestSetLandmarksAlignsZones(t *testing.T) {
	s := New(Options{})
	defer s.Close()
	set := face()
	s.SetLandmarks(set)

	testa, err := zones.ByID("testa")
	require.NoError(t, err)
	r, err := s.ZoneState("testa")
	require.NoError(t, err)
	assert.Equal(t, zones.Align(testa, set), r)

	require.NoError(t, s.Move("testa", 0.1, 0.1))
	s.ResetZones()
	r, err = s.ZoneState("testa")
	require.NoError(t, err)
	assert.Equal(t, zones.Align(testa, set), r)

	require.NoError(t, s.LoadImage(gradient(10, 10)))
	r, err = s.ZoneState("testa")
	require.NoError(t, err)
	assert.Equal(t, testa.Region, r)
}

func TestRecordsUseStoreCodes(t *testing.T) {
	s := New(Options{Session: "sess-1"})
	defer s.Close()
	require.NoError(t, s.Assign("papada", Assignment{Procedure: Enzyme, Intensity: 30, Dosage: 2, Product: "deoxy"}))
	require.NoError(t, s.Assign("testa", Assignment{Procedure: Toxin, Intensity: 50, Dosage: 20, Notes: "frontal"}))

	recs := s.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, Record{Session: "sess-1", RegionCode: "FRONTAL", ProcedureCode: "TXB", Quantity: 20, Notes: "frontal"}, recs[0])
	assert.Equal(t, Record{Session: "sess-1", RegionCode: "SUBMENTONIANO", ProcedureCode: "ENZ", Product: "deoxy", Quantity: 2}, recs[1])
}

func TestEveryZoneHasRegionCode(t *testing.T) {
	for _, d := range zones.All() {
		_, ok := RegionCode(d.ID)
		assert.True(t, ok, d.ID)
	}
}

func TestHUDParameters(t *testing.T) {
	s := newLoaded(t, Options{})
	require.NoError(t, s.Assign("testa", Assignment{Procedure: Toxin, Intensity: 50}))

	controls := s.ParameterControls()
	require.Len(t, controls, 2)
	assert.Equal(t, IntensityKey("testa"), controls[1].Key)

	assert.True(t, s.SetFloatParameter(IntensityKey("testa"), 65))
	assert.False(t, s.SetFloatParameter(IntensityKey("testa"), 165))
	assert.False(t, s.SetFloatParameter("bogus", 1))
	a, _ := s.Assignment("testa")
	assert.Equal(t, 65.0, a.Intensity)

	assert.True(t, s.SetIntParameter("warp.grid_size", 4))
	assert.False(t, s.SetIntParameter("warp.grid_size", 0))

	p, ok := s.Parameters().Lookup(IntensityKey("testa"))
	require.True(t, ok)
	assert.Equal(t, "65", p.Value)
	p, ok = s.Parameters().Lookup("warp.grid_size")
	require.True(t, ok)
	assert.Equal(t, "4", p.Value)
}

func TestPublishLogsGeneration(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := newLoaded(t, Options{Logger: logging.FromCore(core)})
	_, err := s.Recompute(context.Background())
	require.NoError(t, err)

	entries := logs.FilterMessage("frame published").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "sim", entries[0].LoggerName)
	assert.Equal(t, s.Generation(), entries[0].ContextMap()["generation"])
}

func TestProcedureText(t *testing.T) {
	for i := 1; i < len(procedureNames); i++ {
		p := Procedure(i)
		assert.True(t, p.Valid())
		b, err := p.MarshalText()
		require.NoError(t, err)
		var back Procedure
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, p, back)
		assert.NotEmpty(t, p.Code())
	}
	_, err := ParseProcedure("laser")
	assert.Error(t, err)
	_, err = ParseProcedure("unset")
	assert.Error(t, err)
	assert.False(t, ProcedureUnset.Valid())
	assert.Empty(t, ProcedureUnset.Code())
}
