// Package sim is the simulation orchestrator. A Simulator owns the runtime
// zone regions and procedure assignments for one photo and turns them into
// warped, skin-blended frames.
//
// Mutations bump an input generation. Request starts an asynchronous
// recompute from a snapshot of the current inputs and cancels whatever was
// in flight, so only the newest request can publish a frame.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"facewarp/internal/config"
	"facewarp/internal/displace"
	"facewarp/internal/landmarks"
	"facewarp/internal/logging"
	"facewarp/internal/metrics"
	"facewarp/internal/sculpt"
	"facewarp/internal/skin"
	"facewarp/internal/zones"
	"facewarp/pkg/geom"
	"facewarp/pkg/mls"
	"facewarp/pkg/raster"
)

// Errors returned by Simulator methods.
var (
	ErrNoImage          = errors.New("sim: no image loaded")
	ErrUnknownZone      = errors.New("sim: unknown zone")
	ErrSculptActive     = errors.New("sim: sculpt tool is active")
	ErrSculptInactive   = errors.New("sim: sculpt tool is not active")
	ErrInvalidIntensity = errors.New("sim: intensity must be within [0,100]")
	ErrNoProcedure      = errors.New("sim: assignment has no procedure")
)

// Options configures a Simulator. Zero values fall back to package defaults.
type Options struct {
	Warp     mls.Options
	Resolver displace.Resolver
	Skin     skin.Options
	// Debounce delays the start of an async recompute; a newer Request
	// during the delay cancels it without doing any work.
	Debounce time.Duration
	// Zones overrides the registry; nil uses zones.All().
	Zones   []zones.Def
	Session string
	Logger  logging.Logger
	Metrics *metrics.Metrics
	// OnFrame is called from the recompute goroutine after a frame is
	// published. It must not call back into the Simulator synchronously.
	OnFrame func(Frame)
}

// OptionsFromConfig maps loaded settings onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Warp: mls.Options{
			GridSize: cfg.Warp.GridSize,
			Alpha:    cfg.Warp.Alpha,
			Workers:  cfg.Warp.Workers,
		},
		Resolver: displace.Resolver{
			FalloffReach:  cfg.Displace.FalloffReach,
			AnchorSpacing: cfg.Displace.AnchorSpacing,
		},
		Skin: skin.Options{
			MaxBlend: cfg.Skin.MaxBlend,
			Expand:   cfg.Skin.Expand,
		},
		Debounce: cfg.Sim.Debounce,
	}
}

// Frame is a published result. Image must be treated as read-only.
type Frame struct {
	Image      *raster.Image
	Generation uint64
}

// Simulator is safe for concurrent use.
type Simulator struct {
	log     logging.Logger
	metrics *metrics.Metrics
	onFrame func(Frame)
	session string

	resolver displace.Resolver
	skinOpts skin.Options
	debounce time.Duration

	defs  []zones.Def
	index map[string]int

	notifyMu sync.Mutex

	base      context.Context
	closeBase context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	warp      mls.Options
	original  *raster.Image
	lm        landmarks.Set
	state     map[string]zones.Region
	assign    map[string]Assignment
	gen       uint64
	ticket    uint64
	cancel    context.CancelFunc
	frame     Frame
	sculpt    *sculpt.Session
	closed    bool
}

// New builds a Simulator with every zone at its default region.
func New(opts Options) *Simulator {
	defs := opts.Zones
	if defs == nil {
		defs = zones.All()
	}
	session := opts.Session
	if session == "" {
		session = uuid.NewString()
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	if opts.Warp.GridSize < 1 {
		opts.Warp.GridSize = mls.DefaultGridSize
	}
	if opts.Warp.Alpha <= 0 {
		opts.Warp.Alpha = 1
	}
	base, closeBase := context.WithCancel(context.Background())
	s := &Simulator{
		log:       log.Named("sim").With(logging.String("session", session)),
		metrics:   opts.Metrics,
		onFrame:   opts.OnFrame,
		session:   session,
		resolver:  opts.Resolver,
		skinOpts:  opts.Skin,
		debounce:  opts.Debounce,
		defs:      defs,
		index:     make(map[string]int, len(defs)),
		base:      base,
		closeBase: closeBase,
		warp:      opts.Warp,
		state:     make(map[string]zones.Region, len(defs)),
		assign:    make(map[string]Assignment),
	}
	for i, d := range defs {
		s.index[d.ID] = i
		s.state[d.ID] = d.Region
	}
	return s
}

// Session returns the id attached to logs and records.
func (s *Simulator) Session() string { return s.session }

// Zones returns the zone definitions in registry order.
func (s *Simulator) Zones() []zones.Def {
	out := make([]zones.Def, len(s.defs))
	copy(out, s.defs)
	return out
}

// LoadImage replaces the photo. Landmarks from the previous photo are
// dropped and every zone returns to its default region. The opaque original
// is published as the first frame. It fails with ErrSculptActive while a
// sculpt session is open.
func (s *Simulator) LoadImage(img *raster.Image) error {
	if img == nil {
		return ErrNoImage
	}
	if img.Width < 1 || img.Height < 1 || len(img.Pix) != 4*img.Width*img.Height {
		return fmt.Errorf("sim: load image: %w: %dx%d with %d bytes", raster.ErrSize, img.Width, img.Height, len(img.Pix))
	}
	orig := img.Clone()
	first := orig.Clone()
	for i := 3; i < len(first.Pix); i += 4 {
		first.Pix[i] = 255
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sculpt != nil {
		return ErrSculptActive
	}
	s.supersedeLocked()
	s.original = orig
	s.lm = nil
	for _, d := range s.defs {
		s.state[d.ID] = d.Region
	}
	s.gen++
	s.frame = Frame{Image: first, Generation: s.gen}
	s.log.Info("image loaded", logging.Int("width", orig.Width), logging.Int("height", orig.Height))
	return nil
}

// SetLandmarks installs a detection result and re-aligns every zone. A nil
// set means no face was found.
func (s *Simulator) SetLandmarks(set landmarks.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lm = set.Clone()
	for _, d := range s.defs {
		s.state[d.ID] = zones.Align(d, s.lm)
	}
	s.gen++
	if len(s.lm) == 0 {
		s.log.Debug("no landmarks, zones use default regions")
	}
}

// Analyze runs det on the loaded photo and installs the result. A detector
// reporting landmarks.ErrNoFace is not an error.
func (s *Simulator) Analyze(ctx context.Context, det landmarks.Detector) error {
	s.mu.Lock()
	img := s.original
	s.mu.Unlock()
	if img == nil {
		return ErrNoImage
	}
	set, err := det.Detect(ctx, img)
	if errors.Is(err, landmarks.ErrNoFace) {
		s.log.Info("no face detected")
		s.SetLandmarks(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("sim: analyze: %w", err)
	}
	s.SetLandmarks(set)
	return nil
}

// Landmarks returns a copy of the current landmark set.
func (s *Simulator) Landmarks() landmarks.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lm.Clone()
}

// Generation is the current input generation.
func (s *Simulator) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Assign commits a procedure for a zone, replacing any previous one.
func (s *Simulator) Assign(id string, a Assignment) error {
	if math.IsNaN(a.Intensity) || a.Intensity < 0 || a.Intensity > 100 {
		return fmt.Errorf("%w: %g", ErrInvalidIntensity, a.Intensity)
	}
	if _, err := s.def(id); err != nil {
		return err
	}
	if !a.Procedure.Valid() {
		return fmt.Errorf("%w: zone %q", ErrNoProcedure, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assign[id] = a
	s.gen++
	return nil
}

// SetIntensity changes the intensity of an existing assignment.
func (s *Simulator) SetIntensity(id string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return fmt.Errorf("%w: %g", ErrInvalidIntensity, v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assign[id]
	if !ok {
		return fmt.Errorf("%w: %q has no assignment", ErrUnknownZone, id)
	}
	a.Intensity = v
	s.assign[id] = a
	s.gen++
	return nil
}

// Remove drops a zone's assignment. It reports whether one existed.
func (s *Simulator) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assign[id]; !ok {
		return false
	}
	delete(s.assign, id)
	s.gen++
	return true
}

// Assignment returns the active assignment for a zone.
func (s *Simulator) Assignment(id string) (Assignment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assign[id]
	return a, ok
}

// Assignments returns a copy of every active assignment keyed by zone id.
func (s *Simulator) Assignments() map[string]Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Assignment, len(s.assign))
	for k, v := range s.assign {
		out[k] = v
	}
	return out
}

// Frame returns the latest published frame.
func (s *Simulator) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Recompute renders the current inputs synchronously and publishes the
// result unless a newer request has started meanwhile.
func (s *Simulator) Recompute(ctx context.Context) (*raster.Image, error) {
	s.mu.Lock()
	if s.original == nil {
		s.mu.Unlock()
		return nil, ErrNoImage
	}
	if s.sculpt != nil {
		s.mu.Unlock()
		return nil, ErrSculptActive
	}
	s.supersedeLocked()
	ticket := s.ticket
	snap := s.snapshotLocked()
	s.mu.Unlock()

	start := time.Now()
	img, points, err := s.render(ctx, snap)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.superseded(snap.gen)
		return nil, fmt.Errorf("sim: recompute: %w", err)
	case err != nil:
		s.metrics.Failed()
		return nil, fmt.Errorf("sim: recompute: %w", err)
	}
	s.publish(ticket, snap.gen, img, points, time.Since(start))
	return img, nil
}

// Request schedules an asynchronous recompute of the current inputs. It is
// a no-op before an image is loaded, while sculpting, or after Close.
func (s *Simulator) Request() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestLocked()
}

func (s *Simulator) requestLocked() {
	if s.closed || s.original == nil {
		return
	}
	if s.sculpt != nil {
		s.log.Debug("recompute suppressed while sculpting", logging.Uint64("generation", s.gen))
		return
	}
	s.supersedeLocked()
	ticket := s.ticket
	snap := s.snapshotLocked()
	ctx, cancel := context.WithCancel(s.base)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(ctx, ticket, snap)
	}()
}

// supersedeLocked invalidates whatever recompute is in flight.
func (s *Simulator) supersedeLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.ticket++
}

func (s *Simulator) run(ctx context.Context, ticket uint64, snap snapshot) {
	if s.debounce > 0 {
		t := time.NewTimer(s.debounce)
		select {
		case <-ctx.Done():
			t.Stop()
			s.superseded(snap.gen)
			return
		case <-t.C:
		}
	}
	start := time.Now()
	img, points, err := s.render(ctx, snap)
	switch {
	case errors.Is(err, context.Canceled):
		s.superseded(snap.gen)
		return
	case err != nil:
		s.metrics.Failed()
		s.log.Error("recompute failed", logging.Uint64("generation", snap.gen), logging.Err(err))
		return
	}
	s.publish(ticket, snap.gen, img, points, time.Since(start))
}

func (s *Simulator) superseded(gen uint64) {
	s.metrics.Superseded()
	s.log.Debug("recompute superseded", logging.Uint64("generation", gen))
}

func (s *Simulator) publish(ticket, gen uint64, img *raster.Image, points int, elapsed time.Duration) bool {
	s.mu.Lock()
	if ticket != s.ticket || s.sculpt != nil || s.closed {
		s.mu.Unlock()
		s.superseded(gen)
		return false
	}
	s.frame = Frame{Image: img, Generation: gen}
	f := s.frame
	s.mu.Unlock()

	s.metrics.Published(gen, points, elapsed)
	s.log.Debug("frame published",
		logging.Uint64("generation", gen),
		logging.Int("control_points", points),
		logging.Duration("elapsed", elapsed),
	)
	if s.onFrame != nil {
		s.notifyMu.Lock()
		// A newer frame may have been delivered while this one waited.
		if s.Frame().Image == f.Image {
			s.onFrame(f)
		}
		s.notifyMu.Unlock()
	}
	return true
}

// Wait blocks until no async recompute is running.
func (s *Simulator) Wait() { s.wg.Wait() }

// Close cancels in-flight work and waits for it to stop. Later Requests are
// ignored.
func (s *Simulator) Close() {
	s.mu.Lock()
	s.closed = true
	s.supersedeLocked()
	s.mu.Unlock()
	s.closeBase()
	s.wg.Wait()
}

// ActivateSculpt hands a snapshot of the current frame to a new sculpt
// session. Geometric recomputes are suppressed until DeactivateSculpt.
func (s *Simulator) ActivateSculpt() (*sculpt.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sculpt != nil {
		return nil, ErrSculptActive
	}
	if s.original == nil || s.frame.Image == nil {
		return nil, ErrNoImage
	}
	s.supersedeLocked()
	f := s.frame.Image
	sess, err := sculpt.Activate(f.Width, f.Height, f.Pix)
	if err != nil {
		return nil, fmt.Errorf("sim: activate sculpt: %w", err)
	}
	s.sculpt = sess
	s.log.Info("sculpt activated", logging.Uint64("generation", s.frame.Generation))
	return sess, nil
}

// Sculpting reports whether a sculpt session is active.
func (s *Simulator) Sculpting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sculpt != nil
}

// DeactivateSculpt ends the sculpt session and returns its final buffer.
// The buffer is shown until the single reconciling recompute that this
// call schedules replaces it.
func (s *Simulator) DeactivateSculpt() (*raster.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sculpt == nil {
		return nil, ErrSculptInactive
	}
	out, err := s.sculpt.Deactivate()
	s.sculpt = nil
	if err == nil {
		s.frame = Frame{Image: out, Generation: s.frame.Generation}
	}
	s.log.Info("sculpt deactivated")
	s.requestLocked()
	if err != nil {
		return nil, fmt.Errorf("sim: deactivate sculpt: %w", err)
	}
	return out.Clone(), nil
}

// Export writes the latest frame as PNG; while sculpting it writes the
// sculpt buffer.
func (s *Simulator) Export(w io.Writer) error {
	s.mu.Lock()
	img := s.frame.Image
	if s.sculpt != nil {
		img = s.sculpt.Image()
	}
	s.mu.Unlock()
	if img == nil {
		return ErrNoImage
	}
	if err := raster.EncodePNG(w, img); err != nil {
		return fmt.Errorf("sim: export: %w", err)
	}
	return nil
}

// snapshot is an immutable copy of everything a render needs.
type snapshot struct {
	gen  uint64
	img  *raster.Image
	lm   landmarks.Set
	warp mls.Options
	jobs []job
}

type job struct {
	def    zones.Def
	region zones.Region
	a      Assignment
}

func (s *Simulator) snapshotLocked() snapshot {
	snap := snapshot{gen: s.gen, img: s.original, lm: s.lm, warp: s.warp}
	for _, d := range s.defs {
		a, ok := s.assign[d.ID]
		if !ok {
			continue
		}
		snap.jobs = append(snap.jobs, job{def: d, region: s.state[d.ID], a: a})
	}
	return snap
}

// render warps the original photo with every zone's pairs plus one shared
// ring of edge anchors, then runs the skin pass.
func (s *Simulator) render(ctx context.Context, snap snapshot) (*raster.Image, int, error) {
	w, h := snap.img.Width, snap.img.Height
	var pairs []geom.Pair
	skipped := 0
	skinZones := make([]skin.Zone, 0, len(snap.jobs))
	for _, j := range snap.jobs {
		p, n := s.resolver.Zone(displace.Input{
			Def:       j.def,
			Region:    j.region,
			Intensity: j.a.Intensity,
			Landmarks: snap.lm,
			Width:     w,
			Height:    h,
		})
		pairs = append(pairs, p...)
		skipped += n
		skinZones = append(skinZones, skinZone(j.def, j.region, j.a))
	}
	if skipped > 0 {
		s.log.Debug("landmark indices out of range", logging.Int("skipped", skipped), logging.Uint64("generation", snap.gen))
	}
	if len(pairs) > 0 {
		pairs = append(pairs, s.resolver.Anchors(w, h)...)
	}

	from, to := geom.Split(pairs)
	out, err := mls.WarpContext(ctx, snap.img, from, to, snap.warp)
	if err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	skin.Apply(out, skinZones, s.skinOpts)
	return out, len(pairs), nil
}

func (s *Simulator) def(id string) (zones.Def, error) {
	i, ok := s.index[id]
	if !ok {
		return zones.Def{}, fmt.Errorf("%w: %q", ErrUnknownZone, id)
	}
	return s.defs[i], nil
}
