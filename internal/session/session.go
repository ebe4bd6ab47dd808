package session

import (
	"errors"
	"fmt"
	"log/slog"

	"starpick/internal/archive"
	"starpick/internal/centroid"
	"starpick/internal/frame"
	"starpick/internal/region"
	"starpick/internal/report"
	"starpick/internal/shape"
)

// Candidate header keywords searched when autofilling metadata, in
// preference order.
var (
	DateKeywords   = []string{"DATE-OBS", "DATEOBS", "OBS-DATE", "OBSDATE"}
	TargetKeywords = []string{"OBJECT", "TARGET"}
)

// Measurement is the current display state of a session: the accepted peak
// position, the sample value beneath it, and the sky coordinates. The Has*
// flags distinguish cleared fields from zero values.
type Measurement struct {
	X, Y     float64
	Value    float64
	RA, Dec  float64
	HasPixel bool
	HasValue bool
	HasSky   bool
}

// Clear resets all fields to undefined.
func (m *Measurement) Clear() {
	*m = Measurement{}
}

// Session owns the single active centering region for one viewer channel,
// plus the metadata and report rows derived from it. All methods run on the
// event-handling thread; nothing here is safe for concurrent use.
type Session struct {
	log      *slog.Logger
	settings Settings
	registry *centroid.Registry
	canvas   region.Canvas
	channel  string

	img frame.Image
	reg *region.CenteringRegion

	measurement Measurement
	target      string
	date        string
	location    string

	report *report.Report
	store  *archive.Store
}

// New creates a session for one viewer channel. store may be nil when no
// archive is wanted.
func New(channel string, canvas region.Canvas, settings Settings, store *archive.Store, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	registry := centroid.NewRegistry(settings.Capabilities())
	settings.Normalize(registry)

	return &Session{
		log:      log,
		settings: settings,
		registry: registry,
		canvas:   canvas,
		channel:  channel,
		report:   report.New(),
		store:    store,
	}
}

// Settings returns the session's current settings.
func (s *Session) Settings() Settings {
	return s.settings
}

// UpdateSettings replaces the settings, normalizing against the method
// registry. The capability set is fixed at startup and not re-derived.
func (s *Session) UpdateSettings(settings Settings) {
	settings.Normalize(s.registry)
	s.settings = settings
}

// Methods returns the centroid methods offered by this session.
func (s *Session) Methods() []centroid.Method {
	return s.registry.Methods()
}

// Report returns the report being assembled.
func (s *Session) Report() *report.Report {
	return s.report
}

// Measurement returns the current display state.
func (s *Session) Measurement() Measurement {
	return s.measurement
}

// Metadata returns the current target, date, and observer location.
func (s *Session) Metadata() (target, date, location string) {
	return s.target, s.date, s.location
}

// SetTarget sets the target name.
func (s *Session) SetTarget(v string) { s.target = v }

// SetDate sets the observation date.
func (s *Session) SetDate(v string) { s.date = v }

// SetLocation sets the observer location.
func (s *Session) SetLocation(v string) { s.location = v }

// SetImage switches the session to a new image. The active region belongs
// to the previous image, so it is torn down, and metadata autofill runs
// against the new header.
func (s *Session) SetImage(img frame.Image) {
	s.CloseRegion()
	s.img = img
	s.measurement.Clear()
	s.Autofill()
}

// Image returns the image under measurement, or nil.
func (s *Session) Image() frame.Image {
	return s.img
}

// Region returns the active centering region, or nil.
func (s *Session) Region() *region.CenteringRegion {
	return s.reg
}

// CloseRegion tears down the active region, removing its composite from the
// canvas.
func (s *Session) CloseRegion() {
	if s.reg != nil {
		s.reg.Close()
		s.reg = nil
	}
}

// PlaceRegion creates a region of the configured type at (x, y), superseding
// any active region, and runs an initial centroid pass.
func (s *Session) PlaceRegion(x, y float64) error {
	if s.img == nil {
		return errors.New("no image loaded")
	}

	kind, err := shape.ParseKind(s.settings.RegionType)
	if err != nil {
		kind = shape.Box
	}

	var sh *shape.Shape
	switch kind {
	case shape.Circle:
		sh = shape.NewCircle(x, y, s.settings.RegionWidth/2)
	case shape.Ellipse:
		sh = shape.NewEllipse(x, y, s.settings.RegionWidth/2, s.settings.RegionHeight/2)
	case shape.SquareBox:
		sh = shape.NewSquareBox(x, y, s.settings.RegionWidth/2)
	default:
		sh = shape.NewBox(x, y, s.settings.RegionWidth/2, s.settings.RegionHeight/2)
	}
	sh.Color = s.settings.RegionColor

	return s.PlaceShape(sh)
}

// PlaceShape creates a region from a drawn shape, superseding any active
// region, and runs an initial centroid pass.
func (s *Session) PlaceShape(sh *shape.Shape) error {
	if s.img == nil {
		return errors.New("no image loaded")
	}
	if b := sh.Bounds(); b.Width() > float64(s.settings.MaxRegionSize) ||
		b.Height() > float64(s.settings.MaxRegionSize) {
		return fmt.Errorf("region exceeds maximum size %d", s.settings.MaxRegionSize)
	}

	s.CloseRegion()
	s.reg = region.New(sh, s.img, s.canvas, "Astrometry")
	return s.Recenter()
}

// MoveRegion moves the active region to (x, y) and re-runs the centroid.
func (s *Session) MoveRegion(x, y float64) error {
	if s.reg == nil {
		return errors.New("no active region")
	}
	s.reg.SetCenter(x, y)
	return s.Recenter()
}

// Recenter computes a centroid with the configured method and commits it to
// the peak marker. A fit failure leaves the prior peak position unchanged
// and is reported as a warning, not an error.
func (s *Session) Recenter() error {
	if s.reg == nil {
		return errors.New("no active region")
	}

	method := centroid.Method(s.settings.CenteringMethod)
	pos, err := s.reg.Centroid(method)
	if err != nil {
		if errors.Is(err, centroid.ErrFitFailed) {
			s.log.Warn("centroid failed, keeping previous peak position", "error", err)
			return nil
		}
		return err
	}

	return s.CommitPeak(pos.X, pos.Y)
}

// CommitPeak moves the peak marker to (x, y) and refreshes the measurement:
// sample value beneath the marker and sky coordinates. Out-of-bounds
// coordinates clear the measurement and return ErrOutOfBounds; a failed sky
// transform clears only the sky fields.
func (s *Session) CommitPeak(x, y float64) error {
	if err := s.reg.SetCenterPoint(x, y); err != nil {
		s.measurement.Clear()
		s.log.Warn("peak position rejected", "error", err)
		return err
	}

	s.measurement = Measurement{X: x, Y: y, HasPixel: true}

	value, err := s.reg.CenterPointValue()
	if err != nil {
		s.measurement.Clear()
		s.log.Warn("peak position rejected", "error", err)
		return err
	}
	s.measurement.Value = value
	s.measurement.HasValue = true

	ra, dec, err := s.img.PixelToSky(x, y)
	if err != nil {
		s.log.Warn("couldn't calculate sky coordinates", "error", err)
		s.measurement.HasSky = false
		return nil
	}
	s.measurement.RA = ra
	s.measurement.Dec = dec
	s.measurement.HasSky = true
	return nil
}

// CutLevels returns the suggested display cut levels for the active region
// when auto-levels is enabled.
func (s *Session) CutLevels() (lo, hi float64, ok bool) {
	if !s.settings.AutoLevels || s.reg == nil {
		return 0, 0, false
	}
	return s.reg.CutLevels()
}

// AddToReport turns the current measurement into a report row keyed by the
// image name, stores it in the report, and archives it when a store is
// attached.
func (s *Session) AddToReport() error {
	if s.img == nil {
		return errors.New("no image loaded")
	}

	row := report.Row{
		Channel:  s.channel,
		Name:     s.img.Name(),
		Target:   s.target,
		Date:     s.date,
		Location: s.location,
		X:        s.measurement.X,
		Y:        s.measurement.Y,
		RA:       s.measurement.RA,
		Dec:      s.measurement.Dec,
		HasPixel: s.measurement.HasPixel,
		HasSky:   s.measurement.HasSky,
	}
	s.report.Add(row)

	if s.store != nil {
		if err := s.store.Put(row); err != nil {
			return fmt.Errorf("archiving measurement: %w", err)
		}
	}
	return nil
}

// Autofill fills the target and date metadata from the image header. An
// empty configured keyword triggers a search through the candidate list; a
// found keyword becomes the sticky choice.
func (s *Session) Autofill() {
	if s.img == nil {
		return
	}

	if s.settings.AutofillTarget {
		s.settings.TargetKeyword, s.target = autofillValue(
			s.img, s.settings.TargetKeyword, TargetKeywords, s.target)
	}
	if s.settings.AutofillDate {
		s.settings.DateKeyword, s.date = autofillValue(
			s.img, s.settings.DateKeyword, DateKeywords, s.date)
	}
}

// autofillValue resolves a metadata value from the header. It returns the
// (possibly newly discovered) keyword and the value, keeping the previous
// value when nothing is found.
func autofillValue(img frame.Image, keyword string, candidates []string, previous string) (string, string) {
	if keyword == "" {
		found, value, ok := frame.SearchKeyword(img, candidates)
		if !ok {
			return keyword, previous
		}
		return found, value
	}
	if value, ok := img.Keyword(keyword); ok {
		return keyword, value
	}
	return keyword, previous
}
