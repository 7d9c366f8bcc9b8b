package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"naturatag/internal/config"
	"naturatag/internal/logging"
	"naturatag/internal/photos"
	"naturatag/internal/services"
	"naturatag/internal/services/inaturalist"
	"naturatag/internal/species"
	"naturatag/internal/tagging"
)

type fakeExporter struct {
	path     string
	exports  int
	cleanups int
	err      error
}

func (f *fakeExporter) Export(_ context.Context, sourcePath string) (string, error) {
	f.exports++
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

func (f *fakeExporter) Cleanup() error {
	f.cleanups++
	return nil
}

type fakeClient struct {
	candidates   map[string][]species.Candidate
	scoreErr     map[string]error
	observations []inaturalist.Observation
	observeErr   error
}

func (f *fakeClient) ScoreImage(_ context.Context, imagePath string) ([]species.Candidate, error) {
	for photo, err := range f.scoreErr {
		if strings.Contains(imagePath, photo) || photo == "*" {
			return nil, err
		}
	}
	for photo, candidates := range f.candidates {
		if photo == "*" || strings.Contains(imagePath, photo) {
			return candidates, nil
		}
	}
	return []species.Candidate{}, nil
}

func (f *fakeClient) SubmitObservation(_ context.Context, obs inaturalist.Observation) error {
	if f.observeErr != nil {
		return f.observeErr
	}
	f.observations = append(f.observations, obs)
	return nil
}

type fakeReader struct {
	meta photos.Metadata
	err  error
}

func (f *fakeReader) Read(string) (photos.Metadata, error) {
	return f.meta, f.err
}

type fakeWriter struct {
	written map[string][]string
	err     error
}

func (f *fakeWriter) AddKeywords(path string, keywords []string) error {
	if f.err != nil {
		return f.err
	}
	if f.written == nil {
		f.written = map[string][]string{}
	}
	f.written[path] = append(f.written[path], keywords...)
	return nil
}

type fakeCatalog struct {
	tagged map[string][]string
	runIDs []string
	err    error
}

func (f *fakeCatalog) TagPhoto(_ context.Context, photoPath, runID string, chosen []species.Candidate) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.tagged == nil {
		f.tagged = map[string][]string{}
	}
	var keywords []string
	for _, candidate := range chosen {
		keywords = append(keywords, candidate.Keyword())
	}
	f.tagged[photoPath] = keywords
	f.runIDs = append(f.runIDs, runID)
	return keywords, nil
}

type fakeSelector struct {
	pick  func(candidates []species.Candidate) []species.Candidate
	err   error
	panic bool
}

func (f *fakeSelector) Select(_ context.Context, _ string, candidates []species.Candidate) ([]species.Candidate, error) {
	if f.panic {
		panic("selector exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.pick == nil {
		return candidates, nil
	}
	return f.pick(candidates), nil
}

type fakeNotifier struct {
	identifications int
	tagged          int
	observations    int
	batches         int
	errors          int
}

func (f *fakeNotifier) NotifyIdentificationComplete(context.Context, string, int) error {
	f.identifications++
	return nil
}

func (f *fakeNotifier) NotifyPhotoTagged(context.Context, string, []string) error {
	f.tagged++
	return nil
}

func (f *fakeNotifier) NotifyObservationSubmitted(context.Context, string, string) error {
	f.observations++
	return nil
}

func (f *fakeNotifier) NotifyBatchCompleted(context.Context, int, int, time.Duration) error {
	f.batches++
	return nil
}

func (f *fakeNotifier) NotifyError(context.Context, error, string) error {
	f.errors++
	return nil
}

type harness struct {
	cfg      config.Config
	exporter *fakeExporter
	client   *fakeClient
	reader   *fakeReader
	writer   *fakeWriter
	catalog  *fakeCatalog
	selector *fakeSelector
	notifier *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	uploadPath := filepath.Join(t.TempDir(), "naturatag_upload.jpg")
	if err := os.WriteFile(uploadPath, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write upload file: %v", err)
	}

	cfg := config.Default()
	cfg.Tagging.WriteMetadata = true
	return &harness{
		cfg:      cfg,
		exporter: &fakeExporter{path: uploadPath},
		client: &fakeClient{candidates: map[string][]species.Candidate{
			"*": {
				{CommonName: "Great Blue Heron", LatinName: "Ardea herodias", Confidence: 87.4},
				{CommonName: "Great Egret", LatinName: "Ardea alba", Confidence: 4.2},
			},
		}},
		reader:   &fakeReader{},
		writer:   &fakeWriter{},
		catalog:  &fakeCatalog{},
		selector: &fakeSelector{},
		notifier: &fakeNotifier{},
	}
}

func (h *harness) manager() *Manager {
	return NewManager(&h.cfg, h.exporter, h.client, h.reader, h.writer, h.catalog, h.selector, h.notifier, logging.NewNop())
}

func TestProcessTagsPhoto(t *testing.T) {
	h := newHarness(t)
	result := h.manager().Process(context.Background(), "/photos/heron.jpg", Options{})

	if result.Err != nil {
		t.Fatalf("Process: %v", result.Err)
	}
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.SkipReason)
	}
	// The 4.2% candidate falls below the default 5% threshold.
	if len(result.Candidates) != 1 {
		t.Fatalf("expected 1 candidate above threshold, got %d", len(result.Candidates))
	}
	want := []string{"Great Blue Heron (Ardea herodias)"}
	if len(result.Keywords) != 1 || result.Keywords[0] != want[0] {
		t.Fatalf("unexpected keywords %v", result.Keywords)
	}
	if got := h.writer.written["/photos/heron.jpg"]; len(got) != 1 || got[0] != want[0] {
		t.Fatalf("expected metadata write-back, got %v", got)
	}
	if h.notifier.tagged != 1 || h.notifier.identifications != 1 {
		t.Fatalf("unexpected notifications %+v", h.notifier)
	}
}

func TestProcessSkipsWriteBackWhenDisabled(t *testing.T) {
	h := newHarness(t)
	h.cfg.Tagging.WriteMetadata = false
	result := h.manager().Process(context.Background(), "/photos/heron.jpg", Options{})

	if result.Err != nil {
		t.Fatalf("Process: %v", result.Err)
	}
	if len(h.writer.written) != 0 {
		t.Fatalf("expected no write-back, got %v", h.writer.written)
	}
}

func TestProcessSkipsWhenNothingRecognized(t *testing.T) {
	h := newHarness(t)
	h.client.candidates = map[string][]species.Candidate{"*": {}}
	result := h.manager().Process(context.Background(), "/photos/heron.jpg", Options{})

	if result.Err != nil {
		t.Fatalf("Process: %v", result.Err)
	}
	if !result.Skipped || result.SkipReason != "no species recognized" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestProcessSkipsWhenAllBelowThreshold(t *testing.T) {
	h := newHarness(t)
	h.client.candidates = map[string][]species.Candidate{"*": {
		{CommonName: "Great Egret", LatinName: "Ardea alba", Confidence: 4.9},
	}}
	result := h.manager().Process(context.Background(), "/photos/heron.jpg", Options{})

	if result.Err != nil {
		t.Fatalf("Process: %v", result.Err)
	}
	if !result.Skipped {
		t.Fatal("expected skip for sub-threshold candidates")
	}
	if len(h.catalog.tagged) != 0 {
		t.Fatalf("expected no tagging, got %v", h.catalog.tagged)
	}
}

func TestProcessKeepsThresholdBoundaryCandidate(t *testing.T) {
	h := newHarness(t)
	h.client.candidates = map[string][]species.Candidate{"*": {
		{CommonName: "Great Egret", LatinName: "Ardea alba", Confidence: 5.0},
	}}
	result := h.manager().Process(context.Background(), "/photos/heron.jpg", Options{})

	if result.Err != nil || result.Skipped {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected boundary candidate kept, got %d", len(result.Candidates))
	}
}

func TestProcessTreatsCancelAsSkip(t *testing.T) {
	h := newHarness(t)
	h.selector.err = tagging.ErrSelectionCancelled
	result := h.manager().Process(context.Background(), "/photos/heron.jpg", Options{})

	if result.Err != nil {
		t.Fatalf("Process: %v", result.Err)
	}
	if !result.Skipped || result.SkipReason != "selection cancelled" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestProcessRecoversFromPanic(t *testing.T) {
	h := newHarness(t)
	h.selector.panic = true
	result := h.manager().Process(context.Background(), "/photos/heron.jpg", Options{})

	if result.Err == nil || !strings.Contains(result.Err.Error(), "unexpected error") {
		t.Fatalf("expected recovered panic error, got %v", result.Err)
	}
}

func TestProcessObservationRequiresGPS(t *testing.T) {
	h := newHarness(t)
	result := h.manager().Process(context.Background(), "/photos/heron.jpg", Options{Observe: true})

	if !errors.Is(result.Err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error without GPS, got %v", result.Err)
	}
	if len(h.client.observations) != 0 {
		t.Fatal("expected no observation submitted")
	}
}

func TestProcessObservationWithGPS(t *testing.T) {
	h := newHarness(t)
	lat, lon := 45.5017, -73.5673
	h.reader.meta = photos.Metadata{
		Latitude:   &lat,
		Longitude:  &lon,
		CapturedAt: time.Date(2026, time.May, 10, 8, 32, 0, 0, time.Local),
	}
	result := h.manager().Process(context.Background(), "/photos/heron.jpg", Options{Observe: true})

	if result.Err != nil {
		t.Fatalf("Process: %v", result.Err)
	}
	if !result.Observed || result.SpeciesGuess != "Ardea herodias" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(h.client.observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(h.client.observations))
	}
	obs := h.client.observations[0]
	if obs.SpeciesGuess != "Ardea herodias" || obs.ObservedOn != "2026-05-10 08:32:00" {
		t.Fatalf("unexpected observation %+v", obs)
	}
	if obs.Latitude == nil || *obs.Latitude != lat {
		t.Fatalf("unexpected latitude %v", obs.Latitude)
	}
	if h.notifier.observations != 1 {
		t.Fatalf("expected observation notification, got %d", h.notifier.observations)
	}
}

func TestProcessObservationWithoutGPSWhenNotRequired(t *testing.T) {
	h := newHarness(t)
	h.cfg.Observation.RequireGPS = false
	result := h.manager().Process(context.Background(), "/photos/heron.jpg", Options{Observe: true})

	if result.Err != nil {
		t.Fatalf("Process: %v", result.Err)
	}
	if len(h.client.observations) != 1 {
		t.Fatalf("expected observation, got %d", len(h.client.observations))
	}
	if h.client.observations[0].Latitude != nil {
		t.Fatal("expected nil latitude without GPS")
	}
}

func TestProcessObservationDeclined(t *testing.T) {
	h := newHarness(t)
	h.cfg.Observation.RequireGPS = false
	opts := Options{
		Observe:        true,
		ConfirmObserve: func(string, string) bool { return false },
	}
	result := h.manager().Process(context.Background(), "/photos/heron.jpg", opts)

	if result.Err != nil {
		t.Fatalf("Process: %v", result.Err)
	}
	if result.Observed {
		t.Fatal("expected no observation after decline")
	}
	if len(h.client.observations) != 0 {
		t.Fatalf("expected no submission, got %d", len(h.client.observations))
	}
	// Declining the observation leaves the tagging intact.
	if len(h.catalog.tagged) != 1 {
		t.Fatalf("expected photo tagged, got %v", h.catalog.tagged)
	}
}

func TestProcessObservationFailsWhenUploadMissing(t *testing.T) {
	h := newHarness(t)
	h.cfg.Observation.RequireGPS = false
	if err := os.Remove(h.exporter.path); err != nil {
		t.Fatalf("remove upload file: %v", err)
	}
	result := h.manager().Process(context.Background(), "/photos/heron.jpg", Options{Observe: true})

	if !errors.Is(result.Err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", result.Err)
	}
	if !strings.Contains(result.Err.Error(), "image missing") {
		t.Fatalf("unexpected error message %v", result.Err)
	}
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	h := newHarness(t)
	h.client.scoreErr = map[string]error{}
	h.client.candidates = map[string][]species.Candidate{
		"*": {{CommonName: "Great Blue Heron", LatinName: "Ardea herodias", Confidence: 87.4}},
	}

	// Fail only the middle photo by making its export blow up.
	calls := 0
	failingExporter := &scriptedExporter{export: func(sourcePath string) (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("disk full")
		}
		return "/tmp/naturatag_upload.jpg", nil
	}}

	manager := NewManager(&h.cfg, failingExporter, h.client, h.reader, h.writer, h.catalog, h.selector, h.notifier, logging.NewNop())
	batch := manager.ProcessBatch(context.Background(),
		[]string{"/photos/a.jpg", "/photos/b.jpg", "/photos/c.jpg"}, Options{})

	if batch.Processed != 2 || batch.Failed != 1 || batch.Skipped != 0 {
		t.Fatalf("unexpected batch counts %+v", batch)
	}
	if len(batch.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(batch.Results))
	}
	if batch.Results[1].Err == nil {
		t.Fatal("expected middle photo to fail")
	}
	if batch.RunID == "" {
		t.Fatal("expected a run ID")
	}
	if h.notifier.batches != 1 || h.notifier.errors != 1 {
		t.Fatalf("unexpected notifications %+v", h.notifier)
	}
	if failingExporter.cleanups != 1 {
		t.Fatalf("expected one cleanup, got %d", failingExporter.cleanups)
	}
	// Every successful photo is recorded under the batch run ID.
	for _, runID := range h.catalog.runIDs {
		if runID != batch.RunID {
			t.Fatalf("expected run ID %s, got %s", batch.RunID, runID)
		}
	}
}

type scriptedExporter struct {
	export   func(sourcePath string) (string, error)
	cleanups int
}

func (s *scriptedExporter) Export(_ context.Context, sourcePath string) (string, error) {
	return s.export(sourcePath)
}

func (s *scriptedExporter) Cleanup() error {
	s.cleanups++
	return nil
}

func TestProcessBatchStopsOnContextCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := h.manager().ProcessBatch(ctx, []string{"/photos/a.jpg", "/photos/b.jpg"}, Options{})
	if len(batch.Results) != 0 {
		t.Fatalf("expected no results after cancel, got %d", len(batch.Results))
	}
}
