package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"naturatag/internal/config"
	"naturatag/internal/logging"
	"naturatag/internal/photos"
	"naturatag/internal/services"
	"naturatag/internal/services/inaturalist"
	"naturatag/internal/species"
	"naturatag/internal/tagging"
)

// Exporter renders a source photo into the upload slot.
type Exporter interface {
	Export(ctx context.Context, sourcePath string) (string, error)
	Cleanup() error
}

// VisionClient covers the iNaturalist calls the pipeline makes.
type VisionClient interface {
	ScoreImage(ctx context.Context, imagePath string) ([]species.Candidate, error)
	SubmitObservation(ctx context.Context, obs inaturalist.Observation) error
}

// Cataloger records chosen keywords against photos.
type Cataloger interface {
	TagPhoto(ctx context.Context, photoPath, runID string, chosen []species.Candidate) ([]string, error)
}

// Notifier is the subset of the notification service the pipeline uses.
type Notifier interface {
	NotifyIdentificationComplete(ctx context.Context, photo string, candidates int) error
	NotifyPhotoTagged(ctx context.Context, photo string, keywords []string) error
	NotifyObservationSubmitted(ctx context.Context, photo, speciesGuess string) error
	NotifyBatchCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
}

// PhotoResult reports what happened to one photo.
type PhotoResult struct {
	Photo        string
	Candidates   []species.Candidate
	Keywords     []string
	Skipped      bool
	SkipReason   string
	Observed     bool
	SpeciesGuess string
	Err          error
}

// BatchResult aggregates a sequential run over several photos.
type BatchResult struct {
	RunID     string
	Processed int
	Skipped   int
	Failed    int
	Duration  time.Duration
	Results   []PhotoResult
}

// Options tune a single run.
type Options struct {
	// Observe submits an iNaturalist observation after tagging.
	Observe bool
	// ConfirmObserve, when set, is asked before each submission. Declining
	// is a normal outcome: the photo stays tagged, nothing is submitted.
	ConfirmObserve func(photo, speciesGuess string) bool
}

// Manager wires the pipeline stages together.
type Manager struct {
	cfg      *config.Config
	exporter Exporter
	client   VisionClient
	reader   photos.Reader
	writer   photos.TagWriter
	catalog  Cataloger
	selector tagging.Selector
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
}

// NewManager builds a Manager. writer may be nil when metadata write-back is
// disabled.
func NewManager(
	cfg *config.Config,
	exporter Exporter,
	client VisionClient,
	reader photos.Reader,
	writer photos.TagWriter,
	cataloger Cataloger,
	selector tagging.Selector,
	notifier Notifier,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		cfg:      cfg,
		exporter: exporter,
		client:   client,
		reader:   reader,
		writer:   writer,
		catalog:  cataloger,
		selector: selector,
		notifier: notifier,
		logger:   logging.WithComponent(logger, "workflow"),
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
	}
}

// ProcessBatch runs the pipeline over each photo in order. A failing photo is
// recorded and the batch continues with the next one.
func (m *Manager) ProcessBatch(ctx context.Context, photoPaths []string, opts Options) BatchResult {
	started := m.now()
	batch := BatchResult{RunID: m.newRunID()}
	logger := m.logger.With(logging.String(logging.FieldRunID, batch.RunID))

	logger.Info("batch started", logging.Int("photos", len(photoPaths)))
	for _, photoPath := range photoPaths {
		if ctx.Err() != nil {
			break
		}
		result := m.processOne(ctx, logger, photoPath, batch.RunID, opts)
		batch.Results = append(batch.Results, result)
		switch {
		case result.Err != nil:
			batch.Failed++
			if err := m.notifier.NotifyError(ctx, result.Err, filepath.Base(photoPath)); err != nil {
				logger.Warn("notify error failed", logging.Error(err))
			}
		case result.Skipped:
			batch.Skipped++
		default:
			batch.Processed++
		}
	}

	if err := m.exporter.Cleanup(); err != nil {
		logger.Warn("cleanup failed", logging.Error(err))
	}

	batch.Duration = m.now().Sub(started)
	logger.Info("batch finished",
		logging.Int("processed", batch.Processed),
		logging.Int("skipped", batch.Skipped),
		logging.Int("failed", batch.Failed),
		logging.Duration("duration", batch.Duration),
	)
	if err := m.notifier.NotifyBatchCompleted(ctx, batch.Processed, batch.Failed, batch.Duration); err != nil {
		logger.Warn("notify batch completion failed", logging.Error(err))
	}
	return batch
}

// Process runs the pipeline for a single photo.
func (m *Manager) Process(ctx context.Context, photoPath string, opts Options) PhotoResult {
	return m.processOne(ctx, m.logger.With(logging.String(logging.FieldRunID, m.newRunID())), photoPath, "", opts)
}

func (m *Manager) processOne(ctx context.Context, logger *slog.Logger, photoPath, runID string, opts Options) (result PhotoResult) {
	result.Photo = photoPath
	logger = logger.With(logging.String(logging.FieldPhoto, filepath.Base(photoPath)))

	defer func() {
		if recovered := recover(); recovered != nil {
			result.Err = fmt.Errorf("unexpected error processing %s: %v", filepath.Base(photoPath), recovered)
			logger.Error("panic recovered", logging.Any("panic", recovered))
		}
	}()

	meta, err := m.reader.Read(photoPath)
	if err != nil {
		result.Err = fmt.Errorf("read metadata: %w", err)
		return result
	}

	uploadPath, err := m.exporter.Export(ctx, photoPath)
	if err != nil {
		result.Err = fmt.Errorf("export: %w", err)
		return result
	}

	candidates, err := m.client.ScoreImage(ctx, uploadPath)
	if err != nil {
		result.Err = err
		return result
	}
	if len(candidates) == 0 {
		result.Skipped = true
		result.SkipReason = "no species recognized"
		logger.Info("nothing recognized")
		return result
	}

	result.Candidates = species.Filter(candidates, m.cfg.Identify.ConfidenceThreshold)
	logger.Info("scored photo",
		logging.Int("candidates", len(candidates)),
		logging.Int("above_threshold", len(result.Candidates)),
	)
	if err := m.notifier.NotifyIdentificationComplete(ctx, filepath.Base(photoPath), len(result.Candidates)); err != nil {
		logger.Warn("notify identification failed", logging.Error(err))
	}
	if len(result.Candidates) == 0 {
		result.Skipped = true
		result.SkipReason = fmt.Sprintf("no candidate at or above %.1f%% confidence", m.cfg.Identify.ConfidenceThreshold)
		return result
	}

	chosen, err := m.selector.Select(ctx, filepath.Base(photoPath), result.Candidates)
	if err != nil {
		if errors.Is(err, tagging.ErrSelectionCancelled) {
			result.Skipped = true
			result.SkipReason = "selection cancelled"
			logger.Info("selection cancelled")
			return result
		}
		result.Err = fmt.Errorf("select candidates: %w", err)
		return result
	}
	if len(chosen) == 0 {
		result.Skipped = true
		result.SkipReason = "nothing selected"
		return result
	}

	keywords, err := m.catalog.TagPhoto(ctx, photoPath, runID, chosen)
	if err != nil {
		result.Err = fmt.Errorf("record keywords: %w", err)
		return result
	}
	result.Keywords = keywords

	if m.writer != nil && m.cfg.Tagging.WriteMetadata {
		if err := m.writer.AddKeywords(photoPath, keywords); err != nil {
			result.Err = fmt.Errorf("write keywords to photo: %w", err)
			return result
		}
	}
	logger.Info("tagged photo", logging.Int("keywords", len(keywords)))
	if err := m.notifier.NotifyPhotoTagged(ctx, filepath.Base(photoPath), keywords); err != nil {
		logger.Warn("notify tagging failed", logging.Error(err))
	}

	if opts.Observe {
		if err := m.observe(ctx, logger, photoPath, uploadPath, meta, keywords, opts, &result); err != nil {
			result.Err = err
			return result
		}
	}
	return result
}

func (m *Manager) observe(ctx context.Context, logger *slog.Logger, photoPath, uploadPath string, meta photos.Metadata, keywords []string, opts Options, result *PhotoResult) error {
	guess, ok := species.FirstGuess(keywords)
	if !ok {
		return services.Wrap(services.ErrPrecondition, "workflow", "observe", "no keyword to derive a species guess from", nil)
	}
	if m.cfg.Observation.RequireGPS && !meta.HasGPS() {
		return services.Wrap(services.ErrPrecondition, "workflow", "observe",
			"photo has no GPS coordinates (set observation.require_gps = false to submit anyway)", nil)
	}
	if _, err := os.Stat(uploadPath); err != nil {
		return services.Wrap(services.ErrPrecondition, "workflow", "observe", "cannot submit observation, image missing", err)
	}
	if opts.ConfirmObserve != nil && !opts.ConfirmObserve(filepath.Base(photoPath), guess) {
		logger.Info("observation declined", logging.String("species_guess", guess))
		return nil
	}

	observedOn := meta.ObservedOn()
	if observedOn == "" {
		observedOn = m.now().UTC().Format("2006-01-02 15:04:05")
	}
	obs := inaturalist.Observation{
		SpeciesGuess: guess,
		ObservedOn:   observedOn,
		Latitude:     meta.Latitude,
		Longitude:    meta.Longitude,
		PhotoPath:    uploadPath,
	}
	if err := m.client.SubmitObservation(ctx, obs); err != nil {
		return err
	}

	result.Observed = true
	result.SpeciesGuess = guess
	logger.Info("observation submitted", logging.String("species_guess", guess))
	if err := m.notifier.NotifyObservationSubmitted(ctx, filepath.Base(photoPath), guess); err != nil {
		logger.Warn("notify observation failed", logging.Error(err))
	}
	return nil
}
