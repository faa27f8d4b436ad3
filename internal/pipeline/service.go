package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/kingdave4/Nba-Data-Lake/pkg/catalog"
	"github.com/kingdave4/Nba-Data-Lake/pkg/logger"
	"github.com/kingdave4/Nba-Data-Lake/pkg/metrics"
	"github.com/kingdave4/Nba-Data-Lake/pkg/query"
	"github.com/kingdave4/Nba-Data-Lake/pkg/record"
	"github.com/kingdave4/Nba-Data-Lake/pkg/retry"
	"github.com/kingdave4/Nba-Data-Lake/pkg/sink"
	"github.com/kingdave4/Nba-Data-Lake/pkg/sportsdata"
	"github.com/kingdave4/Nba-Data-Lake/pkg/storage"

	"go.uber.org/zap"
)

// Pipeline step names, as they appear in step events and metrics
const (
	StepProvisionSink    = "provision_sink"
	StepEnsureBucket     = "ensure_bucket"
	StepEnsureDatabase   = "ensure_database"
	StepFetchPlayers     = "fetch_players"
	StepNormalizeRecords = "normalize_records"
	StepUploadRecords    = "upload_records"
	StepRegisterTable    = "register_table"
	StepConfigureQueries = "configure_queries"
)

// Config carries the names of the lake resources a run provisions
type Config struct {
	Bucket          string
	ObjectKey       string
	TableLocation   string
	CatalogDatabase string
	CatalogTable    string
	QueryDatabase   string
	FetchAttempts   int
}

// Service coordinates the provisioning and load pipeline
type Service struct {
	logger    *logger.Logger
	cfg       Config
	fetcher   sportsdata.Fetcher
	store     storage.ObjectStore
	catalog   catalog.Catalog
	engine    query.Engine
	sink      sink.Sink
	retryOpts retry.RetryOptions
}

// NewService creates a new pipeline service instance
func NewService(
	logger *logger.Logger,
	cfg Config,
	fetcher sportsdata.Fetcher,
	store storage.ObjectStore,
	cat catalog.Catalog,
	engine query.Engine,
	eventSink sink.Sink,
) *Service {
	opts := retry.DefaultOptions()
	if cfg.FetchAttempts > 0 {
		opts.MaxAttempts = cfg.FetchAttempts
	}
	opts.Classifier = sportsdata.Retryable
	opts.OnRetry = func(attempt int, err error) {
		logger.Warn("retrying fetch", zap.Int("attempt", attempt), zap.Error(err))
	}

	return &Service{
		logger:    logger,
		cfg:       cfg,
		fetcher:   fetcher,
		store:     store,
		catalog:   cat,
		engine:    engine,
		sink:      eventSink,
		retryOpts: opts,
	}
}

// Run executes the pipeline from start to finish. The first failing step
// aborts the run; nothing downstream of a failure is attempted.
func (s *Service) Run(ctx context.Context) error {
	metrics.PipelineRunsTotal.Inc()
	start := time.Now()
	s.logger.Info("pipeline run starting",
		zap.String("bucket", s.cfg.Bucket),
		zap.String("database", s.cfg.CatalogDatabase))

	// 1. Provision the event sink so every later step can report
	if err := s.step(ctx, StepProvisionSink, func(ctx context.Context) (string, error) {
		return "", s.sink.Provision(ctx)
	}); err != nil {
		return err
	}

	// 2. Make sure the bucket backing the lake exists
	if err := s.step(ctx, StepEnsureBucket, func(ctx context.Context) (string, error) {
		return "bucket " + s.cfg.Bucket, s.store.EnsureBucket(ctx, s.cfg.Bucket)
	}); err != nil {
		return err
	}

	// 3. Create the catalog database
	if err := s.step(ctx, StepEnsureDatabase, func(ctx context.Context) (string, error) {
		return "database " + s.cfg.CatalogDatabase, s.catalog.EnsureDatabase(ctx, s.cfg.CatalogDatabase)
	}); err != nil {
		return err
	}

	// 4. Fetch players, retrying transient upstream failures
	var players []sportsdata.Player
	if err := s.step(ctx, StepFetchPlayers, func(ctx context.Context) (string, error) {
		err := retry.Do(ctx, func(ctx context.Context) error {
			var ferr error
			players, ferr = s.fetcher.FetchPlayers(ctx)
			return ferr
		}, s.retryOpts)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("fetched %d players", len(players)), nil
	}); err != nil {
		return err
	}

	// 5. Project the upstream payload onto the lake schema
	var doc []byte
	if err := s.step(ctx, StepNormalizeRecords, func(ctx context.Context) (string, error) {
		records := record.Normalize(players)
		var err error
		doc, err = record.EncodeLines(records)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("encoded %d records", len(records)), nil
	}); err != nil {
		return err
	}

	// 6. Upload the document. Zero records still lands an empty object so
	// the table location is always valid.
	if err := s.step(ctx, StepUploadRecords, func(ctx context.Context) (string, error) {
		if err := s.store.Put(ctx, s.cfg.Bucket, s.cfg.ObjectKey, doc); err != nil {
			return "", err
		}
		return fmt.Sprintf("uploaded %d bytes to s3://%s/%s", len(doc), s.cfg.Bucket, s.cfg.ObjectKey), nil
	}); err != nil {
		return err
	}

	// 7. Register the table over the uploaded data
	if err := s.step(ctx, StepRegisterTable, func(ctx context.Context) (string, error) {
		spec := playersTable(s.cfg.CatalogTable, s.cfg.TableLocation)
		return "table " + spec.Name, s.catalog.RegisterTable(ctx, s.cfg.CatalogDatabase, spec)
	}); err != nil {
		return err
	}

	// 8. Configure the ad-hoc query layer
	if err := s.step(ctx, StepConfigureQueries, func(ctx context.Context) (string, error) {
		return "database " + s.cfg.QueryDatabase, s.engine.Configure(ctx, s.cfg.CatalogDatabase, s.cfg.QueryDatabase)
	}); err != nil {
		return err
	}

	s.logger.Info("pipeline run finished",
		zap.Int("players", len(players)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// step runs one pipeline step, emitting events and recording metrics around it
func (s *Service) step(ctx context.Context, name string, fn func(ctx context.Context) (string, error)) error {
	s.emit(ctx, sink.Event{Step: name, Status: sink.StatusStarted, Time: time.Now()})
	s.logger.Info("step started", zap.String("step", name))

	start := time.Now()
	msg, err := fn(ctx)
	metrics.PipelineStepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.PipelineFailuresTotal.WithLabelValues(name).Inc()
		s.emit(ctx, sink.Event{Step: name, Status: sink.StatusFailed, Message: err.Error(), Time: time.Now()})
		s.logger.Error("step failed", err, zap.String("step", name))
		return fmt.Errorf("step %s: %w", name, err)
	}

	s.emit(ctx, sink.Event{Step: name, Status: sink.StatusCompleted, Message: msg, Time: time.Now()})
	s.logger.Info("step completed",
		zap.String("step", name),
		zap.Duration("took", time.Since(start)))
	return nil
}

// emit delivers an event without failing the run; the sink is advisory
func (s *Service) emit(ctx context.Context, ev sink.Event) {
	if err := s.sink.Emit(ctx, ev); err != nil {
		s.logger.Warn("failed to emit step event",
			zap.String("step", ev.Step),
			zap.Error(err))
	}
}

// playersTable is the schema registered for the players table
func playersTable(name, location string) catalog.TableSpec {
	return catalog.TableSpec{
		Name:     name,
		Location: location,
		Columns: []catalog.Column{
			{Name: "PlayerID", Type: "int"},
			{Name: "FirstName", Type: "string"},
			{Name: "LastName", Type: "string"},
			{Name: "Team", Type: "string"},
			{Name: "Position", Type: "string"},
			{Name: "Points", Type: "int"},
		},
	}
}
