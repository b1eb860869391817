package quests

import (
	"context"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/request"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/services/ai"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/quests"

// CatalogSource supplies the active quest catalog in catalog order.
type CatalogSource interface {
	ListActive(ctx context.Context) ([]models.CatalogEntry, error)
}

// QuestStore persists seeds and audit rows and runs the external evaluator.
type QuestStore interface {
	UpsertSeeds(ctx context.Context, userID uuid.UUID, questDate time.Time, seeds []models.Seed) error
	InsertGenerationRun(ctx context.Context, run *models.GenerationRun) error
	Evaluate(ctx context.Context, userID uuid.UUID, questDate time.Time) ([]models.EvaluatedQuest, error)
}

// Engine runs the daily quest pipeline for one user at a time. It holds no
// per-user state, so one Engine serves all requests.
type Engine struct {
	aggregator *Aggregator
	catalog    CatalogSource
	store      QuestStore
	selector   *Selector
	reorderer  ai.Reorderer
	logger     *zap.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithReorderer enables the best-effort AI reorder step.
func WithReorderer(r ai.Reorderer) Option {
	return func(e *Engine) { e.reorderer = r }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger.OrNop(l) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// NewEngine wires the pipeline stages.
func NewEngine(activity ActivitySource, catalog CatalogSource, store QuestStore, selector *Selector, opts ...Option) *Engine {
	e := &Engine{
		aggregator: NewAggregator(activity),
		catalog:    catalog,
		store:      store,
		selector:   selector,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
	if e.selector == nil {
		e.selector = NewSelector(0, 0)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate builds, persists and evaluates today's quests for userID.
func (e *Engine) Generate(ctx context.Context, userID uuid.UUID) (*models.DailyQuestsResult, error) {
	return e.GenerateAt(ctx, userID, e.now())
}

// GenerateAt runs the pipeline as of now. Errors are *StageError.
func (e *Engine) GenerateAt(ctx context.Context, userID uuid.UUID, now time.Time) (*models.DailyQuestsResult, error) {
	day := DayStart(now)
	dayStr := day.Format(time.DateOnly)
	log := e.logger.With(
		zap.String("user_id", userID.String()),
		zap.String("quest_date", dayStr),
		zap.String("request_id", request.RequestID(ctx)),
	)

	ctx, span := e.tracer.Start(ctx, "quests.generate", trace.WithAttributes(
		attribute.String("quest.date", dayStr),
		attribute.String("quest.algorithm", AlgorithmVersion),
	))
	defer span.End()

	start := time.Now()

	signals, err := e.aggregate(ctx, userID, now)
	if err != nil {
		return nil, e.fail(span, log, stageError(CodeSignalsFailed, err))
	}

	entries, err := e.listCatalog(ctx)
	if err != nil {
		return nil, e.fail(span, log, stageError(CodeCatalogFailed, err))
	}
	if len(entries) < e.selector.Quota {
		log.Error("quest_catalog_too_small",
			zap.Int("active_entries", len(entries)),
			zap.Int("quota", e.selector.Quota),
		)
	}

	selected := e.selector.Select(ScoreAll(entries, signals))
	seeds := Parametrize(selected, signals)

	seeds, aiApplied := e.reorder(ctx, log, signals, seeds)

	keys := make([]string, len(seeds))
	for i, s := range seeds {
		keys[i] = s.QuestKey
	}

	if err := e.persist(ctx, userID, day, seeds); err != nil {
		return nil, e.fail(span, log, stageError(CodeQuestSeedFailed, err))
	}

	run := &models.GenerationRun{
		UserID:           userID,
		QuestDate:        day,
		AlgorithmVersion: AlgorithmVersion,
		Signals:          signals,
		Selections:       keys,
		AIApplied:        aiApplied,
	}
	if err := e.store.InsertGenerationRun(ctx, run); err != nil {
		log.Warn("quest_generation_audit_failed", zap.String("error", logger.SanitizeError(err)))
	}

	evaluated, err := e.evaluate(ctx, userID, day)
	if err != nil {
		return nil, e.fail(span, log, stageError(CodeQuestEvalFailed, err))
	}

	span.SetAttributes(
		attribute.StringSlice("quest.selections", keys),
		attribute.Bool("quest.ai_applied", aiApplied),
	)
	log.Info("quest_generation_completed",
		zap.Strings("selections", keys),
		zap.Bool("ai_applied", aiApplied),
		zap.Int("evaluated_count", len(evaluated)),
		zap.Duration("duration_ms", time.Since(start)),
	)

	return &models.DailyQuestsResult{
		Day:     dayStr,
		Algo:    AlgorithmVersion,
		Quests:  evaluated,
		Signals: signals,
	}, nil
}

func (e *Engine) aggregate(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Signals, error) {
	ctx, span := e.tracer.Start(ctx, "quests.aggregate")
	defer span.End()
	signals, err := e.aggregator.Aggregate(ctx, userID, now)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("signals.open_total", signals.OpenTotal))
	return signals, nil
}

func (e *Engine) listCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	ctx, span := e.tracer.Start(ctx, "quests.catalog")
	defer span.End()
	entries, err := e.catalog.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("catalog.active_entries", len(entries)))
	return entries, nil
}

// reorder applies the AI ordering when it validates; otherwise seeds are returned unchanged.
func (e *Engine) reorder(ctx context.Context, log *zap.Logger, signals *models.Signals, seeds []models.Seed) ([]models.Seed, bool) {
	if e.reorderer == nil || len(seeds) < 2 {
		return seeds, false
	}
	ctx, span := e.tracer.Start(ctx, "quests.reorder")
	defer span.End()

	req := ai.ReorderRequest{Signals: signals, Quests: make([]ai.QuestRef, len(seeds))}
	for i, s := range seeds {
		req.Quests[i] = ai.QuestRef{QuestKey: s.QuestKey, Title: s.Title}
	}

	result, err := e.reorderer.Reorder(ctx, req)
	if err != nil {
		reason := ai.DiscardReason(err)
		span.SetAttributes(attribute.String("reorder.discard_reason", reason))
		log.Warn("ai_reorder_discarded",
			zap.String("reason", reason),
			zap.String("error", logger.SanitizeError(err)),
		)
		return seeds, false
	}

	reordered, ok := ApplyReorder(seeds, result.Order, result.Rationale)
	if !ok {
		log.Warn("ai_reorder_discarded", zap.String("reason", ai.ReasonMalformed))
	}
	span.SetAttributes(attribute.Bool("reorder.applied", ok))
	return reordered, ok
}

func (e *Engine) persist(ctx context.Context, userID uuid.UUID, day time.Time, seeds []models.Seed) error {
	ctx, span := e.tracer.Start(ctx, "quests.persist")
	defer span.End()
	if err := e.store.UpsertSeeds(ctx, userID, day, seeds); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (e *Engine) evaluate(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.EvaluatedQuest, error) {
	ctx, span := e.tracer.Start(ctx, "quests.evaluate")
	defer span.End()
	evaluated, err := e.store.Evaluate(ctx, userID, day)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return evaluated, nil
}

func (e *Engine) fail(span trace.Span, log *zap.Logger, err *StageError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Code)
	log.Error("quest_generation_failed",
		zap.String("code", err.Code),
		zap.String("error", logger.SanitizeError(err.Err)),
	)
	return err
}
