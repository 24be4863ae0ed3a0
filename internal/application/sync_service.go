package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"commerce-core-square-layer/internal/application/conflict"
	"commerce-core-square-layer/internal/application/transform"
	"commerce-core-square-layer/internal/domain"
	"commerce-core-square-layer/internal/infrastructure/metrics"
	"commerce-core-square-layer/internal/infrastructure/square"
	"commerce-core-square-layer/internal/ports"
)

// DefaultRunTimeout bounds a single sync run end to end.
const DefaultRunTimeout = 10 * time.Minute

// DefaultBatchConcurrency is how many items a sync run processes in
// parallel. The shared rate limiter remains the arbiter of the outbound
// call rate regardless of this value.
const DefaultBatchConcurrency = 4

// SyncService orchestrates sync runs between the platform and the provider:
// acquire the per-tenant lock, ensure a fresh token, fetch, transform,
// resolve conflicts, write, and record exactly one sync log entry per run.
type SyncService struct {
	integrationRepo ports.IntegrationRepository
	mappingRepo     ports.ProductMappingRepository
	syncLogRepo     ports.SyncLogRepository
	platform        ports.PlatformStore
	provider        ports.ProviderClient
	connections     *ConnectionService
	lock            ports.SyncLock
	limiter         *square.RateLimiter
	retry           square.RetryConfig
	metrics         *metrics.Metrics
	environment     domain.Environment
	concurrency     int
	runTimeout      time.Duration
	logger          zerolog.Logger
}

// NewSyncService creates a new sync orchestrator.
func NewSyncService(
	integrationRepo ports.IntegrationRepository,
	mappingRepo ports.ProductMappingRepository,
	syncLogRepo ports.SyncLogRepository,
	platform ports.PlatformStore,
	provider ports.ProviderClient,
	connections *ConnectionService,
	lock ports.SyncLock,
	limiter *square.RateLimiter,
	m *metrics.Metrics,
	environment domain.Environment,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		integrationRepo: integrationRepo,
		mappingRepo:     mappingRepo,
		syncLogRepo:     syncLogRepo,
		platform:        platform,
		provider:        provider,
		connections:     connections,
		lock:            lock,
		limiter:         limiter,
		retry:           square.DefaultRetryConfig(),
		metrics:         m,
		environment:     environment,
		concurrency:     DefaultBatchConcurrency,
		runTimeout:      DefaultRunTimeout,
		logger:          logger,
	}
}

// WithRunTimeout overrides the per-run timeout.
func (s *SyncService) WithRunTimeout(timeout time.Duration) *SyncService {
	s.runTimeout = timeout
	return s
}

// WithConcurrency overrides the batch concurrency.
func (s *SyncService) WithConcurrency(concurrency int) *SyncService {
	if concurrency >= 1 {
		s.concurrency = concurrency
	}
	return s
}

// WithRetryConfig overrides the per-item retry policy.
func (s *SyncService) WithRetryConfig(cfg square.RetryConfig) *SyncService {
	s.retry = cfg
	return s
}

// runOutcome is the internal accounting of one sync flow. A fatal error
// means the run could not process items at all (failed fetch, dead token);
// per-item failures accumulate in failed without aborting the run.
type runOutcome struct {
	succeeded int
	failed    int
	fatal     error
}

// syncRun carries the per-run state shared by the flow methods.
type syncRun struct {
	integration *domain.TenantIntegration
	accessToken string
}

// TriggerSync runs one sync for a tenant. A second trigger for the same
// tenant and sync type while a run is in flight is rejected with
// domain.ErrSyncInProgress rather than queued. Every run that gets past the
// lock writes exactly one sync log entry, whatever its terminal status.
func (s *SyncService) TriggerSync(ctx context.Context, tenantID string, syncType domain.SyncType, direction domain.SyncDirection) (*domain.SyncSummary, error) {
	if syncType != domain.SyncTypeCatalog && syncType != domain.SyncTypeInventory {
		return nil, fmt.Errorf("unsupported sync type %q", syncType)
	}
	if direction != domain.DirectionToProvider && direction != domain.DirectionFromProvider {
		return nil, fmt.Errorf("unsupported sync direction %q", direction)
	}

	integration, err := s.integrationRepo.GetByTenantID(ctx, tenantID, s.environment)
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	if integration == nil {
		return nil, domain.ErrNotConnected
	}

	release, err := s.lock.Acquire(ctx, tenantID, syncType)
	if err != nil {
		return nil, err
	}
	defer release()

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	start := time.Now()
	operation := string(syncType) + "." + string(direction)
	logger := s.logger.With().
		Str("tenantID", tenantID).
		Str("operation", operation).
		Logger()
	logger.Info().Msg("Sync run started")

	token, err := s.connections.EnsureFreshToken(runCtx, integration)
	if err != nil {
		summary := s.recordRun(ctx, integration, syncType, direction, operation, domain.SyncStatusFailed, 0, start)
		logger.Error().Err(err).Msg("Sync run failed before processing")
		return summary, err
	}

	run := &syncRun{integration: integration, accessToken: token}
	var outcome runOutcome
	switch {
	case syncType == domain.SyncTypeCatalog && direction == domain.DirectionFromProvider:
		outcome = s.syncCatalogFromProvider(runCtx, run)
	case syncType == domain.SyncTypeCatalog && direction == domain.DirectionToProvider:
		outcome = s.syncCatalogToProvider(runCtx, run)
	case syncType == domain.SyncTypeInventory && direction == domain.DirectionFromProvider:
		outcome = s.syncInventoryFromProvider(runCtx, run)
	default:
		outcome = s.syncInventoryToProvider(runCtx, run)
	}

	status := domain.SyncStatusSuccess
	switch {
	case outcome.fatal != nil:
		status = domain.SyncStatusFailed
	case outcome.failed > 0:
		status = domain.SyncStatusPartial
	}

	s.metrics.ItemsAffected.WithLabelValues(string(syncType), "succeeded").Add(float64(outcome.succeeded))
	s.metrics.ItemsAffected.WithLabelValues(string(syncType), "failed").Add(float64(outcome.failed))

	summary := s.recordRun(ctx, integration, syncType, direction, operation, status, outcome.succeeded, start)
	logger.Info().
		Str("status", string(status)).
		Int("succeeded", outcome.succeeded).
		Int("failed", outcome.failed).
		Int64("durationMs", summary.DurationMs).
		Msg("Sync run finished")

	if outcome.fatal != nil {
		return summary, outcome.fatal
	}
	return summary, nil
}

// recordRun appends the run's sync log entry and records metrics. The log
// write survives caller cancellation so every run leaves a record.
func (s *SyncService) recordRun(
	ctx context.Context,
	integration *domain.TenantIntegration,
	syncType domain.SyncType,
	direction domain.SyncDirection,
	operation string,
	status domain.SyncStatus,
	itemsAffected int,
	start time.Time,
) *domain.SyncSummary {
	duration := time.Since(start)
	entry := &domain.SyncLogEntry{
		TenantID:      integration.TenantID,
		IntegrationID: integration.ID,
		SyncType:      syncType,
		Direction:     direction,
		Operation:     operation,
		Status:        status,
		ItemsAffected: itemsAffected,
		DurationMs:    duration.Milliseconds(),
		CreatedAt:     time.Now(),
	}
	if err := s.syncLogRepo.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error().Err(err).Str("tenantID", integration.TenantID).Msg("Failed to write sync log entry")
	}

	s.metrics.ObserveRun(syncType, direction, status, duration.Seconds())

	return &domain.SyncSummary{
		Status:        status,
		ItemsAffected: itemsAffected,
		DurationMs:    duration.Milliseconds(),
	}
}

// fetchFromProvider wraps a provider list call with the rate limiter and the
// retry policy, so bulk fetches count against the same ceilings as per-item
// calls.
func fetchFromProvider[T any](ctx context.Context, s *SyncService, fetch func(ctx context.Context) ([]T, error)) ([]T, error) {
	var items []T
	err := s.retry.Do(ctx, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		var fetchErr error
		items, fetchErr = fetch(ctx)
		return fetchErr
	})
	return items, err
}

func (s *SyncService) syncCatalogFromProvider(ctx context.Context, run *syncRun) runOutcome {
	items, err := fetchFromProvider(ctx, s, func(ctx context.Context) ([]domain.ProviderCatalogItem, error) {
		return s.provider.ListCatalogItems(ctx, run.accessToken)
	})
	if err != nil {
		return runOutcome{fatal: fmt.Errorf("failed to list provider catalog: %w", err)}
	}

	proc := square.NewBatchProcessorWithConcurrency[domain.ProviderCatalogItem, string](s.limiter, s.retry, s.concurrency, s.logger)
	result := proc.Process(ctx, items, func(ctx context.Context, item domain.ProviderCatalogItem) (string, error) {
		return s.importCatalogItem(ctx, run, &item)
	})
	s.logItemErrors(run.integration.TenantID, "catalog import", toAnyErrors(result.Errors))
	return runOutcome{succeeded: result.TotalSucceeded, failed: result.TotalFailed}
}

// importCatalogItem writes one provider catalog item into the platform
// store. Items already mapped are merged with the existing platform product
// under the conflict policy; unmapped items are created as-is and mapped.
func (s *SyncService) importCatalogItem(ctx context.Context, run *syncRun, item *domain.ProviderCatalogItem) (string, error) {
	tenantID := run.integration.TenantID
	incoming := transform.ProviderToPlatformProduct(item)

	mapping, err := s.mappingRepo.GetByProviderObjectID(ctx, tenantID, item.ID)
	if err != nil {
		return "", fmt.Errorf("failed to look up mapping for %s: %w", item.ID, err)
	}

	target := incoming
	if mapping != nil {
		incoming.ID = mapping.PlatformProductID
		existing, err := s.platform.GetProduct(ctx, tenantID, mapping.PlatformProductID)
		if err != nil {
			return "", fmt.Errorf("failed to load platform product %s: %w", mapping.PlatformProductID, err)
		}
		if existing != nil {
			target = s.mergeProducts(tenantID, incoming, existing)
		}
	}

	if err := s.platform.UpsertProduct(ctx, tenantID, target); err != nil {
		return "", fmt.Errorf("failed to upsert platform product: %w", err)
	}

	if err := s.upsertMapping(ctx, tenantID, mapping, target.ID, item); err != nil {
		return "", err
	}
	return target.ID, nil
}

// mergeProducts applies the conflict policy field by field: the platform
// keeps pricing and SKUs, the provider wins descriptive fields.
func (s *SyncService) mergeProducts(tenantID string, incoming, existing *domain.PlatformProduct) *domain.PlatformProduct {
	conflicts := conflict.Detect(conflict.ProductFields(incoming), conflict.ProductFields(existing))
	if len(conflicts) == 0 {
		return existing
	}
	s.metrics.ConflictsFound.Add(float64(len(conflicts)))

	merged := *existing
	merged.SKUs = append([]domain.PlatformSKU(nil), existing.SKUs...)

	for _, res := range conflict.ResolveAll(conflicts) {
		s.logger.Debug().
			Str("tenantID", tenantID).
			Str("productID", existing.ID).
			Str("field", res.Field).
			Str("winner", string(res.Source)).
			Str("reason", res.Reason).
			Msg("Resolved sync conflict")
		if res.Source != domain.SourceProvider {
			continue
		}
		s.applyProviderField(&merged, incoming, res.Field)
	}
	return &merged
}

func (s *SyncService) applyProviderField(merged, incoming *domain.PlatformProduct, field string) {
	switch field {
	case "name":
		merged.Name = incoming.Name
	case "description":
		merged.Description = incoming.Description
	case "sku", "price":
		src := incoming.PrimarySKU()
		if src == nil {
			return
		}
		if len(merged.SKUs) == 0 {
			merged.SKUs = append(merged.SKUs, *src)
			return
		}
		if field == "sku" {
			merged.SKUs[0].Code = src.Code
		} else {
			merged.SKUs[0].Price = src.Price
			merged.SKUs[0].Currency = src.Currency
		}
	}
}

func (s *SyncService) syncCatalogToProvider(ctx context.Context, run *syncRun) runOutcome {
	products, err := s.platform.ListProducts(ctx, run.integration.TenantID)
	if err != nil {
		return runOutcome{fatal: fmt.Errorf("failed to list platform products: %w", err)}
	}

	proc := square.NewBatchProcessorWithConcurrency[*domain.PlatformProduct, string](s.limiter, s.retry, s.concurrency, s.logger)
	result := proc.Process(ctx, products, func(ctx context.Context, product *domain.PlatformProduct) (string, error) {
		return s.exportProduct(ctx, run, product)
	})
	s.logItemErrors(run.integration.TenantID, "catalog export", toAnyErrors(result.Errors))
	return runOutcome{succeeded: result.TotalSucceeded, failed: result.TotalFailed}
}

// exportProduct pushes one platform product to the provider, reusing the
// provider-side identifiers from an existing mapping so the push is an
// update rather than a duplicate create.
func (s *SyncService) exportProduct(ctx context.Context, run *syncRun, product *domain.PlatformProduct) (string, error) {
	tenantID := run.integration.TenantID
	item := transform.PlatformToProviderItem(product)

	mapping, err := s.mappingRepo.GetByPlatformProductID(ctx, tenantID, product.ID)
	if err != nil {
		return "", fmt.Errorf("failed to look up mapping for %s: %w", product.ID, err)
	}
	if mapping != nil {
		item.ID = mapping.ProviderObjectID
		if len(item.Variations) > 0 && mapping.VariationID != "" {
			item.Variations[0].ID = mapping.VariationID
		}
	}

	upserted, err := s.provider.UpsertCatalogItem(ctx, run.accessToken, item)
	if err != nil {
		return "", err
	}

	if err := s.upsertMapping(ctx, tenantID, mapping, product.ID, upserted); err != nil {
		return "", err
	}
	return product.ID, nil
}

func (s *SyncService) syncInventoryFromProvider(ctx context.Context, run *syncRun) runOutcome {
	counts, err := fetchFromProvider(ctx, s, func(ctx context.Context) ([]domain.ProviderInventoryCount, error) {
		return s.provider.ListInventoryCounts(ctx, run.accessToken, run.integration.LocationID)
	})
	if err != nil {
		return runOutcome{fatal: fmt.Errorf("failed to list provider inventory: %w", err)}
	}

	proc := square.NewBatchProcessorWithConcurrency[domain.ProviderInventoryCount, string](s.limiter, s.retry, s.concurrency, s.logger)
	result := proc.Process(ctx, counts, func(ctx context.Context, count domain.ProviderInventoryCount) (string, error) {
		return s.importInventoryCount(ctx, run, &count)
	})
	s.logItemErrors(run.integration.TenantID, "inventory import", toAnyErrors(result.Errors))
	return runOutcome{succeeded: result.TotalSucceeded, failed: result.TotalFailed}
}

func (s *SyncService) importInventoryCount(ctx context.Context, run *syncRun, count *domain.ProviderInventoryCount) (string, error) {
	tenantID := run.integration.TenantID

	// Inventory counts reference the variation, not the item; fall back to
	// the item id for single-variation catalogs mapped at creation time.
	mapping, err := s.mappingRepo.GetByVariationID(ctx, tenantID, count.CatalogObjectID)
	if err != nil {
		return "", fmt.Errorf("failed to look up mapping for %s: %w", count.CatalogObjectID, err)
	}
	if mapping == nil {
		mapping, err = s.mappingRepo.GetByProviderObjectID(ctx, tenantID, count.CatalogObjectID)
		if err != nil {
			return "", fmt.Errorf("failed to look up mapping for %s: %w", count.CatalogObjectID, err)
		}
	}
	if mapping == nil {
		return "", fmt.Errorf("no product mapping for catalog object %s", count.CatalogObjectID)
	}

	inventory := transform.ProviderToPlatformInventory(count, mapping.PlatformProductID)
	if !inventory.QuantityParsed {
		s.logger.Warn().
			Str("tenantID", tenantID).
			Str("catalogObjectID", count.CatalogObjectID).
			Str("quantity", count.Quantity).
			Msg("Unparseable inventory quantity, defaulting to zero")
	}

	if err := s.platform.UpsertInventory(ctx, tenantID, inventory); err != nil {
		return "", fmt.Errorf("failed to upsert platform inventory: %w", err)
	}
	return mapping.PlatformProductID, nil
}

func (s *SyncService) syncInventoryToProvider(ctx context.Context, run *syncRun) runOutcome {
	records, err := s.platform.ListInventory(ctx, run.integration.TenantID)
	if err != nil {
		return runOutcome{fatal: fmt.Errorf("failed to list platform inventory: %w", err)}
	}

	proc := square.NewBatchProcessorWithConcurrency[*domain.PlatformInventory, string](s.limiter, s.retry, s.concurrency, s.logger)
	result := proc.Process(ctx, records, func(ctx context.Context, record *domain.PlatformInventory) (string, error) {
		return s.exportInventoryRecord(ctx, run, record)
	})
	s.logItemErrors(run.integration.TenantID, "inventory export", toAnyErrors(result.Errors))
	return runOutcome{succeeded: result.TotalSucceeded, failed: result.TotalFailed}
}

func (s *SyncService) exportInventoryRecord(ctx context.Context, run *syncRun, record *domain.PlatformInventory) (string, error) {
	tenantID := run.integration.TenantID

	mapping, err := s.mappingRepo.GetByPlatformProductID(ctx, tenantID, record.ProductID)
	if err != nil {
		return "", fmt.Errorf("failed to look up mapping for %s: %w", record.ProductID, err)
	}
	if mapping == nil {
		return "", fmt.Errorf("no product mapping for platform product %s", record.ProductID)
	}

	catalogObjectID := mapping.VariationID
	if catalogObjectID == "" {
		catalogObjectID = mapping.ProviderObjectID
	}

	if err := s.provider.SetInventoryCount(ctx, run.accessToken, run.integration.LocationID, catalogObjectID, record.Quantity); err != nil {
		return "", err
	}
	return record.ProductID, nil
}

// upsertMapping records (or refreshes) the link between a platform product
// and its provider catalog object.
func (s *SyncService) upsertMapping(ctx context.Context, tenantID string, existing *domain.ProductMapping, platformProductID string, item *domain.ProviderCatalogItem) error {
	variationID := ""
	if len(item.Variations) > 0 {
		variationID = item.Variations[0].ID
	}
	mapping := &domain.ProductMapping{
		TenantID:          tenantID,
		PlatformProductID: platformProductID,
		ProviderObjectID:  item.ID,
		VariationID:       variationID,
	}
	if existing != nil {
		mapping.ID = existing.ID
		mapping.CreatedAt = existing.CreatedAt
	}
	if err := s.mappingRepo.Upsert(ctx, mapping); err != nil {
		return fmt.Errorf("failed to upsert product mapping: %w", err)
	}
	return nil
}

func (s *SyncService) logItemErrors(tenantID, stage string, errs []error) {
	for _, err := range errs {
		s.logger.Warn().Err(err).Str("tenantID", tenantID).Str("stage", stage).Msg("Sync item failed")
	}
}

func toAnyErrors[T any](errs []square.ItemError[T]) []error {
	out := make([]error, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Err)
	}
	return out
}
