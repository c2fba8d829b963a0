package service

import (
	"context"
	"fmt"
	"time"

	"lzpending/internal/abbrev"
	apperrors "lzpending/internal/errors"
	"lzpending/internal/metrics"
	"lzpending/internal/models"
	"lzpending/internal/validation"
	"lzpending/pkg/constants"
	"lzpending/pkg/hexscan"
	"lzpending/pkg/layerzero"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "lzpending/internal/service"

// Scan triggers, used as a metric label.
const (
	TriggerRequest = "request"
	TriggerWatcher = "watcher"
	TriggerCLI     = "cli"
)

type triggerKey struct{}

// WithTrigger tags ctx with what started the scan.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

func triggerFrom(ctx context.Context) string {
	if t, ok := ctx.Value(triggerKey{}).(string); ok && t != "" {
		return t
	}
	return TriggerRequest
}

// ExtractionCache memoises extractor results per transaction hash.
type ExtractionCache interface {
	Get(txHash string) (hexscan.Candidates, bool)
	Set(txHash string, candidates hexscan.Candidates)
}

// PendingService lists the owner's messages that are still waiting for the
// executor.
type PendingService interface {
	GetPendingMessages(ctx context.Context, owner string) ([]models.PendingMessageSummary, error)
}

type pendingService struct {
	client layerzero.Client
	cache  ExtractionCache
	logger *logrus.Logger
}

// NewPendingService wires the orchestrator. cache may be nil.
func NewPendingService(client layerzero.Client, cache ExtractionCache, logger *logrus.Logger) PendingService {
	if logger == nil {
		logger = logrus.New()
	}
	return &pendingService{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

func (s *pendingService) GetPendingMessages(ctx context.Context, owner string) ([]models.PendingMessageSummary, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pending.get_messages")
	defer span.End()

	trigger := triggerFrom(ctx)
	span.SetAttributes(attribute.String("scan.trigger", trigger))

	if s.client == nil {
		err := apperrors.New(apperrors.ErrCodeInternalError, "scan client is not configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	normalized, err := validation.NormalizeOwner(owner)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid owner")
		return nil, err
	}
	span.SetAttributes(attribute.String("owner", abbrev.Hex(normalized)))

	start := time.Now()
	listing := s.client.FetchMessages(ctx, normalized, constants.MessagesFirstPage, constants.MessagesPageLimit)
	metrics.RecordUpstreamCall("messages", listing.Available, time.Since(start))

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context done")
		return nil, fmt.Errorf("pending scan aborted: %w", err)
	}

	results := make([]models.PendingMessageSummary, 0)
	for _, raw := range listing.Value {
		summary, ok := s.summarize(ctx, raw)
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "context done")
			return nil, fmt.Errorf("pending scan aborted: %w", err)
		}
		if ok {
			results = append(results, summary)
		}
	}

	metrics.RecordPendingScan(trigger, len(results))
	span.SetAttributes(
		attribute.Bool("listing.available", listing.Available),
		attribute.Int("messages.listed", len(listing.Value)),
		attribute.Int("messages.pending", len(results)),
	)

	s.logger.WithFields(logrus.Fields{
		LogFieldOwner:     abbrev.Hex(normalized),
		LogFieldTrigger:   trigger,
		LogFieldAvailable: listing.Available,
		LogFieldListed:    len(listing.Value),
		LogFieldCount:     len(results),
		LogFieldDuration:  time.Since(start).Milliseconds(),
	}).Debug("Completed pending message scan")

	return results, nil
}

// summarize turns one raw record into a summary. ok is false when the
// record is not waiting on the executor or has no transaction hash.
func (s *pendingService) summarize(ctx context.Context, raw layerzero.RawMessage) (models.PendingMessageSummary, bool) {
	probed := probeMessage(raw)
	if probed.Status != models.ExecutorStatusWaiting || probed.TxHash == "" {
		return models.PendingMessageSummary{}, false
	}

	if probed.Sender32 == "" || probed.Payload == "" {
		if candidates, ok := s.lookupDetail(ctx, probed.TxHash); ok {
			if probed.Sender32 == "" {
				probed.Sender32 = candidates.Sender32
			}
			if probed.Payload == "" {
				probed.Payload = candidates.Payload
			}
		}
	}

	summary := models.PendingMessageSummary{
		SrcTxHash:     probed.TxHash,
		DstEid:        probed.DstEid,
		Sender32:      probed.Sender32,
		Payload:       probed.Payload,
		StatusSummary: probed.Status,
		LzTxPage:      s.client.TxPageURL(probed.TxHash),
	}

	fields := map[string]interface{}{
		LogFieldSrcTxHash: summary.SrcTxHash,
		LogFieldSender32:  summary.Sender32,
		LogFieldPayload:   summary.Payload,
		LogFieldDstEid:    summary.DstEidText(),
	}
	// Verbose runs log hex values in full.
	if !IsVerboseLogging(ctx) {
		fields = abbrev.HexFields(fields)
	}
	s.logger.WithFields(fields).Debug("Pending message resolved")

	return summary, true
}

// lookupDetail runs the detail-page fallback, consulting the extraction
// cache first. Only available documents that yielded a candidate are cached.
func (s *pendingService) lookupDetail(ctx context.Context, txHash string) (hexscan.Candidates, bool) {
	if s.cache != nil {
		if candidates, ok := s.cache.Get(txHash); ok {
			metrics.RecordDetailLookup("cache")
			return candidates, true
		}
	}

	start := time.Now()
	doc := s.client.FetchDetailDocument(ctx, txHash)
	metrics.RecordUpstreamCall("detail", doc.Available, time.Since(start))
	if !doc.Available {
		metrics.RecordDetailLookup("unavailable")
		return hexscan.Candidates{}, false
	}

	candidates := hexscan.Extract(doc.Value)
	metrics.RecordDetailLookup("fetched")
	// A page that has not rendered its hex yet is retried on the next scan.
	if s.cache != nil && (candidates.Sender32 != "" || candidates.Payload != "") {
		s.cache.Set(txHash, candidates)
	}
	return candidates, true
}
