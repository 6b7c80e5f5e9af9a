// Package pipeline orchestrates one webhook delivery end to end: normalize,
// duplicate gate, quality analysis, field extraction, record sync, and
// outcome dispatch. Any failure inside the run lands the verbatim payload on
// the retry queue instead of being lost.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"voice-lead-pipeline/internal/callctx"
	"voice-lead-pipeline/internal/dedupe"
	"voice-lead-pipeline/internal/dispatch"
	"voice-lead-pipeline/internal/extract"
	"voice-lead-pipeline/internal/models"
	"voice-lead-pipeline/internal/normalize"
	"voice-lead-pipeline/internal/observability/logging"
	"voice-lead-pipeline/internal/observability/metrics"
	"voice-lead-pipeline/internal/quality"
	"voice-lead-pipeline/internal/records"
	"voice-lead-pipeline/internal/retryqueue"
)

// Pipeline wires the processing stages together.
type Pipeline struct {
	dedupe     *dedupe.Registry
	sync       *records.Synchronizer
	dispatcher *dispatch.Dispatcher
	retry      *retryqueue.Publisher
	calls      *callctx.Cache
	metrics    *metrics.Metrics
	log        zerolog.Logger
	now        func() time.Time
}

// New wires a Pipeline. All collaborators are required except retry, which
// may be a log-only publisher.
func New(reg *dedupe.Registry, sync *records.Synchronizer, dispatcher *dispatch.Dispatcher, retry *retryqueue.Publisher, calls *callctx.Cache, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		dedupe:     reg,
		sync:       sync,
		dispatcher: dispatcher,
		retry:      retry,
		calls:      calls,
		metrics:    metrics.DefaultMetrics,
		log:        logging.WithComponent(log, "pipeline"),
		now:        time.Now,
	}
}

// Process runs one delivery through the pipeline. raw is the verbatim
// request body, payload its decoded form. The webhook handler has already
// acknowledged the delivery; errors here are terminal for this attempt and
// route the raw body to the retry queue.
func (p *Pipeline) Process(ctx context.Context, raw []byte, payload map[string]any) {
	start := p.now()
	p.metrics.RecordEventReceived()

	var ev *models.NormalizedCallEvent
	defer func() {
		if r := recover(); r != nil {
			p.fail(ctx, raw, ev, fmt.Sprintf("panic: %v", r), start)
		}
	}()

	ev, skip := normalize.Normalize(payload, start)
	if skip {
		p.metrics.RecordEventSkipped("unrecognized_payload")
		p.log.Info().Msg("skipping delivery with no transcript or status")
		return
	}
	logger := logging.WithCall(p.log, ev.CallID)

	if !p.dedupe.ShouldProcess(ev.CallID) {
		p.metrics.RecordDuplicate()
		logger.Info().Msg("suppressing duplicate delivery")
		return
	}

	if p.calls != nil && ev.CallID != "" {
		p.calls.Put(ev.CallID, callctx.Info{
			Phone:     ev.LeadPhone(),
			TenantKey: ev.TenantKey(),
			LeadName:  ev.LeadName(),
		})
	}

	qa := quality.Analyze(quality.Input{
		Transcript:      ev.Transcript,
		Outcome:         ev.Outcome,
		DurationSeconds: ev.DurationSeconds,
		Engagement:      ev.Engagement,
	}, start)
	p.metrics.RecordAnalysis(string(qa.Sentiment), qa.QualityScore)

	fields := extract.Extract(ev)

	rowID, created, err := p.sync.Sync(ctx, ev, &qa, &fields)
	if err != nil {
		p.metrics.RecordSyncError()
		p.fail(ctx, raw, ev, fmt.Sprintf("record sync: %v", err), start)
		return
	}
	if created {
		p.metrics.RecordSync("created")
	} else {
		p.metrics.RecordSync("updated")
	}

	// Only a fully synced event counts as processed for duplicate purposes,
	// so a retried delivery after a failure is not mistaken for a duplicate.
	p.dedupe.MarkProcessed(ev.CallID)

	p.dispatcher.ProcessToolCalls(ctx, ev)
	p.dispatcher.Dispatch(ctx, ev, &qa, &fields)

	p.metrics.RecordEventProcessed(false, p.now().Sub(start).Seconds())
	logger.Info().
		Str("rowId", rowID).
		Str("sentiment", string(qa.Sentiment)).
		Int("qualityScore", qa.QualityScore).
		Msg("event processed")
}

// fail records the failure and hands the verbatim payload to the retry
// queue. The retry publish itself is best effort.
func (p *Pipeline) fail(ctx context.Context, raw []byte, ev *models.NormalizedCallEvent, reason string, start time.Time) {
	callID := ""
	if ev != nil {
		callID = ev.CallID
	}
	p.metrics.RecordEventProcessed(true, p.now().Sub(start).Seconds())
	p.log.Error().Str("callId", callID).Str("reason", reason).Msg("event processing failed")
	if p.retry == nil {
		return
	}
	if err := p.retry.Publish(ctx, callID, raw, reason); err != nil {
		p.log.Error().Err(err).Str("callId", callID).Msg("retry queue publish failed, event lost")
	}
}
