package processor

import (
	"bytes"
	"context"

	"github.com/goccy/go-json"

	"github.com/MikeSquared-Agency/waddle/internal/analysis"
	"github.com/MikeSquared-Agency/waddle/internal/export"
)

// HandleAnalysisRequested is the NATS handler for waddle.analysis.requested.
// Every request is answered with a completed or a failed event.
func (p *Processor) HandleAnalysisRequested(subject string, data []byte) {
	ctx := context.Background()

	var evt analysis.RequestedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse analysis request", "subject", subject, "error", err)
		return
	}

	p.logger.Info("processing analysis request",
		"request_id", evt.RequestID,
		"filename", evt.Filename,
		"partner", evt.Partner,
	)

	convs, err := export.Decode(bytes.NewReader(evt.Export), evt.Filename)
	if err != nil {
		p.fail(evt.RequestID, err)
		return
	}

	a, err := p.Analyze(ctx, Request{
		Source:        evt.Filename,
		Conversations: convs,
		Partner:       evt.Partner,
		Timezone:      evt.Timezone,
	})
	if err != nil {
		p.fail(evt.RequestID, err)
		return
	}

	p.publish(analysis.SubjectCompleted, analysis.CompletedEvent{
		RequestID:    evt.RequestID,
		AnalysisID:   a.ID,
		Partner:      a.Partner.Label,
		Calls:        len(a.Calls),
		TotalSeconds: a.Summary.Total.Seconds,
	})
}

func (p *Processor) fail(requestID string, err error) {
	kind := FailureKind(err)
	p.logger.Warn("analysis request failed", "request_id", requestID, "kind", kind, "error", err)
	p.publish(analysis.SubjectFailed, analysis.FailedEvent{
		RequestID: requestID,
		Error:     err.Error(),
		Kind:      kind,
	})
}

func (p *Processor) publish(subject string, data any) {
	if p.hermes == nil {
		return
	}
	if err := p.hermes.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish event", "subject", subject, "error", err)
	}
}
