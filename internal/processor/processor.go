package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/waddle/internal/analysis"
	"github.com/MikeSquared-Agency/waddle/internal/calls"
	"github.com/MikeSquared-Agency/waddle/internal/charts"
	"github.com/MikeSquared-Agency/waddle/internal/export"
)

var (
	ErrPartnerIndex = errors.New("partner index out of range")
	ErrNoStore      = errors.New("no analysis store configured")
)

// Store persists analyses.
type Store interface {
	SaveAnalysis(ctx context.Context, a *analysis.Analysis) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*analysis.Analysis, error)
	DeleteAnalysis(ctx context.Context, id uuid.UUID) error
}

// Publisher sends events to the bus.
type Publisher interface {
	Publish(subject string, data any) error
}

// Request is one analysis to run over decoded conversations.
type Request struct {
	Source        string
	Conversations []export.Conversation
	Partner       int
	Timezone      string // empty uses the processor default
	Progress      calls.ProgressFunc
}

// Processor runs the analysis pipeline: select the partner conversation,
// rebuild its calls, derive the charts and persist the result.
type Processor struct {
	store           Store
	hermes          Publisher
	defaultTimezone string
	logger          *slog.Logger
	now             func() time.Time
}

// New builds a Processor. store and pub may be nil.
func New(store Store, pub Publisher, defaultTimezone string, logger *slog.Logger) *Processor {
	return &Processor{
		store:           store,
		hermes:          pub,
		defaultTimezone: defaultTimezone,
		logger:          logger,
		now:             time.Now,
	}
}

// Analyze runs the pipeline for req. Errors are input errors
// (ErrPartnerIndex) or a *calls.ReconstructError, or come from the store.
func (p *Processor) Analyze(ctx context.Context, req Request) (*analysis.Analysis, error) {
	if req.Partner < 0 || req.Partner >= len(req.Conversations) {
		return nil, fmt.Errorf("%w: %d of %d conversations", ErrPartnerIndex, req.Partner, len(req.Conversations))
	}
	conv := req.Conversations[req.Partner]
	partner := partnerFor(conv, req.Partner)

	tzName := req.Timezone
	if tzName == "" {
		tzName = p.defaultTimezone
	}
	loc, ok := calls.LoadLocation(tzName)
	if !ok {
		p.logger.Warn("unknown timezone, using UTC", "timezone", tzName)
	}

	rec := calls.NewReconstructor(loc, p.logger)
	if req.Progress != nil {
		rec.WithProgress(req.Progress)
	}
	res, err := rec.Reconstruct(conv)
	if err != nil {
		return nil, err
	}

	a := &analysis.Analysis{
		ID:        uuid.New(),
		Source:    req.Source,
		Partner:   partner,
		Timezone:  loc.String(),
		Stats:     res.Stats,
		Calls:     res.Calls,
		Summary:   charts.Summarize(res.Calls, &partner),
		CreatedAt: p.now().UTC(),
	}

	if p.store != nil {
		if err := p.store.SaveAnalysis(ctx, a); err != nil {
			return nil, fmt.Errorf("save analysis: %w", err)
		}
	}

	p.logger.Info("analysis complete",
		"analysis_id", a.ID,
		"partner", partner.Label,
		"timezone", a.Timezone,
		"calls", len(a.Calls),
		"total_seconds", a.Summary.Total.Seconds,
	)
	return a, nil
}

// Get loads a stored analysis.
func (p *Processor) Get(ctx context.Context, id uuid.UUID) (*analysis.Analysis, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	return p.store.GetAnalysis(ctx, id)
}

// Delete removes a stored analysis.
func (p *Processor) Delete(ctx context.Context, id uuid.UUID) error {
	if p.store == nil {
		return ErrNoStore
	}
	if err := p.store.DeleteAnalysis(ctx, id); err != nil {
		return err
	}
	p.logger.Info("analysis deleted", "analysis_id", id)
	return nil
}

// partnerFor describes conv the same way the partner listing does.
func partnerFor(conv export.Conversation, index int) export.Partner {
	if ps := export.Partners([]export.Conversation{conv}); len(ps) == 1 {
		ps[0].Index = index
		return ps[0]
	}
	// System threads are not listed but may still be picked by index.
	return export.Partner{Label: conv.ID, Username: conv.ID, Index: index}
}

// FailureKind classifies an Analyze or decode error for callers that report
// failures without Go error values.
func FailureKind(err error) string {
	var rerr *calls.ReconstructError
	switch {
	case errors.As(err, &rerr):
		return analysis.KindReconstruct
	case IsInputError(err):
		return analysis.KindInput
	default:
		return analysis.KindInternal
	}
}

// IsInputError reports whether err was caused by the uploaded export or the
// partner choice rather than by the service.
func IsInputError(err error) bool {
	return errors.Is(err, ErrPartnerIndex) ||
		errors.Is(err, export.ErrUnsupportedFile) ||
		errors.Is(err, export.ErrMissingMessages) ||
		errors.Is(err, export.ErrNoConversations) ||
		errors.Is(err, export.ErrInvalidExport)
}
