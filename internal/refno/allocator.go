package refno

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docfiling/internal/apperr"
	"docfiling/internal/metrics"
	"docfiling/internal/model"
	"docfiling/internal/repository"
)

// MsgInvalidReference is reported when a department/document type pair does not resolve.
const MsgInvalidReference = "document type not found in department"

// Allocation is a minted reference together with what produced it. Callers
// that fail to persist the document use it to hand the number back.
type Allocation struct {
	RefNo  string
	Key    repository.CounterKey
	Prefix string
	Seq    int64
}

// Allocator turns a counter increment into a unique reference number.
type Allocator struct {
	departments repository.DepartmentRepository
	counters    repository.CounterStore
	documents   repository.DocumentRepository
	metrics     *metrics.Domain
	log         logrus.FieldLogger
	tracer      trace.Tracer
	now         func() time.Time
}

// Option customizes an Allocator.
type Option func(*Allocator)

// WithClock overrides the time source used to pick the counter year.
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) { a.now = now }
}

// WithMetrics records allocation outcomes.
func WithMetrics(m *metrics.Domain) Option {
	return func(a *Allocator) { a.metrics = m }
}

// NewAllocator creates an Allocator over the given stores.
func NewAllocator(
	departments repository.DepartmentRepository,
	counters repository.CounterStore,
	documents repository.DocumentRepository,
	log logrus.FieldLogger,
	opts ...Option,
) *Allocator {
	a := &Allocator{
		departments: departments,
		counters:    counters,
		documents:   documents,
		log:         log,
		tracer:      otel.Tracer("docfiling/refno"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate increments the counter of the type for the current year and
// returns the formatted reference. A collision with an existing document is
// reported as KindConflict; the consumed sequence value stays consumed.
func (a *Allocator) Allocate(ctx context.Context, departmentID, documentTypeID string) (*Allocation, error) {
	ctx, span := a.tracer.Start(ctx, "refno.Allocate", trace.WithAttributes(
		attribute.String("department_id", departmentID),
		attribute.String("document_type_id", documentTypeID),
	))
	defer span.End()

	alloc, err := a.allocate(ctx, departmentID, documentTypeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.KindOf(err).String())
		a.metrics.Allocation(resultOf(err))
		return nil, err
	}
	span.SetAttributes(attribute.String("ref_no", alloc.RefNo))
	a.metrics.Allocation(metrics.ResultOK)
	return alloc, nil
}

func (a *Allocator) allocate(ctx context.Context, departmentID, documentTypeID string) (*Allocation, error) {
	if _, err := a.departments.FindDocumentType(ctx, departmentID, documentTypeID); err != nil {
		return nil, invalidReference(err)
	}

	key := repository.CounterKey{
		DepartmentID:   departmentID,
		DocumentTypeID: documentTypeID,
		Year:           a.now().Year(),
	}
	seq, err := a.counters.Increment(ctx, key)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Wrap(apperr.KindAllocationFailed, "document type disappeared during allocation", err)
		}
		return nil, err
	}

	// The increment does not return prefix and padding.
	dt, err := a.departments.FindDocumentType(ctx, departmentID, documentTypeID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Wrap(apperr.KindAllocationFailed, "document type disappeared during allocation", err)
		}
		return nil, err
	}

	ref := Format(dt.Prefix, seq, dt.Padding, key.Year)
	exists, err := a.documents.ExistsByRefNo(ctx, ref)
	if err != nil {
		return nil, err
	}
	if exists {
		a.log.WithFields(logrus.Fields{
			"component": "refno",
			"ref_no":    ref,
			"seq":       seq,
		}).Warn("refno_collision")
		return nil, apperr.Newf(apperr.KindConflict, "reference number %s already exists", ref)
	}

	return &Allocation{RefNo: ref, Key: key, Prefix: dt.Prefix, Seq: seq}, nil
}

// Release hands a freshly allocated number back when the document that was
// meant to carry it could not be stored. It only succeeds while no later
// allocation has happened.
func (a *Allocator) Release(ctx context.Context, alloc *Allocation) {
	if alloc == nil {
		return
	}
	moved, err := a.counters.Decrement(context.WithoutCancel(ctx), alloc.Key, alloc.Prefix, alloc.Seq)
	entry := a.log.WithFields(logrus.Fields{
		"component": "refno",
		"ref_no":    alloc.RefNo,
	})
	switch {
	case err != nil:
		a.metrics.Reclaim(metrics.ResultFailed)
		entry.WithError(err).Warn("refno_release_failed")
	case moved:
		a.metrics.Reclaim(metrics.ResultReclaimed)
		entry.Debug("refno_released")
	default:
		a.metrics.Reclaim(metrics.ResultGap)
		entry.Info("refno_gap")
	}
}

// Reclaim hands back the sequence value of a deleted document. The counter
// only moves when the document still holds the latest value of its year, so
// a number is never issued twice while another document carries it.
func (a *Allocator) Reclaim(ctx context.Context, doc *model.Document) {
	prefix, seq, yy, ok := Parse(doc.RefNo)
	year := doc.CreatedDate.In(a.now().Location()).Year()
	if !ok || yy != year%100 {
		a.metrics.Reclaim(metrics.ResultGap)
		a.log.WithFields(logrus.Fields{
			"component": "refno",
			"ref_no":    doc.RefNo,
		}).Info("refno_gap")
		return
	}
	a.Release(ctx, &Allocation{
		RefNo:  doc.RefNo,
		Key:    repository.CounterKey{DepartmentID: doc.DepartmentID, DocumentTypeID: doc.DocumentTypeID, Year: year},
		Prefix: prefix,
		Seq:    seq,
	})
}

func invalidReference(err error) error {
	if apperr.IsKind(err, apperr.KindNotFound) || apperr.IsKind(err, apperr.KindInvalidInput) {
		return apperr.Wrap(apperr.KindNotFound, MsgInvalidReference, err)
	}
	return err
}

func resultOf(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindConflict:
		return metrics.ResultConflict
	case apperr.KindNotFound:
		return metrics.ResultNotFound
	default:
		return metrics.ResultFailed
	}
}
