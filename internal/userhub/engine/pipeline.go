// Package engine executes commands against the journal within a single
// unit of work per command.
package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/userhub/internal/platform/errors"
	"github.com/louisbranch/userhub/internal/userhub/domain/command"
	"github.com/louisbranch/userhub/internal/userhub/storage"
)

const (
	internalFailureMessage = "An error occurred processing your request"
	raceConditionMessage   = "Concurrent update detected, please retry"
)

// Handler runs a command's business logic inside an open unit of work.
type Handler func(ctx context.Context, uow storage.UnitOfWork) (command.Result, error)

// SessionHandler runs session-scoped business logic after the guard resolved
// the acting session.
type SessionHandler func(ctx context.Context, uow storage.UnitOfWork, session storage.SessionRecord) (command.Result, error)

// SessionContext addresses the acting session for a session-scoped command.
// Resolved is an optional pre-loaded record; when set, the guard's projection
// query is skipped but the closed check still applies.
type SessionContext struct {
	ID       string
	Resolved *storage.SessionRecord
}

// Pipeline owns the execution order every command goes through: open a unit
// of work, resolve the session when required, run the handler, commit.
type Pipeline struct {
	store  storage.Store
	guard  Guard
	logger *log.Logger
	tracer trace.Tracer
	clock  func() time.Time
}

// NewPipeline creates a pipeline over the given store.
func NewPipeline(store storage.Store, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		store:  store,
		logger: logger,
		tracer: otel.Tracer("userhub/engine"),
		clock:  time.Now,
	}
}

// WithClock overrides the time source, for deterministic tests.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	if p == nil || clock == nil {
		return p
	}
	p.clock = clock
	return p
}

// Execute runs a command that does not require an acting session. The unit
// of work commits only when the handler succeeds.
func (p *Pipeline) Execute(ctx context.Context, name string, handler Handler) command.Result {
	ctx, span := p.tracer.Start(ctx, "command."+name,
		trace.WithAttributes(attribute.String("command.name", name)))
	defer span.End()

	uow, err := p.store.Begin(ctx)
	if err != nil {
		return p.fail(span, name, apperrors.CodeInternal, internalFailureMessage, err)
	}
	defer func() { _ = uow.Rollback() }()

	result, err := handler(ctx, uow)
	if err != nil {
		return p.fail(span, name, apperrors.CodeInternal, internalFailureMessage, err)
	}
	if !result.Success {
		span.SetAttributes(attribute.String("command.error_code", string(result.ErrorCode)))
		return result
	}

	if err := uow.Commit(ctx); err != nil {
		if errors.Is(err, storage.ErrUniqueViolation) {
			return p.fail(span, name, apperrors.CodeRaceCondition, raceConditionMessage, err)
		}
		return p.fail(span, name, apperrors.CodeInternal, internalFailureMessage, err)
	}
	span.SetAttributes(attribute.Bool("command.success", true))
	return result
}

// ExecuteInSession runs a session-scoped command. The guard resolves the
// acting session first, and a successful resolution advances the session's
// activity bookkeeping even when the handler itself fails.
func (p *Pipeline) ExecuteInSession(ctx context.Context, name string, sc SessionContext, handler SessionHandler) command.Result {
	ctx, span := p.tracer.Start(ctx, "command."+name,
		trace.WithAttributes(attribute.String("command.name", name)))
	defer span.End()

	uow, err := p.store.Begin(ctx)
	if err != nil {
		return p.fail(span, name, apperrors.CodeInternal, internalFailureMessage, err)
	}
	defer func() { _ = uow.Rollback() }()

	var session storage.SessionRecord
	if sc.Resolved != nil {
		session = *sc.Resolved
		if session.Closed {
			span.SetAttributes(attribute.String("command.error_code", string(apperrors.CodeSessionClosed)))
			return command.Fail(apperrors.CodeSessionClosed, messageSessionClosed)
		}
	} else {
		session, err = p.guard.LoadActive(ctx, uow, sc.ID)
		if err != nil {
			code := apperrors.CodeOf(err)
			span.SetAttributes(attribute.String("command.error_code", string(code)))
			return command.Fail(code, err.Error())
		}
	}

	// Activity bookkeeping is best effort: a failed touch must not abort
	// the command.
	if err := uow.TouchSession(ctx, session.ID, p.clock().UTC()); err != nil {
		p.logger.Printf("command %s: touch session %s: %v", name, session.ID, err)
	}

	result, err := handler(ctx, uow, session)
	if err != nil {
		uow.DiscardPending()
		p.commitBookkeeping(ctx, name, uow)
		return p.fail(span, name, apperrors.CodeInternal, internalFailureMessage, err)
	}
	if !result.Success {
		// Discard staged events but keep the activity touch.
		uow.DiscardPending()
		p.commitBookkeeping(ctx, name, uow)
		span.SetAttributes(attribute.String("command.error_code", string(result.ErrorCode)))
		return result
	}

	if err := uow.Commit(ctx); err != nil {
		if errors.Is(err, storage.ErrUniqueViolation) {
			return p.fail(span, name, apperrors.CodeRaceCondition, raceConditionMessage, err)
		}
		return p.fail(span, name, apperrors.CodeInternal, internalFailureMessage, err)
	}
	span.SetAttributes(attribute.Bool("command.success", true))
	return result
}

func (p *Pipeline) commitBookkeeping(ctx context.Context, name string, uow storage.UnitOfWork) {
	if err := uow.Commit(ctx); err != nil {
		p.logger.Printf("command %s: commit bookkeeping: %v", name, err)
	}
}

func (p *Pipeline) fail(span trace.Span, name string, code apperrors.Code, message string, err error) command.Result {
	span.RecordError(err)
	span.SetAttributes(attribute.String("command.error_code", string(code)))
	p.logger.Printf("command %s failed: %v", name, err)
	return command.Fail(code, message)
}
