// Package generation provides the application layer for turning recipe
// preferences into a recipe. It implements the inbound RecipeGeneration port
// and the submit/settle steps the web frontend drives around a session.
package generation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alchemorsel/recipegen/internal/domain/preferences"
	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/domain/shared"
	"github.com/alchemorsel/recipegen/internal/domain/view"
	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/alchemorsel/recipegen/pkg/errors"
)

const tracerName = "github.com/alchemorsel/recipegen/internal/application/generation"

// Submission is a started generation: the ticket to settle and the payload
// to send.
type Submission struct {
	Ticket  view.Ticket
	Payload preferences.Payload
}

// Service implements the generation use cases
type Service struct {
	generator outbound.RecipeGenerator
	metrics   outbound.GenerationMetrics
	tracer    trace.Tracer
	logger    *zap.Logger
	now       func() time.Time
}

var _ inbound.RecipeGeneration = (*Service)(nil)

// NewService creates a new generation service
func NewService(
	generator outbound.RecipeGenerator,
	metrics outbound.GenerationMetrics,
	logger *zap.Logger,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		generator: generator,
		metrics:   metrics,
		tracer:    otel.Tracer(tracerName),
		logger:    logger.Named("generation-service"),
		now:       time.Now,
	}
}

// Begin starts a submission when the form is complete. An incomplete form is
// a silent no-op: ok is false and the workspace is untouched.
func (s *Service) Begin(ws *Workspace, locale shared.Locale) (Submission, bool) {
	if !ws.Form.CanSubmit() {
		s.metrics.RecordBlocked()
		s.logger.Debug("Submit ignored, form incomplete",
			zap.Int("ingredients", len(ws.Form.Ingredients)),
		)
		return Submission{}, false
	}

	payload := preferences.BuildPayload(ws.Form, locale)
	ticket := ws.View.Begin()

	s.logger.Info("Recipe generation started",
		zap.Uint64("ticket", uint64(ticket)),
		zap.String("cuisine", payload.CuisineType),
		zap.String("meal_type", payload.MealType),
		zap.String("language", payload.Language),
	)

	return Submission{Ticket: ticket, Payload: payload}, true
}

// Generate calls the recipe service. Every error returned is an *errors.AppError.
func (s *Service) Generate(ctx context.Context, payload preferences.Payload) (*recipe.Recipe, error) {
	ctx, span := s.tracer.Start(ctx, "generation.Generate",
		trace.WithAttributes(
			attribute.String("recipe.cuisine", payload.CuisineType),
			attribute.String("recipe.meal_type", payload.MealType),
			attribute.String("recipe.language", payload.Language),
		),
	)
	defer span.End()

	start := s.now()
	r, err := s.generator.Generate(ctx, payload)
	duration := s.now().Sub(start)

	if err == nil && r == nil {
		err = errors.NewServiceError(recipe.ErrMissingRecipe.Error())
	}
	if err != nil {
		appErr := errors.Wrap(err, "Recipe generation failed")
		s.metrics.RecordGeneration(string(appErr.Code), duration)
		span.RecordError(appErr)
		span.SetStatus(codes.Error, string(appErr.Code))
		s.logger.Warn("Recipe generation failed",
			zap.String("code", string(appErr.Code)),
			zap.Duration("duration", duration),
			zap.Error(appErr),
		)
		return nil, appErr
	}

	s.metrics.RecordGeneration("", duration)
	span.SetAttributes(attribute.String("recipe.name", r.Name))
	s.logger.Info("Recipe generated",
		zap.String("name", r.Name),
		zap.Int("ingredients", len(r.Ingredients)),
		zap.Duration("duration", duration),
	)
	return r, nil
}

// Settle applies the outcome of a submission. The last settle wins, so a
// stale outcome still replaces the view; it is only logged.
func (s *Service) Settle(ws *Workspace, ticket view.Ticket, r *recipe.Recipe, err error) view.Settlement {
	var settled view.Settlement
	if err != nil {
		settled = ws.View.Fail(ticket, FailureFrom(err))
	} else {
		settled = ws.View.Succeed(ticket, r)
	}
	ws.Overlay.Sync(ws.View.Revision)

	if settled.Stale {
		s.metrics.RecordStaleSettle()
		s.logger.Warn("Stale generation result applied",
			zap.Uint64("ticket", uint64(ticket)),
			zap.Uint64("latest_ticket", uint64(ws.View.Issued)),
			zap.String("phase", string(ws.View.Current())),
		)
	}
	return settled
}

// GenerateRecipe runs one submission without a workspace.
func (s *Service) GenerateRecipe(ctx context.Context, cmd inbound.GenerateRecipeCommand) (*recipe.Recipe, error) {
	if cmd.Form == nil || !cmd.Form.CanSubmit() {
		s.metrics.RecordBlocked()
		return nil, errors.NewValidationError("ingredients, cuisineType, cookingTime and mealType are required")
	}
	return s.Generate(ctx, preferences.BuildPayload(cmd.Form, cmd.Locale))
}

// FailureFrom converts an error into what the error banner shows.
func FailureFrom(err error) view.Failure {
	appErr := errors.Wrap(err, "Recipe generation failed")
	failure := view.Failure{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Detail:  appErr.Details,
	}
	if status, ok := appErr.Metadata["status"].(int); ok {
		failure.Status = status
	}
	return failure
}

type nopMetrics struct{}

func (nopMetrics) RecordGeneration(string, time.Duration) {}
func (nopMetrics) RecordBlocked()                         {}
func (nopMetrics) RecordStaleSettle()                     {}
