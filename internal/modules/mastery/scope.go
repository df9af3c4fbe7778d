package mastery

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/schoolbridge-backend/internal/data/repos"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/observability"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

// ScopeResolver turns a scope into its learner and competency sets. Learners
// are resolved first; competencies are only looked up when learners exist.
type ScopeResolver interface {
	Resolve(ctx context.Context, scope domain.Scope) (domain.ScopeResolution, error)
}

type scopeResolver struct {
	scopes repos.ScopeRepo
	log    *logger.Logger
}

func NewScopeResolver(scopes repos.ScopeRepo, baseLog *logger.Logger) ScopeResolver {
	return &scopeResolver{scopes: scopes, log: baseLog.With("component", "ScopeResolver")}
}

func (r *scopeResolver) Resolve(ctx context.Context, scope domain.Scope) (domain.ScopeResolution, error) {
	const op = "mastery.scope.resolve"
	ctx, span := observability.Tracer().Start(ctx, "mastery.scope.resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("scope.kind", string(scope.Kind)),
		attribute.String("scope.id", scope.ID.String()),
	)

	out := domain.ScopeResolution{Scope: scope}
	if !scope.Kind.Valid() || scope.ID == uuid.Nil || scope.OrganizationID == uuid.Nil {
		return out, domain.ValidationFailed(op, map[string]string{"scope": "kind, id and organization are required"})
	}
	dbc := dbctx.Background(ctx)

	exists, err := r.exists(dbc, scope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scope lookup failed")
		return out, domain.Wrap(domain.CodeInternal, op, err)
	}
	if !exists {
		return out, domain.NewError(domain.CodeNotFound, op, string(scope.Kind)+" not found", nil)
	}

	out.Learners, err = r.learners(dbc, scope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "learner resolution failed")
		return out, domain.Wrap(domain.CodeInternal, op, err)
	}
	if len(out.Learners) == 0 {
		out.Empty = domain.EmptyNoLearners
		return out, nil
	}

	if scope.Kind == domain.ScopeSyllabus {
		weeks, err := r.scopes.CountSyllabusWeeks(dbc, scope.ID)
		if err != nil {
			span.RecordError(err)
			return out, domain.Wrap(domain.CodeInternal, op, err)
		}
		if weeks == 0 {
			out.Empty = domain.EmptyNoWeeks
			return out, nil
		}
	}
	out.Competencies, err = r.competencies(dbc, scope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "competency resolution failed")
		return out, domain.Wrap(domain.CodeInternal, op, err)
	}
	if len(out.Competencies) == 0 {
		out.Empty = domain.EmptyNoCompetencies
		return out, nil
	}
	span.SetAttributes(
		attribute.Int("scope.learners", len(out.Learners)),
		attribute.Int("scope.competencies", len(out.Competencies)),
	)
	return out, nil
}

func (r *scopeResolver) exists(dbc dbctx.Context, s domain.Scope) (bool, error) {
	switch s.Kind {
	case domain.ScopeExperience:
		return r.scopes.ExperienceExists(dbc, s.OrganizationID, s.ID)
	case domain.ScopeSyllabus:
		return r.scopes.SyllabusExists(dbc, s.OrganizationID, s.ID)
	case domain.ScopeProgram:
		return r.scopes.ProgramExists(dbc, s.OrganizationID, s.ID)
	default:
		return r.scopes.SectionExists(dbc, s.OrganizationID, s.ID)
	}
}

func (r *scopeResolver) learners(dbc dbctx.Context, s domain.Scope) ([]uuid.UUID, error) {
	switch s.Kind {
	case domain.ScopeExperience:
		return r.scopes.LearnersByExperience(dbc, s.OrganizationID, s.ID)
	case domain.ScopeSyllabus:
		return r.scopes.LearnersBySyllabus(dbc, s.OrganizationID, s.ID)
	case domain.ScopeProgram:
		return r.scopes.LearnersByProgram(dbc, s.OrganizationID, s.ID)
	default:
		return r.scopes.LearnersBySection(dbc, s.OrganizationID, s.ID)
	}
}

// Program and section scopes take every competency of the organization.
func (r *scopeResolver) competencies(dbc dbctx.Context, s domain.Scope) ([]uuid.UUID, error) {
	switch s.Kind {
	case domain.ScopeExperience:
		return r.scopes.CompetenciesByExperience(dbc, s.OrganizationID, s.ID)
	case domain.ScopeSyllabus:
		return r.scopes.CompetenciesBySyllabus(dbc, s.OrganizationID, s.ID)
	default:
		return r.scopes.CompetenciesByOrganization(dbc, s.OrganizationID)
	}
}
