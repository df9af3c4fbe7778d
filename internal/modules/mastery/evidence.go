package mastery

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/schoolbridge-backend/internal/data/repos"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
)

// EvidenceCollector gathers the qualifying evidence for learner/competency
// pairs. Attendance is never evidence.
type EvidenceCollector interface {
	// Collect returns the evidence for one pair.
	Collect(ctx context.Context, scope domain.Scope, learnerID, competencyID uuid.UUID) (domain.EvidenceAggregate, error)
	// CollectForLearner fetches one learner's evidence for every competency at
	// once. Each entry equals what Collect returns for that pair.
	CollectForLearner(ctx context.Context, scope domain.Scope, learnerID uuid.UUID, competencyIDs []uuid.UUID) (map[uuid.UUID]domain.EvidenceAggregate, error)
}

type evidenceCollector struct {
	evidence repos.EvidenceRepo
}

func NewEvidenceCollector(evidence repos.EvidenceRepo) EvidenceCollector {
	return &evidenceCollector{evidence: evidence}
}

func (c *evidenceCollector) Collect(ctx context.Context, scope domain.Scope, learnerID, competencyID uuid.UUID) (domain.EvidenceAggregate, error) {
	out, err := c.CollectForLearner(ctx, scope, learnerID, []uuid.UUID{competencyID})
	if err != nil {
		return domain.EvidenceAggregate{}, err
	}
	return out[competencyID], nil
}

func (c *evidenceCollector) CollectForLearner(ctx context.Context, scope domain.Scope, learnerID uuid.UUID, competencyIDs []uuid.UUID) (map[uuid.UUID]domain.EvidenceAggregate, error) {
	const op = "mastery.evidence.collect"
	dbc := dbctx.Background(ctx)
	q := repos.EvidenceQuery{
		OrganizationID: scope.OrganizationID,
		LearnerID:      learnerID,
		CompetencyIDs:  competencyIDs,
	}
	if scope.Kind == domain.ScopeSyllabus {
		id := scope.ID
		q.SyllabusID = &id
	}

	assessments, err := c.evidence.Assessments(dbc, q)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	observations, err := c.evidence.Observations(dbc, q)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	participation, err := c.evidence.Participation(dbc, q)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	portfolio, err := c.evidence.PortfolioArtifacts(dbc, q)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}

	out := make(map[uuid.UUID]domain.EvidenceAggregate, len(competencyIDs))
	for _, compID := range competencyIDs {
		items := make([]domain.EvidenceItem, 0,
			len(assessments[compID])+len(observations[compID])+len(participation)+len(portfolio[compID]))
		items = append(items, assessments[compID]...)
		items = append(items, observations[compID]...)
		items = append(items, participation...)
		items = append(items, portfolio[compID]...)
		out[compID] = domain.NewEvidenceAggregate(items)
	}
	return out, nil
}
