package aggregates

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/schoolbridge-backend/internal/data/repos"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
)

type ModelWriterDeps struct {
	Base BaseDeps

	Models repos.MasteryModelRepo
}

// ModelWriter upserts a mastery model by name. Levels are only written when
// the model is new; an existing model only has its thresholds replaced.
type ModelWriter interface {
	Upsert(ctx context.Context, in UpsertModelInput) (*UpsertModelResult, error)
}

type UpsertModelInput struct {
	OrganizationID uuid.UUID
	Name           string
	Thresholds     *domain.Thresholds
	Levels         []domain.MasteryLevel
}

type UpsertModelResult struct {
	Catalog *domain.Catalog
	Created bool
}

type modelWriter struct {
	deps ModelWriterDeps
}

func NewModelWriter(deps ModelWriterDeps) ModelWriter {
	deps.Base = deps.Base.withDefaults()
	return &modelWriter{deps: deps}
}

func (w *modelWriter) Upsert(ctx context.Context, in UpsertModelInput) (*UpsertModelResult, error) {
	const op = "Mastery.Model.Upsert"
	name := strings.TrimSpace(in.Name)
	if in.OrganizationID == uuid.Nil || name == "" {
		return nil, domain.ValidationFailed(op, map[string]string{"name": "organization and name are required"})
	}
	if w.deps.Models == nil {
		return nil, domain.NewError(domain.CodeInternal, op, "model writer repos not configured", nil)
	}

	out := &UpsertModelResult{}
	err := executeWrite(ctx, w.deps.Base, op, func(dbc dbctx.Context) error {
		model, err := w.deps.Models.GetByName(dbc, in.OrganizationID, name)
		if err != nil {
			return err
		}
		if model == nil {
			model = &domain.MasteryModel{OrganizationID: in.OrganizationID, Name: name}
			if in.Thresholds != nil {
				model.SetThresholds(*in.Thresholds)
			}
			if _, err := w.deps.Models.Create(dbc, model); err != nil {
				return err
			}
			levels := make([]*domain.MasteryLevel, 0, len(in.Levels))
			for i := range in.Levels {
				l := in.Levels[i]
				l.ID = uuid.Nil
				l.ModelID = model.ID
				levels = append(levels, &l)
			}
			if _, err := w.deps.Models.CreateLevels(dbc, levels); err != nil {
				return err
			}
			out.Created = true
		} else if in.Thresholds != nil {
			if err := w.deps.Models.UpdateThresholds(dbc, model.ID, *in.Thresholds); err != nil {
				return err
			}
			model.SetThresholds(*in.Thresholds)
		}
		levels, err := w.deps.Models.ListLevels(dbc, model.ID)
		if err != nil {
			return err
		}
		out.Catalog = &domain.Catalog{Model: *model, Levels: levels}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
