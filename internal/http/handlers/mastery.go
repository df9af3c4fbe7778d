package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/http/response"
	"github.com/yungbote/schoolbridge-backend/internal/modules/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

type MasteryHandler struct {
	log *logger.Logger
	uc  mastery.Usecases
}

func NewMasteryHandler(log *logger.Logger, uc mastery.Usecases) *MasteryHandler {
	return &MasteryHandler{log: log.With("handler", "MasteryHandler"), uc: uc}
}

// POST /api/mastery/runs
func (h *MasteryHandler) TriggerRun(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req mastery.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, string(domain.CodeValidation), err)
		return
	}
	res, err := h.uc.TriggerRun(c.Request.Context(), actor, req)
	if err != nil {
		if res != nil {
			h.log.Warn("snapshot run ended early", "run_id", res.RunID, "error", err)
			response.RespondErrWithDetails(c, err, res)
			return
		}
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// POST /api/mastery/snapshots/:id/review
func (h *MasteryHandler) ReviewSnapshot(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req mastery.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, string(domain.CodeValidation), err)
		return
	}
	snap, err := h.uc.ReviewSnapshot(c.Request.Context(), actor, id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"snapshot": snap, "effective_level_id": snap.EffectiveLevelID()})
}

// POST /api/mastery/snapshots/:id/submit
func (h *MasteryHandler) SubmitSnapshot(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	snap, err := h.uc.SubmitSnapshot(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"snapshot": snap})
}

// GET /api/mastery/runs/:id
func (h *MasteryHandler) GetRun(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	run, err := h.uc.GetRun(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"run": run})
}

// GET /api/mastery/runs/:id/snapshots?limit=&offset=
func (h *MasteryHandler) ListRunSnapshots(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	page, err := h.uc.ListRunSnapshots(c.Request.Context(), actor, id, limit, offset)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/mastery/snapshots/:id
func (h *MasteryHandler) GetSnapshot(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.uc.GetSnapshot(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, detail)
}

func actorFrom(c *gin.Context) (mastery.Actor, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil || rd.OrganizationID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return mastery.Actor{}, false
	}
	return mastery.Actor{UserID: rd.UserID, OrganizationID: rd.OrganizationID, SchoolID: rd.SchoolID}, true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondErr(c, domain.ValidationFailed("http.path", map[string]string{name: "must be a uuid"}))
		return uuid.Nil, false
	}
	return id, true
}
