package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	repotest "github.com/yungbote/schoolbridge-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/domain/school"
	httpMW "github.com/yungbote/schoolbridge-backend/internal/http/middleware"
)

const testSecret = "test-secret"

type harness struct {
	t     *testing.T
	ctx   context.Context
	app   *App
	org   uuid.UUID
	model *domain.MasteryModel
	lvls  []domain.MasteryLevel
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, err := ParseConfig(env.Options{Environment: map[string]string{
		"JWT_SECRET_KEY": testSecret,
		"RUN_WORKERS":    "2",
	}})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	db := repotest.DB(t)
	a, err := NewWithDeps(context.Background(), cfg, Deps{Log: repotest.Logger(t), DB: db})
	if err != nil {
		t.Fatalf("NewWithDeps: %v", err)
	}
	t.Cleanup(a.Close)

	h := &harness{t: t, ctx: context.Background(), app: a, org: uuid.New()}
	h.model, h.lvls = repotest.SeedModel(t, h.ctx, db, h.org, domain.Thresholds{Emerging: 1, Developing: 3, Proficient: 5, Mastered: 8})
	return h
}

func (h *harness) token(roles ...string) string {
	h.t.Helper()
	tok, err := httpMW.SignToken(testSecret, uuid.New(), h.org, nil, roles, time.Hour)
	if err != nil {
		h.t.Fatalf("SignToken: %v", err)
	}
	return tok
}

func (h *harness) do(method, path, token string, body any) (int, map[string]any) {
	h.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.app.Router.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && json.Valid(rec.Body.Bytes()) {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			h.t.Fatalf("decode response: %v", err)
		}
	}
	return rec.Code, out
}

// seedSection enrolls one learner with two artifacts on one competency.
func (h *harness) seedSection() *school.Section {
	h.t.Helper()
	db := h.app.DB
	comp := repotest.SeedCompetency(h.t, h.ctx, db, h.org, "numeracy")
	sec := repotest.SeedSection(h.t, h.ctx, db, h.org, nil, true)
	learner := uuid.New()
	repotest.SeedEnrollment(h.t, h.ctx, db, sec.ID, learner, school.EnrollmentActive)
	at := time.Now().UTC().Add(-time.Hour)
	repotest.SeedArtifact(h.t, h.ctx, db, h.org, learner, at, comp.ID)
	repotest.SeedArtifact(h.t, h.ctx, db, h.org, learner, at, comp.ID)
	return sec
}

func errorOf(body map[string]any) map[string]any {
	e, _ := body["error"].(map[string]any)
	return e
}

func expectStatus(t *testing.T, got, want int, body map[string]any) {
	t.Helper()
	if got != want {
		t.Fatalf("status %d, want %d: %v", got, want, body)
	}
}

func expectFields(t *testing.T, body map[string]any, names ...string) {
	t.Helper()
	fields, _ := errorOf(body)["fields"].(map[string]any)
	for _, n := range names {
		if _, ok := fields[n]; !ok {
			t.Fatalf("missing field %q in %v", n, fields)
		}
	}
}

func TestAPIRequiresToken(t *testing.T) {
	h := newHarness(t)
	code, body := h.do(http.MethodPost, "/api/mastery/runs", "", map[string]any{})
	expectStatus(t, code, http.StatusUnauthorized, body)
	if errorOf(body)["message"] == "" || errorOf(body)["message"] == nil {
		t.Fatalf("401 without a message: %v", body)
	}

	code, body = h.do(http.MethodPost, "/api/mastery/runs", "not-a-jwt", map[string]any{})
	expectStatus(t, code, http.StatusUnauthorized, body)
}

func TestAPITriggerReviewFlow(t *testing.T) {
	h := newHarness(t)
	sec := h.seedSection()
	teacher := h.token("teacher")
	reviewer := h.token("reviewer")

	code, body := h.do(http.MethodPost, "/api/mastery/runs", teacher, map[string]any{
		"scope_kind":       "section",
		"scope_id":         sec.ID.String(),
		"mastery_model_id": h.model.ID.String(),
	})
	expectStatus(t, code, http.StatusCreated, body)
	if body["snapshot_count"] != float64(1) || body["status"] != "completed" {
		t.Fatalf("unexpected trigger response: %v", body)
	}
	runID, _ := body["run_id"].(string)

	code, body = h.do(http.MethodGet, "/api/mastery/runs/"+runID, teacher, nil)
	expectStatus(t, code, http.StatusOK, body)
	if run, _ := body["run"].(map[string]any); run["id"] != runID {
		t.Fatalf("run id: %v", body["run"])
	}

	code, body = h.do(http.MethodGet, "/api/mastery/runs/"+runID+"/snapshots?limit=10", teacher, nil)
	expectStatus(t, code, http.StatusOK, body)
	items, _ := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("want 1 snapshot, got %v", body)
	}
	snap := items[0].(map[string]any)
	snapID, _ := snap["id"].(string)
	if snap["review_status"] != "draft" {
		t.Fatalf("new snapshot status: %v", snap["review_status"])
	}

	// Teachers cannot review; reviewers cannot submit.
	code, body = h.do(http.MethodPost, "/api/mastery/snapshots/"+snapID+"/review", teacher, map[string]any{"action": "approve"})
	expectStatus(t, code, http.StatusForbidden, body)
	code, body = h.do(http.MethodPost, "/api/mastery/snapshots/"+snapID+"/submit", reviewer, nil)
	expectStatus(t, code, http.StatusForbidden, body)

	// Reviewing a draft is an illegal transition.
	code, body = h.do(http.MethodPost, "/api/mastery/snapshots/"+snapID+"/review", reviewer, map[string]any{"action": "approve"})
	expectStatus(t, code, http.StatusConflict, body)
	if errorOf(body)["code"] != "conflict" {
		t.Fatalf("error code: %v", errorOf(body))
	}

	code, body = h.do(http.MethodPost, "/api/mastery/snapshots/"+snapID+"/submit", teacher, nil)
	expectStatus(t, code, http.StatusOK, body)
	if submitted, _ := body["snapshot"].(map[string]any); submitted["review_status"] != "submitted" {
		t.Fatalf("after submit: %v", body["snapshot"])
	}

	code, body = h.do(http.MethodPost, "/api/mastery/snapshots/"+snapID+"/review", reviewer, map[string]any{"action": "override"})
	expectStatus(t, code, http.StatusBadRequest, body)
	expectFields(t, body, "override_level_id", "override_justification")

	var mastered domain.MasteryLevel
	for _, l := range h.lvls {
		if l.Kind == domain.LevelMastered {
			mastered = l
		}
	}
	code, body = h.do(http.MethodPost, "/api/mastery/snapshots/"+snapID+"/review", reviewer, map[string]any{
		"action":                 "override",
		"override_level_id":      mastered.ID.String(),
		"override_justification": "Performance task shows full mastery.",
	})
	expectStatus(t, code, http.StatusOK, body)
	if body["effective_level_id"] != mastered.ID.String() {
		t.Fatalf("effective level: %v", body["effective_level_id"])
	}

	code, body = h.do(http.MethodGet, "/api/mastery/snapshots/"+snapID, reviewer, nil)
	expectStatus(t, code, http.StatusOK, body)
	events, _ := body["review_events"].([]any)
	links, _ := body["evidence_links"].([]any)
	if len(events) != 2 || len(links) != 2 {
		t.Fatalf("detail: %d events, %d links", len(events), len(links))
	}
}

func TestAPIValidationAndEmptyScope(t *testing.T) {
	h := newHarness(t)
	teacher := h.token("teacher")

	code, body := h.do(http.MethodPost, "/api/mastery/runs", teacher, map[string]any{
		"scope_kind": "cohort",
		"scope_id":   "nope",
	})
	expectStatus(t, code, http.StatusBadRequest, body)
	expectFields(t, body, "scope_kind", "scope_id", "mastery_model_id")

	syl := repotest.SeedSyllabus(t, h.ctx, h.app.DB, h.org)
	code, body = h.do(http.MethodPost, "/api/mastery/runs", teacher, map[string]any{
		"scope_kind":       "syllabus",
		"scope_id":         syl.ID.String(),
		"mastery_model_id": h.model.ID.String(),
	})
	expectStatus(t, code, http.StatusUnprocessableEntity, body)
	if errorOf(body)["code"] != "scope_empty" {
		t.Fatalf("error code: %v", errorOf(body))
	}

	code, body = h.do(http.MethodPost, "/api/mastery/runs", teacher, map[string]any{
		"scope_kind":       "section",
		"scope_id":         uuid.NewString(),
		"mastery_model_id": h.model.ID.String(),
	})
	expectStatus(t, code, http.StatusNotFound, body)

	code, body = h.do(http.MethodGet, "/api/mastery/runs/"+uuid.NewString(), teacher, nil)
	expectStatus(t, code, http.StatusNotFound, body)
	code, body = h.do(http.MethodGet, "/api/mastery/runs/not-a-uuid", teacher, nil)
	expectStatus(t, code, http.StatusBadRequest, body)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	code, body := h.do(http.MethodGet, "/healthcheck", "", nil)
	expectStatus(t, code, http.StatusOK, body)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "schoolbridge_api_requests_total") {
		t.Fatalf("request counter not exported")
	}
}
