package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/auth"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/domain"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/repository"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/service"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/reminder"
)

type stubSweeper struct {
	rep reminder.Report
	err error
}

func (s stubSweeper) Run(context.Context) (reminder.Report, error) { return s.rep, s.err }

func setupRouter(sw Sweeper) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(auth.WithUser(nil))

	lc := service.NewLifecycle(repository.NewMemoryStore(), nil)
	h := NewHandler(lc, sw)
	h.Register(api)
	h.RegisterAdmin(api.Group("/admin", auth.RequireAdmin([]string{"ops"})))
	return r
}

type response struct {
	OK          bool                `json:"ok"`
	Error       string              `json:"error"`
	Kind        domain.Kind         `json:"kind"`
	Project     *domain.Project     `json:"project"`
	Bid         *domain.Bid         `json:"bid"`
	Bids        []domain.Bid        `json:"bids"`
	Deliverable *domain.Deliverable `json:"deliverable"`
}

func do(t *testing.T, r *gin.Engine, method, path, user string, body any) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var resp response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return rr.Code, resp
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	r := setupRouter(nil)

	code, resp := do(t, r, http.MethodPost, "/api/v1/projects", "buyer-1", gin.H{
		"title":    "Landing page",
		"budget":   500,
		"deadline": time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	projectID := resp.Project.ID
	assert.Equal(t, domain.StatusPending, resp.Project.Status)
	base := "/api/v1/projects/" + projectID

	code, resp = do(t, r, http.MethodPost, base+"/bids", "seller-1", gin.H{"amount": 450, "duration_days": 5})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	bidID := resp.Bid.ID

	code, resp = do(t, r, http.MethodGet, base+"/bids", "buyer-1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Bids, 1)

	t.Run("only the owner selects", func(t *testing.T) {
		code, resp := do(t, r, http.MethodPost, base+"/select-seller", "seller-1", gin.H{"bid_id": bidID})
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, domain.KindForbidden, resp.Kind)
	})

	code, resp = do(t, r, http.MethodPost, base+"/select-seller", "buyer-1", gin.H{"bid_id": bidID})
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, domain.StatusInProgress, resp.Project.Status)
	require.NotNil(t, resp.Project.SelectedBidID)
	assert.Equal(t, bidID, *resp.Project.SelectedBidID)

	t.Run("second selection conflicts", func(t *testing.T) {
		code, resp := do(t, r, http.MethodPost, base+"/select-seller", "buyer-1", gin.H{"bid_id": bidID})
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, domain.KindConflict, resp.Kind)
	})

	code, resp = do(t, r, http.MethodPost, base+"/deliverables", "seller-1", gin.H{"artifact_url": "https://cdn.example.com/v1.zip"})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	assert.Equal(t, "seller-1", resp.Deliverable.UploaderID)

	code, resp = do(t, r, http.MethodPost, base+"/complete", "buyer-1", nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, domain.StatusCompleted, resp.Project.Status)

	code, resp = do(t, r, http.MethodPost, base+"/complete", "buyer-1", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, resp = do(t, r, http.MethodPost, base+"/deliverables", "seller-1", gin.H{"artifact_url": "https://cdn.example.com/v2.zip"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestErrorMapping(t *testing.T) {
	r := setupRouter(nil)

	code, resp := do(t, r, http.MethodGet, "/api/v1/projects/missing", "buyer-1", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, domain.KindNotFound, resp.Kind)
	assert.False(t, resp.OK)

	code, resp = do(t, r, http.MethodPost, "/api/v1/projects", "buyer-1", gin.H{
		"title":    "",
		"deadline": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, domain.KindValidation, resp.Kind)

	code, _ = do(t, r, http.MethodPost, "/api/v1/projects/x/select-seller", "buyer-1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodGet, "/api/v1/projects/x", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCompleteWithoutSelection(t *testing.T) {
	r := setupRouter(nil)

	_, resp := do(t, r, http.MethodPost, "/api/v1/projects", "buyer-1", gin.H{
		"title":    "Audit",
		"budget":   80,
		"deadline": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	code, resp := do(t, r, http.MethodPost, "/api/v1/projects/"+resp.Project.ID+"/complete", "buyer-1", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, resp.Error, "no seller")
}

func TestSweepEndpoint(t *testing.T) {
	t.Run("reports", func(t *testing.T) {
		r := setupRouter(stubSweeper{rep: reminder.Report{Due: 2, Reminded: 2}})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reminders/sweep", nil)
		req.Header.Set("X-User-Id", "ops")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"reminded":2`)
	})

	t.Run("in flight", func(t *testing.T) {
		r := setupRouter(stubSweeper{err: reminder.ErrSweepInFlight})
		code, resp := do(t, r, http.MethodPost, "/api/v1/admin/reminders/sweep", "ops", nil)
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, domain.KindConflict, resp.Kind)
	})

	t.Run("not configured", func(t *testing.T) {
		r := setupRouter(nil)
		code, _ := do(t, r, http.MethodPost, "/api/v1/admin/reminders/sweep", "ops", nil)
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})

	t.Run("non-admin caller", func(t *testing.T) {
		sw := &countingSweeper{}
		r := setupRouter(sw)
		code, resp := do(t, r, http.MethodPost, "/api/v1/admin/reminders/sweep", "random-seller", nil)
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, domain.KindForbidden, resp.Kind)
		assert.Zero(t, sw.calls)
	})
}

type countingSweeper struct{ calls int }

func (s *countingSweeper) Run(context.Context) (reminder.Report, error) {
	s.calls++
	return reminder.Report{}, nil
}
