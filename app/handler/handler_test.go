package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clickboard/internal/model"
	"clickboard/internal/scheduler"
	"clickboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCharacters struct {
	err error

	listSession string
	click       struct {
		id, country, code, session string
		increment                  bool
	}
	batch service.BatchUpdate
}

func (s *stubCharacters) ListCharacters(ctx context.Context, sessionID string) ([]*model.CharacterSummary, error) {
	s.listSession = sessionID
	return []*model.CharacterSummary{{ID: "char-a", Name: "Alpha"}}, s.err
}

func (s *stubCharacters) UpdateCharacterPoints(ctx context.Context, id string, increment bool, country, countryCode, sessionID string) (*model.CharacterSummary, error) {
	s.click.id, s.click.increment = id, increment
	s.click.country, s.click.code, s.click.session = country, countryCode, sessionID
	if s.err != nil {
		return nil, s.err
	}
	return &model.CharacterSummary{ID: id, TotalPoints: 1}, nil
}

func (s *stubCharacters) BatchUpdatePoints(ctx context.Context, req service.BatchUpdate) (*service.BatchResult, error) {
	s.batch = req
	if s.err != nil {
		return nil, s.err
	}
	return &service.BatchResult{Updated: []*model.CharacterSummary{}, Failed: []string{}}, nil
}

func (s *stubCharacters) GetStats(ctx context.Context) (*model.Stats, error) {
	return &model.Stats{}, s.err
}

func (s *stubCharacters) CharacterPoints(ctx context.Context, id, sessionID string) (*model.SessionPoints, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.SessionPoints{PointsRow: model.PointsRow{CharacterID: id}, SessionID: sessionID}, nil
}

func (s *stubCharacters) CreateCharacter(ctx context.Context, in service.CreateCharacterInput) (*model.CharacterSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.CharacterSummary{ID: "new", Name: in.Name}, nil
}

type stubBoards struct{ err error }

func (s stubBoards) GetLeaderboard(ctx context.Context, boardType string) ([]model.PointsRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []model.PointsRow{{CharacterID: "char-a", TotalPoints: 7}}, nil
}

type stubScheduler struct {
	started bool
	err     error
	ctxErr  error
}

func (s *stubScheduler) Status() scheduler.Status {
	return scheduler.Status{State: "distributing", CycleID: "cycle-1", Jobs: []scheduler.JobStatus{}}
}

func (s *stubScheduler) TriggerCycle(ctx context.Context) (bool, error) {
	s.ctxErr = ctx.Err()
	return s.started, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type stubCounter int

func (c stubCounter) ClientCount() int { return int(c) }

func serve(t *testing.T, register func(*gin.Engine), method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	register(engine)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func characterRoutes(h *CharacterHandler) func(*gin.Engine) {
	return func(e *gin.Engine) {
		e.GET("/characters", h.ListCharacters)
		e.GET("/characters/stats", h.GetStats)
		e.GET("/characters/character-points", h.CharacterPoints)
		e.POST("/characters/batch-update", h.BatchUpdate)
		e.PATCH("/characters/:id", h.UpdatePoints)
		e.POST("/characters", h.CreateCharacter)
	}
}

func TestCharacterHandler_List(t *testing.T) {
	svc := &stubCharacters{}
	w := serve(t, characterRoutes(NewCharacterHandler(svc)), http.MethodGet, "/characters?userId=s-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s-1", svc.listSession)

	var body struct {
		Message string                    `json:"message"`
		Data    []*model.CharacterSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Character list retrieved successfully", body.Message)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Alpha", body.Data[0].Name)
}

func TestCharacterHandler_UpdatePoints(t *testing.T) {
	svc := &stubCharacters{}
	routes := characterRoutes(NewCharacterHandler(svc))

	w := serve(t, routes, http.MethodPatch, "/characters/char-a?increment=true&country=Japan&countryCode=JP&sessionId=s-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "char-a", svc.click.id)
	assert.True(t, svc.click.increment)
	assert.Equal(t, "Japan", svc.click.country)
	assert.Equal(t, "JP", svc.click.code)
	assert.Equal(t, "s-1", svc.click.session)

	w = serve(t, routes, http.MethodPatch, "/characters/char-a?increment=true", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, routes, http.MethodPatch, "/characters/char-a?increment=maybe&sessionId=s-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCharacterHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: reserved", service.ErrInvalidInput), http.StatusBadRequest},
		{service.ErrCharacterNotFound, http.StatusNotFound},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			svc := &stubCharacters{err: tc.err}
			w := serve(t, characterRoutes(NewCharacterHandler(svc)), http.MethodPatch,
				"/characters/char-a?increment=false&sessionId=s-1", "")
			assert.Equal(t, tc.want, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestCharacterHandler_InternalErrorsAreHidden(t *testing.T) {
	svc := &stubCharacters{err: errors.New("dial tcp 10.0.0.3:3306: refused")}
	w := serve(t, characterRoutes(NewCharacterHandler(svc)), http.MethodGet, "/characters/stats", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
}

func TestCharacterHandler_BatchUpdate(t *testing.T) {
	svc := &stubCharacters{}
	routes := characterRoutes(NewCharacterHandler(svc))

	body := `{"sessionId":"s-1","countryCode":"HK","points":[{"characterId":"char-a","totalPlus":3,"totalMinus":1,"pointsChange":2}]}`
	w := serve(t, routes, http.MethodPost, "/characters/batch-update", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s-1", svc.batch.SessionID)
	require.Len(t, svc.batch.Points, 1)
	assert.Equal(t, 2, svc.batch.Points[0].PointsChange)

	w = serve(t, routes, http.MethodPost, "/characters/batch-update", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCharacterHandler_CharacterPointsAndCreate(t *testing.T) {
	svc := &stubCharacters{}
	routes := characterRoutes(NewCharacterHandler(svc))

	w := serve(t, routes, http.MethodGet, "/characters/character-points?id=char-a&userId=s-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sessionId":"s-1"`)

	w = serve(t, routes, http.MethodGet, "/characters/character-points", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, routes, http.MethodPost, "/characters", `{"name":"Delta","avatarUrl":"/a.png"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Delta"`)
}

func TestLeaderboardHandler(t *testing.T) {
	routes := func(h *LeaderboardHandler) func(*gin.Engine) {
		return func(e *gin.Engine) { e.GET("/leaderboard/:type", h.GetLeaderboard) }
	}

	w := serve(t, routes(NewLeaderboardHandler(stubBoards{})), http.MethodGet, "/leaderboard/24h", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"24h"`)
	assert.Contains(t, w.Body.String(), `"totalPoints":7`)

	w = serve(t, routes(NewLeaderboardHandler(stubBoards{err: service.ErrUnknownLeaderboard})), http.MethodGet, "/leaderboard/weekly", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchedulerHandler(t *testing.T) {
	routes := func(h *SchedulerHandler) func(*gin.Engine) {
		return func(e *gin.Engine) {
			e.GET("/status", h.GetStatus)
			e.POST("/trigger", h.Trigger)
		}
	}

	sched := &stubScheduler{started: true}
	w := serve(t, routes(NewSchedulerHandler(sched)), http.MethodPost, "/trigger", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"cycleId":"cycle-1"`)
	assert.NoError(t, sched.ctxErr)

	w = serve(t, routes(NewSchedulerHandler(&stubScheduler{})), http.MethodPost, "/trigger", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(t, routes(NewSchedulerHandler(&stubScheduler{err: scheduler.ErrEmptyCatalog})), http.MethodPost, "/trigger", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(t, routes(NewSchedulerHandler(sched)), http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"distributing"`)

	w = serve(t, routes(NewSchedulerHandler(nil)), http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthHandler(t *testing.T) {
	routes := func(h *HealthHandler) func(*gin.Engine) {
		return func(e *gin.Engine) { e.GET("/health", h.Health) }
	}

	healthy := NewHealthHandler(map[string]Pinger{"mysql": stubPinger{}, "redis": nil}, stubCounter(3))
	w := serve(t, routes(healthy), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"clients":3`)
	assert.NotContains(t, w.Body.String(), "redis")

	degraded := NewHealthHandler(map[string]Pinger{"redis": stubPinger{err: errors.New("refused")}}, nil)
	w = serve(t, routes(degraded), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}
