package routes

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-stages/events"
	"github.com/Dosada05/tournament-stages/handlers"
	"github.com/Dosada05/tournament-stages/models"
	"github.com/Dosada05/tournament-stages/repositories"
	"github.com/Dosada05/tournament-stages/rulesets"
	"github.com/Dosada05/tournament-stages/services"
)

var secret = []byte("routes-secret")

func newRouter(t *testing.T, burst int) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryStore()
	rules := rulesets.Defaults()
	hub := events.NewHub(logger)

	require.NoError(t, store.Tournaments().Create(context.Background(), &models.Tournament{
		Name:              "Route Cup",
		GameSlug:          "chess",
		Format:            models.FormatGroupPlayoff,
		ParticipationMode: models.ParticipationIndividual,
	}))

	router := chi.NewRouter()
	SetupRoutes(router, Options{
		JWTSecret:      secret,
		RateLimitRPS:   1,
		RateLimitBurst: burst,
		Logger:         logger,
	}, Handlers{
		Tournaments: handlers.NewTournamentHandler(services.NewTournamentService(store, rules, logger)),
		Stages:      handlers.NewStageHandler(services.NewStageService(store, rules, hub, logger)),
		Groups:      handlers.NewGroupHandler(services.NewGroupService(store, hub, logger)),
		Standings:   handlers.NewStandingsHandler(services.NewStandingsService(store, rules, hub, nil, logger)),
		Matches:     handlers.NewMatchHandler(services.NewMatchService(store, rules, hub, logger, 0)),
		WebSocket:   handlers.NewWebSocketHandler(hub, logger),
	})
	return router
}

func bearer(t *testing.T, role models.UserRole) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"role":    string(role),
	}).SignedString(secret)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestStageMutationsNeedOrganizer(t *testing.T) {
	router := newRouter(t, 100)
	body := `{"stages":[{"format":"swiss","advancement":{"type":"all"}}]}`

	tests := []struct {
		name   string
		auth   string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"player", bearer(t, models.RolePlayer), http.StatusForbidden},
		{"organizer", bearer(t, models.RoleOrganizer), http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/tournaments/1/stages", bytes.NewBufferString(body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tournaments/1/stages", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMatchActionsNeedToken(t *testing.T) {
	router := newRouter(t, 100)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/matches/1/start", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/matches/1/start", nil)
	req.Header.Set("Authorization", bearer(t, models.RoleOrganizer))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIIsRateLimited(t *testing.T) {
	router := newRouter(t, 2)

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestSwaggerDocIsServed(t *testing.T) {
	router := newRouter(t, 2)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"basePath": "/api/v1"`)
	assert.Contains(t, rec.Body.String(), "/matches/{matchID}/resolve")
}

func TestRosterRoutes(t *testing.T) {
	router := newRouter(t, 100)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tournaments/1/participants", bytes.NewBufferString(`{"user_id": 42, "seed": 1}`))
	req.Header.Set("Authorization", bearer(t, models.RoleOrganizer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/participants/1", bytes.NewBufferString(`{"status": "confirmed"}`))
	req.Header.Set("Authorization", bearer(t, models.RoleOrganizer))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status": "confirmed"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tournaments/1/participants", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id": 42`)
}
