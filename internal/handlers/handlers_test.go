package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/senyabanana/proposal-service/internal/handlers"
	"github.com/senyabanana/proposal-service/internal/mailer"
	"github.com/senyabanana/proposal-service/internal/metrics"
	"github.com/senyabanana/proposal-service/internal/middleware"
	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/repository/memory"
	"github.com/senyabanana/proposal-service/internal/router"
	"github.com/senyabanana/proposal-service/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type api struct {
	t      *testing.T
	store  *memory.Store
	routes http.Handler
	token  string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.NewStore()
	logger := log.New(io.Discard, "", 0)
	m := metrics.New()
	timeout := 5 * time.Second

	quotes := services.NewQuoteService(store, services.QuoteDefaults{
		Currency: "AUD",
		Pricing:  models.PricingPolicy{GSTEnabled: true, GSTRate: decimal.RequireFromString("0.1")},
	}, logger)
	authoring := services.NewAuthoringService(store, false, m, logger)
	projects := services.NewProjectService(store, logger)
	var mail mailer.Mailer
	publish := services.NewPublishService(store, projects, mail, m, services.PublishConfig{PortalURL: "https://portal.example.com"}, logger)
	timeService := services.NewTimeService(store, m, logger)

	routes := router.InitRoutes(router.Handlers{
		Quotes:    handlers.NewQuoteHandler(quotes, logger, timeout),
		Authoring: handlers.NewAuthoringHandler(authoring, logger, timeout),
		Publish:   handlers.NewPublishHandler(publish, logger, timeout),
		Delivery:  handlers.NewDeliveryHandler(projects, timeService, logger, timeout),
		Ping:      handlers.PingHandler(store, timeout),
	}, middleware.NewAuth(secret), m, logger)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "author-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	return &api{t: t, store: store, routes: routes, token: token}
}

func (a *api) request(method, path string, body any, authed bool, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if authed {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.routes.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// authoredQuote создаёт предложение с одним результатом и одним этапом на заданное число часов.
func (a *api) authoredQuote(hours string) models.QuoteDetail {
	t := a.t
	t.Helper()
	rec := a.request(http.MethodPost, "/api/quotes/new", map[string]string{
		"title":           "Site safety audit",
		"organisationRef": "org-1",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	detail := decodeBody[models.QuoteDetail](t, rec)

	rec = a.request(http.MethodPut, "/api/versions/"+detail.Version.ID+"/deliverables", map[string]any{
		"id":                detail.Deliverables[0].ID,
		"title":             "Audit",
		"pricingMode":       "rolled_up_hours",
		"defaultClientRate": "150",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.request(http.MethodPost, "/api/deliverables/"+detail.Deliverables[0].ID+"/milestones/new", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decodeBody[struct {
		Item      models.Milestone `json:"item"`
		EditFocus bool             `json:"editFocus"`
	}](t, rec)
	assert.True(t, created.EditFocus)
	assert.Equal(t, models.DraftState, created.Item.State)

	rec = a.request(http.MethodPut, "/api/deliverables/"+detail.Deliverables[0].ID+"/milestones", map[string]any{
		"id":             created.Item.ID,
		"title":          "Walkthrough",
		"pricingUnit":    "hours",
		"estimatedHours": hours,
		"deliveryMode":   "internal",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return detail
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	a := newAPI(t)

	rec := a.request(http.MethodGet, "/api/quotes", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	errorResponse := decodeBody[models.ErrorResponse](t, rec)
	assert.Equal(t, models.Unauthenticated, errorResponse.Kind)

	rec = a.request(http.MethodGet, "/api/quotes", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.request(http.MethodGet, "/api/ping", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthoringEndpoints(t *testing.T) {
	a := newAPI(t)
	detail := a.authoredQuote("10")

	rec := a.request(http.MethodGet, "/api/quotes/"+detail.Quote.ID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	current := decodeBody[models.QuoteDetail](t, rec)
	assert.True(t, decimal.RequireFromString("1500").Equal(current.Version.SubtotalExGST))
	assert.True(t, decimal.RequireFromString("1650").Equal(current.Version.TotalIncGST))
	require.Len(t, current.Deliverables, 1)
	assert.Equal(t, models.LockedState, current.Deliverables[0].State)

	rec = a.request(http.MethodPut, "/api/versions/"+detail.Version.ID+"/deliverables", map[string]any{
		"id":          detail.Deliverables[0].ID,
		"title":       "Audit",
		"pricingMode": "rolled_up_hours",
	}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.request(http.MethodPost, "/api/deliverables/"+detail.Deliverables[0].ID+"/edit", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.request(http.MethodPut, "/api/versions/"+detail.Version.ID+"/deliverables", map[string]any{"unknown": true}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.request(http.MethodGet, "/api/quotes/missing", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	errorResponse := decodeBody[models.ErrorResponse](t, rec)
	assert.Equal(t, models.NotFoundError, errorResponse.Kind)
}

func TestPublicViewAndResponse(t *testing.T) {
	a := newAPI(t)
	detail := a.authoredQuote("10")

	rec := a.request(http.MethodPost, "/api/quotes/"+detail.Quote.ID+"/publish", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	published := decodeBody[models.PublishResult](t, rec)
	require.NotEmpty(t, published.AccessCode)
	assert.Equal(t, "https://portal.example.com/quotes/Q-00001?code="+published.AccessCode, published.Link)
	assert.False(t, published.EmailSent)

	viewPath := "/api/public/quotes/Q-00001?code=" + published.AccessCode
	rec = a.request(http.MethodGet, viewPath, nil, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "quote_viewed_Q-00001", cookies[0].Name)
	view := decodeBody[models.PublicQuoteView](t, rec)
	assert.True(t, view.CanRespond)

	rec = a.request(http.MethodGet, viewPath, nil, false, cookies[0])
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	actions, err := a.store.ListQuoteActions(context.Background(), detail.Quote.ID)
	require.NoError(t, err)
	assert.Len(t, actions, 1)

	rec = a.request(http.MethodGet, "/api/public/quotes/Q-00001?code=WRONG", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	actionPath := "/api/public/quotes/Q-00001/actions?code=" + published.AccessCode
	rec = a.request(http.MethodPost, actionPath, map[string]string{"action": "approved"}, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.request(http.MethodPost, actionPath, map[string]string{"action": "approved", "clientName": "Jordan"}, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.request(http.MethodPost, actionPath, map[string]string{"action": "rejected", "clientName": "Jordan"}, false)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.request(http.MethodGet, viewPath, nil, false, cookies[0])
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeBody[models.PublicQuoteView](t, rec)
	assert.False(t, view.CanRespond)
	require.NotNil(t, view.Response)
	assert.Equal(t, "Jordan", view.Response.ClientName)
}

func TestLogTimeOverAllocation(t *testing.T) {
	a := newAPI(t)
	detail := a.authoredQuote("12")

	rec := a.request(http.MethodPost, "/api/quotes/"+detail.Quote.ID+"/publish", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	published := decodeBody[models.PublishResult](t, rec)
	rec = a.request(http.MethodPost, "/api/public/quotes/Q-00001/actions?code="+published.AccessCode,
		map[string]string{"action": "approved", "clientName": "Jordan"}, false)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.request(http.MethodGet, "/api/quotes/"+detail.Quote.ID+"/project", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	project := decodeBody[models.Project](t, rec)
	require.Len(t, project.Deliverables, 1)
	require.Len(t, project.Deliverables[0].Milestones, 1)
	timePath := "/api/project-milestones/" + project.Deliverables[0].Milestones[0].ID + "/time"

	rec = a.request(http.MethodPost, timePath, map[string]any{"hours": "11", "entryDate": "2024-03-01"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.request(http.MethodPost, timePath, map[string]any{"hours": "2", "entryDate": "2024-03-02"}, true)
	require.Equal(t, http.StatusPreconditionRequired, rec.Code, rec.Body.String())
	warned := decodeBody[models.LogTimeResult](t, rec)
	assert.Nil(t, warned.Entry)
	require.NotNil(t, warned.Warning)
	assert.True(t, decimal.NewFromInt(1).Equal(warned.Warning.Remaining))
	assert.True(t, decimal.NewFromInt(1).Equal(warned.Warning.OverBy))

	rec = a.request(http.MethodPost, timePath, map[string]any{"hours": "2", "entryDate": "2024-03-02", "overrideAccepted": true}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decodeBody[models.LogTimeResult](t, rec)
	require.NotNil(t, accepted.Entry)
	assert.True(t, accepted.Overridden)

	rec = a.request(http.MethodPost, timePath, map[string]any{"hours": "13", "entryDate": "2024-03-02", "overrideAccepted": true}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.request(http.MethodGet, "/api/projects/"+project.ID+"/progress", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decodeBody[models.ProjectProgress](t, rec)
	assert.Equal(t, 100, progress.Percent)

	rec = a.request(http.MethodDelete, "/api/time/"+accepted.Entry.ID, nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.request(http.MethodDelete, "/api/time/"+accepted.Entry.ID, nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
