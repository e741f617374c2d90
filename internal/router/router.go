package router

import (
	"log"
	"net/http"

	"github.com/senyabanana/proposal-service/internal/handlers"
	"github.com/senyabanana/proposal-service/internal/metrics"
	"github.com/senyabanana/proposal-service/internal/middleware"
)

// Handlers - обработчики, из которых собираются маршруты.
type Handlers struct {
	Quotes    *handlers.QuoteHandler
	Authoring *handlers.AuthoringHandler
	Publish   *handlers.PublishHandler
	Delivery  *handlers.DeliveryHandler
	Ping      http.HandlerFunc
}

func InitRoutes(h Handlers, auth *middleware.Auth, m *metrics.Metrics, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()
	private := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth.Require(fn))
	}

	mux.HandleFunc("/api/ping", h.Ping)
	mux.Handle("GET /metrics", m.Handler())

	private("POST /api/quotes/new", h.Quotes.CreateQuote)
	private("GET /api/quotes", h.Quotes.GetQuotes)
	private("GET /api/quotes/{quoteId}", h.Quotes.GetQuote)
	private("PUT /api/quotes/{quoteId}/status", h.Quotes.UpdateQuoteStatus)
	private("GET /api/quotes/{quoteId}/versions", h.Quotes.GetVersions)
	private("POST /api/quotes/{quoteId}/versions", h.Quotes.CreateVersion)
	private("GET /api/versions/{versionId}", h.Quotes.GetVersion)
	private("PUT /api/versions/{versionId}/terms", h.Quotes.UpdateVersionTerms)

	private("POST /api/versions/{versionId}/deliverables/new", h.Authoring.AddDeliverable)
	private("PUT /api/versions/{versionId}/deliverables", h.Authoring.SaveDeliverable)
	private("POST /api/deliverables/{deliverableId}/edit", h.Authoring.EditDeliverable)
	private("DELETE /api/deliverables/{deliverableId}", h.Authoring.DeleteDeliverable)
	private("POST /api/deliverables/{deliverableId}/milestones/new", h.Authoring.AddMilestone)
	private("PUT /api/deliverables/{deliverableId}/milestones", h.Authoring.SaveMilestone)
	private("POST /api/milestones/{milestoneId}/edit", h.Authoring.EditMilestone)
	private("DELETE /api/milestones/{milestoneId}", h.Authoring.DeleteMilestone)

	private("POST /api/quotes/{quoteId}/publish", h.Publish.PublishQuote)
	mux.HandleFunc("GET /api/public/quotes/{quoteNumber}", h.Publish.ViewQuote)
	mux.HandleFunc("POST /api/public/quotes/{quoteNumber}/actions", h.Publish.RecordAction)

	private("GET /api/quotes/{quoteId}/project", h.Delivery.GetQuoteProject)
	private("GET /api/projects/{projectId}/progress", h.Delivery.GetProgress)
	private("GET /api/project-milestones/{milestoneId}/time", h.Delivery.GetTimeEntries)
	private("POST /api/project-milestones/{milestoneId}/time", h.Delivery.LogTime)
	private("PUT /api/time/{entryId}", h.Delivery.EditTimeEntry)
	private("DELETE /api/time/{entryId}", h.Delivery.DeleteTimeEntry)

	return middleware.Logging(logger, m, mux)
}
