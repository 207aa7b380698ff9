package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"routecore/internal/model"
	"routecore/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parse, delegate, translate errors.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	routeSvc service.RoutingService,
	notifySvc service.NotificationService,
	searchSvc service.SearchService,
	decisionSvc service.DecisionService,
) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/providers", ListProviders(routeSvc))
	app.Post("/routes/payments", RoutePayment(routeSvc))

	app.Post("/notifications", SendNotification(notifySvc))

	app.Post("/search", SearchDocuments(searchSvc))
	app.Post("/search/documents", IndexDocument(searchSvc))
	app.Delete("/search/documents/:id", DeleteDocument(searchSvc))

	app.Get("/decisions", ListDecisions(decisionSvc))
	app.Get("/decisions/:id", GetDecision(decisionSvc))
	app.Get("/decisions/:id/trace", DecisionTrace(decisionSvc))
}

// HealthCheck reports readiness: it pings the database with a short timeout.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness endpoint with no dependency checks.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListProviders returns the full provider catalog.
func ListProviders(svc service.RoutingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		providers, err := svc.ListProviders(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": providers})
	}
}

// RoutePayment ranks eligible providers and executes the fallback chain.
func RoutePayment(svc service.RoutingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.PaymentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		decision, err := svc.RoutePayment(c.UserContext(), req)
		switch {
		case err == nil:
			return c.Status(fiber.StatusCreated).JSON(decision)
		case errors.Is(err, service.ErrAmountRequired):
			return writeError(c, fiber.StatusBadRequest, "AMOUNT_REQUIRED", "amount must be positive")
		case errors.Is(err, service.ErrCurrencyRequired):
			return writeError(c, fiber.StatusBadRequest, "CURRENCY_REQUIRED", "currency is required")
		case errors.Is(err, service.ErrNoEligibleProviders):
			return writeError(c, fiber.StatusUnprocessableEntity, "NO_ELIGIBLE_PROVIDERS", "no provider supports this currency and region")
		case errors.Is(err, service.ErrRoutingFailed):
			// The decision is persisted even when every provider failed;
			// return it so callers can inspect the attempt trail.
			return c.Status(fiber.StatusBadGateway).JSON(decision)
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// SendNotification routes a notification through the channel fallback chain.
func SendNotification(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.NotificationRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		decision, err := svc.Notify(c.UserContext(), req)
		switch {
		case err == nil:
			return c.Status(fiber.StatusCreated).JSON(decision)
		case errors.Is(err, service.ErrRecipientRequired):
			return writeError(c, fiber.StatusBadRequest, "RECIPIENT_REQUIRED", "recipient is required")
		case errors.Is(err, service.ErrBodyRequired):
			return writeError(c, fiber.StatusBadRequest, "BODY_REQUIRED", "body is required")
		case errors.Is(err, service.ErrNoEligibleChannels):
			return writeError(c, fiber.StatusUnprocessableEntity, "NO_ELIGIBLE_CHANNELS", "no channel can deliver this notification")
		case errors.Is(err, service.ErrDeliveryFailed):
			return c.Status(fiber.StatusBadGateway).JSON(decision)
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// SearchDocuments serves hybrid keyword + vector queries.
func SearchDocuments(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.SearchRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		results, err := svc.Search(c.UserContext(), req)
		switch {
		case err == nil:
			return c.JSON(fiber.Map{"data": results})
		case errors.Is(err, service.ErrQueryRequired):
			return writeError(c, fiber.StatusBadRequest, "QUERY_REQUIRED", "query is required")
		case errors.Is(err, service.ErrSearchDegraded):
			return writeError(c, fiber.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "search is temporarily unavailable")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// IndexDocument embeds and stores a document for hybrid search.
func IndexDocument(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.IndexRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		doc, err := svc.Index(c.UserContext(), req)
		switch {
		case err == nil:
			return c.Status(fiber.StatusCreated).JSON(doc)
		case errors.Is(err, service.ErrContentRequired):
			return writeError(c, fiber.StatusBadRequest, "CONTENT_REQUIRED", "title and content are required")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// DeleteDocument removes a document and its vector from the search index.
func DeleteDocument(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListDecisions pages through the routing decision audit log.
func ListDecisions(svc service.DecisionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		kind := c.Query("kind")
		switch kind {
		case "", model.DecisionPayment, model.DecisionNotification:
		default:
			return writeError(c, fiber.StatusBadRequest, "INVALID_KIND", "kind must be payment or notification")
		}

		res, err := svc.List(c.UserContext(), kind, limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetDecision returns a single decision by ID.
func GetDecision(svc service.DecisionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		d, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrDecisionNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "decision not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(d)
	}
}

// DecisionTrace presigns a short-lived download URL for the archived trace.
func DecisionTrace(svc service.DecisionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := svc.TraceURL(c.UserContext(), id)
		switch {
		case err == nil:
			return c.JSON(fiber.Map{"url": url})
		case errors.Is(err, service.ErrDecisionNotFound):
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "decision not found")
		case errors.Is(err, service.ErrNoTrace):
			return writeError(c, fiber.StatusNotFound, "NO_TRACE", "decision has no archived trace")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
