package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"routecore/internal/model"
	"routecore/internal/search"
	"routecore/internal/service"
	serviceMocks "routecore/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListProviders(t *testing.T) {
	mockSvc := new(serviceMocks.MockRoutingService)
	app := fiber.New()
	app.Get("/providers", ListProviders(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("ListProviders", mock.Anything).Return([]model.Provider{
			{ID: uuid.NewString(), Name: "alpha-pay"},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/providers", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data []model.Provider `json:"data"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Len(t, body.Data, 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("ListProviders", mock.Anything).Return(nil, errors.New("db down")).Once()

		req := httptest.NewRequest(http.MethodGet, "/providers", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRoutePayment(t *testing.T) {
	mockSvc := new(serviceMocks.MockRoutingService)
	app := fiber.New()
	app.Post("/routes/payments", RoutePayment(mockSvc))

	post := func(body any) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/routes/payments", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		decision := &model.RouteDecision{ID: uuid.NewString(), Winner: "p1", Succeeded: true}
		mockSvc.On("RoutePayment", mock.Anything, mock.MatchedBy(func(r service.PaymentRequest) bool {
			return r.Amount == 1000 && r.Currency == "USD"
		})).Return(decision, nil).Once()

		resp := post(service.PaymentRequest{Amount: 1000, Currency: "USD"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var got model.RouteDecision
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, "p1", got.Winner)
		mockSvc.AssertExpectations(t)
	})

	t.Run("validation error", func(t *testing.T) {
		mockSvc.On("RoutePayment", mock.Anything, mock.Anything).
			Return(nil, service.ErrAmountRequired).Once()

		resp := post(service.PaymentRequest{Currency: "USD"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "AMOUNT_REQUIRED", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no eligible providers", func(t *testing.T) {
		mockSvc.On("RoutePayment", mock.Anything, mock.Anything).
			Return(nil, service.ErrNoEligibleProviders).Once()

		resp := post(service.PaymentRequest{Amount: 1000, Currency: "XXX"})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("all providers failed returns decision with 502", func(t *testing.T) {
		decision := &model.RouteDecision{ID: uuid.NewString(), Succeeded: false}
		mockSvc.On("RoutePayment", mock.Anything, mock.Anything).
			Return(decision, service.ErrRoutingFailed).Once()

		resp := post(service.PaymentRequest{Amount: 1000, Currency: "USD"})
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

		var got model.RouteDecision
		json.NewDecoder(resp.Body).Decode(&got)
		assert.False(t, got.Succeeded)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/routes/payments", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSendNotification(t *testing.T) {
	mockSvc := new(serviceMocks.MockNotificationService)
	app := fiber.New()
	app.Post("/notifications", SendNotification(mockSvc))

	post := func(body any) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/notifications", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		decision := &model.RouteDecision{ID: uuid.NewString(), Winner: "c1", Succeeded: true}
		mockSvc.On("Notify", mock.Anything, mock.Anything).Return(decision, nil).Once()

		resp := post(service.NotificationRequest{Recipient: "u1", Body: "hi"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no eligible channels", func(t *testing.T) {
		mockSvc.On("Notify", mock.Anything, mock.Anything).
			Return(nil, service.ErrNoEligibleChannels).Once()

		resp := post(service.NotificationRequest{Recipient: "u1", Body: "hi"})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NO_ELIGIBLE_CHANNELS", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("delivery failed returns decision with 502", func(t *testing.T) {
		decision := &model.RouteDecision{ID: uuid.NewString(), Succeeded: false}
		mockSvc.On("Notify", mock.Anything, mock.Anything).
			Return(decision, service.ErrDeliveryFailed).Once()

		resp := post(service.NotificationRequest{Recipient: "u1", Body: "hi"})
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestSearchDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockSearchService)
	app := fiber.New()
	app.Post("/search", SearchDocuments(mockSvc))

	post := func(body any) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/search", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, service.SearchRequest{Query: "refund policy"}).
			Return([]search.Result{{ID: "d1", Title: "Refunds"}}, nil).Once()

		resp := post(service.SearchRequest{Query: "refund policy"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data []search.Result `json:"data"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Len(t, body.Data, 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty query", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, mock.Anything).
			Return(nil, service.ErrQueryRequired).Once()

		resp := post(service.SearchRequest{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("both legs down", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, mock.Anything).
			Return(nil, service.ErrSearchDegraded).Once()

		resp := post(service.SearchRequest{Query: "refund"})
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SEARCH_UNAVAILABLE", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestIndexDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockSearchService)
	app := fiber.New()
	app.Post("/search/documents", IndexDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		doc := &model.SearchDocument{ID: uuid.NewString(), Title: "Guide"}
		mockSvc.On("Index", mock.Anything, mock.Anything).Return(doc, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/search/documents",
			jsonBody(t, service.IndexRequest{Title: "Guide", Content: "body"}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing content", func(t *testing.T) {
		mockSvc.On("Index", mock.Anything, mock.Anything).
			Return(nil, service.ErrContentRequired).Once()

		req := httptest.NewRequest(http.MethodPost, "/search/documents",
			jsonBody(t, service.IndexRequest{Title: "Guide"}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockSearchService)
	app := fiber.New()
	app.Delete("/search/documents/:id", DeleteDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/search/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/search/documents/not-a-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestListDecisions(t *testing.T) {
	mockSvc := new(serviceMocks.MockDecisionService)
	app := fiber.New()
	app.Get("/decisions", ListDecisions(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &service.DecisionListResult{
			Items: []model.RouteDecision{{ID: uuid.NewString(), Kind: model.DecisionPayment}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, "payment", 10, 0).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/decisions?kind=payment&limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.DecisionListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/decisions?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})

	t.Run("invalid kind", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/decisions?kind=fax", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_KIND", body.Error.Code)
	})
}

func TestGetDecision(t *testing.T) {
	mockSvc := new(serviceMocks.MockDecisionService)
	app := fiber.New()
	app.Get("/decisions/:id", GetDecision(mockSvc))

	t.Run("found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).
			Return(&model.RouteDecision{ID: id}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/decisions/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).
			Return(nil, service.ErrDecisionNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/decisions/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/decisions/nope", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDecisionTrace(t *testing.T) {
	mockSvc := new(serviceMocks.MockDecisionService)
	app := fiber.New()
	app.Get("/decisions/:id/trace", DecisionTrace(mockSvc))

	t.Run("presigned url", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("TraceURL", mock.Anything, id).
			Return("https://archive.local/decisions/"+id+".json?sig=x", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/decisions/"+id+"/trace", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Contains(t, body["url"], id)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no trace", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("TraceURL", mock.Anything, id).
			Return("", service.ErrNoTrace).Once()

		req := httptest.NewRequest(http.MethodGet, "/decisions/"+id+"/trace", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NO_TRACE", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}
