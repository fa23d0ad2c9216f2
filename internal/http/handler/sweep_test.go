package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/endrithotii/daskann/internal/http/handler"
	"github.com/endrithotii/daskann/internal/http/middleware"
	"github.com/endrithotii/daskann/internal/service"
)

var _ = Describe("SweepHandler", func() {
	const adminAPIKey = "test-admin-key"

	var (
		router *gin.Engine
		sweep  *mockSweepService
	)

	BeforeEach(func() {
		router = gin.New()
		sweep = &mockSweepService{}
		internal := router.Group("/internal")
		internal.Use(middleware.RequireAdminAPIKey(adminAPIKey))
		internal.POST("/sweep", handler.NewSweepHandler(sweep).Run)
	})

	trigger := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/internal/sweep", nil)
		if key != "" {
			req.Header.Set(middleware.AdminAPIKeyHeader, key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns the number of reminders dispatched", func() {
		sweep.runFn = func(context.Context) (service.SweepResult, error) {
			return service.SweepResult{Reminders: 4, Closed: 1}, nil
		}

		w := trigger(adminAPIKey)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"count":4,"closed":1,"recovered":0}`))
	})

	It("reports partial progress when a step failed", func() {
		sweep.runFn = func(context.Context) (service.SweepResult, error) {
			return service.SweepResult{Reminders: 2}, errors.New("closing expired discussions: boom")
		}

		w := trigger(adminAPIKey)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(ContainSubstring(`"count":2`))
	})

	It("requires the admin API key", func() {
		Expect(trigger("").Code).To(Equal(http.StatusUnauthorized))
		Expect(trigger("wrong").Code).To(Equal(http.StatusUnauthorized))
	})

	It("accepts a bearer token", func() {
		req := httptest.NewRequest(http.MethodPost, "/internal/sweep", nil)
		req.Header.Set("Authorization", "Bearer "+adminAPIKey)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
	})
})
