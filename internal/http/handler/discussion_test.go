package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/endrithotii/daskann/internal/http/handler"
	"github.com/endrithotii/daskann/internal/http/middleware"
	"github.com/endrithotii/daskann/internal/model"
	"github.com/endrithotii/daskann/internal/service"
)

var _ = Describe("DiscussionHandler", func() {
	const userID = int64(42)

	var (
		router      *gin.Engine
		discussions *mockDiscussionService
		analysis    *mockAnalysisService
	)

	BeforeEach(func() {
		router = gin.New()
		discussions = &mockDiscussionService{}
		analysis = &mockAnalysisService{}
		h := handler.NewDiscussionHandler(discussions, analysis)

		rg := router.Group("/api/v1/discussions")
		rg.Use(middleware.RequireUser())
		rg.POST("", h.Create)
		rg.GET("", h.List)
		rg.GET("/:id", h.Get)
		rg.POST("/:id/close", h.Close)
		rg.POST("/:id/analysis", h.Analyze)
		rg.POST("/:id/responses", h.SubmitResponse)
		rg.GET("/:id/responses", h.ListResponses)
		rg.POST("/:id/responses/:response_id/like", h.LikeResponse)
	})

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.UserIDHeader, "42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) map[string]any {
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		return resp
	}

	Describe("Create", func() {
		It("returns 201 with the discussion and its participants", func() {
			deadline := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
			discussions.createFn = func(_ context.Context, in service.CreateDiscussionInput) (*service.DiscussionView, error) {
				Expect(in.OwnerID).To(Equal(userID))
				Expect(in.Title).To(Equal("Team lunch"))
				Expect(in.Urgency).To(Equal(model.UrgencyHigh))
				Expect(in.UserIDs).To(Equal([]int64{7, 8}))
				Expect(in.ReminderLeadTime).To(Equal(30 * time.Minute))
				Expect(in.DeadlineAt).NotTo(BeNil())
				Expect(in.DeadlineAt.Equal(deadline)).To(BeTrue())
				return &service.DiscussionView{
					Discussion: &model.Discussion{
						ID: 1790000000000000001, OwnerID: userID, Title: in.Title, Prompt: in.Prompt,
						DeadlineAt: in.DeadlineAt, Urgency: in.Urgency, Status: model.DiscussionStatusOpen,
					},
					Participants: []model.Participant{{UserID: 7}, {UserID: 8}},
				}, nil
			}

			w := do(http.MethodPost, "/api/v1/discussions", map[string]any{
				"title":                 "Team lunch",
				"prompt":                "Where should we eat?",
				"deadline_at":           deadline.Format(time.RFC3339),
				"urgency":               "high",
				"user_ids":              []int64{7, 8},
				"reminder_lead_minutes": 30,
			})

			Expect(w.Code).To(Equal(http.StatusCreated))
			resp := decode(w)
			Expect(resp["id"]).To(Equal("1790000000000000001"))
			Expect(resp["status"]).To(Equal("open"))
			Expect(resp["participants_count"]).To(BeNumerically("==", 2))
		})

		It("returns 400 when required fields are missing", func() {
			w := do(http.MethodPost, "/api/v1/discussions", map[string]any{"prompt": "?"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for an unknown urgency", func() {
			w := do(http.MethodPost, "/api/v1/discussions", map[string]any{"title": "t", "prompt": "p", "urgency": "urgent"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("surfaces validation errors with the offending field", func() {
			discussions.createFn = func(context.Context, service.CreateDiscussionInput) (*service.DiscussionView, error) {
				return nil, &service.ValidationError{Field: "participants", Reason: "at least two participants are required to reach consensus"}
			}

			w := do(http.MethodPost, "/api/v1/discussions", map[string]any{"title": "t", "prompt": "p"})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(w)["field"]).To(Equal("participants"))
		})

		It("returns 401 without a user id", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/discussions", bytes.NewBufferString(`{}`))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("Get", func() {
		It("returns the discussion with closure details", func() {
			closedBy := model.ClosedByDeadline
			discussions.getFn = func(_ context.Context, uid, discussionID int64) (*service.DiscussionView, error) {
				Expect(uid).To(Equal(userID))
				Expect(discussionID).To(Equal(int64(5)))
				return &service.DiscussionView{Discussion: &model.Discussion{
					ID: 5, Status: model.DiscussionStatusClosed, ClosedBy: &closedBy,
					ResultsSummary: "Discussion closed due to deadline expiration. Total responses: 0",
				}}, nil
			}

			w := do(http.MethodGet, "/api/v1/discussions/5", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode(w)
			Expect(resp["closed_by"]).To(Equal("deadline"))
			Expect(resp["results_summary"]).To(ContainSubstring("Total responses: 0"))
		})

		It("returns 400 for a malformed id", func() {
			Expect(do(http.MethodGet, "/api/v1/discussions/abc", nil).Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for unknown discussions", func() {
			discussions.getFn = func(context.Context, int64, int64) (*service.DiscussionView, error) {
				return nil, service.ErrDiscussionNotFound
			}
			Expect(do(http.MethodGet, "/api/v1/discussions/5", nil).Code).To(Equal(http.StatusNotFound))
		})

		It("returns 403 for outsiders", func() {
			discussions.getFn = func(context.Context, int64, int64) (*service.DiscussionView, error) {
				return nil, service.ErrNotParticipant
			}
			Expect(do(http.MethodGet, "/api/v1/discussions/5", nil).Code).To(Equal(http.StatusForbidden))
		})

		It("returns 500 without leaking internal errors", func() {
			discussions.getFn = func(context.Context, int64, int64) (*service.DiscussionView, error) {
				return nil, errors.New("connection refused")
			}

			w := do(http.MethodGet, "/api/v1/discussions/5", nil)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).NotTo(ContainSubstring("connection refused"))
		})
	})

	Describe("List", func() {
		It("returns the caller's discussions", func() {
			discussions.listForUserFn = func(_ context.Context, uid int64) ([]model.Discussion, error) {
				Expect(uid).To(Equal(userID))
				return []model.Discussion{{ID: 1, Status: model.DiscussionStatusOpen}, {ID: 2, Status: model.DiscussionStatusClosed}}, nil
			}

			w := do(http.MethodGet, "/api/v1/discussions", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["discussions"]).To(HaveLen(2))
		})
	})

	Describe("SubmitResponse", func() {
		It("returns 201 and reports when the response closed the discussion", func() {
			discussions.submitResponseFn = func(_ context.Context, in service.SubmitResponseInput) (*service.SubmitResponseResult, error) {
				Expect(in).To(Equal(service.SubmitResponseInput{DiscussionID: 5, UserID: userID, Text: "Sushi", IsAnonymous: true}))
				return &service.SubmitResponseResult{
					Response: &model.Response{ID: 9, DiscussionID: 5, UserID: userID, Text: "Sushi", IsAnonymous: true},
					Closed:   true,
				}, nil
			}

			w := do(http.MethodPost, "/api/v1/discussions/5/responses", map[string]any{"text": "Sushi", "is_anonymous": true})

			Expect(w.Code).To(Equal(http.StatusCreated))
			resp := decode(w)
			Expect(resp["discussion_closed"]).To(BeTrue())
			Expect(resp["response"]).To(HaveKeyWithValue("text", "Sushi"))
		})

		DescribeTable("maps service errors to statuses",
			func(err error, status int) {
				discussions.submitResponseFn = func(context.Context, service.SubmitResponseInput) (*service.SubmitResponseResult, error) {
					return nil, err
				}
				w := do(http.MethodPost, "/api/v1/discussions/5/responses", map[string]any{"text": "Sushi"})
				Expect(w.Code).To(Equal(status))
			},
			Entry("closed", service.ErrDiscussionClosed, http.StatusConflict),
			Entry("deadline passed", service.ErrDeadlinePassed, http.StatusConflict),
			Entry("not started", service.ErrDiscussionNotStarted, http.StatusConflict),
			Entry("already responded", service.ErrAlreadyResponded, http.StatusConflict),
			Entry("not participant", service.ErrNotParticipant, http.StatusForbidden),
			Entry("moderation rejected", &service.ContentRejectedError{UserMessage: "Please keep it civil."}, http.StatusUnprocessableEntity),
			Entry("moderation down", &service.ExternalServiceError{Service: "moderation", Err: errors.New("timeout")}, http.StatusBadGateway),
			Entry("moderation not configured", &service.ExternalServiceError{Service: "moderation", Err: service.ErrNotConfigured}, http.StatusServiceUnavailable),
		)

		It("passes the moderation message to the caller", func() {
			discussions.submitResponseFn = func(context.Context, service.SubmitResponseInput) (*service.SubmitResponseResult, error) {
				return nil, &service.ContentRejectedError{UserMessage: "Please keep it civil."}
			}

			w := do(http.MethodPost, "/api/v1/discussions/5/responses", map[string]any{"text": "rude"})

			Expect(decode(w)["message"]).To(Equal("Please keep it civil."))
		})

		It("returns 400 for an empty body", func() {
			Expect(do(http.MethodPost, "/api/v1/discussions/5/responses", map[string]any{}).Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("ListResponses", func() {
		It("omits the author of masked responses", func() {
			discussions.listResponsesFn = func(context.Context, int64, int64) ([]model.Response, error) {
				return []model.Response{
					{ID: 1, DiscussionID: 5, UserID: 0, Text: "Sushi", IsAnonymous: true, Likes: 2},
					{ID: 2, DiscussionID: 5, UserID: 8, Text: "Pizza"},
				}, nil
			}

			w := do(http.MethodGet, "/api/v1/discussions/5/responses", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp struct {
				Responses []map[string]any `json:"responses"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Responses).To(HaveLen(2))
			Expect(resp.Responses[0]).NotTo(HaveKey("user_id"))
			Expect(resp.Responses[0]["likes"]).To(BeNumerically("==", 2))
			Expect(resp.Responses[1]["user_id"]).To(Equal("8"))
		})
	})

	Describe("LikeResponse", func() {
		It("returns 204", func() {
			discussions.likeResponseFn = func(_ context.Context, uid, discussionID, responseID int64) error {
				Expect([]int64{uid, discussionID, responseID}).To(Equal([]int64{userID, 5, 9}))
				return nil
			}
			Expect(do(http.MethodPost, "/api/v1/discussions/5/responses/9/like", nil).Code).To(Equal(http.StatusNoContent))
		})

		It("returns 409 when likes are disabled", func() {
			discussions.likeResponseFn = func(context.Context, int64, int64, int64) error { return service.ErrLikesDisabled }
			Expect(do(http.MethodPost, "/api/v1/discussions/5/responses/9/like", nil).Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("Close", func() {
		It("returns the closed discussion", func() {
			closedBy := model.ClosedByManual
			discussions.closeFn = func(context.Context, int64, int64) (*model.Discussion, error) {
				return &model.Discussion{ID: 5, Status: model.DiscussionStatusClosed, ClosedBy: &closedBy}, nil
			}

			w := do(http.MethodPost, "/api/v1/discussions/5/close", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["closed_by"]).To(Equal("manual"))
		})

		It("returns 403 for non-owners", func() {
			discussions.closeFn = func(context.Context, int64, int64) (*model.Discussion, error) { return nil, service.ErrNotOwner }
			Expect(do(http.MethodPost, "/api/v1/discussions/5/close", nil).Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("Analyze", func() {
		It("returns the regenerated analysis", func() {
			analysis.regenerateFn = func(context.Context, int64, int64) (*model.ConsensusAnalysis, error) {
				return &model.ConsensusAnalysis{Consensus: model.ConsensusRecord{GroupID: "g1", Label: "Sushi", Confidence: 0.8}}, nil
			}

			w := do(http.MethodPost, "/api/v1/discussions/5/analysis", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)).To(HaveKey("ai_analysis"))
		})

		It("returns 409 while the discussion is open", func() {
			analysis.regenerateFn = func(context.Context, int64, int64) (*model.ConsensusAnalysis, error) {
				return nil, service.ErrDiscussionOpen
			}
			Expect(do(http.MethodPost, "/api/v1/discussions/5/analysis", nil).Code).To(Equal(http.StatusConflict))
		})

		It("returns 502 when the analysis collaborator fails", func() {
			analysis.regenerateFn = func(context.Context, int64, int64) (*model.ConsensusAnalysis, error) {
				return nil, &service.ExternalServiceError{Service: "consensus_analysis", Err: model.ErrInvalidAnalysis}
			}
			Expect(do(http.MethodPost, "/api/v1/discussions/5/analysis", nil).Code).To(Equal(http.StatusBadGateway))
		})
	})
})
