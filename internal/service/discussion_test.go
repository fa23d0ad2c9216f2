package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/endrithotii/daskann/core/config"
	"github.com/endrithotii/daskann/internal/model"
	"github.com/endrithotii/daskann/internal/service"
)

var _ = Describe("DiscussionService", func() {
	const (
		owner = int64(1)
		bob   = int64(2)
		carol = int64(3)
		dave  = int64(4)
		eve   = int64(9)
	)

	var (
		ctx       context.Context
		db        *memDB
		analyzer  *mockAnalyzer
		moderator *mockModerator
		publisher *mockPublisher
		svc       service.DiscussionService
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newMemDB()
		db.state.names[owner] = "Alice"
		analyzer = &mockAnalyzer{}
		moderator = &mockModerator{}
		publisher = &mockPublisher{}

		stores := db.Stores()
		lifecycle := service.NewLifecycleEngine(stores, db, analyzer, publisher)
		gate := service.NewModerationGate(moderator, config.ModerationFailClosed)
		svc = service.NewDiscussionService(stores, db, service.NewAudienceResolver(stores.Membership()), lifecycle, gate, publisher)
	})

	inDays := func(days int) *time.Time {
		t := time.Now().Add(time.Duration(days) * 24 * time.Hour)
		return &t
	}

	Describe("Create", func() {
		It("stores the discussion, its participants, invitations and reminders", func() {
			deadline := inDays(3)

			view, err := svc.Create(ctx, service.CreateDiscussionInput{
				OwnerID:          owner,
				Title:            "  Team lunch  ",
				Prompt:           "Where should we eat?",
				DeadlineAt:       deadline,
				Urgency:          model.UrgencyHigh,
				UserIDs:          []int64{carol, bob, bob},
				ReminderLeadTime: time.Hour,
			})

			Expect(err).NotTo(HaveOccurred())
			d := view.Discussion
			Expect(d.Title).To(Equal("Team lunch"))
			Expect(d.Status).To(Equal(model.DiscussionStatusOpen))
			Expect(view.Participants).To(HaveLen(2))
			Expect(view.Participants[0].UserID).To(Equal(bob))
			Expect(view.Participants[1].UserID).To(Equal(carol))

			invitations := db.notificationsOf(model.NotificationKindInvitation)
			Expect(invitations).To(HaveLen(2))
			Expect(invitations[0].Message).To(HavePrefix(`Alice invited you to "Team lunch" - `))
			Expect(invitations[0].Message).To(HaveSuffix("to respond | Urgency: HIGH"))
			Expect(publisher.count()).To(Equal(2))

			db.mu.Lock()
			defer db.mu.Unlock()
			Expect(db.state.scheduled).To(HaveLen(2))
			for _, r := range db.state.scheduled {
				Expect(r.NotifyAt).To(BeTemporally("==", deadline.Add(-time.Hour)))
				Expect(r.Sent).To(BeFalse())
			}
		})

		It("defaults urgency to medium and skips reminders without a lead time", func() {
			view, err := svc.Create(ctx, service.CreateDiscussionInput{
				OwnerID: owner, Title: "Retro", Prompt: "What went well?",
				DeadlineAt: inDays(1), UserIDs: []int64{bob, carol},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(view.Discussion.Urgency).To(Equal(model.UrgencyMedium))
			db.mu.Lock()
			defer db.mu.Unlock()
			Expect(db.state.scheduled).To(BeEmpty())
		})

		It("falls back to a generic inviter name", func() {
			_, err := svc.Create(ctx, service.CreateDiscussionInput{
				OwnerID: 77, Title: "Retro", Prompt: "?", UserIDs: []int64{bob, carol},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(db.notificationsOf(model.NotificationKindInvitation)[0].Message).To(HavePrefix("Someone invited you"))
		})

		DescribeTable("rejects invalid input without persisting anything",
			func(mutate func(in *service.CreateDiscussionInput), field string) {
				in := service.CreateDiscussionInput{
					OwnerID: owner, Title: "Retro", Prompt: "?",
					DeadlineAt: inDays(1), UserIDs: []int64{bob, carol},
				}
				mutate(&in)

				_, err := svc.Create(ctx, in)

				var verr *service.ValidationError
				Expect(err).To(BeAssignableToTypeOf(verr))
				Expect(err.(*service.ValidationError).Field).To(Equal(field))
				Expect(db.notificationsOf(model.NotificationKindInvitation)).To(BeEmpty())
				db.mu.Lock()
				defer db.mu.Unlock()
				Expect(db.state.discussions).To(BeEmpty())
			},
			Entry("blank title", func(in *service.CreateDiscussionInput) { in.Title = "   " }, "title"),
			Entry("blank prompt", func(in *service.CreateDiscussionInput) { in.Prompt = "" }, "prompt"),
			Entry("unknown urgency", func(in *service.CreateDiscussionInput) { in.Urgency = "urgent" }, "urgency"),
			Entry("deadline in the past", func(in *service.CreateDiscussionInput) { in.DeadlineAt = inDays(-1) }, "deadline_at"),
			Entry("deadline before start", func(in *service.CreateDiscussionInput) { in.StartDate = inDays(2) }, "deadline_at"),
			Entry("negative reminder lead", func(in *service.CreateDiscussionInput) { in.ReminderLeadTime = -time.Minute }, "reminder_lead_minutes"),
			Entry("single participant", func(in *service.CreateDiscussionInput) { in.UserIDs = []int64{bob} }, "participants"),
			Entry("no participants", func(in *service.CreateDiscussionInput) { in.UserIDs = nil }, "participants"),
		)

		It("rolls back the whole discussion when a batch insert fails", func() {
			db.notificationErr = errStoreDown

			_, err := svc.Create(ctx, service.CreateDiscussionInput{
				OwnerID: owner, Title: "Retro", Prompt: "?", UserIDs: []int64{bob, carol},
			})

			Expect(err).To(MatchError(errStoreDown))
			Expect(publisher.count()).To(BeZero())
			db.mu.Lock()
			defer db.mu.Unlock()
			Expect(db.state.discussions).To(BeEmpty())
			Expect(db.state.participants).To(BeEmpty())
		})
	})

	Describe("SubmitResponse", func() {
		const discussionID = int64(500)

		BeforeEach(func() {
			db.seedDiscussion(model.Discussion{
				ID: discussionID, OwnerID: owner, Title: "Lunch", Prompt: "Where should we eat?",
				DeadlineAt: inDays(7),
			}, bob, carol, dave)
		})

		submit := func(userID int64, text string) (*service.SubmitResponseResult, error) {
			return svc.SubmitResponse(ctx, service.SubmitResponseInput{DiscussionID: discussionID, UserID: userID, Text: text})
		}

		It("records the response and closes on the last one", func() {
			res, err := submit(bob, "Sushi")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Closed).To(BeFalse())
			Expect(res.Response.Text).To(Equal("Sushi"))

			res, err = submit(carol, " Pizza ")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Closed).To(BeFalse())
			Expect(res.Response.Text).To(Equal("Pizza"))

			res, err = submit(dave, "Sushi")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Closed).To(BeTrue())

			d := db.discussion(discussionID)
			Expect(d.Status).To(Equal(model.DiscussionStatusClosed))
			Expect(*d.ClosedBy).To(Equal(model.ClosedByAllResponses))
			Expect(d.ResultsSummary).To(HaveSuffix("Total responses: 3"))
			Expect(db.notificationsOf(model.NotificationKindClosure)).To(HaveLen(3))
		})

		It("rejects a second response from the same participant", func() {
			_, err := submit(bob, "Sushi")
			Expect(err).NotTo(HaveOccurred())

			_, err = submit(bob, "Pizza")
			Expect(err).To(MatchError(service.ErrAlreadyResponded))
			Expect(db.responseCount()).To(Equal(1))
		})

		It("rejects users who were not invited", func() {
			_, err := submit(eve, "Tacos")
			Expect(err).To(MatchError(service.ErrNotParticipant))
		})

		It("rejects blank text", func() {
			_, err := submit(bob, "   ")
			var verr *service.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
		})

		It("rejects anonymous responses when the discussion does not allow them", func() {
			_, err := svc.SubmitResponse(ctx, service.SubmitResponseInput{
				DiscussionID: discussionID, UserID: bob, Text: "Sushi", IsAnonymous: true,
			})

			var verr *service.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
			Expect(db.responseCount()).To(BeZero())
		})

		It("persists nothing when moderation rejects the answer", func() {
			moderator.moderateFn = func(_ context.Context, question, answer string) (service.ModerationDecision, error) {
				Expect(question).To(Equal("Where should we eat?"))
				Expect(answer).To(Equal("something rude"))
				return service.ModerationDecision{Permitted: false, UserMessage: "Please keep it civil."}, nil
			}

			_, err := submit(bob, "something rude")

			var rejected *service.ContentRejectedError
			Expect(err).To(BeAssignableToTypeOf(rejected))
			Expect(db.responseCount()).To(BeZero())
			Expect(db.discussion(discussionID).Status).To(Equal(model.DiscussionStatusOpen))
		})

		It("fails closed when moderation is unavailable", func() {
			moderator.moderateFn = func(context.Context, string, string) (service.ModerationDecision, error) {
				return service.ModerationDecision{}, errStoreDown
			}

			_, err := submit(bob, "Sushi")

			var ext *service.ExternalServiceError
			Expect(err).To(BeAssignableToTypeOf(ext))
			Expect(db.responseCount()).To(BeZero())
		})

		It("rejects responses to closed discussions", func() {
			Expect(svc.Close(ctx, owner, discussionID)).NotTo(BeNil())

			_, err := submit(bob, "Sushi")
			Expect(err).To(MatchError(service.ErrDiscussionClosed))
		})

		It("rejects responses before the start date", func() {
			start := time.Now().Add(time.Hour)
			db.seedDiscussion(model.Discussion{ID: 501, OwnerID: owner, Title: "Later", Prompt: "?", StartDate: start, DeadlineAt: inDays(2)}, bob, carol)

			_, err := svc.SubmitResponse(ctx, service.SubmitResponseInput{DiscussionID: 501, UserID: bob, Text: "Soon"})
			Expect(err).To(MatchError(service.ErrDiscussionNotStarted))
		})

		It("closes a discussion whose deadline passed instead of accepting the response", func() {
			past := time.Now().Add(-time.Minute)
			db.seedDiscussion(model.Discussion{ID: 502, OwnerID: owner, Title: "Late", Prompt: "?", DeadlineAt: &past}, bob, carol)

			_, err := svc.SubmitResponse(ctx, service.SubmitResponseInput{DiscussionID: 502, UserID: bob, Text: "Too late"})

			Expect(err).To(MatchError(service.ErrDeadlinePassed))
			Expect(db.responseCount()).To(BeZero())
			d := db.discussion(502)
			Expect(d.Status).To(Equal(model.DiscussionStatusClosed))
			Expect(*d.ClosedBy).To(Equal(model.ClosedByDeadline))
		})

		It("refuses a response whose moderation outlasted the deadline", func() {
			deadline := time.Now().Add(200 * time.Millisecond)
			db.seedDiscussion(model.Discussion{ID: 503, OwnerID: owner, Title: "Quick", Prompt: "?", DeadlineAt: &deadline}, bob, carol)
			moderator.moderateFn = func(context.Context, string, string) (service.ModerationDecision, error) {
				time.Sleep(time.Until(deadline) + 100*time.Millisecond)
				return service.ModerationDecision{Permitted: true}, nil
			}

			_, err := svc.SubmitResponse(ctx, service.SubmitResponseInput{DiscussionID: 503, UserID: bob, Text: "Just in time?"})

			Expect(err).To(MatchError(service.ErrDeadlinePassed))
			Expect(moderator.calls).To(Equal(1))
			Expect(db.responseCount()).To(BeZero())
			d := db.discussion(503)
			Expect(d.Status).To(Equal(model.DiscussionStatusClosed))
			Expect(*d.ClosedBy).To(Equal(model.ClosedByDeadline))
			Expect(d.ResultsSummary).To(HaveSuffix("Total responses: 0"))
		})

		It("reports unknown discussions", func() {
			_, err := svc.SubmitResponse(ctx, service.SubmitResponseInput{DiscussionID: 404, UserID: bob, Text: "Hi"})
			Expect(err).To(MatchError(service.ErrDiscussionNotFound))
		})
	})

	Describe("ListResponses", func() {
		const discussionID = int64(600)

		BeforeEach(func() {
			db.seedDiscussion(model.Discussion{ID: discussionID, OwnerID: owner, Title: "Lunch", Prompt: "?", AllowAnonymous: true, LikesEnabled: true}, bob, carol, dave)
			_, err := svc.SubmitResponse(ctx, service.SubmitResponseInput{DiscussionID: discussionID, UserID: bob, Text: "Sushi", IsAnonymous: true})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.SubmitResponse(ctx, service.SubmitResponseInput{DiscussionID: discussionID, UserID: carol, Text: "Pizza"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("hides anonymous authors from other viewers", func() {
			responses, err := svc.ListResponses(ctx, carol, discussionID)

			Expect(err).NotTo(HaveOccurred())
			Expect(responses).To(HaveLen(2))
			Expect(responses[0].UserID).To(BeZero())
			Expect(responses[1].UserID).To(Equal(carol))
		})

		It("shows anonymous authors their own response", func() {
			responses, err := svc.ListResponses(ctx, bob, discussionID)

			Expect(err).NotTo(HaveOccurred())
			Expect(responses[0].UserID).To(Equal(bob))
		})

		It("refuses outsiders", func() {
			_, err := svc.ListResponses(ctx, eve, discussionID)
			Expect(err).To(MatchError(service.ErrNotParticipant))
		})

		It("counts likes once per user", func() {
			responses, err := svc.ListResponses(ctx, owner, discussionID)
			Expect(err).NotTo(HaveOccurred())
			target := responses[1].ID

			Expect(svc.LikeResponse(ctx, dave, discussionID, target)).To(Succeed())
			Expect(svc.LikeResponse(ctx, dave, discussionID, target)).To(Succeed())
			Expect(svc.LikeResponse(ctx, owner, discussionID, target)).To(Succeed())

			responses, err = svc.ListResponses(ctx, owner, discussionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(responses[1].Likes).To(Equal(int64(2)))
		})

		It("rejects likes for responses of another discussion", func() {
			Expect(svc.LikeResponse(ctx, dave, discussionID, 123456)).To(MatchError(service.ErrResponseNotFound))
		})

		It("rejects likes when the discussion disables them", func() {
			db.seedDiscussion(model.Discussion{ID: 601, OwnerID: owner, Title: "No likes", Prompt: "?"}, bob, carol)
			Expect(svc.LikeResponse(ctx, bob, 601, 1)).To(MatchError(service.ErrLikesDisabled))
		})
	})

	Describe("Close", func() {
		const discussionID = int64(700)

		BeforeEach(func() {
			db.seedDiscussion(model.Discussion{ID: discussionID, OwnerID: owner, Title: "Lunch", Prompt: "?"}, bob, carol)
		})

		It("lets the owner close manually", func() {
			d, err := svc.Close(ctx, owner, discussionID)

			Expect(err).NotTo(HaveOccurred())
			Expect(d.Status).To(Equal(model.DiscussionStatusClosed))
			Expect(*d.ClosedBy).To(Equal(model.ClosedByManual))
			Expect(d.ClosureNotifiedAt).NotTo(BeNil())
		})

		It("refuses anyone but the owner", func() {
			_, err := svc.Close(ctx, bob, discussionID)
			Expect(err).To(MatchError(service.ErrNotOwner))
			Expect(db.discussion(discussionID).Status).To(Equal(model.DiscussionStatusOpen))
		})

		It("refuses to close twice", func() {
			_, err := svc.Close(ctx, owner, discussionID)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Close(ctx, owner, discussionID)
			Expect(err).To(MatchError(service.ErrDiscussionClosed))
			Expect(db.closureBatches.Load()).To(Equal(int32(1)))
		})
	})

	Describe("Get", func() {
		It("closes an expired discussion on view", func() {
			past := time.Now().Add(-time.Minute)
			db.seedDiscussion(model.Discussion{ID: 800, OwnerID: owner, Title: "Lunch", Prompt: "?", DeadlineAt: &past}, bob, carol)

			view, err := svc.Get(ctx, bob, 800)

			Expect(err).NotTo(HaveOccurred())
			Expect(view.Discussion.Status).To(Equal(model.DiscussionStatusClosed))
			Expect(view.Participants).To(HaveLen(2))
		})

		It("refuses outsiders", func() {
			db.seedDiscussion(model.Discussion{ID: 801, OwnerID: owner, Title: "Lunch", Prompt: "?"}, bob, carol)
			_, err := svc.Get(ctx, eve, 801)
			Expect(err).To(MatchError(service.ErrNotParticipant))
		})
	})

	Describe("ListForUser", func() {
		It("returns owned and invited discussions with expired ones closed", func() {
			past := time.Now().Add(-time.Minute)
			db.seedDiscussion(model.Discussion{ID: 900, OwnerID: owner, Title: "Expired", Prompt: "?", DeadlineAt: &past}, bob, carol)
			db.seedDiscussion(model.Discussion{ID: 901, OwnerID: carol, Title: "Open", Prompt: "?", DeadlineAt: inDays(2)}, bob, dave)
			db.seedDiscussion(model.Discussion{ID: 902, OwnerID: carol, Title: "Elsewhere", Prompt: "?"}, dave, eve)

			discussions, err := svc.ListForUser(ctx, bob)

			Expect(err).NotTo(HaveOccurred())
			Expect(discussions).To(HaveLen(2))
			statuses := map[int64]model.DiscussionStatus{}
			for _, d := range discussions {
				statuses[d.ID] = d.Status
			}
			Expect(statuses).To(Equal(map[int64]model.DiscussionStatus{
				900: model.DiscussionStatusClosed,
				901: model.DiscussionStatusOpen,
			}))
		})
	})
})
