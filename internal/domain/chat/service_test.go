package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gigboard/gigboard-api/internal/domain/chat"
	"github.com/gigboard/gigboard-api/internal/domain/credit"
	"github.com/gigboard/gigboard-api/internal/domain/engagement"
	"github.com/gigboard/gigboard-api/internal/domain/post"
	"github.com/gigboard/gigboard-api/internal/domain/user"
	"github.com/gigboard/gigboard-api/internal/store"
	"github.com/gigboard/gigboard-api/internal/store/memory"
)

var fixedNow = time.Date(2026, 7, 20, 14, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixture struct {
	svc   *chat.Service
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New()
	engagements := engagement.NewService(s, credit.NewLedgerWithClock(clock)).WithClock(clock)
	f := &fixture{svc: chat.NewService(s, engagements), store: s}

	for id, balance := range map[string]int{"emp": 2, "worker": 0} {
		u := user.New(id, fixedNow)
		u.Credits = user.Credits{Balance: balance, LifetimeEarned: balance}
		if err := s.Set(context.Background(), store.CollectionUsers, id, u); err != nil {
			t.Fatal(err)
		}
	}

	p := post.Post{
		ID:       "post-1",
		UserID:   "worker",
		Type:     post.TypeSeasonal,
		Title:    "Harvest help",
		Schedule: &post.Schedule{Start: fixedNow, End: fixedNow.Add(48 * time.Hour)},
		Location: []string{},
	}
	p.SetPriority(post.PriorityActive, fixedNow)
	if err := s.Set(context.Background(), store.CollectionPosts, p.ID, p); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) credits(t *testing.T, id string) user.Credits {
	t.Helper()
	var u user.User
	if err := f.store.Get(context.Background(), store.CollectionUsers, id, &u); err != nil {
		t.Fatal(err)
	}
	return u.Credits
}

func (f *fixture) message(t *testing.T, id string) chat.Message {
	t.Helper()
	var m chat.Message
	if err := f.store.Get(context.Background(), store.CollectionMessages, id, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func (f *fixture) sendOffer(t *testing.T) *chat.OfferResponse {
	t.Helper()
	out, err := f.svc.SendOffer(context.Background(), "emp", chat.SendOfferRequest{WorkerID: "worker", PostID: "post-1", Text: "Are you free?"})
	if err != nil {
		t.Fatalf("send offer: %v", err)
	}
	return out
}

func TestSendOfferChargesAndStoresCard(t *testing.T) {
	f := newFixture(t)
	out := f.sendOffer(t)

	if out.Engagement.Status != engagement.StatusPending {
		t.Fatalf("expected pending engagement, got %s", out.Engagement.Status)
	}
	m := f.message(t, out.Message.ID)
	if m.Kind != chat.MessageTypeOffer || m.Offer == nil {
		t.Fatalf("expected offer message, got %+v", m)
	}
	if m.Offer.EngagementID != engagement.ID("emp", "worker", "post-1") {
		t.Fatalf("card points at %s", m.Offer.EngagementID)
	}
	if m.ConversationID != chat.ConversationID("worker", "emp") {
		t.Fatalf("unexpected conversation %s", m.ConversationID)
	}

	c := f.credits(t, "emp")
	if c.Balance != 1 || c.Used != 1 {
		t.Fatalf("expected one credit spent, got %+v", c)
	}
}

func TestSendOfferDuplicateLeavesNoSecondCard(t *testing.T) {
	f := newFixture(t)
	f.sendOffer(t)

	_, err := f.svc.SendOffer(context.Background(), "emp", chat.SendOfferRequest{WorkerID: "worker", PostID: "post-1"})
	if !errors.Is(err, engagement.ErrDuplicateEngagement) {
		t.Fatalf("expected ErrDuplicateEngagement, got %v", err)
	}

	history, err := f.svc.History(context.Background(), "emp", "worker", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one message, got %d", len(history))
	}
	if c := f.credits(t, "emp"); c.Balance != 1 {
		t.Fatalf("duplicate must not charge, balance %d", c.Balance)
	}
}

func TestUpdateOfferMirrorsEngagement(t *testing.T) {
	f := newFixture(t)
	out := f.sendOffer(t)

	updated, err := f.svc.UpdateOffer(context.Background(), "worker", out.Message.ID, engagement.StatusDeclined)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if updated.Engagement.Status != engagement.StatusDeclined {
		t.Fatalf("engagement status %s", updated.Engagement.Status)
	}
	if m := f.message(t, out.Message.ID); m.Offer.Status != engagement.StatusDeclined {
		t.Fatalf("card status %s", m.Offer.Status)
	}
	if c := f.credits(t, "emp"); c.Balance != 2 || c.Used != 0 {
		t.Fatalf("decline must refund, got %+v", c)
	}

	_, err = f.svc.UpdateOffer(context.Background(), "worker", out.Message.ID, engagement.StatusAccepted)
	if !errors.Is(err, engagement.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestHistoryShowsStatusChangedOutsideChat(t *testing.T) {
	f := newFixture(t)
	out := f.sendOffer(t)

	engagements := engagement.NewService(f.store, credit.NewLedgerWithClock(clock)).WithClock(clock)
	if _, err := engagements.Transition(context.Background(), "worker", out.Engagement.ID, engagement.StatusDeclined); err != nil {
		t.Fatal(err)
	}

	history, err := f.svc.History(context.Background(), "emp", "worker", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Offer == nil {
		t.Fatalf("expected the offer card, got %+v", history)
	}
	if history[0].Offer.Status != engagement.StatusDeclined {
		t.Fatalf("card should show declined, got %s", history[0].Offer.Status)
	}

	if _, err := f.svc.UpdateOffer(context.Background(), "worker", out.Message.ID, engagement.StatusAccepted); !errors.Is(err, engagement.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on a settled card, got %v", err)
	}
}

func TestUpdateOfferRejectsOutsidersAndTextMessages(t *testing.T) {
	f := newFixture(t)
	out := f.sendOffer(t)

	if _, err := f.svc.UpdateOffer(context.Background(), "stranger", out.Message.ID, engagement.StatusAccepted); !errors.Is(err, chat.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
	if _, err := f.svc.UpdateOffer(context.Background(), "emp", out.Message.ID, engagement.StatusAccepted); !errors.Is(err, engagement.ErrActorNotAllowed) {
		t.Fatalf("expected ErrActorNotAllowed, got %v", err)
	}

	text, err := f.svc.SendText(context.Background(), "worker", chat.SendMessageRequest{RecipientID: "emp", Text: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateOffer(context.Background(), "worker", text.ID, engagement.StatusAccepted); !errors.Is(err, chat.ErrNotOffer) {
		t.Fatalf("expected ErrNotOffer, got %v", err)
	}
}

func TestSendTextValidation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.SendText(context.Background(), "emp", chat.SendMessageRequest{RecipientID: "emp", Text: "x"}); !errors.Is(err, chat.ErrCannotChatSelf) {
		t.Fatalf("expected ErrCannotChatSelf, got %v", err)
	}
	if _, err := f.svc.SendText(context.Background(), "emp", chat.SendMessageRequest{RecipientID: "worker", Text: "   "}); !errors.Is(err, chat.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestMessageContent(t *testing.T) {
	m := chat.Message{Kind: chat.MessageTypeText, Text: "hello"}
	c, err := m.Content()
	if err != nil {
		t.Fatal(err)
	}
	if c.(chat.TextContent) != "hello" {
		t.Fatalf("unexpected content %v", c)
	}

	bad := chat.Message{Kind: chat.MessageTypeOffer}
	if _, err := bad.Content(); !errors.Is(err, chat.ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
}
