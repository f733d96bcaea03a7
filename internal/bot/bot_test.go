package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	"github.com/ilindan-dev/sms-sender-bot/internal/service"
	"github.com/ilindan-dev/sms-sender-bot/internal/storage/memory"
	"github.com/rs/zerolog"
)

const chat int64 = 100

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	answered int
	updates  chan tgbotapi.Update
	onSend   chan struct{}
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.mu.Lock()
	a.sent = append(a.sent, c)
	a.mu.Unlock()
	if a.onSend != nil {
		a.onSend <- struct{}{}
	}
	return tgbotapi.Message{}, nil
}

func (a *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.answered++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (a *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return a.updates }
func (a *fakeAPI) StopReceivingUpdates()                                         {}

// lastText returns the text of the last message or edit.
func (a *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	switch m := a.sent[len(a.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		return m.Text
	case tgbotapi.EditMessageTextConfig:
		return m.Text
	}
	t.Fatalf("unexpected chattable %T", a.sent[len(a.sent)-1])
	return ""
}

type fakeMessages struct {
	mu    sync.Mutex
	sends []string
	res   model.SendResult
}

func (m *fakeMessages) ValidateAddress(a string) bool { return service.ValidateAddress(a) }

func (m *fakeMessages) SendOne(_ context.Context, _ int64, dest, msg string) (model.SendResult, uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, dest+"|"+msg)
	return m.res, uuid.New()
}

type fakeRunner struct {
	jobs []*model.BulkJob
	err  error
}

func (r *fakeRunner) Submit(_ context.Context, job *model.BulkJob) error {
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, job)
	return nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, int64) (bool, error) { return false, nil }

type fixture struct {
	bot      *Bot
	api      *fakeAPI
	messages *fakeMessages
	runner   *fakeRunner
	sessions *memory.SessionStore
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := &config.Config{
		SMS: config.SMSConfig{DefaultMessage: "Default text", MaxLength: 160},
		Bot: config.BotConfig{Workers: 2},
	}
	for _, m := range mutate {
		m(cfg)
	}
	logger := zerolog.Nop()
	f := &fixture{
		api:      &fakeAPI{},
		messages: &fakeMessages{res: model.SendResult{Success: true, Detail: service.DetailSent, Attempts: 1}},
		runner:   &fakeRunner{},
		sessions: memory.NewSessionStore(15 * time.Minute),
	}
	f.bot = New(cfg, f.api, f.messages, f.runner, f.sessions, nil, &logger)
	return f
}

func command(text string) tgbotapi.Update {
	name := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chat},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func text(s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chat}, Text: s}}
}

func callback(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: chat}},
	}}
}

func (f *fixture) handle(t *testing.T, u tgbotapi.Update) {
	t.Helper()
	if err := f.bot.handleUpdate(context.Background(), u); err != nil {
		t.Fatalf("handleUpdate: %v", err)
	}
}

func (f *fixture) session(t *testing.T) *model.Session {
	t.Helper()
	s, err := f.sessions.Get(context.Background(), chat)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStartShowsMenu(t *testing.T) {
	f := newFixture(t)
	f.handle(t, command("/start"))

	msg := f.api.sent[0].(tgbotapi.MessageConfig)
	kb, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok || len(kb.Keyboard) != 2 || kb.Keyboard[0][0].Text != ButtonSetMessage || kb.Keyboard[1][1].Text != ButtonSendBulk {
		t.Fatalf("unexpected keyboard %#v", msg.ReplyMarkup)
	}
}

func TestSingleSendFlow(t *testing.T) {
	f := newFixture(t)

	f.handle(t, command("/send"))
	if got := f.api.lastText(t); got != textSendUsage {
		t.Fatalf("reply = %q", got)
	}

	f.handle(t, command("/send 12345"))
	if got := f.api.lastText(t); got != service.DetailInvalidNumber {
		t.Fatalf("reply = %q", got)
	}

	f.handle(t, command("/send +15551234567"))
	if got := f.api.lastText(t); !strings.Contains(got, "+15551234567:\n\nDefault text") {
		t.Fatalf("confirmation = %q", got)
	}

	f.handle(t, callback(CallbackConfirmSend))
	if got := f.api.lastText(t); got != "✅ "+service.DetailSent {
		t.Fatalf("result = %q", got)
	}
	if len(f.messages.sends) != 1 || f.messages.sends[0] != "+15551234567|Default text" {
		t.Fatalf("sends = %v", f.messages.sends)
	}
	if f.api.answered != 1 {
		t.Fatal("callback was not answered")
	}

	// A second tap on the stale button must not send again.
	f.handle(t, callback(CallbackConfirmSend))
	if got := f.api.lastText(t); got != textSendMissing || len(f.messages.sends) != 1 {
		t.Fatalf("stale confirm = %q, sends = %d", got, len(f.messages.sends))
	}
}

func TestSetMessageFlow(t *testing.T) {
	f := newFixture(t)

	f.handle(t, command("/set_message "+strings.Repeat("x", 161)))
	if got := f.api.lastText(t); got != "Message too long. Please keep it under 160 characters." {
		t.Fatalf("reply = %q", got)
	}

	f.handle(t, command("/set_message Flash sale today"))
	f.handle(t, callback(CallbackConfirmMessage))
	if got := f.api.lastText(t); got != textMessageSet {
		t.Fatalf("reply = %q", got)
	}
	if s := f.session(t); s.Message != "Flash sale today" || s.PendingMessage != "" {
		t.Fatalf("session = %+v", s)
	}

	f.handle(t, command("/send +15551234567"))
	f.handle(t, callback(CallbackConfirmSend))
	if f.messages.sends[0] != "+15551234567|Flash sale today" {
		t.Fatalf("sends = %v", f.messages.sends)
	}
}

func TestBulkFlow(t *testing.T) {
	f := newFixture(t)

	f.handle(t, text(ButtonSendBulk))
	if got := f.api.lastText(t); got != textBulkPrompt {
		t.Fatalf("prompt = %q", got)
	}
	if s := f.session(t); s.State != model.StateAwaitingNumbers {
		t.Fatalf("state = %s", s.State)
	}

	f.handle(t, text("+15551234567, 555, abc"))
	if got := f.api.lastText(t); got != "Invalid numbers found: 555, abc\nPlease try again with valid numbers." {
		t.Fatalf("reply = %q", got)
	}
	if s := f.session(t); s.State != model.StateAwaitingNumbers {
		t.Fatalf("state = %s, want awaiting numbers", s.State)
	}

	f.handle(t, text(" , "))
	if got := f.api.lastText(t); got != textBulkNoNumbers {
		t.Fatalf("reply = %q", got)
	}

	f.handle(t, text("+15551234567, +447911123456"))
	if got := f.api.lastText(t); !strings.HasPrefix(got, "Ready to send to 2 numbers.") {
		t.Fatalf("reply = %q", got)
	}

	f.handle(t, callback(CallbackConfirmBulk))
	if len(f.runner.jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(f.runner.jobs))
	}
	job := f.runner.jobs[0]
	if job.ChatID != chat || job.Message != "Default text" || strings.Join(job.Numbers, ",") != "+15551234567,+447911123456" {
		t.Fatalf("job = %+v", job)
	}
	if s := f.session(t); s.State != model.StateIdle || len(s.Numbers) != 0 {
		t.Fatalf("session after confirm = %+v", s)
	}

	f.handle(t, callback(CallbackConfirmBulk))
	if got := f.api.lastText(t); got != textBulkNothing || len(f.runner.jobs) != 1 {
		t.Fatalf("stale confirm = %q, jobs = %d", got, len(f.runner.jobs))
	}
}

func TestBulkCancel(t *testing.T) {
	f := newFixture(t)
	f.handle(t, command("/bulk_send"))
	f.handle(t, text("+15551234567"))
	f.handle(t, callback(CallbackCancelBulk))

	if got := f.api.lastText(t); got != textCancelled {
		t.Fatalf("reply = %q", got)
	}
	if s := f.session(t); s.State != model.StateIdle {
		t.Fatalf("state = %s", s.State)
	}

	f.handle(t, command("/bulk_send"))
	f.handle(t, command("/cancel"))
	if s := f.session(t); s.State != model.StateIdle {
		t.Fatalf("state after /cancel = %s", s.State)
	}
}

func TestBulkSubmitFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.err = errors.New("broker down")
	f.handle(t, command("/bulk_send"))
	f.handle(t, text("+15551234567"))
	f.handle(t, callback(CallbackConfirmBulk))

	if got := f.api.lastText(t); got != textBulkFailed {
		t.Fatalf("reply = %q", got)
	}
}

func TestTextOutsideConversation(t *testing.T) {
	f := newFixture(t)
	f.handle(t, text("+15551234567"))
	if got := f.api.lastText(t); got != textUnknown {
		t.Fatalf("reply = %q", got)
	}
}

func TestAllowlist(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Bot.AllowedChatIDs = []int64{1} })
	f.handle(t, command("/send +15551234567"))
	if got := f.api.lastText(t); got != textUnauthorized {
		t.Fatalf("reply = %q", got)
	}
	if s := f.session(t); s.PendingNumber != "" {
		t.Fatal("unauthorized chat must not touch the session")
	}
}

func TestRateLimited(t *testing.T) {
	f := newFixture(t)
	f.bot.limiter = denyLimiter{}
	f.handle(t, command("/help"))
	if got := f.api.lastText(t); got != textRateLimited {
		t.Fatalf("reply = %q", got)
	}
}

func TestUnknownCallback(t *testing.T) {
	f := newFixture(t)
	if err := f.bot.handleUpdate(context.Background(), callback("bogus")); err == nil {
		t.Fatal("expected an error for unknown callback data")
	}
	if f.api.answered != 1 {
		t.Fatal("callbacks are always answered")
	}
}

func TestPollingProcessesUpdates(t *testing.T) {
	f := newFixture(t)
	f.api.updates = make(chan tgbotapi.Update, 1)
	f.api.onSend = make(chan struct{}, 1)

	f.bot.Start(context.Background())
	f.api.updates <- command("/help")

	select {
	case <-f.api.onSend:
	case <-time.After(2 * time.Second):
		t.Fatal("update was not processed")
	}
	f.bot.Stop()

	if got := f.api.lastText(t); got != textHelp {
		t.Fatalf("reply = %q", got)
	}
}
