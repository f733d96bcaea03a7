package notifiers

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if b.err != nil {
		return tgbotapi.Message{}, b.err
	}
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m)
	}
	return tgbotapi.Message{}, nil
}

type fakeMail struct {
	messages []*gomail.Message
}

func (m *fakeMail) DialAndSend(msgs ...*gomail.Message) error {
	m.messages = append(m.messages, msgs...)
	return nil
}

func reportOf(n int) *model.BulkReport {
	r := &model.BulkReport{JobID: uuid.New(), ChatID: 42}
	for i := 0; i < n; i++ {
		r.Items = append(r.Items, model.BulkItem{
			Destination: "+15551234567",
			Result:      model.SendResult{Success: true, Detail: "Message sent successfully"},
		})
	}
	return r
}

func TestTelegramNotifierSplitsLongReports(t *testing.T) {
	logger := zerolog.Nop()
	bot := &fakeBot{}
	n := NewTelegramNotifier(bot, &logger)

	report := reportOf(200)
	if err := n.Notify(context.Background(), report); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(bot.sent) < 2 {
		t.Fatalf("sent %d messages, want the report split", len(bot.sent))
	}
	var joined strings.Builder
	for _, m := range bot.sent {
		if m.ChatID != 42 {
			t.Fatalf("chat id = %d, want 42", m.ChatID)
		}
		if len([]rune(m.Text)) > MaxTelegramText {
			t.Fatalf("chunk of %d runes exceeds the limit", len([]rune(m.Text)))
		}
		joined.WriteString(m.Text)
	}
	if joined.String() != report.Text() {
		t.Fatal("chunks do not reassemble the report")
	}
}

func TestTelegramNotifierRequiresChat(t *testing.T) {
	logger := zerolog.Nop()
	n := NewTelegramNotifier(&fakeBot{}, &logger)
	report := reportOf(1)
	report.ChatID = 0
	if err := n.Notify(context.Background(), report); err == nil {
		t.Fatal("expected an error without a chat id")
	}
}

func TestEmailNotifier(t *testing.T) {
	logger := zerolog.Nop()
	mail := &fakeMail{}
	n := &EmailNotifier{dialer: mail, from: "bot@example.com", to: "ops@example.com", logger: logger}

	if err := n.Notify(context.Background(), reportOf(2)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(mail.messages) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mail.messages))
	}
	if got := mail.messages[0].GetHeader("Subject"); len(got) != 1 || got[0] != "SMS bulk report: 2/2 sent" {
		t.Fatalf("subject = %v", got)
	}
}

func TestFanoutJoinsErrors(t *testing.T) {
	logger := zerolog.Nop()
	boom := errors.New("telegram down")
	ok := &fakeBot{}
	f := NewFanoutOf(&logger,
		NewTelegramNotifier(&fakeBot{err: boom}, &logger),
		NewTelegramNotifier(ok, &logger),
	)

	err := f.Notify(context.Background(), reportOf(1))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want it to wrap %v", err, boom)
	}
	if len(ok.sent) != 1 {
		t.Fatal("a failing notifier must not stop the others")
	}
}
