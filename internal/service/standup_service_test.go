package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
)

func TestStandupStartValidation(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)

	if _, err := e.standups.Start(ada, chID, 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("zero length = %v, want invalid input", err)
	}
	if _, err := e.standups.Start(ada, chID, -5); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("negative length = %v, want invalid input", err)
	}
	if _, err := e.standups.Start(grace, chID, 60); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-member start = %v, want forbidden", err)
	}
	if _, err := e.standups.Start(ada, 999, 60); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("missing channel = %v, want invalid input", err)
	}

	if _, err := e.standups.Start(ada, chID, 60); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.standups.Start(ada, chID, 60); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("second concurrent standup = %v, want invalid input", err)
	}
}

func TestStandupActive(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	chID := e.mkChannel(t, ada, "general", true)

	active, finish, err := e.standups.Active(ada, chID)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active || finish != 0 {
		t.Errorf("idle channel reports active standup: %v, %d", active, finish)
	}

	wantFinish, err := e.standups.Start(ada, chID, 60)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	active, finish, err = e.standups.Active(ada, chID)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if !active || finish != wantFinish {
		t.Errorf("Active = (%v, %d), want (true, %d)", active, finish, wantFinish)
	}
}

func TestStandupStarterCannotLeave(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)
	if err := e.channels.Join(grace, chID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if _, err := e.standups.Start(grace, chID, 60); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.channels.Leave(grace, chID); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("standup starter left = %v, want invalid input", err)
	}
	// Other members may still leave.
	if err := e.channels.Leave(ada, chID); err != nil {
		t.Errorf("bystander leave blocked: %v", err)
	}
}

func TestStandupSendValidation(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)

	if err := e.standups.Send(ada, chID, "early"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("send without standup = %v, want invalid input", err)
	}

	if _, err := e.standups.Start(ada, chID, 60); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.standups.Send(ada, chID, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty line = %v, want invalid input", err)
	}
	if err := e.standups.Send(grace, chID, "psst"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-member line = %v, want forbidden", err)
	}
	if err := e.standups.Send(ada, chID, strings.Repeat("é", domain.MaxMessageLen)); err != nil {
		t.Errorf("1000-rune multibyte line rejected: %v", err)
	}
}

func TestStandupFlush(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)
	if err := e.channels.Join(grace, chID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	finish, err := e.standups.Start(grace, chID, 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.standups.Send(ada, chID, "shipped the parser"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := e.standups.Send(grace, chID, "wrote the docs"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Buffered lines are not regular messages yet.
	page, err := e.messages.ListChannelMessages(ada, chID, 0)
	if err != nil {
		t.Fatalf("ListChannelMessages: %v", err)
	}
	if len(page.Messages) != 0 {
		t.Fatalf("buffer leaked into messages: %+v", page.Messages)
	}

	waitFor(t, 3*time.Second, func() bool {
		page, err := e.messages.ListChannelMessages(ada, chID, 0)
		return err == nil && len(page.Messages) == 1
	})

	page, _ = e.messages.ListChannelMessages(ada, chID, 0)
	msg := page.Messages[0]
	want := "adalovelace: shipped the parser\ngracehopper: wrote the docs"
	if msg.Body != want {
		t.Errorf("summary body = %q, want %q", msg.Body, want)
	}
	// The summary is attributed to the starter and stamped at the finish.
	if msg.AuthorID != grace {
		t.Errorf("summary author = %d, want starter %d", msg.AuthorID, grace)
	}
	if msg.TimeSent != finish {
		t.Errorf("summary TimeSent = %d, want %d", msg.TimeSent, finish)
	}

	active, _, err := e.standups.Active(ada, chID)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active {
		t.Error("standup still active after flush")
	}
}

func TestStandupEmptyBufferPostsNothing(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	chID := e.mkChannel(t, ada, "general", true)

	if _, err := e.standups.Start(ada, chID, 1); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, 3*time.Second, func() bool {
		active, _, err := e.standups.Active(ada, chID)
		return err == nil && !active
	})

	page, err := e.messages.ListChannelMessages(ada, chID, 0)
	if err != nil {
		t.Fatalf("ListChannelMessages: %v", err)
	}
	if len(page.Messages) != 0 {
		t.Errorf("empty standup posted a message: %+v", page.Messages)
	}
}
