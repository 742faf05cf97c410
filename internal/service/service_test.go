package service

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/auth"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/scheduler"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/store"
)

// env bundles a fresh in-memory workspace with every service wired to it.
type env struct {
	store    *store.Store
	auth     *AuthService
	users    *UserService
	channels *ChannelService
	dms      *DMService
	messages *MessageService
	notifs   *NotificationService
	standups *StandupService
	sched    *scheduler.Scheduler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zaptest.NewLogger(t)
	st := store.New(logger, nil)
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)
	tokens := auth.NewTokenManager("test-secret")
	return &env{
		store:    st,
		auth:     NewAuthService(st, tokens, logger),
		users:    NewUserService(st, logger),
		channels: NewChannelService(st, logger),
		dms:      NewDMService(st, logger),
		messages: NewMessageService(st, sched, logger),
		notifs:   NewNotificationService(st, logger),
		standups: NewStandupService(st, sched, logger),
		sched:    sched,
	}
}

// register creates a user and returns their id. The first call in a test
// creates the workspace's global owner.
func (e *env) register(t *testing.T, email, nameFirst, nameLast string) int {
	t.Helper()
	resp, err := e.auth.Register(email, "password123", nameFirst, nameLast)
	if err != nil {
		t.Fatalf("Register(%q): %v", email, err)
	}
	return resp.UserID
}

func (e *env) mkChannel(t *testing.T, uID int, name string, public bool) int {
	t.Helper()
	chID, err := e.channels.Create(uID, name, public)
	if err != nil {
		t.Fatalf("Create channel %q: %v", name, err)
	}
	return chID
}

func (e *env) mkDM(t *testing.T, uID int, uIDs ...int) int {
	t.Helper()
	dmID, err := e.dms.Create(uID, uIDs)
	if err != nil {
		t.Fatalf("Create DM: %v", err)
	}
	return dmID
}

func (e *env) sendChannel(t *testing.T, uID, chID int, body string) int {
	t.Helper()
	msgID, err := e.messages.SendToChannel(uID, chID, body)
	if err != nil {
		t.Fatalf("SendToChannel(%q): %v", body, err)
	}
	return msgID
}

func (e *env) sendDM(t *testing.T, uID, dmID int, body string) int {
	t.Helper()
	msgID, err := e.messages.SendToDM(uID, dmID, body)
	if err != nil {
		t.Fatalf("SendToDM(%q): %v", body, err)
	}
	return msgID
}
