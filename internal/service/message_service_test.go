package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
)

func TestSendValidation(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)

	if _, err := e.messages.SendToChannel(ada, chID, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty body = %v, want invalid input", err)
	}
	long := strings.Repeat("x", domain.MaxMessageLen+1)
	if _, err := e.messages.SendToChannel(ada, chID, long); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("1001-char body = %v, want invalid input", err)
	}
	if _, err := e.messages.SendToChannel(grace, chID, "hi"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-member send = %v, want forbidden", err)
	}
	if _, err := e.messages.SendToChannel(ada, 999, "hi"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("missing channel = %v, want invalid input", err)
	}

	// Exactly 1000 characters is fine.
	if _, err := e.messages.SendToChannel(ada, chID, strings.Repeat("x", domain.MaxMessageLen)); err != nil {
		t.Errorf("1000-char body rejected: %v", err)
	}
}

func TestMessageLengthCountsCharacters(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	chID := e.mkChannel(t, ada, "general", true)

	// 1000 two-byte runes: over the limit in bytes, at the limit in
	// characters.
	body := strings.Repeat("é", domain.MaxMessageLen)
	msgID, err := e.messages.SendToChannel(ada, chID, body)
	if err != nil {
		t.Fatalf("1000-rune multibyte body rejected: %v", err)
	}
	if err := e.messages.Edit(ada, msgID, strings.Repeat("ü", domain.MaxMessageLen)); err != nil {
		t.Errorf("1000-rune multibyte edit rejected: %v", err)
	}
	if err := e.messages.Edit(ada, msgID, strings.Repeat("ü", domain.MaxMessageLen+1)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("1001-rune edit = %v, want invalid input", err)
	}
	if _, err := e.messages.Search(ada, strings.Repeat("é", domain.MaxMessageLen)); err != nil {
		t.Errorf("1000-rune query rejected: %v", err)
	}
	if _, err := e.messages.Share(ada, msgID, strings.Repeat("é", domain.MaxMessageLen+1), chID, -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("1001-rune addendum = %v, want invalid input", err)
	}
}

func TestMessageIDsAreWorkspaceGlobal(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)
	dmID := e.mkDM(t, ada, grace)

	a := e.sendChannel(t, ada, chID, "one")
	b := e.sendDM(t, ada, dmID, "two")
	c := e.sendChannel(t, ada, chID, "three")

	if !(a < b && b < c) {
		t.Errorf("ids not monotonic across containers: %d %d %d", a, b, c)
	}
}

func TestPagination(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	chID := e.mkChannel(t, ada, "general", true)

	var ids []int
	for i := 0; i < 55; i++ {
		ids = append(ids, e.sendChannel(t, ada, chID, fmt.Sprintf("msg %d", i)))
	}

	page, err := e.messages.ListChannelMessages(ada, chID, 0)
	if err != nil {
		t.Fatalf("ListChannelMessages(0): %v", err)
	}
	if len(page.Messages) != 50 || page.Start != 0 || page.End != 50 {
		t.Fatalf("first window = %d msgs, start %d, end %d", len(page.Messages), page.Start, page.End)
	}
	// Newest first: the window starts at the last id sent.
	if page.Messages[0].ID != ids[54] || page.Messages[49].ID != ids[5] {
		t.Errorf("window ids = %d..%d, want %d..%d",
			page.Messages[0].ID, page.Messages[49].ID, ids[54], ids[5])
	}

	page, err = e.messages.ListChannelMessages(ada, chID, 50)
	if err != nil {
		t.Fatalf("ListChannelMessages(50): %v", err)
	}
	if len(page.Messages) != 5 || page.End != -1 {
		t.Errorf("second window = %d msgs, end %d, want 5 and -1", len(page.Messages), page.End)
	}
	if page.Messages[4].ID != ids[0] {
		t.Errorf("oldest message = %d, want %d", page.Messages[4].ID, ids[0])
	}

	// start == count: empty page, not an error.
	page, err = e.messages.ListChannelMessages(ada, chID, 55)
	if err != nil {
		t.Fatalf("ListChannelMessages(55): %v", err)
	}
	if len(page.Messages) != 0 || page.End != -1 {
		t.Errorf("boundary window = %d msgs, end %d", len(page.Messages), page.End)
	}

	if _, err := e.messages.ListChannelMessages(ada, chID, 56); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("start past count = %v, want invalid input", err)
	}
	if _, err := e.messages.ListChannelMessages(ada, chID, -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("negative start = %v, want invalid input", err)
	}
}

func TestPaginationEmptyChannel(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	chID := e.mkChannel(t, ada, "general", true)

	page, err := e.messages.ListChannelMessages(ada, chID, 0)
	if err != nil {
		t.Fatalf("ListChannelMessages: %v", err)
	}
	if len(page.Messages) != 0 || page.End != -1 {
		t.Errorf("empty channel window = %+v", page)
	}

	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	if _, err := e.messages.ListChannelMessages(grace, chID, 0); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-member list = %v, want forbidden", err)
	}
}

func TestEdit(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)
	if err := e.channels.Join(grace, chID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	msgID := e.sendChannel(t, grace, chID, "original")

	// A plain member cannot edit someone else's message.
	mary := e.register(t, "mary@example.com", "Mary", "Jackson")
	if err := e.channels.Join(mary, chID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := e.messages.Edit(mary, msgID, "hijacked"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-author edit = %v, want forbidden", err)
	}

	// The author edits their own.
	if err := e.messages.Edit(grace, msgID, "updated"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	// A channel owner edits anyone's.
	if err := e.messages.Edit(ada, msgID, "moderated"); err != nil {
		t.Fatalf("owner Edit: %v", err)
	}

	page, err := e.messages.ListChannelMessages(ada, chID, 0)
	if err != nil {
		t.Fatalf("ListChannelMessages: %v", err)
	}
	if page.Messages[0].Body != "moderated" {
		t.Errorf("body = %q", page.Messages[0].Body)
	}

	long := strings.Repeat("x", domain.MaxMessageLen+1)
	if err := e.messages.Edit(grace, msgID, long); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("1001-char edit = %v, want invalid input", err)
	}
	if err := e.messages.Edit(grace, 999, "x"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("edit missing message = %v, want invalid input", err)
	}
}

func TestEditToEmptyRemoves(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	chID := e.mkChannel(t, ada, "general", true)
	msgID := e.sendChannel(t, ada, chID, "going away")

	if err := e.messages.Edit(ada, msgID, ""); err != nil {
		t.Fatalf("Edit to empty: %v", err)
	}

	page, err := e.messages.ListChannelMessages(ada, chID, 0)
	if err != nil {
		t.Fatalf("ListChannelMessages: %v", err)
	}
	if len(page.Messages) != 0 {
		t.Errorf("message survived empty edit: %+v", page.Messages)
	}
	if err := e.messages.Edit(ada, msgID, "back"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("edit after removal = %v, want invalid input", err)
	}
}

func TestRemove(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)
	if err := e.channels.Join(grace, chID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	msgID := e.sendChannel(t, grace, chID, "delete me")

	if err := e.messages.Remove(grace, msgID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := e.messages.Remove(grace, msgID); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("double remove = %v, want invalid input", err)
	}
}

func TestReact(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	outsider := e.register(t, "out@example.com", "Out", "Sider")
	chID := e.mkChannel(t, ada, "general", true)
	if err := e.channels.Join(grace, chID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	msgID := e.sendChannel(t, ada, chID, "react to this")

	if err := e.messages.React(grace, msgID, 2); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unknown react kind = %v, want invalid input", err)
	}
	if err := e.messages.React(outsider, msgID, domain.ReactThumbsUp); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("outsider react = %v, want forbidden", err)
	}

	if err := e.messages.React(grace, msgID, domain.ReactThumbsUp); err != nil {
		t.Fatalf("React: %v", err)
	}
	if err := e.messages.React(grace, msgID, domain.ReactThumbsUp); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("double react = %v, want invalid input", err)
	}

	// The reacted flag is per viewer.
	page, err := e.messages.ListChannelMessages(grace, chID, 0)
	if err != nil {
		t.Fatalf("ListChannelMessages: %v", err)
	}
	want := []domain.ReactView{{ID: domain.ReactThumbsUp, UIDs: []int{grace}, IsThisUserReacted: true}}
	if diff := cmp.Diff(want, page.Messages[0].Reacts); diff != "" {
		t.Errorf("grace's view mismatch (-want +got):\n%s", diff)
	}
	page, _ = e.messages.ListChannelMessages(ada, chID, 0)
	if page.Messages[0].Reacts[0].IsThisUserReacted {
		t.Error("ada sees the react as her own")
	}

	if err := e.messages.Unreact(ada, msgID, domain.ReactThumbsUp); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unreact without prior react = %v, want invalid input", err)
	}
	if err := e.messages.Unreact(grace, msgID, domain.ReactThumbsUp); err != nil {
		t.Fatalf("Unreact: %v", err)
	}
	page, _ = e.messages.ListChannelMessages(grace, chID, 0)
	if len(page.Messages[0].Reacts[0].UIDs) != 0 {
		t.Errorf("react uids after unreact = %+v", page.Messages[0].Reacts)
	}
}

func TestPin(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)
	if err := e.channels.Join(grace, chID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	msgID := e.sendChannel(t, grace, chID, "pin me")

	// Authorship does not grant pinning; Moderate does.
	if err := e.messages.Pin(grace, msgID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("member pinned = %v, want forbidden", err)
	}
	if err := e.messages.Pin(ada, msgID); err != nil {
		t.Fatalf("Pin: %v", err)
	}
	if err := e.messages.Pin(ada, msgID); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("double pin = %v, want invalid input", err)
	}

	page, err := e.messages.ListChannelMessages(grace, chID, 0)
	if err != nil {
		t.Fatalf("ListChannelMessages: %v", err)
	}
	if !page.Messages[0].IsPinned {
		t.Error("message not pinned")
	}

	if err := e.messages.Unpin(ada, msgID); err != nil {
		t.Fatalf("Unpin: %v", err)
	}
	if err := e.messages.Unpin(ada, msgID); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unpin unpinned = %v, want invalid input", err)
	}
}

func TestShare(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)
	dmID := e.mkDM(t, ada, grace)
	ogID := e.sendChannel(t, ada, chID, "the original")

	sharedID, err := e.messages.Share(ada, ogID, " plus a note", -1, dmID)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	if sharedID == ogID {
		t.Error("share reused the original id")
	}

	page, err := e.messages.ListDMMessages(grace, dmID, 0)
	if err != nil {
		t.Fatalf("ListDMMessages: %v", err)
	}
	if page.Messages[0].Body != "the original plus a note" {
		t.Errorf("shared body = %q", page.Messages[0].Body)
	}

	// The original stays put.
	page, _ = e.messages.ListChannelMessages(ada, chID, 0)
	if page.Messages[0].Body != "the original" {
		t.Errorf("original body = %q", page.Messages[0].Body)
	}
}

func TestShareValidation(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)
	other := e.mkChannel(t, grace, "graceonly", true)
	ogID := e.sendChannel(t, ada, chID, "hello")

	// Both targets, or neither, is malformed.
	if _, err := e.messages.Share(ada, ogID, "", chID, 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("both targets = %v, want invalid input", err)
	}
	if _, err := e.messages.Share(ada, ogID, "", -1, -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("no target = %v, want invalid input", err)
	}
	if _, err := e.messages.Share(ada, 999, "", chID, -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("missing original = %v, want invalid input", err)
	}
	// Must be a member of the target.
	if _, err := e.messages.Share(ada, ogID, "", other, -1); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("share into foreign channel = %v, want forbidden", err)
	}
	// Must be able to see the original.
	if _, err := e.messages.Share(grace, ogID, "", other, -1); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("share of unseen message = %v, want forbidden", err)
	}
	long := strings.Repeat("x", domain.MaxMessageLen+1)
	if _, err := e.messages.Share(ada, ogID, long, chID, -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("long addendum = %v, want invalid input", err)
	}
}

func TestSearch(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)
	hidden := e.mkChannel(t, grace, "hidden", true)
	dmID := e.mkDM(t, ada, grace)

	e.sendChannel(t, ada, chID, "Deploy the COBOL compiler")
	e.sendDM(t, grace, dmID, "cobol forever")
	e.sendChannel(t, grace, hidden, "secret cobol plans")

	got, err := e.messages.Search(ada, "cobol")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Only ada's containers: the channel message and the DM message.
	if len(got) != 2 {
		t.Errorf("results = %+v, want 2", got)
	}
	for _, m := range got {
		if !strings.Contains(strings.ToLower(m.Body), "cobol") {
			t.Errorf("non-matching result %q", m.Body)
		}
	}

	if _, err := e.messages.Search(ada, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty query = %v, want invalid input", err)
	}
	long := strings.Repeat("x", domain.MaxMessageLen+1)
	if _, err := e.messages.Search(ada, long); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("long query = %v, want invalid input", err)
	}
}

func TestSendLater(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)

	if _, err := e.messages.SendLaterToChannel(ada, chID, "too late", time.Now().Unix()-5); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("past send time = %v, want invalid input", err)
	}
	if _, err := e.messages.SendLaterToChannel(grace, chID, "hi", time.Now().Unix()+60); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-member deferred send = %v, want forbidden", err)
	}

	sendAt := time.Now().Unix() + 1
	deferredID, err := e.messages.SendLaterToChannel(ada, chID, "from the future", sendAt)
	if err != nil {
		t.Fatalf("SendLaterToChannel: %v", err)
	}

	// Messages sent in the interim take lower ids but the deferred one is
	// not visible until its time arrives.
	interimID := e.sendChannel(t, ada, chID, "meanwhile")
	if deferredID >= interimID {
		t.Errorf("deferred id %d allocated after interim id %d", deferredID, interimID)
	}
	page, err := e.messages.ListChannelMessages(ada, chID, 0)
	if err != nil {
		t.Fatalf("ListChannelMessages: %v", err)
	}
	if len(page.Messages) != 1 {
		t.Fatalf("deferred message visible early: %+v", page.Messages)
	}

	waitFor(t, 3*time.Second, func() bool {
		page, err := e.messages.ListChannelMessages(ada, chID, 0)
		return err == nil && len(page.Messages) == 2
	})

	page, err = e.messages.ListChannelMessages(ada, chID, 0)
	if err != nil {
		t.Fatalf("ListChannelMessages: %v", err)
	}
	// The deferred message lands newest by timestamp.
	if page.Messages[0].ID != deferredID {
		t.Errorf("newest message = %d, want deferred %d", page.Messages[0].ID, deferredID)
	}
	if page.Messages[0].TimeSent != sendAt {
		t.Errorf("deferred TimeSent = %d, want %d", page.Messages[0].TimeSent, sendAt)
	}
}

func TestSendLaterDroppedWithContainer(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	dmID := e.mkDM(t, ada, grace)

	deferredID, err := e.messages.SendLaterToDM(ada, dmID, "into the void", time.Now().Unix()+1)
	if err != nil {
		t.Fatalf("SendLaterToDM: %v", err)
	}
	if err := e.dms.Remove(ada, dmID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	time.Sleep(2200 * time.Millisecond)

	// The deferred message never materialised anywhere.
	if err := e.messages.React(ada, deferredID, domain.ReactThumbsUp); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("deferred message exists after container removal: %v", err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// recordingNotifier captures pushed events for assertions. Safe for
// concurrent use.
type recordingNotifier struct {
	mu    sync.Mutex
	news  []domain.MessageView
	edits []domain.MessageView
}

func (r *recordingNotifier) NotifyNewMessage(channelID, dmID int, msg domain.MessageView) {
	r.mu.Lock()
	r.news = append(r.news, msg)
	r.mu.Unlock()
}

func (r *recordingNotifier) NotifyEditedMessage(channelID, dmID int, msg domain.MessageView) {
	r.mu.Lock()
	r.edits = append(r.edits, msg)
	r.mu.Unlock()
}

func (r *recordingNotifier) NotifyDeletedMessage(channelID, dmID, messageID int) {}

func (r *recordingNotifier) NotifyNotification(uID int, n domain.Notification) {}

func TestNotifierCarriesCommittedView(t *testing.T) {
	e := newEnv(t)
	n := &recordingNotifier{}
	e.messages.SetNotifier(n)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	chID := e.mkChannel(t, ada, "general", true)

	msgID := e.sendChannel(t, ada, chID, "draft")
	if err := e.messages.Edit(ada, msgID, "final"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.news) != 1 || n.news[0].Body != "draft" {
		t.Errorf("new-message events = %+v, want one with the sent body", n.news)
	}
	if len(n.edits) != 1 || n.edits[0].Body != "final" {
		t.Errorf("edit events = %+v, want one with the edited body", n.edits)
	}
}

// Edits and reacts on the same message from different goroutines: the
// notifier views are built under the store lock, so this must be clean
// under the race detector.
func TestConcurrentReactAndEdit(t *testing.T) {
	e := newEnv(t)
	e.messages.SetNotifier(&recordingNotifier{})
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	chID := e.mkChannel(t, ada, "general", true)
	if err := e.channels.Join(grace, chID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	msgID := e.sendChannel(t, ada, chID, "subject")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if err := e.messages.React(grace, msgID, domain.ReactThumbsUp); err != nil {
				t.Errorf("React: %v", err)
				return
			}
			if err := e.messages.Unreact(grace, msgID, domain.ReactThumbsUp); err != nil {
				t.Errorf("Unreact: %v", err)
				return
			}
		}
	}()
	for i := 0; i < 50; i++ {
		if err := e.messages.Edit(ada, msgID, fmt.Sprintf("edit %d", i)); err != nil {
			t.Errorf("Edit: %v", err)
			break
		}
	}
	wg.Wait()
}
