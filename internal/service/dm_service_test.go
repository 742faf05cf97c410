package service

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
)

func TestDMCreate(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	mary := e.register(t, "mary@example.com", "Mary", "Jackson")

	dmID := e.mkDM(t, ada, grace, mary)

	details, err := e.dms.Details(ada, dmID)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	// Sorted handles, comma joined.
	if details.Name != "adalovelace, gracehopper, maryjackson" {
		t.Errorf("name = %q", details.Name)
	}
	if len(details.Members) != 3 {
		t.Errorf("members = %+v, want 3", details.Members)
	}
}

func TestDMCreateValidation(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")

	if _, err := e.dms.Create(ada, []int{grace, grace}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("duplicate invitees = %v, want invalid input", err)
	}
	if _, err := e.dms.Create(ada, []int{ada}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("creator in invite list = %v, want invalid input", err)
	}
	if _, err := e.dms.Create(ada, []int{999}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unknown invitee = %v, want invalid input", err)
	}

	// A DM with only the creator is fine.
	if _, err := e.dms.Create(ada, nil); err != nil {
		t.Errorf("solo dm = %v", err)
	}
}

func TestDMNameIsFrozen(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	dmID := e.mkDM(t, ada, grace)

	if err := e.users.SetHandle(grace, "rearadmiral"); err != nil {
		t.Fatalf("SetHandle: %v", err)
	}

	details, err := e.dms.Details(ada, dmID)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if details.Name != "adalovelace, gracehopper" {
		t.Errorf("name changed after handle update: %q", details.Name)
	}
}

func TestDMList(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	mary := e.register(t, "mary@example.com", "Mary", "Jackson")

	a := e.mkDM(t, ada, grace)
	b := e.mkDM(t, grace, mary)

	got, err := e.dms.List(grace)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []DMSummary{
		{ID: a, Name: "adalovelace, gracehopper"},
		{ID: b, Name: "gracehopper, maryjackson"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}

	got, _ = e.dms.List(ada)
	if len(got) != 1 || got[0].ID != a {
		t.Errorf("ada's list = %+v", got)
	}
}

func TestDMLeaveKeepsDM(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	dmID := e.mkDM(t, ada, grace)

	// Even the owner leaving does not delete the DM.
	if err := e.dms.Leave(ada, dmID); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	details, err := e.dms.Details(grace, dmID)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if details.Name != "adalovelace, gracehopper" {
		t.Errorf("name = %q", details.Name)
	}
	if len(details.Members) != 1 || details.Members[0].ID != grace {
		t.Errorf("members = %+v", details.Members)
	}

	// An empty DM still exists.
	if err := e.dms.Leave(grace, dmID); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if _, err := e.dms.Details(grace, dmID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("details after leaving = %v, want forbidden (dm still exists)", err)
	}
}

func TestDMRemove(t *testing.T) {
	e := newEnv(t)
	// grace registers first and is therefore the global owner.
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	dmID := e.mkDM(t, ada, grace)
	msgID := e.sendDM(t, grace, dmID, "hello")

	// Only the creator removes; global ownership does not reach into DMs.
	if err := e.dms.Remove(grace, dmID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("global owner removed someone else's dm = %v, want forbidden", err)
	}

	if err := e.dms.Remove(ada, dmID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := e.dms.Details(ada, dmID); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("details of removed dm = %v, want invalid input", err)
	}
	// The DM's messages die with it.
	if err := e.messages.React(grace, msgID, domain.ReactThumbsUp); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("react on dead message = %v, want invalid input", err)
	}
}

func TestDMRemoveRequiresOwnerStillMember(t *testing.T) {
	e := newEnv(t)
	ada := e.register(t, "ada@example.com", "Ada", "Lovelace")
	grace := e.register(t, "grace@example.com", "Grace", "Hopper")
	dmID := e.mkDM(t, ada, grace)

	if err := e.dms.Leave(ada, dmID); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if err := e.dms.Remove(ada, dmID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("departed owner removed dm = %v, want forbidden", err)
	}
}
