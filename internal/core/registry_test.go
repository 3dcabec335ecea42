package core

import (
	"testing"
	"time"
)

func TestRegistryNormalizesCodes(t *testing.T) {
	reg := NewRegistry()

	first, created := reg.GetOrCreate("  abcd ")
	if !created || first.Code != "ABCD" || first.Phase() != PhaseWaiting {
		t.Fatalf("unexpected new room: created=%v code=%q phase=%s", created, first.Code, first.Phase())
	}
	again, created := reg.GetOrCreate("ABCD")
	if created || again != first {
		t.Fatalf("expected the same room for an equivalent code")
	}
	if got, ok := reg.Get("AbCd"); !ok || got != first {
		t.Fatalf("lookup by mixed case failed")
	}

	reg.Remove("abcd")
	if reg.Len() != 0 {
		t.Fatalf("room not removed")
	}
	if fresh, created := reg.GetOrCreate("ABCD"); !created || fresh == first {
		t.Fatalf("expected a fresh room after removal")
	}
}

func TestRegistryRoomsOrderedByCode(t *testing.T) {
	reg := NewRegistry()
	for _, code := range []string{"ZZZZ", "MMMM", "AAAA"} {
		reg.GetOrCreate(code)
	}
	rooms := reg.Rooms()
	if len(rooms) != 3 || rooms[0].Code != "AAAA" || rooms[2].Code != "ZZZZ" {
		t.Fatalf("unexpected order: %v, %v, %v", rooms[0].Code, rooms[1].Code, rooms[2].Code)
	}
}

func TestReconcileRebindsStaleHolder(t *testing.T) {
	room := NewRoom("ABCD", time.Now())
	live := map[string]bool{"c1": true}
	isLive := func(id string) bool { return live[id] }

	p, isNew := room.reconcile("c1", "Alice", isLive)
	if !isNew || p.ConnectionID != "c1" {
		t.Fatalf("expected new player bound to c1, got %+v", p)
	}

	live["c1"] = false
	live["c2"] = true
	again, isNew := room.reconcile("c2", "Alice", isLive)
	if isNew || again.ID != p.ID || again.ConnectionID != "c2" || room.Len() != 1 {
		t.Fatalf("expected rebind of the same logical player, got %+v", again)
	}
}

func TestResolveTargetPrefersExactMatch(t *testing.T) {
	room := NewRoom("ABCD", time.Now())
	lower := room.addPlayer("c1", "sam")
	upper := room.addPlayer("c2", "SAM")

	if got := room.resolveTarget(" SAM "); got != upper {
		t.Fatalf("exact match should win, got %+v", got)
	}
	if got := room.resolveTarget("Sam"); got != lower {
		t.Fatalf("case-insensitive fallback should pick the first player, got %+v", got)
	}
	if got := room.resolveTarget("  "); got != nil {
		t.Fatalf("blank target resolved to %+v", got)
	}
}

func TestRefreshMembershipHostFallback(t *testing.T) {
	room := NewRoom("ABCD", time.Now())
	first := room.addPlayer("c1", "Alice")
	room.addPlayer("c2", "Bob")
	room.phase = PhaseWriting

	removed := room.refreshMembership(func(string) bool { return false })
	if removed != nil || room.Len() != 2 {
		t.Fatalf("writing phase must keep players, removed %v", removed)
	}
	if room.HostID() != first.ID {
		t.Fatalf("with nobody live the first player hosts, got %q", room.HostID())
	}
}
