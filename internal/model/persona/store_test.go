package persona

import "testing"

func TestResolveKnownPersona(t *testing.T) {
	store := NewMemoryStore(Seed())

	got := store.Resolve(Zoya)
	if got.ID != Zoya {
		t.Fatalf("expected zoya, got %s", got.ID)
	}
	if got.Label != "Zoya" || got.Avatar != "/avatar4.jpg" {
		t.Fatalf("unexpected display identity: %+v", got)
	}
}

func TestResolveUnknownFallsBackToDefault(t *testing.T) {
	store := NewMemoryStore(Seed())

	for _, id := range []string{"", "nurse_joy", "DR_GUPTA"} {
		got := store.Resolve(id)
		if got.ID != DrGupta {
			t.Fatalf("Resolve(%q): expected dr_gupta, got %s", id, got.ID)
		}
		if got.SystemPrompt == "" {
			t.Fatalf("Resolve(%q): expected default system prompt", id)
		}
	}
}

func TestResolveEmptyStore(t *testing.T) {
	store := NewMemoryStore(nil)

	if got := store.Resolve("zoya"); got.ID != DefaultID {
		t.Fatalf("expected bare default persona, got %+v", got)
	}
}

func TestSeedHasFixedIdentities(t *testing.T) {
	want := map[string]string{
		DrGupta: "/avatar3.jpg",
		Zoya:    "/avatar4.jpg",
		Robin:   "/avatar5.jpg",
		Rabindr: "/avatar.jpg",
	}

	seeds := Seed()
	if len(seeds) != len(want) {
		t.Fatalf("expected %d personas, got %d", len(want), len(seeds))
	}
	for _, p := range seeds {
		avatar, ok := want[p.ID]
		if !ok {
			t.Fatalf("unexpected persona %s", p.ID)
		}
		if p.Avatar != avatar {
			t.Fatalf("persona %s: expected avatar %s, got %s", p.ID, avatar, p.Avatar)
		}
	}
}

func TestListReturnsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())

	list := store.List()
	list[0].ID = "mutated"

	if _, ok := store.FindByID(DrGupta); !ok {
		t.Fatal("List must not expose the backing slice")
	}
}
