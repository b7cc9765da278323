package access

import "testing"

func TestGuardAllow(t *testing.T) {
	g := New([]int64{42, 99})

	tests := []struct {
		id   int64
		want bool
	}{
		{42, true},
		{99, true},
		{7, false},
		{0, false},
		{-42, false},
	}

	for _, tt := range tests {
		if got := g.Allow(tt.id); got != tt.want {
			t.Errorf("Allow(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestGuardUsersOrderAndCopy(t *testing.T) {
	g := New([]int64{3, 1, 2, 1})

	users := g.Users()
	want := []int64{3, 1, 2}
	if len(users) != len(want) {
		t.Fatalf("Users() = %v, want %v", users, want)
	}
	for i := range want {
		if users[i] != want[i] {
			t.Fatalf("Users() = %v, want %v", users, want)
		}
	}

	// Mutating the returned slice must not affect the guard.
	users[0] = 1000
	if g.Users()[0] != 3 {
		t.Error("Users() must return a copy")
	}
}
