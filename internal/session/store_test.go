package session

import (
	"sync"
	"testing"
)

func TestGetCreatesLazilyWithDefault(t *testing.T) {
	st := NewStore("default")

	s := st.Get(42)
	if s.Endpoint != "default" {
		t.Errorf("Endpoint = %q, want %q", s.Endpoint, "default")
	}
	if s.Flow != nil {
		t.Error("new session must have no active flow")
	}
	if st.Len() != 1 {
		t.Errorf("Len() = %d, want 1", st.Len())
	}
}

func TestSetFlowReplacesAndClears(t *testing.T) {
	st := NewStore("default")

	first := &BatchAdd{ID: NewFlowID(), Links: []string{"magnet:?a"}}
	st.SetFlow(1, first)

	second := &EndpointPick{ID: NewFlowID(), Purpose: PickSwitchDefault}
	st.SetFlow(1, second)

	if got := st.Get(1).Flow; got != second {
		t.Errorf("Flow = %v, want the replacement flow", got)
	}

	st.SetFlow(1, nil)
	if st.Get(1).Flow != nil {
		t.Error("nil must clear the flow")
	}
}

func TestSameUserMutationsSerialize(t *testing.T) {
	st := NewStore("default")

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			st.Do(7, func(s *Session) {
				f, _ := s.Flow.(*BatchAdd)
				if f == nil {
					f = &BatchAdd{ID: NewFlowID()}
				}
				f.Links = append(f.Links, "magnet:?x")
				s.Flow = f
			})
		}()
	}
	wg.Wait()

	f, ok := st.Get(7).Flow.(*BatchAdd)
	if !ok {
		t.Fatal("expected a BatchAdd flow")
	}
	if len(f.Links) != n {
		t.Errorf("collected %d links, want %d (lost updates)", len(f.Links), n)
	}
}

func TestUsersAreIndependent(t *testing.T) {
	st := NewStore("default")

	st.SetEndpoint(1, "seedbox")
	st.SetEndpoint(2, "nas")

	if got := st.Get(1).Endpoint; got != "seedbox" {
		t.Errorf("user 1 endpoint = %q, want seedbox", got)
	}
	if got := st.Get(2).Endpoint; got != "nas" {
		t.Errorf("user 2 endpoint = %q, want nas", got)
	}
}
