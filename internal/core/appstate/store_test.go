package appstate

import "testing"

func TestSettersNotifyOnChange(t *testing.T) {
	s := NewStore()

	var got Hints
	calls := 0
	s.Subscribe(func(h Hints) {
		got = h
		calls++
	})

	s.SetActiveTab("headers")
	s.SetPanelWidth(55)

	if calls != 2 {
		t.Fatalf("expected 2 notifications, got %d", calls)
	}
	if got.ActiveTab != "headers" || got.PanelWidth != 55 {
		t.Fatalf("hints = %+v", got)
	}
}

func TestNoopWritesAreSilent(t *testing.T) {
	s := NewStore()
	s.SetActiveTab("body")

	calls := 0
	s.Subscribe(func(Hints) { calls++ })

	s.SetActiveTab("body")
	s.SetPanelWidth(0)
	s.Set(Hints{ActiveTab: "body"})

	if calls != 0 {
		t.Fatalf("expected no notifications, got %d", calls)
	}
}

func TestSetReplacesBothFields(t *testing.T) {
	s := NewStore()
	s.Set(Hints{ActiveTab: "params", PanelWidth: 40})

	if got := s.Get(); got != (Hints{ActiveTab: "params", PanelWidth: 40}) {
		t.Fatalf("Get = %+v", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	s := NewStore()
	calls := 0
	unsub := s.Subscribe(func(Hints) { calls++ })

	s.SetPanelWidth(10)
	unsub()
	s.SetPanelWidth(20)

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
