package room

import (
	"sync"
	"testing"

	"drawboard/internal/canvas"
	"drawboard/internal/session"
)

func dummyDraw() canvas.DrawData {
	return canvas.DrawData{X: 1, Y: 1, Color: "#ffffff", Width: 2, Tool: "brush"}
}

type fakeConn struct {
	mu    sync.Mutex
	sent  [][]byte
	alive bool
}

func (f *fakeConn) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeConn) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func (f *fakeConn) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestSession(t *testing.T, sessions *session.Registry, roomID string) (*session.Session, *fakeConn) {
	t.Helper()
	fc := &fakeConn{alive: true}
	return sessions.Create(roomID, "", fc), fc
}

func TestNewRegistry_DefaultRoomExists(t *testing.T) {
	r := NewRegistry("main", 100)
	if r.Get("main") == nil {
		t.Fatal("default room should exist from the start")
	}
	if r.DefaultID() != "main" {
		t.Errorf("DefaultID() = %q, want main", r.DefaultID())
	}
}

func TestCreate_Idempotent(t *testing.T) {
	r := NewRegistry("main", 100)
	a := r.Create("r1")
	b := r.Create("r1")
	if a != b {
		t.Error("Create() should return the existing room for a known id")
	}
}

func TestGetOrCreate(t *testing.T) {
	r := NewRegistry("main", 100)
	a := r.GetOrCreate("r1")
	if a == nil {
		t.Fatal("GetOrCreate() returned nil")
	}
	if r.GetOrCreate("r1") != a {
		t.Error("GetOrCreate() should return the existing room on the second call")
	}
}

func TestGet_UnknownRoom(t *testing.T) {
	r := NewRegistry("main", 100)
	if r.Get("nope") != nil {
		t.Error("Get() for unknown room should return nil")
	}
	if r.Stats("nope") != nil {
		t.Error("Stats() for unknown room should return nil")
	}
}

func TestRemoveUser_DeletesEmptyNonDefaultRoom(t *testing.T) {
	r := NewRegistry("main", 100)
	sessions := session.NewRegistry(30)
	s, _ := newTestSession(t, sessions, "r1")

	r.AddUser("r1", s)
	if r.Get("r1") == nil {
		t.Fatal("AddUser() should create the room")
	}

	r.RemoveUser("r1", s.ID)
	if r.Get("r1") != nil {
		t.Error("emptied non-default room should be deleted")
	}
}

func TestRemoveUser_DefaultRoomSurvivesEmpty(t *testing.T) {
	r := NewRegistry("main", 100)
	sessions := session.NewRegistry(30)
	s, _ := newTestSession(t, sessions, "main")

	r.AddUser("main", s)
	r.RemoveUser("main", s.ID)

	rm := r.Get("main")
	if rm == nil {
		t.Fatal("default room must never be deleted")
	}
	if st := r.Stats("main"); st == nil || st.UserCount != 0 {
		t.Errorf("Stats() = %+v, want userCount 0", st)
	}
}

func TestRemoveUser_UnknownRoomIsNoop(t *testing.T) {
	r := NewRegistry("main", 100)
	r.RemoveUser("nope", "sid") // must not panic
}

func TestBroadcast_ExcludesSender(t *testing.T) {
	r := NewRegistry("main", 100)
	sessions := session.NewRegistry(30)

	a, ac := newTestSession(t, sessions, "r1")
	b, bc := newTestSession(t, sessions, "r1")
	c, cc := newTestSession(t, sessions, "r1")
	for _, s := range []*session.Session{a, b, c} {
		r.AddUser("r1", s)
	}

	r.Broadcast("r1", map[string]string{"type": "cursor"}, a.ID)

	if ac.received() != 0 {
		t.Errorf("excluded sender received %d messages, want 0", ac.received())
	}
	if bc.received() != 1 || cc.received() != 1 {
		t.Errorf("receivers got %d/%d messages, want 1/1", bc.received(), cc.received())
	}
}

func TestBroadcast_IncludesSenderWhenNotExcluded(t *testing.T) {
	r := NewRegistry("main", 100)
	sessions := session.NewRegistry(30)

	a, ac := newTestSession(t, sessions, "r1")
	b, bc := newTestSession(t, sessions, "r1")
	r.AddUser("r1", a)
	r.AddUser("r1", b)

	r.Broadcast("r1", map[string]string{"type": "draw"}, "")

	if ac.received() != 1 || bc.received() != 1 {
		t.Errorf("got %d/%d messages, want 1/1", ac.received(), bc.received())
	}
}

func TestBroadcast_SkipsDeadConnections(t *testing.T) {
	r := NewRegistry("main", 100)
	sessions := session.NewRegistry(30)

	a, ac := newTestSession(t, sessions, "r1")
	dead := &fakeConn{alive: false}
	b := sessions.Create("r1", "", dead)
	r.AddUser("r1", a)
	r.AddUser("r1", b)

	r.Broadcast("r1", map[string]string{"type": "clear"}, "")

	if ac.received() != 1 {
		t.Errorf("live conn received %d messages, want 1", ac.received())
	}
	if dead.received() != 0 {
		t.Errorf("dead conn received %d messages, want 0", dead.received())
	}
}

func TestBroadcast_UnknownRoomIsNoop(t *testing.T) {
	r := NewRegistry("main", 100)
	r.Broadcast("nope", map[string]string{"type": "draw"}, "") // must not panic
}

func TestRoster(t *testing.T) {
	r := NewRegistry("main", 100)
	sessions := session.NewRegistry(30)

	a, _ := newTestSession(t, sessions, "r1")
	b, _ := newTestSession(t, sessions, "r1")
	r.AddUser("r1", a)
	r.AddUser("r1", b)

	roster := r.Roster("r1")
	if len(roster) != 2 {
		t.Fatalf("Roster() returned %d entries, want 2", len(roster))
	}
	for _, u := range roster {
		if u.ID == "" || u.Username == "" || u.Color == "" {
			t.Errorf("roster entry missing fields: %+v", u)
		}
	}
	if r.Roster("nope") != nil {
		t.Error("Roster() for unknown room should return nil")
	}
}

func TestStats_CountsOperations(t *testing.T) {
	r := NewRegistry("main", 100)
	rm := r.Create("r1")
	rm.Log.Append("u1", dummyDraw())
	rm.Log.Append("u1", dummyDraw())

	st := r.Stats("r1")
	if st == nil {
		t.Fatal("Stats() returned nil for existing room")
	}
	if st.OperationCount != 2 {
		t.Errorf("OperationCount = %d, want 2", st.OperationCount)
	}
	if st.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestList_SortedByID(t *testing.T) {
	r := NewRegistry("main", 100)
	r.Create("zed")
	r.Create("abc")

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("List() returned %d rooms, want 3", len(list))
	}
	if list[0].ID != "abc" || list[1].ID != "main" || list[2].ID != "zed" {
		t.Errorf("List() order = %s,%s,%s, want abc,main,zed", list[0].ID, list[1].ID, list[2].ID)
	}
}
