package calendar

import (
	"context"
	"path/filepath"
	"testing"

	"planmirror/internal/projection"
)

func openTestLocal(t *testing.T) *LocalStore {
	t.Helper()
	l, err := OpenLocal(filepath.Join(t.TempDir(), "calendar.db"))
	if err != nil {
		t.Fatalf("OpenLocal() failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func testAttrs() Attrs {
	return Attrs{
		AccountName: "Local Calendar",
		AccountType: AccountTypeLocal,
		Name:        "PlanMirror",
		DisplayName: "Plan calendar",
		Color:       "#558B2F",
		AccessLevel: AccessOwner,
		Owner:       "private",
		SyncEvents:  true,
	}
}

func TestCreateCalendar_LookupByIDAndPath(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	id, err := l.CreateCalendar(ctx, testAttrs())
	if err != nil {
		t.Fatalf("CreateCalendar() failed: %v", err)
	}
	if id == 0 {
		t.Fatal("calendar handle is zero")
	}

	c, err := l.CalendarByID(ctx, id)
	if err != nil {
		t.Fatalf("CalendarByID() failed: %v", err)
	}
	if c == nil {
		t.Fatal("calendar not found by handle")
	}
	wantPath := "Local Calendar/" + AccountTypeLocal + "/PlanMirror"
	if c.Path() != wantPath {
		t.Errorf("Path() = %q, want %q", c.Path(), wantPath)
	}

	byPath, err := l.CalendarByPath(ctx, wantPath)
	if err != nil {
		t.Fatalf("CalendarByPath() failed: %v", err)
	}
	if byPath == nil || byPath.ID != id {
		t.Errorf("CalendarByPath() = %+v, want handle %d", byPath, id)
	}
}

func TestCalendarByID_Absent(t *testing.T) {
	l := openTestLocal(t)

	c, err := l.CalendarByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("absence must not be an error, got %v", err)
	}
	if c != nil {
		t.Errorf("got %+v for an absent handle", c)
	}
}

func TestRecreation_YieldsFreshHandle(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	first, err := l.CreateCalendar(ctx, testAttrs())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.DeleteCalendar(ctx, first); err != nil {
		t.Fatal(err)
	}
	second, err := l.CreateCalendar(ctx, testAttrs())
	if err != nil {
		t.Fatal(err)
	}
	if second == first {
		t.Fatalf("recreated calendar reused handle %d; handles must be volatile", first)
	}
}

func TestDeleteCalendar_CascadesEvents(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	id, _ := l.CreateCalendar(ctx, testAttrs())
	evt, err := l.InsertEvent(ctx, id, projection.EventFields{Start: 100, Title: "x"})
	if err != nil {
		t.Fatalf("InsertEvent() failed: %v", err)
	}
	if _, err := l.DeleteCalendar(ctx, id); err != nil {
		t.Fatal(err)
	}

	f, err := l.EventByID(ctx, id, evt)
	if err != nil {
		t.Fatalf("EventByID() failed: %v", err)
	}
	if f != nil {
		t.Error("event survived calendar deletion")
	}
}

func TestEventByID_FiltersByCalendar(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	a, _ := l.CreateCalendar(ctx, testAttrs())
	attrsB := testAttrs()
	attrsB.Name = "Other"
	b, _ := l.CreateCalendar(ctx, attrsB)

	evt, err := l.InsertEvent(ctx, a, projection.EventFields{Start: 100})
	if err != nil {
		t.Fatal(err)
	}

	f, err := l.EventByID(ctx, b, evt)
	if err != nil {
		t.Fatal(err)
	}
	if f != nil {
		t.Error("event found under the wrong calendar")
	}
}

func TestInsertEvent_RejectsEndPlusDuration(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	id, _ := l.CreateCalendar(ctx, testAttrs())
	end := int64(200)
	dur := "PT1H"
	_, err := l.InsertEvent(ctx, id, projection.EventFields{Start: 100, End: &end, Duration: &dur})
	if err == nil {
		t.Error("insert with both end and duration succeeded, want rejection")
	}
}

func TestFindEventByUUID(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	const id = "9b2fe1d0-8a43-4b21-9c3d-d51f00a3e7c2"
	cal, _ := l.CreateCalendar(ctx, testAttrs())
	evt, err := l.InsertEvent(ctx, cal, projection.EventFields{
		Start:       100,
		Description: projection.AppendUUID("rent", id),
	})
	if err != nil {
		t.Fatal(err)
	}

	got, f, err := l.FindEventByUUID(ctx, cal, id)
	if err != nil {
		t.Fatalf("FindEventByUUID() failed: %v", err)
	}
	if got != evt || f == nil {
		t.Fatalf("FindEventByUUID() = %d, want %d", got, evt)
	}

	// Token embedded in a longer hex run must not match.
	other, _ := l.CreateCalendar(ctx, Attrs{AccountName: "a", AccountType: "b", Name: "c"})
	if _, err := l.InsertEvent(ctx, other, projection.EventFields{
		Start:       100,
		Description: "dead" + id,
	}); err != nil {
		t.Fatal(err)
	}
	got, _, err = l.FindEventByUUID(ctx, other, id)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Error("undelimited uuid matched")
	}

	// Absence in the right calendar.
	got, _, err = l.FindEventByUUID(ctx, cal, "00000000-0000-4000-8000-000000000000")
	if err != nil || got != 0 {
		t.Errorf("absent uuid: got %d, %v", got, err)
	}
}

func TestDeleteEvent(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	cal, _ := l.CreateCalendar(ctx, testAttrs())
	evt, _ := l.InsertEvent(ctx, cal, projection.EventFields{Start: 100})

	ok, err := l.DeleteEvent(ctx, evt)
	if err != nil || !ok {
		t.Fatalf("DeleteEvent() = %v, %v", ok, err)
	}
	ok, err = l.DeleteEvent(ctx, evt)
	if err != nil {
		t.Fatalf("second delete errored: %v", err)
	}
	if ok {
		t.Error("second delete reported true")
	}
}

func TestSetSyncEvents(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	attrs := testAttrs()
	attrs.SyncEvents = false
	id, _ := l.CreateCalendar(ctx, attrs)

	if err := l.SetSyncEvents(ctx, id, true); err != nil {
		t.Fatalf("SetSyncEvents() failed: %v", err)
	}
	c, _ := l.CalendarByID(ctx, id)
	if !c.SyncEvents {
		t.Error("sync_events still off after repair")
	}

	if err := l.SetSyncEvents(ctx, 999, true); err == nil {
		t.Error("SetSyncEvents on absent calendar succeeded")
	}
}
