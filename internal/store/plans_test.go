package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreatePlan_GeneratesUUID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreatePlan(ctx, Plan{Title: "Rent", Start: 1000, RRule: "FREQ=MONTHLY"})
	if err != nil {
		t.Fatalf("CreatePlan() failed: %v", err)
	}

	p, err := s.GetPlan(ctx, id)
	if err != nil {
		t.Fatalf("GetPlan() failed: %v", err)
	}
	if p == nil {
		t.Fatal("plan not found after create")
	}
	if _, err := uuid.Parse(p.UUID); err != nil {
		t.Errorf("generated uuid %q not parseable: %v", p.UUID, err)
	}
	if p.PlanID != nil {
		t.Errorf("new plan has mapping %d, want none", *p.PlanID)
	}
}

func TestCreatePlan_KeepsProvidedUUID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := uuid.NewString()
	id, err := s.CreatePlan(ctx, Plan{Title: "Rent", Start: 1000, UUID: want})
	if err != nil {
		t.Fatalf("CreatePlan() failed: %v", err)
	}
	p, _ := s.GetPlan(ctx, id)
	if p.UUID != want {
		t.Errorf("uuid = %q, want %q", p.UUID, want)
	}
}

func TestCreatePlan_UUIDNeverReused(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := uuid.NewString()
	if _, err := s.CreatePlan(ctx, Plan{Title: "A", Start: 1, UUID: id}); err != nil {
		t.Fatalf("first CreatePlan() failed: %v", err)
	}
	if _, err := s.CreatePlan(ctx, Plan{Title: "B", Start: 2, UUID: id}); err == nil {
		t.Error("duplicate uuid accepted, want constraint violation")
	}
}

func TestSetPlanMapping(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, _ := s.CreatePlan(ctx, Plan{Title: "Rent", Start: 1000})

	eventID := int64(42)
	if err := s.SetPlanMapping(ctx, id, &eventID); err != nil {
		t.Fatalf("SetPlanMapping() failed: %v", err)
	}
	p, _ := s.GetPlan(ctx, id)
	if p.PlanID == nil || *p.PlanID != 42 {
		t.Fatalf("plan mapping = %v, want 42", p.PlanID)
	}

	if err := s.SetPlanMapping(ctx, id, nil); err != nil {
		t.Fatalf("clearing mapping failed: %v", err)
	}
	p, _ = s.GetPlan(ctx, id)
	if p.PlanID != nil {
		t.Errorf("plan mapping = %d after clear, want none", *p.PlanID)
	}
}

func TestSetPlanMapping_UnknownPlan(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetPlanMapping(context.Background(), 999, nil); err == nil {
		t.Error("mapping update on missing plan succeeded, want error")
	}
}

func TestDeletePlan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, _ := s.CreatePlan(ctx, Plan{Title: "Rent", Start: 1000})
	if err := s.DeletePlan(ctx, id); err != nil {
		t.Fatalf("DeletePlan() failed: %v", err)
	}
	p, err := s.GetPlan(ctx, id)
	if err != nil {
		t.Fatalf("GetPlan() failed: %v", err)
	}
	if p != nil {
		t.Error("plan still readable after delete")
	}

	if err := s.DeletePlan(ctx, id); err == nil {
		t.Error("second delete succeeded, want error")
	}
}

func TestListPlansWithMapping(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mapped, _ := s.CreatePlan(ctx, Plan{Title: "Mapped", Start: 1})
	if _, err := s.CreatePlan(ctx, Plan{Title: "Unmapped", Start: 2}); err != nil {
		t.Fatal(err)
	}
	eventID := int64(7)
	if err := s.SetPlanMapping(ctx, mapped, &eventID); err != nil {
		t.Fatal(err)
	}

	plans, err := s.ListPlansWithMapping(ctx)
	if err != nil {
		t.Fatalf("ListPlansWithMapping() failed: %v", err)
	}
	if len(plans) != 1 || plans[0].TemplateID != mapped {
		t.Errorf("got %d plans, want exactly the mapped one", len(plans))
	}

	all, err := s.ListPlans(ctx)
	if err != nil {
		t.Fatalf("ListPlans() failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListPlans() = %d plans, want 2", len(all))
	}
}

func TestListPlans_EmptyRegistry(t *testing.T) {
	s := openTestStore(t)

	plans, err := s.ListPlansWithMapping(context.Background())
	if err != nil {
		t.Fatalf("ListPlansWithMapping() failed: %v", err)
	}
	if plans == nil {
		t.Error("got nil, want empty slice")
	}
	if len(plans) != 0 {
		t.Errorf("got %d plans, want 0", len(plans))
	}
}
