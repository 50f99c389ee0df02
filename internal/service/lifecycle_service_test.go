package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/finalapps/orbit/internal/config"
	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/events"
)

func newLifecycleFixture(ceiling int) (*memStore, *LifecycleService) {
	store := newMemStore()
	inquiryRepo := &fakeInquiryRepo{store: store}
	operatorRepo := &fakeOperatorRepo{store: store}
	activityRepo := &fakeActivityRepo{store: store}
	dispatcher := events.NewInMemoryDispatcher()

	assignment := NewAssignmentService(AssignmentDependencies{
		InquiryRepo:  inquiryRepo,
		OperatorRepo: operatorRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
	})
	lifecycle := NewLifecycleService(LifecycleDependencies{
		InquiryRepo:  inquiryRepo,
		OperatorRepo: operatorRepo,
		ActivityRepo: activityRepo,
		Assignment:   assignment,
		Dispatcher:   dispatcher,
		Pipeline: config.PipelineConfig{
			DefaultBandwidthMinutes: 240,
			EscalationCeiling:       ceiling,
			SweepBatchSize:          100,
		},
		Logger: zap.NewNop(),
	})
	return store, lifecycle
}

func seedAssigned(store *memStore, operatorID string, deadline time.Time) *domain.Inquiry {
	inquiry := seedInquiry(store, domain.InquiryStatusAssigned)
	store.mu.Lock()
	defer store.mu.Unlock()
	assignedAt := deadline.Add(-240 * time.Minute)
	stored := store.inquiries[inquiry.ID]
	stored.AssignedTo = &operatorID
	stored.AssignedAt = &assignedAt
	stored.DeadlineAt = &deadline
	return stored
}

func TestSweepEscalatesAndReassignsOverdue(t *testing.T) {
	store, lifecycle := newLifecycleFixture(3)
	store.addOperator("op-1", true, nil)
	store.addOperator("op-2", true, nil)

	now := time.Now()
	inquiry := seedAssigned(store, "op-1", now.Add(-time.Minute))

	report, err := lifecycle.SweepDeadlines(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Escalated != 1 || report.Reassigned != 1 {
		t.Fatalf("report %+v, want 1 escalated and 1 reassigned", report)
	}

	stored := store.inquiries[inquiry.ID]
	if stored.Status != domain.InquiryStatusAssigned {
		t.Fatalf("expected reassigned inquiry, status %s", stored.Status)
	}
	if stored.EscalationCount != 1 {
		t.Fatalf("escalation count %d, want 1", stored.EscalationCount)
	}
	if !stored.DeadlineAt.After(now) {
		t.Fatal("expected a fresh deadline")
	}
}

func TestSweepDoesNotTouchFutureDeadlines(t *testing.T) {
	store, lifecycle := newLifecycleFixture(3)
	store.addOperator("op-1", true, nil)

	now := time.Now()
	inquiry := seedAssigned(store, "op-1", now.Add(time.Hour))

	report, err := lifecycle.SweepDeadlines(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Escalated != 0 {
		t.Fatalf("escalated %d, want 0", report.Escalated)
	}
	if store.inquiries[inquiry.ID].EscalationCount != 0 {
		t.Fatal("future deadline must not escalate")
	}
}

func TestSweepRetiresAtCeilingAndChargesOperator(t *testing.T) {
	store, lifecycle := newLifecycleFixture(1)
	store.addOperator("op-1", true, nil)

	now := time.Now()
	inquiry := seedAssigned(store, "op-1", now.Add(-time.Minute))

	report, err := lifecycle.SweepDeadlines(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Missed != 1 {
		t.Fatalf("missed %d, want 1", report.Missed)
	}
	if store.inquiries[inquiry.ID].Status != domain.InquiryStatusMissed {
		t.Fatalf("status %s, want missed", store.inquiries[inquiry.ID].Status)
	}
	if store.operators["op-1"].TotalMissed != 1 {
		t.Fatalf("operator missed count %d, want 1", store.operators["op-1"].TotalMissed)
	}
}

func TestSweepKeepsEscalatedWhenPoolEmpty(t *testing.T) {
	store, lifecycle := newLifecycleFixture(3)
	store.addOperator("op-1", true, nil)

	now := time.Now()
	inquiry := seedAssigned(store, "op-1", now.Add(-time.Minute))
	store.operators["op-1"].Active = false

	report, err := lifecycle.SweepDeadlines(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Escalated != 1 || report.Reassigned != 0 {
		t.Fatalf("report %+v, want escalation without reassignment", report)
	}
	if store.inquiries[inquiry.ID].Status != domain.InquiryStatusEscalated {
		t.Fatalf("status %s, want escalated", store.inquiries[inquiry.ID].Status)
	}
}

func TestSweepRetriesBacklogWhenOperatorsReturn(t *testing.T) {
	store, lifecycle := newLifecycleFixture(3)
	seedInquiry(store, domain.InquiryStatusUnassigned)
	store.addOperator("op-1", true, nil)

	report, err := lifecycle.SweepDeadlines(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Retried != 1 {
		t.Fatalf("retried %d, want 1", report.Retried)
	}
}

func TestSweepIsIdempotentWithinOneDeadline(t *testing.T) {
	store, lifecycle := newLifecycleFixture(3)
	inquiry := seedAssigned(store, "op-1", time.Now().Add(-time.Minute))

	now := time.Now()
	// no operators, so the inquiry escalates once and then parks
	if _, err := lifecycle.SweepDeadlines(context.Background(), now); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if _, err := lifecycle.SweepDeadlines(context.Background(), now); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if store.inquiries[inquiry.ID].EscalationCount != 1 {
		t.Fatalf("escalation count %d, want 1 after repeated sweeps", store.inquiries[inquiry.ID].EscalationCount)
	}
}
