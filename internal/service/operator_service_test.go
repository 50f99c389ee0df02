package service

import (
	"context"
	"testing"

	apperrors "github.com/finalapps/orbit/pkg/util"
)

func newOperatorFixture() (*memStore, *OperatorService) {
	store := newMemStore()
	return store, NewOperatorService(&fakeOperatorRepo{store: store})
}

func TestOperatorCreateNormalizesAndDefaultsActive(t *testing.T) {
	_, svc := newOperatorFixture()

	operator, err := svc.Create(context.Background(), OperatorInput{
		Name:  "  Dana Reyes  ",
		Email: "Dana.Reyes@Example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if operator.Name != "Dana Reyes" {
		t.Fatalf("name %q, want trimmed", operator.Name)
	}
	if operator.Email != "dana.reyes@example.com" {
		t.Fatalf("email %q, want lowercased", operator.Email)
	}
	if !operator.Active {
		t.Fatal("operators default to active")
	}
}

func TestOperatorCreateRejectsDuplicateEmail(t *testing.T) {
	store, svc := newOperatorFixture()

	if _, err := svc.Create(context.Background(), OperatorInput{
		Name:  "Dana Reyes",
		Email: "dana@example.com",
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(context.Background(), OperatorInput{
		Name:  "Another Dana",
		Email: "DANA@example.com",
	})
	if !apperrors.IsCode(err, "DUPLICATE") {
		t.Fatalf("expected DUPLICATE, got %v", err)
	}
	if len(store.operators) != 1 {
		t.Fatalf("operator count %d, want 1", len(store.operators))
	}
}
