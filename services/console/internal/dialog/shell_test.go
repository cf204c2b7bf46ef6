package dialog

import (
	"context"
	"errors"
	"testing"

	"catalogadmin/pkg/domain"

	"github.com/shopspring/decimal"
)

func TestSubmitRejectsMissingRequiredField(t *testing.T) {
	shell := New[domain.CategoryData]("Add category", "")
	shell.Open(domain.CategoryData{Name: "Shoes"})

	called := false
	err := shell.Submit(context.Background(), func(context.Context, domain.CategoryData) error {
		called = true
		return nil
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatalf("handler must not run for an invalid draft")
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Field != "description" || verr.Fields[0].Rule != "required" {
		t.Fatalf("unexpected fields: %+v", verr.Fields)
	}
	if !shell.IsOpen() {
		t.Fatalf("dialog must stay open")
	}
}

func TestSubmitDoesNotClose(t *testing.T) {
	shell := New[domain.CategoryData]("Add category", "")
	shell.Open(domain.CategoryData{Name: "Shoes", Description: "Footwear"})
	var got domain.CategoryData
	if err := shell.Submit(context.Background(), func(_ context.Context, d domain.CategoryData) error {
		got = d
		return nil
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Name != "Shoes" {
		t.Fatalf("handler saw %+v", got)
	}
	if !shell.IsOpen() {
		t.Fatalf("submit must leave closing to the caller")
	}
	shell.Close()
	if shell.IsOpen() || shell.Draft().Name != "" {
		t.Fatalf("close must hide and reset the draft")
	}
}

func TestSubmitClosedAndBusy(t *testing.T) {
	shell := New[domain.SizeData]("Add size", "")
	if err := shell.Submit(context.Background(), nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	shell.Open(domain.SizeData{Label: "M"})
	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- shell.Submit(context.Background(), func(context.Context, domain.SizeData) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	if err := shell.Submit(context.Background(), func(context.Context, domain.SizeData) error { return nil }); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if !shell.State().Busy {
		t.Fatalf("state must report busy")
	}
	if err := shell.SetDraft(domain.SizeData{Label: "L"}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy on draft change, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if shell.State().Busy {
		t.Fatalf("busy must clear after submit")
	}
}

func TestValidateDecimalAndHex(t *testing.T) {
	err := Validate(domain.ProductVariantData{ProductID: "p", ColorID: "c", SizeID: "s", Price: decimal.NewFromInt(-1)})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields[0].Field != "price" {
		t.Fatalf("expected price violation, got %v", err)
	}
	if err := Validate(domain.ProductVariantData{ProductID: "p", ColorID: "c", SizeID: "s", Price: decimal.RequireFromString("0")}); err != nil {
		t.Fatalf("zero price must be valid: %v", err)
	}
	if err := Validate(domain.ColorData{Name: "Red", Hex: "red"}); err == nil {
		t.Fatalf("expected hexcolor violation")
	}
	if err := Validate(domain.ColorData{Name: "Red", Hex: "#ff0000"}); err != nil {
		t.Fatalf("valid color rejected: %v", err)
	}
}
