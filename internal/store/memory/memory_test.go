package memory

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/payables/internal/core"
)

func payable(desc string, amount int64, due civil.Date) core.AccountsPayable {
	return core.AccountsPayable{
		Amount:      decimal.NewFromInt(amount),
		Description: desc,
		DueDate:     due,
		Status:      "PENDING",
	}
}

var (
	jan1 = civil.Date{Year: 2025, Month: 1, Day: 1}
	jan2 = civil.Date{Year: 2025, Month: 1, Day: 2}
	feb1 = civil.Date{Year: 2025, Month: 2, Day: 1}
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := New()
	_, err := s.SaveAll(context.Background(), []core.AccountsPayable{
		payable("Office rent", 100, jan2),
		payable("Power bill", 200, jan1),
		payable("office supplies", 50, feb1),
		payable("Rent deposit", 75, jan1),
	})
	if err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	return s
}

func TestStore_SaveAssignsIDAndTimestamps(t *testing.T) {
	s := New()
	ctx := context.Background()

	saved, err := s.Save(ctx, payable("Rent", 10, jan1))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == uuid.Nil || saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Fatalf("saved = %+v, want id and timestamps", saved)
	}

	saved.Status = "PAID"
	again, err := s.Save(ctx, saved)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if again.ID != saved.ID || !again.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("update changed identity: %+v", again)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}

	got, ok, err := s.FindByID(ctx, saved.ID)
	if err != nil || !ok || got.Status != "PAID" {
		t.Errorf("FindByID = %+v, %v, %v", got, ok, err)
	}
	if _, ok, _ := s.FindByID(ctx, uuid.New()); ok {
		t.Error("FindByID found a missing id")
	}
}

func TestStore_Filters(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() (core.PageResult, error)
		want []string
	}{
		{"all ordered by due date", func() (core.PageResult, error) {
			return s.FindAll(ctx, core.Page{})
		}, []string{"Power bill", "Rent deposit", "Office rent", "office supplies"}},
		{"due date", func() (core.PageResult, error) {
			return s.FindByDueDate(ctx, jan1, core.Page{})
		}, []string{"Power bill", "Rent deposit"}},
		{"description is case sensitive", func() (core.PageResult, error) {
			return s.FindByDescriptionContaining(ctx, "Rent", core.Page{})
		}, []string{"Rent deposit"}},
		{"description substring", func() (core.PageResult, error) {
			return s.FindByDescriptionContaining(ctx, "ent", core.Page{})
		}, []string{"Rent deposit", "Office rent"}},
		{"due date and description", func() (core.PageResult, error) {
			return s.FindByDueDateAndDescription(ctx, jan2, "rent", core.Page{})
		}, []string{"Office rent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.run()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(res.Items) != len(tt.want) || res.Total != int64(len(tt.want)) {
				t.Fatalf("got %d items (total %d), want %d", len(res.Items), res.Total, len(tt.want))
			}
			for i, d := range tt.want {
				if res.Items[i].Description != d {
					t.Errorf("item %d = %q, want %q", i, res.Items[i].Description, d)
				}
			}
		})
	}
}

func TestStore_Paging(t *testing.T) {
	s := seed(t)

	res, err := s.FindAll(context.Background(), core.Page{Number: 1, Size: 3})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 4 || len(res.Items) != 1 || res.Items[0].Description != "office supplies" {
		t.Errorf("page 1 = %+v", res)
	}
	if res.TotalPages() != 2 {
		t.Errorf("TotalPages = %d, want 2", res.TotalPages())
	}

	res, _ = s.FindAll(context.Background(), core.Page{Number: 5, Size: 3})
	if len(res.Items) != 0 || res.Total != 4 {
		t.Errorf("page past the end = %+v", res)
	}
}

func TestStore_FindByDueDateRangeInclusive(t *testing.T) {
	s := seed(t)

	got, err := s.FindByDueDateRange(context.Background(), jan1, jan2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("got %d records, want 3", len(got))
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	paid := jan2
	p := payable("Rent", 10, jan1)
	p.PaymentDate = &paid

	saved, _ := s.Save(ctx, p)
	saved.PaymentDate.Day = 28

	got, _, _ := s.FindByID(ctx, saved.ID)
	if got.PaymentDate.Day != 2 {
		t.Errorf("stored payment date mutated through returned value: %v", got.PaymentDate)
	}
}
