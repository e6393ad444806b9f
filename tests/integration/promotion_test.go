//go:build integration

package integration

import (
	"net/http"
	"slices"
	"testing"
)

func promotionIDs(ps []promotionResponse) []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}

func TestListPromotions(t *testing.T) {
	tests := []struct {
		filter string
		want   []string
	}{
		{"active", []string{"visa-weekdays", "supermarket-monthly", "wallet-extra"}},
		{"active-future", []string{"visa-weekdays", "supermarket-monthly", "wallet-extra", "weekend-fuel", "cyber-days"}},
		{"all", []string{"visa-weekdays", "supermarket-monthly", "wallet-extra", "weekend-fuel", "cyber-days"}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			resp := doGet(t, "/api/promotions?filter="+tt.filter)
			defer resp.Body.Close()
			expectStatus(t, resp, http.StatusOK)

			got := promotionIDs(decodeJSON[[]promotionResponse](t, resp))
			if !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("invalid filter", func(t *testing.T) {
		resp := doGet(t, "/api/promotions?filter=soon")
		defer resp.Body.Close()
		expectStatus(t, resp, http.StatusBadRequest)
		if body := decodeJSON[errorResponse](t, resp); body.Code != http.StatusBadRequest {
			t.Fatalf("expected code 400, got %d", body.Code)
		}
	})
}

func TestGetPromotion(t *testing.T) {
	resp := doGet(t, "/api/promotions/visa-weekdays")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	p := decodeJSON[promotionResponse](t, resp)
	if p.CalculatedPurchaseAmount != 80000 {
		t.Errorf("calculatedPurchaseAmount: got %v, want 80000", p.CalculatedPurchaseAmount)
	}
	if p.ActiveDate == nil {
		t.Fatal("expected an active window")
	}
	if p.ActiveDate.From != "2026-10-12" || p.ActiveDate.To != "2026-10-16" {
		t.Errorf("active window: got %s..%s, want 2026-10-12..2026-10-16", p.ActiveDate.From, p.ActiveDate.To)
	}
	if p.StackingType == nil || *p.StackingType != "base" {
		t.Errorf("stackingType: got %v, want base", p.StackingType)
	}

	t.Run("not found", func(t *testing.T) {
		resp := doGet(t, "/api/promotions/unknown")
		defer resp.Body.Close()
		expectStatus(t, resp, http.StatusNotFound)
	})

	t.Run("future only", func(t *testing.T) {
		resp := doGet(t, "/api/promotions/cyber-days")
		defer resp.Body.Close()
		expectStatus(t, resp, http.StatusOK)

		p := decodeJSON[promotionResponse](t, resp)
		if p.ActiveDate != nil {
			t.Errorf("expected no active window, got %+v", p.ActiveDate)
		}
		if len(p.FutureDates) != 3 {
			t.Errorf("futureDates: got %d, want 3", len(p.FutureDates))
		}
	})
}

func TestCalculateDiscount(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/discounts", map[string]any{
		"amount":   10000,
		"promoIds": []string{"visa-weekdays", "wallet-extra"},
	})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	res := decodeJSON[discountResponse](t, resp)
	if res.TotalDiscount != 3500 || res.FinalAmount != 6500 {
		t.Fatalf("got discount %v final %v, want 3500 and 6500", res.TotalDiscount, res.FinalAmount)
	}
	if len(res.Breakdown) != 2 {
		t.Fatalf("breakdown: got %d entries, want 2", len(res.Breakdown))
	}

	t.Run("two bases", func(t *testing.T) {
		resp := do(t, http.MethodPost, "/api/discounts", map[string]any{
			"amount":   10000,
			"promoIds": []string{"visa-weekdays", "supermarket-monthly"},
		})
		defer resp.Body.Close()
		expectStatus(t, resp, http.StatusUnprocessableEntity)
	})
}

func TestSelection(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/selection", map[string]any{
		"selected": []string{"visa-weekdays"},
		"clicked":  "wallet-extra",
	})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	sel := decodeJSON[selectionResponse](t, resp)
	if !slices.Equal(sel.Selected, []string{"visa-weekdays", "wallet-extra"}) || sel.Replaced {
		t.Fatalf("got %+v", sel)
	}

	resp = do(t, http.MethodPost, "/api/selection", map[string]any{
		"selected": sel.Selected,
		"clicked":  "supermarket-monthly",
	})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	sel = decodeJSON[selectionResponse](t, resp)
	if !slices.Equal(sel.Selected, []string{"supermarket-monthly"}) || !sel.Replaced {
		t.Fatalf("got %+v", sel)
	}
}
