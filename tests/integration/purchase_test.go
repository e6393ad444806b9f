//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestImportedPurchases(t *testing.T) {
	resp := doGet(t, "/api/promotions/wallet-extra/purchases")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	ps := decodeJSON[[]purchaseResponse](t, resp)
	if len(ps) == 0 {
		t.Fatal("expected the imported combined purchase")
	}
	combined := ps[len(ps)-1]
	if len(combined.PromoIDs) != 2 || len(combined.Breakdown) != 2 {
		t.Fatalf("expected a combined purchase with breakdown, got %+v", combined)
	}
	if combined.FinalAmount != 6500 {
		t.Errorf("finalAmount: got %v, want 6500", combined.FinalAmount)
	}
}

func TestPurchaseLifecycle(t *testing.T) {
	active := func(t *testing.T) *activeInterval {
		t.Helper()
		resp := doGet(t, "/api/promotions/supermarket-monthly")
		defer resp.Body.Close()
		expectStatus(t, resp, http.StatusOK)
		p := decodeJSON[promotionResponse](t, resp)
		if p.ActiveDate == nil {
			t.Fatal("expected an active window")
		}
		return p.ActiveDate
	}
	before := active(t).TotalAmountPurchased

	resp := do(t, http.MethodPost, "/api/purchases", map[string]any{
		"amount":        1000,
		"date":          "2026-10-14",
		"storeName":     "Hypermarket",
		"paymentMethod": "Visa",
		"promoId":       "supermarket-monthly",
	})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)
	created := decodeJSON[purchaseResponse](t, resp)
	if created.ID == "" || created.FinalAmount != 1000 {
		t.Fatalf("unexpected purchase %+v", created)
	}

	a := active(t)
	if a.TotalAmountPurchased != before+1000 {
		t.Errorf("totalAmountPurchased: got %v, want %v", a.TotalAmountPurchased, before+1000)
	}
	if a.Regime != "paymentMethods" {
		t.Errorf("regime: got %q, want paymentMethods", a.Regime)
	}

	resp = do(t, http.MethodPut, "/api/purchases/"+created.ID, map[string]any{
		"amount":    2500,
		"date":      "2026-10-14",
		"storeName": "Hypermarket",
	})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
	if edited := decodeJSON[purchaseResponse](t, resp); edited.Amount != 2500 || edited.FinalAmount != 2500 {
		t.Fatalf("unexpected edit result %+v", edited)
	}

	resp = do(t, http.MethodDelete, "/api/purchases/"+created.ID, nil)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusNoContent)

	resp = do(t, http.MethodDelete, "/api/purchases/"+created.ID, nil)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)

	if got := active(t).TotalAmountPurchased; got != before {
		t.Errorf("totalAmountPurchased after delete: got %v, want %v", got, before)
	}

	t.Run("invalid amount", func(t *testing.T) {
		resp := do(t, http.MethodPost, "/api/purchases", map[string]any{
			"amount":  0,
			"promoId": "supermarket-monthly",
		})
		defer resp.Body.Close()
		expectStatus(t, resp, http.StatusUnprocessableEntity)
	})
}
