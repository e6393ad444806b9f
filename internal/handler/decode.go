package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-tracker/internal/calendar"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

type discountRequest struct {
	Amount   decimal.Decimal
	PromoIDs []string
}

type selectionRequest struct {
	Selected []string
	Clicked  string
}

type purchaseRequest struct {
	Amount        decimal.Decimal
	Date          calendar.Date
	StoreName     string
	PaymentMethod string
	PromoIDs      []string
}

func decodeBody(r *http.Request, field func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errors.Wrapf(errBadRequest, "read body: %v", err)
	}
	if err := jx.DecodeBytes(body).Obj(field); err != nil {
		return errors.Wrapf(errBadRequest, "decode body: %v", err)
	}
	return nil
}

func decodeDiscountRequest(r *http.Request) (discountRequest, error) {
	var req discountRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "amount":
			req.Amount, err = decodeDecimal(d)
		case "promoIds":
			req.PromoIDs, err = decodeStrings(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

func decodeSelectionRequest(r *http.Request) (selectionRequest, error) {
	var req selectionRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "selected":
			req.Selected, err = decodeStrings(d)
		case "clicked":
			req.Clicked, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err == nil && req.Clicked == "" {
		err = errors.Wrap(errBadRequest, "clicked is required")
	}
	return req, err
}

func decodePurchaseRequest(r *http.Request) (purchaseRequest, error) {
	var req purchaseRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "amount":
			req.Amount, err = decodeDecimal(d)
		case "date":
			req.Date, err = decodeDate(d)
		case "storeName":
			req.StoreName, err = d.Str()
		case "paymentMethod":
			req.PaymentMethod, err = d.Str()
		case "promoId":
			var id string
			if id, err = d.Str(); err == nil && id != "" {
				req.PromoIDs = append([]string{id}, req.PromoIDs...)
			}
		case "promoIds":
			var ids []string
			if ids, err = decodeStrings(d); err == nil {
				req.PromoIDs = append(req.PromoIDs, ids...)
			}
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, errors.New("expected number")
	}
}

func decodeDate(d *jx.Decoder) (calendar.Date, error) {
	if d.Next() == jx.Null {
		return calendar.Date{}, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return calendar.Date{}, err
	}
	if s == "" {
		return calendar.Date{}, nil
	}
	return calendar.Parse(s)
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	out := []string{}
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}
