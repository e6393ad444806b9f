package stacking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xenking/promo-tracker/internal/domain/promotion"
)

func TestCanStackWith(t *testing.T) {
	tests := []struct {
		name string
		a, b promotion.Definition
		want bool
	}{
		{"base with open extra", base("b", "1", "0"), extra("e", "1", "0"), true},
		{"extra with base is symmetric", extra("e", "1", "0"), base("b", "1", "0"), true},
		{"extra listing the base", extra("e", "1", "0", "b"), base("b", "1", "0"), true},
		{"extra listing another base", extra("e", "1", "0", "other"), base("b", "1", "0"), false},
		{"two bases", base("a", "1", "0"), base("b", "1", "0"), false},
		{"two extras", extra("a", "1", "0"), extra("b", "1", "0"), false},
		{"non-stackable", promo("a", "1", "0"), extra("b", "1", "0"), false},
		{"untyped stackables", stackable("a", "1", 1), stackable("b", "1", 2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanStackWith(tt.a, tt.b))
		})
	}
}

func TestValidCombination(t *testing.T) {
	tests := []struct {
		name   string
		promos []promotion.Definition
		want   bool
	}{
		{"empty", nil, true},
		{"single non-stackable", []promotion.Definition{promo("a", "1", "0")}, true},
		{"base and extras", []promotion.Definition{base("b", "1", "0"), extra("e1", "1", "0"), extra("e2", "1", "0", "b")}, true},
		{"extra rejecting the base", []promotion.Definition{base("b", "1", "0"), extra("e", "1", "0", "x")}, false},
		{"two bases", []promotion.Definition{base("a", "1", "0"), base("b", "1", "0")}, false},
		{"single extra", []promotion.Definition{extra("e", "1", "0")}, true},
		{"two extras without base", []promotion.Definition{extra("a", "1", "0"), extra("b", "1", "0")}, false},
		{"two non-stackables", []promotion.Definition{promo("a", "1", "0"), promo("b", "1", "0")}, false},
		{"non-stackable with a base", []promotion.Definition{base("b", "1", "0"), promo("a", "1", "0")}, false},
		{"untyped stackables", []promotion.Definition{stackable("a", "1", 1), stackable("b", "1", 2)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCombination(tt.promos))
		})
	}
}
