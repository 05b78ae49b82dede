package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"with cents", "12.50", "12.5"},
		{"whole number", "100", "100"},
		{"small value", "0.01", "0.01"},
		{"surrounding spaces", " 19.99 ", "19.99"},
		{"empty string", "", "0"},
		{"invalid string", "abc", "0"},
		{"not a number", "NaN", "0"},
		{"infinite", "Inf", "0"},
		{"negative (unusual)", "-10.00", "-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.input)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParsePrice(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestLineAmount(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		quantity int
		want     string
	}{
		{"three units", "10", 3, "30"},
		{"single unit", "19.99", 1, "19.99"},
		{"zero quantity prices to zero", "19.99", 0, "0"},
		{"no float drift", "0.1", 3, "0.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineAmount(decimal.RequireFromString(tt.price), tt.quantity)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("LineAmount(%s, %d) = %s, want %s", tt.price, tt.quantity, got, tt.want)
			}
		})
	}
}

func TestLineItemRequestQty(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"absent defaults to one", `{"productId":"p1"}`, 1},
		{"null defaults to one", `{"productId":"p1","quantity":null}`, 1},
		{"explicit zero kept", `{"productId":"p1","quantity":0}`, 0},
		{"explicit value kept", `{"productId":"p1","quantity":4}`, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var li LineItemRequest
			if err := json.Unmarshal([]byte(tt.body), &li); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got := li.Qty(); got != tt.want {
				t.Errorf("Qty() = %d, want %d", got, tt.want)
			}
		})
	}
}
