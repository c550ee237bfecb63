package revenue

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifySettlement(t *testing.T) {
	tolerance := decimal.NewFromInt(5)

	tests := []struct {
		name  string
		total int64
		paid  int64
		want  SettlementStatus
	}{
		{"exact", 5000, 5000, StatusPaid},
		{"partial", 5000, 2450, StatusPartial},
		{"unpaid", 5000, 0, StatusUnpaid},
		{"within tolerance above", 5000, 5004, StatusPaid},
		{"within tolerance below", 5000, 4996, StatusPaid},
		{"overpaid past tolerance", 5000, 5006, StatusOverpaid},
		{"overpaid at boundary", 5000, 5005, StatusOverpaid},
		{"zero total", 0, 0, StatusUnknown},
		{"negative total", -10, 100, StatusUnknown},
		{"negative paid", 5000, -1, StatusUnpaid},
		{"just below tolerance band", 5000, 4994, StatusPartial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySettlement(decimal.NewFromInt(tt.total), decimal.NewFromInt(tt.paid), tolerance)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyNativeStatus(t *testing.T) {
	tests := []struct {
		native NativeStatus
		want   SettlementStatus
		ok     bool
	}{
		{NativePaid, StatusPaid, true},
		{NativePending, StatusReview, true},
		{NativeProcessing, StatusReview, true},
		{NativeFailed, StatusFailed, true},
		{NativeCancelled, StatusFailed, true},
		{NativeStatus(""), "", false},
		{NativeStatus("something_else"), "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.native), func(t *testing.T) {
			got, ok := ClassifyNativeStatus(tt.native)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
