package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDocNo(t *testing.T) {
	day := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, "EXP-260829-001", FormatDocNo(PrefixExpense, day, 1))
	assert.Equal(t, "EXP-260829-002", FormatDocNo(PrefixExpense, day, 2))
	assert.Equal(t, "QT-260829-042", FormatDocNo(PrefixQuotation, day, 42))
	assert.Equal(t, "PR-260829-1000", FormatDocNo(PrefixPurchase, day, 1000))
}

func TestDateKeyResetsDaily(t *testing.T) {
	d1 := time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC)
	d2 := time.Date(2026, 8, 30, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, "260829", DateKey(d1))
	assert.Equal(t, "260830", DateKey(d2))
	assert.NotEqual(t, DateKey(d1), DateKey(d2))
}
