package workflow

import (
	"fmt"
	"time"
)

// Document number prefixes per record kind
const (
	PrefixQuotation = "QT"
	PrefixPurchase  = "PR"
	PrefixExpense   = "EXP"
	PrefixSpecOrder = "SO"
	PrefixAccount   = "ACC"
)

// DateKey renders the day segment of a document number (YYMMDD).
func DateKey(t time.Time) string {
	return t.Format("060102")
}

// FormatDocNo renders a full document number, e.g. EXP-260829-001.
// The sequence itself comes from the document_counters upsert, so formatting
// never has to look at existing rows.
func FormatDocNo(prefix string, t time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, DateKey(t), seq)
}
