// Package ledger turns finance series, exceptions and one-off entries into
// a dated ledger with an opening carry, running balances and totals.
package ledger

import (
	"fmt"
	"strings"

	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/samber/mo"
)

type Kind string

const (
	KindIncome  Kind = "INCOME"
	KindExpense Kind = "EXPENSE"
)

func ParseKind(value string) (Kind, error) {
	switch kind := Kind(strings.ToUpper(strings.TrimSpace(value))); kind {
	case KindIncome, KindExpense:
		return kind, nil
	}
	return "", fmt.Errorf("unknown entry kind %q", value)
}

// DefaultTitle is used when an entry is saved without a title.
func (kind Kind) DefaultTitle() string {
	if kind == KindIncome {
		return "Einnahme"
	}
	return "Ausgabe"
}

// Entry is the payload repeated by a series or carried by a one-off item.
// AmountCents is always positive; Kind decides the sign.
type Entry struct {
	Title       string `json:"title"`
	Note        string `json:"note,omitempty"`
	Kind        Kind   `json:"kind"`
	AmountCents int64  `json:"amountCents"`
	CategoryID  string `json:"categoryId,omitempty"`
}

// Patch overrides selected fields of one series occurrence.
type Patch struct {
	Title       mo.Option[string] `json:"title"`
	Note        mo.Option[string] `json:"note"`
	Kind        mo.Option[Kind]   `json:"kind"`
	AmountCents mo.Option[int64]  `json:"amountCents"`
}

func (patch Patch) IsEmpty() bool {
	return patch.Title.IsAbsent() && patch.Note.IsAbsent() && patch.Kind.IsAbsent() && patch.AmountCents.IsAbsent()
}

// Apply returns template with every present patch field replacing the
// template value.
func Apply(template Entry, patch Patch) Entry {
	template.Title = patch.Title.OrElse(template.Title)
	template.Note = patch.Note.OrElse(template.Note)
	template.Kind = patch.Kind.OrElse(template.Kind)
	template.AmountCents = patch.AmountCents.OrElse(template.AmountCents)
	return template
}

// Signed returns +amount for income and -amount for expenses.
func Signed(entry Entry) int64 {
	if entry.Kind == KindIncome {
		return entry.AmountCents
	}
	return -entry.AmountCents
}

type (
	Series     = occurrence.Series[Entry]
	OneOff     = occurrence.OneOff[Entry]
	Exception  = occurrence.Exception[Patch]
	Exceptions = occurrence.ExceptionIndex[Patch]
	Item       = occurrence.Occurrence[Entry]
)
