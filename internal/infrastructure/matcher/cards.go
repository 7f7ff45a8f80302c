package matcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/fintask/fintask-go/internal/domain"
)

// bankVocabulary maps substring triggers to canonical bank names. Order is
// significant: "citizen" must be checked before "citi" so "citizens bank"
// never false-matches Citi.
var bankVocabulary = []struct {
	triggers  []string
	canonical string
}{
	{triggers: []string{"bank of america", "boa"}, canonical: "Bank of America"},
	{triggers: []string{"capital one"}, canonical: "Capital One"},
	{triggers: []string{"amex", "american express"}, canonical: "American Express"},
	{triggers: []string{"chase"}, canonical: "Chase"},
	{triggers: []string{"synchrony"}, canonical: "Synchrony"},
	{triggers: []string{"citizen"}, canonical: "Citizens"},
	{triggers: []string{"citi"}, canonical: "Citi"},
	{triggers: []string{"discover"}, canonical: "Discover"},
}

func matchesCards(q string) bool {
	if containsAny(q, "card", "credit") {
		return true
	}
	return bankFromQuery(q) != ""
}

func bankFromQuery(q string) string {
	for _, entry := range bankVocabulary {
		for _, trigger := range entry.triggers {
			if strings.Contains(q, trigger) {
				return entry.canonical
			}
		}
	}
	return ""
}

func (m *Matcher) handleCards(ctx context.Context, q string) (domain.Result, error) {
	bank := bankFromQuery(q)

	if strings.Contains(q, "sort") {
		return m.sortCards(ctx, q)
	}
	if containsAny(q, "delete", "remove") {
		return m.deleteCard(ctx, bank)
	}

	filter := domain.CardFilter{
		BankName:      bank,
		InactiveOnly:  containsAny(q, "inactive", "unused", "not used"),
		PromoExpiring: containsAny(q, "promo", "expiring", "apr"),
	}
	cards, err := m.store.GetCreditCards(ctx, filter)
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{
		Success:     true,
		Message:     fmt.Sprintf("Found %d card(s).", len(cards)),
		CreditCards: cards,
	}, nil
}

// sortCards returns the card list and signals the UI to re-sort; the data
// itself is not reordered here.
func (m *Matcher) sortCards(ctx context.Context, q string) (domain.Result, error) {
	sortBy := domain.SortByName
	switch {
	case containsAny(q, "inactive", "days"):
		sortBy = domain.SortByInactive
	case containsAny(q, "last used", "last-used", "usage"):
		sortBy = domain.SortByLastUsed
	case containsAny(q, "name", "bank"):
		sortBy = domain.SortByName
	}

	cards, err := m.store.GetCreditCards(ctx, domain.CardFilter{})
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{
		Success:     true,
		Message:     "Sorted cards by " + sortBy + ".",
		CreditCards: cards,
		UIAction:    domain.UISortCards,
		SortBy:      sortBy,
	}, nil
}

// deleteCard removes only the first card matching the bank filter.
func (m *Matcher) deleteCard(ctx context.Context, bank string) (domain.Result, error) {
	cards, err := m.store.GetCreditCards(ctx, domain.CardFilter{BankName: bank})
	if err != nil {
		return domain.Result{}, err
	}
	if len(cards) == 0 {
		return domain.SoftFailure("No matching cards found to delete."), nil
	}
	target := cards[0]
	if err := m.store.DeleteCreditCard(ctx, target.ID); err != nil {
		return domain.Result{}, err
	}
	return domain.Result{
		Success:      true,
		Message:      fmt.Sprintf("Deleted %s (%s).", target.CardName, target.BankName),
		DeletedCount: 1,
		CreditCard:   &target,
	}, nil
}
