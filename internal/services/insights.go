package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fintask/fintask-go/internal/domain"
)

// computeInsights derives the summary locally from facade data. The model is
// never asked to compute numbers; at most it routes a query here.
func (p *IntentProcessor) computeInsights(ctx context.Context) (domain.Result, error) {
	pending := false
	todos, err := p.Store.GetTodos(ctx, domain.TodoFilter{Completed: &pending})
	if err != nil {
		return domain.Result{}, err
	}
	cards, err := p.Store.GetCreditCards(ctx, domain.CardFilter{})
	if err != nil {
		return domain.Result{}, err
	}

	now := p.now()
	today := domain.ISODate(now)

	insights := domain.Insights{PendingTodos: len(todos)}
	for _, todo := range todos {
		switch {
		case todo.DueDate == "":
		case todo.DueDate < today:
			insights.OverdueTodos++
		case todo.DueDate == today:
			insights.DueToday++
		}
	}

	for _, card := range cards {
		label := card.CardName
		if card.BankName != "" {
			label = card.BankName + " " + card.CardName
		}
		if cardInactive(card, now) {
			insights.InactiveCards = append(insights.InactiveCards, label)
		}
		if promoExpiring(card, now) {
			insights.PromoExpiringCards = append(insights.PromoExpiringCards, label)
		}
	}

	insights.Summary = summarize(insights)
	return domain.Result{
		Success:  true,
		Message:  insights.Summary,
		Insights: &insights,
	}, nil
}

// cardInactive treats an unparseable or missing last-used date as inactive.
func cardInactive(card domain.CreditCard, now time.Time) bool {
	lastUsed, err := time.Parse(domain.ISODateLayout, card.LastUsed)
	if err != nil {
		return true
	}
	return now.Sub(lastUsed) > domain.InactiveThresholdDays*24*time.Hour
}

func promoExpiring(card domain.CreditCard, now time.Time) bool {
	if card.PromoExpiry == "" {
		return false
	}
	expiry, err := time.Parse(domain.ISODateLayout, card.PromoExpiry)
	if err != nil {
		return false
	}
	until := expiry.Sub(now)
	return until >= 0 && until <= domain.PromoWindowDays*24*time.Hour
}

func summarize(in domain.Insights) string {
	parts := []string{fmt.Sprintf("%d pending task(s)", in.PendingTodos)}
	if in.OverdueTodos > 0 {
		parts = append(parts, fmt.Sprintf("%d overdue", in.OverdueTodos))
	}
	if in.DueToday > 0 {
		parts = append(parts, fmt.Sprintf("%d due today", in.DueToday))
	}
	if n := len(in.InactiveCards); n > 0 {
		parts = append(parts, fmt.Sprintf("%d card(s) unused for a while", n))
	}
	if n := len(in.PromoExpiringCards); n > 0 {
		parts = append(parts, fmt.Sprintf("%d promo rate(s) ending soon", n))
	}
	return "You have " + strings.Join(parts, ", ") + "."
}
