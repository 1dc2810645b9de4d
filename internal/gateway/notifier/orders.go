package notifier

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"predictbot/internal/pricing"
	"predictbot/internal/store"
)

// Renderers for the sync engine's per-user pushes. Each returns a ready
// Markdown body so the engine only decides WHO to tell, not how it looks.

const marketURLBase = "https://predict.fun/market/"

func orderLines(rec store.OrderRecord) []string {
	return []string{
		fmt.Sprintf("Market: %s", rec.MarketTitle),
		fmt.Sprintf("Token: %s (%s)", rec.TokenName, rec.Outcome),
		fmt.Sprintf("Side: %s", rec.Side),
		fmt.Sprintf("Amount: %s", rec.Amount.String()),
	}
}

func marketLink(rec store.OrderRecord) string {
	if rec.MarketSlug == "" {
		return ""
	}
	return marketURLBase + rec.MarketSlug
}

// RenderRepositioned announces a successful cancel-and-replace.
func RenderRepositioned(rec store.OrderRecord, oldPrice, newPrice decimal.Decimal) string {
	drift := pricing.DriftCents(oldPrice, newPrice)
	msg := StructuredMessage{
		Icon:  "🔄",
		Title: "Order repositioned",
		Sections: []MessageSection{
			{Lines: orderLines(rec)},
			{Title: "Price move", Lines: []string{
				fmt.Sprintf("Old: %s", oldPrice.String()),
				fmt.Sprintf("New: %s", newPrice.String()),
				fmt.Sprintf("Drift: %s cents", drift.String()),
			}},
		},
		Timestamp: time.Now(),
	}
	return msg.RenderMarkdown()
}

// RenderFilled announces that the exchange reports an order as filled. The
// message carries a direct market link so the user can check the position.
func RenderFilled(rec store.OrderRecord) string {
	detail := []string{fmt.Sprintf("Price: %s", rec.CurrentPrice.String())}
	if link := marketLink(rec); link != "" {
		detail = append(detail, fmt.Sprintf("Link: %s", link))
	}
	msg := StructuredMessage{
		Icon:  "✅",
		Title: "Order filled",
		Sections: []MessageSection{
			{Lines: orderLines(rec)},
			{Lines: detail},
		},
		Timestamp: time.Now(),
	}
	return msg.RenderMarkdown()
}

// RenderPriceChanged is the advisory push sent when the planner decides to
// reposition, before any cancel goes out.
func RenderPriceChanged(rec store.OrderRecord, marketPrice, plannedPrice decimal.Decimal) string {
	msg := StructuredMessage{
		Icon:  "📈",
		Title: "Price moved, repositioning order",
		Sections: []MessageSection{
			{Lines: orderLines(rec)},
			{Title: "Plan", Lines: []string{
				fmt.Sprintf("Market: %s", marketPrice.String()),
				fmt.Sprintf("Quoted: %s", rec.TargetPrice.String()),
				fmt.Sprintf("Planned: %s", plannedPrice.String()),
			}},
		},
		Timestamp: time.Now(),
	}
	return msg.RenderMarkdown()
}

// RenderPlacementFailed warns that a cancel succeeded but the replacement
// placement did not, leaving the user without a resting order.
func RenderPlacementFailed(rec store.OrderRecord, price decimal.Decimal, reason string) string {
	msg := StructuredMessage{
		Icon:  "❌",
		Title: "Reposition failed: order not replaced",
		Sections: []MessageSection{
			{Lines: orderLines(rec)},
			{Title: "Attempted placement", Lines: []string{
				fmt.Sprintf("Price: %s", price.String()),
				fmt.Sprintf("Reason: %s", reason),
			}},
		},
		Footer:    "The original order was cancelled. Place a new order manually or wait for the next cycle.",
		Timestamp: time.Now(),
	}
	return msg.RenderMarkdown()
}

// RenderCancellationFailed warns that a cancel batch could not be confirmed,
// so repositioning was skipped this cycle.
func RenderCancellationFailed(rec store.OrderRecord, reason string) string {
	msg := StructuredMessage{
		Icon:  "⚠️",
		Title: "Reposition skipped: cancellation unconfirmed",
		Sections: []MessageSection{
			{Lines: orderLines(rec)},
			{Lines: []string{fmt.Sprintf("Reason: %s", reason)}},
		},
		Footer:    "The order is unchanged on the exchange. It will be retried next cycle.",
		Timestamp: time.Now(),
	}
	return msg.RenderMarkdown()
}
