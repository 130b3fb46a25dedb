package notification

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jwalitptl/marketplace-api/internal/model"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// formatCents renders cents as US dollars, e.g. 123450 -> "$1,234.50".
// The magnitude is taken as uint64 so math.MinInt64 does not overflow.
func formatCents(cents int64) string {
	sign := ""
	abs := uint64(cents)
	if cents < 0 {
		sign = "-"
		abs = -abs
	}
	return fmt.Sprintf("%s$%s.%02d", sign, printer.Sprintf("%d", abs/100), abs%100)
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

// clause returns prefix+v, or "" when v is blank.
func clause(prefix, v string) string {
	return wrapped(prefix, v, "")
}

func wrapped(prefix, v, suffix string) string {
	if v = strings.TrimSpace(v); v == "" {
		return ""
	}
	return prefix + v + suffix
}

// orderRef is the sentence-initial order reference.
func orderRef(d model.TemplateData) string {
	if n := strings.TrimSpace(d.OrderNumber); n != "" {
		return "Order #" + n
	}
	return "Your order"
}

// orderRefLower is orderRef for use mid-sentence.
func orderRefLower(d model.TemplateData) string {
	return orderRefOr(d, "your order")
}

func orderRefOr(d model.TemplateData, fallback string) string {
	if n := strings.TrimSpace(d.OrderNumber); n != "" {
		return "order #" + n
	}
	return fallback
}

func amountClause(prefix string, d model.TemplateData) string {
	if d.AmountCents == nil {
		return ""
	}
	return prefix + formatCents(*d.AmountCents)
}

func reasonSentence(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ""
	}
	return " Reason: " + strings.TrimRight(reason, ".") + "."
}

func itemsClause(n int) string {
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return " (1 item)"
	default:
		return fmt.Sprintf(" (%d items)", n)
	}
}

func pickupClause(d model.TemplateData) string {
	return clause(" at ", d.MarketName) + clause(" on ", d.PickupDate) + clause(" at ", d.PickupTime)
}

// link scopes path to vertical; an empty vertical leaves path unscoped.
func link(vertical, path string) string {
	if vertical = strings.Trim(strings.TrimSpace(vertical), "/"); vertical == "" {
		return path
	}
	return "/" + vertical + path
}

func staticLink(path string) func(model.TemplateData, string) string {
	return func(_ model.TemplateData, vertical string) string {
		return link(vertical, path)
	}
}

func staticTitle(title string) func(model.TemplateData) string {
	return func(model.TemplateData) string {
		return title
	}
}
