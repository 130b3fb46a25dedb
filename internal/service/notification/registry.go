package notification

import (
	"errors"
	"fmt"

	"github.com/jwalitptl/marketplace-api/internal/model"
)

// ErrUnknownNotificationType is returned for tags outside the registry.
var ErrUnknownNotificationType = errors.New("unknown notification type")

// TypeConfig describes how one notification type is rendered and routed.
// Template functions are total: every field of TemplateData may be absent.
type TypeConfig struct {
	Type      model.NotificationType
	Urgency   model.NotificationUrgency
	Audience  model.NotificationAudience
	Title     func(d model.TemplateData) string
	Message   func(d model.TemplateData) string
	ActionURL func(d model.TemplateData, vertical string) string
}

// TypeDescriptor is the serializable summary of a TypeConfig.
type TypeDescriptor struct {
	Type     model.NotificationType      `json:"type"`
	Audience model.NotificationAudience  `json:"audience"`
	Urgency  model.NotificationUrgency   `json:"urgency"`
	Channels []model.NotificationChannel `json:"channels"`
}

var urgencyChannels = map[model.NotificationUrgency][]model.NotificationChannel{
	model.UrgencyImmediate: {model.ChannelPush, model.ChannelSMS, model.ChannelInApp},
	model.UrgencyUrgent:    {model.ChannelPush, model.ChannelSMS, model.ChannelEmail, model.ChannelInApp},
	model.UrgencyStandard:  {model.ChannelEmail, model.ChannelInApp},
	model.UrgencyInfo:      {model.ChannelInApp},
}

// ChannelsFor returns the attempt order for urgency. The slice is a copy.
// Unknown urgencies fall back to in-app only.
func ChannelsFor(urgency model.NotificationUrgency) []model.NotificationChannel {
	channels, ok := urgencyChannels[urgency]
	if !ok {
		return []model.NotificationChannel{model.ChannelInApp}
	}
	out := make([]model.NotificationChannel, len(channels))
	copy(out, channels)
	return out
}

// GetConfig returns the config for t, or ErrUnknownNotificationType.
func GetConfig(t model.NotificationType) (TypeConfig, error) {
	cfg, ok := registry[t]
	if !ok {
		return TypeConfig{}, fmt.Errorf("%w: %q", ErrUnknownNotificationType, string(t))
	}
	return cfg, nil
}

// Describe lists every registered type in declaration order.
func Describe() []TypeDescriptor {
	all := model.AllNotificationTypes()
	out := make([]TypeDescriptor, 0, len(all))
	for _, t := range all {
		cfg := registry[t]
		out = append(out, TypeDescriptor{
			Type:     t,
			Audience: cfg.Audience,
			Urgency:  cfg.Urgency,
			Channels: ChannelsFor(cfg.Urgency),
		})
	}
	return out
}

var registry = buildRegistry()

func init() {
	all := model.AllNotificationTypes()
	if len(registry) != len(all) {
		panic(fmt.Sprintf("notification registry has %d configs for %d types", len(registry), len(all)))
	}
	for _, t := range all {
		cfg, ok := registry[t]
		if !ok {
			panic(fmt.Sprintf("notification type %q has no config", t))
		}
		if cfg.Title == nil || cfg.Message == nil || cfg.ActionURL == nil {
			panic(fmt.Sprintf("notification type %q has an incomplete config", t))
		}
		if _, ok := urgencyChannels[cfg.Urgency]; !ok {
			panic(fmt.Sprintf("notification type %q has unknown urgency %q", t, cfg.Urgency))
		}
	}
}

func buildRegistry() map[model.NotificationType]TypeConfig {
	configs := []TypeConfig{
		// Buyer
		{
			Type:     model.NotificationOrderPlaced,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceBuyer,
			Title:    staticTitle("Order placed"),
			Message: func(d model.TemplateData) string {
				return orderRef(d) + clause(" from ", d.VendorName) + " has been placed" + amountClause(" for ", d) +
					". We'll let you know when it's confirmed."
			},
			ActionURL: staticLink("/buyer/orders"),
		},
		{
			Type:     model.NotificationOrderConfirmed,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceBuyer,
			Title:    staticTitle("Order confirmed"),
			Message: func(d model.TemplateData) string {
				msg := orderRef(d) + clause(" from ", d.VendorName) + " has been confirmed."
				if p := pickupClause(d); p != "" {
					msg += " Pick it up" + p + "."
				}
				return msg
			},
			ActionURL: staticLink("/buyer/orders"),
		},
		{
			Type:     model.NotificationOrderReady,
			Urgency:  model.UrgencyImmediate,
			Audience: model.AudienceBuyer,
			Title:    staticTitle("Order ready for pickup"),
			Message: func(d model.TemplateData) string {
				return orderRef(d) + clause(" from ", d.VendorName) + " is ready for pickup" + clause(" at ", d.MarketName) + "."
			},
			ActionURL: staticLink("/buyer/orders"),
		},
		{
			Type:     model.NotificationOrderFulfilled,
			Urgency:  model.UrgencyInfo,
			Audience: model.AudienceBuyer,
			Title:    staticTitle("Order picked up"),
			Message: func(d model.TemplateData) string {
				return orderRef(d) + clause(" from ", d.VendorName) + " has been marked as picked up. Thanks for shopping local!"
			},
			ActionURL: staticLink("/buyer/orders"),
		},
		{
			Type:     model.NotificationOrderCancelledByVendor,
			Urgency:  model.UrgencyUrgent,
			Audience: model.AudienceBuyer,
			Title:    staticTitle("Order cancelled"),
			Message: func(d model.TemplateData) string {
				return orDefault(d.VendorName, "The vendor") + " cancelled " + orderRefLower(d) + "." + reasonSentence(d.Reason) +
					" A refund" + amountClause(" of ", d) + " will be issued to your original payment method."
			},
			ActionURL: staticLink("/buyer/orders"),
		},
		{
			Type:     model.NotificationOrderRefunded,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceBuyer,
			Title:    staticTitle("Refund issued"),
			Message: func(d model.TemplateData) string {
				return "A refund" + amountClause(" of ", d) + " for " + orderRefLower(d) + clause(" from ", d.VendorName) +
					" has been issued. It may take 5-10 business days to appear."
			},
			ActionURL: staticLink("/buyer/orders"),
		},
		{
			Type:     model.NotificationOrderExpired,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceBuyer,
			Title:    staticTitle("Order expired"),
			Message: func(d model.TemplateData) string {
				return orderRef(d) + clause(" from ", d.VendorName) +
					" expired because the vendor didn't confirm it in time. You have not been charged."
			},
			ActionURL: staticLink("/buyer/orders"),
		},
		{
			Type:     model.NotificationPickupReminder,
			Urgency:  model.UrgencyUrgent,
			Audience: model.AudienceBuyer,
			Title:    staticTitle("Pickup reminder"),
			Message: func(d model.TemplateData) string {
				return "Don't forget to pick up " + orderRefLower(d) + clause(" from ", d.VendorName) + pickupClause(d) + "."
			},
			ActionURL: staticLink("/buyer/orders"),
		},
		{
			Type:     model.NotificationPickupMissed,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceBuyer,
			Title:    staticTitle("Missed pickup"),
			Message: func(d model.TemplateData) string {
				return orderRef(d) + clause(" from ", d.VendorName) + " was not picked up" +
					clause(" at ", d.MarketName) + clause(" on ", d.PickupDate) +
					". Contact the vendor to arrange another pickup."
			},
			ActionURL: staticLink("/buyer/orders"),
		},
		{
			Type:     model.NotificationMarketDayReminder,
			Urgency:  model.UrgencyInfo,
			Audience: model.AudienceBuyer,
			Title:    staticTitle("Market day reminder"),
			Message: func(d model.TemplateData) string {
				return orDefault(d.MarketName, "Your market") + " is open " + orDefault(clause("on ", d.MarketDate), "today") +
					". See you there!"
			},
			ActionURL: staticLink("/markets"),
		},
		{
			Type:     model.NotificationVendorCancelledMarket,
			Urgency:  model.UrgencyUrgent,
			Audience: model.AudienceBuyer,
			Title:    staticTitle("Vendor not attending"),
			Message: func(d model.TemplateData) string {
				msg := orDefault(d.VendorName, "A vendor") + " won't be at " + orDefault(d.MarketName, "the market") +
					clause(" on ", d.MarketDate) + "."
				if d.OrderNumber != "" {
					msg += " " + orderRef(d) + " will be refunded."
				}
				return msg
			},
			ActionURL: staticLink("/buyer/orders"),
		},
		{
			Type:     model.NotificationNewVendorAtMarket,
			Urgency:  model.UrgencyInfo,
			Audience: model.AudienceBuyer,
			Title:    staticTitle("New vendor at your market"),
			Message: func(d model.TemplateData) string {
				return orDefault(d.VendorName, "A new vendor") + " is now selling at " + orDefault(d.MarketName, "your market") + "."
			},
			ActionURL: func(d model.TemplateData, vertical string) string {
				if d.VendorID != "" {
					return link(vertical, "/vendors/"+d.VendorID)
				}
				return link(vertical, "/vendors")
			},
		},

		// Vendor
		{
			Type:     model.NotificationNewPaidOrder,
			Urgency:  model.UrgencyImmediate,
			Audience: model.AudienceVendor,
			Title:    staticTitle("New paid order"),
			Message: func(d model.TemplateData) string {
				return orDefault(d.BuyerName, "A customer") + " placed " + orderRefOr(d, "a new order") + amountClause(" for ", d) +
					itemsClause(d.ItemCount) + "." + wrapped(" Pickup ", pickupClause(d), ".")
			},
			ActionURL: staticLink("/vendor/orders"),
		},
		{
			Type:     model.NotificationOrderCancelledByBuyer,
			Urgency:  model.UrgencyUrgent,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Order cancelled by customer"),
			Message: func(d model.TemplateData) string {
				return orDefault(d.BuyerName, "A customer") + " cancelled " + orderRefOr(d, "an order") + "." + reasonSentence(d.Reason)
			},
			ActionURL: staticLink("/vendor/orders"),
		},
		{
			Type:     model.NotificationVendorApproved,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Vendor application approved"),
			Message: func(d model.TemplateData) string {
				return "Congratulations" + clause(", ", d.VendorName) +
					"! Your vendor account has been approved. You can now list products and apply to markets."
			},
			ActionURL: staticLink("/vendor/dashboard"),
		},
		{
			Type:     model.NotificationVendorRejected,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Vendor application update"),
			Message: func(d model.TemplateData) string {
				return "Your vendor application" + clause(" for ", d.VendorName) + " was not approved." + reasonSentence(d.Reason) +
					" You can update your details and reapply."
			},
			ActionURL: staticLink("/vendor/onboarding"),
		},
		{
			Type:     model.NotificationMarketApplicationApproved,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Market application approved"),
			Message: func(d model.TemplateData) string {
				return "You've been approved to sell at " + orDefault(d.MarketName, "the market") + "."
			},
			ActionURL: staticLink("/vendor/markets"),
		},
		{
			Type:     model.NotificationMarketApplicationRejected,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Market application update"),
			Message: func(d model.TemplateData) string {
				return "Your application to sell at " + orDefault(d.MarketName, "the market") + " was not approved." +
					reasonSentence(d.Reason)
			},
			ActionURL: staticLink("/vendor/markets"),
		},
		{
			Type:     model.NotificationMarketScheduleChanged,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Market schedule changed"),
			Message: func(d model.TemplateData) string {
				return orDefault(d.MarketName, "One of your markets") + " has updated its schedule" + clause(" for ", d.MarketDate) +
					"." + reasonSentence(d.Reason) + " Please review your upcoming market days."
			},
			ActionURL: staticLink("/vendor/markets"),
		},
		{
			Type:     model.NotificationPayoutProcessed,
			Urgency:  model.UrgencyInfo,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Payout sent"),
			Message: func(d model.TemplateData) string {
				return "A payout" + amountClause(" of ", d) + clause(" for order #", d.OrderNumber) + " has been sent to your account."
			},
			ActionURL: staticLink("/vendor/payouts"),
		},
		{
			Type:     model.NotificationPayoutFailed,
			Urgency:  model.UrgencyUrgent,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Payout failed"),
			Message: func(d model.TemplateData) string {
				return "Your payout" + amountClause(" of ", d) + clause(" for order #", d.OrderNumber) + " could not be processed." +
					reasonSentence(d.Reason) + " Please check your payout settings."
			},
			ActionURL: staticLink("/vendor/payouts"),
		},
		{
			Type:     model.NotificationLowStock,
			Urgency:  model.UrgencyInfo,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Low stock"),
			Message: func(d model.TemplateData) string {
				left := ""
				if d.Quantity > 0 {
					left = fmt.Sprintf(" (%d left)", d.Quantity)
				}
				return orDefault(d.ProductName, "One of your products") + " is running low" + left + "."
			},
			ActionURL: staticLink("/vendor/listings"),
		},
		{
			Type:     model.NotificationOutOfStock,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Out of stock"),
			Message: func(d model.TemplateData) string {
				return orDefault(d.ProductName, "One of your products") +
					" is out of stock and hidden from buyers until you restock it."
			},
			ActionURL: staticLink("/vendor/listings"),
		},
		{
			Type:     model.NotificationNewReview,
			Urgency:  model.UrgencyInfo,
			Audience: model.AudienceVendor,
			Title:    staticTitle("New review"),
			Message: func(d model.TemplateData) string {
				rating := ""
				if d.Rating > 0 {
					rating = fmt.Sprintf(" %d-star", d.Rating)
				}
				return orDefault(d.BuyerName, "A customer") + " left a" + rating + " review" + clause(" for ", d.ProductName) + "."
			},
			ActionURL: staticLink("/vendor/reviews"),
		},
		{
			Type:     model.NotificationSubscriptionUpgraded,
			Urgency:  model.UrgencyInfo,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Subscription upgraded"),
			Message: func(d model.TemplateData) string {
				return "Your subscription has been upgraded" + clause(" to ", d.TierName) + ". Enjoy your new features!"
			},
			ActionURL: staticLink("/vendor/subscription"),
		},
		{
			Type:     model.NotificationSubscriptionPaymentFailed,
			Urgency:  model.UrgencyUrgent,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Subscription payment failed"),
			Message: func(d model.TemplateData) string {
				return "We couldn't process your subscription payment" + amountClause(" of ", d) +
					wrapped(" for the ", d.TierName, " plan") + ". Update your payment method to keep your benefits."
			},
			ActionURL: staticLink("/vendor/subscription"),
		},
		{
			Type:     model.NotificationTrialEnding,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceVendor,
			Title:    staticTitle("Trial ending soon"),
			Message: func(d model.TemplateData) string {
				when := "soon"
				switch {
				case d.DaysRemaining == 1:
					when = "in 1 day"
				case d.DaysRemaining > 1:
					when = fmt.Sprintf("in %d days", d.DaysRemaining)
				}
				return "Your" + clause(" ", d.TierName) + " trial ends " + when + ". Choose a plan to keep your features."
			},
			ActionURL: staticLink("/vendor/subscription"),
		},

		// Admin
		{
			Type:     model.NotificationNewVendorApplication,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceAdmin,
			Title:    staticTitle("New vendor application"),
			Message: func(d model.TemplateData) string {
				name := orDefault(d.ApplicantName, orDefault(d.VendorName, "A new vendor"))
				return name + " submitted a vendor application and is waiting for review."
			},
			ActionURL: staticLink("/admin/vendors"),
		},
		{
			Type:     model.NotificationFeedbackReceived,
			Urgency:  model.UrgencyInfo,
			Audience: model.AudienceAdmin,
			Title:    staticTitle("New feedback received"),
			Message: func(d model.TemplateData) string {
				return orDefault(d.BuyerName, orDefault(d.VendorName, "A user")) + " submitted new feedback" +
					wrapped(" (", d.FeedbackCategory, ")") + "."
			},
			ActionURL: staticLink("/admin/feedback"),
		},
		{
			Type:     model.NotificationVendorFlagged,
			Urgency:  model.UrgencyStandard,
			Audience: model.AudienceAdmin,
			Title:    staticTitle("Vendor flagged for review"),
			Message: func(d model.TemplateData) string {
				return orDefault(d.VendorName, "A vendor") + " has been flagged for review." + reasonSentence(d.Reason)
			},
			ActionURL: func(d model.TemplateData, vertical string) string {
				if d.VendorID != "" {
					return link(vertical, "/admin/vendors/"+d.VendorID)
				}
				return link(vertical, "/admin/vendors")
			},
		},
		{
			Type:     model.NotificationDisputeOpened,
			Urgency:  model.UrgencyUrgent,
			Audience: model.AudienceAdmin,
			Title:    staticTitle("Dispute opened"),
			Message: func(d model.TemplateData) string {
				return "A dispute was opened on " + orderRefOr(d, "an order") + amountClause(" for ", d) + clause(" from ", d.VendorName) + "." +
					reasonSentence(d.Reason)
			},
			ActionURL: func(d model.TemplateData, vertical string) string {
				if d.OrderID != "" {
					return link(vertical, "/admin/orders/"+d.OrderID)
				}
				return link(vertical, "/admin/orders")
			},
		},
	}

	m := make(map[model.NotificationType]TypeConfig, len(configs))
	for _, cfg := range configs {
		if _, dup := m[cfg.Type]; dup {
			panic(fmt.Sprintf("duplicate notification config for %q", cfg.Type))
		}
		m[cfg.Type] = cfg
	}
	return m
}
