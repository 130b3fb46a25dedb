package model

import (
	"encoding/json"
	"time"
)

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	// Buyer
	NotificationOrderPlaced            NotificationType = "order_placed"
	NotificationOrderConfirmed         NotificationType = "order_confirmed"
	NotificationOrderReady             NotificationType = "order_ready"
	NotificationOrderFulfilled         NotificationType = "order_fulfilled"
	NotificationOrderCancelledByVendor NotificationType = "order_cancelled_by_vendor"
	NotificationOrderRefunded          NotificationType = "order_refunded"
	NotificationOrderExpired           NotificationType = "order_expired"
	NotificationPickupReminder         NotificationType = "pickup_reminder"
	NotificationPickupMissed           NotificationType = "pickup_missed"
	NotificationMarketDayReminder      NotificationType = "market_day_reminder"
	NotificationVendorCancelledMarket  NotificationType = "vendor_cancelled_market"
	NotificationNewVendorAtMarket      NotificationType = "new_vendor_at_market"

	// Vendor
	NotificationNewPaidOrder                NotificationType = "new_paid_order"
	NotificationOrderCancelledByBuyer       NotificationType = "order_cancelled_by_buyer"
	NotificationVendorApproved              NotificationType = "vendor_approved"
	NotificationVendorRejected              NotificationType = "vendor_rejected"
	NotificationMarketApplicationApproved   NotificationType = "market_application_approved"
	NotificationMarketApplicationRejected   NotificationType = "market_application_rejected"
	NotificationMarketScheduleChanged       NotificationType = "market_schedule_changed"
	NotificationPayoutProcessed             NotificationType = "payout_processed"
	NotificationPayoutFailed                NotificationType = "payout_failed"
	NotificationLowStock                    NotificationType = "low_stock"
	NotificationOutOfStock                  NotificationType = "out_of_stock"
	NotificationNewReview                   NotificationType = "new_review"
	NotificationSubscriptionUpgraded        NotificationType = "subscription_upgraded"
	NotificationSubscriptionPaymentFailed   NotificationType = "subscription_payment_failed"
	NotificationTrialEnding                 NotificationType = "trial_ending"

	// Admin
	NotificationNewVendorApplication NotificationType = "new_vendor_application"
	NotificationFeedbackReceived     NotificationType = "feedback_received"
	NotificationVendorFlagged        NotificationType = "vendor_flagged"
	NotificationDisputeOpened        NotificationType = "dispute_opened"
)

// AllNotificationTypes lists every notification type in declaration order.
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		NotificationOrderPlaced,
		NotificationOrderConfirmed,
		NotificationOrderReady,
		NotificationOrderFulfilled,
		NotificationOrderCancelledByVendor,
		NotificationOrderRefunded,
		NotificationOrderExpired,
		NotificationPickupReminder,
		NotificationPickupMissed,
		NotificationMarketDayReminder,
		NotificationVendorCancelledMarket,
		NotificationNewVendorAtMarket,
		NotificationNewPaidOrder,
		NotificationOrderCancelledByBuyer,
		NotificationVendorApproved,
		NotificationVendorRejected,
		NotificationMarketApplicationApproved,
		NotificationMarketApplicationRejected,
		NotificationMarketScheduleChanged,
		NotificationPayoutProcessed,
		NotificationPayoutFailed,
		NotificationLowStock,
		NotificationOutOfStock,
		NotificationNewReview,
		NotificationSubscriptionUpgraded,
		NotificationSubscriptionPaymentFailed,
		NotificationTrialEnding,
		NotificationNewVendorApplication,
		NotificationFeedbackReceived,
		NotificationVendorFlagged,
		NotificationDisputeOpened,
	}
}

type NotificationUrgency string

const (
	UrgencyImmediate NotificationUrgency = "immediate"
	UrgencyUrgent    NotificationUrgency = "urgent"
	UrgencyStandard  NotificationUrgency = "standard"
	UrgencyInfo      NotificationUrgency = "info"
)

type NotificationChannel string

const (
	ChannelInApp NotificationChannel = "in_app"
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelPush  NotificationChannel = "push"
)

// NotificationAudience is informational only; it is not enforced on send.
type NotificationAudience string

const (
	AudienceBuyer  NotificationAudience = "buyer"
	AudienceVendor NotificationAudience = "vendor"
	AudienceAdmin  NotificationAudience = "admin"
)

// TemplateData carries the optional fields a template may read. Zero values are
// treated as absent, except AmountCents where nil means absent.
type TemplateData struct {
	OrderNumber      string `json:"order_number,omitempty"`
	OrderID          string `json:"order_id,omitempty"`
	VendorName       string `json:"vendor_name,omitempty"`
	VendorID         string `json:"vendor_id,omitempty"`
	BuyerName        string `json:"buyer_name,omitempty"`
	MarketName       string `json:"market_name,omitempty"`
	ProductName      string `json:"product_name,omitempty"`
	AmountCents      *int64 `json:"amount_cents,omitempty"`
	ItemCount        int    `json:"item_count,omitempty"`
	Quantity         int    `json:"quantity,omitempty"`
	PickupDate       string `json:"pickup_date,omitempty"`
	PickupTime       string `json:"pickup_time,omitempty"`
	MarketDate       string `json:"market_date,omitempty"`
	Reason           string `json:"reason,omitempty"`
	TierName         string `json:"tier_name,omitempty"`
	Rating           int    `json:"rating,omitempty"`
	DaysRemaining    int    `json:"days_remaining,omitempty"`
	ApplicantName    string `json:"applicant_name,omitempty"`
	FeedbackCategory string `json:"feedback_category,omitempty"`
}

// Cents is a convenience for building TemplateData literals.
func Cents(v int64) *int64 {
	return &v
}

// Notification is one persisted in-app notification row.
type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	ActionURL string           `json:"action_url" db:"action_url"`
	Data      json.RawMessage  `json:"data" db:"data"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// ChannelResult is the outcome of one channel attempt within a send.
type ChannelResult struct {
	Channel   NotificationChannel `json:"channel"`
	Success   bool                `json:"success"`
	MessageID string              `json:"message_id,omitempty"`
	Error     string              `json:"error,omitempty"`
	Skipped   bool                `json:"skipped,omitempty"`
	Reason    string              `json:"reason,omitempty"`
}

// NotificationResult aggregates every channel attempt of one send.
type NotificationResult struct {
	NotificationType    NotificationType `json:"notification_type"`
	UserID              string           `json:"user_id"`
	Channels            []ChannelResult  `json:"channels"`
	InAppNotificationID string           `json:"in_app_notification_id,omitempty"`
}

// Channel returns the result for ch, if attempted.
func (r *NotificationResult) Channel(ch NotificationChannel) (ChannelResult, bool) {
	for _, c := range r.Channels {
		if c.Channel == ch {
			return c, true
		}
	}
	return ChannelResult{}, false
}
