package model

// NotificationPreferences are the per-user channel opt-ins stored on the user profile.
// In-app delivery is not a preference and is always on.
type NotificationPreferences struct {
	EmailOrderUpdates bool `json:"email_order_updates"`
	EmailMarketing    bool `json:"email_marketing"`
	SMSOrderUpdates   bool `json:"sms_order_updates"`
	SMSMarketing      bool `json:"sms_marketing"`
	PushEnabled       bool `json:"push_enabled"`
}

// DefaultNotificationPreferences apply when a profile has no stored preferences
// or the lookup fails.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		EmailOrderUpdates: true,
	}
}

// UserProfile is the subset of the profile row the notification service reads.
type UserProfile struct {
	ID                      string  `json:"id" db:"id"`
	Email                   *string `json:"email,omitempty" db:"email"`
	Phone                   *string `json:"phone,omitempty" db:"phone"`
	NotificationPreferences *string `json:"-" db:"notification_preferences"`
}
