package enums

import "fmt"

// NotificationAudience scopes a notification to the party it is meant for.
type NotificationAudience string

const (
	NotificationAudienceAdmin  NotificationAudience = "admin"
	NotificationAudienceClient NotificationAudience = "client"
	NotificationAudienceDriver NotificationAudience = "driver"
)

var validNotificationAudiences = []NotificationAudience{
	NotificationAudienceAdmin,
	NotificationAudienceClient,
	NotificationAudienceDriver,
}

// String implements fmt.Stringer.
func (n NotificationAudience) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationAudience.
func (n NotificationAudience) IsValid() bool {
	for _, candidate := range validNotificationAudiences {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationAudience converts raw input into a NotificationAudience.
func ParseNotificationAudience(value string) (NotificationAudience, error) {
	for _, candidate := range validNotificationAudiences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification audience %q", value)
}
