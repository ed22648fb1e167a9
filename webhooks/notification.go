package webhooks

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-calendar-sync/core"
)

const (
	HeaderChannelID     = "X-Goog-Channel-Id"
	HeaderChannelToken  = "X-Goog-Channel-Token"
	HeaderResourceID    = "X-Goog-Resource-Id"
	HeaderResourceState = "X-Goog-Resource-State"
	HeaderMessageNumber = "X-Goog-Message-Number"
)

const (
	// ResourceStateSync is the provider's one-time handshake ping sent when
	// a channel is created. It carries no change signal.
	ResourceStateSync      = "sync"
	ResourceStateExists    = "exists"
	ResourceStateNotExists = "not_exists"
)

// ParseNotification extracts the push-notification contract from request
// headers. The provider sends no body worth trusting; the headers are the
// payload.
func ParseNotification(headers http.Header) (core.Notification, error) {
	if headers == nil {
		return core.Notification{}, fmt.Errorf("webhooks: headers are required")
	}

	notification := core.Notification{
		ChannelID:     strings.TrimSpace(headers.Get(HeaderChannelID)),
		ChannelToken:  strings.TrimSpace(headers.Get(HeaderChannelToken)),
		ResourceID:    strings.TrimSpace(headers.Get(HeaderResourceID)),
		ResourceState: strings.ToLower(strings.TrimSpace(headers.Get(HeaderResourceState))),
		MessageNumber: strings.TrimSpace(headers.Get(HeaderMessageNumber)),
	}
	if notification.ChannelID == "" {
		return core.Notification{}, fmt.Errorf("webhooks: %s header is required", HeaderChannelID)
	}
	if notification.ResourceID == "" {
		return core.Notification{}, fmt.Errorf("webhooks: %s header is required", HeaderResourceID)
	}
	return notification, nil
}

// IsInitialHandshake reports the channel-creation ping, which acknowledges
// the watch without signaling any change.
func IsInitialHandshake(notification core.Notification) bool {
	return notification.ResourceState == ResourceStateSync
}
