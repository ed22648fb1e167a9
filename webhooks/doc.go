// Package webhooks contains push-notification parsing for provider
// channels.
//
// Notifications are header-only: the channel id, resource id, and channel
// token identify the subscription, and the resource state distinguishes the
// creation handshake from a change signal. Parsing is transport-free; the
// caller owns the HTTP endpoint and response codes.
package webhooks
