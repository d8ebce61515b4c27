package sse

import "time"

// ReloadNotifier is the interface services use to ask clients to resync.
type ReloadNotifier interface {
	NotifyPricingReload(scope string, visaIDs []string, failed bool)
}

// HubNotifier implements ReloadNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyPricingReload(scope string, visaIDs []string, failed bool) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&PricingEvent{
		Event:     EventPricingReload,
		Scope:     scope,
		VisaIDs:   visaIDs,
		Failed:    failed,
		Timestamp: time.Now(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (NopNotifier) NotifyPricingReload(string, []string, bool) {}
