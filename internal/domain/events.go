package domain

const (
	CanonicalEventClassDomain        = "domain"
	CanonicalEventClassAnalyticsOnly = "analytics_only"
)

const (
	EventDownloadCompleted = "delivery.download_completed"
	EventDeliveryExpired   = "delivery.expired"
	EventEscrowReleased    = "delivery.escrow_released"
	EventPaymentRecorded   = "delivery.payment_recorded"
)

func IsCanonicalEmittedEvent(eventType string) bool {
	switch eventType {
	case EventDownloadCompleted, EventDeliveryExpired, EventEscrowReleased, EventPaymentRecorded:
		return true
	default:
		return false
	}
}

func CanonicalEventClass(eventType string) string {
	switch eventType {
	case EventEscrowReleased, EventPaymentRecorded:
		return CanonicalEventClassDomain
	case EventDownloadCompleted, EventDeliveryExpired:
		return CanonicalEventClassAnalyticsOnly
	default:
		return ""
	}
}
