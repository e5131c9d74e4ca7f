// README: Status-change events pushed to the notification sink.
package notify

type EventType string

const (
	EventOrderStatus EventType = "orderStatus"
	EventSystem      EventType = "system"
)

type Event struct {
	Type    EventType `json:"type"`
	Payload Payload   `json:"payload"`
}

type Payload struct {
	OrderID        string         `json:"order_id,omitempty"`
	ClientID       string         `json:"client_id,omitempty"`
	DriverID       string         `json:"driver_id,omitempty"`
	Status         string         `json:"status,omitempty"`
	Message        string         `json:"message,omitempty"`
	AdditionalData map[string]any `json:"additional_data,omitempty"`
}
