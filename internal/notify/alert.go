package notify

import "time"

// Alert is the wire form of one firing. The webhook presenter posts it and
// the control socket pushes it to watching clients.
type Alert struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Time    string    `json:"time"`
	Group   string    `json:"group,omitempty"`
	FiredAt time.Time `json:"firedAt"`
}

// NewAlert renders a firing event into its wire form.
func NewAlert(event Event) Alert {
	return Alert{
		ID:      event.Alarm.ID,
		Title:   event.Title(),
		Body:    event.Body(),
		Time:    event.Alarm.Time,
		Group:   event.Group,
		FiredAt: event.FiredAt,
	}
}
