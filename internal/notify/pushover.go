package notify

import (
	"fmt"
	"strings"

	"github.com/gregdel/pushover"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxfinder/internal/trips"
)

const (
	PriorityNormal = 0
	PriorityHigh   = 1
)

// maxListed caps how many trips are spelled out in one message.
const maxListed = 5

type Notifier struct {
	app       *pushover.Pushover
	recipient *pushover.Recipient
	logger    *logrus.Logger
}

func NewNotifier(token, userKey string, logger *logrus.Logger) *Notifier {
	return &Notifier{
		app:       pushover.New(token),
		recipient: pushover.NewRecipient(userKey),
		logger:    logger,
	}
}

func (n *Notifier) Send(title, message string) error {
	return n.SendWithPriority(title, message, PriorityNormal)
}

func (n *Notifier) SendWithPriority(title, message string, priority int) error {
	msg := pushover.NewMessageWithTitle(message, title)
	msg.Priority = priority

	resp, err := n.app.SendMessage(msg, n.recipient)
	if err != nil {
		return fmt.Errorf("sending pushover notification: %w", err)
	}

	n.logger.WithFields(logrus.Fields{
		"title":      title,
		"status":     resp.Status,
		"request_id": resp.ID,
	}).Debug("notification sent")

	return nil
}

// SendNewTrips alerts about trips a watch has not seen before.
func (n *Notifier) SendNewTrips(watch string, ts []trips.Trip) error {
	title := fmt.Sprintf("TGV Max: %d new trip(s)", len(ts))
	body := fmt.Sprintf("Watch %s found new seats:\n%s", watch, FormatTrips(ts))
	return n.SendWithPriority(title, body, PriorityHigh)
}

// SendSearchSummary reports the outcome of a one-off search.
func (n *Notifier) SendSearchSummary(origin string, result trips.Result) error {
	title := "TGV Max search"
	keys := result.Keys()
	body := fmt.Sprintf("%d trip(s) from %s", result.Count(), origin)
	if len(keys) > 0 {
		body = fmt.Sprintf("%s\n%s", body, strings.Join(keys, ", "))
	}
	return n.Send(title, body)
}

// FormatTrips renders up to maxListed trips, one per line.
func FormatTrips(ts []trips.Trip) string {
	var lines []string
	for i, t := range ts {
		if i == maxListed {
			lines = append(lines, fmt.Sprintf("... and %d more", len(ts)-maxListed))
			break
		}
		lines = append(lines, fmt.Sprintf("%s %s %s -> %s (%s)",
			t.Date, t.DepartureTime, t.Origin, t.Destination, t.ArrivalTime))
	}
	return strings.Join(lines, "\n")
}
