package notify

import (
	"encoding/json"
	"log"
	"time"
)

// Event actions broadcast to connected clients
const (
	EventSubmitted = "SUBMITTED"
	EventApproved  = "APPROVED"
	EventRejected  = "REJECTED"
)

// Event describes a workflow transition on a document
type Event struct {
	Kind      string    `json:"kind"`   // QUOTATION, PURCHASE_REQUEST, EXPENSE, SPEC_ORDER, CORPORATE_ACCOUNT
	Action    string    `json:"action"` // SUBMITTED, APPROVED, REJECTED
	DocNo     string    `json:"doc_no"`
	Actor     string    `json:"actor,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Recipient string    `json:"-"` // submitter email for decision mails, never serialized
	At        time.Time `json:"at"`
}

// Notifier fans workflow events out to whoever is listening. Implementations
// must not fail the business transaction — delivery is best effort.
type Notifier interface {
	DocumentEvent(e Event)
}

// Broadcaster is the piece of the websocket hub the notifier needs
type Broadcaster interface {
	BroadcastRaw(message []byte)
}

type notifier struct {
	hub    Broadcaster
	mailer *Mailer
}

// New builds a Notifier over the websocket hub and an optional mailer
// (pass nil to disable email delivery).
func New(hub Broadcaster, mailer *Mailer) Notifier {
	return &notifier{hub: hub, mailer: mailer}
}

func (n *notifier) DocumentEvent(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		log.Printf("notify: failed to marshal event for %s: %v", e.DocNo, err)
		return
	}
	if n.hub != nil {
		n.hub.BroadcastRaw(payload)
	}

	// Decision mails go to the submitter only
	if n.mailer != nil && e.Recipient != "" && (e.Action == EventApproved || e.Action == EventRejected) {
		if err := n.mailer.SendDecision(e.Recipient, e); err != nil {
			log.Printf("notify: failed to send decision mail for %s: %v", e.DocNo, err)
		}
	}
}

// NopNotifier discards all events; used in tests and when realtime is disabled
type NopNotifier struct{}

func (NopNotifier) DocumentEvent(Event) {}
