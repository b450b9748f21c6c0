package client

// Variant is the visual style of a notification.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a short message shown to the user.
type Notification struct {
	Title       string
	Description string
	Variant     Variant
}

// Notifier displays notifications.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type discard struct{}

func (discard) Notify(Notification) {}

func orDiscard(n Notifier) Notifier {
	if n == nil {
		return discard{}
	}
	return n
}
