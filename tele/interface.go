package tele

// Sender delivers encoded frame for topic. Fire-and-forget: nil error
// means frame was handed to network, not that anyone received it.
type Sender interface {
	Send(topic Topic, frame []byte) error
}

type SenderFunc func(topic Topic, frame []byte) error

func (f SenderFunc) Send(topic Topic, frame []byte) error { return f(topic, frame) }
