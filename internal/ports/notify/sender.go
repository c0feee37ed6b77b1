package notify

import "context"

// Sender entrega un mensaje fuera de banda (SMS / email).
// destination es un teléfono E.164 o una dirección de email.
type Sender interface {
	Send(ctx context.Context, destination, message string) error
}

// SenderFunc adapta una función a Sender.
type SenderFunc func(ctx context.Context, destination, message string) error

func (f SenderFunc) Send(ctx context.Context, destination, message string) error {
	return f(ctx, destination, message)
}
