package notify

import (
	"context"
	"fmt"

	"github.com/yerzhan-m/utm-airspace/internal/kafka"
)

// Sender delivers flight lifecycle notifications to pilots. The
// delivery channel is a stdout stub; the worker wires real transports
// behind the same signature.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.FlightEvent) error {
	fmt.Printf("notify pilot %d: flight request %s is %s (%s)\n",
		event.PilotID, event.Token, event.Status, event.Type)
	return nil
}
