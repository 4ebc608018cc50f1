package notify

import (
	"abaya-store/internal/model"

	"github.com/rs/zerolog"
)

// OrderNotifier renders order mail and queues it on a Dispatcher.
// Rendering failures and full queues are logged, never returned.
type OrderNotifier struct {
	composer   *Composer
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// NewOrderNotifier creates a notifier backed by the given composer and dispatcher.
func NewOrderNotifier(composer *Composer, dispatcher *Dispatcher, logger zerolog.Logger) *OrderNotifier {
	return &OrderNotifier{
		composer:   composer,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "order_notifier").Logger(),
	}
}

// OrderPlaced queues the customer confirmation and the admin notification.
func (n *OrderNotifier) OrderPlaced(order *model.Order) {
	msg, err := n.composer.OrderConfirmation(order)
	if err != nil {
		n.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to render confirmation email")
	} else {
		n.enqueue(msg, order, "confirmation")
	}

	admin, ok, err := n.composer.AdminNewOrder(order)
	switch {
	case err != nil:
		n.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to render admin email")
	case ok:
		n.enqueue(admin, order, "admin")
	}
}

// StatusChanged queues the status mail for the order's buyer. Orders without a buyer
// email are skipped.
func (n *OrderNotifier) StatusChanged(order *model.Order, status model.OrderStatus) {
	if order.Buyer == nil || order.Buyer.Email == "" {
		n.logger.Debug().Str("order_id", order.ID.String()).Msg("no buyer email, status mail skipped")
		return
	}

	msg, err := n.composer.StatusChange(order, order.Buyer.Name, order.Buyer.Email, status)
	if err != nil {
		n.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to render status email")
		return
	}
	n.enqueue(msg, order, "status")
}

func (n *OrderNotifier) enqueue(msg Message, order *model.Order, kind string) {
	if !n.dispatcher.Enqueue(msg) {
		n.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("kind", kind).
			Msg("mail not queued")
	}
}
