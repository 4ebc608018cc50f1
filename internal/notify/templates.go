package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"abaya-store/internal/model"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	confirmationSubject = "Your Order Confirmation - Abaya Designs"
	adminSubjectFormat  = "New Order #%s - Abaya Designs"
)

var statusSubjects = map[model.OrderStatus]string{
	model.OrderStatusProcessing: "Your order #%s is now being processed",
	model.OrderStatusShipped:    "Your order #%s has shipped!",
	model.OrderStatusDelivered:  "Your order #%s has been delivered",
	model.OrderStatusCancelled:  "Your order #%s has been cancelled",
	model.OrderStatusPending:    "Your order #%s is pending",
}

// Composer renders the storefront's transactional emails.
type Composer struct {
	tmpl       *template.Template
	adminEmail string
	storeURL   string
	now        func() time.Time
}

// NewComposer parses the embedded templates. Admin notifications go to adminEmail,
// which also appears as the support contact in customer mail.
func NewComposer(adminEmail, storeURL string) (*Composer, error) {
	tmpl, err := template.New("mail").Funcs(template.FuncMap{
		"rupees":       FormatRupees,
		"itemName":     itemName,
		"paymentLabel": paymentLabel,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}

	return &Composer{
		tmpl:       tmpl,
		adminEmail: adminEmail,
		storeURL:   strings.TrimRight(storeURL, "/"),
		now:        time.Now,
	}, nil
}

// OrderConfirmation renders the customer's receipt for a newly placed order.
func (c *Composer) OrderConfirmation(order *model.Order) (Message, error) {
	body, err := c.render("customer_confirmation.html", map[string]any{
		"Order":        order,
		"Reference":    OrderReference(order.ID, 6),
		"SupportEmail": c.adminEmail,
		"Year":         c.now().Year(),
	})
	if err != nil {
		return Message{}, err
	}

	return Message{To: order.Email, Subject: confirmationSubject, HTML: body}, nil
}

// AdminNewOrder renders the shop owner's notification. ok is false when no admin
// address is configured.
func (c *Composer) AdminNewOrder(order *model.Order) (msg Message, ok bool, err error) {
	if c.adminEmail == "" {
		return Message{}, false, nil
	}

	body, err := c.render("admin_new_order.html", map[string]any{
		"Order":    order,
		"StoreURL": c.storeURL,
	})
	if err != nil {
		return Message{}, false, err
	}

	return Message{
		To:      c.adminEmail,
		Subject: fmt.Sprintf(adminSubjectFormat, OrderReference(order.ID, 6)),
		HTML:    body,
	}, true, nil
}

// StatusChange renders the buyer's notification for a new order status.
// Unknown statuses use the pending wording.
func (c *Composer) StatusChange(order *model.Order, name, email string, status model.OrderStatus) (Message, error) {
	subject, ok := statusSubjects[status]
	if !ok {
		status = model.OrderStatusPending
		subject = statusSubjects[status]
	}
	ref := OrderReference(order.ID, 8)

	body, err := c.render("status_"+string(status), map[string]any{
		"Name":      name,
		"Reference": ref,
	})
	if err != nil {
		return Message{}, err
	}

	return Message{To: email, Subject: fmt.Sprintf(subject, ref), HTML: body}, nil
}

func (c *Composer) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// OrderReference returns the last n hex characters of an order id, upper-cased.
func OrderReference(id fmt.Stringer, n int) string {
	s := strings.ReplaceAll(id.String(), "-", "")
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return strings.ToUpper(s)
}

// FormatRupees renders an amount as "Rs 12,345" or "Rs 12,345.50".
func FormatRupees(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	places := int32(0)
	if !d.Equal(d.Truncate(0)) {
		places = 2
	}
	s := d.StringFixed(places)

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return "Rs " + sign + b.String() + frac
}

func itemName(item model.OrderItem) string {
	if item.Product != nil && item.Product.Name != "" {
		return item.Product.Name
	}
	return "Product #" + item.ProductID.String()
}

func paymentLabel(method string) string {
	if method == model.PaymentMethodCOD {
		return "Cash on Delivery (COD)"
	}
	return "Bank Transfer"
}
