package invoice

import (
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"marketplace-service/internal/entity"
)

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Deliver sends the rendered PDF as an attachment. Nothing persisted changes
// here; a transport failure is returned to the caller.
func (m *Mailer) Deliver(pdf []byte, purchase *entity.Purchase, inv *entity.Invoice, to string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Your invoice %s", inv.Number))

	date := purchase.CreatedAt.Format("Jan 2, 2006")
	amount := purchase.TotalPrice.StringFixed(2)

	msg.SetBody("text/plain", fmt.Sprintf(
		"Thank you for your purchase.\n\nOrder ID: %s\nAmount: %s\nDate: %s\n\nYour invoice is attached.",
		purchase.ID, amount, date))
	msg.AddAlternative("text/html", fmt.Sprintf(
		"<p>Thank you for your purchase.</p><ul><li>Order ID: %s</li><li>Amount: %s</li><li>Date: %s</li></ul><p>Your invoice is attached.</p>",
		purchase.ID, amount, date))

	msg.Attach(inv.Number+".pdf", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdf)
		return err
	}))

	return m.dialer.DialAndSend(msg)
}

// SendContact forwards a contact-form submission to the company inbox.
func (m *Mailer) SendContact(name, email, message string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.from)
	msg.SetHeader("Reply-To", email)
	msg.SetHeader("Subject", fmt.Sprintf("Contact form: %s", name))
	msg.SetBody("text/plain", fmt.Sprintf("From: %s <%s>\n\n%s", name, email, message))

	return m.dialer.DialAndSend(msg)
}
