package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
)

// MailerConfig configures the SMTP mailer.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// AdminRecipients receive the new-order alert.
	AdminRecipients []string
	// BankName/BankAccount/BankNumber appear in the payment instructions.
	BankName    string
	BankAccount string
	BankNumber  string
}

// Mailer implements Notifier over plain SMTP.
type Mailer struct {
	cfg MailerConfig
	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a Mailer.
func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

var _ Notifier = (*Mailer)(nil)

// OrderConfirmation emails the customer their order number, total, and the
// bank transfer instructions.
func (m *Mailer) OrderConfirmation(_ context.Context, o OrderPlaced) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Halo %s,\r\n\r\n", o.CustomerName)
	fmt.Fprintf(&b, "Pesanan %s telah kami terima.\r\n", o.OrderNumber)
	fmt.Fprintf(&b, "Total pembayaran: Rp %s\r\n\r\n", o.GrandTotal.StringFixed(0))
	fmt.Fprintf(&b, "Silakan transfer ke %s a.n. %s, no. rekening %s,\r\n",
		m.cfg.BankName, m.cfg.BankAccount, m.cfg.BankNumber)
	b.WriteString("lalu unggah bukti pembayaran di halaman pesanan Anda.\r\n")

	subject := fmt.Sprintf("Pesanan %s diterima", o.OrderNumber)
	return m.sendMail([]string{o.CustomerEmail}, subject, b.String())
}

// NewOrderAlert emails every admin recipient concurrently. Any one failure is
// reported but does not stop the remaining sends.
func (m *Mailer) NewOrderAlert(ctx context.Context, o OrderPlaced) error {
	if len(m.cfg.AdminRecipients) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pesanan baru %s\r\n\r\n", o.OrderNumber)
	fmt.Fprintf(&b, "Pelanggan: %s <%s> %s\r\n", o.CustomerName, o.CustomerEmail, o.CustomerPhone)
	fmt.Fprintf(&b, "Alamat: %s\r\n\r\n", o.ShippingAddress)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "- %s x%d @ Rp %s\r\n", item.ProductName, item.Quantity, item.UnitPrice.StringFixed(0))
	}
	fmt.Fprintf(&b, "\r\nOngkir: Rp %s\r\n", o.ShippingCost.StringFixed(0))
	fmt.Fprintf(&b, "Total: Rp %s\r\n", o.GrandTotal.StringFixed(0))

	subject := fmt.Sprintf("Pesanan baru %s", o.OrderNumber)
	body := b.String()

	g, _ := errgroup.WithContext(ctx)
	for _, rcpt := range m.cfg.AdminRecipients {
		g.Go(func() error {
			return m.sendMail([]string{rcpt}, subject, body)
		})
	}
	return g.Wait()
}

func (m *Mailer) sendMail(to []string, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.From, to, []byte(msg.String())); err != nil {
		return errors.Wrapf(err, "send mail to %s", strings.Join(to, ", "))
	}
	return nil
}
