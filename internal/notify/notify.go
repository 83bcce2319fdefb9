package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"sync"

	"rental-booking/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Notifier tells a customer their booking is confirmed. Implementations must
// not block the caller and must not fail the booking.
type Notifier interface {
	BookingConfirmed(b models.Booking, eq models.Equipment)
}

// Nop drops every notification.
type Nop struct{}

func (Nop) BookingConfirmed(models.Booking, models.Equipment) {}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Host overrides https://api.sendgrid.com.
	Host string
}

// SendGridNotifier e-mails booking confirmations in the background.
type SendGridNotifier struct {
	cfg SendGridConfig
	log *slog.Logger
	wg  sync.WaitGroup
}

func NewSendGridNotifier(cfg SendGridConfig, log *slog.Logger) *SendGridNotifier {
	return &SendGridNotifier{cfg: cfg, log: log}
}

type confirmationData struct {
	CustomerName  string
	BookingID     int64
	EquipmentName string
	StartDate     string
	EndDate       string
	Days          int
	TotalPrice    string
}

var htmlTemplate = template.Must(template.New("confirmation").Parse(`<p>Hola {{.CustomerName}},</p>
<p>Tu reserva #{{.BookingID}} está confirmada.</p>
<ul>
<li>Equipo: {{.EquipmentName}}</li>
<li>Desde: {{.StartDate}}</li>
<li>Hasta: {{.EndDate}} ({{.Days}} días)</li>
<li>Total: ${{.TotalPrice}}</li>
</ul>
<p>Gracias por rentar con nosotros.</p>`))

func newConfirmationData(b models.Booking, eq models.Equipment) confirmationData {
	return confirmationData{
		CustomerName:  b.CustomerName,
		BookingID:     b.ID,
		EquipmentName: eq.Name,
		StartDate:     b.StartDate.String(),
		EndDate:       b.EndDate.String(),
		Days:          b.EndDate.DaysSince(b.StartDate) + 1,
		TotalPrice:    fmt.Sprintf("%.2f", b.TotalPrice),
	}
}

// Message builds the confirmation e-mail for b.
func (n *SendGridNotifier) Message(b models.Booking, eq models.Equipment) (*mail.SGMailV3, error) {
	data := newConfirmationData(b, eq)

	subject := fmt.Sprintf("Reserva #%d confirmada: %s", data.BookingID, data.EquipmentName)
	plain := fmt.Sprintf(
		"Hola %s,\n\nTu reserva #%d está confirmada.\n\n"+
			"Equipo: %s\n"+
			"Desde: %s\n"+
			"Hasta: %s (%d días)\n"+
			"Total: $%s\n\n"+
			"Gracias por rentar con nosotros.",
		data.CustomerName, data.BookingID, data.EquipmentName,
		data.StartDate, data.EndDate, data.Days, data.TotalPrice,
	)

	var html bytes.Buffer
	if err := htmlTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}

	from := mail.NewEmail(n.cfg.FromName, n.cfg.FromEmail)
	to := mail.NewEmail(b.CustomerName, b.CustomerEmail)
	return mail.NewSingleEmail(from, subject, to, plain, html.String()), nil
}

func (n *SendGridNotifier) BookingConfirmed(b models.Booking, eq models.Equipment) {
	if n.cfg.APIKey == "" || n.cfg.FromEmail == "" {
		n.log.Warn("SendGrid not configured, confirmation e-mail not sent", "booking_id", b.ID)
		return
	}

	msg, err := n.Message(b, eq)
	if err != nil {
		n.log.Error("building confirmation e-mail", "booking_id", b.ID, "error", err)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.send(msg); err != nil {
			n.log.Error("confirmation e-mail failed", "booking_id", b.ID, "error", err)
			return
		}
		n.log.Info("confirmation e-mail sent", "booking_id", b.ID)
	}()
}

// Wait blocks until in-flight e-mails finish. Call it on shutdown.
func (n *SendGridNotifier) Wait() {
	n.wg.Wait()
}

func (n *SendGridNotifier) send(msg *mail.SGMailV3) error {
	request := sendgrid.GetRequest(n.cfg.APIKey, "/v3/mail/send", n.cfg.Host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(msg)

	response, err := sendgrid.MakeRequest(request)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
