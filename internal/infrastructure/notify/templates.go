package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/jingally/booking-system/internal/core/domain"
)

const layout = `{{define "layout"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
<h1 style="color: #333; text-align: center;">{{.Title}}</h1>
{{template "content" .}}
{{if .Shipment}}<div style="text-align: center; margin-top: 30px;">
<p style="color: #666;">You can track your shipment using the tracking number: <strong>{{.Shipment.TrackingNumber}}</strong></p>
</div>{{end}}
</div>{{end}}
{{define "address"}}<p>{{.Street}}<br>{{.City}}, {{.State}}<br>{{.Country}}, {{.PostalCode}}</p>{{end}}
{{define "schedule"}}{{with .ScheduledPickupTime}}<p><strong>Scheduled Pickup:</strong> {{fmtTime .}}</p>{{end}}
{{with .EstimatedDeliveryTime}}<p><strong>Estimated Delivery:</strong> {{fmtTime .}}</p>{{end}}{{end}}`

const bookingContent = `{{define "content"}}{{with .Shipment}}<h2>Booking Details</h2>
<p><strong>Tracking Number:</strong> {{.TrackingNumber}}</p>
<p><strong>Status:</strong> {{.Status}}</p>
{{if .ServiceType}}<p><strong>Service Type:</strong> {{.ServiceType}}</p>{{end}}
<p><strong>Package Type:</strong> {{.PackageType}}</p>
{{if .PackageDescription}}<p><strong>Description:</strong> {{.PackageDescription}}</p>{{end}}
{{if .Fragile}}<p><strong>Fragile Package</strong></p>{{end}}
{{if .Weight}}<p><strong>Weight:</strong> {{.Weight}} kg</p>{{end}}
{{with .Dimensions}}<ul><li>Length: {{.Length}} cm</li><li>Width: {{.Width}} cm</li><li>Height: {{.Height}} cm</li></ul>{{end}}
<h3>Pickup Address</h3>{{template "address" .PickupAddress}}
<h3>Delivery Address</h3>{{template "address" .DeliveryAddress}}
<p><strong>Receiver:</strong> {{.ReceiverName}}</p>
<p><strong>Contact:</strong> {{.ReceiverPhoneNumber}}</p>
{{template "schedule" .}}
{{if not .Price.IsZero}}<p><strong>Price:</strong> ${{.Price.StringFixed 2}}</p>{{end}}
<p><strong>Payment Status:</strong> {{.PaymentStatus}}</p>{{end}}
<p style="color: #666;">Thank you for choosing our service!</p>{{end}}`

const paymentContent = `{{define "content"}}{{with .Shipment}}<h2>Payment Details</h2>
<p><strong>Amount:</strong> ${{.Price.StringFixed 2}}</p>
<p><strong>Status:</strong> {{.PaymentStatus}}</p>{{end}}
<p><strong>Date:</strong> {{fmtTime .SentAt}}</p>
{{with .Shipment}}<h2>Shipment Details</h2>
<p><strong>Tracking Number:</strong> {{.TrackingNumber}}</p>
<p><strong>Status:</strong> {{.Status}}</p>
{{template "schedule" .}}{{end}}
{{if .Account.IsReceiver}}<h2>Delivery Information</h2>{{template "address" .Shipment.DeliveryAddress}}{{end}}
<p style="color: #666;">Thank you for your payment!</p>{{end}}`

const adminBookingContent = `{{define "content"}}<p>A new shipment was booked by {{.Account.DisplayName}} ({{.Account.Email}}).</p>
{{with .Shipment}}<p><strong>Tracking Number:</strong> {{.TrackingNumber}}</p>
<p><strong>Package Type:</strong> {{.PackageType}}</p>
<p><strong>Delivery Type:</strong> {{.DeliveryType}}</p>
<h3>Pickup Address</h3>{{template "address" .PickupAddress}}
<h3>Delivery Address</h3>{{template "address" .DeliveryAddress}}
{{template "schedule" .}}{{end}}{{end}}`

const statusUpdateContent = `{{define "content"}}<p>Hello {{.Account.DisplayName}},</p>
{{with .Shipment}}<p>Your shipment <strong>{{.TrackingNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
{{with .CurrentLocation}}<p><strong>Current Location:</strong> {{.Lat}}, {{.Lng}}</p>{{end}}
{{template "schedule" .}}{{end}}{{end}}`

const verificationContent = `{{define "content"}}<h2>Welcome to Jingally Logistics!</h2>
<p>Your verification code is:</p>
<h2 style="font-size: 32px; letter-spacing: 5px; text-align: center; padding: 10px; background-color: #f5f5f5; border-radius: 5px;">{{.Code}}</h2>
<p>This code will expire in 24 hours.</p>
<p>If you didn't create an account, please ignore this email.</p>{{end}}`

// view is the data every template renders from.
type view struct {
	Title    string
	Account  domain.Account
	Shipment *domain.Shipment
	Code     string
	SentAt   time.Time
}

var funcs = template.FuncMap{
	"fmtTime": func(t any) string {
		switch v := t.(type) {
		case time.Time:
			return v.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
		case *time.Time:
			if v == nil {
				return ""
			}
			return v.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
		}
		return ""
	},
}

var templates = map[domain.NotificationKind]*template.Template{
	domain.NotifyBookingConfirmation: parse(bookingContent),
	domain.NotifyPaymentConfirmation: parse(paymentContent),
	domain.NotifyAdminBooking:        parse(adminBookingContent),
	domain.NotifyStatusUpdate:        parse(statusUpdateContent),
	domain.NotifyEmailVerification:   parse(verificationContent),
}

func parse(content string) *template.Template {
	t := template.Must(template.New("layout").Funcs(funcs).Parse(layout))
	return template.Must(t.Parse(content))
}

func render(kind domain.NotificationKind, v view) (string, error) {
	t, ok := templates[kind]
	if !ok {
		return "", fmt.Errorf("no template for %q", kind)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return "", fmt.Errorf("render %s: %w", kind, err)
	}
	return buf.String(), nil
}
