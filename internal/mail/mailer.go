package mail

import (
	"fmt"

	"github.com/Arunmathur01/xcoinpay/internal/config" // Application configuration
	"github.com/Arunmathur01/xcoinpay/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gopkg.in/gomail.v2"         // SMTP mail client
)

// Mailer sends the KYC lifecycle notifications. All sends are best-effort:
// delivery failures are logged and never returned, so a mail outage can
// never block or fail a lifecycle mutation. A nil *Mailer is a valid no-op
// notifier — NewMailer returns nil when the SMTP config is incomplete.
type Mailer struct {
	dialer     *gomail.Dialer // SMTP connection settings
	from       string         // From address on every message
	ownerEmail string         // Recipient of review requests
}

// NewMailer builds the notifier once at startup. Returns nil (disabled)
// unless host, user, password and owner email are all configured.
func NewMailer(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" || cfg.SMTPPass == "" || cfg.OwnerEmail == "" {
		logrus.Info("SMTP not fully configured, email notifications disabled")
		return nil
	}
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	d.SSL = cfg.SMTPSecure
	return &Mailer{dialer: d, from: cfg.SMTPFrom, ownerEmail: cfg.OwnerEmail}
}

// ActionLinks carries the one-click review URLs embedded in owner mail.
type ActionLinks struct {
	Approve string // Single-use approval URL
	Reject  string // Single-use rejection URL
}

// KYCSubmitted notifies the owner that a submission is awaiting review
func (m *Mailer) KYCSubmitted(user *domain.User, kyc *domain.Kyc, links ActionLinks) {
	if m == nil {
		return // Notifications disabled
	}
	m.send(m.ownerEmail, "KYC Pending Approval - "+user.Email, "text/html",
		submissionBody(user, kyc, links))
}

// RegistrationWithKYC notifies the owner that a new user registered with
// inline KYC data already pending review
func (m *Mailer) RegistrationWithKYC(user *domain.User, kyc *domain.Kyc, links ActionLinks) {
	if m == nil {
		return // Notifications disabled
	}
	m.send(m.ownerEmail, "New Registration + KYC Pending - "+user.Email, "text/html",
		"<h3>New User Registration with KYC</h3>"+submissionBody(user, kyc, links))
}

// KYCReviewed informs the end user of the review outcome
func (m *Mailer) KYCReviewed(user *domain.User, approved bool) {
	if m == nil {
		return // Notifications disabled
	}
	if approved {
		m.send(user.Email, "KYC Approved", "text/plain",
			"Your KYC has been approved. You can now access the ICO page.")
		return
	}
	m.send(user.Email, "KYC Rejected", "text/plain",
		"Your KYC was rejected. Please re-submit with correct details.")
}

// send performs a single synchronous delivery attempt; errors are swallowed
func (m *Mailer) send(to, subject, contentType, body string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody(contentType, body)
	if err := m.dialer.DialAndSend(msg); err != nil {
		// Best-effort only: log and move on
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
			"error":   err.Error(),
		}).Error("Failed to send notification email")
	}
}

// submissionBody renders the owner review mail with the submitted identity
// fields and the one-click action buttons
func submissionBody(user *domain.User, kyc *domain.Kyc, links ActionLinks) string {
	fields := fmt.Sprintf(
		"Full Name: %s<br/>Date of Birth: %s<br/>Nationality: %s<br/>Passport ID: %s<br/>"+
			"Country: %s<br/>Address: %s<br/>City: %s<br/>Postal Code: %s",
		kyc.FullName, kyc.DateOfBirth, kyc.Nationality, kyc.PassportID,
		kyc.Country, kyc.Address, kyc.City, kyc.PostalCode)
	return fmt.Sprintf(`<h3>KYC Submission Pending</h3>
<p><strong>User:</strong> %s &lt;%s&gt;</p>
<p><strong>Submitted At:</strong> %s</p>
<div style="background:#f7f7f7;padding:12px;border-radius:6px;line-height:1.6">%s</div>
<p style="margin-top:12px">
<a href="%s" style="padding:10px 16px;background:#28a745;color:#fff;text-decoration:none;border-radius:6px;">Approve</a>
&nbsp;
<a href="%s" style="padding:10px 16px;background:#dc3545;color:#fff;text-decoration:none;border-radius:6px;">Reject</a>
</p>`,
		user.Name, user.Email, kyc.SubmittedAt.Format("2006-01-02 15:04:05 MST"),
		fields, links.Approve, links.Reject)
}
