package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"genesis/internal/mailqueue"
)

// Sender delivers queued jobs over SMTP. It implements mailqueue.Sender.
type Sender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewSender(cfg Config) *Sender {
	return &Sender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}
}

func (s *Sender) Send(job mailqueue.Job) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, "Genesis AI")
	m.SetHeader("To", job.To)
	m.SetHeader("Subject", job.Subject)
	m.SetBody("text/html", job.Body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

var (
	confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<div style="font-family:sans-serif;max-width:600px;margin:auto">
  <h1>Welcome to Genesis Hackathon 2026</h1>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>Your registration fee of <strong>&#8377;{{.Amount}}</strong> has been received successfully.</p>
  <ul>
    <li><strong>Assessment date:</strong> will be communicated via email</li>
    <li><strong>Time limit:</strong> 45 hours from start</li>
  </ul>
  <p>Use of AI tools during the assessment is strictly prohibited. Any
  malpractice leads to disqualification without refund.</p>
  <p>Best of luck!<br>&mdash; Team Genesis</p>
</div>`))

	failureTmpl = template.Must(template.New("failure").Parse(`
<div style="font-family:sans-serif;max-width:600px;margin:auto">
  <h1>Payment Not Completed</h1>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>Your payment for the Genesis Hackathon 2026 registration did not go
  through. No money has been captured for this attempt.</p>
  <p>You can register again at any time to retry the payment.</p>
  <p>&mdash; Team Genesis</p>
</div>`))

	assessmentTmpl = template.Must(template.New("assessment").Parse(`
<div style="font-family:sans-serif;max-width:600px;margin:auto">
  <h1>Assessment Phase Active</h1>
  <p>Hello Participant,</p>
  <p>The assessment phase has officially started. You have
  <strong>45 hours</strong> to complete it.</p>
  <p><a href="{{.Link}}">Start Assessment</a></p>
  <p>Do not use any AI tools during the assessment.</p>
  <p>&mdash; Team Genesis</p>
</div>`))
)

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	// The templates are compile-time constants; execution cannot fail on
	// the data shapes used here.
	_ = t.Execute(&buf, data)
	return buf.String()
}

// ConfirmationJob builds the payment-confirmation email for a registrant.
func ConfirmationJob(name, email string, amount int) mailqueue.Job {
	return mailqueue.Job{
		To:      email,
		Subject: "Registration Confirmed – Genesis AI Hackathon 2026",
		Body: render(confirmationTmpl, struct {
			Name   string
			Amount int
		}{name, amount}),
	}
}

// FailureJob builds the payment-failure notification.
func FailureJob(name, email string) mailqueue.Job {
	return mailqueue.Job{
		To:      email,
		Subject: "Payment Failed – Genesis AI Hackathon 2026",
		Body: render(failureTmpl, struct {
			Name string
		}{name}),
	}
}

// AssessmentJob builds the assessment-start email. An empty link degrades to
// a placeholder the way the admin panel expects.
func AssessmentJob(email, link string) mailqueue.Job {
	if link == "" {
		link = "#"
	}
	return mailqueue.Job{
		To:      email,
		Subject: "Genesis Hackathon 2026 – Assessment Started",
		Body: render(assessmentTmpl, struct {
			Link string
		}{link}),
	}
}
