package mailqueue

import (
	"bytes"
	"fmt"
	"html/template"
)

// Mail kinds, used as metric labels and stored with each row.
const (
	KindVerification      = "verification"
	KindLoginLink         = "login_link"
	KindParticipantJoined = "participant_joined"
	KindContactTeam       = "contact_team"
	KindContactConfirm    = "contact_confirmation"
	KindNewsletterConfirm = "newsletter_confirmation"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "verification"}}<p>Hi {{.Name}},</p>
<p>Click <a href="{{.Link}}">here</a> to verify your e-mail and activate your clothing-loop account.</p>
<p>Regards,<br>The clothing-loop team!</p>{{end}}

{{define "login_link"}}<p>Hi {{.Name}},</p>
<p>Click <a href="{{.Link}}">here</a> to log in to your clothing-loop account.</p>
<p>This link can be used once and expires soon.</p>
<p>Regards,<br>The clothing-loop team!</p>{{end}}

{{define "participant_joined"}}<p>Hi, {{.AdminName}}</p>
<p>A new participant just joined your loop.</p>
<p>Please find below the participant's contact information:</p>
<ul>
  <li>Name: {{.Name}}</li>
  <li>Email: {{.Email}}</li>
  <li>Phone: {{.Phone}}</li>
</ul>
<p>Best,</p>
<p>The Clothing Loop team</p>{{end}}

{{define "contact_team"}}<h3>Name</h3>
<p>{{.Name}}</p>
<h3>Email</h3>
<p>{{.Email}}</p>
<h3>Message</h3>
<p>{{.Message}}</p>{{end}}

{{define "contact_confirmation"}}<p>Hi {{.Name}},</p>
<p>Thank you for your message!</p>
<p>You wrote:</p>
<p>{{.Message}}</p>
<p>We will contact you as soon as possible.</p>
<p>Regards,</p>
<p>The clothing-loop team!</p>{{end}}

{{define "newsletter_confirmation"}}<p>Hi {{.Name}},</p>
<p>Thank you for subscribing!</p>
<p>Regards,</p>
<p>The clothing-loop team!</p>{{end}}
`))

// Message is a rendered mail ready to enqueue.
type Message struct {
	Kind    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

func render(kind string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, kind, data); err != nil {
		return "", fmt.Errorf("mailqueue: render %s: %w", kind, err)
	}
	return buf.String(), nil
}

// VerificationMail asks a new participant to confirm their address.
func VerificationMail(to, name, link string) (Message, error) {
	html, err := render(KindVerification, map[string]string{"Name": name, "Link": link})
	if err != nil {
		return Message{}, err
	}
	return Message{Kind: KindVerification, To: []string{to}, Subject: "Verify e-mail for clothing chain", HTML: html}, nil
}

// LoginLinkMail carries a one-time login link.
func LoginLinkMail(to, name, link string) (Message, error) {
	html, err := render(KindLoginLink, map[string]string{"Name": name, "Link": link})
	if err != nil {
		return Message{}, err
	}
	return Message{Kind: KindLoginLink, To: []string{to}, Subject: "Login to Clothing Loop", HTML: html}, nil
}

// Participant describes the account that joined a loop.
type Participant struct {
	Name  string
	Email string
	Phone string
}

// ParticipantJoinedMail notifies a chain admin of a new member.
func ParticipantJoinedMail(to, adminName string, joined Participant) (Message, error) {
	html, err := render(KindParticipantJoined, map[string]string{
		"AdminName": adminName,
		"Name":      joined.Name,
		"Email":     joined.Email,
		"Phone":     joined.Phone,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{Kind: KindParticipantJoined, To: []string{to}, Subject: "A participant just joined your Loop!", HTML: html}, nil
}

// ContactTeamMail forwards a contact form submission to the team.
func ContactTeamMail(to []string, name, email, message string) (Message, error) {
	html, err := render(KindContactTeam, map[string]string{"Name": name, "Email": email, "Message": message})
	if err != nil {
		return Message{}, err
	}
	return Message{Kind: KindContactTeam, To: to, ReplyTo: email, Subject: "ClothingLoop Contact Form - " + name, HTML: html}, nil
}

// ContactConfirmationMail acknowledges a contact form submission.
func ContactConfirmationMail(to, name, message string) (Message, error) {
	html, err := render(KindContactConfirm, map[string]string{"Name": name, "Message": message})
	if err != nil {
		return Message{}, err
	}
	return Message{Kind: KindContactConfirm, To: []string{to}, Subject: "Thank you for contacting Clothing-Loop", HTML: html}, nil
}

// NewsletterConfirmationMail acknowledges a newsletter subscription.
func NewsletterConfirmationMail(to, name string) (Message, error) {
	html, err := render(KindNewsletterConfirm, map[string]string{"Name": name})
	if err != nil {
		return Message{}, err
	}
	return Message{Kind: KindNewsletterConfirm, To: []string{to}, Subject: "Thank you for subscribing to Clothing Loop", HTML: html}, nil
}
