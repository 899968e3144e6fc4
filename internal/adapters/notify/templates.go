package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

type message struct {
	Subject string
	Text    string
	HTML    string
}

func render(n ports.Notification, recipientName, appURL string) message {
	title := n.Data["lease_title"]
	if title == "" {
		title = "your lease"
	}
	var subject, body string
	switch n.Event {
	case "lease_sent":
		subject = "A lease is ready for your review"
		body = fmt.Sprintf("%s has been sent to you for review.", title)
		if note := n.Data["message"]; note != "" {
			body += " Note from the landlord: " + note
		}
	case "changes_requested":
		subject = "Changes requested on " + title
		body = fmt.Sprintf("The tenant requested changes: %s", n.Data["changes"])
	case "lease_updated":
		subject = title + " was updated"
		body = "The landlord updated the lease and sent it back for your review."
	case "lease_signed":
		subject = title + " was signed"
		body = fmt.Sprintf("The %s signed the lease. Your signature is still needed.", n.Data["signed_by"])
	case "lease_fully_executed":
		subject = title + " is fully executed"
		body = "Both parties have signed. The lease is now locked."
	case "lease_cancelled":
		subject = title + " was cancelled"
		body = "The lease was cancelled."
		if reason := n.Data["reason"]; reason != "" {
			body += " Reason: " + reason
		}
	case "lease_message":
		subject = "New message on " + title
		body = "You have a new message on the lease."
	default:
		subject = "Update on " + title
		body = fmt.Sprintf("Lease status is now %s.", strings.ReplaceAll(n.Data["status"], "_", " "))
	}

	greeting := "Hello,"
	if recipientName != "" {
		greeting = "Hello " + recipientName + ","
	}
	link := ""
	if appURL != "" {
		link = strings.TrimRight(appURL, "/") + "/leases/" + n.LeaseID.String()
	}

	text := greeting + "\n\n" + body
	htmlBody := "<p>" + html.EscapeString(greeting) + "</p><p>" + html.EscapeString(body) + "</p>"
	if link != "" {
		text += "\n\nView the lease: " + link
		htmlBody += `<p><a href="` + html.EscapeString(link) + `">View the lease</a></p>`
	}
	return message{Subject: subject, Text: text, HTML: htmlBody}
}
