// Package apply builds "apply by email" compose links for a listing.
package apply

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/geotsn/aggeliesergasias/models"
)

// EmailClient selects the compose URL flavour.
type EmailClient string

const (
	ClientGmail   EmailClient = "gmail"
	ClientOutlook EmailClient = "outlook"
	ClientYahoo   EmailClient = "yahoo"
	ClientDefault EmailClient = "default"
)

// ParseClient maps a query value to a client; anything unknown is ClientDefault.
func ParseClient(s string) EmailClient {
	switch c := EmailClient(strings.ToLower(strings.TrimSpace(s))); c {
	case ClientGmail, ClientOutlook, ClientYahoo:
		return c
	default:
		return ClientDefault
	}
}

// ComposeURL returns a link that opens a pre-filled message to `to`.
func ComposeURL(client EmailClient, to, subject, body string) string {
	su, bo := escape(subject), escape(body)
	switch client {
	case ClientGmail:
		return fmt.Sprintf("https://mail.google.com/mail/?view=cm&fs=1&to=%s&su=%s&body=%s", escape(to), su, bo)
	case ClientOutlook:
		return fmt.Sprintf("https://outlook.office.com/mail/deeplink/compose?to=%s&subject=%s&body=%s", escape(to), su, bo)
	case ClientYahoo:
		return fmt.Sprintf("https://compose.mail.yahoo.com/?to=%s&subject=%s&body=%s", escape(to), su, bo)
	default:
		return fmt.Sprintf("mailto:%s?subject=%s&body=%s", url.PathEscape(to), su, bo)
	}
}

// Subject is the message subject for an application to l.
func Subject(l models.Listing) string {
	return fmt.Sprintf("Application for %s position", l.Title)
}

// Body is the default message body for an application to l.
func Body(l models.Listing) string {
	return fmt.Sprintf("Dear %s,\n\nI am interested in the %s position.\n\nBest regards", l.Company, l.Title)
}

// ForListing builds the compose URL for l. ok is false when the listing has
// no contact email.
func ForListing(client EmailClient, l models.Listing) (link string, ok bool) {
	to := l.EmailValue()
	if to == "" {
		return "", false
	}
	return ComposeURL(client, to, Subject(l), Body(l)), true
}

// escape query-encodes s with spaces as %20 rather than +.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
