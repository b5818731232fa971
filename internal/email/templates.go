package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// Message is a rendered email ready to hand to a Provider.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

type templatePair struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

type view struct {
	Subject string
	Preview string
	Footer  string
	N       Notification
}

const (
	footerUsageAlerts = "You are receiving this email because usage alerts are enabled on your account. To change your notification settings, visit the account settings page."
	footerAccount     = "You are receiving this email because email notifications are enabled on your account. To change your notification settings, visit the account settings page."
	footerMarketing   = "You are receiving this email because you subscribed to marketing emails. To stop receiving them, unsubscribe in your account settings."
)

var funcs = map[string]any{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}

var (
	lowBalanceTemplates    = mustParsePair("low_balance")
	accountNoticeTemplates = mustParsePair("account_notification")
	marketingTemplates     = mustParsePair("marketing")
)

func mustParsePair(name string) templatePair {
	html := htmltemplate.Must(htmltemplate.New(name).Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html", "templates/"+name+".html"))
	text := texttemplate.Must(texttemplate.New(name).Funcs(funcs).ParseFS(templateFS,
		"templates/layout.txt", "templates/"+name+".txt"))
	return templatePair{html: html, text: text}
}

// Render produces the subject and bodies for n.
func Render(n Notification) (*Message, error) {
	var (
		pair templatePair
		v    = view{Subject: n.Subject(), N: n}
	)

	switch n := n.(type) {
	case *LowBalance:
		pair = lowBalanceTemplates
		v.Preview = fmt.Sprintf("Your account balance is low - current balance $%.2f", n.CurrentBalance)
		v.Footer = footerUsageAlerts
	case *AccountNotice:
		pair = accountNoticeTemplates
		v.Preview = n.Title
		v.Footer = footerAccount
	case *Marketing:
		pair = marketingTemplates
		v.Preview = n.PreviewText
		v.Footer = footerMarketing
	default:
		return nil, fmt.Errorf("render: unsupported notification %T", n)
	}

	var html, text bytes.Buffer
	if err := pair.html.ExecuteTemplate(&html, "layout", v); err != nil {
		return nil, fmt.Errorf("render %s html: %w", n.Type(), err)
	}
	if err := pair.text.ExecuteTemplate(&text, "layout", v); err != nil {
		return nil, fmt.Errorf("render %s text: %w", n.Type(), err)
	}

	return &Message{
		Subject: v.Subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
