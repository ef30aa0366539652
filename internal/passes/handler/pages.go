package handler

import (
	"embed"
	"html/template"

	"visitorpass/pkg/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	dateLayout     = "Jan 2, 2006"
	timeLayout     = "03:04 PM"
	dateTimeLayout = "Jan 2, 2006 15:04 MST"
)

const (
	msgPassNotFound  = "Pass not found or has expired"
	msgPassLoadError = "Unable to load visitor pass"
)

// Pages holds the parsed HTML views.
type Pages struct {
	ticket    *template.Template
	errorPage *template.Template
	home      *template.Template
}

func LoadPages() (*Pages, error) {
	root, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Pages{
		ticket:    root.Lookup("ticket"),
		errorPage: root.Lookup("error"),
		home:      root.Lookup("home"),
	}, nil
}

type ticketView struct {
	Pass        model.Pass
	QRCode      template.URL
	Expired     bool
	CreatedDate string
	CreatedTime string
	ValidFrom   string
	ValidUntil  string
}

// newTicketView marks qrDataURL as a trusted URL. It must come from the QR
// generator, never from request input.
func newTicketView(pass model.Pass, qrDataURL string, expired bool) ticketView {
	return ticketView{
		Pass:        pass,
		QRCode:      template.URL(qrDataURL),
		Expired:     expired,
		CreatedDate: pass.CreatedAt.Format(dateLayout),
		CreatedTime: pass.CreatedAt.Format(timeLayout),
		ValidFrom:   pass.ValidFrom.Format(dateTimeLayout),
		ValidUntil:  pass.ValidTo.Format(dateTimeLayout),
	}
}

type errorView struct {
	Title   string
	Message string
}

type homeView struct {
	CreateURL    string
	ActivePasses int
}
