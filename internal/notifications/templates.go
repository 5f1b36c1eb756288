package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	templateGiftCard   = "gift_card.html"
	templateProofReady = "proof_ready.html"
)

type giftCardView struct {
	CustomerName   string
	Code           string
	Value          string
	RedeemURL      string
	SupportAddress string
}

type proofReadyView struct {
	CustomerName   string
	OrderID        string
	ProofURL       string
	SupportAddress string
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
