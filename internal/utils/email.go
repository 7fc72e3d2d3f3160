package utils

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/wneessen/go-mail"

	"github.com/AngelCas04/BuyMore/internal/models"
)

func SendConfirmationEmail(to, subject, htmlBody string, pdfAttachment []byte) error {
	msg := mail.NewMsg()

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@buymore.shop"
	}
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if pdfAttachment != nil {
		msg.AttachReader("facture_buymore.pdf", bytes.NewReader(pdfAttachment))
	}

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(order models.Order, userEmail string) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%.2f€</td>
				<td>%.2f€</td>
			</tr>`, item.Name, item.Quantity, item.Price, item.Price*float64(item.Quantity))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande BuyMore</h2>
		<p>Bonjour,</p>
		<p>Merci pour votre commande <strong>%s</strong> payée par <strong>%s</strong>.</p>
		<table width="100%%" style="border-collapse: collapse;" border="1" cellpadding="8">
			<tr style="background-color: #f0f0f0;">
				<th>Produit</th>
				<th>Quantité</th>
				<th>Prix unitaire</th>
				<th>Sous-total</th>
			</tr>
			%s
		</table>
		<h3 style="text-align: right;">Total : %.2f€</h3>
		<p>Votre facture est jointe à cet e-mail.</p>
		<p style="color: #999; font-size: 12px;">Cet e-mail a été envoyé à %s — merci de ne pas y répondre.</p>
	</div>
</body>
</html>`, order.ID.String(), order.PaymentMethod, itemsHTML, order.TotalPrice, userEmail)
}

// GenerateInvoicePDF construit la facture PDF d'une commande (QR SEPA inclus)
func GenerateInvoicePDF(order models.Order, userEmail string) ([]byte, error) {
	orderID := order.ID.String()
	frontURL := GetFrontendInvoiceBaseURL()

	iban := os.Getenv("COMPANY_IBAN")
	if iban == "" {
		iban = "ES9121000418450200051332"
	}
	bic := os.Getenv("COMPANY_BIC")
	if bic == "" {
		bic = "CAIXESBB"
	}
	companyName := os.Getenv("COMPANY_NAME")
	if companyName == "" {
		companyName = "BuyMore"
	}
	ref := fmt.Sprintf("FACT-%s", orderID)

	qrBase64, err := GenerateSepaQR(iban, bic, companyName, ref, order.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("erreur génération QR: %v", err)
	}

	return RenderInvoicePDF(frontURL, orderID, qrBase64)
}
