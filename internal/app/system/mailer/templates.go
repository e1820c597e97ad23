// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// PieceEmailData holds data for piece notification templates.
type PieceEmailData struct {
	SiteName      string
	RecipientName string
	PieceTitle    string
	FiringType    string
	When          string // e.g. "17/10/2026"
	Link          string // optional; omitted from the body when empty
}

// BuildPieceReadyEmail tells a practician their piece came out of the kiln.
func BuildPieceReadyEmail(data PieceEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("%s: your piece %q is ready", data.SiteName, data.PieceTitle),
		TextBody: buildPieceText(data, "has been fired and is ready for pickup", "Fired on"),
		HTMLBody: buildPieceHTML(data, "has been fired and is ready for pickup.", "Fired on"),
	}
}

// BuildPieceReceivedEmail confirms a submission joined the firing queue.
func BuildPieceReceivedEmail(data PieceEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("%s: %q is waiting for the kiln", data.SiteName, data.PieceTitle),
		TextBody: buildPieceText(data, "was received and is waiting for firing", "Submitted on"),
		HTMLBody: buildPieceHTML(data, "was received and is waiting for firing.", "Submitted on"),
	}
}

func buildPieceText(data PieceEmailData, what, whenLabel string) string {
	var buf bytes.Buffer
	if data.RecipientName != "" {
		buf.WriteString(fmt.Sprintf("Hello %s,\n\n", data.RecipientName))
	} else {
		buf.WriteString("Hello,\n\n")
	}
	buf.WriteString(fmt.Sprintf("Your piece %q %s.\n\n", data.PieceTitle, what))
	buf.WriteString(fmt.Sprintf("Firing type: %s\n", data.FiringType))
	buf.WriteString(fmt.Sprintf("%s: %s\n", whenLabel, data.When))
	if data.Link != "" {
		buf.WriteString("\nSee your pieces:\n" + data.Link + "\n")
	}
	buf.WriteString(fmt.Sprintf("\n%s\n", data.SiteName))
	return buf.String()
}

type pieceHTMLData struct {
	PieceEmailData
	What      string
	WhenLabel string
}

var pieceHTML = template.Must(template.New("piece").Parse(pieceHTMLTemplate))

func buildPieceHTML(data PieceEmailData, what, whenLabel string) string {
	var buf bytes.Buffer
	_ = pieceHTML.Execute(&buf, pieceHTMLData{PieceEmailData: data, What: what, WhenLabel: whenLabel})
	return buf.String()
}

const pieceHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.SiteName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f5d4c5;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f5d4c5;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #8b6d47;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hello{{if .RecipientName}} {{.RecipientName}}{{end}},
              </p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Your piece <strong>{{.PieceTitle}}</strong> {{.What}}
              </p>
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 16px 24px; margin-bottom: 24px; font-size: 14px; color: #1f2937;">
                <div>Firing type: <strong>{{.FiringType}}</strong></div>
                <div>{{.WhenLabel}}: <strong>{{.When}}</strong></div>
              </div>
              {{if .Link}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #c8623e; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      See my pieces
                    </a>
                  </td>
                </tr>
              </table>
              {{end}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
