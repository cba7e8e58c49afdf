// internal/notifications/delivery/email.go
package delivery

import (
	"context"
	"fmt"

	"notification-engine/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI matches the subset of the SES client used here, for mocking.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESEmailClient sends live transactional email.
type SESEmailClient struct {
	client    SESAPI
	fromEmail string
	fromName  string
}

func NewSESEmailClient(client SESAPI, fromEmail, fromName string) *SESEmailClient {
	return &SESEmailClient{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (c *SESEmailClient) Send(ctx context.Context, to, subject, html string) error {
	source := c.fromEmail
	if c.fromName != "" {
		source = fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail)
	}

	_, err := c.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(html)},
			},
		},
		Source: aws.String(source),
	})
	return err
}

// PlainRenderer is the built-in fallback renderer: subject from the props'
// title, body as a minimal HTML paragraph. Production deployments plug in
// the full template renderer instead.
type PlainRenderer struct{}

func (PlainRenderer) Render(kind models.EventKind, props map[string]interface{}) (string, string, error) {
	subject, _ := props["title"].(string)
	if subject == "" {
		subject = "You have a new notification"
	}
	body, _ := props["body"].(string)
	html := fmt.Sprintf("<p>%s</p>", body)
	return subject, html, nil
}
