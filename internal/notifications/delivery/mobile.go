// internal/notifications/delivery/mobile.go
package delivery

import (
	"context"
	"encoding/json"
	goerrors "errors"

	"notification-engine/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI matches the subset of the SNS client used here, for mocking.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPushClient delivers mobile push through SNS platform application
// endpoints. A disabled endpoint response is the permanent-failure signal
// that retires the device token.
type SNSPushClient struct {
	client SNSAPI
}

func NewSNSPushClient(client SNSAPI) *SNSPushClient {
	return &SNSPushClient{client: client}
}

func (c *SNSPushClient) Send(ctx context.Context, platform models.PlatformType, endpointHandle string, payload PushPayload) SendResult {
	message, err := buildPlatformMessage(platform, payload)
	if err != nil {
		return SendResult{Err: err}
	}

	_, err = c.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(endpointHandle),
		Message:          aws.String(message),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return SendResult{Err: err, PermanentFailure: isEndpointGone(err)}
	}
	return SendResult{}
}

// buildPlatformMessage wraps the payload in the per-platform envelopes SNS
// expects for MessageStructure=json.
func buildPlatformMessage(platform models.PlatformType, payload PushPayload) (string, error) {
	envelope := map[string]interface{}{
		"default": payload.Body,
	}

	switch platform {
	case models.PlatformIOS:
		apns, err := json.Marshal(map[string]interface{}{
			"aps": map[string]interface{}{
				"alert": map[string]string{
					"title": payload.Title,
					"body":  payload.Body,
				},
				"badge": payload.BadgeCount,
				"sound": "default",
			},
			"data": payload.Data,
		})
		if err != nil {
			return "", err
		}
		envelope["APNS"] = string(apns)
		envelope["APNS_SANDBOX"] = string(apns)
	case models.PlatformAndroid:
		gcm, err := json.Marshal(map[string]interface{}{
			"notification": map[string]string{
				"title": payload.Title,
				"body":  payload.Body,
			},
			"data": payload.Data,
		})
		if err != nil {
			return "", err
		}
		envelope["GCM"] = string(gcm)
	}

	out, err := json.Marshal(envelope)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func isEndpointGone(err error) bool {
	var disabled *types.EndpointDisabledException
	if goerrors.As(err, &disabled) {
		return true
	}
	var notFound *types.NotFoundException
	return goerrors.As(err, &notFound)
}
