package sns

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/otp-auth-api/internal/config"
	"github.com/otp-auth-api/internal/domain"
)

// Gateway delivers one-time codes as real SMS messages via AWS SNS.
// Selected with SMS_PROVIDER=sns; the simulated gateway is the default.
type Gateway struct {
	client *sns.Client
}

func NewGateway(cfg *config.Config) (*Gateway, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &Gateway{client: sns.NewFromConfig(awsCfg)}, nil
}

func (g *Gateway) Send(ctx context.Context, phone, code string) error {
	message := "Your verification code: " + code
	_, err := g.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &phone,
		Message:     &message,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", domain.ErrDelivery)
	}
	return nil
}
