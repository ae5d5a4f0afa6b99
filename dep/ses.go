package dep

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/ayushbirla71/survey-backend/config"
)

type sesService struct {
	cfg    config.Mail
	client *sesv2.Client
}

// NewSesService uses the static keys in cfg when set and the default AWS credential chain otherwise.
func NewSesService(ctx context.Context, cfg config.Mail) (MailService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.SES.Region),
	}
	if cfg.SES.AccessKeyID != "" && cfg.SES.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SES.AccessKeyID, cfg.SES.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &sesService{
		cfg:    cfg,
		client: sesv2.NewFromConfig(awsCfg),
	}, nil
}

func (s *sesService) SendEmail(ctx context.Context, msg *Email) error {
	if err := msg.validate(); err != nil {
		return err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(formatAddress(s.cfg.FromName, s.cfg.From)),
		Destination: &types.Destination{
			ToAddresses: []string{formatAddress(msg.ToName, msg.To)},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.Html), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: sesTags(msg.Tags),
	}
	if s.cfg.ReplyTo != "" {
		input.ReplyToAddresses = []string{s.cfg.ReplyTo}
	}
	if s.cfg.SES.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(s.cfg.SES.ConfigurationSet)
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	return nil
}

func (s *sesService) Provider() string {
	return config.MailProviderSES
}

func (s *sesService) Close(_ context.Context) error {
	return nil
}

func sesTags(tags map[string]string) []types.MessageTag {
	if len(tags) == 0 {
		return nil
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	messageTags := make([]types.MessageTag, 0, len(keys))
	for _, k := range keys {
		messageTags = append(messageTags, types.MessageTag{
			Name:  aws.String(k),
			Value: aws.String(tags[k]),
		})
	}
	return messageTags
}
