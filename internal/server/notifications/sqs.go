package notifications

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newSQSClientFromConfig = func(cfg aws.Config, optFns ...func(*sqs.Options)) *sqs.Client {
		return sqs.NewFromConfig(cfg, optFns...)
	}

	sendMessage = func(c *sqs.Client, ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
		return c.SendMessage(ctx, in, optFns...)
	}
)

// SQSProducer publishes messages to an SQS queue consumed by the email
// delivery worker. Routing metadata (template slug, priority, language)
// travels in message attributes so the worker can filter without parsing
// the body.
type SQSProducer struct {
	queueURL        string
	region          string
	accessKeyID     string
	secretAccessKey string
}

// NewSQSProducer constructs a producer for the given queue. When
// accessKeyID is empty the default AWS credential chain is used.
func NewSQSProducer(queueURL, region, accessKeyID, secretAccessKey string) *SQSProducer {
	return &SQSProducer{
		queueURL:        queueURL,
		region:          region,
		accessKeyID:     accessKeyID,
		secretAccessKey: secretAccessKey,
	}
}

type messageBody struct {
	To   string            `json:"to"`
	Data map[string]string `json:"data,omitempty"`
}

func (p *SQSProducer) getClient(ctx context.Context) (*sqs.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(p.region)}
	if p.accessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(p.accessKeyID, p.secretAccessKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return newSQSClientFromConfig(cfg), nil
}

func (p *SQSProducer) Send(ctx context.Context, msg Message) error {
	client, err := p.getClient(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(messageBody{To: msg.To, Data: msg.Data})
	if err != nil {
		return err
	}

	stringAttr := func(v string) types.MessageAttributeValue {
		return types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}

	_, err = sendMessage(client, ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"template_slug": stringAttr(msg.TemplateSlug),
			"priority":      stringAttr(msg.Priority),
			"language":      stringAttr(msg.Language),
		},
	})
	return err
}
