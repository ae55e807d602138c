package zone

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/google/uuid"

	appconfig "github.com/ignite/domain-manager/internal/config"
)

// route53API is the subset of the Route 53 client the manager uses. Tests
// substitute a fake.
type route53API interface {
	CreateHostedZone(ctx context.Context, params *route53.CreateHostedZoneInput, optFns ...func(*route53.Options)) (*route53.CreateHostedZoneOutput, error)
	DeleteHostedZone(ctx context.Context, params *route53.DeleteHostedZoneInput, optFns ...func(*route53.Options)) (*route53.DeleteHostedZoneOutput, error)
}

// Route53 provisions hosted zones in AWS Route 53.
type Route53 struct {
	client route53API
}

// NewRoute53 creates a Route 53 zone manager. Credentials come from static
// env overrides when set, otherwise the default chain (profile locally, IAM
// role on ECS).
func NewRoute53(ctx context.Context, cfg appconfig.Route53Config) (*Route53, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if key := os.Getenv("ROUTE53_ACCESS_KEY"); key != "" {
		creds := credentials.NewStaticCredentialsProvider(key, os.Getenv("ROUTE53_SECRET_KEY"), "")
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	} else if profile := cfg.GetAWSProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Route53{client: route53.NewFromConfig(awsCfg)}, nil
}

// Create provisions a public hosted zone for the domain.
func (m *Route53) Create(ctx context.Context, domainName string) (string, error) {
	out, err := m.client.CreateHostedZone(ctx, &route53.CreateHostedZoneInput{
		Name:            aws.String(domainName),
		CallerReference: aws.String(uuid.New().String()),
		HostedZoneConfig: &types.HostedZoneConfig{
			Comment: aws.String("sending domain managed by domain-manager"),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create hosted zone for %s: %w", domainName, err)
	}
	// The API returns "/hostedzone/Z123"; store only the id.
	return strings.TrimPrefix(aws.ToString(out.HostedZone.Id), "/hostedzone/"), nil
}

// Release deletes the hosted zone.
func (m *Route53) Release(ctx context.Context, zoneID string) error {
	if zoneID == "" {
		return nil
	}
	_, err := m.client.DeleteHostedZone(ctx, &route53.DeleteHostedZoneInput{
		Id: aws.String(zoneID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete hosted zone %s: %w", zoneID, err)
	}
	return nil
}
