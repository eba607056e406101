package awsapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	apperrors "github.com/awslens/awslens/internal/errors"
	"github.com/awslens/awslens/internal/models"
)

// probeTimeout bounds both the dial and the response wait for the
// credential check so a broken credential chain fails fast at startup.
const probeTimeout = 3 * time.Second

var (
	probeHTTP     *http.Client
	probeHTTPOnce sync.Once
)

func probeHTTPClient() *http.Client {
	probeHTTPOnce.Do(func() {
		probeHTTP = &http.Client{Transport: newTransport(probeTimeout, probeTimeout)}
	})
	return probeHTTP
}

// CallerIdentityAPI is the STS surface the credential probe needs.
type CallerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Probe verifies that usable credentials are configured by asking STS for
// the caller identity. Returns a typed ProviderError on failure so the
// caller can distinguish missing credentials from an unreachable endpoint.
func Probe(ctx context.Context) (*models.Identity, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRetryMaxAttempts(maxRetryAttempts),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
		awsconfig.WithHTTPClient(probeHTTPClient()),
	)
	if err != nil {
		return nil, apperrors.NewConfigError("LoadDefaultConfig", err)
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	return ProbeWithClient(ctx, sts.NewFromConfig(cfg), cfg.Region)
}

// ProbeWithClient runs the identity check against a prebuilt STS client.
func ProbeWithClient(ctx context.Context, api CallerIdentityAPI, region string) (*models.Identity, error) {
	out, err := api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, apperrors.FromAPIError("sts", "GetCallerIdentity", region, err)
	}

	return &models.Identity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}, nil
}
