// Package awsapi wraps the AWS SDK calls the dashboard depends on. Every
// query function takes a context and the narrowest client interface it
// needs so the monitor can be tested against fakes.
package awsapi

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/dnscache"
	"github.com/rs/zerolog/log"

	apperrors "github.com/awslens/awslens/internal/errors"
)

const (
	maxRetryAttempts = 3

	connectTimeout = 5 * time.Second
	readTimeout    = 10 * time.Second

	dnsRefreshTTL = 5 * time.Minute

	// DefaultRegion is used when the credential chain carries no region
	// of its own.
	DefaultRegion = "us-east-1"

	// CostExplorerRegion is the only region the Cost Explorer API is
	// served from.
	CostExplorerRegion = "us-east-1"
)

var (
	resolver     *dnscache.Resolver
	resolverOnce sync.Once
)

// cachedResolver returns the process-wide caching DNS resolver, starting
// its refresh loop on first use.
func cachedResolver() *dnscache.Resolver {
	resolverOnce.Do(func() {
		log.Info().
			Dur("ttl", dnsRefreshTTL).
			Msg("Initializing DNS resolver cache to reduce DNS query load")

		resolver = &dnscache.Resolver{}

		go func() {
			ticker := time.NewTicker(dnsRefreshTTL)
			defer ticker.Stop()

			for range ticker.C {
				resolver.Refresh(true)
				log.Debug().Msg("DNS cache refreshed")
			}
		}()
	})
	return resolver
}

// dialContextWithCache resolves through the cached resolver and dials the
// first returned address.
func dialContextWithCache(dialTimeout time.Duration) func(ctx context.Context, network, address string) (net.Conn, error) {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(address)
		if err != nil {
			return nil, err
		}

		ips, err := cachedResolver().LookupHost(ctx, host)
		if err != nil {
			return nil, err
		}
		if len(ips) == 0 {
			return nil, &net.DNSError{
				Err:  "no IP addresses found",
				Name: host,
			}
		}

		dialer := &net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}
		return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0], port))
	}
}

func newTransport(dialTimeout, responseTimeout time.Duration) *http.Transport {
	return &http.Transport{
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       90 * time.Second,
		DialContext:           dialContextWithCache(dialTimeout),
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: responseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

var (
	httpClient     *http.Client
	httpClientOnce sync.Once
)

// sharedHTTPClient is reused by every regional service client so the
// connection pool and DNS cache are shared across the whole process.
func sharedHTTPClient() *http.Client {
	httpClientOnce.Do(func() {
		httpClient = &http.Client{Transport: newTransport(connectTimeout, readTimeout)}
	})
	return httpClient
}

// Clients bundles the per-region AWS service clients.
type Clients struct {
	Region       string
	EC2          *ec2.Client
	RDS          *rds.Client
	CloudWatch   *cloudwatch.Client
	CostExplorer *costexplorer.Client
	STS          *sts.Client
}

// NewClients loads the default credential chain and builds the service
// clients for one region. All clients share the pooled HTTP client and
// retry at most three times in standard mode.
func NewClients(ctx context.Context, region string) (*Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(maxRetryAttempts),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
		awsconfig.WithHTTPClient(sharedHTTPClient()),
	)
	if err != nil {
		return nil, apperrors.NewConfigError("LoadDefaultConfig", err)
	}

	return &Clients{
		Region:       region,
		EC2:          ec2.NewFromConfig(cfg),
		RDS:          rds.NewFromConfig(cfg),
		CloudWatch:   cloudwatch.NewFromConfig(cfg),
		CostExplorer: costexplorer.NewFromConfig(cfg),
		STS:          sts.NewFromConfig(cfg),
	}, nil
}
