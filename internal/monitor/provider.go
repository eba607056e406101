package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/awslens/awslens/internal/awsapi"
	"github.com/awslens/awslens/internal/models"
)

// Provider is the cloud query surface the monitor drives. The production
// implementation wraps the AWS SDK; tests substitute fakes.
type Provider interface {
	Probe(ctx context.Context) (*models.Identity, error)
	DiscoverRegions(ctx context.Context) ([]string, error)
	EC2Instances(ctx context.Context, region string) ([]models.EC2Instance, error)
	RDSInstances(ctx context.Context, region string) ([]models.RDSInstance, error)
	EC2Metrics(ctx context.Context, region, instanceID string) ([]models.MetricSeries, error)
	RDSHealthSamples(ctx context.Context, region, dbID string) ([]models.MetricSeries, error)
	Costs(ctx context.Context, now time.Time) models.CostSummary
}

// awsProvider implements Provider against the real AWS APIs, caching one
// client bundle per region so the fan-out reuses connections across polls.
type awsProvider struct {
	mu      sync.RWMutex
	clients map[string]*awsapi.Clients
}

func newAWSProvider() *awsProvider {
	return &awsProvider{clients: make(map[string]*awsapi.Clients)}
}

// regionClients returns the cached client bundle for a region, building it
// on first use. Construction happens outside the lock so concurrent regions
// do not serialize on credential loading.
func (p *awsProvider) regionClients(ctx context.Context, region string) (*awsapi.Clients, error) {
	p.mu.RLock()
	cached, ok := p.clients[region]
	p.mu.RUnlock()
	if ok {
		return cached, nil
	}

	built, err := awsapi.NewClients(ctx, region)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.clients[region]; ok {
		return cached, nil
	}
	p.clients[region] = built
	return built, nil
}

func (p *awsProvider) Probe(ctx context.Context) (*models.Identity, error) {
	return awsapi.Probe(ctx)
}

func (p *awsProvider) DiscoverRegions(ctx context.Context) ([]string, error) {
	c, err := p.regionClients(ctx, awsapi.DefaultRegion)
	if err != nil {
		return nil, err
	}
	return awsapi.DiscoverRegions(ctx, c.EC2)
}

func (p *awsProvider) EC2Instances(ctx context.Context, region string) ([]models.EC2Instance, error) {
	c, err := p.regionClients(ctx, region)
	if err != nil {
		return nil, err
	}
	return awsapi.QueryEC2Instances(ctx, c.EC2, region)
}

func (p *awsProvider) RDSInstances(ctx context.Context, region string) ([]models.RDSInstance, error) {
	c, err := p.regionClients(ctx, region)
	if err != nil {
		return nil, err
	}
	return awsapi.QueryRDSInstances(ctx, c.RDS, region)
}

func (p *awsProvider) EC2Metrics(ctx context.Context, region, instanceID string) ([]models.MetricSeries, error) {
	c, err := p.regionClients(ctx, region)
	if err != nil {
		return nil, err
	}
	return awsapi.QueryEC2Metrics(ctx, c.CloudWatch, instanceID, region, 0)
}

func (p *awsProvider) RDSHealthSamples(ctx context.Context, region, dbID string) ([]models.MetricSeries, error) {
	c, err := p.regionClients(ctx, region)
	if err != nil {
		return nil, err
	}
	return awsapi.QueryRDSHealthSamples(ctx, c.CloudWatch, dbID, region)
}

// Costs queries Cost Explorer, which is only served from us-east-1. A
// client construction failure degrades to an unavailable summary the same
// way a query failure does.
func (p *awsProvider) Costs(ctx context.Context, now time.Time) models.CostSummary {
	c, err := p.regionClients(ctx, awsapi.CostExplorerRegion)
	if err != nil {
		return models.CostSummary{
			Message:   "Cost Explorer client unavailable: " + err.Error(),
			FetchedAt: now,
		}
	}
	return awsapi.QueryCosts(ctx, c.CostExplorer, now)
}
