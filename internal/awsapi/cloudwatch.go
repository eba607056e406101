package awsapi

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/rs/zerolog/log"

	apperrors "github.com/awslens/awslens/internal/errors"
	"github.com/awslens/awslens/internal/models"
)

const (
	ec2Namespace = "AWS/EC2"
	rdsNamespace = "AWS/RDS"

	ec2DimensionName = "InstanceId"
	rdsDimensionName = "DBInstanceIdentifier"

	// 5-minute resolution for the instance charts, 1-minute for health.
	ec2MetricPeriod = 300
	rdsHealthPeriod = 60

	defaultMetricWindow = time.Hour

	// LatestLookback is how far back a datapoint may be and still count
	// as the "current" value of a metric.
	LatestLookback = 10 * time.Minute
)

// EC2ChartMetrics are the per-instance series shown on the dashboard.
var EC2ChartMetrics = []string{"CPUUtilization", "NetworkIn", "NetworkOut"}

// RDSHealthMetrics are the series the database health classifier consumes.
var RDSHealthMetrics = []string{
	"CPUUtilization",
	"FreeableMemory",
	"ReadLatency",
	"WriteLatency",
	"DiskQueueDepth",
	"DatabaseConnections",
}

// MetricStatsAPI is the CloudWatch surface the metric queries need.
type MetricStatsAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// QueryEC2Metrics fetches the chart series for one EC2 instance. Each
// metric is fetched independently; a failed metric yields an empty series,
// not an error for the whole response.
func QueryEC2Metrics(ctx context.Context, api MetricStatsAPI, instanceID, region string, window time.Duration) ([]models.MetricSeries, error) {
	return querySeries(ctx, api, seriesQuery{
		namespace:  ec2Namespace,
		dimension:  ec2DimensionName,
		resourceID: instanceID,
		region:     region,
		metrics:    EC2ChartMetrics,
		window:     window,
		period:     ec2MetricPeriod,
	})
}

// QueryRDSHealthSamples fetches the six health series for one database
// instance at 1-minute resolution over the last hour.
func QueryRDSHealthSamples(ctx context.Context, api MetricStatsAPI, dbID, region string) ([]models.MetricSeries, error) {
	return querySeries(ctx, api, seriesQuery{
		namespace:  rdsNamespace,
		dimension:  rdsDimensionName,
		resourceID: dbID,
		region:     region,
		metrics:    RDSHealthMetrics,
		window:     defaultMetricWindow,
		period:     rdsHealthPeriod,
	})
}

type seriesQuery struct {
	namespace  string
	dimension  string
	resourceID string
	region     string
	metrics    []string
	window     time.Duration
	period     int32
}

func querySeries(ctx context.Context, api MetricStatsAPI, q seriesQuery) ([]models.MetricSeries, error) {
	if q.window <= 0 {
		q.window = defaultMetricWindow
	}
	end := time.Now().UTC()
	start := end.Add(-q.window)

	series := make([]models.MetricSeries, 0, len(q.metrics))
	for _, metric := range q.metrics {
		s, err := getOneSeries(ctx, api, q, metric, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return series, apperrors.FromAPIError("cloudwatch", "GetMetricStatistics", q.region, ctx.Err())
			}
			log.Debug().
				Err(err).
				Str("region", q.region).
				Str("resource", q.resourceID).
				Str("metric", metric).
				Msg("Metric fetch failed, returning empty series")
			s = models.MetricSeries{ResourceID: q.resourceID, Metric: metric}
		}
		series = append(series, s)
	}

	return series, nil
}

func getOneSeries(ctx context.Context, api MetricStatsAPI, q seriesQuery, metric string, start, end time.Time) (models.MetricSeries, error) {
	out, err := api.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(q.namespace),
		MetricName: aws.String(metric),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(q.dimension), Value: aws.String(q.resourceID)},
		},
		StartTime:  aws.Time(start),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(q.period),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
	})
	if err != nil {
		return models.MetricSeries{}, apperrors.FromAPIError("cloudwatch", "GetMetricStatistics", q.region, err)
	}

	return seriesFromDatapoints(q.resourceID, metric, out.Datapoints), nil
}

// seriesFromDatapoints normalizes raw datapoints into a series sorted
// ascending by timestamp.
func seriesFromDatapoints(resourceID, metric string, datapoints []cwtypes.Datapoint) models.MetricSeries {
	s := models.MetricSeries{
		ResourceID: resourceID,
		Metric:     metric,
	}
	if len(datapoints) == 0 {
		return s
	}

	s.Unit = string(datapoints[0].Unit)
	s.Samples = make([]models.MetricSample, 0, len(datapoints))
	for _, dp := range datapoints {
		if dp.Timestamp == nil || dp.Average == nil {
			continue
		}
		s.Samples = append(s.Samples, models.MetricSample{
			Timestamp: dp.Timestamp.UTC(),
			Value:     *dp.Average,
		})
	}
	sort.Slice(s.Samples, func(i, j int) bool {
		return s.Samples[i].Timestamp.Before(s.Samples[j].Timestamp)
	})

	return s
}

// LatestValues extracts the newest datapoint per metric, ignoring samples
// older than the lookback window. Metrics with no recent sample are
// omitted from the map.
func LatestValues(series []models.MetricSeries, now time.Time) map[string]float64 {
	cutoff := now.Add(-LatestLookback)

	latest := make(map[string]float64, len(series))
	for _, s := range series {
		best := time.Time{}
		var value float64
		for _, sample := range s.Samples {
			if sample.Timestamp.Before(cutoff) {
				continue
			}
			if sample.Timestamp.After(best) {
				best = sample.Timestamp
				value = sample.Value
			}
		}
		if !best.IsZero() {
			latest[s.Metric] = value
		}
	}

	return latest
}
