package awsapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/awslens/awslens/internal/models"
)

type fakeCloudWatch struct {
	datapoints map[string][]cwtypes.Datapoint
	failFor    map[string]error
	inputs     []*cloudwatch.GetMetricStatisticsInput
}

func (f *fakeCloudWatch) GetMetricStatistics(ctx context.Context, in *cloudwatch.GetMetricStatisticsInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
	f.inputs = append(f.inputs, in)
	metric := aws.ToString(in.MetricName)
	if err, ok := f.failFor[metric]; ok {
		return nil, err
	}
	return &cloudwatch.GetMetricStatisticsOutput{Datapoints: f.datapoints[metric]}, nil
}

func TestSeriesFromDatapointsSortsAscending(t *testing.T) {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	datapoints := []cwtypes.Datapoint{
		{Timestamp: aws.Time(base.Add(10 * time.Minute)), Average: aws.Float64(30), Unit: cwtypes.StandardUnitPercent},
		{Timestamp: aws.Time(base), Average: aws.Float64(10), Unit: cwtypes.StandardUnitPercent},
		{Timestamp: aws.Time(base.Add(5 * time.Minute)), Average: aws.Float64(20), Unit: cwtypes.StandardUnitPercent},
		{Timestamp: nil, Average: aws.Float64(99)},
		{Timestamp: aws.Time(base.Add(time.Minute)), Average: nil},
	}

	s := seriesFromDatapoints("i-0abc", "CPUUtilization", datapoints)

	if s.Unit != "Percent" {
		t.Errorf("Unit = %q, want Percent", s.Unit)
	}
	if len(s.Samples) != 3 {
		t.Fatalf("expected 3 usable samples, got %d", len(s.Samples))
	}
	for i := 1; i < len(s.Samples); i++ {
		if s.Samples[i].Timestamp.Before(s.Samples[i-1].Timestamp) {
			t.Fatalf("samples not sorted ascending: %v", s.Samples)
		}
	}
	if s.Samples[0].Value != 10 || s.Samples[2].Value != 30 {
		t.Errorf("unexpected sample values: %v", s.Samples)
	}
}

func TestQueryEC2MetricsFetchesEachMetricIndependently(t *testing.T) {
	now := time.Now().UTC()
	fake := &fakeCloudWatch{
		datapoints: map[string][]cwtypes.Datapoint{
			"CPUUtilization": {
				{Timestamp: aws.Time(now.Add(-5 * time.Minute)), Average: aws.Float64(42.5), Unit: cwtypes.StandardUnitPercent},
			},
			"NetworkOut": {
				{Timestamp: aws.Time(now.Add(-5 * time.Minute)), Average: aws.Float64(1024), Unit: cwtypes.StandardUnitBytes},
			},
		},
		failFor: map[string]error{"NetworkIn": errors.New("throttled")},
	}

	series, err := QueryEC2Metrics(context.Background(), fake, "i-0abc", "us-east-1", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != len(EC2ChartMetrics) {
		t.Fatalf("expected %d series, got %d", len(EC2ChartMetrics), len(series))
	}

	byMetric := make(map[string]models.MetricSeries, len(series))
	for _, s := range series {
		byMetric[s.Metric] = s
	}
	if len(byMetric["CPUUtilization"].Samples) != 1 {
		t.Error("CPUUtilization series should have a sample")
	}
	if len(byMetric["NetworkIn"].Samples) != 0 {
		t.Error("failed metric should yield an empty series, not an error")
	}
	if len(byMetric["NetworkOut"].Samples) != 1 {
		t.Error("NetworkOut series should have a sample")
	}

	in := fake.inputs[0]
	if aws.ToString(in.Namespace) != "AWS/EC2" {
		t.Errorf("Namespace = %q", aws.ToString(in.Namespace))
	}
	if aws.ToInt32(in.Period) != 300 {
		t.Errorf("Period = %d, want 300", aws.ToInt32(in.Period))
	}
	if len(in.Dimensions) != 1 || aws.ToString(in.Dimensions[0].Name) != "InstanceId" {
		t.Errorf("unexpected dimensions: %+v", in.Dimensions)
	}
}

func TestQueryRDSHealthSamplesUsesHealthResolution(t *testing.T) {
	fake := &fakeCloudWatch{}

	series, err := QueryRDSHealthSamples(context.Background(), fake, "orders-db", "us-east-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != len(RDSHealthMetrics) {
		t.Fatalf("expected %d series, got %d", len(RDSHealthMetrics), len(series))
	}
	if len(fake.inputs) != len(RDSHealthMetrics) {
		t.Fatalf("expected one call per metric, got %d", len(fake.inputs))
	}

	for _, in := range fake.inputs {
		if aws.ToString(in.Namespace) != "AWS/RDS" {
			t.Errorf("Namespace = %q", aws.ToString(in.Namespace))
		}
		if aws.ToInt32(in.Period) != 60 {
			t.Errorf("Period = %d, want 60", aws.ToInt32(in.Period))
		}
		if aws.ToString(in.Dimensions[0].Name) != "DBInstanceIdentifier" {
			t.Errorf("dimension = %q", aws.ToString(in.Dimensions[0].Name))
		}
		window := aws.ToTime(in.EndTime).Sub(aws.ToTime(in.StartTime))
		if window != time.Hour {
			t.Errorf("window = %v, want 1h", window)
		}
	}
}

func TestLatestValuesRespectsLookback(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	series := []models.MetricSeries{
		{
			Metric: "CPUUtilization",
			Samples: []models.MetricSample{
				{Timestamp: now.Add(-9 * time.Minute), Value: 55},
				{Timestamp: now.Add(-3 * time.Minute), Value: 72},
				{Timestamp: now.Add(-6 * time.Minute), Value: 60},
			},
		},
		{
			Metric: "FreeableMemory",
			Samples: []models.MetricSample{
				{Timestamp: now.Add(-30 * time.Minute), Value: 1e9},
			},
		},
		{Metric: "ReadLatency"},
	}

	latest := LatestValues(series, now)

	if v, ok := latest["CPUUtilization"]; !ok || v != 72 {
		t.Errorf("CPUUtilization latest = %v (present=%v), want 72", v, ok)
	}
	if _, ok := latest["FreeableMemory"]; ok {
		t.Error("stale sample outside lookback should be omitted")
	}
	if _, ok := latest["ReadLatency"]; ok {
		t.Error("empty series should be omitted")
	}
}
