package awsapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
)

type fakeCostExplorer struct {
	usageFn    func(in *costexplorer.GetCostAndUsageInput) (*costexplorer.GetCostAndUsageOutput, error)
	forecastFn func(in *costexplorer.GetCostForecastInput) (*costexplorer.GetCostForecastOutput, error)

	usageInputs    []*costexplorer.GetCostAndUsageInput
	forecastInputs []*costexplorer.GetCostForecastInput
}

func (f *fakeCostExplorer) GetCostAndUsage(ctx context.Context, in *costexplorer.GetCostAndUsageInput, _ ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	f.usageInputs = append(f.usageInputs, in)
	return f.usageFn(in)
}

func (f *fakeCostExplorer) GetCostForecast(ctx context.Context, in *costexplorer.GetCostForecastInput, _ ...func(*costexplorer.Options)) (*costexplorer.GetCostForecastOutput, error) {
	f.forecastInputs = append(f.forecastInputs, in)
	if f.forecastFn == nil {
		return nil, errors.New("no forecast configured")
	}
	return f.forecastFn(in)
}

func totalOutput(amount string) *costexplorer.GetCostAndUsageOutput {
	return &costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []cetypes.ResultByTime{
			{Total: map[string]cetypes.MetricValue{"UnblendedCost": {Amount: aws.String(amount)}}},
		},
	}
}

func groupedOutput(groups map[string]string) *costexplorer.GetCostAndUsageOutput {
	result := cetypes.ResultByTime{}
	for key, amount := range groups {
		result.Groups = append(result.Groups, cetypes.Group{
			Keys:    []string{key},
			Metrics: map[string]cetypes.MetricValue{"UnblendedCost": {Amount: aws.String(amount)}},
		})
	}
	return &costexplorer.GetCostAndUsageOutput{ResultsByTime: []cetypes.ResultByTime{result}}
}

func groupKey(in *costexplorer.GetCostAndUsageInput) string {
	if len(in.GroupBy) == 0 {
		return ""
	}
	return aws.ToString(in.GroupBy[0].Key)
}

func scriptedUsage(t *testing.T) func(in *costexplorer.GetCostAndUsageInput) (*costexplorer.GetCostAndUsageOutput, error) {
	return func(in *costexplorer.GetCostAndUsageInput) (*costexplorer.GetCostAndUsageOutput, error) {
		start := aws.ToString(in.TimePeriod.Start)

		if in.Granularity == cetypes.GranularityDaily {
			return &costexplorer.GetCostAndUsageOutput{
				ResultsByTime: []cetypes.ResultByTime{
					{
						TimePeriod: &cetypes.DateInterval{Start: aws.String("2026-08-23"), End: aws.String("2026-08-24")},
						Total:      map[string]cetypes.MetricValue{"UnblendedCost": {Amount: aws.String("3.5")}},
					},
					{
						TimePeriod: &cetypes.DateInterval{Start: aws.String("2026-08-24"), End: aws.String("2026-08-25")},
						Total:      map[string]cetypes.MetricValue{"UnblendedCost": {Amount: aws.String("4.25")}},
					},
				},
			}, nil
		}

		switch groupKey(in) {
		case "":
			if start == "2026-07-01" {
				return totalOutput("310.00"), nil
			}
			return totalOutput("245.67"), nil
		case "SERVICE":
			return groupedOutput(map[string]string{
				"Amazon Elastic Compute Cloud - Compute": "120.00",
				"Amazon Relational Database Service":     "80.00",
				"AWS Lambda":                             "5.00",
				"Amazon Simple Storage Service":          "20.00",
				"Amazon CloudWatch":                      "10.00",
				"AWS Key Management Service":             "0.40",
			}), nil
		case "REGION":
			return groupedOutput(map[string]string{
				"us-east-1":  "200.00",
				"eu-west-1":  "45.00",
				"ap-south-1": "0.003",
			}), nil
		case "USAGE_TYPE":
			if in.Filter == nil || in.Filter.Dimensions == nil {
				t.Error("usage-type breakdown should be filtered to the database service")
			}
			return groupedOutput(map[string]string{
				"InstanceUsage:db.r5.large": "60.00",
				"RDS:StorageUsage":          "20.00",
			}), nil
		default:
			return nil, errors.New("unexpected group key")
		}
	}
}

func TestQueryCostsAssemblesSummary(t *testing.T) {
	now := time.Date(2026, 8, 25, 15, 30, 0, 0, time.UTC)
	fake := &fakeCostExplorer{
		usageFn: scriptedUsage(t),
		forecastFn: func(in *costexplorer.GetCostForecastInput) (*costexplorer.GetCostForecastOutput, error) {
			if aws.ToString(in.TimePeriod.Start) != "2026-08-25" || aws.ToString(in.TimePeriod.End) != "2026-09-01" {
				t.Errorf("forecast window = %s..%s", aws.ToString(in.TimePeriod.Start), aws.ToString(in.TimePeriod.End))
			}
			return &costexplorer.GetCostForecastOutput{
				Total: &cetypes.MetricValue{Amount: aws.String("298.40")},
			}, nil
		},
	}

	summary := QueryCosts(context.Background(), fake, now)

	if !summary.Available {
		t.Fatalf("summary should be available: %s", summary.Message)
	}
	if summary.MonthToDate != 245.67 {
		t.Errorf("MonthToDate = %v, want 245.67", summary.MonthToDate)
	}
	if summary.LastMonth != 310.00 {
		t.Errorf("LastMonth = %v, want 310", summary.LastMonth)
	}
	if summary.Forecast != 298.40 || summary.ForecastIsEstimate {
		t.Errorf("Forecast = %v (estimate=%v), want 298.40 exact", summary.Forecast, summary.ForecastIsEstimate)
	}

	// 24 complete days elapsed by Aug 25.
	wantAvg := round2(245.67 / 24)
	if summary.DailyAvg != wantAvg {
		t.Errorf("DailyAvg = %v, want %v", summary.DailyAvg, wantAvg)
	}

	if len(summary.TopServices) != 5 {
		t.Fatalf("TopServices length = %d, want 5", len(summary.TopServices))
	}
	if summary.TopServices[0].Service != "Amazon Elastic Compute Cloud - Compute" || summary.TopServices[0].Amount != 120 {
		t.Errorf("unexpected top service: %+v", summary.TopServices[0])
	}
	for _, sc := range summary.TopServices {
		if sc.Service == "AWS Key Management Service" {
			t.Error("sixth-ranked service should be truncated from top 5")
		}
	}

	if len(summary.Regions) != 2 {
		t.Fatalf("Regions length = %d, want 2 (near-zero region dropped)", len(summary.Regions))
	}
	if summary.Regions[0].Region != "us-east-1" || summary.Regions[1].Region != "eu-west-1" {
		t.Errorf("regions not sorted by spend: %+v", summary.Regions)
	}

	if len(summary.RDSByUsageType) != 2 {
		t.Fatalf("RDSByUsageType length = %d, want 2", len(summary.RDSByUsageType))
	}
	if summary.RDSByUsageType[0].UsageType != "InstanceUsage:db.r5.large" {
		t.Errorf("usage types not sorted by spend: %+v", summary.RDSByUsageType)
	}

	if len(summary.RDSDaily) != 2 {
		t.Fatalf("RDSDaily length = %d, want 2", len(summary.RDSDaily))
	}
	if summary.RDSDaily[0].Date != "2026-08-23" || summary.RDSDaily[0].Amount != 3.5 {
		t.Errorf("unexpected daily cost: %+v", summary.RDSDaily[0])
	}

	first := fake.usageInputs[0]
	if aws.ToString(first.TimePeriod.Start) != "2026-08-01" || aws.ToString(first.TimePeriod.End) != "2026-08-25" {
		t.Errorf("MTD window = %s..%s", aws.ToString(first.TimePeriod.Start), aws.ToString(first.TimePeriod.End))
	}
}

func TestQueryCostsUnavailableWhenMTDFails(t *testing.T) {
	fake := &fakeCostExplorer{
		usageFn: func(in *costexplorer.GetCostAndUsageInput) (*costexplorer.GetCostAndUsageOutput, error) {
			return nil, errors.New("AccessDeniedException: not authorized")
		},
	}

	summary := QueryCosts(context.Background(), fake, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))

	if summary.Available {
		t.Error("summary should be unavailable when the month-to-date query fails")
	}
	if summary.Message == "" {
		t.Error("unavailable summary should carry a message")
	}
	if len(fake.usageInputs) != 1 {
		t.Errorf("should stop after the first failed query, made %d calls", len(fake.usageInputs))
	}
}

func TestQueryCostsForecastFallback(t *testing.T) {
	fake := &fakeCostExplorer{usageFn: scriptedUsage(t)}

	summary := QueryCosts(context.Background(), fake, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))

	if !summary.Available {
		t.Fatal("summary should be available")
	}
	if !summary.ForecastIsEstimate {
		t.Error("fallback forecast should be flagged as an estimate")
	}
	want := round2(245.67 * 1.1)
	if summary.Forecast != want {
		t.Errorf("Forecast = %v, want %v", summary.Forecast, want)
	}
}

func TestQueryCostsFirstOfMonth(t *testing.T) {
	var daily bool
	fake := &fakeCostExplorer{
		usageFn: func(in *costexplorer.GetCostAndUsageInput) (*costexplorer.GetCostAndUsageOutput, error) {
			if in.Granularity == cetypes.GranularityDaily {
				daily = true
				return &costexplorer.GetCostAndUsageOutput{}, nil
			}
			if groupKey(in) != "" {
				t.Errorf("no grouped month-to-date queries expected on the first of the month, got %q", groupKey(in))
			}
			// Only the last-month total should be requested.
			if aws.ToString(in.TimePeriod.Start) != "2026-08-01" || aws.ToString(in.TimePeriod.End) != "2026-09-01" {
				t.Errorf("unexpected window %s..%s", aws.ToString(in.TimePeriod.Start), aws.ToString(in.TimePeriod.End))
			}
			return totalOutput("310.00"), nil
		},
		forecastFn: func(in *costexplorer.GetCostForecastInput) (*costexplorer.GetCostForecastOutput, error) {
			return &costexplorer.GetCostForecastOutput{Total: &cetypes.MetricValue{Amount: aws.String("305")}}, nil
		},
	}

	summary := QueryCosts(context.Background(), fake, time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))

	if !summary.Available {
		t.Fatal("summary should be available on the first of the month")
	}
	if summary.MonthToDate != 0 {
		t.Errorf("MonthToDate = %v, want 0", summary.MonthToDate)
	}
	if summary.LastMonth != 310 {
		t.Errorf("LastMonth = %v, want 310", summary.LastMonth)
	}
	if summary.DailyAvg != 0 {
		t.Errorf("DailyAvg = %v, want 0", summary.DailyAvg)
	}
	if !daily {
		t.Error("the 14-day daily series should still be fetched")
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{245.674, 245.67},
		{1.006, 1.01},
		{3.14159, 3.14},
		{10, 10},
		{0, 0},
	}
	for _, tc := range cases {
		if got := round2(tc.in); got != tc.want {
			t.Errorf("round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
