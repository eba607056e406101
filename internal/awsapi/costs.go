package awsapi

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/rs/zerolog/log"

	apperrors "github.com/awslens/awslens/internal/errors"
	"github.com/awslens/awslens/internal/models"
)

var errEmptyForecast = errors.New("empty forecast total")

const (
	costMetric     = "UnblendedCost"
	rdsServiceName = "Amazon Relational Database Service"

	topServiceLimit = 5
	topUsageLimit   = 10
	rdsDailyDays    = 14

	// Region spend below this is noise (rounding artifacts, free tier).
	regionCostFloor = 0.01
)

// CostExplorerAPI is the Cost Explorer surface the billing queries need.
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
	GetCostForecast(ctx context.Context, params *costexplorer.GetCostForecastInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostForecastOutput, error)
}

// QueryCosts assembles the billing summary. Cost data is best-effort: a
// failed month-to-date query marks the whole summary unavailable, while
// the secondary breakdowns degrade to empty slices individually. The
// returned summary is always usable, never an error.
func QueryCosts(ctx context.Context, api CostExplorerAPI, now time.Time) models.CostSummary {
	now = now.UTC()
	summary := models.CostSummary{FetchedAt: now}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonthStart := monthStart.AddDate(0, 1, 0)
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	// On the first of the month there is no complete day to bill yet and
	// the API rejects an empty interval, so month-to-date is zero.
	if today.After(monthStart) {
		mtd, err := sumCostAndUsage(ctx, api, monthStart, today, nil)
		if err != nil {
			log.Warn().Err(err).Msg("Month-to-date cost query failed, marking cost data unavailable")
			summary.Message = "Cost Explorer query failed: " + err.Error()
			return summary
		}
		summary.MonthToDate = round2(mtd)
	}
	summary.Available = true

	if v, err := sumCostAndUsage(ctx, api, lastMonthStart, monthStart, nil); err == nil {
		summary.LastMonth = round2(v)
	} else {
		log.Debug().Err(err).Msg("Last-month cost query failed")
	}

	if v, err := costForecast(ctx, api, today, nextMonthStart); err == nil {
		summary.Forecast = round2(v)
	} else {
		log.Debug().Err(err).Msg("Cost forecast failed, estimating from month-to-date")
		summary.Forecast = round2(summary.MonthToDate * 1.1)
		summary.ForecastIsEstimate = true
	}

	daysElapsed := now.Day() - 1
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	summary.DailyAvg = round2(summary.MonthToDate / float64(daysElapsed))

	if today.After(monthStart) {
		if totals, err := groupedCosts(ctx, api, monthStart, today, "SERVICE", nil); err == nil {
			summary.TopServices = topServiceCosts(totals, topServiceLimit)
		} else {
			log.Debug().Err(err).Msg("Service cost breakdown failed")
		}

		if totals, err := groupedCosts(ctx, api, monthStart, today, "REGION", nil); err == nil {
			summary.Regions = regionCosts(totals)
		} else {
			log.Debug().Err(err).Msg("Region cost breakdown failed")
		}

		if totals, err := groupedCosts(ctx, api, monthStart, today, "USAGE_TYPE", rdsFilter()); err == nil {
			summary.RDSByUsageType = topUsageCosts(totals, topUsageLimit)
		} else {
			log.Debug().Err(err).Msg("Database usage-type breakdown failed")
		}
	}

	if daily, err := dailyCosts(ctx, api, today.AddDate(0, 0, -rdsDailyDays), today, rdsFilter()); err == nil {
		summary.RDSDaily = daily
	} else {
		log.Debug().Err(err).Msg("Database daily cost query failed")
	}

	return summary
}

func sumCostAndUsage(ctx context.Context, api CostExplorerAPI, start, end time.Time, filter *cetypes.Expression) (float64, error) {
	out, err := api.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  dateInterval(start, end),
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{costMetric},
		Filter:      filter,
	})
	if err != nil {
		return 0, apperrors.FromAPIError("ce", "GetCostAndUsage", CostExplorerRegion, err)
	}

	var total float64
	for _, result := range out.ResultsByTime {
		total += metricAmount(result.Total)
	}
	return total, nil
}

func groupedCosts(ctx context.Context, api CostExplorerAPI, start, end time.Time, dimension string, filter *cetypes.Expression) (map[string]float64, error) {
	out, err := api.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  dateInterval(start, end),
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{costMetric},
		GroupBy: []cetypes.GroupDefinition{
			{Type: cetypes.GroupDefinitionTypeDimension, Key: aws.String(dimension)},
		},
		Filter: filter,
	})
	if err != nil {
		return nil, apperrors.FromAPIError("ce", "GetCostAndUsage", CostExplorerRegion, err)
	}

	totals := make(map[string]float64)
	for _, result := range out.ResultsByTime {
		for _, group := range result.Groups {
			if len(group.Keys) == 0 {
				continue
			}
			totals[group.Keys[0]] += metricAmount(group.Metrics)
		}
	}
	return totals, nil
}

func dailyCosts(ctx context.Context, api CostExplorerAPI, start, end time.Time, filter *cetypes.Expression) ([]models.DailyCost, error) {
	out, err := api.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  dateInterval(start, end),
		Granularity: cetypes.GranularityDaily,
		Metrics:     []string{costMetric},
		Filter:      filter,
	})
	if err != nil {
		return nil, apperrors.FromAPIError("ce", "GetCostAndUsage", CostExplorerRegion, err)
	}

	daily := make([]models.DailyCost, 0, len(out.ResultsByTime))
	for _, result := range out.ResultsByTime {
		if result.TimePeriod == nil {
			continue
		}
		daily = append(daily, models.DailyCost{
			Date:   aws.ToString(result.TimePeriod.Start),
			Amount: round2(metricAmount(result.Total)),
		})
	}
	return daily, nil
}

func costForecast(ctx context.Context, api CostExplorerAPI, start, end time.Time) (float64, error) {
	out, err := api.GetCostForecast(ctx, &costexplorer.GetCostForecastInput{
		TimePeriod:  dateInterval(start, end),
		Metric:      cetypes.MetricUnblendedCost,
		Granularity: cetypes.GranularityMonthly,
	})
	if err != nil {
		return 0, apperrors.FromAPIError("ce", "GetCostForecast", CostExplorerRegion, err)
	}
	if out.Total == nil {
		return 0, apperrors.New(apperrors.ErrorTypeInternal, "ce", "GetCostForecast", errEmptyForecast)
	}

	v, err := strconv.ParseFloat(aws.ToString(out.Total.Amount), 64)
	if err != nil {
		return 0, apperrors.New(apperrors.ErrorTypeInternal, "ce", "GetCostForecast", err)
	}
	return v, nil
}

func rdsFilter() *cetypes.Expression {
	return &cetypes.Expression{
		Dimensions: &cetypes.DimensionValues{
			Key:    cetypes.DimensionService,
			Values: []string{rdsServiceName},
		},
	}
}

func dateInterval(start, end time.Time) *cetypes.DateInterval {
	return &cetypes.DateInterval{
		Start: aws.String(start.Format("2006-01-02")),
		End:   aws.String(end.Format("2006-01-02")),
	}
}

func metricAmount(metrics map[string]cetypes.MetricValue) float64 {
	mv, ok := metrics[costMetric]
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(aws.ToString(mv.Amount), 64)
	if err != nil {
		return 0
	}
	return v
}

// topServiceCosts ranks services by spend descending, name ascending on
// ties, truncated to limit.
func topServiceCosts(totals map[string]float64, limit int) []models.ServiceCost {
	costs := make([]models.ServiceCost, 0, len(totals))
	for service, amount := range totals {
		costs = append(costs, models.ServiceCost{Service: service, Amount: round2(amount)})
	}
	sort.Slice(costs, func(i, j int) bool {
		if costs[i].Amount != costs[j].Amount {
			return costs[i].Amount > costs[j].Amount
		}
		return costs[i].Service < costs[j].Service
	})
	if len(costs) > limit {
		costs = costs[:limit]
	}
	return costs
}

// regionCosts drops near-zero regions and ranks the rest descending.
func regionCosts(totals map[string]float64) []models.RegionCost {
	costs := make([]models.RegionCost, 0, len(totals))
	for region, amount := range totals {
		if amount <= regionCostFloor {
			continue
		}
		costs = append(costs, models.RegionCost{Region: region, Amount: round2(amount)})
	}
	sort.Slice(costs, func(i, j int) bool {
		if costs[i].Amount != costs[j].Amount {
			return costs[i].Amount > costs[j].Amount
		}
		return costs[i].Region < costs[j].Region
	})
	return costs
}

func topUsageCosts(totals map[string]float64, limit int) []models.UsageCost {
	costs := make([]models.UsageCost, 0, len(totals))
	for usageType, amount := range totals {
		costs = append(costs, models.UsageCost{UsageType: usageType, Amount: round2(amount)})
	}
	sort.Slice(costs, func(i, j int) bool {
		if costs[i].Amount != costs[j].Amount {
			return costs[i].Amount > costs[j].Amount
		}
		return costs[i].UsageType < costs[j].UsageType
	})
	if len(costs) > limit {
		costs = costs[:limit]
	}
	return costs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
