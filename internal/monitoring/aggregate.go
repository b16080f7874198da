package monitoring

import "github.com/shopspring/decimal"

// AggregateEventMetrics buckets the metric points attached to events by
// metric_id and computes count/min/max/avg/last per bucket. Events without a
// metric are skipped. avg is exact decimal sum/count, "last" is the value of
// the chronologically last event in the bucket.
func AggregateEventMetrics(events []MonitoringEvent) map[string]MetricAggregate {
	aggregates := make(map[string]MetricAggregate)

	for _, event := range events {
		metric := event.Metric
		if metric == nil {
			continue
		}
		value := metric.Value

		agg, ok := aggregates[metric.MetricID]
		if !ok {
			agg = MetricAggregate{MetricID: metric.MetricID, Unit: metric.Unit}
		}
		if agg.Unit == "" {
			agg.Unit = metric.Unit
		}

		agg.Count++
		if agg.Min == nil || value.LessThan(*agg.Min) {
			v := value
			agg.Min = &v
		}
		if agg.Max == nil || value.GreaterThan(*agg.Max) {
			v := value
			agg.Max = &v
		}
		last := value
		agg.Last = &last

		// Avg carries the running sum until finalization below.
		if agg.Avg == nil {
			sum := value
			agg.Avg = &sum
		} else {
			sum := agg.Avg.Add(value)
			agg.Avg = &sum
		}

		aggregates[metric.MetricID] = agg
	}

	for id, agg := range aggregates {
		if agg.Count > 0 && agg.Avg != nil {
			avg := agg.Avg.Div(decimal.NewFromInt(int64(agg.Count)))
			agg.Avg = &avg
			aggregates[id] = agg
		}
	}

	return aggregates
}

// AggregateDecimals computes a MetricAggregate from an ordered value series,
// used for the report-side health-factor aggregation that is independent of
// threshold events.
func AggregateDecimals(metricID, unit string, values []decimal.Decimal) MetricAggregate {
	agg := MetricAggregate{MetricID: metricID, Unit: unit, Count: len(values)}
	if len(values) == 0 {
		return agg
	}

	min, max := values[0], values[0]
	sum := decimal.Zero
	for _, v := range values {
		if v.LessThan(min) {
			min = v
		}
		if v.GreaterThan(max) {
			max = v
		}
		sum = sum.Add(v)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(values))))
	last := values[len(values)-1]

	agg.Min = &min
	agg.Max = &max
	agg.Avg = &avg
	agg.Last = &last
	return agg
}
