package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/gridplan/core/metrics"
	"github.com/kilianp07/gridplan/infra/logger"
)

// InfluxSink writes solve events and dispatch tables to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSolve writes the solve summary as one point.
func (s *InfluxSink) RecordSolve(ev coremetrics.SolveEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_solve").
		AddTag("plan_id", ev.PlanID).
		AddTag("scenario", ev.Scenario).
		AddTag("status", ev.Status).
		AddTag("component", "planner").
		AddField("objective", round3(ev.Objective)).
		AddField("duration_ms", round3(float64(ev.Duration)/float64(time.Millisecond))).
		AddField("periods", ev.Periods).
		AddField("sources", ev.Sources).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordGeneration writes one point per (source, period) of the plan.
func (s *InfluxSink) RecordGeneration(points []coremetrics.GenerationPoint) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, gp := range points {
		p := write.NewPointWithMeasurement("dispatch_generation").
			AddTag("plan_id", gp.PlanID).
			AddTag("scenario", gp.Scenario).
			AddTag("source", gp.Source).
			AddTag("component", "planner").
			AddField("period", gp.Period).
			AddField("energy", round3(gp.Energy)).
			SetTime(gp.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordStorage writes the storage trajectory of the plan.
func (s *InfluxSink) RecordStorage(points []coremetrics.StoragePoint) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, sp := range points {
		p := write.NewPointWithMeasurement("dispatch_storage").
			AddTag("plan_id", sp.PlanID).
			AddTag("scenario", sp.Scenario).
			AddTag("component", "planner").
			AddField("period", sp.Period).
			AddField("charge", round3(sp.Charge)).
			AddField("discharge", round3(sp.Discharge)).
			AddField("soc", round3(sp.SOC)).
			SetTime(sp.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
