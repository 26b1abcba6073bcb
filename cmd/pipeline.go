package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ftl/radarview/dsp"
	"github.com/ftl/radarview/frame"
	"github.com/ftl/radarview/publish"
	"github.com/ftl/radarview/rx"
	"github.com/ftl/radarview/scope"
	"github.com/ftl/radarview/sim"
	"github.com/ftl/radarview/telemetry"
	"github.com/ftl/radarview/telnet"
	"github.com/ftl/radarview/trace"
)

var pipelineFlags = struct {
	maxRange   float64
	interval   time.Duration
	seed       int64
	sampleRate float64

	metricsAddress string
	telnetAddress  string
	reportPeriod   time.Duration
	natsURL        string
	natsSubject    string
	redisAddress   string
	redisKey       string
	redisTTL       time.Duration

	traceContext     string
	traceDestination string
}{}

// addPipelineFlags registers the flags of the frame pipeline on the given command.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&pipelineFlags.maxRange, "max_range", envFloat("RADARVIEW_MAX_RANGE", 10000), "the displayed range in meters")
	cmd.Flags().DurationVar(&pipelineFlags.interval, "interval", envDuration("RADARVIEW_INTERVAL", frame.DefaultInterval), "the refresh interval of the display")
	cmd.Flags().Int64Var(&pipelineFlags.seed, "seed", time.Now().UnixNano(), "the seed of the synthetic source")
	cmd.Flags().Float64Var(&pipelineFlags.sampleRate, "sample_rate", 0, "label the spectrum with frequencies of this sample rate in Hz instead of bin indices")

	cmd.Flags().StringVar(&pipelineFlags.metricsAddress, "metrics_address", envString("RADARVIEW_METRICS_ADDRESS", ""), "listening address of the Prometheus /metrics endpoint")
	cmd.Flags().StringVar(&pipelineFlags.telnetAddress, "telnet_address", envString("RADARVIEW_TELNET_ADDRESS", ":7373"), "listening address of the telnet console, empty to disable")
	cmd.Flags().DurationVar(&pipelineFlags.reportPeriod, "report_period", telnet.DefaultReportPeriod, "the minimum time between two reports on the telnet console")
	cmd.Flags().StringVar(&pipelineFlags.natsURL, "nats_url", envString("RADARVIEW_NATS_URL", ""), "publish the snapshots to this NATS server")
	cmd.Flags().StringVar(&pipelineFlags.natsSubject, "nats_subject", envString("RADARVIEW_NATS_SUBJECT", publish.DefaultSubject), "the NATS subject of the snapshots")
	cmd.Flags().StringVar(&pipelineFlags.redisAddress, "redis_address", envString("RADARVIEW_REDIS_ADDRESS", ""), "store the latest snapshot in this Redis server")
	cmd.Flags().StringVar(&pipelineFlags.redisKey, "redis_key", envString("RADARVIEW_REDIS_KEY", publish.DefaultKey), "the Redis key of the latest snapshot")
	cmd.Flags().DurationVar(&pipelineFlags.redisTTL, "redis_ttl", envDuration("RADARVIEW_REDIS_TTL", publish.DefaultTTL), "the expiration of the latest snapshot in Redis")

	cmd.Flags().StringVar(&pipelineFlags.traceContext, "trace", "", "spectrum | tracks | decode")
	cmd.Flags().StringVar(&pipelineFlags.traceDestination, "trace_to", "", "file:<filename> | udp:<host:port>")
}

// payloadSource feeds the payloads of one transport into the given handler until the
// context is done or the transport is exhausted.
type payloadSource func(ctx context.Context, handler rx.PayloadHandler) error

// runPipeline runs the frame orchestrator with all configured sinks until the context is done.
func runPipeline(ctx context.Context, s scope.Scope, simulate bool, source payloadSource) {
	controls := frame.NewControls(simulate, pipelineFlags.maxRange)
	mailbox := rx.NewMailbox()
	receiver := rx.NewReceiver(uuid.NewString(), mailbox, rx.WallClock)
	receiver.Start()
	defer receiver.Stop()

	orchestrator, err := newOrchestrator(pipelineFlags.seed, sim.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("session %s", orchestrator.Session())

	if pipelineFlags.traceContext != "" {
		tracer, err := trace.New(pipelineFlags.traceContext, pipelineFlags.traceDestination)
		if err != nil {
			log.Fatalf("cannot create tracer: %v", err)
		}
		defer tracer.Stop()
		if tracer.Context() == trace.DecodeContext {
			receiver.SetTracer(tracer)
		} else {
			orchestrator.SetTracer(tracer)
		}
	}

	sinks := []frame.Sink{scope.NewSink(s)}

	if pipelineFlags.metricsAddress != "" {
		collector, err := telemetry.NewCollector(prometheus.DefaultRegisterer)
		if err != nil {
			log.Fatalf("cannot create metrics: %v", err)
		}
		stopMetrics := serveMetrics(pipelineFlags.metricsAddress, collector.Handler())
		defer stopMetrics()
		sinks = append(sinks, collector)
	}

	if pipelineFlags.telnetAddress != "" {
		console, err := telnet.NewServer(pipelineFlags.telnetAddress, formatVersion(), controls)
		if err != nil {
			log.Fatalf("cannot start telnet console: %v", err)
		}
		defer console.Stop()
		console.SetReportPeriod(pipelineFlags.reportPeriod)
		sinks = append(sinks, console)
	}

	if pipelineFlags.natsURL != "" {
		publisher, err := publish.ConnectNATS(pipelineFlags.natsURL, pipelineFlags.natsSubject)
		if err != nil {
			log.Fatal(err)
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	if pipelineFlags.redisAddress != "" {
		publisher, err := publish.ConnectRedis(ctx, pipelineFlags.redisAddress, pipelineFlags.redisKey, pipelineFlags.redisTTL)
		if err != nil {
			log.Fatal(err)
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	if source != nil {
		go func() {
			err := source(ctx, receiver)
			if err != nil {
				log.Printf("payload source failed: %v", err)
				return
			}
			log.Print("payload source finished")
		}()
	}

	err = orchestrator.Run(ctx, pipelineFlags.interval, controls, mailbox, sinks...)
	if err != nil {
		log.Print(err)
	}
	log.Printf("%d decode errors, %d payloads skipped", receiver.DecodeErrors(), receiver.Skipped())
}

func newOrchestrator(seed int64, simConfig sim.Config) (*frame.Orchestrator, error) {
	err := simConfig.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	generator := sim.NewSeededGenerator(seed, simConfig)
	spectrum := dsp.NewIndexSpectrum[float64]()
	if pipelineFlags.sampleRate > 0 {
		spectrum = dsp.NewFrequencySpectrum[float64](pipelineFlags.sampleRate)
	}
	return frame.New(frame.DefaultConfig(), generator, spectrum), nil
}

func serveMetrics(address string, handler http.Handler) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("serving metrics on %s/metrics", address)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server failed: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}
}
