// Package telemetry exports launcher traces and metrics over OTLP.
//
// Telemetry is off by default. When enabled, each launch records the
// provision spans and the detection, fallback and sanity-check metrics, and
// Shutdown flushes them before the launcher exits:
//
//	tel, err := telemetry.New(ctx, cfg, telemetry.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	p := provision.New(settings,
//	    provision.WithTracerProvider(tel.TracerProvider()),
//	    provision.WithMeterProvider(tel.MeterProvider()),
//	)
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc          # or http/protobuf
//	  sample_rate: 1.0
//	  metrics: true
//	  export_interval: 15s
//	  shutdown_timeout: 2s
//
// Exporter failures never stop a kernel from starting: the instance is
// marked degraded and hands out no-op providers.
package telemetry
