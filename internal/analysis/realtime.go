package analysis

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/farmwatch/farmwatch/internal/api"
	v2 "github.com/farmwatch/farmwatch/internal/api/v2"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/events"
	"github.com/farmwatch/farmwatch/internal/logger"
	"github.com/farmwatch/farmwatch/internal/mqtt"
	"github.com/farmwatch/farmwatch/internal/observability"
	"github.com/farmwatch/farmwatch/internal/sensors"
)

const (
	eventBusShutdownTimeout = 5 * time.Second
	sentryFlushTimeout      = 2 * time.Second
)

// Serve runs the API server, local collection, the warning scheduler and
// MQTT ingestion until ctx is cancelled.
func (r *Runtime) Serve(ctx context.Context) error {
	log := GetLogger()
	settings := r.Settings

	if err := errors.InitSentry(settings.Telemetry.SentryDSN, r.Info.GetVersion()); err != nil {
		log.Warn("error reporting disabled", logger.Error(err))
	} else if settings.Telemetry.SentryDSN != "" {
		defer errors.FlushSentry(sentryFlushTimeout)
	}

	bus, err := r.startEventBus()
	if err != nil {
		return err
	}
	defer func() {
		errors.SetEventPublisher(nil)
		if err := bus.Shutdown(eventBusShutdownTimeout); err != nil {
			log.Warn("event bus shutdown incomplete", logger.Error(err))
		}
	}()

	var collectorOpts []sensors.Option
	if settings.Sensors.MQTT.Enabled {
		client, statePub, err := r.startMQTT(ctx, bus)
		if err != nil {
			return err
		}
		defer client.Disconnect()
		if statePub != nil {
			collectorOpts = append(collectorOpts, sensors.WithPublisher(statePub))
		}
	}

	warnings := r.Warnings(bus)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return warnings.Start(gctx) })

	apiOpts := []v2.Option{
		v2.WithWarningService(warnings),
		v2.WithPreprocessor(r.Preprocessor()),
		v2.WithMetrics(r.Metrics),
		v2.WithVersion(r.Info.GetVersion()),
		v2.WithMQTTClientFactory(func() mqtt.Client {
			return mqtt.NewClient(mqtt.ConfigFromSettings(settings), nil)
		}),
	}

	if settings.Sensors.Simulate {
		collector, err := r.Collector(collectorOpts...)
		if err != nil {
			return err
		}
		apiOpts = append(apiOpts, v2.WithCollector(collector))
		g.Go(func() error { return collector.Run(gctx) })
	} else {
		log.Info("local collection disabled, waiting for MQTT readings")
	}

	if settings.WebServer.Enabled {
		server, err := api.New(settings, r.Store, apiOpts...)
		if err != nil {
			return err
		}
		g.Go(func() error { return server.Run(gctx) })
	}

	if settings.Telemetry.Enabled && settings.Telemetry.Listen != "" {
		endpoint, err := observability.NewEndpoint(settings, r.Metrics)
		if err != nil {
			return err
		}
		g.Go(func() error { return endpoint.Run(gctx) })
	}

	log.Info("farmwatch started",
		logger.String("version", r.Info.GetVersion()),
		logger.String("location", settings.Main.Location),
		logger.Bool("simulate", settings.Sensors.Simulate),
		logger.Bool("mqtt", settings.Sensors.MQTT.Enabled),
		logger.Bool("webserver", settings.WebServer.Enabled))

	err = g.Wait()
	log.Info("farmwatch stopped")
	return err
}

// startEventBus creates the bus and registers the log, metrics and
// telemetry consumers. Built errors are published to it.
func (r *Runtime) startEventBus() (*events.EventBus, error) {
	bus := events.New(events.DefaultConfig(), nil)
	consumers := []events.EventConsumer{
		events.NewLogConsumer(GetLogger().Module("events")),
		events.NewMetricsConsumer(r.Metrics.Warnings),
		events.NewTelemetryConsumer(events.GlobalTelemetryReporter{}),
	}
	for _, c := range consumers {
		if err := bus.RegisterConsumer(c); err != nil {
			return nil, err
		}
	}
	errors.SetEventPublisher(events.NewEventPublisherAdapter(bus))
	return bus, nil
}

// startMQTT connects the broker client, subscribes the ingestor and
// registers the warning and discovery publishers. A failed first connect is
// logged; the client keeps retrying in the background.
func (r *Runtime) startMQTT(ctx context.Context, bus *events.EventBus) (mqtt.Client, *mqtt.StatePublisher, error) {
	log := GetLogger()
	ms := r.Settings.Sensors.MQTT
	client := mqtt.NewClient(mqtt.ConfigFromSettings(r.Settings), r.Metrics.MQTT)

	if ms.Topic != "" {
		ingestor := sensors.NewIngestor(r.Store, r.Settings, r.Metrics.Sensors)
		if err := ingestor.Start(client); err != nil {
			return nil, nil, err
		}
	}

	if err := client.Connect(ctx); err != nil {
		log.Warn("MQTT connect failed, retrying in background",
			logger.String("broker", ms.Broker),
			logger.Error(err))
	}

	if ms.WarningTopic != "" {
		if err := bus.RegisterConsumer(mqtt.NewWarningPublisher(client, ms.WarningTopic)); err != nil {
			client.Disconnect()
			return nil, nil, err
		}
	}

	var statePub *mqtt.StatePublisher
	if ms.StateTopic != "" {
		statePub = mqtt.NewStatePublisher(client, ms.StateTopic)
	}

	if ms.Discovery.Enabled && client.IsConnected() {
		nodeID := r.Settings.Sensors.SensorID
		if nodeID == "" {
			nodeID = r.Info.GetSystemID()
		}
		discovery := mqtt.NewDiscoveryPublisher(client, &mqtt.DiscoveryConfig{
			DiscoveryPrefix: ms.Discovery.Prefix,
			StateTopic:      ms.StateTopic,
			WarningTopic:    ms.WarningTopic,
			DeviceName:      r.Settings.Main.Name,
			NodeID:          nodeID,
			Version:         r.Info.GetVersion(),
		})
		if err := discovery.PublishDiscovery(ctx); err != nil {
			log.Warn("MQTT discovery publish failed", logger.Error(err))
		}
	}
	return client, statePub, nil
}
