package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mosical/pico-venti/internal/api"
	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/controller"
	"github.com/Mosical/pico-venti/internal/fans"
	"github.com/Mosical/pico-venti/internal/persistence"
	"github.com/Mosical/pico-venti/internal/platform"
	"github.com/Mosical/pico-venti/internal/statistics"
	"github.com/Mosical/pico-venti/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RunDaemon() {
	p, err := CreatePlatform(configuration.CurrentConfig.Platform)
	if err != nil {
		ui.Fatal("Unable to initialize the %s platform backend: %v", configuration.CurrentConfig.Platform.Backend, err)
	}
	defer func() {
		_ = p.Close()
	}()

	pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
	if err := pers.Init(); err != nil {
		ui.Fatal("Unable to initialize persistence: %v", err)
	}

	topology, err := controller.BuildTopology(configuration.CurrentConfig, p)
	if err != nil {
		ui.Fatal("Unable to build the configured topology: %v", err)
	}
	if len(topology.Fans) == 0 {
		ui.Fatal("No valid fan configurations, exiting.")
	}

	ctl := controller.NewController(topology)
	restoreFanStates(pers, topology.Fans)

	if err := pers.SaveAppliedConfig(topology.Config); err != nil {
		ui.Warning("Unable to persist the applied configuration: %v", err)
	}

	statistics.Register(statistics.NewSensorCollector())
	statistics.Register(statistics.NewCurveCollector())
	statistics.Register(statistics.NewFanCollector())
	statistics.Register(statistics.NewControllerCollector(ctl))

	reload := func() error {
		return reloadConfiguration(ctl, p, pers)
	}

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		// === control cycle
		g.Add(func() error {
			return ctl.Run(ctx)
		}, func(err error) {
			if err != nil {
				ui.Warning("Error running the control cycle: %v", err)
			}
			saveFanStates(pers, ctl)
		})
	}
	{
		enabled := configuration.CurrentConfig.Api.Enabled
		if enabled {
			// === REST api
			restService := api.CreateRestService(ctl, reload)
			g.Add(func() error {
				address := fmt.Sprintf("%s:%d", configuration.CurrentConfig.Api.Host, configuration.CurrentConfig.Api.Port)
				if err := restService.Start(address); err != nil && err != http.ErrServerClosed {
					ui.Error("Cannot start REST api endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				ui.Info("Stopping REST api...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				_ = restService.Shutdown(timeoutCtx)
			})
		}
	}
	{
		enabled := configuration.CurrentConfig.Statistics.Enabled
		if enabled {
			// === Prometheus Exporter
			port := configuration.CurrentConfig.Statistics.Port
			if port <= 0 || port >= 65535 {
				port = 9000
			}
			addr := fmt.Sprintf(":%d", port)
			server := &http.Server{Addr: addr, Handler: promhttp.Handler()}
			g.Add(func() error {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					ui.Error("Cannot start prometheus metrics endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				ui.Info("Stopping statistics server...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				_ = server.Shutdown(timeoutCtx)
			})
		}
	}
	{
		// === configuration reload on SIGHUP
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)

		g.Add(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hup:
					ui.Info("Received SIGHUP, reloading configuration...")
					if err := reload(); err != nil {
						ui.Warning("Configuration reload rejected, keeping the running configuration: %v", err)
					}
				}
			}
		}, func(err error) {
			signal.Stop(hup)
		})
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			<-sig
			ui.Info("Received SIGTERM signal, exiting...")
			return nil
		}, func(err error) {
			defer close(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// CreatePlatform instantiates the configured hardware access backend.
func CreatePlatform(config configuration.PlatformConfig) (platform.Platform, error) {
	switch config.Backend {
	case configuration.PlatformBackendSim:
		sim := platform.NewSimPlatform()
		// register the configured peripherals on the simulated buses
		for _, sensorConfig := range configuration.CurrentConfig.Sensors {
			if sensorConfig.Sht4x != nil {
				sim.AddSht4x(sensorConfig.Sht4x.I2CChannel, sensorConfig.Sht4x.I2CAddress)
			}
		}
		return sim, nil
	case configuration.PlatformBackendPeriph:
		return platform.NewPeriphPlatform()
	}
	return nil, fmt.Errorf("unknown platform backend: %s", config.Backend)
}

// reloadConfiguration builds a topology from the on-disk configuration
// and schedules it for the next idle boundary. The running topology is
// kept when loading, validation or construction fails.
func reloadConfiguration(ctl *controller.Controller, p platform.Platform, pers persistence.Persistence) error {
	config, err := configuration.ReloadConfig()
	if err != nil {
		return err
	}
	if err := configuration.ValidateConfig(&config); err != nil {
		return err
	}

	topology, err := controller.BuildTopology(config, p)
	if err != nil {
		return err
	}

	configuration.CurrentConfig = config
	ctl.SetPending(topology)

	if err := pers.SaveAppliedConfig(config); err != nil {
		ui.Warning("Unable to persist the applied configuration: %v", err)
	}
	return nil
}

// restoreFanStates re-applies the persisted duty of each fan, so the
// ramp limiter resumes from the pre-restart duty instead of zero.
func restoreFanStates(pers persistence.Persistence, fanList []fans.Fan) {
	for _, fan := range fanList {
		state, err := pers.LoadFanState(fan.GetId())
		if err != nil {
			continue
		}
		if state.Duty < fans.MinDutyValue || state.Duty > fans.MaxDutyValue {
			continue
		}
		if err := fan.SetDuty(state.Duty); err != nil {
			ui.Warning("Unable to restore duty %d on fan %s: %v", state.Duty, fan.GetId(), err)
		}
	}
}

func saveFanStates(pers persistence.Persistence, ctl *controller.Controller) {
	snapshot := ctl.Snapshot()
	if snapshot == nil {
		return
	}
	for _, state := range snapshot.Fans {
		if err := pers.SaveFanState(state); err != nil {
			ui.Warning("Unable to persist state of fan %s: %v", state.FanID, err)
		}
	}
}
