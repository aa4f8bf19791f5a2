package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	pca9685 "github.com/Speshl/gorrc_tracker/internal/command/pca9685"
	pipwm "github.com/Speshl/gorrc_tracker/internal/command/pi_pwm"
	"github.com/Speshl/gorrc_tracker/internal/config"
	"github.com/Speshl/gorrc_tracker/internal/models"
	"github.com/Speshl/gorrc_tracker/internal/sensor"
	"github.com/Speshl/gorrc_tracker/internal/vehicle"
	"github.com/Speshl/gorrc_tracker/internal/vehicle/mecanum"
	"github.com/google/uuid"
	socketio "github.com/googollee/go-socket.io"
	"golang.org/x/sync/errgroup"
)

type App struct {
	ctx       context.Context
	ctxCancel context.CancelFunc

	Cfg config.Config

	client    *socketio.Client
	sessionId uuid.UUID

	lock      sync.RWMutex
	robotInfo models.Robot

	robot    *mecanum.Mecanum
	feed     *sensor.DetectionFeed
	infrared *sensor.InfraredFeed
	command  vehicle.CommandDriverIFace
}

// NewApp wires the tracker. client may be nil when the remote server is disabled.
func NewApp(cfg config.Config, client *socketio.Client) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	command, err := NewCommandDriver(cfg.CommandCfg)
	if err != nil {
		cancel()
		return nil, err
	}

	a := &App{
		ctx:       ctx,
		ctxCancel: cancel,
		Cfg:       cfg,
		client:    client,
		sessionId: uuid.New(),
		command:   command,
		feed:      sensor.NewDetectionFeed(),
	}

	var source sensor.Source = a.feed
	if cfg.TrackerCfg.Mode == config.ModeInfrared {
		a.infrared = sensor.NewInfraredFeed(cfg.InfraredCfg.Pins)
		source = a.infrared
	}

	a.robot, err = mecanum.NewMecanum(cfg, command, source)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed creating robot: %w", err)
	}
	return a, nil
}

func NewCommandDriver(cfg config.CommandConfig) (vehicle.CommandDriverIFace, error) {
	switch cfg.CommandDriver {
	case config.CommandDriverPCA9685:
		return pca9685.NewCommand(cfg), nil
	case config.CommandDriverPiPWM:
		log.Println("pi pwm only drives the gimbal, wheel commands will be ignored")
		return pipwm.NewCommand(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported command driver: %s", cfg.CommandDriver)
	}
}

func (a *App) Start() error {
	group, groupCtx := errgroup.WithContext(a.ctx)
	log.Printf("starting session %s...\n", a.sessionId)

	defer func() {
		log.Println("stopping...")
		if a.client != nil {
			a.client.Close()
		}
	}()

	if a.infrared != nil {
		err := a.infrared.Init()
		if err != nil {
			return fmt.Errorf("error starting infrared sensors: %w", err)
		}
		defer func() {
			err := a.infrared.Stop()
			if err != nil {
				log.Printf("failed stopping infrared sensors: %s\n", err.Error())
			}
		}()
	}

	err := a.robot.Init()
	if err != nil {
		return fmt.Errorf("error initializing robot: %w", err)
	}

	//kill listener
	group.Go(func() error {
		signalChannel := make(chan os.Signal, 1)
		signal.Notify(signalChannel, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-signalChannel:
			log.Printf("received signal: %s\n", sig)
			a.ctxCancel()
			return nil
		case <-groupCtx.Done():
			log.Println("closing signal goroutine")
			return groupCtx.Err()
		}
	})

	//Start robot
	group.Go(func() error {
		return a.robot.Start(groupCtx)
	})

	if a.client != nil {
		//Send connect and send healthchecks
		group.Go(func() error {
			return a.startRemote(groupCtx)
		})
	}

	err = group.Wait()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("context was cancelled")
			return nil
		}
		return fmt.Errorf("tracker stopping due to error - %w", err)
	}

	log.Println("shutting down")
	return nil
}

func (a *App) startRemote(ctx context.Context) error {
	encodedMsg, err := encode(models.ConnectReq{
		Key:       a.Cfg.ServerCfg.Key,
		Password:  a.Cfg.ServerCfg.Password,
		SessionId: a.sessionId,
	})
	if err != nil {
		return fmt.Errorf("failed encoding connect request: %w", err)
	}
	a.client.Emit("robot_connect", encodedMsg)

	healthTicker := time.NewTicker(a.Cfg.ServerCfg.HealthPeriod)
	defer healthTicker.Stop()
	telemetryTicker := time.NewTicker(a.Cfg.ServerCfg.TelemetryPeriod)
	defer telemetryTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("health checker stopped")
			return ctx.Err()
		case <-healthTicker.C:
			log.Println("healthcheck: healthy")
			a.client.Emit("robot_healthy", "")
		case <-telemetryTicker.C:
			encodedTelemetry, err := encode(a.Telemetry())
			if err != nil {
				log.Printf("failed encoding telemetry: %s\n", err.Error())
				continue
			}
			a.client.Emit("telemetry", encodedTelemetry)
		}
	}
}

// Telemetry is the robot snapshot plus process health.
func (a *App) Telemetry() models.Telemetry {
	telemetry := a.robot.Telemetry()
	telemetry.SessionId = a.sessionId
	telemetry.TimeStamp = time.Now().UnixMilli()
	telemetry.FramesReceived, telemetry.FramesDropped = a.feed.Stats()

	stats, err := GetProcessStats(a.Cfg.ServerCfg.NetInterface)
	if err != nil {
		log.Printf("warning: process stats incomplete - error: %s\n", err.Error())
	}
	telemetry.CPUSeconds = stats.CPUSeconds
	telemetry.ResidentBytes = stats.ResidentBytes
	telemetry.NetRxBytes = stats.NetRxBytes
	telemetry.NetTxBytes = stats.NetTxBytes
	return telemetry
}

func (a *App) RobotInfo() models.Robot {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.robotInfo
}
