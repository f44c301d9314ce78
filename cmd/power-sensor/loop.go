package main

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/power-sensor/internal/gpio"
	"github.com/sweeney/power-sensor/internal/logic"
	"github.com/sweeney/power-sensor/internal/mqtt"
	"github.com/sweeney/power-sensor/internal/notify"
	"github.com/sweeney/power-sensor/internal/probe"
	"github.com/sweeney/power-sensor/internal/status"
	"github.com/sweeney/power-sensor/internal/store"
)

// daemon holds the collaborators driven by runLoop. notifier, publisher,
// mqttStatus and led are optional and may be nil.
type daemon struct {
	monitor *logic.Monitor
	prober  probe.Prober
	store   store.Store
	tracker *status.Tracker

	notifier   notify.Notifier
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	led        gpio.Indicator

	now           func() time.Time
	log           *zap.Logger
	notifyTimeout time.Duration
}

// runLoop evaluates one probe per tick until a signal arrives. Every step of
// a tick runs to completion before the next tick is read.
func runLoop(d *daemon, tick <-chan time.Time, sig <-chan os.Signal) error {
	ctx := context.Background()

	for {
		select {
		case s := <-sig:
			d.shutdown(s)
			return nil

		case <-tick:
			d.tick(ctx)
		}
	}
}

func (d *daemon) tick(ctx context.Context) {
	t := d.now()
	res := d.prober.Check(ctx)
	if !res.Reachable {
		d.log.Debug("probe failed", zap.String("reason", res.Message))
	}

	d.tracker.RecordProbe(t, res)

	if tr := d.monitor.Tick(res.Reachable, t); tr != nil {
		d.handleTransition(ctx, *tr)
	}

	d.tracker.Update(d.monitor.State(), d.monitor.Counters(), d.monitor.EventCountsSnapshot())
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

// handleTransition persists the new state before anything is announced, so a
// crash after notifying never replays the same transition on restart.
func (d *daemon) handleTransition(ctx context.Context, tr logic.Transition) {
	d.log.Info("power transition",
		zap.String("event", string(tr.Direction)),
		zap.String("state", string(tr.Current.State())),
		zap.Duration("previous_duration", tr.Duration),
		zap.Time("previous_since", tr.Previous.LastTransition))

	if !persistState(ctx, d.store, tr.Current, d.log) {
		d.tracker.RecordPersistFailure()
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(tr); err != nil {
			d.log.Warn("mqtt publish failed", zap.Error(err))
			d.tracker.RecordMQTTFailure()
		}
	}

	if d.notifier != nil {
		nctx, cancel := context.WithTimeout(ctx, d.notifyTimeout)
		err := d.notifier.Send(nctx, tr.Message())
		cancel()
		if err != nil && !errors.Is(err, notify.ErrDisabled) {
			d.log.Warn("notification failed", zap.String("event", string(tr.Direction)), zap.Error(err))
			d.tracker.RecordNotifyFailure()
		}
	}

	if d.led != nil {
		if err := d.led.Set(!tr.Current.Unpowered); err != nil {
			d.log.Warn("status LED update failed", zap.Error(err))
		}
	}
}

func (d *daemon) shutdown(s os.Signal) {
	d.log.Info("received signal, shutting down", zap.Stringer("signal", s))
	if d.publisher == nil {
		return
	}

	state := d.monitor.State()
	event := mqtt.SystemEvent{
		Timestamp: d.now(),
		Event:     mqtt.EventShutdown,
		Reason:    signalName(s),
		State:     &state,
		Retained:  true,
	}
	if err := d.publisher.PublishSystem(event); err != nil {
		d.log.Warn("failed to publish shutdown event", zap.Error(err))
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
