package hub

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"otto/internal/device"
	"otto/internal/logger"
)

// PublishFunc receives every state snapshot a poll cycle produces.
type PublishFunc func(deviceID string, state device.State)

// Poller drives the periodic status refresh of every managed device.
// One goroutine per device; an unreachable device publishes an
// unavailable snapshot and is retried on the next tick, never aborting
// the loop.
type Poller struct {
	manager  *DeviceManager
	interval time.Duration
	publish  PublishFunc
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

// NewPoller creates a poller over the manager's devices.
func NewPoller(manager *DeviceManager, interval time.Duration, publish PublishFunc) *Poller {
	return &Poller{
		manager:  manager,
		interval: interval,
		publish:  publish,
		logger:   logger.New(),
	}
}

// Start launches one poll loop per device. It returns immediately; the
// loops stop when ctx is cancelled and Wait unblocks once they exit.
func (p *Poller) Start(ctx context.Context) {
	for _, deviceID := range p.manager.DeviceIDs() {
		p.wg.Add(1)
		go p.run(ctx, deviceID)
	}
}

// Wait blocks until every poll loop has stopped.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context, deviceID string) {
	defer p.wg.Done()

	log := p.logger.With().Str("device_id", deviceID).Logger()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// First poll immediately so the entity is live before the first tick
	p.pollOnce(ctx, deviceID, log)

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Poll loop stopped")
			return
		case <-ticker.C:
			p.pollOnce(ctx, deviceID, log)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context, deviceID string, log zerolog.Logger) {
	pollCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	state, err := p.manager.PollDevice(pollCtx, deviceID)
	if err != nil {
		log.Error().Err(err).Msg("Poll failed")
		return
	}

	if !state.Available {
		log.Warn().Msg("Device unavailable")
	} else {
		log.Debug().
			Str("power", state.Power).
			Float64("volume_level", state.VolumeLevel).
			Str("playback", state.Playback).
			Msg("Poll cycle completed")
	}

	if p.publish != nil {
		p.publish(deviceID, state)
	}
}
