package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/loafoe/go-senec"
)

type reader interface {
	Read(ctx context.Context) ([]*senec.Sensor, error)
}

// Sink receives every successful snapshot.
type Sink interface {
	Publish(ctx context.Context, snapshot Snapshot) error
}

// Reading is a copy of a sensor taken at poll time.
type Reading struct {
	Key   string
	Name  string
	Unit  string
	Value senec.Value
}

type Snapshot struct {
	Readings []Reading
	Time     time.Time
	Err      error
}

// Poller serialises reads of one client and keeps the latest snapshot.
type Poller struct {
	client   reader
	interval time.Duration
	sinks    []Sink
	logger   *zap.Logger

	mu     sync.RWMutex
	pollMu sync.Mutex
	latest Snapshot
}

func New(client reader, interval time.Duration, logger *zap.Logger, sinks ...Sink) *Poller {
	if logger == nil {
		logger = zap.L()
	}
	return &Poller{
		client:   client,
		interval: interval,
		sinks:    sinks,
		logger:   logger,
	}
}

// Poll reads once, stores the snapshot and hands it to the sinks.
func (p *Poller) Poll(ctx context.Context) error {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	sensors, err := p.client.Read(ctx)
	now := time.Now()
	if err != nil {
		p.store(Snapshot{Time: now, Err: err})
		return err
	}

	snapshot := Snapshot{Time: now, Readings: make([]Reading, 0, len(sensors))}
	for _, s := range sensors {
		snapshot.Readings = append(snapshot.Readings, Reading{
			Key:   s.Key(),
			Name:  s.Name(),
			Unit:  s.Unit(),
			Value: s.Value(),
		})
	}
	p.store(snapshot)

	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, snapshot); err != nil {
			p.logger.Error("failed to publish snapshot", zap.Error(err))
		}
	}
	p.logger.Debug("polled", zap.Int("sensors", len(snapshot.Readings)))
	return nil
}

func (p *Poller) Latest() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

func (p *Poller) store(snapshot Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = snapshot
}

// MinInterval is the finest schedule the cron scheduler supports.
const MinInterval = time.Second

// Run polls every interval until ctx is done. A poll still in flight when the
// next one is due makes the scheduler skip that one. The scheduler goroutine
// may still log its stop through the poller's logger after Run returns.
func (p *Poller) Run(ctx context.Context) error {
	if p.interval < MinInterval {
		return fmt.Errorf("poll interval %v is below %v", p.interval, MinInterval)
	}
	logger := cronLogger{p.logger.Sugar()}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", p.interval), func() {
		if err := p.Poll(ctx); err != nil {
			p.logger.Warn("poll failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if err := p.Poll(ctx); err != nil {
		p.logger.Warn("poll failed", zap.Error(err))
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
