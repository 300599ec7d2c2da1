package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/authstore/internal/core/domain"
)

// EncryptedStore is the primary Backend: a Badger database encrypted at
// rest with the provisioned AES-256 key.
type EncryptedStore struct {
	db     *badger.DB
	cfg    EncryptedConfig
	prefix string
	logger *slog.Logger

	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64

	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	closeOnce sync.Once
	closed    atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// EncryptedStats contains storage statistics.
type EncryptedStats struct {
	LSMSize      uint64
	ValueLogSize uint64
	LastGCTime   int64
	GCRuns       uint64
}

// OpenEncrypted opens (or creates) the encrypted store.
//
// Opening an existing directory with a different key fails; the caller
// treats that like any other initialization failure.
func OpenEncrypted(cfg EncryptedConfig, logger *slog.Logger) (*EncryptedStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if !domain.IsValidHexKey(cfg.EncryptionKey) {
		return nil, domain.ErrKeyMalformed
	}
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultEncryptedConfig(cfg.Dir)
	if cfg.Namespace == "" {
		cfg.Namespace = def.Namespace
	}
	if cfg.IndexCacheSize <= 0 {
		cfg.IndexCacheSize = def.IndexCacheSize
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = def.GCInterval
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = def.GCThreshold
	}

	key, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, domain.ErrKeyMalformed.WithCause(err)
	}

	opts := badger.DefaultOptions(cfg.Dir).
		WithLogger(&badgerLogger{logger: logger}).
		WithEncryptionKey(key).
		WithIndexCacheSize(cfg.IndexCacheSize).
		WithSyncWrites(cfg.SyncWrites)
	if cfg.BlockCacheSize > 0 {
		opts = opts.WithBlockCacheSize(cfg.BlockCacheSize)
	}
	if cfg.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(cfg.ValueLogFileSize)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &EncryptedStore{
		db:     db,
		cfg:    cfg,
		prefix: cfg.Namespace + "/",
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go s.gcLoop()

	logger.Info("encrypted store opened",
		"dir", cfg.Dir,
		"namespace", cfg.Namespace,
		"gc_interval", cfg.GCInterval)

	return s, nil
}

// Name implements Backend.
func (s *EncryptedStore) Name() string { return NameEncrypted }

// Get implements Backend.
func (s *EncryptedStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(ctx); err != nil {
		return "", false, err
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.dbKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("badger: get: %w", err)
	}
	return string(value), true, nil
}

// Set implements Backend.
func (s *EncryptedStore) Set(ctx context.Context, key, value string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.dbKey(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("badger: set: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.dbKey(key))
	})
	if err != nil {
		return fmt.Errorf("badger: delete: %w", err)
	}
	return nil
}

// Keys returns the stored keys, without namespace, in key order.
func (s *EncryptedStore) Keys(ctx context.Context) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(s.prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, string(it.Item().Key()[len(s.prefix):]))
		}
		return nil
	})
	return keys, err
}

// GC runs value-log garbage collection until nothing more can be rewritten.
// Returns the number of rewritten value-log files.
func (s *EncryptedStore) GC(ctx context.Context) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	start := time.Now()

	runs := 0
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return runs, fmt.Errorf("badger: gc: %w", err)
		}
		runs++
	}

	s.lastGCTime.Store(time.Now().UnixMilli())
	s.gcRuns.Add(uint64(runs))
	if s.metricsGCRuns != nil {
		s.metricsGCRuns.Add(float64(runs))
	}

	s.logger.Debug("encrypted store gc completed",
		"files_rewritten", runs,
		"elapsed", time.Since(start))

	return runs, nil
}

// Stats returns storage statistics.
func (s *EncryptedStore) Stats() EncryptedStats {
	lsm, vlog := s.db.Size()
	return EncryptedStats{
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   s.lastGCTime.Load(),
		GCRuns:       s.gcRuns.Load(),
	}
}

// Close stops background work and closes the database.
func (s *EncryptedStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		<-s.doneCh
		if cerr := s.db.Close(); cerr != nil {
			err = fmt.Errorf("badger: close db: %w", cerr)
		}
		s.logger.Info("encrypted store closed")
	})
	return err
}

// RegisterMetrics registers size and GC metrics with reg and starts the
// metrics updater. Call at most once.
func (s *EncryptedStore) RegisterMetrics(reg prometheus.Registerer) error {
	s.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "authstore",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Encrypted store LSM tree size in bytes",
	})
	s.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "authstore",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Encrypted store value log size in bytes",
	})
	s.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "authstore",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last value-log GC run",
	})
	s.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "authstore",
		Subsystem: "badger",
		Name:      "gc_files_rewritten_total",
		Help:      "Value-log files rewritten by garbage collection",
	})

	for _, c := range []prometheus.Collector{
		s.metricsLSMSize, s.metricsValueLogSize, s.metricsLastGCTime, s.metricsGCRuns,
	} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("badger: register metrics: %w", err)
		}
	}

	s.updateMetrics()
	go s.metricsUpdateLoop()
	return nil
}

func (s *EncryptedStore) check(ctx context.Context) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	return ctx.Err()
}

func (s *EncryptedStore) dbKey(key string) []byte {
	return []byte(s.prefix + key)
}

func (s *EncryptedStore) updateMetrics() {
	stats := s.Stats()
	s.metricsLSMSize.Set(float64(stats.LSMSize))
	s.metricsValueLogSize.Set(float64(stats.ValueLogSize))
	if stats.LastGCTime > 0 {
		s.metricsLastGCTime.Set(float64(stats.LastGCTime) / 1000.0)
	}
}

func (s *EncryptedStore) metricsUpdateLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.closed.Load() {
				return
			}
			s.updateMetrics()
		case <-s.stopCh:
			return
		}
	}
}

func (s *EncryptedStore) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := s.GC(ctx); err != nil {
				s.logger.Error("encrypted store gc failed", "error", err)
			}
			cancel()
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger's info chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
