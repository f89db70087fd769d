package neo4j

import (
	"context"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/regioinvent/internal/config"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// Result abstracts neo4j.ResultWithContext
type Result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
	Consume(ctx context.Context) (neo4j.ResultSummary, error)
}

// Transaction abstracts neo4j.ManagedTransaction
type Transaction interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
}

// TransactionWork is the body of a managed transaction.
type TransactionWork func(tx Transaction) (any, error)

// DriverInterface is what repositories need from a driver.
type DriverInterface interface {
	ExecuteRead(ctx context.Context, work TransactionWork) (any, error)
	ExecuteWrite(ctx context.Context, work TransactionWork) (any, error)
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// internalSession abstracts neo4j.SessionWithContext
type internalSession interface {
	ExecuteRead(ctx context.Context, work TransactionWork) (any, error)
	ExecuteWrite(ctx context.Context, work TransactionWork) (any, error)
	Close(ctx context.Context) error
}

// internalDriver abstracts neo4j.DriverWithContext
type internalDriver interface {
	VerifyConnectivity(ctx context.Context) error
	NewSession(ctx context.Context, config neo4j.SessionConfig) internalSession
	Close(ctx context.Context) error
}

type stdResult struct {
	res neo4j.ResultWithContext
}

func (r *stdResult) Next(ctx context.Context) bool { return r.res.Next(ctx) }
func (r *stdResult) Record() *neo4j.Record         { return r.res.Record() }
func (r *stdResult) Err() error                    { return r.res.Err() }
func (r *stdResult) Consume(ctx context.Context) (neo4j.ResultSummary, error) {
	return r.res.Consume(ctx)
}

type stdTransaction struct {
	tx neo4j.ManagedTransaction
}

func (t *stdTransaction) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	res, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return &stdResult{res: res}, nil
}

type stdSession struct {
	s neo4j.SessionWithContext
}

func (s *stdSession) ExecuteRead(ctx context.Context, work TransactionWork) (any, error) {
	return s.s.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(&stdTransaction{tx: tx})
	})
}

func (s *stdSession) ExecuteWrite(ctx context.Context, work TransactionWork) (any, error) {
	return s.s.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(&stdTransaction{tx: tx})
	})
}

func (s *stdSession) Close(ctx context.Context) error { return s.s.Close(ctx) }

type stdDriver struct {
	d neo4j.DriverWithContext
}

func (d *stdDriver) VerifyConnectivity(ctx context.Context) error { return d.d.VerifyConnectivity(ctx) }

func (d *stdDriver) NewSession(ctx context.Context, config neo4j.SessionConfig) internalSession {
	return &stdSession{s: d.d.NewSession(ctx, config)}
}

func (d *stdDriver) Close(ctx context.Context) error { return d.d.Close(ctx) }

// Driver runs managed transactions against the LCI store database.
type Driver struct {
	driver internalDriver
	cfg    config.Neo4jConfig
	logger logging.Logger
	once   sync.Once
}

const (
	defaultPoolSize       = 50
	defaultAcquireTimeout = time.Minute
	connectTimeout        = 10 * time.Second
)

// NewDriver connects to cfg.URI and verifies connectivity.
func NewDriver(cfg config.Neo4jConfig, log logging.Logger) (*Driver, error) {
	d, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""), func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = defaultPoolSize
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		c.ConnectionAcquisitionTimeout = defaultAcquireTimeout
		if cfg.ConnectionTimeout > 0 {
			c.ConnectionAcquisitionTimeout = cfg.ConnectionTimeout
		}
		c.MaxConnectionLifetime = time.Hour
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create neo4j driver")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := d.VerifyConnectivity(ctx); err != nil {
		_ = d.Close(ctx)
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to connect to neo4j").WithDetail(cfg.URI)
	}

	log.Info("LCI store connected", logging.String("uri", cfg.URI), logging.String("database", cfg.Database))
	return &Driver{driver: &stdDriver{d: d}, cfg: cfg, logger: log}, nil
}

func (d *Driver) execute(ctx context.Context, mode neo4j.AccessMode, work TransactionWork) (any, error) {
	db := d.cfg.Database
	if db == "" {
		db = "neo4j"
	}
	s := d.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: db, AccessMode: mode})
	defer s.Close(ctx)

	op, run := "read", s.ExecuteRead
	if mode == neo4j.AccessModeWrite {
		op, run = "write", s.ExecuteWrite
	}
	began := time.Now()
	out, err := run(ctx, work)
	if err != nil {
		d.logger.Error("LCI store transaction failed", logging.String("mode", op), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j "+op+" failed")
	}
	d.logger.Debug("LCI store transaction", logging.String("mode", op), logging.Duration("elapsed", time.Since(began)))
	return out, nil
}

// ExecuteRead runs work in a read transaction.
func (d *Driver) ExecuteRead(ctx context.Context, work TransactionWork) (any, error) {
	return d.execute(ctx, neo4j.AccessModeRead, work)
}

// ExecuteWrite runs work in a write transaction; it commits only when work
// returns no error.
func (d *Driver) ExecuteWrite(ctx context.Context, work TransactionWork) (any, error) {
	return d.execute(ctx, neo4j.AccessModeWrite, work)
}

func (d *Driver) HealthCheck(ctx context.Context) error {
	if err := d.driver.VerifyConnectivity(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j connectivity check failed")
	}
	_, err := d.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		res, err := tx.Run(ctx, "RETURN 1", nil)
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}

// Close releases the driver. Later calls are no-ops.
func (d *Driver) Close(ctx context.Context) error {
	var err error
	d.once.Do(func() {
		if err = d.driver.Close(ctx); err != nil {
			d.logger.Warn("LCI store close failed", logging.Err(err))
		}
	})
	return err
}

// RunInBatches runs cypher once per chunk of at most size rows, passing the
// chunk as $rows alongside params.
func RunInBatches(ctx context.Context, tx Transaction, cypher string, params map[string]any, rows []any, size int) error {
	if size <= 0 {
		size = len(rows)
	}
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		p := make(map[string]any, len(params)+1)
		for k, v := range params {
			p[k] = v
		}
		p["rows"] = rows[start:end]
		if _, err := tx.Run(ctx, cypher, p); err != nil {
			return err
		}
	}
	return nil
}

// CollectRecords maps every remaining record of result.
func CollectRecords[T any](ctx context.Context, result Result, mapper func(*neo4j.Record) (T, error)) ([]T, error) {
	var items []T
	for result.Next(ctx) {
		item, err := mapper(result.Record())
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

//Personal.AI order the ending
