package repositories

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/mock"

	infraNeo4j "github.com/turtacn/regioinvent/internal/infrastructure/database/neo4j"
)

// MockInfraDriver implements infraNeo4j.DriverInterface
type MockInfraDriver struct {
	mock.Mock
}

func (m *MockInfraDriver) ExecuteRead(ctx context.Context, work infraNeo4j.TransactionWork) (any, error) {
	args := m.Called(ctx, work)
	if fn, ok := args.Get(0).(func(context.Context, infraNeo4j.TransactionWork) (any, error)); ok {
		return fn(ctx, work)
	}
	return work(new(MockInfraTransaction))
}

func (m *MockInfraDriver) ExecuteWrite(ctx context.Context, work infraNeo4j.TransactionWork) (any, error) {
	args := m.Called(ctx, work)
	if fn, ok := args.Get(0).(func(context.Context, infraNeo4j.TransactionWork) (any, error)); ok {
		return fn(ctx, work)
	}
	return work(new(MockInfraTransaction))
}

func (m *MockInfraDriver) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockInfraDriver) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockInfraTransaction implements infraNeo4j.Transaction
type MockInfraTransaction struct {
	mock.Mock
}

func (m *MockInfraTransaction) Run(ctx context.Context, cypher string, params map[string]any) (infraNeo4j.Result, error) {
	args := m.Called(ctx, cypher, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(infraNeo4j.Result), args.Error(1)
}

// MockResult replays Records.
type MockResult struct {
	Records []*neo4j.Record
	current *neo4j.Record
}

func (m *MockResult) Next(context.Context) bool {
	if len(m.Records) == 0 {
		return false
	}
	m.current, m.Records = m.Records[0], m.Records[1:]
	return true
}

func (m *MockResult) Record() *neo4j.Record { return m.current }

func (m *MockResult) Err() error { return nil }

func (m *MockResult) Consume(context.Context) (neo4j.ResultSummary, error) { return nil, nil }

// NewRecord builds a record with values.
func NewRecord(keys []string, values []any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

// SetupMockDriver wires ExecuteRead and ExecuteWrite to run against tx.
func SetupMockDriver(t *testing.T) (*MockInfraDriver, *MockInfraTransaction) {
	t.Helper()
	d := new(MockInfraDriver)
	tx := new(MockInfraTransaction)
	run := func(_ context.Context, work infraNeo4j.TransactionWork) (any, error) { return work(tx) }
	d.On("ExecuteRead", mock.Anything, mock.Anything).Return(run)
	d.On("ExecuteWrite", mock.Anything, mock.Anything).Return(run)
	return d, tx
}

//Personal.AI order the ending
