package neo4j

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/regioinvent/internal/config"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) VerifyConnectivity(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *MockDriver) NewSession(ctx context.Context, config neo4j.SessionConfig) internalSession {
	return m.Called(ctx, config).Get(0).(internalSession)
}
func (m *MockDriver) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockSession struct {
	mock.Mock
	tx Transaction
}

func (m *MockSession) ExecuteRead(_ context.Context, work TransactionWork) (any, error) {
	return work(m.tx)
}
func (m *MockSession) ExecuteWrite(_ context.Context, work TransactionWork) (any, error) {
	return work(m.tx)
}
func (m *MockSession) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockTransaction struct {
	result Result
	err    error
	params []map[string]any
}

func (m *MockTransaction) Run(_ context.Context, _ string, params map[string]any) (Result, error) {
	m.params = append(m.params, params)
	return m.result, m.err
}

type MockResult struct {
	records []*neo4j.Record
	current *neo4j.Record
}

func (m *MockResult) Next(context.Context) bool {
	if len(m.records) == 0 {
		return false
	}
	m.current, m.records = m.records[0], m.records[1:]
	return true
}
func (m *MockResult) Record() *neo4j.Record                                { return m.current }
func (m *MockResult) Err() error                                           { return nil }
func (m *MockResult) Consume(context.Context) (neo4j.ResultSummary, error) { return nil, nil }

func newTestDriver(tx Transaction) (*Driver, *MockDriver, *MockSession) {
	md := new(MockDriver)
	ms := &MockSession{tx: tx}
	md.On("NewSession", mock.Anything, mock.Anything).Return(ms)
	ms.On("Close", mock.Anything).Return(nil)
	return &Driver{driver: md, cfg: config.Neo4jConfig{Database: "lci"}, logger: logging.NewNopLogger()}, md, ms
}

func TestDriver_HealthCheck(t *testing.T) {
	res := &MockResult{records: []*neo4j.Record{{Keys: []string{"health"}, Values: []any{int64(1)}}}}
	d, md, ms := newTestDriver(&MockTransaction{result: res})
	md.On("VerifyConnectivity", mock.Anything).Return(nil)

	require.NoError(t, d.HealthCheck(context.Background()))
	md.AssertCalled(t, "NewSession", mock.Anything, neo4j.SessionConfig{DatabaseName: "lci", AccessMode: neo4j.AccessModeRead})
	ms.AssertCalled(t, "Close", mock.Anything)
}

func TestDriver_HealthCheckUnreachable(t *testing.T) {
	d, md, _ := newTestDriver(&MockTransaction{})
	md.On("VerifyConnectivity", mock.Anything).Return(stderrors.New("connection refused"))

	err := d.HealthCheck(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestDriver_ExecuteWriteWrapsErrors(t *testing.T) {
	d, _, _ := newTestDriver(&MockTransaction{err: stderrors.New("constraint violated")})

	_, err := d.ExecuteWrite(context.Background(), func(tx Transaction) (any, error) {
		return tx.Run(context.Background(), "CREATE (n)", nil)
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestDriver_CloseOnce(t *testing.T) {
	d, md, _ := newTestDriver(&MockTransaction{})
	md.On("Close", mock.Anything).Return(nil).Once()

	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))
	md.AssertNumberOfCalls(t, "Close", 1)
}

func TestRunInBatches(t *testing.T) {
	tx := &MockTransaction{result: &MockResult{}}
	rows := []any{1, 2, 3, 4, 5}

	require.NoError(t, RunInBatches(context.Background(), tx, "UNWIND $rows AS r", map[string]any{"database": "ei"}, rows, 2))
	require.Len(t, tx.params, 3)
	assert.Equal(t, []any{1, 2}, tx.params[0]["rows"])
	assert.Equal(t, []any{5}, tx.params[2]["rows"])
	assert.Equal(t, "ei", tx.params[2]["database"])
}

func TestRunInBatches_StopsOnError(t *testing.T) {
	tx := &MockTransaction{err: stderrors.New("deadlock")}

	err := RunInBatches(context.Background(), tx, "UNWIND $rows AS r", nil, []any{1, 2, 3}, 1)
	require.Error(t, err)
	assert.Len(t, tx.params, 1)
}

func TestCollectRecords(t *testing.T) {
	res := &MockResult{records: []*neo4j.Record{
		{Keys: []string{"db"}, Values: []any{"a"}},
		{Keys: []string{"db"}, Values: []any{"b"}},
	}}
	got, err := CollectRecords(context.Background(), res, func(r *neo4j.Record) (string, error) {
		return r.Values[0].(string), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

//Personal.AI order the ending
