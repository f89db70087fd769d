package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/internal/testutil"
)

const ttl = time.Hour

type accessLog struct{ hits, misses []string }

func (a *accessLog) RecordCacheAccess(cache string, hit bool) {
	if hit {
		a.hits = append(a.hits, cache)
	} else {
		a.misses = append(a.misses, cache)
	}
}

type SnapshotCacheTestSuite struct {
	suite.Suite
	mock   redismock.ClientMock
	store  *testutil.MemoryLCI
	cache  *CachedLCIRepo
	access *accessLog
}

func (s *SnapshotCacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.store = testutil.NewMemoryLCI()
	steel := testutil.NewProcess("ei", "s1", "steel production", "steel", "DE").Build()
	car := testutil.NewProcess("ei", "c1", "car production", "car", "DE").Input(2, steel).Build()
	s.store.Seed("ei", steel, car)
	s.access = &accessLog{}
	s.cache = NewCachedLCIRepo(s.store, NewClientWith(db, logging.NewNopLogger()), logging.NewNopLogger(),
		WithPrefix("test:"), WithSnapshotTTL(ttl), WithAccessObserver(s.access))
}

func (s *SnapshotCacheTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *SnapshotCacheTestSuite) snapshot() []byte {
	ps, err := s.store.Extract(context.Background(), "ei")
	s.Require().NoError(err)
	data, err := json.Marshal(ps)
	s.Require().NoError(err)
	return data
}

func (s *SnapshotCacheTestSuite) TestExtract_MissLoadsAndStores() {
	data := s.snapshot()
	s.mock.ExpectGet("test:snapshot:ei").RedisNil()
	s.mock.ExpectSet("test:snapshot:ei", data, ttl).SetVal("OK")

	ps, err := s.cache.Extract(context.Background(), "ei")
	s.Require().NoError(err)
	s.Require().Len(ps, 2)
	s.Equal("s1", ps[0].Code)
	s.Equal(lci.Key{Database: "ei", Code: "s1"}, ps[1].Exchanges[1].Input)
	s.Equal([]string{"snapshot"}, s.access.misses)
	s.Empty(s.access.hits)
}

func (s *SnapshotCacheTestSuite) TestExtract_HitSkipsStore() {
	data := s.snapshot()
	s.mock.ExpectGet("test:snapshot:ei").SetVal(string(data))
	s.Require().NoError(s.store.Delete(context.Background(), "ei"))

	ps, err := s.cache.Extract(context.Background(), "ei")
	s.Require().NoError(err)
	s.Len(ps, 2)
	s.Equal("car production", ps[1].Name)
	s.Equal([]string{"snapshot"}, s.access.hits)
}

func (s *SnapshotCacheTestSuite) TestExtract_RedisDownReadsThrough() {
	data := s.snapshot()
	s.mock.ExpectGet("test:snapshot:ei").SetErr(stderrors.New("connection refused"))
	s.mock.ExpectSet("test:snapshot:ei", data, ttl).SetErr(stderrors.New("connection refused"))

	ps, err := s.cache.Extract(context.Background(), "ei")
	s.Require().NoError(err)
	s.Len(ps, 2)
}

func (s *SnapshotCacheTestSuite) TestExtract_CorruptSnapshotIsReplaced() {
	data := s.snapshot()
	s.mock.ExpectGet("test:snapshot:ei").SetVal("{not json")
	s.mock.ExpectSet("test:snapshot:ei", data, ttl).SetVal("OK")

	ps, err := s.cache.Extract(context.Background(), "ei")
	s.Require().NoError(err)
	s.Len(ps, 2)
}

func (s *SnapshotCacheTestSuite) TestWriteAndDeleteInvalidate() {
	p := testutil.NewProcess("out", "m1", "market for steel", "steel", "GLO").Build()
	s.mock.ExpectDel("test:snapshot:out").SetVal(1)
	s.Require().NoError(s.cache.Write(context.Background(), "out", map[lci.Key]*lci.Process{p.Key: p}))
	s.Equal(1, s.store.Len("out"))

	s.mock.ExpectDel("test:snapshot:out").SetVal(1)
	s.Require().NoError(s.cache.Delete(context.Background(), "out"))
	s.Zero(s.store.Len("out"))
}

func (s *SnapshotCacheTestSuite) TestFlowsCachedSeparately() {
	flows := []lci.Flow{{Key: lci.Key{Database: "bio", Code: "w-de"}, Name: "Water, DE", Categories: []string{"water"}}}
	s.mock.ExpectDel("test:flows:bio").SetVal(0)
	s.Require().NoError(s.cache.WriteFlows(context.Background(), "bio", flows))

	data, _ := json.Marshal(flows)
	s.mock.ExpectGet("test:flows:bio").RedisNil()
	s.mock.ExpectSet("test:flows:bio", data, ttl).SetVal("OK")
	got, err := s.cache.Flows(context.Background(), "bio")
	s.Require().NoError(err)
	s.Equal(flows, got)
	s.Equal([]string{"flows"}, s.access.misses)
}

func TestSnapshotCacheTestSuite(t *testing.T) {
	suite.Run(t, new(SnapshotCacheTestSuite))
}

func TestCachedLCIRepo_DatabasesPassThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := testutil.NewMemoryLCI()
	store.Seed("ei", testutil.NewProcess("ei", "a", "n", "p", "DE").Build())

	cache := NewCachedLCIRepo(store, NewClientWith(db, logging.NewNopLogger()), logging.NewNopLogger())
	dbs, err := cache.Databases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ei"}, dbs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

//Personal.AI order the ending
