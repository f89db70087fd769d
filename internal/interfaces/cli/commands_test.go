package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/regioinvent/internal/application/regionalization"
	"github.com/turtacn/regioinvent/internal/application/spatialization"
	"github.com/turtacn/regioinvent/internal/config"
	"github.com/turtacn/regioinvent/internal/domain/geography"
	"github.com/turtacn/regioinvent/internal/domain/lcia"
	"github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/regioinvent/pkg/errors"
)

func TestMethodsCmd_Table(t *testing.T) {
	out, _, err := execute(t, "methods", "-o", "table", "--db-version", "3.9.1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2+len(lcia.Methods))
	assert.True(t, strings.HasPrefix(lines[2], "IW v2.1"))
	assert.Contains(t, lines[2], "v39")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "all"))
}

func TestMethodsCmd_JSON(t *testing.T) {
	out, _, err := execute(t, "methods", "-o", "json")
	require.NoError(t, err)
	var list []MethodInfo
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 4)
	assert.Len(t, list[3].Packages, 3, "all expands to every method")
}

func TestMethodsCmd_UnsupportedVersion(t *testing.T) {
	_, _, err := execute(t, "methods", "--db-version", "3.8")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedVersion))
}

func validConfig() *config.Config {
	cfg := &config.Config{
		Regionalization: config.RegionalizationConfig{
			SourceDatabase: "ecoinvent", Version: "3.10", OutputDatabase: "Regioinvent", Cutoff: 0.75,
		},
		Neo4j: config.Neo4jConfig{URI: "bolt://localhost:7687"},
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestRunOverrides(t *testing.T) {
	var o runOverrides
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--cutoff", "0.9", "--prune-depth", "2"}))
	o.cutoff, o.pruneDepth = 0.9, 2

	cfg := validConfig()
	require.NoError(t, o.apply(cmd, cfg))
	assert.Equal(t, 0.9, cfg.Regionalization.Cutoff)
	assert.Equal(t, 2, cfg.Regionalization.PruneDepth)
	assert.Equal(t, "ecoinvent", cfg.Regionalization.SourceDatabase, "unchanged flag keeps the configured value")
}

func TestRunOverrides_Invalid(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--cutoff", "1"}))
	err := runOverrides{cutoff: 1}.apply(cmd, validConfig())
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCutoff))

	cmd = newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--output-database", "ecoinvent regionalized"}))
	err = runOverrides{output: "ecoinvent regionalized"}.apply(cmd, validConfig())
	assert.True(t, errors.IsConfig(err))
}

func sampleAudit() *regionalization.Audit {
	a := regionalization.NewAudit()
	a.RunID, a.Status, a.OutputDatabase = "r1", regionalization.StatusSucceeded, "Regioinvent"
	a.StartedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a.FinishedAt = a.StartedAt.Add(1500 * time.Millisecond)
	a.RecordCreated(regionalization.KindClone)
	a.RecordCreated(regionalization.KindClone)
	a.RecordCreated(regionalization.KindProductionMarket)
	a.RecordAssignment(geography.Assignment{Commodity: "steel", Target: "DE", Source: "GLO", Resolution: geography.ArbitraryFallback})
	a.RecordStage(regionalization.StageConnect, 2*time.Second)
	return a
}

func TestAuditSummary(t *testing.T) {
	s := auditSummary{sampleAudit()}
	text := s.String()
	assert.Contains(t, text, "run r1 succeeded in 1.5s")
	assert.Contains(t, text, "3 records created")

	rows := s.TableRows()
	assert.Contains(t, rows, []string{"created.clone", "2"})
	assert.Contains(t, rows, []string{"created.production_market", "1"})
	assert.Contains(t, rows, []string{"stage.connect", "2s"})

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, printJSON(cmd, s))
	var decoded regionalization.Audit
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "r1", decoded.RunID)
	assert.Equal(t, 2, decoded.Created[regionalization.KindClone])
}

func TestSpatializeResult_String(t *testing.T) {
	r := spatializeResult{&spatialization.Result{SourceDatabase: "ei", TargetDatabase: "ei regionalized", Processes: 3, Rewritten: 5}}
	assert.Equal(t, "ei -> ei regionalized: 3 records (0 aggregated), 5 exchanges spatialized, 0 without variant, 0 flows created", r.String())

	r.Skipped = true
	assert.Contains(t, r.String(), "already exists")
}

func TestEventPrinter(t *testing.T) {
	var buf bytes.Buffer
	printEvent := eventPrinter(&buf, false)
	ev := regionalization.Event{
		Type: regionalization.EventStageFailed, RunID: "r1", Stage: regionalization.StageConnect,
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Elapsed: 1234 * time.Millisecond, Error: "boom",
	}
	require.NoError(t, printEvent(context.Background(), ev, nil))
	assert.Equal(t, "2026-01-01T00:00:00Z  stage.failed     run=r1 stage=connect elapsed=1.234s error=\"boom\"\n", buf.String())

	buf.Reset()
	env, err := kafka.NewEventEnvelope(ev.Type, ev)
	require.NoError(t, err)
	require.NoError(t, eventPrinter(&buf, true)(context.Background(), ev, env))
	var decoded kafka.EventEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, env.EventID, decoded.EventID)
}

func TestCountTables(t *testing.T) {
	tbl := &tables.Tables{
		Version:     "3.10",
		ProductToHS: map[string]string{"steel": "7208", "copper": "7403"},
		HeatGeos:    map[string][]string{tables.HeatDistrictNaturalGas: {"DE"}},
	}
	c := countTables(tbl, 7)
	assert.Equal(t, 2, c.Counts[tables.FileProductToHS])
	assert.Equal(t, 1, c.Counts[tables.FileHeatNG])
	assert.Equal(t, 0, c.Counts[tables.FileHeatNonNG])
	assert.Equal(t, 7, c.Counts[tables.FileSpatializedBiosphere])
	assert.Contains(t, c.String(), "tables for 3.10 are valid")
}

//Personal.AI order the ending
