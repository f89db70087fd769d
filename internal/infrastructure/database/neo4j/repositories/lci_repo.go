package repositories

import (
	"context"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/regioinvent/internal/domain/lci"
	driver "github.com/turtacn/regioinvent/internal/infrastructure/database/neo4j"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

const defaultBatchSize = 500

// Activities are (:Activity {database, code}) nodes owning their exchanges
// as (:Exchange) nodes; biosphere flows are (:Flow {database, code}).
const (
	schemaActivityKey = `CREATE CONSTRAINT activity_key IF NOT EXISTS
		FOR (a:Activity) REQUIRE (a.database, a.code) IS UNIQUE`
	schemaFlowKey = `CREATE CONSTRAINT flow_key IF NOT EXISTS
		FOR (f:Flow) REQUIRE (f.database, f.code) IS UNIQUE`

	queryDatabases = `
		MATCH (a:Activity)
		RETURN DISTINCT a.database AS database
		ORDER BY database`

	queryExtract = `
		MATCH (a:Activity {database: $database})
		OPTIONAL MATCH (a)-[:HAS_EXCHANGE]->(x:Exchange)
		WITH a, x ORDER BY x.position
		RETURN a, collect(x) AS exchanges
		ORDER BY a.code`

	queryWrite = `
		UNWIND $rows AS row
		MERGE (a:Activity {database: $database, code: row.code})
		SET a += row.props
		WITH a, row
		OPTIONAL MATCH (a)-[:HAS_EXCHANGE]->(old:Exchange)
		DETACH DELETE old
		WITH DISTINCT a, row
		UNWIND row.exchanges AS ex
		CREATE (a)-[:HAS_EXCHANGE]->(x:Exchange)
		SET x = ex`

	queryDelete = `
		MATCH (a:Activity {database: $database})
		OPTIONAL MATCH (a)-[:HAS_EXCHANGE]->(x:Exchange)
		DETACH DELETE x, a`

	queryFlows = `
		MATCH (f:Flow {database: $database})
		RETURN f
		ORDER BY f.code`

	queryWriteFlows = `
		UNWIND $rows AS row
		MERGE (f:Flow {database: $database, code: row.code})
		SET f.name = row.name, f.categories = row.categories, f.unit = row.unit`
)

type neo4jLCIRepo struct {
	driver    driver.DriverInterface
	log       logging.Logger
	batchSize int
}

// NewNeo4jLCIRepo returns an lci.Repository backed by Cypher. Writes of one
// call share a transaction; batchSize bounds the rows per statement.
func NewNeo4jLCIRepo(d driver.DriverInterface, log logging.Logger, batchSize int) lci.Repository {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &neo4jLCIRepo{driver: d, log: log, batchSize: batchSize}
}

// EnsureSchema creates the key constraints.
func EnsureSchema(ctx context.Context, d driver.DriverInterface) error {
	_, err := d.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		for _, stmt := range []string{schemaActivityKey, schemaFlowKey} {
			if _, err := tx.Run(ctx, stmt, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (r *neo4jLCIRepo) Databases(ctx context.Context) ([]string, error) {
	out, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		res, err := tx.Run(ctx, queryDatabases, nil)
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, res, func(rec *neo4j.Record) (string, error) {
			v, _ := rec.Get("database")
			s, _ := v.(string)
			return s, nil
		})
	})
	if err != nil {
		return nil, err
	}
	dbs, _ := out.([]string)
	return dbs, nil
}

func (r *neo4jLCIRepo) Extract(ctx context.Context, database string) ([]*lci.Process, error) {
	out, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		res, err := tx.Run(ctx, queryExtract, map[string]any{"database": database})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, res, func(rec *neo4j.Record) (*lci.Process, error) {
			return toProcess(database, rec)
		})
	})
	if err != nil {
		return nil, err
	}
	ps, _ := out.([]*lci.Process)
	r.log.Debug("partition extracted", logging.Partition(database), logging.Count("processes", len(ps)))
	return ps, nil
}

func (r *neo4jLCIRepo) Write(ctx context.Context, database string, processes map[lci.Key]*lci.Process) error {
	keys := make([]lci.Key, 0, len(processes))
	for k := range processes {
		if k.Database != database {
			return errors.New(errors.ErrCodeValidation, "record does not belong to the partition").
				WithDetail(k.String())
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Code < keys[j].Code })

	rows := make([]any, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, processRow(processes[k]))
	}
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		return nil, driver.RunInBatches(ctx, tx, queryWrite, map[string]any{"database": database}, rows, r.batchSize)
	})
	if err != nil {
		return err
	}
	r.log.Info("partition written", logging.Partition(database), logging.Count("processes", len(rows)))
	return nil
}

func (r *neo4jLCIRepo) Delete(ctx context.Context, database string) error {
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		_, err := tx.Run(ctx, queryDelete, map[string]any{"database": database})
		return nil, err
	})
	return err
}

func (r *neo4jLCIRepo) Flows(ctx context.Context, database string) ([]lci.Flow, error) {
	out, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		res, err := tx.Run(ctx, queryFlows, map[string]any{"database": database})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, res, func(rec *neo4j.Record) (lci.Flow, error) {
			node, err := nodeAt(rec, "f")
			if err != nil {
				return lci.Flow{}, err
			}
			return lci.Flow{
				Key:        lci.Key{Database: database, Code: str(node.Props, "code")},
				Name:       str(node.Props, "name"),
				Categories: strs(node.Props, "categories"),
				Unit:       str(node.Props, "unit"),
			}, nil
		})
	})
	if err != nil {
		return nil, err
	}
	flows, _ := out.([]lci.Flow)
	return flows, nil
}

func (r *neo4jLCIRepo) WriteFlows(ctx context.Context, database string, flows []lci.Flow) error {
	rows := make([]any, 0, len(flows))
	for _, f := range flows {
		rows = append(rows, map[string]any{
			"code":       f.Code,
			"name":       f.Name,
			"categories": f.Categories,
			"unit":       f.Unit,
		})
	}
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		return nil, driver.RunInBatches(ctx, tx, queryWriteFlows, map[string]any{"database": database}, rows, r.batchSize)
	})
	return err
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

func processRow(p *lci.Process) map[string]any {
	props := map[string]any{
		"name":              p.Name,
		"reference_product": p.ReferenceProduct,
		"location":          p.Location,
		"unit":              p.Unit,
		"type":              p.Type,
		"comment":           p.Comment,
	}
	if p.ClonedFrom != nil {
		props["cloned_from_database"] = p.ClonedFrom.Database
		props["cloned_from_code"] = p.ClonedFrom.Code
	}
	exchanges := make([]any, 0, len(p.Exchanges))
	for i, e := range p.Exchanges {
		exchanges = append(exchanges, map[string]any{
			"position":       int64(i),
			"amount":         e.Amount,
			"type":           string(e.Type),
			"product":        e.Product,
			"name":           e.Name,
			"unit":           e.Unit,
			"location":       e.Location,
			"categories":     append([]string{}, e.Categories...),
			"input_database": e.Input.Database,
			"input_code":     e.Input.Code,
		})
	}
	return map[string]any{"code": p.Code, "props": props, "exchanges": exchanges}
}

func toProcess(database string, rec *neo4j.Record) (*lci.Process, error) {
	node, err := nodeAt(rec, "a")
	if err != nil {
		return nil, err
	}
	p := &lci.Process{
		Key:              lci.Key{Database: database, Code: str(node.Props, "code")},
		Name:             str(node.Props, "name"),
		ReferenceProduct: str(node.Props, "reference_product"),
		Location:         str(node.Props, "location"),
		Unit:             str(node.Props, "unit"),
		Type:             str(node.Props, "type"),
		Comment:          str(node.Props, "comment"),
	}
	if code := str(node.Props, "cloned_from_code"); code != "" {
		p.ClonedFrom = &lci.Key{Database: str(node.Props, "cloned_from_database"), Code: code}
	}

	raw, _ := rec.Get("exchanges")
	list, _ := raw.([]any)
	for _, item := range list {
		x, ok := item.(neo4j.Node)
		if !ok {
			continue
		}
		amount, _ := x.Props["amount"].(float64)
		p.Exchanges = append(p.Exchanges, &lci.Exchange{
			Amount:     amount,
			Type:       lci.ExchangeType(str(x.Props, "type")),
			Product:    str(x.Props, "product"),
			Name:       str(x.Props, "name"),
			Unit:       str(x.Props, "unit"),
			Location:   str(x.Props, "location"),
			Categories: strs(x.Props, "categories"),
			Input:      lci.Key{Database: str(x.Props, "input_database"), Code: str(x.Props, "input_code")},
			Output:     p.Key,
		})
	}
	return p, nil
}

func nodeAt(rec *neo4j.Record, key string) (neo4j.Node, error) {
	v, ok := rec.Get(key)
	if !ok {
		return neo4j.Node{}, errors.Newf(errors.ErrCodeSerialization, "record has no %q column", key)
	}
	node, ok := v.(neo4j.Node)
	if !ok {
		return neo4j.Node{}, errors.Newf(errors.ErrCodeSerialization, "column %q is %T, not a node", key, v)
	}
	return node, nil
}

func str(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func strs(props map[string]any, key string) []string {
	switch v := props[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

//Personal.AI order the ending
