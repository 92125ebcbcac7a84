package storer

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/iancoleman/strcase"
	"github.com/jcodybaker/security-check/pkg/types/check"
	"github.com/xo/dburl"
)

const (
	defaultConnectTimeout = "10s"
	defaultReadTimeout    = "10s"
	defaultWriteTimeout   = "10s"

	// Column widths, in characters.
	maxMessageLen  = 512
	maxNameLen     = 64
	maxHostnameLen = 255
	maxLabelLen    = 64
)

var (
	// mysqlConfigID ensures any certificates registered against the driver are given a unique name.
	mysqlConfigID   = 1
	mysqlConfigLock sync.Mutex
)

type mysqlStorer struct {
	db *sql.DB
	commonStorer
}

// NewMySQLStorer creates a new storer driver for a MySQL backend.
func NewMySQLStorer(ctx context.Context, uri, cert string, createTables bool) (Storer, error) {
	connStr, err := mysqlDSN(uri, cert)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", connStr)
	if err != nil {
		return nil, err
	}
	// Open() only inits the config & pool, do a Ping() to establish/validate a connection.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	m := &mysqlStorer{
		db: db,
	}
	if err := m.init(ctx, createTables); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func mysqlDSN(uri, cert string) (string, error) {
	u, err := dburl.Parse(uri)
	if err != nil {
		return "", err
	}
	q := u.Query()
	tlsMode := "true"
	if cert != "" {
		tlsMode, err = RegisterMySQLCertificate(cert)
		if err != nil {
			return "", fmt.Errorf("loading TLS cert: %w", err)
		}
	}
	if cert != "" || strings.EqualFold(q.Get("ssl-mode"), "required") {
		q.Del("ssl-mode")
		q.Add("tls", tlsMode)
	}
	q.Set("parseTime", "true")
	if q.Get("timeout") == "" {
		q.Add("timeout", defaultConnectTimeout)
	}
	if q.Get("writeTimeout") == "" {
		q.Add("writeTimeout", defaultWriteTimeout)
	}
	if q.Get("readTimeout") == "" {
		q.Add("readTimeout", defaultReadTimeout)
	}
	u.RawQuery = q.Encode()
	return dburl.GenMysql(u)
}

// SaveRunResults saves a run and its results in a single transaction.
func (m *mysqlStorer) SaveRunResults(ctx context.Context, run check.RunResults) (err error) {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelDefault,
	})
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	r, err := runInsert(run).RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("storing run: %w", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return err
	}

	if q, ok := resultsInsert(id, run.Results); ok {
		if _, err = q.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("storing results: %w", err)
		}
	}
	if run.Instance != nil {
		if q, ok := labelsInsert(id, run.Instance.Labels); ok {
			if _, err = q.RunWith(tx).ExecContext(ctx); err != nil {
				return fmt.Errorf("storing labels: %w", err)
			}
		}
	}
	return nil
}

// truncate shortens s to at most n characters without splitting a multi-byte character.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	var i int
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func runInsert(run check.RunResults) sq.InsertBuilder {
	var instanceUUID, hostname sql.NullString
	if run.Instance != nil {
		instanceUUID = sql.NullString{Valid: true, String: run.Instance.UUID}
		hostname = sql.NullString{Valid: true, String: truncate(run.Instance.Hostname, maxHostnameLen)}
	}
	return sq.Insert("runs").
		Columns("uuid", "instance_uuid", "hostname", "ts", "duration_s", "exit_code").
		Values(run.ID, instanceUUID, hostname, run.TS, run.Duration.Seconds(), int(run.ExitCode))
}

func resultsInsert(runID int64, results []check.CheckResult) (sq.InsertBuilder, bool) {
	q := sq.Insert("run_results").Columns("run_id", "position", "check_name", "passed", "severity", "message")
	for i, r := range results {
		q = q.Values(
			runID,
			i,
			truncate(strcase.ToSnake(r.Name), maxNameLen),
			r.Passed,
			r.Severity.String(),
			truncate(r.Message, maxMessageLen),
		)
	}
	return q, len(results) > 0
}

// labelsInsert inserts labels in key order. Keys which collide once truncated keep the first value.
func labelsInsert(runID int64, labels map[string]string) (sq.InsertBuilder, bool) {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	q := sq.Insert("run_labels").Columns("run_id", "k", "v")
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		tk := truncate(k, maxLabelLen)
		if seen[tk] {
			continue
		}
		seen[tk] = true
		q = q.Values(runID, tk, truncate(labels[k], maxLabelLen))
	}
	return q, len(keys) > 0
}

// Close shuts down the database handle and any async savers.
func (m *mysqlStorer) Close() error {
	m.shutdown()
	return m.db.Close()
}

// RegisterMySQLCertificate registers a CA certificate with the mysql driver and returns the
// name of the resulting tls config. cert is either PEM data or an absolute path to a PEM file.
func RegisterMySQLCertificate(cert string) (string, error) {
	rootCertPool := x509.NewCertPool()
	pem := []byte(cert)
	if strings.HasPrefix(cert, "/") {
		var err error
		pem, err = os.ReadFile(cert)
		if err != nil {
			return "", err
		}
	}
	if ok := rootCertPool.AppendCertsFromPEM(pem); !ok {
		return "", errors.New("appending certificate to pool")
	}

	mysqlConfigLock.Lock()
	mysqlConfigName := fmt.Sprintf("custom%d", mysqlConfigID)
	mysqlConfigID++
	mysqlConfigLock.Unlock()
	if err := mysql.RegisterTLSConfig(mysqlConfigName, &tls.Config{
		RootCAs: rootCertPool,
	}); err != nil {
		return "", err
	}
	return mysqlConfigName, nil
}

var schema = []struct {
	table string
	ddl   string
}{
	{
		table: "runs",
		ddl: `
			CREATE TABLE IF NOT EXISTS runs (
				id INT NOT NULL AUTO_INCREMENT,
				uuid CHAR(36) NOT NULL,
				instance_uuid CHAR(36) NULL,
				hostname VARCHAR(255) NULL,
				ts TIMESTAMP(6) NOT NULL,
				duration_s DOUBLE NOT NULL,
				exit_code TINYINT NOT NULL,
				KEY ts (ts),
				KEY hostname (hostname),
				UNIQUE KEY uuid (uuid),
				PRIMARY KEY(id)
			)`,
	},
	{
		table: "run_results",
		ddl: `
			CREATE TABLE IF NOT EXISTS run_results (
				run_id INT NOT NULL,
				position INT NOT NULL,
				check_name VARCHAR(64) NOT NULL,
				passed BOOL NOT NULL,
				severity VARCHAR(16) NOT NULL,
				message VARCHAR(512) NOT NULL,
				KEY check_name (check_name),
				PRIMARY KEY(run_id, position)
			)`,
	},
	{
		table: "run_labels",
		ddl: `
			CREATE TABLE IF NOT EXISTS run_labels (
				run_id INT NOT NULL,
				k VARCHAR(64) NOT NULL,
				v VARCHAR(64) NOT NULL,
				KEY kv (k, v),
				PRIMARY KEY(run_id, k)
			)`,
	},
}

func (m *mysqlStorer) init(ctx context.Context, createTables bool) error {
	m.commonStorer.init()
	if !createTables {
		return nil
	}
	for _, t := range schema {
		exists, err := m.tableExists(ctx, t.table)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		// We keep the "IF NOT EXISTS" because there may be other instances creating these tables.
		if _, err := m.db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("creating table %s: %w", t.table, err)
		}
	}
	return nil
}

// AnalyzeFailures reports run and failure counts per check within [start, end].
func (m *mysqlStorer) AnalyzeFailures(
	ctx context.Context,
	start time.Time,
	end time.Time,
	output func(checkName string, runs, failures int),
) error {
	rows, err := failuresQuery(start, end).RunWith(m.db).QueryContext(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var runs, failures int
		if err := rows.Scan(&name, &runs, &failures); err != nil {
			return err
		}
		output(name, runs, failures)
	}
	return rows.Err()
}

func failuresQuery(start, end time.Time) sq.SelectBuilder {
	return sq.Select("rr.check_name", "COUNT(*)", "SUM(CASE WHEN rr.passed THEN 0 ELSE 1 END)").
		From("run_results rr").
		Join("runs r ON r.id = rr.run_id").
		Where(sq.And{sq.GtOrEq{"r.ts": start}, sq.LtOrEq{"r.ts": end}}).
		GroupBy("rr.check_name").
		OrderBy("rr.check_name")
}

func (m *mysqlStorer) tableExists(ctx context.Context, table string) (bool, error) {
	err := m.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` LIMIT 1`).Scan(new(int))
	var mErr *mysql.MySQLError
	switch {
	case err == nil, errors.Is(err, sql.ErrNoRows):
		return true, nil
	case errors.As(err, &mErr) && mErr.Number == 1146:
		return false, nil
	default:
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}
}
