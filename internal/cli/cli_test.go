package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/querycraft"
	"github.com/syssam/querycraft/dialect/sql"
)

// run executes qcraft with args in a fresh working directory.
func run(ctx context.Context, t *testing.T, w io.Writer, args ...string) error {
	t.Helper()
	cmd := NewRootCmd()
	cmd.SetOut(w)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func output(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := run(context.Background(), t, &buf, args...)
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const usersFile = `
name: adults
version: 1
columns: [id]
from: users
where: [{column: age, operator: ">", value: 18}]
---
name: all
from: users
`

func TestRender(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "users.yaml", usersFile)

	out, err := output(t, "render", "-d", "pg", path)
	require.NoError(t, err)
	assert.Contains(t, out, "-- adults v1 ("+path+")\n"+`SELECT "id" FROM "users" WHERE "age" > $1;`)
	assert.Contains(t, out, "int")
	assert.Contains(t, out, `SELECT * FROM "users";`)
}

func TestRenderJSON(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	a := writeFile(t, dir, "a.yaml", usersFile)
	b := writeFile(t, dir, "b.yaml", "kind: delete\ntable: sessions\nwhere: [{column: expired, value: true}]\n")

	out, err := output(t, "render", "-d", "mysql", "-o", "json", a, b)
	require.NoError(t, err)
	var got []struct {
		File string
		Name string
		Kind string
		SQL  string
		Args []any
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "SELECT `id` FROM `users` WHERE `age` > ?", got[0].SQL)
	assert.Equal(t, []any{float64(18)}, got[0].Args)
	assert.Equal(t, "all", got[1].Name)
	assert.Equal(t, b, got[2].File)
	assert.Equal(t, "DELETE", got[2].Kind)
	assert.Equal(t, "DELETE FROM `sessions` WHERE `expired` = ?", got[2].SQL)
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := output(t, "render", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "kind: delete\ntable: users\n")
	_, err = output(t, "render", bad)
	assert.True(t, querycraft.IsValidationError(err))

	merge := writeFile(t, dir, "merge.yaml", "kind: merge\ninto: t\nusing: s\non: [{column: t.id, value: {ident: s.id}}]\nwhen_matched: {delete: true}\n")
	_, err = output(t, "render", "-d", "sqlite", merge)
	assert.True(t, querycraft.IsUnsupportedFeature(err))

	_, err = output(t, "render", "-d", "oracle", merge)
	assert.True(t, querycraft.IsUnsupportedDatabase(err))

	// Every failing file is reported.
	good := writeFile(t, dir, "good.yaml", "from: users\n")
	out, err := output(t, "render", "-d", "sqlite", bad, good, merge)
	var agg *querycraft.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Len(t, agg.Errors, 2)
	assert.True(t, querycraft.IsValidationError(err))
	assert.True(t, querycraft.IsUnsupportedFeature(err))
	assert.Empty(t, out)

	_, err = output(t, "render")
	assert.Error(t, err)
}

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRenderWatch(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "users.yaml", "name: q\nfrom: users\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var buf syncBuffer
	done := make(chan error, 1)
	go func() { done <- run(ctx, t, &buf, "render", "--watch", "-d", "sqlite", path) }()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(buf.String()), []byte(`SELECT * FROM "users";`))
	}, 5*time.Second, 10*time.Millisecond)

	// The watcher is registered right after the first render.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("name: q\nfrom: accounts\n"), 0o600))
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(buf.String()), []byte(`SELECT * FROM "accounts";`))
	}, 5*time.Second, 10*time.Millisecond, "same name and version must not be served from the cache")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func createUsers(t *testing.T, dsn string) {
	t.Helper()
	drv, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer drv.Close()
	err = drv.Exec(context.Background(), `CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL UNIQUE, name TEXT)`, []any{}, nil)
	require.NoError(t, err)
}

func TestExec(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dsn := filepath.Join(dir, "app.db")
	createUsers(t, dsn)
	path := writeFile(t, dir, "seed.yaml", `
name: add
kind: insert
into: users
columns: [email, name]
values:
  - [a@x.io, Ann]
  - [b@x.io, Bob]
---
name: list
columns: [email, name]
from: users
order_by: [{column: email}]
`)

	out, err := output(t, "exec", "-d", "sqlite", "--dsn", dsn, "--tx", path)
	require.NoError(t, err)
	assert.Contains(t, out, "-- add: INSERT, 2 row(s) affected")
	assert.Contains(t, out, "-- list: SELECT, 2 row(s)")
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "b@x.io")

	list := writeFile(t, dir, "list.yaml", "name: list\ncolumns: [name]\nfrom: users\norder_by: [{column: name, desc: true}]\n")
	out, err = output(t, "exec", "-d", "sqlite", "--dsn", dsn, "-o", "json", list)
	require.NoError(t, err)
	var got []execResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, []string{"name"}, got[0].Columns)
	assert.Equal(t, [][]any{{"Bob"}, {"Ann"}}, got[0].Rows)
}

func TestExecRollback(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dsn := filepath.Join(dir, "app.db")
	createUsers(t, dsn)
	t.Setenv("QCRAFT_DSN", dsn)
	t.Setenv("QCRAFT_DIALECT", "sqlite3")

	path := writeFile(t, dir, "dup.yaml", `
kind: insert
into: users
columns: [email]
values: [[c@x.io]]
---
kind: insert
into: users
columns: [email]
values: [[d@x.io], [d@x.io]]
`)
	_, err := output(t, "exec", "--tx", path)
	require.Error(t, err)
	assert.True(t, sql.IsUniqueConstraintError(err))

	count := writeFile(t, dir, "count.yaml", "aggregations: [{func: count, column: '*', alias: n}]\nfrom: users\n")
	out, err := output(t, "exec", "-o", "json", count)
	require.NoError(t, err)
	var got []execResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, [][]any{{float64(0)}}, got[0].Rows)
}

func TestExecVars(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dsn := filepath.Join(dir, "app.db")
	createUsers(t, dsn)
	drv, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	err = drv.Exec(context.Background(), `CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users (id))`, []any{}, nil)
	require.NoError(t, err)
	require.NoError(t, drv.Close())

	path := writeFile(t, dir, "orders.yaml", "kind: insert\ninto: orders\ncolumns: [user_id]\nvalues: [[42]]\n")
	_, err = output(t, "exec", "-d", "sqlite", "--dsn", dsn, "--var", "foreign_keys=on", path)
	require.Error(t, err)
	assert.True(t, sql.IsForeignKeyConstraintError(err))

	out, err := output(t, "exec", "-d", "sqlite", "--dsn", dsn, "--var", "foreign_keys=off", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 row(s) affected")

	_, err = output(t, "exec", "-d", "sqlite", "--dsn", dsn, "--var", "foreign_keys", path)
	assert.ErrorContains(t, err, "expected name=value")
}

func TestExecNoDSN(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "q.yaml", "from: users\n")
	_, err := output(t, "exec", path)
	assert.ErrorContains(t, err, "data source name")
}

func TestTypes(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := output(t, "types", "-d", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "DOUBLE")
	assert.Contains(t, out, "REAL")
	assert.Contains(t, out, "IntegerType")

	out, err = output(t, "types", "--all", "-o", "json")
	require.NoError(t, err)
	var got map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, 3)
	assert.Contains(t, got, "mysql")
	assert.NotEmpty(t, got["postgres"])
}

func TestDialects(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := output(t, "dialects")
	require.NoError(t, err)
	assert.Contains(t, out, "mariadb")
	assert.Contains(t, out, "positional")

	out, err = output(t, "dialects", "-o", "json")
	require.NoError(t, err)
	var got []dialectInfo
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, dialectInfo{Name: "postgres", Aliases: []string{"pg", "pgx", "postgres", "postgresql"}, Params: "positional"}, got[1])
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "qcraft.yaml", "dialect: mysql\noutput: json\n")
	out, err := output(t, "dialects")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))

	_, err = output(t, "--config", filepath.Join(dir, "nope.yaml"), "dialects")
	assert.Error(t, err)
	_, err = output(t, "--log-format", "xml", "dialects")
	assert.Error(t, err)
}
