package sqlweave

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/toyz/dbweave/pkg/weave"
)

func sqliteDriver(t *testing.T) driver.Driver {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db.Driver()
}

func openTraced(t *testing.T, recorder weave.Recorder) *sql.DB {
	t.Helper()
	db := OpenDB(sqliteDriver(t), ":memory:", WithRecorder(recorder))
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenDB_CapturesStatements(t *testing.T) {
	recorder := weave.NewMemoryRecorder(16)
	db := openTraced(t, recorder)

	_, err := db.Exec("CREATE TABLE users (name TEXT, age INTEGER)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO users (name, age) VALUES (?, ?)", "alice", 30)
	require.NoError(t, err)

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM users WHERE age > ?", 18).Scan(&name))
	assert.Equal(t, "alice", name)

	ops := recorder.Operations()
	require.Len(t, ops, 3)

	insert := ops[1]
	assert.Equal(t, TypeName, insert.TypeName)
	assert.Equal(t, ":memory:", insert.URL)
	assert.Equal(t, "INSERT INTO users (name, age) VALUES (?, ?)", insert.SQL)
	assert.True(t, insert.Success)
	if diff := cmp.Diff(map[int]any{1: "alice", 2: int64(30)}, insert.BindValues); diff != "" {
		t.Errorf("insert bind values mismatch (-want +got):\n%s", diff)
	}

	query := ops[2]
	assert.Equal(t, "SELECT name FROM users WHERE age > ?", query.SQL)
	if diff := cmp.Diff(map[int]any{1: int64(18)}, query.BindValues); diff != "" {
		t.Errorf("query bind values mismatch (-want +got):\n%s", diff)
	}
}

func TestPreparedStatement_RebindKeepsLatestValue(t *testing.T) {
	recorder := weave.NewMemoryRecorder(16)
	db := openTraced(t, recorder)

	_, err := db.Exec("CREATE TABLE items (id INTEGER, label TEXT)")
	require.NoError(t, err)

	stmt, err := db.Prepare("INSERT INTO items (id, label) VALUES (?, ?)")
	require.NoError(t, err)
	defer stmt.Close()

	_, err = stmt.Exec(1, "first")
	require.NoError(t, err)
	_, err = stmt.Exec(2, "second")
	require.NoError(t, err)

	ops := recorder.Operations()
	require.Len(t, ops, 3)
	if diff := cmp.Diff(map[int]any{1: int64(2), 2: "second"}, ops[2].BindValues); diff != "" {
		t.Errorf("bind values mismatch (-want +got):\n%s", diff)
	}
	assert.NotEqual(t, ops[1].ID, ops[2].ID)
}

func TestOpenDB_RecordsFailures(t *testing.T) {
	recorder := weave.NewMemoryRecorder(4)
	db := openTraced(t, recorder)

	_, err := db.Exec("INSERT INTO missing VALUES (1)")
	require.Error(t, err)

	ops := recorder.Operations()
	require.NotEmpty(t, ops)
	last := ops[len(ops)-1]
	assert.False(t, last.Success)
	assert.Error(t, last.Err)
}

func TestRegister(t *testing.T) {
	recorder := weave.NewMemoryRecorder(4)
	Register("sqlite-weave-register-test", sqliteDriver(t), WithRecorder(recorder))

	db, err := sql.Open("sqlite-weave-register-test", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
	assert.Equal(t, 1, recorder.Len())
}

func TestWrap_ErrorSinkOnHookFailure(t *testing.T) {
	sink := make(chan error, 4)
	panicking := weave.RecorderFunc(func(weave.Operation) { panic("recorder down") })

	db := OpenDB(sqliteDriver(t), ":memory:", WithRecorder(panicking), WithErrorSink(sink))
	db.SetMaxOpenConns(1)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)

	select {
	case err := <-sink:
		assert.Contains(t, err.Error(), "recorder down")
	default:
		t.Fatal("expected a recovered hook failure")
	}
}

func TestNamedValues(t *testing.T) {
	named := namedValues([]driver.Value{"a", int64(2)})
	assert.Equal(t, []driver.NamedValue{{Ordinal: 1, Value: "a"}, {Ordinal: 2, Value: int64(2)}}, named)

	_, err := plainValues([]driver.NamedValue{{Name: "id", Ordinal: 1, Value: 1}})
	assert.Error(t, err)
}
