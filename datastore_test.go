package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestOpenDatastoreCreatesDirectoryAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rem2", "data", SizeDBFile)

	db, err := OpenDatastore(path, DatastoreOptions{})
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	require.NoError(t, err, "datafile should exist after open")
	assert.Equal(t, 0, db.Count())
}

func TestDatastoreInsertAndFindOne(t *testing.T) {
	db := openTestDatastore(t)

	doc := &Document{Key: "system.size", Value: json.RawMessage(`{"width":10,"height":20}`)}
	require.NoError(t, db.Insert(doc))
	assert.Len(t, doc.ID, documentIDLength)

	found, err := db.FindOne("system.size")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, found.ID)
	assert.JSONEq(t, `{"width":10,"height":20}`, string(found.Value))

	_, err = db.FindOne("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDatastoreRejectsDuplicateKey(t *testing.T) {
	db := openTestDatastore(t)

	require.NoError(t, db.Insert(&Document{Key: "k", Value: json.RawMessage(`1`)}))
	err := db.Insert(&Document{Key: "k", Value: json.RawMessage(`2`)})
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, 1, db.Count())
}

func TestDatastoreUpdate(t *testing.T) {
	db := openTestDatastore(t)

	n, err := db.Update("k", json.RawMessage(`1`), false)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "update without upsert must not create")
	assert.Equal(t, 0, db.Count())

	n, err = db.Update("k", json.RawMessage(`1`), true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	first, err := db.FindOne("k")
	require.NoError(t, err)

	n, err = db.Update("k", json.RawMessage(`2`), true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, db.Count())

	second, err := db.FindOne("k")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "update keeps the document id")
	assert.Equal(t, "2", string(second.Value))
}

func TestDatastoreReloadKeepsLastWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), SizeDBFile)

	db, err := OpenDatastore(path, DatastoreOptions{})
	require.NoError(t, err)
	for _, v := range []string{`1`, `2`, `3`} {
		_, err := db.Update("k", json.RawMessage(v), true)
		require.NoError(t, err)
	}
	assert.Len(t, readLines(t, path), 3, "every write is appended")
	require.NoError(t, db.Close())

	reopened, err := OpenDatastore(path, DatastoreOptions{})
	require.NoError(t, err)
	defer reopened.Close()

	doc, err := reopened.FindOne("k")
	require.NoError(t, err)
	assert.Equal(t, "3", string(doc.Value))
	assert.Len(t, readLines(t, path), 1, "open compacts the datafile")
}

func TestDatastoreLoadsNedbDatafile(t *testing.T) {
	path := filepath.Join(t.TempDir(), SizeDBFile)
	content := strings.Join([]string{
		`{"$$indexCreated":{"fieldName":"key","unique":true}}`,
		`{"key":"system.size","value":{"width":800,"height":600},"_id":"aaaaaaaaaaaaaaaa"}`,
		`{"key":"system.size","value":{"width":1200,"height":800},"_id":"aaaaaaaaaaaaaaaa"}`,
		`{"key":"gone","value":1,"_id":"bbbbbbbbbbbbbbbb"}`,
		`{"$$deleted":true,"_id":"bbbbbbbbbbbbbbbb"}`,
		``,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	db, err := OpenDatastore(path, DatastoreOptions{})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.Count())
	doc, err := db.FindOne("system.size")
	require.NoError(t, err)
	assert.JSONEq(t, `{"width":1200,"height":800}`, string(doc.Value))

	_, err = db.FindOne("gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDatastoreDuplicateKeysKeepNewest(t *testing.T) {
	path := filepath.Join(t.TempDir(), SizeDBFile)
	content := `{"key":"k","value":1,"_id":"first000000000000"}
{"key":"k","value":2,"_id":"second00000000000"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	db, err := OpenDatastore(path, DatastoreOptions{})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.Count())
	doc, err := db.FindOne("k")
	require.NoError(t, err)
	assert.Equal(t, "2", string(doc.Value))
}

func TestDatastoreCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), SizeDBFile)

	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, `{"key":"k","value":1,"_id":"aaaaaaaaaaaaaaaa"}`)
	}
	lines = append(lines, `{"key":"k","val`)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644))

	db, err := OpenDatastore(path, DatastoreOptions{})
	require.NoError(t, err, "one bad line in eleven is under the threshold")
	require.NoError(t, db.Close())

	require.NoError(t, os.WriteFile(path, []byte("not json\n{\"key\":\"k\",\"_id\":\"x\"}\n"), 0644))
	_, err = OpenDatastore(path, DatastoreOptions{})
	assert.ErrorIs(t, err, ErrCorruptDatafile)

	require.NoError(t, os.WriteFile(path, []byte("not json\n{\"key\":\"k\",\"_id\":\"x\"}\n"), 0644))
	db, err = OpenDatastore(path, DatastoreOptions{CorruptAlertThreshold: 0.5})
	require.NoError(t, err, "a looser threshold accepts the file")
	db.Close()
}

func TestDatastoreCompact(t *testing.T) {
	db := openTestDatastore(t)

	for i := 0; i < 5; i++ {
		_, err := db.Update("k", json.RawMessage(`{"n":1}`), true)
		require.NoError(t, err)
	}
	require.Len(t, readLines(t, db.Path()), 5)

	require.NoError(t, db.Compact())
	assert.Len(t, readLines(t, db.Path()), 1)

	// Appends continue on the compacted file.
	_, err := db.Update("k", json.RawMessage(`{"n":2}`), true)
	require.NoError(t, err)
	assert.Len(t, readLines(t, db.Path()), 2)
}

func TestDatastoreClosed(t *testing.T) {
	db := openTestDatastore(t)
	require.NoError(t, db.Close())

	_, err := db.FindOne("k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, db.Insert(&Document{Key: "k"}), ErrClosed)
	_, err = db.Update("k", json.RawMessage(`1`), true)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, db.Compact(), ErrClosed)
	assert.NoError(t, db.Close(), "closing twice is harmless")
}
