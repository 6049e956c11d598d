package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Datastore file constants
const (
	DatastoreDirMode  = 0755
	DatastoreFileMode = 0644

	// DefaultCorruptAlertThreshold is the share of unreadable lines tolerated on load.
	DefaultCorruptAlertThreshold = 0.1

	// MaxDocumentSize bounds a single line of the datafile.
	MaxDocumentSize = 1 << 20

	documentIDLength = 16
)

// Datastore errors
var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrCorruptDatafile = errors.New("datafile is corrupt")
	ErrClosed          = errors.New("datastore is closed")
)

// Document is one entry of the collection. Documents are unique by Key.
type Document struct {
	ID    string          `json:"_id"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
}

// datafileLine covers every line shape found in an nedb datafile.
type datafileLine struct {
	ID           string          `json:"_id"`
	Key          string          `json:"key"`
	Value        json.RawMessage `json:"value,omitempty"`
	Deleted      bool            `json:"$$deleted,omitempty"`
	IndexCreated json.RawMessage `json:"$$indexCreated,omitempty"`
}

// DatastoreOptions tunes loading behaviour.
type DatastoreOptions struct {
	// CorruptAlertThreshold is the tolerated fraction of corrupt lines (0-1).
	// Zero selects DefaultCorruptAlertThreshold.
	CorruptAlertThreshold float64
}

// storedDocument pairs a document with the line sequence it was last written at.
type storedDocument struct {
	doc Document
	seq int
}

// Datastore is a single-collection document store persisted as an
// append-only log of JSON lines. Every operation is serialized.
type Datastore struct {
	path  string
	opts  DatastoreOptions
	mutex sync.Mutex
	file  *os.File
	byKey map[string]*storedDocument
	seq   int
}

// OpenDatastore loads the datafile at path, creating it when missing, and
// compacts it so the log starts from the live documents only.
func OpenDatastore(path string, opts DatastoreOptions) (*Datastore, error) {
	if opts.CorruptAlertThreshold <= 0 {
		opts.CorruptAlertThreshold = DefaultCorruptAlertThreshold
	}

	if err := os.MkdirAll(filepath.Dir(path), DatastoreDirMode); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", filepath.Dir(path), err)
	}

	ds := &Datastore{
		path:  path,
		opts:  opts,
		byKey: make(map[string]*storedDocument),
	}

	if err := ds.load(); err != nil {
		return nil, err
	}

	if err := ds.compactLocked(); err != nil {
		return nil, err
	}

	return ds, nil
}

// Path returns the datafile location.
func (ds *Datastore) Path() string {
	return ds.path
}

// load replays the datafile. A later line for the same _id replaces the
// earlier one and a $$deleted line removes it.
func (ds *Datastore) load() error {
	f, err := os.Open(ds.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open datafile %s: %w", ds.path, err)
	}
	defer f.Close()

	byID := make(map[string]*storedDocument)
	total, corrupt := 0, 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxDocumentSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var rec datafileLine
		if err := json.Unmarshal(line, &rec); err != nil {
			corrupt++
			continue
		}

		switch {
		case rec.IndexCreated != nil:
			continue
		case rec.ID == "":
			corrupt++
		case rec.Deleted:
			delete(byID, rec.ID)
		default:
			ds.seq++
			byID[rec.ID] = &storedDocument{
				doc: Document{ID: rec.ID, Key: rec.Key, Value: rec.Value},
				seq: ds.seq,
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read datafile %s: %w", ds.path, err)
	}

	if total > 0 && float64(corrupt)/float64(total) > ds.opts.CorruptAlertThreshold {
		return fmt.Errorf("%w: %d of %d lines unreadable in %s", ErrCorruptDatafile, corrupt, total, ds.path)
	}

	// The unique key index keeps the most recently written document.
	for _, stored := range byID {
		existing, ok := ds.byKey[stored.doc.Key]
		if !ok || stored.seq > existing.seq {
			ds.byKey[stored.doc.Key] = stored
		}
	}

	return nil
}

// FindOne returns a copy of the document stored under key.
func (ds *Datastore) FindOne(key string) (*Document, error) {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if ds.byKey == nil {
		return nil, ErrClosed
	}

	stored, ok := ds.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	doc := stored.doc
	return &doc, nil
}

// Insert adds a new document, assigning an _id when the caller left it empty.
func (ds *Datastore) Insert(doc *Document) error {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if ds.byKey == nil {
		return ErrClosed
	}

	if _, exists := ds.byKey[doc.Key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, doc.Key)
	}

	if doc.ID == "" {
		doc.ID = newDocumentID()
	}

	return ds.writeLocked(*doc)
}

// Update replaces the value of the document stored under key and returns
// the number of documents affected. With upsert a missing document is created.
func (ds *Datastore) Update(key string, value json.RawMessage, upsert bool) (int, error) {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if ds.byKey == nil {
		return 0, ErrClosed
	}

	stored, ok := ds.byKey[key]
	if !ok {
		if !upsert {
			return 0, nil
		}
		doc := Document{ID: newDocumentID(), Key: key, Value: value}
		if err := ds.writeLocked(doc); err != nil {
			return 0, err
		}
		return 1, nil
	}

	doc := stored.doc
	doc.Value = value
	if err := ds.writeLocked(doc); err != nil {
		return 0, err
	}
	return 1, nil
}

// Count returns the number of live documents.
func (ds *Datastore) Count() int {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	return len(ds.byKey)
}

// Compact rewrites the datafile so it only holds the live documents.
func (ds *Datastore) Compact() error {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if ds.byKey == nil {
		return ErrClosed
	}
	return ds.compactLocked()
}

// Close releases the datafile. Further operations return ErrClosed.
func (ds *Datastore) Close() error {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	ds.byKey = nil
	if ds.file == nil {
		return nil
	}
	err := ds.file.Close()
	ds.file = nil
	return err
}

// writeLocked appends doc to the log and then updates the in-memory index.
// The index is left untouched when the append fails.
func (ds *Datastore) writeLocked(doc Document) error {
	line, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", doc.Key, err)
	}

	if ds.file == nil {
		f, err := os.OpenFile(ds.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, DatastoreFileMode)
		if err != nil {
			return fmt.Errorf("failed to open datafile %s: %w", ds.path, err)
		}
		ds.file = f
	}

	if _, err := ds.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append to datafile %s: %w", ds.path, err)
	}

	ds.seq++
	ds.byKey[doc.Key] = &storedDocument{doc: doc, seq: ds.seq}
	return nil
}

// compactLocked writes the live documents to a temporary file and renames it
// over the datafile.
func (ds *Datastore) compactLocked() error {
	docs := make([]*storedDocument, 0, len(ds.byKey))
	for _, stored := range ds.byKey {
		docs = append(docs, stored)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].seq < docs[j].seq })

	var buf bytes.Buffer
	for _, stored := range docs {
		line, err := json.Marshal(stored.doc)
		if err != nil {
			return fmt.Errorf("failed to encode document %s: %w", stored.doc.Key, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	tmpPath := ds.path + "~"
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, DatastoreFileMode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	// The append handle points at the old inode once the rename lands.
	if ds.file != nil {
		ds.file.Close()
		ds.file = nil
	}

	if err := os.Rename(tmpPath, ds.path); err != nil {
		return fmt.Errorf("failed to replace datafile %s: %w", ds.path, err)
	}
	return nil
}

// newDocumentID returns a 16 character identifier like the ones nedb generates.
func newDocumentID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:documentIDLength]
}
