package persistence

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/graphshell/am"
	"github.com/teranos/graphshell/errors"
	"github.com/teranos/graphshell/graphmodel"
	"github.com/teranos/graphshell/reducer"
)

// LogEntry is one length-prefixed gob record appended to journal.log. It
// wraps a reducer.Intent batch plus the metadata needed to replay it in
// order on restore.
type LogEntry struct {
	Sequence  uint64
	Source    reducer.Source
	RecordedAt time.Time
	Intents   []reducer.Intent
}

// Store manages the journal, snapshot, and workspace-bundle files under a
// data directory, per spec.md §4.7's on-disk layout.
type Store struct {
	dir      string
	cfg      am.PersistenceConfig
	sequence uint64
}

// NewStore creates a Store rooted at dataDir, creating the snapshot and
// workspace subdirectories if absent.
func NewStore(dataDir string, cfg am.PersistenceConfig) (*Store, error) {
	s := &Store{dir: dataDir, cfg: cfg}
	if err := os.MkdirAll(s.snapshotDir(), am.DefaultDirPermissions); err != nil {
		return nil, errors.Wrap(err, "create snapshot directory")
	}
	if err := os.MkdirAll(s.workspaceDir(), am.DefaultDirPermissions); err != nil {
		return nil, errors.Wrap(err, "create workspace directory")
	}
	return s, nil
}

func (s *Store) journalPath() string {
	path := s.cfg.JournalPath
	if path == "" {
		path = "journal.log"
	}
	return filepath.Join(s.dir, path)
}

func (s *Store) snapshotDir() string {
	dir := s.cfg.SnapshotDir
	if dir == "" {
		dir = "snapshots"
	}
	return filepath.Join(s.dir, dir)
}

func (s *Store) workspaceDir() string {
	dir := s.cfg.WorkspaceDir
	if dir == "" {
		dir = "workspaces"
	}
	return filepath.Join(s.dir, dir)
}

func (s *Store) snapshotPath() string {
	return filepath.Join(s.snapshotDir(), "snapshot.bin")
}

// Append writes one length-prefixed gob-encoded LogEntry to the journal,
// assigning it the next sequence number.
func (s *Store) Append(source reducer.Source, intents []reducer.Intent) error {
	f, err := os.OpenFile(s.journalPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, am.DefaultFilePermissions)
	if err != nil {
		return errors.Wrap(err, "open journal")
	}
	defer f.Close()

	s.sequence++
	entry := LogEntry{Sequence: s.sequence, Source: source, RecordedAt: time.Now(), Intents: intents}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return errors.Wrap(err, "encode log entry")
	}

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(buf.Len()))
	if _, err := f.Write(lenPrefix[:]); err != nil {
		return errors.Wrap(err, "write journal length prefix")
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "write journal entry")
	}
	return errors.Wrap(f.Sync(), "sync journal")
}

// ReplayJournal reads every LogEntry from journal.log in order. Missing
// journal files replay as empty.
func (s *Store) ReplayJournal() ([]LogEntry, error) {
	f, err := os.Open(s.journalPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open journal for replay")
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var entries []LogEntry
	for {
		var lenPrefix [4]byte
		if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
			if err == io.EOF {
				break
			}
			return entries, errors.Wrap(err, "read journal length prefix")
		}
		size := binary.BigEndian.Uint32(lenPrefix[:])
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return entries, errors.Wrap(err, "read journal entry, truncated tail discarded")
		}

		var entry LogEntry
		if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&entry); err != nil {
			return entries, errors.Wrap(err, "decode journal entry")
		}
		entries = append(entries, entry)
		if entry.Sequence > s.sequence {
			s.sequence = entry.Sequence
		}
	}
	return entries, nil
}

// Snapshot is the full-state fast-forward payload written to snapshot.bin.
type Snapshot struct {
	TakenAt time.Time
	Nodes   map[uuid.UUID]*graphmodel.Node
	Edges   map[uuid.UUID]*graphmodel.Edge
}

// WriteSnapshot atomically replaces snapshot.bin with snap, using the
// write-temp/fsync/rename sequence db/migrate.go's transactional commits
// are grounded on, then truncates the journal since its entries are now
// superseded.
func (s *Store) WriteSnapshot(snap Snapshot) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	tmp := s.snapshotPath() + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, am.DefaultFilePermissions)
	if err != nil {
		return errors.Wrap(err, "create snapshot temp file")
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return errors.Wrap(err, "write snapshot temp file")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(err, "sync snapshot temp file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close snapshot temp file")
	}
	if err := os.Rename(tmp, s.snapshotPath()); err != nil {
		return errors.Wrap(err, "rename snapshot into place")
	}

	if err := os.Remove(s.journalPath()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "truncate journal after snapshot")
	}
	s.sequence = 0
	return nil
}

// ReadSnapshot loads snapshot.bin, returning (Snapshot{}, false, nil) when
// no snapshot has been taken yet.
func (s *Store) ReadSnapshot() (Snapshot, bool, error) {
	b, err := os.ReadFile(s.snapshotPath())
	if os.IsNotExist(err) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, errors.Wrap(err, "read snapshot")
	}

	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&snap); err != nil {
		return Snapshot{}, false, errors.Wrap(err, "decode snapshot")
	}
	return snap, true, nil
}

// workspaceBundle is the JSON-encoded shape of workspaces/<name>.json.
type workspaceBundle struct {
	Name          string      `json:"name"`
	Members       []uuid.UUID `json:"members"`
	LastActivated int64       `json:"last_activated"`
}

// WriteWorkspace persists ws as workspaces/<name>.json.
func (s *Store) WriteWorkspace(ws *graphmodel.Workspace) error {
	bundle := workspaceBundle{Name: ws.Name, LastActivated: ws.LastActivated}
	for id := range ws.Members {
		bundle.Members = append(bundle.Members, id)
	}

	b, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal workspace bundle")
	}

	path := filepath.Join(s.workspaceDir(), ws.Name+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, am.DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "write workspace bundle temp file")
	}
	return errors.Wrap(os.Rename(tmp, path), "rename workspace bundle into place")
}

// ReadWorkspaces loads every workspaces/*.json bundle present on disk.
func (s *Store) ReadWorkspaces() ([]*graphmodel.Workspace, error) {
	entries, err := os.ReadDir(s.workspaceDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "list workspace bundles")
	}

	var out []*graphmodel.Workspace
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.workspaceDir(), e.Name()))
		if err != nil {
			continue
		}
		var bundle workspaceBundle
		if err := json.Unmarshal(b, &bundle); err != nil {
			continue
		}
		ws := graphmodel.NewWorkspace(bundle.Name)
		ws.LastActivated = bundle.LastActivated
		for _, id := range bundle.Members {
			ws.Members[id] = true
		}
		out = append(out, ws)
	}
	return out, nil
}
