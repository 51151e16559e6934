package repo

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketSnapshots = []byte("snapshots") // sequence number -> Record

// Snapshot records the repository's current content.
//
// The repository tree is walked (skipping .git and ignored paths),
// every file's content is hashed, and a Record is appended to the
// snapshot store. If the content hash matches the most recent
// record, no new record is written.
func (r *Repo) Snapshot() error {
	treeHash, fileCount, err := r.hashTree()
	if err != nil {
		return fmt.Errorf("failed to hash repository tree: %w", err)
	}

	db, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		if err != nil {
			return fmt.Errorf("failed to create snapshots bucket: %w", err)
		}

		// Unchanged content needs no new record.
		if _, v := b.Cursor().Last(); v != nil {
			var last Record
			if err := json.Unmarshal(v, &last); err == nil && last.TreeHash == treeHash {
				return nil
			}
		}

		record := Record{
			TakenAt:   time.Now(),
			TreeHash:  treeHash,
			FileCount: fileCount,
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot record: %w", err)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate snapshot sequence: %w", err)
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		if err := b.Put(key, data); err != nil {
			return fmt.Errorf("failed to store snapshot record: %w", err)
		}

		return nil
	})
}

// Snapshots returns all stored snapshot records, oldest first.
func (r *Repo) Snapshots() ([]Record, error) {
	if _, err := os.Stat(filepath.Join(r.root, snapshotDBFile)); os.IsNotExist(err) {
		return nil, nil
	}

	db, err := r.openStore()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var records []Record

	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		if b == nil {
			return nil
		}

		return b.ForEach(func(_, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("failed to unmarshal snapshot record: %w", err)
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// openStore opens the repository's snapshot database.
func (r *Repo) openStore() (*bolt.DB, error) {
	path := filepath.Join(r.root, snapshotDBFile)

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	return db, nil
}

// hashTree computes a hex SHA-256 over the repository content and
// the number of files included.
//
// filepath.Walk visits paths in lexical order, so the hash is
// deterministic for a given tree.
func (r *Repo) hashTree() (string, int, error) {
	tree := sha256.New()
	fileCount := 0

	err := filepath.Walk(r.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// The path may have vanished mid-walk.
			return nil
		}

		rel, relErr := filepath.Rel(r.root, path)
		if relErr != nil {
			return relErr
		}

		if info.IsDir() {
			if rel == GitDir {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		ignored, ignErr := r.IsIgnored(rel)
		if ignErr != nil {
			return ignErr
		}
		if ignored {
			return nil
		}

		fileHash, hashErr := hashFile(path)
		if hashErr != nil {
			// The file may have vanished between walk and open.
			if os.IsNotExist(hashErr) {
				return nil
			}
			return hashErr
		}

		tree.Write([]byte(filepath.ToSlash(rel)))
		tree.Write(fileHash)
		fileCount++

		return nil
	})
	if err != nil {
		return "", 0, err
	}

	return hex.EncodeToString(tree.Sum(nil)), fileCount, nil
}

// hashFile computes the SHA-256 of one file's content.
func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}
