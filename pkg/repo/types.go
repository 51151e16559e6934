// Package repo provides the repository abstraction snapwatch snapshots.
//
// A repository is any directory containing a .git subdirectory. The
// package evaluates ignore rules for paths inside the repository and
// records content snapshots in a BoltDB database stored under .git,
// where the watch layer's metadata filter keeps snapshot writes from
// re-triggering the watch.
//
// Example usage:
//
//	r, err := repo.FromPath("/src/project")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ignored, _ := r.IsIgnored("build/out.bin")
//	if !ignored {
//	    if err := r.Snapshot(); err != nil {
//	        log.Fatal(err)
//	    }
//	}
package repo

import "time"

// GitDir is the version-control metadata directory name.
const GitDir = ".git"

// snapshotDBFile is the snapshot store, relative to the repo root.
// It lives inside .git so snapshot writes never look like content
// changes to a watcher that filters .git.
const snapshotDBFile = GitDir + "/snapshots.db"

// Ignore rule files read from the repository root, in order.
var ignoreFiles = []string{".snapignore", ".gitignore"}

// Record describes one stored snapshot.
type Record struct {
	// TakenAt is when the snapshot was recorded.
	TakenAt time.Time `json:"taken_at"`

	// TreeHash is the hex SHA-256 over the repository content.
	TreeHash string `json:"tree_hash"`

	// FileCount is the number of files included.
	FileCount int `json:"file_count"`
}

// Repo is a recognized repository rooted at a directory.
type Repo struct {
	root     string
	patterns []string
}

// Root returns the repository's root directory.
func (r *Repo) Root() string {
	return r.root
}
