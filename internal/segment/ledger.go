// SPDX-License-Identifier: MIT

package segment

import (
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/ManuGH/u2a/internal/metrics"
)

// Ledger tracks on-disk segment artifacts so each one is deleted exactly
// once: on delivery, on job failure, or never handed out at all. Handles are
// opaque and unguessable; an unmapped or already-released handle is simply
// unknown.
type Ledger struct {
	mu    sync.Mutex
	files map[string]*TempFile
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{files: make(map[string]*TempFile)}
}

// Register takes ownership of the file at path and returns its handle.
func (l *Ledger) Register(path string) *TempFile {
	f := &TempFile{
		ledger: l,
		handle: uuid.New().String(),
		path:   path,
	}
	l.mu.Lock()
	l.files[f.handle] = f
	l.mu.Unlock()
	metrics.TempFilesLive.Inc()
	return f
}

// Claim looks up a registered file by handle. The file stays owned by the
// ledger until Release is called.
func (l *Ledger) Claim(handle string) (*TempFile, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.files[handle]
	return f, ok
}

// Len reports the number of files currently tracked.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.files)
}

func (l *Ledger) forget(handle string) {
	l.mu.Lock()
	delete(l.files, handle)
	l.mu.Unlock()
}

// TempFile is a single-owner resource handle for one segment artifact.
type TempFile struct {
	ledger *Ledger
	handle string
	path   string
	once   sync.Once
}

// Handle returns the opaque download handle.
func (f *TempFile) Handle() string { return f.handle }

// Path returns the absolute on-disk path.
func (f *TempFile) Path() string { return f.path }

// Release deletes the backing file and unmaps the handle. It is safe to
// call from any exit path; only the first call has an effect.
func (f *TempFile) Release() error {
	var err error
	f.once.Do(func() {
		f.ledger.forget(f.handle)
		metrics.TempFilesLive.Dec()
		err = os.Remove(f.path)
	})
	return err
}
