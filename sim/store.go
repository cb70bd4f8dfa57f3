package sim

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/warehouse-sim/sim/trace"
)

// Table subdirectories of a DirStore.
const (
	DirDivergenceItems = "div_items"
	DirDivergenceOrder = "div_order"
	DirConvergence     = "conv"
)

// documentPattern matches the trace documents a DirStore writes.
const documentPattern = "OrderProcess_*.json"

// TraceKey names the trace of one replenishment order.
type TraceKey struct {
	OrderID int
	Placed  time.Time
}

// FileName is the document name, OrderProcess_<orderID>_<date>.json.
func (k TraceKey) FileName() string {
	return fmt.Sprintf("OrderProcess_%d_%s.json", k.OrderID, k.Placed.Format(time.DateOnly))
}

func (k TraceKey) tableName() string {
	return fmt.Sprintf("%d_%s.csv", k.OrderID, k.Placed.Format(time.DateOnly))
}

// TraceStore persists generated traces and reads their documents back.
// The simulator always derives shipments from what Load returns.
type TraceStore interface {
	Save(key TraceKey, res *trace.Result) error
	Load(key TraceKey) (*trace.Log, error)
}

// DirStore writes traces under a directory: the document at the top level
// and each tabular view as CSV in its own subdirectory.
type DirStore struct {
	Root string
}

// NewDirStore prepares root for a fresh run. Only output of a previous run
// is cleared: trace documents at the top level and the table
// subdirectories. Other files in root are left alone. Clearing is best
// effort; failures are logged and ignored.
func NewDirStore(root string) (*DirStore, error) {
	clearOutput(root)
	for _, dir := range []string{root, filepath.Join(root, DirDivergenceItems), filepath.Join(root, DirDivergenceOrder), filepath.Join(root, DirConvergence)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}
	return &DirStore{Root: root}, nil
}

func clearOutput(root string) {
	docs, err := filepath.Glob(filepath.Join(root, documentPattern))
	if err != nil {
		logrus.Warnf("could not list trace documents in %s: %v", root, err)
	}
	stale := append(docs,
		filepath.Join(root, DirDivergenceItems),
		filepath.Join(root, DirDivergenceOrder),
		filepath.Join(root, DirConvergence))
	for _, path := range stale {
		if err := os.RemoveAll(path); err != nil {
			logrus.Warnf("could not remove %s: %v", path, err)
		}
	}
}

func (s *DirStore) Save(key TraceKey, res *trace.Result) error {
	if err := writeFile(filepath.Join(s.Root, key.FileName()), func(w io.Writer) error {
		return trace.WriteDocument(w, res.Log)
	}); err != nil {
		return err
	}
	for dir, rows := range map[string][]trace.Row{
		DirDivergenceItems: res.DivergenceItems,
		DirDivergenceOrder: res.DivergenceOrder,
		DirConvergence:     res.Convergence,
	} {
		if err := writeFile(filepath.Join(s.Root, dir, key.tableName()), func(w io.Writer) error {
			return trace.WriteRows(w, rows)
		}); err != nil {
			return err
		}
	}
	logrus.Debugf("trace for order %d written to %s", key.OrderID, s.Root)
	return nil
}

func (s *DirStore) Load(key TraceKey) (*trace.Log, error) {
	f, err := os.Open(filepath.Join(s.Root, key.FileName()))
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()
	return trace.ReadDocument(f)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// MemoryStore keeps encoded documents in memory. Tables are discarded.
type MemoryStore struct {
	docs map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Save(key TraceKey, res *trace.Result) error {
	var buf bytes.Buffer
	if err := trace.WriteDocument(&buf, res.Log); err != nil {
		return err
	}
	s.docs[key.FileName()] = buf.Bytes()
	return nil
}

func (s *MemoryStore) Load(key TraceKey) (*trace.Log, error) {
	doc, ok := s.docs[key.FileName()]
	if !ok {
		return nil, fmt.Errorf("no trace %s", key.FileName())
	}
	return trace.ReadDocument(bytes.NewReader(doc))
}

// Names lists the stored document names, sorted.
func (s *MemoryStore) Names() []string {
	names := make([]string, 0, len(s.docs))
	for n := range s.docs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
