// Package reports renders migration results into artifacts (JSON, CSV)
// and stores them through the blob layer.
package reports

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ixforge/internal/blob"
	"ixforge/internal/core"
)

// Format identifies a report output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Status describes the lifecycle stage of a report request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Report is the serializable summary of a migration run.
type Report struct {
	Scenario    string             `json:"scenario"`
	DryRun      bool               `json:"dry_run"`
	Removed     map[string][]Entry `json:"removed,omitempty"`
	Added       map[string]int     `json:"added,omitempty"`
	UnitsAdded  []string           `json:"units_added,omitempty"`
	MergedRows  int                `json:"merged_rows"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Entry is one removed parameter row in the report.
type Entry struct {
	Keys  map[string]string `json:"keys"`
	Value float64           `json:"value"`
	Unit  string            `json:"unit,omitempty"`
}

// Artifact captures a stored report artifact.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks a report request and its resulting artifacts.
type Record struct {
	ID          string     `json:"id"`
	Scenario    string     `json:"scenario"`
	Formats     []Format   `json:"formats"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Input represents an enqueue request for the exporter.
type Input struct {
	Scenario string
	Result   core.Result
	DryRun   bool
	Formats  []Format
}

// AuditLogger records report audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for report exports.
type AuditEntry struct {
	ID         string    `json:"id"`
	Scenario   string    `json:"scenario"`
	Status     Status    `json:"status"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Exporter renders migration reports asynchronously.
type Exporter struct {
	store blob.Store
	audit AuditLogger

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	id    string
	input Input
}

// NewExporter constructs a report exporter writing to store. audit may be
// nil.
func NewExporter(store blob.Store, audit AuditLogger) *Exporter {
	ctx, cancel := context.WithCancel(context.Background())
	return &Exporter{
		store:  store,
		audit:  audit,
		queue:  make(chan task, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing report requests.
func (e *Exporter) Start() {
	e.wg.Add(1)
	go e.loop()
}

// Stop signals the exporter to halt and waits for completion.
func (e *Exporter) Stop(ctx context.Context) error {
	e.cancel()
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Exporter) loop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case t := <-e.queue:
			e.process(t)
		}
	}
}

// Enqueue schedules a report export and returns the queued record.
func (e *Exporter) Enqueue(ctx context.Context, input Input) (Record, error) {
	scenario := strings.TrimSpace(input.Scenario)
	if scenario == "" {
		return Record{}, fmt.Errorf("scenario name required")
	}
	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, f := range formats {
		if f != FormatJSON && f != FormatCSV {
			return Record{}, fmt.Errorf("unsupported report format %s", f)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		uniq = append(uniq, f)
		seen[f] = struct{}{}
	}

	id := newID()
	now := time.Now().UTC()
	record := Record{
		ID:        id,
		Scenario:  scenario,
		Formats:   uniq,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	e.mu.Lock()
	e.jobs[id] = &record
	queued := record.copy()
	e.mu.Unlock()

	e.recordAudit(ctx, scenario, StatusQueued, "")

	select {
	case e.queue <- task{id: id, input: input}:
	default:
		return Record{}, fmt.Errorf("report queue full")
	}
	return queued, nil
}

// Get returns a snapshot of the report record.
func (e *Exporter) Get(id string) (Record, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	record, ok := e.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (e *Exporter) process(t task) {
	e.updateStatus(t.id, StatusRunning, "")

	report := buildReport(t.input)
	var artifacts []Artifact
	e.mu.RLock()
	formats := append([]Format(nil), e.jobs[t.id].Formats...)
	e.mu.RUnlock()

	for _, format := range formats {
		payload, contentType, err := render(format, report)
		if err != nil {
			e.fail(t.id, err.Error())
			return
		}
		key := fmt.Sprintf("reports/%s/%s.%s", t.input.Scenario, t.id, format)
		info, err := e.store.Put(e.ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"scenario": t.input.Scenario},
		})
		if err != nil {
			e.fail(t.id, fmt.Sprintf("store artifact: %v", err))
			return
		}
		artifacts = append(artifacts, Artifact{
			Key:         info.Key,
			Format:      format,
			ContentType: contentType,
			SizeBytes:   info.Size,
			URL:         info.URL,
			CreatedAt:   info.LastModified,
		})
	}
	e.complete(t.id, artifacts)
}

func buildReport(input Input) Report {
	report := Report{
		Scenario:    input.Scenario,
		DryRun:      input.DryRun,
		Added:       input.Result.Added,
		UnitsAdded:  input.Result.UnitsAdded,
		MergedRows:  input.Result.Merged,
		GeneratedAt: time.Now().UTC(),
	}
	if len(input.Result.Removed) > 0 {
		report.Removed = make(map[string][]Entry, len(input.Result.Removed))
		for par, rows := range input.Result.Removed {
			entries := make([]Entry, 0, len(rows))
			for _, row := range rows {
				entries = append(entries, Entry{Keys: row.Keys, Value: row.Value, Unit: row.Unit})
			}
			report.Removed[par] = entries
		}
	}
	return report
}

func render(format Format, report Report) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("marshal json: %w", err)
		}
		return payload, "application/json", nil
	case FormatCSV:
		payload, err := renderCSV(report)
		if err != nil {
			return nil, "", err
		}
		return payload, "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported report format %s", format)
	}
}

// renderCSV flattens the removed-parameter ledger into rows of
// parameter,key,value,unit. Key columns are serialized as k=v pairs sorted
// by column name so output is deterministic.
func renderCSV(report Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"parameter", "keys", "value", "unit"}); err != nil {
		return nil, err
	}
	pars := make([]string, 0, len(report.Removed))
	for par := range report.Removed {
		pars = append(pars, par)
	}
	sort.Strings(pars)
	for _, par := range pars {
		for _, entry := range report.Removed[par] {
			cols := make([]string, 0, len(entry.Keys))
			for k := range entry.Keys {
				cols = append(cols, k)
			}
			sort.Strings(cols)
			pairs := make([]string, 0, len(cols))
			for _, k := range cols {
				pairs = append(pairs, k+"="+entry.Keys[k])
			}
			row := []string{par, strings.Join(pairs, ";"), strconv.FormatFloat(entry.Value, 'g', -1, 64), entry.Unit}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Exporter) updateStatus(id string, status Status, message string) {
	now := time.Now().UTC()
	e.mu.Lock()
	var scenario string
	if record, ok := e.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
		scenario = record.Scenario
	}
	e.mu.Unlock()
	e.recordAudit(e.ctx, scenario, status, message)
}

func (e *Exporter) complete(id string, artifacts []Artifact) {
	now := time.Now().UTC()
	e.mu.Lock()
	var scenario string
	if record, ok := e.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
		scenario = record.Scenario
	}
	e.mu.Unlock()
	e.recordAudit(e.ctx, scenario, StatusSucceeded, "")
}

func (e *Exporter) fail(id, reason string) {
	now := time.Now().UTC()
	e.mu.Lock()
	var scenario string
	if record, ok := e.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
		scenario = record.Scenario
	}
	e.mu.Unlock()
	e.recordAudit(e.ctx, scenario, StatusFailed, reason)
}

func (e *Exporter) recordAudit(ctx context.Context, scenario string, status Status, note string) {
	if e.audit == nil {
		return
	}
	e.audit.Record(ctx, AuditEntry{
		ID:         newID(),
		Scenario:   scenario,
		Status:     status,
		Note:       note,
		OccurredAt: time.Now().UTC(),
	})
}

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	return dup
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}

// MemoryAuditLog captures audit entries in-memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a defensive copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
