package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

// DefaultSnapshotKey is the slot holding the task snapshot.
const DefaultSnapshotKey = "task-data"

// SnapshotRepository owns the persisted task collections. Loading never
// fails: a corrupt slot is discarded and the seed, then an empty snapshot,
// is used instead. Saving and importing report errors to the caller.
type SnapshotRepository struct {
	store  Store
	key    string
	seed   Seed
	now    func() time.Time
	logger zerolog.Logger
}

// RepositoryOption configures a SnapshotRepository.
type RepositoryOption func(*SnapshotRepository)

// WithSnapshotKey overrides the storage slot.
func WithSnapshotKey(key string) RepositoryOption {
	return func(r *SnapshotRepository) { r.key = key }
}

// WithSeed sets the first-run fallback source.
func WithSeed(seed Seed) RepositoryOption {
	return func(r *SnapshotRepository) { r.seed = seed }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *SnapshotRepository) { r.now = now }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) RepositoryOption {
	return func(r *SnapshotRepository) { r.logger = l }
}

// NewSnapshotRepository creates a repository over store.
func NewSnapshotRepository(store Store, opts ...RepositoryOption) *SnapshotRepository {
	r := &SnapshotRepository{
		store:  store,
		key:    DefaultSnapshotKey,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns the persisted snapshot, falling back to the seed and then to
// an empty snapshot.
func (r *SnapshotRepository) Load(ctx context.Context) models.Snapshot {
	data, err := r.store.Get(r.key)
	switch {
	case err == nil:
		snap, decodeErr := decodeSnapshot(data, true)
		if decodeErr == nil {
			return snap
		}
		r.logger.Warn().Err(decodeErr).Str("key", r.key).Msg("discarding corrupt snapshot")
		if delErr := r.store.Delete(r.key); delErr != nil {
			r.logger.Error().Err(delErr).Str("key", r.key).Msg("deleting corrupt snapshot")
		}
	case errors.Is(err, ErrNotFound):
	default:
		r.logger.Error().Err(err).Str("key", r.key).Msg("reading snapshot")
	}

	if r.seed != nil {
		seedData, err := r.seed.Fetch(ctx)
		if err != nil {
			r.logger.Warn().Err(err).Msg("seed unavailable")
		} else {
			snap, err := decodeSnapshot(seedData, true)
			if err == nil {
				return snap
			}
			r.logger.Warn().Err(err).Msg("seed is malformed")
		}
	}

	return models.EmptySnapshot(r.now())
}

// Save stamps the snapshot metadata and writes it to the store. Nil task
// collections are rejected as structurally invalid.
func (r *SnapshotRepository) Save(snap models.Snapshot) error {
	if snap.ProjectTasks == nil {
		return fmt.Errorf("saving snapshot: %w: projectTasks is missing", ErrInvalidSnapshot)
	}
	if snap.AdHocTasks == nil {
		return fmt.Errorf("saving snapshot: %w: adHocTasks is missing", ErrInvalidSnapshot)
	}

	snap.ProjectTasks = withKind(snap.ProjectTasks, func(t *models.ProjectTask) { t.Kind = models.KindProject })
	snap.AdHocTasks = withKind(snap.AdHocTasks, func(t *models.AdHocTask) { t.Kind = models.KindAdHoc })
	snap.Metadata.LastUpdated = r.now()
	if snap.Metadata.Version == "" {
		snap.Metadata.Version = models.SnapshotVersion
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("saving snapshot: encoding: %w", err)
	}
	if err := r.store.Set(r.key, data); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// SaveProjectTasks replaces the project task collection.
func (r *SnapshotRepository) SaveProjectTasks(ctx context.Context, tasks []models.ProjectTask) error {
	snap := r.Load(ctx)
	if tasks == nil {
		tasks = []models.ProjectTask{}
	}
	snap.ProjectTasks = tasks
	return r.Save(snap)
}

// SaveAdHocTasks replaces the ad-hoc task collection.
func (r *SnapshotRepository) SaveAdHocTasks(ctx context.Context, tasks []models.AdHocTask) error {
	snap := r.Load(ctx)
	if tasks == nil {
		tasks = []models.AdHocTask{}
	}
	snap.AdHocTasks = tasks
	return r.Save(snap)
}

// Import validates an exported snapshot, merges it into the current one and
// saves the result. See MergeTasks for the conflict rule. Project task
// priorities are renumbered 1..N afterwards.
func (r *SnapshotRepository) Import(ctx context.Context, data []byte) (models.Snapshot, error) {
	incoming, err := decodeSnapshot(data, false)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("importing snapshot: %w", err)
	}
	if err := validateRecords(incoming); err != nil {
		return models.Snapshot{}, fmt.Errorf("importing snapshot: %w", err)
	}

	current := r.Load(ctx)
	merged := models.Snapshot{
		ProjectTasks: MergeTasks(current.ProjectTasks, incoming.ProjectTasks),
		AdHocTasks:   MergeTasks(current.AdHocTasks, incoming.AdHocTasks),
		Metadata:     current.Metadata,
	}
	// Both sides number their project tasks from 1; renumber the union by
	// (priority, merged order).
	models.DensifyPriorities(models.ByPriority(merged.ProjectTasks), r.now())
	if err := r.Save(merged); err != nil {
		return models.Snapshot{}, fmt.Errorf("importing snapshot: %w", err)
	}

	r.logger.Info().
		Int("project_tasks", len(merged.ProjectTasks)).
		Int("adhoc_tasks", len(merged.AdHocTasks)).
		Msg("snapshot imported")
	return r.Load(ctx), nil
}

// Backup writes the current snapshot as indented JSON, the only format that
// Import accepts back.
func (r *SnapshotRepository) Backup(ctx context.Context, w io.Writer) error {
	snap := r.Load(ctx)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("writing backup: encoding: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	return nil
}

// ClearAll removes the persisted snapshot. The next Load falls back to the seed.
func (r *SnapshotRepository) ClearAll() error {
	if err := r.store.Delete(r.key); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	return nil
}

// BackupFileName returns the conventional backup file name for a given day.
func BackupFileName(now time.Time) string {
	return fmt.Sprintf("task-tracker-backup-%s.json", now.Format("2006-01-02"))
}

// decodeSnapshot parses and structurally validates snapshot JSON. When
// requireMetadata is false, missing or invalid metadata is default-filled.
func decodeSnapshot(data []byte, requireMetadata bool) (models.Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return models.Snapshot{}, fmt.Errorf("%w: not a JSON object", ErrInvalidSnapshot)
	}

	var snap models.Snapshot
	if !isJSONKind(raw["projectTasks"], '[') {
		return models.Snapshot{}, fmt.Errorf("%w: projectTasks must be an array", ErrInvalidSnapshot)
	}
	if !isJSONKind(raw["adHocTasks"], '[') {
		return models.Snapshot{}, fmt.Errorf("%w: adHocTasks must be an array", ErrInvalidSnapshot)
	}
	if err := json.Unmarshal(raw["projectTasks"], &snap.ProjectTasks); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: decoding projectTasks: %v", ErrInvalidSnapshot, err)
	}
	if err := json.Unmarshal(raw["adHocTasks"], &snap.AdHocTasks); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: decoding adHocTasks: %v", ErrInvalidSnapshot, err)
	}

	metaOK := isJSONKind(raw["metadata"], '{') && json.Unmarshal(raw["metadata"], &snap.Metadata) == nil
	if !metaOK {
		if requireMetadata {
			return models.Snapshot{}, fmt.Errorf("%w: metadata must be an object", ErrInvalidSnapshot)
		}
		snap.Metadata = models.SnapshotMetadata{}
	}
	if snap.Metadata.Version == "" {
		snap.Metadata.Version = models.SnapshotVersion
	}

	for i := range snap.ProjectTasks {
		snap.ProjectTasks[i].Kind = models.KindProject
	}
	for i := range snap.AdHocTasks {
		snap.AdHocTasks[i].Kind = models.KindAdHoc
	}
	return snap, nil
}

// validateRecords requires an id, name and status on every task.
func validateRecords(snap models.Snapshot) error {
	for i, t := range snap.ProjectTasks {
		if err := validateTask("project task", i, t.Task); err != nil {
			return err
		}
	}
	for i, t := range snap.AdHocTasks {
		if err := validateTask("ad-hoc task", i, t.Task); err != nil {
			return err
		}
	}
	return nil
}

func validateTask(label string, idx int, t models.Task) error {
	switch {
	case t.ID == "":
		return fmt.Errorf("%w: %s at index %d is missing an id", ErrInvalidSnapshot, label, idx)
	case t.Name == "":
		return fmt.Errorf("%w: %s %s is missing a name", ErrInvalidSnapshot, label, t.ID)
	case t.Status == "":
		return fmt.Errorf("%w: %s %s is missing a status", ErrInvalidSnapshot, label, t.ID)
	}
	return nil
}

// withKind returns a copy of tasks with the discriminator applied, leaving
// the caller's slice untouched.
func withKind[T any](tasks []T, set func(*T)) []T {
	out := make([]T, len(tasks))
	copy(out, tasks)
	for i := range out {
		set(&out[i])
	}
	return out
}

func isJSONKind(raw json.RawMessage, open byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == open
}
