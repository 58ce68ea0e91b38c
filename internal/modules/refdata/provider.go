package refdata

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotProvider owns the current reference snapshot. Readers get a
// consistent *Snapshot pointer; Reload builds a replacement from the
// reference tables and swaps it in atomically.
//
// The latest snapshot is also persisted to cache.db as a msgpack blob so
// a restart can serve bids before the first full rebuild completes, and
// as a fallback when refdata.db is unreadable at boot.
type SnapshotProvider struct {
	productRepo   *ProductRepository
	materialRepo  *MaterialRepository
	referenceRepo *ReferenceRepository
	cacheDB       *sql.DB
	log           zerolog.Logger

	mu      sync.RWMutex
	current *Snapshot
}

// snapshotPayload is the msgpack persistence form of a snapshot.
type snapshotPayload struct {
	Version     int64                  `msgpack:"version"`
	BuiltAt     int64                  `msgpack:"built_at"`
	Products    []domain.Product       `msgpack:"products"`
	Materials   []domain.Material      `msgpack:"materials"`
	TestCosts   []domain.TestCost      `msgpack:"test_costs"`
	Zones       []domain.LogisticsZone `msgpack:"zones"`
	Competitors []domain.Competitor    `msgpack:"competitors"`
	Clients     []domain.Client        `msgpack:"clients"`
	Utilization []domain.Utilization   `msgpack:"utilization"`
}

// NewSnapshotProvider creates a new snapshot provider
func NewSnapshotProvider(
	productRepo *ProductRepository,
	materialRepo *MaterialRepository,
	referenceRepo *ReferenceRepository,
	cacheDB *sql.DB,
	log zerolog.Logger,
) *SnapshotProvider {
	return &SnapshotProvider{
		productRepo:   productRepo,
		materialRepo:  materialRepo,
		referenceRepo: referenceRepo,
		cacheDB:       cacheDB,
		log:           log.With().Str("component", "snapshot_provider").Logger(),
	}
}

// Current returns the active snapshot. Returns an error if no snapshot
// has been loaded yet (the provider is always primed during boot).
func (p *SnapshotProvider) Current() (*Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil {
		return nil, fmt.Errorf("no reference snapshot loaded")
	}
	return p.current, nil
}

// Version returns the active snapshot version, or 0 when none is loaded.
func (p *SnapshotProvider) Version() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil {
		return 0
	}
	return p.current.version
}

// Reload builds a fresh snapshot from the reference tables and swaps it
// in. The new version is the previous version + 1 (seeded from the
// persisted version across restarts). In-flight computations keep their
// old pointer and finish against the tables they started with.
func (p *SnapshotProvider) Reload() (ReloadReport, error) {
	start := time.Now()

	products, err := p.productRepo.GetAll()
	if err != nil {
		return ReloadReport{}, fmt.Errorf("failed to load products: %w", err)
	}
	materials, err := p.materialRepo.GetAll()
	if err != nil {
		return ReloadReport{}, fmt.Errorf("failed to load materials: %w", err)
	}
	testCosts, err := p.referenceRepo.GetAllTestCosts()
	if err != nil {
		return ReloadReport{}, fmt.Errorf("failed to load test costs: %w", err)
	}
	zones, err := p.referenceRepo.GetAllZones()
	if err != nil {
		return ReloadReport{}, fmt.Errorf("failed to load logistics zones: %w", err)
	}
	competitors, err := p.referenceRepo.GetAllCompetitors()
	if err != nil {
		return ReloadReport{}, fmt.Errorf("failed to load competitors: %w", err)
	}
	clients, err := p.referenceRepo.GetAllClients()
	if err != nil {
		return ReloadReport{}, fmt.Errorf("failed to load clients: %w", err)
	}
	utilization, err := p.referenceRepo.GetAllUtilization()
	if err != nil {
		return ReloadReport{}, fmt.Errorf("failed to load factory utilization: %w", err)
	}

	version := p.nextVersion()
	snapshot := NewSnapshot(version, products, materials, testCosts, zones, competitors, clients, utilization)

	p.mu.Lock()
	p.current = snapshot
	p.mu.Unlock()

	if err := p.persist(snapshot); err != nil {
		// The in-memory snapshot is already live; a failed cache write
		// only degrades restart behavior.
		p.log.Warn().Err(err).Msg("Failed to persist snapshot cache")
	}

	report := snapshot.Counts()
	report.Duration = time.Since(start)
	report.DurationMs = report.Duration.Milliseconds()

	p.log.Info().
		Int64("version", version).
		Int("products", report.Products).
		Int("materials", report.Materials).
		Int("zones", report.Zones).
		Dur("duration", report.Duration).
		Msg("Reference snapshot rebuilt")

	return report, nil
}

// RestoreFromCache loads the last persisted snapshot from cache.db.
// Used at boot when the reference tables cannot be read.
func (p *SnapshotProvider) RestoreFromCache() error {
	var version int64
	var builtAt int64
	var blob []byte

	err := p.cacheDB.QueryRow("SELECT version, built_at, payload FROM snapshot_cache WHERE id = 1").
		Scan(&version, &builtAt, &blob)
	if err == sql.ErrNoRows {
		return fmt.Errorf("no cached snapshot available")
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot cache: %w", err)
	}

	var payload snapshotPayload
	if err := msgpack.Unmarshal(blob, &payload); err != nil {
		return fmt.Errorf("failed to decode snapshot cache: %w", err)
	}

	snapshot := NewSnapshot(
		payload.Version,
		payload.Products,
		payload.Materials,
		payload.TestCosts,
		payload.Zones,
		payload.Competitors,
		payload.Clients,
		payload.Utilization,
	)
	snapshot.builtAt = time.Unix(payload.BuiltAt, 0).UTC()

	p.mu.Lock()
	p.current = snapshot
	p.mu.Unlock()

	p.log.Warn().
		Int64("version", payload.Version).
		Time("built_at", snapshot.builtAt).
		Msg("Restored reference snapshot from cache")

	return nil
}

// nextVersion returns the next snapshot version: one past the greater of
// the in-memory version and the persisted version. Versions survive
// restarts so audit rows always reference increasing versions.
func (p *SnapshotProvider) nextVersion() int64 {
	var persisted sql.NullInt64
	if err := p.cacheDB.QueryRow("SELECT version FROM snapshot_cache WHERE id = 1").Scan(&persisted); err != nil && err != sql.ErrNoRows {
		p.log.Warn().Err(err).Msg("Failed to read persisted snapshot version")
	}

	p.mu.RLock()
	inMemory := int64(0)
	if p.current != nil {
		inMemory = p.current.version
	}
	p.mu.RUnlock()

	version := inMemory
	if persisted.Valid && persisted.Int64 > version {
		version = persisted.Int64
	}
	return version + 1
}

// persist writes the snapshot to cache.db as a msgpack blob.
func (p *SnapshotProvider) persist(snapshot *Snapshot) error {
	payload := snapshotPayload{
		Version:     snapshot.version,
		BuiltAt:     snapshot.builtAt.Unix(),
		Products:    snapshot.Products(),
		Materials:   snapshot.Materials(),
		TestCosts:   snapshot.TestCosts(),
		Zones:       snapshot.Zones(),
		Competitors: snapshot.Competitors(),
		Clients:     snapshot.Clients(),
		Utilization: snapshot.Utilization(),
	}

	blob, err := msgpack.Marshal(&payload)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
		INSERT INTO snapshot_cache (id, version, built_at, payload)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			built_at = excluded.built_at,
			payload = excluded.payload
	`
	if _, err := p.cacheDB.Exec(query, payload.Version, payload.BuiltAt, blob); err != nil {
		return fmt.Errorf("failed to write snapshot cache: %w", err)
	}

	return nil
}
