package work

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	assert.NotNil(t, r)
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	wt := &WorkType{
		ID:       "tenders:rerank",
		Priority: PriorityMedium,
	}

	r.Register(wt)

	assert.Equal(t, 1, r.Count())
	assert.True(t, r.Has("tenders:rerank"))
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := NewRegistry()

	wt1 := &WorkType{
		ID:       "tenders:rerank",
		Priority: PriorityLow,
	}
	wt2 := &WorkType{
		ID:       "tenders:rerank",
		Priority: PriorityHigh,
	}

	r.Register(wt1)
	r.Register(wt2)

	assert.Equal(t, 1, r.Count())
	got := r.Get("tenders:rerank")
	assert.Equal(t, PriorityHigh, got.Priority)
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()

	wt := &WorkType{
		ID:       "db:maintenance",
		Priority: PriorityLow,
		Timing:   OffHours,
	}
	r.Register(wt)

	t.Run("returns registered work type", func(t *testing.T) {
		got := r.Get("db:maintenance")
		require.NotNil(t, got)
		assert.Equal(t, "db:maintenance", got.ID)
		assert.Equal(t, OffHours, got.Timing)
	})

	t.Run("returns nil for unknown ID", func(t *testing.T) {
		got := r.Get("unknown:work")
		assert.Nil(t, got)
	})
}

func TestRegistry_Has(t *testing.T) {
	r := NewRegistry()

	r.Register(&WorkType{ID: "tenders:rerank"})

	assert.True(t, r.Has("tenders:rerank"))
	assert.False(t, r.Has("unknown:work"))
}

func TestRegistry_IDs(t *testing.T) {
	r := NewRegistry()

	r.Register(&WorkType{ID: "tenders:reprice"})
	r.Register(&WorkType{ID: "snapshot:reload"})
	r.Register(&WorkType{ID: "backup:local"})

	ids := r.IDs()

	// IDs should be sorted alphabetically
	assert.Equal(t, []string{"backup:local", "snapshot:reload", "tenders:reprice"}, ids)
}

func TestRegistry_ByPriority(t *testing.T) {
	r := NewRegistry()

	r.Register(&WorkType{ID: "backup:local", Priority: PriorityLow})
	r.Register(&WorkType{ID: "tenders:rerank", Priority: PriorityMedium})
	r.Register(&WorkType{ID: "snapshot:reload", Priority: PriorityCritical})
	r.Register(&WorkType{ID: "tenders:reprice", Priority: PriorityHigh})
	r.Register(&WorkType{ID: "refdata:volatility_scan", Priority: PriorityMedium})

	ordered := r.ByPriority()
	require.Len(t, ordered, 5)

	assert.Equal(t, "snapshot:reload", ordered[0].ID)
	assert.Equal(t, "tenders:reprice", ordered[1].ID)

	// Same priority sorts alphabetically
	assert.Equal(t, "refdata:volatility_scan", ordered[2].ID)
	assert.Equal(t, "tenders:rerank", ordered[3].ID)

	assert.Equal(t, "backup:local", ordered[4].ID)
}

func TestRegistry_ByPriority_ReturnsACopy(t *testing.T) {
	r := NewRegistry()

	r.Register(&WorkType{ID: "tenders:rerank", Priority: PriorityMedium})

	ordered1 := r.ByPriority()
	ordered2 := r.ByPriority()

	ordered1[0] = nil

	assert.NotNil(t, ordered2[0])
}
