package history

import (
	"testing"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
	"github.com/stretchr/testify/require"
)

func n(ref int64) entity.ID { return entity.ID{Type: entity.KindNode, Ref: ref} }
func w(ref int64) entity.ID { return entity.ID{Type: entity.KindWay, Ref: ref} }

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCheckpointAndRestoreRoundTrip(t *testing.T) {
	s := newStore(t)

	a, b := n(1), n(2)
	wayID := w(1)
	entities := []entity.Entity{
		entity.NewNode(a, geo.LngLat{Lng: 1.5, Lat: 2.5}, entity.Tags{"amenity": "bench"}),
		entity.NewNode(b, geo.LngLat{Lng: 3, Lat: 4}, nil),
		entity.NewWay(wayID, []entity.ID{a, b}, entity.Tags{"highway": "residential"}),
	}

	version, err := s.Checkpoint("main", 1000, entities)
	require.NoError(t, err)
	require.Equal(t, 1, version)

	restored, err := s.Restore("main", version)
	require.NoError(t, err)
	require.Len(t, restored, 3)

	byID := make(map[entity.ID]entity.Entity, len(restored))
	for _, e := range restored {
		byID[e.ID()] = e
	}

	node, ok := byID[a].(*entity.Node)
	require.True(t, ok)
	require.Equal(t, geo.LngLat{Lng: 1.5, Lat: 2.5}, node.Loc())
	require.Equal(t, "bench", node.Tags()["amenity"])

	way, ok := byID[wayID].(*entity.Way)
	require.True(t, ok)
	require.Equal(t, []entity.ID{a, b}, way.Nodes())
	require.Equal(t, "residential", way.Tags()["highway"])
}

func TestVersionsIncrementPerCheckpoint(t *testing.T) {
	s := newStore(t)

	a := n(1)
	v1, err := s.Checkpoint("branch-a", 1, []entity.Entity{entity.NewNode(a, geo.LngLat{}, nil)})
	require.NoError(t, err)
	v2, err := s.Checkpoint("branch-a", 2, []entity.Entity{entity.NewNode(a, geo.LngLat{Lng: 9}, nil)})
	require.NoError(t, err)

	require.Equal(t, 1, v1)
	require.Equal(t, 2, v2)

	versions, err := s.Versions("branch-a")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, versions)

	oldState, err := s.Restore("branch-a", v1)
	require.NoError(t, err)
	require.Equal(t, geo.LngLat{}, oldState[0].(*entity.Node).Loc())

	newState, err := s.Restore("branch-a", v2)
	require.NoError(t, err)
	require.Equal(t, 9.0, newState[0].(*entity.Node).Loc().Lng)
}

func TestBranchesAreIndependent(t *testing.T) {
	s := newStore(t)

	_, err := s.Checkpoint("a", 1, []entity.Entity{entity.NewNode(n(1), geo.LngLat{}, nil)})
	require.NoError(t, err)

	versionsB, err := s.Versions("b")
	require.NoError(t, err)
	require.Empty(t, versionsB, "an untouched branch has no checkpoints of its own")
}
