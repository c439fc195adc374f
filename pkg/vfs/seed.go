package vfs

import (
	"context"

	"github.com/marmos91/dittoexplorer/internal/logger"
)

// DriveCapacity is the nominal size of the seeded system drive.
const DriveCapacity int64 = 483183820800

// Seed returns the default collection written to an empty store: the root,
// six well-known folders and one drive.
func Seed() []Entity {
	folder := func(id, name string) Entity {
		return Entity{ID: id, ParentID: RootID, Name: name, Kind: KindFolder, IconHint: id}
	}
	return []Entity{
		{ID: RootID, Name: "This PC", Kind: KindRoot},
		folder("desktop", "Desktop"),
		folder("documents", "Documents"),
		folder("downloads", "Downloads"),
		folder("pictures", "Pictures"),
		folder("music", "Music"),
		folder("videos", "Videos"),
		{ID: "c_drive", ParentID: RootID, Name: "Local Disk (C:)", Kind: KindDrive, IconHint: "drive", SizeBytes: Int64(DriveCapacity)},
	}
}

// Bootstrap builds a model from the durable store.
//
// Startup paths:
//   - load fails: the error is logged and the model starts from the seed,
//     in memory only
//   - store is empty: the seed is written entry by entry, each write awaited
//     (failures logged), and becomes the initial collection
//   - store has entities but no root: the seed is prepended in memory
//   - otherwise the stored collection is used as is
//
// The returned model is ready for use in every case.
func Bootstrap(ctx context.Context, loader Loader, opts ...Option) *Model {
	m := New(nil, opts...)

	entities, err := loader.LoadAll(ctx)
	if err != nil {
		logger.Error("Failed to load file system from store: %v", err)
		m.current.Store(NewSnapshot(Seed()))
		return m
	}

	if len(entities) == 0 {
		logger.Info("Store is empty, seeding default file system")
		seed := Seed()
		for _, e := range seed {
			if err := m.persister.PutNow(ctx, e); err != nil {
				logger.Error("Failed to seed entity %s: %v", e.ID, err)
			}
		}
		m.current.Store(NewSnapshot(seed))
		m.metrics.SetEntityCount(len(seed))
		return m
	}

	snap := NewSnapshot(entities)
	if _, ok := snap.Get(RootID); !ok {
		logger.Warn("Store has %d entities but no root, prepending default file system", len(entities))
		snap.prepend(Seed())
	}

	logger.Info("Loaded %d entities from store", snap.Len())
	m.current.Store(snap)
	m.metrics.SetEntityCount(snap.Len())
	return m
}
