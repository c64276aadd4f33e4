// services/profile/store.go
package profile

import (
	"go.uber.org/zap"

	"alertbadge-go/errcode"
	"alertbadge-go/types"
)

// Store is the only writer of the persisted DeviceProfile.
type Store struct {
	nv  NVStore
	log *zap.Logger
}

func NewStore(nv NVStore, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{nv: nv, log: log.Named("profile")}
}

// Load returns the last committed profile, or the zero profile when none
// exists or the record is unreadable.
func (s *Store) Load() (types.DeviceProfile, error) {
	rec, err := s.nv.Load()
	if err != nil {
		s.log.Warn("profile_load_failed", zap.Error(err))
		return types.DeviceProfile{}, errcode.Wrap(errcode.StoreRead, "profile.load", err)
	}
	p := Decode(rec)
	s.log.Debug("profile_loaded", zap.Bool("configured", p.Configured), zap.Int("bytes", len(rec)))
	return p, nil
}

// Save writes p and commits before returning. Failures are reported, never
// retried.
func (s *Store) Save(p types.DeviceProfile) error {
	if err := s.nv.Stage(Encode(p)); err != nil {
		s.log.Error("profile_stage_failed", zap.Error(err))
		return errcode.Wrap(errcode.StoreCommit, "profile.save", err)
	}
	if err := s.nv.Commit(); err != nil {
		s.log.Error("profile_commit_failed", zap.Error(err))
		return errcode.Wrap(errcode.StoreCommit, "profile.save", err)
	}
	s.log.Info("profile_saved", zap.Bool("configured", p.Configured), zap.String("device_name", p.Trusted().DeviceName))
	return nil
}

// Wipe persists the zero profile.
func (s *Store) Wipe() error { return s.Save(types.DeviceProfile{}) }
