package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/fans"
	"github.com/Mosical/pico-venti/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketConfig    = "config"
	BucketFanStates = "fanStates"

	keyAppliedConfig = "applied"
)

type Persistence interface {
	Init() error

	SaveAppliedConfig(config configuration.Configuration) error
	LoadAppliedConfig() (configuration.Configuration, error)

	SaveFanState(state fans.FanState) error
	LoadFanState(fanId string) (fans.FanState, error)
	DeleteFanState(fanId string) error
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SaveAppliedConfig stores the last successfully applied configuration,
// so a later start can tell whether the on-disk config changed since.
func (p persistence) SaveAppliedConfig(config configuration.Configuration) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(config)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketConfig))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		return b.Put([]byte(keyAppliedConfig), data)
	})
}

// LoadAppliedConfig loads the last applied configuration from persistence.
func (p persistence) LoadAppliedConfig() (configuration.Configuration, error) {
	db, err := p.openPersistence()
	if err != nil {
		return configuration.Configuration{}, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var config configuration.Configuration
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketConfig))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(keyAppliedConfig))
		if v == nil {
			return os.ErrNotExist
		}

		err := json.Unmarshal(v, &config)
		if err != nil {
			// if we cannot read the saved data, delete it
			ui.Warning("Unable to unmarshal saved configuration: %v", err)
			if err := b.Delete([]byte(keyAppliedConfig)); err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", keyAppliedConfig, err)
			}
			return os.ErrNotExist
		}

		return nil
	})

	return config, err
}

// SaveFanState stores the last applied duty of a fan, so a restart can
// resume ramping from where it left off instead of from zero.
func (p persistence) SaveFanState(state fans.FanState) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketFanStates))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		return b.Put([]byte(state.FanID), data)
	})
}

// LoadFanState loads the persisted state of the given fan.
func (p persistence) LoadFanState(fanId string) (fans.FanState, error) {
	db, err := p.openPersistence()
	if err != nil {
		return fans.FanState{}, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var state fans.FanState
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketFanStates))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(fanId))
		if v == nil {
			return os.ErrNotExist
		}

		err := json.Unmarshal(v, &state)
		if err != nil {
			ui.Warning("Unable to unmarshal saved fan state for %s: %v", fanId, err)
			if err := b.Delete([]byte(fanId)); err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", fanId, err)
			}
			return os.ErrNotExist
		}

		return nil
	})

	return state, err
}

func (p persistence) DeleteFanState(fanId string) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketFanStates))
		if b == nil {
			// no bucket yet
			return nil
		}
		if v := b.Get([]byte(fanId)); v == nil {
			// no data for given key
			return nil
		}
		return b.Delete([]byte(fanId))
	})
}
