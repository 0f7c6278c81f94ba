package setting

import (
	"encoding/json"
	"errors"
	"time"

	settingDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/setting"
)

var ErrSettingNotFound = errors.New("setting not found")

// Setting is a key with an arbitrary JSON value.
type Setting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func FromDataModel(s *settingDatamodel.Setting) *Setting {
	return &Setting{
		Key:       s.Key,
		Value:     json.RawMessage(s.Value),
		UpdatedAt: s.UpdatedAt,
	}
}
