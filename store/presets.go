package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// presetKeep how many recent places to remember per user
const presetKeep = 5

// Presets remembers the recently used places per user, persisted as a
// small JSON file next to the workbook
type Presets struct {
	path string
	mu   sync.Mutex
}

// NewPresets creates the preset store inside the data root
func NewPresets(root string) *Presets {
	return &Presets{path: filepath.Join(root, "presets.json")}
}

type presetData struct {
	Places []string `json:"places"`
}

func (p *Presets) load() map[string]*presetData {
	data := map[string]*presetData{}
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return data
	}
	if err := jsoniter.Unmarshal(raw, &data); err != nil {
		// corrupt preset file, start over
		return map[string]*presetData{}
	}
	return data
}

func (p *Presets) flush(data map[string]*presetData) error {
	raw, err := jsoniter.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(p.path, raw, 0644)
}

// Remember moves place to the front of the user's recent list
func (p *Presets) Remember(userID int64, place string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data := p.load()
	key := fmt.Sprintf("%d", userID)
	user, has := data[key]
	if !has {
		user = &presetData{}
		data[key] = user
	}

	places := []string{place}
	for _, known := range user.Places {
		if known == place {
			continue
		}
		places = append(places, known)
	}
	if len(places) > presetKeep {
		places = places[:presetKeep]
	}
	user.Places = places
	return p.flush(data)
}

// Recent returns the user's recent places, most recent first
func (p *Presets) Recent(userID int64) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	data := p.load()
	user, has := data[fmt.Sprintf("%d", userID)]
	if !has {
		return []string{}
	}
	return user.Places
}
