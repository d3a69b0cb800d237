package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"taquilla-cli/model"
)

const (
	appDir         = "taquilla-cli"
	placeCacheTTL  = 72 * time.Hour
	maxRecentPlace = 8
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

type RecentPlace struct {
	Venue   string `json:"venue"`
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
}

type placeHistory struct {
	Places []RecentPlace `json:"places"`
}

type placeVisibility struct {
	HiddenByVenue map[string][]string `json:"hidden_by_venue"`
}

// Session is the persisted login.
type Session struct {
	Token   string     `json:"token"`
	User    model.User `json:"user"`
	SavedAt time.Time  `json:"saved_at"`
}

func LoadPlaceCache(venue string) ([]model.Place, bool, error) {
	path, err := cachePath(fileKey("places", venue))
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Place](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, fresh(cache.UpdatedAt, placeCacheTTL), nil
}

func SavePlaceCache(venue string, places []model.Place) error {
	path, err := cachePath(fileKey("places", venue))
	if err != nil {
		return err
	}
	return saveCache(path, places)
}

func LoadEventCache(venue, placeID, roomType string, ttl time.Duration) ([]model.Event, bool, error) {
	path, err := cachePath(fileKey("events", venue, placeID, roomType))
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Event](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, fresh(cache.UpdatedAt, ttl), nil
}

func SaveEventCache(venue, placeID, roomType string, events []model.Event) error {
	path, err := cachePath(fileKey("events", venue, placeID, roomType))
	if err != nil {
		return err
	}
	return saveCache(path, events)
}

func LoadCategoryCache(venue string, ttl time.Duration) ([]model.Category, bool, error) {
	path, err := cachePath(fileKey("categories", venue))
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Category](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, fresh(cache.UpdatedAt, ttl), nil
}

func SaveCategoryCache(venue string, categories []model.Category) error {
	path, err := cachePath(fileKey("categories", venue))
	if err != nil {
		return err
	}
	return saveCache(path, categories)
}

func LoadRecentPlaces() ([]RecentPlace, error) {
	path, err := configPath("history.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history placeHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, errors.New("invalid place history format")
	}
	return history.Places, nil
}

// RememberPlace moves place to the front of the history, keeping at most
// maxRecentPlace entries.
func RememberPlace(venue string, place model.Place) error {
	history, _ := LoadRecentPlaces()
	next := []RecentPlace{{Venue: venue, PlaceID: place.ID, Name: place.Name}}

	for _, existing := range history {
		if existing.Venue == venue && existing.PlaceID == place.ID && existing.PlaceID != "" {
			continue
		}
		if existing.Name != "" && stringsEqualFold(existing.Name, place.Name) && existing.Venue == venue {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentPlace {
			break
		}
	}

	return writeConfig("history.json", placeHistory{Places: next})
}

func LoadHiddenPlaces(venue string) (map[string]bool, error) {
	result := map[string]bool{}
	if strings.TrimSpace(venue) == "" {
		return result, nil
	}

	visibility, err := loadPlaceVisibility()
	if err != nil {
		return nil, err
	}
	for _, placeID := range visibility.HiddenByVenue[venue] {
		if placeID != "" {
			result[placeID] = true
		}
	}
	return result, nil
}

func SetPlaceHidden(venue, placeID string, hidden bool) error {
	venue = strings.TrimSpace(venue)
	placeID = strings.TrimSpace(placeID)
	if venue == "" || placeID == "" {
		return errors.New("venue and place id are required")
	}

	visibility, err := loadPlaceVisibility()
	if err != nil {
		return err
	}

	current := visibility.HiddenByVenue[venue]
	index := -1
	for i, id := range current {
		if id == placeID {
			index = i
			break
		}
	}

	if hidden {
		if index < 0 {
			current = append(current, placeID)
		}
	} else if index >= 0 {
		current = append(current[:index], current[index+1:]...)
	}

	if len(current) == 0 {
		delete(visibility.HiddenByVenue, venue)
	} else {
		sort.Strings(current)
		visibility.HiddenByVenue[venue] = current
	}
	return writeConfig("place_visibility.json", visibility)
}

// LoadSession returns the saved login. ok is false when nobody is logged in.
func LoadSession() (Session, bool, error) {
	path, err := configPath("session.json")
	if err != nil {
		return Session{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, false, nil
		}
		return Session{}, false, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, false, fmt.Errorf("invalid session file: %w", err)
	}
	return session, session.Token != "", nil
}

func SaveSession(session Session) error {
	if session.Token == "" {
		return errors.New("session token is required")
	}
	if session.SavedAt.IsZero() {
		session.SavedAt = time.Now()
	}
	path, err := configPath("session.json")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func ClearSession() error {
	path, err := configPath("session.json")
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func fresh(updatedAt time.Time, ttl time.Duration) bool {
	return !updatedAt.IsZero() && time.Since(updatedAt) <= ttl
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, data T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cache := cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	}
	payload, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func writeConfig(name string, v any) error {
	path, err := configPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func loadPlaceVisibility() (placeVisibility, error) {
	path, err := configPath("place_visibility.json")
	if err != nil {
		return placeVisibility{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return placeVisibility{HiddenByVenue: map[string][]string{}}, nil
		}
		return placeVisibility{}, err
	}

	var visibility placeVisibility
	if err := json.Unmarshal(data, &visibility); err != nil {
		return placeVisibility{}, errors.New("invalid place visibility format")
	}
	if visibility.HiddenByVenue == nil {
		visibility.HiddenByVenue = map[string][]string{}
	}
	return visibility, nil
}

// LogDir is where the logger writes its daily files.
func LogDir() (string, error) {
	return cachePath("logs")
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

// fileKey joins parts into a file name safe on every platform.
func fileKey(prefix string, parts ...string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, part := range parts {
		b.WriteByte('_')
		for _, r := range strings.ToLower(part) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			} else {
				b.WriteByte('-')
			}
		}
	}
	b.WriteString(".json")
	return b.String()
}

func stringsEqualFold(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
