// Package session implements the durable, capacity-bounded store for saved
// room analyses. It owns the persisted session collection and its metadata
// cache; callers get copies, never live references, and come back through
// the store to persist changes.
package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/domain"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/imgproc"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/kv"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/logging"
)

// Persisted state keys.
const (
	SessionsKey = "zenspace_sessions"
	MetadataKey = "zenspace_session_metadata"
)

const (
	// MaxSessions caps the collection; the oldest fall off the tail.
	MaxSessions = 20
	// quotaTrimTo is how many sessions survive a quota-failure trim.
	quotaTrimTo = 5
)

// StorageInfo reports what the store is holding.
type StorageInfo struct {
	SessionCount  int   `json:"sessionCount"`
	EstimatedSize int64 `json:"estimatedSize"`
	MaxSessions   int   `json:"maxSessions"`
}

// Store is the session CRUD layer. All mutation is serialized under one
// mutex; persisted writes are last-write-wins with no merge logic.
type Store struct {
	mu          sync.Mutex
	kv          kv.Store
	log         *logging.Logger
	now         func() time.Time
	maxSessions int
}

// Option tweaks a Store.
type Option func(*Store)

// WithClock overrides the clock (for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxSessions overrides the collection cap (for tests).
func WithMaxSessions(n int) Option {
	return func(s *Store) { s.maxSessions = n }
}

// NewStore creates a session store over the given persistence layer.
func NewStore(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:          store,
		log:         logging.New("session"),
		now:         time.Now,
		maxSessions: MaxSessions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveInput carries everything Save needs. SessionID updates an existing
// session in place; Name and Tags are optional.
type SaveInput struct {
	Image              domain.ImageData
	Analysis           domain.Analysis
	Messages           []domain.ChatMessage
	VisualizationImage string
	SessionID          string
	Name               string
	Tags               []string
}

// Save upserts a session: generates a thumbnail, preserves createdAt on
// update, auto-names from the analysis text when no name is given,
// prepends new sessions (most-recent-first), evicts past the cap, and
// persists collection plus metadata cache. On a storage-quota failure it
// trims to the newest few sessions and retries the write once.
func (s *Store) Save(in SaveInput) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.loadLocked()
	now := s.now()

	thumb, err := imgproc.Thumbnail(in.Image.DataURL, imgproc.ThumbnailBox, imgproc.ThumbnailQuality)
	if err != nil {
		// A session without a thumbnail is still a session.
		s.log.Warn("thumbnail_failed", nil, err)
		thumb = ""
	}

	sess := domain.Session{
		ID:                 in.SessionID,
		Name:               in.Name,
		CreatedAt:          now,
		UpdatedAt:          now,
		Thumbnail:          thumb,
		Image:              in.Image,
		Analysis:           in.Analysis,
		Messages:           in.Messages,
		VisualizationImage: in.VisualizationImage,
		Tags:               in.Tags,
	}

	existing := -1
	if in.SessionID != "" {
		existing = indexOf(sessions, in.SessionID)
	}
	if existing >= 0 {
		sess.CreatedAt = sessions[existing].CreatedAt
	} else {
		sess.ID = ulid.Make().String()
	}
	if sess.Name == "" {
		sess.Name = autoName(in.Analysis.Plan, now)
	}

	if existing >= 0 {
		sessions[existing] = sess
	} else {
		sessions = append([]domain.Session{sess}, sessions...)
		if len(sessions) > s.maxSessions {
			sessions = sessions[:s.maxSessions]
		}
	}

	if err := s.persistLocked(sessions); err != nil {
		return nil, err
	}

	saved := sess
	return &saved, nil
}

// persistLocked writes the collection and rebuilds the metadata cache
// wholesale. A quota failure trims the collection and retries once; any
// other failure propagates.
func (s *Store) persistLocked(sessions []domain.Session) error {
	err := kv.SaveJSON(s.kv, SessionsKey, sessions)
	if kv.IsQuotaExceeded(err) {
		kept := len(sessions)
		if kept > quotaTrimTo {
			kept = quotaTrimTo
		}
		s.log.Warn("quota_trim", map[string]interface{}{"kept": kept}, err)
		sessions = sessions[:kept]
		err = kv.SaveJSON(s.kv, SessionsKey, sessions)
	}
	if err != nil {
		return fmt.Errorf("persist sessions: %w", err)
	}

	if err := kv.SaveJSON(s.kv, MetadataKey, buildMetadata(sessions)); err != nil {
		return fmt.Errorf("persist metadata: %w", err)
	}
	return nil
}

// loadLocked reads the collection; missing or corrupt storage heals to
// an empty collection.
func (s *Store) loadLocked() []domain.Session {
	var sessions []domain.Session
	if kv.LoadJSON(s.kv, SessionsKey, &sessions) != kv.Found {
		return nil
	}
	return sessions
}

func buildMetadata(sessions []domain.Session) []domain.SessionMetadata {
	meta := make([]domain.SessionMetadata, len(sessions))
	for i := range sessions {
		meta[i] = sessions[i].Metadata()
	}
	return meta
}

func indexOf(sessions []domain.Session, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// All returns every saved session, most recent first.
func (s *Store) All() []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Get returns one session by id, or nil when absent.
func (s *Store) Get(id string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.loadLocked()
	if i := indexOf(sessions, id); i >= 0 {
		sess := sessions[i]
		return &sess
	}
	return nil
}

// Metadata returns the cached listing projection, rebuilding it from the
// full collection when the cache is missing or damaged.
func (s *Store) Metadata() []domain.SessionMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	var meta []domain.SessionMetadata
	if kv.LoadJSON(s.kv, MetadataKey, &meta) == kv.Found {
		return meta
	}

	sessions := s.loadLocked()
	meta = buildMetadata(sessions)
	if err := kv.SaveJSON(s.kv, MetadataKey, meta); err != nil {
		s.log.Warn("metadata_rebuild_persist_failed", nil, err)
	}
	return meta
}

// Delete removes a session by id. Returns false when the id is unknown.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.loadLocked()
	i := indexOf(sessions, id)
	if i < 0 {
		return false
	}
	sessions = append(sessions[:i], sessions[i+1:]...)
	if err := s.persistLocked(sessions); err != nil {
		s.log.Error("delete_persist_failed", map[string]interface{}{"id": id}, err)
		return false
	}
	return true
}

// Rename changes a session's display name and bumps updatedAt.
func (s *Store) Rename(id, name string) bool {
	return s.mutate(id, func(sess *domain.Session) {
		sess.Name = name
	})
}

// UpdateTags replaces a session's tags and bumps updatedAt.
func (s *Store) UpdateTags(id string, tags []string) bool {
	return s.mutate(id, func(sess *domain.Session) {
		sess.Tags = tags
	})
}

func (s *Store) mutate(id string, fn func(*domain.Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.loadLocked()
	i := indexOf(sessions, id)
	if i < 0 {
		return false
	}
	fn(&sessions[i])
	sessions[i].UpdatedAt = s.now()
	if err := s.persistLocked(sessions); err != nil {
		s.log.Error("mutate_persist_failed", map[string]interface{}{"id": id}, err)
		return false
	}
	return true
}

// AppendMessages adds chat turns to a session and bumps updatedAt.
func (s *Store) AppendMessages(id string, msgs ...domain.ChatMessage) bool {
	return s.mutate(id, func(sess *domain.Session) {
		sess.Messages = append(sess.Messages, msgs...)
	})
}

// SetVisualization attaches a rendered before/after image to a session.
func (s *Store) SetVisualization(id, dataURL string) bool {
	return s.mutate(id, func(sess *domain.Session) {
		sess.VisualizationImage = dataURL
	})
}

// Export renders one full session as pretty-printed JSON, or ok=false
// when the id is unknown.
func (s *Store) Export(id string) (string, bool) {
	sess := s.Get(id)
	if sess == nil {
		return "", false
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Import parses an exported session and stores it under a fresh id with
// fresh timestamps, so imports can never collide with existing data.
// Malformed input returns nil — import never fails loudly.
func (s *Store) Import(jsonStr string) *domain.Session {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &shape); err != nil {
		return nil
	}
	for _, required := range []string{"id", "image", "analysis"} {
		if _, ok := shape[required]; !ok {
			return nil
		}
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(jsonStr), &sess); err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess.ID = ulid.Make().String()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	for i := range sess.Messages {
		if sess.Messages[i].ID == "" {
			sess.Messages[i].ID = uuid.NewString()
		}
	}

	sessions := append([]domain.Session{sess}, s.loadLocked()...)
	if len(sessions) > s.maxSessions {
		sessions = sessions[:s.maxSessions]
	}
	if err := s.persistLocked(sessions); err != nil {
		s.log.Error("import_persist_failed", nil, err)
		return nil
	}

	imported := sess
	return &imported
}

// Search matches query case-insensitively against session names and tags
// and returns listing projections.
func (s *Store) Search(query string) []domain.SessionMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	var hits []domain.SessionMetadata
	for _, sess := range s.loadLocked() {
		if q == "" || matches(&sess, q) {
			hits = append(hits, sess.Metadata())
		}
	}
	return hits
}

func matches(sess *domain.Session, q string) bool {
	if strings.Contains(strings.ToLower(sess.Name), q) {
		return true
	}
	for _, tag := range sess.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Info reports collection size and the serialized footprint.
func (s *Store) Info() StorageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := StorageInfo{MaxSessions: s.maxSessions}
	sessions := s.loadLocked()
	info.SessionCount = len(sessions)
	if data, err := s.kv.Get(SessionsKey); err == nil {
		info.EstimatedSize = int64(len(data))
	}
	return info
}

// Clear unconditionally removes the collection and the metadata cache.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(SessionsKey); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	if err := s.kv.Delete(MetadataKey); err != nil {
		return fmt.Errorf("clear metadata: %w", err)
	}
	return nil
}
