package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/graph"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// The fakes below are shared by every handler test in this package. They are
// deliberately map-backed and unsynchronized beyond what the tests need.

type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
}

func newFakeAccountStore(seed ...models.Account) *fakeAccountStore {
	s := &fakeAccountStore{accounts: make(map[string]models.Account)}
	for _, a := range seed {
		s.accounts[a.ID] = a
	}
	return s
}

func (s *fakeAccountStore) Create(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return repositories.ErrConflict
		}
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *fakeAccountStore) FindByID(_ context.Context, id string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.accounts[id]; ok {
		return account, nil
	}
	return models.Account{}, repositories.ErrNotFound
}

func (s *fakeAccountStore) FindByUsernameOrID(_ context.Context, identifier string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Username == identifier || account.ID == identifier {
			return account, nil
		}
	}
	return models.Account{}, repositories.ErrNotFound
}

func (s *fakeAccountStore) FindManyByIDs(_ context.Context, ids []string) (map[string]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]models.Account)
	for _, id := range ids {
		if account, ok := s.accounts[id]; ok {
			result[id] = account
		}
	}
	return result, nil
}

func (s *fakeAccountStore) FindByLogin(_ context.Context, identifier string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Username == identifier || account.Email == identifier {
			return account, nil
		}
	}
	return models.Account{}, repositories.ErrNotFound
}

func (s *fakeAccountStore) UpdateDetails(_ context.Context, id, fullName, email string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, repositories.ErrNotFound
	}
	if fullName != "" {
		account.FullName = fullName
	}
	if email != "" {
		account.Email = email
	}
	s.accounts[id] = account
	return account, nil
}

func (s *fakeAccountStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return s.mutate(id, func(a *models.Account) { a.PasswordHash = passwordHash })
}

func (s *fakeAccountStore) UpdateAvatar(_ context.Context, id, avatarURL string) error {
	return s.mutate(id, func(a *models.Account) { a.AvatarURL = avatarURL })
}

func (s *fakeAccountStore) UpdateCover(_ context.Context, id, coverURL string) error {
	return s.mutate(id, func(a *models.Account) { a.CoverURL = coverURL })
}

func (s *fakeAccountStore) PushWatchHistory(_ context.Context, id, videoID string) error {
	return s.mutate(id, func(a *models.Account) {
		history := []string{videoID}
		for _, existing := range a.WatchHistory {
			if existing != videoID {
				history = append(history, existing)
			}
		}
		a.WatchHistory = history
	})
}

func (s *fakeAccountStore) mutate(id string, fn func(*models.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(&account)
	s.accounts[id] = account
	return nil
}

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[string]models.Video
}

func newFakeVideoStore(seed ...models.Video) *fakeVideoStore {
	s := &fakeVideoStore{videos: make(map[string]models.Video)}
	for _, v := range seed {
		s.videos[v.ID] = v
	}
	return s
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if video, ok := s.videos[id]; ok {
		return video, nil
	}
	return models.Video{}, repositories.ErrNotFound
}

func (s *fakeVideoStore) Update(_ context.Context, id, title, description, thumbnailURL string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	if title != "" {
		video.Title = title
	}
	if description != "" {
		video.Description = description
	}
	if thumbnailURL != "" {
		video.ThumbnailURL = thumbnailURL
	}
	s.videos[id] = video
	return video, nil
}

func (s *fakeVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *fakeVideoStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

type fakeCommentStore struct {
	mu       sync.Mutex
	comments map[string]models.Comment
}

func newFakeCommentStore(seed ...models.Comment) *fakeCommentStore {
	s := &fakeCommentStore{comments: make(map[string]models.Comment)}
	for _, c := range seed {
		s.comments[c.ID] = c
	}
	return s
}

func (s *fakeCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[comment.ID] = comment
	return nil
}

func (s *fakeCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if comment, ok := s.comments[id]; ok {
		return comment, nil
	}
	return models.Comment{}, repositories.ErrNotFound
}

func (s *fakeCommentStore) UpdateContent(_ context.Context, id, content string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return comment, nil
}

func (s *fakeCommentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type fakeLikeStore struct {
	mu    sync.Mutex
	likes map[string]models.Like
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{likes: make(map[string]models.Like)}
}

func likeKey(accountID string, kind models.LikeTarget, targetID string) string {
	return fmt.Sprintf("%s|%s|%s", accountID, kind, targetID)
}

func (s *fakeLikeStore) Toggle(_ context.Context, like models.Like) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := likeKey(like.AccountID, like.TargetKind, like.TargetID)
	if _, ok := s.likes[key]; ok {
		delete(s.likes, key)
		return false, nil
	}
	s.likes[key] = like
	return true, nil
}

func (s *fakeLikeStore) DeleteByTarget(_ context.Context, kind models.LikeTarget, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, like := range s.likes {
		if like.TargetKind == kind && like.TargetID == targetID {
			delete(s.likes, key)
		}
	}
	return nil
}

type fakeSubscriptionStore struct {
	mu   sync.Mutex
	subs map[string]models.Subscription
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{subs: make(map[string]models.Subscription)}
}

func (s *fakeSubscriptionStore) Toggle(_ context.Context, sub models.Subscription) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sub.SubscriberID + "|" + sub.ChannelID
	if _, ok := s.subs[key]; ok {
		delete(s.subs, key)
		return false, nil
	}
	s.subs[key] = sub
	return true, nil
}

type fakePlaylistStore struct {
	mu        sync.Mutex
	playlists map[string]models.Playlist
}

func newFakePlaylistStore(seed ...models.Playlist) *fakePlaylistStore {
	s := &fakePlaylistStore{playlists: make(map[string]models.Playlist)}
	for _, p := range seed {
		s.playlists[p.ID] = p
	}
	return s
}

func (s *fakePlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *fakePlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if playlist, ok := s.playlists[id]; ok {
		return playlist, nil
	}
	return models.Playlist{}, repositories.ErrNotFound
}

func (s *fakePlaylistStore) UpdateDetails(_ context.Context, id, title, description string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	if title != "" {
		playlist.Title = title
	}
	if description != "" {
		playlist.Description = description
	}
	s.playlists[id] = playlist
	return playlist, nil
}

func (s *fakePlaylistStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

func (s *fakePlaylistStore) AppendVideo(_ context.Context, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	s.playlists[playlistID] = playlist
	return nil
}

func (s *fakePlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	kept := playlist.VideoIDs[:0]
	for _, id := range playlist.VideoIDs {
		if id != videoID {
			kept = append(kept, id)
		}
	}
	playlist.VideoIDs = kept
	s.playlists[playlistID] = playlist
	return nil
}

// fakeSessionManager issues deterministic tokens and tracks the active
// refresh token per account, mirroring the single-slot semantics.
type fakeSessionManager struct {
	mu      sync.Mutex
	counter int
	slots   map[string]string // accountID -> refresh token
	owners  map[string]string // refresh token -> accountID
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{slots: make(map[string]string), owners: make(map[string]string)}
}

func (m *fakeSessionManager) Begin(_ context.Context, accountID string) (models.SessionTokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issueLocked(accountID), nil
}

func (m *fakeSessionManager) End(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.owners, m.slots[accountID])
	delete(m.slots, accountID)
	return nil
}

func (m *fakeSessionManager) Rotate(_ context.Context, refreshToken string) (models.SessionTokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	accountID, ok := m.owners[refreshToken]
	if !ok {
		return models.SessionTokens{}, auth.ErrInvalidToken
	}
	if m.slots[accountID] != refreshToken {
		return models.SessionTokens{}, auth.ErrTokenMismatch
	}
	delete(m.owners, refreshToken)
	return m.issueLocked(accountID), nil
}

func (m *fakeSessionManager) issueLocked(accountID string) models.SessionTokens {
	m.counter++
	now := time.Now().UTC()
	tokens := models.SessionTokens{
		AccessToken:      fmt.Sprintf("access-%s-%d", accountID, m.counter),
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshToken:     fmt.Sprintf("refresh-%s-%d", accountID, m.counter),
		RefreshExpiresAt: now.Add(24 * time.Hour),
	}
	m.slots[accountID] = tokens.RefreshToken
	m.owners[tokens.RefreshToken] = accountID
	return tokens
}

// fakeVerifier maps bearer tokens straight to account ids.
type fakeVerifier map[string]string

func (v fakeVerifier) VerifyAccess(token string) (string, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return "", auth.ErrInvalidToken
}

// fakeBlobStorage records uploads and deletions in order.
type fakeBlobStorage struct {
	mu       sync.Mutex
	uploads  []string
	deletes  []string
	failNext bool
}

func (s *fakeBlobStorage) Upload(_ context.Context, name string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return "", errors.New("upload failed")
	}
	_, _ = io.Copy(io.Discard, r)
	url := "https://cdn.test/" + name
	s.uploads = append(s.uploads, url)
	return url, nil
}

func (s *fakeBlobStorage) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, url)
	return nil
}

// testEnv bundles the fakes with a fully routed mux.
type testEnv struct {
	mux      *http.ServeMux
	accounts *fakeAccountStore
	videos   *fakeVideoStore
	comments *fakeCommentStore
	likes    *fakeLikeStore
	subs     *fakeSubscriptionStore
	lists    *fakePlaylistStore
	sessions *fakeSessionManager
	storage  *fakeBlobStorage
	verifier fakeVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		mux:      http.NewServeMux(),
		accounts: newFakeAccountStore(),
		videos:   newFakeVideoStore(),
		comments: newFakeCommentStore(),
		likes:    newFakeLikeStore(),
		subs:     newFakeSubscriptionStore(),
		lists:    newFakePlaylistStore(),
		sessions: newFakeSessionManager(),
		storage:  &fakeBlobStorage{},
		verifier: fakeVerifier{},
	}

	RegisterRoutes(env.mux, Dependencies{
		Accounts:      env.accounts,
		Videos:        env.videos,
		Comments:      env.comments,
		Likes:         env.likes,
		Subscriptions: env.subs,
		Playlists:     env.lists,
		Sessions:      env.sessions,
		Engine:        graph.NewEngine(env.accounts, nil, nil, nil, nil, nil),
		Storage:       env.storage,
		Verifier:      env.verifier,
	})
	return env
}

// addAccount seeds an account with the given password and a bearer token the
// verifier will accept for it.
func (env *testEnv) addAccount(t *testing.T, id, username, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	env.accounts.accounts[id] = models.Account{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		FullName:     username,
		PasswordHash: string(hashed),
	}
	token := "tok-" + id
	env.verifier[token] = id
	return token
}

func (env *testEnv) do(t *testing.T, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) doJSON(t *testing.T, method, target, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return env.do(t, method, target, token, strings.NewReader(string(body)), "application/json")
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return body
}
