package mock

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"folio/app/models"
	"folio/app/repositories"
)

type PostRepository struct {
	posts  map[int64]*models.Post
	nextID int64
	mutex  sync.RWMutex
}

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[int64]*models.Post),
		nextID: 1,
	}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[int64]*models.Post)
	m.nextID = 1
}

func (m *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	cp := *post
	return &cp, nil
}

func (m *PostRepository) FindByURL(ctx context.Context, url string) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if post := m.byURL(url); post != nil {
		cp := *post
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *PostRepository) FindOrCreate(ctx context.Context, url string) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	post, err := m.findOrCreate(url)
	if err != nil {
		return nil, err
	}
	cp := *post
	return &cp, nil
}

func (m *PostRepository) IncrementViews(ctx context.Context, url string) (*models.Post, error) {
	return m.increment(url, func(p *models.Post) { p.ViewCount++ })
}

func (m *PostRepository) IncrementLikes(ctx context.Context, url string) (*models.Post, error) {
	return m.increment(url, func(p *models.Post) { p.LikeCount++ })
}

func (m *PostRepository) increment(url string, bump func(*models.Post)) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	post, err := m.findOrCreate(url)
	if err != nil {
		return nil, err
	}
	bump(post)
	cp := *post
	return &cp, nil
}

func (m *PostRepository) findOrCreate(url string) (*models.Post, error) {
	if post := m.byURL(url); post != nil {
		return post, nil
	}
	post := &models.Post{URL: url}
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return nil, err
	}
	post.ID = m.nextID
	m.nextID++
	m.posts[post.ID] = post
	return post, nil
}

func (m *PostRepository) byURL(url string) *models.Post {
	for _, p := range m.posts {
		if p.URL == url {
			return p
		}
	}
	return nil
}

type CommentRepository struct {
	posts    *PostRepository
	comments map[int64]*models.Comment
	nextID   int64
	mutex    sync.RWMutex
}

// NewCommentRepository creates a comment mock resolving post URLs through posts.
func NewCommentRepository(posts *PostRepository) *CommentRepository {
	return &CommentRepository{
		posts:    posts,
		comments: make(map[int64]*models.Comment),
		nextID:   1,
	}
}

func (m *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return err
	}
	if _, err := m.posts.GetByID(ctx, comment.PostID); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	comment.ID = m.nextID
	m.nextID++
	cp := *comment
	m.comments[comment.ID] = &cp
	return nil
}

func (m *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	comment, exists := m.comments[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	cp := *comment
	return &cp, nil
}

func (m *CommentRepository) ListByPostURL(ctx context.Context, url string) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	post, err := m.posts.FindByURL(ctx, url)
	if errors.Is(err, repositories.ErrNotFound) {
		return comments, nil
	}
	if err != nil {
		return nil, err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, c := range m.comments {
		if c.PostID == post.ID {
			cp := *c
			comments = append(comments, &cp)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (m *CommentRepository) Delete(ctx context.Context, id int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.comments[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

type PageViewRepository struct {
	views []models.PageView
	// Err, when set, is returned by every call.
	Err   error
	mutex sync.RWMutex
}

func NewPageViewRepository() *PageViewRepository {
	return &PageViewRepository{}
}

func (m *PageViewRepository) Insert(ctx context.Context, view *models.PageView) error {
	if m.Err != nil {
		return m.Err
	}
	if err := view.Validate(); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	view.ID = int64(len(m.views) + 1)
	m.views = append(m.views, *view)
	return nil
}

func (m *PageViewRepository) CountByURL(ctx context.Context, url string) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var n int64
	for _, v := range m.views {
		if v.URL == url {
			n++
		}
	}
	return n, nil
}

func (m *PageViewRepository) Totals(ctx context.Context, f repositories.PageViewFilter) (int64, int64, error) {
	if m.Err != nil {
		return 0, 0, m.Err
	}
	views := m.filtered(f)
	urls := make(map[string]struct{})
	for _, v := range views {
		urls[v.URL] = struct{}{}
	}
	return int64(len(views)), int64(len(urls)), nil
}

func (m *PageViewRepository) DailyCounts(ctx context.Context, f repositories.PageViewFilter) ([]repositories.DailyCount, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	perDay := make(map[string]int64)
	for _, v := range m.filtered(f) {
		perDay[v.Date.UTC().Format("2006-01-02")]++
	}
	counts := make([]repositories.DailyCount, 0, len(perDay))
	for day, n := range perDay {
		counts = append(counts, repositories.DailyCount{Day: day, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Day < counts[j].Day })
	return counts, nil
}

func (m *PageViewRepository) ViewsPerURL(ctx context.Context, f repositories.PageViewFilter, limit, offset int) ([]repositories.URLCount, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	perURL := make(map[string]int64)
	for _, v := range m.filtered(f) {
		perURL[v.URL]++
	}
	counts := make([]repositories.URLCount, 0, len(perURL))
	for url, n := range perURL {
		counts = append(counts, repositories.URLCount{URL: url, PageViews: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].PageViews == counts[j].PageViews {
			return counts[i].URL < counts[j].URL
		}
		return counts[i].PageViews > counts[j].PageViews
	})
	if offset >= len(counts) {
		return []repositories.URLCount{}, nil
	}
	end := offset + limit
	if end > len(counts) {
		end = len(counts)
	}
	return counts[offset:end], nil
}

func (m *PageViewRepository) filtered(f repositories.PageViewFilter) []models.PageView {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var out []models.PageView
	for _, v := range m.views {
		if !f.From.IsZero() {
			if v.Date.Before(f.From) {
				continue
			}
			if !f.To.IsZero() && v.Date.After(f.To) {
				continue
			}
		}
		if f.Search != "" && !strings.Contains(v.URL, f.Search) {
			continue
		}
		out = append(out, v)
	}
	return out
}

type AccountRepository struct {
	accounts map[string]*models.Account
	nextID   int64
	mutex    sync.RWMutex
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]*models.Account),
		nextID:   1,
	}
}

func (m *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	account.BeforeCreate()
	if err := account.Validate(); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.accounts[account.Username]; exists {
		return repositories.ErrConflict
	}
	account.ID = m.nextID
	m.nextID++
	cp := *account
	m.accounts[account.Username] = &cp
	return nil
}

func (m *AccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	account, exists := m.accounts[username]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	cp := *account
	return &cp, nil
}

type kvEntry struct {
	value   []byte
	expires time.Time
}

// KVStore is an in-memory KVStore. Now can be replaced to control expiry.
type KVStore struct {
	entries map[string]kvEntry
	Now     func() time.Time
	mutex   sync.Mutex
}

func NewKVStore() *KVStore {
	return &KVStore{
		entries: make(map[string]kvEntry),
		Now:     time.Now,
	}
}

func (m *KVStore) SetNX(key string, value []byte, ttl time.Duration) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if e, ok := m.entries[key]; ok && !m.expired(e) {
		return false, nil
	}
	e := kvEntry{value: value}
	if ttl > 0 {
		e.expires = m.Now().Add(ttl)
	}
	m.entries[key] = e
	return true, nil
}

func (m *KVStore) Incr(key string) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	n, err := m.get(key)
	if err != nil {
		return 0, err
	}
	n++
	m.entries[key] = kvEntry{value: []byte(strconv.FormatInt(n, 10))}
	return n, nil
}

func (m *KVStore) GetInt(key string) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.get(key)
}

func (m *KVStore) Backup(w io.Writer) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for k, e := range m.entries {
		if _, err := io.WriteString(w, k+"="+string(e.value)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (m *KVStore) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, line := range bytes.Split(data, []byte("\n")) {
		k, v, ok := bytes.Cut(line, []byte("="))
		if ok {
			m.entries[string(k)] = kvEntry{value: v}
		}
	}
	return nil
}

func (m *KVStore) Close() error { return nil }

func (m *KVStore) get(key string) (int64, error) {
	e, ok := m.entries[key]
	if !ok || m.expired(e) {
		return 0, nil
	}
	return strconv.ParseInt(string(e.value), 10, 64)
}

func (m *KVStore) expired(e kvEntry) bool {
	return !e.expires.IsZero() && !m.Now().Before(e.expires)
}
