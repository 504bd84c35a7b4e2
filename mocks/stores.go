package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/lib/pq"
)

// DB is a shared in-memory backing for every mock store. Timestamps come
// from a clock that advances one second per write so ordering is stable.
type DB struct {
	mu     sync.Mutex
	nextID uint
	clock  time.Time

	Users         map[uint]*models.User
	Contents      map[uint]*models.Content
	Comments      map[uint]*models.Comment
	Notifications map[uint]*models.Notification
	Tokens        map[string]*models.RefreshToken
	Follows       []models.Follow
	Likes         []models.Like
	Saved         []models.SavedContent

	// Err, when set, is returned by every store call.
	Err error
}

func NewDB() *DB {
	return &DB{
		clock:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Users:         make(map[uint]*models.User),
		Contents:      make(map[uint]*models.Content),
		Comments:      make(map[uint]*models.Comment),
		Notifications: make(map[uint]*models.Notification),
		Tokens:        make(map[string]*models.RefreshToken),
	}
}

// NewStores returns store.Stores backed by a fresh in-memory DB.
func NewStores() (*store.Stores, *DB) {
	db := NewDB()
	return &store.Stores{
		Users:         &UserStore{db: db},
		Follows:       &FollowStore{db: db},
		Contents:      &ContentStore{db: db},
		Comments:      &CommentStore{db: db},
		Notifications: &NotificationStore{db: db},
		Tokens:        &TokenStore{db: db},
	}, db
}

func (d *DB) tick() time.Time {
	d.clock = d.clock.Add(time.Second)
	return d.clock
}

func (d *DB) id() uint {
	d.nextID++
	return d.nextID
}

func window[T any](items []T, p store.Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end]
}

func (d *DB) userCopy(id uint) *models.User {
	u, ok := d.Users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (d *DB) contentCopy(c *models.Content) models.Content {
	cp := *c
	cp.Tags = append(pq.StringArray{}, c.Tags...)
	cp.Author = d.userCopy(c.AuthorID)
	return cp
}

// UserStore

type UserStore struct{ db *DB }

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	user.Email = models.NormalizeEmail(user.Email)
	for _, u := range d.Users {
		if u.Email == user.Email {
			return store.ErrAlreadyExists
		}
		if user.GoogleID != nil && u.GoogleID != nil && *u.GoogleID == *user.GoogleID {
			return store.ErrAlreadyExists
		}
	}

	user.ID = d.id()
	user.CreatedAt = d.tick()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	d.Users[user.ID] = &cp
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id uint) (*models.User, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	if u := d.userCopy(id); u != nil {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	email = models.NormalizeEmail(email)
	for id, u := range d.Users {
		if u.Email == email {
			return d.userCopy(id), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) GetByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	for id, u := range d.Users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return d.userCopy(id), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) Update(_ context.Context, id uint, updates map[string]interface{}) (*models.User, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	u, ok := d.Users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "name":
			u.Name = v.(string)
		case "bio":
			u.Bio = v.(string)
		case "avatar_url":
			u.AvatarURL = v.(string)
		case "latitude":
			u.Latitude = floatPtr(v)
		case "longitude":
			u.Longitude = floatPtr(v)
		case "google_id":
			u.GoogleID = stringPtr(v)
		}
	}
	u.UpdatedAt = d.tick()
	return d.userCopy(id), nil
}

func (s *UserStore) Search(_ context.Context, query string, page store.Page) ([]models.User, int64, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, 0, d.Err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var matched []models.User
	for _, u := range d.Users {
		if q == "" || strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(u.Email, q) {
			matched = append(matched, *u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return window(matched, page), int64(len(matched)), nil
}

func (s *UserStore) Suggested(_ context.Context, userID uint, limit int) ([]models.User, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	following := map[uint]bool{}
	followers := map[uint]int{}
	for _, f := range d.Follows {
		if f.FollowerID == userID {
			following[f.FollowingID] = true
		}
		followers[f.FollowingID]++
	}

	var out []models.User
	for id, u := range d.Users {
		if id != userID && !following[id] {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if followers[out[i].ID] != followers[out[j].ID] {
			return followers[out[i].ID] > followers[out[j].ID]
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return window(out, store.Page{Limit: limit}), nil
}

func (s *UserStore) Stats(_ context.Context, userID uint) (models.UserStats, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	var stats models.UserStats
	if d.Err != nil {
		return stats, d.Err
	}
	for _, f := range d.Follows {
		if f.FollowingID == userID {
			stats.FollowersCount++
		}
		if f.FollowerID == userID {
			stats.FollowingCount++
		}
	}
	for _, c := range d.Contents {
		if c.AuthorID == userID {
			stats.ContentCount++
		}
	}
	return stats, nil
}

// FollowStore

type FollowStore struct{ db *DB }

func (s *FollowStore) Follow(_ context.Context, followerID, followingID uint) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	for _, f := range d.Follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return store.ErrAlreadyExists
		}
	}
	d.Follows = append(d.Follows, models.Follow{ID: d.id(), FollowerID: followerID, FollowingID: followingID, CreatedAt: d.tick()})
	return nil
}

func (s *FollowStore) Unfollow(_ context.Context, followerID, followingID uint) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	for i, f := range d.Follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			d.Follows = append(d.Follows[:i], d.Follows[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *FollowStore) IsFollowing(_ context.Context, followerID, followingID uint) (bool, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return false, d.Err
	}
	for _, f := range d.Follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (s *FollowStore) Followers(_ context.Context, userID uint, page store.Page) ([]models.User, int64, error) {
	return s.list(func(f models.Follow) (bool, uint) { return f.FollowingID == userID, f.FollowerID }, page)
}

func (s *FollowStore) Following(_ context.Context, userID uint, page store.Page) ([]models.User, int64, error) {
	return s.list(func(f models.Follow) (bool, uint) { return f.FollowerID == userID, f.FollowingID }, page)
}

func (s *FollowStore) list(match func(models.Follow) (bool, uint), page store.Page) ([]models.User, int64, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, 0, d.Err
	}
	var users []models.User
	for i := len(d.Follows) - 1; i >= 0; i-- {
		if ok, other := match(d.Follows[i]); ok {
			if u := d.userCopy(other); u != nil {
				users = append(users, *u)
			}
		}
	}
	return window(users, page), int64(len(users)), nil
}

func (s *FollowStore) FollowingIDs(_ context.Context, userID uint) ([]uint, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	var ids []uint
	for _, f := range d.Follows {
		if f.FollowerID == userID {
			ids = append(ids, f.FollowingID)
		}
	}
	return ids, nil
}

// ContentStore

type ContentStore struct{ db *DB }

func (s *ContentStore) Create(_ context.Context, content *models.Content) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	if content.Tags == nil {
		content.Tags = pq.StringArray{}
	}
	content.ID = d.id()
	content.CreatedAt = d.tick()
	content.UpdatedAt = content.CreatedAt
	cp := *content
	cp.Author = nil
	d.Contents[content.ID] = &cp
	content.Author = d.userCopy(content.AuthorID)
	return nil
}

func (s *ContentStore) GetByID(_ context.Context, id uint) (*models.Content, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	c, ok := d.Contents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := d.contentCopy(c)
	return &cp, nil
}

func (s *ContentStore) Update(_ context.Context, id uint, updates map[string]interface{}) (*models.Content, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	c, ok := d.Contents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "title":
			c.Title = v.(string)
		case "body":
			c.Body = v.(string)
		case "content_type":
			c.ContentType = v.(string)
		case "tags":
			c.Tags = v.(pq.StringArray)
		case "latitude":
			c.Latitude = floatPtr(v)
		case "longitude":
			c.Longitude = floatPtr(v)
		case "location_name":
			c.LocationName = v.(string)
		case "ai_score":
			c.AIScore = v.(float64)
		}
	}
	c.UpdatedAt = d.tick()
	cp := d.contentCopy(c)
	return &cp, nil
}

func (s *ContentStore) Delete(_ context.Context, id uint) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	if _, ok := d.Contents[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.Contents, id)

	deletedComments := map[uint]bool{}
	for cid, c := range d.Comments {
		if c.ContentID == id {
			deletedComments[cid] = true
			delete(d.Comments, cid)
		}
	}
	for nid, n := range d.Notifications {
		if (n.ContentID != nil && *n.ContentID == id) || (n.CommentID != nil && deletedComments[*n.CommentID]) {
			delete(d.Notifications, nid)
		}
	}
	likes := d.Likes[:0]
	for _, l := range d.Likes {
		if l.ContentID != id {
			likes = append(likes, l)
		}
	}
	d.Likes = likes
	saved := d.Saved[:0]
	for _, sc := range d.Saved {
		if sc.ContentID != id {
			saved = append(saved, sc)
		}
	}
	d.Saved = saved
	return nil
}

func (s *ContentStore) IncrementViews(_ context.Context, id uint) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	if c, ok := d.Contents[id]; ok {
		c.Views++
	}
	return nil
}

func (s *ContentStore) List(_ context.Context, filter store.ContentFilter, page store.Page) ([]models.Content, int64, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, 0, d.Err
	}

	authors := map[uint]bool{}
	for _, id := range filter.AuthorIDs {
		authors[id] = true
	}

	var items []models.Content
	for _, c := range d.Contents {
		if len(authors) > 0 && !authors[c.AuthorID] {
			continue
		}
		if filter.ExcludeAuthorID != 0 && c.AuthorID == filter.ExcludeAuthorID {
			continue
		}
		if !near(c, filter.Near) {
			continue
		}
		cp := d.contentCopy(c)
		if filter.Sort == store.SortTopScore {
			cp.Score = cp.EngagementScore()
		}
		items = append(items, cp)
	}
	sortContent(items, filter.Sort)
	return window(items, page), int64(len(items)), nil
}

func (s *ContentStore) Search(_ context.Context, q store.SearchQuery, page store.Page) ([]models.Content, int64, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, 0, d.Err
	}

	terms := strings.Fields(strings.ToLower(q.Text))
	types := map[string]bool{}
	for _, t := range q.ContentTypes {
		types[t] = true
	}

	var items []models.Content
	for _, c := range d.Contents {
		text := strings.ToLower(c.Title + " " + c.Body)
		hits := 0
		for _, t := range terms {
			if strings.Contains(text, t) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		if len(q.Tags) > 0 && !overlaps(c.Tags, q.Tags) {
			continue
		}
		if len(types) > 0 && !types[c.ContentType] {
			continue
		}
		if !near(c, q.Near) {
			continue
		}
		cp := d.contentCopy(c)
		if q.Sort == store.SortRelevance {
			cp.Score = float64(hits)
		}
		items = append(items, cp)
	}
	sortContent(items, q.Sort)
	return window(items, page), int64(len(items)), nil
}

func (s *ContentStore) Like(_ context.Context, contentID, userID uint) (int64, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return 0, d.Err
	}
	c, ok := d.Contents[contentID]
	if !ok {
		return 0, store.ErrNotFound
	}
	for _, l := range d.Likes {
		if l.ContentID == contentID && l.UserID == userID {
			return c.LikesCount, store.ErrAlreadyExists
		}
	}
	d.Likes = append(d.Likes, models.Like{ID: d.id(), ContentID: contentID, UserID: userID, CreatedAt: d.tick()})
	c.LikesCount++
	return c.LikesCount, nil
}

func (s *ContentStore) Unlike(_ context.Context, contentID, userID uint) (int64, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return 0, d.Err
	}
	c, ok := d.Contents[contentID]
	if !ok {
		return 0, store.ErrNotFound
	}
	for i, l := range d.Likes {
		if l.ContentID == contentID && l.UserID == userID {
			d.Likes = append(d.Likes[:i], d.Likes[i+1:]...)
			if c.LikesCount > 0 {
				c.LikesCount--
			}
			return c.LikesCount, nil
		}
	}
	return c.LikesCount, store.ErrNotFound
}

func (s *ContentStore) HasLiked(_ context.Context, contentID, userID uint) (bool, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return false, d.Err
	}
	for _, l := range d.Likes {
		if l.ContentID == contentID && l.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *ContentStore) Save(_ context.Context, userID, contentID uint) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	for _, sc := range d.Saved {
		if sc.UserID == userID && sc.ContentID == contentID {
			return store.ErrAlreadyExists
		}
	}
	d.Saved = append(d.Saved, models.SavedContent{ID: d.id(), UserID: userID, ContentID: contentID, CreatedAt: d.tick()})
	return nil
}

func (s *ContentStore) Unsave(_ context.Context, userID, contentID uint) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	for i, sc := range d.Saved {
		if sc.UserID == userID && sc.ContentID == contentID {
			d.Saved = append(d.Saved[:i], d.Saved[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *ContentStore) Saved(_ context.Context, userID uint, page store.Page) ([]models.Content, int64, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, 0, d.Err
	}
	var items []models.Content
	for i := len(d.Saved) - 1; i >= 0; i-- {
		sc := d.Saved[i]
		if sc.UserID != userID {
			continue
		}
		if c, ok := d.Contents[sc.ContentID]; ok {
			items = append(items, d.contentCopy(c))
		}
	}
	return window(items, page), int64(len(items)), nil
}

// CommentStore

type CommentStore struct{ db *DB }

func (s *CommentStore) Create(_ context.Context, comment *models.Comment) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	c, ok := d.Contents[comment.ContentID]
	if !ok {
		return store.ErrNotFound
	}
	comment.ID = d.id()
	comment.CreatedAt = d.tick()
	comment.UpdatedAt = comment.CreatedAt
	cp := *comment
	cp.Author = nil
	d.Comments[comment.ID] = &cp
	c.CommentsCount++
	comment.Author = d.userCopy(comment.AuthorID)
	return nil
}

func (s *CommentStore) GetByID(_ context.Context, id uint) (*models.Comment, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	c, ok := d.Comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	cp.Author = d.userCopy(c.AuthorID)
	return &cp, nil
}

func (s *CommentStore) UpdateBody(_ context.Context, id uint, body string) (*models.Comment, error) {
	d := s.db
	d.mu.Lock()
	c, ok := d.Comments[id]
	if ok {
		c.Body = body
		c.UpdatedAt = d.tick()
	}
	d.mu.Unlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.GetByID(context.Background(), id)
}

func (s *CommentStore) Delete(_ context.Context, id uint) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	c, ok := d.Comments[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(d.Comments, id)
	for nid, n := range d.Notifications {
		if n.CommentID != nil && *n.CommentID == id {
			delete(d.Notifications, nid)
		}
	}
	if content, ok := d.Contents[c.ContentID]; ok && content.CommentsCount > 0 {
		content.CommentsCount--
	}
	return nil
}

func (s *CommentStore) ListByContent(_ context.Context, contentID uint, page store.Page) ([]models.Comment, int64, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, 0, d.Err
	}
	var items []models.Comment
	for _, c := range d.Comments {
		if c.ContentID == contentID {
			cp := *c
			cp.Author = d.userCopy(c.AuthorID)
			items = append(items, cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return window(items, page), int64(len(items)), nil
}

// NotificationStore

type NotificationStore struct{ db *DB }

func (s *NotificationStore) Create(_ context.Context, n *models.Notification) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	n.ID = d.id()
	n.CreatedAt = d.tick()
	n.UpdatedAt = n.CreatedAt
	cp := *n
	d.Notifications[n.ID] = &cp
	return nil
}

func (s *NotificationStore) List(_ context.Context, recipientID uint, page store.Page) ([]models.Notification, int64, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, 0, d.Err
	}
	var items []models.Notification
	for _, n := range d.Notifications {
		if n.RecipientID != recipientID {
			continue
		}
		cp := *n
		if n.SenderID != nil {
			cp.Sender = d.userCopy(*n.SenderID)
		}
		if n.ContentID != nil {
			if c, ok := d.Contents[*n.ContentID]; ok {
				content := *c
				cp.Content = &content
			}
		}
		items = append(items, cp)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return window(items, page), int64(len(items)), nil
}

func (s *NotificationStore) UnreadCount(_ context.Context, recipientID uint) (int64, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return 0, d.Err
	}
	var count int64
	for _, n := range d.Notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *NotificationStore) MarkAllRead(_ context.Context, recipientID uint) (int64, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return 0, d.Err
	}
	var updated int64
	for _, n := range d.Notifications {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, id, recipientID uint) (*models.Notification, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	n, ok := d.Notifications[id]
	if !ok || n.RecipientID != recipientID {
		return nil, store.ErrNotFound
	}
	n.Read = true
	cp := *n
	return &cp, nil
}

// TokenStore

type TokenStore struct{ db *DB }

func (s *TokenStore) Create(_ context.Context, token *models.RefreshToken) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	if _, exists := d.Tokens[token.Token]; exists {
		return store.ErrAlreadyExists
	}
	token.ID = d.id()
	token.CreatedAt = d.tick()
	cp := *token
	d.Tokens[token.Token] = &cp
	return nil
}

func (s *TokenStore) GetByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	t, ok := d.Tokens[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *TokenStore) Delete(_ context.Context, token string) error {
	d := s.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	if _, ok := d.Tokens[token]; !ok {
		return store.ErrNotFound
	}
	delete(d.Tokens, token)
	return nil
}

func near(c *models.Content, g *store.GeoFilter) bool {
	if g == nil {
		return true
	}
	if !c.HasLocation() {
		return false
	}
	return utils.DistanceKm(g.Latitude, g.Longitude, *c.Latitude, *c.Longitude) <= g.RadiusKm
}

func overlaps(have pq.StringArray, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func sortContent(items []models.Content, by store.ContentSort) {
	key := func(c models.Content) float64 {
		switch by {
		case store.SortTopScore, store.SortRelevance:
			return c.Score
		case store.SortAIScore:
			return c.AIScore
		case store.SortViews:
			return float64(c.Views)
		case store.SortLikes:
			return float64(c.LikesCount)
		}
		return 0
	}
	sort.SliceStable(items, func(i, j int) bool {
		if ki, kj := key(items[i]), key(items[j]); ki != kj {
			return ki > kj
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}

func floatPtr(v interface{}) *float64 {
	switch f := v.(type) {
	case *float64:
		return f
	case float64:
		return &f
	}
	return nil
}

func stringPtr(v interface{}) *string {
	switch s := v.(type) {
	case *string:
		return s
	case string:
		return &s
	}
	return nil
}
