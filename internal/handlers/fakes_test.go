package handlers

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/tweettube/backend/internal/models"
	"github.com/tweettube/backend/internal/repositories"
)

type fakeUserStore struct {
	users   map[string]models.User
	profile models.ChannelProfile
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) UpdateAccount(ctx context.Context, id, fullName, email string) (models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	for _, existing := range s.users {
		if existing.ID != id && existing.Email == email {
			return models.User{}, repositories.ErrConflict
		}
	}
	user.FullName = fullName
	user.Email = email
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.Password = passwordHash
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) UpdateAvatar(ctx context.Context, id, url, key string) (models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.Avatar = url
	user.AvatarKey = key
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) UpdateCoverImage(ctx context.Context, id, url, key string) (models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.CoverImage = url
	user.CoverImageKey = key
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	if _, err := s.FindByUsername(ctx, username); err != nil {
		return models.ChannelProfile{}, err
	}
	profile := s.profile
	profile.IsSubscribed = profile.IsSubscribed && viewerID != ""
	return profile, nil
}

type fakeVideoStore struct {
	videos  map[string]models.Video
	owners  map[string]models.OwnerProfile
	watched []string
	liked   []string
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{
		videos: make(map[string]models.Video),
		owners: make(map[string]models.OwnerProfile),
	}
}

func (s *fakeVideoStore) add(video models.Video, owner models.OwnerProfile) {
	s.videos[video.ID] = video
	s.owners[video.OwnerID] = owner
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) error {
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) FindByIDWithOwner(ctx context.Context, id string) (models.VideoWithOwner, error) {
	video, err := s.FindByID(ctx, id)
	if err != nil {
		return models.VideoWithOwner{}, err
	}
	return models.VideoWithOwner{Video: video, Owner: s.owners[video.OwnerID]}, nil
}

func (s *fakeVideoStore) List(_ context.Context, opts repositories.ListVideosOptions) (models.Page[models.VideoWithOwner], error) {
	var items []models.VideoWithOwner
	for _, video := range s.videos {
		if !opts.IncludeUnpublished && !video.IsPublished {
			continue
		}
		if opts.OwnerID != "" && video.OwnerID != opts.OwnerID {
			continue
		}
		items = append(items, models.VideoWithOwner{Video: video, Owner: s.owners[video.OwnerID]})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	if items == nil {
		items = []models.VideoWithOwner{}
	}
	return models.Page[models.VideoWithOwner]{
		Items:       items,
		TotalCount:  int64(len(items)),
		TotalPages:  1,
		CurrentPage: opts.Page,
	}, nil
}

func (s *fakeVideoStore) UpdateDetails(ctx context.Context, id, title, description, thumbnailURL, thumbnailKey string) (models.Video, error) {
	video, err := s.FindByID(ctx, id)
	if err != nil {
		return models.Video{}, err
	}
	video.Title = title
	video.Description = description
	if thumbnailURL != "" {
		video.Thumbnail = thumbnailURL
		video.ThumbnailKey = thumbnailKey
	}
	s.videos[id] = video
	return video, nil
}

func (s *fakeVideoStore) SetPublished(ctx context.Context, id string, published bool) (models.Video, error) {
	video, err := s.FindByID(ctx, id)
	if err != nil {
		return models.Video{}, err
	}
	video.IsPublished = published
	s.videos[id] = video
	return video, nil
}

func (s *fakeVideoStore) Delete(_ context.Context, id string) error {
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *fakeVideoStore) IncrementViews(ctx context.Context, id string) error {
	video, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	video.Views++
	s.videos[id] = video
	return nil
}

func (s *fakeVideoStore) ListLiked(_ context.Context, _ string) ([]models.VideoWithOwner, error) {
	var items []models.VideoWithOwner
	for _, id := range s.liked {
		if video, ok := s.videos[id]; ok {
			items = append(items, models.VideoWithOwner{Video: video, Owner: s.owners[video.OwnerID]})
		}
	}
	if items == nil {
		items = []models.VideoWithOwner{}
	}
	return items, nil
}

func (s *fakeVideoStore) AppendWatch(_ context.Context, _, videoID string) error {
	s.watched = append(s.watched, videoID)
	return nil
}

func (s *fakeVideoStore) WatchHistory(_ context.Context, _ string) ([]models.VideoWithOwner, error) {
	var items []models.VideoWithOwner
	for _, id := range s.watched {
		if video, ok := s.videos[id]; ok {
			items = append(items, models.VideoWithOwner{Video: video, Owner: s.owners[video.OwnerID]})
		}
	}
	if items == nil {
		items = []models.VideoWithOwner{}
	}
	return items, nil
}

type fakeCommentStore struct {
	comments map[string]models.Comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]models.Comment)}
}

func (s *fakeCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}

func (s *fakeCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *fakeCommentStore) ListByVideo(_ context.Context, videoID string, page, limit int64) (models.Page[models.CommentWithOwner], error) {
	items := []models.CommentWithOwner{}
	for _, comment := range s.comments {
		if comment.VideoID == videoID {
			items = append(items, models.CommentWithOwner{Comment: comment})
		}
	}
	return models.Page[models.CommentWithOwner]{
		Items:       items,
		TotalCount:  int64(len(items)),
		TotalPages:  1,
		CurrentPage: page,
	}, nil
}

func (s *fakeCommentStore) UpdateContent(ctx context.Context, id, content string) (models.Comment, error) {
	comment, err := s.FindByID(ctx, id)
	if err != nil {
		return models.Comment{}, err
	}
	comment.Content = content
	s.comments[id] = comment
	return comment, nil
}

func (s *fakeCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type fakeTweetStore struct {
	tweets map[string]models.Tweet
}

func newFakeTweetStore() *fakeTweetStore {
	return &fakeTweetStore{tweets: make(map[string]models.Tweet)}
}

func (s *fakeTweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *fakeTweetStore) FindByID(_ context.Context, id string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (s *fakeTweetStore) ListByOwner(_ context.Context, ownerID string) ([]models.Tweet, error) {
	tweets := []models.Tweet{}
	for _, tweet := range s.tweets {
		if tweet.OwnerID == ownerID {
			tweets = append(tweets, tweet)
		}
	}
	return tweets, nil
}

func (s *fakeTweetStore) UpdateContent(ctx context.Context, id, content string) (models.Tweet, error) {
	tweet, err := s.FindByID(ctx, id)
	if err != nil {
		return models.Tweet{}, err
	}
	tweet.Content = content
	s.tweets[id] = tweet
	return tweet, nil
}

func (s *fakeTweetStore) Delete(_ context.Context, id string) error {
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

type fakeLikeStore struct {
	videoLikes map[string]bool
	missing    map[string]bool
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{videoLikes: make(map[string]bool), missing: make(map[string]bool)}
}

func (s *fakeLikeStore) toggle(userID, targetID string) (bool, error) {
	if s.missing[targetID] {
		return false, repositories.ErrNotFound
	}
	key := userID + ":" + targetID
	s.videoLikes[key] = !s.videoLikes[key]
	return s.videoLikes[key], nil
}

func (s *fakeLikeStore) ToggleVideo(_ context.Context, userID, videoID string) (bool, error) {
	return s.toggle(userID, videoID)
}

func (s *fakeLikeStore) ToggleComment(_ context.Context, userID, commentID string) (bool, error) {
	return s.toggle(userID, commentID)
}

func (s *fakeLikeStore) ToggleTweet(_ context.Context, userID, tweetID string) (bool, error) {
	return s.toggle(userID, tweetID)
}

type fakeSubscriptionStore struct {
	pairs map[string]bool
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{pairs: make(map[string]bool)}
}

func (s *fakeSubscriptionStore) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, repositories.ErrSelfSubscription
	}
	key := subscriberID + ":" + channelID
	s.pairs[key] = !s.pairs[key]
	return s.pairs[key], nil
}

func (s *fakeSubscriptionStore) Subscribers(_ context.Context, _ string) ([]models.Subscriber, error) {
	return []models.Subscriber{}, nil
}

func (s *fakeSubscriptionStore) SubscribedTo(_ context.Context, subscriberID string) ([]models.Subscriber, error) {
	channels := []models.Subscriber{}
	for key, active := range s.pairs {
		if !active {
			continue
		}
		if sub, channel, ok := strings.Cut(key, ":"); ok && sub == subscriberID {
			channels = append(channels, models.Subscriber{Username: channel})
		}
	}
	return channels, nil
}

type fakePlaylistStore struct {
	playlists map[string]models.Playlist
	members   map[string][]string
}

func newFakePlaylistStore() *fakePlaylistStore {
	return &fakePlaylistStore{
		playlists: make(map[string]models.Playlist),
		members:   make(map[string][]string),
	}
}

func (s *fakePlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *fakePlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *fakePlaylistStore) FindByIDWithVideos(ctx context.Context, id string) (models.PlaylistWithVideos, error) {
	playlist, err := s.FindByID(ctx, id)
	if err != nil {
		return models.PlaylistWithVideos{}, err
	}
	return models.PlaylistWithVideos{Playlist: playlist, Videos: []models.Video{}}, nil
}

func (s *fakePlaylistStore) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	playlists := []models.Playlist{}
	for _, playlist := range s.playlists {
		if playlist.OwnerID == ownerID {
			playlists = append(playlists, playlist)
		}
	}
	return playlists, nil
}

func (s *fakePlaylistStore) UpdateDetails(ctx context.Context, id, name, description string) (models.Playlist, error) {
	playlist, err := s.FindByID(ctx, id)
	if err != nil {
		return models.Playlist{}, err
	}
	playlist.Name = name
	playlist.Description = description
	s.playlists[id] = playlist
	return playlist, nil
}

func (s *fakePlaylistStore) Delete(_ context.Context, id string) error {
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

func (s *fakePlaylistStore) AddVideo(_ context.Context, playlistID, videoID string) error {
	for _, member := range s.members[playlistID] {
		if member == videoID {
			return repositories.ErrConflict
		}
	}
	s.members[playlistID] = append(s.members[playlistID], videoID)
	return nil
}

func (s *fakePlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	members := s.members[playlistID]
	for i, member := range members {
		if member == videoID {
			s.members[playlistID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type fakeStatsProvider struct {
	stats       models.ChannelStats
	calls       int
	invalidated []string
}

func (s *fakeStatsProvider) ChannelStats(_ context.Context, _ string) (models.ChannelStats, error) {
	s.calls++
	return s.stats, nil
}

func (s *fakeStatsProvider) Invalidate(channelID string) {
	s.invalidated = append(s.invalidated, channelID)
}

type fakeStorage struct {
	mu    sync.Mutex
	saved map[string]string
	fail  bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: make(map[string]string)}
}

func (s *fakeStorage) Save(_ context.Context, name, contentType string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", fmt.Errorf("storage unavailable")
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[name] = string(body)
	return "https://cdn.example.com/" + name, nil
}

type fakeCleaner struct {
	mu   sync.Mutex
	keys []string
}

func (c *fakeCleaner) Enqueue(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if key != "" {
			c.keys = append(c.keys, key)
		}
	}
}
