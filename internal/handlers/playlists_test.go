package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tweettube/backend/internal/models"
)

const testPlaylistID = "2a3b4c5d-6e7f-4a8b-9c0d-1e2f3a4b5c6d"

func newPlaylistFixture() (*fakePlaylistStore, *fakeVideoStore) {
	playlists := newFakePlaylistStore()
	playlists.playlists[testPlaylistID] = models.Playlist{
		ID:          testPlaylistID,
		OwnerID:     testOwnerID,
		Name:        "watch later",
		Description: "queued up",
	}
	videos := newFakeVideoStore()
	video, owner := publishedVideo()
	videos.add(video, owner)
	return playlists, videos
}

func TestPlaylistHandlerCreate(t *testing.T) {
	playlists := newFakePlaylistStore()
	handler := PlaylistHandler{Playlists: playlists, Videos: newFakeVideoStore(), Users: newFakeUserStore()}

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/playlists", strings.NewReader(`{"name":"favorites","description":"the good ones"}`)), models.User{ID: testOwnerID})
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(playlists.playlists) != 1 {
		t.Fatalf("stored %d playlists, want 1", len(playlists.playlists))
	}
	for _, playlist := range playlists.playlists {
		if playlist.OwnerID != testOwnerID || playlist.Name != "favorites" {
			t.Errorf("stored playlist wrong: %+v", playlist)
		}
	}
}

func TestPlaylistHandlerCreateRequiresFields(t *testing.T) {
	handler := PlaylistHandler{Playlists: newFakePlaylistStore(), Videos: newFakeVideoStore(), Users: newFakeUserStore()}

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/playlists", strings.NewReader(`{"name":"favorites"}`)), models.User{ID: testOwnerID})
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPlaylistHandlerGet(t *testing.T) {
	playlists, videos := newPlaylistFixture()
	handler := PlaylistHandler{Playlists: playlists, Videos: videos, Users: newFakeUserStore()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/playlists/"+testPlaylistID, nil)
	req.SetPathValue("playlistId", testPlaylistID)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestPlaylistHandlerAddVideo(t *testing.T) {
	playlists, videos := newPlaylistFixture()
	handler := PlaylistHandler{Playlists: playlists, Videos: videos, Users: newFakeUserStore()}

	addVideo := func(user models.User) *httptest.ResponseRecorder {
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/playlists/"+testPlaylistID+"/videos/"+testVideoID, nil), user)
		req.SetPathValue("playlistId", testPlaylistID)
		req.SetPathValue("videoId", testVideoID)
		rec := httptest.NewRecorder()
		handler.AddVideo(rec, req)
		return rec
	}

	rec := addVideo(models.User{ID: testOwnerID})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if members := playlists.members[testPlaylistID]; len(members) != 1 || members[0] != testVideoID {
		t.Fatalf("members = %v, want [%s]", members, testVideoID)
	}

	// Adding the same video again is a conflict.
	rec = addVideo(models.User{ID: testOwnerID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate add status = %d, want %d", rec.Code, http.StatusConflict)
	}

	// Only the playlist owner can touch membership.
	rec = addVideo(models.User{ID: testViewerID})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestPlaylistHandlerAddMissingVideo(t *testing.T) {
	playlists, _ := newPlaylistFixture()
	handler := PlaylistHandler{Playlists: playlists, Videos: newFakeVideoStore(), Users: newFakeUserStore()}

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/playlists/"+testPlaylistID+"/videos/"+testVideoID, nil), models.User{ID: testOwnerID})
	req.SetPathValue("playlistId", testPlaylistID)
	req.SetPathValue("videoId", testVideoID)
	rec := httptest.NewRecorder()

	handler.AddVideo(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPlaylistHandlerRemoveVideo(t *testing.T) {
	playlists, videos := newPlaylistFixture()
	playlists.members[testPlaylistID] = []string{testVideoID}
	handler := PlaylistHandler{Playlists: playlists, Videos: videos, Users: newFakeUserStore()}

	removeVideo := func() *httptest.ResponseRecorder {
		req := withPrincipal(httptest.NewRequest(http.MethodDelete, "/api/v1/playlists/"+testPlaylistID+"/videos/"+testVideoID, nil), models.User{ID: testOwnerID})
		req.SetPathValue("playlistId", testPlaylistID)
		req.SetPathValue("videoId", testVideoID)
		rec := httptest.NewRecorder()
		handler.RemoveVideo(rec, req)
		return rec
	}

	rec := removeVideo()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// Removing a video that is not in the playlist is a 404.
	rec = removeVideo()
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second remove status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPlaylistHandlerUpdate(t *testing.T) {
	playlists, videos := newPlaylistFixture()
	handler := PlaylistHandler{Playlists: playlists, Videos: videos, Users: newFakeUserStore()}

	req := withPrincipal(httptest.NewRequest(http.MethodPatch, "/api/v1/playlists/"+testPlaylistID, strings.NewReader(`{"name":"renamed","description":"still queued"}`)), models.User{ID: testOwnerID})
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("playlistId", testPlaylistID)
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	stored, _ := playlists.FindByID(context.Background(), testPlaylistID)
	if stored.Name != "renamed" {
		t.Errorf("name = %q, want %q", stored.Name, "renamed")
	}
}

func TestPlaylistHandlerDeleteForbiddenForNonOwner(t *testing.T) {
	playlists, videos := newPlaylistFixture()
	handler := PlaylistHandler{Playlists: playlists, Videos: videos, Users: newFakeUserStore()}

	req := withPrincipal(httptest.NewRequest(http.MethodDelete, "/api/v1/playlists/"+testPlaylistID, nil), models.User{ID: testViewerID})
	req.SetPathValue("playlistId", testPlaylistID)
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if _, err := playlists.FindByID(context.Background(), testPlaylistID); err != nil {
		t.Error("playlist removed by non-owner")
	}
}

func TestPlaylistHandlerListForUser(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, testOwnerID, "ada", "ada@example.com", "password123")
	playlists, videos := newPlaylistFixture()
	handler := PlaylistHandler{Playlists: playlists, Videos: videos, Users: users}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/playlists/user/"+testOwnerID, nil)
	req.SetPathValue("userId", testOwnerID)
	rec := httptest.NewRecorder()

	handler.ListForUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	e := decodeEnvelope(t, rec)
	if items := e.Data.([]any); len(items) != 1 {
		t.Fatalf("listed %d playlists, want 1", len(items))
	}
}
