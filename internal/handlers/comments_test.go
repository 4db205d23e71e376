package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tweettube/backend/internal/models"
)

const testCommentID = "3c4d5e6f-7a8b-4c9d-8e0f-1a2b3c4d5e6f"

func newCommentFixture() (*fakeCommentStore, *fakeVideoStore) {
	comments := newFakeCommentStore()
	videos := newFakeVideoStore()
	video, owner := publishedVideo()
	videos.add(video, owner)
	return comments, videos
}

func TestCommentHandlerCreate(t *testing.T) {
	comments, videos := newCommentFixture()
	handler := CommentHandler{Comments: comments, Videos: videos}

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/comments/"+testVideoID, strings.NewReader(`{"content":"great video"}`)), models.User{ID: testViewerID})
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("videoId", testVideoID)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(comments.comments) != 1 {
		t.Fatalf("stored %d comments, want 1", len(comments.comments))
	}
	for _, comment := range comments.comments {
		if comment.OwnerID != testViewerID || comment.VideoID != testVideoID {
			t.Errorf("comment attribution wrong: %+v", comment)
		}
	}
}

func TestCommentHandlerCreateValidation(t *testing.T) {
	comments, videos := newCommentFixture()
	handler := CommentHandler{Comments: comments, Videos: videos}

	tests := []struct {
		name       string
		videoID    string
		body       string
		wantStatus int
	}{
		{"blank content", testVideoID, `{"content":"   "}`, http.StatusBadRequest},
		{"malformed video id", "junk", `{"content":"hi"}`, http.StatusBadRequest},
		{"missing video", testViewerID, `{"content":"hi"}`, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/comments/"+tc.videoID, strings.NewReader(tc.body)), models.User{ID: testViewerID})
			req.Header.Set("Content-Type", "application/json")
			req.SetPathValue("videoId", tc.videoID)
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestCommentHandlerListForVideo(t *testing.T) {
	comments, videos := newCommentFixture()
	comments.comments[testCommentID] = models.Comment{ID: testCommentID, VideoID: testVideoID, OwnerID: testViewerID, Content: "first"}
	handler := CommentHandler{Comments: comments, Videos: videos}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/comments/"+testVideoID, nil)
	req.SetPathValue("videoId", testVideoID)
	rec := httptest.NewRecorder()

	handler.ListForVideo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	e := decodeEnvelope(t, rec)
	data := e.Data.(map[string]any)
	if items := data["items"].([]any); len(items) != 1 {
		t.Fatalf("listed %d comments, want 1", len(items))
	}
}

func TestCommentHandlerListForMissingVideo(t *testing.T) {
	comments, videos := newCommentFixture()
	handler := CommentHandler{Comments: comments, Videos: videos}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/comments/"+testViewerID, nil)
	req.SetPathValue("videoId", testViewerID)
	rec := httptest.NewRecorder()

	handler.ListForVideo(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCommentHandlerUpdate(t *testing.T) {
	comments, videos := newCommentFixture()
	comments.comments[testCommentID] = models.Comment{ID: testCommentID, VideoID: testVideoID, OwnerID: testViewerID, Content: "first"}
	handler := CommentHandler{Comments: comments, Videos: videos}

	req := withPrincipal(httptest.NewRequest(http.MethodPatch, "/api/v1/comments/c/"+testCommentID, strings.NewReader(`{"content":"edited"}`)), models.User{ID: testViewerID})
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("commentId", testCommentID)
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	stored, _ := comments.FindByID(context.Background(), testCommentID)
	if stored.Content != "edited" {
		t.Errorf("content = %q, want %q", stored.Content, "edited")
	}
}

func TestCommentHandlerUpdateForbiddenForNonOwner(t *testing.T) {
	comments, videos := newCommentFixture()
	comments.comments[testCommentID] = models.Comment{ID: testCommentID, VideoID: testVideoID, OwnerID: testViewerID, Content: "first"}
	handler := CommentHandler{Comments: comments, Videos: videos}

	req := withPrincipal(httptest.NewRequest(http.MethodPatch, "/api/v1/comments/c/"+testCommentID, strings.NewReader(`{"content":"hijacked"}`)), models.User{ID: testOwnerID})
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("commentId", testCommentID)
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestCommentHandlerDelete(t *testing.T) {
	comments, videos := newCommentFixture()
	comments.comments[testCommentID] = models.Comment{ID: testCommentID, VideoID: testVideoID, OwnerID: testViewerID, Content: "first"}
	handler := CommentHandler{Comments: comments, Videos: videos}

	req := withPrincipal(httptest.NewRequest(http.MethodDelete, "/api/v1/comments/c/"+testCommentID, nil), models.User{ID: testViewerID})
	req.SetPathValue("commentId", testCommentID)
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if _, err := comments.FindByID(context.Background(), testCommentID); err == nil {
		t.Error("comment still present after delete")
	}
}
