package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tweettube/backend/internal/models"
)

const testTweetID = "7d8e9f0a-1b2c-4d3e-9f4a-5b6c7d8e9f0a"

func TestTweetHandlerCreate(t *testing.T) {
	tweets := newFakeTweetStore()
	handler := TweetHandler{Tweets: tweets, Users: newFakeUserStore()}

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/tweets", strings.NewReader(`{"content":"shipping today"}`)), models.User{ID: testOwnerID})
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(tweets.tweets) != 1 {
		t.Fatalf("stored %d tweets, want 1", len(tweets.tweets))
	}
	for _, tweet := range tweets.tweets {
		if tweet.OwnerID != testOwnerID || tweet.Content != "shipping today" {
			t.Errorf("stored tweet wrong: %+v", tweet)
		}
	}
}

func TestTweetHandlerCreateRejectsBlankContent(t *testing.T) {
	handler := TweetHandler{Tweets: newFakeTweetStore(), Users: newFakeUserStore()}

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/tweets", strings.NewReader(`{"content":"  "}`)), models.User{ID: testOwnerID})
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestTweetHandlerListForUser(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, testOwnerID, "ada", "ada@example.com", "password123")
	tweets := newFakeTweetStore()
	tweets.tweets[testTweetID] = models.Tweet{ID: testTweetID, OwnerID: testOwnerID, Content: "hello"}
	handler := TweetHandler{Tweets: tweets, Users: users}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tweets/user/"+testOwnerID, nil)
	req.SetPathValue("userId", testOwnerID)
	rec := httptest.NewRecorder()

	handler.ListForUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	e := decodeEnvelope(t, rec)
	if items := e.Data.([]any); len(items) != 1 {
		t.Fatalf("listed %d tweets, want 1", len(items))
	}
}

func TestTweetHandlerListForMissingUser(t *testing.T) {
	handler := TweetHandler{Tweets: newFakeTweetStore(), Users: newFakeUserStore()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tweets/user/"+testOwnerID, nil)
	req.SetPathValue("userId", testOwnerID)
	rec := httptest.NewRecorder()

	handler.ListForUser(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestTweetHandlerUpdateOwnership(t *testing.T) {
	tweets := newFakeTweetStore()
	tweets.tweets[testTweetID] = models.Tweet{ID: testTweetID, OwnerID: testOwnerID, Content: "hello"}
	handler := TweetHandler{Tweets: tweets, Users: newFakeUserStore()}

	req := withPrincipal(httptest.NewRequest(http.MethodPatch, "/api/v1/tweets/"+testTweetID, strings.NewReader(`{"content":"hijacked"}`)), models.User{ID: testViewerID})
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("tweetId", testTweetID)
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	req = withPrincipal(httptest.NewRequest(http.MethodPatch, "/api/v1/tweets/"+testTweetID, strings.NewReader(`{"content":"edited"}`)), models.User{ID: testOwnerID})
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("tweetId", testTweetID)
	rec = httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	stored, _ := tweets.FindByID(context.Background(), testTweetID)
	if stored.Content != "edited" {
		t.Errorf("content = %q, want %q", stored.Content, "edited")
	}
}

func TestTweetHandlerDelete(t *testing.T) {
	tweets := newFakeTweetStore()
	tweets.tweets[testTweetID] = models.Tweet{ID: testTweetID, OwnerID: testOwnerID, Content: "hello"}
	handler := TweetHandler{Tweets: tweets, Users: newFakeUserStore()}

	req := withPrincipal(httptest.NewRequest(http.MethodDelete, "/api/v1/tweets/"+testTweetID, nil), models.User{ID: testOwnerID})
	req.SetPathValue("tweetId", testTweetID)
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if _, err := tweets.FindByID(context.Background(), testTweetID); err == nil {
		t.Error("tweet still present after delete")
	}
}
