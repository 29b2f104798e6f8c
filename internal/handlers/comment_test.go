package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/bugbridge-dev/bugbridge/internal/handlers"
)

func TestCommentsOldestFirst(t *testing.T) {
	setupTestDB(t)
	r := newTestRouter()

	owner := createTestUser(t, "Uma", "uma@example.com")
	member := createTestUser(t, "Mel", "mel@example.com")
	project := seedProject(t, owner, "Sprint1")
	seedMembership(t, project, member)
	task := seedTask(t, project, "Fix crash", "High")

	for i, text := range []string{"first", "second", "third"} {
		actor := owner
		if i%2 == 1 {
			actor = member
		}

		w := doRequest(t, r, http.MethodPost, "/api/comments", tokenFor(t, actor), map[string]interface{}{
			"text":    text,
			"task_id": task.ID,
		})

		if w.Code != http.StatusCreated {
			t.Fatalf("create comment %q = %d, body %s", text, w.Code, w.Body.String())
		}
	}

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/comments/%d", task.ID), tokenFor(t, member), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("list comments = %d, body %s", w.Code, w.Body.String())
	}

	var comments []handlers.CommentResponse
	decodeJSON(t, w, &comments)

	if len(comments) != 3 {
		t.Fatalf("comments = %d, want 3", len(comments))
	}

	// Thread order, not the newest-first order tasks and projects use.
	if comments[0].Text != "first" || comments[2].Text != "third" {
		t.Fatalf("comment order = %q .. %q, want first .. third", comments[0].Text, comments[2].Text)
	}

	if comments[1].User.Email != member.Email {
		t.Fatalf("comment author = %+v, want %s", comments[1].User, member.Email)
	}
}

func TestCommentRequiresProjectAccess(t *testing.T) {
	setupTestDB(t)
	r := newTestRouter()

	owner := createTestUser(t, "Uma", "uma@example.com")
	stranger := createTestUser(t, "Sam", "sam@example.com")
	project := seedProject(t, owner, "Sprint1")
	task := seedTask(t, project, "Fix crash", "High")

	w := doRequest(t, r, http.MethodPost, "/api/comments", tokenFor(t, stranger), map[string]interface{}{
		"text":    "drive-by",
		"task_id": task.ID,
	})

	if w.Code != http.StatusForbidden || errorCode(t, w) != "NOT_AUTHORIZED" {
		t.Fatalf("stranger comment = %d %s, want 403 NOT_AUTHORIZED", w.Code, w.Body.String())
	}

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/comments/%d", task.ID), tokenFor(t, stranger), nil)

	if w.Code != http.StatusForbidden {
		t.Fatalf("stranger list = %d, want 403", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/api/comments", tokenFor(t, owner), map[string]interface{}{
		"task_id": task.ID,
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty text = %d, want 400", w.Code)
	}
}
