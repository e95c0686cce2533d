package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseRepo(t *testing.T) {
	tests := []struct {
		input     string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"octo/cli", "octo", "cli", false},
		{" octo/cli ", "octo", "cli", false},
		{"octo", "", "", true},
		{"octo/cli/extra", "", "", true},
		{"/cli", "", "", true},
		{"octo/", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		owner, repo, err := ParseRepo(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRepo(%q): expected error, got none", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRepo(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if owner != tt.wantOwner || repo != tt.wantRepo {
			t.Errorf("ParseRepo(%q) = %q, %q; want %q, %q", tt.input, owner, repo, tt.wantOwner, tt.wantRepo)
		}
	}
}

func TestGetReleaseLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/cli/releases/latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{
			"tag_name": "v1.2.3",
			"name": "v1.2.3",
			"draft": false,
			"prerelease": false,
			"published_at": "2024-05-01T12:00:00Z",
			"assets": [
				{"name": "cli-linux-x86_64.tar.gz", "browser_download_url": "https://example.com/a", "size": 1024, "content_type": "application/gzip"}
			]
		}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("", srv.URL)
	rel, err := c.GetRelease(context.Background(), "octo", "cli", "")
	if err != nil {
		t.Fatalf("GetRelease: %v", err)
	}
	if rel.TagName != "v1.2.3" {
		t.Errorf("TagName = %q, want v1.2.3", rel.TagName)
	}
	if len(rel.Assets) != 1 || rel.Assets[0].Name != "cli-linux-x86_64.tar.gz" {
		t.Errorf("unexpected assets: %+v", rel.Assets)
	}
	if rel.Assets[0].Size != 1024 {
		t.Errorf("asset size = %d, want 1024", rel.Assets[0].Size)
	}
}

func TestGetReleaseByTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/cli/releases/tags/v0.9.0" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"tag_name": "v0.9.0", "assets": []}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("", srv.URL)
	rel, err := c.GetRelease(context.Background(), "octo", "cli", "v0.9.0")
	if err != nil {
		t.Fatalf("GetRelease: %v", err)
	}
	if rel.TagName != "v0.9.0" {
		t.Errorf("TagName = %q, want v0.9.0", rel.TagName)
	}
}

func TestGetReleaseNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("", srv.URL)
	_, err := c.GetRelease(context.Background(), "octo", "missing", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetReleaseRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("", srv.URL)
	_, err := c.GetRelease(context.Background(), "octo", "cli", "")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestListReleasesSkipsDrafts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if page := r.URL.Query().Get("page"); page != "1" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[
			{"tag_name": "v2.0.0", "draft": false},
			{"tag_name": "v2.0.0-rc1", "draft": true},
			{"tag_name": "v1.0.0", "draft": false}
		]`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("", srv.URL)
	releases, err := c.ListReleases(context.Background(), "octo", "cli")
	if err != nil {
		t.Fatalf("ListReleases: %v", err)
	}
	if len(releases) != 2 {
		t.Fatalf("expected 2 releases, got %d", len(releases))
	}
	if releases[0].TagName != "v2.0.0" || releases[1].TagName != "v1.0.0" {
		t.Errorf("unexpected order: %+v", releases)
	}
}

func TestAuthorizationHeaderForwarded(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"tag_name": "v1.0.0", "assets": []}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("s3cret", srv.URL)
	if _, err := c.GetRelease(context.Background(), "octo", "cli", ""); err != nil {
		t.Fatalf("GetRelease: %v", err)
	}
	if gotAuth != "Bearer s3cret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer s3cret")
	}
}
