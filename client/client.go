// Package client is a typed Go client for the sharehub API together with the view models
// a front end renders from its responses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/cppla/sharehub/models"
)

// ErrLoginRequired is returned by Session.Require when nobody is logged in.
var ErrLoginRequired = errors.New("please login to continue")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// Session holds the token and identity of the logged-in user. It replaces the
// token and user a browser front end would keep in local storage.
type Session struct {
	Token string
	User  *User
}

// Authenticated reports whether the session carries a token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Require returns ErrLoginRequired when the session is not authenticated.
func (s *Session) Require() error {
	if !s.Authenticated() {
		return ErrLoginRequired
	}
	return nil
}

// Clear forgets the token and user.
func (s *Session) Clear() {
	if s == nil {
		return
	}
	s.Token = ""
	s.User = nil
}

// User is the identity returned by auth endpoints.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profilePicture"`
	Bookmarks      []string  `json:"bookmarks,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PostPage is a page of the post listing.
type PostPage struct {
	Posts       []*models.Post `json:"posts"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	Total       int64          `json:"total"`
}

// Profile is a public profile with its posts.
type Profile struct {
	User  User           `json:"user"`
	Posts []*models.Post `json:"posts"`
}

// Stats are the public site counters.
type Stats struct {
	UserCount    int64 `json:"userCount"`
	PostCount    int64 `json:"postCount"`
	CommentCount int64 `json:"commentCount"`
}

// File is an attachment sent with a multipart request.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewPost is the content of a post to create.
type NewPost struct {
	Title       string
	Description string
	Content     string
	Category    string
	Tags        []string
	Media       []File
}

// PostUpdate carries the editable fields of a post; nil fields are left unchanged.
type PostUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Content     *string   `json:"content,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Client talks to one API base URL, for example http://localhost:5000/api.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, s *Session, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Message
			apiErr.Detail = payload.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = "Request failed"
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decode response")
}

func (c *Client) doJSON(ctx context.Context, s *Session, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, s, method, path, body, contentType, out)
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Register creates an account and returns a logged-in session.
func (c *Client) Register(ctx context.Context, username, email, password string) (*Session, error) {
	var out authResponse
	err := c.doJSON(ctx, nil, http.MethodPost, "/auth/register", map[string]string{
		"username": username, "email": email, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &Session{Token: out.Token, User: &out.User}, nil
}

// Login returns a logged-in session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out authResponse
	err := c.doJSON(ctx, nil, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &Session{Token: out.Token, User: &out.User}, nil
}

// Me refreshes the session user from the server.
func (c *Client) Me(ctx context.Context, s *Session) (*User, error) {
	if err := s.Require(); err != nil {
		return nil, err
	}
	var out struct {
		User User `json:"user"`
	}
	if err := c.doJSON(ctx, s, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	s.User = &out.User
	return &out.User, nil
}

// Logout revokes the token on the server and clears the session.
func (c *Client) Logout(ctx context.Context, s *Session) error {
	if !s.Authenticated() {
		return nil
	}
	err := c.doJSON(ctx, s, http.MethodPost, "/auth/logout", nil, nil)
	s.Clear()
	return err
}

// ListPosts fetches one page of the newest-first listing.
func (c *Client) ListPosts(ctx context.Context, page, limit int) (*PostPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	var out PostPage
	if err := c.doJSON(ctx, nil, http.MethodGet, "/posts?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPost fetches one post. Every call counts a view.
func (c *Client) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var out struct {
		Post *models.Post `json:"post"`
	}
	if err := c.doJSON(ctx, nil, http.MethodGet, "/posts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Post, nil
}

// CreatePost uploads a post with its media as a multipart form.
func (c *Client) CreatePost(ctx context.Context, s *Session, p NewPost) (*models.Post, error) {
	if err := s.Require(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return nil, errors.Wrap(err, "encode tags")
	}
	fields := map[string]string{
		"title":       p.Title,
		"description": p.Description,
		"content":     p.Content,
		"category":    p.Category,
		"tags":        string(tags),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, errors.Wrap(err, "write field")
		}
	}
	for _, f := range p.Media {
		if err := writeFile(w, "media", f); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart")
	}

	var out struct {
		Post *models.Post `json:"post"`
	}
	if err := c.do(ctx, s, http.MethodPost, "/posts", &buf, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return out.Post, nil
}

func writeFile(w *multipart.Writer, field string, f File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, strings.ReplaceAll(f.Name, `"`, "")))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return errors.Wrap(err, "create part")
	}
	_, err = part.Write(f.Data)
	return errors.Wrap(err, "write part")
}

// UpdatePost edits a post owned by the session user.
func (c *Client) UpdatePost(ctx context.Context, s *Session, id string, u PostUpdate) (*models.Post, error) {
	if err := s.Require(); err != nil {
		return nil, err
	}
	var out struct {
		Post *models.Post `json:"post"`
	}
	if err := c.doJSON(ctx, s, http.MethodPut, "/posts/"+url.PathEscape(id), u, &out); err != nil {
		return nil, err
	}
	return out.Post, nil
}

// DeletePost deletes a post owned by the session user.
func (c *Client) DeletePost(ctx context.Context, s *Session, id string) error {
	if err := s.Require(); err != nil {
		return err
	}
	return c.doJSON(ctx, s, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil)
}

// TogglePostLike likes or unlikes a post.
func (c *Client) TogglePostLike(ctx context.Context, s *Session, id string) (*models.Post, bool, error) {
	if err := s.Require(); err != nil {
		return nil, false, err
	}
	var out struct {
		Post  *models.Post `json:"post"`
		Liked bool         `json:"liked"`
	}
	if err := c.doJSON(ctx, s, http.MethodPost, "/posts/"+url.PathEscape(id)+"/like", nil, &out); err != nil {
		return nil, false, err
	}
	return out.Post, out.Liked, nil
}

// SearchPosts runs a text and/or category search.
func (c *Client) SearchPosts(ctx context.Context, query, category string) ([]*models.Post, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	if category != "" {
		q.Set("category", category)
	}
	var out struct {
		Posts []*models.Post `json:"posts"`
	}
	if err := c.doJSON(ctx, nil, http.MethodGet, "/posts/search/query?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// ListComments fetches a post's comments, newest first.
func (c *Client) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	var out struct {
		Comments []*models.Comment `json:"comments"`
	}
	if err := c.doJSON(ctx, nil, http.MethodGet, "/comments/post/"+url.PathEscape(postID), nil, &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

// CreateComment comments on a post.
func (c *Client) CreateComment(ctx context.Context, s *Session, postID, text string) (*models.Comment, error) {
	if err := s.Require(); err != nil {
		return nil, err
	}
	var out struct {
		Comment *models.Comment `json:"comment"`
	}
	in := map[string]string{"postId": postID, "text": text}
	if err := c.doJSON(ctx, s, http.MethodPost, "/comments", in, &out); err != nil {
		return nil, err
	}
	return out.Comment, nil
}

// DeleteComment deletes a comment written by the session user.
func (c *Client) DeleteComment(ctx context.Context, s *Session, id string) error {
	if err := s.Require(); err != nil {
		return err
	}
	return c.doJSON(ctx, s, http.MethodDelete, "/comments/"+url.PathEscape(id), nil, nil)
}

// ToggleCommentLike likes or unlikes a comment.
func (c *Client) ToggleCommentLike(ctx context.Context, s *Session, id string) (*models.Comment, bool, error) {
	if err := s.Require(); err != nil {
		return nil, false, err
	}
	var out struct {
		Comment *models.Comment `json:"comment"`
		Liked   bool            `json:"liked"`
	}
	if err := c.doJSON(ctx, s, http.MethodPost, "/comments/"+url.PathEscape(id)+"/like", nil, &out); err != nil {
		return nil, false, err
	}
	return out.Comment, out.Liked, nil
}

// GetProfile fetches a public profile.
func (c *Client) GetProfile(ctx context.Context, username string) (*Profile, error) {
	var out Profile
	if err := c.doJSON(ctx, nil, http.MethodGet, "/users/"+url.PathEscape(username), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBio changes the session user's bio.
func (c *Client) UpdateBio(ctx context.Context, s *Session, bio string) error {
	if err := s.Require(); err != nil {
		return err
	}
	var out struct {
		User User `json:"user"`
	}
	if err := c.doJSON(ctx, s, http.MethodPut, "/users/profile", map[string]string{"bio": bio}, &out); err != nil {
		return err
	}
	if s.User != nil {
		s.User.Bio = out.User.Bio
	}
	return nil
}

// UploadProfilePicture replaces the session user's picture and returns its URL.
func (c *Client) UploadProfilePicture(ctx context.Context, s *Session, f File) (string, error) {
	if err := s.Require(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := writeFile(w, "profilePicture", f); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "close multipart")
	}
	var out struct {
		ProfilePicture string `json:"profilePicture"`
	}
	if err := c.do(ctx, s, http.MethodPost, "/users/profile/picture", &buf, w.FormDataContentType(), &out); err != nil {
		return "", err
	}
	if s.User != nil {
		s.User.ProfilePicture = out.ProfilePicture
	}
	return out.ProfilePicture, nil
}

// ToggleBookmark adds or removes a bookmark.
func (c *Client) ToggleBookmark(ctx context.Context, s *Session, postID string) (bool, error) {
	if err := s.Require(); err != nil {
		return false, err
	}
	var out struct {
		Bookmarked bool `json:"bookmarked"`
	}
	if err := c.doJSON(ctx, s, http.MethodPost, "/users/bookmark/"+url.PathEscape(postID), nil, &out); err != nil {
		return false, err
	}
	return out.Bookmarked, nil
}

// Bookmarks lists the session user's bookmarked posts.
func (c *Client) Bookmarks(ctx context.Context, s *Session) ([]*models.Post, error) {
	if err := s.Require(); err != nil {
		return nil, err
	}
	var out struct {
		Bookmarks []*models.Post `json:"bookmarks"`
	}
	if err := c.doJSON(ctx, s, http.MethodGet, "/users/bookmarks/all", nil, &out); err != nil {
		return nil, err
	}
	return out.Bookmarks, nil
}

// Stats fetches the public site counters.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.doJSON(ctx, nil, http.MethodGet, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
