package commune

// CreatePageRequest contains parameters for creating a page. The slug is
// derived from the title at creation time.
type CreatePageRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdatePageRequest contains the full replacement payload for a page. The
// slug is recomputed from the new title.
type UpdatePageRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreatePostRequest contains parameters for creating a post, either
// top-level or nested. Date and excerpt are computed at creation time.
type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author,omitempty"`
}

// UpdatePostRequest contains the full replacement payload for a post. Slug
// and excerpt are recomputed from the new title and content.
type UpdatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UserPatch is a partial profile update; nil fields are left untouched.
type UserPatch struct {
	Description *string `json:"description,omitempty"`
	Img         *string `json:"img,omitempty"`
	Background  *string `json:"background,omitempty"`
}

// GroupPatch is a partial group profile update; nil fields are left
// untouched.
type GroupPatch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Img         *string  `json:"img,omitempty"`
	Background  *string  `json:"background,omitempty"`
	Access      *string  `json:"access,omitempty"`
	Games       []string `json:"games,omitempty"`
}

// CreateGroupRequest contains parameters for creating a group. The slug is
// derived from the name; creation fails with ErrGroupExists when the slug is
// already used.
type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Owner       string   `json:"owner"`
	Description string   `json:"description,omitempty"`
	Img         string   `json:"img,omitempty"`
	Background  string   `json:"background,omitempty"`
	Access      string   `json:"access,omitempty"`
	Games       []string `json:"games,omitempty"`
}

// RegisterRequest contains parameters for account registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}
