package commune

// ParentKind selects which collection a nested post's parent lives in.
type ParentKind string

const (
	// ParentUser routes nested posts to the users collection.
	ParentUser ParentKind = "userlike"

	// ParentGroup routes nested posts to the groups collection.
	ParentGroup ParentKind = "grouplike"
)

// IsValid reports whether the parent kind is one of the two known values.
func (k ParentKind) IsValid() bool {
	return k == ParentUser || k == ParentGroup
}

// Page is a standalone content page addressed by slug.
type Page struct {
	Slug    string `bson:"slug" json:"slug"`
	Title   string `bson:"title" json:"title"`
	Content string `bson:"content" json:"content,omitempty"`
}

// Post is a blog entry. It exists either as a top-level document in the
// posts collection or embedded in a user's or group's posts sequence.
// Date is epoch milliseconds; Excerpt is the markup-stripped prefix of
// Content used by list views.
type Post struct {
	Slug    string `bson:"slug" json:"slug"`
	Title   string `bson:"title" json:"title"`
	Content string `bson:"content" json:"content,omitempty"`
	Date    int64  `bson:"date" json:"date"`
	Excerpt string `bson:"excerpt" json:"excerpt"`
	Author  string `bson:"author,omitempty" json:"author,omitempty"`
}

// User is a profile document. Name is the unique key. Groups holds slugs of
// groups the user belongs to, Friends holds names of befriended users; both
// are mirrored on the other side of the edge (see Service.SetFriend and
// Service.SetMembership).
type User struct {
	Name        string   `bson:"name" json:"name"`
	Description string   `bson:"description" json:"description,omitempty"`
	Img         string   `bson:"img" json:"img,omitempty"`
	Background  string   `bson:"background" json:"background,omitempty"`
	Groups      []string `bson:"groups" json:"groups"`
	Friends     []string `bson:"friends" json:"friends"`
	Posts       []Post   `bson:"posts" json:"posts,omitempty"`
}

// Group is a community document. Slug is the unique key. Users mirrors the
// members' Groups fields and UsersCount tracks len(Users). Owner is always a
// member of Users.
type Group struct {
	Slug        string   `bson:"slug" json:"slug"`
	Name        string   `bson:"name" json:"name"`
	Img         string   `bson:"img" json:"img,omitempty"`
	Background  string   `bson:"background" json:"background,omitempty"`
	Description string   `bson:"description" json:"description,omitempty"`
	Access      string   `bson:"access" json:"access,omitempty"`
	Games       []string `bson:"games" json:"games,omitempty"`
	Owner       string   `bson:"owner" json:"owner"`
	Users       []string `bson:"users" json:"users"`
	UsersCount  int      `bson:"usersCount" json:"usersCount"`
	Posts       []Post   `bson:"posts" json:"posts,omitempty"`
}

// Account is a login credential document. The password is stored and compared
// in plaintext; see Service.Login.
type Account struct {
	Name     string `bson:"name" json:"name"`
	Password string `bson:"password" json:"-"`
}

// LoginResult echoes the account name together with the outcome of a
// credential check. No token or session is issued.
type LoginResult struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
}
