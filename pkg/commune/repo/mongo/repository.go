// Package mongo implements commune.Repository against a MongoDB database.
// Collection names are injected through Collections; nothing is hard-coded.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/commune-dev/commune/pkg/commune"
)

// Collections names the five collections the repository operates on.
type Collections struct {
	Pages    string
	Posts    string
	Users    string
	Groups   string
	Accounts string
}

// DefaultCollections returns the conventional collection names.
func DefaultCollections() Collections {
	return Collections{
		Pages:    "pages",
		Posts:    "posts",
		Users:    "users",
		Groups:   "groups",
		Accounts: "accounts",
	}
}

// Repository implements commune.Repository using MongoDB
type Repository struct {
	db     *mongo.Database
	cols   Collections
	client *mongo.Client
}

// New creates a new MongoDB repository on an already connected database
// handle. The caller owns the client lifecycle; Close is a no-op.
func New(db *mongo.Database, cols Collections) *Repository {
	return &Repository{db: db, cols: cols}
}

// Connect dials MongoDB and pings it so readiness is established before any
// request is accepted. The returned repository owns the client; call Close
// on shutdown.
func Connect(ctx context.Context, uri, dbName string, cols Collections) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	repo := New(client.Database(dbName), cols)
	repo.client = client
	return repo, nil
}

// Close disconnects the underlying client when the repository owns it.
func (r *Repository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}

func storeErr(collection, op string, err error) error {
	return &commune.StoreError{Collection: collection, Op: op, Err: err}
}

// parentCollection resolves the nested post discriminator to a collection
// and the field holding the parent's unique key.
func (r *Repository) parentCollection(kind commune.ParentKind) (string, string, error) {
	switch kind {
	case commune.ParentUser:
		return r.cols.Users, "name", nil
	case commune.ParentGroup:
		return r.cols.Groups, "slug", nil
	}
	return "", "", commune.ErrInvalidParentKind
}

// Page operations

func (r *Repository) CountPagesByTitle(ctx context.Context, title string) (int64, error) {
	n, err := r.db.Collection(r.cols.Pages).CountDocuments(ctx, bson.M{"title": title})
	if err != nil {
		return 0, storeErr(r.cols.Pages, "count", err)
	}
	return n, nil
}

func (r *Repository) InsertPage(ctx context.Context, page *commune.Page) error {
	if _, err := r.db.Collection(r.cols.Pages).InsertOne(ctx, page); err != nil {
		return storeErr(r.cols.Pages, "insert", err)
	}
	return nil
}

func (r *Repository) ListPages(ctx context.Context) ([]*commune.Page, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "content": 0}).
		SetSort(bson.D{{Key: "slug", Value: 1}})
	cur, err := r.db.Collection(r.cols.Pages).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr(r.cols.Pages, "find", err)
	}
	var pages []*commune.Page
	if err := cur.All(ctx, &pages); err != nil {
		return nil, storeErr(r.cols.Pages, "decode", err)
	}
	if pages == nil {
		pages = []*commune.Page{}
	}
	return pages, nil
}

func (r *Repository) GetPage(ctx context.Context, slug string) (*commune.Page, error) {
	var page commune.Page
	err := r.db.Collection(r.cols.Pages).
		FindOne(ctx, bson.M{"slug": slug}, options.FindOne().SetProjection(bson.M{"_id": 0})).
		Decode(&page)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, commune.ErrPageNotFound
	}
	if err != nil {
		return nil, storeErr(r.cols.Pages, "findOne", err)
	}
	return &page, nil
}

func (r *Repository) ReplacePage(ctx context.Context, slug string, page *commune.Page) error {
	// A rename onto another page's slug would leave two documents answering
	// to the same key; refuse it up front.
	if page.Slug != slug {
		n, err := r.db.Collection(r.cols.Pages).CountDocuments(ctx, bson.M{"slug": page.Slug})
		if err != nil {
			return storeErr(r.cols.Pages, "count", err)
		}
		if n > 0 {
			return commune.ErrPageExists
		}
	}
	res := r.db.Collection(r.cols.Pages).FindOneAndUpdate(ctx,
		bson.M{"slug": slug},
		bson.M{"$set": bson.M{"slug": page.Slug, "title": page.Title, "content": page.Content}},
	)
	if errors.Is(res.Err(), mongo.ErrNoDocuments) {
		return commune.ErrPageNotFound
	}
	if res.Err() != nil {
		return storeErr(r.cols.Pages, "findOneAndUpdate", res.Err())
	}
	return nil
}

func (r *Repository) DeletePage(ctx context.Context, slug string) error {
	if _, err := r.db.Collection(r.cols.Pages).DeleteOne(ctx, bson.M{"slug": slug}); err != nil {
		return storeErr(r.cols.Pages, "deleteOne", err)
	}
	return nil
}

// Post operations

func (r *Repository) CountPostsByTitle(ctx context.Context, title string) (int64, error) {
	n, err := r.db.Collection(r.cols.Posts).CountDocuments(ctx, bson.M{"title": title})
	if err != nil {
		return 0, storeErr(r.cols.Posts, "count", err)
	}
	return n, nil
}

func (r *Repository) InsertPost(ctx context.Context, post *commune.Post) error {
	if _, err := r.db.Collection(r.cols.Posts).InsertOne(ctx, post); err != nil {
		return storeErr(r.cols.Posts, "insert", err)
	}
	return nil
}

func (r *Repository) ListPosts(ctx context.Context) ([]*commune.Post, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "content": 0}).
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "slug", Value: 1}})
	cur, err := r.db.Collection(r.cols.Posts).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr(r.cols.Posts, "find", err)
	}
	var posts []*commune.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, storeErr(r.cols.Posts, "decode", err)
	}
	if posts == nil {
		posts = []*commune.Post{}
	}
	return posts, nil
}

func (r *Repository) GetPost(ctx context.Context, slug string) (*commune.Post, error) {
	var post commune.Post
	err := r.db.Collection(r.cols.Posts).
		FindOne(ctx, bson.M{"slug": slug}, options.FindOne().SetProjection(bson.M{"_id": 0})).
		Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, commune.ErrPostNotFound
	}
	if err != nil {
		return nil, storeErr(r.cols.Posts, "findOne", err)
	}
	return &post, nil
}

func (r *Repository) ReplacePost(ctx context.Context, slug string, post *commune.Post) error {
	if post.Slug != slug {
		n, err := r.db.Collection(r.cols.Posts).CountDocuments(ctx, bson.M{"slug": post.Slug})
		if err != nil {
			return storeErr(r.cols.Posts, "count", err)
		}
		if n > 0 {
			return commune.ErrPostExists
		}
	}
	res := r.db.Collection(r.cols.Posts).FindOneAndUpdate(ctx,
		bson.M{"slug": slug},
		bson.M{"$set": bson.M{
			"slug":    post.Slug,
			"title":   post.Title,
			"content": post.Content,
			"excerpt": post.Excerpt,
		}},
	)
	if errors.Is(res.Err(), mongo.ErrNoDocuments) {
		return commune.ErrPostNotFound
	}
	if res.Err() != nil {
		return storeErr(r.cols.Posts, "findOneAndUpdate", res.Err())
	}
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, slug string) error {
	if _, err := r.db.Collection(r.cols.Posts).DeleteOne(ctx, bson.M{"slug": slug}); err != nil {
		return storeErr(r.cols.Posts, "deleteOne", err)
	}
	return nil
}

// Nested post operations

func (r *Repository) CountNestedPostsByTitle(ctx context.Context, kind commune.ParentKind, parentKey, title string) (int64, error) {
	col, keyField, err := r.parentCollection(kind)
	if err != nil {
		return 0, err
	}
	// Count matching embedded posts, not matching parents: a document-level
	// count over the parent collection could never exceed one and the
	// collision suffix would never fire.
	cur, err := r.db.Collection(col).Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{keyField: parentKey}}},
		bson.D{{Key: "$unwind", Value: "$posts"}},
		bson.D{{Key: "$match", Value: bson.M{"posts.title": title}}},
		bson.D{{Key: "$count", Value: "n"}},
	})
	if err != nil {
		return 0, storeErr(col, "aggregate", err)
	}
	var out []struct {
		N int64 `bson:"n"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, storeErr(col, "decode", err)
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].N, nil
}

func (r *Repository) PushNestedPost(ctx context.Context, kind commune.ParentKind, parentKey string, post *commune.Post) error {
	col, keyField, err := r.parentCollection(kind)
	if err != nil {
		return err
	}
	res, err := r.db.Collection(col).UpdateOne(ctx,
		bson.M{keyField: parentKey},
		bson.M{"$push": bson.M{"posts": post}},
	)
	if err != nil {
		return storeErr(col, "updateOne", err)
	}
	if res.MatchedCount == 0 {
		return r.parentNotFound(kind)
	}
	return nil
}

func (r *Repository) GetNestedPost(ctx context.Context, kind commune.ParentKind, parentKey, slug string) (*commune.Post, error) {
	col, keyField, err := r.parentCollection(kind)
	if err != nil {
		return nil, err
	}
	// Positional projection pulls out just the matching array element, so
	// the lookup never ships the whole posts sequence over the wire.
	var doc struct {
		Posts []commune.Post `bson:"posts"`
	}
	findErr := r.db.Collection(col).
		FindOne(ctx,
			bson.M{keyField: parentKey, "posts.slug": slug},
			options.FindOne().SetProjection(bson.M{"posts.$": 1}),
		).
		Decode(&doc)
	if errors.Is(findErr, mongo.ErrNoDocuments) {
		return nil, commune.ErrPostNotFound
	}
	if findErr != nil {
		return nil, storeErr(col, "findOne", findErr)
	}
	if len(doc.Posts) == 0 {
		return nil, commune.ErrPostNotFound
	}
	return &doc.Posts[0], nil
}

func (r *Repository) ListNestedPosts(ctx context.Context, kind commune.ParentKind, parentKey string) ([]commune.Post, error) {
	col, keyField, err := r.parentCollection(kind)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Posts []commune.Post `bson:"posts"`
	}
	findErr := r.db.Collection(col).
		FindOne(ctx,
			bson.M{keyField: parentKey},
			options.FindOne().SetProjection(bson.M{"posts": 1}),
		).
		Decode(&doc)
	if errors.Is(findErr, mongo.ErrNoDocuments) {
		return nil, r.parentNotFound(kind)
	}
	if findErr != nil {
		return nil, storeErr(col, "findOne", findErr)
	}
	if doc.Posts == nil {
		doc.Posts = []commune.Post{}
	}
	return doc.Posts, nil
}

func (r *Repository) parentNotFound(kind commune.ParentKind) error {
	if kind == commune.ParentGroup {
		return commune.ErrGroupNotFound
	}
	return commune.ErrUserNotFound
}

// User operations

func (r *Repository) InsertUser(ctx context.Context, user *commune.User) error {
	if _, err := r.db.Collection(r.cols.Users).InsertOne(ctx, user); err != nil {
		return storeErr(r.cols.Users, "insert", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, name string) (*commune.User, error) {
	var user commune.User
	err := r.db.Collection(r.cols.Users).
		FindOne(ctx, bson.M{"name": name}, options.FindOne().SetProjection(bson.M{"_id": 0})).
		Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, commune.ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(r.cols.Users, "findOne", err)
	}
	return &user, nil
}

func (r *Repository) UpdateUserProfile(ctx context.Context, name string, patch commune.UserPatch) error {
	set := bson.M{}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Img != nil {
		set["img"] = *patch.Img
	}
	if patch.Background != nil {
		set["background"] = *patch.Background
	}
	if len(set) == 0 {
		return nil
	}
	res, err := r.db.Collection(r.cols.Users).UpdateOne(ctx, bson.M{"name": name}, bson.M{"$set": set})
	if err != nil {
		return storeErr(r.cols.Users, "updateOne", err)
	}
	if res.MatchedCount == 0 {
		return commune.ErrUserNotFound
	}
	return nil
}

func (r *Repository) UsersByName(ctx context.Context, names []string) ([]*commune.User, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "posts": 0}).
		SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := r.db.Collection(r.cols.Users).Find(ctx, bson.M{"name": bson.M{"$in": names}}, opts)
	if err != nil {
		return nil, storeErr(r.cols.Users, "find", err)
	}
	var users []*commune.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, storeErr(r.cols.Users, "decode", err)
	}
	if users == nil {
		users = []*commune.User{}
	}
	return users, nil
}

func (r *Repository) userArrayOp(ctx context.Context, name, op, field, value string) error {
	res, err := r.db.Collection(r.cols.Users).UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{op: bson.M{field: value}},
	)
	if err != nil {
		return storeErr(r.cols.Users, "updateOne", err)
	}
	if res.MatchedCount == 0 {
		return commune.ErrUserNotFound
	}
	return nil
}

// Friends and groups are sets, so additions use $addToSet rather than $push.

func (r *Repository) PushFriend(ctx context.Context, owner, friend string) error {
	return r.userArrayOp(ctx, owner, "$addToSet", "friends", friend)
}

func (r *Repository) PullFriend(ctx context.Context, owner, friend string) error {
	return r.userArrayOp(ctx, owner, "$pull", "friends", friend)
}

func (r *Repository) PushUserGroup(ctx context.Context, name, groupSlug string) error {
	return r.userArrayOp(ctx, name, "$addToSet", "groups", groupSlug)
}

func (r *Repository) PullUserGroup(ctx context.Context, name, groupSlug string) error {
	return r.userArrayOp(ctx, name, "$pull", "groups", groupSlug)
}

// Group operations

func (r *Repository) InsertGroup(ctx context.Context, group *commune.Group) error {
	// Count-then-insert; the group slug is the unique key and a duplicate is
	// a conflict, not a collision to suffix.
	n, err := r.db.Collection(r.cols.Groups).CountDocuments(ctx, bson.M{"slug": group.Slug})
	if err != nil {
		return storeErr(r.cols.Groups, "count", err)
	}
	if n > 0 {
		return commune.ErrGroupExists
	}
	if _, err := r.db.Collection(r.cols.Groups).InsertOne(ctx, group); err != nil {
		return storeErr(r.cols.Groups, "insert", err)
	}
	return nil
}

func (r *Repository) ListGroups(ctx context.Context) ([]*commune.Group, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "posts": 0}).
		SetSort(bson.D{{Key: "slug", Value: 1}})
	cur, err := r.db.Collection(r.cols.Groups).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr(r.cols.Groups, "find", err)
	}
	var groups []*commune.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, storeErr(r.cols.Groups, "decode", err)
	}
	if groups == nil {
		groups = []*commune.Group{}
	}
	return groups, nil
}

func (r *Repository) GetGroup(ctx context.Context, slug string) (*commune.Group, error) {
	var group commune.Group
	err := r.db.Collection(r.cols.Groups).
		FindOne(ctx, bson.M{"slug": slug}, options.FindOne().SetProjection(bson.M{"_id": 0})).
		Decode(&group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, commune.ErrGroupNotFound
	}
	if err != nil {
		return nil, storeErr(r.cols.Groups, "findOne", err)
	}
	return &group, nil
}

func (r *Repository) UpdateGroupProfile(ctx context.Context, slug string, patch commune.GroupPatch) error {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Img != nil {
		set["img"] = *patch.Img
	}
	if patch.Background != nil {
		set["background"] = *patch.Background
	}
	if patch.Access != nil {
		set["access"] = *patch.Access
	}
	if patch.Games != nil {
		set["games"] = patch.Games
	}
	if len(set) == 0 {
		return nil
	}
	res, err := r.db.Collection(r.cols.Groups).UpdateOne(ctx, bson.M{"slug": slug}, bson.M{"$set": set})
	if err != nil {
		return storeErr(r.cols.Groups, "updateOne", err)
	}
	if res.MatchedCount == 0 {
		return commune.ErrGroupNotFound
	}
	return nil
}

func (r *Repository) DeleteGroup(ctx context.Context, slug string) error {
	if _, err := r.db.Collection(r.cols.Groups).DeleteOne(ctx, bson.M{"slug": slug}); err != nil {
		return storeErr(r.cols.Groups, "deleteOne", err)
	}
	return nil
}

func (r *Repository) GroupsBySlug(ctx context.Context, slugs []string, member bool) ([]*commune.Group, error) {
	op := "$in"
	if !member {
		op = "$nin"
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "posts": 0}).
		SetSort(bson.D{{Key: "slug", Value: 1}})
	cur, err := r.db.Collection(r.cols.Groups).Find(ctx, bson.M{"slug": bson.M{op: slugs}}, opts)
	if err != nil {
		return nil, storeErr(r.cols.Groups, "find", err)
	}
	var groups []*commune.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, storeErr(r.cols.Groups, "decode", err)
	}
	if groups == nil {
		groups = []*commune.Group{}
	}
	return groups, nil
}

// AddGroupMember mutates the member set and the usersCount counter in one
// single-document update so they cannot drift apart. The filter excludes
// groups that already hold the member, keeping the $inc from double
// counting a repeated add.
func (r *Repository) AddGroupMember(ctx context.Context, slug, userName string) error {
	res, err := r.db.Collection(r.cols.Groups).UpdateOne(ctx,
		bson.M{"slug": slug, "users": bson.M{"$ne": userName}},
		bson.M{
			"$push": bson.M{"users": userName},
			"$inc":  bson.M{"usersCount": 1},
		},
	)
	if err != nil {
		return storeErr(r.cols.Groups, "updateOne", err)
	}
	if res.MatchedCount == 0 {
		// Either the group is missing or the user is already a member;
		// disambiguate for the caller.
		n, countErr := r.db.Collection(r.cols.Groups).CountDocuments(ctx, bson.M{"slug": slug})
		if countErr != nil {
			return storeErr(r.cols.Groups, "count", countErr)
		}
		if n == 0 {
			return commune.ErrGroupNotFound
		}
	}
	return nil
}

// RemoveGroupMember is the inverse of AddGroupMember; the filter requires
// current membership so the decrement only fires when a user is pulled.
func (r *Repository) RemoveGroupMember(ctx context.Context, slug, userName string) error {
	res, err := r.db.Collection(r.cols.Groups).UpdateOne(ctx,
		bson.M{"slug": slug, "users": userName},
		bson.M{
			"$pull": bson.M{"users": userName},
			"$inc":  bson.M{"usersCount": -1},
		},
	)
	if err != nil {
		return storeErr(r.cols.Groups, "updateOne", err)
	}
	if res.MatchedCount == 0 {
		n, countErr := r.db.Collection(r.cols.Groups).CountDocuments(ctx, bson.M{"slug": slug})
		if countErr != nil {
			return storeErr(r.cols.Groups, "count", countErr)
		}
		if n == 0 {
			return commune.ErrGroupNotFound
		}
	}
	return nil
}

// Account operations

func (r *Repository) InsertAccount(ctx context.Context, account *commune.Account) error {
	if _, err := r.db.Collection(r.cols.Accounts).InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return commune.ErrNameTaken
		}
		return storeErr(r.cols.Accounts, "insert", err)
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, name string) (*commune.Account, error) {
	var account commune.Account
	err := r.db.Collection(r.cols.Accounts).
		FindOne(ctx, bson.M{"name": name}, options.FindOne().SetProjection(bson.M{"_id": 0})).
		Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, commune.ErrAccountNotFound
	}
	if err != nil {
		return nil, storeErr(r.cols.Accounts, "findOne", err)
	}
	return &account, nil
}

func (r *Repository) CountAccountsByName(ctx context.Context, name string) (int64, error) {
	n, err := r.db.Collection(r.cols.Accounts).CountDocuments(ctx, bson.M{"name": name})
	if err != nil {
		return 0, storeErr(r.cols.Accounts, "count", err)
	}
	return n, nil
}

func (r *Repository) DeleteAccount(ctx context.Context, name string) error {
	if _, err := r.db.Collection(r.cols.Accounts).DeleteOne(ctx, bson.M{"name": name}); err != nil {
		return storeErr(r.cols.Accounts, "deleteOne", err)
	}
	return nil
}
