package caw

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/tailored-agentic-units/caw/kv"
)

// Store keys.
const (
	usersKey        = "users"
	cawsKey         = "caws"
	cawPrefix       = "caw-"
	cawChildrenKey  = "cawchildren-"
	followingPrefix = "ufollowing-"
	followersPrefix = "ufollowers-"
)

// RegisterUser adds a new username to the user list.
func RegisterUser(ctx context.Context, payload json.RawMessage, store kv.Store) (json.RawMessage, error) {
	var req RegisterUserRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if req.Username == "" {
		return nil, fmt.Errorf("%w: username cannot be blank", ErrInvalidArgument)
	}

	exists, err := UserExists(ctx, store, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: user %s", ErrAlreadyExists, req.Username)
	}

	if err := put(ctx, store, usersKey, req.Username); err != nil {
		return nil, err
	}
	return encode(&RegisterUserReply{})
}

// Caw creates a post, optionally as a reply to ParentID. Ids are the count
// of posts stored before this one. The sequence of store writes is not
// atomic: concurrent posts may observe the same count.
func Caw(ctx context.Context, payload json.RawMessage, store kv.Store) (json.RawMessage, error) {
	var req CawRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if req.Username == "" {
		return nil, fmt.Errorf("%w: username cannot be blank", ErrInvalidArgument)
	}
	if req.Text == "" {
		return nil, fmt.Errorf("%w: text cannot be blank", ErrInvalidArgument)
	}

	caws, err := get(ctx, store, cawsKey)
	if err != nil {
		return nil, err
	}
	id := strconv.Itoa(len(caws))

	exists, err := UserExists(ctx, store, req.Username)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: user %s does not exist", ErrFailedPrecondition, req.Username)
	}

	if req.ParentID != "" {
		if !slices.Contains(caws, req.ParentID) {
			return nil, fmt.Errorf("%w: parent %s does not exist", ErrFailedPrecondition, req.ParentID)
		}
		if err := put(ctx, store, cawChildrenKey+req.ParentID, id); err != nil {
			return nil, err
		}
	}

	if err := put(ctx, store, cawsKey, id); err != nil {
		return nil, err
	}

	post := Post{
		Username:  req.Username,
		Text:      req.Text,
		ID:        id,
		ParentID:  req.ParentID,
		Timestamp: NewTimestamp(time.Now()),
	}
	data, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("encode post: %w", err)
	}
	if err := put(ctx, store, cawPrefix+id, string(data)); err != nil {
		return nil, err
	}

	return encode(&CawReply{Caw: post})
}

// Follow records a directed follow edge from Username to ToFollow.
func Follow(ctx context.Context, payload json.RawMessage, store kv.Store) (json.RawMessage, error) {
	var req FollowRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if req.Username == "" || req.ToFollow == "" {
		return nil, fmt.Errorf("%w: username and to_follow cannot be blank", ErrInvalidArgument)
	}

	users, err := get(ctx, store, usersKey)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(users, req.Username) || !slices.Contains(users, req.ToFollow) {
		return nil, fmt.Errorf("%w: at least one of %s, %s does not exist", ErrFailedPrecondition, req.Username, req.ToFollow)
	}
	if req.Username == req.ToFollow {
		return nil, fmt.Errorf("%w: %s cannot follow themself", ErrFailedPrecondition, req.Username)
	}

	following, err := get(ctx, store, followingPrefix+req.Username)
	if err != nil {
		return nil, err
	}
	if slices.Contains(following, req.ToFollow) {
		return nil, fmt.Errorf("%w: %s already follows %s", ErrFailedPrecondition, req.Username, req.ToFollow)
	}

	if err := put(ctx, store, followingPrefix+req.Username, req.ToFollow); err != nil {
		return nil, err
	}
	if err := put(ctx, store, followersPrefix+req.ToFollow, req.Username); err != nil {
		return nil, err
	}
	return encode(&FollowReply{})
}

// Read returns the thread rooted at CawID in pre-order, siblings in creation
// order.
func Read(ctx context.Context, payload json.RawMessage, store kv.Store) (json.RawMessage, error) {
	var req ReadRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if req.CawID == "" {
		return nil, fmt.Errorf("%w: caw_id cannot be blank", ErrInvalidArgument)
	}

	caws, err := get(ctx, store, cawsKey)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(caws, req.CawID) {
		return nil, fmt.Errorf("%w: caw %s", ErrNotFound, req.CawID)
	}

	thread, err := readThread(ctx, store, req.CawID)
	if err != nil {
		return nil, err
	}
	return encode(&ReadReply{Caws: thread})
}

// readThread walks the reply tree with an explicit stack. Children are pushed
// in reverse so the earliest reply is visited first.
func readThread(ctx context.Context, store kv.Store, root string) ([]Post, error) {
	var (
		thread []Post
		stack  = []string{root}
	)

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		post, err := loadPost(ctx, store, id)
		if err != nil {
			return nil, err
		}
		thread = append(thread, post)

		children, err := get(ctx, store, cawChildrenKey+id)
		if err != nil {
			return nil, err
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return thread, nil
}

func loadPost(ctx context.Context, store kv.Store, id string) (Post, error) {
	values, err := get(ctx, store, cawPrefix+id)
	if err != nil {
		return Post{}, err
	}
	if len(values) == 0 {
		return Post{}, fmt.Errorf("%w: caw %s has no stored body", ErrNotFound, id)
	}

	var post Post
	if err := json.Unmarshal([]byte(values[len(values)-1]), &post); err != nil {
		return Post{}, fmt.Errorf("decode caw %s: %w", id, err)
	}
	return post, nil
}

// Profile returns a user's followers and followees, earliest first.
func Profile(ctx context.Context, payload json.RawMessage, store kv.Store) (json.RawMessage, error) {
	var req ProfileRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if req.Username == "" {
		return nil, fmt.Errorf("%w: username cannot be blank", ErrInvalidArgument)
	}

	exists, err := UserExists(ctx, store, req.Username)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, req.Username)
	}

	followers, err := get(ctx, store, followersPrefix+req.Username)
	if err != nil {
		return nil, err
	}
	following, err := get(ctx, store, followingPrefix+req.Username)
	if err != nil {
		return nil, err
	}
	return encode(&ProfileReply{Followers: followers, Following: following})
}

// UserExists reports whether name is a registered user.
func UserExists(ctx context.Context, store kv.Store, name string) (bool, error) {
	users, err := get(ctx, store, usersKey)
	if err != nil {
		return false, err
	}
	return slices.Contains(users, name), nil
}

func get(ctx context.Context, store kv.Store, key string) ([]string, error) {
	values, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return values, nil
}

func put(ctx context.Context, store kv.Store, key, value string) error {
	if err := store.Put(ctx, key, value); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: malformed request: %v", ErrInvalidArgument, err)
	}
	return nil
}

func encode(reply Reply) (json.RawMessage, error) {
	data, err := json.Marshal(reply)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", reply.TypeName(), err)
	}
	return data, nil
}
