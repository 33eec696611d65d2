// Package caw implements the business handlers of the caw service: user
// registration, posting, following, thread reads and profiles. Handlers are
// plain functions of a JSON payload and a kv.Store, registered by name in an
// owned Registry.
package caw

import (
	"fmt"
	"time"
)

// Timestamp is a wall-clock instant with microsecond resolution.
type Timestamp struct {
	Seconds  int64 `json:"seconds"`
	Useconds int64 `json:"useconds"`
}

// NewTimestamp converts t to a Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Useconds: int64(t.Nanosecond() / 1000)}
}

// Time converts ts back to a time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, ts.Useconds*1000)
}

// Post is a single caw. ParentID is empty for thread roots.
type Post struct {
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
}

type RegisterUserRequest struct {
	Username string `json:"username"`
}

type CawRequest struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	ParentID string `json:"parent_id,omitempty"`
}

type FollowRequest struct {
	Username string `json:"username"`
	ToFollow string `json:"to_follow"`
}

type ReadRequest struct {
	CawID string `json:"caw_id"`
}

type ProfileRequest struct {
	Username string `json:"username"`
}

// StreamRequest subscribes Username to posts tagged with Hashtag.
type StreamRequest struct {
	Hashtag  string `json:"hashtag"`
	Username string `json:"username"`
}

// Reply is the closed set of handler replies. The unexported method keeps
// implementations inside this package.
type Reply interface {
	TypeName() string
	reply()
}

// Reply type names carried in envelopes.
const (
	RegisterUserReplyType = "caw.v1.RegisterUserReply"
	CawReplyType          = "caw.v1.CawReply"
	FollowReplyType       = "caw.v1.FollowReply"
	ReadReplyType         = "caw.v1.ReadReply"
	ProfileReplyType      = "caw.v1.ProfileReply"
)

type RegisterUserReply struct{}

type CawReply struct {
	Caw Post `json:"caw"`
}

type FollowReply struct{}

type ReadReply struct {
	Caws []Post `json:"caws"`
}

type ProfileReply struct {
	Followers []string `json:"followers"`
	Following []string `json:"following"`
}

func (*RegisterUserReply) TypeName() string { return RegisterUserReplyType }
func (*CawReply) TypeName() string          { return CawReplyType }
func (*FollowReply) TypeName() string       { return FollowReplyType }
func (*ReadReply) TypeName() string         { return ReadReplyType }
func (*ProfileReply) TypeName() string      { return ProfileReplyType }

func (*RegisterUserReply) reply() {}
func (*CawReply) reply()          {}
func (*FollowReply) reply()       {}
func (*ReadReply) reply()         {}
func (*ProfileReply) reply()      {}

// NewReply returns an empty reply of the named type.
func NewReply(typeName string) (Reply, error) {
	switch typeName {
	case RegisterUserReplyType:
		return &RegisterUserReply{}, nil
	case CawReplyType:
		return &CawReply{}, nil
	case FollowReplyType:
		return &FollowReply{}, nil
	case ReadReplyType:
		return &ReadReply{}, nil
	case ProfileReplyType:
		return &ProfileReply{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown reply type %q", ErrInvalidArgument, typeName)
	}
}
