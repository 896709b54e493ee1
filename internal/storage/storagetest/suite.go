// Package storagetest holds the conformance suite every storage.Backend must pass.
package storagetest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"datagate/internal/storage"
)

// BackendSuite exercises the storage.Backend contract. Embed it and set Backend
// in SetupTest (or SetupSuite for container-backed backends).
type BackendSuite struct {
	suite.Suite
	Backend storage.Backend
	Ctx     context.Context
}

type record struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

var (
	left  = storage.DefineCollection[record]("left")
	right = storage.DefineCollection[record]("right")
)

// key keeps keys unique per test so shared backends need no cleanup.
func (s *BackendSuite) key(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

func (s *BackendSuite) ctx() context.Context {
	if s.Ctx == nil {
		return context.Background()
	}
	return s.Ctx
}

func (s *BackendSuite) TestGetMissingKey() {
	_, err := s.Backend.Get(s.ctx(), "left", s.key("missing"))
	s.Require().ErrorIs(err, storage.ErrNotFound)
}

func (s *BackendSuite) TestPutThenGet() {
	key := s.key("put")
	s.Require().NoError(s.Backend.Put(s.ctx(), "left", key, []byte(`{"name":"a"}`)))

	got, err := s.Backend.Get(s.ctx(), "left", key)
	s.Require().NoError(err)
	s.JSONEq(`{"name":"a"}`, string(got))
}

func (s *BackendSuite) TestPutReplaces() {
	key := s.key("replace")
	s.Require().NoError(s.Backend.Put(s.ctx(), "left", key, []byte(`{"name":"a"}`)))
	s.Require().NoError(s.Backend.Put(s.ctx(), "left", key, []byte(`{"name":"b"}`)))

	got, err := s.Backend.Get(s.ctx(), "left", key)
	s.Require().NoError(err)
	s.JSONEq(`{"name":"b"}`, string(got))
}

func (s *BackendSuite) TestCollectionsDoNotCollide() {
	key := s.key("shared")
	lb := storage.Bind(s.Backend, left)
	rb := storage.Bind(s.Backend, right)

	s.Require().NoError(lb.Save(s.ctx(), key, &record{Name: "left"}))

	missing, err := rb.MayLoad(s.ctx(), key)
	s.Require().NoError(err)
	s.Nil(missing)

	s.Require().NoError(rb.Save(s.ctx(), key, &record{Name: "right"}))

	l, err := lb.Load(s.ctx(), key)
	s.Require().NoError(err)
	s.Equal("left", l.Name)
	r, err := rb.Load(s.ctx(), key)
	s.Require().NoError(err)
	s.Equal("right", r.Name)
}

func (s *BackendSuite) TestBucketRoundTrip() {
	key := s.key("bucket")
	b := storage.Bind(s.Backend, left)
	in := &record{Name: "n", Roles: []string{"ROLE_0001", "ROLE_0003"}}

	s.Require().NoError(b.Save(s.ctx(), key, in))

	out, err := b.Load(s.ctx(), key)
	s.Require().NoError(err)
	s.Equal(in, out)

	out.Roles[0] = "mutated"
	again, err := b.Load(s.ctx(), key)
	s.Require().NoError(err)
	s.Equal("ROLE_0001", again.Roles[0])
}
