package benchtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/workload"
)

// Fake is an in-memory bench.Client. It understands the statements issued
// by bench.Setup and bench.TearDown well enough to drive the harness
// without a database. Set Fail to inject errors per method name.
type Fake struct {
	mu sync.Mutex

	Fail map[string]error

	Statements []string
	Calls      map[string]int
	Closed     bool

	users  []bench.User
	posts  []bench.Post
	nextID int32
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		Fail:  map[string]error{},
		Calls: map[string]int{},
	}
}

// Adapter returns an adapter whose factory always hands out f.
func (f *Fake) Adapter(name string) bench.Adapter {
	return bench.Adapter{
		Name:    name,
		Kind:    "fake",
		Library: "in-memory",
		Open: func(context.Context, string) (bench.Client, error) {
			if err := f.fail("Open"); err != nil {
				return nil, err
			}

			return f, nil
		},
	}
}

func (f *Fake) fail(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls[method]++

	return f.Fail[method]
}

func (f *Fake) Exec(_ context.Context, statement string) error {
	if err := f.fail("Exec"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Statements = append(f.Statements, statement)

	switch {
	case strings.HasPrefix(statement, "CREATE TABLE users"):
		f.users = nil
		f.nextID = 0
	case strings.HasPrefix(statement, "CREATE TABLE posts"):
		f.posts = nil
	case strings.HasPrefix(statement, "INSERT INTO posts"):
		f.seedPosts()
	}

	return nil
}

// seedPosts adds RelationPostsPerUser posts per user; the fake does not
// parse the requested count.
func (f *Fake) seedPosts() {
	id := int32(len(f.posts))
	for _, u := range f.users {
		for p := 0; p < bench.RelationPostsPerUser; p++ {
			id++
			f.posts = append(f.posts, bench.Post{
				ID:      id,
				Title:   workload.PostTitle(p, u.ID),
				Content: workload.PostContent(),
				Author:  u.ID,
			})
		}
	}
}

func (f *Fake) insert(nu bench.NewUser) {
	f.nextID++
	hc := nu.HairColor
	f.users = append(f.users, bench.User{
		ID:        f.nextID,
		Name:      nu.Name,
		HairColor: &hc,
		CreatedAt: time.Now(),
	})
}

func (f *Fake) InsertUser(context.Context) error {
	if err := f.fail("InsertUser"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.insert(workload.First)

	return nil
}

func (f *Fake) InsertUsers(_ context.Context, n int) error {
	if err := f.fail("InsertUsers"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, nu := range workload.Users(n) {
		f.insert(nu)
	}

	return nil
}

func (f *Fake) FetchAll(context.Context) ([]bench.User, error) {
	if err := f.fail("FetchAll"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]bench.User(nil), f.users...), nil
}

func (f *Fake) FetchFirst(context.Context) (bench.User, error) {
	if err := f.fail("FetchFirst"); err != nil {
		return bench.User{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.users) == 0 {
		return bench.User{}, bench.ErrNoRows
	}

	return f.users[0], nil
}

func (f *Fake) FetchLast(context.Context) (bench.User, error) {
	if err := f.fail("FetchLast"); err != nil {
		return bench.User{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.users) <= bench.LastRowOffset {
		return bench.User{}, bench.ErrOffsetOutOfRange
	}

	return f.users[bench.LastRowOffset], nil
}

func (f *Fake) OneRelation(context.Context) (bench.User, []bench.Post, error) {
	if err := f.fail("OneRelation"); err != nil {
		return bench.User{}, nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, up := range bench.GroupPosts(f.users, f.posts) {
		if up.User.ID == bench.RelationUserID {
			return up.User, up.Posts, nil
		}
	}

	return bench.User{}, nil, bench.ErrNoRows
}

func (f *Fake) AllRelations(context.Context) ([]bench.UserPosts, error) {
	if err := f.fail("AllRelations"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return bench.GroupPosts(f.users, f.posts), nil
}

func (f *Fake) Close() error {
	if err := f.fail("Close"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true

	return nil
}

// Count returns how many times method was called.
func (f *Fake) Count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.Calls[method]
}
