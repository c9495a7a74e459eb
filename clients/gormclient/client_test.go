package gormclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/bench/benchtest"
	"github.com/weiihann/ormbench/workload"
)

func TestContract(t *testing.T) {
	benchtest.RunAll(context.Background(), t, Adapter, benchtest.DSN(t))
}

func TestNewUserCopiesHairColor(t *testing.T) {
	users := workload.Users(2)

	a := newUser(users[0])
	b := newUser(users[1])

	assert.Equal(t, "User 0", a.Name)
	assert.Equal(t, "hair color 0", *a.HairColor)
	assert.Equal(t, "hair color 1", *b.HairColor)
	assert.NotSame(t, a.HairColor, b.HairColor)
}

func TestBenchPostsNeverNil(t *testing.T) {
	assert.Equal(t, []bench.Post{}, user{ID: 1}.benchPosts())

	u := user{ID: 42, Posts: []post{{ID: 5, Title: "t", Content: "c", Author: 42}}}
	assert.Equal(t, []bench.Post{{ID: 5, Title: "t", Content: "c", Author: 42}}, u.benchPosts())
}
