// Package workload produces the deterministic, index-derived fixture rows
// inserted by the benchmark operations. Fixture slices are built once per
// size and shared afterwards, so timed loops never format strings.
package workload

import (
	"strconv"
	"strings"
	"sync"

	"github.com/weiihann/ormbench/bench"
)

// First is the row InsertUser writes.
var First = bench.NewUser{Name: UserName(0), HairColor: HairColor(0)}

var (
	mu    sync.Mutex
	cache = map[int][]bench.NewUser{}

	contentOnce sync.Once
	content     string
)

// UserName returns the name of the i-th fixture user.
func UserName(i int) string {
	return "User " + strconv.Itoa(i)
}

// HairColor returns the hair color of the i-th fixture user.
func HairColor(i int) string {
	return "hair color " + strconv.Itoa(i)
}

// PostTitle returns the title of post number p for the given user id.
func PostTitle(p int, userID int32) string {
	return "Post number " + strconv.Itoa(p) + " for user " +
		strconv.FormatInt(int64(userID), 10)
}

// PostContent returns "abc" cycled to bench.PostContentLength characters.
func PostContent() string {
	contentOnce.Do(func() {
		s := strings.Repeat("abc", bench.PostContentLength/3+1)
		content = s[:bench.PostContentLength]
	})

	return content
}

// Users returns the first n fixture users. The returned slice is shared
// and must not be modified.
func Users(n int) []bench.NewUser {
	if n <= 0 {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	if users, ok := cache[n]; ok {
		return users
	}

	users := make([]bench.NewUser, n)
	for i := range users {
		users[i] = bench.NewUser{Name: UserName(i), HairColor: HairColor(i)}
	}

	cache[n] = users

	return users
}
