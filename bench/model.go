package bench

import "time"

// User mirrors a row of the users table. ID is zero until persisted.
type User struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	HairColor *string   `json:"hair_color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Post mirrors a row of the posts table.
type Post struct {
	ID      int32  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  int32  `json:"author"`
}

// UserPosts pairs a user with the posts it authored.
type UserPosts struct {
	User  User
	Posts []Post
}

// NewUser is the insert payload for a users row.
type NewUser struct {
	Name      string
	HairColor string
}

// GroupPosts pairs every user with the posts whose Author matches its ID.
// Users keep their input order; users without posts get an empty slice.
// Posts whose author is not among users are dropped.
func GroupPosts(users []User, posts []Post) []UserPosts {
	index := make(map[int32]int, len(users))
	out := make([]UserPosts, len(users))

	for i, u := range users {
		index[u.ID] = i
		out[i] = UserPosts{User: u, Posts: []Post{}}
	}

	for _, p := range posts {
		i, ok := index[p.Author]
		if !ok {
			continue
		}
		out[i].Posts = append(out[i].Posts, p)
	}

	return out
}
