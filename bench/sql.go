package bench

// Statements shared by the adapters that speak plain SQL. Relation
// queries aggregate post columns into parallel arrays ordered by post id;
// users without posts get empty arrays.
const (
	InsertUserSQL = `INSERT INTO users (name, hair_color) VALUES ($1, $2)`

	SelectUsersSQL = `SELECT id, name, hair_color, created_at FROM users`

	SelectPostsSQL = `SELECT id, title, content, author FROM posts`

	SelectUserWithPostsSQL = `SELECT u.id, u.name, u.hair_color, u.created_at,
	COALESCE(array_agg(p.id ORDER BY p.id) FILTER (WHERE p.id IS NOT NULL), '{}') AS post_ids,
	COALESCE(array_agg(p.title ORDER BY p.id) FILTER (WHERE p.id IS NOT NULL), '{}') AS post_titles,
	COALESCE(array_agg(p.content ORDER BY p.id) FILTER (WHERE p.id IS NOT NULL), '{}') AS post_contents
FROM users u
LEFT JOIN posts p ON p.author = u.id
WHERE u.id = $1
GROUP BY u.id, u.name, u.hair_color, u.created_at`

	SelectUsersWithPostsSQL = `SELECT u.id, u.name, u.hair_color, u.created_at,
	COALESCE(array_agg(p.id ORDER BY p.id) FILTER (WHERE p.id IS NOT NULL), '{}') AS post_ids,
	COALESCE(array_agg(p.title ORDER BY p.id) FILTER (WHERE p.id IS NOT NULL), '{}') AS post_titles,
	COALESCE(array_agg(p.content ORDER BY p.id) FILTER (WHERE p.id IS NOT NULL), '{}') AS post_contents
FROM users u
LEFT JOIN posts p ON p.author = u.id
GROUP BY u.id, u.name, u.hair_color, u.created_at`
)

// ZipPosts builds the posts of author from parallel id, title and content
// columns. The shortest column bounds the result.
func ZipPosts(author int32, ids []int32, titles, contents []string) []Post {
	n := min(len(ids), len(titles), len(contents))
	posts := make([]Post, n)

	for i := 0; i < n; i++ {
		posts[i] = Post{
			ID:      ids[i],
			Title:   titles[i],
			Content: contents[i],
			Author:  author,
		}
	}

	return posts
}
