package pgwire

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/ormbench/bench/benchtest"
)

func TestContract(t *testing.T) {
	benchtest.RunAll(context.Background(), t, Adapter, benchtest.DSN(t))
}

func TestConnConfigPinsDateStyle(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{"url", "postgres://bench@localhost:5432/ormbench?sslmode=disable"},
		{"url overriding", "postgres://bench@localhost:5432/ormbench?sslmode=disable&DateStyle=German"},
		{"key value", "host=localhost user=bench dbname=ormbench sslmode=disable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := connConfig(tt.dsn)
			require.NoError(t, err)
			assert.Equal(t, "ISO, MDY", cfg.RuntimeParams["DateStyle"])
		})
	}

	_, err := connConfig("host='unterminated")
	assert.Error(t, err)
}

func TestParseTextArray(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`{}`, []string{}},
		{`{1}`, []string{"1"}},
		{`{1,2,30}`, []string{"1", "2", "30"}},
		{`{"Post number 0 for user 42","Post number 1 for user 42"}`,
			[]string{"Post number 0 for user 42", "Post number 1 for user 42"}},
		{`{abc,"a,b"}`, []string{"abc", "a,b"}},
		{`{"say \"hi\"","back\\slash"}`, []string{`say "hi"`, `back\slash`}},
		{`{""}`, []string{""}},
		{`{"NULL"}`, []string{"NULL"}},
	}

	for _, tt := range tests {
		got, err := parseTextArray(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseTextArrayMalformed(t *testing.T) {
	for _, in := range []string{
		``,
		`1,2`,
		`{1,2`,
		`{"open}`,
		`{"x\`,
		`{a,}`,
		`{,a}`,
		`{NULL}`,
		`{{1},{2}}`,
		`{"a"b}`,
	} {
		_, err := parseTextArray(in)
		assert.ErrorIs(t, err, errMalformedArray, in)
	}
}

func TestDecodeUser(t *testing.T) {
	row := [][]byte{
		[]byte("7"),
		[]byte("User 6"),
		[]byte("hair color 6"),
		[]byte("2024-03-01 12:30:45.123456"),
	}

	u, err := decodeUser(row)
	require.NoError(t, err)

	assert.Equal(t, int32(7), u.ID)
	assert.Equal(t, "User 6", u.Name)
	require.NotNil(t, u.HairColor)
	assert.Equal(t, "hair color 6", *u.HairColor)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 45, 123456000, time.UTC), u.CreatedAt)
}

func TestDecodeUserNullHairColorNoFraction(t *testing.T) {
	u, err := decodeUser([][]byte{[]byte("1"), []byte("x"), nil, []byte("2024-03-01 12:30:45")})
	require.NoError(t, err)

	assert.Nil(t, u.HairColor)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC), u.CreatedAt)
}

func TestDecodeUserErrors(t *testing.T) {
	_, err := decodeUser([][]byte{[]byte("1")})
	assert.Error(t, err)

	_, err = decodeUser([][]byte{[]byte("x"), nil, nil, []byte("2024-03-01 12:30:45")})
	assert.Error(t, err)

	_, err = decodeUser([][]byte{[]byte("1"), nil, nil, []byte("yesterday")})
	assert.Error(t, err)
}

func TestDecodeUserWithPosts(t *testing.T) {
	row := [][]byte{
		[]byte("42"),
		[]byte("User 41"),
		[]byte("hair color 41"),
		[]byte("2024-03-01 12:30:45"),
		[]byte("{10,11}"),
		[]byte(`{"Post number 0 for user 42","Post number 1 for user 42"}`),
		[]byte("{abc,cab}"),
	}

	up, err := decodeUserWithPosts(row)
	require.NoError(t, err)

	require.Len(t, up.Posts, 2)
	assert.Equal(t, int32(11), up.Posts[1].ID)
	assert.Equal(t, "Post number 1 for user 42", up.Posts[1].Title)
	assert.Equal(t, "cab", up.Posts[1].Content)
	assert.Equal(t, int32(42), up.Posts[1].Author)
}

func TestDecodeUserWithoutPosts(t *testing.T) {
	row := [][]byte{
		[]byte("3"), []byte("User 2"), nil, []byte("2024-03-01 12:30:45"),
		[]byte("{}"), []byte("{}"), []byte("{}"),
	}

	up, err := decodeUserWithPosts(row)
	require.NoError(t, err)

	assert.NotNil(t, up.Posts)
	assert.Empty(t, up.Posts)
}
